package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitChannelsTrimsAndDropsEmpty(t *testing.T) {
	got := splitChannels(" room1 , room2,,room3 ")
	assert.Equal(t, [][]byte{[]byte("room1"), []byte("room2"), []byte("room3")}, got)
}

func TestSplitChannelsEmptyInput(t *testing.T) {
	got := splitChannels("")
	assert.Len(t, got, 0)
}
