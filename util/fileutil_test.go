package util

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPathExistsOnExistingDir(t *testing.T) {
	exists, err := PathExists(t.TempDir())
	assert.NoError(t, err)
	assert.True(t, exists)
}

func TestPathExistsOnMissingPath(t *testing.T) {
	exists, err := PathExists(filepath.Join(t.TempDir(), "nope"))
	assert.NoError(t, err)
	assert.False(t, exists)
}

func TestCreateDataBaseDirCreatesFolder(t *testing.T) {
	base := t.TempDir()
	assert.True(t, CreateDataBaseDir(base, "fifos"))

	exists, err := PathExists(filepath.Join(base, "fifos"))
	assert.NoError(t, err)
	assert.True(t, exists)
}

func TestCreateDataBaseDirIsIdempotent(t *testing.T) {
	base := t.TempDir()
	assert.True(t, CreateDataBaseDir(base, "fifos"))
	assert.True(t, CreateDataBaseDir(base, "fifos"))
}
