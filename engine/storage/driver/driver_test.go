package driver

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMemoryDriverWriteReadRoundTrip(t *testing.T) {
	d := NewMemoryDriver()
	assert.True(t, d.IsMemory())

	buf := []byte{1, 2, 3, 4}
	assert.NoError(t, d.WritePage(2, buf))

	got, err := d.ReadPage(2, 4)
	assert.NoError(t, err)
	assert.Equal(t, buf, got)
}

func TestMemoryDriverReadMissingPage(t *testing.T) {
	d := NewMemoryDriver()
	_, err := d.ReadPage(7, 4)
	assert.ErrorIs(t, err, ErrPageNotFound)
}

func TestMemoryDriverReadMissingHeader(t *testing.T) {
	d := NewMemoryDriver()
	_, err := d.ReadPage(0, 100)
	assert.ErrorIs(t, err, ErrNoHeader)
}

func TestMemoryDriverCommitIsNoop(t *testing.T) {
	d := NewMemoryDriver()
	assert.NoError(t, d.Commit())
}

func TestFileDriverWriteReadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.rlite")
	d := NewFileDriver(path, ReadWrite|Create)
	assert.False(t, d.IsMemory())

	buf := make([]byte, 16)
	copy(buf, "hello page")
	assert.NoError(t, d.WritePage(3, buf))
	assert.NoError(t, d.Commit())

	got, err := d.ReadPage(3, 16)
	assert.NoError(t, err)
	assert.Equal(t, buf, got)
	assert.NoError(t, d.Close())
}

func TestFileDriverReadMissingPageIsNotFound(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.rlite")
	d := NewFileDriver(path, ReadWrite|Create)
	_, err := d.ReadPage(5, 16)
	assert.ErrorIs(t, err, ErrPageNotFound)
}

func TestFileDriverSizeTracksWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.rlite")
	d := NewFileDriver(path, ReadWrite|Create)
	defer d.Close()

	buf := make([]byte, 16)
	assert.NoError(t, d.WritePage(0, buf))
	size, err := d.Size()
	assert.NoError(t, err)
	assert.Equal(t, int64(16), size)

	assert.NoError(t, d.WritePage(2, buf))
	size, err = d.Size()
	assert.NoError(t, err)
	assert.Equal(t, int64(48), size)
}

func TestFileDriverWithoutCreateFlagFailsToOpenMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.rlite")
	d := NewFileDriver(path, ReadWrite)
	_, err := d.ReadPage(0, 16)
	assert.Error(t, err)
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestOpenFlagsHas(t *testing.T) {
	f := ReadWrite | Create
	assert.True(t, f.Has(ReadWrite))
	assert.True(t, f.Has(Create))
	assert.False(t, OpenFlags(0).Has(ReadWrite))
}
