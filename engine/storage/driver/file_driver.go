package driver

import (
	"fmt"
	"os"

	"github.com/zhukovaskychina/rlitedb/engine/storage/blockcache"
	"github.com/zhukovaskychina/rlitedb/logger"
)

const defaultBlockCacheSize = 64

// FileDriver persists pages to a regular file, opened lazily on first
// access (spec.md §4.1).
type FileDriver struct {
	Filename string
	Flags    OpenFlags

	fp     *os.File
	blocks *blockcache.Cache
}

// NewFileDriver returns a driver for filename. It does not touch the
// filesystem until the first ReadPage/WritePage.
func NewFileDriver(filename string, flags OpenFlags) *FileDriver {
	return &FileDriver{
		Filename: filename,
		Flags:    flags,
		blocks:   blockcache.New(defaultBlockCacheSize),
	}
}

func (d *FileDriver) IsMemory() bool { return false }

func (d *FileDriver) ensureOpen() error {
	if d.fp != nil {
		return nil
	}
	flag := os.O_RDONLY
	if d.Flags.Has(ReadWrite) {
		flag = os.O_RDWR
	}
	if d.Flags.Has(Create) {
		flag |= os.O_CREATE
	}
	fp, err := os.OpenFile(d.Filename, flag, 0644)
	if err != nil {
		logger.Errorf("driver: cannot open file %s: %v", d.Filename, err)
		return fmt.Errorf("driver: cannot open file %s: %w", d.Filename, err)
	}
	d.fp = fp
	return nil
}

func (d *FileDriver) ReadPage(pageNumber int64, pageSize uint32) ([]byte, error) {
	if cached, ok := d.blocks.Get(pageNumber); ok {
		return cached, nil
	}
	if err := d.ensureOpen(); err != nil {
		return nil, err
	}
	buf := make([]byte, pageSize)
	n, err := d.fp.ReadAt(buf, pageNumber*int64(pageSize))
	if n != int(pageSize) {
		if pageNumber == 0 {
			return nil, ErrNoHeader
		}
		return nil, ErrPageNotFound
	}
	if err != nil {
		return nil, err
	}
	d.blocks.Put(pageNumber, buf)
	return buf, nil
}

func (d *FileDriver) WritePage(pageNumber int64, buf []byte) error {
	if err := d.ensureOpen(); err != nil {
		return err
	}
	n, err := d.fp.WriteAt(buf, pageNumber*int64(len(buf)))
	if err != nil {
		return fmt.Errorf("driver: write page %d: %w", pageNumber, err)
	}
	if n != len(buf) {
		return fmt.Errorf("driver: short write on page %d: wrote %d of %d bytes", pageNumber, n, len(buf))
	}
	d.blocks.Invalidate(pageNumber)
	return nil
}

func (d *FileDriver) Size() (int64, error) {
	if err := d.ensureOpen(); err != nil {
		return 0, err
	}
	fi, err := d.fp.Stat()
	if err != nil {
		return 0, err
	}
	return fi.Size(), nil
}

func (d *FileDriver) Commit() error {
	if d.fp == nil {
		return nil
	}
	return d.fp.Sync()
}

func (d *FileDriver) Close() error {
	if d.fp == nil {
		return nil
	}
	err := d.fp.Close()
	d.fp = nil
	return err
}
