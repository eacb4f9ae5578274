package driver

// MemoryDriver keeps every page in a process-local map and never
// touches disk. Opening always succeeds; Commit is a no-op because
// mutations are already authoritative in the map (spec.md §4.1/§4.4).
type MemoryDriver struct {
	pages map[int64][]byte
}

// NewMemoryDriver returns an empty in-memory page image.
func NewMemoryDriver() *MemoryDriver {
	return &MemoryDriver{pages: make(map[int64][]byte)}
}

func (d *MemoryDriver) IsMemory() bool { return true }

func (d *MemoryDriver) ReadPage(pageNumber int64, pageSize uint32) ([]byte, error) {
	buf, ok := d.pages[pageNumber]
	if !ok {
		if pageNumber == 0 {
			return nil, ErrNoHeader
		}
		return nil, ErrPageNotFound
	}
	out := make([]byte, len(buf))
	copy(out, buf)
	return out, nil
}

func (d *MemoryDriver) WritePage(pageNumber int64, buf []byte) error {
	stored := make([]byte, len(buf))
	copy(stored, buf)
	d.pages[pageNumber] = stored
	return nil
}

// Size reports the number of distinct pages stored, not meaningful as a
// byte length; the memory driver never needs it since ReadHeader always
// treats a memory-backed Manager as freshly created.
func (d *MemoryDriver) Size() (int64, error) { return int64(len(d.pages)), nil }

func (d *MemoryDriver) Commit() error { return nil }

func (d *MemoryDriver) Close() error { return nil }
