// Package fifo implements spec.md §4.7/§6's cross-process wake-up
// signal: one reader per subscriber id, blocking on a named pipe until
// a publisher writes a single ignored byte. Not present in the
// retrieved original source (fifo.c was not part of the retrieval
// pack); the wire contract — "one byte per wake-up, payload ignored"
// — is spec.md's, built here on golang.org/x/sys/unix the way the
// teacher's own transitive dependency on that package is used
// elsewhere for raw syscalls.
package fifo

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// Create makes the named pipe at path if it does not already exist.
func Create(path string) error {
	err := unix.Mkfifo(path, 0600)
	if err != nil && err != unix.EEXIST {
		return fmt.Errorf("fifo: mkfifo %s: %w", path, err)
	}
	return nil
}

// Signal best-effort wakes up whatever is blocked reading path. A
// missing reader (ENXIO on a FIFO with O_NONBLOCK) is not an error:
// spec.md's pub/sub race (§9) accepts that a signal may arrive with no
// one listening.
func Signal(path string) error {
	fd, err := os.OpenFile(path, os.O_WRONLY|os.O_NONBLOCK, 0)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		if pathErr, ok := err.(*os.PathError); ok && pathErr.Err == unix.ENXIO {
			return nil
		}
		return fmt.Errorf("fifo: open %s for signal: %w", path, err)
	}
	defer fd.Close()
	_, err = fd.Write([]byte{1})
	if err != nil && err != unix.ENXIO {
		return fmt.Errorf("fifo: write %s: %w", path, err)
	}
	return nil
}

// Wait blocks until a byte arrives on path, ctx is cancelled, or its
// deadline passes. It creates the pipe first if missing.
//
// The open(2) call for a FIFO's read end itself blocks until some writer
// opens the other end (POSIX rendezvous semantics) — there is no portable
// way to interrupt that wait other than having a writer show up, so both
// the open and the subsequent read run in a goroutine; a cancelled ctx
// returns to the caller immediately regardless of whether that goroutine
// is still parked in open(2). It exits on its own, its result discarded
// on the buffered channel, once some future Signal call finally opens
// the write end (whether or not this Wait is still around to see it).
func Wait(ctx context.Context, path string) error {
	if err := Create(path); err != nil {
		return err
	}

	done := make(chan error, 1)
	go func() {
		fd, err := os.OpenFile(path, os.O_RDONLY, 0)
		if err != nil {
			done <- fmt.Errorf("fifo: open %s for wait: %w", path, err)
			return
		}
		defer fd.Close()
		buf := make([]byte, 1)
		_, err = fd.Read(buf)
		done <- err
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("fifo: read %s: %w", path, err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
