// Package imgsrc acquires the byte region an ext2 image is parsed from. It
// knows nothing about the ext2 on-disk layout; its only job is turning a
// path on disk into a []byte and a base address, the two inputs ext2.Open
// needs.
package imgsrc

import (
	"fmt"
	"os"
)

// Source is an opened image backing store: the bytes themselves, the base
// address to pass to ext2.Open, and a Close to release any mapping.
type Source struct {
	Data     []byte
	BaseAddr uintptr
	closer   func() error
}

// Close releases the memory mapping held by the source, if any; the file
// itself is already closed when Open returns. Views derived from Data must not be used afterward.
func (s *Source) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer()
}

// Open acquires the byte image at path. On POSIX targets this memory-maps
// the file read-only; elsewhere it falls back to reading the file fully
// into memory. Either way, the returned Source.Data is never re-derived
// from the backing file after Open returns — the zero-copy property holds
// for the mmap path, and the fallback path simply forgoes it.
func Open(path string) (*Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.Size() < 2048 {
		return nil, fmt.Errorf("%s is %d bytes, too small to be an ext2 image", path, info.Size())
	}

	return openSource(f, info.Size())
}
