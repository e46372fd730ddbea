//go:build aix || darwin || dragonfly || freebsd || linux || netbsd || openbsd || solaris

package imgsrc

import (
	"fmt"
	"os"
	"unsafe"

	"golang.org/x/sys/unix"
)

// openSource memory-maps f read-only, PROT_READ/MAP_SHARED, and returns a
// Source whose Data is the mapped region and whose Close unmaps it.
func openSource(f *os.File, size int64) (*Source, error) {
	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("mmap: %w", err)
	}

	return &Source{
		Data:     data,
		BaseAddr: uintptr(unsafe.Pointer(&data[0])),
		closer: func() error {
			return unix.Munmap(data)
		},
	}, nil
}
