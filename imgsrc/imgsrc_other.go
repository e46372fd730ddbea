//go:build !aix && !darwin && !dragonfly && !freebsd && !linux && !netbsd && !openbsd && !solaris

package imgsrc

import (
	"fmt"
	"os"
	"unsafe"
)

// openSource reads f fully into memory. Functionally identical to the mmap
// path from ext2's point of view, just without the zero-copy property.
func openSource(f *os.File, size int64) (*Source, error) {
	data := make([]byte, size)
	if _, err := f.ReadAt(data, 0); err != nil {
		return nil, fmt.Errorf("reading image into memory: %w", err)
	}
	return &Source{
		Data:     data,
		BaseAddr: uintptr(unsafe.Pointer(&data[0])),
		closer:   nil,
	}, nil
}
