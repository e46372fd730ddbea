package ext2

import (
	"fmt"

	"github.com/dgrahm/ext2insp/util/bitmap"
)

// FirstFreeInode scans block group g's inode usage bitmap and returns the
// 0-indexed bit position of the first unallocated inode, or -1 if the group
// is full.
//
// This is a read-only primitive: it answers "is there a free inode here,
// and which one," the same question the original mkdir sketch needed
// answered before it gave up. It does not mark the inode allocated; no
// writer exists to make that durable.
func (img *Image) FirstFreeInode(g int) (int, error) {
	if g < 0 || g >= len(img.groups) {
		return 0, fmt.Errorf("group %d out of range, have %d groups", g, len(img.groups))
	}
	block, err := img.blockAt(img.groups[g].inodeUsageAddr)
	if err != nil {
		return 0, fmt.Errorf("group %d inode usage bitmap: %w", g, err)
	}
	bm := bitmap.FromBytes(block[:bitmapBytesFor(img.sb.inodesPerGroup)])
	return bm.FirstFree(0), nil
}

// bitmapBytesFor returns how many bytes are needed to hold one bit per
// inode in a group.
func bitmapBytesFor(inodesPerGroup uint32) int {
	return int((inodesPerGroup + 7) / 8)
}
