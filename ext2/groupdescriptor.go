package ext2

import (
	"encoding/binary"
	"fmt"
)

// groupDescriptorSize is the fixed on-disk size of a block group descriptor
// record in a revision-0 filesystem (no 64-bit feature, no checksums).
const groupDescriptorSize = 32

// groupDescriptor is the bookkeeping record for one block group: where its
// bitmaps and inode table live, and its free-resource counters.
type groupDescriptor struct {
	number            int
	blockUsageAddr    uint32
	inodeUsageAddr    uint32
	inodeTableBlock   uint32
	freeBlocksCount   uint16
	freeInodesCount   uint16
	dirsCount         uint16
}

func groupDescriptorFromBytes(b []byte, number int) (*groupDescriptor, error) {
	if len(b) < groupDescriptorSize {
		return nil, fmt.Errorf("group descriptor data too short: %d bytes, need %d", len(b), groupDescriptorSize)
	}
	return &groupDescriptor{
		number:          number,
		blockUsageAddr:  binary.LittleEndian.Uint32(b[0x0:0x4]),
		inodeUsageAddr:  binary.LittleEndian.Uint32(b[0x4:0x8]),
		inodeTableBlock: binary.LittleEndian.Uint32(b[0x8:0xc]),
		freeBlocksCount: binary.LittleEndian.Uint16(b[0xc:0xe]),
		freeInodesCount: binary.LittleEndian.Uint16(b[0xe:0x10]),
		dirsCount:       binary.LittleEndian.Uint16(b[0x10:0x12]),
	}, nil
}

// groupDescriptorsFromBytes decodes a contiguous table of count descriptors
// starting at the beginning of b.
func groupDescriptorsFromBytes(b []byte, count uint32) ([]groupDescriptor, error) {
	need := int(count) * groupDescriptorSize
	if len(b) < need {
		return nil, fmt.Errorf("group descriptor table data too short: %d bytes, need %d", len(b), need)
	}
	gds := make([]groupDescriptor, count)
	for i := uint32(0); i < count; i++ {
		start := int(i) * groupDescriptorSize
		gd, err := groupDescriptorFromBytes(b[start:start+groupDescriptorSize], int(i))
		if err != nil {
			return nil, fmt.Errorf("group descriptor %d: %w", i, err)
		}
		gds[i] = *gd
	}
	return gds, nil
}

// FreeBlocksCount returns this group's free block count.
func (g *groupDescriptor) FreeBlocksCount() uint16 { return g.freeBlocksCount }

// FreeInodesCount returns this group's free inode count.
func (g *groupDescriptor) FreeInodesCount() uint16 { return g.freeInodesCount }

// DirsCount returns the number of directories allocated in this group.
func (g *groupDescriptor) DirsCount() uint16 { return g.dirsCount }

// InodeTableBlock returns the on-disk block number of this group's inode table.
func (g *groupDescriptor) InodeTableBlock() uint32 { return g.inodeTableBlock }

// InodeUsageAddr returns the on-disk block number of this group's inode usage bitmap.
func (g *groupDescriptor) InodeUsageAddr() uint32 { return g.inodeUsageAddr }

// BlockUsageAddr returns the on-disk block number of this group's block usage bitmap.
func (g *groupDescriptor) BlockUsageAddr() uint32 { return g.blockUsageAddr }
