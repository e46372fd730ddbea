package ext2

import (
	"encoding/binary"
	"unsafe"
)

// baseAddrOf returns the address of data's first byte, the baseAddr value
// that yields a block_offset of 0 for a whole-image buffer (mirroring what
// imgsrc passes in production: the image's own mapped address).
func baseAddrOf(data []byte) uintptr {
	return uintptr(unsafe.Pointer(&data[0]))
}

// imageBuilder hand-crafts a minimal revision-0 ext2 image entirely in
// memory: one block group, a handful of inodes, and whatever directory and
// file content a test needs. There is no mkfs/debugfs dependency; every
// byte is placed explicitly.
type imageBuilder struct {
	blockSize      uint32
	blocksCount    uint32
	inodesPerGroup uint32
	inodesCount    uint32
	blocks         [][]byte
}

func newImageBuilder(blockSize uint32, blocksCount uint32, inodesPerGroup uint32) *imageBuilder {
	blocks := make([][]byte, blocksCount)
	for i := range blocks {
		blocks[i] = make([]byte, blockSize)
	}
	return &imageBuilder{
		blockSize:      blockSize,
		blocksCount:    blocksCount,
		inodesPerGroup: inodesPerGroup,
		inodesCount:    inodesPerGroup,
		blocks:         blocks,
	}
}

// gdtBlockIndex returns the on-disk block index holding the group
// descriptor table: the block after the one holding the superblock (which
// is always at byte offset 1024, regardless of block size).
func (b *imageBuilder) gdtBlockIndex() uint32 {
	if b.blockSize == 1024 {
		return 2
	}
	return 1
}

func (b *imageBuilder) inodeTableBlockIndex() uint32 {
	return b.gdtBlockIndex() + 1
}

// inodeTableBlocks returns how many blocks the single inode table occupies.
func (b *imageBuilder) inodeTableBlocks() uint32 {
	perBlock := b.blockSize / inodeSize
	count := b.inodesPerGroup / perBlock
	if b.inodesPerGroup%perBlock != 0 {
		count++
	}
	return count
}

// firstDataBlockIndex is the first block index available for file and
// directory content in this single-group layout.
func (b *imageBuilder) firstDataBlockIndex() uint32 {
	return b.inodeTableBlockIndex() + b.inodeTableBlocks()
}

func (b *imageBuilder) writeSuperblock() {
	blk := make([]byte, b.blockSize)
	var sbOff int
	if b.blockSize == 1024 {
		sbOff = 0
	} else {
		sbOff = 1024
	}
	sb := blk[sbOff:]

	var logBlockSize uint32
	for sz := uint32(1024); sz < b.blockSize; sz <<= 1 {
		logBlockSize++
	}

	binary.LittleEndian.PutUint32(sb[0x0:0x4], b.inodesCount)
	binary.LittleEndian.PutUint32(sb[0x4:0x8], b.blocksCount)
	binary.LittleEndian.PutUint32(sb[0x10:0x14], b.inodesCount-2) // free_inodes_count, arbitrary but plausible
	binary.LittleEndian.PutUint32(sb[0x18:0x1c], logBlockSize)
	binary.LittleEndian.PutUint32(sb[0x20:0x24], b.blocksCount) // blocks_per_group: single group
	binary.LittleEndian.PutUint32(sb[0x28:0x2c], b.inodesPerGroup)
	binary.LittleEndian.PutUint16(sb[0x38:0x3a], ext2Magic)

	if b.blockSize == 1024 {
		b.blocks[1] = blk
	} else {
		b.blocks[0] = blk
	}
}

func (b *imageBuilder) writeGDT() {
	blk := make([]byte, b.blockSize)
	// single group descriptor at offset 0
	binary.LittleEndian.PutUint32(blk[0x4:0x8], 0)                         // inode_usage_addr, unused by these tests unless set
	binary.LittleEndian.PutUint32(blk[0x8:0xc], b.inodeTableBlockIndex())  // inode_table_block
	binary.LittleEndian.PutUint16(blk[0xe:0x10], uint16(b.inodesPerGroup)) // free_inodes_count, arbitrary
	b.blocks[b.gdtBlockIndex()] = blk
}

func (b *imageBuilder) setGroupInodeUsageAddr(blockIdx uint32) {
	gdt := b.blocks[b.gdtBlockIndex()]
	binary.LittleEndian.PutUint32(gdt[0x4:0x8], blockIdx)
}

// writeInode writes inode number n (1-indexed) into the inode table.
func (b *imageBuilder) writeInode(n uint32, typePerm uint16, sizeLow uint32, direct [12]uint32, indirect, doublyIndirect, triplyIndirect uint32) {
	perBlock := b.blockSize / inodeSize
	index := n - 1
	blockOff := index / perBlock
	byteOff := (index % perBlock) * inodeSize

	blk := b.blocks[b.inodeTableBlockIndex()+blockOff]
	rec := blk[byteOff : byteOff+inodeSize]

	binary.LittleEndian.PutUint16(rec[0x0:0x2], typePerm)
	binary.LittleEndian.PutUint32(rec[0x4:0x8], sizeLow)
	binary.LittleEndian.PutUint16(rec[0x1a:0x1c], 1) // links_count
	for i := 0; i < 12; i++ {
		off := 0x28 + i*4
		binary.LittleEndian.PutUint32(rec[off:off+4], direct[i])
	}
	binary.LittleEndian.PutUint32(rec[0x58:0x5c], indirect)
	binary.LittleEndian.PutUint32(rec[0x5c:0x60], doublyIndirect)
	binary.LittleEndian.PutUint32(rec[0x60:0x64], triplyIndirect)
}

// writeDirEntry appends one directory entry record to block starting at
// byte offset off, returning the offset of the next record.
func writeDirEntry(block []byte, off int, inode uint32, name string, entrySize uint16, typeIndicator uint8) int {
	binary.LittleEndian.PutUint32(block[off:off+4], inode)
	binary.LittleEndian.PutUint16(block[off+4:off+6], entrySize)
	block[off+6] = uint8(len(name))
	block[off+7] = typeIndicator
	copy(block[off+8:off+8+len(name)], name)
	return off + int(entrySize)
}

// writeBlockNumbers encodes a slice of block numbers as a meta-block (array
// of 32-bit little-endian values), zero-terminated if it doesn't fill the
// whole block.
func writeBlockNumbers(block []byte, nums []uint32) {
	for i, n := range nums {
		binary.LittleEndian.PutUint32(block[i*4:i*4+4], n)
	}
	if end := len(nums) * 4; end+4 <= len(block) {
		binary.LittleEndian.PutUint32(block[end:end+4], 0)
	}
}

func (b *imageBuilder) bytes() []byte {
	out := make([]byte, 0, int(b.blockSize)*int(b.blocksCount))
	for _, blk := range b.blocks {
		out = append(out, blk...)
	}
	return out
}
