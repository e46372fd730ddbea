// Package ext2 parses a revision-0 ext2 filesystem image held entirely in
// memory. The superblock, block group descriptors, inodes, and directory
// entries are decoded field by field into Go values; block contents are
// handed out as sub-slices of the backing byte slice, never copied.
//
// The package never performs I/O itself; acquiring the bytes (from a file,
// a memory-mapped device, or anywhere else) is the caller's job, typically
// via the imgsrc package.
package ext2

import (
	"fmt"
	"unsafe"

	log "github.com/sirupsen/logrus"
)

// Image is an opened ext2 filesystem: a superblock, a block group
// descriptor table, and the sequence of fixed-size blocks that make up the
// rest of the image.
type Image struct {
	data        []byte
	sb          *superblock
	groups      []groupDescriptor
	blockOffset int64
}

// Open parses data as a revision-0 ext2 image. baseAddr identifies where
// device block 0 would sit relative to data, in the same address space;
// passing the address of data itself yields a block_offset of 0,
// appropriate for an image of a whole device. A caller representing a
// partition carved from a larger mapped device should pass that device's
// own base address instead, so block_offset comes out as the distance, in
// blocks, from device block 0 to the start of data.
func Open(data []byte, baseAddr uintptr) (*Image, error) {
	if len(data) < superblockOffset+superblockSize {
		return nil, fmt.Errorf("image is %d bytes, too small for a superblock: %w", len(data), ErrImageTooSmall)
	}

	sb, err := superblockFromBytes(data[superblockOffset : superblockOffset+superblockSize])
	if err != nil {
		return nil, fmt.Errorf("reading superblock: %w", err)
	}

	groupCount := sb.GroupCount()
	blockSize := sb.blockSize

	// The group descriptor table occupies the block immediately following
	// the block containing the superblock. For a 1024-byte block size the
	// superblock (bytes 1024-2048) is block 1, so the GDT starts at block
	// 2; for larger block sizes the superblock shares block 0 with the
	// boot record, so the GDT starts at block 1.
	gdtBlock := uint32(1)
	if blockSize == 1024 {
		gdtBlock = 2
	}
	gdtStart := int64(gdtBlock) * int64(blockSize)
	gdtEnd := gdtStart + int64(blockSize)
	if gdtEnd > int64(len(data)) {
		return nil, fmt.Errorf("image too small to contain group descriptor table: %w", ErrImageTooSmall)
	}
	groups, err := groupDescriptorsFromBytes(data[gdtStart:gdtEnd], groupCount)
	if err != nil {
		return nil, fmt.Errorf("reading group descriptor table: %w", err)
	}

	dataAddr := int64(uintptr(unsafe.Pointer(&data[0])))
	img := &Image{
		data:        data,
		sb:          sb,
		groups:      groups,
		blockOffset: (dataAddr - int64(baseAddr)) / int64(blockSize),
	}

	log.WithFields(log.Fields{
		"blockSize":  blockSize,
		"groupCount": groupCount,
		"inodes":     sb.inodesCount,
		"blocks":     sb.blocksCount,
	}).Debug("ext2: opened image")

	return img, nil
}

// Superblock returns the filesystem's decoded superblock.
func (img *Image) Superblock() *superblock { return img.sb }

// GroupDescriptors returns the filesystem's block group descriptor table.
func (img *Image) GroupDescriptors() []groupDescriptor { return img.groups }

// blockAt returns a view of the block_size bytes making up on-disk block
// number bn, correcting for the image's block_offset.
func (img *Image) blockAt(bn uint32) ([]byte, error) {
	idx := int64(bn) - img.blockOffset
	blockSize := int64(img.sb.blockSize)
	if idx < 0 {
		return nil, fmt.Errorf("block %d precedes image origin (offset %d): %w", bn, img.blockOffset, ErrBlockOutOfRange)
	}
	start := idx * blockSize
	end := start + blockSize
	if end > int64(len(img.data)) {
		return nil, fmt.Errorf("block %d (byte range %d-%d) exceeds image size %d: %w", bn, start, end, len(img.data), ErrBlockOutOfRange)
	}
	return img.data[start:end], nil
}

// GetInode resolves a 1-indexed inode number to its decoded record.
func (img *Image) GetInode(n uint32) (*Inode, error) {
	if n == 0 || n > img.sb.inodesCount {
		return nil, fmt.Errorf("inode %d: %w", n, ErrInodeOutOfRange)
	}

	group := int((n - 1) / img.sb.inodesPerGroup)
	if group >= len(img.groups) {
		return nil, fmt.Errorf("inode %d maps to group %d, have %d groups: %w", n, group, len(img.groups), ErrInodeOutOfRange)
	}
	index := (n - 1) % img.sb.inodesPerGroup

	inodesPerBlock := img.sb.blockSize / inodeSize
	tableBlock := img.groups[group].inodeTableBlock
	blockIdx := index / inodesPerBlock
	offsetInBlock := (index % inodesPerBlock) * inodeSize

	block, err := img.blockAt(tableBlock + blockIdx)
	if err != nil {
		return nil, fmt.Errorf("inode %d table block: %w", n, err)
	}
	if int(offsetInBlock)+inodeSize > len(block) {
		return nil, fmt.Errorf("inode %d offset %d exceeds block: %w", n, offsetInBlock, ErrBlockOutOfRange)
	}

	in, err := inodeFromBytes(block[offsetInBlock:offsetInBlock+inodeSize], n)
	if err != nil {
		return nil, fmt.Errorf("decoding inode %d: %w", n, err)
	}
	return in, nil
}

// ReadDirInode reads a directory inode's data blocks and decodes them into
// an ordered sequence of directory entries.
func (img *Image) ReadDirInode(n uint32) ([]DirEntry, error) {
	in, err := img.GetInode(n)
	if err != nil {
		return nil, err
	}
	if !in.IsDir() {
		return nil, fmt.Errorf("inode %d: %w", n, ErrNotADirectory)
	}

	var entries []DirEntry
	err = img.walkLeaves(in.pointers, func(bn uint32) error {
		block, err := img.blockAt(bn)
		if err != nil {
			return fmt.Errorf("directory block %d: %w", bn, err)
		}
		decoded, err := readDirectoryBlock(block)
		if err != nil {
			return fmt.Errorf("inode %d: %w", n, err)
		}
		entries = append(entries, decoded...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// ReadFileInode reads a regular file inode's data blocks and returns its
// contents, truncated to the inode's declared size.
func (img *Image) ReadFileInode(n uint32) ([]byte, error) {
	in, err := img.GetInode(n)
	if err != nil {
		return nil, err
	}
	if !in.IsRegular() {
		return nil, fmt.Errorf("inode %d: %w", n, ErrNotAFile)
	}

	var out []byte
	err = img.walkLeaves(in.pointers, func(bn uint32) error {
		block, err := img.blockAt(bn)
		if err != nil {
			return fmt.Errorf("file block %d: %w", bn, err)
		}
		out = append(out, block...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	size := in.Size()
	if uint64(len(out)) > size {
		out = out[:size]
	}
	return out, nil
}
