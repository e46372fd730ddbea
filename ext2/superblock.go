package ext2

import (
	"encoding/binary"
	"fmt"

	"github.com/google/uuid"
)

// ext2Magic is the signature stored at byte offset 0x38 of the superblock.
const ext2Magic uint16 = 0xEF53

// superblockOffset is the fixed byte offset of the superblock within the image.
const superblockOffset = 1024

// superblockSize is the size of the on-disk superblock region. This package
// decodes only the fields up to the last-mounted path (ending at offset
// 0xc8); nothing beyond volume naming and mount bookkeeping is needed here.
const superblockSize = 1024

// fsState values for superblock.state.
const (
	fsStateClean uint16 = 1
	fsStateError uint16 = 2
)

// errorBehavior values for superblock.errorsBehavior.
const (
	errorsContinue        uint16 = 1
	errorsRemountReadOnly uint16 = 2
	errorsPanic           uint16 = 3
)

// superblock holds the decoded fields of a revision-0 ext2 superblock. Only
// revision 0 is supported: there is no dynamic inode size, no feature flag
// negotiation, and no extended superblock fields beyond volume naming.
type superblock struct {
	inodesCount       uint32
	blocksCount       uint32
	reservedBlocks    uint32
	freeBlocksCount   uint32
	freeInodesCount   uint32
	firstDataBlock    uint32
	logBlockSize      uint32
	blocksPerGroup    uint32
	inodesPerGroup    uint32
	mountTime         uint32
	writeTime         uint32
	mountsCount       uint16
	maxMountsCount    uint16
	magic             uint16
	state             uint16
	errorsBehavior    uint16
	revisionLevel     uint32
	creatorOS         uint32
	volumeName        string
	lastMounted       string
	fsID              uuid.UUID

	blockSize uint32
}

// superblockFromBytes decodes a revision-0 superblock from the 1024-byte
// region starting at offset 1024 in the image.
//
// Fields are decoded explicitly, byte range by byte range, rather than via
// an unsafe reinterpret of the buffer as a Go struct: ext2's on-disk layout
// is fixed little-endian regardless of host byte order, and this keeps the
// decode correct on big-endian hosts too.
func superblockFromBytes(b []byte) (*superblock, error) {
	if len(b) < superblockSize {
		return nil, fmt.Errorf("superblock data too short: %d bytes, need %d: %w", len(b), superblockSize, ErrImageTooSmall)
	}

	magic := binary.LittleEndian.Uint16(b[0x38:0x3a])
	if magic != ext2Magic {
		return nil, fmt.Errorf("got magic %#04x, want %#04x: %w", magic, ext2Magic, ErrBadMagic)
	}

	logBlockSize := binary.LittleEndian.Uint32(b[0x18:0x1c])

	var fsid uuid.UUID
	copy(fsid[:], b[0x68:0x78])

	sb := &superblock{
		inodesCount:     binary.LittleEndian.Uint32(b[0x0:0x4]),
		blocksCount:     binary.LittleEndian.Uint32(b[0x4:0x8]),
		reservedBlocks:  binary.LittleEndian.Uint32(b[0x8:0xc]),
		freeBlocksCount: binary.LittleEndian.Uint32(b[0xc:0x10]),
		freeInodesCount: binary.LittleEndian.Uint32(b[0x10:0x14]),
		firstDataBlock:  binary.LittleEndian.Uint32(b[0x14:0x18]),
		logBlockSize:    logBlockSize,
		blocksPerGroup:  binary.LittleEndian.Uint32(b[0x20:0x24]),
		inodesPerGroup:  binary.LittleEndian.Uint32(b[0x28:0x2c]),
		mountTime:       binary.LittleEndian.Uint32(b[0x2c:0x30]),
		writeTime:       binary.LittleEndian.Uint32(b[0x30:0x34]),
		mountsCount:     binary.LittleEndian.Uint16(b[0x34:0x36]),
		maxMountsCount:  binary.LittleEndian.Uint16(b[0x36:0x38]),
		magic:           magic,
		state:           binary.LittleEndian.Uint16(b[0x3a:0x3c]),
		errorsBehavior:  binary.LittleEndian.Uint16(b[0x3c:0x3e]),
		revisionLevel:   binary.LittleEndian.Uint32(b[0x4c:0x50]),
		creatorOS:       binary.LittleEndian.Uint32(b[0x48:0x4c]),
		volumeName:      cstring(b[0x78:0x88]),
		lastMounted:     cstring(b[0x88:0xc8]),
		fsID:            fsid,
		blockSize:       1024 << logBlockSize,
	}

	return sb, nil
}

// cstring trims a fixed-size, possibly NUL-padded byte range down to its
// string content, stopping at the first NUL byte if any.
func cstring(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}

// BlockSize returns the filesystem's block size in bytes.
func (sb *superblock) BlockSize() uint32 { return sb.blockSize }

// GroupCount returns the number of block groups described by this superblock.
func (sb *superblock) GroupCount() uint32 {
	count := sb.blocksCount / sb.blocksPerGroup
	if sb.blocksCount%sb.blocksPerGroup != 0 {
		count++
	}
	return count
}

// Magic returns the raw superblock signature.
func (sb *superblock) Magic() uint16 { return sb.magic }

// InodesCount returns the total number of inodes described by this superblock.
func (sb *superblock) InodesCount() uint32 { return sb.inodesCount }

// InodesPerGroup returns the number of inodes per block group.
func (sb *superblock) InodesPerGroup() uint32 { return sb.inodesPerGroup }

// FreeInodesCount returns the filesystem-wide count of free inodes.
func (sb *superblock) FreeInodesCount() uint32 { return sb.freeInodesCount }

// FreeBlocksCount returns the filesystem-wide count of free blocks.
func (sb *superblock) FreeBlocksCount() uint32 { return sb.freeBlocksCount }

// VolumeName returns the volume label, if any.
func (sb *superblock) VolumeName() string { return sb.volumeName }

// UUID returns the filesystem identifier.
func (sb *superblock) UUID() uuid.UUID { return sb.fsID }

// Clean reports whether the filesystem was marked cleanly unmounted.
func (sb *superblock) Clean() bool { return sb.state == fsStateClean }

// ErrorsBehavior returns the filesystem's configured response to a detected
// inconsistency: continue, remount read-only, or panic.
func (sb *superblock) ErrorsBehavior() uint16 { return sb.errorsBehavior }

// PanicsOnError reports whether the filesystem is configured to panic the
// kernel on a detected inconsistency, rather than continue or remount
// read-only.
func (sb *superblock) PanicsOnError() bool { return sb.errorsBehavior == errorsPanic }
