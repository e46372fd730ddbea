package ext2

import (
	"encoding/binary"
	"fmt"
)

// inodeSize is the fixed on-disk size of a revision-0 inode record.
const inodeSize = 128

// directPointerCount is the number of direct block pointers in an inode.
const directPointerCount = 12

type fileType uint16

// File type bits, stored in the high nibble of type_perm. ext2 reuses the
// standard Unix S_IFMT values.
const (
	fileTypeFifo            fileType = 0x1000
	fileTypeCharacterDevice fileType = 0x2000
	fileTypeDirectory       fileType = 0x4000
	fileTypeBlockDevice     fileType = 0x6000
	fileTypeRegularFile     fileType = 0x8000
	fileTypeSymbolicLink    fileType = 0xA000
	fileTypeSocket          fileType = 0xC000

	// DirectoryMask isolates the file-type nibble of type_perm.
	DirectoryMask uint16 = 0xF000
	// DirectoryBits is the value the masked type_perm nibble must equal to
	// identify a directory.
	DirectoryBits uint16 = uint16(fileTypeDirectory)
)

type inodeFlag uint32

func (f inodeFlag) included(flags uint32) bool {
	return flags&uint32(f) == uint32(f)
}

const (
	inodeFlagSecureDeletion        inodeFlag = 0x1
	inodeFlagPreserveForUndeletion inodeFlag = 0x2
	inodeFlagCompressed            inodeFlag = 0x4
	inodeFlagSynchronous           inodeFlag = 0x8
	inodeFlagImmutable             inodeFlag = 0x10
	inodeFlagAppendOnly            inodeFlag = 0x20
	inodeFlagNoDump                inodeFlag = 0x40
	inodeFlagNoAccessTimeUpdate    inodeFlag = 0x80
)

// pointers holds the four-level block pointer set of an inode.
type pointers struct {
	direct         [directPointerCount]uint32
	indirect       uint32
	doublyIndirect uint32
	triplyIndirect uint32
}

// Inode is a decoded ext2 inode record.
type Inode struct {
	number     uint32
	typePerm   uint16
	uid        uint16
	sizeLow    uint32
	sizeHigh   uint32
	atime      uint32
	ctime      uint32
	mtime      uint32
	dtime      uint32
	gid        uint16
	linksCount uint16
	blocks     uint32
	flags      uint32
	pointers   pointers
}

func inodeFromBytes(b []byte, number uint32) (*Inode, error) {
	if len(b) < inodeSize {
		return nil, fmt.Errorf("inode data too short: %d bytes, need %d", len(b), inodeSize)
	}

	var p pointers
	for i := 0; i < directPointerCount; i++ {
		off := 0x28 + i*4
		p.direct[i] = binary.LittleEndian.Uint32(b[off : off+4])
	}
	p.indirect = binary.LittleEndian.Uint32(b[0x58:0x5c])
	p.doublyIndirect = binary.LittleEndian.Uint32(b[0x5c:0x60])
	p.triplyIndirect = binary.LittleEndian.Uint32(b[0x60:0x64])

	in := &Inode{
		number:     number,
		typePerm:   binary.LittleEndian.Uint16(b[0x0:0x2]),
		uid:        binary.LittleEndian.Uint16(b[0x2:0x4]),
		sizeLow:    binary.LittleEndian.Uint32(b[0x4:0x8]),
		atime:      binary.LittleEndian.Uint32(b[0x8:0xc]),
		ctime:      binary.LittleEndian.Uint32(b[0xc:0x10]),
		mtime:      binary.LittleEndian.Uint32(b[0x10:0x14]),
		dtime:      binary.LittleEndian.Uint32(b[0x14:0x18]),
		gid:        binary.LittleEndian.Uint16(b[0x18:0x1a]),
		linksCount: binary.LittleEndian.Uint16(b[0x1a:0x1c]),
		blocks:     binary.LittleEndian.Uint32(b[0x1c:0x20]),
		flags:      binary.LittleEndian.Uint32(b[0x20:0x24]),
		sizeHigh:   binary.LittleEndian.Uint32(b[0x6c:0x70]),
		pointers:   p,
	}
	return in, nil
}

// Number returns the 1-indexed inode number this record was read from.
func (i *Inode) Number() uint32 { return i.number }

// Size returns the file's declared byte size, combining size_low and, for
// regular files, the size_high high-order bits. For directories the second
// word is the ACL block pointer in revision 0, not a size extension, so it
// is not folded in.
func (i *Inode) Size() uint64 {
	if i.IsDir() {
		return uint64(i.sizeLow)
	}
	return uint64(i.sizeLow) | uint64(i.sizeHigh)<<32
}

// UID returns the owning user ID.
func (i *Inode) UID() uint16 { return i.uid }

// GID returns the owning group ID.
func (i *Inode) GID() uint16 { return i.gid }

// LinksCount returns the hard link count.
func (i *Inode) LinksCount() uint16 { return i.linksCount }

// Permissions returns the low 12 bits of type_perm (the POSIX mode bits).
func (i *Inode) Permissions() uint16 { return i.typePerm & 0x0FFF }

// IsDir reports whether this inode describes a directory.
func (i *Inode) IsDir() bool { return i.typePerm&DirectoryMask == DirectoryBits }

// IsRegular reports whether this inode describes a regular file.
func (i *Inode) IsRegular() bool { return i.typePerm&DirectoryMask == uint16(fileTypeRegularFile) }

// IsSymlink reports whether this inode describes a symbolic link.
func (i *Inode) IsSymlink() bool { return i.typePerm&DirectoryMask == uint16(fileTypeSymbolicLink) }

// IsCharDevice reports whether this inode describes a character device.
func (i *Inode) IsCharDevice() bool {
	return i.typePerm&DirectoryMask == uint16(fileTypeCharacterDevice)
}

// IsBlockDevice reports whether this inode describes a block device.
func (i *Inode) IsBlockDevice() bool {
	return i.typePerm&DirectoryMask == uint16(fileTypeBlockDevice)
}

// IsFifo reports whether this inode describes a named pipe.
func (i *Inode) IsFifo() bool { return i.typePerm&DirectoryMask == uint16(fileTypeFifo) }

// IsSocket reports whether this inode describes a socket.
func (i *Inode) IsSocket() bool { return i.typePerm&DirectoryMask == uint16(fileTypeSocket) }

// Immutable reports whether the inode's immutable flag is set.
func (i *Inode) Immutable() bool { return inodeFlagImmutable.included(i.flags) }

// AppendOnly reports whether the inode's append-only flag is set.
func (i *Inode) AppendOnly() bool { return inodeFlagAppendOnly.included(i.flags) }
