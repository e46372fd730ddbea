package ext2

import (
	"errors"
)

// Sentinel errors for the core parse and traversal paths. Callers can use
// errors.Is against these even though every returned error is wrapped with
// additional context as it propagates up the call stack.
var (
	// ErrBadMagic is returned when the superblock magic number does not
	// equal the ext2 signature 0xEF53.
	ErrBadMagic = errors.New("bad ext2 magic number")

	// ErrBlockOutOfRange is returned when a pointer resolves to a block
	// number outside the image's block array.
	ErrBlockOutOfRange = errors.New("block reference out of range")

	// ErrMalformedDirectoryEntry is returned when a directory entry's
	// entry_size or name_length is inconsistent with the surrounding block.
	ErrMalformedDirectoryEntry = errors.New("malformed directory entry")

	// ErrNotADirectory is returned when a directory operation is attempted
	// on an inode that is not a directory.
	ErrNotADirectory = errors.New("not a directory")

	// ErrNotAFile is returned when a regular-file operation is attempted on
	// an inode that is not a regular file.
	ErrNotAFile = errors.New("not a regular file")

	// ErrInodeOutOfRange is returned when an inode number is zero or
	// exceeds the filesystem's inode count.
	ErrInodeOutOfRange = errors.New("inode number out of range")

	// ErrImageTooSmall is returned when the supplied byte image is too
	// short to hold even a superblock.
	ErrImageTooSmall = errors.New("image too small to contain a superblock")
)
