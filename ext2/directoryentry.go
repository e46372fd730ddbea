package ext2

import (
	"encoding/binary"
	"fmt"
)

// dirEntryHeaderSize is the fixed portion of a directory entry record,
// before the variable-length name.
const dirEntryHeaderSize = 8

// DirEntry is one decoded directory entry: an inode number and its name
// within the containing directory.
type DirEntry struct {
	Inode uint32
	Name  string
	Type  uint8
}

// readDirectoryBlock decodes a single block-sized byte range as a sequence
// of directory entries, stopping at the first zero inode number or when the
// accumulated offset reaches the end of the block.
func readDirectoryBlock(block []byte) ([]DirEntry, error) {
	var entries []DirEntry
	blockSize := len(block)
	off := 0
	for off < blockSize {
		if off+dirEntryHeaderSize > blockSize {
			return nil, fmt.Errorf("directory entry header at offset %d exceeds block size %d: %w", off, blockSize, ErrMalformedDirectoryEntry)
		}
		inodeNum := binary.LittleEndian.Uint32(block[off : off+4])
		entrySize := binary.LittleEndian.Uint16(block[off+4 : off+6])
		nameLen := block[off+6]
		typeIndicator := block[off+7]

		if inodeNum == 0 {
			break
		}

		if int(entrySize) < dirEntryHeaderSize+int(nameLen) {
			return nil, fmt.Errorf("entry_size %d too small for name_length %d at offset %d: %w", entrySize, nameLen, off, ErrMalformedDirectoryEntry)
		}
		if off+int(entrySize) > blockSize {
			return nil, fmt.Errorf("entry_size %d at offset %d overruns block size %d: %w", entrySize, off, blockSize, ErrMalformedDirectoryEntry)
		}

		nameStart := off + dirEntryHeaderSize
		name := string(block[nameStart : nameStart+int(nameLen)])

		entries = append(entries, DirEntry{
			Inode: inodeNum,
			Name:  name,
			Type:  typeIndicator,
		})

		if entrySize == 0 {
			// Defensive: a zero entry_size on a non-sentinel record would
			// loop forever; treat it as corruption rather than hang.
			return nil, fmt.Errorf("zero entry_size at offset %d: %w", off, ErrMalformedDirectoryEntry)
		}
		off += int(entrySize)
	}
	return entries, nil
}
