package ext2

import (
	"encoding/binary"
	"fmt"
)

// pointersPerBlock returns how many 32-bit block numbers fit in one block.
func pointersPerBlock(blockSize uint32) uint32 {
	return blockSize / 4
}

// blockNumbersFromMeta decodes a meta-block as an array of 32-bit block
// numbers, stopping at the first zero entry (the end-of-pointers sentinel).
// This is the single code path used for indirect, doubly-indirect, and
// triply-indirect blocks in both file and directory traversal: an indirect
// block is always an array of block numbers, never directory entries.
func blockNumbersFromMeta(meta []byte) []uint32 {
	count := len(meta) / 4
	nums := make([]uint32, 0, count)
	for i := 0; i < count; i++ {
		n := binary.LittleEndian.Uint32(meta[i*4 : i*4+4])
		if n == 0 {
			break
		}
		nums = append(nums, n)
	}
	return nums
}

// walkLeaves visits, in order, every leaf data block reachable from an
// inode's pointer set: the direct pointers, then the singly-indirect
// subtree, then the doubly-indirect subtree, then the triply-indirect
// subtree. A zero direct pointer ends the whole walk, so no indirect subtree
// is visited after it; a zero entry inside a meta-block ends traversal of
// that meta-block.
//
// action is called once per leaf block number, in traversal order. An error
// from action aborts the walk immediately.
func (img *Image) walkLeaves(p pointers, action func(blockNum uint32) error) error {
	for _, bn := range p.direct {
		if bn == 0 {
			return nil
		}
		if err := action(bn); err != nil {
			return err
		}
	}

	if p.indirect != 0 {
		if err := img.walkIndirect(p.indirect, action); err != nil {
			return err
		}
	}
	if p.doublyIndirect != 0 {
		meta, err := img.blockAt(p.doublyIndirect)
		if err != nil {
			return fmt.Errorf("doubly-indirect meta-block: %w", err)
		}
		for _, child := range blockNumbersFromMeta(meta) {
			if err := img.walkIndirect(child, action); err != nil {
				return err
			}
		}
	}
	if p.triplyIndirect != 0 {
		meta, err := img.blockAt(p.triplyIndirect)
		if err != nil {
			return fmt.Errorf("triply-indirect meta-block: %w", err)
		}
		for _, doublyBlock := range blockNumbersFromMeta(meta) {
			dmeta, err := img.blockAt(doublyBlock)
			if err != nil {
				return fmt.Errorf("triply-indirect doubly-block: %w", err)
			}
			for _, child := range blockNumbersFromMeta(dmeta) {
				if err := img.walkIndirect(child, action); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// walkIndirect reads a singly-indirect meta-block and invokes action on each
// leaf block number it lists, in order.
func (img *Image) walkIndirect(indirectBlock uint32, action func(blockNum uint32) error) error {
	meta, err := img.blockAt(indirectBlock)
	if err != nil {
		return fmt.Errorf("indirect meta-block: %w", err)
	}
	for _, leaf := range blockNumbersFromMeta(meta) {
		if err := action(leaf); err != nil {
			return err
		}
	}
	return nil
}
