package record

import (
	"encoding/binary"
	"errors"
	"fmt"
	"heapstore/common"
)

/**
 * Heap file layout:
 *
 *  block 0 (header):
 *  -------------------------------------
 *  | FormatTag (1) | ... unused ... |
 *  -------------------------------------
 *
 *  blocks 1..N (data):
 *  -------------------------------------------------------------------------
 *  | RecordCount (4) | Slot_0 (Size) | Slot_1 (Size) | ... | unused ... |
 *  -------------------------------------------------------------------------
 *
 * Every data block but the last one is full, records are never moved once written.
 */

// FormatTag is the first byte of a file's header block and tells what kind of file it is.
type FormatTag byte

const (
	HeapFileTag FormatTag = 'h'

	formatTagOffset = 0

	// CounterSize is the size of the record counter at the start of every data block.
	CounterSize = 4
)

// RecordsPerBlock is the number of record slots in a data block.
const RecordsPerBlock = (common.BlockSize - CounterSize) / Size

var ErrSlotOutOfRange = errors.New("slot index is out of range")
var ErrCorruptBlock = errors.New("record counter of block is out of range")

// ReadFormatTag returns the format tag of a header block.
func ReadFormatTag(header []byte) FormatTag {
	return FormatTag(header[formatTagOffset])
}

func WriteFormatTag(header []byte, tag FormatTag) {
	header[formatTagOffset] = byte(tag)
}

// SlotOffset returns the byte offset of slot inside a data block.
func SlotOffset(slot int) (int, error) {
	if slot < 0 || slot >= RecordsPerBlock {
		return 0, fmt.Errorf("%w: %d", ErrSlotOutOfRange, slot)
	}
	return CounterSize + slot*Size, nil
}

// DataBlock is a view over the bytes of a data block.
type DataBlock []byte

// Count returns the number of occupied slots. Counters that cannot belong to a well-formed block are reported as
// ErrCorruptBlock.
func (b DataBlock) Count() (int, error) {
	n := int(int32(binary.LittleEndian.Uint32(b)))
	if n < 0 || n > RecordsPerBlock {
		return 0, fmt.Errorf("%w: %d", ErrCorruptBlock, n)
	}
	return n, nil
}

func (b DataBlock) SetCount(n int) {
	binary.LittleEndian.PutUint32(b, uint32(int32(n)))
}

// Slot returns the raw bytes of slot.
func (b DataBlock) Slot(slot int) ([]byte, error) {
	off, err := SlotOffset(slot)
	if err != nil {
		return nil, err
	}
	return b[off : off+Size], nil
}

func (b DataBlock) Get(slot int) (Record, error) {
	raw, err := b.Slot(slot)
	if err != nil {
		return Record{}, err
	}
	return Decode(raw)
}

// PutRaw copies an encoded record into slot.
func (b DataBlock) PutRaw(slot int, encoded []byte) error {
	raw, err := b.Slot(slot)
	if err != nil {
		return err
	}
	copy(raw, encoded[:Size])
	return nil
}
