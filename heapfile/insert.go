package heapfile

import (
	"fmt"
	"heapstore/blockfile"
	"heapstore/common"
	"heapstore/record"
)

// hasRoom tells whether a data block holding count records can take one more.
func hasRoom(count int) bool {
	return (count+1)*record.Size <= common.BlockSize-record.CounterSize
}

// Insert appends rec to the end of the file and returns its row id. The record is validated before any block is
// touched.
func (f *File) Insert(rec record.Record) (RowID, error) {
	var encoded [record.Size]byte
	if err := rec.Encode(encoded[:]); err != nil {
		return 0, fmt.Errorf("insert: %w", err)
	}

	count, err := f.bs.GetBlockCounter(f.fd)
	if err != nil {
		return 0, fmt.Errorf("insert: %w", err)
	}
	if count == 0 {
		return 0, fmt.Errorf("insert: %w", ErrNotCreated)
	}

	b, slot, err := f.blockForInsert(count)
	if err != nil {
		return 0, fmt.Errorf("insert: %w", err)
	}

	data := record.DataBlock(b.Data())
	if err := data.PutRaw(slot, encoded[:]); err != nil {
		return 0, fmt.Errorf("insert: %w", f.unpin(b, err))
	}
	data.SetCount(slot + 1)
	b.SetDirty()

	rowID := rowIDOf(b.Num(), slot)
	if err := f.bs.UnpinBlock(b); err != nil {
		return 0, fmt.Errorf("insert: %w", err)
	}
	return rowID, nil
}

// blockForInsert returns the pinned block the next record goes to and the slot it takes. The last block is used
// while it has room, otherwise a new block is allocated.
func (f *File) blockForInsert(count int) (*blockfile.Block, int, error) {
	if count > 1 {
		b, err := f.bs.GetBlock(f.fd, count-1)
		if err != nil {
			return nil, 0, err
		}

		n, err := record.DataBlock(b.Data()).Count()
		if err != nil {
			return nil, 0, f.unpin(b, err)
		}

		if hasRoom(n) {
			return b, n, nil
		}

		if err := f.bs.UnpinBlock(b); err != nil {
			return nil, 0, err
		}
	}

	b, err := f.bs.AllocateBlock(f.fd)
	if err != nil {
		return nil, 0, err
	}
	return b, 0, nil
}
