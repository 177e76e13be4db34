package heapfile

import (
	"fmt"
	"heapstore/record"
)

// GetEntry returns the record with the given row id. It fails with ErrRecordNotFound when no record was inserted
// with that id.
func (f *File) GetEntry(rowID RowID) (record.Record, error) {
	if rowID < 1 {
		return record.Record{}, fmt.Errorf("%w: row %d", ErrRecordNotFound, rowID)
	}

	count, err := f.bs.GetBlockCounter(f.fd)
	if err != nil {
		return record.Record{}, fmt.Errorf("get entry: %w", err)
	}

	blockNum, slot := locate(rowID)
	if count <= 1 || blockNum > count-1 {
		return record.Record{}, fmt.Errorf("%w: row %d", ErrRecordNotFound, rowID)
	}

	b, err := f.bs.GetBlock(f.fd, blockNum)
	if err != nil {
		return record.Record{}, fmt.Errorf("get entry: %w", err)
	}

	data := record.DataBlock(b.Data())
	n, err := data.Count()
	if err != nil {
		return record.Record{}, fmt.Errorf("get entry: %w", f.unpin(b, err))
	}
	if slot >= n {
		return record.Record{}, f.unpin(b, fmt.Errorf("%w: row %d", ErrRecordNotFound, rowID))
	}

	rec, err := data.Get(slot)
	if err != nil {
		return record.Record{}, fmt.Errorf("get entry: %w", f.unpin(b, err))
	}

	if err := f.bs.UnpinBlock(b); err != nil {
		return record.Record{}, fmt.Errorf("get entry: %w", err)
	}
	return rec, nil
}
