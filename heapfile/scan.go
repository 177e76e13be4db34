package heapfile

import (
	"fmt"
	"heapstore/record"
	"io"
)

// Iterate calls fn for every record matching filter, in row id order. A nil filter matches every record. Iteration
// stops at the first error returned by fn and that error is returned.
func (f *File) Iterate(filter *Filter, fn func(RowID, record.Record) error) error {
	count, err := f.bs.GetBlockCounter(f.fd)
	if err != nil {
		return fmt.Errorf("scan: %w", err)
	}
	if count == 0 {
		return fmt.Errorf("scan: %w", ErrNotCreated)
	}

	for blockNum := 1; blockNum < count; blockNum++ {
		if err := f.scanBlock(blockNum, filter, fn); err != nil {
			return err
		}
	}
	return nil
}

func (f *File) scanBlock(blockNum int, filter *Filter, fn func(RowID, record.Record) error) (err error) {
	b, err := f.bs.GetBlock(f.fd, blockNum)
	if err != nil {
		return fmt.Errorf("scan: %w", err)
	}
	defer func() {
		err = f.unpin(b, err)
	}()

	data := record.DataBlock(b.Data())
	n, err := data.Count()
	if err != nil {
		return fmt.Errorf("scan block %d: %w", blockNum, err)
	}

	for slot := 0; slot < n; slot++ {
		rec, err := data.Get(slot)
		if err != nil {
			return fmt.Errorf("scan block %d: %w", blockNum, err)
		}

		if !filter.Match(rec) {
			continue
		}
		if err := fn(rowIDOf(blockNum, slot), rec); err != nil {
			return err
		}
	}
	return nil
}

// Scan returns every record matching filter in row id order.
func (f *File) Scan(filter *Filter) ([]record.Record, error) {
	var res []record.Record
	err := f.Iterate(filter, func(_ RowID, rec record.Record) error {
		res = append(res, rec)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// PrintAllEntries writes every record whose fieldName field equals value to w, one line per record in the form
// `<id>,"<name>","<surname>","<city>"`. A nil value prints every record and fieldName is not looked at. An unknown
// field name fails before any block is read.
func (f *File) PrintAllEntries(w io.Writer, fieldName string, value any) error {
	var filter *Filter
	if value != nil {
		var err error
		if filter, err = NewFilter(fieldName, value); err != nil {
			return err
		}
	}

	buf := make([]byte, 0, record.Size+8)
	return f.Iterate(filter, func(_ RowID, rec record.Record) error {
		buf = rec.AppendLine(buf[:0])
		_, err := w.Write(buf)
		return err
	})
}
