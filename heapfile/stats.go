package heapfile

import (
	"fmt"
	"heapstore/record"

	"github.com/cespare/xxhash/v2"
)

type Stats struct {
	Blocks          int
	DataBlocks      int
	Records         int
	RecordsPerBlock int
}

// Stats counts the blocks and records of the file by reading every data block's counter.
func (f *File) Stats() (Stats, error) {
	count, err := f.bs.GetBlockCounter(f.fd)
	if err != nil {
		return Stats{}, fmt.Errorf("stats: %w", err)
	}

	s := Stats{Blocks: count, RecordsPerBlock: record.RecordsPerBlock}
	if count > 0 {
		s.DataBlocks = count - 1
	}

	for blockNum := 1; blockNum < count; blockNum++ {
		b, err := f.bs.GetBlock(f.fd, blockNum)
		if err != nil {
			return Stats{}, fmt.Errorf("stats: %w", err)
		}

		n, err := record.DataBlock(b.Data()).Count()
		if err := f.unpin(b, err); err != nil {
			return Stats{}, fmt.Errorf("stats: %w", err)
		}
		s.Records += n
	}
	return s, nil
}

// Checksum returns the xxhash64 digest of the encoded form of every record in row id order. Two files holding the
// same records in the same order have the same checksum.
func (f *File) Checksum() (uint64, error) {
	h := xxhash.New()
	var encoded [record.Size]byte

	err := f.Iterate(nil, func(_ RowID, rec record.Record) error {
		if err := rec.Encode(encoded[:]); err != nil {
			return err
		}
		_, err := h.Write(encoded[:])
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("checksum: %w", err)
	}
	return h.Sum64(), nil
}
