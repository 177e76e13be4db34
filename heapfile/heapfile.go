// Package heapfile stores fixed size records in an append only file of blocks.
//
// Block 0 of a heap file is a header carrying the heap file format tag. Every following block holds a record counter
// and a packed array of record slots. Records are appended to the last block until it is full, then a new block is
// allocated, so every data block but the last one is full. This makes the position of a record computable from its
// row id, the 1-based rank of the record in insertion order.
//
// A File is not safe for concurrent use. Every operation pins at most one block at a time and unpins it before
// returning, on error paths too.
package heapfile

import (
	"errors"
	"fmt"
	"heapstore/blockfile"
	"heapstore/record"
)

var (
	ErrNotHeapFile    = errors.New("not a heap file")
	ErrNotCreated     = errors.New("heap file has no header block")
	ErrRecordNotFound = errors.New("record not found")
)

// BlockStore is the block layer a heap file lives on.
type BlockStore interface {
	CreateFile(path string) error
	OpenFile(path string) (blockfile.FileDesc, error)
	CloseFile(fd blockfile.FileDesc) error

	// AllocateBlock appends a zeroed block to the file and returns it pinned.
	AllocateBlock(fd blockfile.FileDesc) (*blockfile.Block, error)

	// GetBlock pins the block at the given zero based index.
	GetBlock(fd blockfile.FileDesc, num int) (*blockfile.Block, error)
	UnpinBlock(b *blockfile.Block) error
	GetBlockCounter(fd blockfile.FileDesc) (int, error)
}

var _ BlockStore = &blockfile.Manager{}

// RowID is the 1-based position of a record in the file in insertion order.
type RowID int

const headerBlockNum = 0

type File struct {
	bs   BlockStore
	fd   blockfile.FileDesc
	path string
}

// Init prepares the heap file layer. The layer keeps no state of its own, so there is nothing to do.
func Init() error {
	return nil
}

// CreateFile creates an empty heap file at path, consisting only of the header block.
func CreateFile(bs BlockStore, path string) error {
	if err := bs.CreateFile(path); err != nil {
		return fmt.Errorf("create heap file: %w", err)
	}

	fd, err := bs.OpenFile(path)
	if err != nil {
		return fmt.Errorf("create heap file: %w", err)
	}

	b, err := bs.AllocateBlock(fd)
	if err != nil {
		return errors.Join(fmt.Errorf("create heap file: %w", err), bs.CloseFile(fd))
	}

	record.WriteFormatTag(b.Data(), record.HeapFileTag)
	b.SetDirty()
	if err := bs.UnpinBlock(b); err != nil {
		return errors.Join(fmt.Errorf("create heap file: %w", err), bs.CloseFile(fd))
	}

	if err := bs.CloseFile(fd); err != nil {
		return fmt.Errorf("create heap file: %w", err)
	}
	return nil
}

// OpenFile opens the heap file at path. Files whose header does not carry the heap file tag are closed again and
// ErrNotHeapFile is returned.
func OpenFile(bs BlockStore, path string) (*File, error) {
	fd, err := bs.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open heap file: %w", err)
	}

	if err := checkHeader(bs, fd); err != nil {
		return nil, errors.Join(fmt.Errorf("open heap file %s: %w", path, err), bs.CloseFile(fd))
	}

	return &File{bs: bs, fd: fd, path: path}, nil
}

func checkHeader(bs BlockStore, fd blockfile.FileDesc) error {
	count, err := bs.GetBlockCounter(fd)
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrNotHeapFile
	}

	b, err := bs.GetBlock(fd, headerBlockNum)
	if err != nil {
		return err
	}

	tag := record.ReadFormatTag(b.Data())
	if err := bs.UnpinBlock(b); err != nil {
		return err
	}

	if tag != record.HeapFileTag {
		return ErrNotHeapFile
	}
	return nil
}

func (f *File) Close() error {
	if err := f.bs.CloseFile(f.fd); err != nil {
		return fmt.Errorf("close heap file: %w", err)
	}
	return nil
}

func (f *File) Path() string {
	return f.path
}

func (f *File) Desc() blockfile.FileDesc {
	return f.fd
}

// unpin releases b and joins a failure to do so with err.
func (f *File) unpin(b *blockfile.Block, err error) error {
	if uerr := f.bs.UnpinBlock(b); uerr != nil {
		return errors.Join(err, uerr)
	}
	return err
}

// locate returns the data block index and slot a row id maps to. It relies on every data block but the last one
// being full.
func locate(rowID RowID) (blockNum, slot int) {
	idx := int(rowID) - 1
	return 1 + idx/record.RecordsPerBlock, idx % record.RecordsPerBlock
}

func rowIDOf(blockNum, slot int) RowID {
	return RowID((blockNum-1)*record.RecordsPerBlock + slot + 1)
}
