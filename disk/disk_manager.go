package disk

import (
	"errors"
	"fmt"
	"heapstore/common"
	"io"
	"log"
	"os"
	"sync"
)

var ErrPageOutOfRange = errors.New("page id is beyond the end of the file")
var ErrPartialPage = errors.New("page data is not equal to page size")

type IDiskManager interface {
	WritePage(data []byte, pageId int) error
	ReadPage(pageId int, dest []byte) error

	// NewPage reserves the next page id at the end of the file. Reserved pages are counted by NumPages right away
	// even though their content reaches the file only when they are first written.
	NewPage() (pageId int)
	NumPages() int
	Sync() error
	Close() error
}

const PageSize = common.BlockSize

var _ IDiskManager = &Manager{}

type Manager struct {
	file     *os.File
	numPages int
	mu       sync.Mutex
}

// CreateFile creates a new empty file at path. It fails if anything already exists there.
func CreateFile(path string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0644)
	if err != nil {
		return err
	}
	log.Printf("created file %s\n", path)
	return f.Close()
}

// NewDiskManager opens an existing file for page granular access.
func NewDiskManager(path string) (*Manager, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0644)
	if err != nil {
		return nil, err
	}

	stats, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}

	filesize := stats.Size()
	if filesize%int64(PageSize) != 0 {
		log.Printf("file %s has a trailing partial page, size is %d \n", path, filesize)
	}

	log.Printf("opened file %s, file size is %d \n", path, filesize)
	return &Manager{
		file:     f,
		numPages: int(filesize / int64(PageSize)),
	}, nil
}

func (d *Manager) WritePage(data []byte, pageId int) error {
	if len(data) != PageSize {
		return ErrPartialPage
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if pageId < 0 || pageId >= d.numPages {
		return fmt.Errorf("%w: %d", ErrPageOutOfRange, pageId)
	}

	_, err := d.file.WriteAt(data, int64(PageSize)*int64(pageId))
	return err
}

func (d *Manager) ReadPage(pageId int, dest []byte) error {
	if len(dest) != PageSize {
		return ErrPartialPage
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if pageId < 0 || pageId >= d.numPages {
		return fmt.Errorf("%w: %d", ErrPageOutOfRange, pageId)
	}

	n, err := d.file.ReadAt(dest, int64(PageSize)*int64(pageId))
	if err == io.EOF {
		// page is reserved but was never written, its content is all zeroes.
		clear(dest[n:])
		return nil
	}

	return err
}

func (d *Manager) NewPage() (pageId int) {
	d.mu.Lock()
	defer d.mu.Unlock()

	pageId = d.numPages
	d.numPages++
	return pageId
}

func (d *Manager) NumPages() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.numPages
}

func (d *Manager) Sync() error {
	return d.file.Sync()
}

func (d *Manager) Close() error {
	return d.file.Close()
}

