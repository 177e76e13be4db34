package pages

import (
	"heapstore/disk"
)

// IPage is a wrapper for a physical page of some file. It provides the content of the page as a byte slice and
// keeps the bookkeeping the buffer pool needs to decide when the page may leave memory.
type IPage interface {
	GetData() []byte

	// GetPageId returns the index of the physical page inside its file.
	GetPageId() int

	// GetFileId returns the id of the file the page belongs to.
	GetFileId() int
	GetPinCount() int
	IsDirty() bool
	SetDirty()
	SetClean()
	IncrPinCount()
	DecrPinCount()
}

var _ IPage = &RawPage{}

type RawPage struct {
	fileId   int
	pageId   int
	isDirty  bool
	PinCount int
	Data     []byte
}

func NewRawPage(fileId, pageId int) *RawPage {
	return &RawPage{
		fileId:   fileId,
		pageId:   pageId,
		isDirty:  false,
		PinCount: 0,
		Data:     make([]byte, disk.PageSize),
	}
}

// Reset points the frame to another physical page. Content is zeroed and flags are cleared.
func (p *RawPage) Reset(fileId, pageId int) {
	p.fileId = fileId
	p.pageId = pageId
	p.isDirty = false
	p.PinCount = 0
	clear(p.Data)
}

func (p *RawPage) IncrPinCount() {
	p.PinCount++
}

func (p *RawPage) DecrPinCount() {
	p.PinCount--
}

func (p *RawPage) GetData() []byte {
	return p.Data
}

func (p *RawPage) GetPageId() int {
	return p.pageId
}

func (p *RawPage) GetFileId() int {
	return p.fileId
}

func (p *RawPage) GetPinCount() int {
	return p.PinCount
}

func (p *RawPage) IsDirty() bool {
	return p.isDirty
}

func (p *RawPage) SetDirty() {
	p.isDirty = true
}

func (p *RawPage) SetClean() {
	p.isDirty = false
}
