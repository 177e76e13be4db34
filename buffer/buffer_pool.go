package buffer

import (
	"errors"
	"fmt"
	"heapstore/common"
	"heapstore/disk"
	"heapstore/disk/pages"
	"log"
	"sync"
)

var ErrPageNotFoundInPageMap = errors.New("page cannot be found in the page map")
var ErrNoFreeFrame = errors.New("no frame can be freed, every frame is pinned")
var ErrUnknownFile = errors.New("file is not registered in the buffer pool")
var ErrNotPinned = errors.New("page is not pinned")
var ErrPagePinned = errors.New("file still has pinned pages")

type Pool interface {
	// GetPage reads the page into a frame if it is not already there and pins it.
	GetPage(fileId, pageId int) (*pages.RawPage, error)

	// NewPage appends a zeroed page to the file and returns it pinned and dirty.
	NewPage(fileId int) (*pages.RawPage, error)
	Unpin(fileId, pageId int, isDirty bool) error
	FlushAll() error

	// EmptyFrameSize returns the number of frames which do not hold data of any physical page
	EmptyFrameSize() int
}

type frame struct {
	page *pages.RawPage
}

type pageKey struct {
	fileId int
	pageId int
}

// names of the counters kept in BufferPool.Stats
const (
	StatHit       = "hit"
	StatMiss      = "miss"
	StatEviction  = "eviction"
	StatWriteBack = "write_back"
)

var _ Pool = &BufferPool{}

// BufferPool caches pages of several files in a fixed number of frames. Pages are identified by the file id they
// were registered with and their index inside that file. All state is guarded by a single lock which is also held
// while doing io, so calls are serialized.
type BufferPool struct {
	poolSize    int
	frames      []*frame
	pageMap     map[pageKey]int // (file, page) => frame index which keeps that page
	emptyFrames []int           // list of indexes that points to empty frames in the pool
	Replacer    IReplacer
	files       map[int]disk.IDiskManager
	Stats       *common.Stats
	lock        sync.Mutex
}

func NewBufferPool(poolSize int, replacer IReplacer) *BufferPool {
	if replacer == nil {
		replacer = NewClockReplacer(poolSize)
	}

	emptyFrames := make([]int, poolSize)
	frames := make([]*frame, poolSize)
	for i := 0; i < poolSize; i++ {
		emptyFrames[i] = i
		frames[i] = &frame{pages.NewRawPage(-1, -1)}
	}

	return &BufferPool{
		poolSize:    poolSize,
		frames:      frames,
		pageMap:     map[pageKey]int{},
		emptyFrames: emptyFrames,
		Replacer:    replacer,
		files:       map[int]disk.IDiskManager{},
		Stats:       common.NewStats(),
	}
}

// RegisterFile makes pages of dm addressable under fileId.
func (b *BufferPool) RegisterFile(fileId int, dm disk.IDiskManager) {
	b.lock.Lock()
	defer b.lock.Unlock()

	b.files[fileId] = dm
}

// DropFile writes back dirty pages of the file, releases its frames and forgets the file. It fails without changing
// anything if any page of the file is still pinned.
func (b *BufferPool) DropFile(fileId int) error {
	b.lock.Lock()
	defer b.lock.Unlock()

	if _, ok := b.files[fileId]; !ok {
		return fmt.Errorf("%w: %d", ErrUnknownFile, fileId)
	}

	if n := b.pinnedPages(fileId); n > 0 {
		return fmt.Errorf("%w: %d pages of file %d", ErrPagePinned, n, fileId)
	}

	if err := b.flushFile(fileId); err != nil {
		return err
	}

	for key, frameIdx := range b.pageMap {
		if key.fileId != fileId {
			continue
		}
		delete(b.pageMap, key)
		b.frames[frameIdx].page.Reset(-1, -1)
		b.unReserveFrame(frameIdx)
	}

	delete(b.files, fileId)
	return nil
}

// PinnedPages returns how many pages of the file are pinned at the moment.
func (b *BufferPool) PinnedPages(fileId int) int {
	b.lock.Lock()
	defer b.lock.Unlock()

	return b.pinnedPages(fileId)
}

func (b *BufferPool) GetPage(fileId, pageId int) (*pages.RawPage, error) {
	b.lock.Lock()
	defer b.lock.Unlock()

	dm, ok := b.files[fileId]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownFile, fileId)
	}

	key := pageKey{fileId, pageId}
	if frameIdx, ok := b.pageMap[key]; ok {
		b.Stats.Incr(StatHit)
		b.pin(frameIdx)
		return b.frames[frameIdx].page, nil
	}

	if pageId < 0 || pageId >= dm.NumPages() {
		return nil, fmt.Errorf("%w: %d", disk.ErrPageOutOfRange, pageId)
	}

	b.Stats.Incr(StatMiss)
	frameIdx, err := b.acquireFrame()
	if err != nil {
		return nil, err
	}

	p := b.frames[frameIdx].page
	p.Reset(fileId, pageId)
	if err := dm.ReadPage(pageId, p.GetData()); err != nil {
		p.Reset(-1, -1)
		b.unReserveFrame(frameIdx)
		return nil, fmt.Errorf("ReadPage failed: %w", err)
	}

	b.pageMap[key] = frameIdx
	b.pin(frameIdx)
	return p, nil
}

func (b *BufferPool) NewPage(fileId int) (*pages.RawPage, error) {
	b.lock.Lock()
	defer b.lock.Unlock()

	dm, ok := b.files[fileId]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownFile, fileId)
	}

	// take the frame first so that a full pool does not leave a reserved page id behind.
	frameIdx, err := b.acquireFrame()
	if err != nil {
		return nil, err
	}

	newPageId := dm.NewPage()
	p := b.frames[frameIdx].page
	p.Reset(fileId, newPageId)
	p.SetDirty()

	b.pageMap[pageKey{fileId, newPageId}] = frameIdx
	b.pin(frameIdx)
	return p, nil
}

func (b *BufferPool) Unpin(fileId, pageId int, isDirty bool) error {
	b.lock.Lock()
	defer b.lock.Unlock()

	frameIdx, ok := b.pageMap[pageKey{fileId, pageId}]
	if !ok {
		return fmt.Errorf("%w: file %d page %d", ErrPageNotFoundInPageMap, fileId, pageId)
	}

	p := b.frames[frameIdx].page
	if p.GetPinCount() <= 0 {
		return fmt.Errorf("%w: file %d page %d", ErrNotPinned, fileId, pageId)
	}

	if isDirty {
		p.SetDirty()
	}

	// decrease pin count and if it is 0 unpin frame in the replacer so that it can be chosen as victim
	p.DecrPinCount()
	if p.GetPinCount() == 0 {
		b.Replacer.Unpin(frameIdx)
	}

	return nil
}

func (b *BufferPool) FlushAll() error {
	b.lock.Lock()
	defer b.lock.Unlock()

	for fileId := range b.files {
		if err := b.flushFile(fileId); err != nil {
			return err
		}
	}
	return nil
}

func (b *BufferPool) EmptyFrameSize() int {
	b.lock.Lock()
	defer b.lock.Unlock()

	return len(b.emptyFrames)
}

func (b *BufferPool) flushFile(fileId int) error {
	dm, ok := b.files[fileId]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownFile, fileId)
	}

	for key, frameIdx := range b.pageMap {
		if key.fileId != fileId {
			continue
		}

		p := b.frames[frameIdx].page
		if !p.IsDirty() {
			continue
		}

		if err := dm.WritePage(p.GetData(), p.GetPageId()); err != nil {
			return err
		}
		b.Stats.Incr(StatWriteBack)
		p.SetClean()
	}
	return nil
}

func (b *BufferPool) pinnedPages(fileId int) int {
	n := 0
	for key, frameIdx := range b.pageMap {
		if key.fileId == fileId && b.frames[frameIdx].page.GetPinCount() > 0 {
			n++
		}
	}
	return n
}

// pin increments page's pin count and pins the frame that keeps the page to avoid it being chosen as victim
func (b *BufferPool) pin(frameIdx int) {
	b.frames[frameIdx].page.IncrPinCount()
	b.Replacer.Pin(frameIdx)
}

// acquireFrame returns an empty frame if there is any, otherwise evicts a victim and returns its frame.
func (b *BufferPool) acquireFrame() (int, error) {
	if emptyFrameIdx := b.reserveFrame(); emptyFrameIdx >= 0 {
		return emptyFrameIdx, nil
	}
	return b.evictVictim()
}

func (b *BufferPool) reserveFrame() int {
	if len(b.emptyFrames) > 0 {
		emptyFrameIdx := b.emptyFrames[0]
		b.emptyFrames = b.emptyFrames[1:]
		return emptyFrameIdx
	}

	return -1
}

func (b *BufferPool) unReserveFrame(idx int) {
	b.emptyFrames = append(b.emptyFrames, idx)
}

// evictVictim chooses a victim page, writes its data to disk if it is dirty and returns emptied frame's index.
func (b *BufferPool) evictVictim() (int, error) {
	victimFrameIdx, err := b.Replacer.ChooseVictim()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrNoFreeFrame, err)
	}

	victim := b.frames[victimFrameIdx].page
	if victim.GetPinCount() != 0 {
		panic(fmt.Sprintf("a page is chosen as victim while it's pin count is not zero. pin count: %v, page_id: %v", victim.GetPinCount(), victim.GetPageId()))
	}

	if victim.IsDirty() {
		dm, ok := b.files[victim.GetFileId()]
		if !ok {
			panic(fmt.Sprintf("victim page belongs to an unregistered file: %v", victim.GetFileId()))
		}

		log.Printf("writing back dirty victim, file: %v, page_id: %v\n", victim.GetFileId(), victim.GetPageId())
		if err := dm.WritePage(victim.GetData(), victim.GetPageId()); err != nil {
			// hand the frame back to the replacer so it can be chosen again later
			b.Replacer.Pin(victimFrameIdx)
			b.Replacer.Unpin(victimFrameIdx)
			return 0, err
		}
		b.Stats.Incr(StatWriteBack)
	}

	b.Stats.Incr(StatEviction)
	delete(b.pageMap, pageKey{victim.GetFileId(), victim.GetPageId()})
	return victimFrameIdx, nil
}
