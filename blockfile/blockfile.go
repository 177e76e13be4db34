// Package blockfile exposes files as arrays of fixed size blocks. Blocks are accessed through a shared buffer pool:
// a block stays in memory while it is pinned and modified blocks are written back when their frame is reused or
// when the file is closed.
package blockfile

import (
	"errors"
	"fmt"
	"heapstore/buffer"
	"heapstore/common"
	"heapstore/disk"
	"heapstore/disk/pages"
	"os"
	"path/filepath"
	"sync"
)

// BlockSize is the size of every block of every file.
const BlockSize = common.BlockSize

var (
	ErrFileExists       = errors.New("file already exists")
	ErrBadFileDesc      = errors.New("file descriptor is not open")
	ErrTooManyOpenFiles = errors.New("too many open files")
	ErrInvalidBlock     = errors.New("block index is out of range")
	ErrBlocksPinned     = errors.New("file has pinned blocks")
	ErrBlockNotPinned   = errors.New("block is not pinned")
)

// FileDesc identifies one opening of a file. The same path may be opened several times and every opening gets its
// own descriptor, but all descriptors of a path share its blocks: a block appended or modified through one of them is
// seen through the others.
type FileDesc int

type Config struct {
	// PoolSize is the number of blocks kept in memory at once, shared by all open files.
	PoolSize int

	// Replacer names the eviction policy of the buffer pool, one of "clock", "lru" or "random".
	Replacer string

	MaxOpenFiles int
}

func DefaultConfig() Config {
	return Config{
		PoolSize:     common.DefaultPoolSize,
		Replacer:     buffer.ClockReplacerName,
		MaxOpenFiles: common.MaxOpenFiles,
	}
}

// openFile is a file opened through at least one descriptor.
type openFile struct {
	path   string
	dm     *disk.Manager
	poolId int // id of the file in the buffer pool
	refs   int // number of descriptors referring to the file
}

type Manager struct {
	pool         *buffer.BufferPool
	files        map[FileDesc]*openFile
	paths        map[string]*openFile
	nextPoolId   int
	maxOpenFiles int
	mu           sync.Mutex
}

func NewManager(cfg Config) (*Manager, error) {
	if cfg.PoolSize <= 0 {
		return nil, fmt.Errorf("pool size must be positive, got %d", cfg.PoolSize)
	}
	if cfg.MaxOpenFiles <= 0 {
		cfg.MaxOpenFiles = common.MaxOpenFiles
	}

	r, err := buffer.NewReplacer(cfg.Replacer, cfg.PoolSize)
	if err != nil {
		return nil, err
	}

	return &Manager{
		pool:         buffer.NewBufferPool(cfg.PoolSize, r),
		files:        map[FileDesc]*openFile{},
		paths:        map[string]*openFile{},
		maxOpenFiles: cfg.MaxOpenFiles,
	}, nil
}

// Block is a pinned block of an open file. Its content may be read and modified through Data until it is handed
// back with UnpinBlock.
type Block struct {
	file   *openFile
	num    int
	page   *pages.RawPage
	dirty  bool
	pinned bool
}

func (b *Block) Data() []byte {
	return b.page.GetData()
}

// Num returns the zero based index of the block inside its file.
func (b *Block) Num() int {
	return b.num
}

// SetDirty marks the block as modified so that its content is written back once it leaves memory.
func (b *Block) SetDirty() {
	b.dirty = true
}

func (m *Manager) CreateFile(path string) error {
	if err := disk.CreateFile(path); err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("%w: %s", ErrFileExists, path)
		}
		return err
	}
	return nil
}

func (m *Manager) OpenFile(path string) (FileDesc, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.files) >= m.maxOpenFiles {
		return -1, ErrTooManyOpenFiles
	}

	key := pathKey(path)
	f, ok := m.paths[key]
	if !ok {
		dm, err := disk.NewDiskManager(path)
		if err != nil {
			return -1, err
		}

		f = &openFile{path: path, dm: dm, poolId: m.nextPoolId}
		m.nextPoolId++
		m.paths[key] = f
		m.pool.RegisterFile(f.poolId, dm)
	}

	// hand out the lowest free descriptor
	fd := FileDesc(0)
	for ; ; fd++ {
		if _, ok := m.files[fd]; !ok {
			break
		}
	}

	f.refs++
	m.files[fd] = f
	return fd, nil
}

func pathKey(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}

// CloseFile releases the descriptor. When it is the last descriptor of the file, modified blocks are written back,
// the file is synced to disk and closed. Closing the last descriptor while any block of the file is pinned fails and
// leaves the file open.
func (m *Manager) CloseFile(fd FileDesc) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	f, ok := m.files[fd]
	if !ok {
		return fmt.Errorf("%w: %d", ErrBadFileDesc, fd)
	}

	if f.refs > 1 {
		f.refs--
		delete(m.files, fd)
		return nil
	}

	if err := m.pool.DropFile(f.poolId); err != nil {
		if errors.Is(err, buffer.ErrPagePinned) {
			return fmt.Errorf("%w: %s", ErrBlocksPinned, f.path)
		}
		return err
	}

	delete(m.files, fd)
	delete(m.paths, pathKey(f.path))
	return errors.Join(f.dm.Sync(), f.dm.Close())
}

// AllocateBlock appends a zeroed block to the file and returns it pinned.
func (m *Manager) AllocateBlock(fd FileDesc) (*Block, error) {
	f, err := m.file(fd)
	if err != nil {
		return nil, err
	}

	p, err := m.pool.NewPage(f.poolId)
	if err != nil {
		return nil, err
	}

	return &Block{file: f, num: p.GetPageId(), page: p, pinned: true}, nil
}

// GetBlock pins the block at index num.
func (m *Manager) GetBlock(fd FileDesc, num int) (*Block, error) {
	f, err := m.file(fd)
	if err != nil {
		return nil, err
	}

	p, err := m.pool.GetPage(f.poolId, num)
	if err != nil {
		if errors.Is(err, disk.ErrPageOutOfRange) {
			return nil, fmt.Errorf("%w: %d", ErrInvalidBlock, num)
		}
		return nil, err
	}

	return &Block{file: f, num: num, page: p, pinned: true}, nil
}

func (m *Manager) UnpinBlock(b *Block) error {
	if b == nil || !b.pinned {
		return ErrBlockNotPinned
	}

	if err := m.pool.Unpin(b.file.poolId, b.num, b.dirty); err != nil {
		return err
	}

	b.pinned = false
	b.dirty = false
	return nil
}

// GetBlockCounter returns the number of blocks of the file, including allocated blocks not written back yet.
func (m *Manager) GetBlockCounter(fd FileDesc) (int, error) {
	f, err := m.file(fd)
	if err != nil {
		return 0, err
	}
	return f.dm.NumPages(), nil
}

// PoolStats returns the buffer pool counters: hits, misses, evictions and write backs.
func (m *Manager) PoolStats() map[string]uint64 {
	st := m.pool.Stats
	res := map[string]uint64{}
	for _, k := range []string{buffer.StatHit, buffer.StatMiss, buffer.StatEviction, buffer.StatWriteBack} {
		res[k] = st.Get(k)
	}
	return res
}

// Close closes every open file. It returns the first error it sees but tries to close all files anyway.
func (m *Manager) Close() error {
	m.mu.Lock()
	fds := make([]FileDesc, 0, len(m.files))
	for fd := range m.files {
		fds = append(fds, fd)
	}
	m.mu.Unlock()

	var firstErr error
	for _, fd := range fds {
		if err := m.CloseFile(fd); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (m *Manager) file(fd FileDesc) (*openFile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	f, ok := m.files[fd]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrBadFileDesc, fd)
	}
	return f, nil
}
