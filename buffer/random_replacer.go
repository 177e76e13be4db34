package buffer

import (
	"math/rand"
	"sync"
)

var _ IReplacer = &RandomReplacer{}

// RandomReplacer picks any frame that is not pinned. Frames that were never pinned count as unpinned.
type RandomReplacer struct {
	pinned map[int]struct{}
	size   int
	lock   sync.Mutex
}

func NewRandomReplacer(poolSize int) *RandomReplacer {
	return &RandomReplacer{
		pinned: make(map[int]struct{}),
		size:   poolSize,
	}
}

func (r *RandomReplacer) Pin(frameId int) {
	r.lock.Lock()
	defer r.lock.Unlock()

	r.pinned[frameId] = struct{}{}
}

func (r *RandomReplacer) Unpin(frameId int) {
	r.lock.Lock()
	defer r.lock.Unlock()

	delete(r.pinned, frameId)
}

func (r *RandomReplacer) ChooseVictim() (frameId int, err error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	for _, frameIdx := range rand.Perm(r.size) {
		if _, ok := r.pinned[frameIdx]; ok {
			continue
		}
		return frameIdx, nil
	}

	return 0, ErrNothingUnpinned
}

func (r *RandomReplacer) GetSize() int {
	// NOTE: no need thread safe access
	return r.size
}

func (r *RandomReplacer) NumPinnedPages() int {
	r.lock.Lock()
	defer r.lock.Unlock()

	return len(r.pinned)
}
