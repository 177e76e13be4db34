package buffer

import (
	"sync"
)

const (
	PinnedBit       uint8 = 1 << 7
	SecondChanceBit uint8 = 1 << 6
)

type counter struct {
	bits uint8
}

var _ IReplacer = &ClockReplacer{}

// ClockReplacer approximates lru by giving every recently pinned frame a second chance before it is evicted.
type ClockReplacer struct {
	frames         []counter
	victimIterator int
	lock           sync.Mutex // NOTE: is this needed? access to buffer pool is already synchronized right now.
}

func (c *ClockReplacer) Pin(frameId int) {
	c.lock.Lock()
	defer c.lock.Unlock()

	c.frames[frameId].bits |= PinnedBit | SecondChanceBit
}

func (c *ClockReplacer) Unpin(frameId int) {
	c.lock.Lock()
	defer c.lock.Unlock()

	if (c.frames[frameId].bits & PinnedBit) == 0 {
		panic("unpinning a frame which is already unpinned or not pinned at all")
	}

	c.frames[frameId].bits &= ^PinnedBit
}

func (c *ClockReplacer) ChooseVictim() (frameId int, err error) {
	c.lock.Lock()
	defer c.lock.Unlock()

	size := len(c.frames)
	if size == 0 {
		return 0, ErrNothingUnpinned
	}

	// first lap clears second chance bits, second lap is guaranteed to find a victim if there is any unpinned frame.
	for i := 0; i < 2*size+1; i++ {
		curr := c.victimIterator
		c.victimIterator = (c.victimIterator + 1) % size

		f := &c.frames[curr]
		if f.bits&PinnedBit != 0 {
			continue
		}
		if f.bits&SecondChanceBit != 0 {
			f.bits &= ^SecondChanceBit
			continue
		}
		return curr, nil
	}

	return 0, ErrNothingUnpinned
}

func (c *ClockReplacer) GetSize() int {
	return len(c.frames)
}

func (c *ClockReplacer) NumPinnedPages() int {
	c.lock.Lock()
	defer c.lock.Unlock()

	i := 0
	for _, frame := range c.frames {
		if frame.bits&PinnedBit > 0 {
			i++
		}
	}

	return i
}

func NewClockReplacer(size int) *ClockReplacer {
	return &ClockReplacer{
		frames: make([]counter, size),
	}
}
