package buffer

import (
	"errors"
	"fmt"
)

var ErrNothingUnpinned = errors.New("nothing is unpinned")

// IReplacer keeps track of which frames may be reused and picks one when the pool runs out of empty frames.
type IReplacer interface {
	Pin(frameId int)
	Unpin(frameId int)
	ChooseVictim() (frameId int, err error)
	GetSize() int
	NumPinnedPages() int
}

const (
	ClockReplacerName  = "clock"
	LruReplacerName    = "lru"
	RandomReplacerName = "random"
)

// NewReplacer builds the replacer registered under name for a pool of poolSize frames.
func NewReplacer(name string, poolSize int) (IReplacer, error) {
	switch name {
	case ClockReplacerName, "":
		return NewClockReplacer(poolSize), nil
	case LruReplacerName:
		return NewLruReplacer(poolSize), nil
	case RandomReplacerName:
		return NewRandomReplacer(poolSize), nil
	}
	return nil, fmt.Errorf("unknown replacer %q", name)
}
