package common

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStats_Should_Count_Concurrent_Increments(t *testing.T) {
	s := NewStats()

	wg := sync.WaitGroup{}
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				s.Incr("b")
			}
			s.Incr("a")
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1000, s.Get("b"))
	assert.EqualValues(t, 10, s.Get("a"))
	assert.Zero(t, s.Get("missing"))
	assert.Equal(t, []string{"a", "b"}, s.Keys())
}
