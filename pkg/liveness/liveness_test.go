package liveness

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCounterZeroValueIsCurrent(t *testing.T) {
	var c Counter
	gen := c.Current()
	assert.True(t, c.StillCurrent(gen))
}

func TestInvalidateExpiresOlderGenerations(t *testing.T) {
	var c Counter
	gen := c.Current()
	c.Invalidate()
	assert.False(t, c.StillCurrent(gen))
	assert.True(t, c.StillCurrent(c.Current()))
}

// 并发调用各自拿到不同代数，最多只有最后一个仍然有效。
// 先 Invalidate 再单独 Current 的写法在并发下会让两个调用方读到同一代数。
func TestConcurrentInvalidatesReturnDistinctGenerations(t *testing.T) {
	var c Counter
	const n = 64

	gens := make([]uint64, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			gens[i] = c.Invalidate()
		}(i)
	}
	wg.Wait()

	seen := make(map[uint64]bool, n)
	current := 0
	for _, g := range gens {
		assert.False(t, seen[g], "generation %d handed out twice", g)
		seen[g] = true
		if c.StillCurrent(g) {
			current++
		}
	}
	assert.Equal(t, 1, current)
}

func TestStampAfterInvalidateIsIndependent(t *testing.T) {
	var c Counter
	stale := c.Current()
	c.Invalidate()
	fresh := c.Current()
	c.Invalidate()

	assert.False(t, c.StillCurrent(stale))
	assert.False(t, c.StillCurrent(fresh))
}
