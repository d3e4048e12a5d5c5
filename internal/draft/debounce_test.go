package draft

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDebouncerCoalescesBursts(t *testing.T) {
	var fires atomic.Int32
	d := NewDebouncer(30*time.Millisecond, func() { fires.Add(1) })
	defer d.Stop()

	for i := 0; i < 10; i++ {
		d.Trigger()
		time.Sleep(2 * time.Millisecond)
	}

	require.Eventually(t, func() bool { return fires.Load() == 1 }, time.Second, 5*time.Millisecond)
	// 静默窗口过后不再有多余触发
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(1), fires.Load())
}

func TestDebouncerEachBurstFiresOnce(t *testing.T) {
	var fires atomic.Int32
	d := NewDebouncer(10*time.Millisecond, func() { fires.Add(1) })
	defer d.Stop()

	d.Trigger()
	require.Eventually(t, func() bool { return fires.Load() == 1 }, time.Second, 2*time.Millisecond)

	d.Trigger()
	require.Eventually(t, func() bool { return fires.Load() == 2 }, time.Second, 2*time.Millisecond)
}

func TestDebouncerStopCancelsPendingFire(t *testing.T) {
	var fires atomic.Int32
	d := NewDebouncer(20*time.Millisecond, func() { fires.Add(1) })

	d.Trigger()
	d.Stop()
	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, fires.Load())

	// Stop 之后 Trigger 是空操作
	d.Trigger()
	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, fires.Load())
}

func TestDebouncerFlushRunsPendingNow(t *testing.T) {
	var fires atomic.Int32
	d := NewDebouncer(time.Hour, func() { fires.Add(1) })
	defer d.Stop()

	d.Flush() // 无挂起时为空操作
	assert.Zero(t, fires.Load())

	d.Trigger()
	d.Flush()
	assert.Equal(t, int32(1), fires.Load())
}
