// Package liveness 提供一个单调递增的代数计数器，用于丢弃过期的异步结果：
// 发起异步操作前记下当前代数，结果返回时若代数已前进则直接忽略。
// 传输层不做取消，只在结果到达时判活。
package liveness

import "sync/atomic"

// Counter is a monotonic generation counter. The zero value is ready to use.
type Counter struct {
	gen atomic.Uint64
}

// Current returns the generation to stamp onto an in-flight operation.
func (c *Counter) Current() uint64 {
	return c.gen.Load()
}

// Invalidate advances the generation, expiring every stamped operation.
func (c *Counter) Invalidate() uint64 {
	return c.gen.Add(1)
}

// StillCurrent reports whether a stamped operation may apply its result.
func (c *Counter) StillCurrent(gen uint64) bool {
	return c.gen.Load() == gen
}
