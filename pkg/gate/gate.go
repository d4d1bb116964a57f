// Package gate serializes access to hardware that can't tolerate concurrent use.
package gate

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// Gate admits one operation at a time, in arrival order.
// A process should share a single Gate between all callers of the same hardware.
type Gate struct {
	sem *semaphore.Weighted
	// waiting counts callers blocked in Do
	waiting atomic.Int64
}

// New returns an open gate.
func New() *Gate {
	return &Gate{sem: semaphore.NewWeighted(1)}
}

// Do waits for the gate and runs fn. The gate is released when fn returns,
// also if fn fails or panics.
//
// ctx only bounds the wait for admission, fn itself is never interrupted.
// A cancelled ctx is never admitted, even if the gate is free.
func (g *Gate) Do(ctx context.Context, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	g.waiting.Add(1)
	err := g.sem.Acquire(ctx, 1)
	g.waiting.Add(-1)
	if err != nil {
		return err
	}
	defer g.sem.Release(1)

	return fn()
}

// TryDo runs fn only if the gate is free right now and reports whether fn ran.
func (g *Gate) TryDo(fn func() error) (bool, error) {
	if !g.sem.TryAcquire(1) {
		return false, nil
	}
	defer g.sem.Release(1)

	return true, fn()
}

// Busy reports whether an operation holds the gate.
func (g *Gate) Busy() bool {
	if !g.sem.TryAcquire(1) {
		return true
	}
	g.sem.Release(1)
	return false
}

// Waiting returns the number of callers queued for the gate.
func (g *Gate) Waiting() int {
	return int(g.waiting.Load())
}
