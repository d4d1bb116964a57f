package gate

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoReturnsResult(t *testing.T) {
	g := New()

	assert.NoError(t, g.Do(context.Background(), func() error { return nil }))

	boom := errors.New("boom")
	assert.ErrorIs(t, g.Do(context.Background(), func() error { return boom }), boom)

	// a failed operation must not leak the permit
	assert.False(t, g.Busy())
	assert.NoError(t, g.Do(context.Background(), func() error { return nil }))
}

func TestDoReleasesOnPanic(t *testing.T) {
	g := New()

	assert.Panics(t, func() {
		_ = g.Do(context.Background(), func() error { panic("pulse") })
	})
	assert.False(t, g.Busy())
}

func TestDoIsExclusive(t *testing.T) {
	g := New()

	var inside, maxInside int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = g.Do(context.Background(), func() error {
				n := atomic.AddInt32(&inside, 1)
				for {
					m := atomic.LoadInt32(&maxInside)
					if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
						break
					}
				}
				time.Sleep(time.Millisecond)
				atomic.AddInt32(&inside, -1)
				return nil
			})
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxInside)
}

func TestDoAdmissionOrder(t *testing.T) {
	g := New()
	release := make(chan struct{})
	started := make(chan struct{})

	go func() {
		_ = g.Do(context.Background(), func() error {
			close(started)
			<-release
			return nil
		})
	}()
	<-started

	var mu sync.Mutex
	var order []int
	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = g.Do(context.Background(), func() error {
				mu.Lock()
				order = append(order, i)
				mu.Unlock()
				return nil
			})
		}(i)
		// wait until waiter i is queued before starting the next one
		require.Eventually(t, func() bool { return g.Waiting() == i+1 }, time.Second, time.Millisecond)
	}

	close(release)
	wg.Wait()
	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestDoCancelledWhileWaiting(t *testing.T) {
	g := New()
	release := make(chan struct{})
	started := make(chan struct{})
	go func() {
		_ = g.Do(context.Background(), func() error {
			close(started)
			<-release
			return nil
		})
	}()
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	ran := false
	err := g.Do(ctx, func() error { ran = true; return nil })
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, ran)

	close(release)
	require.Eventually(t, func() bool { return !g.Busy() }, time.Second, time.Millisecond)
}

func TestDoCancelledBeforeAdmission(t *testing.T) {
	g := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ran := false
	err := g.Do(ctx, func() error { ran = true; return nil })
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, ran)
	assert.False(t, g.Busy())
}

func TestTryDo(t *testing.T) {
	g := New()

	ran, err := g.TryDo(func() error { return errors.New("stuck") })
	assert.True(t, ran)
	assert.EqualError(t, err, "stuck")
	assert.False(t, g.Busy())

	release := make(chan struct{})
	started := make(chan struct{})
	go func() {
		_ = g.Do(context.Background(), func() error {
			close(started)
			<-release
			return nil
		})
	}()
	<-started

	ran, err = g.TryDo(func() error { t.Error("ran while the gate was held"); return nil })
	assert.False(t, ran)
	assert.NoError(t, err)

	close(release)
	require.Eventually(t, func() bool { return !g.Busy() }, time.Second, time.Millisecond)
}
