package wpool

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tomb "gopkg.in/tomb.v2"
)

func TestPool_ProcessesAllSubmittedTasks(t *testing.T) {
	p := New(3)
	var processed int64

	tb, _ := tomb.WithContext(context.Background())
	tb.Go(func() error {
		p.Run(tb, func(*tomb.Tomb, any) error {
			atomic.AddInt64(&processed, 1)
			return nil
		})
		return nil
	})

	const n = 50
	for i := 0; i < n; i++ {
		p.Submit(i)
	}

	require.Eventually(t, func() bool {
		return atomic.LoadInt64(&processed) == n
	}, 2*time.Second, 10*time.Millisecond)

	tb.Kill(nil)
	_ = tb.Wait()
}

func TestPool_StopsOnTombDeath(t *testing.T) {
	p := New(2)

	tb, _ := tomb.WithContext(context.Background())
	tb.Go(func() error {
		p.Run(tb, func(*tomb.Tomb, any) error { return nil })
		return nil
	})

	tb.Kill(nil)
	err := tb.Wait()
	assert.NoError(t, err)
}
