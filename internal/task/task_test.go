// internal/task/task_test.go
package task

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAfter_RunsOnceAfterDelay(t *testing.T) {
	var calls int32
	start := time.Now()

	tk := After(context.Background(), 20*time.Millisecond, func(ctx context.Context) (string, error) {
		atomic.AddInt32(&calls, 1)
		return "ok", nil
	})

	select {
	case <-tk.Done():
		t.Fatal("task finished before its delay")
	default:
	}

	res, err := tk.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ok", res)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestAfter_PropagatesError(t *testing.T) {
	boom := errors.New("boom")
	tk := After(context.Background(), 0, func(ctx context.Context) (int, error) {
		return 0, boom
	})
	_, err := tk.Wait(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestCancel_SkipsBody(t *testing.T) {
	var ran int32
	tk := After(context.Background(), time.Hour, func(ctx context.Context) (struct{}, error) {
		atomic.StoreInt32(&ran, 1)
		return struct{}{}, nil
	})
	tk.Cancel()

	_, err := tk.Wait(context.Background())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, atomic.LoadInt32(&ran))
}

func TestWait_RespectsCallerContext(t *testing.T) {
	tk := After(context.Background(), time.Hour, func(ctx context.Context) (int, error) { return 1, nil })
	defer tk.Cancel()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := tk.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestResolved(t *testing.T) {
	res, err := Resolved(7, nil).Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, res)
}

func TestGroup_Shutdown(t *testing.T) {
	g := NewGroup(context.Background())
	a := Go(g, time.Hour, func(ctx context.Context) (int, error) { return 1, nil })
	b := Go(g, 0, func(ctx context.Context) (int, error) { return 2, nil })

	v, err := b.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, v)

	require.NoError(t, g.Shutdown(context.Background()))
	_, err = a.Wait(context.Background())
	assert.ErrorIs(t, err, context.Canceled)
}
