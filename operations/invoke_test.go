package operations

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartcontractkit/pipes-framework/content"
	"github.com/smartcontractkit/pipes-framework/memory"
	"github.com/smartcontractkit/pipes-framework/pkg/logger"
)

type ctxKey struct{}

func TestInvoker_Cooperative(t *testing.T) {
	t.Parallel()

	reg := NewOperationRegistry()
	entry := reg.MustRegister("from_ctx", func(ctx context.Context, _ *memory.WorkingMemory) (content.Text, error) {
		v, _ := ctx.Value(ctxKey{}).(string)
		return content.NewText(v), nil
	})

	inv := NewInvoker(1, logger.Test(t))
	ctx := context.WithValue(t.Context(), ctxKey{}, "carried")

	got, err := inv.Invoke(ctx, entry, memory.New())
	require.NoError(t, err)
	assert.Equal(t, content.NewText("carried"), got)
}

func TestInvoker_Blocking(t *testing.T) {
	t.Parallel()

	reg := NewOperationRegistry()
	entry := reg.MustRegister("count_words", countWords)

	inv := NewInvoker(2, logger.Test(t))
	got, err := inv.Invoke(t.Context(), entry, newTextMemory("one two three"))
	require.NoError(t, err)
	assert.Equal(t, content.NewNumber(3), got)
}

func TestInvoker_CancelledBeforeStart(t *testing.T) {
	t.Parallel()

	var called atomic.Bool
	reg := NewOperationRegistry()
	entry := reg.MustRegister("spy", func(*memory.WorkingMemory) (content.Text, error) {
		called.Store(true)
		return content.Text{}, nil
	})

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	_, err := NewInvoker(1, nil).Invoke(ctx, entry, memory.New())
	require.ErrorIs(t, err, context.Canceled)
	assert.False(t, called.Load())
}

func TestInvoker_CancelledWhileWaitingForWorker(t *testing.T) {
	t.Parallel()

	started := make(chan struct{})
	release := make(chan struct{})

	reg := NewOperationRegistry()
	holder := reg.MustRegister("holder", func(*memory.WorkingMemory) (content.Text, error) {
		close(started)
		<-release

		return content.NewText("held"), nil
	})
	var called atomic.Bool
	waiter := reg.MustRegister("waiter", func(*memory.WorkingMemory) (content.Text, error) {
		called.Store(true)
		return content.Text{}, nil
	})

	inv := NewInvoker(1, logger.Test(t))

	done := make(chan error, 1)
	go func() {
		_, err := inv.Invoke(context.Background(), holder, memory.New())
		done <- err
	}()
	<-started

	ctx, cancel := context.WithTimeout(t.Context(), 20*time.Millisecond)
	defer cancel()

	_, err := inv.Invoke(ctx, waiter, memory.New())
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, called.Load())

	close(release)
	require.NoError(t, <-done)
}

func TestInvoker_CancelledWhileRunning(t *testing.T) {
	t.Parallel()

	started := make(chan struct{})
	release := make(chan struct{})
	var finished atomic.Bool

	reg := NewOperationRegistry()
	entry := reg.MustRegister("slow", func(wm *memory.WorkingMemory) (content.Text, error) {
		close(started)
		<-release
		finished.Store(true)

		return content.NewText("late"), nil
	})

	ctx, cancel := context.WithCancel(t.Context())
	inv := NewInvoker(1, logger.Test(t))

	type result struct {
		val any
		err error
	}
	done := make(chan result, 1)
	go func() {
		v, err := inv.Invoke(ctx, entry, memory.New())
		done <- result{v, err}
	}()

	<-started
	cancel()

	select {
	case <-done:
		t.Fatal("invoke returned before the blocking computation finished")
	case <-time.After(20 * time.Millisecond):
	}

	close(release)
	res := <-done

	assert.True(t, finished.Load())
	require.ErrorIs(t, res.err, context.Canceled)
	assert.Nil(t, res.val)
}

func TestInvoker_Panic(t *testing.T) {
	t.Parallel()

	reg := NewOperationRegistry()
	entry := reg.MustRegister("boom", func(*memory.WorkingMemory) (content.Text, error) {
		panic("boom")
	})

	_, err := NewInvoker(1, nil).Invoke(t.Context(), entry, memory.New())
	require.ErrorContains(t, err, "panicked: boom")
}

func TestNewInvoker_DefaultWorkers(t *testing.T) {
	t.Parallel()

	assert.Equal(t, DefaultWorkers, NewInvoker(0, nil).Workers())
	assert.Equal(t, 8, NewInvoker(8, nil).Workers())
}
