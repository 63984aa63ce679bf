package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWarmerProcessesRequest(t *testing.T) {
	done := make(chan string, 1)
	w := NewWarmer(func(_ context.Context, projectID string) error {
		done <- projectID
		return nil
	}, WarmerConfig{Workers: 1})

	w.Start(context.Background())
	defer w.Stop()

	require.NoError(t, w.Enqueue("proj-1", "test"))

	select {
	case got := <-done:
		assert.Equal(t, "proj-1", got)
	case <-time.After(2 * time.Second):
		t.Fatal("warm request was not processed")
	}
}

func TestWarmerRetriesFailedRequest(t *testing.T) {
	var calls int32
	done := make(chan struct{}, 1)
	w := NewWarmer(func(_ context.Context, _ string) error {
		if atomic.AddInt32(&calls, 1) == 1 {
			return errors.New("transient")
		}
		done <- struct{}{}
		return nil
	}, WarmerConfig{Workers: 1, RetryDelay: 10 * time.Millisecond})

	w.Start(context.Background())
	defer w.Stop()

	require.NoError(t, w.Enqueue("proj-1", "test"))

	select {
	case <-done:
		assert.GreaterOrEqual(t, atomic.LoadInt32(&calls), int32(2))
	case <-time.After(2 * time.Second):
		t.Fatal("warm request was not retried")
	}
}

func TestWarmerEnqueueBeforeStart(t *testing.T) {
	w := NewWarmer(func(_ context.Context, _ string) error { return nil }, WarmerConfig{})
	err := w.Enqueue("proj-1", "test")
	assert.Error(t, err)
}
