package crawler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoundedContext_CallerCancelPropagates(t *testing.T) {
	browser := context.Background()
	caller, cancelCaller := context.WithCancel(context.Background())

	runCtx, cancel := boundedContext(browser, caller, time.Minute)
	defer cancel()

	cancelCaller()

	select {
	case <-runCtx.Done():
	case <-time.After(time.Second):
		t.Fatal("run context did not end after caller cancellation")
	}
	assert.ErrorIs(t, runCtx.Err(), context.Canceled)
}

func TestBoundedContext_TimeoutExpires(t *testing.T) {
	runCtx, cancel := boundedContext(context.Background(), context.Background(), 10*time.Millisecond)
	defer cancel()

	select {
	case <-runCtx.Done():
	case <-time.After(time.Second):
		t.Fatal("run context never hit its deadline")
	}
	assert.ErrorIs(t, runCtx.Err(), context.DeadlineExceeded)
}

func TestBoundedContext_ZeroTimeoutHasNoDeadline(t *testing.T) {
	runCtx, cancel := boundedContext(context.Background(), context.Background(), 0)

	_, hasDeadline := runCtx.Deadline()
	assert.False(t, hasDeadline)
	require.NoError(t, runCtx.Err())

	cancel()
	assert.ErrorIs(t, runCtx.Err(), context.Canceled)
}

func TestBoundedContext_BrowserCancelPropagates(t *testing.T) {
	browser, cancelBrowser := context.WithCancel(context.Background())
	runCtx, cancel := boundedContext(browser, context.Background(), time.Minute)
	defer cancel()

	cancelBrowser()
	assert.ErrorIs(t, runCtx.Err(), context.Canceled)
}
