package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/microlearning/site-api/internal/service/resend"
)

type countingSweeper struct {
	runs atomic.Int32
	err  error
}

func (c *countingSweeper) RunSweep(_ context.Context) (*resend.Result, error) {
	c.runs.Add(1)
	if c.err != nil {
		return nil, c.err
	}
	return &resend.Result{RunID: "run", Sent: 1}, nil
}

func TestResendSweeper_RunOnce(t *testing.T) {
	sw := &countingSweeper{}
	res := NewResendSweeper(sw, time.Minute).RunOnce(context.Background())
	require.NotNil(t, res)
	assert.Equal(t, 1, res.Sent)
	assert.EqualValues(t, 1, sw.runs.Load())
}

func TestResendSweeper_RunOnceErrors(t *testing.T) {
	for _, err := range []error{resend.ErrSweepInProgress, errors.New("store unavailable")} {
		sw := &countingSweeper{err: err}
		assert.Nil(t, NewResendSweeper(sw, time.Minute).RunOnce(context.Background()))
	}
}

func TestResendSweeper_StartRunsImmediatelyAndStops(t *testing.T) {
	sw := &countingSweeper{}
	rs := NewResendSweeper(sw, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		rs.Start(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return sw.runs.Load() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop after cancel")
	}
}

func TestNewResendSweeper_DefaultInterval(t *testing.T) {
	assert.Equal(t, DefaultSweepInterval, NewResendSweeper(&countingSweeper{}, 0).interval)
}
