package engagement_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anonto42/wisora/internal/engagement"
)

type countingPollable struct {
	polls atomic.Int32
}

func (c *countingPollable) Poll(ctx context.Context) error {
	c.polls.Add(1)
	return nil
}

func TestPollerPollsImmediatelyAndOnInterval(t *testing.T) {
	target := &countingPollable{}
	p := engagement.NewPoller(target, 10*time.Millisecond, zerolog.Nop())

	p.Start(context.Background())
	p.Start(context.Background())
	require.True(t, p.Running())

	require.Eventually(t, func() bool { return target.polls.Load() >= 3 }, time.Second, 5*time.Millisecond)

	p.Stop()
	assert.False(t, p.Running())
	stopped := target.polls.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, stopped, target.polls.Load())

	p.Stop()
}

func TestPollerDefaultInterval(t *testing.T) {
	target := &countingPollable{}
	p := engagement.NewPoller(target, 0, zerolog.Nop())

	p.Start(context.Background())
	defer p.Stop()

	require.Eventually(t, func() bool { return target.polls.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(1), target.polls.Load())
}

func TestPollerStopsWithParentContext(t *testing.T) {
	target := &countingPollable{}
	p := engagement.NewPoller(target, 5*time.Millisecond, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	p.Start(ctx)
	require.Eventually(t, func() bool { return target.polls.Load() >= 1 }, time.Second, time.Millisecond)
	cancel()

	done := make(chan struct{})
	go func() {
		p.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop did not return after the parent context was cancelled")
	}
}

func TestPollerRestartsAfterParentContextEnds(t *testing.T) {
	target := &countingPollable{}
	p := engagement.NewPoller(target, 5*time.Millisecond, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	p.Start(ctx)
	require.Eventually(t, func() bool { return target.polls.Load() >= 1 }, time.Second, time.Millisecond)
	cancel()
	require.Eventually(t, func() bool { return !p.Running() }, time.Second, time.Millisecond)

	before := target.polls.Load()
	p.Start(context.Background())
	defer p.Stop()
	require.True(t, p.Running())
	require.Eventually(t, func() bool { return target.polls.Load() > before }, time.Second, time.Millisecond)
}
