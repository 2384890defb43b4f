package engagement_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anonto42/wisora/internal/engagement"
)

func TestCoordinatorPublishesGuessThenAuthoritative(t *testing.T) {
	c := engagement.NewCoordinator[string, int](zerolog.Nop())
	require.True(t, c.Seed("k", 1))

	var during int
	got, err := c.Mutate(context.Background(), "k",
		func(s int) int { return s + 1 },
		func(ctx context.Context) (int, error) {
			during, _ = c.State("k")
			return 10, nil
		})

	require.NoError(t, err)
	assert.Equal(t, 2, during)
	assert.Equal(t, 10, got)
	state, known := c.State("k")
	assert.True(t, known)
	assert.Equal(t, 10, state)
}

func TestCoordinatorRollsBackOnFailure(t *testing.T) {
	c := engagement.NewCoordinator[string, int](zerolog.Nop())
	c.Seed("k", 7)
	boom := errors.New("boom")

	got, err := c.Mutate(context.Background(), "k",
		func(s int) int { return s * 2 },
		func(ctx context.Context) (int, error) { return 0, boom })

	require.ErrorIs(t, err, boom)
	assert.Equal(t, 7, got)
	state, _ := c.State("k")
	assert.Equal(t, 7, state)
}

func TestCoordinatorDiscardsSupersededResponses(t *testing.T) {
	tests := []struct {
		name     string
		firstErr error
	}{
		{name: "stale success", firstErr: nil},
		{name: "stale failure", firstErr: errors.New("timeout")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := engagement.NewCoordinator[string, int](zerolog.Nop())
			c.Seed("k", 0)

			entered := make(chan struct{})
			release := make(chan struct{})
			var wg sync.WaitGroup
			var firstGot int
			var firstErr error

			wg.Add(1)
			go func() {
				defer wg.Done()
				firstGot, firstErr = c.Mutate(context.Background(), "k",
					func(s int) int { return s + 1 },
					func(ctx context.Context) (int, error) {
						close(entered)
						<-release
						return 100, tt.firstErr
					})
			}()
			<-entered

			second, err := c.Mutate(context.Background(), "k",
				func(s int) int { return s + 1 },
				func(ctx context.Context) (int, error) { return 42, nil })
			require.NoError(t, err)
			assert.Equal(t, 42, second)

			close(release)
			wg.Wait()

			require.NoError(t, firstErr)
			assert.Equal(t, 42, firstGot)
			state, _ := c.State("k")
			assert.Equal(t, 42, state)
		})
	}
}

func TestCoordinatorSeedIgnoredWhileInFlight(t *testing.T) {
	c := engagement.NewCoordinator[string, int](zerolog.Nop())

	_, err := c.Mutate(context.Background(), "k",
		func(s int) int { return 1 },
		func(ctx context.Context) (int, error) {
			assert.True(t, c.Pending("k"))
			assert.False(t, c.Seed("k", 99))
			return 2, nil
		})
	require.NoError(t, err)

	assert.False(t, c.Pending("k"))
	state, _ := c.State("k")
	assert.Equal(t, 2, state)
}

func TestCoordinatorWatch(t *testing.T) {
	c := engagement.NewCoordinator[string, int](zerolog.Nop())
	c.Seed("k", 3)

	ch, cancel := c.Watch("k")
	defer cancel()
	assert.Equal(t, 3, <-ch)

	_, err := c.Mutate(context.Background(), "k",
		func(s int) int { return s + 1 },
		func(ctx context.Context) (int, error) { return 5, nil })
	require.NoError(t, err)

	// The guess was overwritten before it was read.
	assert.Equal(t, 5, <-ch)

	c.Forget("k")
	_, open := <-ch
	assert.False(t, open)
	_, known := c.State("k")
	assert.False(t, known)
}

// blockedMutate starts a Mutate whose op waits for release and then returns
// result and err. It returns once op has been entered.
func blockedMutate(c *engagement.Coordinator[string, int], result int, err error) (release func(), done <-chan error) {
	entered := make(chan struct{})
	gate := make(chan struct{})
	out := make(chan error, 1)
	go func() {
		_, mErr := c.Mutate(context.Background(), "k",
			func(s int) int { return s + 1 },
			func(ctx context.Context) (int, error) {
				close(entered)
				<-gate
				return result, err
			})
		out <- mErr
	}()
	<-entered
	return func() { close(gate) }, out
}

func TestCoordinatorSettlesAfterOverlappingFailure(t *testing.T) {
	boom := errors.New("boom")

	t.Run("later call fails while earlier is in flight", func(t *testing.T) {
		c := engagement.NewCoordinator[string, int](zerolog.Nop())
		c.Seed("k", 0)
		releaseFirst, firstDone := blockedMutate(c, 100, nil)

		got, err := c.Mutate(context.Background(), "k",
			func(s int) int { return s + 1 },
			func(ctx context.Context) (int, error) { return 0, boom })
		require.ErrorIs(t, err, boom)
		assert.Equal(t, 1, got)

		releaseFirst()
		require.NoError(t, <-firstDone)
		state, _ := c.State("k")
		assert.Equal(t, 100, state)
	})

	t.Run("earlier call returns first then later fails", func(t *testing.T) {
		c := engagement.NewCoordinator[string, int](zerolog.Nop())
		c.Seed("k", 0)
		releaseFirst, firstDone := blockedMutate(c, 100, nil)
		releaseSecond, secondDone := blockedMutate(c, 0, boom)

		releaseFirst()
		require.NoError(t, <-firstDone)
		state, _ := c.State("k")
		assert.Equal(t, 2, state)
		assert.True(t, c.Pending("k"))

		releaseSecond()
		require.ErrorIs(t, <-secondDone, boom)
		state, _ = c.State("k")
		assert.Equal(t, 100, state)
	})

	t.Run("both fail", func(t *testing.T) {
		c := engagement.NewCoordinator[string, int](zerolog.Nop())
		c.Seed("k", 7)
		releaseFirst, firstDone := blockedMutate(c, 0, boom)

		_, err := c.Mutate(context.Background(), "k",
			func(s int) int { return s + 1 },
			func(ctx context.Context) (int, error) { return 0, boom })
		require.ErrorIs(t, err, boom)

		releaseFirst()
		require.NoError(t, <-firstDone)
		state, _ := c.State("k")
		assert.Equal(t, 7, state)
	})
}
