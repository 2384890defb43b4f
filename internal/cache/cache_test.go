package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/anonto42/wisora/internal/cache"
)

func TestNewWithoutClientIsNoop(t *testing.T) {
	c := cache.New(nil, time.Minute, zerolog.Nop())
	assert.IsType(t, cache.Noop{}, c)

	c.SetJSON(context.Background(), "comments:a1", []string{"x"})
	var got []string
	assert.False(t, c.GetJSON(context.Background(), "comments:a1", &got))
	assert.Nil(t, got)
	c.InvalidatePrefix(context.Background(), "comments:")
}
