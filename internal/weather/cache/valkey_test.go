package cache_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cragcast/cragcast/internal/weather/cache"
)

func TestClientOption_HostPort(t *testing.T) {
	opt, err := cache.ClientOption("localhost:6379")
	require.NoError(t, err)
	assert.Equal(t, []string{"localhost:6379"}, opt.InitAddress)
}

func TestClientOption_URL(t *testing.T) {
	opt, err := cache.ClientOption("redis://cache.internal:6380/2")
	require.NoError(t, err)
	assert.Equal(t, []string{"cache.internal:6380"}, opt.InitAddress)
	assert.Equal(t, 2, opt.SelectDB)
}

func TestClientOption_Empty(t *testing.T) {
	_, err := cache.ClientOption("")
	assert.Error(t, err)
}
