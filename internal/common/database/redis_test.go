package database

import (
	"context"
	"testing"

	"nova-client/internal/common/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRedis(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client, err := NewRedis(context.Background(), config.RedisConfig{Address: mr.Addr()})
	require.NoError(t, err)
	defer client.Close()

	assert.NoError(t, client.Ping(context.Background()))
}

func TestNewRedis_Unreachable(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	addr := mr.Addr()
	mr.Close()

	_, err = NewRedis(context.Background(), config.RedisConfig{Address: addr})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis ping failed")
}

func TestNewRedis_MissingAddress(t *testing.T) {
	_, err := NewRedis(context.Background(), config.RedisConfig{})
	assert.Error(t, err)
}
