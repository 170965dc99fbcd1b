//go:build integration

package redis

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"claimguard/internal/platform/config"
	"claimguard/pkg/testutil/containers"
)

func TestNewConnects(t *testing.T) {
	rc := containers.GetManager().GetRedis(t)

	client, err := New(context.Background(), config.Redis{URL: rc.URL, PoolSize: 4})
	require.NoError(t, err)
	defer client.Close()
	require.NoError(t, client.Health(context.Background()))
}

func TestNewWithoutURL(t *testing.T) {
	client, err := New(context.Background(), config.Redis{})
	require.NoError(t, err)
	require.Nil(t, client)
}
