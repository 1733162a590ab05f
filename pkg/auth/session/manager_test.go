package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/gamestore-backend/pkg/config"
	redisclient "github.com/angelmondragon/gamestore-backend/pkg/redis"
)

func newTestManager(t *testing.T) (*Manager, *redisclient.Client, *miniredis.Miniredis) {
	t.Helper()
	server := miniredis.RunT(t)
	client := redisclient.Wrap(redis.NewClient(&redis.Options{Addr: server.Addr()}))
	t.Cleanup(func() { _ = client.Close() })

	manager, err := NewManager(client, config.JWTConfig{ExpirationMinutes: 15, RefreshTokenTTLMinutes: 43200})
	require.NoError(t, err)
	return manager, client, server
}

func TestGenerateStoresDigestWithTTL(t *testing.T) {
	manager, client, server := newTestManager(t)
	userID := uuid.New()

	token, err := manager.Generate(context.Background(), "access-1", userID)
	require.NoError(t, err)

	key := client.AccessSessionKey("access-1")
	stored, err := server.Get(key)
	require.NoError(t, err)
	require.NotContains(t, stored, token)
	require.Contains(t, stored, userID.String())
	require.Equal(t, 30*24*time.Hour, server.TTL(key))
}

func TestRotateIsSingleUse(t *testing.T) {
	manager, client, server := newTestManager(t)
	ctx := context.Background()
	userID := uuid.New()

	token, err := manager.Generate(ctx, "access-1", userID)
	require.NoError(t, err)

	_, err = manager.Rotate(ctx, "access-1", "wrong")
	require.ErrorIs(t, err, ErrInvalidRefreshToken)

	rotation, err := manager.Rotate(ctx, "access-1", token)
	require.NoError(t, err)
	require.Equal(t, userID, rotation.UserID)
	require.NotEqual(t, token, rotation.RefreshToken)
	require.False(t, server.Exists(client.AccessSessionKey("access-1")))

	ok, err := manager.HasSession(ctx, rotation.AccessID)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = manager.Rotate(ctx, "access-1", token)
	require.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestRotateRejectsCorruptRecord(t *testing.T) {
	manager, client, server := newTestManager(t)
	require.NoError(t, server.Set(client.AccessSessionKey("access-1"), "not-json"))

	_, err := manager.Rotate(context.Background(), "access-1", "anything")
	require.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestRevokeEndsSession(t *testing.T) {
	manager, _, _ := newTestManager(t)
	ctx := context.Background()

	_, err := manager.Generate(ctx, "access-1", uuid.New())
	require.NoError(t, err)
	require.NoError(t, manager.Revoke(ctx, "access-1"))

	ok, err := manager.HasSession(ctx, "access-1")
	require.NoError(t, err)
	require.False(t, ok)
	require.Error(t, manager.Revoke(ctx, " "))
}

func TestGenerateValidatesInput(t *testing.T) {
	manager, _, _ := newTestManager(t)
	_, err := manager.Generate(context.Background(), "access-1", uuid.Nil)
	require.Error(t, err)
	_, err = manager.Generate(context.Background(), "", uuid.New())
	require.ErrorIs(t, err, errAccessIDRequired)
}

func TestNewManagerRejectsShortRefreshTTL(t *testing.T) {
	client := redisclient.Wrap(redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"}))
	_, err := NewManager(client, config.JWTConfig{ExpirationMinutes: 60, RefreshTokenTTLMinutes: 30})
	require.Error(t, err)
	_, err = NewManager(nil, config.JWTConfig{})
	require.Error(t, err)
}
