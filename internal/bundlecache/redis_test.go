package bundlecache

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/require"
)

func TestRedisCache_GetHit(t *testing.T) {
	client, mock := redismock.NewClientMock()
	defer client.Close()

	c := NewRedisCacheFromClient(client, time.Minute)
	mock.ExpectGet("lexio:bundle:en:web").SetVal("payload")

	val, ok := c.Get(context.Background(), "en:web")
	require.True(t, ok)
	require.Equal(t, "payload", val)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisCache_GetMiss(t *testing.T) {
	client, mock := redismock.NewClientMock()
	defer client.Close()

	c := NewRedisCacheFromClient(client, time.Minute)
	mock.ExpectGet("lexio:bundle:en:web").RedisNil()

	_, ok := c.Get(context.Background(), "en:web")
	require.False(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisCache_GetErrorIsMiss(t *testing.T) {
	client, mock := redismock.NewClientMock()
	defer client.Close()

	c := NewRedisCacheFromClient(client, time.Minute)
	mock.ExpectGet("lexio:bundle:en:web").SetErr(context.DeadlineExceeded)

	// Transport failures degrade to a miss so reads fall through to SQLite.
	_, ok := c.Get(context.Background(), "en:web")
	require.False(t, ok)
}

func TestRedisCache_Set(t *testing.T) {
	client, mock := redismock.NewClientMock()
	defer client.Close()

	c := NewRedisCacheFromClient(client, time.Minute)
	mock.ExpectSet("lexio:bundle:en:web", "payload", time.Minute).SetVal("OK")

	require.NoError(t, c.Set(context.Background(), "en:web", "payload"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisCache_DeletePrefix(t *testing.T) {
	client, mock := redismock.NewClientMock()
	defer client.Close()

	c := NewRedisCacheFromClient(client, time.Minute)
	mock.ExpectScan(0, "lexio:bundle:en:*", 100).SetVal([]string{"lexio:bundle:en:web", "lexio:bundle:en:mobile"}, 0)
	mock.ExpectDel("lexio:bundle:en:web").SetVal(1)
	mock.ExpectDel("lexio:bundle:en:mobile").SetVal(1)

	require.NoError(t, c.DeletePrefix(context.Background(), "en:"))
	require.NoError(t, mock.ExpectationsWereMet())
}
