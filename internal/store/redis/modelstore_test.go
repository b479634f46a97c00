package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	goredis "github.com/go-redis/redis/v8"
)

func TestNewModelStore_PingFailure(t *testing.T) {
	_, err := NewModelStore(Config{Addr: "127.0.0.1:1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis ping")
}

func TestModelStore_DefaultKey(t *testing.T) {
	client := goredis.NewClient(&goredis.Options{Addr: "localhost:6390"})
	defer client.Close()

	s := NewModelStoreWithClient(client, "")
	assert.Equal(t, "redis://localhost:6390/"+DefaultModelKey, s.Location())

	s = NewModelStoreWithClient(client, "model:test")
	assert.Equal(t, "redis://localhost:6390/model:test", s.Location())
}

func TestWatch_Unreachable(t *testing.T) {
	client := goredis.NewClient(&goredis.Options{Addr: "127.0.0.1:1", MaxRetries: -1})
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := NewModelStoreWithClient(client, "").Watch(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), UpdatesChannel)
}
