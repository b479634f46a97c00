package redis

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"stockforecast/internal/artifact"

	goredis "github.com/go-redis/redis/v8"
)

// DefaultModelKey is the key holding the current model artifact.
const DefaultModelKey = "model:forecast:current"

// UpdatesChannel carries the trained_at stamp of each newly saved artifact.
const UpdatesChannel = "model:forecast:updates"

// Config configures the Redis connection.
type Config struct {
	Addr     string // Redis address, e.g. "localhost:6379"
	Password string
	DB       int
	Key      string // artifact key; DefaultModelKey when empty
}

// ModelStore keeps the model artifact as a single JSON string value.
// SET replaces the value atomically, so readers never observe a partial artifact.
type ModelStore struct {
	client *goredis.Client
	key    string
}

// NewModelStore connects to Redis and pings the server.
func NewModelStore(cfg Config) (*ModelStore, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	log.Printf("[redis] connected to %s", cfg.Addr)
	return NewModelStoreWithClient(client, cfg.Key), nil
}

// NewModelStoreWithClient wraps an existing client.
func NewModelStoreWithClient(client *goredis.Client, key string) *ModelStore {
	if key == "" {
		key = DefaultModelKey
	}
	return &ModelStore{client: client, key: key}
}

// Client returns the underlying Redis client for health checks.
func (s *ModelStore) Client() *goredis.Client { return s.client }

func (s *ModelStore) Location() string { return "redis://" + s.client.Options().Addr + "/" + s.key }

func (s *ModelStore) Save(ctx context.Context, a *artifact.Artifact) error {
	data, err := a.Marshal()
	if err != nil {
		return fmt.Errorf("encode artifact: %w", err)
	}
	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", s.key, err)
	}
	log.Printf("[redis] saved model artifact %s (%d bytes, learner=%s)", s.key, len(data), a.Learner)

	// Notification is best-effort; pollers still pick the artifact up.
	stamp := a.TrainedAt.UTC().Format(time.RFC3339Nano)
	if err := s.client.Publish(ctx, UpdatesChannel, stamp).Err(); err != nil {
		log.Printf("[redis] WARNING: failed to publish %s: %v", UpdatesChannel, err)
	}
	return nil
}

// Watch delivers one value per artifact saved by any process until ctx is
// done. The returned channel is closed when the subscription ends.
func (s *ModelStore) Watch(ctx context.Context) (<-chan string, error) {
	sub := s.client.Subscribe(ctx, UpdatesChannel)
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		return nil, fmt.Errorf("redis subscribe %s: %w", UpdatesChannel, err)
	}

	out := make(chan string, 1)
	go func() {
		defer close(out)
		defer sub.Close()
		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				select {
				case out <- msg.Payload:
				default:
					// a reload is already pending
				}
			}
		}
	}()
	return out, nil
}

func (s *ModelStore) Load(ctx context.Context) (*artifact.Artifact, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, fmt.Errorf("%w: %s", artifact.ErrNotFound, s.key)
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", s.key, err)
	}
	return artifact.Unmarshal(data)
}

// Ping checks connectivity.
func (s *ModelStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close releases the connection pool.
func (s *ModelStore) Close() error {
	return s.client.Close()
}
