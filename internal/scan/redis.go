package scan

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient connects to redis with short timeouts; kiosk scanners push
// decoded payloads onto a list that RedisSource drains.
func NewRedisClient(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  6 * time.Second, // must outlive the BRPOP block
		WriteTimeout: 1 * time.Second,
	})
}

// Healthy verifies redis connectivity.
func Healthy(ctx context.Context, client *redis.Client) bool {
	if client == nil {
		return false
	}
	return client.Ping(ctx).Err() == nil
}

// RedisSource drains decoded scan payloads from a redis list using BRPOP.
type RedisSource struct {
	client *redis.Client
	key    string

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewRedisSource builds a source over the given list key.
func NewRedisSource(client *redis.Client, key string) *RedisSource {
	if key == "" {
		key = "eduscan:scans"
	}
	return &RedisSource{client: client, key: key}
}

// Start begins draining the list. The returned channels close when the
// context is cancelled or Stop is called.
func (s *RedisSource) Start(ctx context.Context) (<-chan string, <-chan error, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return nil, nil, ErrStopped
	}
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})

	decoded := make(chan string)
	errs := make(chan error, 1)
	go func() {
		defer close(s.done)
		defer close(errs)
		defer close(decoded)
		for {
			res, err := s.client.BRPop(ctx, 5*time.Second, s.key).Result()
			if err != nil {
				if err == redis.Nil {
					continue
				}
				if ctx.Err() != nil {
					return
				}
				select {
				case errs <- err:
				default:
				}
				continue
			}
			if len(res) == 2 {
				select {
				case decoded <- res[1]:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return decoded, errs, nil
}

// Stop cancels the drain loop and waits for it to release the connection.
func (s *RedisSource) Stop() error {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.mu.Unlock()
	if cancel == nil {
		return nil
	}
	cancel()
	<-done
	return nil
}
