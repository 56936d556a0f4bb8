package redis

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type counterClient struct {
	mu      sync.Mutex
	counts  map[string]int64
	expires map[string]time.Duration
	incrErr error
}

func newCounterClient() *counterClient {
	return &counterClient{counts: map[string]int64{}, expires: map[string]time.Duration{}}
}

func (c *counterClient) Ping(ctx context.Context) error { return nil }
func (c *counterClient) Set(ctx context.Context, key string, value interface{}, exp time.Duration) error {
	return nil
}
func (c *counterClient) Get(ctx context.Context, key string) (string, error) { return "", Nil }
func (c *counterClient) Incr(ctx context.Context, key string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.incrErr != nil {
		return 0, c.incrErr
	}
	c.counts[key]++
	return c.counts[key], nil
}
func (c *counterClient) Expire(ctx context.Context, key string, exp time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.expires[key] = exp
	return nil
}
func (c *counterClient) Del(ctx context.Context, keys ...string) error { return nil }
func (c *counterClient) Close() error                                  { return nil }

func TestRateLimiter_Allow(t *testing.T) {
	ctx := context.Background()
	cli := newCounterClient()
	rl := NewRateLimiter(cli)
	key := UserEndpointKey("u1", "verify")

	for i := 0; i < 3; i++ {
		ok, err := rl.Allow(ctx, key, 3, time.Minute)
		if err != nil || !ok {
			t.Fatalf("request %d should pass: %v %v", i+1, ok, err)
		}
	}
	if ok, _ := rl.Allow(ctx, key, 3, time.Minute); ok {
		t.Fatal("4th request should be limited")
	}
	if cli.expires[key] != time.Minute {
		t.Fatalf("window not set on first hit: %v", cli.expires[key])
	}
	if ok, _ := rl.Allow(ctx, UserEndpointKey("u2", "verify"), 3, time.Minute); !ok {
		t.Fatal("limits are per user")
	}
}

func TestRateLimiter_ErrorPropagates(t *testing.T) {
	cli := newCounterClient()
	cli.incrErr = errors.New("conn refused")
	if _, err := NewRateLimiter(cli).Allow(context.Background(), "k", 1, time.Second); err == nil {
		t.Fatal("expected error")
	}
}

func TestUserEndpointKey(t *testing.T) {
	if got := UserEndpointKey("u1", "orders"); got != "rate_limit:u1:orders" {
		t.Fatalf("unexpected key %q", got)
	}
}
