package redis

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestFixedWindowAllow(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	client := &Client{store: mock}

	for i := 1; i <= 2; i++ {
		allowed, count, err := client.FixedWindowAllow(ctx, "login:ip:1.2.3.4", 2, time.Minute)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !allowed || count != int64(i) {
			t.Fatalf("call %d: allowed=%v count=%d", i, allowed, count)
		}
	}
	if len(mock.expireCalls) != 1 {
		t.Fatalf("expire should only be set on the first increment, got %d", len(mock.expireCalls))
	}

	allowed, _, err := client.FixedWindowAllow(ctx, "login:ip:1.2.3.4", 2, time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if allowed {
		t.Fatalf("expected limit reached")
	}
}

func TestJSONRoundTripAndMiss(t *testing.T) {
	ctx := context.Background()
	client := &Client{store: newMockCmdable()}

	type stats struct {
		TotalOrders int `json:"totalOrders"`
	}

	var dest stats
	found, err := client.GetJSON(ctx, "missing", &dest)
	if err != nil || found {
		t.Fatalf("expected clean miss, got found=%v err=%v", found, err)
	}

	key := client.CacheKey("dashboard", "stats")
	if err := client.SetJSON(ctx, key, stats{TotalOrders: 7}, time.Minute); err != nil {
		t.Fatalf("set json: %v", err)
	}
	found, err = client.GetJSON(ctx, key, &dest)
	if err != nil || !found {
		t.Fatalf("expected hit, got found=%v err=%v", found, err)
	}
	if dest.TotalOrders != 7 {
		t.Fatalf("unexpected decoded value %+v", dest)
	}

	if err := client.Del(ctx, key); err != nil {
		t.Fatalf("del: %v", err)
	}
	if found, _ := client.GetJSON(ctx, key, &dest); found {
		t.Fatalf("expected key removed")
	}
}

func TestZeroClientReportsNotInitialized(t *testing.T) {
	var client *Client
	if err := client.Ping(context.Background()); err != ErrNotInitialized {
		t.Fatalf("expected ErrNotInitialized, got %v", err)
	}
	if err := client.Close(); err != nil {
		t.Fatalf("close on nil client should be a no-op, got %v", err)
	}
}

func TestKeyBuilders(t *testing.T) {
	client := &Client{}
	cases := map[string]string{
		client.IdempotencyKey("orders", "abc"):    "sugi:idempotency:orders:abc",
		client.RateLimitKey("login:email:a@b.c"):  "sugi:rate_limit:login:email:a@b.c",
		client.AccessSessionKey("jti-1"):          "sugi:session:access:jti-1",
		client.CartKey("tok"):                     "sugi:cart:tok",
		client.CacheKey("dashboard", "", "stats"): "sugi:cache:dashboard:stats",
	}
	for got, want := range cases {
		if got != want {
			t.Fatalf("expected %s got %s", want, got)
		}
	}
}

type mockCmdable struct {
	data        map[string]string
	incr        map[string]int64
	expireCalls []expireCall
}

type expireCall struct {
	key string
	ttl time.Duration
}

func newMockCmdable() *mockCmdable {
	return &mockCmdable{
		data: make(map[string]string),
		incr: make(map[string]int64),
	}
}

func stringify(value any) string {
	if b, ok := value.([]byte); ok {
		return string(b)
	}
	return fmt.Sprint(value)
}

func (m *mockCmdable) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (m *mockCmdable) Set(_ context.Context, key string, value any, _ time.Duration) *redis.StatusCmd {
	m.data[key] = stringify(value)
	return redis.NewStatusResult("OK", nil)
}

func (m *mockCmdable) Get(_ context.Context, key string) *redis.StringCmd {
	v, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *mockCmdable) SetNX(_ context.Context, key string, value any, _ time.Duration) *redis.BoolCmd {
	if _, exists := m.data[key]; exists {
		return redis.NewBoolResult(false, nil)
	}
	m.data[key] = stringify(value)
	return redis.NewBoolResult(true, nil)
}

func (m *mockCmdable) Incr(_ context.Context, key string) *redis.IntCmd {
	m.incr[key]++
	return redis.NewIntResult(m.incr[key], nil)
}

func (m *mockCmdable) Expire(_ context.Context, key string, ttl time.Duration) *redis.BoolCmd {
	m.expireCalls = append(m.expireCalls, expireCall{key: key, ttl: ttl})
	return redis.NewBoolResult(true, nil)
}

func (m *mockCmdable) Del(_ context.Context, keys ...string) *redis.IntCmd {
	for _, key := range keys {
		delete(m.data, key)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}
