package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newCache(t *testing.T, ttl time.Duration) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return New(rdb, ttl), mr
}

func TestGetMiss(t *testing.T) {
	c, _ := newCache(t, time.Minute)

	var dst map[string]float64
	ok, err := c.Get(context.Background(), "single_m1_STS_home", &dst)
	if err != nil || ok {
		t.Fatalf("want miss, got ok=%v err=%v", ok, err)
	}
}

func TestSetThenGet(t *testing.T) {
	c, _ := newCache(t, time.Minute)
	ctx := context.Background()

	if err := c.Set(ctx, "single_m1_STS_home", map[string]float64{"bet": 2.1}); err != nil {
		t.Fatalf("Set: %v", err)
	}

	var dst map[string]float64
	ok, err := c.Get(ctx, "single_m1_STS_home", &dst)
	if err != nil || !ok {
		t.Fatalf("want hit, got ok=%v err=%v", ok, err)
	}
	if dst["bet"] != 2.1 {
		t.Fatalf("unexpected value: %v", dst)
	}
}

func TestEntriesExpireAfterTTL(t *testing.T) {
	c, mr := newCache(t, 60*time.Second)
	ctx := context.Background()

	if err := c.Set(ctx, "matches_all_all", []string{"x"}); err != nil {
		t.Fatal(err)
	}
	if ttl := mr.TTL("matches_all_all"); ttl != 60*time.Second {
		t.Fatalf("want ttl 60s, got %v", ttl)
	}

	mr.FastForward(61 * time.Second)

	var dst []string
	ok, err := c.Get(ctx, "matches_all_all", &dst)
	if err != nil || ok {
		t.Fatalf("want expired entry, got ok=%v err=%v", ok, err)
	}
}

func TestGetCorruptedValue(t *testing.T) {
	c, mr := newCache(t, time.Minute)
	_ = mr.Set("matches_all_all", "{not json")

	var dst []string
	if _, err := c.Get(context.Background(), "matches_all_all", &dst); err == nil {
		t.Fatal("expected decode error")
	}
}
