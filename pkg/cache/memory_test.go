package cache

import (
	"context"
	"testing"
	"time"
)

func TestMemoryCacheSetGet(t *testing.T) {
	mc := NewMemoryCache(time.Minute)
	defer mc.Close()
	ctx := context.Background()

	if err := mc.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	b, ok, err := mc.Get(ctx, "k")
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if string(b) != "v" {
		t.Fatalf("got %q", b)
	}
}

func TestMemoryCacheExpiry(t *testing.T) {
	mc := NewMemoryCache(time.Minute)
	defer mc.Close()
	ctx := context.Background()

	mc.Set(ctx, "k", []byte("v"), time.Nanosecond)
	time.Sleep(5 * time.Millisecond)
	if _, ok, _ := mc.Get(ctx, "k"); ok {
		t.Fatalf("expired entry must miss")
	}
}

func TestMemoryCacheDelete(t *testing.T) {
	mc := NewMemoryCache(time.Minute)
	defer mc.Close()
	ctx := context.Background()

	mc.Set(ctx, "a", []byte("1"), 0)
	mc.Set(ctx, "b", []byte("2"), 0)
	if err := mc.Delete(ctx, "a", "b"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := mc.Get(ctx, "a"); ok {
		t.Fatalf("deleted entry must miss")
	}
}
