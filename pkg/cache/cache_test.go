package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestGetLoadsOnMissAndCaches(t *testing.T) {
	c := New(Options{TTL: time.Minute}, Hooks{})
	loads := 0
	loader := func(ctx context.Context, key string) (interface{}, bool, error) {
		loads++
		return "value", true, nil
	}

	for i := 0; i < 3; i++ {
		val, ok, err := c.Get(context.Background(), "k", loader)
		if err != nil || !ok {
			t.Fatalf("get: ok=%v err=%v", ok, err)
		}
		if val != "value" {
			t.Fatalf("unexpected value: %v", val)
		}
	}
	if loads != 1 {
		t.Fatalf("expected a single load, got %d", loads)
	}
}

func TestGetExpiredReloads(t *testing.T) {
	c := New(Options{TTL: time.Millisecond}, Hooks{})
	loads := 0
	loader := func(ctx context.Context, key string) (interface{}, bool, error) {
		loads++
		return loads, true, nil
	}

	if _, _, err := c.Get(context.Background(), "k", loader); err != nil {
		t.Fatalf("get: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	val, _, err := c.Get(context.Background(), "k", loader)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if val != 2 {
		t.Fatalf("expected reload, got %v", val)
	}
}

func TestGetFailedLoadNotCached(t *testing.T) {
	c := New(Options{TTL: time.Minute}, Hooks{})
	loadErr := errors.New("unreachable")
	loader := func(ctx context.Context, key string) (interface{}, bool, error) {
		return nil, false, loadErr
	}

	_, ok, err := c.Get(context.Background(), "k", loader)
	if ok || !errors.Is(err, loadErr) {
		t.Fatalf("expected load error, got ok=%v err=%v", ok, err)
	}
	if _, ok := c.Peek("k"); ok {
		t.Fatal("failed load must not be cached")
	}
}

func TestSetAndPeek(t *testing.T) {
	c := New(Options{TTL: time.Minute}, Hooks{})
	c.Set("k", 7)
	val, ok := c.Peek("k")
	if !ok || val != 7 {
		t.Fatalf("peek: ok=%v val=%v", ok, val)
	}
	c.Delete("k")
	if _, ok := c.Peek("k"); ok {
		t.Fatal("expected delete to remove entry")
	}
}
