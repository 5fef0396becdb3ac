package cache

import (
	"context"
	"testing"
	"time"
)

func TestCache_SetGetDelete(t *testing.T) {
	ctx := context.Background()
	c := New(time.Minute)

	if _, ok, _ := c.Get(ctx, "users:1"); ok {
		t.Fatalf("expected miss on empty cache")
	}

	val := []byte(`{"id":1}`)
	_ = c.Set(ctx, "users:1", val)
	val[0] = 'X'

	got, ok, err := c.Get(ctx, "users:1")
	if err != nil || !ok {
		t.Fatalf("expected hit, ok=%v err=%v", ok, err)
	}
	if string(got) != `{"id":1}` {
		t.Fatalf("stored value must not alias the caller's slice, got %s", got)
	}

	_ = c.Delete(ctx, "users:1")
	if _, ok, _ := c.Get(ctx, "users:1"); ok {
		t.Fatalf("expected miss after delete")
	}
}

func TestCache_Expiry(t *testing.T) {
	ctx := context.Background()
	c := New(time.Second)

	now := time.Now()
	c.now = func() time.Time { return now }
	_ = c.Set(ctx, "k", []byte("v"))

	c.now = func() time.Time { return now.Add(2 * time.Second) }
	if _, ok, _ := c.Get(ctx, "k"); ok {
		t.Fatalf("expected entry to expire")
	}
}

func TestCache_Clear(t *testing.T) {
	ctx := context.Background()
	c := New(time.Minute)

	_ = c.Set(ctx, "a", []byte("1"))
	_ = c.Set(ctx, "b", []byte("2"))
	c.Clear()

	if _, ok, _ := c.Get(ctx, "a"); ok {
		t.Fatalf("expected miss after clear")
	}
}

func TestCache_MaxEntriesDropsSoonestExpiry(t *testing.T) {
	ctx := context.Background()
	c := New(time.Minute, WithMaxEntries(2))

	now := time.Now()
	c.now = func() time.Time { return now }
	_ = c.Set(ctx, "old", []byte("1"))

	c.now = func() time.Time { return now.Add(time.Second) }
	_ = c.Set(ctx, "mid", []byte("2"))
	_ = c.Set(ctx, "new", []byte("3"))

	if c.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", c.Len())
	}
	if _, ok, _ := c.Get(ctx, "old"); ok {
		t.Fatalf("expected the oldest entry to be dropped")
	}
	if _, ok, _ := c.Get(ctx, "new"); !ok {
		t.Fatalf("expected the newest entry to be kept")
	}
}

func TestCache_MaxEntriesSweepsExpiredFirst(t *testing.T) {
	ctx := context.Background()
	c := New(time.Second, WithMaxEntries(2))

	now := time.Now()
	c.now = func() time.Time { return now }
	_ = c.Set(ctx, "a", []byte("1"))
	_ = c.Set(ctx, "b", []byte("2"))

	c.now = func() time.Time { return now.Add(2 * time.Second) }
	_ = c.Set(ctx, "c", []byte("3"))

	if c.Len() != 1 {
		t.Fatalf("expected expired entries to be swept, got %d entries", c.Len())
	}
}

func TestJSONHelpers(t *testing.T) {
	ctx := context.Background()
	c := New(time.Minute)

	type profile struct {
		ID   int64  `json:"id"`
		Nick string `json:"nick"`
	}

	if err := SetJSON(ctx, c, "users:profile:1", profile{ID: 1, Nick: "anad123"}); err != nil {
		t.Fatalf("set: %v", err)
	}

	got, ok, err := GetJSON[profile](ctx, c, "users:profile:1")
	if err != nil || !ok || got.Nick != "anad123" {
		t.Fatalf("unexpected get: %+v ok=%v err=%v", got, ok, err)
	}

	_ = c.Set(ctx, "users:profile:2", []byte("not json"))
	if _, ok, _ := GetJSON[profile](ctx, c, "users:profile:2"); ok {
		t.Fatalf("undecodable value must be a miss")
	}
	if _, ok, _ := c.Get(ctx, "users:profile:2"); ok {
		t.Fatalf("undecodable value must be removed")
	}
}
