package session

import (
	"context"
	"testing"
	"time"
)

func TestMemoryStoreExpiry(t *testing.T) {
	now := time.Now()
	store := NewMemoryStoreWithClock(func() time.Time { return now })
	ctx := context.Background()

	if err := store.SetWithTTL(ctx, "k", []byte("v"), 2*time.Minute); err != nil {
		t.Fatalf("SetWithTTL: %v", err)
	}
	value, ok, err := store.Get(ctx, "k")
	if err != nil || !ok {
		t.Fatalf("Get = (%v, %v)", ok, err)
	}
	if string(value) != "v" {
		t.Fatalf("value = %q", value)
	}

	now = now.Add(2*time.Minute + time.Second)
	if _, ok, _ := store.Get(ctx, "k"); ok {
		t.Fatal("expired key still readable")
	}
}

func TestMemoryStoreExpireSlidesWindow(t *testing.T) {
	now := time.Now()
	store := NewMemoryStoreWithClock(func() time.Time { return now })
	ctx := context.Background()

	_ = store.SetWithTTL(ctx, "k", []byte("v"), 2*time.Minute)

	// Just before expiry, a refresh restarts the full countdown.
	now = now.Add(119 * time.Second)
	if err := store.Expire(ctx, "k", 2*time.Minute); err != nil {
		t.Fatalf("Expire: %v", err)
	}
	now = now.Add(119 * time.Second)
	if _, ok, _ := store.Get(ctx, "k"); !ok {
		t.Fatal("refreshed key should still be alive")
	}
	now = now.Add(2 * time.Minute)
	if _, ok, _ := store.Get(ctx, "k"); ok {
		t.Fatal("key should have expired after the slid window")
	}
}

func TestMemoryStoreExpireDeadKeyIsNoop(t *testing.T) {
	now := time.Now()
	store := NewMemoryStoreWithClock(func() time.Time { return now })
	ctx := context.Background()

	_ = store.SetWithTTL(ctx, "k", []byte("v"), time.Minute)
	now = now.Add(2 * time.Minute)
	if err := store.Expire(ctx, "k", time.Minute); err != nil {
		t.Fatalf("Expire: %v", err)
	}
	if _, ok, _ := store.Get(ctx, "k"); ok {
		t.Fatal("refreshing a dead key must not revive it")
	}
}

func TestMemoryStoreDelete(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	_ = store.SetWithTTL(ctx, "k", []byte("v"), time.Minute)
	deleted, err := store.Delete(ctx, "k")
	if err != nil || !deleted {
		t.Fatalf("Delete = (%v, %v)", deleted, err)
	}
	deleted, err = store.Delete(ctx, "k")
	if err != nil || deleted {
		t.Fatalf("second Delete = (%v, %v), want no-op", deleted, err)
	}
}
