package redis

import (
	"context"
	"testing"
	"time"
)

func TestIdempotencyStore_CheckAndSetExisting(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer mr.Close()
	defer client.Close()

	store := NewIdempotencyStore(client)
	ctx := context.Background()

	cached := `{"id":"pg-1","source_id":"inv-42"}`
	if err := client.Set(ctx, store.prefix+"post-inv-42", cached, time.Minute).Err(); err != nil {
		t.Fatalf("setup failed: %v", err)
	}

	exists, resp, err := store.CheckAndSet(ctx, "post-inv-42", nil, time.Minute)
	if err != nil {
		t.Fatalf("CheckAndSet failed: %v", err)
	}

	if !exists {
		t.Fatal("expected hit for a stored key")
	}
	if string(resp) != cached {
		t.Fatalf("expected stored payload back, got %s", resp)
	}
}

func TestIdempotencyStore_CheckAndSetLocksNewKey(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer mr.Close()
	defer client.Close()

	store := NewIdempotencyStore(client)
	ctx := context.Background()

	exists, resp, err := store.CheckAndSet(ctx, "post-inv-7", nil, time.Minute)
	if err != nil || exists || resp != nil {
		t.Fatalf("unexpected result: exists=%v resp=%v err=%v", exists, resp, err)
	}

	val, err := client.Get(ctx, store.prefix+"post-inv-7").Result()
	if err != nil || val != "processing" {
		t.Fatalf("expected placeholder lock, got val=%s err=%v", val, err)
	}

	// A second caller with the same key sees the in-flight marker as a hit.
	exists, resp, err = store.CheckAndSet(ctx, "post-inv-7", nil, time.Minute)
	if err != nil {
		t.Fatalf("second CheckAndSet failed: %v", err)
	}
	if !exists || string(resp) != "processing" {
		t.Fatalf("expected in-flight marker, got exists=%v resp=%s", exists, resp)
	}
}

func TestIdempotencyStore_UpdateReplacesPlaceholder(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer mr.Close()
	defer client.Close()

	store := NewIdempotencyStore(client)
	ctx := context.Background()

	if _, _, err := store.CheckAndSet(ctx, "close-c1", nil, time.Minute); err != nil {
		t.Fatalf("CheckAndSet failed: %v", err)
	}
	if err := store.Update(ctx, "close-c1", []byte(`{"run_id":"run-1"}`), time.Minute); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	val, err := client.Get(ctx, store.prefix+"close-c1").Result()
	if err != nil || val != `{"run_id":"run-1"}` {
		t.Fatalf("expected stored response, got val=%s err=%v", val, err)
	}
}

func TestIdempotencyStore_EntriesExpire(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer mr.Close()
	defer client.Close()

	store := NewIdempotencyStore(client)
	ctx := context.Background()

	if err := store.Update(ctx, "post-old", []byte("{}"), time.Second); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	mr.FastForward(2 * time.Second)

	exists, _, err := store.CheckAndSet(ctx, "post-old", nil, time.Minute)
	if err != nil {
		t.Fatalf("CheckAndSet failed: %v", err)
	}
	if exists {
		t.Fatal("expected expired key to read as new")
	}
}
