package cache

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"
)

func newTestLogger() *zap.Logger {
	logger, _ := zap.NewDevelopment()
	return logger
}

func TestLocalCache_SetGet(t *testing.T) {
	ctx := context.Background()
	c := NewLocalCache(time.Minute, newTestLogger())
	defer c.Close()

	if err := c.Set(ctx, "k", "v", 0); err != nil {
		t.Fatalf("set: %v", err)
	}
	v, err := c.Get(ctx, "k")
	if err != nil || v != "v" {
		t.Errorf("expected 'v', got %q (err=%v)", v, err)
	}

	if _, err := c.Get(ctx, "missing"); err == nil {
		t.Error("expected error for missing key")
	}
}

func TestLocalCache_Expiry(t *testing.T) {
	ctx := context.Background()
	c := NewLocalCache(time.Minute, newTestLogger())
	defer c.Close()

	if err := c.Set(ctx, "k", "v", 20*time.Millisecond); err != nil {
		t.Fatalf("set: %v", err)
	}
	if _, err := c.Get(ctx, "k"); err != nil {
		t.Fatalf("expected live key, got %v", err)
	}

	time.Sleep(40 * time.Millisecond)
	if _, err := c.Get(ctx, "k"); err == nil {
		t.Error("expected expired key to miss")
	}
}

func TestLocalCache_Delete(t *testing.T) {
	ctx := context.Background()
	c := NewLocalCache(time.Minute, newTestLogger())
	defer c.Close()

	c.Set(ctx, "k", "v", 0)
	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := c.Get(ctx, "k"); err == nil {
		t.Error("expected deleted key to miss")
	}
}

func TestLocalCache_Ping(t *testing.T) {
	c := NewLocalCache(time.Minute, newTestLogger())
	defer c.Close()

	if err := c.Ping(); err != nil {
		t.Errorf("expected ping to succeed, got %v", err)
	}
}
