package cache

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestKeyIsStableAndFilenameSafe(t *testing.T) {
	url := "https://s3.amazonaws.com/irs-form-990/201541349349307794_public.xml"
	k1 := Key(url)
	k2 := Key(url)
	if k1 != k2 {
		t.Error("key not stable for the same URL")
	}
	if k1 == Key("https://s3.amazonaws.com/irs-form-990/other.xml") {
		t.Error("distinct URLs collided")
	}
	if strings.ContainsAny(k1, "/\\?&") {
		t.Errorf("key contains unsafe characters: %s", k1)
	}
}

func TestDiskCacheRoundTrip(t *testing.T) {
	c := NewDiskCache(t.TempDir(), time.Hour)

	key := Key("https://example.org/a")
	body := []byte("<Return/>")

	if _, ok := c.Get(key); ok {
		t.Fatal("hit before set")
	}
	if err := c.Set(key, body, 0); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, ok := c.Get(key)
	if !ok {
		t.Fatal("miss after set")
	}
	if !bytes.Equal(got, body) {
		t.Errorf("got %q, want %q", got, body)
	}

	if err := c.Delete(key); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok := c.Get(key); ok {
		t.Error("hit after delete")
	}
}

func TestDiskCacheExpiry(t *testing.T) {
	c := NewDiskCache(t.TempDir(), time.Nanosecond)

	key := Key("https://example.org/expiring")
	if err := c.Set(key, []byte("x"), 0); err != nil {
		t.Fatalf("set: %v", err)
	}
	time.Sleep(10 * time.Millisecond)
	if _, ok := c.Get(key); ok {
		t.Error("expired entry served")
	}
}

func TestMemoryCacheSizeCap(t *testing.T) {
	c := NewMemoryCache(time.Hour, time.Hour)

	small := []byte("small")
	if err := c.Set("small", small, 0); err != nil {
		t.Fatalf("set small: %v", err)
	}
	if _, ok := c.Get("small"); !ok {
		t.Error("small entry not cached")
	}

	big := make([]byte, maxMemoryEntryBytes+1)
	if err := c.Set("big", big, 0); err != nil {
		t.Fatalf("set big: %v", err)
	}
	if _, ok := c.Get("big"); ok {
		t.Error("oversized entry pinned in memory")
	}
}

func TestLayeredCachePromotion(t *testing.T) {
	dir := t.TempDir()
	c := NewLayeredCache(time.Hour, dir, time.Hour)

	key := Key("https://example.org/layered")
	body := []byte("payload")
	if err := c.Set(key, body, 0); err != nil {
		t.Fatalf("set: %v", err)
	}

	// A fresh layered cache over the same directory misses in memory and
	// falls through to disk.
	c2 := NewLayeredCache(time.Hour, dir, time.Hour)
	got, ok := c2.Get(key)
	if !ok {
		t.Fatal("disk layer miss")
	}
	if !bytes.Equal(got, body) {
		t.Errorf("got %q, want %q", got, body)
	}

	// Promotion: now served even after the disk copy disappears.
	if err := NewDiskCache(dir, time.Hour).Delete(key); err != nil {
		t.Fatalf("delete disk copy: %v", err)
	}
	if _, ok := c2.Get(key); !ok {
		t.Error("promoted entry not served from memory")
	}
}
