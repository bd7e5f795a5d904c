package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNew(t *testing.T) {
	tmpDir := t.TempDir()

	c, err := New(filepath.Join(tmpDir, "cache"), 24, true)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if c == nil {
		t.Fatal("New() returned nil")
	}
	if !c.enabled {
		t.Error("cache should be enabled")
	}

	c, err = New("", 0, false)
	if err != nil {
		t.Fatalf("New() error for disabled cache: %v", err)
	}
	if c.enabled {
		t.Error("cache should be disabled")
	}
}

func TestNewCreatesDirectory(t *testing.T) {
	tmpDir := t.TempDir()
	cacheDir := filepath.Join(tmpDir, "nested", "cache", "dir")

	if _, err := New(cacheDir, 24, true); err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if _, err := os.Stat(cacheDir); os.IsNotExist(err) {
		t.Error("New() should create cache directory")
	}
}

func TestSetAndGet(t *testing.T) {
	tmpDir := t.TempDir()
	c, err := New(filepath.Join(tmpDir, "cache"), 24, true)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	key := "out/Main.class:0a1b2c"
	data := []byte(`{"class":"com.example.Main","refs":["java.lang.Object"]}`)

	if err := c.Set(key, data); err != nil {
		t.Fatalf("Set() error: %v", err)
	}

	got, ok := c.Get(key)
	if !ok {
		t.Fatal("Get() returned false for existing key")
	}
	if string(got) != string(data) {
		t.Errorf("Get() = %q, want %q", string(got), string(data))
	}
}

func TestGetNonExistent(t *testing.T) {
	tmpDir := t.TempDir()
	c, err := New(filepath.Join(tmpDir, "cache"), 24, true)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	if _, ok := c.Get("nonexistent-key"); ok {
		t.Error("Get() should return false for non-existent key")
	}
}

func TestGetExpired(t *testing.T) {
	tmpDir := t.TempDir()
	c, err := New(filepath.Join(tmpDir, "cache"), 24, true)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	key := "expired-key"
	if err := c.Set(key, []byte("data")); err != nil {
		t.Fatalf("Set() error: %v", err)
	}

	// Shrink TTL below the entry's age.
	c.ttl = -time.Second

	if _, ok := c.Get(key); ok {
		t.Error("Get() should miss for expired entry")
	}
	// Expired entries are removed from disk on read.
	if _, err := os.Stat(c.keyPath(key)); !os.IsNotExist(err) {
		t.Error("expired entry should be deleted")
	}
}

func TestDisabledCache(t *testing.T) {
	c, err := New("", 0, false)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	if err := c.Set("key", []byte("data")); err != nil {
		t.Errorf("Set() on disabled cache should not error: %v", err)
	}
	if _, ok := c.Get("key"); ok {
		t.Error("Get() on disabled cache should always miss")
	}
	if err := c.Invalidate("key"); err != nil {
		t.Errorf("Invalidate() on disabled cache should not error: %v", err)
	}
	if err := c.Clear(); err != nil {
		t.Errorf("Clear() on disabled cache should not error: %v", err)
	}
}

func TestInvalidate(t *testing.T) {
	tmpDir := t.TempDir()
	c, err := New(filepath.Join(tmpDir, "cache"), 24, true)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	key := "key-to-remove"
	if err := c.Set(key, []byte("data")); err != nil {
		t.Fatalf("Set() error: %v", err)
	}
	if err := c.Invalidate(key); err != nil {
		t.Fatalf("Invalidate() error: %v", err)
	}
	if _, ok := c.Get(key); ok {
		t.Error("Get() should miss after Invalidate()")
	}
}

func TestClear(t *testing.T) {
	tmpDir := t.TempDir()
	c, err := New(filepath.Join(tmpDir, "cache"), 24, true)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	for _, key := range []string{"a", "b", "c"} {
		if err := c.Set(key, []byte(key)); err != nil {
			t.Fatalf("Set() error: %v", err)
		}
	}
	if err := c.Clear(); err != nil {
		t.Fatalf("Clear() error: %v", err)
	}
	if _, ok := c.Get("a"); ok {
		t.Error("Get() should miss after Clear()")
	}
}

func TestKeyPathSafety(t *testing.T) {
	tmpDir := t.TempDir()
	cacheDir := filepath.Join(tmpDir, "cache")
	c, err := New(cacheDir, 24, true)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	// Keys with path separators and archive entry markers must map to
	// plain filenames inside the cache directory.
	key := "../libs/dep.jar!com/example/Foo.class"
	if err := c.Set(key, []byte("data")); err != nil {
		t.Fatalf("Set() error: %v", err)
	}
	path := c.keyPath(key)
	if filepath.Dir(path) != cacheDir {
		t.Errorf("keyPath escaped the cache dir: %s", path)
	}
	if _, ok := c.Get(key); !ok {
		t.Error("Get() should find entry stored under hashed key")
	}
}

func TestGetCorruptEntry(t *testing.T) {
	tmpDir := t.TempDir()
	c, err := New(filepath.Join(tmpDir, "cache"), 24, true)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	key := "corrupt"
	if err := os.WriteFile(c.keyPath(key), []byte("not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, ok := c.Get(key); ok {
		t.Error("Get() should miss for corrupt entry")
	}
}

func TestGetStats(t *testing.T) {
	tmpDir := t.TempDir()
	c, err := New(filepath.Join(tmpDir, "cache"), 24, true)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	stats, err := c.GetStats()
	if err != nil {
		t.Fatalf("GetStats() error: %v", err)
	}
	if stats.Entries != 0 {
		t.Errorf("empty cache has %d entries, want 0", stats.Entries)
	}

	for _, key := range []string{"a", "b"} {
		if err := c.Set(key, []byte("payload")); err != nil {
			t.Fatalf("Set() error: %v", err)
		}
	}

	stats, err = c.GetStats()
	if err != nil {
		t.Fatalf("GetStats() error: %v", err)
	}
	if stats.Entries != 2 {
		t.Errorf("GetStats() entries = %d, want 2", stats.Entries)
	}
	if stats.TotalSize == 0 {
		t.Error("GetStats() total size should be nonzero")
	}
}

func TestGetStatsDisabled(t *testing.T) {
	c, err := New("", 0, false)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	stats, err := c.GetStats()
	if err != nil {
		t.Fatalf("GetStats() error: %v", err)
	}
	if stats.Entries != 0 {
		t.Error("disabled cache should report zero entries")
	}
}
