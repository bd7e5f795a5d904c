// Package cache persists per-file decode results between runs so
// unchanged class files are not decoded twice.
package cache

import (
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/zeebo/blake3"
)

// Cache is a file-backed store for decode results. Keys already embed a
// content hash of the decoded bytes, so entries never go stale in place;
// the TTL only bounds how long orphaned entries linger on disk.
type Cache struct {
	dir     string
	ttl     time.Duration
	enabled bool
}

// entry wraps stored data with the write time used for TTL checks.
type entry struct {
	Timestamp time.Time `json:"timestamp"`
	Data      []byte    `json:"data"`
}

// New creates a cache rooted at dir. A disabled cache accepts all
// operations and stores nothing.
func New(dir string, ttlHours int, enabled bool) (*Cache, error) {
	if !enabled {
		return &Cache{enabled: false}, nil
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	return &Cache{
		dir:     dir,
		ttl:     time.Duration(ttlHours) * time.Hour,
		enabled: true,
	}, nil
}

// Get retrieves a cached entry if it exists and is not expired.
func (c *Cache) Get(key string) ([]byte, bool) {
	if !c.enabled {
		return nil, false
	}

	path := c.keyPath(key)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}

	var e entry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, false
	}

	if time.Since(e.Timestamp) > c.ttl {
		os.Remove(path)
		return nil, false
	}

	return e.Data, true
}

// Set stores data under key.
func (c *Cache) Set(key string, data []byte) error {
	if !c.enabled {
		return nil
	}

	encoded, err := json.Marshal(entry{
		Timestamp: time.Now(),
		Data:      data,
	})
	if err != nil {
		return err
	}

	return os.WriteFile(c.keyPath(key), encoded, 0o600)
}

// Invalidate removes a single entry.
func (c *Cache) Invalidate(key string) error {
	if !c.enabled {
		return nil
	}
	return os.Remove(c.keyPath(key))
}

// Clear removes all entries.
func (c *Cache) Clear() error {
	if !c.enabled {
		return nil
	}
	return os.RemoveAll(c.dir)
}

// keyPath hashes the key so arbitrary entry names (archive paths with
// "!" separators included) map to safe filenames.
func (c *Cache) keyPath(key string) string {
	hash := blake3.Sum256([]byte(key))
	return filepath.Join(c.dir, hex.EncodeToString(hash[:])+".json")
}

// Stats summarizes what is on disk.
type Stats struct {
	Entries   int           `json:"entries"`
	TotalSize int64         `json:"total_size"`
	OldestAge time.Duration `json:"oldest_age"`
	NewestAge time.Duration `json:"newest_age"`
}

// GetStats walks the cache directory and reports entry counts and ages.
func (c *Cache) GetStats() (*Stats, error) {
	if !c.enabled {
		return &Stats{}, nil
	}

	stats := &Stats{}
	var oldest, newest time.Time

	err := filepath.Walk(c.dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || filepath.Ext(path) != ".json" {
			return nil
		}

		stats.Entries++
		stats.TotalSize += info.Size()

		modTime := info.ModTime()
		if oldest.IsZero() || modTime.Before(oldest) {
			oldest = modTime
		}
		if newest.IsZero() || modTime.After(newest) {
			newest = modTime
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !oldest.IsZero() {
		stats.OldestAge = time.Since(oldest)
	}
	if !newest.IsZero() {
		stats.NewestAge = time.Since(newest)
	}
	return stats, nil
}
