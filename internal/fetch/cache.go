package fetch

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/zeebo/blake3"
)

// entryMeta is the JSON sidecar stored next to each cached payload.
type entryMeta struct {
	URL         string    `json:"url"`
	ContentType string    `json:"content_type,omitempty"`
	Size        int64     `json:"size"`
	FetchedAt   time.Time `json:"fetched_at"`
}

// diskCache stores fetched payloads as flat files keyed by a hash of the
// source URL, with a metadata sidecar per entry. Writes are atomic
// (unique temp file + rename) and guarded by a file lock so concurrent
// processes cannot interleave a store with a purge of the same entry.
type diskCache struct {
	dir    string
	maxAge time.Duration // zero means entries never expire
	logger *slog.Logger
}

func newDiskCache(dir string, maxAge time.Duration, logger *slog.Logger) (*diskCache, error) {
	if dir == "" {
		return nil, errors.New("cache directory is empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &diskCache{dir: dir, maxAge: maxAge, logger: logger}, nil
}

// key derives the cache key for a URL.
func (c *diskCache) key(url string) string {
	sum := blake3.Sum256([]byte(url))
	return hex.EncodeToString(sum[:16])
}

func (c *diskCache) dataPath(key string) string { return filepath.Join(c.dir, key+".data") }
func (c *diskCache) metaPath(key string) string { return filepath.Join(c.dir, key+".json") }
func (c *diskCache) lockPath(key string) string { return filepath.Join(c.dir, key+".lock") }

// Lookup returns the payload path for url when a valid entry exists.
func (c *diskCache) Lookup(url string) (string, bool) {
	key := c.key(url)
	dataPath := c.dataPath(key)

	info, err := os.Stat(dataPath)
	if err != nil {
		return "", false
	}

	raw, err := os.ReadFile(c.metaPath(key))
	if err != nil {
		// Payload without metadata is treated as a miss; drop the orphan.
		_ = os.Remove(dataPath)
		return "", false
	}
	var meta entryMeta
	if err := json.Unmarshal(raw, &meta); err != nil {
		c.logger.Warn("dropping cache entry with unreadable metadata",
			slog.String("url", url), slog.String("key", key))
		_ = os.Remove(dataPath)
		_ = os.Remove(c.metaPath(key))
		return "", false
	}

	if c.maxAge > 0 && time.Since(meta.FetchedAt) > c.maxAge {
		c.logger.Debug("cache entry expired",
			slog.String("url", url), slog.Time("fetched_at", meta.FetchedAt))
		_ = c.Remove(url)
		return "", false
	}
	if meta.Size != info.Size() {
		c.logger.Warn("cache entry size mismatch, refetching",
			slog.String("url", url),
			slog.Int64("expected", meta.Size), slog.Int64("actual", info.Size()))
		_ = c.Remove(url)
		return "", false
	}
	return dataPath, true
}

// Store writes the payload and its metadata sidecar, returning the final
// payload path.
func (c *diskCache) Store(url, contentType string, payload []byte) (string, error) {
	key := c.key(url)

	lock := flock.New(c.lockPath(key))
	if err := lock.Lock(); err != nil {
		return "", fmt.Errorf("lock cache entry: %w", err)
	}
	defer func() { _ = lock.Unlock() }()

	tmp := filepath.Join(c.dir, key+"."+uuid.NewString()+".tmp")
	if err := os.WriteFile(tmp, payload, 0o644); err != nil {
		return "", fmt.Errorf("write cache payload: %w", err)
	}
	if err := os.Rename(tmp, c.dataPath(key)); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("commit cache payload: %w", err)
	}

	meta := entryMeta{
		URL:         url,
		ContentType: contentType,
		Size:        int64(len(payload)),
		FetchedAt:   time.Now().UTC(),
	}
	raw, err := json.Marshal(meta)
	if err != nil {
		return "", fmt.Errorf("encode cache metadata: %w", err)
	}
	if err := os.WriteFile(c.metaPath(key), raw, 0o644); err != nil {
		return "", fmt.Errorf("write cache metadata: %w", err)
	}
	return c.dataPath(key), nil
}

// Remove deletes the entry for url. Removing an absent entry is not an
// error.
func (c *diskCache) Remove(url string) error {
	key := c.key(url)

	lock := flock.New(c.lockPath(key))
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("lock cache entry: %w", err)
	}
	defer func() { _ = lock.Unlock() }()

	for _, path := range []string{c.dataPath(key), c.metaPath(key)} {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("remove cache entry: %w", err)
		}
	}
	return nil
}

// Clear removes every entry in the cache directory.
func (c *diskCache) Clear() error {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return fmt.Errorf("read cache dir: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch filepath.Ext(entry.Name()) {
		case ".data", ".json", ".lock", ".tmp":
			if err := os.Remove(filepath.Join(c.dir, entry.Name())); err != nil {
				return fmt.Errorf("remove %s: %w", entry.Name(), err)
			}
		}
	}
	return nil
}
