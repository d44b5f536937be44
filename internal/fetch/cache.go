package fetch

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mcncl/editrack/internal/config"
	"github.com/mcncl/editrack/internal/models"
	"github.com/mcncl/editrack/internal/parser"
	"go.uber.org/zap"
)

// Cache stores tracking responses by document ID.
type Cache interface {
	Get(documentID string) (models.Value, bool)
	Put(documentID string, value models.Value)
}

// NewCache returns the cache described by cfg: a FileCache when a directory
// is configured, a MemoryCache otherwise.
func NewCache(cfg *config.Config, logger *zap.Logger) Cache {
	if cfg.Cache.Dir != "" {
		return NewFileCache(cfg.Cache.Dir, cfg.Cache.TTL, cfg.Normalize.MaxDepth, logger)
	}
	return NewMemoryCache(cfg.Cache.TTL)
}

type memoryEntry struct {
	value   models.Value
	expires time.Time
}

// MemoryCache keeps responses in process memory for a fixed time-to-live.
// A TTL of zero or less disables it.
type MemoryCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]memoryEntry
}

// NewMemoryCache creates a MemoryCache using the wall clock.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return NewMemoryCacheWithClock(ttl, time.Now)
}

// NewMemoryCacheWithClock creates a MemoryCache that reads time from now.
func NewMemoryCacheWithClock(ttl time.Duration, now func() time.Time) *MemoryCache {
	return &MemoryCache{
		ttl:     ttl,
		now:     now,
		entries: make(map[string]memoryEntry),
	}
}

// Get returns the cached value for documentID if it has not expired.
func (c *MemoryCache) Get(documentID string) (models.Value, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[documentID]
	if !ok {
		return nil, false
	}
	if !c.now().Before(entry.expires) {
		delete(c.entries, documentID)
		return nil, false
	}
	return entry.value, true
}

// Put stores value for documentID.
func (c *MemoryCache) Put(documentID string, value models.Value) {
	if c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[documentID] = memoryEntry{value: value, expires: c.now().Add(c.ttl)}
}

// Len returns the number of entries, expired ones included.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// cacheNamespace derives stable file names from document IDs.
var cacheNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/mcncl/editrack/cache"))

// FileCache keeps one JSON file per document under a directory so that
// separate invocations share responses. Freshness is judged by file mtime.
type FileCache struct {
	dir      string
	ttl      time.Duration
	maxDepth int
	now      func() time.Time
	logger   *zap.Logger
}

// NewFileCache creates a FileCache rooted at dir. Stored responses are read
// back with the same nesting bound the client decodes them with.
func NewFileCache(dir string, ttl time.Duration, maxDepth int, logger *zap.Logger) *FileCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileCache{dir: dir, ttl: ttl, maxDepth: maxDepth, now: time.Now, logger: logger}
}

// Path returns the file a document's response is stored in.
func (c *FileCache) Path(documentID string) string {
	name := uuid.NewSHA1(cacheNamespace, []byte(documentID)).String() + ".json"
	return filepath.Join(c.dir, name)
}

// Get reads a fresh cached response. Stale or unreadable files are misses.
func (c *FileCache) Get(documentID string) (models.Value, bool) {
	path := c.Path(documentID)
	info, err := os.Stat(path)
	if err != nil {
		return nil, false
	}
	if c.ttl <= 0 || !c.now().Before(info.ModTime().Add(c.ttl)) {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			c.logger.Debug("failed to remove stale cache file", zap.String("path", path), zap.Error(err))
		}
		return nil, false
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}
	value, err := parser.DecodeBytes(data, parser.Options{MaxDepth: c.maxDepth})
	if err != nil {
		c.logger.Debug("ignoring corrupt cache file", zap.String("path", path), zap.Error(err))
		return nil, false
	}
	return value, true
}

// Put writes value atomically. Failures are logged and otherwise ignored.
func (c *FileCache) Put(documentID string, value models.Value) {
	if c.ttl <= 0 {
		return
	}
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		c.logger.Warn("failed to create cache directory", zap.String("dir", c.dir), zap.Error(err))
		return
	}

	tmp, err := os.CreateTemp(c.dir, ".editrack-*.tmp")
	if err != nil {
		c.logger.Warn("failed to create cache file", zap.Error(err))
		return
	}
	_, writeErr := tmp.WriteString(models.Compact(value))
	closeErr := tmp.Close()
	if writeErr != nil || closeErr != nil {
		_ = os.Remove(tmp.Name())
		c.logger.Warn("failed to write cache file", zap.Error(writeErr), zap.NamedError("close_error", closeErr))
		return
	}
	if err := os.Rename(tmp.Name(), c.Path(documentID)); err != nil {
		_ = os.Remove(tmp.Name())
		c.logger.Warn("failed to store cache file", zap.Error(err))
	}
}
