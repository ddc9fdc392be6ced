package detector

import (
	"crypto/sha1"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"sync"

	"github.com/dgraph-io/badger/v4"
)

// ScoreCache stores model scores keyed by model and input.
type ScoreCache interface {
	Get(key string) (float64, bool)
	Put(key string, score float64)
}

// ScoreCacheKey derives the cache key for a classifier input.
func ScoreCacheKey(modelID, text string) string {
	h := sha1.New()
	_, _ = io.WriteString(h, modelID)
	_, _ = io.WriteString(h, "|")
	_, _ = io.WriteString(h, text)
	return hex.EncodeToString(h.Sum(nil))
}

// BadgerScoreCache keeps scores in memory and persists them to BadgerDB.
type BadgerScoreCache struct {
	db     *badger.DB
	logger *slog.Logger

	mu  sync.RWMutex
	mem map[string]float64
}

// OpenScoreCache opens (or creates) the on-disk cache in dir.
func OpenScoreCache(dir string, logger *slog.Logger) (*BadgerScoreCache, error) {
	db, err := badger.Open(badger.DefaultOptions(dir).WithLoggingLevel(badger.WARNING))
	if err != nil {
		return nil, fmt.Errorf("open score cache: %w", err)
	}
	return NewBadgerScoreCache(db, logger), nil
}

// NewBadgerScoreCache wraps an already opened database.
func NewBadgerScoreCache(db *badger.DB, logger *slog.Logger) *BadgerScoreCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &BadgerScoreCache{db: db, logger: logger, mem: make(map[string]float64)}
}

// Get returns the cached score for key.
func (c *BadgerScoreCache) Get(key string) (float64, bool) {
	c.mu.RLock()
	v, ok := c.mem[key]
	c.mu.RUnlock()
	if ok {
		return v, true
	}
	var raw []byte
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(cacheDBKey(key))
		if err != nil {
			return err
		}
		raw, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		if !errors.Is(err, badger.ErrKeyNotFound) {
			c.logger.Warn("Score cache read failed", "error", err)
		}
		return 0, false
	}
	if len(raw) != 8 {
		c.logger.Warn("Score cache entry broken", "key", key, "size", len(raw))
		return 0, false
	}
	v = math.Float64frombits(binary.LittleEndian.Uint64(raw))
	c.storeInMemory(key, v)
	return v, true
}

// Put stores score under key. Write failures are logged, not returned.
func (c *BadgerScoreCache) Put(key string, score float64) {
	c.storeInMemory(key, score)
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, math.Float64bits(score))
	err := c.db.Update(func(txn *badger.Txn) error {
		return txn.Set(cacheDBKey(key), buf)
	})
	if err != nil {
		c.logger.Warn("Score cache write failed", "error", err)
	}
}

// Close closes the underlying database.
func (c *BadgerScoreCache) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

func (c *BadgerScoreCache) storeInMemory(key string, v float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mem[key] = v
}

func cacheDBKey(key string) []byte {
	return []byte("score:" + key)
}
