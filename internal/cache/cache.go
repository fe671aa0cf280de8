// Package cache holds the decoded file-identity cache shared by all
// workers. Entries never expire individually; a janitor clears the whole
// store on a fixed interval, which bounds file-reference staleness
// without per-entry bookkeeping.
package cache

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"sync"
	"time"

	"github.com/babupakkakivellu/File-To-Link/internal/types"
	"github.com/coocood/freecache"
	"go.uber.org/zap"
)

const (
	cacheSize     = 100 * 1024 * 1024
	SweepInterval = 30 * time.Minute
)

var cache *Cache

type Cache struct {
	cache  *freecache.Cache
	mu     sync.RWMutex
	log    *zap.Logger
	stopCh chan struct{}
}

// InitCache creates the process-wide cache and starts its janitor.
func InitCache(log *zap.Logger) {
	log = log.Named("Cache")
	defer log.Sugar().Info("Initialized")
	cache = &Cache{
		cache:  freecache.NewCache(cacheSize),
		log:    log,
		stopCh: make(chan struct{}),
	}
	go cache.janitor(SweepInterval)
}

func GetCache() *Cache {
	return cache
}

// Key builds the lookup key for one file identity. The archive ID is
// part of the key so that message IDs from different archives can never
// collide, and the worker ID keeps per-worker entries independent.
func Key(archiveID int64, messageID int, workerID int) string {
	return fmt.Sprintf("props:%d:%d:%d", archiveID, messageID, workerID)
}

func (c *Cache) Get(key string, value *types.FileIdentity) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	data, err := c.cache.Get([]byte(key))
	if err != nil {
		return err
	}
	return gob.NewDecoder(bytes.NewReader(data)).Decode(value)
}

func (c *Cache) Set(key string, value *types.FileIdentity) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(value); err != nil {
		return err
	}
	// expireSeconds 0: entries live until the next sweep.
	return c.cache.Set([]byte(key), buf.Bytes(), 0)
}

// Flush drops every entry. Called by the janitor and by tests.
func (c *Cache) Flush() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache.Clear()
}

// Stop terminates the janitor. Safe to call once during shutdown.
func (c *Cache) Stop() {
	close(c.stopCh)
}

func (c *Cache) janitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.Flush()
			c.log.Debug("Cleared file properties cache")
		case <-c.stopCh:
			return
		}
	}
}
