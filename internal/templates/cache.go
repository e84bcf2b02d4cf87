package templates

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/amestead/wikiextract/pkg/config"
	"github.com/amestead/wikiextract/pkg/logger"
	"github.com/amestead/wikiextract/pkg/redis"
)

// cacheBatchSize bounds the number of definitions per Redis round trip.
const cacheBatchSize = 500

// Cache snapshots a populated Store into Redis so a later run against the
// same site can skip the preprocessing pass entirely.
type Cache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	logger *slog.Logger
}

// NewCache creates a Cache using the configured key prefix and TTL.
func NewCache(client *redis.Client, cfg config.RedisConfig) *Cache {
	return &Cache{
		client: client,
		prefix: cfg.KeyPrefix,
		ttl:    cfg.CacheTTL,
		logger: logger.WithComponent("template-cache"),
	}
}

// Save writes every definition in the store under prefix+title, batched
// into pipelined SETs.
func (c *Cache) Save(ctx context.Context, store *Store) error {
	batch := make(map[string]string, cacheBatchSize)
	var saved int
	var err error
	store.Range(func(title string, body []string) bool {
		batch[c.prefix+title] = strings.Join(body, "\n")
		if len(batch) >= cacheBatchSize {
			if err = c.client.SetBatch(ctx, batch, c.ttl); err != nil {
				return false
			}
			saved += len(batch)
			batch = make(map[string]string, cacheBatchSize)
		}
		return true
	})
	if err != nil {
		return fmt.Errorf("saving template batch: %w", err)
	}
	if len(batch) > 0 {
		if err := c.client.SetBatch(ctx, batch, c.ttl); err != nil {
			return fmt.Errorf("saving template batch: %w", err)
		}
		saved += len(batch)
	}
	c.logger.Info("template store cached", "templates", saved)
	return nil
}

// Load restores cached definitions into the store, returning how many were
// found. Zero with a nil error means a cold cache and the caller should run
// the collection pass.
func (c *Cache) Load(ctx context.Context, store *Store) (int, error) {
	keys, err := c.client.ScanKeys(ctx, c.prefix+"*")
	if err != nil {
		return 0, fmt.Errorf("scanning template cache: %w", err)
	}
	if len(keys) == 0 {
		return 0, nil
	}
	var loaded int
	for start := 0; start < len(keys); start += cacheBatchSize {
		end := start + cacheBatchSize
		if end > len(keys) {
			end = len(keys)
		}
		vals, err := c.client.GetBatch(ctx, keys[start:end])
		if err != nil {
			return loaded, fmt.Errorf("fetching template batch: %w", err)
		}
		for i, v := range vals {
			title := strings.TrimPrefix(keys[start+i], c.prefix)
			if err := store.Define(title, strings.Split(v, "\n")); err != nil {
				return loaded, fmt.Errorf("restoring template %q: %w", title, err)
			}
			loaded++
		}
	}
	c.logger.Info("template store restored from cache", "templates", loaded)
	return loaded, nil
}
