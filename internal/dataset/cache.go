// Package dataset holds the current ADO dataset for the API.
//
// The dataset is reloaded from its Source once per cache window and replaced
// wholesale. Readers always get a complete, immutable dataset.
package dataset

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/bluele/gcache"
	"golang.org/x/sync/singleflight"

	"github.com/Lameir47/MapaAD/models"
)

const datasetKey = "dataset"

// maxRetryAfter bounds how long a failed reload serves the last good dataset
const maxRetryAfter = 30 * time.Second

// Source loads a complete dataset
type Source interface {
	LatestDataset(ctx context.Context) (*models.Dataset, error)
}

// SourceFunc adapts a function to Source
type SourceFunc func(ctx context.Context) (*models.Dataset, error)

func (f SourceFunc) LatestDataset(ctx context.Context) (*models.Dataset, error) {
	return f(ctx)
}

// ReloadFunc is called after every reload attempt
type ReloadFunc func(d *models.Dataset, took time.Duration, err error)

// Cache serves the current dataset and reloads it after the cache window
type Cache struct {
	source   Source
	ttl      time.Duration
	entries  gcache.Cache
	group    singleflight.Group
	lastGood atomic.Pointer[models.Dataset]

	// OnReload is optional and must be set before the cache is used
	OnReload ReloadFunc
}

// NewCache creates a cache reloading from source every ttl
func NewCache(source Source, ttl time.Duration) *Cache {
	return newCache(source, ttl, gcache.NewRealClock())
}

func newCache(source Source, ttl time.Duration, clock gcache.Clock) *Cache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &Cache{
		source:  source,
		ttl:     ttl,
		entries: gcache.New(1).LRU().Expiration(ttl).Clock(clock).Build(),
	}
}

// reloadResult is what a single-flight reload hands to every waiting caller
type reloadResult struct {
	dataset *models.Dataset
	stale   bool
}

// Current returns the cached dataset, reloading it when the window has passed.
// When a reload fails the last good dataset is returned instead; an error is
// only returned if no dataset was ever loaded.
func (c *Cache) Current(ctx context.Context) (*models.Dataset, error) {
	if v, err := c.entries.Get(datasetKey); err == nil {
		return v.(*models.Dataset), nil
	}

	res, err := c.load(ctx)
	if err != nil {
		return nil, err
	}
	return res.dataset, nil
}

// Reload drops the cached dataset and loads it again. stale reports that the
// load failed and the last good dataset was returned in its place.
func (c *Cache) Reload(ctx context.Context) (d *models.Dataset, stale bool, err error) {
	c.Invalidate()

	res, err := c.load(ctx)
	if err != nil {
		return nil, false, err
	}
	return res.dataset, res.stale, nil
}

func (c *Cache) load(ctx context.Context) (reloadResult, error) {
	v, err, _ := c.group.Do(datasetKey, func() (interface{}, error) {
		return c.reload(ctx)
	})
	if err != nil {
		return reloadResult{}, err
	}
	return v.(reloadResult), nil
}

func (c *Cache) reload(ctx context.Context) (reloadResult, error) {
	start := time.Now()
	d, err := c.source.LatestDataset(ctx)
	if err == nil && d == nil {
		err = errors.New("source returned no dataset")
	}
	if c.OnReload != nil {
		c.OnReload(d, time.Since(start), err)
	}

	if err != nil {
		last := c.lastGood.Load()
		if last == nil {
			return reloadResult{}, fmt.Errorf("failed to load dataset: %w", err)
		}

		retryAfter := c.ttl
		if retryAfter > maxRetryAfter {
			retryAfter = maxRetryAfter
		}
		log.Printf("Warning: dataset reload failed, serving snapshot %s for %v: %v", last.SnapshotID, retryAfter, err)
		_ = c.entries.SetWithExpire(datasetKey, last, retryAfter)
		return reloadResult{dataset: last, stale: true}, nil
	}

	c.lastGood.Store(d)
	_ = c.entries.Set(datasetKey, d)
	log.Printf("Dataset loaded: snapshot %s, %d cities, from %s", d.SnapshotID, d.Len(), d.Source)
	return reloadResult{dataset: d}, nil
}

// Invalidate forces the next Current call to reload
func (c *Cache) Invalidate() {
	c.entries.Remove(datasetKey)
}

// Last returns the last successfully loaded dataset without triggering a reload
func (c *Cache) Last() *models.Dataset {
	return c.lastGood.Load()
}
