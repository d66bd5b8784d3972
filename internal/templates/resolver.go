// Package templates resolves named style templates for document synthesis.
// Entries are loaded from a Catalog on first use and cached for the life of
// the Resolver.
package templates

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/phrazzld/deckforge/internal/domain"
	"golang.org/x/sync/singleflight"
)

// Errors returned by Resolve.
var (
	ErrTemplateNotFound = fmt.Errorf("template %w", domain.ErrNotFound)
	ErrInvalidTemplate  = domain.ErrInvalidTemplate
)

// Cache holds resolved templates. Entries are written once and never
// invalidated. It is safe for concurrent use.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]domain.Template
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]domain.Template)}
}

// Get returns the cached template for name.
func (c *Cache) Get(name string) (domain.Template, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.entries[name]
	return t, ok
}

// Add stores t under name unless an entry already exists, and returns the
// entry that ended up in the cache.
func (c *Cache) Add(name string, t domain.Template) domain.Template {
	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.entries[name]; ok {
		return existing
	}
	c.entries[name] = t
	return t
}

// Len returns the number of cached templates.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Resolver turns template names into validated templates.
type Resolver struct {
	catalog Catalog
	cache   *Cache
	group   singleflight.Group
	logger  *slog.Logger
}

// NewResolver creates a resolver backed by catalog. A nil cache gets a fresh one.
func NewResolver(catalog Catalog, cache *Cache, logger *slog.Logger) *Resolver {
	if cache == nil {
		cache = NewCache()
	}
	return &Resolver{
		catalog: catalog,
		cache:   cache,
		logger:  logger.With("component", "template_resolver"),
	}
}

// Resolve returns the template called name. Failed lookups are not cached,
// so a fixed catalog entry is picked up on the next call.
func (r *Resolver) Resolve(ctx context.Context, name string) (*domain.Template, error) {
	if !domain.ValidTemplateName(name) {
		return nil, fmt.Errorf("%w: %q", ErrTemplateNotFound, name)
	}

	if t, ok := r.cache.Get(name); ok {
		return &t, nil
	}

	// The load is shared by every waiter, so one caller giving up must not
	// cancel it for the rest.
	loadCtx := context.WithoutCancel(ctx)
	ch := r.group.DoChan(name, func() (any, error) {
		t, err := r.catalog.Lookup(loadCtx, name)
		if err != nil {
			return nil, err
		}
		return r.cache.Add(name, *t), nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			r.logger.Warn("template resolution failed", "template", name, "error", res.Err)
			return nil, res.Err
		}
		t := res.Val.(domain.Template)
		r.logger.Debug("template loaded", "template", name, "shared", res.Shared)
		return &t, nil
	}
}
