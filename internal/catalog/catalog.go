// Package catalog manages item codes: the short codes the operator types
// while entering a sale, each mapped to a display name and material. All
// reads are served from an in-memory cache kept in lockstep with the
// database, so lookups during entry never touch disk.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"dailyregister/internal/cache"
	"dailyregister/internal/core"
)

// Repository is the slice of the storage layer the catalog needs.
type Repository interface {
	ListCodes(ctx context.Context) ([]core.CatalogEntry, error)
	UpsertCode(ctx context.Context, e core.CatalogEntry) error
	TouchCode(ctx context.Context, code string, at time.Time) error
	DeleteCode(ctx context.Context, code string) error
	CountCodes(ctx context.Context) (int64, error)
}

type Catalog struct {
	repo  Repository
	cache *cache.Store[core.CatalogEntry]
}

// New builds a catalog and warms its cache from the repository.
func New(ctx context.Context, repo Repository) (*Catalog, error) {
	c := &Catalog{repo: repo, cache: cache.NewStore[core.CatalogEntry]()}
	if err := c.Reload(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// key canonicalizes a code for cache lookup. Codes are stored and
// compared uppercase; the operator may type them in any case.
func key(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Reload replaces the cache with the repository's current contents,
// called at startup and after a backup restore swaps the database.
func (c *Catalog) Reload(ctx context.Context) error {
	entries, err := c.repo.ListCodes(ctx)
	if err != nil {
		return fmt.Errorf("reload catalog: %w", err)
	}
	items := make(map[string]core.CatalogEntry, len(entries))
	for _, e := range entries {
		items[key(e.Code)] = e
	}
	c.cache.Replace(items)
	slog.InfoContext(ctx, "Catalog loaded", "codes", len(items))
	return nil
}

// Lookup resolves a code, case-insensitively.
func (c *Catalog) Lookup(code string) (core.CatalogEntry, bool) {
	return c.cache.Get(key(code))
}

// Upsert validates and stores an entry, then updates the cache. The
// stored code is the canonical uppercase form.
func (c *Catalog) Upsert(ctx context.Context, e core.CatalogEntry) error {
	e.Code = key(e.Code)
	e.Name = strings.TrimSpace(e.Name)
	if err := e.Validate(); err != nil {
		return err
	}
	if err := c.repo.UpsertCode(ctx, e); err != nil {
		return err
	}
	c.cache.Set(e.Code, e)
	return nil
}

// Touch records that a code was consumed by a committed sale. Unknown
// codes are ignored: a sale may legitimately reference a code that was
// deleted from the catalog after entry began.
func (c *Catalog) Touch(ctx context.Context, code string, at time.Time) error {
	e, ok := c.cache.Get(key(code))
	if !ok {
		return nil
	}
	if err := c.repo.TouchCode(ctx, e.Code, at); err != nil {
		return err
	}
	e.LastUsed = at
	c.cache.Set(key(code), e)
	return nil
}

// Delete removes a code. Historical transaction lines are untouched;
// they carry their own copy of name and material.
func (c *Catalog) Delete(ctx context.Context, code string) error {
	if err := c.repo.DeleteCode(ctx, key(code)); err != nil {
		return err
	}
	c.cache.Delete(key(code))
	return nil
}

// Entries returns every catalog entry ordered by code.
func (c *Catalog) Entries() []core.CatalogEntry {
	snap := c.cache.Snapshot()
	out := make([]core.CatalogEntry, 0, len(snap))
	for _, e := range snap {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// Suggest returns completion candidates for a partial code: an exact
// match first, then prefix matches by most recent use. Codes that have
// never been used sort last, alphabetically among themselves.
func (c *Catalog) Suggest(partial string) []core.CatalogEntry {
	p := key(partial)
	if p == "" {
		return nil
	}

	var exact *core.CatalogEntry
	var prefixed []core.CatalogEntry
	for k, e := range c.cache.Snapshot() {
		switch {
		case k == p:
			e := e
			exact = &e
		case strings.HasPrefix(k, p):
			prefixed = append(prefixed, e)
		}
	}

	sort.Slice(prefixed, func(i, j int) bool {
		a, b := prefixed[i], prefixed[j]
		if !a.LastUsed.Equal(b.LastUsed) {
			return a.LastUsed.After(b.LastUsed)
		}
		return a.Code < b.Code
	})

	if exact == nil {
		return prefixed
	}
	return append([]core.CatalogEntry{*exact}, prefixed...)
}
