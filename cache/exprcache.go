// Package cache collects the cross-cutting bounded caches shared across
// pipeline stages that don't already own a narrower, stage-specific one
// (the constraint resolver's per-frame result cache and the drawlist
// builder's string-interning accelerator are scoped tightly enough to
// stay local to those packages instead).
package cache

import (
	lru "github.com/hashicorp/golang-lru"

	"github.com/rezi-tui/rezi/exprast"
)

const defaultExprCacheCapacity = 512

// ExprCache memoizes parsed constraint expression ASTs by source string,
// so repeated commit passes over structurally-identical trees (the
// overwhelmingly common case — most renders touch only a handful of
// instances) don't re-parse an unchanged size expression every frame.
// Grounded on the teacher's tui.ExpressionCache (GetOrCompile: check,
// compile on miss, store), generalized from its TTL-based eviction to a
// bounded LRU — a parsed AST never goes stale the way a compiled program
// tied to an external script engine's generation might, so capacity
// pressure is the only eviction reason that applies here.
type ExprCache struct {
	cache *lru.Cache
}

// NewExprCache builds an ExprCache bounded to capacity entries.
func NewExprCache(capacity int) *ExprCache {
	if capacity <= 0 {
		capacity = defaultExprCacheCapacity
	}
	c, _ := lru.New(capacity)
	return &ExprCache{cache: c}
}

// GetOrParse returns the cached AST for source if present, else parses,
// caches, and returns it. A parse error is never cached — a transient
// fix to the source (e.g. a hot-reloaded component) must be retried.
func (c *ExprCache) GetOrParse(source string) (exprast.Expr, error) {
	if v, ok := c.cache.Get(source); ok {
		return v.(exprast.Expr), nil
	}
	expr, err := exprast.Parse(source)
	if err != nil {
		return nil, err
	}
	c.cache.Add(source, expr)
	return expr, nil
}

// Invalidate drops source's cached entry, if any.
func (c *ExprCache) Invalidate(source string) {
	c.cache.Remove(source)
}

// Clear drops every cached entry.
func (c *ExprCache) Clear() {
	c.cache.Purge()
}
