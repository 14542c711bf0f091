package constraint

import (
	lru "github.com/hashicorp/golang-lru"

	"github.com/rezi-tui/rezi/exprast"
	"github.com/rezi-tui/rezi/instance"
)

// Metrics is a {w, h} pair; min_w and min_h read the same values as w and
// h respectively wherever a scope only carries a box's outer size.
type Metrics struct {
	W, H float64
}

func (m Metrics) metric(k exprast.Metric) float64 {
	switch k {
	case exprast.MetricW, exprast.MetricMinW:
		return m.W
	case exprast.MetricH, exprast.MetricMinH:
		return m.H
	}
	return 0
}

// Baseline supplies the measured layout values a resolver falls back to
// when a referenced prop isn't itself constrained, and the intrinsic
// (natural) measurement beneath that, per the fallback chain: resolved
// value, then baseline layout value, then intrinsic value, then zero.
type Baseline interface {
	Layout(id instance.ID, prop string) (float64, bool)
	Intrinsic(id instance.ID, prop string) (float64, bool)
	// Display reports the baseline (pre-resolve) display value; <= 0 means
	// the instance is hidden absent any constrained display node.
	Display(id instance.ID) float64
	// Parent returns the parent instance id of id, and whether id has one
	// (false for the root, whose "parent" scope reads viewport).
	Parent(id instance.ID) (instance.ID, bool)
}

// Resolver evaluates a built Graph's nodes in topological order, caching
// whole-graph results by (fingerprint, viewport, root-parent). The
// baseline passed to Resolve is not part of that key: a later call with
// the same key returns the cached result even if its baseline differs.
type Resolver struct {
	cache *lru.Cache
}

// NewResolver returns a Resolver with the default 8-entry result cache.
func NewResolver() *Resolver {
	c, _ := lru.New(8)
	return &Resolver{cache: c}
}

type cacheKey struct {
	fingerprint      uint32
	vpW, vpH         float64
	parentW, parentH float64
}

// Resolve evaluates every node in g.Order against viewport and rootParent
// (the size available to the tree's root, usually equal to viewport), and
// returns a map from NodeKey to its sanitized numeric value. Every
// returned value is finite (exprast.Eval sanitizes NaN/Inf to 0).
func (r *Resolver) Resolve(g *Graph, baseline Baseline, viewport, rootParent Metrics) map[NodeKey]float64 {
	key := cacheKey{g.Fingerprint, viewport.W, viewport.H, rootParent.W, rootParent.H}
	if cached, ok := r.cache.Get(key); ok {
		return cached.(map[NodeKey]float64)
	}

	results := make(map[NodeKey]float64, len(g.Nodes))
	aggCache := map[string]float64{}

	for _, k := range g.Order {
		n := g.byKey[k]
		ctx := &evalContext{
			graph:      g,
			node:       n,
			results:    results,
			baseline:   baseline,
			viewport:   viewport,
			rootParent: rootParent,
			aggCache:   aggCache,
		}
		results[k] = exprast.Eval(n.Expr, ctx)
	}

	r.cache.Add(key, results)
	return results
}

// evalContext binds exprast.Eval to one node's owning instance during a
// single Resolve pass.
type evalContext struct {
	graph      *Graph
	node       *Node
	results    map[NodeKey]float64
	baseline   Baseline
	viewport   Metrics
	rootParent Metrics
	aggCache   map[string]float64
}

func (c *evalContext) Ref(scope exprast.Scope, widgetID string, metric exprast.Metric) float64 {
	switch scope {
	case exprast.ScopeViewport:
		return c.viewport.metric(metric)
	case exprast.ScopeParent:
		parentID, ok := c.baseline.Parent(c.node.InstanceID)
		if !ok {
			return c.rootParent.metric(metric)
		}
		return c.metricFor(parentID, metric)
	case exprast.ScopeIntrinsic:
		if v, ok := c.baseline.Intrinsic(c.node.InstanceID, constraintPropOf(metric)); ok {
			return v
		}
		return 0
	case exprast.ScopeWidget:
		id, ok := c.graph.widgetToInstance[widgetID]
		if !ok {
			return 0
		}
		if c.isHidden(id) {
			return 0
		}
		return c.metricFor(id, metric)
	}
	return 0
}

func (c *evalContext) Aggregate(fn, widgetID string) float64 {
	cacheKey := fn + ":" + widgetID + ":" + c.node.Prop
	if v, ok := c.aggCache[cacheKey]; ok {
		return v
	}

	var values []float64
	for _, id := range c.graph.widgetInstances[widgetID] {
		if c.isHidden(id) {
			continue
		}
		if v, ok := c.propValueFor(id, c.node.Prop); ok {
			values = append(values, v)
		}
	}

	var result float64
	switch fn {
	case "max_sibling":
		for _, v := range values {
			if v > result {
				result = v
			}
		}
	case "sum_sibling":
		for _, v := range values {
			result += v
		}
	}
	c.aggCache[cacheKey] = result
	return result
}

// metricFor resolves a metric on an arbitrary instance via the
// fallback chain: resolved constraint value, baseline layout value,
// baseline intrinsic value, zero.
func (c *evalContext) metricFor(id instance.ID, metric exprast.Metric) float64 {
	v, _ := c.propValueFor(id, constraintPropOf(metric))
	return v
}

func (c *evalContext) propValueFor(id instance.ID, prop string) (float64, bool) {
	if v, ok := c.results[NodeKey{InstanceID: id, Prop: prop}]; ok {
		return v, true
	}
	if v, ok := c.baseline.Layout(id, prop); ok {
		return v, true
	}
	if v, ok := c.baseline.Intrinsic(id, prop); ok {
		return v, true
	}
	return 0, false
}

// isHidden reports whether id is a hidden node: its resolved display value
// (if constrained) or its baseline display value is <= 0. Hidden nodes
// contribute 0 to sibling metrics.
func (c *evalContext) isHidden(id instance.ID) bool {
	if v, ok := c.results[NodeKey{InstanceID: id, Prop: "display"}]; ok {
		return v <= 0
	}
	return c.baseline.Display(id) <= 0
}
