// Package constraint builds a dependency graph over constrained props in a
// committed instance tree, topologically orders it, and resolves every
// node's numeric value. Grounded on the teacher's tui/tui.ExpressionCache
// (compile-once-reuse idiom) and tui/runtime.measurable.go (the metrics a
// node can be measured against).
package constraint

import (
	"fmt"
	"sort"

	"github.com/rezi-tui/rezi/exprast"
	"github.com/rezi-tui/rezi/instance"
	"github.com/rezi-tui/rezi/rezierr"
	"github.com/rezi-tui/rezi/vnode"
)

// NodeKey identifies one constrained prop slot on one instance.
type NodeKey struct {
	InstanceID instance.ID
	Prop       string
}

func (k NodeKey) String() string {
	return fmt.Sprintf("%d:%s", k.InstanceID, k.Prop)
}

// Node is one vertex of the constraint graph: a single constrained prop on
// a single instance, holding the parsed expression that produces its
// value.
type Node struct {
	Key        NodeKey
	InstanceID instance.ID
	WidgetID   string // "" if the owning instance carries no widget id
	Prop       string
	Expr       exprast.Expr
	Source     string
}

// Graph is the built, ordered, fingerprinted dependency graph for one
// committed tree.
type Graph struct {
	Nodes       []*Node
	byKey       map[NodeKey]*Node
	Edges       map[NodeKey][]NodeKey // node -> nodes it depends on
	Order       []NodeKey             // topological order, dependencies before dependents

	Fingerprint uint32

	// RequiresCommitRelayout is set when some constraint reads an
	// intrinsic/baseline metric of a node that is not itself
	// constrained — the resolver must fall back to layout-measured
	// values for it, so a baseline re-layout changes this graph's
	// resolved output even though no expression text changed.
	RequiresCommitRelayout bool

	// HasDisplayConstraints is set when at least one node constrains a
	// "display" prop — hidden-node propagation only matters when true.
	HasDisplayConstraints bool

	widgetToInstance map[string]instance.ID
	widgetInstances  map[string][]instance.ID // every instance per widget id, document order
}

// CycleError reports a constraint dependency cycle as an ordered, labeled
// path.
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("circular constraint dependency: %v", e.Path)
}

// constrainedPropOrder fixes the document-order iteration over a single
// node's constrained prop slots; vnode.ConstrainedProps is a set (map
// iteration order is randomized), and fingerprint/topo-sort determinism
// requires a stable traversal even across multiple constrained props on
// the same node.
var constrainedPropOrder = []string{
	"width", "height", "minWidth", "maxWidth", "minHeight", "maxHeight", "flexBasis", "display",
}

// Build walks root depth-first (iterative) and constructs the dependency
// graph for every constrained prop found, per the pairing rules: widget
// references edge to the referenced instance's same-metric constraint node
// (or are flagged intrinsic when that node doesn't exist), every widget
// reference also implicitly edges to that instance's display node when
// constrained, and aggregation calls edge to every same-widgetId
// instance's same-prop node. Returns rezierr.InvalidConstraint on an
// unknown function, unknown widget id, or ambiguous direct widget
// reference, and rezierr.CircularConstraint (wrapping a *CycleError) when
// the graph is not a DAG.
func Build(root *instance.Instance) (*Graph, error) {
	g := &Graph{
		byKey:            map[NodeKey]*Node{},
		Edges:            map[NodeKey][]NodeKey{},
		widgetToInstance: map[string]instance.ID{},
		widgetInstances:  map[string][]instance.ID{},
	}

	// Pass 1: collect nodes and the widgetId -> instanceId index, walking
	// in document order so node insertion order is deterministic.
	seenWidgetIDs := map[string]int{}
	stack := []*instance.Instance{root}
	for len(stack) > 0 {
		in := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if in == nil {
			continue
		}
		if wid, ok := in.WidgetID(); ok {
			seenWidgetIDs[wid]++
			g.widgetToInstance[wid] = in.ID
			g.widgetInstances[wid] = append(g.widgetInstances[wid], in.ID)
		}
		for _, prop := range constrainedPropOrder {
			raw, ok := in.VNode.Props[prop]
			if !ok {
				continue
			}
			sv, err := vnode.ParseSize(prop, raw)
			if err != nil || sv.Kind != vnode.SizeExpr {
				continue
			}
			key := NodeKey{InstanceID: in.ID, Prop: prop}
			wid, _ := in.WidgetID()
			n := &Node{Key: key, InstanceID: in.ID, WidgetID: wid, Prop: prop, Expr: sv.Expr, Source: sourceOf(raw)}
			g.Nodes = append(g.Nodes, n)
			g.byKey[key] = n
			if prop == "display" {
				g.HasDisplayConstraints = true
			}
		}
		for i := len(in.Children) - 1; i >= 0; i-- {
			stack = append(stack, in.Children[i])
		}
	}

	// Pass 2: dependency discovery per node.
	for _, n := range g.Nodes {
		if err := exprast.ValidateCalls(n.Expr); err != nil {
			return nil, rezierr.Wrap(rezierr.InvalidConstraint, "node "+n.Key.String(), err)
		}
		deps, err := g.dependenciesOf(n, seenWidgetIDs)
		if err != nil {
			return nil, err
		}
		g.Edges[n.Key] = deps
	}

	if err := g.topoSort(); err != nil {
		return nil, err
	}

	g.Fingerprint = g.computeFingerprint()
	return g, nil
}

// dependenciesOf walks n's expression AST and returns the node keys it
// depends on, per the widget-ref / aggregation rules above.
func (g *Graph) dependenciesOf(n *Node, widgetCounts map[string]int) ([]NodeKey, error) {
	var deps []NodeKey
	var visit func(e exprast.Expr) error
	visit = func(e exprast.Expr) error {
		switch x := e.(type) {
		case exprast.Ref:
			if x.Scope != exprast.ScopeWidget {
				return nil
			}
			id, ok := g.widgetToInstance[x.WidgetID]
			if !ok {
				return rezierr.Newf(rezierr.InvalidConstraint, "unknown widget id %q referenced by %s", x.WidgetID, n.Key)
			}
			if widgetCounts[x.WidgetID] > 1 {
				return rezierr.Newf(rezierr.InvalidConstraint, "ambiguous widget reference %q matches %d instances", x.WidgetID, widgetCounts[x.WidgetID])
			}
			prop := constraintPropOf(x.Metric)
			depKey := NodeKey{InstanceID: id, Prop: prop}
			if _, ok := g.byKey[depKey]; ok {
				deps = append(deps, depKey)
			} else {
				g.RequiresCommitRelayout = true
			}
			if dispKey := (NodeKey{InstanceID: id, Prop: "display"}); g.byKey[dispKey] != nil {
				deps = append(deps, dispKey)
			}
			return nil
		case exprast.WidgetRef:
			return nil // only meaningful inside an aggregation call, handled below
		case exprast.Call:
			if (x.Name == "max_sibling" || x.Name == "sum_sibling") && len(x.Args) == 1 {
				if ref, ok := x.Args[0].(exprast.WidgetRef); ok {
					if _, ok := widgetCounts[ref.ID]; !ok {
						return rezierr.Newf(rezierr.InvalidConstraint, "unknown widget id %q referenced by %s", ref.ID, n.Key)
					}
					for _, id := range g.widgetInstances[ref.ID] {
						depKey := NodeKey{InstanceID: id, Prop: n.Prop}
						if _, ok := g.byKey[depKey]; ok {
							deps = append(deps, depKey)
						}
						if dispKey := (NodeKey{InstanceID: id, Prop: "display"}); g.byKey[dispKey] != nil {
							deps = append(deps, dispKey)
						}
					}
					return nil
				}
			}
			for _, a := range x.Args {
				if err := visit(a); err != nil {
					return err
				}
			}
			return nil
		case exprast.Unary:
			return visit(x.X)
		case exprast.Binary:
			if err := visit(x.L); err != nil {
				return err
			}
			return visit(x.R)
		case exprast.Ternary:
			if err := visit(x.Cond); err != nil {
				return err
			}
			if err := visit(x.Then); err != nil {
				return err
			}
			return visit(x.Else)
		}
		return nil
	}
	if err := visit(n.Expr); err != nil {
		return nil, err
	}
	return dedupeKeys(deps), nil
}

func dedupeKeys(keys []NodeKey) []NodeKey {
	seen := map[NodeKey]bool{}
	out := keys[:0]
	for _, k := range keys {
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	return out
}

func constraintPropOf(m exprast.Metric) string {
	switch m {
	case exprast.MetricW:
		return "width"
	case exprast.MetricH:
		return "height"
	case exprast.MetricMinW:
		return "minWidth"
	case exprast.MetricMinH:
		return "minHeight"
	}
	return ""
}

// sourceOf best-efforts a stable textual form of a raw prop value for
// fingerprinting purposes; for string props it's the literal source, for
// anything else (an already-parsed AST handed in by a caller) a formatted
// fallback suffices since identical ASTs format identically.
func sourceOf(raw interface{}) string {
	if s, ok := raw.(string); ok {
		return s
	}
	return fmt.Sprintf("%#v", raw)
}

// topoSort runs Kahn's algorithm over g.Edges, breaking ties among
// available sources by document (node insertion) order, and populates
// g.Order. On failure (a cycle), it returns a *CycleError wrapped as
// rezierr.CircularConstraint via DFS-based cycle-path extraction.
func (g *Graph) topoSort() error {
	indexOf := map[NodeKey]int{}
	for i, n := range g.Nodes {
		indexOf[n.Key] = i
	}

	inDegree := map[NodeKey]int{}
	dependents := map[NodeKey][]NodeKey{} // dep -> nodes that depend on it
	for _, n := range g.Nodes {
		if _, ok := inDegree[n.Key]; !ok {
			inDegree[n.Key] = 0
		}
		for _, dep := range g.Edges[n.Key] {
			inDegree[n.Key]++
			dependents[dep] = append(dependents[dep], n.Key)
		}
	}

	var ready []NodeKey
	for _, n := range g.Nodes {
		if inDegree[n.Key] == 0 {
			ready = append(ready, n.Key)
		}
	}
	sortByDocOrder(ready, indexOf)

	var order []NodeKey
	for len(ready) > 0 {
		k := ready[0]
		ready = ready[1:]
		order = append(order, k)
		var newlyReady []NodeKey
		for _, dep := range dependents[k] {
			inDegree[dep]--
			if inDegree[dep] == 0 {
				newlyReady = append(newlyReady, dep)
			}
		}
		sortByDocOrder(newlyReady, indexOf)
		ready = mergeSortedByDocOrder(ready, newlyReady, indexOf)
	}

	if len(order) != len(g.Nodes) {
		path := g.extractCycle(inDegree)
		return rezierr.Wrap(rezierr.CircularConstraint, "constraint graph has a cycle", &CycleError{Path: path})
	}

	g.Order = order
	return nil
}

func sortByDocOrder(keys []NodeKey, indexOf map[NodeKey]int) {
	sort.Slice(keys, func(i, j int) bool { return indexOf[keys[i]] < indexOf[keys[j]] })
}

func mergeSortedByDocOrder(a, b []NodeKey, indexOf map[NodeKey]int) []NodeKey {
	if len(b) == 0 {
		return a
	}
	out := make([]NodeKey, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		if indexOf[a[i]] <= indexOf[b[j]] {
			out = append(out, a[i])
			i++
		} else {
			out = append(out, b[j])
			j++
		}
	}
	out = append(out, a[i:]...)
	out = append(out, b[j:]...)
	return out
}

// extractCycle runs a DFS over the remaining (non-zero in-degree) nodes to
// find and label one concrete cycle in the edge set.
func (g *Graph) extractCycle(remaining map[NodeKey]int) []string {
	stuck := map[NodeKey]bool{}
	for k, deg := range remaining {
		if deg > 0 {
			stuck[k] = true
		}
	}

	var start NodeKey
	for _, n := range g.Nodes {
		if stuck[n.Key] {
			start = n.Key
			break
		}
	}

	visited := map[NodeKey]bool{}
	var path []NodeKey
	onPath := map[NodeKey]int{}

	var dfs func(k NodeKey) []NodeKey
	dfs = func(k NodeKey) []NodeKey {
		if idx, ok := onPath[k]; ok {
			return path[idx:]
		}
		if visited[k] {
			return nil
		}
		visited[k] = true
		onPath[k] = len(path)
		path = append(path, k)
		for _, dep := range g.Edges[k] {
			if !stuck[dep] {
				continue
			}
			if cyc := dfs(dep); cyc != nil {
				return cyc
			}
		}
		delete(onPath, k)
		path = path[:len(path)-1]
		return nil
	}

	cycle := dfs(start)
	labels := make([]string, 0, len(cycle)+1)
	for _, k := range cycle {
		labels = append(labels, g.label(k))
	}
	if len(cycle) > 0 {
		labels = append(labels, g.label(cycle[0]))
	}
	return labels
}

func (g *Graph) label(k NodeKey) string {
	if n, ok := g.byKey[k]; ok && n.WidgetID != "" {
		return n.WidgetID + "." + n.Prop
	}
	return fmt.Sprintf("#%d.%s", k.InstanceID, k.Prop)
}
