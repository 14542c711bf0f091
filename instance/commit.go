package instance

import (
	"reflect"

	"github.com/rezi-tui/rezi/rezierr"
	"github.com/rezi-tui/rezi/vnode"
)

// Commit transforms (prev | nil, next) into the next committed instance
// tree, preserving identity per the pairing algorithm. A non-nil
// error is fatal for the frame — the caller must keep using prev.
func Commit(prev *Instance, next vnode.VNode, alloc *Allocator, liveCount *int64) (*Instance, error) {
	// Validate the whole next tree before touching prev, so a rejected
	// commit leaves prev exactly as it was.
	if err := validateTree(next); err != nil {
		return nil, rezierr.Wrap(rezierr.InvalidProps, "commit rejected vnode", err)
	}
	return commitNode(prev, next, nil, alloc, liveCount)
}

func validateTree(n vnode.VNode) error {
	if err := validateProps(n); err != nil {
		return err
	}
	for _, c := range n.Children {
		if err := validateTree(c); err != nil {
			return err
		}
	}
	return nil
}

func commitNode(prev *Instance, next vnode.VNode, parent *Instance, alloc *Allocator, liveCount *int64) (*Instance, error) {
	if err := validateProps(next); err != nil {
		return nil, rezierr.Wrap(rezierr.InvalidProps, "commit rejected vnode", err)
	}

	var out *Instance
	propsChanged := true
	if prev != nil && prev.VNode.Kind == next.Kind {
		out = prev
		propsChanged = !sameProps(prev.VNode, next)
		out.VNode = next
		out.Parent = parent
	} else {
		out = &Instance{ID: alloc.Next(), VNode: next, Parent: parent}
		if liveCount != nil {
			*liveCount++
		}
		if prev != nil {
			// Kind changed under the same slot: the old instance is
			// unrelated identity and must be disposed.
			Dispose(prev, liveCount)
		}
	}

	children, err := commitChildren(childrenOf(prev), next.Children, out, alloc, liveCount)
	if err != nil {
		return nil, err
	}
	out.Children = children

	childDirty := false
	for _, c := range children {
		if c.dirty {
			childDirty = true
			break
		}
	}
	out.dirty = propsChanged || childDirty || out != prev

	return out, nil
}

func childrenOf(in *Instance) []*Instance {
	if in == nil {
		return nil
	}
	return in.Children
}

// commitChildren implements the order-preserving O(n) pairing algorithm of
//
//  1. Split prev children into a keyed-by-(kind,key) map and an
//     index-ordered unkeyed list, the latter bucketed by kind into FIFO
//     queues so "same relative index" pairing among same-kind siblings is
//     O(1) per match.
//  2. Walk next children in order, pairing keyed next children against the
//     keyed map and unkeyed next children against the front of their
//     kind's queue.
//  3. Unmatched next children get a fresh instance; unmatched prev
//     children are disposed.
func commitChildren(prevChildren []*Instance, nextChildren []vnode.VNode, parent *Instance, alloc *Allocator, liveCount *int64) ([]*Instance, error) {
	type keyed struct {
		kind vnode.Kind
		key  string
	}
	keyedPrev := map[keyed]*Instance{}
	unkeyedQueues := map[vnode.Kind][]*Instance{}

	for _, c := range prevChildren {
		if c.VNode.Key != "" {
			keyedPrev[keyed{c.VNode.Kind, c.VNode.Key}] = c
		} else {
			unkeyedQueues[c.VNode.Kind] = append(unkeyedQueues[c.VNode.Kind], c)
		}
	}

	consumed := map[*Instance]bool{}
	result := make([]*Instance, 0, len(nextChildren))

	for _, nv := range nextChildren {
		var matched *Instance
		if nv.Key != "" {
			if p, ok := keyedPrev[keyed{nv.Kind, nv.Key}]; ok {
				matched = p
			}
		} else if q := unkeyedQueues[nv.Kind]; len(q) > 0 {
			matched = q[0]
			unkeyedQueues[nv.Kind] = q[1:]
		}

		committed, err := commitNode(matched, nv, parent, alloc, liveCount)
		if err != nil {
			return nil, err
		}
		if matched != nil {
			consumed[matched] = true
		}
		result = append(result, committed)
	}

	for _, c := range prevChildren {
		if !consumed[c] {
			Dispose(c, liveCount)
		}
	}

	return result, nil
}

// sameProps reports whether two vnodes of the same kind carry identical
// props and an identical key, i.e. nothing a commit needs to mark dirty
// for beyond whatever its children report.
func sameProps(a, b vnode.VNode) bool {
	return a.Key == b.Key && reflect.DeepEqual(a.Props, b.Props)
}

// validateProps runs the structural-prop validator over every
// constrained prop slot present on n. Unrelated props are left untouched —
// widget-specific validation beyond the structural slots is an external
// concern.
func validateProps(n vnode.VNode) error {
	for prop := range vnode.ConstrainedProps {
		raw, ok := n.Props[prop]
		if !ok {
			continue
		}
		if _, err := vnode.ParseSize(prop, raw); err != nil {
			return err
		}
	}
	return nil
}
