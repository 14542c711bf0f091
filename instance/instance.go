// Package instance implements the commit/reconciler stage: it binds
// immutable vnode.VNode trees to a stable RuntimeInstance tree, assigning
// and preserving identity across renders per the pairing algorithm.
package instance

import (
	"sync"
	"sync/atomic"

	"github.com/rezi-tui/rezi/vnode"
)

// ID is a 32-bit non-zero instance identifier, monotonic within a session.
// An id is never reassigned after its instance is destroyed.
type ID uint32

// Allocator hands out monotonic, non-zero instance ids. Safe for concurrent
// use, though the render loop is single-threaded — the atomic increment
// guards against a consumer that chooses to allocate instances off the
// render loop (e.g. a background prefetch).
type Allocator struct {
	next uint32
}

// NewAllocator returns an Allocator whose first id is 1.
func NewAllocator() *Allocator {
	return &Allocator{}
}

// Next returns the next unused id.
func (a *Allocator) Next() ID {
	return ID(atomic.AddUint32(&a.next, 1))
}

// Effect is a user-supplied side effect queued during commit. It may
// return a cleanup invoked when the owning instance is disposed or
// recreated. RunEffect traps a panicking Effect and reports it through
// its panicked result instead of propagating it.
type Effect func() (cleanup func())

// Instance is the mutable binding of a VNode to a stable identity
// RuntimeInstance). Local state slots (hook cells, ref cells, pending
// effects) live here so a component's state survives across renders as
// long as its identity is preserved by commit.
type Instance struct {
	ID         ID
	VNode      vnode.VNode
	Parent     *Instance
	Children   []*Instance
	Generation int

	dirty bool

	mu        sync.Mutex
	hooks     []interface{}
	hookIndex int
	pending   []Effect
	cleanups  []func()
}

// Dirty reports whether this instance's vnode or any descendant changed
// since the last commit (dirty-subtree identification).
func (in *Instance) Dirty() bool {
	if in == nil {
		return false
	}
	return in.dirty
}

// MarkClean clears the dirty flag on this instance only (not descendants);
// used by the renderer after a subtree has been fully redrawn.
func (in *Instance) MarkClean() {
	if in != nil {
		in.dirty = false
	}
}

// WidgetID returns the instance's prop-bag "id", if any.
func (in *Instance) WidgetID() (string, bool) {
	return in.VNode.WidgetID()
}

// HookState returns the hook cell at the given slot, creating it with init
// on first access. Hook order must be stable across renders of the same
// instance, mirroring the teacher's component local-state convention.
func (in *Instance) HookState(init func() interface{}) interface{} {
	in.mu.Lock()
	defer in.mu.Unlock()
	idx := in.hookIndex
	in.hookIndex++
	for len(in.hooks) <= idx {
		in.hooks = append(in.hooks, nil)
	}
	if in.hooks[idx] == nil {
		in.hooks[idx] = init()
	}
	return in.hooks[idx]
}

// SetHookState overwrites the hook cell at idx (the same slot returned by
// the idx'th HookState call during this render).
func (in *Instance) SetHookState(idx int, v interface{}) {
	in.mu.Lock()
	defer in.mu.Unlock()
	for len(in.hooks) <= idx {
		in.hooks = append(in.hooks, nil)
	}
	in.hooks[idx] = v
}

// resetHookCursor rewinds the hook index to the first hook cell. Commit
// does not call it.
func (in *Instance) resetHookCursor() {
	in.mu.Lock()
	in.hookIndex = 0
	in.mu.Unlock()
}

// QueueEffect queues an effect for the next FlushEffects call on this
// instance. session.Session does not call FlushEffects, so queued effects
// run only when a caller flushes them.
func (in *Instance) QueueEffect(e Effect) {
	in.mu.Lock()
	in.pending = append(in.pending, e)
	in.mu.Unlock()
}

// FlushEffects runs and clears any effects queued this pass, recording
// their cleanups for the next dispose/recreate. A panic inside an effect
// is trapped only if run traps it, as RunEffect does.
func (in *Instance) FlushEffects(run func(Effect) (cleanup func(), panicked bool)) {
	in.mu.Lock()
	pending := in.pending
	in.pending = nil
	in.mu.Unlock()

	for _, e := range pending {
		cleanup, _ := run(e)
		if cleanup != nil {
			in.mu.Lock()
			in.cleanups = append(in.cleanups, cleanup)
			in.mu.Unlock()
		}
	}
}

// Dispose invokes all cleanup effects depth-first and decrements the
// caller-tracked live-instance count on dispose. Cleanup panics are
// swallowed — a misbehaving cleanup must not block teardown of its
// siblings.
func Dispose(in *Instance, liveCount *int64) {
	if in == nil {
		return
	}
	for _, child := range in.Children {
		Dispose(child, liveCount)
	}
	in.mu.Lock()
	cleanups := in.cleanups
	in.cleanups = nil
	in.mu.Unlock()
	for _, c := range cleanups {
		func() {
			defer func() { recover() }()
			c()
		}()
	}
	if liveCount != nil {
		atomic.AddInt64(liveCount, -1)
	}
}
