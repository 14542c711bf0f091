package instance

import (
	"testing"

	"github.com/rezi-tui/rezi/vnode"
)

func TestIdentityPreservedAcrossRenders(t *testing.T) {
	alloc := NewAllocator()
	var live int64

	tree1 := vnode.Row(nil,
		vnode.Text("a", nil).WithKey("a"),
		vnode.Text("b", nil).WithKey("b"),
	)
	root1, err := Commit(nil, tree1, alloc, &live)
	if err != nil {
		t.Fatalf("commit 1: %v", err)
	}
	idA := root1.Children[0].ID
	idB := root1.Children[1].ID

	tree2 := vnode.Row(nil,
		vnode.Text("b2", nil).WithKey("b"),
		vnode.Text("a2", nil).WithKey("a"),
	)
	root2, err := Commit(root1, tree2, alloc, &live)
	if err != nil {
		t.Fatalf("commit 2: %v", err)
	}
	if root2.ID != root1.ID {
		t.Fatalf("root identity changed: %d -> %d", root1.ID, root2.ID)
	}
	if root2.Children[0].ID != idB {
		t.Fatalf("keyed child 'b' identity not preserved: got %d want %d", root2.Children[0].ID, idB)
	}
	if root2.Children[1].ID != idA {
		t.Fatalf("keyed child 'a' identity not preserved: got %d want %d", root2.Children[1].ID, idA)
	}
}

func TestUnkeyedSiblingsPairedByIndexAndKind(t *testing.T) {
	alloc := NewAllocator()
	var live int64

	tree1 := vnode.Row(nil, vnode.Text("1", nil), vnode.Text("2", nil))
	root1, err := Commit(nil, tree1, alloc, &live)
	if err != nil {
		t.Fatal(err)
	}
	id0, id1 := root1.Children[0].ID, root1.Children[1].ID

	tree2 := vnode.Row(nil, vnode.Text("1-updated", nil), vnode.Text("2-updated", nil))
	root2, err := Commit(root1, tree2, alloc, &live)
	if err != nil {
		t.Fatal(err)
	}
	if root2.Children[0].ID != id0 || root2.Children[1].ID != id1 {
		t.Fatalf("unkeyed identity not preserved by position: got %d,%d want %d,%d",
			root2.Children[0].ID, root2.Children[1].ID, id0, id1)
	}
}

func TestUnmatchedChildrenDisposedAndRecreated(t *testing.T) {
	alloc := NewAllocator()
	var live int64

	tree1 := vnode.Row(nil, vnode.Text("x", nil).WithKey("x"))
	root1, err := Commit(nil, tree1, alloc, &live)
	if err != nil {
		t.Fatal(err)
	}
	if live != 2 { // root + one child
		t.Fatalf("live count = %d want 2", live)
	}
	oldChildID := root1.Children[0].ID

	tree2 := vnode.Row(nil, vnode.Text("y", nil).WithKey("y"))
	root2, err := Commit(root1, tree2, alloc, &live)
	if err != nil {
		t.Fatal(err)
	}
	if root2.Children[0].ID == oldChildID {
		t.Fatal("differently-keyed child should not preserve identity")
	}
	if live != 2 {
		t.Fatalf("live count after swap = %d want 2 (one disposed, one created)", live)
	}
}

func TestInvalidPropsAbortsCommit(t *testing.T) {
	alloc := NewAllocator()
	var live int64

	tree := vnode.Box(map[string]interface{}{"width": -5})
	_, err := Commit(nil, tree, alloc, &live)
	if err == nil {
		t.Fatal("expected error for negative width")
	}
}

func TestDirtyPropagatesFromChild(t *testing.T) {
	alloc := NewAllocator()
	var live int64

	tree1 := vnode.Row(nil, vnode.Text("a", nil).WithKey("a"))
	root1, err := Commit(nil, tree1, alloc, &live)
	if err != nil {
		t.Fatal(err)
	}
	root1.MarkClean()
	root1.Children[0].MarkClean()

	tree2 := vnode.Row(nil, vnode.Text("a-changed", nil).WithKey("a"))
	root2, err := Commit(root1, tree2, alloc, &live)
	if err != nil {
		t.Fatal(err)
	}
	if !root2.Children[0].Dirty() {
		t.Fatal("changed child should be dirty")
	}
	if !root2.Dirty() {
		t.Fatal("dirty should propagate to ancestor")
	}
}
