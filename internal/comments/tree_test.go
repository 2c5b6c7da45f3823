package comments

import (
	"reflect"
	"testing"
	"time"

	"inkwell/internal/models"
)

func uintPtr(v uint) *uint {
	return &v
}

// flatList 构造一个时间升序的扁平评论列表
func flatList(entries ...models.Comment) []models.Comment {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for i := range entries {
		entries[i].CreatedAt = base.Add(time.Duration(i) * time.Minute)
	}
	return entries
}

func TestBuildForestStructure(t *testing.T) {
	list := flatList(
		models.Comment{ID: 1},
		models.Comment{ID: 2, ParentID: uintPtr(1)},
		models.Comment{ID: 3},
		models.Comment{ID: 4, ParentID: uintPtr(2)},
		models.Comment{ID: 5, ParentID: uintPtr(1)},
	)

	roots := BuildForest(list)

	if len(roots) != 2 {
		t.Fatalf("expected 2 roots, got %d", len(roots))
	}
	if roots[0].Comment.ID != 1 || roots[1].Comment.ID != 3 {
		t.Errorf("roots out of order: got %d, %d", roots[0].Comment.ID, roots[1].Comment.ID)
	}

	first := roots[0]
	if len(first.Children) != 2 {
		t.Fatalf("expected 2 children under root 1, got %d", len(first.Children))
	}
	if first.Children[0].Comment.ID != 2 || first.Children[1].Comment.ID != 5 {
		t.Errorf("children out of order: got %d, %d", first.Children[0].Comment.ID, first.Children[1].Comment.ID)
	}
	if len(first.Children[0].Children) != 1 || first.Children[0].Children[0].Comment.ID != 4 {
		t.Errorf("grandchild not attached under comment 2")
	}
}

func TestBuildForestDeterminism(t *testing.T) {
	list := flatList(
		models.Comment{ID: 1},
		models.Comment{ID: 2, ParentID: uintPtr(1)},
		models.Comment{ID: 3, ParentID: uintPtr(2)},
		models.Comment{ID: 4},
	)

	collect := func(roots []*Node) []uint {
		var ids []uint
		Walk(roots, func(n *Node) { ids = append(ids, n.Comment.ID) })
		return ids
	}

	a := collect(BuildForest(list))
	b := collect(BuildForest(list))
	if !reflect.DeepEqual(a, b) {
		t.Errorf("two builds of the same list differ: %v vs %v", a, b)
	}
}

func TestBuildForestNoLossNoDuplication(t *testing.T) {
	list := flatList(
		models.Comment{ID: 1},
		models.Comment{ID: 2, ParentID: uintPtr(1)},
		models.Comment{ID: 3, ParentID: uintPtr(99)}, // 孤儿
		models.Comment{ID: 4, ParentID: uintPtr(2)},
		models.Comment{ID: 5},
	)

	roots := BuildForest(list)

	seen := make(map[uint]int)
	Walk(roots, func(n *Node) { seen[n.Comment.ID]++ })

	if len(seen) != len(list) {
		t.Fatalf("expected %d distinct nodes, got %d", len(list), len(seen))
	}
	for id, n := range seen {
		if n != 1 {
			t.Errorf("comment %d appears %d times, want exactly 1", id, n)
		}
	}
}

func TestBuildForestDepth(t *testing.T) {
	list := flatList(
		models.Comment{ID: 1},
		models.Comment{ID: 2, ParentID: uintPtr(1)},
		models.Comment{ID: 3, ParentID: uintPtr(2)},
		models.Comment{ID: 4, ParentID: uintPtr(3)},
	)

	roots := BuildForest(list)

	want := map[uint]int{1: 0, 2: 1, 3: 2, 4: 3}
	Walk(roots, func(n *Node) {
		if n.Depth != want[n.Comment.ID] {
			t.Errorf("comment %d: depth = %d, want %d", n.Comment.ID, n.Depth, want[n.Comment.ID])
		}
	})
}

func TestBuildForestOrphanPromotion(t *testing.T) {
	list := flatList(
		models.Comment{ID: 1},
		models.Comment{ID: 2, ParentID: uintPtr(1)},
		models.Comment{ID: 3, ParentID: uintPtr(42)}, // 父评论已删除
	)

	roots := BuildForest(list)

	if len(roots) != 2 {
		t.Fatalf("expected orphan to be promoted to root, got %d roots", len(roots))
	}
	orphan := roots[1]
	if orphan.Comment.ID != 3 || orphan.Depth != 0 {
		t.Errorf("orphan: id = %d depth = %d, want id 3 depth 0", orphan.Comment.ID, orphan.Depth)
	}
}

func TestBuildForestEmpty(t *testing.T) {
	roots := BuildForest(nil)
	if len(roots) != 0 {
		t.Errorf("expected empty forest, got %d roots", len(roots))
	}
}

func TestReplyAndCollapsePolicy(t *testing.T) {
	tests := []struct {
		depth     int
		canReply  bool
		collapsed bool
	}{
		{0, true, false},
		{1, true, false},
		{2, true, false},
		{3, true, true},
		{4, false, true},
		{5, false, true},
	}

	for _, tt := range tests {
		if got := CanReply(tt.depth); got != tt.canReply {
			t.Errorf("CanReply(%d) = %v, want %v", tt.depth, got, tt.canReply)
		}
		if got := Collapsed(tt.depth); got != tt.collapsed {
			t.Errorf("Collapsed(%d) = %v, want %v", tt.depth, got, tt.collapsed)
		}
	}
}

func TestVisibleRoots(t *testing.T) {
	list := flatList(
		models.Comment{ID: 1},
		models.Comment{ID: 2},
		models.Comment{ID: 3},
		models.Comment{ID: 4},
	)
	roots := BuildForest(list)

	visible := VisibleRoots(roots, DefaultRootWindow, false)
	if len(visible) != 2 {
		t.Fatalf("expected trailing window of 2 roots, got %d", len(visible))
	}
	if visible[0].Comment.ID != 3 || visible[1].Comment.ID != 4 {
		t.Errorf("window should keep the last roots, got %d, %d", visible[0].Comment.ID, visible[1].Comment.ID)
	}

	all := VisibleRoots(roots, DefaultRootWindow, true)
	if len(all) != 4 {
		t.Errorf("showAll should disclose every root, got %d", len(all))
	}

	few := VisibleRoots(roots[:1], DefaultRootWindow, false)
	if len(few) != 1 {
		t.Errorf("window larger than forest should be a no-op, got %d", len(few))
	}
}

func TestCardVariants(t *testing.T) {
	list := flatList(
		models.Comment{ID: 1, AuthorName: "Ada", AuthorEmail: "ada@example.com"},
		models.Comment{ID: 2, ParentID: uintPtr(1), AuthorName: "Ops", AuthorEmail: "ops@example.com", IsAdminReply: true},
	)
	roots := BuildForest(list)

	public := NewCards(roots, VariantPublicFull)
	if public[0].AuthorEmail != "" || public[0].Children[0].AuthorEmail != "" {
		t.Errorf("public variant must never carry author emails")
	}

	admin := NewCards(roots, VariantAdminFull)
	if admin[0].AuthorEmail != "ada@example.com" {
		t.Errorf("admin variant should carry the email, got %q", admin[0].AuthorEmail)
	}
	if !admin[0].Children[0].IsAdminReply {
		t.Errorf("admin reply flag lost on child card")
	}

	if !VariantAdminCompact.IsAdmin() || !VariantAdminCompact.IsCompact() {
		t.Errorf("VariantAdminCompact misclassified")
	}
	if VariantPublicFull.IsAdmin() || VariantPublicFull.IsCompact() {
		t.Errorf("VariantPublicFull misclassified")
	}
}

func TestCardChildrenCollapsed(t *testing.T) {
	// 1 ← 2 ← 3 ← 4：深度 0..3，深度 3 已超过折叠阈值
	list := flatList(
		models.Comment{ID: 1},
		models.Comment{ID: 2, ParentID: uintPtr(1)},
		models.Comment{ID: 3, ParentID: uintPtr(2)},
		models.Comment{ID: 4, ParentID: uintPtr(3)},
	)
	cards := NewCards(BuildForest(list), VariantPublicFull)

	root := cards[0]
	if root.ChildrenCollapsed {
		t.Errorf("depth-1 replies should be visible by default")
	}
	d1 := root.Children[0]
	if d1.ChildrenCollapsed {
		t.Errorf("depth-2 replies should be visible by default")
	}
	d2 := d1.Children[0]
	if !d2.ChildrenCollapsed {
		t.Errorf("replies beyond depth %d should start collapsed", CollapseDepth)
	}
	// 折叠只影响展示，子卡片本身必须存在，展开后可见
	if len(d2.Children) != 1 || d2.Children[0].ID != 4 {
		t.Fatalf("collapsed subtree lost its cards: %+v", d2.Children)
	}
	if d2.Children[0].ChildrenCollapsed {
		t.Errorf("leaf card has no children to collapse")
	}
}
