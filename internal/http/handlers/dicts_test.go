package handlers

import "testing"

func TestBuildDictTree(t *testing.T) {
	p1 := int64(1)
	p2 := int64(2)

	parents := []dictRecord{
		{ID: 1, Label: "payment-method", Value: "payment-method"},
		{ID: 2, Label: "area-type", Value: "area-type"},
		{ID: 3, Label: "empty-group", Value: "empty-group"},
	}
	children := []dictRecord{
		{ID: 10, Label: "cash", Value: "cash", ParentID: &p1},
		{ID: 11, Label: "card", Value: "card", ParentID: &p1},
		{ID: 12, Label: "room", Value: "room", ParentID: &p2},
		{ID: 13, Label: "orphan", Value: "orphan", ParentID: nil},
	}

	tree := buildDictTree(parents, children)

	if len(tree) != 3 {
		t.Fatalf("expected 3 parents, got %d", len(tree))
	}
	if len(tree[0].Children) != 2 {
		t.Fatalf("expected 2 children under first parent, got %d", len(tree[0].Children))
	}
	if tree[0].Children[0].ID != 10 || tree[0].Children[1].ID != 11 {
		t.Fatalf("children order not preserved: %v", tree[0].Children)
	}
	if len(tree[1].Children) != 1 || tree[1].Children[0].Label != "room" {
		t.Fatalf("expected one child under second parent, got %v", tree[1].Children)
	}
	if tree[2].Children == nil || len(tree[2].Children) != 0 {
		t.Fatalf("expected empty (non-nil) children for childless parent, got %v", tree[2].Children)
	}
}

func TestDictIDs(t *testing.T) {
	records := []dictRecord{{ID: 7}, {ID: 8}, {ID: 9}}
	ids := dictIDs(records)
	if len(ids) != 3 || ids[0] != 7 || ids[2] != 9 {
		t.Fatalf("unexpected ids %v", ids)
	}
	if got := dictIDs(nil); len(got) != 0 {
		t.Fatalf("expected empty ids for nil input, got %v", got)
	}
}
