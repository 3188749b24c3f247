package model

import "testing"

func fractalFixture() []Turn {
	return []Turn{
		{ID: "root", ClaimID: "c1", AgentRole: RoleSystem, Round: 0},
		{ID: "phys", ClaimID: "c1", ParentID: "root", AgentRole: RoleSystem, Round: 1, BranchType: BranchPhysical},
		{ID: "phys-def", ClaimID: "c1", ParentID: "phys", AgentRole: RoleLawyer, Round: 2, BranchType: BranchPhysical},
		{ID: "phys-crit", ClaimID: "c1", ParentID: "phys", AgentRole: RoleAuditor, Round: 3, BranchType: BranchPhysical},
		{ID: "legal", ClaimID: "c1", ParentID: "root", AgentRole: RoleSystem, Round: 1, BranchType: BranchLegal},
		{ID: "legal-def", ClaimID: "c1", ParentID: "legal", AgentRole: RoleLawyer, Round: 2, BranchType: BranchLegal},
		{ID: "legal-crit", ClaimID: "c1", ParentID: "legal", AgentRole: RoleAuditor, Round: 3, BranchType: BranchLegal},
		{ID: "verdict", ClaimID: "c1", ParentID: "root", AgentRole: RoleVerdict, Round: 10},
	}
}

func TestBuildTree(t *testing.T) {
	roots := BuildTree(fractalFixture())

	if len(roots) != 1 {
		t.Fatalf("expected 1 root, got %d", len(roots))
	}
	if got := len(roots[0].Children); got != 3 {
		t.Fatalf("expected 3 children of root, got %d", got)
	}
	if roots[0].Children[0].Turn.ID != "phys" || len(roots[0].Children[0].Children) != 2 {
		t.Errorf("physical branch not rebuilt correctly: %+v", roots[0].Children[0])
	}
}

func TestBuildTree_OrphansBecomeRoots(t *testing.T) {
	turns := []Turn{
		{ID: "a", ClaimID: "c1", Round: 1},
		{ID: "b", ClaimID: "c1", ParentID: "missing", Round: 2},
	}

	roots := BuildTree(turns)
	if len(roots) != 2 {
		t.Errorf("expected 2 roots, got %d", len(roots))
	}
}

func TestPaths_RoundsNonDecreasing(t *testing.T) {
	paths := Paths(BuildTree(fractalFixture()))

	if len(paths) != 5 {
		t.Fatalf("expected 5 leaf paths, got %d", len(paths))
	}
	for _, path := range paths {
		for i := 1; i < len(path); i++ {
			if path[i].Round < path[i-1].Round {
				t.Errorf("round decreased along path: %v -> %v", path[i-1].Round, path[i].Round)
			}
		}
	}
}

func TestWalk_Depths(t *testing.T) {
	depths := map[string]int{}
	Walk(BuildTree(fractalFixture()), func(n *TurnNode, depth int) {
		depths[n.Turn.ID] = depth
	})

	if depths["root"] != 0 || depths["legal"] != 1 || depths["legal-crit"] != 2 || depths["verdict"] != 1 {
		t.Errorf("unexpected depths: %v", depths)
	}
}
