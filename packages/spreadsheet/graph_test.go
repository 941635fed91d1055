package spreadsheet

import (
	"slices"
	"testing"
)

func TestDependencyGraphEdges(t *testing.T) {
	dg := NewDependencyGraph()
	dg.SetDependencies("C1", []CellID{"A1", "B1"})
	dg.SetDependencies("B1", []CellID{"A1"})

	if got := dg.GetDirectDependents("A1"); !slices.Equal(got, []CellID{"B1", "C1"}) {
		t.Errorf("GetDirectDependents(A1) = %v", got)
	}
	if got := dg.GetDirectPrecedents("C1"); !slices.Equal(got, []CellID{"A1", "B1"}) {
		t.Errorf("GetDirectPrecedents(C1) = %v", got)
	}

	// replacing edges drops the old ones
	dg.SetDependencies("C1", []CellID{"B1"})
	if got := dg.GetDirectDependents("A1"); !slices.Equal(got, []CellID{"B1"}) {
		t.Errorf("after SetDependencies, GetDirectDependents(A1) = %v", got)
	}

	dg.ClearDependencies("B1")
	if got := dg.GetDirectDependents("A1"); len(got) != 0 {
		t.Errorf("after ClearDependencies, GetDirectDependents(A1) = %v", got)
	}
	if _, ok := dg.GetNode("A1"); ok {
		t.Errorf("A1 should be cleaned up once it has no edges")
	}
	if !dg.RemoveCellDependency("C1", "B1") {
		t.Errorf("RemoveCellDependency(C1, B1) = false")
	}
	if dg.NodeCount() != 0 {
		t.Errorf("NodeCount() = %d, want 0", dg.NodeCount())
	}
}

func TestDependencyGraphTransitive(t *testing.T) {
	dg := NewDependencyGraph()
	dg.SetDependencies("B1", []CellID{"A1"})
	dg.SetDependencies("C1", []CellID{"B1"})
	dg.SetDependencies("A2", []CellID{"C1"})

	if got := dg.GetAllDependents("A1"); !slices.Equal(got, []CellID{"B1", "C1", "A2"}) {
		t.Errorf("GetAllDependents(A1) = %v", got)
	}

	order, cycle := dg.GetCalculationOrder()
	if cycle {
		t.Fatalf("unexpected cycle")
	}
	index := func(id CellID) int { return slices.Index(order, id) }
	if !(index("A1") < index("B1") && index("B1") < index("C1") && index("C1") < index("A2")) {
		t.Errorf("GetCalculationOrder() = %v", order)
	}
}

func TestDependencyGraphCycle(t *testing.T) {
	dg := NewDependencyGraph()
	dg.SetDependencies("A1", []CellID{"B1"})
	dg.SetDependencies("B1", []CellID{"A1"})
	if !dg.HasCycle() {
		t.Errorf("HasCycle() = false")
	}
	if got := dg.GetAllDependents("A1"); !slices.Equal(got, []CellID{"A1", "B1"}) {
		t.Errorf("GetAllDependents(A1) = %v", got)
	}
}

func TestDependencyGraphRebuild(t *testing.T) {
	dg := NewDependencyGraph()
	dg.SetDependencies("Z9", []CellID{"Y9"})

	cells := map[CellID]Cell{
		"A1": {ID: "A1", Value: Number(1)},
		"B1": {ID: "B1", Formula: &Formula{Raw: "=A1", Expression: "A1", Dependencies: []CellID{"A1"}}},
	}
	dg.Rebuild(cells)

	if _, ok := dg.GetNode("Z9"); ok {
		t.Errorf("Rebuild kept a stale node")
	}
	if got := dg.GetDirectDependents("A1"); !slices.Equal(got, []CellID{"B1"}) {
		t.Errorf("GetDirectDependents(A1) = %v", got)
	}
}

func TestDirtyCellsOrder(t *testing.T) {
	dg := NewDependencyGraph()
	for _, id := range []CellID{"B2", "A10", "C1", "A2"} {
		dg.MarkDirty(id)
	}
	if got := dg.DirtyCells(); !slices.Equal(got, []CellID{"C1", "A2", "B2", "A10"}) {
		t.Errorf("DirtyCells() = %v", got)
	}
	dg.ClearDirty("C1")
	if dg.IsDirty("C1") || !dg.IsDirty("A2") {
		t.Errorf("ClearDirty mismatch")
	}
	dg.ClearAllDirty()
	if len(dg.DirtyCells()) != 0 {
		t.Errorf("ClearAllDirty left cells behind")
	}
}
