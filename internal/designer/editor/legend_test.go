package editor

import (
	"fmt"
	"testing"

	"floorplan-studio/internal/designer/models"
)

func newLegend(t *testing.T) (*LegendManager, *Session, *int) {
	t.Helper()
	s := NewSession()
	s.Floorplans = []*models.Floorplan{{
		ID: 1,
		Rooms: []*models.Room{
			{ID: 101, Name: "Kitchen", X: 0, Y: 0, Width: 30, Height: 30},
			{ID: 102, Name: "Hall", X: 40, Y: 0, Width: 30, Height: 30},
		},
	}}
	dirty := 0
	s.OnMutate(func() { dirty++ })
	return NewLegendManager(s), s, &dirty
}

func TestAdd_AssignsSequentialSortOrder(t *testing.T) {
	m, s, dirty := newLegend(t)
	a, err := m.Add("#FF0000", " Bedrooms ")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	b, _ := m.Add("#00FF00", "Baths")
	if a.SortOrder != 0 || b.SortOrder != 1 {
		t.Fatalf("unexpected sort orders %d,%d", a.SortOrder, b.SortOrder)
	}
	if a.Label != "Bedrooms" {
		t.Fatalf("label should be trimmed: %q", a.Label)
	}
	if len(s.KeyEntries) != 2 || *dirty != 2 {
		t.Fatalf("adds should append and mark dirty")
	}
}

func TestAdd_RejectsBadInput(t *testing.T) {
	m, _, dirty := newLegend(t)
	if _, err := m.Add("#FF0000", "   "); err == nil {
		t.Fatalf("blank label should fail")
	}
	if _, err := m.Add("red", "Bedrooms"); err == nil {
		t.Fatalf("non-hex color should fail")
	}
	if *dirty != 0 {
		t.Fatalf("rejected adds must not mark dirty")
	}
}

func TestAdd_EnforcesCap(t *testing.T) {
	m, _, _ := newLegend(t)
	for i := 0; i < models.MaxKeyEntries; i++ {
		if _, err := m.Add("#112233", fmt.Sprintf("Entry %d", i)); err != nil {
			t.Fatalf("add %d: %v", i, err)
		}
	}
	if _, err := m.Add("#112233", "Over the line"); err == nil {
		t.Fatalf("entry %d should exceed the cap", models.MaxKeyEntries)
	}
}

func TestReorder_SplicesList(t *testing.T) {
	m, s, _ := newLegend(t)
	a, _ := m.Add("#111111", "A")
	b, _ := m.Add("#222222", "B")
	c, _ := m.Add("#333333", "C")

	m.Reorder(0, 2)
	got := []*models.KeyEntry{s.KeyEntries[0], s.KeyEntries[1], s.KeyEntries[2]}
	if got[0] != b || got[1] != c || got[2] != a {
		t.Fatalf("unexpected order after reorder: %q %q %q", got[0].Label, got[1].Label, got[2].Label)
	}

	m.Reorder(2, 0)
	if s.KeyEntries[0] != a {
		t.Fatalf("reorder back failed")
	}

	m.Reorder(0, 5) // out of range: no-op
	if s.KeyEntries[0] != a {
		t.Fatalf("out-of-range reorder should be ignored")
	}
}

func TestDelete_CascadesHighlightsAndDisarms(t *testing.T) {
	m, s, dirty := newLegend(t)
	a, _ := m.Add("#111111", "A")
	b, _ := m.Add("#222222", "B")

	m.Arm(a.ClientID)
	m.PaintRoom(101)
	m.Arm(b.ClientID)
	m.PaintRoom(102)
	*dirty = 0

	m.Arm(a.ClientID)
	m.Delete(a.ClientID)

	if _, ok := s.Highlights[101]; ok {
		t.Fatalf("deleting an entry should clear its highlights eagerly")
	}
	if s.Highlights[102] != b.ClientID {
		t.Fatalf("other entries' highlights must survive")
	}
	if m.Armed() != 0 {
		t.Fatalf("deleting the armed entry should disarm")
	}
	if *dirty != 1 {
		t.Fatalf("delete should mark dirty once, got %d", *dirty)
	}
}

func TestPaintRoom_TogglesArmedEntry(t *testing.T) {
	m, s, _ := newLegend(t)
	a, _ := m.Add("#111111", "A")
	b, _ := m.Add("#222222", "B")

	m.Arm(a.ClientID)
	m.PaintRoom(101)
	if s.Highlights[101] != a.ClientID {
		t.Fatalf("paint should assign the armed entry")
	}

	// same entry again: toggle off.
	m.PaintRoom(101)
	if _, ok := s.Highlights[101]; ok {
		t.Fatalf("repainting with the same entry should clear")
	}

	// painted with a, then clicked with b armed: repaint, not toggle.
	m.PaintRoom(101)
	m.Arm(b.ClientID)
	m.PaintRoom(101)
	if s.Highlights[101] != b.ClientID {
		t.Fatalf("painting over should switch entries")
	}
}

func TestPaintRoom_RequiresArmAndKnownRoom(t *testing.T) {
	m, s, dirty := newLegend(t)
	a, _ := m.Add("#111111", "A")
	*dirty = 0

	m.PaintRoom(101) // nothing armed
	if len(s.Highlights) != 0 || *dirty != 0 {
		t.Fatalf("painting without an armed entry should be ignored")
	}

	m.Arm(a.ClientID)
	m.PaintRoom(999) // unknown room
	if len(s.Highlights) != 0 {
		t.Fatalf("painting an unknown room should be ignored")
	}
}

func TestEdit_UpdatesInPlace(t *testing.T) {
	m, _, _ := newLegend(t)
	a, _ := m.Add("#111111", "A")

	if err := m.Edit(a.ClientID, "#ABCDEF", " New Label "); err != nil {
		t.Fatalf("edit: %v", err)
	}
	if a.ColorHex != "#ABCDEF" || a.Label != "New Label" {
		t.Fatalf("edit should mutate in place: %+v", a)
	}
	if err := m.Edit(a.ClientID, "bad", "x"); err == nil {
		t.Fatalf("invalid color should fail")
	}
	if err := m.Edit(999, "#111111", "x"); err == nil {
		t.Fatalf("unknown entry should fail")
	}
}
