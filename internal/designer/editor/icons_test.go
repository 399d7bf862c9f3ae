package editor

import (
	"testing"

	"floorplan-studio/internal/designer/models"
	"floorplan-studio/internal/designer/viewport"
)

func newIconEditor(t *testing.T) (*IconEditor, *Session, *int) {
	t.Helper()
	s := NewSession()
	s.Catalog = []models.IconLibraryEntry{
		{ID: 1, Label: "Chair", Category: "Furniture"},
		{ID: 2, Label: "Sofa", Category: "Furniture"},
	}
	dirty := 0
	s.OnMutate(func() { dirty++ })
	return NewIconEditor(s, viewport.New()), s, &dirty
}

func place(t *testing.T, e *IconEditor, libraryID int64, x, y float64) *models.IconPlacement {
	t.Helper()
	e.EnterPlacement(libraryID)
	icon := e.PlaceAt(x, y)
	if icon == nil {
		t.Fatalf("placement failed")
	}
	return icon
}

func TestPlaceAt_SnapsToGridAndCenters(t *testing.T) {
	e, _, dirty := newIconEditor(t)
	icon := place(t, e, 1, 100, 100)
	// 100 - 24 = 76, snapped to the 24px grid -> 72.
	if icon.X != 72 || icon.Y != 72 {
		t.Fatalf("unexpected snap position %v,%v", icon.X, icon.Y)
	}
	if icon.Width != 48 || icon.Height != 48 {
		t.Fatalf("unexpected default size %v,%v", icon.Width, icon.Height)
	}
	if icon.FreePlaced {
		t.Fatalf("grid-mode placement should not be free-placed")
	}
	if *dirty != 1 {
		t.Fatalf("placement should mark dirty once, got %d", *dirty)
	}
	if e.Selected() != icon.ClientID {
		t.Fatalf("new icon should be selected")
	}
}

func TestPlaceAt_FreeModeKeepsExactPosition(t *testing.T) {
	e, s, _ := newIconEditor(t)
	s.GridMode = false
	icon := place(t, e, 1, 100, 103)
	if icon.X != 76 || icon.Y != 79 {
		t.Fatalf("free placement should not snap: %v,%v", icon.X, icon.Y)
	}
	if !icon.FreePlaced {
		t.Fatalf("free-mode placement should be flagged free-placed")
	}
}

func TestEnterPlacement_UnknownIconIgnored(t *testing.T) {
	e, _, _ := newIconEditor(t)
	e.EnterPlacement(99)
	if _, armed := e.Placing(); armed {
		t.Fatalf("unknown catalog id must not arm placement")
	}
}

func TestPointerMove_ResizeUniformByDominantAxis(t *testing.T) {
	e, _, _ := newIconEditor(t)
	icon := place(t, e, 1, 100, 100)

	e.StartResize(icon.ClientID, models.Point{X: 0, Y: 0})
	e.PointerMove(models.Point{X: 10, Y: 30}, false)
	if icon.Width != 78 || icon.Height != 78 {
		t.Fatalf("dominant axis should drive both dimensions: %v,%v", icon.Width, icon.Height)
	}

	e.PointerMove(models.Point{X: -100, Y: -100}, false)
	if icon.Width != 16 || icon.Height != 16 {
		t.Fatalf("resize should floor at the minimum size: %v,%v", icon.Width, icon.Height)
	}
	e.PointerUp()
}

func TestPointerMove_ResizeModifierUnlocksAspect(t *testing.T) {
	e, _, _ := newIconEditor(t)
	icon := place(t, e, 1, 100, 100)

	e.StartResize(icon.ClientID, models.Point{X: 0, Y: 0})
	e.PointerMove(models.Point{X: 10, Y: 30}, true)
	e.PointerUp()
	if icon.Width != 58 || icon.Height != 78 {
		t.Fatalf("modifier resize should scale axes independently: %v,%v", icon.Width, icon.Height)
	}
}

func TestPointerMove_RotationSnapsByMode(t *testing.T) {
	e, s, _ := newIconEditor(t)
	icon := place(t, e, 1, 100, 100)

	// pointer straight right of center: atan2 = 0, +90 = 90deg.
	e.StartRotate(icon.ClientID, models.Point{X: 50, Y: 50})
	e.PointerMove(models.Point{X: 100, Y: 57}, false) // ~7.97deg + 90
	e.PointerUp()
	if icon.Rotation != 105 {
		t.Fatalf("grid mode should snap to 15deg steps, got %v", icon.Rotation)
	}

	s.GridMode = false
	e.StartRotate(icon.ClientID, models.Point{X: 50, Y: 50})
	e.PointerMove(models.Point{X: 100, Y: 57}, false)
	e.PointerUp()
	if icon.Rotation != 98 {
		t.Fatalf("free mode should snap to 0.1deg, got %v", icon.Rotation)
	}
}

func TestDuplicate_OffsetsAndStacksOnTop(t *testing.T) {
	e, s, dirty := newIconEditor(t)
	a := place(t, e, 1, 100, 100)
	place(t, e, 2, 200, 200)
	*dirty = 0

	clone := e.Duplicate(a.ClientID)
	if clone == nil || clone.ClientID == a.ClientID {
		t.Fatalf("duplicate should mint a new id")
	}
	if clone.X != a.X+16 || clone.Y != a.Y+16 {
		t.Fatalf("duplicate should offset by 16px: %v,%v", clone.X, clone.Y)
	}
	if clone.ZOrder != 2 {
		t.Fatalf("duplicate should stack on top, got z=%d", clone.ZOrder)
	}
	if len(s.Icons) != 3 || *dirty != 1 {
		t.Fatalf("duplicate should append and mark dirty")
	}
}

func TestBringToFront_IncludesSelfInMax(t *testing.T) {
	e, _, _ := newIconEditor(t)
	a := place(t, e, 1, 0, 0)   // z=0
	b := place(t, e, 1, 50, 50) // z=1

	e.BringToFront(b.ClientID)
	if b.ZOrder != 2 {
		t.Fatalf("topmost icon still moves above its own max: got %d", b.ZOrder)
	}
	e.BringToFront(a.ClientID)
	if a.ZOrder != 3 {
		t.Fatalf("expected a above b, got %d", a.ZOrder)
	}
}

func TestSendToBack_GoesNegative(t *testing.T) {
	e, _, _ := newIconEditor(t)
	place(t, e, 1, 0, 0)        // z=0
	b := place(t, e, 1, 50, 50) // z=1

	e.SendToBack(b.ClientID)
	if b.ZOrder != -1 {
		t.Fatalf("send to back should go below the current min, got %d", b.ZOrder)
	}
	e.SendToBack(b.ClientID)
	if b.ZOrder != -2 {
		t.Fatalf("repeated send to back keeps descending, got %d", b.ZOrder)
	}
}

func TestBringForward_NoOpAtTop(t *testing.T) {
	e, _, dirty := newIconEditor(t)
	a := place(t, e, 1, 0, 0)   // z=0
	b := place(t, e, 1, 50, 50) // z=1
	*dirty = 0

	e.BringForward(b.ClientID)
	if b.ZOrder != 1 || *dirty != 0 {
		t.Fatalf("bring forward at top should be a no-op")
	}

	e.BringForward(a.ClientID)
	if a.ZOrder != 2 {
		t.Fatalf("bring forward should pass the next icon, got %d", a.ZOrder)
	}
}

func TestSendBackward_NoOpAtBottom(t *testing.T) {
	e, _, dirty := newIconEditor(t)
	a := place(t, e, 1, 0, 0)   // z=0
	b := place(t, e, 1, 50, 50) // z=1
	*dirty = 0

	e.SendBackward(a.ClientID)
	if a.ZOrder != 0 || *dirty != 0 {
		t.Fatalf("send backward at bottom should be a no-op")
	}

	e.SendBackward(b.ClientID)
	if b.ZOrder != -1 {
		t.Fatalf("send backward should drop below the next icon, got %d", b.ZOrder)
	}
}

func TestDelete_RemovesPlacement(t *testing.T) {
	e, s, dirty := newIconEditor(t)
	a := place(t, e, 1, 0, 0)
	b := place(t, e, 2, 50, 50)
	*dirty = 0

	e.Delete(a.ClientID)
	if len(s.Icons) != 1 || s.Icons[0] != b {
		t.Fatalf("expected only b to remain")
	}
	if *dirty != 1 {
		t.Fatalf("delete should mark dirty")
	}
}

func TestPointerMove_MoveSnapsDelta(t *testing.T) {
	e, _, _ := newIconEditor(t)
	icon := place(t, e, 1, 100, 100) // X=Y=72 on the grid

	e.StartMove(icon.ClientID, models.Point{X: 0, Y: 0})
	e.PointerMove(models.Point{X: 30, Y: 10}, false)
	e.PointerUp()
	if icon.X != 96 || icon.Y != 72 {
		t.Fatalf("moved icon should land on the grid: %v,%v", icon.X, icon.Y)
	}
}
