package editor

import (
	"math"

	"floorplan-studio/internal/designer/models"
	"floorplan-studio/internal/designer/viewport"
)

// ============================================================
// Icon Editor
// ============================================================

const (
	// GridSize is the snap grid pitch in content pixels.
	GridSize = 24

	defaultIconSize = 48
	minIconSize     = 16
	duplicateOffset = 16
)

type iconMode interface{ isIconMode() }

type iconIdle struct{}

type iconPlacing struct {
	libraryID int64
}

type iconDragKind int

const (
	iconDragMove iconDragKind = iota
	iconDragResize
	iconDragRotate
)

type iconDragging struct {
	icon    *models.IconPlacement
	kind    iconDragKind
	startPt models.Point // screen space
	orig    models.IconPlacement
	center  models.Point // screen space, rotate only
}

func (iconIdle) isIconMode()      {}
func (iconPlacing) isIconMode()   {}
func (*iconDragging) isIconMode() {}

// IconEditor owns the session's placed-icon list. Placement coordinates
// are content pixels; pointer positions arrive in screen space and are
// divided by the viewport scale.
type IconEditor struct {
	s        *Session
	view     *viewport.Viewport
	mode     iconMode
	selected int // ClientID, 0 = none
}

func NewIconEditor(s *Session, view *viewport.Viewport) *IconEditor {
	return &IconEditor{s: s, view: view, mode: iconIdle{}}
}

func (e *IconEditor) Selected() int { return e.selected }

func (e *IconEditor) Select(id int) {
	if e.s.IconByClientID(id) != nil {
		e.selected = id
	}
}

func (e *IconEditor) Deselect() { e.selected = 0 }

// snap rounds to the grid when grid mode is on.
func (e *IconEditor) snap(val float64) float64 {
	if !e.s.GridMode {
		return val
	}
	return math.Round(val/GridSize) * GridSize
}

// ============================================================
// Placement
// ============================================================

// EnterPlacement arms placement of a catalog icon; the next canvas click
// places it.
func (e *IconEditor) EnterPlacement(libraryID int64) {
	if e.s.CatalogEntry(libraryID) == nil {
		return
	}
	e.selected = 0
	e.mode = iconPlacing{libraryID: libraryID}
}

func (e *IconEditor) ExitPlacement() {
	if _, ok := e.mode.(iconPlacing); ok {
		e.mode = iconIdle{}
	}
}

func (e *IconEditor) Placing() (int64, bool) {
	p, ok := e.mode.(iconPlacing)
	if !ok {
		return 0, false
	}
	return p.libraryID, true
}

// PlaceAt drops the armed icon centered on the content point: offset by
// half the default size, grid-snapped when grid mode is active. The
// placement remembers whether it was free-placed.
func (e *IconEditor) PlaceAt(contentX, contentY float64) *models.IconPlacement {
	p, ok := e.mode.(iconPlacing)
	if !ok {
		return nil
	}
	e.s.mu.Lock()
	icon := &models.IconPlacement{
		ClientID:      e.s.nextIconID,
		IconLibraryID: p.libraryID,
		X:             e.snap(contentX - defaultIconSize/2),
		Y:             e.snap(contentY - defaultIconSize/2),
		Width:         defaultIconSize,
		Height:        defaultIconSize,
		FreePlaced:    !e.s.GridMode,
		ZOrder:        len(e.s.Icons),
	}
	e.s.nextIconID++
	e.s.Icons = append(e.s.Icons, icon)
	e.s.mu.Unlock()
	e.mode = iconIdle{}
	e.selected = icon.ClientID
	e.s.markDirty()
	return icon
}

// ============================================================
// Move / resize / rotate
// ============================================================

func (e *IconEditor) StartMove(id int, screenPt models.Point) {
	icon := e.s.IconByClientID(id)
	if icon == nil {
		return
	}
	e.selected = id
	e.mode = &iconDragging{icon: icon, kind: iconDragMove, startPt: screenPt, orig: *icon}
}

func (e *IconEditor) StartResize(id int, screenPt models.Point) {
	icon := e.s.IconByClientID(id)
	if icon == nil {
		return
	}
	e.selected = id
	e.mode = &iconDragging{icon: icon, kind: iconDragResize, startPt: screenPt, orig: *icon}
}

// StartRotate begins rotating around the icon's on-screen center.
func (e *IconEditor) StartRotate(id int, screenCenter models.Point) {
	icon := e.s.IconByClientID(id)
	if icon == nil {
		return
	}
	e.selected = id
	e.mode = &iconDragging{icon: icon, kind: iconDragRotate, orig: *icon, center: screenCenter}
}

// PointerMove applies the current pointer position to an active drag.
// modifier releases the aspect-ratio lock during a resize.
func (e *IconEditor) PointerMove(screenPt models.Point, modifier bool) {
	d, ok := e.mode.(*iconDragging)
	if !ok {
		return
	}

	e.s.mu.Lock()
	defer e.s.mu.Unlock()

	switch d.kind {
	case iconDragMove:
		dx, dy := e.view.ContentDelta(screenPt.X-d.startPt.X, screenPt.Y-d.startPt.Y)
		d.icon.X = e.snap(d.orig.X + dx)
		d.icon.Y = e.snap(d.orig.Y + dy)

	case iconDragResize:
		dx, dy := e.view.ContentDelta(screenPt.X-d.startPt.X, screenPt.Y-d.startPt.Y)
		if modifier {
			d.icon.Width = math.Max(minIconSize, d.orig.Width+dx)
			d.icon.Height = math.Max(minIconSize, d.orig.Height+dy)
			return
		}
		// Aspect-preserving: the dominant axis drives both dimensions.
		delta := dx
		if math.Abs(dy) > math.Abs(dx) {
			delta = dy
		}
		size := math.Max(minIconSize, d.orig.Width+delta)
		d.icon.Width = size
		d.icon.Height = size

	case iconDragRotate:
		angle := math.Atan2(screenPt.Y-d.center.Y, screenPt.X-d.center.X)*180/math.Pi + 90
		if e.s.GridMode {
			d.icon.Rotation = math.Round(angle/15) * 15
		} else {
			d.icon.Rotation = math.Round(angle*10) / 10
		}
	}
}

// PointerUp ends an active drag as a terminal mutation.
func (e *IconEditor) PointerUp() {
	if _, ok := e.mode.(*iconDragging); !ok {
		return
	}
	e.mode = iconIdle{}
	e.s.markDirty()
}

// ============================================================
// Duplicate / delete
// ============================================================

// Duplicate clones the icon with a fixed offset and stacks it on top.
func (e *IconEditor) Duplicate(id int) *models.IconPlacement {
	orig := e.s.IconByClientID(id)
	if orig == nil {
		return nil
	}
	e.s.mu.Lock()
	clone := *orig
	clone.ClientID = e.s.nextIconID
	e.s.nextIconID++
	clone.X += duplicateOffset
	clone.Y += duplicateOffset
	clone.ZOrder = len(e.s.Icons)
	e.s.Icons = append(e.s.Icons, &clone)
	e.s.mu.Unlock()
	e.selected = clone.ClientID
	e.s.markDirty()
	return &clone
}

func (e *IconEditor) Delete(id int) {
	for i, ic := range e.s.Icons {
		if ic.ClientID == id {
			e.s.mu.Lock()
			e.s.Icons = append(e.s.Icons[:i], e.s.Icons[i+1:]...)
			e.s.mu.Unlock()
			if e.selected == id {
				e.selected = 0
			}
			e.s.markDirty()
			return
		}
	}
}

// ============================================================
// Z-order
// ============================================================

// Restacking only ever shifts the target icon's ZOrder relative to its
// neighbours' extremes. Other icons are never renumbered, so values may
// grow sparse or negative over time; render order is by value with
// insertion order breaking ties.

func (e *IconEditor) BringToFront(id int) {
	icon := e.s.IconByClientID(id)
	if icon == nil {
		return
	}
	e.s.mu.Lock()
	max := icon.ZOrder
	for _, ic := range e.s.Icons {
		if ic.ZOrder > max {
			max = ic.ZOrder
		}
	}
	icon.ZOrder = max + 1
	e.s.mu.Unlock()
	e.s.markDirty()
}

func (e *IconEditor) SendToBack(id int) {
	icon := e.s.IconByClientID(id)
	if icon == nil {
		return
	}
	e.s.mu.Lock()
	min := icon.ZOrder
	for _, ic := range e.s.Icons {
		if ic.ZOrder < min {
			min = ic.ZOrder
		}
	}
	icon.ZOrder = min - 1
	e.s.mu.Unlock()
	e.s.markDirty()
}

// BringForward lifts the icon just above the next value strictly above
// its own. No-op when already on top.
func (e *IconEditor) BringForward(id int) {
	icon := e.s.IconByClientID(id)
	if icon == nil {
		return
	}
	e.s.mu.Lock()
	next := math.MaxInt
	for _, ic := range e.s.Icons {
		if ic.ZOrder > icon.ZOrder && ic.ZOrder < next {
			next = ic.ZOrder
		}
	}
	if next == math.MaxInt {
		e.s.mu.Unlock()
		return
	}
	icon.ZOrder = next + 1
	e.s.mu.Unlock()
	e.s.markDirty()
}

// SendBackward drops the icon just below the next value strictly below
// its own. No-op when already at the back.
func (e *IconEditor) SendBackward(id int) {
	icon := e.s.IconByClientID(id)
	if icon == nil {
		return
	}
	e.s.mu.Lock()
	prev := math.MinInt
	for _, ic := range e.s.Icons {
		if ic.ZOrder < icon.ZOrder && ic.ZOrder > prev {
			prev = ic.ZOrder
		}
	}
	if prev == math.MinInt {
		e.s.mu.Unlock()
		return
	}
	icon.ZOrder = prev - 1
	e.s.mu.Unlock()
	e.s.markDirty()
}
