package editor

import (
	"math"
	"strings"

	"floorplan-studio/internal/designer/models"
)

// ============================================================
// Room Editor
// ============================================================

// Tool selects the active drawing shape.
type Tool int

const (
	ToolRectangle Tool = iota
	ToolPolygon
)

// closeRadiusPct: clicking this close (percent space, Euclidean) to the
// first vertex closes the polygon instead of adding a vertex.
const closeRadiusPct = 3.0

// minRoomSpanPct: rectangle draws and resizes below this span are treated
// as accidental.
const minRoomSpanPct = 1.0

// Drag handle names encode which edges move: n/s/e/w and corner
// combinations, matching the on-screen resize handles.
type Handle string

// Interaction mode as a tagged union. Exactly one mode is active; illegal
// flag combinations are unrepresentable.
type roomMode interface{ isRoomMode() }

type roomIdle struct{}

type roomDrawingRect struct {
	start models.Point
}

type roomDrawingPolygon struct {
	vertices []models.Point
}

type roomDragKind int

const (
	roomDragMove roomDragKind = iota
	roomDragResize
	roomDragVertex
)

type roomDragging struct {
	room        *models.Room
	kind        roomDragKind
	handle      Handle
	vertexIndex int
	startPt     models.Point
	startRoom   models.Room // value copy, vertices cloned
}

func (roomIdle) isRoomMode()            {}
func (roomDrawingRect) isRoomMode()     {}
func (*roomDrawingPolygon) isRoomMode() {}
func (*roomDragging) isRoomMode()       {}

// RoomEditor owns the room list of one floorplan (setup mode). All
// coordinates it receives are already in percent space; the viewport
// does screen conversion at the boundary.
type RoomEditor struct {
	rooms    []*models.Room
	nextID   int64
	selected int64 // room id, 0 = none
	tool     Tool
	mode     roomMode
	pending  *models.Room // draft awaiting its name
	onMutate func()
}

func NewRoomEditor(onMutate func()) *RoomEditor {
	return &RoomEditor{
		nextID:   1,
		mode:     roomIdle{},
		onMutate: onMutate,
	}
}

// Load seeds the editor with rooms already on the server. Server ids are
// kept; locally drawn rooms continue numbering past the highest loaded id.
func (e *RoomEditor) Load(rooms []models.Room) {
	e.rooms = e.rooms[:0]
	for _, r := range rooms {
		room := r
		if room.ID >= e.nextID {
			e.nextID = room.ID + 1
		}
		room.RecomputeBounds()
		e.rooms = append(e.rooms, &room)
	}
}

func (e *RoomEditor) Rooms() []*models.Room { return e.rooms }

func (e *RoomEditor) SetTool(t Tool) { e.tool = t }
func (e *RoomEditor) ActiveTool() Tool { return e.tool }

func (e *RoomEditor) markDirty() {
	if e.onMutate != nil {
		e.onMutate()
	}
}

// ============================================================
// Selection
// ============================================================

func (e *RoomEditor) Select(id int64) {
	if e.roomByID(id) != nil {
		e.selected = id
	}
}

func (e *RoomEditor) Deselect()       { e.selected = 0 }
func (e *RoomEditor) Selected() int64 { return e.selected }

func (e *RoomEditor) roomByID(id int64) *models.Room {
	for _, r := range e.rooms {
		if r.ID == id {
			return r
		}
	}
	return nil
}

// ============================================================
// Rectangle drawing
// ============================================================

// StartDraw begins a rectangle draw on pointer-down over empty canvas.
// Ignored for the polygon tool, which is click-driven.
func (e *RoomEditor) StartDraw(p models.Point) {
	if e.tool != ToolRectangle {
		return
	}
	if _, ok := e.mode.(roomIdle); !ok {
		return
	}
	e.selected = 0
	e.mode = roomDrawingRect{start: p}
}

// PreviewRect returns the rubber-band rectangle for the current pointer
// position, and false when no rectangle draw is active.
func (e *RoomEditor) PreviewRect(p models.Point) (models.Rect, bool) {
	d, ok := e.mode.(roomDrawingRect)
	if !ok {
		return models.Rect{}, false
	}
	return rectFromCorners(d.start, p), true
}

// EndDraw finishes the rectangle on pointer-up. Draws spanning less than
// 1% in either axis are accidental clicks and are discarded silently.
// Otherwise the draft waits for a name via CommitPending.
func (e *RoomEditor) EndDraw(p models.Point) bool {
	d, ok := e.mode.(roomDrawingRect)
	if !ok {
		return false
	}
	e.mode = roomIdle{}
	r := rectFromCorners(d.start, p)
	if r.Width < minRoomSpanPct || r.Height < minRoomSpanPct {
		return false
	}
	e.pending = &models.Room{X: r.X, Y: r.Y, Width: r.Width, Height: r.Height}
	return true
}

func rectFromCorners(a, b models.Point) models.Rect {
	return models.Rect{
		X:      math.Min(a.X, b.X),
		Y:      math.Min(a.Y, b.Y),
		Width:  math.Abs(b.X - a.X),
		Height: math.Abs(b.Y - a.Y),
	}
}

// ============================================================
// Polygon drawing
// ============================================================

// AddPolygonVertex records one click of a polygon draw. A click within
// the close radius of the first vertex closes the shape once at least
// three vertices exist; the closing click does not add a vertex. Returns
// true when the polygon closed and a draft is pending.
func (e *RoomEditor) AddPolygonVertex(p models.Point) bool {
	if e.tool != ToolPolygon {
		return false
	}
	d, ok := e.mode.(*roomDrawingPolygon)
	if !ok {
		e.selected = 0
		e.mode = &roomDrawingPolygon{vertices: []models.Point{p}}
		return false
	}
	if len(d.vertices) >= 3 && models.Distance(p, d.vertices[0]) < closeRadiusPct {
		return e.closePolygon(d.vertices)
	}
	d.vertices = append(d.vertices, p)
	return false
}

// ClosePolygonDoubleClick closes the in-progress polygon explicitly.
// The browser fires two click events before dblclick, so the last two
// synthetic vertices are popped before closing.
func (e *RoomEditor) ClosePolygonDoubleClick() bool {
	d, ok := e.mode.(*roomDrawingPolygon)
	if !ok {
		return false
	}
	verts := d.vertices
	if len(verts) >= 2 {
		verts = verts[:len(verts)-2]
	}
	return e.closePolygon(verts)
}

// PolygonDraft exposes the vertices collected so far, for preview.
func (e *RoomEditor) PolygonDraft() ([]models.Point, bool) {
	d, ok := e.mode.(*roomDrawingPolygon)
	if !ok {
		return nil, false
	}
	return d.vertices, true
}

// closePolygon commits the vertex list into a pending draft, or cancels
// the draw when fewer than three vertices remain.
func (e *RoomEditor) closePolygon(vertices []models.Point) bool {
	e.mode = roomIdle{}
	if len(vertices) < 3 {
		return false
	}
	room := &models.Room{Vertices: append([]models.Point(nil), vertices...)}
	room.RecomputeBounds()
	e.pending = room
	return true
}

// CancelDraw aborts any in-progress draw (Escape).
func (e *RoomEditor) CancelDraw() {
	switch e.mode.(type) {
	case roomDrawingRect, *roomDrawingPolygon:
		e.mode = roomIdle{}
	}
}

// ============================================================
// Name prompt
// ============================================================

// CommitPending names and commits the drafted room. An empty name
// discards the draft, mirroring a cancelled prompt.
func (e *RoomEditor) CommitPending(name string) *models.Room {
	room := e.pending
	e.pending = nil
	if room == nil {
		return nil
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}
	room.Name = name
	room.ID = e.nextID
	e.nextID++
	e.rooms = append(e.rooms, room)
	e.selected = room.ID
	e.markDirty()
	return room
}

func (e *RoomEditor) CancelPending() { e.pending = nil }

func (e *RoomEditor) HasPending() bool { return e.pending != nil }

// ============================================================
// Move / resize / vertex drag
// ============================================================

func (e *RoomEditor) StartMove(id int64, p models.Point) {
	room := e.roomByID(id)
	if room == nil {
		return
	}
	e.selected = id
	e.mode = &roomDragging{room: room, kind: roomDragMove, startPt: p, startRoom: cloneRoom(room)}
}

func (e *RoomEditor) StartResize(id int64, handle Handle, p models.Point) {
	room := e.roomByID(id)
	if room == nil || room.IsPolygon() {
		return
	}
	e.selected = id
	e.mode = &roomDragging{room: room, kind: roomDragResize, handle: handle, startPt: p, startRoom: cloneRoom(room)}
}

func (e *RoomEditor) StartVertexDrag(id int64, vertexIndex int, p models.Point) {
	room := e.roomByID(id)
	if room == nil || !room.IsPolygon() || vertexIndex < 0 || vertexIndex >= len(room.Vertices) {
		return
	}
	e.selected = id
	e.mode = &roomDragging{room: room, kind: roomDragVertex, vertexIndex: vertexIndex, startPt: p, startRoom: cloneRoom(room)}
}

// Drag applies the pointer position to the active drag.
func (e *RoomEditor) Drag(p models.Point) {
	d, ok := e.mode.(*roomDragging)
	if !ok {
		return
	}
	dx := p.X - d.startPt.X
	dy := p.Y - d.startPt.Y

	switch d.kind {
	case roomDragMove:
		e.applyMove(d, dx, dy)
	case roomDragResize:
		applyResize(d.room, d.handle, &d.startRoom, dx, dy)
	case roomDragVertex:
		e.applyVertexDrag(d, dx, dy)
	}
}

// EndDrag commits the drag as a terminal mutation.
func (e *RoomEditor) EndDrag() {
	if _, ok := e.mode.(*roomDragging); !ok {
		return
	}
	e.mode = roomIdle{}
	e.markDirty()
}

// applyMove translates the room, clamped so the bbox stays inside the
// percent space. Polygons translate every vertex by the same clamped
// delta and recompute the bbox.
func (e *RoomEditor) applyMove(d *roomDragging, dx, dy float64) {
	start := &d.startRoom
	newX := models.Clamp(start.X+dx, 0, 100-start.Width)
	newY := models.Clamp(start.Y+dy, 0, 100-start.Height)

	if d.room.IsPolygon() {
		shiftX := newX - start.X
		shiftY := newY - start.Y
		for i := range d.room.Vertices {
			d.room.Vertices[i].X = start.Vertices[i].X + shiftX
			d.room.Vertices[i].Y = start.Vertices[i].Y + shiftY
		}
		d.room.RecomputeBounds()
		return
	}
	d.room.X = newX
	d.room.Y = newY
}

// applyVertexDrag moves a single vertex, clamped per axis, then refreshes
// the cached bbox.
func (e *RoomEditor) applyVertexDrag(d *roomDragging, dx, dy float64) {
	orig := d.startRoom.Vertices[d.vertexIndex]
	d.room.Vertices[d.vertexIndex] = models.Point{
		X: models.ClampPercent(orig.X + dx),
		Y: models.ClampPercent(orig.Y + dy),
	}
	d.room.RecomputeBounds()
}

// applyResize moves the edges named by the handle. West/north handles
// shift the origin so the opposite edge stays fixed; the 1% minimum is
// enforced before clamping to the canvas.
func applyResize(room *models.Room, handle Handle, start *models.Room, dx, dy float64) {
	h := string(handle)
	x, y := start.X, start.Y
	width, height := start.Width, start.Height

	if strings.Contains(h, "e") {
		width = math.Max(minRoomSpanPct, start.Width+dx)
	}
	if strings.Contains(h, "s") {
		height = math.Max(minRoomSpanPct, start.Height+dy)
	}
	if strings.Contains(h, "w") {
		newW := math.Max(minRoomSpanPct, start.Width-dx)
		x = start.X + (start.Width - newW)
		width = newW
	}
	if strings.Contains(h, "n") {
		newH := math.Max(minRoomSpanPct, start.Height-dy)
		y = start.Y + (start.Height - newH)
		height = newH
	}

	room.X = math.Max(0, x)
	room.Y = math.Max(0, y)
	room.Width = math.Min(100-room.X, width)
	room.Height = math.Min(100-room.Y, height)
}

func cloneRoom(r *models.Room) models.Room {
	c := *r
	c.Vertices = append([]models.Point(nil), r.Vertices...)
	return c
}

// ============================================================
// Rename / delete
// ============================================================

// Rename commits an inline edit. An empty trimmed name is a no-op and
// keeps the prior name.
func (e *RoomEditor) Rename(id int64, name string) {
	room := e.roomByID(id)
	if room == nil {
		return
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return
	}
	room.Name = name
	e.markDirty()
}

// Delete removes the room. Highlights referencing it are left dangling on
// purpose; both save and render filter them out.
func (e *RoomEditor) Delete(id int64) {
	for i, r := range e.rooms {
		if r.ID == id {
			e.rooms = append(e.rooms[:i], e.rooms[i+1:]...)
			if e.selected == id {
				e.selected = 0
			}
			e.markDirty()
			return
		}
	}
}
