package models

// ============================================================
// Geometry primitives
// ============================================================

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Rect is an axis-aligned box. Units depend on context: rooms use
// percentages of the floorplan image, icons use content pixels.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// ============================================================
// Rooms
// ============================================================

// Room lives in percent space [0,100] of its floorplan image.
// A room with >= 3 vertices is a polygon; its X/Y/Width/Height are the
// cached bounding box of the vertices and must be recomputed on every
// vertex mutation. A room without vertices is a plain rectangle.
// ID is the server id when the room was loaded from a design state, or a
// session-local counter while drawing in setup mode; the rooms sync
// payload strips it either way.
type Room struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	Vertices []Point `json:"vertices,omitempty"`
}

func (r *Room) IsPolygon() bool {
	return len(r.Vertices) >= 3
}

// RecomputeBounds refreshes the cached bbox from the vertex list.
// No-op for rectangles.
func (r *Room) RecomputeBounds() {
	if !r.IsPolygon() {
		return
	}
	b := BoundsOf(r.Vertices)
	r.X, r.Y, r.Width, r.Height = b.X, b.Y, b.Width, b.Height
}

// ============================================================
// Key entries (legend)
// ============================================================

// MaxKeyEntries caps the legend size per design. The server enforces the
// same limit on the sync payload.
const MaxKeyEntries = 20

// KeyEntry carries two identities: ClientID is assigned locally and is
// stable for the whole session; RemoteID is the server-assigned id (zero
// for an entry that has never completed a save round-trip). Highlights
// reference ClientID; the wire payload references RemoteID. The two are
// never conflated: state responses only ever populate RemoteID.
type KeyEntry struct {
	ClientID  int    `json:"-"`
	RemoteID  int64  `json:"id"`
	ColorHex  string `json:"color_hex"`
	Label     string `json:"label"`
	SortOrder int    `json:"sort_order"`
}

// ============================================================
// Icons
// ============================================================

// IconPlacement positions a catalog icon on the design canvas, in
// content-pixel space (not percentages). ZOrder is an ordering key, not an
// index: restacking shifts a single placement's value and may leave gaps
// or negatives.
type IconPlacement struct {
	ClientID      int     `json:"id"`
	IconLibraryID int64   `json:"icon_library_id"`
	X             float64 `json:"x"`
	Y             float64 `json:"y"`
	Width         float64 `json:"width"`
	Height        float64 `json:"height"`
	Rotation      float64 `json:"rotation"`
	FreePlaced    bool    `json:"is_free_placed"`
	ZOrder        int     `json:"z_order"`
}

// IconLibraryEntry is a catalog item. Custom=false means built-in.
type IconLibraryEntry struct {
	ID       int64  `json:"id"`
	Label    string `json:"label"`
	Category string `json:"category"`
	URL      string `json:"url"`
	Custom   bool   `json:"custom"`
}

// ============================================================
// Design state
// ============================================================

type Floorplan struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	ThumbnailURL string  `json:"thumbnail_url"`
	Rooms        []*Room `json:"rooms"`
}

// Highlight assigns a room to a key entry. Server-side representation;
// the editing session keeps the sparse map form instead.
type Highlight struct {
	RoomID     int64 `json:"room_id"`
	KeyEntryID int64 `json:"key_entry_id"`
}

// DesignState is the full server snapshot the editor loads and syncs
// against.
type DesignState struct {
	ID         int64           `json:"id"`
	Name       string          `json:"name"`
	Floorplans []*Floorplan    `json:"floorplans"`
	KeyEntries []KeyEntry      `json:"key_entries"`
	Highlights []Highlight     `json:"room_highlights"`
	Icons      []IconPlacement `json:"icons"`
}
