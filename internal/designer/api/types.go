package api

import "floorplan-studio/internal/designer/models"

// ============================================================
// Wire payloads
// ============================================================

// KeyEntryPayload is what the client sends per legend entry: no ids at
// all: the server assigns fresh ones on every full replace.
type KeyEntryPayload struct {
	ColorHex  string `json:"color_hex"`
	Label     string `json:"label"`
	SortOrder int    `json:"sort_order"`
}

type KeyEntriesRequest struct {
	Entries []KeyEntryPayload `json:"entries"`
}

type HighlightPayload struct {
	RoomID     int64 `json:"room_id"`
	KeyEntryID int64 `json:"key_entry_id"`
}

type HighlightsRequest struct {
	Highlights []HighlightPayload `json:"highlights"`
}

// IconPayload strips the client-only id from a placement.
type IconPayload struct {
	IconLibraryID int64   `json:"icon_library_id"`
	X             float64 `json:"x"`
	Y             float64 `json:"y"`
	Width         float64 `json:"width"`
	Height        float64 `json:"height"`
	Rotation      float64 `json:"rotation"`
	FreePlaced    bool    `json:"is_free_placed"`
	ZOrder        int     `json:"z_order"`
}

type IconsRequest struct {
	Icons []IconPayload `json:"icons"`
}

// RoomPayload carries either rect coordinates or a polygon vertex list.
type RoomPayload struct {
	Name     string         `json:"name"`
	X        *float64       `json:"x,omitempty"`
	Y        *float64       `json:"y,omitempty"`
	Width    *float64       `json:"width,omitempty"`
	Height   *float64       `json:"height,omitempty"`
	Vertices []models.Point `json:"vertices,omitempty"`
}

type RoomsRequest struct {
	Rooms []RoomPayload `json:"rooms"`
}

type SavedResponse struct {
	Saved bool `json:"saved"`
}

type IconCatalog struct {
	BuiltIn []models.IconLibraryEntry `json:"built_in"`
	Custom  []models.IconLibraryEntry `json:"custom"`
}

type IconDeleteResponse struct {
	Deleted  bool `json:"deleted"`
	WasInUse bool `json:"was_in_use"`
}
