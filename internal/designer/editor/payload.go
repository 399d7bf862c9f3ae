package editor

import (
	"floorplan-studio/internal/designer/api"
	"floorplan-studio/internal/designer/models"
)

// ============================================================
// Save snapshots
// ============================================================

// Snapshot is the point-in-time view of the session a flush works from.
// The coordinator never reads the live session mid-flight; everything it
// needs is copied here when the flush starts.
type Snapshot struct {
	DesignID int64
	// Entries in list order; position is the sort order and also the
	// positional key used to reconcile server-assigned ids.
	Entries        []api.KeyEntryPayload
	EntryClientIDs []int
	// Highlights keyed by roomID → entry ClientID, unresolved.
	Highlights map[int64]int
	// RoomIDs is the set of rooms that exist in the design's floorplans;
	// highlights pointing elsewhere are dangling and get dropped.
	RoomIDs map[int64]bool
	Icons   []api.IconPayload
}

// Snapshot copies the session state relevant to a design flush. Safe to
// call from the flush goroutine while editors keep mutating.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		DesignID:   s.DesignID,
		Highlights: make(map[int64]int, len(s.Highlights)),
		RoomIDs:    make(map[int64]bool),
	}
	for i, e := range s.KeyEntries {
		snap.Entries = append(snap.Entries, api.KeyEntryPayload{
			ColorHex:  e.ColorHex,
			Label:     e.Label,
			SortOrder: i,
		})
		snap.EntryClientIDs = append(snap.EntryClientIDs, e.ClientID)
	}
	for roomID, entryID := range s.Highlights {
		snap.Highlights[roomID] = entryID
	}
	for _, fp := range s.Floorplans {
		for _, room := range fp.Rooms {
			snap.RoomIDs[room.ID] = true
		}
	}
	for _, ic := range models.SortedByZ(s.Icons) {
		snap.Icons = append(snap.Icons, api.IconPayload{
			IconLibraryID: ic.IconLibraryID,
			X:             ic.X,
			Y:             ic.Y,
			Width:         ic.Width,
			Height:        ic.Height,
			Rotation:      ic.Rotation,
			FreePlaced:    ic.FreePlaced,
			ZOrder:        ic.ZOrder,
		})
	}
	return snap
}

// ResolveRemoteIDs builds the clientID → server id mapping by positional
// correspondence: the Nth entry sent matches the Nth entry the server
// returns, because both sides order by the same contiguous sort_order.
func (snap *Snapshot) ResolveRemoteIDs(fresh []models.KeyEntry) map[int]int64 {
	remote := make(map[int]int64, len(snap.EntryClientIDs))
	for i, clientID := range snap.EntryClientIDs {
		if i < len(fresh) {
			remote[clientID] = fresh[i].RemoteID
		}
	}
	return remote
}

// HighlightsPayload resolves highlight references to server ids and
// drops anything dangling: rooms no longer in the design, entries that
// were deleted or lost in the remap.
func (snap *Snapshot) HighlightsPayload(remote map[int]int64) []api.HighlightPayload {
	out := make([]api.HighlightPayload, 0, len(snap.Highlights))
	for roomID, entryID := range snap.Highlights {
		if !snap.RoomIDs[roomID] {
			continue
		}
		remoteID, ok := remote[entryID]
		if !ok || remoteID == 0 {
			continue
		}
		out = append(out, api.HighlightPayload{RoomID: roomID, KeyEntryID: remoteID})
	}
	return out
}

// AdoptRemoteIDs writes reconciled server ids back onto the live entries
// so a reload isn't needed to keep painting against saved entries.
func (s *Session) AdoptRemoteIDs(remote map[int]int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.KeyEntries {
		if id, ok := remote[e.ClientID]; ok {
			e.RemoteID = id
		}
	}
}

// RoomsPayload serializes a room list for the per-floorplan sync
// endpoint, stripping client ids.
func RoomsPayload(rooms []*models.Room) []api.RoomPayload {
	out := make([]api.RoomPayload, 0, len(rooms))
	for _, r := range rooms {
		if r.IsPolygon() {
			out = append(out, api.RoomPayload{
				Name:     r.Name,
				Vertices: append([]models.Point(nil), r.Vertices...),
			})
			continue
		}
		x, y, w, h := r.X, r.Y, r.Width, r.Height
		out = append(out, api.RoomPayload{
			Name: r.Name, X: &x, Y: &y, Width: &w, Height: &h,
		})
	}
	return out
}
