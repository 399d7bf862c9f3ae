package editor

import (
	"sync"

	"floorplan-studio/internal/designer/models"
)

// ============================================================
// Editing Session
// ============================================================

// Session is the mutable context for one open design. All editor state
// lives here; there are no package-level globals. Components receive the
// session by reference and report local mutations through the dirty hook,
// which the save coordinator listens on.
type Session struct {
	DesignID   int64
	DesignName string

	Floorplans []*models.Floorplan
	KeyEntries []*models.KeyEntry
	// Highlights maps roomID → key entry ClientID. Sparse: absence means
	// the room is unpainted.
	Highlights map[int64]int
	Icons      []*models.IconPlacement
	Catalog    []models.IconLibraryEntry

	// GridMode snaps icon placement/move to the grid and rotation to 15°
	// steps. Free mode keeps continuous values.
	GridMode bool

	nextKeyID  int
	nextIconID int

	// mu guards the document fields against the save coordinator's flush
	// goroutine. Editors hold it across mutations; Snapshot, LoadState and
	// AdoptRemoteIDs hold it while copying. Never held across markDirty.
	mu sync.Mutex

	onMutate func()
}

func NewSession() *Session {
	return &Session{
		Highlights: make(map[int64]int),
		GridMode:   true,
		nextKeyID:  1,
		nextIconID: 1,
	}
}

// OnMutate registers the hook invoked after every terminal mutation.
func (s *Session) OnMutate(fn func()) {
	s.onMutate = fn
}

func (s *Session) markDirty() {
	if s.onMutate != nil {
		s.onMutate()
	}
}

// ============================================================
// Loading server state
// ============================================================

// LoadState rebuilds the session from a server snapshot. Server ids are
// kept as RemoteID; fresh client ids are assigned so cross-references
// survive later re-saves.
func (s *Session) LoadState(state *models.DesignState) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.DesignID = state.ID
	s.DesignName = state.Name
	s.Floorplans = state.Floorplans

	s.KeyEntries = s.KeyEntries[:0]
	byRemote := make(map[int64]*models.KeyEntry, len(state.KeyEntries))
	for _, e := range state.KeyEntries {
		entry := &models.KeyEntry{
			ClientID:  s.nextKeyID,
			RemoteID:  e.RemoteID,
			ColorHex:  e.ColorHex,
			Label:     e.Label,
			SortOrder: e.SortOrder,
		}
		s.nextKeyID++
		s.KeyEntries = append(s.KeyEntries, entry)
		byRemote[entry.RemoteID] = entry
	}

	s.Highlights = make(map[int64]int)
	for _, hl := range state.Highlights {
		if entry, ok := byRemote[hl.KeyEntryID]; ok {
			s.Highlights[hl.RoomID] = entry.ClientID
		}
	}

	s.Icons = s.Icons[:0]
	for _, ic := range state.Icons {
		placed := ic
		placed.ClientID = s.nextIconID
		s.nextIconID++
		s.Icons = append(s.Icons, &placed)
	}
}

// ============================================================
// Lookups
// ============================================================

func (s *Session) EntryByClientID(id int) *models.KeyEntry {
	for _, e := range s.KeyEntries {
		if e.ClientID == id {
			return e
		}
	}
	return nil
}

func (s *Session) IconByClientID(id int) *models.IconPlacement {
	for _, ic := range s.Icons {
		if ic.ClientID == id {
			return ic
		}
	}
	return nil
}

func (s *Session) CatalogEntry(libraryID int64) *models.IconLibraryEntry {
	for i := range s.Catalog {
		if s.Catalog[i].ID == libraryID {
			return &s.Catalog[i]
		}
	}
	return nil
}

// RoomByID searches all floorplans.
func (s *Session) RoomByID(roomID int64) *models.Room {
	for _, fp := range s.Floorplans {
		for _, room := range fp.Rooms {
			if room.ID == roomID {
				return room
			}
		}
	}
	return nil
}

// HasRoom reports whether roomID belongs to any of the design's
// floorplans.
func (s *Session) HasRoom(roomID int64) bool {
	return s.RoomByID(roomID) != nil
}
