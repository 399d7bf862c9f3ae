package editor

import (
	"fmt"
	"strings"

	"floorplan-studio/internal/designer/models"
)

// ============================================================
// Legend Manager
// ============================================================

// LegendManager handles the color/label key entries and the room →
// entry highlight mapping, including paint mode.
type LegendManager struct {
	s     *Session
	armed int // entry ClientID armed for painting, 0 = none
}

func NewLegendManager(s *Session) *LegendManager {
	return &LegendManager{s: s}
}

// Add appends a new key entry. The 20-entry cap is enforced here; the
// server re-enforces it on the sync payload.
func (m *LegendManager) Add(colorHex, label string) (*models.KeyEntry, error) {
	if len(m.s.KeyEntries) >= models.MaxKeyEntries {
		return nil, fmt.Errorf("key limit reached (%d entries)", models.MaxKeyEntries)
	}
	label = strings.TrimSpace(label)
	if label == "" {
		return nil, fmt.Errorf("label required")
	}
	if !models.ValidColorHex(colorHex) {
		return nil, fmt.Errorf("invalid color %q", colorHex)
	}
	m.s.mu.Lock()
	entry := &models.KeyEntry{
		ClientID:  m.s.nextKeyID,
		ColorHex:  colorHex,
		Label:     label,
		SortOrder: len(m.s.KeyEntries),
	}
	m.s.nextKeyID++
	m.s.KeyEntries = append(m.s.KeyEntries, entry)
	m.s.mu.Unlock()
	m.s.markDirty()
	return entry, nil
}

// Edit mutates color and label in place.
func (m *LegendManager) Edit(id int, colorHex, label string) error {
	entry := m.s.EntryByClientID(id)
	if entry == nil {
		return fmt.Errorf("unknown entry %d", id)
	}
	label = strings.TrimSpace(label)
	if label == "" {
		return fmt.Errorf("label required")
	}
	if !models.ValidColorHex(colorHex) {
		return fmt.Errorf("invalid color %q", colorHex)
	}
	m.s.mu.Lock()
	entry.ColorHex = colorHex
	entry.Label = label
	m.s.mu.Unlock()
	m.s.markDirty()
	return nil
}

// Reorder splices the entry at fromIdx to toIdx. The resulting list
// order is the sort order; the save payload always carries contiguous
// 0..n-1 positions computed from it.
func (m *LegendManager) Reorder(fromIdx, toIdx int) {
	entries := m.s.KeyEntries
	if fromIdx == toIdx || fromIdx < 0 || toIdx < 0 || fromIdx >= len(entries) || toIdx >= len(entries) {
		return
	}
	m.s.mu.Lock()
	moved := entries[fromIdx]
	entries = append(entries[:fromIdx], entries[fromIdx+1:]...)
	entries = append(entries[:toIdx], append([]*models.KeyEntry{moved}, entries[toIdx:]...)...)
	m.s.KeyEntries = entries
	m.s.mu.Unlock()
	m.s.markDirty()
}

// Delete removes the entry and eagerly clears every highlight painted
// with it. Room deletion leaves highlights dangling instead; both paths
// converge on the save-time filter.
func (m *LegendManager) Delete(id int) {
	entries := m.s.KeyEntries
	for i, e := range entries {
		if e.ClientID != id {
			continue
		}
		m.s.mu.Lock()
		m.s.KeyEntries = append(entries[:i], entries[i+1:]...)
		for roomID, entryID := range m.s.Highlights {
			if entryID == id {
				delete(m.s.Highlights, roomID)
			}
		}
		m.s.mu.Unlock()
		if m.armed == id {
			m.Disarm()
		}
		m.s.markDirty()
		return
	}
}

// ============================================================
// Paint mode
// ============================================================

// Arm selects an entry for painting. Only one entry is armed at a time.
func (m *LegendManager) Arm(id int) {
	if m.s.EntryByClientID(id) == nil {
		return
	}
	m.armed = id
}

func (m *LegendManager) Disarm()    { m.armed = 0 }
func (m *LegendManager) Armed() int { return m.armed }

// PaintRoom toggles the armed entry's highlight on a room click: paints
// an unpainted (or differently painted) room, clears a room already
// painted with the armed entry.
func (m *LegendManager) PaintRoom(roomID int64) {
	if m.armed == 0 || !m.s.HasRoom(roomID) {
		return
	}
	m.s.mu.Lock()
	if m.s.Highlights[roomID] == m.armed {
		delete(m.s.Highlights, roomID)
	} else {
		m.s.Highlights[roomID] = m.armed
	}
	m.s.mu.Unlock()
	m.s.markDirty()
}
