package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v3"

	"floorplan-studio/internal/common/logger"
	"floorplan-studio/internal/designer/api"
	"floorplan-studio/internal/designer/models"
	"floorplan-studio/internal/server/repository"
)

// ============================================================
// Design State Handler
// ============================================================

const (
	maxIconsPerDesign = 500
	maxLabelLen       = 100
)

type StateHandler struct {
	repo *repository.Repository
	log  *logger.Logger
}

func NewStateHandler(repo *repository.Repository, log *logger.Logger) *StateHandler {
	return &StateHandler{repo: repo, log: log}
}

func designParam(c fiber.Ctx) (int64, error) {
	return strconv.ParseInt(c.Params("design"), 10, 64)
}

// GetState returns the full design snapshot.
func (h *StateHandler) GetState(c fiber.Ctx) error {
	designID, err := designParam(c)
	if err != nil {
		return badRequest(c, "invalid design id")
	}
	state, err := h.repo.GetDesignState(context.Background(), designID)
	if errors.Is(err, repository.ErrNotFound) {
		return notFound(c, "design")
	}
	if err != nil {
		return serverError(c, err)
	}
	return c.JSON(state)
}

// SyncKeyEntries full-replaces the design's legend. Entries get fresh
// ids on every call; the response deliberately carries none of them.
func (h *StateHandler) SyncKeyEntries(c fiber.Ctx) error {
	designID, err := designParam(c)
	if err != nil {
		return badRequest(c, "invalid design id")
	}
	if err := h.requireDesign(c, designID); err != nil {
		return err
	}

	var req api.KeyEntriesRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return badRequest(c, "invalid json")
	}
	if len(req.Entries) > models.MaxKeyEntries {
		return validationError(c, "entries", "The entries field must not have more than 20 items.")
	}
	for i, e := range req.Entries {
		field := "entries." + strconv.Itoa(i)
		if !models.ValidColorHex(e.ColorHex) {
			return validationError(c, field+".color_hex", "The color must be a #RRGGBB hex value.")
		}
		if e.Label == "" || len(e.Label) > maxLabelLen {
			return validationError(c, field+".label", "The label is required and must not exceed 100 characters.")
		}
		if e.SortOrder < 0 {
			return validationError(c, field+".sort_order", "The sort order must be a non-negative integer.")
		}
	}

	if err := h.repo.ReplaceKeyEntries(context.Background(), designID, req.Entries); err != nil {
		return serverError(c, err)
	}
	h.log.Debug("key entries replaced", "design_id", designID, "count", len(req.Entries))
	return c.JSON(api.SavedResponse{Saved: true})
}

// SyncHighlights full-replaces the room → entry assignments. Referenced
// rooms must belong to the design's floorplans and entries to the design.
func (h *StateHandler) SyncHighlights(c fiber.Ctx) error {
	designID, err := designParam(c)
	if err != nil {
		return badRequest(c, "invalid design id")
	}

	state, err := h.repo.GetDesignState(context.Background(), designID)
	if errors.Is(err, repository.ErrNotFound) {
		return notFound(c, "design")
	}
	if err != nil {
		return serverError(c, err)
	}

	var req api.HighlightsRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return badRequest(c, "invalid json")
	}

	validRooms := make(map[int64]bool)
	for _, fp := range state.Floorplans {
		for _, room := range fp.Rooms {
			validRooms[room.ID] = true
		}
	}
	validEntries := make(map[int64]bool, len(state.KeyEntries))
	for _, e := range state.KeyEntries {
		validEntries[e.RemoteID] = true
	}
	for i, hl := range req.Highlights {
		field := "highlights." + strconv.Itoa(i)
		if !validRooms[hl.RoomID] {
			return validationError(c, field+".room_id", "The selected room is invalid.")
		}
		if !validEntries[hl.KeyEntryID] {
			return validationError(c, field+".key_entry_id", "The selected key entry is invalid.")
		}
	}

	if err := h.repo.ReplaceHighlights(context.Background(), designID, req.Highlights); err != nil {
		return serverError(c, err)
	}
	return c.JSON(api.SavedResponse{Saved: true})
}

// SyncIcons full-replaces the design's icon placements.
func (h *StateHandler) SyncIcons(c fiber.Ctx) error {
	designID, err := designParam(c)
	if err != nil {
		return badRequest(c, "invalid design id")
	}
	if err := h.requireDesign(c, designID); err != nil {
		return err
	}

	var req api.IconsRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return badRequest(c, "invalid json")
	}
	if len(req.Icons) > maxIconsPerDesign {
		return validationError(c, "icons", "The icons field must not have more than 500 items.")
	}
	for i, ic := range req.Icons {
		field := "icons." + strconv.Itoa(i)
		exists, err := h.repo.IconExists(context.Background(), ic.IconLibraryID)
		if err != nil {
			return serverError(c, err)
		}
		if !exists {
			return validationError(c, field+".icon_library_id", "The selected icon is invalid.")
		}
		if ic.Width < 0.01 || ic.Height < 0.01 {
			return validationError(c, field+".width", "Icon dimensions must be positive.")
		}
		if ic.ZOrder < 0 {
			return validationError(c, field+".z_order", "The z order must be a non-negative integer.")
		}
	}

	if err := h.repo.ReplaceIcons(context.Background(), designID, req.Icons); err != nil {
		return serverError(c, err)
	}
	h.log.Debug("icons replaced", "design_id", designID, "count", len(req.Icons))
	return c.JSON(api.SavedResponse{Saved: true})
}

func (h *StateHandler) requireDesign(c fiber.Ctx, designID int64) error {
	exists, err := h.repo.DesignExists(context.Background(), designID)
	if err != nil {
		return serverError(c, err)
	}
	if !exists {
		return notFound(c, "design")
	}
	return nil
}
