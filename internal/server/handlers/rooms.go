package handlers

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/gofiber/fiber/v3"

	"floorplan-studio/internal/common/logger"
	"floorplan-studio/internal/designer/api"
	"floorplan-studio/internal/designer/models"
	"floorplan-studio/internal/server/repository"
)

// ============================================================
// Rooms Handler
// ============================================================

const (
	maxPolygonVertices = 100
	// minRoomSpan rejects degenerate shapes: rect sides and polygon bbox
	// spans below this are collapsed lines, not rooms.
	minRoomSpan = 0.01
)

type RoomsHandler struct {
	repo *repository.Repository
	log  *logger.Logger
}

func NewRoomsHandler(repo *repository.Repository, log *logger.Logger) *RoomsHandler {
	return &RoomsHandler{repo: repo, log: log}
}

func floorplanParam(c fiber.Ctx) (int64, error) {
	return strconv.ParseInt(c.Params("floorplan"), 10, 64)
}

func (h *RoomsHandler) ListRooms(c fiber.Ctx) error {
	floorplanID, err := floorplanParam(c)
	if err != nil {
		return badRequest(c, "invalid floorplan id")
	}
	if err := h.requireFloorplan(c, floorplanID); err != nil {
		return err
	}
	rooms, err := h.repo.ListRooms(context.Background(), floorplanID)
	if err != nil {
		return serverError(c, err)
	}
	if rooms == nil {
		rooms = []models.Room{}
	}
	return c.JSON(rooms)
}

// SyncRooms full-replaces the floorplan's room list. A room is either a
// rectangle (all four rect fields present) or a polygon (3..100 vertices
// whose bbox spans at least minRoomSpan on both axes).
func (h *RoomsHandler) SyncRooms(c fiber.Ctx) error {
	floorplanID, err := floorplanParam(c)
	if err != nil {
		return badRequest(c, "invalid floorplan id")
	}
	if err := h.requireFloorplan(c, floorplanID); err != nil {
		return err
	}

	var req api.RoomsRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return badRequest(c, "invalid json")
	}

	for i, room := range req.Rooms {
		field := "rooms." + strconv.Itoa(i)
		if room.Name == "" || len(room.Name) > maxLabelLen {
			return validationError(c, field+".name", "The name is required and must not exceed 100 characters.")
		}
		hasVertices := len(room.Vertices) > 0
		hasRect := room.X != nil && room.Y != nil && room.Width != nil && room.Height != nil
		if !hasVertices && !hasRect {
			return validationError(c, field, "Room must have either vertices (polygon) or x/y/width/height (rectangle).")
		}
		if hasVertices {
			if len(room.Vertices) < 3 || len(room.Vertices) > maxPolygonVertices {
				return validationError(c, field+".vertices", "Polygon rooms need between 3 and 100 vertices.")
			}
			for _, v := range room.Vertices {
				if v.X < 0 || v.X > 100 || v.Y < 0 || v.Y > 100 {
					return validationError(c, field+".vertices", "Vertices must lie within 0..100 percent.")
				}
			}
			bbox := models.BoundsOf(room.Vertices)
			if bbox.Width < minRoomSpan || bbox.Height < minRoomSpan {
				return validationError(c, field, "Polygon room vertices must form a non-degenerate shape.")
			}
			continue
		}
		if *room.X < 0 || *room.X > 100 || *room.Y < 0 || *room.Y > 100 {
			return validationError(c, field, "Room position must lie within 0..100 percent.")
		}
		if *room.Width < minRoomSpan || *room.Width > 100 || *room.Height < minRoomSpan || *room.Height > 100 {
			return validationError(c, field, "Room dimensions must lie within 0.01..100 percent.")
		}
	}

	if err := h.repo.ReplaceRooms(context.Background(), floorplanID, req.Rooms); err != nil {
		return serverError(c, err)
	}
	h.log.Debug("rooms replaced", "floorplan_id", floorplanID, "count", len(req.Rooms))
	return c.JSON(api.SavedResponse{Saved: true})
}

func (h *RoomsHandler) requireFloorplan(c fiber.Ctx, floorplanID int64) error {
	exists, err := h.repo.FloorplanExists(context.Background(), floorplanID)
	if err != nil {
		return serverError(c, err)
	}
	if !exists {
		return notFound(c, "floorplan")
	}
	return nil
}
