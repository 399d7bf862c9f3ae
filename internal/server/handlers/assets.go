package handlers

import (
	"os"

	"github.com/gofiber/fiber/v3"

	"floorplan-studio/internal/server/storage"
)

// ============================================================
// Assets Handler
// ============================================================

type AssetsHandler struct {
	storage *storage.Storage
}

func NewAssetsHandler(st *storage.Storage) *AssetsHandler {
	return &AssetsHandler{storage: st}
}

// Serve streams a stored asset (floorplan image or icon file). The
// wildcard is resolved against the storage root with traversal rejected.
func (h *AssetsHandler) Serve(c fiber.Ctx) error {
	path, err := h.storage.AssetPath(c.Params("*"))
	if err != nil {
		return badRequest(c, "invalid asset path")
	}
	if _, err := os.Stat(path); err != nil {
		return notFound(c, "asset")
	}
	return c.SendFile(path)
}
