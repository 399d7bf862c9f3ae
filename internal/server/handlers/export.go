package handlers

import (
	"bytes"
	"context"
	"errors"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/gofiber/fiber/v3"

	"floorplan-studio/internal/common/logger"
	"floorplan-studio/internal/designer/export"
	"floorplan-studio/internal/server/repository"
	"floorplan-studio/internal/server/storage"
)

// ============================================================
// Export Handler
// ============================================================

type ExportHandler struct {
	repo    *repository.Repository
	storage *storage.Storage
	log     *logger.Logger
}

func NewExportHandler(repo *repository.Repository, st *storage.Storage, log *logger.Logger) *ExportHandler {
	return &ExportHandler{repo: repo, storage: st, log: log}
}

// ExportPNG renders the design sheet and streams it as a PNG download.
// Missing or undecodable assets degrade to placeholders instead of
// failing the export.
func (h *ExportHandler) ExportPNG(c fiber.Ctx) error {
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

	in := export.Input{
		Design:          state,
		FloorplanImages: make(map[int64]image.Image),
		IconImages:      make(map[int64]image.Image),
		IconLabels:      make(map[int64]string),
	}

	for _, fp := range state.Floorplans {
		path, err := h.repo.FloorplanImagePath(context.Background(), fp.ID)
		if err != nil {
			continue
		}
		if img := h.loadImage(path); img != nil {
			in.FloorplanImages[fp.ID] = img
		}
	}
	for _, ic := range state.Icons {
		if _, done := in.IconLabels[ic.IconLibraryID]; done {
			continue
		}
		entry, path, err := h.repo.GetIcon(context.Background(), ic.IconLibraryID)
		if err != nil {
			continue
		}
		in.IconLabels[ic.IconLibraryID] = entry.Label
		if img := h.loadImage(path); img != nil {
			in.IconImages[ic.IconLibraryID] = img
		}
	}

	var buf bytes.Buffer
	if err := export.RenderPNG(in, &buf); err != nil {
		return serverError(c, err)
	}

	h.log.Info("design exported", "design_id", designID, "bytes", buf.Len())
	c.Set("Content-Type", "image/png")
	c.Set("Content-Disposition", `attachment; filename="design.png"`)
	return c.Send(buf.Bytes())
}

// loadImage reads a raster asset off storage. SVG icons are not
// rasterized; they fall back to the renderer's placeholder.
func (h *ExportHandler) loadImage(relative string) image.Image {
	path, err := h.storage.AssetPath(relative)
	if err != nil {
		return nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil
	}
	return img
}
