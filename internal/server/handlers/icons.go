package handlers

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v3"

	"floorplan-studio/internal/common/logger"
	"floorplan-studio/internal/designer/api"
	"floorplan-studio/internal/designer/models"
	"floorplan-studio/internal/server/repository"
	"floorplan-studio/internal/server/storage"
)

// ============================================================
// Icon Catalog Handler
// ============================================================

const (
	maxIconUploadBytes = 1 << 20 // 1 MiB
	maxCategoryLen     = 50
)

type IconsHandler struct {
	repo    *repository.Repository
	storage *storage.Storage
	log     *logger.Logger
}

func NewIconsHandler(repo *repository.Repository, st *storage.Storage, log *logger.Logger) *IconsHandler {
	return &IconsHandler{repo: repo, storage: st, log: log}
}

// Catalog returns built-in and custom icons in two sections, each sorted
// by category then label.
func (h *IconsHandler) Catalog(c fiber.Ctx) error {
	builtIn, err := h.repo.ListIcons(context.Background(), false)
	if err != nil {
		return serverError(c, err)
	}
	custom, err := h.repo.ListIcons(context.Background(), true)
	if err != nil {
		return serverError(c, err)
	}
	if builtIn == nil {
		builtIn = []models.IconLibraryEntry{}
	}
	if custom == nil {
		custom = []models.IconLibraryEntry{}
	}
	return c.JSON(api.IconCatalog{BuiltIn: builtIn, Custom: custom})
}

// Upload stores a custom icon. The file is sniffed, not trusted: only
// real SVG or PNG content is accepted regardless of filename.
func (h *IconsHandler) Upload(c fiber.Ctx) error {
	label := strings.TrimSpace(c.FormValue("label"))
	category := strings.TrimSpace(c.FormValue("category"))
	if label == "" || len(label) > maxLabelLen {
		return validationError(c, "label", "The label is required and must not exceed 100 characters.")
	}
	if category == "" || len(category) > maxCategoryLen {
		return validationError(c, "category", "The category is required and must not exceed 50 characters.")
	}

	fileHeader, err := c.FormFile("icon")
	if err != nil {
		return validationError(c, "icon", "An icon file is required.")
	}
	if fileHeader.Size > maxIconUploadBytes {
		return validationError(c, "icon", "The icon must not be larger than 1 MB.")
	}
	file, err := fileHeader.Open()
	if err != nil {
		return serverError(c, err)
	}
	defer file.Close()
	data, err := io.ReadAll(io.LimitReader(file, maxIconUploadBytes+1))
	if err != nil {
		return serverError(c, err)
	}
	if len(data) > maxIconUploadBytes {
		return validationError(c, "icon", "The icon must not be larger than 1 MB.")
	}

	ext := detectIconFormat(data)
	if ext == "" {
		return validationError(c, "icon", "The icon must be an SVG or PNG file.")
	}

	path, err := h.storage.SaveCustomIcon(ext, data)
	if err != nil {
		return serverError(c, err)
	}
	id, err := h.repo.InsertIcon(context.Background(), category, label, path, true)
	if err != nil {
		return serverError(c, err)
	}

	h.log.Info("custom icon uploaded", "id", id, "label", label, "bytes", len(data))
	return c.Status(http.StatusCreated).JSON(models.IconLibraryEntry{
		ID:       id,
		Label:    label,
		Category: category,
		URL:      "/assets/" + path,
		Custom:   true,
	})
}

// Delete removes a custom icon from the catalog and disk. Built-in icons
// cannot be deleted. Placements referencing the icon cascade away, which
// the response flags so clients can refresh.
func (h *IconsHandler) Delete(c fiber.Ctx) error {
	iconID, err := strconv.ParseInt(c.Params("icon"), 10, 64)
	if err != nil {
		return badRequest(c, "invalid icon id")
	}
	icon, path, err := h.repo.GetIcon(context.Background(), iconID)
	if errors.Is(err, repository.ErrNotFound) {
		return notFound(c, "icon")
	}
	if err != nil {
		return serverError(c, err)
	}
	if !icon.Custom {
		return c.Status(http.StatusForbidden).JSON(fiber.Map{"error": "built-in icons cannot be deleted"})
	}

	wasInUse, err := h.repo.DeleteIcon(context.Background(), iconID)
	if err != nil {
		return serverError(c, err)
	}
	if err := h.storage.Remove(path); err != nil {
		h.log.Warn("failed to remove icon file", "path", path, "error", err)
	}

	h.log.Info("custom icon deleted", "id", iconID, "was_in_use", wasInUse)
	return c.JSON(api.IconDeleteResponse{Deleted: true, WasInUse: wasInUse})
}

var pngMagic = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

// detectIconFormat sniffs the upload content. PNG is identified by its
// magic bytes; SVG by decoding XML until an <svg> root element appears.
func detectIconFormat(data []byte) string {
	if bytes.HasPrefix(data, pngMagic) {
		return "png"
	}
	decoder := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := decoder.Token()
		if err != nil {
			return ""
		}
		if start, ok := tok.(xml.StartElement); ok {
			if start.Name.Local == "svg" {
				return "svg"
			}
			return ""
		}
	}
}
