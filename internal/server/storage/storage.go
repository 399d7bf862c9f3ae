package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ============================================================
// Asset Storage
// ============================================================

// Storage lays out served assets under one root:
//
//	root/floorplans/<id>.png       uploaded floorplan images
//	root/icons/<category>/...      built-in icon set, shipped with the app
//	root/icons/custom/<uuid>.<ext> user uploads
type Storage struct {
	root string
}

func New(root string) *Storage {
	return &Storage{root: root}
}

func (s *Storage) Root() string { return s.root }

func (s *Storage) FloorplansDir() string {
	return filepath.Join(s.root, "floorplans")
}

func (s *Storage) FloorplanPath(floorplanID int64) string {
	return filepath.Join(s.FloorplansDir(), fmt.Sprintf("%d.png", floorplanID))
}

func (s *Storage) CustomIconsDir() string {
	return filepath.Join(s.root, "icons", "custom")
}

// AssetPath resolves a repository-relative path ("icons/custom/x.svg")
// to an absolute one, refusing traversal outside the root.
func (s *Storage) AssetPath(relative string) (string, error) {
	clean := filepath.Clean("/" + relative)
	if strings.Contains(clean, "..") {
		return "", fmt.Errorf("bad asset path %q", relative)
	}
	return filepath.Join(s.root, clean), nil
}

// SaveCustomIcon writes the upload under a fresh uuid name and returns
// the repository-relative path stored in the icon catalog.
func (s *Storage) SaveCustomIcon(ext string, data []byte) (string, error) {
	if err := os.MkdirAll(s.CustomIconsDir(), 0o755); err != nil {
		return "", fmt.Errorf("mkdir icons dir: %w", err)
	}
	name := uuid.NewString() + "." + ext
	target := filepath.Join(s.CustomIconsDir(), name)
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return "", fmt.Errorf("write icon: %w", err)
	}
	return filepath.ToSlash(filepath.Join("icons", "custom", name)), nil
}

func (s *Storage) SaveFloorplan(floorplanID int64, data []byte) (string, error) {
	if err := os.MkdirAll(s.FloorplansDir(), 0o755); err != nil {
		return "", fmt.Errorf("mkdir floorplans dir: %w", err)
	}
	target := s.FloorplanPath(floorplanID)
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return "", fmt.Errorf("write floorplan: %w", err)
	}
	return filepath.ToSlash(filepath.Join("floorplans", fmt.Sprintf("%d.png", floorplanID))), nil
}

func (s *Storage) Remove(relative string) error {
	path, err := s.AssetPath(relative)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
