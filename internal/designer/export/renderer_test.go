package export

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"floorplan-studio/internal/designer/models"
)

func singleFloorplanDesign() *models.DesignState {
	return &models.DesignState{
		ID:   1,
		Name: "Office",
		Floorplans: []*models.Floorplan{{
			ID:   10,
			Name: "Ground Floor",
			Rooms: []*models.Room{{
				ID: 101, Name: "Kitchen",
				X: 10, Y: 10, Width: 40, Height: 40,
			}},
		}},
	}
}

func rgbAt(img image.Image, x, y int) (uint8, uint8, uint8) {
	c := color.RGBAModel.Convert(img.At(x, y)).(color.RGBA)
	return c.R, c.G, c.B
}

func TestRender_RejectsEmptyInput(t *testing.T) {
	if _, err := Render(Input{}); err == nil {
		t.Fatalf("expected an error for a nil design")
	}
	if _, err := Render(Input{Design: &models.DesignState{ID: 1}}); err == nil {
		t.Fatalf("expected an error for a design without floorplans")
	}
}

func TestRender_SingleFloorplanDimensions(t *testing.T) {
	img, err := Render(Input{Design: singleFloorplanDesign()})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	b := img.Bounds()
	// one 600pt tile at 2x plus the legend panel
	if b.Dx() != 1200+320 {
		t.Fatalf("width = %d, want %d", b.Dx(), 1200+320)
	}
	if b.Dy() != 1200 {
		t.Fatalf("height = %d, want 1200", b.Dy())
	}
}

func TestRender_WideDesignClampsToMaxWidth(t *testing.T) {
	design := &models.DesignState{ID: 2, Name: "Campus"}
	for i := int64(1); i <= 8; i++ {
		design.Floorplans = append(design.Floorplans, &models.Floorplan{ID: i, Name: "Floor"})
	}
	img, err := Render(Input{Design: design})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got := img.Bounds().Dx(); got != 4000+320 {
		t.Fatalf("width = %d, want %d", got, 4000+320)
	}
}

func TestRender_HighlightTintsRoomInterior(t *testing.T) {
	design := singleFloorplanDesign()
	design.KeyEntries = []models.KeyEntry{{RemoteID: 7, ColorHex: "#FF0000", Label: "Bedrooms"}}
	design.Highlights = []models.Highlight{{RoomID: 101, KeyEntryID: 7}}

	img, err := Render(Input{Design: design})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	// (15%, 15%) of the tile is inside the room but away from its label
	r, g, b := rgbAt(img, 180, 180)
	if r <= g+40 || r <= b+40 {
		t.Fatalf("expected a red tint at (180,180), got rgb(%d,%d,%d)", r, g, b)
	}

	// the same pixel without a highlight is the flat placeholder gray
	plain, err := Render(Input{Design: singleFloorplanDesign()})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	r, g, b = rgbAt(plain, 180, 180)
	if r != g || g != b {
		t.Fatalf("expected neutral gray without a highlight, got rgb(%d,%d,%d)", r, g, b)
	}
}

func TestRender_MissingIconImageDrawsPlaceholder(t *testing.T) {
	design := &models.DesignState{
		ID:         3,
		Floorplans: []*models.Floorplan{{ID: 10, Name: "Ground Floor"}},
		Icons: []models.IconPlacement{{
			ClientID: 1, IconLibraryID: 99,
			X: 50, Y: 50, Width: 48, Height: 48,
		}},
	}
	img, err := Render(Input{Design: design})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	// icon center: (50+24, 50+24) content pt at 2x
	r, g, b := rgbAt(img, 148, 148)
	// darker than the 0.9-gray placeholder tile behind it
	if r >= 220 || r != g || g != b {
		t.Fatalf("expected a gray icon placeholder at (148,148), got rgb(%d,%d,%d)", r, g, b)
	}
}

func TestRender_FloorplanImageKeepsAspectRatio(t *testing.T) {
	design := singleFloorplanDesign()
	src := image.NewRGBA(image.Rect(0, 0, 400, 200))
	img, err := Render(Input{
		Design:          design,
		FloorplanImages: map[int64]image.Image{10: src},
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	// 2:1 source at 600pt width and 2x scale gives a 600px tall sheet
	if got := img.Bounds().Dy(); got != 600 {
		t.Fatalf("height = %d, want 600", got)
	}
}

func TestRenderPNG_EncodesDecodableImage(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderPNG(Input{Design: singleFloorplanDesign()}, &buf); err != nil {
		t.Fatalf("render png: %v", err)
	}
	decoded, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.Bounds().Dx() != 1200+320 {
		t.Fatalf("decoded width = %d, want %d", decoded.Bounds().Dx(), 1200+320)
	}
}
