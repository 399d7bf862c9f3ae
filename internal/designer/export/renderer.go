package export

import (
	"fmt"
	"image"
	"image/png"
	"io"

	"github.com/fogleman/gg"
	"golang.org/x/image/font/basicfont"

	"floorplan-studio/internal/designer/models"
)

// ============================================================
// Layout constants
// ============================================================

const (
	// tileWidth is the on-screen content width of one floorplan; export
	// renders at exportScale times that, clamped to the width bounds.
	tileWidth   = 600.0
	exportScale = 2.0
	minExportW  = 1200.0
	maxExportW  = 4000.0

	legendPanelW = 320.0
	legendRowH   = 28.0
	swatchSize   = 16.0
	panelPad     = 16.0
	tileGap      = 24.0

	highlightAlpha = 0.5
)

// Input bundles everything a render needs. Images are resolved by the
// caller (the export handler reads them off storage) so the renderer
// stays free of I/O.
type Input struct {
	Design *models.DesignState
	// FloorplanImages by floorplan id. A floorplan without an image gets
	// a gray placeholder tile rather than failing the whole export.
	FloorplanImages map[int64]image.Image
	// IconImages by icon library id.
	IconImages map[int64]image.Image
	// IconLabels by icon library id, for the icons-used section.
	IconLabels map[int64]string
}

// Render draws the full design sheet: floorplans side by side with their
// room highlights and placed icons, then a legend panel on the right.
func Render(in Input) (image.Image, error) {
	if in.Design == nil {
		return nil, fmt.Errorf("export: nil design")
	}
	n := len(in.Design.Floorplans)
	if n == 0 {
		return nil, fmt.Errorf("export: design %d has no floorplans", in.Design.ID)
	}

	scale := exportScale
	contentW := float64(n)*tileWidth + float64(n-1)*tileGap
	if contentW*scale < minExportW {
		scale = minExportW / contentW
	}
	if contentW*scale > maxExportW {
		scale = maxExportW / contentW
	}

	tileH := make([]float64, n)
	maxTileH := 0.0
	for i, fp := range in.Design.Floorplans {
		tileH[i] = tileHeight(in.FloorplanImages[fp.ID])
		if tileH[i] > maxTileH {
			maxTileH = tileH[i]
		}
	}

	legendH := legendHeight(in.Design)
	totalW := contentW*scale + legendPanelW
	totalH := maxTileH * scale
	if legendH > totalH {
		totalH = legendH
	}

	dc := gg.NewContext(int(totalW), int(totalH))
	dc.SetRGB(1, 1, 1)
	dc.Clear()
	dc.SetFontFace(basicfont.Face7x13)

	entryColor := make(map[int64]string, len(in.Design.KeyEntries))
	for _, e := range in.Design.KeyEntries {
		entryColor[e.RemoteID] = e.ColorHex
	}
	highlightFor := make(map[int64]int64, len(in.Design.Highlights))
	for _, hl := range in.Design.Highlights {
		highlightFor[hl.RoomID] = hl.KeyEntryID
	}

	offsetX := 0.0
	for i, fp := range in.Design.Floorplans {
		drawTile(dc, fp, in.FloorplanImages[fp.ID], offsetX, scale, tileH[i], entryColor, highlightFor)
		offsetX += (tileWidth + tileGap) * scale
	}

	drawIcons(dc, in, scale)
	drawLegend(dc, in, contentW*scale)

	return dc.Image(), nil
}

// RenderPNG renders and PNG-encodes in one call; the HTTP handler
// streams this straight into the response.
func RenderPNG(in Input, w io.Writer) error {
	img, err := Render(in)
	if err != nil {
		return err
	}
	return png.Encode(w, img)
}

// tileHeight keeps the source aspect ratio at tileWidth. Placeholder
// tiles are square.
func tileHeight(img image.Image) float64 {
	if img == nil {
		return tileWidth
	}
	b := img.Bounds()
	if b.Dx() == 0 {
		return tileWidth
	}
	return tileWidth * float64(b.Dy()) / float64(b.Dx())
}

// ============================================================
// Floorplan tiles
// ============================================================

func drawTile(dc *gg.Context, fp *models.Floorplan, img image.Image,
	offsetX, scale, tileH float64, entryColor map[int64]string, highlightFor map[int64]int64) {

	w := tileWidth * scale
	h := tileH * scale

	if img == nil {
		dc.SetRGB(0.9, 0.9, 0.9)
		dc.DrawRectangle(offsetX, 0, w, h)
		dc.Fill()
	} else {
		b := img.Bounds()
		dc.Push()
		dc.Translate(offsetX, 0)
		dc.Scale(w/float64(b.Dx()), h/float64(b.Dy()))
		dc.DrawImage(img, 0, 0)
		dc.Pop()
	}

	for _, room := range fp.Rooms {
		drawRoom(dc, room, offsetX, w, h, entryColor, highlightFor)
	}
}

func drawRoom(dc *gg.Context, room *models.Room, offsetX, w, h float64,
	entryColor map[int64]string, highlightFor map[int64]int64) {

	if room.IsPolygon() {
		dc.NewSubPath()
		for i, v := range room.Vertices {
			x := offsetX + v.X/100*w
			y := v.Y / 100 * h
			if i == 0 {
				dc.MoveTo(x, y)
			} else {
				dc.LineTo(x, y)
			}
		}
		dc.ClosePath()
	} else {
		dc.DrawRectangle(offsetX+room.X/100*w, room.Y/100*h, room.Width/100*w, room.Height/100*h)
	}

	if entryID, ok := highlightFor[room.ID]; ok {
		if hex, ok := entryColor[entryID]; ok {
			r, g, b := parseHex(hex)
			dc.SetRGBA(r, g, b, highlightAlpha)
			dc.FillPreserve()
		}
	}
	dc.SetRGBA(0.2, 0.2, 0.2, 0.9)
	dc.SetLineWidth(1.5)
	dc.Stroke()

	cx := offsetX + (room.X+room.Width/2)/100*w
	cy := (room.Y + room.Height/2) / 100 * h
	dc.SetRGB(0.1, 0.1, 0.1)
	dc.DrawStringAnchored(room.Name, cx, cy, 0.5, 0.5)
}

// ============================================================
// Icons
// ============================================================

// drawIcons paints placements back-to-front so the z-order on screen is
// the z-order on paper. Placement coordinates are content pixels, the
// same space tiles are laid out in, so only the export scale applies.
func drawIcons(dc *gg.Context, in Input, scale float64) {
	for _, ic := range models.SortedByZ(placementPtrs(in.Design.Icons)) {
		cx := (ic.X + ic.Width/2) * scale
		cy := (ic.Y + ic.Height/2) * scale
		img := in.IconImages[ic.IconLibraryID]

		dc.Push()
		if ic.Rotation != 0 {
			dc.RotateAbout(gg.Radians(ic.Rotation), cx, cy)
		}
		if img == nil {
			dc.SetRGBA(0.6, 0.6, 0.6, 0.8)
			dc.DrawRectangle(cx-ic.Width/2*scale, cy-ic.Height/2*scale, ic.Width*scale, ic.Height*scale)
			dc.Fill()
		} else {
			b := img.Bounds()
			dc.Translate(cx-ic.Width/2*scale, cy-ic.Height/2*scale)
			dc.Scale(ic.Width*scale/float64(b.Dx()), ic.Height*scale/float64(b.Dy()))
			dc.DrawImage(img, 0, 0)
		}
		dc.Pop()
	}
}

func placementPtrs(icons []models.IconPlacement) []*models.IconPlacement {
	out := make([]*models.IconPlacement, len(icons))
	for i := range icons {
		out[i] = &icons[i]
	}
	return out
}

// ============================================================
// Legend panel
// ============================================================

func legendHeight(d *models.DesignState) float64 {
	rows := float64(len(d.KeyEntries)) * legendRowH
	rows += float64(len(usedIconIDs(d))) * legendRowH
	// two section headers plus padding
	return rows + 2*legendRowH + 3*panelPad
}

func usedIconIDs(d *models.DesignState) []int64 {
	seen := make(map[int64]bool)
	var ids []int64
	for _, ic := range d.Icons {
		if !seen[ic.IconLibraryID] {
			seen[ic.IconLibraryID] = true
			ids = append(ids, ic.IconLibraryID)
		}
	}
	return ids
}

func drawLegend(dc *gg.Context, in Input, panelX float64) {
	d := in.Design
	dc.SetRGB(0.97, 0.97, 0.97)
	dc.DrawRectangle(panelX, 0, legendPanelW, float64(dc.Height()))
	dc.Fill()

	x := panelX + panelPad
	y := panelPad + legendRowH/2

	dc.SetRGB(0.1, 0.1, 0.1)
	dc.DrawStringAnchored("Key", x, y, 0, 0.5)
	y += legendRowH

	for _, e := range d.KeyEntries {
		r, g, b := parseHex(e.ColorHex)
		dc.SetRGB(r, g, b)
		dc.DrawRectangle(x, y-swatchSize/2, swatchSize, swatchSize)
		dc.Fill()
		dc.SetRGBA(0.2, 0.2, 0.2, 1)
		dc.DrawRectangle(x, y-swatchSize/2, swatchSize, swatchSize)
		dc.SetLineWidth(1)
		dc.Stroke()
		dc.SetRGB(0.1, 0.1, 0.1)
		dc.DrawStringAnchored(e.Label, x+swatchSize+8, y, 0, 0.5)
		y += legendRowH
	}

	used := usedIconIDs(d)
	if len(used) == 0 {
		return
	}
	y += panelPad
	dc.SetRGB(0.1, 0.1, 0.1)
	dc.DrawStringAnchored("Icons used", x, y, 0, 0.5)
	y += legendRowH

	for _, id := range used {
		if img := in.IconImages[id]; img != nil {
			b := img.Bounds()
			if b.Dx() > 0 && b.Dy() > 0 {
				dc.Push()
				dc.Translate(x, y-swatchSize/2)
				dc.Scale(swatchSize/float64(b.Dx()), swatchSize/float64(b.Dy()))
				dc.DrawImage(img, 0, 0)
				dc.Pop()
			}
		} else {
			dc.SetRGBA(0.6, 0.6, 0.6, 0.8)
			dc.DrawRectangle(x, y-swatchSize/2, swatchSize, swatchSize)
			dc.Fill()
		}
		label := in.IconLabels[id]
		if label == "" {
			label = fmt.Sprintf("icon %d", id)
		}
		dc.SetRGB(0.1, 0.1, 0.1)
		dc.DrawStringAnchored(label, x+swatchSize+8, y, 0, 0.5)
		y += legendRowH
	}
}

// parseHex reads #RRGGBB into unit floats. Invalid input falls back to
// mid gray instead of erroring; colors are validated at entry time.
func parseHex(hex string) (r, g, b float64) {
	if len(hex) != 7 || hex[0] != '#' {
		return 0.5, 0.5, 0.5
	}
	var ri, gi, bi int
	if _, err := fmt.Sscanf(hex[1:], "%02x%02x%02x", &ri, &gi, &bi); err != nil {
		return 0.5, 0.5, 0.5
	}
	return float64(ri) / 255, float64(gi) / 255, float64(bi) / 255
}
