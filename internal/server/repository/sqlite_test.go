package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"floorplan-studio/internal/designer/api"
	"floorplan-studio/internal/designer/models"
)

const migrationFile = "../../../migrations/001_init_studio.sql"

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "studio.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	repo := New(db)
	if err := repo.Init(context.Background(), migrationFile); err != nil {
		t.Fatalf("init: %v", err)
	}
	return repo
}

// seedDesign creates a design with one attached floorplan and returns
// both ids.
func seedDesign(t *testing.T, repo *Repository) (designID, floorplanID int64) {
	t.Helper()
	ctx := context.Background()
	designID, err := repo.CreateDesign(ctx, "Test Design")
	if err != nil {
		t.Fatalf("create design: %v", err)
	}
	floorplanID, err = repo.CreateFloorplan(ctx, "Ground Floor", "floorplans/1.png", 800, 600)
	if err != nil {
		t.Fatalf("create floorplan: %v", err)
	}
	if err := repo.AttachFloorplan(ctx, designID, floorplanID, 0); err != nil {
		t.Fatalf("attach floorplan: %v", err)
	}
	return designID, floorplanID
}

func rectPayload(name string, x, y, w, h float64) api.RoomPayload {
	return api.RoomPayload{Name: name, X: &x, Y: &y, Width: &w, Height: &h}
}

func TestInit_SeedsBuiltinCatalogOnce(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	icons, err := repo.ListIcons(ctx, false)
	if err != nil {
		t.Fatalf("list icons: %v", err)
	}
	if len(icons) != 23 {
		t.Fatalf("expected 23 built-in icons, got %d", len(icons))
	}

	// re-running init must upsert, not duplicate
	if err := repo.Init(ctx, migrationFile); err != nil {
		t.Fatalf("second init: %v", err)
	}
	icons, err = repo.ListIcons(ctx, false)
	if err != nil {
		t.Fatalf("list icons: %v", err)
	}
	if len(icons) != 23 {
		t.Fatalf("second init duplicated the catalog: %d icons", len(icons))
	}
}

func TestGetDesignState_MissingDesign(t *testing.T) {
	repo := newTestRepo(t)
	if _, err := repo.GetDesignState(context.Background(), 999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetDesignState_FloorplansInCanvasOrder(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	designID, _ := seedDesign(t, repo)

	second, err := repo.CreateFloorplan(ctx, "First Floor", "floorplans/2.png", 800, 600)
	if err != nil {
		t.Fatalf("create floorplan: %v", err)
	}
	// attach the second plan to the left of the first
	if err := repo.AttachFloorplan(ctx, designID, second, -1); err != nil {
		t.Fatalf("attach floorplan: %v", err)
	}

	state, err := repo.GetDesignState(ctx, designID)
	if err != nil {
		t.Fatalf("get state: %v", err)
	}
	if len(state.Floorplans) != 2 {
		t.Fatalf("expected 2 floorplans, got %d", len(state.Floorplans))
	}
	if state.Floorplans[0].ID != second {
		t.Fatalf("expected canvas order, got %d first", state.Floorplans[0].ID)
	}
	if state.Floorplans[0].ThumbnailURL != "/assets/floorplans/2.png" {
		t.Fatalf("unexpected thumbnail url %q", state.Floorplans[0].ThumbnailURL)
	}
}

func TestReplaceKeyEntries_AssignsFreshIDs(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	designID, _ := seedDesign(t, repo)

	first := []api.KeyEntryPayload{
		{ColorHex: "#FF0000", Label: "Bedrooms", SortOrder: 0},
		{ColorHex: "#00FF00", Label: "Offices", SortOrder: 1},
	}
	if err := repo.ReplaceKeyEntries(ctx, designID, first); err != nil {
		t.Fatalf("replace: %v", err)
	}
	before, err := repo.listKeyEntries(ctx, designID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}

	// same labels resent: the rows are rewritten and every id changes
	if err := repo.ReplaceKeyEntries(ctx, designID, first); err != nil {
		t.Fatalf("replace again: %v", err)
	}
	after, err := repo.listKeyEntries(ctx, designID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(after) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(after))
	}
	for i := range after {
		if after[i].RemoteID <= before[i].RemoteID {
			t.Fatalf("entry %d kept a stale id: %d then %d", i, before[i].RemoteID, after[i].RemoteID)
		}
		if after[i].Label != first[i].Label || after[i].SortOrder != i {
			t.Fatalf("entry %d mangled: %+v", i, after[i])
		}
	}
}

func TestReplaceKeyEntries_CascadesHighlights(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	designID, floorplanID := seedDesign(t, repo)

	if err := repo.ReplaceRooms(ctx, floorplanID, []api.RoomPayload{
		rectPayload("Kitchen", 10, 10, 30, 30),
	}); err != nil {
		t.Fatalf("replace rooms: %v", err)
	}
	rooms, err := repo.ListRooms(ctx, floorplanID)
	if err != nil {
		t.Fatalf("list rooms: %v", err)
	}
	if err := repo.ReplaceKeyEntries(ctx, designID, []api.KeyEntryPayload{
		{ColorHex: "#FF0000", Label: "Bedrooms"},
	}); err != nil {
		t.Fatalf("replace entries: %v", err)
	}
	entries, err := repo.listKeyEntries(ctx, designID)
	if err != nil {
		t.Fatalf("list entries: %v", err)
	}
	if err := repo.ReplaceHighlights(ctx, designID, []api.HighlightPayload{
		{RoomID: rooms[0].ID, KeyEntryID: entries[0].RemoteID},
	}); err != nil {
		t.Fatalf("replace highlights: %v", err)
	}

	// rewriting the entries deletes the old rows; highlights follow
	if err := repo.ReplaceKeyEntries(ctx, designID, []api.KeyEntryPayload{
		{ColorHex: "#00FF00", Label: "Offices"},
	}); err != nil {
		t.Fatalf("replace entries again: %v", err)
	}
	state, err := repo.GetDesignState(ctx, designID)
	if err != nil {
		t.Fatalf("get state: %v", err)
	}
	if len(state.Highlights) != 0 {
		t.Fatalf("expected highlights to cascade away, got %d", len(state.Highlights))
	}
}

func TestReplaceRooms_PolygonStoresVerticesAndBBox(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	_, floorplanID := seedDesign(t, repo)

	verts := []models.Point{{X: 10, Y: 10}, {X: 40, Y: 12}, {X: 25, Y: 50}}
	payload := []api.RoomPayload{
		rectPayload("Kitchen", 5, 5, 20, 20),
		{Name: "Lobby", Vertices: verts},
	}
	if err := repo.ReplaceRooms(ctx, floorplanID, payload); err != nil {
		t.Fatalf("replace rooms: %v", err)
	}

	rooms, err := repo.ListRooms(ctx, floorplanID)
	if err != nil {
		t.Fatalf("list rooms: %v", err)
	}
	if len(rooms) != 2 {
		t.Fatalf("expected 2 rooms, got %d", len(rooms))
	}
	rect, poly := rooms[0], rooms[1]
	if rect.IsPolygon() || rect.X != 5 || rect.Width != 20 {
		t.Fatalf("rect room mangled: %+v", rect)
	}
	if !poly.IsPolygon() || len(poly.Vertices) != 3 {
		t.Fatalf("polygon room mangled: %+v", poly)
	}
	// server-computed bbox
	if poly.X != 10 || poly.Y != 10 || poly.Width != 30 || poly.Height != 40 {
		t.Fatalf("polygon bbox wrong: x=%v y=%v w=%v h=%v", poly.X, poly.Y, poly.Width, poly.Height)
	}

	// a second sync fully replaces the list
	if err := repo.ReplaceRooms(ctx, floorplanID, payload[:1]); err != nil {
		t.Fatalf("replace rooms again: %v", err)
	}
	rooms, err = repo.ListRooms(ctx, floorplanID)
	if err != nil {
		t.Fatalf("list rooms: %v", err)
	}
	if len(rooms) != 1 || rooms[0].Name != "Kitchen" {
		t.Fatalf("expected only the kitchen to remain, got %+v", rooms)
	}
}

func TestReplaceIcons_RoundTripsThroughState(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	designID, _ := seedDesign(t, repo)

	builtin, err := repo.ListIcons(ctx, false)
	if err != nil {
		t.Fatalf("list icons: %v", err)
	}
	lib := builtin[0].ID

	icons := []api.IconPayload{
		{IconLibraryID: lib, X: 48, Y: 24, Width: 48, Height: 48, ZOrder: 1},
		{IconLibraryID: lib, X: 100, Y: 50, Width: 32, Height: 32, Rotation: 45, FreePlaced: true, ZOrder: 0},
	}
	if err := repo.ReplaceIcons(ctx, designID, icons); err != nil {
		t.Fatalf("replace icons: %v", err)
	}

	state, err := repo.GetDesignState(ctx, designID)
	if err != nil {
		t.Fatalf("get state: %v", err)
	}
	if len(state.Icons) != 2 {
		t.Fatalf("expected 2 icons, got %d", len(state.Icons))
	}
	// state comes back in z order
	if state.Icons[0].ZOrder != 0 || !state.Icons[0].FreePlaced || state.Icons[0].Rotation != 45 {
		t.Fatalf("z-order 0 icon mangled: %+v", state.Icons[0])
	}
	if state.Icons[1].X != 48 || state.Icons[1].Width != 48 {
		t.Fatalf("z-order 1 icon mangled: %+v", state.Icons[1])
	}
}

func TestDeleteIcon_ReportsUseAndCascadesPlacements(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	designID, _ := seedDesign(t, repo)

	iconID, err := repo.InsertIcon(ctx, "Custom", "Plant", "icons/custom/plant.png", true)
	if err != nil {
		t.Fatalf("insert icon: %v", err)
	}
	if err := repo.ReplaceIcons(ctx, designID, []api.IconPayload{
		{IconLibraryID: iconID, X: 10, Y: 10, Width: 48, Height: 48},
	}); err != nil {
		t.Fatalf("replace icons: %v", err)
	}

	wasInUse, err := repo.DeleteIcon(ctx, iconID)
	if err != nil {
		t.Fatalf("delete icon: %v", err)
	}
	if !wasInUse {
		t.Fatalf("expected the icon to be reported in use")
	}
	if exists, _ := repo.IconExists(ctx, iconID); exists {
		t.Fatalf("icon survived deletion")
	}
	state, err := repo.GetDesignState(ctx, designID)
	if err != nil {
		t.Fatalf("get state: %v", err)
	}
	if len(state.Icons) != 0 {
		t.Fatalf("expected placements to cascade away, got %d", len(state.Icons))
	}

	// deleting an unused icon reports false
	unused, err := repo.InsertIcon(ctx, "Custom", "Rug", "icons/custom/rug.png", true)
	if err != nil {
		t.Fatalf("insert icon: %v", err)
	}
	wasInUse, err = repo.DeleteIcon(ctx, unused)
	if err != nil {
		t.Fatalf("delete icon: %v", err)
	}
	if wasInUse {
		t.Fatalf("unused icon reported in use")
	}
}

func TestListIcons_SeparatesCustomFromBuiltin(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if _, err := repo.InsertIcon(ctx, "Custom", "Plant", "icons/custom/plant.png", true); err != nil {
		t.Fatalf("insert icon: %v", err)
	}
	custom, err := repo.ListIcons(ctx, true)
	if err != nil {
		t.Fatalf("list custom: %v", err)
	}
	if len(custom) != 1 || !custom[0].Custom || custom[0].URL != "/assets/icons/custom/plant.png" {
		t.Fatalf("unexpected custom catalog %+v", custom)
	}
	builtin, err := repo.ListIcons(ctx, false)
	if err != nil {
		t.Fatalf("list builtin: %v", err)
	}
	for _, ic := range builtin {
		if ic.Custom {
			t.Fatalf("custom icon leaked into the built-in catalog: %+v", ic)
		}
	}
}
