package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"floorplan-studio/internal/designer/api"
	"floorplan-studio/internal/designer/models"
)

// ============================================================
// SQLite Repository
// ============================================================

var ErrNotFound = errors.New("not found")

type Repository struct {
	db *sql.DB
}

func New(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Init runs migrations and seeds the built-in icon catalog.
func (r *Repository) Init(ctx context.Context, migrationsPath string) error {
	if err := r.runMigrations(migrationsPath); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	return r.seedBuiltinIcons(ctx)
}

// ============================================================
// Designs
// ============================================================

func (r *Repository) CreateDesign(ctx context.Context, name string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `INSERT INTO designs (name) VALUES (?)`, name)
	if err != nil {
		return 0, fmt.Errorf("create design: %w", err)
	}
	return res.LastInsertId()
}

func (r *Repository) AttachFloorplan(ctx context.Context, designID, floorplanID int64, canvasX int) error {
	_, err := r.db.ExecContext(ctx, `
        INSERT INTO design_floorplans (design_id, floorplan_id, canvas_x)
        VALUES (?, ?, ?)
        ON CONFLICT (design_id, floorplan_id) DO UPDATE SET canvas_x = excluded.canvas_x
    `, designID, floorplanID, canvasX)
	return err
}

func (r *Repository) CreateFloorplan(ctx context.Context, name, imagePath string, widthPx, heightPx int) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
        INSERT INTO floorplans (name, image_path, width_px, height_px)
        VALUES (?, ?, ?, ?)
    `, name, imagePath, widthPx, heightPx)
	if err != nil {
		return 0, fmt.Errorf("create floorplan: %w", err)
	}
	return res.LastInsertId()
}

func (r *Repository) FloorplanImagePath(ctx context.Context, floorplanID int64) (string, error) {
	var path string
	err := r.db.QueryRowContext(ctx,
		`SELECT image_path FROM floorplans WHERE id = ?`, floorplanID).Scan(&path)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	return path, err
}

// GetDesignState assembles the full snapshot the editor loads: floorplans
// in canvas order with their rooms, key entries by sort order, highlights,
// icons by z order.
func (r *Repository) GetDesignState(ctx context.Context, designID int64) (*models.DesignState, error) {
	state := &models.DesignState{ID: designID}
	err := r.db.QueryRowContext(ctx,
		`SELECT name FROM designs WHERE id = ?`, designID).Scan(&state.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `
        SELECT f.id, f.name, f.image_path
        FROM floorplans f
        JOIN design_floorplans df ON df.floorplan_id = f.id
        WHERE df.design_id = ?
        ORDER BY df.canvas_x
    `, designID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var fp models.Floorplan
		var imagePath string
		if err := rows.Scan(&fp.ID, &fp.Name, &imagePath); err != nil {
			return nil, err
		}
		fp.ThumbnailURL = "/assets/" + imagePath
		state.Floorplans = append(state.Floorplans, &fp)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, fp := range state.Floorplans {
		fpRooms, err := r.ListRooms(ctx, fp.ID)
		if err != nil {
			return nil, err
		}
		for i := range fpRooms {
			fp.Rooms = append(fp.Rooms, &fpRooms[i])
		}
	}

	entries, err := r.listKeyEntries(ctx, designID)
	if err != nil {
		return nil, err
	}
	state.KeyEntries = entries

	hlRows, err := r.db.QueryContext(ctx, `
        SELECT room_id, key_entry_id FROM design_room_highlights WHERE design_id = ?
    `, designID)
	if err != nil {
		return nil, err
	}
	defer hlRows.Close()
	for hlRows.Next() {
		var hl models.Highlight
		if err := hlRows.Scan(&hl.RoomID, &hl.KeyEntryID); err != nil {
			return nil, err
		}
		state.Highlights = append(state.Highlights, hl)
	}
	if err := hlRows.Err(); err != nil {
		return nil, err
	}

	iconRows, err := r.db.QueryContext(ctx, `
        SELECT id, icon_library_id, x, y, width, height, rotation, is_free_placed, z_order
        FROM design_icons
        WHERE design_id = ?
        ORDER BY z_order
    `, designID)
	if err != nil {
		return nil, err
	}
	defer iconRows.Close()
	for iconRows.Next() {
		var ic models.IconPlacement
		if err := iconRows.Scan(&ic.ClientID, &ic.IconLibraryID, &ic.X, &ic.Y,
			&ic.Width, &ic.Height, &ic.Rotation, &ic.FreePlaced, &ic.ZOrder); err != nil {
			return nil, err
		}
		state.Icons = append(state.Icons, ic)
	}
	return state, iconRows.Err()
}

func (r *Repository) listKeyEntries(ctx context.Context, designID int64) ([]models.KeyEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT id, color_hex, label, sort_order
        FROM design_key_entries
        WHERE design_id = ?
        ORDER BY sort_order
    `, designID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []models.KeyEntry
	for rows.Next() {
		var e models.KeyEntry
		if err := rows.Scan(&e.RemoteID, &e.ColorHex, &e.Label, &e.SortOrder); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *Repository) DesignExists(ctx context.Context, designID int64) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx,
		`SELECT 1 FROM designs WHERE id = ?`, designID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

// ============================================================
// Full-replace sync
// ============================================================

// ReplaceKeyEntries deletes the design's entries and reinserts the payload
// in one transaction. Every entry gets a fresh id; clients reconcile by
// position, not by id.
func (r *Repository) ReplaceKeyEntries(ctx context.Context, designID int64, entries []api.KeyEntryPayload) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM design_key_entries WHERE design_id = ?`, designID); err != nil {
			return err
		}
		for _, e := range entries {
			if _, err := tx.ExecContext(ctx, `
                INSERT INTO design_key_entries (design_id, color_hex, label, sort_order)
                VALUES (?, ?, ?, ?)
            `, designID, e.ColorHex, e.Label, e.SortOrder); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *Repository) ReplaceHighlights(ctx context.Context, designID int64, highlights []api.HighlightPayload) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM design_room_highlights WHERE design_id = ?`, designID); err != nil {
			return err
		}
		for _, hl := range highlights {
			if _, err := tx.ExecContext(ctx, `
                INSERT INTO design_room_highlights (design_id, room_id, key_entry_id)
                VALUES (?, ?, ?)
            `, designID, hl.RoomID, hl.KeyEntryID); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *Repository) ReplaceIcons(ctx context.Context, designID int64, icons []api.IconPayload) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM design_icons WHERE design_id = ?`, designID); err != nil {
			return err
		}
		for _, ic := range icons {
			if _, err := tx.ExecContext(ctx, `
                INSERT INTO design_icons
                    (design_id, icon_library_id, x, y, width, height, rotation, is_free_placed, z_order)
                VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
            `, designID, ic.IconLibraryID, ic.X, ic.Y, ic.Width, ic.Height,
				ic.Rotation, ic.FreePlaced, ic.ZOrder); err != nil {
				return err
			}
		}
		return nil
	})
}

// ============================================================
// Rooms
// ============================================================

func (r *Repository) ListRooms(ctx context.Context, floorplanID int64) ([]models.Room, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT id, name, x, y, width, height, vertices
        FROM rooms
        WHERE floorplan_id = ?
        ORDER BY id
    `, floorplanID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var rooms []models.Room
	for rows.Next() {
		var room models.Room
		var vertices sql.NullString
		if err := rows.Scan(&room.ID, &room.Name, &room.X, &room.Y,
			&room.Width, &room.Height, &vertices); err != nil {
			return nil, err
		}
		if vertices.Valid && vertices.String != "" {
			if err := json.Unmarshal([]byte(vertices.String), &room.Vertices); err != nil {
				return nil, fmt.Errorf("room %d vertices: %w", room.ID, err)
			}
		}
		rooms = append(rooms, room)
	}
	return rooms, rows.Err()
}

// ReplaceRooms rewrites a floorplan's room list. Polygon payloads store
// their vertex list as JSON and the computed bbox in the rect columns.
func (r *Repository) ReplaceRooms(ctx context.Context, floorplanID int64, rooms []api.RoomPayload) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM rooms WHERE floorplan_id = ?`, floorplanID); err != nil {
			return err
		}
		for _, room := range rooms {
			if len(room.Vertices) >= 3 {
				bbox := models.BoundsOf(room.Vertices)
				data, err := json.Marshal(room.Vertices)
				if err != nil {
					return err
				}
				if _, err := tx.ExecContext(ctx, `
                    INSERT INTO rooms (floorplan_id, name, x, y, width, height, vertices)
                    VALUES (?, ?, ?, ?, ?, ?, ?)
                `, floorplanID, room.Name, bbox.X, bbox.Y, bbox.Width, bbox.Height, string(data)); err != nil {
					return err
				}
				continue
			}
			if _, err := tx.ExecContext(ctx, `
                INSERT INTO rooms (floorplan_id, name, x, y, width, height, vertices)
                VALUES (?, ?, ?, ?, ?, ?, NULL)
            `, floorplanID, room.Name, *room.X, *room.Y, *room.Width, *room.Height); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *Repository) FloorplanExists(ctx context.Context, floorplanID int64) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx,
		`SELECT 1 FROM floorplans WHERE id = ?`, floorplanID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

// ============================================================
// Icon library
// ============================================================

func (r *Repository) ListIcons(ctx context.Context, custom bool) ([]models.IconLibraryEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT id, category, label, icon_path
        FROM icon_libraries
        WHERE custom = ?
        ORDER BY category, label
    `, custom)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var icons []models.IconLibraryEntry
	for rows.Next() {
		var ic models.IconLibraryEntry
		var path string
		if err := rows.Scan(&ic.ID, &ic.Category, &ic.Label, &path); err != nil {
			return nil, err
		}
		ic.Custom = custom
		ic.URL = "/assets/" + path
		icons = append(icons, ic)
	}
	return icons, rows.Err()
}

func (r *Repository) GetIcon(ctx context.Context, iconID int64) (*models.IconLibraryEntry, string, error) {
	var ic models.IconLibraryEntry
	var path string
	err := r.db.QueryRowContext(ctx, `
        SELECT id, custom, category, label, icon_path
        FROM icon_libraries WHERE id = ?
    `, iconID).Scan(&ic.ID, &ic.Custom, &ic.Category, &ic.Label, &path)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, "", ErrNotFound
	}
	if err != nil {
		return nil, "", err
	}
	ic.URL = "/assets/" + path
	return &ic, path, nil
}

func (r *Repository) InsertIcon(ctx context.Context, category, label, path string, custom bool) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
        INSERT INTO icon_libraries (custom, category, label, icon_path)
        VALUES (?, ?, ?, ?)
    `, custom, category, label, path)
	if err != nil {
		return 0, fmt.Errorf("insert icon: %w", err)
	}
	return res.LastInsertId()
}

// DeleteIcon removes the catalog entry and reports whether any design
// still referenced it. Placements cascade away with the entry.
func (r *Repository) DeleteIcon(ctx context.Context, iconID int64) (wasInUse bool, err error) {
	err = r.db.QueryRowContext(ctx, `
        SELECT EXISTS (SELECT 1 FROM design_icons WHERE icon_library_id = ?)
    `, iconID).Scan(&wasInUse)
	if err != nil {
		return false, err
	}
	_, err = r.db.ExecContext(ctx, `DELETE FROM icon_libraries WHERE id = ?`, iconID)
	return wasInUse, err
}

func (r *Repository) IconExists(ctx context.Context, iconID int64) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx,
		`SELECT 1 FROM icon_libraries WHERE id = ?`, iconID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

// ============================================================
// Migrations & Seeding
// ============================================================

func (r *Repository) runMigrations(migrationsPath string) error {
	data, err := os.ReadFile(migrationsPath)
	if err != nil {
		return fmt.Errorf("read migration: %w", err)
	}
	if _, err := r.db.Exec(string(data)); err != nil {
		return fmt.Errorf("apply migration: %w", err)
	}
	return nil
}

var builtinIcons = []struct {
	Category, Label, Path string
}{
	{"Furniture", "Chair", "icons/furniture/chair.svg"},
	{"Furniture", "Sofa", "icons/furniture/sofa.svg"},
	{"Furniture", "Bed", "icons/furniture/bed.svg"},
	{"Furniture", "Desk", "icons/furniture/desk.svg"},
	{"Furniture", "Wardrobe", "icons/furniture/wardrobe.svg"},
	{"Furniture", "Bookshelf", "icons/furniture/bookshelf.svg"},
	{"Furniture", "Dresser", "icons/furniture/dresser.svg"},
	{"Furniture", "Dining Table", "icons/furniture/dining-table.svg"},
	{"Furniture", "Coffee Table", "icons/furniture/coffee-table.svg"},
	{"Furniture", "Nightstand", "icons/furniture/nightstand.svg"},
	{"Appliances", "Refrigerator", "icons/appliances/refrigerator.svg"},
	{"Appliances", "Stove", "icons/appliances/stove.svg"},
	{"Appliances", "Washing Machine", "icons/appliances/washing-machine.svg"},
	{"Appliances", "Dryer", "icons/appliances/dryer.svg"},
	{"Appliances", "Dishwasher", "icons/appliances/dishwasher.svg"},
	{"Fixtures", "Toilet", "icons/fixtures/toilet.svg"},
	{"Fixtures", "Sink", "icons/fixtures/sink.svg"},
	{"Fixtures", "Bathtub", "icons/fixtures/bathtub.svg"},
	{"Fixtures", "Shower", "icons/fixtures/shower.svg"},
	{"Office", "Office Chair", "icons/office/office-chair.svg"},
	{"Office", "Monitor", "icons/office/monitor.svg"},
	{"Office", "Filing Cabinet", "icons/office/filing-cabinet.svg"},
	{"Office", "Whiteboard", "icons/office/whiteboard.svg"},
}

func (r *Repository) seedBuiltinIcons(ctx context.Context) error {
	for _, ic := range builtinIcons {
		_, err := r.db.ExecContext(ctx, `
            INSERT INTO icon_libraries (custom, category, label, icon_path)
            VALUES (0, ?, ?, ?)
            ON CONFLICT (custom, category, label) DO UPDATE SET icon_path = excluded.icon_path
        `, ic.Category, ic.Label, ic.Path)
		if err != nil {
			return fmt.Errorf("seed icon %q: %w", ic.Label, err)
		}
	}
	return nil
}

func (r *Repository) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

// OpenSQLite opens the database at the given path, creating parent
// directories as needed.
func OpenSQLite(dbPath string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir db dir: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?cache=shared&mode=rwc&_pragma=busy_timeout=5000&_pragma=foreign_keys=1", dbPath)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	return db, nil
}
