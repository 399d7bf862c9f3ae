package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"floorplan-studio/internal/designer/models"
)

// ============================================================
// Studio API Client
// ============================================================

// StatusError carries the HTTP status of a failed call so callers can
// tell validation failures (4xx, pointless to retry) from transient ones.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("server returned status %d: %s", e.Status, e.Body)
}

// IsValidation reports whether the error is a non-retryable 4xx.
func IsValidation(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Status >= 400 && se.Status < 500
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// ============================================================
// Design state
// ============================================================

func (c *Client) GetState(ctx context.Context, designID int64) (*models.DesignState, error) {
	var state models.DesignState
	path := fmt.Sprintf("/api/designs/%d/state", designID)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &state); err != nil {
		return nil, fmt.Errorf("fetch design state: %w", err)
	}
	return &state, nil
}

func (c *Client) PutKeyEntries(ctx context.Context, designID int64, req KeyEntriesRequest) error {
	path := fmt.Sprintf("/api/designs/%d/key-entries", designID)
	return c.doJSON(ctx, http.MethodPut, path, req, nil)
}

func (c *Client) PutHighlights(ctx context.Context, designID int64, req HighlightsRequest) error {
	path := fmt.Sprintf("/api/designs/%d/highlights", designID)
	return c.doJSON(ctx, http.MethodPut, path, req, nil)
}

func (c *Client) PutIcons(ctx context.Context, designID int64, req IconsRequest) error {
	path := fmt.Sprintf("/api/designs/%d/icons", designID)
	return c.doJSON(ctx, http.MethodPut, path, req, nil)
}

// ============================================================
// Rooms (per floorplan)
// ============================================================

func (c *Client) GetRooms(ctx context.Context, floorplanID int64) ([]models.Room, error) {
	var rooms []models.Room
	path := fmt.Sprintf("/api/floorplans/%d/rooms", floorplanID)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &rooms); err != nil {
		return nil, fmt.Errorf("fetch rooms: %w", err)
	}
	return rooms, nil
}

func (c *Client) PutRooms(ctx context.Context, floorplanID int64, req RoomsRequest) error {
	path := fmt.Sprintf("/api/floorplans/%d/rooms", floorplanID)
	return c.doJSON(ctx, http.MethodPut, path, req, nil)
}

// ============================================================
// Icon catalog
// ============================================================

func (c *Client) GetIconCatalog(ctx context.Context) (*IconCatalog, error) {
	var catalog IconCatalog
	if err := c.doJSON(ctx, http.MethodGet, "/api/icons", nil, &catalog); err != nil {
		return nil, fmt.Errorf("fetch icon catalog: %w", err)
	}
	return &catalog, nil
}

// UploadIcon sends a custom icon as multipart form data.
func (c *Client) UploadIcon(ctx context.Context, label, category, filename string, file io.Reader) (*models.IconLibraryEntry, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := w.WriteField("label", label); err != nil {
		return nil, err
	}
	if err := w.WriteField("category", category); err != nil {
		return nil, err
	}
	part, err := w.CreateFormFile("icon", filename)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/icons", &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	var entry models.IconLibraryEntry
	if err := c.do(req, &entry); err != nil {
		return nil, fmt.Errorf("upload icon: %w", err)
	}
	return &entry, nil
}

func (c *Client) DeleteIcon(ctx context.Context, iconID int64) (*IconDeleteResponse, error) {
	var resp IconDeleteResponse
	path := fmt.Sprintf("/api/icons/%d", iconID)
	if err := c.doJSON(ctx, http.MethodDelete, path, nil, &resp); err != nil {
		return nil, fmt.Errorf("delete icon: %w", err)
	}
	return &resp, nil
}

// ============================================================
// Transport helpers
// ============================================================

func (c *Client) doJSON(ctx context.Context, method, path string, body, dest any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req, dest)
}

func (c *Client) do(req *http.Request, dest any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(resp.Body)
		return &StatusError{Status: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}

	if dest == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		if err == io.EOF {
			return nil
		}
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
