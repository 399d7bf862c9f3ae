package sync

import (
	"context"
	"sync"
	"time"

	"floorplan-studio/internal/common/logger"
	"floorplan-studio/internal/designer/api"
	"floorplan-studio/internal/designer/editor"
)

const defaultRoomDebounce = 500 * time.Millisecond

// RoomSyncer pushes one floorplan's room list to the server. Rooms live
// outside the design flush pipeline: they are edited in setup mode, the
// endpoint is a plain full replace per floorplan, and nothing downstream
// depends on the ids it assigns, so each flush is one debounced PUT with
// the coordinator's retry policy. Schedule serializes the room list on
// the caller's goroutine; the flush goroutine only ever sees that copy,
// so the editor needs no locking of its own.
type RoomSyncer struct {
	client      *api.Client
	floorplanID int64
	rooms       *editor.RoomEditor
	log         *logger.Logger
	debounce    time.Duration
	retryDelay  time.Duration
	maxRetries  int
	onStatus    func(Status, int)

	mu               sync.Mutex
	timer            *time.Timer
	pending          []api.RoomPayload
	saving           bool
	dirtyWhileSaving bool
	closed           bool
	wg               sync.WaitGroup
}

func NewRoomSyncer(client *api.Client, floorplanID int64, rooms *editor.RoomEditor, log *logger.Logger, cfg Config) *RoomSyncer {
	if cfg.Debounce <= 0 {
		cfg.Debounce = defaultRoomDebounce
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = defaultRetryDelay
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = defaultMaxRetries
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &RoomSyncer{
		client:      client,
		floorplanID: floorplanID,
		rooms:       rooms,
		log:         log,
		debounce:    cfg.Debounce,
		retryDelay:  cfg.RetryDelay,
		maxRetries:  cfg.MaxRetries,
		onStatus:    cfg.OnStatus,
	}
}

func (r *RoomSyncer) Schedule() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.pending = editor.RoomsPayload(r.rooms.Rooms())
	r.notify(StatusUnsaved, 0)
	if r.saving {
		r.dirtyWhileSaving = true
		return
	}
	if r.timer != nil {
		r.timer.Stop()
	}
	r.timer = time.AfterFunc(r.debounce, r.runFlush)
}

func (r *RoomSyncer) Close() {
	r.mu.Lock()
	r.closed = true
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
	r.mu.Unlock()
	r.wg.Wait()
}

func (r *RoomSyncer) notify(status Status, attempt int) {
	if r.onStatus != nil {
		r.onStatus(status, attempt)
	}
}

func (r *RoomSyncer) runFlush() {
	r.mu.Lock()
	if r.closed || r.saving {
		r.mu.Unlock()
		return
	}
	r.saving = true
	r.wg.Add(1)
	r.mu.Unlock()
	defer r.wg.Done()

	for {
		r.mu.Lock()
		r.dirtyWhileSaving = false
		payload := r.pending
		r.mu.Unlock()
		r.notify(StatusSaving, 0)

		err := r.putWithRetries(api.RoomsRequest{Rooms: payload})

		r.mu.Lock()
		rerun := r.dirtyWhileSaving && !r.closed
		if !rerun {
			r.saving = false
		}
		r.mu.Unlock()

		if err != nil {
			r.log.Error("room save failed", "floorplan_id", r.floorplanID, "error", err)
			r.notify(StatusFailed, 0)
		} else {
			r.log.Debug("rooms saved", "floorplan_id", r.floorplanID, "count", len(payload))
			r.notify(StatusSaved, 0)
		}
		if !rerun {
			return
		}
	}
}

func (r *RoomSyncer) putWithRetries(req api.RoomsRequest) error {
	var lastErr error
	for retry := 0; retry <= r.maxRetries; retry++ {
		if retry > 0 {
			r.notify(StatusRetrying, retry)
			r.log.Warn("retrying room save", "floorplan_id", r.floorplanID,
				"retry", retry, "max", r.maxRetries, "error", lastErr)
			time.Sleep(r.retryDelay)
		}
		err := r.client.PutRooms(context.Background(), r.floorplanID, req)
		if err == nil {
			return nil
		}
		if api.IsValidation(err) {
			return err
		}
		lastErr = err
	}
	return lastErr
}
