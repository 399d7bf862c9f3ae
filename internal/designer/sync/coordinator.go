package sync

import (
	"context"
	"sync"
	"time"

	"floorplan-studio/internal/common/logger"
	"floorplan-studio/internal/designer/api"
	"floorplan-studio/internal/designer/editor"
)

// ============================================================
// Save status
// ============================================================

type Status string

const (
	StatusIdle     Status = "idle"
	StatusUnsaved  Status = "unsaved"
	StatusSaving   Status = "saving"
	StatusRetrying Status = "retrying"
	StatusSaved    Status = "saved"
	// StatusFailed is terminal for the current flush: either every retry
	// was spent or the server rejected the payload outright. The session
	// state and server state may disagree until a reload.
	StatusFailed Status = "failed"
)

// ============================================================
// Coordinator
// ============================================================

const (
	defaultDebounce   = 1 * time.Second
	defaultRetryDelay = 3 * time.Second
	defaultMaxRetries = 5
)

// Config tunes flush timing. Zero values take the defaults above; tests
// shrink the delays to keep runs fast.
type Config struct {
	Debounce   time.Duration
	RetryDelay time.Duration
	// MaxRetries is the number of retries after the initial attempt.
	MaxRetries int
	// OnStatus observes every status transition. attempt is meaningful
	// only for StatusRetrying (1-based retry number about to run).
	OnStatus func(status Status, attempt int)
}

// Coordinator debounces design mutations into ordered flushes:
// key entries first, then a state refetch to learn the server-assigned
// ids, then highlights and icons resolved against those ids. At most one
// flush is in flight; mutations arriving mid-flight set a dirty flag and
// trigger exactly one follow-up flush when the current one finishes.
type Coordinator struct {
	client  *api.Client
	session *editor.Session
	log     *logger.Logger

	debounce   time.Duration
	retryDelay time.Duration
	maxRetries int
	onStatus   func(Status, int)

	mu               sync.Mutex
	timer            *time.Timer
	saving           bool
	dirtyWhileSaving bool
	closed           bool
	wg               sync.WaitGroup
}

func NewCoordinator(client *api.Client, session *editor.Session, log *logger.Logger, cfg Config) *Coordinator {
	if cfg.Debounce <= 0 {
		cfg.Debounce = defaultDebounce
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
	return &Coordinator{
		client:     client,
		session:    session,
		log:        log,
		debounce:   cfg.Debounce,
		retryDelay: cfg.RetryDelay,
		maxRetries: cfg.MaxRetries,
		onStatus:   cfg.OnStatus,
	}
}

// Schedule registers a mutation. If a flush is already running the
// mutation is folded into the dirty flag; otherwise the debounce timer
// restarts, so a burst of edits produces a single flush.
func (c *Coordinator) Schedule() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.notify(StatusUnsaved, 0)
	if c.saving {
		c.dirtyWhileSaving = true
		return
	}
	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(c.debounce, c.runFlush)
}

// Close stops the debounce timer and waits for any in-flight flush.
// Pending (unflushed) mutations are dropped.
func (c *Coordinator) Close() {
	c.mu.Lock()
	c.closed = true
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.mu.Unlock()
	c.wg.Wait()
}

func (c *Coordinator) notify(status Status, attempt int) {
	if c.onStatus != nil {
		c.onStatus(status, attempt)
	}
}

// runFlush fires on the debounce timer's goroutine. It loops so that a
// mutation landing mid-flight triggers one immediate follow-up flush
// instead of rescheduling through the timer.
func (c *Coordinator) runFlush() {
	c.mu.Lock()
	if c.closed || c.saving {
		c.mu.Unlock()
		return
	}
	c.saving = true
	c.wg.Add(1)
	c.mu.Unlock()
	defer c.wg.Done()

	for {
		c.mu.Lock()
		c.dirtyWhileSaving = false
		snap := c.session.Snapshot()
		c.mu.Unlock()
		c.notify(StatusSaving, 0)

		remote, err := c.flushWithRetries(snap)

		c.mu.Lock()
		if err == nil {
			c.session.AdoptRemoteIDs(remote)
		}
		rerun := c.dirtyWhileSaving && !c.closed
		if !rerun {
			c.saving = false
		}
		c.mu.Unlock()

		if err != nil {
			c.log.Error("design save failed", "design_id", snap.DesignID, "error", err)
			c.notify(StatusFailed, 0)
		} else {
			c.log.Debug("design saved", "design_id", snap.DesignID,
				"entries", len(snap.Entries), "icons", len(snap.Icons))
			c.notify(StatusSaved, 0)
		}
		if !rerun {
			return
		}
	}
}

// flushWithRetries runs the flush pipeline once, then up to maxRetries
// more times on failure, reporting retries as 1..maxRetries. Validation
// rejections are not retried: resending the same payload cannot succeed,
// and the user needs to see the failure right away.
func (c *Coordinator) flushWithRetries(snap editor.Snapshot) (map[int]int64, error) {
	var lastErr error
	for retry := 0; retry <= c.maxRetries; retry++ {
		if retry > 0 {
			c.notify(StatusRetrying, retry)
			c.log.Warn("retrying design save", "design_id", snap.DesignID,
				"retry", retry, "max", c.maxRetries, "error", lastErr)
			time.Sleep(c.retryDelay)
		}
		remote, err := c.flushOnce(snap)
		if err == nil {
			return remote, nil
		}
		if api.IsValidation(err) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

// flushOnce performs one ordered save pass. Key entries go first because
// the full replace invalidates every previously known entry id; the
// state refetch re-learns them positionally before highlights are sent.
func (c *Coordinator) flushOnce(snap editor.Snapshot) (map[int]int64, error) {
	ctx := context.Background()

	if err := c.client.PutKeyEntries(ctx, snap.DesignID, api.KeyEntriesRequest{Entries: snap.Entries}); err != nil {
		return nil, err
	}
	state, err := c.client.GetState(ctx, snap.DesignID)
	if err != nil {
		return nil, err
	}
	remote := snap.ResolveRemoteIDs(state.KeyEntries)
	if err := c.client.PutHighlights(ctx, snap.DesignID, api.HighlightsRequest{Highlights: snap.HighlightsPayload(remote)}); err != nil {
		return nil, err
	}
	if err := c.client.PutIcons(ctx, snap.DesignID, api.IconsRequest{Icons: snap.Icons}); err != nil {
		return nil, err
	}
	return remote, nil
}
