// Package autosave checkpoints the active editing buffer after a quiet period.
//
// The controller is a two-state machine. It is Idle until the buffer changes
// while autosave is enabled and the buffer differs from the placeholder; it is
// then Armed with a single pending checkpoint. Every further change replaces
// that checkpoint with a fresh one, so only the last edit in a burst is saved.
// Disabling autosave drops the pending checkpoint without saving.
package autosave

import (
	"context"
	"sync"
	"time"

	"mdviewer/internal/document/model"
	"mdviewer/pkg/logger"
)

const (
	DefaultDelay = 30 * time.Second

	DefaultPlaceholder = "# Welcome to Quick MD Viewer\n\nStart writing or paste your markdown here..."

	titleLayout = "2006-01-02 15:04:05"
)

type State int

const (
	Idle State = iota
	Armed
)

func (s State) String() string {
	if s == Armed {
		return "armed"
	}
	return "idle"
}

// Checkpointer persists a checkpoint as a new document.
type Checkpointer interface {
	Create(ctx context.Context, title, content string) (model.SavedDocument, error)
}

type Options struct {
	Delay       time.Duration
	Placeholder string
	Clock       Clock
	// Context bounds the store call made when a checkpoint fires.
	Context context.Context
	// OnCheckpoint runs after every successful checkpoint, outside the controller lock.
	OnCheckpoint func(doc model.SavedDocument, at time.Time)
}

type Controller struct {
	mu sync.Mutex

	store        Checkpointer
	clock        Clock
	delay        time.Duration
	placeholder  string
	ctx          context.Context
	onCheckpoint func(model.SavedDocument, time.Time)

	enabled   bool
	buffer    string
	pending   Timer
	gen       uint64
	lastSaved time.Time
}

func New(store Checkpointer, opts Options) *Controller {
	if opts.Delay <= 0 {
		opts.Delay = DefaultDelay
	}
	if opts.Placeholder == "" {
		opts.Placeholder = DefaultPlaceholder
	}
	if opts.Clock == nil {
		opts.Clock = RealClock
	}
	if opts.Context == nil {
		opts.Context = context.Background()
	}
	return &Controller{
		store:        store,
		clock:        opts.Clock,
		delay:        opts.Delay,
		placeholder:  opts.Placeholder,
		ctx:          opts.Context,
		onCheckpoint: opts.OnCheckpoint,
		buffer:       opts.Placeholder,
	}
}

// SetEnabled toggles autosave. Enabling with an edited buffer arms immediately;
// disabling cancels any pending checkpoint.
func (c *Controller) SetEnabled(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.enabled == enabled {
		return
	}
	c.enabled = enabled
	c.cancelLocked()
	if enabled {
		c.armLocked()
	}
}

func (c *Controller) Enabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.enabled
}

// BufferChanged records new buffer content. Identical content is not a change.
func (c *Controller) BufferChanged(content string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if content == c.buffer {
		return
	}
	c.buffer = content
	c.cancelLocked()
	c.armLocked()
}

func (c *Controller) Buffer() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buffer
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pending != nil {
		return Armed
	}
	return Idle
}

// LastCheckpoint returns when the last checkpoint or recorded save happened, if ever.
func (c *Controller) LastCheckpoint() (time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastSaved, !c.lastSaved.IsZero()
}

// RecordSave notes a save made outside the controller, such as an explicit
// save from the editor, so LastCheckpoint reflects it. Older moments are ignored.
func (c *Controller) RecordSave(at time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if at.After(c.lastSaved) {
		c.lastSaved = at
	}
}

// Close cancels the pending checkpoint. The controller stays usable.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancelLocked()
}

func (c *Controller) armLocked() {
	if !c.enabled || c.buffer == c.placeholder {
		return
	}
	c.gen++
	gen := c.gen
	c.pending = c.clock.AfterFunc(c.delay, func() { c.fire(gen) })
}

// cancelLocked bumps the generation so a timer that already fired but has not
// yet taken the lock becomes a no-op.
func (c *Controller) cancelLocked() {
	if c.pending != nil {
		c.pending.Stop()
		c.pending = nil
	}
	c.gen++
}

func (c *Controller) fire(gen uint64) {
	c.mu.Lock()
	if gen != c.gen || !c.enabled {
		c.mu.Unlock()
		return
	}
	c.pending = nil
	content := c.buffer
	now := c.clock.Now()
	c.mu.Unlock()

	title := "Autosave " + now.UTC().Format(titleLayout)
	doc, err := c.store.Create(c.ctx, title, content)
	if err != nil {
		logger.Sugar.Warnf("Autosave checkpoint dropped: %v", err)
		return
	}

	c.RecordSave(now)

	logger.Sugar.Infof("Autosaved checkpoint %s", doc.ID)
	if c.onCheckpoint != nil {
		c.onCheckpoint(doc, now)
	}
}
