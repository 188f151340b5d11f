// Package notice implements the user-visible, non-blocking messages shown
// when a request fails or a navigation is refused. Notices dismiss
// themselves after a fixed duration and can be dismissed by hand before that.
package notice

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Level is the severity of a notice.
type Level string

const (
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// DefaultDuration is how long a notice stays visible when no duration is configured.
const DefaultDuration = 3 * time.Second

type Notice struct {
	ID          string
	Level       Level
	Message     string
	Duration    time.Duration
	Dismissible bool
	CreatedAt   time.Time
}

// Notifier shows notices to the user.
type Notifier interface {
	Notify(n Notice) string
}

// Discard is a Notifier that drops every notice.
var Discard Notifier = discard{}

type discard struct{}

func (discard) Notify(Notice) string { return "" }

// Center keeps the currently visible notices and removes each one when its
// duration elapses.
type Center struct {
	mu       sync.Mutex
	active   map[string]*entry
	duration time.Duration
	logger   zerolog.Logger
	onNotice func(Notice)
	nowFunc  func() time.Time
	gen      uint64
}

type entry struct {
	notice Notice
	timer  *time.Timer
	// gen tells a replaced notice's timer apart from the replacement's.
	gen uint64
}

var _ Notifier = (*Center)(nil)

type CenterOption func(*Center)

// WithDuration sets the auto-dismiss duration for notices that carry none.
func WithDuration(d time.Duration) CenterOption {
	return func(c *Center) {
		c.duration = d
	}
}

func WithLogger(logger zerolog.Logger) CenterOption {
	return func(c *Center) {
		c.logger = logger
	}
}

// WithSink registers a callback invoked for every notice as it is shown.
func WithSink(fn func(Notice)) CenterOption {
	return func(c *Center) {
		c.onNotice = fn
	}
}

func WithNowFunc(now func() time.Time) CenterOption {
	return func(c *Center) {
		c.nowFunc = now
	}
}

func NewCenter(options ...CenterOption) *Center {
	c := &Center{
		active:   make(map[string]*entry),
		duration: DefaultDuration,
		logger:   log.Logger,
		nowFunc:  time.Now,
	}
	for _, opt := range options {
		opt(c)
	}
	if c.duration <= 0 {
		c.duration = DefaultDuration
	}
	return c
}

// Notify shows n and returns its ID. It never blocks on the user.
func (c *Center) Notify(n Notice) string {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	if n.Level == "" {
		n.Level = LevelInfo
	}
	if n.Duration <= 0 {
		n.Duration = c.duration
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = c.nowFunc()
	}
	n.Dismissible = true

	c.mu.Lock()
	if old, ok := c.active[n.ID]; ok {
		old.timer.Stop()
	}
	id := n.ID
	c.gen++
	gen := c.gen
	c.active[id] = &entry{
		notice: n,
		timer:  time.AfterFunc(n.Duration, func() { c.expire(id, gen) }),
		gen:    gen,
	}
	sink := c.onNotice
	c.mu.Unlock()

	c.event(n.Level).Str("notice_id", n.ID).Dur("duration", n.Duration).Msg(n.Message)
	if sink != nil {
		sink(n)
	}
	return n.ID
}

// Dismiss removes a notice before its duration elapses. It reports whether
// the notice was still visible.
func (c *Center) Dismiss(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.active[id]
	if !ok {
		return false
	}
	e.timer.Stop()
	delete(c.active, id)
	return true
}

// expire removes the notice its timer was armed for, unless a later Notify
// with the same ID has replaced it.
func (c *Center) expire(id string, gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.active[id]; ok && e.gen == gen {
		delete(c.active, id)
	}
}

// Active returns the visible notices, oldest first.
func (c *Center) Active() []Notice {
	c.mu.Lock()
	defer c.mu.Unlock()

	notices := make([]Notice, 0, len(c.active))
	for _, e := range c.active {
		notices = append(notices, e.notice)
	}
	sort.Slice(notices, func(i, j int) bool {
		return notices[i].CreatedAt.Before(notices[j].CreatedAt)
	})
	return notices
}

// Close dismisses every visible notice.
func (c *Center) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, e := range c.active {
		e.timer.Stop()
		delete(c.active, id)
	}
}

func (c *Center) event(level Level) *zerolog.Event {
	switch level {
	case LevelError:
		return c.logger.Error()
	case LevelWarning:
		return c.logger.Warn()
	default:
		return c.logger.Info()
	}
}

// Error is shorthand for an error notice with the center's default duration.
func Error(n Notifier, message string) string {
	return n.Notify(Notice{Level: LevelError, Message: message})
}

// Warning is shorthand for a warning notice with the center's default duration.
func Warning(n Notifier, message string) string {
	return n.Notify(Notice{Level: LevelWarning, Message: message})
}

// Recorder is a Notifier that keeps every notice it receives. It is handy in
// tests and for callers that render notices themselves.
type Recorder struct {
	mu      sync.Mutex
	notices []Notice
}

func (r *Recorder) Notify(n Notice) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	r.notices = append(r.notices, n)
	return n.ID
}

func (r *Recorder) Notices() []Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notice(nil), r.notices...)
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = nil
}
