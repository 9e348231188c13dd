package notify

import (
	"context"
	"errors"
	"sync"
	"time"

	"restaurant-match-backend/internal/models"
	"restaurant-match-backend/internal/scheduler"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// DefaultPollInterval is how often the Center polls while running
const DefaultPollInterval = 5 * time.Second

// knownFactor sizes the set of remembered server ids relative to the cache capacity
const knownFactor = 4

// Source is the server side of the notification cache
type Source interface {
	List(ctx context.Context, limit int) ([]models.Notification, error)
	MarkRead(ctx context.Context, id string) error
	MarkAllRead(ctx context.Context) error
	Delete(ctx context.Context, id string) error
	DeleteAll(ctx context.Context) error
}

// Update is delivered to subscribers whenever the cache changes
type Update struct {
	Notifications []models.Notification
	Unread        int
	// Alerts are the entries to show on screen, already collapsed and filtered by focus
	Alerts []models.Notification
}

// Listener receives cache updates
type Listener func(Update)

// FocusFunc reports whether the target of a notification is currently on screen
type FocusFunc func(models.Notification) bool

// Center owns the notification cache of a signed-in user and its polling lifecycle
type Center struct {
	source   Source
	capacity int
	interval time.Duration
	task     *scheduler.Task

	mu         sync.Mutex
	cache      []models.Notification
	known      *knownIDs
	focus      FocusFunc
	listeners  map[int]Listener
	nextID     int
	generation uint64
	cancelPoll context.CancelFunc
}

// Option configures a Center
type Option func(*Center)

// WithCapacity bounds the cache size
func WithCapacity(n int) Option {
	return func(c *Center) {
		if n > 0 {
			c.capacity = n
		}
	}
}

// WithInterval sets the poll interval
func WithInterval(d time.Duration) Option {
	return func(c *Center) {
		if d > 0 {
			c.interval = d
		}
	}
}

// WithFocus sets the focus predicate used to suppress alerts
func WithFocus(f FocusFunc) Option {
	return func(c *Center) {
		c.focus = f
	}
}

// NewCenter creates a new notification center
func NewCenter(source Source, opts ...Option) *Center {
	c := &Center{
		source:    source,
		capacity:  DefaultCapacity,
		interval:  DefaultPollInterval,
		listeners: make(map[int]Listener),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.known = newKnownIDs(knownFactor * c.capacity)
	c.task = scheduler.New("notification-sync", c.interval, c.Refresh, scheduler.WithImmediate())
	return c
}

// Start begins polling. It is called on sign in.
func (c *Center) Start(ctx context.Context) {
	c.task.Start(ctx)
}

// Stop ends polling and discards any in-flight poll. It is called on sign out.
func (c *Center) Stop() {
	c.mu.Lock()
	c.supersedeLocked()
	c.mu.Unlock()

	c.task.Stop()
}

// Running reports whether the center is polling
func (c *Center) Running() bool {
	return c.task.Running()
}

// Subscribe registers l for updates and returns a function that removes it
func (c *Center) Subscribe(l Listener) func() {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = l
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.listeners, id)
			c.mu.Unlock()
		})
	}
}

// SetFocus replaces the focus predicate
func (c *Center) SetFocus(f FocusFunc) {
	c.mu.Lock()
	c.focus = f
	c.mu.Unlock()
}

// Refresh fetches the server list and reconciles it into the cache.
// A newer refresh or local mutation supersedes this one; its result is then dropped.
func (c *Center) Refresh(ctx context.Context) error {
	c.mu.Lock()
	c.supersedeLocked()
	pollCtx, cancel := context.WithCancel(ctx)
	c.cancelPoll = cancel
	gen := c.generation
	c.mu.Unlock()
	defer cancel()

	list, err := c.source.List(pollCtx, c.capacity)

	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		log.Debug().Uint64("generation", gen).Msg("Dropping superseded notification poll")
		return nil
	}
	c.cancelPoll = nil
	if err != nil {
		c.mu.Unlock()
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}

	res := Reconcile(c.cache, list, c.capacity)
	c.cache = res.Merged

	// Entries evicted by the cap come back on the next poll; only ids never
	// received before may alert.
	fresh := make([]models.Notification, 0, len(res.NewlySeen))
	for _, n := range res.NewlySeen {
		if !c.known.has(n.ID) {
			fresh = append(fresh, n)
		}
	}
	for _, n := range list {
		c.known.add(n.ID)
	}

	fresh = Unread(fresh)
	if c.focus != nil {
		fresh = c.unfocused(fresh)
	}
	alerts := Surface(fresh)
	update, listeners := c.updateLocked(alerts)
	c.mu.Unlock()

	publish(listeners, update)
	return nil
}

// Notifications returns a copy of the cache, newest first
func (c *Center) Notifications() []models.Notification {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]models.Notification, len(c.cache))
	copy(out, c.cache)
	return out
}

// UnreadCount returns the number of unread cached entries
func (c *Center) UnreadCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return UnreadCount(c.cache)
}

// AddLocal inserts a device-only entry and surfaces it unless its target is in focus
func (c *Center) AddLocal(n models.Notification) {
	if n.ID == "" {
		n.ID = LocalIDPrefix + uuid.New().String()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	n.Local = true

	c.mu.Lock()
	c.supersedeLocked()
	c.cache = append([]models.Notification{n}, c.cache...)
	SortNewestFirst(c.cache)
	if len(c.cache) > c.capacity {
		c.cache = c.cache[:c.capacity]
	}
	var alerts []models.Notification
	if !n.Read && (c.focus == nil || !c.focus(n)) {
		alerts = []models.Notification{n}
	}
	update, listeners := c.updateLocked(alerts)
	c.mu.Unlock()

	publish(listeners, update)
}

// MarkRead marks one entry read locally and mirrors it to the server
func (c *Center) MarkRead(ctx context.Context, id string) {
	local := c.mutate(func(cache []models.Notification) []models.Notification {
		for i := range cache {
			if cache[i].ID == id {
				cache[i].Read = true
			}
		}
		return cache
	}, func(n models.Notification) bool { return n.ID == id })

	if local {
		return
	}
	c.mirror(ctx, "mark_read", id, func(ctx context.Context) error {
		return c.source.MarkRead(ctx, id)
	})
}

// MarkAllRead marks every entry read locally and mirrors it to the server
func (c *Center) MarkAllRead(ctx context.Context) {
	c.mutate(func(cache []models.Notification) []models.Notification {
		for i := range cache {
			cache[i].Read = true
		}
		return cache
	}, nil)

	c.mirror(ctx, "mark_all_read", "", c.source.MarkAllRead)
}

// Remove deletes one entry locally and mirrors it to the server
func (c *Center) Remove(ctx context.Context, id string) {
	local := c.mutate(func(cache []models.Notification) []models.Notification {
		out := cache[:0]
		for _, n := range cache {
			if n.ID != id {
				out = append(out, n)
			}
		}
		return out
	}, func(n models.Notification) bool { return n.ID == id })

	if local {
		return
	}
	c.mirror(ctx, "delete", id, func(ctx context.Context) error {
		return c.source.Delete(ctx, id)
	})
}

// ClearAll empties the cache and mirrors it to the server
func (c *Center) ClearAll(ctx context.Context) {
	c.mutate(func([]models.Notification) []models.Notification {
		return nil
	}, nil)

	c.mirror(ctx, "delete_all", "", c.source.DeleteAll)
}

// mutate applies fn to the cache and publishes the result.
// It reports whether the entry matched by target was local-only, in which case
// the server has nothing to mirror.
func (c *Center) mutate(fn func([]models.Notification) []models.Notification, target func(models.Notification) bool) bool {
	c.mu.Lock()
	c.supersedeLocked()

	localOnly := false
	if target != nil {
		for _, n := range c.cache {
			if target(n) && n.Local {
				localOnly = true
				break
			}
		}
	}

	cache := make([]models.Notification, len(c.cache))
	copy(cache, c.cache)
	c.cache = fn(cache)

	update, listeners := c.updateLocked(nil)
	c.mu.Unlock()

	publish(listeners, update)
	return localOnly
}

// mirror sends a mutation to the server. Failures are logged and followed by a re-fetch.
func (c *Center) mirror(ctx context.Context, op, id string, fn func(context.Context) error) {
	if err := fn(ctx); err != nil {
		log.Warn().Err(err).Str("op", op).Str("notification_id", id).Msg("Failed to mirror notification change")
		if c.task.Running() {
			c.task.Trigger()
		}
	}
}

// supersedeLocked invalidates any in-flight poll
func (c *Center) supersedeLocked() {
	c.generation++
	if c.cancelPoll != nil {
		c.cancelPoll()
		c.cancelPoll = nil
	}
}

func (c *Center) unfocused(entries []models.Notification) []models.Notification {
	out := make([]models.Notification, 0, len(entries))
	for _, n := range entries {
		if !c.focus(n) {
			out = append(out, n)
		}
	}
	return out
}

func (c *Center) updateLocked(alerts []models.Notification) (Update, []Listener) {
	snapshot := make([]models.Notification, len(c.cache))
	copy(snapshot, c.cache)

	listeners := make([]Listener, 0, len(c.listeners))
	for _, l := range c.listeners {
		listeners = append(listeners, l)
	}

	return Update{
		Notifications: snapshot,
		Unread:        UnreadCount(snapshot),
		Alerts:        alerts,
	}, listeners
}

func publish(listeners []Listener, u Update) {
	for _, l := range listeners {
		l(u)
	}
}

// knownIDs remembers the most recently received server ids, up to limit
type knownIDs struct {
	limit int
	seq   uint64
	ids   map[string]uint64
}

func newKnownIDs(limit int) *knownIDs {
	if limit <= 0 {
		limit = knownFactor * DefaultCapacity
	}
	return &knownIDs{limit: limit, ids: make(map[string]uint64, limit)}
}

func (k *knownIDs) has(id string) bool {
	_, ok := k.ids[id]
	return ok
}

// add records id as the most recent one, evicting the least recently received id when full
func (k *knownIDs) add(id string) {
	if id == "" {
		return
	}
	k.seq++
	k.ids[id] = k.seq
	if len(k.ids) <= k.limit {
		return
	}

	oldest, oldestSeq := "", k.seq
	for known, seq := range k.ids {
		if seq < oldestSeq {
			oldest, oldestSeq = known, seq
		}
	}
	delete(k.ids, oldest)
}
