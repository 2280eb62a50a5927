package service

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/clubly/loyalty-agent/internal/api/metrics"
	"github.com/clubly/loyalty-agent/internal/core/domain"
	"github.com/clubly/loyalty-agent/internal/core/ports"
)

const (
	defaultListInterval  = 30 * time.Second
	defaultCountInterval = 10 * time.Second
	defaultPerPage       = 10
	defaultBufferCap     = 20
	defaultRefreshDelay  = time.Second
)

// NotificationOptions tunes the aggregator's polling and buffering. Zero
// values fall back to the defaults above.
type NotificationOptions struct {
	ListInterval  time.Duration
	CountInterval time.Duration
	PerPage       int
	BufferCap     int
	RefreshDelay  time.Duration
}

func (o NotificationOptions) withDefaults() NotificationOptions {
	if o.ListInterval <= 0 {
		o.ListInterval = defaultListInterval
	}
	if o.CountInterval <= 0 {
		o.CountInterval = defaultCountInterval
	}
	if o.PerPage <= 0 {
		o.PerPage = defaultPerPage
	}
	if o.BufferCap <= 0 {
		o.BufferCap = defaultBufferCap
	}
	if o.RefreshDelay <= 0 {
		o.RefreshDelay = defaultRefreshDelay
	}
	return o
}

// NotificationService presents one consistent, de-duplicated, freshest-first
// notification view regardless of whether each item arrived by polling or by
// realtime push, and tracks the unread count.
//
// Two sources feed it: the server snapshot, refreshed by its own poller and by
// explicit invalidation, and a bounded realtime buffer holding events received
// live since the last confirmed refetch. The merged view is re-derived on
// every read; neither source is ever mutated by the merge.
type NotificationService struct {
	api      ports.NotificationAPI
	realtime ports.Realtime
	cache    ports.SnapshotCache // optional
	log      zerolog.Logger
	opts     NotificationOptions

	ctx context.Context

	mu         sync.Mutex
	user       *domain.User
	server     []domain.Notification
	buffer     []domain.Notification
	unread     int
	fetchGen   uint64
	clearGen   uint64
	clearArmed bool
	channels   map[string]ports.Channel

	listInvalidate  chan struct{}
	countInvalidate chan struct{}
}

func NewNotificationService(api ports.NotificationAPI, realtime ports.Realtime, cache ports.SnapshotCache, log zerolog.Logger, opts NotificationOptions) *NotificationService {
	return &NotificationService{
		api:             api,
		realtime:        realtime,
		cache:           cache,
		log:             log,
		opts:            opts.withDefaults(),
		ctx:             context.Background(),
		channels:        make(map[string]ports.Channel),
		listInvalidate:  make(chan struct{}, 1),
		countInvalidate: make(chan struct{}, 1),
	}
}

// Start launches the two pollers. They run until ctx is cancelled; the list
// and count pollers are independent and no ordering holds between them.
func (s *NotificationService) Start(ctx context.Context) {
	s.ctx = ctx
	go s.poll(ctx, s.opts.ListInterval, s.listInvalidate, s.refreshList)
	go s.poll(ctx, s.opts.CountInterval, s.countInvalidate, s.refreshCount)
}

func (s *NotificationService) poll(ctx context.Context, interval time.Duration, invalidate <-chan struct{}, refresh func(context.Context)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		case <-invalidate:
		}
		refresh(ctx)
	}
}

// SetUser switches the aggregator to a new identity. The previous channel's
// listeners are fully removed before the new channels are joined; leaving
// them attached would keep delivering events for a stale identity. A nil user
// (logout) tears everything down and empties the view.
func (s *NotificationService) SetUser(user *domain.User) {
	s.teardown()

	s.mu.Lock()
	s.user = user
	s.server = nil
	s.buffer = nil
	s.unread = 0
	s.clearArmed = false
	s.mu.Unlock()
	metrics.RealtimeBufferDepth.Set(0)

	if user == nil {
		return
	}

	if s.cache != nil {
		if snap, err := s.cache.Load(s.ctx, user.ID); err != nil {
			s.log.Debug().Err(err).Msg("snapshot cache unreadable")
		} else if len(snap) > 0 {
			s.mu.Lock()
			s.server = snap
			s.mu.Unlock()
		}
	}

	s.subscribe(user)
	s.Invalidate()
}

func (s *NotificationService) subscribe(user *domain.User) {
	names := []string{domain.UserChannel(user.ID)}
	if user.Role == domain.RoleAdmin {
		names = append(names, domain.AdminChannel)
	}

	for _, name := range names {
		ch, err := s.realtime.Private(s.ctx, name)
		if err != nil {
			// Realtime is an accelerator; polling still converges without it.
			s.log.Warn().Err(err).Str("channel", name).Msg("failed to join realtime channel")
			continue
		}
		for _, event := range domain.RealtimeEvents {
			event := event
			name := name
			ch.Listen(event, func(payload []byte) {
				s.handleEvent(name, event, payload)
			})
		}
		s.mu.Lock()
		s.channels[name] = ch
		s.mu.Unlock()
	}
}

func (s *NotificationService) teardown() {
	s.mu.Lock()
	channels := s.channels
	s.channels = make(map[string]ports.Channel)
	s.mu.Unlock()

	for name, ch := range channels {
		for _, event := range domain.RealtimeEvents {
			ch.StopListening(event)
		}
		if err := s.realtime.Leave(name); err != nil {
			s.log.Warn().Err(err).Str("channel", name).Msg("failed to leave realtime channel")
		}
	}
}

// handleEvent ingests one realtime domain event: buffer it for immediate
// display if its id is new, then schedule a delayed invalidation so the
// authoritative server copy arrives. The buffer is cleared only once a list
// refetch has confirmedly completed after the event; until then the merge
// rule keeps the transitional copy visible.
func (s *NotificationService) handleEvent(channel, event string, payload []byte) {
	metrics.RealtimeEventsTotal.WithLabelValues(event, channel).Inc()

	var n domain.Notification
	if err := json.Unmarshal(payload, &n); err != nil || n.ID == 0 {
		// Without an id the entry can never be de-duplicated against the
		// server copy; dropping it is safer than double-display.
		s.log.Warn().Err(err).Str("event", event).Msg("undecodable realtime payload dropped")
		return
	}
	if n.Type == "" {
		n.Type = event
	}

	s.mu.Lock()
	dup := false
	for _, b := range s.buffer {
		if b.ID == n.ID {
			dup = true
			break
		}
	}
	if dup {
		metrics.RealtimeDedupTotal.WithLabelValues("hit").Inc()
	} else {
		metrics.RealtimeDedupTotal.WithLabelValues("miss").Inc()
		s.buffer = append([]domain.Notification{n}, s.buffer...)
		if len(s.buffer) > s.opts.BufferCap {
			s.buffer = s.buffer[:s.opts.BufferCap]
		}
	}
	s.clearArmed = true
	s.clearGen = s.fetchGen
	depth := len(s.buffer)
	s.mu.Unlock()
	metrics.RealtimeBufferDepth.Set(float64(depth))

	time.AfterFunc(s.opts.RefreshDelay, s.Invalidate)

	s.log.Debug().Str("event", event).Str("channel", channel).Int64("id", n.ID).Msg("realtime notification buffered")
}

// Invalidate forces both pollers to refetch on their next cycle, immediately
// if they are idle. Safe to call from any goroutine; coalesces bursts.
func (s *NotificationService) Invalidate() {
	select {
	case s.listInvalidate <- struct{}{}:
	default:
	}
	select {
	case s.countInvalidate <- struct{}{}:
	default:
	}
}

func (s *NotificationService) refreshList(ctx context.Context) {
	s.mu.Lock()
	user := s.user
	s.mu.Unlock()
	if user == nil {
		return
	}

	list, _, err := s.api.List(ctx, ports.ListOptions{PerPage: s.opts.PerPage})
	if err != nil {
		// Transient: keep the last known good snapshot until the next poll.
		metrics.NotificationPollsTotal.WithLabelValues("list", "error").Inc()
		s.log.Debug().Err(err).Msg("notification list poll failed")
		return
	}
	metrics.NotificationPollsTotal.WithLabelValues("list", "ok").Inc()

	s.mu.Lock()
	s.server = list
	s.fetchGen++
	if s.clearArmed && s.fetchGen > s.clearGen {
		s.buffer = nil
		s.clearArmed = false
	}
	depth := len(s.buffer)
	s.mu.Unlock()
	metrics.RealtimeBufferDepth.Set(float64(depth))

	if s.cache != nil {
		if err := s.cache.Save(ctx, user.ID, list); err != nil {
			s.log.Debug().Err(err).Msg("snapshot cache write failed")
		}
	}
}

func (s *NotificationService) refreshCount(ctx context.Context) {
	s.mu.Lock()
	user := s.user
	s.mu.Unlock()
	if user == nil {
		return
	}

	count, err := s.api.UnreadCount(ctx)
	if err != nil {
		metrics.NotificationPollsTotal.WithLabelValues("count", "error").Inc()
		s.log.Debug().Err(err).Msg("unread count poll failed")
		return
	}
	metrics.NotificationPollsTotal.WithLabelValues("count", "ok").Inc()

	s.mu.Lock()
	s.unread = count
	s.mu.Unlock()
}

// Refresh refetches both resources synchronously. Used for explicit
// user-driven refresh; the pollers cover everything else.
func (s *NotificationService) Refresh(ctx context.Context) {
	s.refreshList(ctx)
	s.refreshCount(ctx)
}

// Notifications returns the merged, de-duplicated, freshest-first view.
func (s *NotificationService) Notifications() []domain.Notification {
	s.mu.Lock()
	server := s.server
	buffer := s.buffer
	s.mu.Unlock()
	return mergeNotifications(server, buffer)
}

// UnreadCount returns the last polled unread count.
func (s *NotificationService) UnreadCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unread
}

// MarkAsRead marks one notification read on the server, then invalidates both
// caches so the next renders see the reconciled state. No local mutation
// beyond the invalidation.
func (s *NotificationService) MarkAsRead(ctx context.Context, id int64) error {
	if err := s.api.MarkRead(ctx, id); err != nil {
		return err
	}
	s.Invalidate()
	return nil
}

// MarkAllAsRead marks every notification read. Same contract as MarkAsRead.
func (s *NotificationService) MarkAllAsRead(ctx context.Context) error {
	if err := s.api.MarkAllRead(ctx); err != nil {
		return err
	}
	s.Invalidate()
	return nil
}
