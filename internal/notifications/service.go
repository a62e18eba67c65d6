// Package notifications owns the per-user notification session: unread counts,
// the active channel, preferences and invitation handshakes. Pollers and UI
// handlers go through Service; all mutable session state lives behind its mutex
// and network calls are made outside of it.
package notifications

import (
	"context"
	"fmt"
	"maps"
	"sync"

	"go.opentelemetry.io/otel"

	"chat-notifier/internal/api"
	"chat-notifier/internal/directory"
	"chat-notifier/internal/invitations"
	"chat-notifier/internal/logger"
	"chat-notifier/internal/models"
	"chat-notifier/internal/observability"
	"chat-notifier/internal/repositories"
	"chat-notifier/internal/stores"
	"chat-notifier/internal/unread"
)

var tracer = otel.Tracer("chat-notifier/notifications")

// Options tunes a Service. Zero values fall back to package defaults.
type Options struct {
	SelfID        string
	MessageWindow int
	InviteWindow  int
	UnreadCap     int
	FanOut        int
	FullEvery     int
}

type Service struct {
	api    api.MessagingAPI
	selfID string
	window int
	logg   *logger.Logger

	dir     *directory.Cache
	engine  *unread.Engine
	tracker *invitations.Tracker
	cursors *stores.CursorStore
	prefs   *stores.PreferenceStore
	ui      *stores.UIStateStore

	mu         sync.Mutex
	closed     bool
	unread     map[string]int
	activity   map[string]bool
	active     string
	activeMsgs []models.Message
	notices    []models.Notice
	subs       map[int]func(models.Event)
	nextSub    int
}

// New loads the user's persisted state from repo and wires the session components.
func New(ctx context.Context, client api.MessagingAPI, repo repositories.StateRepository, opts Options, logg *logger.Logger) *Service {
	if logg == nil {
		logg = logger.Nop()
	}
	if opts.MessageWindow <= 0 {
		opts.MessageWindow = unread.DefaultWindow
	}
	cursors := stores.NewCursorStore(ctx, repo, opts.SelfID, logg)
	prefs := stores.NewPreferenceStore(ctx, repo, opts.SelfID, logg)

	return &Service{
		api:      client,
		selfID:   opts.SelfID,
		window:   opts.MessageWindow,
		logg:     logg,
		dir:      directory.NewCache(client, opts.FullEvery),
		engine:   unread.NewEngine(client, cursors, prefs, opts.SelfID, unread.Options{Window: opts.MessageWindow, Cap: opts.UnreadCap, Concurrency: opts.FanOut}, logg),
		tracker:  invitations.NewTracker(client, opts.SelfID, opts.InviteWindow, opts.FanOut, logg),
		cursors:  cursors,
		prefs:    prefs,
		ui:       stores.NewUIStateStore(ctx, repo, opts.SelfID, logg),
		unread:   map[string]int{},
		activity: map[string]bool{},
		subs:     map[int]func(models.Event){},
	}
}

// SelfID is the user the session belongs to.
func (s *Service) SelfID() string {
	return s.selfID
}

// Close stops the session from committing anything else. Fetches still in flight
// are discarded when they return.
func (s *Service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.subs = map[int]func(models.Event){}
}

func (s *Service) live(ctx context.Context) bool {
	return !s.closed && ctx.Err() == nil
}

// Subscribe registers fn for every change event. fn runs on the goroutine that
// made the change and must not block.
func (s *Service) Subscribe(fn func(models.Event)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

func (s *Service) emit(events ...models.Event) {
	s.mu.Lock()
	subs := make([]func(models.Event), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, ev := range events {
		for _, fn := range subs {
			fn(ev)
		}
	}
}

func (s *Service) snapshotEvent() models.Event {
	snap := s.Snapshot()
	return models.Event{Type: models.EventSnapshot, Snapshot: &snap}
}

// Snapshot returns the current unread state.
func (s *Service) Snapshot() models.UnreadSnapshot {
	channels := s.dir.Snapshot()

	s.mu.Lock()
	defer s.mu.Unlock()
	total, direct := unread.Totals(s.unread, channels)
	return models.UnreadSnapshot{
		TotalUnread:       total,
		TotalDirectUnread: direct,
		Unread:            maps.Clone(s.unread),
		Activity:          maps.Clone(s.activity),
		ActiveChannelID:   s.active,
	}
}

func (s *Service) TotalUnread() int {
	return s.Snapshot().TotalUnread
}

func (s *Service) TotalDirectUnread() int {
	return s.Snapshot().TotalDirectUnread
}

func (s *Service) UnreadByChannel() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return maps.Clone(s.unread)
}

func (s *Service) ActivityByChannel() map[string]bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return maps.Clone(s.activity)
}

// MarkRead moves the cursor of channelID to messageID and zeroes the channel right
// away, ahead of the next poll. Repeating the call changes nothing.
func (s *Service) MarkRead(ctx context.Context, channelID, messageID string) error {
	if channelID == "" || messageID == "" {
		return fmt.Errorf("mark read: %w: channel and message ids are required", ErrInvalidArgument)
	}
	s.cursors.SetLastSeen(ctx, channelID, messageID)

	s.mu.Lock()
	changed := s.unread[channelID] != 0 || s.activity[channelID]
	s.zeroLocked(channelID)
	s.mu.Unlock()

	if changed {
		s.emit(s.snapshotEvent())
	}
	return nil
}

func (s *Service) zeroLocked(channelID string) {
	if _, ok := s.unread[channelID]; ok {
		s.unread[channelID] = 0
	}
	delete(s.activity, channelID)
}

// Preferences returns every stored channel preference.
func (s *Service) Preferences() map[string]models.Preference {
	return s.prefs.All()
}

// UpdatePreference merges patch into the channel's preference. Muting zeroes the
// channel immediately.
func (s *Service) UpdatePreference(ctx context.Context, channelID string, patch models.PreferencePatch) (models.Preference, error) {
	if channelID == "" || patch.IsEmpty() {
		return models.Preference{}, fmt.Errorf("update preference: %w: empty channel id or patch", ErrInvalidArgument)
	}
	pref := s.prefs.Set(ctx, channelID, patch)

	events := []models.Event{{Type: models.EventPreferences, Preferences: s.prefs.All(), ChannelID: channelID}}
	if pref.Muted {
		s.mu.Lock()
		s.zeroLocked(channelID)
		s.mu.Unlock()
		events = append(events, s.snapshotEvent())
	}
	s.emit(events...)
	return pref, nil
}

// Sections arranges the cached directory for the sidebar.
func (s *Service) Sections() directory.Sections {
	return directory.Arrange(s.dir.Snapshot(), s.prefs.Get, s.ui.Order())
}

// SetChannelOrder persists a custom sidebar order.
func (s *Service) SetChannelOrder(ctx context.Context, order models.ChannelOrder) error {
	s.ui.SetOrder(ctx, order)
	return nil
}

// DrainNotices returns pending one-time notices and forgets them.
func (s *Service) DrainNotices() []models.Notice {
	s.mu.Lock()
	defer s.mu.Unlock()
	notices := s.notices
	s.notices = nil
	if notices == nil {
		return []models.Notice{}
	}
	return notices
}

// lookup resolves a cached channel. Channels created since the last channel tick
// are not cached yet, so a miss refreshes the directory once before giving up.
func (s *Service) lookup(ctx context.Context, channelID string) (models.Channel, error) {
	if channelID == "" {
		return models.Channel{}, fmt.Errorf("%w: empty channel id", ErrInvalidArgument)
	}
	if ch, ok := s.dir.Lookup(channelID); ok {
		return ch, nil
	}
	if _, _, err := s.dir.Refresh(ctx); err != nil {
		return models.Channel{}, fmt.Errorf("refresh directory: %w", err)
	}
	ch, ok := s.dir.Lookup(channelID)
	if !ok {
		return models.Channel{}, fmt.Errorf("%w: %s", ErrUnknownChannel, channelID)
	}
	return ch, nil
}

// publishNotice fans a notice out to AMQP. Failures are counted and logged only.
func (s *Service) publishNotice(ctx context.Context, notice models.Notice) {
	envelope := observability.NewEventEnvelope(ctx, "notice", notice.Kind, notice)
	if err := observability.PublishEvent(ctx, "chat.notice."+notice.Kind, envelope); err != nil {
		s.logg.Warn(s.logg.WithChannelID(ctx, notice.ChannelID), "notice publish failed", err)
	}
}
