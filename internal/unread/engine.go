// Package unread recomputes per-channel unread counts from the latest message
// windows, the user's read cursors and channel preferences.
package unread

import (
	"context"

	"golang.org/x/sync/errgroup"

	"chat-notifier/internal/logger"
	"chat-notifier/internal/models"
)

// MessageLister fetches the newest messages of a channel, newest last.
type MessageLister interface {
	ListRecentMessages(ctx context.Context, channelID string, limit int) ([]models.Message, error)
}

// CursorStore is the read-cursor slice the engine needs.
type CursorStore interface {
	LastSeen(channelID string) (string, bool)
}

// PreferenceSource returns the preference of a channel.
type PreferenceSource interface {
	Get(channelID string) models.Preference
}

// Options tunes an Engine. Zero values fall back to the defaults.
type Options struct {
	Window      int
	Cap         int
	Concurrency int
}

// Engine recomputes unread counts for a set of channels.
type Engine struct {
	lister  MessageLister
	cursors CursorStore
	prefs   PreferenceSource
	selfID  string
	window  int
	cap     int
	limit   int
	logg    *logger.Logger
}

// NewEngine builds an Engine reading cursors and preferences of selfID.
func NewEngine(lister MessageLister, cursors CursorStore, prefs PreferenceSource, selfID string, opts Options, logg *logger.Logger) *Engine {
	if opts.Window <= 0 {
		opts.Window = DefaultWindow
	}
	if opts.Cap <= 0 {
		opts.Cap = DefaultCap
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 8
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &Engine{
		lister:  lister,
		cursors: cursors,
		prefs:   prefs,
		selfID:  selfID,
		window:  opts.Window,
		cap:     opts.Cap,
		limit:   opts.Concurrency,
		logg:    logg,
	}
}

// Result is one reconciliation pass. Channels whose fetch failed appear only in Failed.
type Result struct {
	Unread   map[string]int
	Activity map[string]bool
	// Newest holds the newest fetched message id per channel.
	Newest map[string]string
	Failed map[string]error
}

type outcome struct {
	unread   int
	activity bool
	newest   string
	err      error
}

// Reconcile fetches every channel concurrently and waits for all of them. A failing
// channel is recorded in Result.Failed and never aborts the others. The active and
// muted channels count as zero. The engine never writes cursors; the caller advances
// the active channel's cursor to Result.Newest when it commits the pass.
func (e *Engine) Reconcile(ctx context.Context, channels []models.Channel, activeID string) Result {
	outcomes := make([]outcome, len(channels))

	var g errgroup.Group
	g.SetLimit(e.limit)
	for i, ch := range channels {
		g.Go(func() error {
			outcomes[i] = e.reconcileChannel(ctx, ch, activeID)
			return nil
		})
	}
	_ = g.Wait()

	res := Result{
		Unread:   make(map[string]int, len(channels)),
		Activity: make(map[string]bool, len(channels)),
		Newest:   make(map[string]string, len(channels)),
		Failed:   map[string]error{},
	}
	for i, ch := range channels {
		out := outcomes[i]
		if out.err != nil {
			res.Failed[ch.ID] = out.err
			continue
		}
		res.Unread[ch.ID] = out.unread
		if out.activity {
			res.Activity[ch.ID] = true
		}
		if out.newest != "" {
			res.Newest[ch.ID] = out.newest
		}
	}
	return res
}

func (e *Engine) reconcileChannel(ctx context.Context, ch models.Channel, activeID string) outcome {
	msgs, err := e.lister.ListRecentMessages(ctx, ch.ID, e.window)
	if err != nil {
		e.logg.Warn(e.logg.WithChannelID(ctx, ch.ID), "unread fetch failed", err)
		return outcome{err: err}
	}
	newest, ok := models.Newest(msgs)
	if !ok {
		return outcome{}
	}
	if ch.ID == activeID {
		return outcome{newest: newest.ID}
	}
	if e.prefs.Get(ch.ID).Muted {
		return outcome{newest: newest.ID}
	}
	cursor, hasCursor := e.cursors.LastSeen(ch.ID)
	n := Cap(Count(msgs, cursor, hasCursor, e.selfID), e.cap)
	return outcome{
		unread:   n,
		activity: !ch.IsDirect() && n > 0,
		newest:   newest.ID,
	}
}

// Merge carries previous values over for channels that failed this pass. Channels
// absent from the pass are dropped.
func (r Result) Merge(prevUnread map[string]int, prevActivity map[string]bool) Result {
	out := Result{
		Unread:   make(map[string]int, len(r.Unread)+len(r.Failed)),
		Activity: make(map[string]bool, len(r.Activity)),
		Newest:   r.Newest,
		Failed:   r.Failed,
	}
	for id, n := range r.Unread {
		out.Unread[id] = n
	}
	for id, a := range r.Activity {
		out.Activity[id] = a
	}
	for id := range r.Failed {
		if n, ok := prevUnread[id]; ok {
			out.Unread[id] = n
		}
		if prevActivity[id] {
			out.Activity[id] = true
		}
	}
	return out
}
