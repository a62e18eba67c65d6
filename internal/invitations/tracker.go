package invitations

import (
	"context"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"chat-notifier/internal/logger"
	"chat-notifier/internal/models"
)

// DefaultWindow is how many recent messages a scan inspects per channel.
const DefaultWindow = 30

// MessageLister fetches the newest messages of a channel, newest last.
type MessageLister interface {
	ListRecentMessages(ctx context.Context, channelID string, limit int) ([]models.Message, error)
}

// ScanResult is one pass over the direct channels.
type ScanResult struct {
	Statuses map[string]models.InvitationStatus
	// Vanished holds outgoing invitations whose channel disappeared since the
	// previous pass, i.e. the invitee rejected by deleting it.
	Vanished []string
	Failed   map[string]error
}

// Tracker keeps the last known status of every direct channel between scans.
type Tracker struct {
	lister MessageLister
	selfID string
	window int
	limit  int
	logg   *logger.Logger

	mu       sync.Mutex
	statuses map[string]models.InvitationStatus
	outgoing map[string]struct{}
}

// NewTracker builds a Tracker classifying channels from selfID's point of view.
func NewTracker(lister MessageLister, selfID string, window, concurrency int, logg *logger.Logger) *Tracker {
	if window <= 0 {
		window = DefaultWindow
	}
	if concurrency <= 0 {
		concurrency = 8
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &Tracker{
		lister:   lister,
		selfID:   selfID,
		window:   window,
		limit:    concurrency,
		logg:     logg,
		statuses: map[string]models.InvitationStatus{},
		outgoing: map[string]struct{}{},
	}
}

// Scan classifies every direct channel concurrently. A channel whose fetch fails
// keeps its previous status. Outgoing invitations that were pending on the previous
// pass and whose channel is gone are reported in Vanished exactly once.
func (t *Tracker) Scan(ctx context.Context, channels []models.Channel) ScanResult {
	var direct []models.Channel
	for _, ch := range channels {
		if ch.IsDirect() {
			direct = append(direct, ch)
		}
	}

	type outcome struct {
		status models.InvitationStatus
		err    error
	}
	outcomes := make([]outcome, len(direct))

	var g errgroup.Group
	g.SetLimit(t.limit)
	for i, ch := range direct {
		g.Go(func() error {
			msgs, err := t.lister.ListRecentMessages(ctx, ch.ID, t.window)
			if err != nil {
				t.logg.Warn(t.logg.WithChannelID(ctx, ch.ID), "invitation scan failed", err)
				outcomes[i] = outcome{err: err}
				return nil
			}
			status := Classify(msgs, t.selfID)
			status.ChannelID = ch.ID
			outcomes[i] = outcome{status: status}
			return nil
		})
	}
	_ = g.Wait()

	t.mu.Lock()
	defer t.mu.Unlock()

	res := ScanResult{
		Statuses: make(map[string]models.InvitationStatus, len(direct)),
		Failed:   map[string]error{},
	}
	for i, ch := range direct {
		out := outcomes[i]
		if out.err != nil {
			res.Failed[ch.ID] = out.err
			if prev, ok := t.statuses[ch.ID]; ok {
				res.Statuses[ch.ID] = prev
			}
			continue
		}
		res.Statuses[ch.ID] = out.status
	}

	listed := make(map[string]struct{}, len(channels))
	for _, ch := range channels {
		listed[ch.ID] = struct{}{}
	}
	outgoing := make(map[string]struct{})
	for id, status := range res.Statuses {
		if status.State == models.InvitationPendingOutgoing {
			outgoing[id] = struct{}{}
		}
	}
	for id := range t.outgoing {
		_, stillListed := listed[id]
		_, stillOutgoing := outgoing[id]
		if !stillListed && !stillOutgoing {
			res.Vanished = append(res.Vanished, id)
		}
	}
	sort.Strings(res.Vanished)

	t.statuses = res.Statuses
	t.outgoing = outgoing
	return res
}

// Record overrides the status of a channel until the next scan, e.g. right after
// the user answered or sent an invitation.
func (t *Tracker) Record(status models.InvitationStatus) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.statuses[status.ChannelID] = status
	if status.State == models.InvitationPendingOutgoing {
		t.outgoing[status.ChannelID] = struct{}{}
	} else {
		delete(t.outgoing, status.ChannelID)
	}
}

// Forget drops a channel the user deleted so it is not reported as vanished.
func (t *Tracker) Forget(channelID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.statuses, channelID)
	delete(t.outgoing, channelID)
}

// Status returns the last known status of a channel.
func (t *Tracker) Status(channelID string) (models.InvitationStatus, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	status, ok := t.statuses[channelID]
	return status, ok
}

// Summary splits the pending handshakes by direction.
func (t *Tracker) Summary() models.InvitationSummary {
	t.mu.Lock()
	defer t.mu.Unlock()
	summary := models.InvitationSummary{
		Sent:    map[string]models.InvitationStatus{},
		Pending: map[string]models.InvitationStatus{},
	}
	for id, status := range t.statuses {
		switch status.State {
		case models.InvitationPendingOutgoing:
			summary.Sent[id] = status
		case models.InvitationPendingIncoming:
			summary.Pending[id] = status
		}
	}
	return summary
}
