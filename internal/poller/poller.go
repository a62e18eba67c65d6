// Package poller drives the notification session from three independent timers.
package poller

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"chat-notifier/internal/logger"
)

const (
	DefaultChannelInterval = 8 * time.Second
	DefaultInviteInterval  = 6 * time.Second
	DefaultActiveInterval  = 4 * time.Second
)

// Target is what the loops poll.
type Target interface {
	PollChannels(ctx context.Context) error
	PollInvitations(ctx context.Context) error
	PollActive(ctx context.Context) error
}

// Schedule sets the loop cadences. Zero intervals take the defaults; a zero
// InitialDelay starts the channel loop right away.
type Schedule struct {
	ChannelInterval time.Duration
	InitialDelay    time.Duration
	InviteInterval  time.Duration
	ActiveInterval  time.Duration
}

func (s Schedule) withDefaults() Schedule {
	if s.ChannelInterval <= 0 {
		s.ChannelInterval = DefaultChannelInterval
	}
	if s.InitialDelay < 0 {
		s.InitialDelay = 0
	}
	if s.InviteInterval <= 0 {
		s.InviteInterval = DefaultInviteInterval
	}
	if s.ActiveInterval <= 0 {
		s.ActiveInterval = DefaultActiveInterval
	}
	return s
}

// Params configures a Poller.
type Params struct {
	Logger   *logger.Logger
	Target   Target
	Schedule Schedule
}

// Poller runs the poll loops of a Target.
type Poller struct {
	logg     *logger.Logger
	target   Target
	schedule Schedule
}

// New validates params and fills in schedule defaults.
func New(params Params) (*Poller, error) {
	if params.Target == nil {
		return nil, fmt.Errorf("poll target required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &Poller{logg: logg, target: params.Target, schedule: params.Schedule.withDefaults()}, nil
}

// Run polls until ctx is canceled. Each loop ticks on its own; a slow poll only
// delays its own loop.
func (p *Poller) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return p.loop(ctx, "channels", p.schedule.InitialDelay, p.schedule.ChannelInterval, p.target.PollChannels)
	})
	g.Go(func() error {
		return p.loop(ctx, "invitations", p.schedule.InviteInterval, p.schedule.InviteInterval, p.target.PollInvitations)
	})
	g.Go(func() error {
		return p.loop(ctx, "active", p.schedule.ActiveInterval, p.schedule.ActiveInterval, p.target.PollActive)
	})
	return g.Wait()
}

func (p *Poller) loop(ctx context.Context, name string, first, every time.Duration, poll func(context.Context) error) error {
	loopCtx := p.logg.WithField(ctx, "loop", name)

	timer := time.NewTimer(first)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return nil
	case <-timer.C:
	}
	p.tick(loopCtx, poll)

	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			p.logg.Debug(loopCtx, "poll loop stopped")
			return nil
		case <-ticker.C:
			p.tick(loopCtx, poll)
		}
	}
}

func (p *Poller) tick(ctx context.Context, poll func(context.Context) error) {
	if err := poll(ctx); err != nil && ctx.Err() == nil {
		p.logg.Warn(ctx, "poll tick failed", err)
	}
}
