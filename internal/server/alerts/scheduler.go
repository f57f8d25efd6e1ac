// Package alerts runs the per-minute reminder job: on weekdays it texts every
// user whose alert time has come and who has not logged a completed entry
// for the day.
package alerts

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/accountability/internal/common"
	"github.com/dmitrijs2005/accountability/internal/logging"
	"github.com/dmitrijs2005/accountability/internal/server/calendar"
	"github.com/dmitrijs2005/accountability/internal/server/models"
	"github.com/dmitrijs2005/accountability/internal/server/notify"
	"golang.org/x/sync/errgroup"
)

var ErrAlreadyRunning = errors.New("alerts: scheduler already running")

// UserLister selects alert candidates.
type UserLister interface {
	List(ctx context.Context, f models.UserFilter) ([]*models.User, error)
}

// EntryFinder looks up a user's entry for one day.
type EntryFinder interface {
	GetByUserAndDate(ctx context.Context, userID string, date time.Time) (*models.Accomplishment, error)
}

// Clock abstracts wall time.
type Clock interface {
	Now() time.Time
}

type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// TickSource produces tick times until ctx is done. A tick is dropped rather
// than queued while the previous one is still being handled.
type TickSource func(ctx context.Context, interval time.Duration) <-chan time.Time

type Config struct {
	Location    *time.Location
	Message     string
	Interval    time.Duration
	TickTimeout time.Duration
	SendTimeout time.Duration
	Concurrency int
}

func (c *Config) setDefaults() {
	if c.Location == nil {
		c.Location = time.Local
	}
	if c.Interval <= 0 {
		c.Interval = time.Minute
	}
	if c.TickTimeout <= 0 {
		c.TickTimeout = c.Interval
	}
	if c.SendTimeout <= 0 {
		c.SendTimeout = 10 * time.Second
	}
	if c.Concurrency <= 0 {
		c.Concurrency = 1
	}
}

// Report summarizes one tick.
type Report struct {
	Weekend    bool
	Candidates int
	Sent       int
	Skipped    int
	Failed     int
}

type Scheduler struct {
	users   UserLister
	entries EntryFinder
	sender  notify.Sender
	logger  logging.Logger
	cfg     Config
	clock   Clock
	ticks   TickSource

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	lastKey string
}

type Option func(*Scheduler)

func WithClock(c Clock) Option { return func(s *Scheduler) { s.clock = c } }

func WithTickSource(t TickSource) Option { return func(s *Scheduler) { s.ticks = t } }

func NewScheduler(users UserLister, entries EntryFinder, sender notify.Sender, logger logging.Logger, cfg Config, opts ...Option) *Scheduler {
	cfg.setDefaults()
	s := &Scheduler{
		users:   users,
		entries: entries,
		sender:  sender,
		logger:  logger.With("module", "alerts"),
		cfg:     cfg,
		clock:   ClockFunc(time.Now),
		ticks:   AlignedTicks,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Start launches the run loop. It returns immediately; the loop ends when ctx
// is cancelled or Stop is called.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		return ErrAlreadyRunning
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})

	ticks := s.ticks(ctx, s.cfg.Interval)
	go s.run(ctx, ticks, s.done)

	s.logger.Info(ctx, "alert scheduler started",
		"interval", s.cfg.Interval.String(), "location", s.cfg.Location.String())
	return nil
}

// Stop cancels the run loop and waits for an in-flight tick to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (s *Scheduler) run(ctx context.Context, ticks <-chan time.Time, done chan struct{}) {
	defer close(done)
	for {
		select {
		case <-ctx.Done():
			s.logger.Info(context.Background(), "alert scheduler stopped")
			return
		case _, ok := <-ticks:
			if !ok {
				return
			}
			s.evaluate(ctx, s.clock.Now())
		}
	}
}

// evaluate runs Tick unless this wall-clock minute (in the configured
// location) was already processed, and reports whether it ran. Keys only move
// forward, so a minute repeated by a DST fall-back is not processed twice. A
// clock that steps backward keeps ticks suppressed until it passes the last
// processed minute; each suppressed minute is logged at warn level.
func (s *Scheduler) evaluate(ctx context.Context, now time.Time) bool {
	key := now.In(s.cfg.Location).Format(common.DayLayout + " " + common.ClockLayout)
	if key == s.lastKey {
		s.logger.Debug(ctx, "minute already processed", "minute", key)
		return false
	}
	if key < s.lastKey {
		s.logger.Warn(ctx, "wall clock behind last processed minute, skipping tick",
			"minute", key, "last", s.lastKey)
		return false
	}
	s.lastKey = key

	started := time.Now()
	s.Tick(ctx, now)
	if elapsed := time.Since(started); elapsed > s.cfg.Interval {
		s.logger.Warn(ctx, "alert tick overran interval",
			"minute", key, "elapsed", elapsed.String(), "interval", s.cfg.Interval.String())
	}
	return true
}

// Tick evaluates one minute. It returns after every candidate has been
// handled; per-user failures are logged and counted, never propagated.
func (s *Scheduler) Tick(ctx context.Context, now time.Time) Report {
	var rep Report

	local := now.In(s.cfg.Location)
	if calendar.IsWeekend(local) {
		rep.Weekend = true
		s.logger.Debug(ctx, "weekend, no alerts", "weekday", local.Weekday().String())
		return rep
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.TickTimeout)
	defer cancel()

	enabled, at := true, local.Format(common.ClockLayout)
	candidates, err := s.users.List(ctx, models.UserFilter{Alert: &enabled, AlertTime: &at})
	if err != nil {
		s.logger.Error(ctx, "select alert candidates", "alert_time", at, "error", err)
		return rep
	}
	rep.Candidates = len(candidates)
	if len(candidates) == 0 {
		return rep
	}

	today := calendar.Truncate(local)
	var sent, skipped, failed atomic.Int64

	var g errgroup.Group
	g.SetLimit(s.cfg.Concurrency)
	for _, u := range candidates {
		g.Go(func() error {
			switch did, err := s.checkUser(ctx, u, today); {
			case err != nil:
				failed.Add(1)
				s.logger.Error(ctx, "alert failed", "user_id", u.ID, "error", err)
			case did:
				sent.Add(1)
			default:
				skipped.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()

	rep.Sent, rep.Skipped, rep.Failed = int(sent.Load()), int(skipped.Load()), int(failed.Load())
	s.logger.Info(ctx, "alert tick done", "alert_time", at,
		"candidates", rep.Candidates, "sent", rep.Sent, "skipped", rep.Skipped, "failed", rep.Failed)
	return rep
}

// checkUser sends the reminder when the user has no entry for day or the
// entry is too short to count. It reports whether a message was sent.
func (s *Scheduler) checkUser(ctx context.Context, u *models.User, day time.Time) (bool, error) {
	entry, err := s.entries.GetByUserAndDate(ctx, u.ID, day)
	switch {
	case errors.Is(err, common.ErrNotFound):
	case err != nil:
		return false, fmt.Errorf("lookup entry: %w", err)
	case common.IsCompleted(entry.Text):
		s.logger.Debug(ctx, "entry complete, no alert", "user_id", u.ID)
		return false, nil
	}

	sendCtx, cancel := context.WithTimeout(ctx, s.cfg.SendTimeout)
	defer cancel()

	if err := s.sender.Send(sendCtx, u.Phone, s.cfg.Message); err != nil {
		return false, err
	}
	s.logger.Info(ctx, "alert sent", "user_id", u.ID)
	return true, nil
}

// AlignedTicks fires on interval boundaries of the wall clock (e.g. at :00 of
// every minute for a one-minute interval). Boundaries missed while the
// receiver was busy are skipped.
func AlignedTicks(ctx context.Context, interval time.Duration) <-chan time.Time {
	ch := make(chan time.Time, 1)
	go func() {
		defer close(ch)

		next := time.Now().Truncate(interval).Add(interval)
		timer := time.NewTimer(time.Until(next))
		defer timer.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case t := <-timer.C:
				select {
				case ch <- t:
				default:
				}
				for !next.After(time.Now()) {
					next = next.Add(interval)
				}
				timer.Reset(time.Until(next))
			}
		}
	}()
	return ch
}
