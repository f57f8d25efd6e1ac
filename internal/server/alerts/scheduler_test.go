package alerts

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/dmitrijs2005/accountability/internal/common"
	"github.com/dmitrijs2005/accountability/internal/logging"
	"github.com/dmitrijs2005/accountability/internal/server/models"
	"github.com/dmitrijs2005/accountability/internal/server/repositories/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 2024-01-02 is a Tuesday, 2024-01-06 a Saturday.
var (
	tuesday9am  = time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC)
	saturday9am = time.Date(2024, 1, 6, 9, 0, 0, 0, time.UTC)
)

type recordingSender struct {
	mu    sync.Mutex
	to    []string
	fail  map[string]error
	delay time.Duration

	inFlight, maxInFlight atomic.Int32
}

func (r *recordingSender) Send(ctx context.Context, to, body string) error {
	n := r.inFlight.Add(1)
	defer r.inFlight.Add(-1)
	for {
		m := r.maxInFlight.Load()
		if n <= m || r.maxInFlight.CompareAndSwap(m, n) {
			break
		}
	}
	if r.delay > 0 {
		time.Sleep(r.delay)
	}
	if err := r.fail[to]; err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.to = append(r.to, to)
	return nil
}

func (r *recordingSender) sent() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.to...)
}

type fixture struct {
	store  *memory.Store
	sender *recordingSender
}

func newFixture(t *testing.T, users ...*models.User) *fixture {
	t.Helper()
	f := &fixture{store: memory.NewStore(), sender: &recordingSender{}}
	for _, u := range users {
		_, err := f.store.Users().Create(context.Background(), u)
		require.NoError(t, err)
	}
	return f
}

func (f *fixture) scheduler(cfg Config, opts ...Option) *Scheduler {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Message == "" {
		cfg.Message = "fill it in"
	}
	return NewScheduler(f.store.Users(), f.store.Accomplishments(), f.sender, logging.Nop{}, cfg, opts...)
}

func (f *fixture) entry(t *testing.T, userID, day, text string) {
	t.Helper()
	d, err := time.Parse(common.DayLayout, day)
	require.NoError(t, err)
	_, _, err = f.store.Accomplishments().SaveOrUpdateByUserDate(context.Background(),
		&models.Accomplishment{UserID: userID, Date: d, Text: text})
	require.NoError(t, err)
}

func alertUser(id, phone, at string) *models.User {
	return &models.User{ID: id, FirstName: id, Email: id + "@x.io", Phone: phone, Alert: true, AlertTime: at}
}

func TestTick_WeekdayNoEntrySends(t *testing.T) {
	f := newFixture(t, alertUser("u1", "+1001", "09:00"))

	rep := f.scheduler(Config{}).Tick(context.Background(), tuesday9am)

	assert.Equal(t, []string{"+1001"}, f.sender.sent())
	assert.Equal(t, Report{Candidates: 1, Sent: 1}, rep)
}

func TestTick_WeekendSendsNothing(t *testing.T) {
	f := newFixture(t, alertUser("u1", "+1001", "09:00"))

	rep := f.scheduler(Config{}).Tick(context.Background(), saturday9am)

	assert.Empty(t, f.sender.sent())
	assert.True(t, rep.Weekend)
}

func TestTick_EntryCompleteness(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		wantSent int
	}{
		{"five chars counts", "done!", 0},
		{"three chars counts", "abc", 0},
		{"two chars does not", "ok", 1},
		{"two accented chars does not", "éé", 1},
		{"three multibyte chars counts", "日本語", 0},
		{"empty does not", "", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, alertUser("u1", "+1001", "09:00"))
			f.entry(t, "u1", "2024-01-02", tt.text)

			rep := f.scheduler(Config{}).Tick(context.Background(), tuesday9am)

			assert.Len(t, f.sender.sent(), tt.wantSent)
			assert.Equal(t, tt.wantSent, rep.Sent)
			assert.Equal(t, 1-tt.wantSent, rep.Skipped)
		})
	}
}

func TestTick_SelectsOnlyMatchingAlertUsers(t *testing.T) {
	off := alertUser("off", "+1002", "09:00")
	off.Alert = false
	f := newFixture(t,
		alertUser("nine", "+1001", "09:00"),
		off,
		alertUser("ten", "+1003", "10:00"),
	)

	rep := f.scheduler(Config{}).Tick(context.Background(), tuesday9am)

	assert.Equal(t, []string{"+1001"}, f.sender.sent())
	assert.Equal(t, 1, rep.Candidates)
}

func TestTick_EntryOnOtherDayDoesNotCount(t *testing.T) {
	f := newFixture(t, alertUser("u1", "+1001", "09:00"))
	f.entry(t, "u1", "2024-01-01", "yesterday's work")

	f.scheduler(Config{}).Tick(context.Background(), tuesday9am)

	assert.Len(t, f.sender.sent(), 1)
}

func TestTick_SendFailureIsIsolated(t *testing.T) {
	f := newFixture(t,
		alertUser("a", "+1001", "09:00"),
		alertUser("b", "+1002", "09:00"),
		alertUser("c", "+1003", "09:00"),
	)
	f.sender.fail = map[string]error{"+1002": errors.New("carrier rejected")}

	rep := f.scheduler(Config{Concurrency: 3}).Tick(context.Background(), tuesday9am)

	assert.ElementsMatch(t, []string{"+1001", "+1003"}, f.sender.sent())
	assert.Equal(t, Report{Candidates: 3, Sent: 2, Failed: 1}, rep)
}

type flakyFinder struct {
	EntryFinder
	failFor string
}

func (f flakyFinder) GetByUserAndDate(ctx context.Context, userID string, date time.Time) (*models.Accomplishment, error) {
	if userID == f.failFor {
		return nil, common.ErrStore
	}
	return f.EntryFinder.GetByUserAndDate(ctx, userID, date)
}

func TestTick_StoreFailureIsIsolated(t *testing.T) {
	f := newFixture(t,
		alertUser("a", "+1001", "09:00"),
		alertUser("b", "+1002", "09:00"),
	)
	s := NewScheduler(f.store.Users(), flakyFinder{f.store.Accomplishments(), "a"}, f.sender, logging.Nop{},
		Config{Location: time.UTC, Message: "m"})

	rep := s.Tick(context.Background(), tuesday9am)

	assert.Equal(t, []string{"+1002"}, f.sender.sent())
	assert.Equal(t, 1, rep.Failed)
	assert.Equal(t, 1, rep.Sent)
}

type failingLister struct{}

func (failingLister) List(context.Context, models.UserFilter) ([]*models.User, error) {
	return nil, common.ErrStore
}

func TestTick_SelectFailureAbortsTick(t *testing.T) {
	f := newFixture(t)
	s := NewScheduler(failingLister{}, f.store.Accomplishments(), f.sender, logging.Nop{}, Config{Location: time.UTC})

	rep := s.Tick(context.Background(), tuesday9am)

	assert.Equal(t, Report{}, rep)
	assert.Empty(t, f.sender.sent())
}

func TestTick_UsesConfiguredLocation(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	f := newFixture(t, alertUser("u1", "+1001", "09:00"))

	// 14:00 UTC is 09:00 EST.
	f.scheduler(Config{Location: ny}).Tick(context.Background(), time.Date(2024, 1, 2, 14, 0, 0, 0, time.UTC))
	assert.Len(t, f.sender.sent(), 1)

	// 03:00 UTC on Saturday is still Friday 22:00 in New York.
	rep := f.scheduler(Config{Location: ny}).Tick(context.Background(), time.Date(2024, 1, 6, 3, 0, 0, 0, time.UTC))
	assert.False(t, rep.Weekend)
}

func TestTick_ConcurrencyBounded(t *testing.T) {
	var users []*models.User
	for _, id := range []string{"a", "b", "c", "d", "e", "f"} {
		users = append(users, alertUser(id, "+"+id, "09:00"))
	}
	f := newFixture(t, users...)
	f.sender.delay = 20 * time.Millisecond

	rep := f.scheduler(Config{Concurrency: 2}).Tick(context.Background(), tuesday9am)

	assert.Equal(t, 6, rep.Sent)
	assert.LessOrEqual(t, f.sender.maxInFlight.Load(), int32(2))
}

func TestEvaluate_MinuteGuard(t *testing.T) {
	f := newFixture(t, alertUser("u1", "+1001", "09:00"))
	s := f.scheduler(Config{})

	assert.True(t, s.evaluate(context.Background(), tuesday9am))
	assert.False(t, s.evaluate(context.Background(), tuesday9am.Add(30*time.Second)))
	assert.Len(t, f.sender.sent(), 1)

	assert.True(t, s.evaluate(context.Background(), tuesday9am.Add(24*time.Hour)))
	assert.Len(t, f.sender.sent(), 2)
}

func TestEvaluate_ClockStepBackWarns(t *testing.T) {
	f := newFixture(t, alertUser("u1", "+1001", "09:00"))
	var buf bytes.Buffer
	s := NewScheduler(f.store.Users(), f.store.Accomplishments(), f.sender,
		logging.NewJSONLogger(&buf, "warn"), Config{Location: time.UTC, Message: "fill it in"})

	assert.True(t, s.evaluate(context.Background(), tuesday9am))
	assert.False(t, s.evaluate(context.Background(), tuesday9am.Add(-5*time.Minute)))

	assert.Contains(t, buf.String(), `"level":"WARN"`)
	assert.Contains(t, buf.String(), "wall clock behind last processed minute")
	assert.Contains(t, buf.String(), `"last":"2024-01-02 09:00"`)
	assert.Len(t, f.sender.sent(), 1)
}

func TestEvaluate_SameMinuteIsNotWarned(t *testing.T) {
	f := newFixture(t)
	var buf bytes.Buffer
	s := NewScheduler(f.store.Users(), f.store.Accomplishments(), f.sender,
		logging.NewJSONLogger(&buf, "warn"), Config{Location: time.UTC, Message: "fill it in"})

	assert.True(t, s.evaluate(context.Background(), tuesday9am))
	assert.False(t, s.evaluate(context.Background(), tuesday9am.Add(20*time.Second)))
	assert.NotContains(t, buf.String(), "wall clock behind")
}

func TestEvaluate_RepeatedDSTMinuteRunsOnce(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	s := newFixture(t).scheduler(Config{Location: ny})

	// 05:30 UTC and 06:30 UTC on 2024-11-03 are both 01:30 in New York.
	first := time.Date(2024, 11, 3, 5, 30, 0, 0, time.UTC)
	second := first.Add(time.Hour)
	require.Equal(t, first.In(ny).Format("15:04"), second.In(ny).Format("15:04"))

	assert.True(t, s.evaluate(context.Background(), first))
	assert.False(t, s.evaluate(context.Background(), second))
	assert.True(t, s.evaluate(context.Background(), second.Add(30*time.Minute)))
}

func TestStartStop(t *testing.T) {
	f := newFixture(t, alertUser("u1", "+1001", "09:00"))
	ticks := make(chan time.Time, 1)
	s := f.scheduler(Config{},
		WithClock(ClockFunc(func() time.Time { return tuesday9am })),
		WithTickSource(func(context.Context, time.Duration) <-chan time.Time { return ticks }),
	)

	require.NoError(t, s.Start(context.Background()))
	assert.ErrorIs(t, s.Start(context.Background()), ErrAlreadyRunning)

	ticks <- time.Now()
	assert.Eventually(t, func() bool { return len(f.sender.sent()) == 1 }, time.Second, 5*time.Millisecond)

	s.Stop()
	s.Stop()

	require.NoError(t, s.Start(context.Background()))
	s.Stop()
}

func TestStart_StopsWithContext(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	s := f.scheduler(Config{},
		WithTickSource(func(context.Context, time.Duration) <-chan time.Time { return make(chan time.Time) }))

	require.NoError(t, s.Start(ctx))
	done := s.done
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("run loop did not exit on context cancel")
	}
	s.Stop()
}

func TestAlignedTicks(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := AlignedTicks(ctx, 20*time.Millisecond)

	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("no tick")
	}

	cancel()
	assert.Eventually(t, func() bool {
		select {
		case _, ok := <-ch:
			return !ok
		default:
			return false
		}
	}, time.Second, 5*time.Millisecond)
}
