package earnings

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nyc(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	return loc
}

type fakeDates struct {
	dates map[string][]time.Time
	fail  map[string]error
}

func (f fakeDates) EarningsDates(_ context.Context, ticker string) ([]time.Time, error) {
	if err := f.fail[ticker]; err != nil {
		return nil, err
	}
	return f.dates[ticker], nil
}

type memStore struct {
	mu      sync.Mutex
	events  []Event
	listErr error
}

func (m *memStore) ListEvents(_ context.Context, query string, from, to time.Time) ([]Event, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Event
	for _, e := range m.events {
		if e.Summary == query && !e.Start.After(to) && !e.End.Before(from) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memStore) InsertEvent(_ context.Context, ev Event) (Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
	return ev, nil
}

func TestNewEvent(t *testing.T) {
	loc := nyc(t)
	// 02:00 UTC on the 31st is still the evening of the 30th in New York.
	ev := NewEvent("AAPL", time.Date(2025, 1, 31, 2, 0, 0, 0, time.UTC), loc)

	assert.Equal(t, "AAPL Earnings (Est.)", ev.Summary)
	assert.Equal(t, time.Date(2025, 1, 30, 16, 15, 0, 0, loc), ev.Start)
	assert.Equal(t, time.Hour, ev.End.Sub(ev.Start))
	assert.Contains(t, ev.Description, "Estimated earnings announcement for AAPL")
	assert.Equal(t, []Reminder{{"email", 1440}, {"popup", 60}}, ev.Reminders)
}

func TestFutureDates(t *testing.T) {
	now := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	var dates []time.Time
	for i := -2; i < 6; i++ {
		dates = append(dates, now.AddDate(0, 3*i, 0))
	}
	got := FutureDates(dates, now, 4)
	require.Len(t, got, 4)
	assert.Equal(t, now.AddDate(0, 3, 0), got[0])
	assert.Equal(t, now.AddDate(0, 12, 0), got[3])

	// now itself is not in the future
	assert.Empty(t, FutureDates([]time.Time{now}, now, 4))
}

func TestSyncCreatesSkipsAndIsolatesFailures(t *testing.T) {
	loc := nyc(t)
	now := time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)
	d := func(m time.Month, day int) time.Time { return time.Date(2025, m, day, 21, 0, 0, 0, time.UTC) }

	src := fakeDates{
		dates: map[string][]time.Time{
			"AAPL": {
				time.Date(2024, 10, 31, 21, 0, 0, 0, time.UTC),
				d(1, 30), d(4, 24), d(7, 31), d(10, 30),
				time.Date(2026, 1, 29, 21, 0, 0, 0, time.UTC),
			},
			"NONE": nil,
		},
		fail: map[string]error{"BAD": errors.New("quote summary unavailable")},
	}
	store := &memStore{events: []Event{NewEvent("AAPL", d(4, 24), loc)}}

	s := NewSyncer(src, store, loc, 0, zerolog.Nop())
	s.now = func() time.Time { return now }

	rep := s.Sync(context.Background(), []string{"AAPL", "BAD", "NONE"})

	require.Len(t, rep.Created, 3)
	require.Len(t, rep.Skipped, 1)
	assert.Equal(t, time.Date(2025, 4, 24, 16, 15, 0, 0, loc), rep.Skipped[0].Start)
	assert.Equal(t, time.Date(2025, 1, 30, 16, 15, 0, 0, loc), rep.Created[0].Start)
	assert.Equal(t, time.Date(2025, 10, 30, 16, 15, 0, 0, loc), rep.Created[2].Start)
	assert.Len(t, rep.Failed, 1)
	assert.Contains(t, rep.Failed, "BAD")

	// a second run is idempotent
	again := s.Sync(context.Background(), []string{"AAPL"})
	assert.Empty(t, again.Created)
	assert.Len(t, again.Skipped, 4)
	assert.Len(t, store.events, 4)
}

func TestSyncListFailureSkipsTicker(t *testing.T) {
	src := fakeDates{dates: map[string][]time.Time{"MSFT": {time.Now().Add(48 * time.Hour)}}}
	store := &memStore{listErr: errors.New("403 forbidden")}

	rep := NewSyncer(src, store, nil, 4, zerolog.Nop()).Sync(context.Background(), []string{"MSFT"})
	assert.Empty(t, rep.Created)
	require.Error(t, rep.Failed["MSFT"])
	assert.Contains(t, rep.Failed["MSFT"].Error(), "list events")
}
