// Package earnings mirrors upcoming earnings announcements into a calendar.
package earnings

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Event is a calendar entry. Start and End carry the event time zone.
type Event struct {
	ID          string
	Summary     string
	Description string
	Start       time.Time
	End         time.Time
	Reminders   []Reminder
}

// Reminder is a reminder override on an event.
type Reminder struct {
	Method  string // "email" or "popup"
	Minutes int
}

// EventStore is the calendar the syncer writes to.
type EventStore interface {
	// ListEvents returns events matching query that overlap [from, to].
	ListEvents(ctx context.Context, query string, from, to time.Time) ([]Event, error)
	InsertEvent(ctx context.Context, ev Event) (Event, error)
}

// DateSource provides earnings dates for a ticker. datasource.Provider
// implements it.
type DateSource interface {
	EarningsDates(ctx context.Context, ticker string) ([]time.Time, error)
}

const (
	// DefaultMaxEvents is the number of upcoming quarters synced per ticker.
	DefaultMaxEvents = 4

	eventHour     = 16
	eventMinute   = 15
	eventDuration = time.Hour
)

// DefaultReminders are one email a day ahead and a popup an hour ahead.
var DefaultReminders = []Reminder{
	{Method: "email", Minutes: 24 * 60},
	{Method: "popup", Minutes: 60},
}

// Syncer creates one estimated earnings event per upcoming date.
type Syncer struct {
	source    DateSource
	store     EventStore
	loc       *time.Location
	maxEvents int
	log       zerolog.Logger
	now       func() time.Time
}

// NewSyncer creates a syncer placing events in loc. A nil loc means
// America/New_York; maxEvents <= 0 means DefaultMaxEvents.
func NewSyncer(src DateSource, store EventStore, loc *time.Location, maxEvents int, log zerolog.Logger) *Syncer {
	if loc == nil {
		loc = newYork()
	}
	if maxEvents <= 0 {
		maxEvents = DefaultMaxEvents
	}
	return &Syncer{
		source:    src,
		store:     store,
		loc:       loc,
		maxEvents: maxEvents,
		log:       log.With().Str("component", "earnings").Logger(),
		now:       time.Now,
	}
}

func newYork() *time.Location {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		return time.UTC
	}
	return loc
}

// Report summarizes a sync run.
type Report struct {
	Created []Event
	Skipped []Event          // already present in the calendar
	Failed  map[string]error // per ticker
}

// Sync processes tickers in order. A ticker that fails is logged, recorded
// in Report.Failed and skipped; the run continues.
func (s *Syncer) Sync(ctx context.Context, tickers []string) *Report {
	rep := &Report{Failed: make(map[string]error)}
	for _, ticker := range tickers {
		if err := s.syncTicker(ctx, ticker, rep); err != nil {
			s.log.Warn().Err(err).Str("ticker", ticker).Msg("earnings sync failed")
			rep.Failed[ticker] = err
		}
	}
	s.log.Info().Int("created", len(rep.Created)).Int("skipped", len(rep.Skipped)).
		Int("failed", len(rep.Failed)).Msg("earnings calendar sync complete")
	return rep
}

func (s *Syncer) syncTicker(ctx context.Context, ticker string, rep *Report) error {
	dates, err := s.source.EarningsDates(ctx, ticker)
	if err != nil {
		return fmt.Errorf("earnings dates: %w", err)
	}
	upcoming := FutureDates(dates, s.now().UTC(), s.maxEvents)
	if len(upcoming) == 0 {
		s.log.Info().Str("ticker", ticker).Msg("no future earnings dates")
		return nil
	}

	for _, d := range upcoming {
		ev := NewEvent(ticker, d, s.loc)
		existing, err := s.store.ListEvents(ctx, ev.Summary, ev.Start, ev.End)
		if err != nil {
			return fmt.Errorf("list events: %w", err)
		}
		if containsSummary(existing, ev.Summary) {
			s.log.Info().Str("ticker", ticker).Time("start", ev.Start).Msg("event already exists")
			rep.Skipped = append(rep.Skipped, ev)
			continue
		}
		created, err := s.store.InsertEvent(ctx, ev)
		if err != nil {
			return fmt.Errorf("insert event: %w", err)
		}
		s.log.Info().Str("ticker", ticker).Time("start", ev.Start).Msg("event created")
		rep.Created = append(rep.Created, created)
	}
	return nil
}

// FutureDates keeps dates strictly after now, ascending, at most limit.
// dates must be ascending.
func FutureDates(dates []time.Time, now time.Time, limit int) []time.Time {
	var out []time.Time
	for _, d := range dates {
		if !d.After(now) {
			continue
		}
		out = append(out, d)
		if len(out) == limit {
			break
		}
	}
	return out
}

// NewEvent builds the estimated earnings event for date: 16:15 on that
// calendar day in loc, one hour long.
func NewEvent(ticker string, date time.Time, loc *time.Location) Event {
	local := date.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), eventHour, eventMinute, 0, 0, loc)
	desc := fmt.Sprintf("Estimated earnings announcement for %s. Check company investor relations "+
		"for exact time and webcast details.", ticker)
	return Event{
		Summary:     ticker + " Earnings (Est.)",
		Description: desc,
		Start:       start,
		End:         start.Add(eventDuration),
		Reminders:   DefaultReminders,
	}
}

func containsSummary(events []Event, summary string) bool {
	for _, e := range events {
		if e.Summary == summary {
			return true
		}
	}
	return false
}
