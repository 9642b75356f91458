package earnings

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// CalendarScope is the only scope the syncer needs.
const CalendarScope = "https://www.googleapis.com/auth/calendar.events"

// DefaultCalendarBaseURL is the Google Calendar API root.
const DefaultCalendarBaseURL = "https://www.googleapis.com"

// GoogleCalendar is an EventStore backed by the Calendar v3 REST API.
type GoogleCalendar struct {
	client     *http.Client
	baseURL    string
	calendarID string
}

// NewGoogleCalendar wraps an authorized client. calendarID is usually
// "primary".
func NewGoogleCalendar(client *http.Client, calendarID, baseURL string) *GoogleCalendar {
	if calendarID == "" {
		calendarID = "primary"
	}
	if baseURL == "" {
		baseURL = DefaultCalendarBaseURL
	}
	return &GoogleCalendar{client: client, baseURL: strings.TrimRight(baseURL, "/"), calendarID: calendarID}
}

type gcalTime struct {
	DateTime string `json:"dateTime,omitempty"`
	TimeZone string `json:"timeZone,omitempty"`
}

type gcalEvent struct {
	ID          string         `json:"id,omitempty"`
	Summary     string         `json:"summary"`
	Description string         `json:"description,omitempty"`
	Start       gcalTime       `json:"start"`
	End         gcalTime       `json:"end"`
	Reminders   *gcalReminders `json:"reminders,omitempty"`
}

type gcalReminders struct {
	UseDefault bool           `json:"useDefault"`
	Overrides  []gcalOverride `json:"overrides,omitempty"`
}

type gcalOverride struct {
	Method  string `json:"method"`
	Minutes int    `json:"minutes"`
}

func toGcal(ev Event) gcalEvent {
	tz := ev.Start.Location().String()
	out := gcalEvent{
		Summary:     ev.Summary,
		Description: ev.Description,
		Start:       gcalTime{DateTime: ev.Start.Format(time.RFC3339), TimeZone: tz},
		End:         gcalTime{DateTime: ev.End.Format(time.RFC3339), TimeZone: tz},
	}
	if len(ev.Reminders) > 0 {
		out.Reminders = &gcalReminders{}
		for _, r := range ev.Reminders {
			out.Reminders.Overrides = append(out.Reminders.Overrides, gcalOverride{Method: r.Method, Minutes: r.Minutes})
		}
	}
	return out
}

func fromGcal(g gcalEvent) Event {
	ev := Event{ID: g.ID, Summary: g.Summary, Description: g.Description}
	ev.Start, _ = time.Parse(time.RFC3339, g.Start.DateTime)
	ev.End, _ = time.Parse(time.RFC3339, g.End.DateTime)
	if g.Reminders != nil {
		for _, o := range g.Reminders.Overrides {
			ev.Reminders = append(ev.Reminders, Reminder{Method: o.Method, Minutes: o.Minutes})
		}
	}
	return ev
}

func (c *GoogleCalendar) eventsURL() string {
	return c.baseURL + "/calendar/v3/calendars/" + url.PathEscape(c.calendarID) + "/events"
}

// ListEvents implements EventStore.
func (c *GoogleCalendar) ListEvents(ctx context.Context, query string, from, to time.Time) ([]Event, error) {
	params := url.Values{
		"timeMin":      {from.Format(time.RFC3339)},
		"timeMax":      {to.Format(time.RFC3339)},
		"singleEvents": {"true"},
		"orderBy":      {"startTime"},
	}
	if query != "" {
		params.Set("q", query)
	}

	var resp struct {
		Items []gcalEvent `json:"items"`
	}
	if err := c.do(ctx, http.MethodGet, c.eventsURL()+"?"+params.Encode(), nil, &resp); err != nil {
		return nil, err
	}
	out := make([]Event, 0, len(resp.Items))
	for _, it := range resp.Items {
		out = append(out, fromGcal(it))
	}
	return out, nil
}

// InsertEvent implements EventStore.
func (c *GoogleCalendar) InsertEvent(ctx context.Context, ev Event) (Event, error) {
	var created gcalEvent
	if err := c.do(ctx, http.MethodPost, c.eventsURL(), toGcal(ev), &created); err != nil {
		return Event{}, err
	}
	out := fromGcal(created)
	if out.Start.IsZero() {
		out.Start, out.End = ev.Start, ev.End
	}
	return out, nil
}

func (c *GoogleCalendar) do(ctx context.Context, method, u string, in, out any) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("calendar request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("calendar api %s: %s", resp.Status, strings.TrimSpace(string(data)))
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(data, out)
}

// --- OAuth installed-app flow ---

// AuthorizedClient returns an HTTP client for the user's calendar. The
// OAuth client secret is read from credentialsFile. A cached token is read
// from tokenFile; without one the user is shown a consent URL on out and
// the authorization code is read from in. Refreshed tokens are written back
// to tokenFile.
func AuthorizedClient(ctx context.Context, credentialsFile, tokenFile string, in io.Reader, out io.Writer) (*http.Client, error) {
	b, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("read client secret %s: %w", credentialsFile, err)
	}
	cfg, err := google.ConfigFromJSON(b, CalendarScope)
	if err != nil {
		return nil, fmt.Errorf("parse client secret: %w", err)
	}

	tok, err := loadToken(tokenFile)
	if err != nil {
		if tok, err = tokenFromUser(ctx, cfg, in, out); err != nil {
			return nil, err
		}
		if err := saveToken(tokenFile, tok); err != nil {
			return nil, err
		}
	}

	ts := &savingTokenSource{
		base: cfg.TokenSource(ctx, tok),
		path: tokenFile,
		last: tok.AccessToken,
	}
	return oauth2.NewClient(ctx, oauth2.ReuseTokenSource(tok, ts)), nil
}

func tokenFromUser(ctx context.Context, cfg *oauth2.Config, in io.Reader, out io.Writer) (*oauth2.Token, error) {
	authURL := cfg.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
	fmt.Fprintf(out, "Open this link in your browser and paste the authorization code:\n%s\n> ", authURL)

	var code string
	if _, err := fmt.Fscan(in, &code); err != nil {
		return nil, fmt.Errorf("read authorization code: %w", err)
	}
	tok, err := cfg.Exchange(ctx, strings.TrimSpace(code))
	if err != nil {
		return nil, fmt.Errorf("exchange authorization code: %w", err)
	}
	return tok, nil
}

func loadToken(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tok := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(tok); err != nil {
		return nil, err
	}
	if tok.AccessToken == "" && tok.RefreshToken == "" {
		return nil, errors.New("empty token file")
	}
	return tok, nil
}

func saveToken(path string, tok *oauth2.Token) error {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("cache oauth token: %w", err)
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(tok)
}

// savingTokenSource persists every newly minted token.
type savingTokenSource struct {
	base oauth2.TokenSource
	path string
	last string
}

func (s *savingTokenSource) Token() (*oauth2.Token, error) {
	tok, err := s.base.Token()
	if err != nil {
		return nil, err
	}
	if tok.AccessToken != s.last {
		s.last = tok.AccessToken
		_ = saveToken(s.path, tok)
	}
	return tok, nil
}
