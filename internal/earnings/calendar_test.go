package earnings

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func TestGoogleCalendarListAndInsert(t *testing.T) {
	loc := nyc(t)
	var inserted gcalEvent

	mux := http.NewServeMux()
	mux.HandleFunc("GET /calendar/v3/calendars/primary/events", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "AAPL Earnings (Est.)", q.Get("q"))
		assert.Equal(t, "true", q.Get("singleEvents"))
		assert.Equal(t, "2025-01-30T16:15:00-05:00", q.Get("timeMin"))
		assert.Equal(t, "2025-01-30T17:15:00-05:00", q.Get("timeMax"))
		_, _ = w.Write([]byte(`{"items":[{"id":"e1","summary":"AAPL Earnings (Est.)",
			"start":{"dateTime":"2025-01-30T16:15:00-05:00"},"end":{"dateTime":"2025-01-30T17:15:00-05:00"}}]}`))
	})
	mux.HandleFunc("POST /calendar/v3/calendars/primary/events", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&inserted))
		inserted.ID = "new-event"
		_ = json.NewEncoder(w).Encode(inserted)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	cal := NewGoogleCalendar(srv.Client(), "", srv.URL)
	ev := NewEvent("AAPL", time.Date(2025, 1, 30, 21, 0, 0, 0, time.UTC), loc)

	found, err := cal.ListEvents(context.Background(), ev.Summary, ev.Start, ev.End)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "e1", found[0].ID)
	assert.True(t, found[0].Start.Equal(ev.Start))

	created, err := cal.InsertEvent(context.Background(), ev)
	require.NoError(t, err)
	assert.Equal(t, "new-event", created.ID)
	assert.Equal(t, "America/New_York", inserted.Start.TimeZone)
	assert.Equal(t, "2025-01-30T16:15:00-05:00", inserted.Start.DateTime)
	require.NotNil(t, inserted.Reminders)
	assert.False(t, inserted.Reminders.UseDefault)
	assert.Equal(t, []gcalOverride{{"email", 1440}, {"popup", 60}}, inserted.Reminders.Overrides)
}

func TestGoogleCalendarAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"forbidden"}`, http.StatusForbidden)
	}))
	defer srv.Close()

	cal := NewGoogleCalendar(srv.Client(), "primary", srv.URL)
	_, err := cal.ListEvents(context.Background(), "x", time.Now(), time.Now().Add(time.Hour))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}

func TestTokenRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	tok := &oauth2.Token{AccessToken: "access", RefreshToken: "refresh", TokenType: "Bearer"}
	require.NoError(t, saveToken(path, tok))

	got, err := loadToken(path)
	require.NoError(t, err)
	assert.Equal(t, "access", got.AccessToken)
	assert.Equal(t, "refresh", got.RefreshToken)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	_, err = loadToken(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestTokenFromUser(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "the-code", r.Form.Get("code"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"at","token_type":"Bearer","refresh_token":"rt","expires_in":3600}`))
	}))
	defer srv.Close()

	cfg := &oauth2.Config{
		ClientID:    "id",
		Endpoint:    oauth2.Endpoint{AuthURL: srv.URL + "/auth", TokenURL: srv.URL + "/token"},
		RedirectURL: "http://localhost",
		Scopes:      []string{CalendarScope},
	}
	var out bytes.Buffer
	tok, err := tokenFromUser(context.Background(), cfg, strings.NewReader("the-code\n"), &out)
	require.NoError(t, err)
	assert.Equal(t, "at", tok.AccessToken)
	assert.Contains(t, out.String(), srv.URL+"/auth")
	assert.Contains(t, out.String(), "access_type=offline")
}

func TestAuthorizedClientUsesCachedToken(t *testing.T) {
	dir := t.TempDir()
	creds := filepath.Join(dir, "credentials.json")
	secret := `{"installed":{"client_id":"id","client_secret":"s","redirect_uris":["http://localhost"],
		"auth_uri":"https://accounts.google.com/o/oauth2/auth","token_uri":"https://oauth2.googleapis.com/token"}}`
	require.NoError(t, os.WriteFile(creds, []byte(secret), 0o600))

	tokenPath := filepath.Join(dir, "token.json")
	require.NoError(t, saveToken(tokenPath, &oauth2.Token{
		AccessToken: "cached", TokenType: "Bearer", Expiry: time.Now().Add(time.Hour),
	}))

	// nothing is read from stdin when a token is cached
	client, err := AuthorizedClient(context.Background(), creds, tokenPath, strings.NewReader(""), &bytes.Buffer{})
	require.NoError(t, err)
	assert.NotNil(t, client)
}

func TestAuthorizedClientMissingSecret(t *testing.T) {
	_, err := AuthorizedClient(context.Background(), "/nonexistent/credentials.json", "token.json", nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read client secret")
}
