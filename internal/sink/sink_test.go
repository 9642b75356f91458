package sink

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seenimoa/equitylens/pkg/models"
)

func sampleTable() models.Table {
	return models.ScanTable([]models.ScanRow{
		{Ticker: "AAPL", Name: "Apple Inc.", MarketCap: models.Float(3.4e12), DailyCrossDate: "2024-09-12", Status: "Bullish", HourlyCrossDate: "2024-10-01 14:30"},
		{Ticker: "XYZ", Name: "Block, Inc.", DailyCrossDate: "N/A", Status: "Bearish", HourlyCrossDate: "N/A"},
	}, time.Date(2025, 1, 14, 16, 30, 0, 0, time.UTC))
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	recs, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return recs
}

func TestTimestampedName(t *testing.T) {
	at := time.Date(2025, 1, 14, 16, 30, 59, 0, time.UTC)
	assert.Equal(t, "sp500_analysis_20250114_1630.csv", TimestampedName(at))
}

func TestWriteCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out.csv")
	require.NoError(t, WriteCSV(path, sampleTable()))

	recs := readCSV(t, path)
	require.Len(t, recs, 3)
	assert.Equal(t, models.ScanColumns, recs[0])
	assert.Equal(t, "Block, Inc.", recs[2][1])
	assert.Equal(t, "N/A", recs[2][2])
}

// fakeGoogle serves the handful of Drive and Sheets endpoints Upload uses.
type fakeGoogle struct {
	mu       sync.Mutex
	existing string
	created  []string
	shared   []string
	cleared  []string
	written  map[string][][]string
	failPut  bool
}

func newFakeGoogle(t *testing.T) (*fakeGoogle, *httptest.Server) {
	f := &fakeGoogle{written: map[string][][]string{}}
	mux := http.NewServeMux()

	mux.HandleFunc("GET /drive/v3/files", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query().Get("q")
		assert.Contains(t, q, "mimeType = 'application/vnd.google-apps.spreadsheet'")
		f.mu.Lock()
		defer f.mu.Unlock()
		files := []map[string]string{}
		if f.existing != "" && strings.Contains(q, "name = 'S&P 500 Golden Cross Master Report'") {
			files = append(files, map[string]string{"id": f.existing, "name": "x"})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"files": files})
	})
	mux.HandleFunc("POST /v4/spreadsheets", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Properties struct{ Title string } `json:"properties"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.mu.Lock()
		f.created = append(f.created, body.Properties.Title)
		f.mu.Unlock()
		_ = json.NewEncoder(w).Encode(map[string]string{"spreadsheetId": "new-id"})
	})
	mux.HandleFunc("POST /drive/v3/files/{id}/permissions", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		assert.Equal(t, "writer", body["role"])
		f.mu.Lock()
		f.shared = append(f.shared, r.PathValue("id")+":"+body["emailAddress"])
		f.mu.Unlock()
		_, _ = w.Write([]byte(`{}`))
	})
	mux.HandleFunc("GET /v4/spreadsheets/{id}", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"sheets":[{"properties":{"title":"Sheet1"}},{"properties":{"title":"Other"}}]}`))
	})
	mux.HandleFunc("/v4/spreadsheets/{id}/values/{rng}", func(w http.ResponseWriter, r *http.Request) {
		id, rng := r.PathValue("id"), r.PathValue("rng")
		f.mu.Lock()
		defer f.mu.Unlock()
		switch {
		case r.Method == http.MethodPost && strings.HasSuffix(rng, ":clear"):
			f.cleared = append(f.cleared, id+"/"+strings.TrimSuffix(rng, ":clear"))
			_, _ = w.Write([]byte(`{}`))
		case r.Method == http.MethodPut:
			if f.failPut {
				http.Error(w, `{"error":{"code":500}}`, http.StatusInternalServerError)
				return
			}
			assert.Equal(t, "RAW", r.URL.Query().Get("valueInputOption"))
			var body valueRange
			_ = json.NewDecoder(r.Body).Decode(&body)
			f.written[id+"/"+rng] = body.Values
			_, _ = w.Write([]byte(`{}`))
		default:
			http.NotFound(w, r)
		}
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return f, srv
}

func TestSheetsUploadCreatesAndShares(t *testing.T) {
	f, srv := newFakeGoogle(t)
	s := newSheets(srv.Client(), WithEndpoints(srv.URL, srv.URL), WithShareEmail("me@example.com"))

	link, err := s.Upload(context.Background(), "S&P 500 Golden Cross Master Report", sampleTable())
	require.NoError(t, err)
	assert.Equal(t, "https://docs.google.com/spreadsheets/d/new-id", link)

	assert.Equal(t, []string{"S&P 500 Golden Cross Master Report"}, f.created)
	assert.Equal(t, []string{"new-id:me@example.com"}, f.shared)
	assert.Equal(t, []string{"new-id/'Sheet1'"}, f.cleared)

	values := f.written["new-id/'Sheet1'!A1"]
	require.Len(t, values, 3)
	assert.Equal(t, models.ScanColumns, values[0])
	assert.Equal(t, "AAPL", values[1][0])
}

func TestSheetsUploadReusesExisting(t *testing.T) {
	f, srv := newFakeGoogle(t)
	f.existing = "old-id"
	s := newSheets(srv.Client(), WithEndpoints(srv.URL, srv.URL), WithShareEmail("me@example.com"))

	_, err := s.Upload(context.Background(), "S&P 500 Golden Cross Master Report", sampleTable())
	require.NoError(t, err)
	assert.Empty(t, f.created)
	assert.Empty(t, f.shared)
	assert.Contains(t, f.written, "old-id/'Sheet1'!A1")
}

func TestNewSheetsRejectsBadCredentials(t *testing.T) {
	_, err := NewSheets(context.Background(), []byte(`{"type":"nope"}`))
	assert.Error(t, err)
}

type failingUploader struct{ err error }

func (u failingUploader) Upload(context.Context, string, models.Table) (string, error) {
	return "", u.err
}

func TestPublisherWithoutCredentialsWritesTimestampedCSV(t *testing.T) {
	dir := t.TempDir()
	at := time.Date(2025, 3, 7, 9, 5, 0, 0, time.UTC)
	p := &Publisher{Dir: dir, Log: zerolog.Nop(), now: func() time.Time { return at }}

	loc, err := p.Publish(context.Background(), sampleTable())
	require.NoError(t, err)
	assert.Equal(t, "csv", loc.Target)
	assert.Equal(t, filepath.Join(dir, "sp500_analysis_20250307_0905.csv"), loc.Path)
	assert.Len(t, readCSV(t, loc.Path), 3)
}

func TestPublisherUploadFailureWritesBackup(t *testing.T) {
	dir := t.TempDir()
	p := &Publisher{Remote: failingUploader{errors.New("quota exceeded")}, SheetName: "x", Dir: dir, Log: zerolog.Nop()}

	loc, err := p.Publish(context.Background(), sampleTable())
	require.NoError(t, err)
	assert.Equal(t, "backup", loc.Target)
	assert.True(t, loc.Fallback)
	assert.Equal(t, filepath.Join(dir, EmergencyBackupFile), loc.Path)
	assert.Len(t, readCSV(t, loc.Path), 3)
}

func TestPublisherUploadsToSheets(t *testing.T) {
	f, srv := newFakeGoogle(t)
	f.failPut = false
	p := &Publisher{
		Remote:    newSheets(srv.Client(), WithEndpoints(srv.URL, srv.URL)),
		SheetName: "S&P 500 Golden Cross Master Report",
		Dir:       t.TempDir(),
		Log:       zerolog.Nop(),
	}
	loc, err := p.Publish(context.Background(), sampleTable())
	require.NoError(t, err)
	assert.Equal(t, "sheets", loc.Target)
	assert.False(t, loc.Fallback)
}

func TestPublisherSheetsWriteFailureFallsBack(t *testing.T) {
	f, srv := newFakeGoogle(t)
	f.failPut = true
	dir := t.TempDir()
	p := &Publisher{
		Remote:    newSheets(srv.Client(), WithEndpoints(srv.URL, srv.URL)),
		SheetName: "S&P 500 Golden Cross Master Report",
		Dir:       dir,
		Log:       zerolog.Nop(),
	}
	loc, err := p.Publish(context.Background(), sampleTable())
	require.NoError(t, err)
	assert.Equal(t, "backup", loc.Target)
	_, statErr := os.Stat(filepath.Join(dir, EmergencyBackupFile))
	assert.NoError(t, statErr)
}
