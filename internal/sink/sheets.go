package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2/google"

	"github.com/seenimoa/equitylens/pkg/models"
)

const (
	DefaultSheetsBaseURL = "https://sheets.googleapis.com"
	DefaultDriveBaseURL  = "https://www.googleapis.com"

	spreadsheetMime = "application/vnd.google-apps.spreadsheet"
)

// SheetsScopes are requested for the service account.
var SheetsScopes = []string{
	"https://www.googleapis.com/auth/spreadsheets",
	"https://www.googleapis.com/auth/drive",
}

// Sheets is a minimal Google Sheets + Drive REST client: enough to find or
// create a spreadsheet by name, share it, and replace its first sheet.
type Sheets struct {
	client    *http.Client
	sheetsURL string
	driveURL  string
	shareWith string
}

// SheetsOption configures a Sheets client.
type SheetsOption func(*Sheets)

// WithSheetsHTTPClient replaces the authenticated client, mostly for tests.
func WithSheetsHTTPClient(c *http.Client) SheetsOption {
	return func(s *Sheets) { s.client = c }
}

// WithEndpoints overrides the Sheets and Drive base URLs.
func WithEndpoints(sheetsURL, driveURL string) SheetsOption {
	return func(s *Sheets) {
		s.sheetsURL = strings.TrimRight(sheetsURL, "/")
		s.driveURL = strings.TrimRight(driveURL, "/")
	}
}

// WithShareEmail grants writer access to email on newly created sheets.
func WithShareEmail(email string) SheetsOption {
	return func(s *Sheets) { s.shareWith = email }
}

// NewSheets authenticates with a service account key (the JSON document
// itself, not a path).
func NewSheets(ctx context.Context, credentialsJSON []byte, opts ...SheetsOption) (*Sheets, error) {
	cfg, err := google.JWTConfigFromJSON(credentialsJSON, SheetsScopes...)
	if err != nil {
		return nil, fmt.Errorf("parse service account credentials: %w", err)
	}
	client := cfg.Client(ctx)
	client.Timeout = 30 * time.Second
	return newSheets(client, opts...), nil
}

func newSheets(client *http.Client, opts ...SheetsOption) *Sheets {
	s := &Sheets{
		client:    client,
		sheetsURL: DefaultSheetsBaseURL,
		driveURL:  DefaultDriveBaseURL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Upload writes table into the spreadsheet called name, creating it when
// missing. The first sheet is cleared and rewritten from A1. It returns the
// spreadsheet URL.
func (s *Sheets) Upload(ctx context.Context, name string, table models.Table) (string, error) {
	id, err := s.findByName(ctx, name)
	if err != nil {
		return "", err
	}
	if id == "" {
		if id, err = s.create(ctx, name); err != nil {
			return "", err
		}
		if s.shareWith != "" {
			if err := s.share(ctx, id, s.shareWith); err != nil {
				return "", err
			}
		}
	}

	sheet, err := s.firstSheet(ctx, id)
	if err != nil {
		return "", err
	}
	rng := quoteSheet(sheet)
	if err := s.do(ctx, http.MethodPost, s.valuesURL(id, rng)+":clear", struct{}{}, nil); err != nil {
		return "", fmt.Errorf("clear sheet: %w", err)
	}

	body := valueRange{
		Range:          rng + "!A1",
		MajorDimension: "ROWS",
		Values:         table.Records(),
	}
	if err := s.do(ctx, http.MethodPut, s.valuesURL(id, rng+"!A1")+"?valueInputOption=RAW", body, nil); err != nil {
		return "", fmt.Errorf("write values: %w", err)
	}
	return "https://docs.google.com/spreadsheets/d/" + id, nil
}

type valueRange struct {
	Range          string     `json:"range"`
	MajorDimension string     `json:"majorDimension"`
	Values         [][]string `json:"values"`
}

func (s *Sheets) findByName(ctx context.Context, name string) (string, error) {
	q := fmt.Sprintf("name = '%s' and mimeType = '%s' and trashed = false",
		strings.ReplaceAll(name, "'", `\'`), spreadsheetMime)
	u := s.driveURL + "/drive/v3/files?" + url.Values{
		"q":      {q},
		"fields": {"files(id,name)"},
	}.Encode()

	var resp struct {
		Files []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"files"`
	}
	if err := s.do(ctx, http.MethodGet, u, nil, &resp); err != nil {
		return "", fmt.Errorf("search spreadsheet %q: %w", name, err)
	}
	if len(resp.Files) == 0 {
		return "", nil
	}
	return resp.Files[0].ID, nil
}

func (s *Sheets) create(ctx context.Context, name string) (string, error) {
	req := map[string]any{"properties": map[string]string{"title": name}}
	var resp struct {
		SpreadsheetID string `json:"spreadsheetId"`
	}
	if err := s.do(ctx, http.MethodPost, s.sheetsURL+"/v4/spreadsheets", req, &resp); err != nil {
		return "", fmt.Errorf("create spreadsheet %q: %w", name, err)
	}
	if resp.SpreadsheetID == "" {
		return "", fmt.Errorf("create spreadsheet %q: empty id", name)
	}
	return resp.SpreadsheetID, nil
}

func (s *Sheets) share(ctx context.Context, id, email string) error {
	req := map[string]string{"type": "user", "role": "writer", "emailAddress": email}
	u := s.driveURL + "/drive/v3/files/" + url.PathEscape(id) + "/permissions"
	if err := s.do(ctx, http.MethodPost, u, req, nil); err != nil {
		return fmt.Errorf("share with %s: %w", email, err)
	}
	return nil
}

func (s *Sheets) firstSheet(ctx context.Context, id string) (string, error) {
	u := s.sheetsURL + "/v4/spreadsheets/" + url.PathEscape(id) + "?fields=sheets.properties.title"
	var resp struct {
		Sheets []struct {
			Properties struct {
				Title string `json:"title"`
			} `json:"properties"`
		} `json:"sheets"`
	}
	if err := s.do(ctx, http.MethodGet, u, nil, &resp); err != nil {
		return "", fmt.Errorf("get spreadsheet: %w", err)
	}
	if len(resp.Sheets) == 0 {
		return "Sheet1", nil
	}
	return resp.Sheets[0].Properties.Title, nil
}

func (s *Sheets) valuesURL(id, rng string) string {
	return s.sheetsURL + "/v4/spreadsheets/" + url.PathEscape(id) + "/values/" + url.PathEscape(rng)
}

func quoteSheet(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}

// do sends an optional JSON body and decodes a JSON response into out when
// out is non-nil.
func (s *Sheets) do(ctx context.Context, method, u string, in, out any) error {
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

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		msg := string(data)
		if len(msg) > 300 {
			msg = msg[:300]
		}
		return fmt.Errorf("google api %s: %s", resp.Status, msg)
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, out)
}
