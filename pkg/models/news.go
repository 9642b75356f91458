package models

import "time"

// NewsItem is the single normalized news record used by sentiment scoring,
// the dashboard and the Gemini summarizer regardless of which feed shape
// the provider returned.
type NewsItem struct {
	Title       string    `json:"title"`
	Link        string    `json:"link"`
	Publisher   string    `json:"publisher,omitempty"`
	Summary     string    `json:"summary,omitempty"`
	PublishedAt time.Time `json:"published_at,omitempty"`
}
