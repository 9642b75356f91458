package datasource

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/seenimoa/equitylens/pkg/models"
	"github.com/seenimoa/equitylens/pkg/utils"
)

// News returns recent headlines for ticker, newest first. The RSS headline
// feed is tried first; when it fails or is empty the search API is used.
func (y *Yahoo) News(ctx context.Context, ticker string) ([]models.NewsItem, error) {
	items, rssErr := y.rssNews(ctx, ticker)
	if rssErr == nil && len(items) > 0 {
		return y.limitNews(items), nil
	}
	if rssErr != nil {
		y.logger.Debug().Err(rssErr).Str("ticker", ticker).Msg("rss headlines unavailable, falling back to search")
	}

	items, err := y.searchNews(ctx, ticker)
	if err != nil {
		if rssErr != nil {
			return nil, fmt.Errorf("yahoo news %s: %w (rss: %v)", ticker, err, rssErr)
		}
		return nil, fmt.Errorf("yahoo news %s: %w", ticker, err)
	}
	return y.limitNews(items), nil
}

func (y *Yahoo) limitNews(items []models.NewsItem) []models.NewsItem {
	sortNewsByDate(items)
	if y.newsLimit > 0 && len(items) > y.newsLimit {
		items = items[:y.newsLimit]
	}
	return items
}

func (y *Yahoo) rssNews(ctx context.Context, ticker string) ([]models.NewsItem, error) {
	q := url.Values{}
	q.Set("s", utils.ToYahooTicker(ticker))
	q.Set("region", "US")
	q.Set("lang", "en-US")

	body, err := y.get(ctx, y.rssURL+"?"+q.Encode(), map[string]string{
		"Accept": "application/rss+xml, application/xml, text/xml",
	})
	if err != nil {
		return nil, err
	}

	feed, err := y.parser.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: parse rss: %w", ErrProviderFailure, err)
	}

	items := make([]models.NewsItem, 0, len(feed.Items))
	for _, it := range feed.Items {
		if strings.TrimSpace(it.Title) == "" {
			continue
		}
		n := models.NewsItem{
			Title:     strings.TrimSpace(it.Title),
			Link:      it.Link,
			Publisher: feed.Title,
			Summary:   cleanHTML(it.Description),
		}
		if it.PublishedParsed != nil {
			n.PublishedAt = *it.PublishedParsed
		}
		items = append(items, n)
	}
	return items, nil
}

type yfSearchResponse struct {
	News []json.RawMessage `json:"news"`
}

func (y *Yahoo) searchNews(ctx context.Context, ticker string) ([]models.NewsItem, error) {
	q := url.Values{}
	q.Set("q", utils.ToYahooTicker(ticker))
	q.Set("quotesCount", "0")
	q.Set("newsCount", fmt.Sprint(max(y.newsLimit, 10)))

	var resp yfSearchResponse
	if err := y.getJSON(ctx, y.baseURL+"/v1/finance/search?"+q.Encode(), &resp); err != nil {
		return nil, err
	}

	items := make([]models.NewsItem, 0, len(resp.News))
	for _, raw := range resp.News {
		if n, ok := normalizeNewsItem(raw); ok {
			items = append(items, n)
		}
	}
	return items, nil
}

// yfNewsItem covers both shapes Yahoo has served for a story: the flat
// legacy record and the newer one nested under "content".
type yfNewsItem struct {
	Title               string `json:"title"`
	Link                string `json:"link"`
	Publisher           string `json:"publisher"`
	ProviderPublishTime int64  `json:"providerPublishTime"`
	Content             *struct {
		Title           string `json:"title"`
		Summary         string `json:"summary"`
		PubDate         string `json:"pubDate"`
		ClickThroughURL *struct {
			URL string `json:"url"`
		} `json:"clickThroughUrl"`
		CanonicalURL *struct {
			URL string `json:"url"`
		} `json:"canonicalUrl"`
		Provider *struct {
			DisplayName string `json:"displayName"`
		} `json:"provider"`
	} `json:"content"`
}

// normalizeNewsItem maps either story shape onto models.NewsItem. ok is
// false for items without a title.
func normalizeNewsItem(raw json.RawMessage) (models.NewsItem, bool) {
	var it yfNewsItem
	if err := json.Unmarshal(raw, &it); err != nil {
		return models.NewsItem{}, false
	}

	var n models.NewsItem
	if c := it.Content; c != nil {
		n.Title = c.Title
		n.Summary = cleanHTML(c.Summary)
		switch {
		case c.ClickThroughURL != nil && c.ClickThroughURL.URL != "":
			n.Link = c.ClickThroughURL.URL
		case c.CanonicalURL != nil:
			n.Link = c.CanonicalURL.URL
		}
		if c.Provider != nil {
			n.Publisher = c.Provider.DisplayName
		}
		if t, err := time.Parse(time.RFC3339, c.PubDate); err == nil {
			n.PublishedAt = t
		}
	} else {
		n.Title = it.Title
		n.Link = it.Link
		n.Publisher = it.Publisher
		if it.ProviderPublishTime > 0 {
			n.PublishedAt = time.Unix(it.ProviderPublishTime, 0).UTC()
		}
	}

	n.Title = strings.TrimSpace(n.Title)
	if n.Title == "" {
		return models.NewsItem{}, false
	}
	return n, true
}

// cleanHTML strips HTML tags from a string using goquery.
func cleanHTML(s string) string {
	if s == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<body>" + s + "</body>"))
	if err != nil {
		return s
	}
	return strings.TrimSpace(doc.Text())
}

// sortNewsByDate sorts items newest first; undated items keep their order
// at the end.
func sortNewsByDate(items []models.NewsItem) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].PublishedAt.After(items[j].PublishedAt)
	})
}
