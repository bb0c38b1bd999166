package sourcing

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Profile is an externally discovered candidate, prior to scoring.
type Profile struct {
	Name   string
	Email  string
	Title  string
	Years  int
	Source string
	Raw    map[string]any
}

// Query carries the search criteria a campaign derives from its vacancy
// and filters.
type Query struct {
	Keywords string
	Location string
	Filters  map[string]any
}

// Source searches one external channel for candidate profiles.
type Source interface {
	Name() string
	Search(ctx context.Context, q Query) ([]Profile, error)
}

// BoardSource scrapes a job-board search page for public candidate
// listings.
type BoardSource struct {
	name    string
	baseURL string
	client  *http.Client
}

func NewBoardSource(name, baseURL string) *BoardSource {
	return &BoardSource{
		name:    name,
		baseURL: baseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (b *BoardSource) Name() string { return b.name }

// Search fetches the board's search page and extracts candidate cards.
func (b *BoardSource) Search(ctx context.Context, q Query) ([]Profile, error) {
	u, err := url.Parse(b.baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid source URL %q: %w", b.baseURL, err)
	}
	params := u.Query()
	params.Set("q", q.Keywords)
	if q.Location != "" {
		params.Set("location", q.Location)
	}
	u.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build search request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; TalentTracker/1.0)")

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request to %s failed: %w", b.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("source %s returned status %d", b.name, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s response: %w", b.name, err)
	}
	return b.extractProfiles(doc), nil
}

func (b *BoardSource) extractProfiles(doc *goquery.Document) []Profile {
	var profiles []Profile
	doc.Find(".candidate-card, [data-candidate]").Each(func(_ int, s *goquery.Selection) {
		p := Profile{
			Name:   strings.TrimSpace(s.Find(".candidate-name, h3").First().Text()),
			Title:  strings.TrimSpace(s.Find(".candidate-title, .headline").First().Text()),
			Source: b.name,
		}
		if email, ok := s.Attr("data-email"); ok {
			p.Email = strings.TrimSpace(email)
		} else {
			p.Email = strings.TrimSpace(s.Find(".candidate-email").First().Text())
		}
		if years, ok := s.Attr("data-years"); ok {
			if n, err := strconv.Atoi(strings.TrimSpace(years)); err == nil {
				p.Years = n
			}
		}
		if p.Email != "" {
			profiles = append(profiles, p)
		}
	})
	return profiles
}

// MultiSearch fans the query out to every source concurrently and merges
// the results, deduplicating by lowercased email. A failing source is
// logged and skipped so one broken board does not sink the whole run.
func MultiSearch(ctx context.Context, sources []Source, q Query, logger *zap.Logger) []Profile {
	var (
		mu     sync.Mutex
		merged []Profile
		seen   = make(map[string]bool)
	)

	g, ctx := errgroup.WithContext(ctx)
	for _, src := range sources {
		g.Go(func() error {
			profiles, err := src.Search(ctx, q)
			if err != nil {
				logger.Warn("source search failed",
					zap.String("source", src.Name()),
					zap.Error(err))
				return nil
			}
			mu.Lock()
			defer mu.Unlock()
			for _, p := range profiles {
				key := strings.ToLower(strings.TrimSpace(p.Email))
				if key == "" || seen[key] {
					continue
				}
				seen[key] = true
				merged = append(merged, p)
			}
			return nil
		})
	}
	_ = g.Wait()
	return merged
}
