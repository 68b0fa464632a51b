package scraper

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"time"

	"geointel/proxypool/model"
)

// PlainTextScraper handles sources that answer with one "host:port" per
// line (proxy-list.download style API endpoints and raw GitHub lists).
type PlainTextScraper struct {
	url    string
	name   string
	client *http.Client
}

// NewPlainTextScraper creates a scraper for one line-delimited source.
func NewPlainTextScraper(url string) Scraper {
	return &PlainTextScraper{
		url:  url,
		name: sourceName(url),
		client: &http.Client{
			Timeout: 20 * time.Second,
		},
	}
}

func (s *PlainTextScraper) Name() string {
	return s.name
}

func (s *PlainTextScraper) Scrape(ctx context.Context) ([]model.Candidate, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request for %s: %w", s.name, err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", s.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("received non-200 status code (%d) from %s", resp.StatusCode, s.name)
	}

	var candidates []model.Candidate
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		c, err := model.ParseEndpoint(scanner.Text())
		if err != nil {
			continue
		}
		c.Source = s.name
		candidates = append(candidates, c)
	}
	if err := scanner.Err(); err != nil && len(candidates) == 0 {
		return nil, err
	}

	return candidates, nil
}
