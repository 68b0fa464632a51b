// Package scraper collects candidate proxy endpoints from configured source
// URLs. Sources come in two structural flavours, HTML table pages and
// line-delimited plain text, each handled by its own Scraper implementation.
package scraper

import (
	"context"
	"net/url"
	"sync"

	"geointel/internal/shared/logger"
	"geointel/internal/shared/types"
	"geointel/proxypool/model"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Scraper fetches and parses one proxy source. Implementations only scrape;
// verification happens elsewhere.
type Scraper interface {
	// Scrape retrieves the source and returns the extracted candidates.
	Scrape(ctx context.Context) ([]model.Candidate, error)

	// Name identifies the source in logs.
	Name() string
}

// ForSources builds the scraper set for the configured source URLs.
func ForSources(cfg types.SourceConf) []Scraper {
	scrapers := make([]Scraper, 0, len(cfg.HTMLSources)+len(cfg.PlainSources))
	for _, u := range cfg.HTMLSources {
		scrapers = append(scrapers, NewHTMLTableScraper(u))
	}
	for _, u := range cfg.PlainSources {
		scrapers = append(scrapers, NewPlainTextScraper(u))
	}
	return scrapers
}

// FetchAll runs every scraper concurrently and returns the deduplicated
// union of their candidates. A single source failing is logged and isolated;
// it never aborts the others. All sources failing yields an empty set.
func FetchAll(ctx context.Context, scrapers []Scraper) []model.Candidate {
	l := logger.WithComponent("ProxyPool/Fetcher")

	var wg sync.WaitGroup
	scrapedChan := make(chan []model.Candidate, len(scrapers))

	for _, s := range scrapers {
		wg.Add(1)
		go func(sc Scraper) {
			defer wg.Done()
			candidates, err := sc.Scrape(ctx)
			if err != nil {
				l.Warn().Err(err).Str("source", sc.Name()).Msg("Scraper failed.")
				return
			}
			if len(candidates) > 0 {
				l.Info().Int("count", len(candidates)).Str("source", sc.Name()).Msg("Source scraped.")
				scrapedChan <- candidates
			}
		}(s)
	}

	wg.Wait()
	close(scrapedChan)

	var all []model.Candidate
	for candidates := range scrapedChan {
		all = append(all, candidates...)
	}

	deduped := model.Dedupe(all)
	l.Info().Int("total", len(all)).Int("unique", len(deduped)).Msg("Fetch cycle finished.")
	return deduped
}

// sourceName derives a short source label from a URL, falling back to the
// raw string when it does not parse.
func sourceName(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return rawURL
	}
	return u.Host
}
