package scraper

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"

	"geointel/internal/shared/logger"
	"geointel/proxypool/model"
)

// HTMLTableScraper extracts ip/port pairs from table-based listing pages
// (free-proxy-list.net and its family: the first two cells of every body row
// are the address and the port).
type HTMLTableScraper struct {
	url  string
	name string
}

// NewHTMLTableScraper creates a scraper for one HTML table source.
func NewHTMLTableScraper(url string) Scraper {
	return &HTMLTableScraper{url: url, name: sourceName(url)}
}

func (s *HTMLTableScraper) Name() string {
	return s.name
}

// Scrape visits the page and walks every table row, keeping rows whose first
// two cells parse as host and port.
func (s *HTMLTableScraper) Scrape(ctx context.Context) ([]model.Candidate, error) {
	l := logger.WithComponent("ProxyPool/Scraper")

	c := colly.NewCollector(
		colly.UserAgent(userAgent),
		colly.StdlibContext(ctx),
	)
	c.SetRequestTimeout(20 * time.Second)

	var candidates []model.Candidate
	var scrapeErr error

	c.OnHTML("table", func(e *colly.HTMLElement) {
		e.DOM.Find("tr").Each(func(_ int, row *goquery.Selection) {
			cells := row.Find("td")
			if cells.Length() < 2 {
				return
			}
			host := strings.TrimSpace(cells.Eq(0).Text())
			portStr := strings.TrimSpace(cells.Eq(1).Text())
			if host == "" || portStr == "" {
				return
			}
			port, err := strconv.Atoi(portStr)
			if err != nil || port <= 0 || port > 65535 {
				return
			}
			candidates = append(candidates, model.Candidate{
				Host:   host,
				Port:   port,
				Scheme: "http",
				Source: s.name,
			})
		})
	})

	c.OnError(func(r *colly.Response, err error) {
		l.Warn().Err(err).Int("status_code", r.StatusCode).Str("source", s.name).Msg("Scrape request failed.")
		scrapeErr = err
	})

	if err := c.Visit(s.url); err != nil {
		return nil, err
	}
	c.Wait()

	if scrapeErr != nil && len(candidates) == 0 {
		return nil, scrapeErr
	}
	return candidates, nil
}
