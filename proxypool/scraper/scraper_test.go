package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"geointel/internal/shared/types"
)

const tablePage = `<!DOCTYPE html>
<html><body>
<table class="table">
  <thead><tr><th>IP Address</th><th>Port</th><th>Country</th></tr></thead>
  <tbody>
    <tr><td>1.2.3.4</td><td>8080</td><td>US</td></tr>
    <tr><td>5.6.7.8</td><td>3128</td><td>DE</td></tr>
    <tr><td>not-a-row</td><td>abc</td><td>-</td></tr>
    <tr><td>9.9.9.9</td><td>80</td><td>NL</td></tr>
  </tbody>
</table>
</body></html>`

func TestHTMLTableScraper(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(tablePage))
	}))
	defer srv.Close()

	s := NewHTMLTableScraper(srv.URL)
	candidates, err := s.Scrape(context.Background())
	if err != nil {
		t.Fatalf("scrape: %v", err)
	}
	if len(candidates) != 3 {
		t.Fatalf("scraped %d candidates, want 3 (bad row skipped)", len(candidates))
	}
	if candidates[0].Host != "1.2.3.4" || candidates[0].Port != 8080 {
		t.Errorf("first candidate wrong: %+v", candidates[0])
	}
	for _, c := range candidates {
		if c.Scheme != "http" {
			t.Errorf("table candidates must default to http, got %q", c.Scheme)
		}
	}
}

func TestPlainTextScraper(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("1.2.3.4:8080\n\nnot a proxy\n5.6.7.8:3128\n"))
	}))
	defer srv.Close()

	s := NewPlainTextScraper(srv.URL)
	candidates, err := s.Scrape(context.Background())
	if err != nil {
		t.Fatalf("scrape: %v", err)
	}
	if len(candidates) != 2 {
		t.Fatalf("scraped %d candidates, want 2", len(candidates))
	}
}

func TestPlainTextScraperErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	s := NewPlainTextScraper(srv.URL)
	if _, err := s.Scrape(context.Background()); err == nil {
		t.Fatalf("expected error on 503 source")
	}
}

// failing sources must be isolated: the union of the healthy sources still
// comes back.
func TestFetchAllIsolatesFailures(t *testing.T) {
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("1.2.3.4:8080\n5.6.7.8:3128\n"))
	}))
	defer good.Close()
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer bad.Close()

	candidates := FetchAll(context.Background(), []Scraper{
		NewPlainTextScraper(bad.URL),
		NewPlainTextScraper(good.URL),
	})
	if len(candidates) != 2 {
		t.Fatalf("FetchAll returned %d candidates, want 2 from the healthy source", len(candidates))
	}
}

func TestFetchAllAllSourcesFail(t *testing.T) {
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer bad.Close()

	candidates := FetchAll(context.Background(), []Scraper{NewPlainTextScraper(bad.URL)})
	if len(candidates) != 0 {
		t.Fatalf("expected empty set when every source fails, got %d", len(candidates))
	}
}

func TestFetchAllDeduplicatesAcrossSources(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("1.2.3.4:8080\n"))
	})
	a := httptest.NewServer(handler)
	defer a.Close()
	b := httptest.NewServer(handler)
	defer b.Close()

	candidates := FetchAll(context.Background(), []Scraper{
		NewPlainTextScraper(a.URL),
		NewPlainTextScraper(b.URL),
	})
	if len(candidates) != 1 {
		t.Fatalf("duplicate endpoint across sources not collapsed: got %d", len(candidates))
	}
	if candidates[0].Endpoint() != "http://1.2.3.4:8080" {
		t.Errorf("unexpected endpoint %s", candidates[0].Endpoint())
	}
}

func TestForSources(t *testing.T) {
	cfg := types.SourceConf{
		HTMLSources: []string{"https://free-proxy-list.net/"},
		PlainSources: []string{
			"https://www.proxy-list.download/api/v1/get?type=http",
			"https://www.proxy-list.download/api/v1/get?type=https",
		},
	}
	scrapers := ForSources(cfg)
	if len(scrapers) != 3 {
		t.Fatalf("ForSources built %d scrapers, want 3", len(scrapers))
	}
	if scrapers[0].Name() != "free-proxy-list.net" {
		t.Errorf("source name = %q, want host label", scrapers[0].Name())
	}
}
