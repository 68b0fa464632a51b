package model

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Candidate is an unverified scraped proxy endpoint. It is unique by
// (Host, Port, Scheme) and lives only for the duration of one verification
// pass.
type Candidate struct {
	Host   string
	Port   int
	Scheme string // "http" or "socks5"
	Source string // source name, for logging only
}

// Endpoint returns the canonical "scheme://host:port" key for the candidate.
func (c Candidate) Endpoint() string {
	return fmt.Sprintf("%s://%s:%d", c.Scheme, c.Host, c.Port)
}

// URL returns the candidate endpoint as a *url.URL suitable for
// http.ProxyURL.
func (c Candidate) URL() *url.URL {
	return &url.URL{
		Scheme: c.Scheme,
		Host:   fmt.Sprintf("%s:%d", c.Host, c.Port),
	}
}

// Proxy is a verified endpoint. It is only ever constructed by the verifier
// after a candidate has passed both the liveness and the forwarding check.
type Proxy struct {
	Host   string `json:"host"`
	Port   int    `json:"port"`
	Scheme string `json:"scheme"`

	Latency             time.Duration `json:"latency"`
	ConsecutiveFailures int           `json:"consecutive_failures"`
	LastVerifiedAt      time.Time     `json:"last_verified_at"`

	// Country is an optional offline annotation (GeoLite2), empty when the
	// database is not configured.
	Country string `json:"country,omitempty"`
}

// Endpoint returns the canonical "scheme://host:port" key for the proxy.
func (p *Proxy) Endpoint() string {
	return fmt.Sprintf("%s://%s:%d", p.Scheme, p.Host, p.Port)
}

// URL returns the proxy endpoint as a *url.URL suitable for
// http.ProxyURL.
func (p *Proxy) URL() *url.URL {
	return &url.URL{
		Scheme: p.Scheme,
		Host:   fmt.Sprintf("%s:%d", p.Host, p.Port),
	}
}

// Candidate converts the proxy back into a candidate, used when persisted
// entries are re-verified at startup.
func (p *Proxy) Candidate() Candidate {
	return Candidate{Host: p.Host, Port: p.Port, Scheme: p.Scheme, Source: "persisted"}
}

// ParseEndpoint parses "scheme://host:port" or bare "host:port" (scheme
// defaults to http) into a Candidate.
func ParseEndpoint(s string) (Candidate, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Candidate{}, fmt.Errorf("empty endpoint")
	}

	scheme := "http"
	if i := strings.Index(s, "://"); i >= 0 {
		scheme = strings.ToLower(s[:i])
		s = s[i+3:]
	}
	if scheme != "http" && scheme != "socks5" {
		return Candidate{}, fmt.Errorf("unsupported scheme %q", scheme)
	}

	host, portStr, found := strings.Cut(s, ":")
	if !found || host == "" {
		return Candidate{}, fmt.Errorf("invalid endpoint %q", s)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 || port > 65535 {
		return Candidate{}, fmt.Errorf("invalid port in endpoint %q", s)
	}

	return Candidate{Host: host, Port: port, Scheme: scheme}, nil
}

// Dedupe returns the candidates with duplicate endpoints removed, first
// occurrence wins. Order is preserved.
func Dedupe(candidates []Candidate) []Candidate {
	seen := make(map[string]struct{}, len(candidates))
	out := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		key := c.Endpoint()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, c)
	}
	return out
}
