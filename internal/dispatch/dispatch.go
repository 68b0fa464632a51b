// Package dispatch executes outbound GET requests with a tiered fallback
// strategy: direct first, then rotation through verified proxies with a
// bounded retry budget, finally a challenge-capable client.
package dispatch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"geointel/internal/shared/logger"
	"geointel/internal/shared/types"
	"geointel/proxypool/model"
)

// Mode names the tier that produced a successful response.
type Mode string

const (
	ModeDirect    Mode = "direct"
	ModeProxy     Mode = "proxy"
	ModeChallenge Mode = "challenge"
)

// Outcome records how one dispatch was satisfied. It is produced per call
// and used for logging only, never persisted.
type Outcome struct {
	RequestID   string
	Mode        Mode
	ProxyUsed   string
	Attempts    int
	FinalStatus int
}

// Result is a successful dispatch: the response data plus its outcome.
type Result struct {
	Status  int
	Header  http.Header
	Body    []byte
	Outcome Outcome
}

// Error is the terminal failure of a dispatch after every tier was
// exhausted. It carries the last observed status and underlying error.
type Error struct {
	LastStatus int
	Attempts   int
	Err        error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("dispatch failed after %d attempts (last status %d): %v", e.Attempts, e.LastStatus, e.Err)
	}
	return fmt.Sprintf("dispatch failed after %d attempts (last status %d)", e.Attempts, e.LastStatus)
}

func (e *Error) Unwrap() error { return e.Err }

// ProxySource is the pool surface the dispatcher needs: selection with
// rotation and success/failure feedback.
type ProxySource interface {
	SelectExcept(excluded map[string]struct{}) (*model.Proxy, error)
	ReportSuccess(endpoint string)
	ReportFailure(endpoint string) bool
}

// ChallengeClient is an HTTP client able to pass basic anti-automation
// interstitials, optionally routed through a proxy.
type ChallengeClient interface {
	Do(ctx context.Context, url, proxyURL string) (status int, body []byte, err error)
}

// Dispatcher routes one outbound GET through the tier chain. Safe for
// concurrent use.
type Dispatcher struct {
	pool        ProxySource
	detector    BlockDetector
	challenge   ChallengeClient
	retryBudget int
	timeout     time.Duration

	direct *http.Client
	// clientFor builds a client routed through the given proxy, overridable
	// in tests.
	clientFor func(p *model.Proxy) *http.Client
}

// New builds a Dispatcher over the given pool. challenge may be nil, in
// which case the third tier is skipped.
func New(cfg types.DispatchConf, pool ProxySource, detector BlockDetector, challenge ChallengeClient) *Dispatcher {
	timeout := time.Duration(cfg.TimeoutMS) * time.Millisecond
	d := &Dispatcher{
		pool:        pool,
		detector:    detector,
		challenge:   challenge,
		retryBudget: cfg.RetryBudget,
		timeout:     timeout,
		direct:      &http.Client{Timeout: timeout},
	}
	d.clientFor = func(p *model.Proxy) *http.Client {
		return &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy:             http.ProxyURL(p.URL()),
				DisableKeepAlives: true,
			},
		}
	}
	return d
}

// Get dispatches a GET for url. On success it returns the response and the
// outcome; when every tier fails it returns a *Error, never a silent empty
// success.
func (d *Dispatcher) Get(ctx context.Context, url string) (*Result, error) {
	l := logger.WithComponent("Dispatch")
	requestID := uuid.New().String()

	lastStatus := 0
	attempts := 0
	var lastErr error

	// Tier 1: direct.
	attempts++
	status, header, body, err := d.doOnce(ctx, d.direct, url)
	if err == nil {
		lastStatus = status
		if !d.detector.Blocked(status, body) {
			// Non-2xx responses that are not block signals go back to the
			// caller as-is; the target answered, there is nothing to retry.
			return &Result{
				Status: status,
				Header: header,
				Body:   body,
				Outcome: Outcome{
					RequestID:   requestID,
					Mode:        ModeDirect,
					Attempts:    attempts,
					FinalStatus: status,
				},
			}, nil
		}
		l.Warn().Str("request_id", requestID).Int("status", status).Str("url", url).
			Msg("Direct request blocked or rate limited. Falling back to proxies.")
	} else {
		lastErr = err
		l.Warn().Str("request_id", requestID).Err(err).Str("url", url).
			Msg("Direct request failed. Falling back to proxies.")
	}

	// Tier 2: verified-proxy rotation, bounded by the retry budget. A proxy
	// that just failed is never reselected within the same dispatch.
	tried := make(map[string]struct{})
	for i := 0; i < d.retryBudget; i++ {
		p, selErr := d.pool.SelectExcept(tried)
		if selErr != nil {
			// Pool exhausted: skip straight to the challenge tier.
			break
		}
		endpoint := p.Endpoint()
		tried[endpoint] = struct{}{}

		attempts++
		status, header, body, err = d.doOnce(ctx, d.clientFor(p), url)
		if err != nil {
			lastErr = err
			d.pool.ReportFailure(endpoint)
			continue
		}
		lastStatus = status
		if d.detector.Blocked(status, body) || status < 200 || status >= 300 {
			d.pool.ReportFailure(endpoint)
			continue
		}

		d.pool.ReportSuccess(endpoint)
		return &Result{
			Status: status,
			Header: header,
			Body:   body,
			Outcome: Outcome{
				RequestID:   requestID,
				Mode:        ModeProxy,
				ProxyUsed:   endpoint,
				Attempts:    attempts,
				FinalStatus: status,
			},
		}, nil
	}

	// Tier 3: challenge-capable client, once, optionally proxied.
	if d.challenge != nil {
		proxyURL := ""
		proxyUsed := ""
		if p, selErr := d.pool.SelectExcept(tried); selErr == nil {
			proxyURL = p.URL().String()
			proxyUsed = p.Endpoint()
		}

		attempts++
		status, body, err = d.challengeDo(ctx, url, proxyURL)
		if err == nil {
			lastStatus = status
			if status >= 200 && status < 300 && !d.detector.Blocked(status, body) {
				if proxyUsed != "" {
					d.pool.ReportSuccess(proxyUsed)
				}
				return &Result{
					Status: status,
					Body:   body,
					Outcome: Outcome{
						RequestID:   requestID,
						Mode:        ModeChallenge,
						ProxyUsed:   proxyUsed,
						Attempts:    attempts,
						FinalStatus: status,
					},
				}, nil
			}
		} else {
			lastErr = err
		}
	}

	l.Error().Str("request_id", requestID).Int("attempts", attempts).
		Int("last_status", lastStatus).Err(lastErr).Str("url", url).
		Msg("All dispatch tiers exhausted.")
	return nil, &Error{LastStatus: lastStatus, Attempts: attempts, Err: lastErr}
}

func (d *Dispatcher) challengeDo(ctx context.Context, url, proxyURL string) (int, []byte, error) {
	return d.challenge.Do(ctx, url, proxyURL)
}

// doOnce performs a single GET with the given client and drains a bounded
// amount of body.
func (d *Dispatcher) doOnce(ctx context.Context, client *http.Client, url string) (int, http.Header, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, nil, nil, err
	}

	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return resp.StatusCode, resp.Header, nil, err
	}
	return resp.StatusCode, resp.Header, body, nil
}
