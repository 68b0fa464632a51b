// Package verifier promotes scraped candidates to verified proxies via a
// two-phase check: a raw TCP liveness dial, then an HTTP probe through the
// candidate to an identity endpoint to confirm it actually forwards traffic.
package verifier

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/proxy"

	"geointel/internal/shared/logger"
	"geointel/internal/shared/types"
	"geointel/internal/shared/workers"
	"geointel/proxypool/model"
)

// Verifier checks candidate endpoints concurrently with a bounded worker
// pool. Results are order-independent; a candidate's outcome never depends
// on another's.
type Verifier struct {
	tcpTimeout   time.Duration
	httpTimeout  time.Duration
	batchTimeout time.Duration
	echoURL      string
	workerCount  int

	// selfIP is the caller's own public IP. A candidate is only accepted
	// when the echo endpoint reports a different address, which separates
	// proxies that forward from sockets that merely accept.
	selfIP     string
	selfIPOnce sync.Once
}

// New builds a Verifier from configuration. The worker count follows the
// shared sizing policy.
func New(cfg types.VerifierConf) *Verifier {
	return &Verifier{
		tcpTimeout:   time.Duration(cfg.TCPTimeoutMS) * time.Millisecond,
		httpTimeout:  time.Duration(cfg.HTTPTimeoutMS) * time.Millisecond,
		batchTimeout: time.Duration(cfg.BatchTimeoutMS) * time.Millisecond,
		echoURL:      cfg.EchoURL,
		workerCount:  workers.Size(cfg.WorkerMultiplier, cfg.WorkerFloor, cfg.WorkerCeiling),
	}
}

// Verify runs the two-phase check over the whole candidate set and returns
// the accepted subset. The batch is bounded by the global timeout; candidates
// still queued when it elapses are treated as rejected, not as errors.
func (v *Verifier) Verify(ctx context.Context, candidates []model.Candidate) []*model.Proxy {
	l := logger.WithComponent("ProxyPool/Verifier")

	candidates = model.Dedupe(candidates)
	if len(candidates) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, v.batchTimeout)
	defer cancel()

	v.detectSelfIP(ctx)

	l.Info().Int("count", len(candidates)).Int("workers", v.workerCount).Msg("Starting verification batch...")

	queue := make(chan model.Candidate)
	results := make(chan *model.Proxy, len(candidates))

	var wg sync.WaitGroup
	for i := 0; i < v.workerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for c := range queue {
				if p := v.check(ctx, c); p != nil {
					results <- p
				}
			}
		}()
	}

feed:
	for _, c := range candidates {
		select {
		case queue <- c:
		case <-ctx.Done():
			// Remaining candidates count as rejected.
			break feed
		}
	}
	close(queue)
	wg.Wait()
	close(results)

	verified := make([]*model.Proxy, 0, len(candidates))
	for p := range results {
		verified = append(verified, p)
	}

	l.Info().
		Int("verified", len(verified)).
		Int("rejected", len(candidates)-len(verified)).
		Msg("Verification batch finished.")
	return verified
}

// check runs phases 1-2 for one candidate. A nil return means rejected.
func (v *Verifier) check(ctx context.Context, c model.Candidate) *model.Proxy {
	// Phase 1: raw TCP liveness. Cheap, short timeout, rejects the bulk of
	// dead scrape output before any HTTP work.
	addr := fmt.Sprintf("%s:%d", c.Host, c.Port)
	conn, err := net.DialTimeout("tcp", addr, v.tcpTimeout)
	if err != nil {
		return nil
	}
	conn.Close()

	// Phase 2: forwarding correctness through the candidate.
	client, err := v.clientThrough(c)
	if err != nil {
		return nil
	}
	defer client.CloseIdleConnections()

	start := time.Now()
	reported, err := v.fetchEchoIP(ctx, client)
	if err != nil {
		return nil
	}
	latency := time.Since(start)

	if net.ParseIP(reported) == nil {
		return nil
	}
	if v.selfIP != "" && reported == v.selfIP {
		// The socket answered but traffic left through our own address:
		// not a forwarding proxy.
		return nil
	}

	return &model.Proxy{
		Host:           c.Host,
		Port:           c.Port,
		Scheme:         c.Scheme,
		Latency:        latency,
		LastVerifiedAt: time.Now(),
	}
}

// clientThrough builds an HTTP client whose traffic is routed through the
// candidate, honoring its scheme.
func (v *Verifier) clientThrough(c model.Candidate) (*http.Client, error) {
	dialer := &net.Dialer{
		Timeout:   v.tcpTimeout,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		TLSClientConfig:       &tls.Config{InsecureSkipVerify: true},
		TLSHandshakeTimeout:   v.httpTimeout / 2,
		ResponseHeaderTimeout: v.httpTimeout,
		ExpectContinueTimeout: 1 * time.Second,
		DisableKeepAlives:     true,
	}

	switch c.Scheme {
	case "socks5":
		socksDialer, err := proxy.SOCKS5("tcp", fmt.Sprintf("%s:%d", c.Host, c.Port), nil, dialer)
		if err != nil {
			return nil, err
		}
		cd, ok := socksDialer.(proxy.ContextDialer)
		if !ok {
			return nil, fmt.Errorf("socks5 dialer is not context-aware")
		}
		transport.DialContext = cd.DialContext
	default:
		transport.Proxy = http.ProxyURL(c.URL())
		transport.DialContext = dialer.DialContext
	}

	return &http.Client{Transport: transport, Timeout: v.httpTimeout}, nil
}

// fetchEchoIP issues the probe request and returns the IP the identity
// endpoint saw.
func (v *Verifier) fetchEchoIP(ctx context.Context, client *http.Client) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.echoURL, nil)
	if err != nil {
		return "", err
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("echo endpoint returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 256))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(body)), nil
}

// detectSelfIP resolves the caller's own public IP once per process via a
// direct call to the echo endpoint. Failure is tolerated: without a self IP
// the comparison in check degrades to validating the response shape.
func (v *Verifier) detectSelfIP(ctx context.Context) {
	v.selfIPOnce.Do(func() {
		client := &http.Client{Timeout: v.httpTimeout}
		ip, err := v.fetchEchoIP(ctx, client)
		if err != nil || net.ParseIP(ip) == nil {
			l := logger.WithComponent("ProxyPool/Verifier")
			l.Warn().Err(err).Msg("Could not determine own public IP; forwarding check is shape-only.")
			return
		}
		v.selfIP = ip
	})
}
