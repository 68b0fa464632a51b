package dispatch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Danny-Dasilva/CycleTLS/cycletls"
)

// Browser-like JA3 fingerprint, needed to get past TLS-level bot filtering.
const (
	chromeJA3 = "771,4865-4866-4867-49195-49199-49196-49200-52393-52392-49171-49172-156-157-47-53,0-23-65281-10-11-35-16-5-13-18-51-45-43-27-17513,29-23-24,0"
	chromeUA  = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// CycleTLSClient is the challenge-capable tier: it impersonates a browser
// TLS fingerprint via CycleTLS, which is enough for basic anti-automation
// interstitials. It can be routed through a proxy.
type CycleTLSClient struct {
	timeout time.Duration

	once   sync.Once
	client cycletls.CycleTLS
}

// NewCycleTLSClient creates the client. The underlying CycleTLS worker is
// started lazily on first use.
func NewCycleTLSClient(timeout time.Duration) *CycleTLSClient {
	return &CycleTLSClient{timeout: timeout}
}

// Do issues a browser-impersonated GET. proxyURL may be empty for a direct
// attempt.
func (c *CycleTLSClient) Do(ctx context.Context, url, proxyURL string) (int, []byte, error) {
	c.once.Do(func() {
		c.client = cycletls.Init()
	})

	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}
	if timeout <= 0 {
		return 0, nil, context.DeadlineExceeded
	}

	resp, err := c.client.Do(url, cycletls.Options{
		Ja3:       chromeJA3,
		UserAgent: chromeUA,
		Proxy:     proxyURL,
		Timeout:   int(timeout / time.Second),
	}, "GET")
	if err != nil {
		return 0, nil, fmt.Errorf("challenge client request failed: %w", err)
	}

	return resp.Status, []byte(resp.Body), nil
}
