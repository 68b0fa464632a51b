// Package proxypool maintains the live set of verified outbound proxies:
// persistence across runs, random selection, and failure-driven eviction.
package proxypool

import (
	"context"
	"errors"
	"math/rand"
	"sort"
	"sync"

	"geointel/internal/shared/logger"
	"geointel/proxypool/model"
	"geointel/proxypool/storage"
)

// ErrPoolExhausted is returned by Select when no verified proxy is available.
var ErrPoolExhausted = errors.New("proxy pool exhausted")

// VerifyFunc re-checks candidates and returns the subset that passed. The
// pool never trusts persisted state blindly; Load runs every stored endpoint
// back through this.
type VerifyFunc func(ctx context.Context, candidates []model.Candidate) []*model.Proxy

// Pool is the single shared mutable structure of the system. All access is
// serialized through one mutex: merges from the verifier, selections and
// feedback from concurrent dispatcher calls.
type Pool struct {
	mu        sync.RWMutex
	proxies   map[string]*model.Proxy
	threshold int
	storage   storage.Storage

	// onChange, when set, is invoked after any mutation (outside the lock).
	onChange func()
}

// New creates an empty pool. threshold is the consecutive-failure count at
// which an endpoint is evicted.
func New(threshold int, st storage.Storage) *Pool {
	if threshold <= 0 {
		threshold = 3
	}
	return &Pool{
		proxies:   make(map[string]*model.Proxy),
		threshold: threshold,
		storage:   st,
	}
}

// SetOnChange registers a hook fired after every pool mutation. Used by the
// web service to push live updates.
func (p *Pool) SetOnChange(fn func()) {
	p.mu.Lock()
	p.onChange = fn
	p.mu.Unlock()
}

// Load reads the persisted endpoints and re-verifies them before admission.
// Storage errors are non-fatal: the pool simply starts empty.
func (p *Pool) Load(ctx context.Context, verify VerifyFunc) error {
	l := logger.WithComponent("ProxyPool")

	candidates, err := p.storage.Load()
	if err != nil {
		l.Error().Err(err).Msg("Failed to load persisted proxies. Starting with an empty pool.")
		return nil
	}
	if len(candidates) == 0 {
		return nil
	}

	l.Info().Int("count", len(candidates)).Msg("Re-verifying persisted proxies...")
	verified := verify(ctx, candidates)
	added := p.Merge(verified)
	l.Info().Int("verified", len(verified)).Int("added", added).Msg("Persisted proxies re-verified.")
	return nil
}

// Merge adds freshly verified proxies, skipping endpoints already present.
// Returns the number actually added. Merging the same set twice is a no-op.
func (p *Pool) Merge(verified []*model.Proxy) int {
	p.mu.Lock()
	added := 0
	for _, v := range verified {
		key := v.Endpoint()
		if _, exists := p.proxies[key]; exists {
			continue
		}
		p.proxies[key] = v
		added++
	}
	fn := p.onChange
	p.mu.Unlock()

	if added > 0 && fn != nil {
		fn()
	}
	return added
}

// Select returns one proxy chosen uniformly at random from the live set.
func (p *Pool) Select() (*model.Proxy, error) {
	return p.SelectExcept(nil)
}

// SelectExcept returns a random proxy whose endpoint is not in excluded. The
// dispatcher uses this to avoid immediately reselecting a proxy that just
// failed.
func (p *Pool) SelectExcept(excluded map[string]struct{}) (*model.Proxy, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	eligible := make([]*model.Proxy, 0, len(p.proxies))
	for key, proxy := range p.proxies {
		if _, skip := excluded[key]; skip {
			continue
		}
		eligible = append(eligible, proxy)
	}
	if len(eligible) == 0 {
		return nil, ErrPoolExhausted
	}
	return eligible[rand.Intn(len(eligible))], nil
}

// ReportSuccess resets the failure counter of the endpoint after a
// successful dispatch through it.
func (p *Pool) ReportSuccess(endpoint string) {
	p.mu.Lock()
	if proxy, ok := p.proxies[endpoint]; ok {
		proxy.ConsecutiveFailures = 0
	}
	fn := p.onChange
	p.mu.Unlock()

	if fn != nil {
		fn()
	}
}

// ReportFailure increments the failure counter and evicts the endpoint once
// it reaches the threshold. Returns true when the endpoint was evicted.
func (p *Pool) ReportFailure(endpoint string) bool {
	p.mu.Lock()
	evicted := false
	if proxy, ok := p.proxies[endpoint]; ok {
		proxy.ConsecutiveFailures++
		if proxy.ConsecutiveFailures >= p.threshold {
			delete(p.proxies, endpoint)
			evicted = true
		}
	}
	fn := p.onChange
	p.mu.Unlock()

	if evicted {
		l := logger.WithComponent("ProxyPool")
		l.Info().Str("endpoint", endpoint).Int("threshold", p.threshold).
			Msg("Proxy evicted after repeated failures.")
	}
	if fn != nil {
		fn()
	}
	return evicted
}

// Persist writes the current live set to storage. Write failures are logged
// and reported but never abort the run.
func (p *Pool) Persist() error {
	p.mu.RLock()
	endpoints := make([]string, 0, len(p.proxies))
	for key := range p.proxies {
		endpoints = append(endpoints, key)
	}
	p.mu.RUnlock()

	if err := p.storage.Save(endpoints); err != nil {
		l := logger.WithComponent("ProxyPool")
		l.Error().Err(err).Msg("Failed to persist proxy pool.")
		return err
	}
	return nil
}

// Snapshot returns a copy of the current entries, sorted by endpoint.
func (p *Pool) Snapshot() []*model.Proxy {
	p.mu.RLock()
	out := make([]*model.Proxy, 0, len(p.proxies))
	for _, proxy := range p.proxies {
		cp := *proxy
		out = append(out, &cp)
	}
	p.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].Endpoint() < out[j].Endpoint()
	})
	return out
}

// Candidates returns the live set as candidates, used by the serve-mode
// re-verification cycle.
func (p *Pool) Candidates() []model.Candidate {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]model.Candidate, 0, len(p.proxies))
	for _, proxy := range p.proxies {
		out = append(out, proxy.Candidate())
	}
	return out
}

// Update refreshes the metadata of an endpoint in place (latency, country,
// last-verified time) after a re-verification pass.
func (p *Pool) Update(refreshed *model.Proxy) {
	p.mu.Lock()
	if current, ok := p.proxies[refreshed.Endpoint()]; ok {
		current.Latency = refreshed.Latency
		current.LastVerifiedAt = refreshed.LastVerifiedAt
		if refreshed.Country != "" {
			current.Country = refreshed.Country
		}
		current.ConsecutiveFailures = 0
	}
	p.mu.Unlock()
}

// Len returns the number of live entries.
func (p *Pool) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.proxies)
}
