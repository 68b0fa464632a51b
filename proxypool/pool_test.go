package proxypool

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"geointel/proxypool/model"
	"geointel/proxypool/storage"
)

func newTestProxy(host string) *model.Proxy {
	return &model.Proxy{
		Host:           host,
		Port:           8080,
		Scheme:         "http",
		Latency:        50 * time.Millisecond,
		LastVerifiedAt: time.Now(),
	}
}

func newTestPool(t *testing.T, threshold int) *Pool {
	t.Helper()
	st := storage.NewFileStorage(filepath.Join(t.TempDir(), "proxies.txt"))
	return New(threshold, st)
}

func TestMergeSkipsDuplicates(t *testing.T) {
	p := newTestPool(t, 3)

	verified := []*model.Proxy{newTestProxy("1.1.1.1"), newTestProxy("2.2.2.2")}
	if added := p.Merge(verified); added != 2 {
		t.Fatalf("first merge added %d, want 2", added)
	}

	// Merging the same set again must be a no-op.
	if added := p.Merge(verified); added != 0 {
		t.Fatalf("second merge added %d, want 0", added)
	}
	if p.Len() != 2 {
		t.Fatalf("pool size %d after double merge, want 2", p.Len())
	}
}

func TestSelectEmptyPool(t *testing.T) {
	p := newTestPool(t, 3)
	if _, err := p.Select(); !errors.Is(err, ErrPoolExhausted) {
		t.Fatalf("Select on empty pool: got %v, want ErrPoolExhausted", err)
	}
}

func TestSelectExcept(t *testing.T) {
	p := newTestPool(t, 3)
	p.Merge([]*model.Proxy{newTestProxy("1.1.1.1"), newTestProxy("2.2.2.2")})

	excluded := map[string]struct{}{"http://1.1.1.1:8080": {}}
	for i := 0; i < 20; i++ {
		got, err := p.SelectExcept(excluded)
		if err != nil {
			t.Fatalf("unexpected err: %v", err)
		}
		if got.Endpoint() == "http://1.1.1.1:8080" {
			t.Fatalf("SelectExcept returned an excluded endpoint")
		}
	}

	excluded["http://2.2.2.2:8080"] = struct{}{}
	if _, err := p.SelectExcept(excluded); !errors.Is(err, ErrPoolExhausted) {
		t.Fatalf("fully excluded pool: got %v, want ErrPoolExhausted", err)
	}
}

func TestEvictionAtThreshold(t *testing.T) {
	const threshold = 3
	p := newTestPool(t, threshold)
	p.Merge([]*model.Proxy{newTestProxy("1.1.1.1")})
	endpoint := "http://1.1.1.1:8080"

	// threshold-1 failures must not evict.
	for i := 0; i < threshold-1; i++ {
		if evicted := p.ReportFailure(endpoint); evicted {
			t.Fatalf("evicted after %d failures, threshold is %d", i+1, threshold)
		}
	}
	if _, err := p.Select(); err != nil {
		t.Fatalf("proxy gone before threshold: %v", err)
	}

	// The Nth failure evicts.
	if evicted := p.ReportFailure(endpoint); !evicted {
		t.Fatalf("not evicted at threshold")
	}
	if _, err := p.Select(); !errors.Is(err, ErrPoolExhausted) {
		t.Fatalf("evicted proxy still selectable: %v", err)
	}
}

func TestReportSuccessResetsFailures(t *testing.T) {
	const threshold = 3
	p := newTestPool(t, threshold)
	p.Merge([]*model.Proxy{newTestProxy("1.1.1.1")})
	endpoint := "http://1.1.1.1:8080"

	p.ReportFailure(endpoint)
	p.ReportFailure(endpoint)
	p.ReportSuccess(endpoint)

	// The counter restarted, so threshold-1 further failures still keep it.
	p.ReportFailure(endpoint)
	p.ReportFailure(endpoint)
	if _, err := p.Select(); err != nil {
		t.Fatalf("proxy evicted despite intervening success: %v", err)
	}
}

func TestReportOnUnknownEndpoint(t *testing.T) {
	p := newTestPool(t, 3)
	p.ReportSuccess("http://9.9.9.9:1")
	if evicted := p.ReportFailure("http://9.9.9.9:1"); evicted {
		t.Fatalf("eviction reported for endpoint not in pool")
	}
}

func TestPersistLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "proxies.txt")
	st := storage.NewFileStorage(path)

	p := New(3, st)
	p.Merge([]*model.Proxy{newTestProxy("1.1.1.1"), newTestProxy("2.2.2.2")})
	if err := p.Persist(); err != nil {
		t.Fatalf("persist: %v", err)
	}

	// Reload into a fresh pool with re-verification mocked to accept all.
	acceptAll := func(ctx context.Context, candidates []model.Candidate) []*model.Proxy {
		out := make([]*model.Proxy, 0, len(candidates))
		for _, c := range candidates {
			out = append(out, &model.Proxy{
				Host:           c.Host,
				Port:           c.Port,
				Scheme:         c.Scheme,
				LastVerifiedAt: time.Now(),
			})
		}
		return out
	}

	p2 := New(3, st)
	if err := p2.Load(context.Background(), acceptAll); err != nil {
		t.Fatalf("load: %v", err)
	}

	want := map[string]bool{"http://1.1.1.1:8080": true, "http://2.2.2.2:8080": true}
	snapshot := p2.Snapshot()
	if len(snapshot) != len(want) {
		t.Fatalf("round trip yielded %d entries, want %d", len(snapshot), len(want))
	}
	for _, proxy := range snapshot {
		if !want[proxy.Endpoint()] {
			t.Errorf("unexpected endpoint after round trip: %s", proxy.Endpoint())
		}
	}
}

func TestLoadMissingStorageIsNonFatal(t *testing.T) {
	st := storage.NewFileStorage(filepath.Join(t.TempDir(), "nope", "missing.txt"))
	p := New(3, st)

	reject := func(ctx context.Context, candidates []model.Candidate) []*model.Proxy { return nil }
	if err := p.Load(context.Background(), reject); err != nil {
		t.Fatalf("missing storage must not be fatal: %v", err)
	}
	if p.Len() != 0 {
		t.Fatalf("pool not empty after loading nothing")
	}
}

func TestConcurrentAccess(t *testing.T) {
	p := newTestPool(t, 100)
	p.Merge([]*model.Proxy{newTestProxy("1.1.1.1"), newTestProxy("2.2.2.2")})

	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			for j := 0; j < 200; j++ {
				if proxy, err := p.Select(); err == nil {
					if j%2 == 0 {
						p.ReportSuccess(proxy.Endpoint())
					} else {
						p.ReportFailure(proxy.Endpoint())
					}
				}
				p.Merge([]*model.Proxy{newTestProxy("3.3.3.3")})
				p.Snapshot()
			}
		}()
	}
	for i := 0; i < 8; i++ {
		<-done
	}
}
