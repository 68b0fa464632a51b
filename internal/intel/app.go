// Package intel orchestrates the full GeoIntel flow: candidate acquisition,
// verification, pool maintenance, and proxy-assisted geolocation lookups.
package intel

import (
	"context"
	"sync"
	"time"

	"geointel/internal/dispatch"
	"geointel/internal/geoloc"
	"geointel/internal/shared/logger"
	"geointel/internal/shared/types"
	"geointel/proxypool"
	"geointel/proxypool/model"
	"geointel/proxypool/scraper"
	"geointel/proxypool/storage"
	"geointel/proxypool/verifier"
)

// RefreshStats summarizes one acquisition cycle for reporting.
type RefreshStats struct {
	Scraped  int
	Verified int
	PoolSize int
}

// App wires the subsystems together and owns the serve-mode lifecycle.
type App struct {
	cfg        *types.Config
	pool       *proxypool.Pool
	verifier   *verifier.Verifier
	scrapers   []scraper.Scraper
	dispatcher *dispatch.Dispatcher
	mmdb       *geoloc.MMDBResolver

	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// New assembles the application from configuration.
func New(cfg *types.Config) *App {
	st := storage.NewFileStorage(cfg.PoolConf.StoragePath)
	pool := proxypool.New(cfg.PoolConf.EvictionThreshold, st)

	detector := dispatch.NewMarkerDetector(cfg.DispatchConf.BlockStatuses, nil)
	challenge := dispatch.NewCycleTLSClient(time.Duration(cfg.DispatchConf.ChallengeTimeoutMS) * time.Millisecond)

	return &App{
		cfg:        cfg,
		pool:       pool,
		verifier:   verifier.New(cfg.VerifierConf),
		scrapers:   scraper.ForSources(cfg.SourceConf),
		dispatcher: dispatch.New(cfg.DispatchConf, pool, detector, challenge),
		mmdb:       geoloc.OpenMMDB(cfg.GeoConf.MMDBPath),
		stopChan:   make(chan struct{}),
	}
}

// Pool exposes the live pool, used by the web service.
func (a *App) Pool() *proxypool.Pool {
	return a.pool
}

// Dispatcher exposes the tiered dispatcher.
func (a *App) Dispatcher() *dispatch.Dispatcher {
	return a.dispatcher
}

// PoolSnapshot implements the web service controller surface.
func (a *App) PoolSnapshot() []*model.Proxy {
	return a.pool.Snapshot()
}

// Refresh runs one full acquisition cycle: re-verify persisted endpoints,
// scrape the configured sources, verify the new candidates, merge, persist.
// It always leaves the pool in a usable state, even when every source fails.
func (a *App) Refresh(ctx context.Context) RefreshStats {
	l := logger.WithComponent("Intel")

	if err := a.pool.Load(ctx, a.verify); err != nil {
		l.Error().Err(err).Msg("Pool load failed.")
	}

	candidates := scraper.FetchAll(ctx, a.scrapers)
	verified := a.verify(ctx, candidates)
	added := a.pool.Merge(verified)

	if err := a.pool.Persist(); err != nil {
		l.Error().Err(err).Msg("Pool persist failed.")
	}
	l.Info().Int("added", added).Int("pool_size", a.pool.Len()).Msg("Acquisition cycle complete.")

	return RefreshStats{
		Scraped:  len(candidates),
		Verified: len(verified),
		PoolSize: a.pool.Len(),
	}
}

// verify runs the two-phase verifier and annotates the accepted proxies with
// a country when a local GeoLite2 database is configured.
func (a *App) verify(ctx context.Context, candidates []model.Candidate) []*model.Proxy {
	verified := a.verifier.Verify(ctx, candidates)
	for _, p := range verified {
		if country := a.mmdb.Country(p.Host); country != "" {
			p.Country = country
		}
	}
	return verified
}

// Lookup resolves the target and queries the geolocation providers through
// the dispatcher, merging their answers. The reverse geocode is attempted
// only when a key is configured and coordinates are present; its failure is
// never fatal.
func (a *App) Lookup(ctx context.Context, target string) (*geoloc.Report, *geoloc.GeocodeResult, error) {
	l := logger.WithComponent("Intel")

	ip, err := a.ResolveTarget(ctx, target)
	if err != nil {
		return nil, nil, err
	}
	l.Info().Str("target", target).Str("ip", ip).Msg("Resolved lookup target.")

	ipapi, err := geoloc.FetchIPAPI(ctx, a.dispatcher, ip)
	if err != nil {
		l.Warn().Err(err).Msg("ip-api lookup failed.")
	}
	whois, werr := geoloc.FetchIPWhois(ctx, a.dispatcher, ip)
	if werr != nil {
		l.Warn().Err(werr).Msg("ipwho.is lookup failed.")
	}

	report := geoloc.MergeReports(ipapi, whois)
	if report == nil {
		if err == nil {
			err = werr
		}
		return nil, nil, err
	}

	var geocode *geoloc.GeocodeResult
	if a.cfg.GeoConf.OpenCageKey != "" && report.HasCoords {
		geocode, err = geoloc.ReverseGeocode(ctx, a.dispatcher, a.cfg.GeoConf.OpenCageKey, report.Lat, report.Lon)
		if err != nil {
			l.Warn().Err(err).Msg("Reverse geocode failed.")
			geocode = nil
		}
	}

	return report, geocode, nil
}

// Close persists the pool and releases resources. Safe to call more than
// once.
func (a *App) Close() {
	a.stopOnce.Do(func() {
		close(a.stopChan)
	})
	a.wg.Wait()
	if err := a.pool.Persist(); err != nil {
		l := logger.WithComponent("Intel")
		l.Error().Err(err).Msg("Final pool persist failed.")
	}
	a.mmdb.Close()
}
