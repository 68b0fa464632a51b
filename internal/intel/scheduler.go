package intel

import (
	"context"
	"time"

	"geointel/internal/shared/logger"
)

// StartScheduler launches the serve-mode background loops: periodic
// re-verification of the live pool and periodic persistence. Both tickers
// are optional; a zero interval disables the loop.
func (a *App) StartScheduler() {
	recheck := time.Duration(a.cfg.PoolConf.RecheckIntervalSeconds) * time.Second
	persist := time.Duration(a.cfg.PoolConf.PersistIntervalSeconds) * time.Second

	if recheck > 0 {
		a.wg.Add(1)
		go a.recheckLoop(recheck)
	}
	if persist > 0 {
		a.wg.Add(1)
		go a.persistLoop(persist)
	}
}

func (a *App) recheckLoop(interval time.Duration) {
	defer a.wg.Done()
	l := logger.WithComponent("Intel/Scheduler")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.Debug().Msg("Re-verification ticker triggered.")
			a.recheckPool(context.Background())
		case <-a.stopChan:
			l.Info().Msg("Stop signal received. Shutting down re-verification loop.")
			return
		}
	}
}

func (a *App) persistLoop(interval time.Duration) {
	defer a.wg.Done()
	l := logger.WithComponent("Intel/Scheduler")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.pool.Persist()
		case <-a.stopChan:
			l.Info().Msg("Stop signal received. Shutting down persistence loop.")
			return
		}
	}
}

// recheckPool re-runs the two-phase check over the live set. Entries that
// pass get their metadata refreshed; entries that fail take a failure report
// and are evicted through the normal threshold path.
func (a *App) recheckPool(ctx context.Context) {
	candidates := a.pool.Candidates()
	if len(candidates) == 0 {
		return
	}

	verified := a.verify(ctx, candidates)
	passed := make(map[string]struct{}, len(verified))
	for _, p := range verified {
		passed[p.Endpoint()] = struct{}{}
		a.pool.Update(p)
	}
	for _, c := range candidates {
		if _, ok := passed[c.Endpoint()]; !ok {
			a.pool.ReportFailure(c.Endpoint())
		}
	}

	l := logger.WithComponent("Intel/Scheduler")
	l.Info().Int("checked", len(candidates)).Int("passed", len(verified)).Int("pool_size", a.pool.Len()).
		Msg("Pool re-verification finished.")
}

// RefreshAsync triggers a full acquisition cycle in the background, used by
// the web service.
func (a *App) RefreshAsync() {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.Refresh(context.Background())
	}()
}
