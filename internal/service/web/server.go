// Package web exposes the pool state over a small HTTP API plus a websocket
// stream of live updates, used in serve mode.
package web

import (
	"fmt"
	"net/http"

	"geointel/internal/shared/logger"
	"geointel/internal/shared/types"
	"geointel/proxypool/model"
)

// Controller is the application surface the web handlers drive.
type Controller interface {
	PoolSnapshot() []*model.Proxy
	RefreshAsync()
}

// basicAuthMiddleware enforces HTTP Basic Authentication when a user and
// password are configured; otherwise the handler is served as-is.
func basicAuthMiddleware(next http.Handler, user, pass string) http.Handler {
	if user == "" || pass == "" {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, p, ok := r.BasicAuth()
		if !ok || u != user || p != pass {
			w.Header().Set("WWW-Authenticate", `Basic realm="Restricted"`)
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte("Unauthorized.\n"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// StartServer starts the status service on the configured port. A port of 0
// disables it.
func StartServer(cfg types.WebConf, controller Controller, hub *Hub) {
	if cfg.Port <= 0 {
		logger.Info().Msg("Status web service is disabled (port is 0 or not set).")
		return
	}

	handler := NewHandler(controller, hub)
	mux := http.NewServeMux()

	mux.Handle("/api/proxies", basicAuthMiddleware(http.HandlerFunc(handler.HandleProxies), cfg.User, cfg.Password))
	mux.Handle("/api/refresh", basicAuthMiddleware(http.HandlerFunc(handler.HandleRefresh), cfg.User, cfg.Password))
	mux.HandleFunc("/ws", handler.HandleWebSocket)

	go hub.Run()

	addr := fmt.Sprintf(":%d", cfg.Port)
	go func() {
		logger.Info().Str("addr", addr).Msg("Status web service listening.")
		if err := http.ListenAndServe(addr, mux); err != nil {
			logger.Error().Err(err).Msg("Status web service stopped.")
		}
	}()
}
