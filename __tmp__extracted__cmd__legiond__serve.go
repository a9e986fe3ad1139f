package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"legion/internal/metrics"
	"legion/internal/netsrv"
	"legion/internal/world"
	"legion/pkg/config"
)

func serveCmd() *cobra.Command {
	var cfgPath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "run the legiond world server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(loadConfig(cfgPath))
		},
	}
	cmd.Flags().StringVar(&cfgPath, "config", "", "path to a YAML config file")
	return cmd
}

func runServe(cfg config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	w := world.New(uint32(cfg.World.WorkersPerChunk))
	m := metrics.New()
	srv := netsrv.NewServer(cfg.Server.FramesPerSecond, cfg.Server.MaxConcurrency)

	admin := newAdminServer(cfg.Server.AdminAddr, w, m, srv)
	go func() {
		log.Infof("admin surface listening on %s", cfg.Server.AdminAddr)
		if err := admin.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Error("admin server stopped")
		}
	}()

	tick := time.Duration(cfg.World.TickIntervalMS) * time.Millisecond
	if tick <= 0 {
		tick = netsrv.TickInterval
	}

	log.Infof("legiond ticking every %s", tick)
	world.RunLoop(ctx, clock.New(), tick, w, func(arrivals []world.Arrival, elapsed time.Duration) {
		m.TickDuration.Observe(elapsed.Seconds())
		_ = arrivals // dispatched to session IO once netsrv session binding is in place
	})

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return admin.Shutdown(shutdownCtx)
}

// newAdminServer builds the read-only operational surface, grounded on
// the teacher's cmd/explorer server.go (gorilla/mux router, small JSON
// handlers) plus promhttp.HandlerFor for Prometheus scraping.
func newAdminServer(addr string, w *world.World, m *metrics.Metrics, srv *netsrv.Server) *http.Server {
	r := mux.NewRouter()
	r.Use(loggingMiddleware)

	r.HandleFunc("/healthz", func(rw http.ResponseWriter, req *http.Request) {
		rw.WriteHeader(http.StatusOK)
		rw.Write([]byte("ok"))
	}).Methods("GET")

	r.HandleFunc("/debug/chunks", func(rw http.ResponseWriter, req *http.Request) {
		coords := w.ChunkCoords()
		rw.Header().Set("Content-Type", "application/json")
		json.NewEncoder(rw).Encode(map[string]any{
			"tick":    w.Now(),
			"chunks":  len(coords),
			"sessions": srv.Count(),
		})
	}).Methods("GET")

	r.Handle("/metrics", promhttp.HandlerFor(m.Registry(), promhttp.HandlerOpts{})).Methods("GET")

	return &http.Server{Addr: addr, Handler: r}
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		log.WithField("method", r.Method).WithField("path", r.URL.Path).Debug("admin request")
		next.ServeHTTP(rw, r)
	})
}


