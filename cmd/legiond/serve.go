package main

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"legion/internal/dispatch"
	"legion/internal/metrics"
	"legion/internal/netsrv"
	"legion/internal/protocol"
	"legion/internal/users"
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

		frame := make([]byte, 8)
		binary.LittleEndian.PutUint64(frame, uint64(w.Now()))
		for _, err := range srv.DrainAll(ctx, func(ctx context.Context, sess *netsrv.Session) error {
			return sess.SendState(ctx, frame)
		}) {
			if err != nil && err != netsrv.ErrRateLimited {
				log.WithError(err).Debug("state push failed")
			}
		}
	})

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return admin.Shutdown(shutdownCtx)
}

// wsUpgrader upgrades an admin-surface HTTP connection to the websocket
// transport netsrv.Session expects. Origin checking is left to whatever
// reverse proxy terminates TLS in front of legiond, matching the
// teacher's own trust-the-edge posture for its internal admin routes.
var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// serveSession upgrades req to a websocket, registers it with srv, and
// blocks reading inbound protocol.Cmd frames until the connection drops,
// dispatching each one into w. This is the one place a raw protocol.Cmd
// byte frame becomes a live world.World action.
func serveSession(w *world.World, srv *netsrv.Server, user world.UserID, rw http.ResponseWriter, req *http.Request) {
	conn, err := wsUpgrader.Upgrade(rw, req, nil)
	if err != nil {
		log.WithError(err).Debug("websocket upgrade failed")
		return
	}
	sess := srv.Accept(conn)
	defer srv.Remove(sess.ID)

	for {
		data, err := sess.ReadCmd()
		if err != nil {
			return
		}
		cmd, err := protocol.DecodeCmd(data)
		if err != nil {
			log.WithError(err).WithField("session", sess.ID).Debug("malformed cmd frame")
			continue
		}
		if _, err := dispatch.Execute(w, user, cmd); err != nil {
			log.WithError(err).WithField("session", sess.ID).Debug("cmd dispatch failed")
		}
	}
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

	r.HandleFunc("/ws", func(rw http.ResponseWriter, req *http.Request) {
		user, ok := authenticate(w.Users(), req)
		if !ok {
			http.Error(rw, "unauthorized", http.StatusUnauthorized)
			return
		}
		serveSession(w, srv, user, rw, req)
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

// authenticate resolves a /ws request's ?user=<id>&token=<private token>
// query parameters against the world's account registry (users_auth_user),
// so a session is only ever registered under the identity it can prove —
// without this, any client could name an arbitrary user id and dispatch
// CmdIO/CmdMod commands as that user with no credential at all.
func authenticate(reg *users.Registry, req *http.Request) (world.UserID, bool) {
	q := req.URL.Query()
	idN, err := strconv.ParseUint(q.Get("user"), 10, 8)
	if err != nil {
		return 0, false
	}
	tokenN, err := strconv.ParseUint(q.Get("token"), 10, 64)
	if err != nil {
		return 0, false
	}
	id := users.ID(idN)
	if !reg.AuthUser(id, users.Token(tokenN)) {
		return 0, false
	}
	return world.UserID(id), true
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		log.WithField("method", r.Method).WithField("path", r.URL.Path).Debug("admin request")
		next.ServeHTTP(rw, r)
	})
}
