package app

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"rollcall/cmd/internal/attendance"
	authapi "rollcall/cmd/internal/auth/api"
	"rollcall/cmd/internal/livefeed"
	"rollcall/cmd/internal/students"
)

func registerHTTP(
	mux *http.ServeMux,
	log Logger,
	cfg Config,
	pool *pgxpool.Pool,
	dbEnabled bool,
	auth *authapi.Handler,
	roster *students.Handler,
	marks *attendance.Handler,
	feed *livefeed.Gateway,
) {
	mux.HandleFunc("/healthz", handleHealthz)
	mux.HandleFunc("/readyz", handleReadyz(log, cfg, pool, dbEnabled))
	mux.Handle("/metrics", promhttp.Handler())

	auth.Register(mux)

	protected := http.NewServeMux()
	roster.Register(protected)
	marks.Register(protected)
	guarded := auth.RequireUser(protected)

	mux.Handle("/api/v1/students", guarded)
	mux.Handle("/api/v1/students/", guarded)
	mux.Handle("/api/v1/attendance", guarded)

	mux.Handle("/ws", feed)
}

func handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeHealth(w, http.StatusOK, "ok")
}

func handleReadyz(log Logger, cfg Config, pool *pgxpool.Pool, dbEnabled bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cfg.ReadinessRequireDB && dbEnabled {
			if err := PingDB(r.Context(), pool, 2*time.Second); err != nil {
				log.Warn("readyz.db_ping.fail", "err", err)
				writeHealth(w, http.StatusServiceUnavailable, "db unavailable")
				return
			}
		}
		writeHealth(w, http.StatusOK, "ready")
	}
}

func writeHealth(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": msg})
}
