// Package server exposes profile aggregation over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"socmint/internal/aggregator"
	"socmint/internal/components/assert"
	"socmint/internal/components/telemetry"
	"socmint/internal/profile"
)

const report_server_write = "server.write"

// Aggregator is implemented by aggregator.Engine.
type Aggregator interface {
	Aggregate(ctx context.Context, identifier string, opts aggregator.Options) (profile.Record, error)
}

type Server struct {
	agg Aggregator
	tel telemetry.API
}

func NewServer(agg Aggregator, tel telemetry.API) Server {
	assert.NotNil(agg)
	assert.NotNil(tel)
	return Server{agg: agg, tel: telemetry.NewScopedAPI("server", tel)}
}

// Handler routes:
//
//	GET /v1/profiles/{identifier}?limit=<n>&cache=<bool>
//	GET /healthz
func (s Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/profiles/{identifier}", s.getProfile)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	return mux
}

func (s Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(body)
	if err != nil {
		s.tel.ReportBroken(report_server_write, err)
	}
}

func (s Server) getProfile(w http.ResponseWriter, r *http.Request) {
	identifier := r.PathValue("identifier")
	opts := aggregator.Options{UseCache: true}

	query := r.URL.Query()
	if raw := query.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			s.writeJSON(w, http.StatusBadRequest, profile.ErrorDocument{Error: "invalid limit"})
			return
		}
		opts.Limit = limit
	}
	if raw := query.Get("cache"); raw != "" {
		useCache, err := strconv.ParseBool(raw)
		if err != nil {
			s.writeJSON(w, http.StatusBadRequest, profile.ErrorDocument{Error: "invalid cache flag"})
			return
		}
		opts.UseCache = useCache
	}

	start := time.Now()
	rec, err := s.agg.Aggregate(r.Context(), identifier, opts)
	s.tel.ReportDebug("aggregate", identifier, time.Since(start).String())
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, aggregator.ErrUserNotFound):
			status = http.StatusNotFound
		case errors.Is(err, aggregator.ErrProfileFetch):
			status = http.StatusBadGateway
		}
		s.writeJSON(w, status, aggregator.ErrorDocument(err))
		return
	}
	s.writeJSON(w, http.StatusOK, rec)
}
