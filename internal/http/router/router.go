// Package router wires the HTTP surface: routes, middleware, health and
// metrics endpoints.
//
// Route table:
//
//	GET    /api/students        → list all students
//	POST   /api/students        → create a new student
//	GET    /api/students/{id}   → get one student
//	PUT    /api/students/{id}   → replace a student
//	DELETE /api/students/{id}   → delete a student
//	GET    /health              → database reachability
//	GET    /metrics             → Prometheus
package router

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aanand-mishra/student-records/internal/http/handlers/student"
	"github.com/aanand-mishra/student-records/internal/http/middleware"
	"github.com/aanand-mishra/student-records/internal/metrics"
	"github.com/aanand-mishra/student-records/internal/storage"
	"github.com/aanand-mishra/student-records/internal/utils/response"
)

type Options struct {
	Logger         *slog.Logger
	AllowedOrigins []string
	MaxBodyBytes   int64
}

// New returns the application handler backed by s.
func New(s storage.Storage, opts Options) http.Handler {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/students", student.New(s))
	mux.HandleFunc("GET /api/students", student.GetList(s))
	mux.HandleFunc("GET /api/students/{id}", student.GetByID(s))
	mux.HandleFunc("PUT /api/students/{id}", student.Update(s))
	mux.HandleFunc("DELETE /api/students/{id}", student.Delete(s))

	mux.HandleFunc("GET /health", health(s, log))
	mux.Handle("GET /metrics", promhttp.Handler())

	return middleware.Chain(mux,
		middleware.RequestID,
		middleware.Logging(log),
		middleware.Recovery(log),
		middleware.CORS(opts.AllowedOrigins),
		middleware.MaxBytes(opts.MaxBodyBytes),
		metrics.Middleware,
	)
}

// health answers 200 while the store responds to a ping and 503 otherwise.
func health(s storage.Storage, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if p, ok := s.(storage.Pinger); ok {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := p.Ping(ctx); err != nil {
				log.Warn("health check failed", slog.String("error", err.Error()))
				response.WriteJSON(w, http.StatusServiceUnavailable,
					response.GeneralError(errors.New("storage unavailable")))
				return
			}
		}
		response.WriteJSON(w, http.StatusOK, response.Response{Status: response.StatusOK})
	}
}
