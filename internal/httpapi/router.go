package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/icontent-lms/go-icontent/logger"
)

// NewRouter returns the router serving h, with request ids, panic
// recovery and access logging.
func NewRouter(h *Handler) *chi.Mux {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(accessLog(h.Logger))

	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	h.RegisterRoutes(router)

	return router
}

func accessLog(l logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			logger.Info(l, "httpapi: request served",
				logger.With("method", r.Method),
				logger.With("path", r.URL.Path),
				logger.With("status", ww.Status()),
				logger.With("duration", time.Since(start)),
				logger.With("requestid", middleware.GetReqID(r.Context())),
			)
		})
	}
}
