package http

import (
	"encoding/json"
	"net/http"
	"time"

	"voicetodo/internal/observability/middleware"
	"voicetodo/internal/service"
	"voicetodo/internal/transcribe"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func NewRouter(svc *service.Service, whisper *transcribe.WhisperClient) http.Handler {
	h := &Handler{
		svc:     svc,
		whisper: whisper,
		started: time.Now(),
		now:     time.Now,
	}

	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(httprate.LimitByIP(100, 1*time.Minute))

	// The web client is served from arbitrary origins; preflights are
	// answered uniformly here.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         300,
	}))

	r.Use(middleware.WithRequestID)
	r.Use(middleware.WithMetrics)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/get-device-data", h.getDeviceData)
		r.Post("/update-device-data", h.updateDeviceData)
		r.Post("/delete-device-data", h.deleteDeviceData)
		r.Post("/get-data-usage", h.getDataUsage)
		r.Post("/export-device-data", h.exportDeviceData)
		r.Post("/transcribe-audio", h.transcribeAudio)
		r.Get("/ping", h.ping)
		r.Post("/ping", h.ping)
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
