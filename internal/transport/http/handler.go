package http

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"runtime"
	"strings"
	"time"

	"voicetodo/internal/dto"
	"voicetodo/internal/netutil"
	"voicetodo/internal/observability/metrics"
	"voicetodo/internal/observability/middleware"
	"voicetodo/internal/service"
	"voicetodo/internal/transcribe"
)

type Handler struct {
	svc     *service.Service
	whisper *transcribe.WhisperClient
	started time.Time
	now     func() time.Time
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, dto.ErrorResponse{Error: msg})
}

// writeServiceError maps the service error taxonomy to HTTP statuses. Internal
// detail is logged server-side and never leaked to the caller.
func writeServiceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	reqID := middleware.RequestIDFromContext(r.Context())
	switch {
	case errors.Is(err, service.ErrInvalidRequest):
		writeError(w, http.StatusBadRequest, "Device ID is required")
	case errors.Is(err, service.ErrDeviceNotFound):
		writeError(w, http.StatusNotFound, "Device not found")
	case errors.Is(err, service.ErrTimeout):
		slog.Warn("database operation timed out", "op", op, "request_id", reqID)
		writeError(w, http.StatusRequestTimeout, "Database operation timed out")
	case errors.Is(err, service.ErrUnauthorized):
		slog.Error("database authorization failed, check database permissions", "op", op, "request_id", reqID)
		writeJSON(w, http.StatusForbidden, dto.ErrorResponse{
			Error:   "Database authorization failed",
			Details: "database user lacks permissions for the configured database",
		})
	default:
		slog.Error("device data operation failed", "op", op, "error", err, "request_id", reqID)
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return false
	}
	return true
}

func (h *Handler) getDeviceData(w http.ResponseWriter, r *http.Request) {
	var req dto.DeviceRequest
	if !decodeJSON(w, r, &req) {
		metrics.DeviceDataOpsTotal.WithLabelValues("get", "failure").Inc()
		return
	}
	if req.DeviceID == "" {
		metrics.DeviceDataOpsTotal.WithLabelValues("get", "failure").Inc()
		writeError(w, http.StatusBadRequest, "Device ID is required")
		return
	}

	rec, err := h.svc.Get(r.Context(), req.DeviceID)
	if err != nil {
		metrics.DeviceDataOpsTotal.WithLabelValues("get", "failure").Inc()
		writeServiceError(w, r, "get", err)
		return
	}
	metrics.DeviceDataOpsTotal.WithLabelValues("get", "success").Inc()
	writeJSON(w, http.StatusOK, rec)
}

func (h *Handler) updateDeviceData(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateDeviceDataRequest
	if !decodeJSON(w, r, &req) {
		metrics.DeviceDataOpsTotal.WithLabelValues("update", "failure").Inc()
		return
	}
	if req.DeviceID == "" {
		metrics.DeviceDataOpsTotal.WithLabelValues("update", "failure").Inc()
		writeError(w, http.StatusBadRequest, "Device ID is required")
		return
	}
	if req.Todos == nil || req.Settings == nil {
		metrics.DeviceDataOpsTotal.WithLabelValues("update", "failure").Inc()
		writeError(w, http.StatusBadRequest, "Todos and settings are required")
		return
	}

	res, err := h.svc.Upsert(r.Context(), service.UpsertInput{
		DeviceID: req.DeviceID,
		Todos:    *req.Todos,
		Settings: *req.Settings,
	})
	if err != nil {
		metrics.DeviceDataOpsTotal.WithLabelValues("update", "failure").Inc()
		writeServiceError(w, r, "update", err)
		return
	}
	metrics.DeviceDataOpsTotal.WithLabelValues("update", "success").Inc()
	slog.Info("device data upserted",
		"device_id", req.DeviceID,
		"todos", len(*req.Todos),
		"upserted", res.Upserted,
		"request_id", middleware.RequestIDFromContext(r.Context()),
	)
	writeJSON(w, http.StatusOK, dto.UpdateDeviceDataResponse{
		Success:  true,
		Upserted: res.Upserted,
		Modified: res.Modified,
	})
}

func (h *Handler) deleteDeviceData(w http.ResponseWriter, r *http.Request) {
	var req dto.DeviceRequest
	if !decodeJSON(w, r, &req) {
		metrics.DeviceDataOpsTotal.WithLabelValues("delete", "failure").Inc()
		return
	}
	if req.DeviceID == "" {
		metrics.DeviceDataOpsTotal.WithLabelValues("delete", "failure").Inc()
		writeError(w, http.StatusBadRequest, "Device ID is required")
		return
	}

	deleted, err := h.svc.Delete(r.Context(), req.DeviceID)
	if err != nil {
		metrics.DeviceDataOpsTotal.WithLabelValues("delete", "failure").Inc()
		writeServiceError(w, r, "delete", err)
		return
	}
	metrics.DeviceDataOpsTotal.WithLabelValues("delete", "success").Inc()
	slog.Info("device data deleted",
		"device_id", req.DeviceID,
		"deleted", deleted,
		"request_id", middleware.RequestIDFromContext(r.Context()),
	)
	writeJSON(w, http.StatusOK, dto.DeleteDeviceDataResponse{Success: true, Deleted: deleted})
}

func (h *Handler) getDataUsage(w http.ResponseWriter, r *http.Request) {
	var req dto.DeviceRequest
	if !decodeJSON(w, r, &req) {
		metrics.DeviceDataOpsTotal.WithLabelValues("usage", "failure").Inc()
		return
	}
	if req.DeviceID == "" {
		metrics.DeviceDataOpsTotal.WithLabelValues("usage", "failure").Inc()
		writeError(w, http.StatusBadRequest, "Device ID is required")
		return
	}

	usage, err := h.svc.Usage(r.Context(), req.DeviceID)
	if err != nil {
		metrics.DeviceDataOpsTotal.WithLabelValues("usage", "failure").Inc()
		writeServiceError(w, r, "usage", err)
		return
	}
	metrics.DeviceDataOpsTotal.WithLabelValues("usage", "success").Inc()
	writeJSON(w, http.StatusOK, usage)
}

func (h *Handler) exportDeviceData(w http.ResponseWriter, r *http.Request) {
	var req dto.DeviceRequest
	if !decodeJSON(w, r, &req) {
		metrics.DeviceDataOpsTotal.WithLabelValues("export", "failure").Inc()
		return
	}
	if req.DeviceID == "" {
		metrics.DeviceDataOpsTotal.WithLabelValues("export", "failure").Inc()
		writeError(w, http.StatusBadRequest, "Device ID is required")
		return
	}

	doc, err := h.svc.Export(r.Context(), req.DeviceID)
	if err != nil {
		metrics.DeviceDataOpsTotal.WithLabelValues("export", "failure").Inc()
		writeServiceError(w, r, "export", err)
		return
	}
	metrics.DeviceDataOpsTotal.WithLabelValues("export", "success").Inc()
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="device-data.json"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc)
}

func (h *Handler) transcribeAudio(w http.ResponseWriter, r *http.Request) {
	fail := func(status int, msg, detail string) {
		metrics.TranscriptionsTotal.WithLabelValues("failure").Inc()
		writeJSON(w, status, dto.TranscribeErrorResponse{
			Error:        msg,
			Message:      detail,
			FallbackText: transcribe.FallbackText(h.now()),
		})
	}

	mediaType, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || !strings.HasPrefix(mediaType, "multipart/") {
		fail(http.StatusBadRequest, "Expected multipart/form-data", "")
		return
	}
	if params["boundary"] == "" {
		fail(http.StatusBadRequest, "Missing boundary in multipart data", "")
		return
	}

	// Bound the read: payload limit plus headroom for part headers and
	// boundary markers. Reading one extra byte distinguishes "body fits"
	// from "body was cut off at the cap", so grossly oversized uploads are
	// classified as too large instead of failing to parse.
	const maxBody = transcribe.MaxAudioSize + 64*1024
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBody+1))
	if err != nil {
		fail(http.StatusBadRequest, "Failed to read request body", "")
		return
	}
	if len(body) > maxBody {
		fail(http.StatusBadRequest, "Audio file too large (max 25MB)", "")
		return
	}

	audio, err := transcribe.ExtractAudio(body, params["boundary"], "audio")
	if err != nil || len(audio) == 0 {
		fail(http.StatusBadRequest, "No audio data found or empty audio file", "")
		return
	}
	if err := transcribe.ValidateSize(audio); err != nil {
		if errors.Is(err, transcribe.ErrAudioTooSmall) {
			fail(http.StatusBadRequest, "Audio file too small", "")
		} else {
			fail(http.StatusBadRequest, "Audio file too large (max 25MB)", "")
		}
		return
	}

	text, err := h.whisper.Transcribe(r.Context(), audio)
	if err != nil {
		reqID := middleware.RequestIDFromContext(r.Context())
		if errors.Is(err, transcribe.ErrNoAPIKey) {
			slog.Error("transcription API key not configured", "request_id", reqID)
			fail(http.StatusInternalServerError, "Transcription API key not configured", "")
			return
		}
		slog.Error("transcription failed", "error", err, "audio_bytes", len(audio), "request_id", reqID)
		fail(http.StatusInternalServerError, "Internal server error", err.Error())
		return
	}

	metrics.TranscriptionsTotal.WithLabelValues("success").Inc()
	writeJSON(w, http.StatusOK, dto.TranscribeResponse{Text: text})
}

// ping reports runtime diagnostics plus presence (never values) of required
// environment variables.
func (h *Handler) ping(w http.ResponseWriter, r *http.Request) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	ip, _ := netutil.NormalizeIP(r.RemoteAddr)

	writeJSON(w, http.StatusOK, dto.PingResponse{
		Status:    "success",
		Message:   "voicetodo API is working",
		Timestamp: h.now().UTC(),
		Request: dto.PingRequestInfo{
			Method:    r.Method,
			Path:      r.URL.Path,
			ClientIP:  ip,
			UserAgent: netutil.TruncateUserAgent(r.UserAgent()),
		},
		Environment: dto.PingEnvironment{
			GoVersion:           runtime.Version(),
			Platform:            runtime.GOOS,
			Arch:                runtime.GOARCH,
			HasDatabaseURL:      os.Getenv("DATABASE_URL") != "",
			HasTranscriptionKey: os.Getenv("OPENAI_API_KEY") != "",
		},
		UptimeSeconds: time.Since(h.started).Seconds(),
		Memory: dto.PingMemory{
			AllocMB:      m.Alloc / 1024 / 1024,
			SysMB:        m.Sys / 1024 / 1024,
			NumGoroutine: runtime.NumGoroutine(),
		},
	})
}
