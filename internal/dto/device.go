package dto

import (
	"time"

	"voicetodo/internal/domain"
)

type DeviceRequest struct {
	DeviceID string `json:"deviceId"`
}

// UpdateDeviceDataRequest uses pointers for todos and settings so the handler
// can tell an absent field (400) from an explicitly empty one.
type UpdateDeviceDataRequest struct {
	DeviceID string           `json:"deviceId"`
	Todos    *domain.TodoList `json:"todos"`
	Settings *domain.Settings `json:"settings"`
}

type UpdateDeviceDataResponse struct {
	Success  bool `json:"success"`
	Upserted bool `json:"upserted"`
	Modified bool `json:"modified"`
}

type DeleteDeviceDataResponse struct {
	Success bool `json:"success"`
	Deleted bool `json:"deleted"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

type PingRequestInfo struct {
	Method    string `json:"method"`
	Path      string `json:"path"`
	ClientIP  string `json:"clientIp,omitempty"`
	UserAgent string `json:"userAgent,omitempty"`
}

type PingEnvironment struct {
	GoVersion           string `json:"goVersion"`
	Platform            string `json:"platform"`
	Arch                string `json:"arch"`
	HasDatabaseURL      bool   `json:"hasDatabaseUrl"`
	HasTranscriptionKey bool   `json:"hasTranscriptionKey"`
}

type PingMemory struct {
	AllocMB      uint64 `json:"allocMb"`
	SysMB        uint64 `json:"sysMb"`
	NumGoroutine int    `json:"numGoroutine"`
}

type PingResponse struct {
	Status        string          `json:"status"`
	Message       string          `json:"message"`
	Timestamp     time.Time       `json:"timestamp"`
	Request       PingRequestInfo `json:"request"`
	Environment   PingEnvironment `json:"environment"`
	UptimeSeconds float64         `json:"uptimeSeconds"`
	Memory        PingMemory      `json:"memory"`
}
