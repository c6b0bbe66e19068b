package todoclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"voicetodo/internal/domain"
)

const defaultTimeout = 15 * time.Second

// Client talks JSON-over-POST to the device data service. There is no retry
// logic anywhere; a failed call is surfaced to the caller once.
type Client struct {
	baseURL string
	hc      *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		hc:      &http.Client{Timeout: timeout},
	}
}

func (c *Client) postJSON(ctx context.Context, path string, in, out any) (int, error) {
	payload, err := json.Marshal(in)
	if err != nil {
		return 0, fmt.Errorf("todoclient: encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return 0, fmt.Errorf("todoclient: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		return 0, fmt.Errorf("todoclient: %s: %w", path, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(io.LimitReader(resp.Body, 2048)).Decode(&apiErr)
		if apiErr.Error != "" {
			return resp.StatusCode, fmt.Errorf("todoclient: %s: server returned %d: %s", path, resp.StatusCode, apiErr.Error)
		}
		return resp.StatusCode, fmt.Errorf("todoclient: %s: server returned %d", path, resp.StatusCode)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("todoclient: decode %s response: %w", path, err)
		}
	}
	return resp.StatusCode, nil
}

// GetDeviceData fetches the full record. A 404 maps to (nil, nil): a device
// that has never synced simply has no record yet.
func (c *Client) GetDeviceData(ctx context.Context, deviceID string) (*domain.DeviceRecord, error) {
	var rec domain.DeviceRecord
	status, err := c.postJSON(ctx, "/api/get-device-data", deviceRequest{DeviceID: deviceID}, &rec)
	if err != nil {
		if status == http.StatusNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

// UpdateDeviceData pushes the complete todo sequence and settings; the server
// replaces its copy wholesale.
func (c *Client) UpdateDeviceData(ctx context.Context, deviceID string, todos domain.TodoList, settings domain.Settings) error {
	if todos == nil {
		todos = domain.TodoList{}
	}
	body := struct {
		DeviceID string          `json:"deviceId"`
		Todos    domain.TodoList `json:"todos"`
		Settings domain.Settings `json:"settings"`
	}{DeviceID: deviceID, Todos: todos, Settings: settings}
	_, err := c.postJSON(ctx, "/api/update-device-data", body, nil)
	return err
}

func (c *Client) DeleteDeviceData(ctx context.Context, deviceID string) error {
	_, err := c.postJSON(ctx, "/api/delete-device-data", deviceRequest{DeviceID: deviceID}, nil)
	return err
}

func (c *Client) GetDataUsage(ctx context.Context, deviceID string) (domain.DataUsage, error) {
	var usage domain.DataUsage
	_, err := c.postJSON(ctx, "/api/get-data-usage", deviceRequest{DeviceID: deviceID}, &usage)
	return usage, err
}

func (c *Client) ExportDeviceData(ctx context.Context, deviceID string) ([]byte, error) {
	payload, err := json.Marshal(deviceRequest{DeviceID: deviceID})
	if err != nil {
		return nil, fmt.Errorf("todoclient: encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/export-device-data", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("todoclient: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("todoclient: export: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("todoclient: export: server returned %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// TranscribeAudio uploads a recording as the "audio" multipart field and
// returns the transcript.
func (c *Client) TranscribeAudio(ctx context.Context, audio []byte) (string, error) {
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="audio"; filename="recording.webm"`)
	header.Set("Content-Type", "audio/webm")
	fw, err := mw.CreatePart(header)
	if err != nil {
		return "", fmt.Errorf("todoclient: build upload: %w", err)
	}
	if _, err := fw.Write(audio); err != nil {
		return "", fmt.Errorf("todoclient: build upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("todoclient: build upload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/transcribe-audio", body)
	if err != nil {
		return "", fmt.Errorf("todoclient: build upload: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.hc.Do(req)
	if err != nil {
		return "", fmt.Errorf("todoclient: transcribe: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	var out struct {
		Text         string `json:"text"`
		FallbackText string `json:"fallbackText"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("todoclient: decode transcribe response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		if out.FallbackText != "" {
			// The server degrades rather than hard-fails; hand the caller the
			// placeholder it produced.
			return out.FallbackText, nil
		}
		return "", fmt.Errorf("todoclient: transcribe: server returned %d", resp.StatusCode)
	}
	return out.Text, nil
}

// TranscribeWithFallback never fails: on any transport error it returns the
// same deterministic placeholder the backend would have produced.
func (c *Client) TranscribeWithFallback(ctx context.Context, audio []byte) string {
	text, err := c.TranscribeAudio(ctx, audio)
	if err != nil || strings.TrimSpace(text) == "" {
		return "Voice note recorded at " + time.Now().Format("3:04:05 PM")
	}
	return strings.TrimSpace(text)
}

type deviceRequest struct {
	DeviceID string `json:"deviceId"`
}
