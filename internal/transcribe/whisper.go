package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"
)

// Every upload is submitted under the same synthetic filename; the recorder
// produces webm regardless of device.
const (
	uploadFilename    = "recording.webm"
	uploadContentType = "audio/webm"
	whisperModel      = "whisper-1"
)

var ErrNoAPIKey = errors.New("transcribe: transcription API key not configured")

// WhisperClient submits audio payloads to the hosted speech-to-text API.
type WhisperClient struct {
	baseURL string
	apiKey  string
	hc      *http.Client
}

func NewWhisperClient(baseURL, apiKey string, timeout time.Duration) *WhisperClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &WhisperClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		hc:      &http.Client{Timeout: timeout},
	}
}

// Transcribe forwards the payload as a named file part and returns the
// provider's text verbatim. There is no retry; a failed call is surfaced to
// the handler, which degrades to the fallback transcript.
func (c *WhisperClient) Transcribe(ctx context.Context, audio []byte) (string, error) {
	if c.apiKey == "" {
		return "", ErrNoAPIKey
	}

	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="file"; filename="`+uploadFilename+`"`)
	header.Set("Content-Type", uploadContentType)
	fw, err := mw.CreatePart(header)
	if err != nil {
		return "", fmt.Errorf("transcribe: build request: %w", err)
	}
	if _, err := fw.Write(audio); err != nil {
		return "", fmt.Errorf("transcribe: build request: %w", err)
	}
	if err := mw.WriteField("model", whisperModel); err != nil {
		return "", fmt.Errorf("transcribe: build request: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("transcribe: build request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/audio/transcriptions", body)
	if err != nil {
		return "", fmt.Errorf("transcribe: build request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.hc.Do(req)
	if err != nil {
		return "", fmt.Errorf("transcribe: provider request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		// Buffer a small portion of the provider error for diagnostics.
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", fmt.Errorf("transcribe: provider returned %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var out struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("transcribe: decode provider response: %w", err)
	}
	return out.Text, nil
}

// FallbackText is the deterministic placeholder returned when real
// speech-to-text is unavailable or fails.
func FallbackText(now time.Time) string {
	return "Voice note recorded at " + now.Format("3:04:05 PM")
}
