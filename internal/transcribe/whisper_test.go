package transcribe

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestTranscribe(t *testing.T) {
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/audio/transcriptions" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected authorization header %q", got)
		}
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		if got := r.FormValue("model"); got != "whisper-1" {
			t.Errorf("unexpected model %q", got)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("form file: %v", err)
		} else {
			_ = file.Close()
			if header.Filename != "recording.webm" {
				t.Errorf("unexpected filename %q", header.Filename)
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"text": "buy milk tomorrow"})
	}))
	defer provider.Close()

	client := NewWhisperClient(provider.URL, "test-key", 5*time.Second)
	text, err := client.Transcribe(context.Background(), make([]byte, 2048))
	if err != nil {
		t.Fatalf("transcribe: %v", err)
	}
	if text != "buy milk tomorrow" {
		t.Fatalf("unexpected transcript %q", text)
	}
}

func TestTranscribeMissingAPIKey(t *testing.T) {
	client := NewWhisperClient("http://unused.invalid", "", time.Second)
	_, err := client.Transcribe(context.Background(), make([]byte, 2048))
	if !errors.Is(err, ErrNoAPIKey) {
		t.Fatalf("expected ErrNoAPIKey, got %v", err)
	}
}

func TestTranscribeProviderError(t *testing.T) {
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"rate limited"}}`, http.StatusTooManyRequests)
	}))
	defer provider.Close()

	client := NewWhisperClient(provider.URL, "test-key", 5*time.Second)
	_, err := client.Transcribe(context.Background(), make([]byte, 2048))
	if err == nil {
		t.Fatalf("expected error from provider failure")
	}
	if !strings.Contains(err.Error(), "429") {
		t.Fatalf("expected status code in error, got %v", err)
	}
}

func TestFallbackText(t *testing.T) {
	at := time.Date(2025, time.March, 7, 15, 4, 5, 0, time.UTC)
	if got := FallbackText(at); got != "Voice note recorded at 3:04:05 PM" {
		t.Fatalf("unexpected fallback %q", got)
	}
}
