package todoclient

import (
	"path/filepath"
	"regexp"
	"testing"
)

var hexID = regexp.MustCompile(`^[0-9a-f]{64}$`)

func TestGenerateDeviceIDDeterministic(t *testing.T) {
	first := GenerateDeviceID()
	second := GenerateDeviceID()

	if first != second {
		t.Fatalf("identical signals produced different ids: %s vs %s", first, second)
	}
	if !hexID.MatchString(first) {
		t.Fatalf("expected 64 hex chars, got %q", first)
	}
}

func TestStoreAndLoadDeviceID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "device-id")

	id, err := StoredDeviceID(path)
	if err != nil {
		t.Fatalf("stored: %v", err)
	}
	if id != "" {
		t.Fatalf("expected no identity yet, got %q", id)
	}

	if err := StoreDeviceID(path, "abc123"); err != nil {
		t.Fatalf("store: %v", err)
	}
	id, err = StoredDeviceID(path)
	if err != nil {
		t.Fatalf("stored after write: %v", err)
	}
	if id != "abc123" {
		t.Fatalf("expected abc123, got %q", id)
	}
}

func TestGetOrCreateDeviceID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "device-id")

	first, err := GetOrCreateDeviceID(path)
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	if !hexID.MatchString(first) {
		t.Fatalf("expected derived id, got %q", first)
	}

	second, err := GetOrCreateDeviceID(path)
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if second != first {
		t.Fatalf("identity not stable across calls: %s vs %s", first, second)
	}
}

func TestResetDeviceID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "device-id")

	if _, err := GetOrCreateDeviceID(path); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := ResetDeviceID(path); err != nil {
		t.Fatalf("reset: %v", err)
	}
	// Resetting an already-removed identity is a no-op.
	if err := ResetDeviceID(path); err != nil {
		t.Fatalf("repeat reset: %v", err)
	}

	id, err := StoredDeviceID(path)
	if err != nil {
		t.Fatalf("stored: %v", err)
	}
	if id != "" {
		t.Fatalf("expected identity gone, got %q", id)
	}
}
