package todoclient

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

// DeviceInfo is the bundle of host signals hashed into a device id. The JSON
// serialization is deterministic (fixed struct field order), so identical
// signal sets always hash to the identical id. Two hosts with identical
// signals colliding is an accepted risk, not a correctness bug.
type DeviceInfo struct {
	Hostname string `json:"hostname"`
	OS       string `json:"os"`
	Arch     string `json:"arch"`
	NumCPU   int    `json:"numCpu"`
	Username string `json:"username"`
	Language string `json:"language"`
	Timezone string `json:"timezone"`
}

func CollectDeviceInfo() DeviceInfo {
	hostname, _ := os.Hostname()
	zone, _ := time.Now().Zone()

	username := os.Getenv("USER")
	if username == "" {
		username = os.Getenv("USERNAME")
	}

	return DeviceInfo{
		Hostname: hostname,
		OS:       runtime.GOOS,
		Arch:     runtime.GOARCH,
		NumCPU:   runtime.NumCPU(),
		Username: username,
		Language: os.Getenv("LANG"),
		Timezone: zone,
	}
}

// GenerateDeviceID always recomputes from the current signals; the caller is
// responsible for persisting the result. No network calls.
func GenerateDeviceID() string {
	raw, _ := json.Marshal(CollectDeviceInfo())
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

// StoredDeviceID reads a previously persisted id. A missing file is not an
// error; it just means no identity exists yet.
func StoredDeviceID(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(string(raw)), nil
}

func StoreDeviceID(path, id string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return err
		}
	}
	return os.WriteFile(path, []byte(id+"\n"), 0o600)
}

// GetOrCreateDeviceID returns the persisted identity if present, otherwise
// derives one from device signals, persists it and returns it.
func GetOrCreateDeviceID(path string) (string, error) {
	id, err := StoredDeviceID(path)
	if err != nil {
		return "", err
	}
	if id != "" {
		return id, nil
	}
	id = GenerateDeviceID()
	if err := StoreDeviceID(path, id); err != nil {
		return "", err
	}
	return id, nil
}

// ResetDeviceID removes the persisted identity. Removing a never-created
// identity is a no-op.
func ResetDeviceID(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
