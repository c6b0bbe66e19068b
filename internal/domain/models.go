package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// CreationChannel records how a todo entered the system.
type CreationChannel string

const (
	ViaText     CreationChannel = "text"
	ViaVoice    CreationChannel = "voice"
	ViaImage    CreationChannel = "image"
	ViaLocation CreationChannel = "location"
)

type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Accuracy  float64 `json:"accuracy,omitempty"`
}

type Todo struct {
	ID            string          `json:"id"`
	Text          string          `json:"text"`
	Completed     bool            `json:"completed"`
	CreatedAt     time.Time       `json:"createdAt"`
	CreatedVia    CreationChannel `json:"createdVia"`
	ImageURL      string          `json:"imageUrl,omitempty"`
	AudioURL      string          `json:"audioUrl,omitempty"`
	AudioDuration float64         `json:"audioDuration,omitempty"` // seconds
	Location      *Location       `json:"location,omitempty"`
	DeviceID      string          `json:"deviceId"`
}

// TodoList is the full todo sequence of one device, stored as a single JSON
// document. The client keeps it most-recent-first and replaces it wholesale on
// every sync; there is no per-todo diffing server-side.
type TodoList []Todo

// Value implements driver.Valuer.
func (l TodoList) Value() (driver.Value, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(l)
}

// Scan implements sql.Scanner.
func (l *TodoList) Scan(value any) error {
	if value == nil {
		*l = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return fmt.Errorf("domain.TodoList: unsupported scan type %T", value)
	}
}

// Settings is the flat per-device settings record. Like todos it is
// overwritten wholesale on sync; no history is retained.
type Settings struct {
	Theme          string `json:"theme"`
	VoiceEnabled   bool   `json:"voiceEnabled"`
	ImageEnabled   bool   `json:"imageEnabled"`
	HapticFeedback bool   `json:"hapticFeedback"`
	AutoSync       bool   `json:"autoSync"`
	DataRetention  string `json:"dataRetention"`
}

func DefaultSettings() Settings {
	return Settings{
		Theme:          "system",
		VoiceEnabled:   true,
		ImageEnabled:   true,
		HapticFeedback: true,
		AutoSync:       true,
		DataRetention:  "forever",
	}
}

// Value implements driver.Valuer.
func (s Settings) Value() (driver.Value, error) {
	return json.Marshal(s)
}

// Scan implements sql.Scanner.
func (s *Settings) Scan(value any) error {
	if value == nil {
		*s = Settings{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	default:
		return fmt.Errorf("domain.Settings: unsupported scan type %T", value)
	}
}

// DeviceRecord is the single durable document per device id. CreatedAt is set
// once on first insert and never overwritten; LastAccessed moves on every
// successful update.
type DeviceRecord struct {
	DeviceID     string    `gorm:"primaryKey;type:text" json:"deviceId"`
	Todos        TodoList  `gorm:"type:jsonb;not null" json:"todos"`
	Settings     Settings  `gorm:"type:jsonb;not null" json:"settings"`
	CreatedAt    time.Time `gorm:"not null" json:"createdAt"`
	LastAccessed time.Time `gorm:"not null" json:"lastAccessed"`
}

// DataUsage is derived on demand from a DeviceRecord snapshot; it is never
// persisted.
type DataUsage struct {
	TotalTodos      int       `json:"totalTodos"`
	TotalImages     int       `json:"totalImages"`
	TotalAudioFiles int       `json:"totalAudioFiles"`
	StorageUsed     string    `json:"storageUsed"`
	LastSync        time.Time `json:"lastSync"`
}
