package todoclient

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"voicetodo/internal/domain"

	"github.com/google/uuid"
)

type HapticStrength string

const (
	HapticLight  HapticStrength = "light"
	HapticMedium HapticStrength = "medium"
	HapticHeavy  HapticStrength = "heavy"
)

type TodoInput struct {
	Text          string
	CreatedVia    domain.CreationChannel
	ImageURL      string
	AudioURL      string
	AudioDuration float64
	Location      *domain.Location
}

// TodoUpdate applies only the fields that are present.
type TodoUpdate struct {
	ID        string
	Completed *bool
	Text      *string
}

type StoreConfig struct {
	DeviceID  string
	StatePath string
	Client    *Client
	Settings  domain.Settings // zero value means defaults
	Logger    *slog.Logger
	Haptic    func(HapticStrength) // optional device feedback hook
}

// Store is the in-memory authoritative state for one device's todos and
// settings. It is single-writer and local-first: mutations commit locally
// before any sync attempt, and a failed sync never rolls them back. The
// backend is a durable mirror, last-writer-wins.
type Store struct {
	stateMu   sync.Mutex
	client    *Client
	deviceID  string
	statePath string
	todos     []domain.Todo
	settings  domain.Settings
	syncing   bool
	lastSync  time.Time
	log       *slog.Logger
	haptic    func(HapticStrength)
	now       func() time.Time
}

func NewStore(cfg StoreConfig) *Store {
	settings := cfg.Settings
	if settings == (domain.Settings{}) {
		settings = domain.DefaultSettings()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		client:    cfg.Client,
		deviceID:  cfg.DeviceID,
		statePath: cfg.StatePath,
		settings:  settings,
		log:       logger,
		haptic:    cfg.Haptic,
		now:       time.Now,
	}
}

func newTodoID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
	return fmt.Sprintf("todo_%d_%s", now.UnixMilli(), suffix)
}

func (s *Store) notifyHaptic(strength HapticStrength) {
	s.stateMu.Lock()
	enabled := s.settings.HapticFeedback
	hook := s.haptic
	s.stateMu.Unlock()
	if enabled && hook != nil {
		hook(strength)
	}
}

// AddTodo inserts at the front of the sequence (most-recent-first) and, when
// auto-sync is on, attempts a push. A sync failure is logged and swallowed:
// the todo stays committed locally.
func (s *Store) AddTodo(ctx context.Context, in TodoInput) domain.Todo {
	s.stateMu.Lock()
	todo := domain.Todo{
		ID:            newTodoID(s.now()),
		Text:          in.Text,
		CreatedAt:     s.now().UTC(),
		CreatedVia:    in.CreatedVia,
		ImageURL:      in.ImageURL,
		AudioURL:      in.AudioURL,
		AudioDuration: in.AudioDuration,
		Location:      in.Location,
		DeviceID:      s.deviceID,
	}
	s.todos = append([]domain.Todo{todo}, s.todos...)
	autoSync := s.settings.AutoSync
	s.stateMu.Unlock()

	s.notifyHaptic(HapticLight)

	if autoSync {
		if err := s.SyncTodos(ctx); err != nil {
			s.log.Warn("sync failed, todo kept locally", "todo_id", todo.ID, "error", err)
		}
	}
	return todo
}

// UpdateTodo no-ops silently when the id is unknown.
func (s *Store) UpdateTodo(ctx context.Context, update TodoUpdate) error {
	s.stateMu.Lock()
	idx := s.indexOf(update.ID)
	if idx < 0 {
		s.stateMu.Unlock()
		return nil
	}
	completedNow := false
	if update.Completed != nil {
		completedNow = *update.Completed && !s.todos[idx].Completed
		s.todos[idx].Completed = *update.Completed
	}
	if update.Text != nil {
		s.todos[idx].Text = *update.Text
	}
	autoSync := s.settings.AutoSync
	s.stateMu.Unlock()

	if completedNow {
		s.notifyHaptic(HapticMedium)
	}
	if autoSync {
		return s.SyncTodos(ctx)
	}
	return nil
}

// DeleteTodo no-ops silently when the id is unknown.
func (s *Store) DeleteTodo(ctx context.Context, todoID string) error {
	s.stateMu.Lock()
	idx := s.indexOf(todoID)
	if idx < 0 {
		s.stateMu.Unlock()
		return nil
	}
	s.todos = append(s.todos[:idx], s.todos[idx+1:]...)
	autoSync := s.settings.AutoSync
	s.stateMu.Unlock()

	s.notifyHaptic(HapticHeavy)

	if autoSync {
		return s.SyncTodos(ctx)
	}
	return nil
}

func (s *Store) ToggleTodo(ctx context.Context, todoID string) error {
	s.stateMu.Lock()
	idx := s.indexOf(todoID)
	if idx < 0 {
		s.stateMu.Unlock()
		return nil
	}
	completed := !s.todos[idx].Completed
	s.stateMu.Unlock()
	return s.UpdateTodo(ctx, TodoUpdate{ID: todoID, Completed: &completed})
}

// ClearCompleted deletes every completed todo. Each deletion triggers its own
// sync attempt; the in-flight guard in SyncTodos collapses most of them.
func (s *Store) ClearCompleted(ctx context.Context) error {
	s.stateMu.Lock()
	var ids []string
	for _, todo := range s.todos {
		if todo.Completed {
			ids = append(ids, todo.ID)
		}
	}
	s.stateMu.Unlock()

	for _, id := range ids {
		if err := s.DeleteTodo(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// LoadTodos hydrates the store from the backend record. On failure the prior
// local state is left untouched; on a 404 there is simply nothing to load.
func (s *Store) LoadTodos(ctx context.Context) error {
	s.stateMu.Lock()
	deviceID := s.deviceID
	s.stateMu.Unlock()
	if deviceID == "" {
		return nil
	}

	rec, err := s.client.GetDeviceData(ctx, deviceID)
	if err != nil {
		s.log.Error("failed to load todos", "error", err)
		return err
	}
	if rec == nil {
		return nil
	}

	s.stateMu.Lock()
	s.todos = append([]domain.Todo(nil), rec.Todos...)
	s.settings = rec.Settings
	s.lastSync = s.now()
	s.stateMu.Unlock()
	return nil
}

// SyncTodos pushes the complete current state. A sync already in flight makes
// the call a no-op: the second attempt is dropped, not queued. This is the
// only concurrency control in the whole system; it is safe because each sync
// pushes the full state, not a delta.
func (s *Store) SyncTodos(ctx context.Context) error {
	s.stateMu.Lock()
	if s.deviceID == "" || s.syncing {
		s.stateMu.Unlock()
		return nil
	}
	s.syncing = true
	deviceID := s.deviceID
	todos := append(domain.TodoList(nil), s.todos...)
	settings := s.settings
	s.stateMu.Unlock()

	err := s.client.UpdateDeviceData(ctx, deviceID, todos, settings)

	s.stateMu.Lock()
	s.syncing = false
	if err == nil {
		s.lastSync = s.now()
	}
	s.stateMu.Unlock()

	if err != nil {
		return fmt.Errorf("todoclient: sync: %w", err)
	}
	return nil
}

// ResetAllData deletes the backend record, clears local state, restores
// default settings and drops the persisted device identity.
func (s *Store) ResetAllData(ctx context.Context) error {
	s.stateMu.Lock()
	deviceID := s.deviceID
	statePath := s.statePath
	s.stateMu.Unlock()
	if deviceID == "" {
		return nil
	}

	if err := s.client.DeleteDeviceData(ctx, deviceID); err != nil {
		s.log.Error("failed to reset data", "error", err)
		return err
	}
	if statePath != "" {
		if err := ResetDeviceID(statePath); err != nil {
			s.log.Warn("failed to remove device identity file", "error", err)
		}
	}

	s.stateMu.Lock()
	s.todos = nil
	s.settings = domain.DefaultSettings()
	s.deviceID = ""
	s.lastSync = time.Time{}
	s.stateMu.Unlock()
	return nil
}

// SearchTodos is a pure read-side filter: case-insensitive substring match.
// A blank query returns the full sequence.
func (s *Store) SearchTodos(query string) []domain.Todo {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()

	term := strings.ToLower(strings.TrimSpace(query))
	if term == "" {
		return append([]domain.Todo(nil), s.todos...)
	}
	var out []domain.Todo
	for _, todo := range s.todos {
		if strings.Contains(strings.ToLower(todo.Text), term) {
			out = append(out, todo)
		}
	}
	return out
}

// TodosByDateRange returns todos created within [start, end], inclusive.
func (s *Store) TodosByDateRange(start, end time.Time) []domain.Todo {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()

	var out []domain.Todo
	for _, todo := range s.todos {
		if !todo.CreatedAt.Before(start) && !todo.CreatedAt.After(end) {
			out = append(out, todo)
		}
	}
	return out
}

// Export renders the local state as an indented JSON document.
func (s *Store) Export() ([]byte, error) {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()

	return json.MarshalIndent(struct {
		Todos      []domain.Todo   `json:"todos"`
		Settings   domain.Settings `json:"settings"`
		ExportedAt time.Time       `json:"exportedAt"`
		DeviceID   string          `json:"deviceId"`
	}{
		Todos:      s.todos,
		Settings:   s.settings,
		ExportedAt: s.now().UTC(),
		DeviceID:   shortID(s.deviceID),
	}, "", "  ")
}

func (s *Store) Todos() []domain.Todo {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	return append([]domain.Todo(nil), s.todos...)
}

func (s *Store) Settings() domain.Settings {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	return s.settings
}

// SetSettings replaces the settings wholesale, mirroring the sync contract.
func (s *Store) SetSettings(ctx context.Context, settings domain.Settings) error {
	s.stateMu.Lock()
	s.settings = settings
	autoSync := settings.AutoSync
	s.stateMu.Unlock()

	if autoSync {
		return s.SyncTodos(ctx)
	}
	return nil
}

func (s *Store) LastSync() time.Time {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	return s.lastSync
}

func (s *Store) DeviceID() string {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	return s.deviceID
}

func (s *Store) DeviceIDShort() string {
	return shortID(s.DeviceID())
}

// Counts reports totals plus completed/active split.
func (s *Store) Counts() (total, completed, active int) {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	for _, todo := range s.todos {
		if todo.Completed {
			completed++
		}
	}
	return len(s.todos), completed, len(s.todos) - completed
}

// CountsByChannel tallies todos by their creation channel.
func (s *Store) CountsByChannel() map[domain.CreationChannel]int {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	out := make(map[domain.CreationChannel]int)
	for _, todo := range s.todos {
		out[todo.CreatedVia]++
	}
	return out
}

func (s *Store) indexOf(todoID string) int {
	for i, todo := range s.todos {
		if todo.ID == todoID {
			return i
		}
	}
	return -1
}

func shortID(id string) string {
	if id == "" {
		return ""
	}
	if len(id) <= 8 {
		return id
	}
	return id[:8] + "..."
}
