package todoclient

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"voicetodo/internal/domain"
)

func quietSettings() domain.Settings {
	s := domain.DefaultSettings()
	s.AutoSync = false
	return s
}

func TestAddTodoLocalFirst(t *testing.T) {
	// Server is gone; adds must still commit locally.
	srv := httptest.NewServer(nil)
	srv.Close()

	store := NewStore(StoreConfig{
		DeviceID: "dev-local",
		Client:   NewClient(srv.URL, time.Second),
	})

	todo := store.AddTodo(context.Background(), TodoInput{Text: "survive outage", CreatedVia: domain.ViaText})
	if todo.ID == "" || !strings.HasPrefix(todo.ID, "todo_") {
		t.Fatalf("unexpected todo id %q", todo.ID)
	}
	if todo.DeviceID != "dev-local" {
		t.Fatalf("todo not stamped with device id: %+v", todo)
	}

	todos := store.Todos()
	if len(todos) != 1 || todos[0].Text != "survive outage" {
		t.Fatalf("todo not committed locally: %+v", todos)
	}
}

func TestAddTodoSyncsToBackend(t *testing.T) {
	backend, client := newBackendServer(t)

	store := NewStore(StoreConfig{DeviceID: "dev-sync", Client: client})

	store.AddTodo(context.Background(), TodoInput{Text: "push me", CreatedVia: domain.ViaText})

	backend.mu.Lock()
	rec := backend.records["dev-sync"]
	backend.mu.Unlock()
	if rec == nil || len(rec.Todos) != 1 || rec.Todos[0].Text != "push me" {
		t.Fatalf("backend not updated: %+v", rec)
	}
	if store.LastSync().IsZero() {
		t.Fatalf("expected lastSync to be recorded")
	}
}

func TestAddTodoMostRecentFirst(t *testing.T) {
	store := NewStore(StoreConfig{DeviceID: "dev-order", Settings: quietSettings()})

	store.AddTodo(context.Background(), TodoInput{Text: "first"})
	store.AddTodo(context.Background(), TodoInput{Text: "second"})

	todos := store.Todos()
	if len(todos) != 2 || todos[0].Text != "second" || todos[1].Text != "first" {
		t.Fatalf("expected most-recent-first ordering, got %+v", todos)
	}
}

func TestUpdateTodoUnknownIDIsNoop(t *testing.T) {
	store := NewStore(StoreConfig{DeviceID: "dev-upd", Settings: quietSettings()})

	completed := true
	if err := store.UpdateTodo(context.Background(), TodoUpdate{ID: "missing", Completed: &completed}); err != nil {
		t.Fatalf("expected silent no-op, got %v", err)
	}
}

func TestToggleAndClearCompleted(t *testing.T) {
	store := NewStore(StoreConfig{DeviceID: "dev-clear", Settings: quietSettings()})

	a := store.AddTodo(context.Background(), TodoInput{Text: "keep me"})
	b := store.AddTodo(context.Background(), TodoInput{Text: "finish me"})
	c := store.AddTodo(context.Background(), TodoInput{Text: "finish me too"})

	if err := store.ToggleTodo(context.Background(), b.ID); err != nil {
		t.Fatalf("toggle b: %v", err)
	}
	if err := store.ToggleTodo(context.Background(), c.ID); err != nil {
		t.Fatalf("toggle c: %v", err)
	}

	total, completed, active := store.Counts()
	if total != 3 || completed != 2 || active != 1 {
		t.Fatalf("unexpected counts: total=%d completed=%d active=%d", total, completed, active)
	}

	if err := store.ClearCompleted(context.Background()); err != nil {
		t.Fatalf("clear completed: %v", err)
	}

	todos := store.Todos()
	if len(todos) != 1 || todos[0].ID != a.ID {
		t.Fatalf("expected only the active todo to remain, got %+v", todos)
	}
}

func TestLoadTodosHydratesFromBackend(t *testing.T) {
	backend, client := newBackendServer(t)

	backend.mu.Lock()
	backend.records["dev-load"] = &domain.DeviceRecord{
		DeviceID: "dev-load",
		Todos: domain.TodoList{
			{ID: "remote-1", Text: "from the server", DeviceID: "dev-load"},
		},
		Settings:     domain.Settings{Theme: "dark", AutoSync: true, DataRetention: "30d"},
		CreatedAt:    time.Now().UTC(),
		LastAccessed: time.Now().UTC(),
	}
	backend.mu.Unlock()

	store := NewStore(StoreConfig{DeviceID: "dev-load", Client: client})
	if err := store.LoadTodos(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}

	todos := store.Todos()
	if len(todos) != 1 || todos[0].ID != "remote-1" {
		t.Fatalf("local state not hydrated: %+v", todos)
	}
	if store.Settings().Theme != "dark" {
		t.Fatalf("settings not hydrated: %+v", store.Settings())
	}
}

func TestLoadTodosNeverSyncedDevice(t *testing.T) {
	_, client := newBackendServer(t)

	store := NewStore(StoreConfig{DeviceID: "dev-fresh", Client: client})
	if err := store.LoadTodos(context.Background()); err != nil {
		t.Fatalf("load for fresh device should be clean: %v", err)
	}
	if len(store.Todos()) != 0 {
		t.Fatalf("expected empty state, got %+v", store.Todos())
	}
}

func TestSyncTodosDropsConcurrentCall(t *testing.T) {
	backend := newFakeBackend()
	backend.updateStarted = make(chan struct{})
	backend.updateRelease = make(chan struct{})

	srv := httptest.NewServer(backend.handler())
	defer srv.Close()

	store := NewStore(StoreConfig{
		DeviceID: "dev-conc",
		Client:   NewClient(srv.URL, 5*time.Second),
		Settings: quietSettings(),
	})
	store.AddTodo(context.Background(), TodoInput{Text: "racy"})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := store.SyncTodos(context.Background()); err != nil {
			t.Errorf("first sync: %v", err)
		}
	}()

	// Wait until the first sync is holding the wire, then try a second one.
	<-backend.updateStarted
	if err := store.SyncTodos(context.Background()); err != nil {
		t.Fatalf("second sync should be a dropped no-op, got %v", err)
	}

	close(backend.updateRelease)
	wg.Wait()

	if got := backend.updateCount(); got != 1 {
		t.Fatalf("expected exactly one update request, got %d", got)
	}
}

func TestSearchTodos(t *testing.T) {
	store := NewStore(StoreConfig{DeviceID: "dev-search", Settings: quietSettings()})

	store.AddTodo(context.Background(), TodoInput{Text: "Buy MILK"})
	store.AddTodo(context.Background(), TodoInput{Text: "walk the dog"})
	store.AddTodo(context.Background(), TodoInput{Text: "buy bread"})

	if got := store.SearchTodos("buy"); len(got) != 2 {
		t.Fatalf("expected 2 matches for 'buy', got %d", len(got))
	}
	if got := store.SearchTodos("  MILK "); len(got) != 1 {
		t.Fatalf("expected 1 match for 'MILK', got %d", len(got))
	}
	if got := store.SearchTodos(""); len(got) != 3 {
		t.Fatalf("blank query should return everything, got %d", len(got))
	}
}

func TestTodosByDateRange(t *testing.T) {
	store := NewStore(StoreConfig{DeviceID: "dev-range", Settings: quietSettings()})

	store.AddTodo(context.Background(), TodoInput{Text: "today"})

	now := time.Now().UTC()
	if got := store.TodosByDateRange(now.Add(-time.Hour), now.Add(time.Hour)); len(got) != 1 {
		t.Fatalf("expected todo inside range, got %d", len(got))
	}
	if got := store.TodosByDateRange(now.Add(time.Hour), now.Add(2*time.Hour)); len(got) != 0 {
		t.Fatalf("expected nothing outside range, got %d", len(got))
	}
}

func TestCountsByChannel(t *testing.T) {
	store := NewStore(StoreConfig{DeviceID: "dev-chan", Settings: quietSettings()})

	store.AddTodo(context.Background(), TodoInput{Text: "typed", CreatedVia: domain.ViaText})
	store.AddTodo(context.Background(), TodoInput{Text: "spoken", CreatedVia: domain.ViaVoice})
	store.AddTodo(context.Background(), TodoInput{Text: "spoken too", CreatedVia: domain.ViaVoice})

	counts := store.CountsByChannel()
	if counts[domain.ViaText] != 1 || counts[domain.ViaVoice] != 2 {
		t.Fatalf("unexpected channel counts: %+v", counts)
	}
}

func TestHapticHookRespectsSetting(t *testing.T) {
	var fired []HapticStrength
	cfg := StoreConfig{
		DeviceID: "dev-haptic",
		Settings: quietSettings(),
		Haptic:   func(s HapticStrength) { fired = append(fired, s) },
	}
	cfg.Settings.HapticFeedback = true

	store := NewStore(cfg)
	todo := store.AddTodo(context.Background(), TodoInput{Text: "tap"})
	if err := store.DeleteTodo(context.Background(), todo.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(fired) != 2 || fired[0] != HapticLight || fired[1] != HapticHeavy {
		t.Fatalf("unexpected haptic sequence: %v", fired)
	}

	// Disabled feedback silences the hook.
	settings := store.Settings()
	settings.HapticFeedback = false
	if err := store.SetSettings(context.Background(), settings); err != nil {
		t.Fatalf("set settings: %v", err)
	}
	store.AddTodo(context.Background(), TodoInput{Text: "silent"})
	if len(fired) != 2 {
		t.Fatalf("haptic fired while disabled: %v", fired)
	}
}

func TestResetAllData(t *testing.T) {
	backend, client := newBackendServer(t)
	statePath := filepath.Join(t.TempDir(), "device-id")

	if err := StoreDeviceID(statePath, "dev-reset"); err != nil {
		t.Fatalf("store id: %v", err)
	}

	store := NewStore(StoreConfig{DeviceID: "dev-reset", StatePath: statePath, Client: client})
	store.AddTodo(context.Background(), TodoInput{Text: "doomed"})

	if err := store.ResetAllData(context.Background()); err != nil {
		t.Fatalf("reset: %v", err)
	}

	if len(store.Todos()) != 0 {
		t.Fatalf("local todos survived reset: %+v", store.Todos())
	}
	if store.DeviceID() != "" {
		t.Fatalf("device id survived reset: %q", store.DeviceID())
	}
	if store.Settings() != domain.DefaultSettings() {
		t.Fatalf("settings not restored to defaults: %+v", store.Settings())
	}

	backend.mu.Lock()
	_, exists := backend.records["dev-reset"]
	backend.mu.Unlock()
	if exists {
		t.Fatalf("backend record survived reset")
	}

	id, err := StoredDeviceID(statePath)
	if err != nil {
		t.Fatalf("stored id: %v", err)
	}
	if id != "" {
		t.Fatalf("identity file survived reset: %q", id)
	}
}

func TestExportLocalState(t *testing.T) {
	store := NewStore(StoreConfig{DeviceID: "0123456789abcdef", Settings: quietSettings()})
	store.AddTodo(context.Background(), TodoInput{Text: "export me"})

	doc, err := store.Export()
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	out := string(doc)
	if !strings.Contains(out, "export me") {
		t.Fatalf("export missing todo: %s", out)
	}
	// Full device id must not leak into exports.
	if strings.Contains(out, "0123456789abcdef") {
		t.Fatalf("export leaked full device id: %s", out)
	}
	if !strings.Contains(out, "01234567...") {
		t.Fatalf("export missing shortened device id: %s", out)
	}
}
