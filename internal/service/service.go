package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"voicetodo/internal/domain"
	"voicetodo/internal/store"
)

// Per-item byte heuristic for the storage estimate; these are not actual
// attachment sizes.
const (
	bytesPerTodo  = 100
	bytesPerImage = 50_000
	bytesPerAudio = 100_000
)

type Service struct {
	store        *store.Store
	now          func() time.Time
	queryTimeout time.Duration
}

func New(st *store.Store, queryTimeout time.Duration) *Service {
	if queryTimeout <= 0 {
		queryTimeout = 5 * time.Second
	}
	return &Service{store: st, now: time.Now, queryTimeout: queryTimeout}
}

// opCtx bounds a single database operation. Exceeding the bound surfaces as
// ErrTimeout via classify.
func (s *Service) opCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.queryTimeout)
}

func (s *Service) Get(ctx context.Context, deviceID string) (*domain.DeviceRecord, error) {
	if deviceID == "" {
		return nil, fmt.Errorf("%w: device id is required", ErrInvalidRequest)
	}
	cctx, cancel := s.opCtx(ctx)
	defer cancel()
	rec, err := s.store.Devices().Get(cctx, deviceID)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, ErrDeviceNotFound
		}
		return nil, classify(err)
	}
	return rec, nil
}

type UpsertInput struct {
	DeviceID string
	Todos    domain.TodoList
	Settings domain.Settings
}

type UpsertResult struct {
	Upserted bool
	Modified bool
}

// Upsert replaces todos, settings and lastAccessed wholesale; createdAt is
// set only on a true insert and never overwritten afterwards.
func (s *Service) Upsert(ctx context.Context, in UpsertInput) (UpsertResult, error) {
	if in.DeviceID == "" {
		return UpsertResult{}, fmt.Errorf("%w: device id is required", ErrInvalidRequest)
	}
	now := s.now().UTC()
	todos := in.Todos
	if todos == nil {
		todos = domain.TodoList{}
	}
	rec := &domain.DeviceRecord{
		DeviceID:     in.DeviceID,
		Todos:        todos,
		Settings:     in.Settings,
		CreatedAt:    now,
		LastAccessed: now,
	}
	cctx, cancel := s.opCtx(ctx)
	defer cancel()
	inserted, err := s.store.Devices().Upsert(cctx, rec)
	if err != nil {
		return UpsertResult{}, classify(err)
	}
	return UpsertResult{Upserted: inserted, Modified: !inserted}, nil
}

func (s *Service) Delete(ctx context.Context, deviceID string) (bool, error) {
	if deviceID == "" {
		return false, fmt.Errorf("%w: device id is required", ErrInvalidRequest)
	}
	cctx, cancel := s.opCtx(ctx)
	defer cancel()
	deleted, err := s.store.Devices().Delete(cctx, deviceID)
	if err != nil {
		return false, classify(err)
	}
	return deleted, nil
}

// Usage computes the derived usage snapshot. Unknown devices get a zeroed
// snapshot with the current time as lastSync rather than an error.
func (s *Service) Usage(ctx context.Context, deviceID string) (domain.DataUsage, error) {
	rec, err := s.Get(ctx, deviceID)
	if err != nil {
		if errors.Is(err, ErrDeviceNotFound) {
			return domain.DataUsage{StorageUsed: "0 KB", LastSync: s.now().UTC()}, nil
		}
		return domain.DataUsage{}, err
	}

	var images, audio int
	for _, todo := range rec.Todos {
		if todo.ImageURL != "" {
			images++
		}
		if todo.AudioURL != "" {
			audio++
		}
	}
	estimated := int64(len(rec.Todos))*bytesPerTodo +
		int64(images)*bytesPerImage +
		int64(audio)*bytesPerAudio

	return domain.DataUsage{
		TotalTodos:      len(rec.Todos),
		TotalImages:     images,
		TotalAudioFiles: audio,
		StorageUsed:     FormatBytes(estimated),
		LastSync:        rec.LastAccessed,
	}, nil
}

// Export renders the full record as an indented JSON document suitable for a
// file download.
func (s *Service) Export(ctx context.Context, deviceID string) ([]byte, error) {
	rec, err := s.Get(ctx, deviceID)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(rec, "", "  ")
}
