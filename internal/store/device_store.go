package store

import (
	"context"
	"errors"

	"voicetodo/internal/domain"

	"gorm.io/gorm"
)

type DeviceStore struct{ s *Store }

func (s *Store) Devices() *DeviceStore { return &DeviceStore{s: s} }

func (d *DeviceStore) Get(ctx context.Context, deviceID string) (*domain.DeviceRecord, error) {
	var rec domain.DeviceRecord
	if err := d.s.DB.WithContext(ctx).First(&rec, "device_id = ?", deviceID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return &rec, nil
}

// Upsert performs an insert-if-absent-else-replace keyed by device id.
// CreatedAt is preserved on updates; only todos, settings and last_accessed
// are replaced. The read-check-write runs in one transaction so concurrent
// upserts for the same device cannot race the set-on-insert timestamp.
// Returns true when the record was newly inserted.
func (d *DeviceStore) Upsert(ctx context.Context, rec *domain.DeviceRecord) (bool, error) {
	inserted := false
	err := d.s.WithTx(ctx, func(tx *Store) error {
		var existing domain.DeviceRecord
		err := tx.DB.Select("device_id", "created_at").First(&existing, "device_id = ?", rec.DeviceID).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			inserted = true
			return tx.DB.Create(rec).Error
		case err != nil:
			return err
		}
		rec.CreatedAt = existing.CreatedAt
		return tx.DB.Model(&domain.DeviceRecord{}).
			Where("device_id = ?", rec.DeviceID).
			Updates(map[string]any{
				"todos":         rec.Todos,
				"settings":      rec.Settings,
				"last_accessed": rec.LastAccessed,
			}).Error
	})
	return inserted, err
}

// Delete removes the record if present. Deleting an unknown device id is not
// an error; the bool reports whether a row actually went away.
func (d *DeviceStore) Delete(ctx context.Context, deviceID string) (bool, error) {
	res := d.s.DB.WithContext(ctx).Delete(&domain.DeviceRecord{}, "device_id = ?", deviceID)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
