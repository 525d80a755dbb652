package repo

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/AtharvaManchalkar/DriveOps/internal/domain"
)

// CreateMaintenance inserts a maintenance record for rec.CarID with a fresh ID.
func CreateMaintenance(ctx context.Context, db *gorm.DB, rec *domain.MaintenanceRecord) (*domain.MaintenanceRecord, error) {
	rec.ID = uuid.NewString()
	if err := db.WithContext(ctx).Omit("Car").Create(rec).Error; err != nil {
		return nil, err
	}
	return rec, nil
}

// ListMaintenance returns a car's maintenance history, newest service first.
func ListMaintenance(ctx context.Context, db *gorm.DB, carID string) ([]domain.MaintenanceRecord, error) {
	var out []domain.MaintenanceRecord
	err := db.WithContext(ctx).
		Where("car_id = ?", carID).
		Order("date desc").
		Order("created_at desc").
		Find(&out).Error
	return out, err
}

// DeleteMaintenance removes one record belonging to carID, or returns
// ErrNotFound.
func DeleteMaintenance(ctx context.Context, db *gorm.DB, carID, id string) error {
	res := db.WithContext(ctx).
		Where("id = ? AND car_id = ?", id, carID).
		Delete(&domain.MaintenanceRecord{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
