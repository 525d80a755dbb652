// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Car model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
// They follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When a car is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
//
// Usage:
//
//	car, err := repo.GetCar(ctx, db, id)
//	if errors.Is(err, repo.ErrNotFound) {
//	    // handle missing
//	} else if err != nil {
//	    // handle DB failure
//	}
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/AtharvaManchalkar/DriveOps/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// CreateCar inserts car, assigning a fresh UUID. CreatedAt is kept when the
// caller already set it, otherwise it is stamped with the current UTC time.
func CreateCar(ctx context.Context, db *gorm.DB, car *domain.Car) (*domain.Car, error) {
	car.ID = uuid.NewString()
	if car.CreatedAt.IsZero() {
		car.CreatedAt = time.Now().UTC()
	}
	if err := db.WithContext(ctx).Create(car).Error; err != nil {
		return nil, err
	}
	return car, nil
}

// ListCars returns every car, most recently created first. The order is a
// convenience; callers that need a specific order sort the result.
func ListCars(ctx context.Context, db *gorm.DB) ([]domain.Car, error) {
	var out []domain.Car
	err := db.WithContext(ctx).
		Order("created_at desc").
		Find(&out).Error
	return out, err
}

// GetCar fetches a single car by ID, or ErrNotFound.
func GetCar(ctx context.Context, db *gorm.DB, id string) (*domain.Car, error) {
	var c domain.Car
	if err := db.WithContext(ctx).Where("id = ?", id).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// UpdateCar loads the car, lets mutate change it, and saves it, all inside one
// transaction. If mutate returns an error nothing is written and that error
// is returned. ID and CreatedAt are restored after mutate so they can never
// change.
func UpdateCar(ctx context.Context, db *gorm.DB, id string, mutate func(*domain.Car) error) (*domain.Car, error) {
	var out *domain.Car
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		car, err := GetCar(ctx, tx, id)
		if err != nil {
			return err
		}
		createdAt := car.CreatedAt
		if err := mutate(car); err != nil {
			return err
		}
		car.ID, car.CreatedAt = id, createdAt
		if err := tx.Save(car).Error; err != nil {
			return err
		}
		out = car
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteCar removes a car and, through the foreign key, its maintenance
// history. It returns ErrNotFound when no row matched.
func DeleteCar(ctx context.Context, db *gorm.DB, id string) error {
	res := db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Car{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
