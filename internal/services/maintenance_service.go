// Package services – MaintenanceService
//
// This file implements the service history of a car: listing, recording and
// removing maintenance entries. Records always belong to an existing car and
// disappear with it.
package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/AtharvaManchalkar/DriveOps/internal/domain"
	"github.com/AtharvaManchalkar/DriveOps/internal/repo"
)

// MaintenanceRepo defines the repository contract required by
// MaintenanceService.
type MaintenanceRepo interface {
	GetCar(ctx context.Context, db *gorm.DB, id string) (*domain.Car, error)
	ListMaintenance(ctx context.Context, db *gorm.DB, carID string) ([]domain.MaintenanceRecord, error)
	CreateMaintenance(ctx context.Context, db *gorm.DB, rec *domain.MaintenanceRecord) (*domain.MaintenanceRecord, error)
	DeleteMaintenance(ctx context.Context, db *gorm.DB, carID, id string) error
}

// MaintenanceInput is a new service entry as submitted by a client.
type MaintenanceInput struct {
	Title           string   `json:"title"`
	Date            string   `json:"date"` // YYYY-MM-DD or RFC 3339
	Mileage         *int     `json:"mileage"`
	Cost            *float64 `json:"cost"`
	ServiceType     string   `json:"serviceType"`
	Description     string   `json:"description"`
	PartsReplaced   []string `json:"partsReplaced"`
	ServiceProvider string   `json:"serviceProvider"`
}

// MaintenanceService manages maintenance records.
type MaintenanceService struct {
	DB   *gorm.DB
	Repo MaintenanceRepo
}

// List returns a car's history, newest first.
func (s *MaintenanceService) List(ctx context.Context, carID string) ([]domain.MaintenanceRecord, error) {
	tr := otel.Tracer("services/MaintenanceService")
	ctx, span := tr.Start(ctx, "List", trace.WithAttributes(attribute.String("car.id", carID)))
	defer span.End()

	if err := s.ensureCar(ctx, carID); err != nil {
		return nil, err
	}
	recs, err := s.Repo.ListMaintenance(ctx, s.DB, carID)
	if err != nil {
		return nil, storeErr(err)
	}
	return recs, nil
}

// Create validates in and records it against carID.
func (s *MaintenanceService) Create(ctx context.Context, carID string, in MaintenanceInput) (*domain.MaintenanceRecord, error) {
	tr := otel.Tracer("services/MaintenanceService")
	ctx, span := tr.Start(ctx, "Create", trace.WithAttributes(attribute.String("car.id", carID)))
	defer span.End()

	rec, err := in.record(carID)
	if err != nil {
		return nil, err
	}
	if err := s.ensureCar(ctx, carID); err != nil {
		return nil, err
	}
	out, err := s.Repo.CreateMaintenance(ctx, s.DB, rec)
	if err != nil {
		return nil, storeErr(err)
	}
	return out, nil
}

// Delete removes one record of carID.
func (s *MaintenanceService) Delete(ctx context.Context, carID, id string) error {
	tr := otel.Tracer("services/MaintenanceService")
	ctx, span := tr.Start(ctx, "Delete", trace.WithAttributes(
		attribute.String("car.id", carID),
		attribute.String("maintenance.id", id),
	))
	defer span.End()

	err := s.Repo.DeleteMaintenance(ctx, s.DB, carID, id)
	if errors.Is(err, repo.ErrNotFound) {
		return ErrMaintenanceNotFound
	}
	return storeErr(err)
}

func (s *MaintenanceService) ensureCar(ctx context.Context, carID string) error {
	_, err := s.Repo.GetCar(ctx, s.DB, carID)
	if errors.Is(err, repo.ErrNotFound) {
		return ErrCarNotFound
	}
	return storeErr(err)
}

func (in MaintenanceInput) record(carID string) (*domain.MaintenanceRecord, error) {
	bad := func(field, reason string) error {
		validationFailures.WithLabelValues("maintenance." + field).Inc()
		return &domain.ValidationError{Field: field, Reason: reason}
	}

	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, bad("title", "is required")
	}
	date, err := parseServiceDate(in.Date)
	if err != nil {
		return nil, bad("date", "must be YYYY-MM-DD or RFC 3339")
	}
	st := strings.ToLower(strings.TrimSpace(in.ServiceType))
	if st == "" {
		st = domain.ServiceMaintenance
	}
	if !domain.ValidServiceType(st) {
		return nil, bad("serviceType", "must be one of maintenance, repair, inspection, upgrade, other")
	}
	if in.Mileage != nil && *in.Mileage < 0 {
		return nil, bad("mileage", "must be >= 0")
	}
	if in.Cost != nil && *in.Cost < 0 {
		return nil, bad("cost", "must be >= 0")
	}

	var parts []string
	for _, p := range in.PartsReplaced {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return &domain.MaintenanceRecord{
		CarID:           carID,
		Title:           title,
		Date:            date,
		Mileage:         in.Mileage,
		Cost:            in.Cost,
		ServiceType:     st,
		Description:     strings.TrimSpace(in.Description),
		PartsReplaced:   parts,
		ServiceProvider: strings.TrimSpace(in.ServiceProvider),
	}, nil
}

func parseServiceDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	return t.UTC(), err
}
