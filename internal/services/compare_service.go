// Package services – CompareService
//
// This file wraps a compare.Store with the rules the API enforces on
// comparison selections: only existing cars can be selected, deleted cars
// fall out of a selection the next time it is read, and a full selection is
// reported as ErrSelectionFull.
package services

import (
	"context"
	"errors"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/AtharvaManchalkar/DriveOps/internal/compare"
	"github.com/AtharvaManchalkar/DriveOps/internal/domain"
)

// CarLookup finds a car by ID; CarService satisfies it.
type CarLookup interface {
	Get(ctx context.Context, id string) (*domain.Car, error)
}

// CompareService manages per-owner comparison selections.
type CompareService struct {
	Store compare.Store
	Cars  CarLookup
}

// Selection is an owner's current selection and its cap.
type Selection struct {
	IDs []string `json:"ids"`
	Cap int      `json:"cap"`
}

func (s *CompareService) selection(ids []string) *Selection {
	if ids == nil {
		ids = []string{}
	}
	return &Selection{IDs: ids, Cap: s.Store.Cap()}
}

// Get returns owner's selection. Cars deleted since they were selected are
// dropped from the stored selection before it is returned.
func (s *CompareService) Get(ctx context.Context, owner string) (*Selection, error) {
	ids, err := s.Store.Get(ctx, owner)
	if err != nil {
		return nil, storeErr(err)
	}
	live, err := s.existing(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(live) == len(ids) {
		return s.selection(ids), nil
	}
	out, err := s.Store.Replace(ctx, owner, live)
	return s.result(out, err)
}

// existing filters ids down to cars that are still stored.
func (s *CompareService) existing(ctx context.Context, ids []string) ([]string, error) {
	live := make([]string, 0, len(ids))
	for _, id := range ids {
		_, err := s.Cars.Get(ctx, id)
		switch {
		case errors.Is(err, ErrCarNotFound):
		case err != nil:
			return nil, err
		default:
			live = append(live, id)
		}
	}
	return live, nil
}

// Subscribe streams owner's selection after every change until ctx ends.
// The returned channel is closed when the underlying subscription ends.
func (s *CompareService) Subscribe(ctx context.Context, owner string) (<-chan *Selection, error) {
	in, err := s.Store.Subscribe(ctx, owner)
	if err != nil {
		return nil, storeErr(err)
	}
	out := make(chan *Selection, 1)
	go func() {
		defer close(out)
		for ids := range in {
			select {
			case out <- s.selection(ids):
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// Replace sets owner's selection after checking every car exists.
func (s *CompareService) Replace(ctx context.Context, owner string, ids []string) (*Selection, error) {
	tr := otel.Tracer("services/CompareService")
	ctx, span := tr.Start(ctx, "Replace", trace.WithAttributes(
		attribute.String("owner", owner),
		attribute.Int("ids", len(ids)),
	))
	defer span.End()

	ids = uniqueIDs(ids)
	if len(ids) > s.Store.Cap() {
		return nil, ErrSelectionFull
	}
	for _, id := range ids {
		if _, err := s.Cars.Get(ctx, id); err != nil {
			return nil, err
		}
	}
	out, err := s.Store.Replace(ctx, owner, ids)
	return s.result(out, err)
}

// Toggle adds id to owner's selection, or removes it when already selected.
// Removing never requires the car to still exist.
func (s *CompareService) Toggle(ctx context.Context, owner, id string) (*Selection, error) {
	tr := otel.Tracer("services/CompareService")
	ctx, span := tr.Start(ctx, "Toggle", trace.WithAttributes(
		attribute.String("owner", owner),
		attribute.String("car.id", id),
	))
	defer span.End()

	id = strings.TrimSpace(id)
	if id == "" {
		return nil, &domain.ValidationError{Field: "id", Reason: "is required"}
	}
	cur, err := s.Store.Get(ctx, owner)
	if err != nil {
		return nil, storeErr(err)
	}
	if !contains(cur, id) {
		if _, err := s.Cars.Get(ctx, id); err != nil {
			return nil, err
		}
	}
	out, err := s.Store.Toggle(ctx, owner, id)
	return s.result(out, err)
}

// Clear empties owner's selection.
func (s *CompareService) Clear(ctx context.Context, owner string) error {
	return storeErr(s.Store.Clear(ctx, owner))
}

func (s *CompareService) result(ids []string, err error) (*Selection, error) {
	if errors.Is(err, compare.ErrFull) {
		return nil, ErrSelectionFull
	}
	if err != nil {
		return nil, storeErr(err)
	}
	return s.selection(ids), nil
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
