// Package services – CarService
//
// This file implements CarService, which owns the lifecycle of car records.
// Submissions are normalized and validated before anything touches the
// store; updates are merged onto the stored record inside one transaction.
// Listing, comparison, facets and the dashboard are computed from the
// stored records with the pure functions in package inventory.
//
// Observability: public methods open OpenTelemetry spans, successful writes
// and validation failures are counted in Prometheus, and dropped optional
// fields are logged at warn level.
package services

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/AtharvaManchalkar/DriveOps/internal/compare"
	"github.com/AtharvaManchalkar/DriveOps/internal/domain"
	"github.com/AtharvaManchalkar/DriveOps/internal/inventory"
	"github.com/AtharvaManchalkar/DriveOps/internal/normalize"
	"github.com/AtharvaManchalkar/DriveOps/internal/repo"
	"github.com/AtharvaManchalkar/DriveOps/internal/utils"
)

// idempotencyScopeCars scopes Idempotency-Key replays of car creation.
const idempotencyScopeCars = "cars"

// CarRepo defines the repository contract required by CarService.
type CarRepo interface {
	// CreateCar inserts a car and assigns its ID.
	CreateCar(ctx context.Context, db *gorm.DB, car *domain.Car) (*domain.Car, error)
	// ListCars returns every stored car.
	ListCars(ctx context.Context, db *gorm.DB) ([]domain.Car, error)
	// GetCar fetches one car or returns repo.ErrNotFound.
	GetCar(ctx context.Context, db *gorm.DB, id string) (*domain.Car, error)
	// UpdateCar loads, mutates and saves a car in one transaction.
	UpdateCar(ctx context.Context, db *gorm.DB, id string, mutate func(*domain.Car) error) (*domain.Car, error)
	// DeleteCar removes a car or returns repo.ErrNotFound.
	DeleteCar(ctx context.Context, db *gorm.DB, id string) error
	// CarsStats returns the car count and the latest UpdatedAt.
	CarsStats(ctx context.Context, db *gorm.DB) (int64, *time.Time, error)
}

// IdempotencyRepo records which resource a retried request already created.
type IdempotencyRepo interface {
	GetIdempotency(ctx context.Context, db *gorm.DB, userID, scope, key string, now time.Time) (*domain.Idempotency, error)
	CreateIdempotency(ctx context.Context, db *gorm.DB, userID, scope, key, resourceID string, status int, ttl time.Duration) (*domain.Idempotency, error)
}

// ImageRemover deletes stored image files by reference.
type ImageRemover interface {
	Remove(refs []string)
}

// CarService provides car record operations.
type CarService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the car repository used by this service.
	Repo CarRepo

	// Idem enables Idempotency-Key replays of Create when set.
	Idem    IdempotencyRepo
	IdemTTL time.Duration

	// Images, when set, removes files that end up unreferenced: uploads of a
	// rejected submission, images replaced by an update, and images of a
	// deleted car.
	Images ImageRemover

	// CompareCap is the maximum number of cars in one comparison.
	CompareCap int

	now func() time.Time
}

// NewCarService constructs a CarService with default limits.
func NewCarService(db *gorm.DB, r CarRepo) *CarService {
	return &CarService{
		DB:         db,
		Repo:       r,
		IdemTTL:    24 * time.Hour,
		CompareCap: compare.DefaultCap,
		now:        time.Now,
	}
}

func (s *CarService) tracer() trace.Tracer { return otel.Tracer("services/CarService") }

// Create normalizes a submission into a new car and stores it. images are
// the references of files already saved for this request; they are removed
// again if the car is not written.
func (s *CarService) Create(ctx context.Context, in normalize.Input, images []string) (*domain.Car, error) {
	ctx, span := s.tracer().Start(ctx, "Create",
		trace.WithAttributes(attribute.Int("images", len(images))),
	)
	defer span.End()

	car, dropped, err := normalize.Create(in, images, s.now())
	if err != nil {
		s.rejected(images, err)
		return nil, err
	}
	logDropped(ctx, "", dropped)

	created, err := s.Repo.CreateCar(ctx, s.DB, car)
	if err != nil {
		s.removeImages(images)
		return nil, storeErr(err)
	}
	carMutations.WithLabelValues("create").Inc()
	return created, nil
}

// Get returns one car.
func (s *CarService) Get(ctx context.Context, id string) (*domain.Car, error) {
	ctx, span := s.tracer().Start(ctx, "Get",
		trace.WithAttributes(attribute.String("car.id", id)),
	)
	defer span.End()

	car, err := s.Repo.GetCar(ctx, s.DB, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrCarNotFound
	}
	if err != nil {
		return nil, storeErr(err)
	}
	return car, nil
}

// List returns the cars matching f, ordered by key. An unknown key keeps the
// store order (newest first).
func (s *CarService) List(ctx context.Context, f inventory.Filter, key inventory.SortKey) ([]domain.Car, error) {
	ctx, span := s.tracer().Start(ctx, "List",
		trace.WithAttributes(
			attribute.Bool("filtered", !f.IsZero()),
			attribute.String("sort", string(key)),
		),
	)
	defer span.End()

	cars, err := s.Repo.ListCars(ctx, s.DB)
	if err != nil {
		return nil, storeErr(err)
	}
	out := inventory.Apply(cars, f)
	inventory.Sort(out, key)
	return out, nil
}

// ListPage is List followed by pagination. It returns the page and the
// number of matching cars.
func (s *CarService) ListPage(ctx context.Context, f inventory.Filter, key inventory.SortKey, page, pageSize int) ([]domain.Car, int64, error) {
	if pageSize <= 0 {
		pageSize = 20
	}
	cars, err := s.List(ctx, f, key)
	if err != nil {
		return nil, 0, err
	}
	return utils.Paginate(cars, page, pageSize), int64(len(cars)), nil
}

// Stats returns the car count and latest modification time, for ETags.
func (s *CarService) Stats(ctx context.Context) (int64, *time.Time, error) {
	n, at, err := s.Repo.CarsStats(ctx, s.DB)
	return n, at, storeErr(err)
}

// Update merges a partial submission onto the stored car. Fields absent from
// in are kept; the merged record is validated before it is saved.
func (s *CarService) Update(ctx context.Context, id string, in normalize.Input, images []string) (*domain.Car, error) {
	ctx, span := s.tracer().Start(ctx, "Update",
		trace.WithAttributes(
			attribute.String("car.id", id),
			attribute.Int("images", len(images)),
		),
	)
	defer span.End()

	patch, dropped, err := normalize.Patch(in, images)
	if err != nil {
		s.rejected(images, err)
		return nil, err
	}
	logDropped(ctx, id, dropped)

	var replaced []string
	car, err := s.Repo.UpdateCar(ctx, s.DB, id, func(c *domain.Car) error {
		if patch.Images != nil {
			replaced = c.Images
		}
		patch.Apply(c)
		return normalize.Validate(c)
	})
	switch {
	case errors.Is(err, repo.ErrNotFound):
		s.removeImages(images)
		return nil, ErrCarNotFound
	case err != nil:
		s.rejected(images, err)
		return nil, storeErr(err)
	}

	s.removeImages(replaced)
	carMutations.WithLabelValues("update").Inc()
	zerolog.Ctx(ctx).Debug().
		Str("car_id", id).
		Strs("fields", patch.Fields()).
		Msg("car updated")
	return car, nil
}

// Delete removes a car, its maintenance history and its image files.
func (s *CarService) Delete(ctx context.Context, id string) error {
	ctx, span := s.tracer().Start(ctx, "Delete",
		trace.WithAttributes(attribute.String("car.id", id)),
	)
	defer span.End()

	car, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.Repo.DeleteCar(ctx, s.DB, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrCarNotFound
		}
		return storeErr(err)
	}
	s.removeImages(car.Images)
	carMutations.WithLabelValues("delete").Inc()
	return nil
}

// Compare fetches 1..CompareCap cars concurrently and projects them into a
// comparison matrix with columns in the order of ids.
func (s *CarService) Compare(ctx context.Context, ids []string) (inventory.Matrix, error) {
	ctx, span := s.tracer().Start(ctx, "Compare",
		trace.WithAttributes(attribute.StringSlice("car.ids", ids)),
	)
	defer span.End()

	ids = uniqueIDs(ids)
	limit := s.CompareCap
	if limit <= 0 {
		limit = compare.DefaultCap
	}
	if len(ids) == 0 || len(ids) > limit {
		return inventory.Matrix{}, &domain.ValidationError{
			Field:  "ids",
			Reason: "select between 1 and " + strconv.Itoa(limit) + " cars",
		}
	}

	cars := make([]domain.Car, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			c, err := s.Repo.GetCar(gctx, s.DB, id)
			if err != nil {
				return err
			}
			cars[i] = *c
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return inventory.Matrix{}, ErrCarNotFound
		}
		return inventory.Matrix{}, storeErr(err)
	}
	return inventory.Project(cars), nil
}

// Facets returns the distinct makes, body types and fuel types in stock.
func (s *CarService) Facets(ctx context.Context) (inventory.Facets, error) {
	cars, err := s.Repo.ListCars(ctx, s.DB)
	if err != nil {
		return inventory.Facets{}, storeErr(err)
	}
	return inventory.CollectFacets(cars), nil
}

// Dashboard summarizes the whole inventory.
func (s *CarService) Dashboard(ctx context.Context) (inventory.Summary, error) {
	ctx, span := s.tracer().Start(ctx, "Dashboard")
	defer span.End()

	cars, err := s.Repo.ListCars(ctx, s.DB)
	if err != nil {
		return inventory.Summary{}, storeErr(err)
	}
	return inventory.Summarize(cars), nil
}

// Replay returns the car a previous Create with the same (userID, key)
// produced, if that record is still live.
func (s *CarService) Replay(ctx context.Context, userID, key string) (*domain.Car, bool) {
	if s.Idem == nil || key == "" {
		return nil, false
	}
	rec, err := s.Idem.GetIdempotency(ctx, s.DB, userID, idempotencyScopeCars, key, s.now().UTC())
	if err != nil || rec == nil {
		return nil, false
	}
	car, err := s.Repo.GetCar(ctx, s.DB, rec.ResourceID)
	if err != nil {
		return nil, false
	}
	return car, true
}

// Remember records that (userID, key) created carID. Failures are logged and
// otherwise ignored.
func (s *CarService) Remember(ctx context.Context, userID, key, carID string, status int) {
	if s.Idem == nil || key == "" {
		return
	}
	if _, err := s.Idem.CreateIdempotency(ctx, s.DB, userID, idempotencyScopeCars, key, carID, status, s.IdemTTL); err != nil &&
		!errors.Is(err, repo.ErrDuplicate) {
		zerolog.Ctx(ctx).Warn().Err(err).Str("car_id", carID).Msg("idempotency record not stored")
	}
}

// rejected counts a validation failure and removes the request's uploads.
func (s *CarService) rejected(images []string, err error) {
	if ve, ok := domain.AsValidation(err); ok {
		validationFailures.WithLabelValues(ve.Field).Inc()
	}
	s.removeImages(images)
}

func (s *CarService) removeImages(refs []string) {
	if s.Images != nil && len(refs) > 0 {
		s.Images.Remove(refs)
	}
}

func logDropped(ctx context.Context, carID string, dropped []normalize.Dropped) {
	for _, d := range dropped {
		zerolog.Ctx(ctx).Warn().
			Str("car_id", carID).
			Str("field", d.Field).
			Str("reason", d.Reason).
			Msg("optional field dropped")
	}
}

func uniqueIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
