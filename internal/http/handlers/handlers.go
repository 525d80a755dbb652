// Package handlers exposes the DriveOps REST API over Gin.
//
// Handlers are transport-thin: they read path, query and body input, call the
// application services, and translate results and errors into HTTP
// responses. Services are consumed through the narrow interfaces below so
// tests can substitute stubs.
package handlers

import (
	"context"
	"mime/multipart"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/AtharvaManchalkar/DriveOps/internal/domain"
	"github.com/AtharvaManchalkar/DriveOps/internal/inventory"
	"github.com/AtharvaManchalkar/DriveOps/internal/normalize"
	"github.com/AtharvaManchalkar/DriveOps/internal/services"
	"github.com/AtharvaManchalkar/DriveOps/internal/utils"
	"github.com/AtharvaManchalkar/DriveOps/internal/vin"
)

// CarService defines the car record operations consumed by HTTP handlers.
type CarService interface {
	Create(ctx context.Context, in normalize.Input, images []string) (*domain.Car, error)
	Get(ctx context.Context, id string) (*domain.Car, error)
	ListPage(ctx context.Context, f inventory.Filter, key inventory.SortKey, page, pageSize int) ([]domain.Car, int64, error)
	// Stats returns the car count and latest modification, for ETags.
	Stats(ctx context.Context) (int64, *time.Time, error)
	Update(ctx context.Context, id string, in normalize.Input, images []string) (*domain.Car, error)
	Delete(ctx context.Context, id string) error
	Compare(ctx context.Context, ids []string) (inventory.Matrix, error)
	Facets(ctx context.Context) (inventory.Facets, error)
	Dashboard(ctx context.Context) (inventory.Summary, error)

	// Replay and Remember implement Idempotency-Key semantics for Create.
	Replay(ctx context.Context, owner, key string) (*domain.Car, bool)
	Remember(ctx context.Context, owner, key, carID string, status int)
}

// MaintenanceService defines a car's service-history operations.
type MaintenanceService interface {
	List(ctx context.Context, carID string) ([]domain.MaintenanceRecord, error)
	Create(ctx context.Context, carID string, in services.MaintenanceInput) (*domain.MaintenanceRecord, error)
	Delete(ctx context.Context, carID, id string) error
}

// CompareService defines per-owner comparison selection operations.
type CompareService interface {
	Get(ctx context.Context, owner string) (*services.Selection, error)
	Replace(ctx context.Context, owner string, ids []string) (*services.Selection, error)
	Toggle(ctx context.Context, owner, id string) (*services.Selection, error)
	Clear(ctx context.Context, owner string) error
	// Subscribe streams the selection after each change until ctx ends.
	Subscribe(ctx context.Context, owner string) (<-chan *services.Selection, error)
}

// VINService decodes vehicle identification numbers.
type VINService interface {
	Decode(ctx context.Context, v string) (*vin.Decoded, error)
}

// AuthService defines account operations.
type AuthService interface {
	Register(ctx context.Context, email, name, password string) (*domain.User, error)
	Login(ctx context.Context, email, password string) (*services.Token, error)
	RequestPasswordReset(ctx context.Context, email string) error
}

// ImageStore persists uploaded images and removes them again.
type ImageStore interface {
	SaveAll(files []*multipart.FileHeader) ([]string, error)
	Remove(refs []string)
}

// Services bundles the dependencies of Handlers. Nil optional services
// disable their endpoints in the router.
type Services struct {
	Cars        CarService
	Maintenance MaintenanceService
	Compare     CompareService
	VIN         VINService
	Auth        AuthService
	Images      ImageStore
}

// Handlers groups the HTTP endpoints.
type Handlers struct {
	cars   CarService
	maint  MaintenanceService
	cmp    CompareService
	vin    VINService
	auth   AuthService
	images ImageStore
}

// New constructs Handlers bound to the given services.
func New(s Services) *Handlers {
	return &Handlers{
		cars:   s.Cars,
		maint:  s.Maintenance,
		cmp:    s.Compare,
		vin:    s.VIN,
		auth:   s.Auth,
		images: s.Images,
	}
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"pageSize"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
	HasNext    bool  `json:"hasNext"`
}

func newPagination(page, pageSize int, total int64) Pagination {
	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	return Pagination{
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
	}
}

// clampPagination parses and bounds page and page_size query params.
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = utils.AtoiDefault(c.Query("page_size"), defaultPageSize)
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return
}
