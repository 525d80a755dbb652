// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// optional authentication, CORS, security headers, idempotency, and rate
// limiting.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/AtharvaManchalkar/DriveOps/internal/compare"
	"github.com/AtharvaManchalkar/DriveOps/internal/config"
	"github.com/AtharvaManchalkar/DriveOps/internal/domain"
	"github.com/AtharvaManchalkar/DriveOps/internal/http/handlers"
	"github.com/AtharvaManchalkar/DriveOps/internal/http/middleware"
	"github.com/AtharvaManchalkar/DriveOps/internal/repo"
	"github.com/AtharvaManchalkar/DriveOps/internal/services"
	"github.com/AtharvaManchalkar/DriveOps/internal/uploads"
	"github.com/AtharvaManchalkar/DriveOps/internal/vin"
)

// selectionEventsPath streams comparison selection changes (server-sent events).
const selectionEventsPath = "/compare/selection/events"

// carRepoShim adapts the repository free functions to services.CarRepo,
// services.MaintenanceRepo and services.IdempotencyRepo.
type carRepoShim struct{}

func (carRepoShim) CreateCar(ctx context.Context, db *gorm.DB, car *domain.Car) (*domain.Car, error) {
	return repo.CreateCar(ctx, db, car)
}

func (carRepoShim) ListCars(ctx context.Context, db *gorm.DB) ([]domain.Car, error) {
	return repo.ListCars(ctx, db)
}

func (carRepoShim) GetCar(ctx context.Context, db *gorm.DB, id string) (*domain.Car, error) {
	return repo.GetCar(ctx, db, id)
}

func (carRepoShim) UpdateCar(ctx context.Context, db *gorm.DB, id string, mutate func(*domain.Car) error) (*domain.Car, error) {
	return repo.UpdateCar(ctx, db, id, mutate)
}

func (carRepoShim) DeleteCar(ctx context.Context, db *gorm.DB, id string) error {
	return repo.DeleteCar(ctx, db, id)
}

func (carRepoShim) CarsStats(ctx context.Context, db *gorm.DB) (int64, *time.Time, error) {
	return repo.CarsStats(ctx, db)
}

func (carRepoShim) ListMaintenance(ctx context.Context, db *gorm.DB, carID string) ([]domain.MaintenanceRecord, error) {
	return repo.ListMaintenance(ctx, db, carID)
}

func (carRepoShim) CreateMaintenance(ctx context.Context, db *gorm.DB, rec *domain.MaintenanceRecord) (*domain.MaintenanceRecord, error) {
	return repo.CreateMaintenance(ctx, db, rec)
}

func (carRepoShim) DeleteMaintenance(ctx context.Context, db *gorm.DB, carID, id string) error {
	return repo.DeleteMaintenance(ctx, db, carID, id)
}

func (carRepoShim) GetIdempotency(ctx context.Context, db *gorm.DB, owner, scope, key string, now time.Time) (*domain.Idempotency, error) {
	return repo.GetIdempotency(ctx, db, owner, scope, key, now)
}

func (carRepoShim) CreateIdempotency(ctx context.Context, db *gorm.DB, owner, scope, key, resourceID string, status int, ttl time.Duration) (*domain.Idempotency, error) {
	return repo.CreateIdempotency(ctx, db, owner, scope, key, resourceID, status, ttl)
}

// userRepoShim adapts the user repository to services.UserRepo.
type userRepoShim struct{}

func (userRepoShim) CreateUser(ctx context.Context, db *gorm.DB, email, name, hash string) (*domain.User, error) {
	return repo.CreateUser(ctx, db, email, name, hash)
}

func (userRepoShim) GetUserByEmail(ctx context.Context, db *gorm.DB, email string) (*domain.User, error) {
	return repo.GetUserByEmail(ctx, db, email)
}

// Deps are the externally constructed collaborators of the router. Nil
// fields fall back to in-process defaults built from the config.
type Deps struct {
	DB *gorm.DB

	// Selections is the comparison selection store; nil means in memory.
	Selections compare.Store

	// VIN decodes VINs; nil means the vPIC client at cfg.VIN.BaseURL.
	VIN services.VINDecoder
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. It configures observability (tracing, metrics), optional auth,
// idempotency and rate limiting, CORS and security headers, health and
// metrics endpoints, static image serving, and then mounts the versioned
// API under cfg.APIBasePath.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. Logging (redacting unless pretty dev logs are on)
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Metrics
//  7. Optional auth (so owners are known to everything below)
//  8. Idempotency validator (before rate limiter to allow bypass on replay)
//  9. Rate limiter (per owner, bypass on replay)
//  10. CORS, security headers, gzip
func RegisterRoutes(r *gin.Engine, deps Deps, cfg config.Config) error {
	db := deps.DB
	r.HandleMethodNotAllowed = true

	images, err := uploads.New(cfg.Uploads.Dir, cfg.Uploads.MaxBytes, cfg.Uploads.MaxImages)
	if err != nil {
		return err
	}

	var authSvc *services.AuthService
	if cfg.AuthEnabled() {
		authSvc = services.NewAuthService(db, userRepoShim{}, cfg.Auth.Secret, cfg.Auth.Issuer, cfg.Auth.TTL)
	}

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging; full detail only in pretty (dev) mode
	if cfg.LogPretty {
		r.Use(middleware.Logger())
	} else {
		r.Use(middleware.RedactingLogger(middleware.RedactOptions{
			MaskHeaders: []string{"X-API-Key"},
		}))
	}

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit, sized for multipart image uploads
	r.Use(limitBody(cfg.Uploads.MaxBytes))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics("/metrics"))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) Bearer tokens are optional; a bad token is still rejected
	r.Use(middleware.OptionalAuth(tokenVerifier(authSvc)))

	// 8) Idempotency validation (before rate limiting)
	r.Use(middleware.IdempotencyValidator(
		middleware.IdempotencyOptions{MaxLen: 200},
		func(ctx context.Context, owner, scope, key string, now time.Time) (bool, error) {
			rec, err := repo.GetIdempotency(ctx, db, owner, scope, key, now)
			if errors.Is(err, repo.ErrNotFound) {
				return false, nil
			}
			return err == nil && rec != nil, err
		},
	))

	// 9) Token-bucket rate limiter per owner
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByOwner(), "/health", "/metrics")
	r.Use(rl.Handler())

	// 10) CORS posture (safe defaults: allow all if none configured)
	r.Use(corsMiddleware(cfg.CORS.AllowedOrigins)...)

	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:     cfg.Security.EnableHSTS,
		HSTSMaxAge:     cfg.Security.HSTSMaxAge,
		NoStore:        false,
		EnablePolicy:   true,
		PublicPrefixes: []string{uploads.URLPrefix},
	}))

	// Images are already compressed; metrics scrapers negotiate their own;
	// the selection event stream must reach the client unbuffered.
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{
		uploads.URLPrefix,
		"/metrics",
		strings.TrimSuffix(cfg.APIBasePath, "/") + selectionEventsPath,
	})))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"service": cfg.OTEL.ServiceName, "api": cfg.APIBasePath})
	})
	r.GET("/health", healthHandler(db))
	r.Static(uploads.URLPrefix, cfg.Uploads.Dir)
	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Dependency injection: services ← repo/db/stores
	carSvc := services.NewCarService(db, carRepoShim{})
	carSvc.Idem = carRepoShim{}
	carSvc.IdemTTL = cfg.IdempotencyTTL
	carSvc.Images = images
	carSvc.CompareCap = cfg.Compare.Cap

	sel := deps.Selections
	if sel == nil {
		sel = compare.NewMemoryStore(cfg.Compare.Cap)
	}
	decoder := deps.VIN
	if decoder == nil {
		decoder = vin.New(cfg.VIN.BaseURL, cfg.VIN.Timeout)
	}

	svcs := handlers.Services{
		Cars:        carSvc,
		Maintenance: &services.MaintenanceService{DB: db, Repo: carRepoShim{}},
		Compare:     &services.CompareService{Store: sel, Cars: carSvc},
		VIN:         &services.VINService{Decoder: decoder},
		Images:      images,
	}
	if authSvc != nil {
		svcs.Auth = authSvc
	}
	h := handlers.New(svcs)

	api := groupWithPrefix(r, cfg.APIBasePath)
	{
		// Cars
		api.GET("/cars", h.ListCars)
		api.GET("/cars/facets", h.ListFacets)
		api.POST("/cars", h.CreateCar)
		api.GET("/cars/:id", h.GetCar)
		api.PUT("/cars/:id", h.UpdateCar)
		api.DELETE("/cars/:id", h.DeleteCar)

		// Maintenance history
		api.GET("/cars/:id/maintenance", h.ListMaintenance)
		api.POST("/cars/:id/maintenance", h.CreateMaintenance)
		api.DELETE("/cars/:id/maintenance/:mid", h.DeleteMaintenance)

		// Comparison
		api.GET("/compare", h.CompareCars)
		api.GET("/compare/selection", h.GetSelection)
		api.PUT("/compare/selection", h.ReplaceSelection)
		api.DELETE("/compare/selection", h.ClearSelection)
		api.POST("/compare/selection/toggle", h.ToggleSelection)
		api.GET(selectionEventsPath, h.SelectionEvents)

		api.GET("/dashboard", h.Dashboard)
		api.GET("/vin/:vin", h.DecodeVIN)

		if authSvc != nil {
			api.POST("/auth/register", h.Register)
			api.POST("/auth/login", h.Login)
			api.POST("/auth/reset-password", h.ResetPassword)
		}
	}
	return nil
}

// tokenVerifier returns nil (auth disabled) when svc is nil.
func tokenVerifier(svc *services.AuthService) middleware.TokenVerifier {
	if svc == nil {
		return nil
	}
	return func(raw string) (string, error) {
		claims, err := svc.ParseToken(raw)
		if err != nil {
			return "", err
		}
		return claims.UserID, nil
	}
}

// corsMiddleware allows every origin when none is configured; otherwise it
// echoes allow-listed origins.
func corsMiddleware(origins []string) []gin.HandlerFunc {
	base := cors.Config{
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Client-ID", middleware.HeaderIdempotencyKey},
		ExposeHeaders: []string{
			"X-Request-ID", "Content-Length", "ETag", "Location", "Retry-After", "Idempotency-Replayed",
		},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}

	if len(origins) == 0 {
		base.AllowAllOrigins = true
		// Force ACAO: * even for requests without an Origin header.
		return []gin.HandlerFunc{
			func(c *gin.Context) {
				c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
				c.Next()
			},
			cors.New(base),
		}
	}

	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		allowed[o] = struct{}{}
	}
	base.AllowOrigins = origins
	return []gin.HandlerFunc{
		func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		},
		cors.New(base),
	}
}

// healthHandler reports liveness plus store reachability. An unreachable
// store yields 503 so orchestrators can pull the instance.
func healthHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		status, code := "ok", http.StatusOK
		if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
			status, code = "degraded", http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{"status": status, "time": time.Now().UTC().Format(time.RFC3339)})
	}
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	if maxBytes <= 0 {
		maxBytes = 1 << 20
	}
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
