package handlers

import (
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/AtharvaManchalkar/DriveOps/internal/domain"
	"github.com/AtharvaManchalkar/DriveOps/internal/http/middleware"
	"github.com/AtharvaManchalkar/DriveOps/internal/inventory"
	"github.com/AtharvaManchalkar/DriveOps/internal/normalize"
	"github.com/AtharvaManchalkar/DriveOps/internal/services"
	"github.com/AtharvaManchalkar/DriveOps/internal/vin"
)

// stubCars is a CarService whose behaviour is set per test.
type stubCars struct {
	create   func(context.Context, normalize.Input, []string) (*domain.Car, error)
	get      func(context.Context, string) (*domain.Car, error)
	listPage func(context.Context, inventory.Filter, inventory.SortKey, int, int) ([]domain.Car, int64, error)
	stats    func(context.Context) (int64, *time.Time, error)
	update   func(context.Context, string, normalize.Input, []string) (*domain.Car, error)
	del      func(context.Context, string) error
	compare  func(context.Context, []string) (inventory.Matrix, error)

	replayed   map[string]*domain.Car
	remembered []string
}

func (s *stubCars) Create(ctx context.Context, in normalize.Input, images []string) (*domain.Car, error) {
	if s.create != nil {
		return s.create(ctx, in, images)
	}
	return &domain.Car{ID: "new"}, nil
}

func (s *stubCars) Get(ctx context.Context, id string) (*domain.Car, error) {
	if s.get != nil {
		return s.get(ctx, id)
	}
	return nil, services.ErrCarNotFound
}

func (s *stubCars) ListPage(ctx context.Context, f inventory.Filter, k inventory.SortKey, p, ps int) ([]domain.Car, int64, error) {
	if s.listPage != nil {
		return s.listPage(ctx, f, k, p, ps)
	}
	return []domain.Car{}, 0, nil
}

func (s *stubCars) Stats(ctx context.Context) (int64, *time.Time, error) {
	if s.stats != nil {
		return s.stats(ctx)
	}
	return 0, nil, nil
}

func (s *stubCars) Update(ctx context.Context, id string, in normalize.Input, images []string) (*domain.Car, error) {
	if s.update != nil {
		return s.update(ctx, id, in, images)
	}
	return nil, services.ErrCarNotFound
}

func (s *stubCars) Delete(ctx context.Context, id string) error {
	if s.del != nil {
		return s.del(ctx, id)
	}
	return nil
}

func (s *stubCars) Compare(ctx context.Context, ids []string) (inventory.Matrix, error) {
	if s.compare != nil {
		return s.compare(ctx, ids)
	}
	return inventory.Matrix{}, nil
}

func (s *stubCars) Facets(context.Context) (inventory.Facets, error) {
	return inventory.Facets{Makes: []string{"Honda", "Toyota"}}, nil
}

func (s *stubCars) Dashboard(context.Context) (inventory.Summary, error) {
	return inventory.Summary{TotalCars: 2, MostPopularTag: "suv"}, nil
}

func (s *stubCars) Replay(_ context.Context, owner, key string) (*domain.Car, bool) {
	c, ok := s.replayed[owner+"|"+key]
	return c, ok
}

func (s *stubCars) Remember(_ context.Context, owner, key, carID string, _ int) {
	if key != "" {
		s.remembered = append(s.remembered, owner+"|"+key+"|"+carID)
	}
}

// stubImages records saved uploads.
type stubImages struct {
	saved   int
	removed []string
	err     error
}

func (s *stubImages) SaveAll(files []*multipart.FileHeader) ([]string, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make([]string, len(files))
	for i, fh := range files {
		s.saved++
		out[i] = "/uploads/" + fh.Filename
	}
	return out, nil
}

func (s *stubImages) Remove(refs []string) { s.removed = append(s.removed, refs...) }

type stubMaint struct {
	recs    []domain.MaintenanceRecord
	lastIn  services.MaintenanceInput
	deleted string
	err     error
}

func (s *stubMaint) List(_ context.Context, carID string) ([]domain.MaintenanceRecord, error) {
	if carID != "car1" {
		return nil, services.ErrCarNotFound
	}
	return s.recs, s.err
}

func (s *stubMaint) Create(_ context.Context, carID string, in services.MaintenanceInput) (*domain.MaintenanceRecord, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.lastIn = in
	return &domain.MaintenanceRecord{ID: "m1", CarID: carID, Title: in.Title}, nil
}

func (s *stubMaint) Delete(_ context.Context, carID, id string) error {
	if id != "m1" {
		return services.ErrMaintenanceNotFound
	}
	s.deleted = carID + "/" + id
	return nil
}

type stubCompare struct {
	sel   map[string][]string
	limit int

	// events backs Subscribe; nil means an already finished stream.
	events    chan *services.Selection
	subErr    error
	subOwners []string
}

func (s *stubCompare) Get(_ context.Context, owner string) (*services.Selection, error) {
	ids := s.sel[owner]
	if ids == nil {
		ids = []string{}
	}
	return &services.Selection{IDs: ids, Cap: s.limit}, nil
}

func (s *stubCompare) Replace(_ context.Context, owner string, ids []string) (*services.Selection, error) {
	if len(ids) > s.limit {
		return nil, services.ErrSelectionFull
	}
	s.sel[owner] = ids
	return &services.Selection{IDs: ids, Cap: s.limit}, nil
}

func (s *stubCompare) Toggle(ctx context.Context, owner, id string) (*services.Selection, error) {
	cur := s.sel[owner]
	for i, v := range cur {
		if v == id {
			s.sel[owner] = append(cur[:i:i], cur[i+1:]...)
			return s.Get(ctx, owner)
		}
	}
	if len(cur) >= s.limit {
		return nil, services.ErrSelectionFull
	}
	s.sel[owner] = append(cur, id)
	return s.Get(ctx, owner)
}

func (s *stubCompare) Clear(_ context.Context, owner string) error {
	delete(s.sel, owner)
	return nil
}

func (s *stubCompare) Subscribe(_ context.Context, owner string) (<-chan *services.Selection, error) {
	if s.subErr != nil {
		return nil, s.subErr
	}
	s.subOwners = append(s.subOwners, owner)
	if s.events == nil {
		ch := make(chan *services.Selection)
		close(ch)
		return ch, nil
	}
	return s.events, nil
}

type stubVIN struct{}

func (stubVIN) Decode(_ context.Context, v string) (*vin.Decoded, error) {
	if !vin.Valid(v) {
		return nil, services.ErrInvalidVIN
	}
	return &vin.Decoded{VIN: v, Make: "HONDA", Model: "Accord", Trim: vin.NotAvailable}, nil
}

type stubAuth struct{}

func (stubAuth) Register(_ context.Context, email, name, password string) (*domain.User, error) {
	if email == "taken@example.com" {
		return nil, services.ErrEmailTaken
	}
	if len(password) < services.MinPasswordLen {
		return nil, &domain.ValidationError{Field: "password", Reason: "must be at least 8 characters"}
	}
	return &domain.User{ID: "u1", Email: email, Name: name}, nil
}

func (stubAuth) Login(_ context.Context, email, password string) (*services.Token, error) {
	if password != "correct-horse" {
		return nil, services.ErrInvalidCredentials
	}
	return &services.Token{AccessToken: "tok", TokenType: "Bearer", User: &domain.User{ID: "u1", Email: email}}, nil
}

func (stubAuth) RequestPasswordReset(context.Context, string) error { return nil }

// fixture bundles a router over stub services.
type fixture struct {
	r      *gin.Engine
	cars   *stubCars
	images *stubImages
	maint  *stubMaint
	cmp    *stubCompare
}

func newFixture() *fixture {
	gin.SetMode(gin.TestMode)
	f := &fixture{
		cars:   &stubCars{replayed: map[string]*domain.Car{}},
		images: &stubImages{},
		maint:  &stubMaint{},
		cmp:    &stubCompare{sel: map[string][]string{}, limit: 3},
	}
	h := New(Services{
		Cars:        f.cars,
		Maintenance: f.maint,
		Compare:     f.cmp,
		VIN:         stubVIN{},
		Auth:        stubAuth{},
		Images:      f.images,
	})

	r := gin.New()
	r.Use(middleware.RequestID())
	r.Use(middleware.IdempotencyValidator(middleware.IdempotencyOptions{}, func(_ context.Context, owner, _, key string, _ time.Time) (bool, error) {
		_, ok := f.cars.replayed[owner+"|"+key]
		return ok, nil
	}))
	r.GET("/cars", h.ListCars)
	r.GET("/cars/facets", h.ListFacets)
	r.GET("/cars/:id", h.GetCar)
	r.POST("/cars", h.CreateCar)
	r.PUT("/cars/:id", h.UpdateCar)
	r.DELETE("/cars/:id", h.DeleteCar)
	r.GET("/cars/:id/maintenance", h.ListMaintenance)
	r.POST("/cars/:id/maintenance", h.CreateMaintenance)
	r.DELETE("/cars/:id/maintenance/:mid", h.DeleteMaintenance)
	r.GET("/compare", h.CompareCars)
	r.GET("/compare/selection", h.GetSelection)
	r.PUT("/compare/selection", h.ReplaceSelection)
	r.DELETE("/compare/selection", h.ClearSelection)
	r.POST("/compare/selection/toggle", h.ToggleSelection)
	r.GET("/compare/selection/events", h.SelectionEvents)
	r.GET("/dashboard", h.Dashboard)
	r.GET("/vin/:vin", h.DecodeVIN)
	r.POST("/auth/register", h.Register)
	r.POST("/auth/login", h.Login)
	r.POST("/auth/reset-password", h.ResetPassword)
	f.r = r
	return f
}

func (f *fixture) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	f.r.ServeHTTP(w, req)
	return w
}
