// Car HTTP handlers.
//
// This file exposes the car inventory:
//   - GET    /cars           (filter, sort, paginate; weak ETag)
//   - GET    /cars/facets    (distinct makes, body types, fuel types)
//   - GET    /cars/{id}
//   - POST   /cars           (multipart form with images, or JSON)
//   - PUT    /cars/{id}      (partial update, same encodings)
//   - DELETE /cars/{id}
//
// Create and update accept multipart/form-data (text fields plus "images"
// files), application/x-www-form-urlencoded, or a JSON object. All three are
// normalized by package normalize, so the same field rules apply.
package handlers

import (
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"mime"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AtharvaManchalkar/DriveOps/internal/domain"
	"github.com/AtharvaManchalkar/DriveOps/internal/http/middleware"
	"github.com/AtharvaManchalkar/DriveOps/internal/inventory"
	"github.com/AtharvaManchalkar/DriveOps/internal/normalize"
)

// ListCarsResponse wraps a page of cars and pagination information.
type ListCarsResponse struct {
	Cars       []domain.Car `json:"cars"`
	Pagination Pagination   `json:"pagination"`
}

// errUnsupportedMedia is returned by readCarInput for unknown body types.
var errUnsupportedMedia = errors.New("unsupported content type")

// ListCars godoc
// @ID          listCars
// @Summary     List cars
// @Description Returns cars matching the filter, in the requested order, one page at a time.
// @Description Supports a weak ETag via If-None-Match and may return 304.
// @Tags        Cars
// @Produce     json
//
// @Param       search         query   string  false "Case-insensitive substring match on title, make and model"
// @Param       make           query   string  false "Exact make"
// @Param       model          query   string  false "Case-insensitive substring of the model"
// @Param       bodyType       query   string  false "Exact body type"
// @Param       fuelType       query   string  false "Exact fuel type"
// @Param       minPrice       query   number  false "Inclusive lower price bound"
// @Param       maxPrice       query   number  false "Inclusive upper price bound"
// @Param       minYear        query   int     false "Inclusive lower model year"
// @Param       maxYear        query   int     false "Inclusive upper model year"
// @Param       sort           query   string  false "Order"  Enums(newest,oldest,priceLow,priceHigh,yearNew,yearOld)
// @Param       page           query   int     false "Page number"     minimum(1) default(1)
// @Param       page_size      query   int     false "Items per page"  minimum(1) maximum(100) default(20)
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"
//
// @Success     200  {object} handlers.ListCarsResponse
// @Header      200  {string} ETag "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     400  {object} handlers.ErrorResponse "Invalid filter parameter"
// @Failure     503  {object} handlers.ErrorResponse "Store unavailable"
// @Router      /cars [get]
func (h *Handlers) ListCars(c *gin.Context) {
	ctx := c.Request.Context()

	f, err := inventory.ParseFilter(c.Request.URL.Query())
	if err != nil {
		failErr(c, err)
		return
	}
	key, known := inventory.ParseSortKey(c.Query("sort"))
	if !known && c.Query("sort") != "" {
		middleware.LoggerFrom(c).Debug().Str("sort", c.Query("sort")).Msg("unknown sort key ignored")
	}
	page, pageSize := clampPagination(c)

	// ETag pre-check (best effort). The query is part of the tag because the
	// same inventory renders differently per filter and page.
	if count, maxTS, err := h.cars.Stats(ctx); err == nil {
		var ts int64
		if maxTS != nil {
			ts = maxTS.UnixNano()
		}
		etag := fmt.Sprintf(`W/"cars:%d:%d:%08x"`, count, ts, crc32.ChecksumIEEE([]byte(c.Request.URL.RawQuery)))
		c.Header("ETag", etag)
		if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
			c.Status(http.StatusNotModified)
			return
		}
	}

	items, total, err := h.cars.ListPage(ctx, f, key, page, pageSize)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, ListCarsResponse{
		Cars:       items,
		Pagination: newPagination(page, pageSize, total),
	})
}

// ListFacets godoc
// @ID          listCarFacets
// @Summary     Filter facet values
// @Description Distinct makes, body types and fuel types present in the inventory, sorted.
// @Tags        Cars
// @Produce     json
// @Success     200  {object} inventory.Facets
// @Failure     503  {object} handlers.ErrorResponse "Store unavailable"
// @Router      /cars/facets [get]
func (h *Handlers) ListFacets(c *gin.Context) {
	f, err := h.cars.Facets(c.Request.Context())
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, f)
}

// GetCar godoc
// @ID          getCar
// @Summary     Get a car
// @Tags        Cars
// @Produce     json
// @Param       id   path     string  true  "Car ID"
// @Success     200  {object} domain.Car
// @Failure     404  {object} handlers.ErrorResponse "Car not found"
// @Failure     503  {object} handlers.ErrorResponse "Store unavailable"
// @Router      /cars/{id} [get]
func (h *Handlers) GetCar(c *gin.Context) {
	car, err := h.cars.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, car)
}

// CreateCar godoc
// @ID          createCar
// @Summary     Create a car
// @Description Accepts multipart/form-data (fields plus "images" files), urlencoded form fields, or a JSON object.
// @Description Numeric fields may be sent as text; tags may be a comma-separated string; features,
// @Description specifications and location may be JSON-encoded strings. Supports Idempotency-Key:
// @Description a retried request with the same key returns the car created the first time.
// @Tags        Cars
// @Accept      mpfd,json,x-www-form-urlencoded
// @Produce     json
//
// @Param       Idempotency-Key  header    string  false "Key for safe retries"
// @Param       title            formData  string  true  "Title"
// @Param       description      formData  string  true  "Description"
// @Param       tags             formData  string  false "Comma-separated tags"
// @Param       price            formData  number  false "Price"
// @Param       year             formData  int     false "Model year"
// @Param       images           formData  file    false "Images (jpeg, png, gif)"
//
// @Success     201  {object} domain.Car
// @Success     200  {object} domain.Car "Replayed result of an earlier request with the same Idempotency-Key"
// @Failure     400  {object} handlers.ErrorResponse "Validation failed"
// @Failure     413  {object} handlers.ErrorResponse "Upload too large"
// @Failure     415  {object} handlers.ErrorResponse "Unsupported content type"
// @Failure     503  {object} handlers.ErrorResponse "Store unavailable"
// @Router      /cars [post]
func (h *Handlers) CreateCar(c *gin.Context) {
	ctx := c.Request.Context()
	owner := middleware.IdempotencyOwner(c)
	key, _ := middleware.GetIdempotencyKey(c)

	if key != "" && middleware.IsReplay(c) {
		if prev, found := h.cars.Replay(ctx, owner, key); found {
			c.Header("Idempotency-Replayed", "true")
			ok(c, http.StatusOK, prev)
			return
		}
	}

	in, images, done := h.readCarInput(c)
	if done {
		return
	}

	car, err := h.cars.Create(ctx, in, images)
	if err != nil {
		failErr(c, err)
		return
	}
	h.cars.Remember(ctx, owner, key, car.ID, http.StatusCreated)

	c.Header("Location", c.FullPath()+"/"+car.ID)
	ok(c, http.StatusCreated, car)
}

// UpdateCar godoc
// @ID          updateCar
// @Summary     Update a car
// @Description Partial update: only supplied fields change. Empty text fields are treated as not supplied.
// @Description Uploading images replaces the stored list; sending none keeps it.
// @Tags        Cars
// @Accept      mpfd,json,x-www-form-urlencoded
// @Produce     json
// @Param       id      path      string  true  "Car ID"
// @Param       images  formData  file    false "Replacement images"
// @Success     200  {object} domain.Car
// @Failure     400  {object} handlers.ErrorResponse "Validation failed"
// @Failure     404  {object} handlers.ErrorResponse "Car not found"
// @Failure     503  {object} handlers.ErrorResponse "Store unavailable"
// @Router      /cars/{id} [put]
func (h *Handlers) UpdateCar(c *gin.Context) {
	in, images, done := h.readCarInput(c)
	if done {
		return
	}
	car, err := h.cars.Update(c.Request.Context(), c.Param("id"), in, images)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, car)
}

// DeleteCar godoc
// @ID          deleteCar
// @Summary     Delete a car
// @Description Removes the car, its maintenance history and its image files.
// @Tags        Cars
// @Produce     json
// @Param       id   path     string  true  "Car ID"
// @Success     200  {object} handlers.MessageResponse
// @Failure     404  {object} handlers.ErrorResponse "Car not found"
// @Failure     503  {object} handlers.ErrorResponse "Store unavailable"
// @Router      /cars/{id} [delete]
func (h *Handlers) DeleteCar(c *gin.Context) {
	if err := h.cars.Delete(c.Request.Context(), c.Param("id")); err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, MessageResponse{Message: "car deleted"})
}

// readCarInput decodes the request body into a normalize.Input and stores any
// uploaded images. When it returns done, the error response is written.
func (h *Handlers) readCarInput(c *gin.Context) (in normalize.Input, images []string, done bool) {
	in, files, err := decodeCarBody(c.Request)
	switch {
	case errors.Is(err, errUnsupportedMedia):
		fail(c, http.StatusUnsupportedMediaType, ErrCodeBadRequest, "use multipart/form-data, x-www-form-urlencoded or application/json")
		return nil, nil, true
	case isTooLarge(err):
		fail(c, http.StatusRequestEntityTooLarge, ErrCodePayloadTooLarge, "request body too large")
		return nil, nil, true
	case err != nil:
		if _, ok := domain.AsValidation(err); ok {
			failErr(c, err)
		} else {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "malformed request body")
		}
		return nil, nil, true
	}

	if len(files) > 0 {
		if h.images == nil {
			failField(c, http.StatusBadRequest, ErrCodeValidation, "image uploads are disabled", "images")
			return nil, nil, true
		}
		images, err = h.images.SaveAll(files)
		if err != nil {
			failErr(c, err)
			return nil, nil, true
		}
	}
	return in, images, false
}

// decodeCarBody picks the decoder by Content-Type.
func decodeCarBody(r *http.Request) (normalize.Input, []*multipart.FileHeader, error) {
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch ct {
	case "multipart/form-data":
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			return nil, nil, err
		}
		var files []*multipart.FileHeader
		files = append(files, r.MultipartForm.File["images"]...)
		files = append(files, r.MultipartForm.File["images[]"]...)
		return normalize.FromValues(r.MultipartForm.Value), files, nil
	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return nil, nil, err
		}
		return normalize.FromValues(r.PostForm), nil, nil
	case "application/json", "":
		body, err := io.ReadAll(r.Body)
		if err != nil {
			return nil, nil, err
		}
		in, err := normalize.FromJSON(body)
		return in, nil, err
	default:
		return nil, nil, errUnsupportedMedia
	}
}

func isTooLarge(err error) bool {
	var mbe *http.MaxBytesError
	return err != nil && (errors.As(err, &mbe) || errors.Is(err, multipart.ErrMessageTooLarge))
}
