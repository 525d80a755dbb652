// Comparison HTTP handlers.
//
// The comparison matrix is computed from explicit ids or, when none are
// given, from the caller's saved selection. Selections are keyed by owner:
// the signed-in user, else the X-Client-ID header, else the client IP.
//
//   - GET    /compare?ids=a,b,c
//   - GET    /compare/selection
//   - PUT    /compare/selection
//   - DELETE /compare/selection
//   - POST   /compare/selection/toggle
//   - GET    /compare/selection/events
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/AtharvaManchalkar/DriveOps/internal/http/middleware"
	"github.com/AtharvaManchalkar/DriveOps/internal/utils"
)

// ReplaceSelectionRequest replaces the whole selection.
type ReplaceSelectionRequest struct {
	IDs []string `json:"ids" example:"a1,b2"`
}

// ToggleSelectionRequest adds or removes one car.
type ToggleSelectionRequest struct {
	ID string `json:"id" binding:"required" example:"a1"`
}

// CompareCars godoc
// @ID          compareCars
// @Summary     Compare cars side by side
// @Description Builds the comparison matrix for up to the configured number of cars, columns in request order.
// @Description Without ids, the caller's saved selection is compared.
// @Tags        Compare
// @Produce     json
// @Param       ids          query   string  false "Comma-separated car IDs"
// @Param       X-Client-ID  header  string  false "Anonymous client identity for the saved selection"
// @Success     200  {object} inventory.Matrix
// @Failure     400  {object} handlers.ErrorResponse "Too few or too many cars"
// @Failure     404  {object} handlers.ErrorResponse "A car does not exist"
// @Router      /compare [get]
func (h *Handlers) CompareCars(c *gin.Context) {
	ctx := c.Request.Context()
	ids := utils.SplitList(c.QueryArray("ids")...)
	if len(ids) == 0 && h.cmp != nil {
		sel, err := h.cmp.Get(ctx, middleware.Owner(c))
		if err != nil {
			failErr(c, err)
			return
		}
		ids = sel.IDs
	}
	m, err := h.cars.Compare(ctx, ids)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, m)
}

// GetSelection godoc
// @ID          getCompareSelection
// @Summary     Read the comparison selection
// @Tags        Compare
// @Produce     json
// @Param       X-Client-ID  header  string  false "Anonymous client identity"
// @Success     200  {object} services.Selection
// @Router      /compare/selection [get]
func (h *Handlers) GetSelection(c *gin.Context) {
	sel, err := h.cmp.Get(c.Request.Context(), middleware.Owner(c))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, sel)
}

// ReplaceSelection godoc
// @ID          replaceCompareSelection
// @Summary     Replace the comparison selection
// @Tags        Compare
// @Accept      json
// @Produce     json
// @Param       body  body  handlers.ReplaceSelectionRequest  true  "New selection"
// @Success     200  {object} services.Selection
// @Failure     404  {object} handlers.ErrorResponse "A car does not exist"
// @Failure     409  {object} handlers.ErrorResponse "Selection over capacity"
// @Router      /compare/selection [put]
func (h *Handlers) ReplaceSelection(c *gin.Context) {
	var req ReplaceSelectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	sel, err := h.cmp.Replace(c.Request.Context(), middleware.Owner(c), req.IDs)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, sel)
}

// ToggleSelection godoc
// @ID          toggleCompareSelection
// @Summary     Add or remove one car
// @Tags        Compare
// @Accept      json
// @Produce     json
// @Param       body  body  handlers.ToggleSelectionRequest  true  "Car to toggle"
// @Success     200  {object} services.Selection
// @Failure     404  {object} handlers.ErrorResponse "Car not found"
// @Failure     409  {object} handlers.ErrorResponse "Selection full"
// @Router      /compare/selection/toggle [post]
func (h *Handlers) ToggleSelection(c *gin.Context) {
	var req ToggleSelectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		failField(c, http.StatusBadRequest, ErrCodeValidation, "is required", "id")
		return
	}
	sel, err := h.cmp.Toggle(c.Request.Context(), middleware.Owner(c), req.ID)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, sel)
}

// ClearSelection godoc
// @ID          clearCompareSelection
// @Summary     Clear the comparison selection
// @Tags        Compare
// @Success     204  {string} string "No Content"
// @Router      /compare/selection [delete]
func (h *Handlers) ClearSelection(c *gin.Context) {
	if err := h.cmp.Clear(c.Request.Context(), middleware.Owner(c)); err != nil {
		failErr(c, err)
		return
	}
	noContent(c)
}

// SelectionEvents godoc
// @ID          compareSelectionEvents
// @Summary     Stream comparison selection changes
// @Description Server-sent events. The current selection is sent first as a "selection" event,
// @Description then one "selection" event per change until the client disconnects.
// @Tags        Compare
// @Produce     text/event-stream
// @Param       X-Client-ID  header  string  false "Anonymous client identity"
// @Success     200  {object} services.Selection
// @Router      /compare/selection/events [get]
func (h *Handlers) SelectionEvents(c *gin.Context) {
	ctx := c.Request.Context()
	owner := middleware.Owner(c)

	// Subscribe before reading so no change between the two is missed.
	updates, err := h.cmp.Subscribe(ctx, owner)
	if err != nil {
		failErr(c, err)
		return
	}
	sel, err := h.cmp.Get(ctx, owner)
	if err != nil {
		failErr(c, err)
		return
	}

	// Long-lived response: lift the server WriteTimeout where supported.
	_ = http.NewResponseController(c.Writer).SetWriteDeadline(time.Time{})

	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	c.SSEvent("selection", sel)
	c.Writer.Flush()

	for {
		select {
		case <-ctx.Done():
			return
		case next, open := <-updates:
			if !open {
				return
			}
			c.SSEvent("selection", next)
			c.Writer.Flush()
		}
	}
}
