// Maintenance HTTP handlers.
//
//   - GET    /cars/{id}/maintenance
//   - POST   /cars/{id}/maintenance
//   - DELETE /cars/{id}/maintenance/{mid}
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AtharvaManchalkar/DriveOps/internal/domain"
	"github.com/AtharvaManchalkar/DriveOps/internal/services"
)

// ListMaintenanceResponse wraps a car's service history.
type ListMaintenanceResponse struct {
	Records []domain.MaintenanceRecord `json:"records"`
}

// ListMaintenance godoc
// @ID          listMaintenance
// @Summary     List maintenance records
// @Description Service history of a car, newest first.
// @Tags        Maintenance
// @Produce     json
// @Param       id   path     string  true  "Car ID"
// @Success     200  {object} handlers.ListMaintenanceResponse
// @Failure     404  {object} handlers.ErrorResponse "Car not found"
// @Router      /cars/{id}/maintenance [get]
func (h *Handlers) ListMaintenance(c *gin.Context) {
	recs, err := h.maint.List(c.Request.Context(), c.Param("id"))
	if err != nil {
		failErr(c, err)
		return
	}
	if recs == nil {
		recs = []domain.MaintenanceRecord{}
	}
	ok(c, http.StatusOK, ListMaintenanceResponse{Records: recs})
}

// CreateMaintenance godoc
// @ID          createMaintenance
// @Summary     Record maintenance
// @Tags        Maintenance
// @Accept      json
// @Produce     json
// @Param       id    path  string                     true  "Car ID"
// @Param       body  body  services.MaintenanceInput  true  "Service entry"
// @Success     201  {object} domain.MaintenanceRecord
// @Failure     400  {object} handlers.ErrorResponse "Validation failed"
// @Failure     404  {object} handlers.ErrorResponse "Car not found"
// @Router      /cars/{id}/maintenance [post]
func (h *Handlers) CreateMaintenance(c *gin.Context) {
	var in services.MaintenanceInput
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	rec, err := h.maint.Create(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusCreated, rec)
}

// DeleteMaintenance godoc
// @ID          deleteMaintenance
// @Summary     Delete a maintenance record
// @Tags        Maintenance
// @Param       id   path  string  true  "Car ID"
// @Param       mid  path  string  true  "Maintenance record ID"
// @Success     204  {string} string "No Content"
// @Failure     404  {object} handlers.ErrorResponse "Car or record not found"
// @Router      /cars/{id}/maintenance/{mid} [delete]
func (h *Handlers) DeleteMaintenance(c *gin.Context) {
	if err := h.maint.Delete(c.Request.Context(), c.Param("id"), c.Param("mid")); err != nil {
		failErr(c, err)
		return
	}
	noContent(c)
}
