package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Dashboard godoc
// @ID          dashboard
// @Summary     Inventory overview
// @Description Car and tag totals, tag popularity, and the most recently added cars.
// @Tags        Dashboard
// @Produce     json
// @Success     200  {object} inventory.Summary
// @Failure     503  {object} handlers.ErrorResponse "Store unavailable"
// @Router      /dashboard [get]
func (h *Handlers) Dashboard(c *gin.Context) {
	s, err := h.cars.Dashboard(c.Request.Context())
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, s)
}
