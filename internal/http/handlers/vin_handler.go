package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// DecodeVIN godoc
// @ID          decodeVin
// @Summary     Decode a VIN
// @Description Looks the VIN up with the vehicle database; attributes it does not know are "N/A".
// @Tags        VIN
// @Produce     json
// @Param       vin  path     string  true  "17-character VIN"
// @Success     200  {object} vin.Decoded
// @Failure     400  {object} handlers.ErrorResponse "Malformed VIN"
// @Failure     503  {object} handlers.ErrorResponse "Vehicle database unavailable"
// @Router      /vin/{vin} [get]
func (h *Handlers) DecodeVIN(c *gin.Context) {
	d, err := h.vin.Decode(c.Request.Context(), c.Param("vin"))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, d)
}
