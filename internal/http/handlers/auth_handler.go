// Auth HTTP handlers.
//
//   - POST /auth/register
//   - POST /auth/login
//   - POST /auth/reset-password
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterRequest creates an account.
type RegisterRequest struct {
	Email    string `json:"email"    binding:"required" example:"ada@example.com"`
	Name     string `json:"name"                        example:"Ada"`
	Password string `json:"password" binding:"required" example:"correct-horse"`
}

// LoginRequest exchanges credentials for an access token.
type LoginRequest struct {
	Email    string `json:"email"    binding:"required" example:"ada@example.com"`
	Password string `json:"password" binding:"required" example:"correct-horse"`
}

// ResetPasswordRequest asks for a password reset.
type ResetPasswordRequest struct {
	Email string `json:"email" binding:"required" example:"ada@example.com"`
}

// Register godoc
// @ID          register
// @Summary     Create an account
// @Tags        Auth
// @Accept      json
// @Produce     json
// @Param       body  body  handlers.RegisterRequest  true  "Account"
// @Success     201  {object} domain.User
// @Failure     400  {object} handlers.ErrorResponse "Validation failed"
// @Failure     409  {object} handlers.ErrorResponse "Email already registered"
// @Router      /auth/register [post]
func (h *Handlers) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "email and password required")
		return
	}
	u, err := h.auth.Register(c.Request.Context(), req.Email, req.Name, req.Password)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusCreated, u)
}

// Login godoc
// @ID          login
// @Summary     Sign in
// @Description Returns a bearer token for the Authorization header.
// @Tags        Auth
// @Accept      json
// @Produce     json
// @Param       body  body  handlers.LoginRequest  true  "Credentials"
// @Success     200  {object} services.Token
// @Failure     401  {object} handlers.ErrorResponse "Invalid credentials"
// @Router      /auth/login [post]
func (h *Handlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "email and password required")
		return
	}
	tok, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, tok)
}

// ResetPassword godoc
// @ID          resetPassword
// @Summary     Request a password reset
// @Description Always answers 202 so the response does not reveal whether the email has an account.
// @Tags        Auth
// @Accept      json
// @Produce     json
// @Param       body  body  handlers.ResetPasswordRequest  true  "Account email"
// @Success     202  {object} handlers.MessageResponse
// @Router      /auth/reset-password [post]
func (h *Handlers) ResetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "email required")
		return
	}
	if err := h.auth.RequestPasswordReset(c.Request.Context(), req.Email); err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusAccepted, MessageResponse{Message: "if the account exists, reset instructions have been sent"})
}
