// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements optional bearer authentication. Inventory routes are
// public, so a request without credentials proceeds anonymously; a request
// that presents a token must present a valid one.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	// userIDKey is the Gin context key holding the authenticated user ID.
	userIDKey = "userID"
	// clientIDHeader lets anonymous browsers keep a stable identity for
	// per-client state such as the comparison selection.
	clientIDHeader = "X-Client-ID"
)

// TokenVerifier validates a raw bearer token and returns the user it names.
type TokenVerifier func(raw string) (userID string, err error)

// OptionalAuth sets "userID" when the Authorization header carries a valid
// bearer token. A missing header is allowed. A malformed or rejected token
// aborts with 401 and the standard envelope. A nil verifier disables the
// middleware.
func OptionalAuth(verify TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if verify == nil {
			c.Next()
			return
		}
		h := strings.TrimSpace(c.GetHeader("Authorization"))
		if h == "" {
			c.Next()
			return
		}
		scheme, raw, ok := strings.Cut(h, " ")
		raw = strings.TrimSpace(raw)
		if !ok || !strings.EqualFold(scheme, "Bearer") || raw == "" {
			abortUnauthorized(c, "malformed authorization header")
			return
		}
		uid, err := verify(raw)
		if err != nil || uid == "" {
			LoggerFrom(c).Debug().Err(err).Msg("bearer token rejected")
			abortUnauthorized(c, "invalid or expired token")
			return
		}
		c.Set(userIDKey, uid)
		c.Next()
	}
}

// UserID returns the authenticated user ID, or "" for anonymous requests.
func UserID(c *gin.Context) string {
	v, _ := c.Get(userIDKey)
	return asString(v)
}

// Owner identifies whose per-client state a request touches: the
// authenticated user, else the X-Client-ID header, else the client IP.
func Owner(c *gin.Context) string {
	if uid := UserID(c); uid != "" {
		return "user:" + uid
	}
	if cid := strings.TrimSpace(c.GetHeader(clientIDHeader)); cid != "" && len(cid) <= 128 {
		return "client:" + cid
	}
	return "ip:" + c.ClientIP()
}

func abortUnauthorized(c *gin.Context, msg string) {
	c.Header("WWW-Authenticate", `Bearer realm="driveops"`)
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"request_id": GetRequestID(c),
		"code":       "unauthorized",
		"message":    msg,
	})
}
