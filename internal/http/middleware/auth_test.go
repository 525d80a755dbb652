package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func authRouter(verify TokenVerifier) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID(), OptionalAuth(verify))
	r.GET("/who", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user": UserID(c), "owner": Owner(c)})
	})
	return r
}

func goodVerifier(raw string) (string, error) {
	if raw == "good" {
		return "u1", nil
	}
	return "", errors.New("bad token")
}

func TestOptionalAuth(t *testing.T) {
	r := authRouter(goodVerifier)

	cases := []struct {
		name      string
		header    string
		wantCode  int
		wantUser  string
		wantOwner string
	}{
		{"anonymous", "", http.StatusOK, "", "ip:192.0.2.1"},
		{"valid", "Bearer good", http.StatusOK, "u1", "user:u1"},
		{"case-insensitive scheme", "bearer good", http.StatusOK, "u1", "user:u1"},
		{"rejected", "Bearer nope", http.StatusUnauthorized, "", ""},
		{"wrong scheme", "Basic Zm9vOmJhcg==", http.StatusUnauthorized, "", ""},
		{"empty token", "Bearer ", http.StatusUnauthorized, "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/who", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			r.ServeHTTP(w, req)
			if w.Code != tc.wantCode {
				t.Fatalf("status=%d want %d body=%s", w.Code, tc.wantCode, w.Body.String())
			}
			var body map[string]string
			_ = json.Unmarshal(w.Body.Bytes(), &body)
			if tc.wantCode == http.StatusUnauthorized {
				if body["code"] != "unauthorized" || w.Header().Get("WWW-Authenticate") == "" {
					t.Fatalf("unexpected 401 shape: %v", body)
				}
				return
			}
			if body["user"] != tc.wantUser || body["owner"] != tc.wantOwner {
				t.Fatalf("got %v", body)
			}
		})
	}
}

func TestOptionalAuth_NilVerifierIgnoresHeader(t *testing.T) {
	r := authRouter(nil)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/who", nil)
	req.Header.Set("Authorization", "Bearer whatever")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
}

func TestOwner_ClientIDHeader(t *testing.T) {
	r := authRouter(goodVerifier)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/who", nil)
	req.Header.Set(clientIDHeader, "browser-7")
	r.ServeHTTP(w, req)
	var body map[string]string
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	if body["owner"] != "client:browser-7" {
		t.Fatalf("owner=%q", body["owner"])
	}
}
