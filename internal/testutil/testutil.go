// Package testutil holds request and token helpers shared by HTTP tests.
package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"bookworld/internal/platform/crypto"
)

// Token signs a one-hour token for userID.
func Token(t testing.TB, secret, userID string) string {
	t.Helper()
	token, err := crypto.GenerateToken(secret, userID, time.Hour)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	return token
}

// ExpiredToken signs a token for userID that expired an hour ago.
func ExpiredToken(t testing.TB, secret, userID string) string {
	t.Helper()
	c := crypto.Claims{
		Sub: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "bookworld",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

// NewRequest builds a test request with body encoded as JSON when non-nil.
func NewRequest(method, path string, body any) *http.Request {
	if body == nil {
		return httptest.NewRequest(method, path, nil)
	}
	b, _ := json.Marshal(body)
	r := httptest.NewRequest(method, path, bytes.NewReader(b))
	r.Header.Set("Content-Type", "application/json")
	return r
}

// NewRequestWithAuth is NewRequest plus a bearer token.
func NewRequestWithAuth(method, path string, body any, token string) *http.Request {
	r := NewRequest(method, path, body)
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	return r
}

// Response is a recorded response with its JSON body decoded.
type Response struct {
	Code   int
	Header http.Header
	Body   map[string]any
}

func Record(w *httptest.ResponseRecorder) Response {
	result := w.Result()
	defer result.Body.Close()

	raw, _ := io.ReadAll(result.Body)
	var body map[string]any
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &body)
	}
	return Response{Code: result.StatusCode, Header: result.Header, Body: body}
}

// ErrorCode returns error.code from an envelope body, or "".
func (r Response) ErrorCode() string {
	e, _ := r.Body["error"].(map[string]any)
	code, _ := e["code"].(string)
	return code
}
