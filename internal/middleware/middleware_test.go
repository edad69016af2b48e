package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"twobeats/internal/auth"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEngine(mw ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(mw...)
	r.GET("/whoami", func(c *gin.Context) {
		c.String(http.StatusOK, strconv.FormatUint(uint64(GetUserID(c)), 10))
	})
	return r
}

func get(r http.Handler, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	for k, v := range header {
		req.Header[k] = v
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func bearer(token string) http.Header {
	return http.Header{"Authorization": []string{"Bearer " + token}}
}

func TestAuthMiddleware(t *testing.T) {
	tokens := auth.NewTokenManager("secret", time.Hour)
	valid, _, err := tokens.Generate(42, "alice")
	require.NoError(t, err)
	foreign, _, err := auth.NewTokenManager("other", time.Hour).Generate(42, "alice")
	require.NoError(t, err)

	r := newEngine(AuthMiddleware(tokens))

	tests := []struct {
		name   string
		header http.Header
		status int
		body   string
	}{
		{name: "missing header", header: nil, status: http.StatusUnauthorized},
		{name: "not bearer", header: http.Header{"Authorization": []string{"Basic abc"}}, status: http.StatusUnauthorized},
		{name: "empty bearer", header: bearer(""), status: http.StatusUnauthorized},
		{name: "garbage", header: bearer("not-a-jwt"), status: http.StatusUnauthorized},
		{name: "wrong secret", header: bearer(foreign), status: http.StatusUnauthorized},
		{name: "valid", header: bearer(valid), status: http.StatusOK, body: "42"},
		{name: "lowercase scheme", header: http.Header{"Authorization": []string{"bearer " + valid}}, status: http.StatusOK, body: "42"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := get(r, tt.header)
			assert.Equal(t, tt.status, w.Code)
			if tt.body != "" {
				assert.Equal(t, tt.body, w.Body.String())
			} else {
				assert.Contains(t, w.Body.String(), `"success":false`)
			}
		})
	}
}

func TestOptionalAuthMiddleware(t *testing.T) {
	tokens := auth.NewTokenManager("secret", time.Hour)
	valid, _, err := tokens.Generate(7, "bob")
	require.NoError(t, err)

	r := newEngine(OptionalAuthMiddleware(tokens))

	w := get(r, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "0", w.Body.String())

	w = get(r, bearer("broken"))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "0", w.Body.String())

	w = get(r, bearer(valid))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "7", w.Body.String())
}

func TestRequestIDMiddleware(t *testing.T) {
	r := newEngine(RequestIDMiddleware())

	w := get(r, http.Header{requestIDHeader: []string{"req-123"}})
	assert.Equal(t, "req-123", w.Header().Get(requestIDHeader))

	w = get(r, nil)
	generated := w.Header().Get(requestIDHeader)
	assert.Len(t, generated, 36)

	w = get(r, nil)
	assert.NotEqual(t, generated, w.Header().Get(requestIDHeader))
}

func TestCORSMiddleware(t *testing.T) {
	r := newEngine(CORSMiddleware("https://app.example"))
	r.OPTIONS("/whoami", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/whoami", nil)
	req.Header.Set("Origin", "https://app.example")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://app.example", w.Header().Get("Access-Control-Allow-Origin"))

	w = get(r, http.Header{"Origin": []string{"https://evil.example"}})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}
