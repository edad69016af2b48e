// Package apptest starts the full HTTP application against an in-memory
// database and temp-dir storage.
package apptest

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"twobeats/internal/app"
	"twobeats/internal/config"
	"twobeats/internal/models"
	"twobeats/internal/storage"
	"twobeats/internal/testutil"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type TestServer struct {
	Server     *httptest.Server
	App        *app.App
	DB         *gorm.DB
	Storage    *storage.LocalStorage
	Thumbnails *testutil.FakeThumbnailer
}

// NewTestServer builds the application and serves it until the test ends.
func NewTestServer(t *testing.T) *TestServer {
	t.Helper()

	cfg := config.Default()
	cfg.Server.Env = "test"
	cfg.JWT.Secret = "test-secret"

	db := testutil.NewDB(t)
	st := testutil.NewStorage(t)
	thumbs := &testutil.FakeThumbnailer{Data: testutil.JPEGBytes(t)}

	a, err := app.New(cfg, app.Options{
		DB:         db,
		Storage:    st,
		Prober:     &testutil.FakeProber{},
		Thumbnails: thumbs,
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	go a.Hub.Run(ctx)

	server := httptest.NewServer(a.Router)
	t.Cleanup(func() {
		server.Close()
		cancel()
	})

	return &TestServer{
		Server:     server,
		App:        a,
		DB:         db,
		Storage:    st,
		Thumbnails: thumbs,
	}
}

// SendRequest sends body as JSON and returns the response with its body read.
func (ts *TestServer) SendRequest(t *testing.T, method, path, token string, body interface{}) (*http.Response, string) {
	t.Helper()

	var reqBody io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err, "encoding request body")
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, ts.Server.URL+path, reqBody)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return ts.do(t, req, token)
}

// SendMultipart posts a multipart/form-data body.
func (ts *TestServer) SendMultipart(t *testing.T, method, path, token string, fields map[string][]string, files ...testutil.FilePart) (*http.Response, string) {
	t.Helper()

	body, contentType := testutil.MultipartBody(t, fields, files...)
	req, err := http.NewRequest(method, ts.Server.URL+path, body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", contentType)
	return ts.do(t, req, token)
}

func (ts *TestServer) do(t *testing.T, req *http.Request, token string) (*http.Response, string) {
	t.Helper()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	res, err := ts.Server.Client().Do(req)
	require.NoError(t, err, "sending %s %s", req.Method, req.URL.Path)
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return res, string(raw)
}

// CreateAndLoginUser stores a user and signs in through the API.
func (ts *TestServer) CreateAndLoginUser(t *testing.T, username string) (string, *models.User) {
	t.Helper()
	const password = "password123"

	user := testutil.CreateUser(t, ts.DB, username, password)

	res, body := ts.SendRequest(t, http.MethodPost, "/api/v1/auth/login", "", map[string]interface{}{
		"email":    user.Email,
		"password": password,
	})
	require.Equal(t, http.StatusOK, res.StatusCode, "login must succeed: %s", body)

	var login struct {
		Token string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &login))
	require.NotEmpty(t, login.Token)
	return login.Token, user
}

// Decode unmarshals a response body into out.
func Decode(t *testing.T, body string, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal([]byte(body), out), "response body: %s", body)
}
