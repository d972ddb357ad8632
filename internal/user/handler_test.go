package user

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	userrepo "github.com/ovaphlow/pitchfork/service-registration/internal/user/repo"
	"github.com/ovaphlow/pitchfork/service-registration/pkg/database"
)

type handlerFixture struct {
	mux *http.ServeMux
	db  *sqlx.DB
	ver *fakeVerifier
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()
	db, err := database.Connect(database.Config{
		Driver:  database.DriverSQLite,
		DSN:     filepath.Join(t.TempDir(), "users.db"),
		Timeout: time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repo := userrepo.NewUserRepo(db)
	require.NoError(t, repo.EnsureTable(context.Background()))

	ver := newFakeVerifier()
	h := NewHandler(NewService(repo, ver, Config{EnforceGroups: true}, nil), zap.NewNop().Sugar())
	mux := http.NewServeMux()
	mux.HandleFunc("POST /user", h.Create)
	mux.HandleFunc("GET /user", h.Get)
	return &handlerFixture{mux: mux, db: db, ver: ver}
}

func (f *handlerFixture) rows(t *testing.T, subjectID string) int {
	t.Helper()
	var n int
	require.NoError(t, f.db.Get(&n, f.db.Rebind(`SELECT COUNT(*) FROM users WHERE subject_id = ?`), subjectID))
	return n
}

func (f *handlerFixture) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	f.mux.ServeHTTP(w, req)
	return w
}

func postForm(vals url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/user", strings.NewReader(vals.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func signupForm(token, group string) url.Values {
	return url.Values{"token": {token}, "first_name": {"Ada"}, "last_name": {"Lovelace"}, "group": {group}}
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestHandlerCreateAndRead(t *testing.T) {
	f := newHandlerFixture(t)

	w := f.do(postForm(signupForm("tok-ada", "7a")))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	created := decodeBody(t, w)
	assert.Equal(t, map[string]any{
		"id":         "uid-ada",
		"first_name": "Ada",
		"last_name":  "Lovelace",
		"email":      "ada@example.com",
		"group":      "7a",
	}, created)

	w = f.do(httptest.NewRequest(http.MethodGet, "/user?token=tok-ada", nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, created, decodeBody(t, w))
}

func TestHandlerAcceptsJSONAndBearer(t *testing.T) {
	f := newHandlerFixture(t)

	body := `{"first_name":"Bob","last_name":"Builder","group":"10c","email":"spoof@example.com","id":"spoofed"}`
	req := httptest.NewRequest(http.MethodPost, "/user", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer tok-bob")
	w := f.do(req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	got := decodeBody(t, w)
	assert.Equal(t, "uid-bob", got["id"])
	assert.Equal(t, "bob@example.com", got["email"])

	req = httptest.NewRequest(http.MethodGet, "/user", nil)
	req.Header.Set("Authorization", "bearer tok-bob")
	w = f.do(req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Builder", decodeBody(t, w)["last_name"])
}

func TestHandlerErrors(t *testing.T) {
	f := newHandlerFixture(t)
	require.Equal(t, http.StatusCreated, f.do(postForm(signupForm("tok-ada", "7a"))).Code)

	missing := signupForm("tok-bob", "7a")
	missing.Del("last_name")

	badJSON := httptest.NewRequest(http.MethodPost, "/user", strings.NewReader("{nope"))
	badJSON.Header.Set("Content-Type", "application/json")

	cases := []struct {
		name    string
		req     *http.Request
		status  int
		message string
	}{
		{"missing field", postForm(missing), http.StatusBadRequest, "last_name is required"},
		{"missing token on read", httptest.NewRequest(http.MethodGet, "/user", nil), http.StatusBadRequest, "token is required"},
		{"malformed json", badJSON, http.StatusBadRequest, "invalid payload"},
		{"expired token", postForm(signupForm("tok-expired", "7a")), http.StatusForbidden, "The provided token is expired"},
		{"invalid token", httptest.NewRequest(http.MethodGet, "/user?token=junk", nil), http.StatusForbidden, "The provided token is invalid"},
		{"insufficient token", postForm(signupForm("tok-denied", "7a")), http.StatusForbidden, "The provided token lacks required permissions"},
		{"invalid group", postForm(signupForm("tok-bob", "13z")), http.StatusForbidden, "The provided group is not valid"},
		{"duplicate", postForm(signupForm("tok-ada-2", "8a")), http.StatusConflict, "This user already exists"},
		{"unknown user", httptest.NewRequest(http.MethodGet, "/user?token=tok-bob", nil), http.StatusNotFound, "This user does not exist"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := f.do(tc.req)
			assert.Equal(t, tc.status, w.Code)
			assert.Equal(t, map[string]any{"message": tc.message}, decodeBody(t, w))
		})
	}

	assert.Zero(t, f.rows(t, "uid-bob"))
}

func TestHandlerConcurrentCreateSingleWinner(t *testing.T) {
	f := newHandlerFixture(t)

	const workers = 8
	codes := make([]int, workers)
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			codes[i] = f.do(postForm(signupForm("tok-ada", "7a"))).Code
		}(i)
	}
	close(start)
	wg.Wait()

	created, conflicts := 0, 0
	for _, c := range codes {
		switch c {
		case http.StatusCreated:
			created++
		case http.StatusConflict:
			conflicts++
		}
	}
	assert.Equal(t, 1, created)
	assert.Equal(t, workers-1, conflicts)

	assert.Equal(t, 1, f.rows(t, "uid-ada"))
}

func TestHandlerWithoutLogger(t *testing.T) {
	repo := newMemRepo()
	repo.getErr = errors.New("disk on fire")
	h := NewHandler(newTestService(repo, newFakeVerifier(), true), nil)

	w := httptest.NewRecorder()
	require.NotPanics(t, func() {
		h.Get(w, httptest.NewRequest(http.MethodGet, "/user?token=tok-ada", nil))
	})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, map[string]any{"message": "internal server error"}, decodeBody(t, w))
}

func TestBearerToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, bearerToken(req))
	req.Header.Set("Authorization", "Basic abc")
	assert.Empty(t, bearerToken(req))
	req.Header.Set("Authorization", "BEARER  abc ")
	assert.Equal(t, "abc", bearerToken(req))
}
