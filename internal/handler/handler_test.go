package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reposnap/reposnap/internal/clone"
	"github.com/reposnap/reposnap/internal/gitrepo"
	"github.com/reposnap/reposnap/internal/github"
	"github.com/reposnap/reposnap/internal/handler"
	"github.com/reposnap/reposnap/internal/users"
	"github.com/reposnap/reposnap/pkg/logging"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	router *gin.Engine
	inmem  *github.InMem
}

// memCache is an in-process handler.UserCache for cache-aside tests.
type memCache struct {
	entries map[string]*users.UserInfo
	getErr  error
}

func (c *memCache) Get(_ context.Context, login string, limit int) (*users.UserInfo, error) {
	if c.getErr != nil {
		return nil, c.getErr
	}
	return c.entries[login], nil
}

func (c *memCache) Set(_ context.Context, login string, _ int, info *users.UserInfo) error {
	c.entries[login] = info
	return nil
}

func newTestServer(t *testing.T, cache handler.UserCache) *testServer {
	t.Helper()
	m := github.NewInMem()
	log := logging.Discard()

	r := gin.New()
	handler.RegisterRoutes(r, m, clone.New(m, log), users.New(m, log), cache, log)
	return &testServer{router: r, inmem: m}
}

func (ts *testServer) do(method, path string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

// ─── GET /health ─────────────────────────────────────────────────────────────

func TestHealth(t *testing.T) {
	ts := newTestServer(t, nil)
	w := ts.do(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

// ─── GET /users/:username ────────────────────────────────────────────────────

func TestGetUser_Found(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.inmem.SetAccount(gitrepo.Account{ID: 7, Login: "alice"})
	ts.inmem.SetUserRepositories("alice", []gitrepo.Repository{
		{Owner: "alice", Name: "widgets", FullName: "alice/widgets"},
	})

	w := ts.do(http.MethodGet, "/users/alice", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var info users.UserInfo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &info))
	assert.Equal(t, "alice", info.Account.Login)
	assert.Len(t, info.Repos, 1)
}

func TestGetUser_NotFound(t *testing.T) {
	ts := newTestServer(t, nil)
	w := ts.do(http.MethodGet, "/users/ghost", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetUser_BadLimit(t *testing.T) {
	ts := newTestServer(t, nil)
	w := ts.do(http.MethodGet, "/users/alice?limit=banana", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetUser_CacheHitSkipsAggregation(t *testing.T) {
	c := &memCache{entries: map[string]*users.UserInfo{
		"alice": {Account: gitrepo.Account{ID: 42, Login: "alice"}},
	}}
	ts := newTestServer(t, c)

	w := ts.do(http.MethodGet, "/users/alice", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var info users.UserInfo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &info))
	assert.Equal(t, int64(42), info.Account.ID)
	assert.Zero(t, ts.inmem.Calls(), "cache hit must not reach the remote")
}

func TestGetUser_CacheErrorDegradesToMiss(t *testing.T) {
	c := &memCache{entries: map[string]*users.UserInfo{}, getErr: errors.New("redis down")}
	ts := newTestServer(t, c)
	ts.inmem.SetAccount(gitrepo.Account{ID: 7, Login: "alice"})

	w := ts.do(http.MethodGet, "/users/alice", nil)

	assert.Equal(t, http.StatusOK, w.Code)
}

// ─── GET /repos/:owner/:repo/... ─────────────────────────────────────────────

func TestGetRepository(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.inmem.SetRepository(gitrepo.Repository{
		Owner: "acme", Name: "widgets", FullName: "acme/widgets", DefaultBranch: "main",
	})

	w := ts.do(http.MethodGet, "/repos/acme/widgets", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var repo gitrepo.Repository
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &repo))
	assert.Equal(t, "acme/widgets", repo.FullName)
}

func TestGetBranches_RepoNotFound(t *testing.T) {
	ts := newTestServer(t, nil)
	w := ts.do(http.MethodGet, "/repos/acme/missing/branches", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetFile_Text(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.inmem.SetFile("acme", "widgets", "readme.md", []byte("# hi"))

	w := ts.do(http.MethodGet, "/repos/acme/widgets/file?path=readme.md", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		IsText bool   `json:"isText"`
		Text   string `json:"text"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.IsText)
	assert.Equal(t, "# hi", resp.Text)
}

func TestGetFile_Binary(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.inmem.SetFile("acme", "widgets", "logo.png", []byte{0xff, 0xfe})

	w := ts.do(http.MethodGet, "/repos/acme/widgets/file?path=logo.png", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		IsText bool   `json:"isText"`
		Data   string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.IsText)
	assert.Equal(t, "//4=", resp.Data)
}

func TestGetFile_MissingPathParam(t *testing.T) {
	ts := newTestServer(t, nil)
	w := ts.do(http.MethodGet, "/repos/acme/widgets/file", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// ─── POST /repos/:owner/:repo/clone ──────────────────────────────────────────

func TestClone_WritesTree(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.inmem.SetFile("acme", "widgets", "a.txt", []byte("hi"))
	dest := filepath.Join(t.TempDir(), "widgets")

	w := ts.do(http.MethodPost, "/repos/acme/widgets/clone", map[string]any{"dir": dest})

	require.Equal(t, http.StatusOK, w.Code)
	got, err := os.ReadFile(filepath.Join(dest, "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hi", string(got))
}

func TestClone_UnknownRepo_Returns404(t *testing.T) {
	ts := newTestServer(t, nil)
	dest := filepath.Join(t.TempDir(), "missing")

	w := ts.do(http.MethodPost, "/repos/acme/missing/clone", map[string]any{"dir": dest})

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestClone_TransportFailure_Returns502(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.inmem.SetFile("acme", "widgets", "a.txt", []byte("hi"))
	ts.inmem.FailBlob("acme", "widgets", "a.txt", gitrepo.TransportError{
		Op: "get blob acme/widgets/a.txt", Status: 500, Err: errors.New("boom"),
	})
	dest := filepath.Join(t.TempDir(), "widgets")

	w := ts.do(http.MethodPost, "/repos/acme/widgets/clone", map[string]any{"dir": dest})

	assert.Equal(t, http.StatusBadGateway, w.Code)
}
