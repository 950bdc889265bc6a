package handler

import (
	"encoding/base64"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/reposnap/reposnap/internal/clone"
	"github.com/reposnap/reposnap/internal/gitrepo"
)

// Health handles GET /health.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// GetUser handles GET /users/:username?limit=N. When a cache is configured
// the aggregate is served cache-aside; cache errors degrade to misses.
func (h *Handler) GetUser(c *gin.Context) {
	login := c.Param("username")

	limit := gitrepo.Unlimited
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
		limit = n
	}

	ctx := c.Request.Context()

	if h.cache != nil {
		cached, err := h.cache.Get(ctx, login, limit)
		if err != nil {
			h.log.Warn("user cache read failed", "login", login, "error", err)
		} else if cached != nil {
			c.JSON(http.StatusOK, cached)
			return
		}
	}

	info, err := h.aggregator.GetUserInfo(ctx, login, limit)
	if err != nil {
		h.writeError(c, err)
		return
	}

	if h.cache != nil {
		if err := h.cache.Set(ctx, login, limit, info); err != nil {
			h.log.Warn("user cache write failed", "login", login, "error", err)
		}
	}

	c.JSON(http.StatusOK, info)
}

// GetRepository handles GET /repos/:owner/:repo.
func (h *Handler) GetRepository(c *gin.Context) {
	ref := gitrepo.RepoRef{Owner: c.Param("owner"), Name: c.Param("repo")}

	repo, err := h.client.GetRepository(c.Request.Context(), ref)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, repo)
}

// GetBranches handles GET /repos/:owner/:repo/branches.
func (h *Handler) GetBranches(c *gin.Context) {
	ref := gitrepo.RepoRef{Owner: c.Param("owner"), Name: c.Param("repo")}

	branches, err := h.client.ListBranches(c.Request.Context(), ref)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"branches": branches})
}

// GetFile handles GET /repos/:owner/:repo/file?path=&ref=. Text payloads
// come back under "text", binary ones base64-encoded under "data".
func (h *Handler) GetFile(c *gin.Context) {
	path := c.Query("path")
	if path == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "path query parameter is required"})
		return
	}
	ref := gitrepo.RepoRef{
		Owner: c.Param("owner"),
		Name:  c.Param("repo"),
		Ref:   c.Query("ref"),
	}

	blob, err := h.client.GetBlob(c.Request.Context(), ref, path)
	if err != nil {
		h.writeError(c, err)
		return
	}

	if blob.IsText {
		c.JSON(http.StatusOK, gin.H{"path": path, "isText": true, "text": blob.Text})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"path":   path,
		"isText": false,
		"data":   base64.StdEncoding.EncodeToString(blob.Data),
	})
}

// cloneRequest is the body of POST /repos/:owner/:repo/clone.
type cloneRequest struct {
	Ref       string `json:"ref"`
	Dir       string `json:"dir"`
	Overwrite bool   `json:"overwrite"`
}

// Clone handles POST /repos/:owner/:repo/clone. The clone runs to
// completion before the response is written; a failed walk leaves the
// partial tree in place.
func (h *Handler) Clone(c *gin.Context) {
	var req cloneRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	ref := gitrepo.RepoRef{
		Owner: c.Param("owner"),
		Name:  c.Param("repo"),
		Ref:   req.Ref,
	}

	err := h.cloner.Clone(c.Request.Context(), ref, clone.Options{
		Dir:       req.Dir,
		Overwrite: req.Overwrite,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	dir := req.Dir
	if dir == "" {
		dir = ref.Name
	}
	c.JSON(http.StatusOK, gin.H{"repo": ref.FullName(), "dir": dir})
}

// writeError maps the gitrepo error taxonomy onto HTTP statuses: 404 for
// missing upstream resources, 502 for remote failures, 500 for local I/O
// and anything unclassified.
func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case gitrepo.IsNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case gitrepo.IsTransport(err):
		h.log.Error("remote request failed", "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		h.log.Error("request failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
