// Package handler exposes reposnap over HTTP.
package handler

import (
	"context"
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/reposnap/reposnap/internal/clone"
	"github.com/reposnap/reposnap/internal/gitrepo"
	"github.com/reposnap/reposnap/internal/users"
)

// UserCache is a cache-aside store for aggregated user info. Cache failures
// are logged and treated as misses.
type UserCache interface {
	Get(ctx context.Context, login string, limit int) (*users.UserInfo, error)
	Set(ctx context.Context, login string, limit int, info *users.UserInfo) error
}

// Handler translates HTTP requests into calls on the cloner, the aggregator
// and the gitrepo client.
type Handler struct {
	client     gitrepo.Client
	cloner     *clone.Cloner
	aggregator *users.Aggregator
	cache      UserCache // nil disables caching
	log        *slog.Logger
}

// RegisterRoutes mounts the reposnap API onto the given Gin engine.
// cache may be nil.
func RegisterRoutes(r *gin.Engine, client gitrepo.Client, cloner *clone.Cloner,
	aggregator *users.Aggregator, cache UserCache, log *slog.Logger,
) {
	h := &Handler{
		client:     client,
		cloner:     cloner,
		aggregator: aggregator,
		cache:      cache,
		log:        log,
	}

	r.GET("/health", h.Health)

	r.GET("/users/:username", h.GetUser)

	r.GET("/repos/:owner/:repo", h.GetRepository)
	r.GET("/repos/:owner/:repo/branches", h.GetBranches)
	r.GET("/repos/:owner/:repo/file", h.GetFile)
	r.POST("/repos/:owner/:repo/clone", h.Clone)
}
