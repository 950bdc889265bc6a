// reposnap fetches GitHub user and repository information and materializes
// repository trees onto local disk through the contents API.
//
// Usage:
//
//	reposnap clone <owner/repo[@ref]> [-dir DIR] [-overwrite]
//	reposnap user <username> [-limit N]
//	reposnap branches <owner/repo>
//	reposnap serve [-port N]
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/reposnap/reposnap/internal/cache"
	"github.com/reposnap/reposnap/internal/clone"
	"github.com/reposnap/reposnap/internal/config"
	"github.com/reposnap/reposnap/internal/gitrepo"
	githubadapter "github.com/reposnap/reposnap/internal/github"
	"github.com/reposnap/reposnap/internal/handler"
	"github.com/reposnap/reposnap/internal/users"
	"github.com/reposnap/reposnap/pkg/logging"
)

func main() {
	log := logging.New()

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Error("config load failed", "error", err)
		os.Exit(1)
	}

	adapter, err := buildAdapter(cfg, log)
	if err != nil {
		log.Error("github client init failed", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	var runErr error
	switch os.Args[1] {
	case "clone":
		runErr = runClone(ctx, adapter, log, os.Args[2:])
	case "user":
		runErr = runUser(ctx, adapter, log, os.Args[2:])
	case "branches":
		runErr = runBranches(ctx, adapter, os.Args[2:])
	case "serve":
		runErr = runServe(adapter, cfg, log, os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}

	if runErr != nil {
		log.Error("command failed", "command", os.Args[1], "error", runErr)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: reposnap <command> [args]

commands:
  clone <owner/repo[@ref]> [-dir DIR] [-overwrite]   materialize a repository tree locally
  user <username> [-limit N]                         print aggregated user info as JSON
  branches <owner/repo>                              list repository branches
  serve [-port N]                                    run the HTTP API`)
}

// buildAdapter selects app auth when fully configured, token auth otherwise.
func buildAdapter(cfg *config.Config, log *slog.Logger) (*githubadapter.Adapter, error) {
	if cfg.HasAppAuth() {
		gh, err := githubadapter.NewAppClient(cfg.AppID, cfg.AppInstallationID, cfg.AppPrivateKeyPath, cfg.APIBaseURL)
		if err != nil {
			return nil, err
		}
		log.Info("github: using app auth", "appID", cfg.AppID, "installationID", cfg.AppInstallationID)
		return githubadapter.New(gh), nil
	}
	gh := githubadapter.NewTokenClient(cfg.Token, cfg.APIBaseURL)
	log.Debug("github: using token auth", "authenticated", cfg.Token != "")
	return githubadapter.New(gh), nil
}

func runClone(ctx context.Context, client gitrepo.Client, log *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("clone", flag.ExitOnError)
	dir := fs.String("dir", "", "destination directory (default: repository name)")
	overwrite := fs.Bool("overwrite", false, "rewrite files in an existing destination")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("clone: want exactly one owner/repo[@ref] argument")
	}

	ref, err := gitrepo.ParseRepoRef(fs.Arg(0))
	if err != nil {
		return err
	}

	cloner := clone.New(client, log)
	return cloner.Clone(ctx, ref, clone.Options{Dir: *dir, Overwrite: *overwrite})
}

func runUser(ctx context.Context, client gitrepo.Client, log *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("user", flag.ExitOnError)
	limit := fs.Int("limit", gitrepo.Unlimited, "cap gists, repos and follower listings")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("user: want exactly one username argument")
	}

	agg := users.New(client, log)
	info, err := agg.GetUserInfo(ctx, fs.Arg(0), *limit)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(info)
}

func runBranches(ctx context.Context, client gitrepo.Client, args []string) error {
	fs := flag.NewFlagSet("branches", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("branches: want exactly one owner/repo argument")
	}

	ref, err := gitrepo.ParseRepoRef(fs.Arg(0))
	if err != nil {
		return err
	}

	branches, err := client.ListBranches(ctx, ref)
	if err != nil {
		return err
	}
	for _, b := range branches {
		fmt.Println(b.Name)
	}
	return nil
}

func runServe(adapter *githubadapter.Adapter, cfg *config.Config, log *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	port := fs.Int("port", cfg.Port, "listen port")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var userCache handler.UserCache
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		userCache = cache.NewRedisUserCache(rdb, cfg.CacheTTL)
		log.Info("user cache enabled", "addr", cfg.RedisAddr, "ttl", cfg.CacheTTL)
	}

	cloner := clone.New(adapter, log)
	agg := users.New(adapter, log)

	r := gin.Default()
	handler.RegisterRoutes(r, adapter, cloner, agg, userCache, log)

	log.Info("reposnap serving", "port", *port)
	return r.Run(fmt.Sprintf(":%d", *port))
}
