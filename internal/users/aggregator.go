// Package users composes the per-user accessors into one denormalized
// user-info record.
package users

import (
	"context"
	"log/slog"

	"github.com/reposnap/reposnap/internal/gitrepo"
)

// UserInfo is the aggregated view of a user built once per call and never
// mutated afterwards.
type UserInfo struct {
	Account   gitrepo.Account       `json:"account"`
	Gists     []gitrepo.Gist        `json:"gists"`
	Repos     []gitrepo.Repository  `json:"repos"`
	Followers []gitrepo.UserSummary `json:"followers"`
	Following []gitrepo.UserSummary `json:"following"`

	// IssuesByRepo and PullRequestsByRepo are indexed over the user's full
	// repository set, not the limited Repos field. Callers relying on the
	// cap must apply it themselves.
	IssuesByRepo       map[string][]gitrepo.Issue       `json:"issuesByRepo"`
	PullRequestsByRepo map[string][]gitrepo.PullRequest `json:"pullRequestsByRepo"`
}

// Aggregator builds UserInfo records.
type Aggregator struct {
	client gitrepo.Client
	log    *slog.Logger
}

// New creates an Aggregator.
func New(client gitrepo.Client, log *slog.Logger) *Aggregator {
	return &Aggregator{client: client, log: log}
}

// GetUserInfo fetches a user's profile, gists, repositories, followers and
// following, plus every repository's issues and pull requests (state=all)
// indexed by repository name. limit caps gists, repos, followers and
// following independently; pass gitrepo.Unlimited for no cap. Issue and
// pull-request maps always cover the full repository set.
func (a *Aggregator) GetUserInfo(ctx context.Context, login string, limit int) (*UserInfo, error) {
	account, err := a.client.GetAccount(ctx, login)
	if err != nil {
		return nil, err
	}

	gists, err := a.client.ListGists(ctx, login)
	if err != nil {
		return nil, err
	}

	repos, err := a.client.ListRepositories(ctx, login)
	if err != nil {
		return nil, err
	}

	followers, err := a.client.ListFollowers(ctx, login)
	if err != nil {
		return nil, err
	}

	following, err := a.client.ListFollowing(ctx, login)
	if err != nil {
		return nil, err
	}

	issuesByRepo := make(map[string][]gitrepo.Issue, len(repos))
	pullsByRepo := make(map[string][]gitrepo.PullRequest, len(repos))
	for _, repo := range repos {
		ref := gitrepo.RepoRef{Owner: repo.Owner, Name: repo.Name}

		issues, err := a.client.ListIssues(ctx, ref, "all")
		if err != nil {
			return nil, err
		}
		issuesByRepo[repo.Name] = issues

		pulls, err := a.client.ListPullRequests(ctx, ref, "all")
		if err != nil {
			return nil, err
		}
		pullsByRepo[repo.Name] = pulls
	}

	a.log.Debug("aggregated user info",
		"login", login, "repos", len(repos), "gists", len(gists))

	return &UserInfo{
		Account:            *account,
		Gists:              gitrepo.Limit(gists, limit),
		Repos:              gitrepo.Limit(repos, limit),
		Followers:          gitrepo.Limit(followers, limit),
		Following:          gitrepo.Limit(following, limit),
		IssuesByRepo:       issuesByRepo,
		PullRequestsByRepo: pullsByRepo,
	}, nil
}
