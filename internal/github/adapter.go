package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	gogithub "github.com/google/go-github/v75/github"

	"github.com/reposnap/reposnap/internal/gitrepo"
)

// listPageSize is the per_page value used for every paginated listing.
const listPageSize = 100

// Compile-time check: *Adapter implements gitrepo.Client.
var _ gitrepo.Client = (*Adapter)(nil)

// Adapter wraps a go-github client and implements gitrepo.Client. A single
// instance covers both materialization (tree listings, blob reads) and the
// user-facing accessors (repos, gists, issues, pull requests, followers).
type Adapter struct {
	gh *gogithub.Client
}

// New creates an Adapter from an authenticated *github.Client.
func New(gh *gogithub.Client) *Adapter {
	return &Adapter{gh: gh}
}

// GetRepository resolves repository metadata, including the default branch.
func (a *Adapter) GetRepository(ctx context.Context, ref gitrepo.RepoRef) (*gitrepo.Repository, error) {
	if err := ref.Validate(); err != nil {
		return nil, err
	}
	repo, resp, err := a.gh.Repositories.Get(ctx, ref.Owner, ref.Name)
	if err != nil {
		return nil, mapErr("get repository "+ref.FullName(), "repo "+ref.FullName(), ref.Ref, resp, err)
	}
	r := convertRepository(repo)
	return &r, nil
}

// ListTree lists the direct children of path, one level deep, in API order.
func (a *Adapter) ListTree(ctx context.Context, ref gitrepo.RepoRef, path string) ([]gitrepo.TreeEntry, error) {
	if err := ref.Validate(); err != nil {
		return nil, err
	}
	opts := &gogithub.RepositoryContentGetOptions{Ref: ref.Ref}
	fc, dc, resp, err := a.gh.Repositories.GetContents(ctx, ref.Owner, ref.Name, path, opts)
	if err != nil {
		return nil, mapErr(
			fmt.Sprintf("list tree %s/%s", ref.FullName(), path),
			ref.FullName()+"/"+path, ref.Ref, resp, err)
	}
	if fc != nil {
		return nil, fmt.Errorf("path %q in %s is a file, not a directory", path, ref.FullName())
	}

	entries := make([]gitrepo.TreeEntry, 0, len(dc))
	for _, c := range dc {
		kind := gitrepo.EntryFile
		if c.GetType() == "dir" {
			kind = gitrepo.EntryDir
		}
		entries = append(entries, gitrepo.TreeEntry{
			Name: c.GetName(),
			Path: c.GetPath(),
			Kind: kind,
		})
	}
	return entries, nil
}

// GetBlob fetches one file's content, decoded and classified.
func (a *Adapter) GetBlob(ctx context.Context, ref gitrepo.RepoRef, path string) (gitrepo.Blob, error) {
	if err := ref.Validate(); err != nil {
		return gitrepo.Blob{}, err
	}
	opts := &gogithub.RepositoryContentGetOptions{Ref: ref.Ref}
	fc, _, resp, err := a.gh.Repositories.GetContents(ctx, ref.Owner, ref.Name, path, opts)
	if err != nil {
		return gitrepo.Blob{}, mapErr(
			fmt.Sprintf("get blob %s/%s", ref.FullName(), path),
			ref.FullName()+"/"+path, ref.Ref, resp, err)
	}
	if fc == nil {
		return gitrepo.Blob{}, fmt.Errorf("path %q in %s is a directory, not a file", path, ref.FullName())
	}
	return decodeRepositoryContent(fc), nil
}

// decodeRepositoryContent turns the contents-API payload into a classified
// blob. The API ships file bodies base64-encoded with line breaks; anything
// else is taken as literal content.
func decodeRepositoryContent(fc *gogithub.RepositoryContent) gitrepo.Blob {
	if fc.Content == nil {
		return gitrepo.Blob{Text: "", IsText: true}
	}
	switch fc.GetEncoding() {
	case "base64":
		cleaned := strings.NewReplacer("\n", "", "\r", "").Replace(*fc.Content)
		return gitrepo.DecodeContent(cleaned)
	default:
		return gitrepo.DecodeBytes([]byte(*fc.Content))
	}
}

// ListBranches lists the branches of a repository.
func (a *Adapter) ListBranches(ctx context.Context, ref gitrepo.RepoRef) ([]gitrepo.Branch, error) {
	if err := ref.Validate(); err != nil {
		return nil, err
	}
	opts := &gogithub.BranchListOptions{
		ListOptions: gogithub.ListOptions{PerPage: listPageSize},
	}
	var branches []gitrepo.Branch
	for {
		page, resp, err := a.gh.Repositories.ListBranches(ctx, ref.Owner, ref.Name, opts)
		if err != nil {
			return nil, mapErr("list branches "+ref.FullName(), "repo "+ref.FullName(), "", resp, err)
		}
		for _, b := range page {
			branches = append(branches, gitrepo.Branch{
				Name: b.GetName(),
				SHA:  b.GetCommit().GetSHA(),
			})
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return branches, nil
}

// GetAccount fetches a user profile by login.
func (a *Adapter) GetAccount(ctx context.Context, login string) (*gitrepo.Account, error) {
	u, resp, err := a.gh.Users.Get(ctx, login)
	if err != nil {
		return nil, mapErr("get user "+login, "user "+login, "", resp, err)
	}
	return &gitrepo.Account{
		ID:          u.GetID(),
		Login:       u.GetLogin(),
		Name:        u.GetName(),
		Company:     u.GetCompany(),
		Location:    u.GetLocation(),
		PublicRepos: u.GetPublicRepos(),
		CreatedAt:   u.GetCreatedAt().Time,
	}, nil
}

// ListGists lists a user's gists.
func (a *Adapter) ListGists(ctx context.Context, login string) ([]gitrepo.Gist, error) {
	opts := &gogithub.GistListOptions{
		ListOptions: gogithub.ListOptions{PerPage: listPageSize},
	}
	var gists []gitrepo.Gist
	for {
		page, resp, err := a.gh.Gists.List(ctx, login, opts)
		if err != nil {
			return nil, mapErr("list gists "+login, "user "+login, "", resp, err)
		}
		for _, g := range page {
			gists = append(gists, gitrepo.Gist{
				ID:          g.GetID(),
				Description: g.GetDescription(),
				Public:      g.GetPublic(),
				CreatedAt:   g.GetCreatedAt().Time,
			})
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return gists, nil
}

// ListRepositories lists a user's source repositories, most recently
// updated first. Forks are excluded upstream via type=sources.
func (a *Adapter) ListRepositories(ctx context.Context, login string) ([]gitrepo.Repository, error) {
	opts := &gogithub.RepositoryListByUserOptions{
		Type:        "sources",
		Sort:        "updated",
		Direction:   "desc",
		ListOptions: gogithub.ListOptions{PerPage: listPageSize},
	}
	var repos []gitrepo.Repository
	for {
		page, resp, err := a.gh.Repositories.ListByUser(ctx, login, opts)
		if err != nil {
			return nil, mapErr("list repositories "+login, "user "+login, "", resp, err)
		}
		for _, r := range page {
			repos = append(repos, convertRepository(r))
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return repos, nil
}

// ListIssues lists a repository's issues in the given state. Pull requests
// surface on the issues endpoint too; they are filtered out here.
func (a *Adapter) ListIssues(ctx context.Context, ref gitrepo.RepoRef, state string) ([]gitrepo.Issue, error) {
	if err := ref.Validate(); err != nil {
		return nil, err
	}
	opts := &gogithub.IssueListByRepoOptions{
		State:       state,
		ListOptions: gogithub.ListOptions{PerPage: listPageSize},
	}
	var issues []gitrepo.Issue
	for {
		page, resp, err := a.gh.Issues.ListByRepo(ctx, ref.Owner, ref.Name, opts)
		if err != nil {
			return nil, mapErr("list issues "+ref.FullName(), "repo "+ref.FullName(), "", resp, err)
		}
		for _, i := range page {
			if i.IsPullRequest() {
				continue
			}
			issues = append(issues, gitrepo.Issue{
				Number:    i.GetNumber(),
				Title:     i.GetTitle(),
				State:     i.GetState(),
				CreatedAt: i.GetCreatedAt().Time,
			})
		}
		if resp.NextPage == 0 {
			break
		}
		opts.ListOptions.Page = resp.NextPage
	}
	return issues, nil
}

// ListPullRequests lists a repository's pull requests in the given state.
func (a *Adapter) ListPullRequests(ctx context.Context, ref gitrepo.RepoRef, state string) ([]gitrepo.PullRequest, error) {
	if err := ref.Validate(); err != nil {
		return nil, err
	}
	opts := &gogithub.PullRequestListOptions{
		State:       state,
		ListOptions: gogithub.ListOptions{PerPage: listPageSize},
	}
	var prs []gitrepo.PullRequest
	for {
		page, resp, err := a.gh.PullRequests.List(ctx, ref.Owner, ref.Name, opts)
		if err != nil {
			return nil, mapErr("list pull requests "+ref.FullName(), "repo "+ref.FullName(), "", resp, err)
		}
		for _, pr := range page {
			prs = append(prs, gitrepo.PullRequest{
				Number:    pr.GetNumber(),
				Title:     pr.GetTitle(),
				State:     pr.GetState(),
				CreatedAt: pr.GetCreatedAt().Time,
			})
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return prs, nil
}

// ListFollowers lists the users following login.
func (a *Adapter) ListFollowers(ctx context.Context, login string) ([]gitrepo.UserSummary, error) {
	return a.listUsers(ctx, login, "list followers "+login, a.gh.Users.ListFollowers)
}

// ListFollowing lists the users login follows.
func (a *Adapter) ListFollowing(ctx context.Context, login string) ([]gitrepo.UserSummary, error) {
	return a.listUsers(ctx, login, "list following "+login, a.gh.Users.ListFollowing)
}

func (a *Adapter) listUsers(
	ctx context.Context,
	login, op string,
	list func(context.Context, string, *gogithub.ListOptions) ([]*gogithub.User, *gogithub.Response, error),
) ([]gitrepo.UserSummary, error) {
	opts := &gogithub.ListOptions{PerPage: listPageSize}
	var users []gitrepo.UserSummary
	for {
		page, resp, err := list(ctx, login, opts)
		if err != nil {
			return nil, mapErr(op, "user "+login, "", resp, err)
		}
		for _, u := range page {
			users = append(users, gitrepo.UserSummary{Login: u.GetLogin(), ID: u.GetID()})
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return users, nil
}

func convertRepository(r *gogithub.Repository) gitrepo.Repository {
	return gitrepo.Repository{
		ID:            r.GetID(),
		Owner:         r.GetOwner().GetLogin(),
		Name:          r.GetName(),
		FullName:      r.GetFullName(),
		Description:   r.GetDescription(),
		DefaultBranch: r.GetDefaultBranch(),
		Private:       r.GetPrivate(),
		Fork:          r.GetFork(),
		Stars:         r.GetStargazersCount(),
		Forks:         r.GetForksCount(),
		UpdatedAt:     r.GetUpdatedAt().Time,
	}
}

// mapErr translates go-github failures into the gitrepo error taxonomy.
// A 404 becomes NotFoundError; everything else is a TransportError carrying
// the operation and, when available, the HTTP status.
func mapErr(op, resource, ref string, resp *gogithub.Response, err error) error {
	var ghErr *gogithub.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil && ghErr.Response.StatusCode == http.StatusNotFound {
		return gitrepo.NotFoundError{Resource: resource, Ref: ref}
	}
	status := 0
	if resp != nil && resp.Response != nil {
		status = resp.StatusCode
	}
	return gitrepo.TransportError{Op: op, Status: status, Err: err}
}
