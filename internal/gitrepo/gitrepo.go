// Package gitrepo defines the domain types and the port that the rest of
// reposnap depends on to talk to a git hosting provider. The go-github
// adapter in internal/github is the production implementation; tests use
// the in-memory fake from the same package.
package gitrepo

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// RepoRef identifies a repository and, optionally, a point-in-time view of
// it. An empty Ref selects the repository's default branch.
type RepoRef struct {
	Owner string
	Name  string
	Ref   string
}

// FullName returns the canonical "owner/name" form.
func (r RepoRef) FullName() string {
	return r.Owner + "/" + r.Name
}

// Validate reports whether the ref can be resolved to a non-empty full name.
func (r RepoRef) Validate() error {
	if r.Owner == "" || r.Name == "" {
		return fmt.Errorf("repository reference %q: owner and name must both be set", r.FullName())
	}
	return nil
}

// ParseRepoRef parses "owner/name" or "owner/name@ref" into a RepoRef.
func ParseRepoRef(s string) (RepoRef, error) {
	origin := s
	var ref string
	if at := strings.LastIndex(s, "@"); at != -1 {
		origin, ref = s[:at], s[at+1:]
	}
	owner, name, ok := strings.Cut(origin, "/")
	if !ok || owner == "" || name == "" {
		return RepoRef{}, fmt.Errorf("invalid repository reference %q: want owner/name[@ref]", s)
	}
	return RepoRef{Owner: owner, Name: name, Ref: ref}, nil
}

// EntryKind discriminates tree entries.
type EntryKind string

const (
	EntryFile EntryKind = "file"
	EntryDir  EntryKind = "dir"
)

// TreeEntry is one item returned by a single-level directory listing.
type TreeEntry struct {
	Name string
	Path string
	Kind EntryKind
}

// Blob is a decoded file payload. Exactly one of Text or Data carries the
// content, selected by IsText.
type Blob struct {
	Text   string
	Data   []byte
	IsText bool
}

// Bytes returns the payload as raw bytes regardless of classification.
func (b Blob) Bytes() []byte {
	if b.IsText {
		return []byte(b.Text)
	}
	return b.Data
}

// Repository is the subset of upstream repository metadata reposnap exposes.
type Repository struct {
	ID            int64     `json:"id"`
	Owner         string    `json:"owner"`
	Name          string    `json:"name"`
	FullName      string    `json:"fullName"`
	Description   string    `json:"description,omitempty"`
	DefaultBranch string    `json:"defaultBranch"`
	Private       bool      `json:"private"`
	Fork          bool      `json:"fork"`
	Stars         int       `json:"stars"`
	Forks         int       `json:"forks"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Branch is a named head of a repository.
type Branch struct {
	Name string `json:"name"`
	SHA  string `json:"sha"`
}

// Gist is a user-owned gist.
type Gist struct {
	ID          string    `json:"id"`
	Description string    `json:"description,omitempty"`
	Public      bool      `json:"public"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Issue is one issue of a repository, any state.
type Issue struct {
	Number    int       `json:"number"`
	Title     string    `json:"title"`
	State     string    `json:"state"`
	CreatedAt time.Time `json:"createdAt"`
}

// PullRequest is one pull request of a repository, any state.
type PullRequest struct {
	Number    int       `json:"number"`
	Title     string    `json:"title"`
	State     string    `json:"state"`
	CreatedAt time.Time `json:"createdAt"`
}

// UserSummary identifies a user in follower/following listings.
type UserSummary struct {
	Login string `json:"login"`
	ID    int64  `json:"id"`
}

// Account is a user profile.
type Account struct {
	ID          int64     `json:"id"`
	Login       string    `json:"login"`
	Name        string    `json:"name,omitempty"`
	Company     string    `json:"company,omitempty"`
	Location    string    `json:"location,omitempty"`
	PublicRepos int       `json:"publicRepos"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Client is the port reposnap depends on to interact with a git hosting
// provider. Every method fails with NotFoundError when the referenced
// repository, user, path or ref does not exist upstream, and with
// TransportError for network, auth or malformed-response failures.
type Client interface {
	// GetRepository resolves repository metadata, including the default branch.
	GetRepository(ctx context.Context, ref RepoRef) (*Repository, error)

	// ListTree lists the direct children of path (one level, not recursive),
	// in the order the provider returns them.
	ListTree(ctx context.Context, ref RepoRef, path string) ([]TreeEntry, error)

	// GetBlob fetches one file's content, decoded and classified.
	GetBlob(ctx context.Context, ref RepoRef, path string) (Blob, error)

	// ListBranches lists the branches of a repository.
	ListBranches(ctx context.Context, ref RepoRef) ([]Branch, error)

	// GetAccount fetches a user profile by login.
	GetAccount(ctx context.Context, login string) (*Account, error)

	// ListGists lists a user's gists.
	ListGists(ctx context.Context, login string) ([]Gist, error)

	// ListRepositories lists a user's source repositories, most recently
	// updated first.
	ListRepositories(ctx context.Context, login string) ([]Repository, error)

	// ListIssues lists a repository's issues in the given state
	// ("open", "closed" or "all").
	ListIssues(ctx context.Context, ref RepoRef, state string) ([]Issue, error)

	// ListPullRequests lists a repository's pull requests in the given state.
	ListPullRequests(ctx context.Context, ref RepoRef, state string) ([]PullRequest, error)

	// ListFollowers lists the users following login.
	ListFollowers(ctx context.Context, login string) ([]UserSummary, error)

	// ListFollowing lists the users login follows.
	ListFollowing(ctx context.Context, login string) ([]UserSummary, error)
}
