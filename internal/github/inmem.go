package github

import (
	"context"
	"strings"
	"sync"

	"github.com/reposnap/reposnap/internal/gitrepo"
)

// Compile-time check: *InMem implements gitrepo.Client.
var _ gitrepo.Client = (*InMem)(nil)

type memFile struct {
	path string
	data []byte
}

// InMem is an in-memory gitrepo.Client for unit tests. Files keep their
// seeding order so listings are deterministic; every remote-facing call is
// counted so tests can assert that an operation made zero calls.
type InMem struct {
	mu        sync.Mutex
	files     map[string][]memFile // "owner/name" -> files in seed order
	repoMeta  map[string]gitrepo.Repository
	accounts  map[string]gitrepo.Account
	gists     map[string][]gitrepo.Gist
	userRepos map[string][]gitrepo.Repository
	issues    map[string][]gitrepo.Issue
	pulls     map[string][]gitrepo.PullRequest
	followers map[string][]gitrepo.UserSummary
	following map[string][]gitrepo.UserSummary
	blobErrs  map[string]error // "owner/name/path" -> injected error
	calls     int
}

// NewInMem creates an empty InMem client.
func NewInMem() *InMem {
	return &InMem{
		files:     make(map[string][]memFile),
		repoMeta:  make(map[string]gitrepo.Repository),
		accounts:  make(map[string]gitrepo.Account),
		gists:     make(map[string][]gitrepo.Gist),
		userRepos: make(map[string][]gitrepo.Repository),
		issues:    make(map[string][]gitrepo.Issue),
		pulls:     make(map[string][]gitrepo.PullRequest),
		followers: make(map[string][]gitrepo.UserSummary),
		following: make(map[string][]gitrepo.UserSummary),
		blobErrs:  make(map[string]error),
	}
}

// SetFile seeds a file. Intermediate directories are implied by the path.
func (m *InMem) SetFile(owner, repo, path string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := owner + "/" + repo
	m.files[key] = append(m.files[key], memFile{path: path, data: data})
}

// SetRepository seeds repository metadata.
func (m *InMem) SetRepository(r gitrepo.Repository) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.repoMeta[r.Owner+"/"+r.Name] = r
}

// SetAccount seeds a user profile.
func (m *InMem) SetAccount(a gitrepo.Account) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[a.Login] = a
}

// SetGists seeds a user's gists.
func (m *InMem) SetGists(login string, gists []gitrepo.Gist) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gists[login] = gists
}

// SetUserRepositories seeds a user's repository listing and registers each
// repository's metadata.
func (m *InMem) SetUserRepositories(login string, repos []gitrepo.Repository) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.userRepos[login] = repos
	for _, r := range repos {
		m.repoMeta[r.Owner+"/"+r.Name] = r
	}
}

// SetIssues seeds a repository's issues.
func (m *InMem) SetIssues(owner, repo string, issues []gitrepo.Issue) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.issues[owner+"/"+repo] = issues
}

// SetPullRequests seeds a repository's pull requests.
func (m *InMem) SetPullRequests(owner, repo string, prs []gitrepo.PullRequest) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pulls[owner+"/"+repo] = prs
}

// SetFollowers seeds a user's followers.
func (m *InMem) SetFollowers(login string, users []gitrepo.UserSummary) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.followers[login] = users
}

// SetFollowing seeds the users a login follows.
func (m *InMem) SetFollowing(login string, users []gitrepo.UserSummary) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.following[login] = users
}

// FailBlob injects an error for a specific blob fetch.
func (m *InMem) FailBlob(owner, repo, path string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobErrs[owner+"/"+repo+"/"+path] = err
}

// Calls returns the number of remote-facing calls made so far.
func (m *InMem) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// GetRepository returns seeded metadata, or NotFoundError for unknown repos.
func (m *InMem) GetRepository(_ context.Context, ref gitrepo.RepoRef) (*gitrepo.Repository, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if r, ok := m.repoMeta[ref.FullName()]; ok {
		return &r, nil
	}
	if _, ok := m.files[ref.FullName()]; ok {
		r := gitrepo.Repository{
			Owner:         ref.Owner,
			Name:          ref.Name,
			FullName:      ref.FullName(),
			DefaultBranch: "main",
		}
		return &r, nil
	}
	return nil, gitrepo.NotFoundError{Resource: "repo " + ref.FullName(), Ref: ref.Ref}
}

// ListTree derives the direct children of path from the seeded file paths,
// in seed order.
func (m *InMem) ListTree(_ context.Context, ref gitrepo.RepoRef, path string) ([]gitrepo.TreeEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	files, ok := m.files[ref.FullName()]
	if !ok {
		return nil, gitrepo.NotFoundError{Resource: ref.FullName() + "/" + path, Ref: ref.Ref}
	}

	prefix := ""
	if path != "" {
		prefix = path + "/"
	}
	seen := make(map[string]bool)
	var entries []gitrepo.TreeEntry
	for _, f := range files {
		if !strings.HasPrefix(f.path, prefix) {
			continue
		}
		rest := f.path[len(prefix):]
		name, _, nested := strings.Cut(rest, "/")
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		kind := gitrepo.EntryFile
		if nested {
			kind = gitrepo.EntryDir
		}
		entries = append(entries, gitrepo.TreeEntry{
			Name: name,
			Path: prefix + name,
			Kind: kind,
		})
	}
	if path != "" && len(entries) == 0 {
		return nil, gitrepo.NotFoundError{Resource: ref.FullName() + "/" + path, Ref: ref.Ref}
	}
	return entries, nil
}

// GetBlob returns the seeded file classified as text or binary, honoring
// injected errors.
func (m *InMem) GetBlob(_ context.Context, ref gitrepo.RepoRef, path string) (gitrepo.Blob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if err, ok := m.blobErrs[ref.FullName()+"/"+path]; ok {
		return gitrepo.Blob{}, err
	}
	for _, f := range m.files[ref.FullName()] {
		if f.path == path {
			return gitrepo.DecodeBytes(f.data), nil
		}
	}
	return gitrepo.Blob{}, gitrepo.NotFoundError{Resource: ref.FullName() + "/" + path, Ref: ref.Ref}
}

// ListBranches returns a single branch matching the repository's default.
func (m *InMem) ListBranches(_ context.Context, ref gitrepo.RepoRef) ([]gitrepo.Branch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	r, ok := m.repoMeta[ref.FullName()]
	if !ok {
		return nil, gitrepo.NotFoundError{Resource: "repo " + ref.FullName()}
	}
	branch := r.DefaultBranch
	if branch == "" {
		branch = "main"
	}
	return []gitrepo.Branch{{Name: branch, SHA: "0000000"}}, nil
}

// GetAccount returns a seeded profile, or NotFoundError for unknown logins.
func (m *InMem) GetAccount(_ context.Context, login string) (*gitrepo.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	a, ok := m.accounts[login]
	if !ok {
		return nil, gitrepo.NotFoundError{Resource: "user " + login}
	}
	return &a, nil
}

// ListGists returns the seeded gists.
func (m *InMem) ListGists(_ context.Context, login string) ([]gitrepo.Gist, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return m.gists[login], nil
}

// ListRepositories returns the seeded repository listing.
func (m *InMem) ListRepositories(_ context.Context, login string) ([]gitrepo.Repository, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return m.userRepos[login], nil
}

// ListIssues returns the seeded issues regardless of state.
func (m *InMem) ListIssues(_ context.Context, ref gitrepo.RepoRef, _ string) ([]gitrepo.Issue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return m.issues[ref.FullName()], nil
}

// ListPullRequests returns the seeded pull requests regardless of state.
func (m *InMem) ListPullRequests(_ context.Context, ref gitrepo.RepoRef, _ string) ([]gitrepo.PullRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return m.pulls[ref.FullName()], nil
}

// ListFollowers returns the seeded followers.
func (m *InMem) ListFollowers(_ context.Context, login string) ([]gitrepo.UserSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return m.followers[login], nil
}

// ListFollowing returns the seeded following list.
func (m *InMem) ListFollowing(_ context.Context, login string) ([]gitrepo.UserSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return m.following[login], nil
}
