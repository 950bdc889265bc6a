package users_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reposnap/reposnap/internal/gitrepo"
	"github.com/reposnap/reposnap/internal/github"
	"github.com/reposnap/reposnap/internal/users"
	"github.com/reposnap/reposnap/pkg/logging"
)

func seedAlice(m *github.InMem) {
	m.SetAccount(gitrepo.Account{ID: 7, Login: "alice", Name: "Alice", CreatedAt: time.Date(2019, 3, 1, 0, 0, 0, 0, time.UTC)})
	m.SetGists("alice", []gitrepo.Gist{
		{ID: "g1"}, {ID: "g2"}, {ID: "g3"},
	})
	m.SetUserRepositories("alice", []gitrepo.Repository{
		{Owner: "alice", Name: "widgets", FullName: "alice/widgets"},
		{Owner: "alice", Name: "gadgets", FullName: "alice/gadgets"},
		{Owner: "alice", Name: "doodads", FullName: "alice/doodads"},
	})
	m.SetFollowers("alice", []gitrepo.UserSummary{{Login: "bob"}, {Login: "carol"}, {Login: "dave"}})
	m.SetFollowing("alice", []gitrepo.UserSummary{{Login: "erin"}})
	m.SetIssues("alice", "widgets", []gitrepo.Issue{{Number: 1, State: "open"}, {Number: 2, State: "closed"}})
	m.SetPullRequests("alice", "widgets", []gitrepo.PullRequest{{Number: 3, State: "closed"}})
	m.SetIssues("alice", "doodads", []gitrepo.Issue{{Number: 9, State: "open"}})
}

func TestGetUserInfo_Unlimited(t *testing.T) {
	m := github.NewInMem()
	seedAlice(m)
	agg := users.New(m, logging.Discard())

	info, err := agg.GetUserInfo(context.Background(), "alice", gitrepo.Unlimited)
	require.NoError(t, err)

	assert.Equal(t, int64(7), info.Account.ID)
	assert.Len(t, info.Gists, 3)
	assert.Len(t, info.Repos, 3)
	assert.Len(t, info.Followers, 3)
	assert.Len(t, info.Following, 1)
	assert.Len(t, info.IssuesByRepo["widgets"], 2)
	assert.Len(t, info.PullRequestsByRepo["widgets"], 1)
}

// The limit caps the listed gists, repos and follower sets, but the issue
// and pull-request maps still cover every repository the user owns.
func TestGetUserInfo_LimitDoesNotCapIssueMaps(t *testing.T) {
	m := github.NewInMem()
	seedAlice(m)
	agg := users.New(m, logging.Discard())

	info, err := agg.GetUserInfo(context.Background(), "alice", 2)
	require.NoError(t, err)

	assert.Len(t, info.Gists, 2)
	assert.Len(t, info.Repos, 2)
	assert.Len(t, info.Followers, 2)

	require.Contains(t, info.IssuesByRepo, "widgets")
	require.Contains(t, info.IssuesByRepo, "gadgets")
	require.Contains(t, info.IssuesByRepo, "doodads", "third repo indexed despite limit=2")
	assert.Len(t, info.IssuesByRepo["doodads"], 1)
	assert.Len(t, info.PullRequestsByRepo, 3)
}

func TestGetUserInfo_OrderPreservedUnderLimit(t *testing.T) {
	m := github.NewInMem()
	seedAlice(m)
	agg := users.New(m, logging.Discard())

	info, err := agg.GetUserInfo(context.Background(), "alice", 2)
	require.NoError(t, err)

	require.Len(t, info.Repos, 2)
	assert.Equal(t, "widgets", info.Repos[0].Name)
	assert.Equal(t, "gadgets", info.Repos[1].Name)
}

func TestGetUserInfo_UnknownUser(t *testing.T) {
	agg := users.New(github.NewInMem(), logging.Discard())

	_, err := agg.GetUserInfo(context.Background(), "ghost", gitrepo.Unlimited)

	assert.True(t, gitrepo.IsNotFound(err))
}

func TestGetUserInfo_ReposWithoutActivity_IndexedEmpty(t *testing.T) {
	m := github.NewInMem()
	seedAlice(m)
	agg := users.New(m, logging.Discard())

	info, err := agg.GetUserInfo(context.Background(), "alice", gitrepo.Unlimited)
	require.NoError(t, err)

	// gadgets has no seeded issues or PRs; it is still present in both maps.
	require.Contains(t, info.IssuesByRepo, "gadgets")
	assert.Empty(t, info.IssuesByRepo["gadgets"])
	require.Contains(t, info.PullRequestsByRepo, "gadgets")
	assert.Empty(t, info.PullRequestsByRepo["gadgets"])
}
