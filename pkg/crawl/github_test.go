package crawl

import (
	"context"
	"io/ioutil"
	"testing"

	"github.com/google/go-github/v28/github"
	"github.com/pantheon-systems/repo-guardian/pkg/errors"
	"github.com/pantheon-systems/repo-guardian/pkg/snapshot"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

type (
	fakeAPI struct {
		membersByOrg  map[string][][]*github.User
		reposByUser   map[string][][]*github.Repository
		branchesByKey map[string][][]*github.Branch
		failMembers   bool
		failBranches  bool
	}
)

func strPtr(value string) *string { return &value }
func boolPtr(value bool) *bool    { return &value }

func user(login string) *github.User {
	return &github.User{Login: strPtr(login)}
}

func repo(name, defaultBranch string, fork, archived bool) *github.Repository {
	return &github.Repository{
		Name:          strPtr(name),
		DefaultBranch: strPtr(defaultBranch),
		Fork:          boolPtr(fork),
		Archived:      boolPtr(archived),
		Private:       boolPtr(false),
	}
}

func branch(name, sha string) *github.Branch {
	return &github.Branch{
		Name:   strPtr(name),
		Commit: &github.RepositoryCommit{SHA: strPtr(sha)},
	}
}

func pagedResponse(current, total int) *github.Response {
	next := 0
	if current < total {
		next = current + 1
	}
	return &github.Response{NextPage: next}
}

func (f *fakeAPI) ListMembers(ctx context.Context, org string, opts *github.ListMembersOptions) ([]*github.User, *github.Response, error) {
	if f.failMembers {
		return nil, nil, errors.New("boom")
	}
	pages := f.membersByOrg[org]
	page := pageIndex(opts.Page)
	return pages[page], pagedResponse(page+1, len(pages)), nil
}

func (f *fakeAPI) ListRepositories(ctx context.Context, user string, opts *github.RepositoryListOptions) ([]*github.Repository, *github.Response, error) {
	pages := f.reposByUser[user]
	if len(pages) == 0 {
		return nil, &github.Response{}, nil
	}
	page := pageIndex(opts.Page)
	return pages[page], pagedResponse(page+1, len(pages)), nil
}

func (f *fakeAPI) ListBranches(ctx context.Context, owner, name string, opts *github.ListOptions) ([]*github.Branch, *github.Response, error) {
	if f.failBranches {
		return nil, nil, errors.New("rate limited")
	}
	pages := f.branchesByKey[owner+"/"+name]
	if len(pages) == 0 {
		return nil, &github.Response{}, nil
	}
	page := pageIndex(opts.Page)
	return pages[page], pagedResponse(page+1, len(pages)), nil
}

func pageIndex(page int) int {
	if page == 0 {
		return 0
	}
	return page - 1
}

func newTestCrawler(api apiClient, excludeForks bool) *Crawler {
	log := logrus.New()
	log.SetOutput(ioutil.Discard)
	return &Crawler{api: api, excludeForks: excludeForks, log: log}
}

func TestFetchCurrentState_WalksMembersReposBranches(t *testing.T) {
	api := &fakeAPI{
		membersByOrg: map[string][][]*github.User{
			"acme": {{user("alice")}},
		},
		reposByUser: map[string][][]*github.Repository{
			"alice": {{repo("a", "main", false, false)}},
		},
		branchesByKey: map[string][][]*github.Branch{
			"alice/a": {{branch("main", "aaa"), branch("develop", "bbb")}},
		},
	}
	subject := newTestCrawler(api, false)

	// Fire
	snap, err := subject.FetchCurrentState(context.Background(), []string{"acme"})

	require.NoError(t, err)
	require.Equal(t, 1, snap.RepoCount())
	state := snap.Repos[snapshot.NewRepoKey("alice", "a")]
	require.NotNil(t, state)
	require.Equal(t, "main", state.DefaultBranch)
	require.Equal(t, "aaa", state.DefaultBranchHead)
	require.Equal(t, map[string]string{"main": "aaa", "develop": "bbb"}, state.Branches)
}

func TestFetchCurrentState_MembersDeduplicatedAcrossOrgs(t *testing.T) {
	api := &fakeAPI{
		membersByOrg: map[string][][]*github.User{
			"acme":  {{user("alice"), user("bob")}},
			"other": {{user("alice")}},
		},
		reposByUser: map[string][][]*github.Repository{
			"alice": {{repo("a", "main", false, false)}},
		},
		branchesByKey: map[string][][]*github.Branch{
			"alice/a": {{branch("main", "aaa")}},
		},
	}
	subject := newTestCrawler(api, false)

	// Fire
	snap, err := subject.FetchCurrentState(context.Background(), []string{"acme", "other"})

	require.NoError(t, err)
	require.Equal(t, 1, snap.RepoCount())
}

func TestFetchCurrentState_FollowsPagination(t *testing.T) {
	api := &fakeAPI{
		membersByOrg: map[string][][]*github.User{
			"acme": {{user("alice")}, {user("bob")}},
		},
		reposByUser: map[string][][]*github.Repository{
			"alice": {{repo("a", "main", false, false)}},
			"bob":   {{repo("b", "main", false, false)}},
		},
		branchesByKey: map[string][][]*github.Branch{
			"alice/a": {{branch("main", "aaa")}, {branch("develop", "bbb")}},
			"bob/b":   {{branch("main", "ccc")}},
		},
	}
	subject := newTestCrawler(api, false)

	// Fire
	snap, err := subject.FetchCurrentState(context.Background(), []string{"acme"})

	require.NoError(t, err)
	require.Equal(t, 2, snap.RepoCount())
	require.Equal(t, 3, snap.BranchCount())
}

func TestFetchCurrentState_SkipsArchivedAndForks(t *testing.T) {
	api := &fakeAPI{
		membersByOrg: map[string][][]*github.User{
			"acme": {{user("alice")}},
		},
		reposByUser: map[string][][]*github.Repository{
			"alice": {{
				repo("keep", "main", false, false),
				repo("old", "main", false, true),
				repo("forked", "main", true, false),
			}},
		},
		branchesByKey: map[string][][]*github.Branch{
			"alice/keep": {{branch("main", "aaa")}},
		},
	}
	subject := newTestCrawler(api, true)

	// Fire
	snap, err := subject.FetchCurrentState(context.Background(), []string{"acme"})

	require.NoError(t, err)
	require.Equal(t, 1, snap.RepoCount())
	require.Contains(t, snap.Repos, snapshot.NewRepoKey("alice", "keep"))
}

func TestFetchCurrentState_ForksKeptByDefault(t *testing.T) {
	api := &fakeAPI{
		membersByOrg: map[string][][]*github.User{
			"acme": {{user("alice")}},
		},
		reposByUser: map[string][][]*github.Repository{
			"alice": {{repo("forked", "main", true, false)}},
		},
		branchesByKey: map[string][][]*github.Branch{
			"alice/forked": {{branch("main", "aaa")}},
		},
	}
	subject := newTestCrawler(api, false)

	// Fire
	snap, err := subject.FetchCurrentState(context.Background(), []string{"acme"})

	require.NoError(t, err)
	require.Equal(t, 1, snap.RepoCount())
}

func TestFetchCurrentState_MemberPageFailureFailsWholeFetch(t *testing.T) {
	subject := newTestCrawler(&fakeAPI{failMembers: true}, false)

	// Fire
	snap, err := subject.FetchCurrentState(context.Background(), []string{"acme"})

	require.Error(t, err)
	require.Nil(t, snap)
}

func TestFetchCurrentState_BranchPageFailureFailsWholeFetch(t *testing.T) {
	api := &fakeAPI{
		membersByOrg: map[string][][]*github.User{
			"acme": {{user("alice")}},
		},
		reposByUser: map[string][][]*github.Repository{
			"alice": {{repo("a", "main", false, false)}},
		},
		failBranches: true,
	}
	subject := newTestCrawler(api, false)

	// Fire
	snap, err := subject.FetchCurrentState(context.Background(), []string{"acme"})

	require.Error(t, err)
	require.Nil(t, snap)
}
