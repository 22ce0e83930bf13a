package crawl

import (
	"context"
	"time"

	"github.com/google/go-github/v28/github"
	"github.com/pantheon-systems/repo-guardian/pkg/errors"
	"github.com/pantheon-systems/repo-guardian/pkg/manip"
	"github.com/pantheon-systems/repo-guardian/pkg/snapshot"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
)

const pageSize = 100

type (

	// Crawler builds the current snapshot by walking organization
	// membership, each member's repositories, and every branch head.
	// Any page failure fails the whole fetch: a truncated snapshot would
	// generate spurious new-repo diffs on the next run.
	Crawler struct {
		api          apiClient
		excludeForks bool
		log          logrus.FieldLogger
	}

	// apiClient is the slice of go-github the crawler needs, split out so
	// the pipeline can be tested without the network.
	apiClient interface {
		ListMembers(ctx context.Context, org string, opts *github.ListMembersOptions) ([]*github.User, *github.Response, error)
		ListRepositories(ctx context.Context, user string, opts *github.RepositoryListOptions) ([]*github.Repository, *github.Response, error)
		ListBranches(ctx context.Context, owner, repo string, opts *github.ListOptions) ([]*github.Branch, *github.Response, error)
	}

	githubAPI struct {
		client *github.Client
	}
)

func New(githubToken string, excludeForks bool, log logrus.FieldLogger) *Crawler {
	tokenClient := oauth2.NewClient(context.Background(),
		oauth2.StaticTokenSource(&oauth2.Token{AccessToken: githubToken}))

	return &Crawler{
		api:          &githubAPI{client: github.NewClient(tokenClient)},
		excludeForks: excludeForks,
		log:          log,
	}
}

// FetchCurrentState walks the organizations and returns a complete snapshot.
func (c *Crawler) FetchCurrentState(ctx context.Context, organizations []string) (result *snapshot.Snapshot, err error) {
	result = snapshot.New(time.Now().UTC(), organizations)

	members, err := c.fetchMembers(ctx, organizations)
	if err != nil {
		result = nil
		return
	}

	c.log.WithField("members", len(members)).Info("crawling member repositories ...")

	for _, member := range members {
		if err = c.fetchMemberRepos(ctx, member, result); err != nil {
			result = nil
			return
		}
	}

	c.log.WithField("repos", result.RepoCount()).WithField("branches", result.BranchCount()).
		Info("crawl complete")

	return
}

// fetchMembers returns the union of all org member logins, deduplicated,
// in first-seen order.
func (c *Crawler) fetchMembers(ctx context.Context, organizations []string) (result []string, err error) {
	seen := manip.NewEmptyBasicSet()

	for _, org := range organizations {
		opts := &github.ListMembersOptions{ListOptions: github.ListOptions{PerPage: pageSize}}
		for {
			var members []*github.User
			var resp *github.Response
			if members, resp, err = c.api.ListMembers(ctx, org, opts); err != nil {
				err = errors.Wrapv(err, "unable to list members", org)
				return
			}
			for _, member := range members {
				login := member.GetLogin()
				if login == "" {
					continue
				}
				if seen.AddNew(login) {
					result = append(result, login)
				}
			}
			if resp.NextPage == 0 {
				break
			}
			opts.Page = resp.NextPage
		}
	}

	return
}

func (c *Crawler) fetchMemberRepos(ctx context.Context, member string, snap *snapshot.Snapshot) (err error) {
	opts := &github.RepositoryListOptions{
		Visibility:  "public",
		Affiliation: "owner",
		ListOptions: github.ListOptions{PerPage: pageSize},
	}

	for {
		var repos []*github.Repository
		var resp *github.Response
		if repos, resp, err = c.api.ListRepositories(ctx, member, opts); err != nil {
			err = errors.Wrapv(err, "unable to list repositories", member)
			return
		}

		for _, repo := range repos {
			if repo.GetArchived() {
				continue
			}
			if c.excludeForks && repo.GetFork() {
				continue
			}

			var state *snapshot.RepoState
			if state, err = c.fetchRepoState(ctx, member, repo); err != nil {
				return
			}
			snap.AddRepo(snapshot.NewRepoKey(member, repo.GetName()), state)
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return
}

func (c *Crawler) fetchRepoState(ctx context.Context, owner string, repo *github.Repository) (result *snapshot.RepoState, err error) {
	result = &snapshot.RepoState{
		Owner:         owner,
		DefaultBranch: repo.GetDefaultBranch(),
		Branches:      map[string]string{},
		Public:        !repo.GetPrivate(),
	}

	opts := &github.ListOptions{PerPage: pageSize}
	for {
		var branches []*github.Branch
		var resp *github.Response
		if branches, resp, err = c.api.ListBranches(ctx, owner, repo.GetName(), opts); err != nil {
			err = errors.Wrapv(err, "unable to list branches", owner+"/"+repo.GetName())
			result = nil
			return
		}

		for _, branch := range branches {
			sha := branch.GetCommit().GetSHA()
			result.Branches[branch.GetName()] = sha
			if branch.GetName() == result.DefaultBranch {
				result.DefaultBranchHead = sha
			}
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return
}

func (a *githubAPI) ListMembers(ctx context.Context, org string, opts *github.ListMembersOptions) ([]*github.User, *github.Response, error) {
	return a.client.Organizations.ListMembers(ctx, org, opts)
}

func (a *githubAPI) ListRepositories(ctx context.Context, user string, opts *github.RepositoryListOptions) ([]*github.Repository, *github.Response, error) {
	return a.client.Repositories.List(ctx, user, opts)
}

func (a *githubAPI) ListBranches(ctx context.Context, owner, repo string, opts *github.ListOptions) ([]*github.Branch, *github.Response, error) {
	return a.client.Repositories.ListBranches(ctx, owner, repo, opts)
}
