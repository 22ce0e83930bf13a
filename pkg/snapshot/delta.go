package snapshot

type (

	// Delta is the set of additive changes between two snapshots. It is
	// derived by Diff and never persisted.
	Delta struct {
		NewRepos       []RepoKey
		NewBranches    []BranchRef
		UpdatedCommits []CommitChange
	}

	// BranchRef names a branch of a repository along with its head sha.
	BranchRef struct {
		Repo   RepoKey
		Branch string
		Head   string
	}

	// CommitChange records a branch whose head moved, keeping the old sha
	// for auditability.
	CommitChange struct {
		Repo   RepoKey
		Branch string
		OldSha string
		NewSha string
	}
)

func (d *Delta) Empty() bool {
	return len(d.NewRepos) == 0 && len(d.NewBranches) == 0 && len(d.UpdatedCommits) == 0
}

func (d *Delta) EventCount() int {
	return len(d.NewRepos) + len(d.NewBranches) + len(d.UpdatedCommits)
}
