package snapshot

import (
	"sort"
)

// Diff computes the additive changes from previous to current. A nil
// previous snapshot is the bootstrap case: every repo and every branch is
// new, and nothing can be classified as an update. Branches and repos that
// exist only in previous (deleted or renamed upstream) generate no events.
// Neither input is modified.
func Diff(previous, current *Snapshot) (result *Delta) {
	result = &Delta{}

	for key, state := range current.Repos {
		var prevState *RepoState
		if previous != nil {
			prevState = previous.Repos[key]
		}

		if prevState == nil {
			result.NewRepos = append(result.NewRepos, key)
			for branch, sha := range state.Branches {
				result.NewBranches = append(result.NewBranches, BranchRef{Repo: key, Branch: branch, Head: sha})
			}
			continue
		}

		for branch, sha := range state.Branches {
			prevSha, ok := prevState.Branches[branch]
			if !ok {
				result.NewBranches = append(result.NewBranches, BranchRef{Repo: key, Branch: branch, Head: sha})
				continue
			}
			if prevSha != sha {
				result.UpdatedCommits = append(result.UpdatedCommits, CommitChange{
					Repo:   key,
					Branch: branch,
					OldSha: prevSha,
					NewSha: sha,
				})
			}
		}
	}

	sortDelta(result)

	return
}

// Map iteration order is random, so sort for stable reporting
func sortDelta(delta *Delta) {
	sort.Slice(delta.NewRepos, func(i, j int) bool {
		return delta.NewRepos[i] < delta.NewRepos[j]
	})
	sort.Slice(delta.NewBranches, func(i, j int) bool {
		a, b := delta.NewBranches[i], delta.NewBranches[j]
		if a.Repo != b.Repo {
			return a.Repo < b.Repo
		}
		return a.Branch < b.Branch
	})
	sort.Slice(delta.UpdatedCommits, func(i, j int) bool {
		a, b := delta.UpdatedCommits[i], delta.UpdatedCommits[j]
		if a.Repo != b.Repo {
			return a.Repo < b.Repo
		}
		return a.Branch < b.Branch
	})
}
