package scan

import (
	"fmt"
	"sort"

	"github.com/pantheon-systems/repo-guardian/pkg/manip"
	"github.com/pantheon-systems/repo-guardian/pkg/snapshot"
)

type (

	// Target is a deduplicated (repository, ref) pair slated for scanning
	// in the current run, tagged with the delta event that produced it.
	Target struct {
		Repo        snapshot.RepoKey
		Ref         string
		Reason      Reason
		SinceCommit string
	}

	Reason int
)

const (
	NewRepo Reason = iota
	NewBranch
	UpdatedCommit
)

func (r Reason) String() (result string) {
	switch r {
	case NewRepo:
		result = "new-repo"
	case NewBranch:
		result = "new-branch"
	case UpdatedCommit:
		result = "updated-commit"
	default:
		result = "unknown"
	}
	return
}

func (t Target) Key() string {
	return fmt.Sprintf("%s@%s", t.Repo, t.Ref)
}

// BuildTargets converts a delta into the set of targets to scan. The dedup
// key is (repo, ref): a new repo's default branch is also a new branch, but
// it is scanned once. When reasons collide, the broader one wins — a
// new-repo scan covers everything a new-branch scan would.
func BuildTargets(delta *snapshot.Delta, current *snapshot.Snapshot) (result []Target) {
	seen := manip.NewEmptyBasicSet()

	for _, repo := range delta.NewRepos {
		ref := ""
		if state := current.Repos[repo]; state != nil {
			ref = state.DefaultBranch
		}
		target := Target{Repo: repo, Ref: ref, Reason: NewRepo}
		if seen.AddNew(target.Key()) {
			result = append(result, target)
		}
	}

	for _, branch := range delta.NewBranches {
		target := Target{Repo: branch.Repo, Ref: branch.Branch, Reason: NewBranch}
		if seen.AddNew(target.Key()) {
			result = append(result, target)
		}
	}

	for _, change := range delta.UpdatedCommits {
		target := Target{Repo: change.Repo, Ref: change.Branch, Reason: UpdatedCommit, SinceCommit: change.OldSha}
		if seen.AddNew(target.Key()) {
			result = append(result, target)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Key() < result[j].Key()
	})

	return
}
