package snapshot

import (
	"fmt"
	"strings"
	"time"
)

type (

	// Snapshot is a complete, timestamped observation of the tracked
	// organizations. It is never modified after it is built; a new run
	// always builds a fresh one.
	Snapshot struct {
		TakenAt       time.Time             `json:"taken_at"`
		Organizations []string              `json:"organizations"`
		Repos         map[RepoKey]*RepoState `json:"repos"`
	}

	// RepoState is everything we track about a single repository: its
	// branch heads and the default branch.
	RepoState struct {
		Owner             string            `json:"owner"`
		DefaultBranch     string            `json:"default_branch,omitempty"`
		DefaultBranchHead string            `json:"default_branch_head,omitempty"`
		Branches          map[string]string `json:"branches"`
		Public            bool              `json:"public"`
	}

	// RepoKey identifies a repository as "owner/name". It doubles as a
	// JSON map key, which a struct key could not.
	RepoKey string
)

func NewRepoKey(owner, name string) RepoKey {
	return RepoKey(owner + "/" + name)
}

func (k RepoKey) Owner() (result string) {
	result, _ = k.split()
	return
}

func (k RepoKey) Name() (result string) {
	_, result = k.split()
	return
}

func (k RepoKey) URL() string {
	return fmt.Sprintf("https://github.com/%s", string(k))
}

func (k RepoKey) String() string {
	return string(k)
}

func (k RepoKey) split() (owner, name string) {
	pieces := strings.SplitN(string(k), "/", 2)
	owner = pieces[0]
	if len(pieces) > 1 {
		name = pieces[1]
	}
	return
}

func New(takenAt time.Time, organizations []string) *Snapshot {
	return &Snapshot{
		TakenAt:       takenAt,
		Organizations: organizations,
		Repos:         map[RepoKey]*RepoState{},
	}
}

func (s *Snapshot) AddRepo(key RepoKey, state *RepoState) {
	s.Repos[key] = state
}

func (s *Snapshot) RepoCount() int {
	return len(s.Repos)
}

func (s *Snapshot) BranchCount() (result int) {
	for _, state := range s.Repos {
		result += len(state.Branches)
	}
	return
}
