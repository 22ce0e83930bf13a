package report

import (
	"fmt"
	"sort"

	"github.com/pantheon-systems/repo-guardian/pkg/scan"
	"github.com/pantheon-systems/repo-guardian/pkg/snapshot"
)

// Findings per payload, matching Slack's comfortable attachment size
const findingBatchSize = 5

type (

	// Payload is one notification ready for dispatch. Aggregation is pure
	// data shaping; delivery concerns live in pkg/notify.
	Payload struct {
		Title    string
		Lines    []string
		Severity Severity
	}

	Severity int
)

const (
	Info Severity = iota
	Warning
	Critical
)

func (s Severity) Color() (result string) {
	switch s {
	case Critical:
		result = "#FF0000"
	case Warning:
		result = "#FFFF00"
	default:
		result = "#36A64F"
	}
	return
}

func (s Severity) String() (result string) {
	switch s {
	case Critical:
		result = "critical"
	case Warning:
		result = "warning"
	default:
		result = "info"
	}
	return
}

// Aggregate shapes a run's delta and scan outcome into payloads:
// a new-repos notice, findings in batches, failed targets, and a
// quiet notice when there is nothing to say.
func Aggregate(delta *snapshot.Delta, scanReport *scan.Report) (result []*Payload) {
	if payload := newReposPayload(delta); payload != nil {
		result = append(result, payload)
	}

	result = append(result, findingsPayloads(scanReport)...)

	if payload := failedTargetsPayload(scanReport); payload != nil {
		result = append(result, payload)
	}

	if len(result) > 0 {
		return
	}

	if delta == nil || delta.Empty() {
		result = append(result, &Payload{
			Title:    "No changes detected since the last run",
			Severity: Info,
		})
		return
	}

	result = append(result, &Payload{
		Title:    fmt.Sprintf("Scanned %d changed targets, no verified secrets found", scanReport.TargetCount()),
		Severity: Info,
	})

	return
}

func newReposPayload(delta *snapshot.Delta) (result *Payload) {
	if delta == nil || len(delta.NewRepos) == 0 {
		return
	}

	lines := make([]string, 0, len(delta.NewRepos))
	for _, repo := range delta.NewRepos {
		lines = append(lines, repo.URL())
	}

	return &Payload{
		Title:    fmt.Sprintf("%d new repositories detected", len(delta.NewRepos)),
		Lines:    lines,
		Severity: Warning,
	}
}

func findingsPayloads(scanReport *scan.Report) (result []*Payload) {
	if scanReport == nil {
		return
	}

	var lines []string
	for _, target := range sortedTargets(scanReport) {
		for _, finding := range scanReport.Succeeded[target] {
			lines = append(lines, fmt.Sprintf("%s secret in %s (%s)",
				finding.Detector, target.Key(), finding.Location))
		}
	}
	if len(lines) == 0 {
		return
	}

	total := len(lines)
	for start := 0; start < total; start += findingBatchSize {
		end := start + findingBatchSize
		if end > total {
			end = total
		}
		result = append(result, &Payload{
			Title:    fmt.Sprintf("Verified secrets found (%d-%d of %d)", start+1, end, total),
			Lines:    lines[start:end],
			Severity: Critical,
		})
	}

	return
}

func failedTargetsPayload(scanReport *scan.Report) (result *Payload) {
	if scanReport == nil || len(scanReport.Failed) == 0 {
		return
	}

	keys := make([]string, 0, len(scanReport.Failed))
	byKey := map[string]*scan.ScanError{}
	for target, scanErr := range scanReport.Failed {
		keys = append(keys, target.Key())
		byKey[target.Key()] = scanErr
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys))
	for _, key := range keys {
		lines = append(lines, fmt.Sprintf("%s: %s", key, byKey[key].Kind))
	}

	return &Payload{
		Title:    fmt.Sprintf("%d targets could not be scanned", len(lines)),
		Lines:    lines,
		Severity: Warning,
	}
}

func sortedTargets(scanReport *scan.Report) (result []scan.Target) {
	for target := range scanReport.Succeeded {
		result = append(result, target)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Key() < result[j].Key()
	})
	return
}
