package scan

import (
	"context"

	"github.com/pantheon-systems/repo-guardian/pkg/progress"
	"github.com/pantheon-systems/repo-guardian/pkg/snapshot"
	"github.com/sirsean/go-pool"
	"github.com/sirupsen/logrus"
)

type (

	// Orchestrator drives the scanner over a delta with bounded
	// concurrency. Each target is isolated: a failing scan is captured in
	// the report and never aborts its siblings or the run.
	Orchestrator struct {
		scanner     Scanner
		workerCount int
		attempts    int
		interact    *progress.Progress
		log         logrus.FieldLogger
	}

	// Report is the outcome of one orchestration run. A run with failures
	// is still complete; the failures are reported, not thrown.
	Report struct {
		Succeeded map[Target][]*Finding
		Failed    map[Target]*ScanError
	}

	targetResult struct {
		target   Target
		findings []*Finding
		err      *ScanError
	}
)

func NewOrchestrator(scanner Scanner, workerCount, attempts int, interact *progress.Progress, log logrus.FieldLogger) *Orchestrator {
	if attempts < 1 {
		attempts = 1
	}
	return &Orchestrator{
		scanner:     scanner,
		workerCount: workerCount,
		attempts:    attempts,
		interact:    interact,
		log:         log,
	}
}

// Run builds the deduplicated target set from the delta and scans it.
func (o *Orchestrator) Run(ctx context.Context, delta *snapshot.Delta, current *snapshot.Snapshot) (result *Report) {
	targets := BuildTargets(delta, current)
	return o.RunTargets(ctx, targets)
}

func (o *Orchestrator) RunTargets(ctx context.Context, targets []Target) (result *Report) {
	result = &Report{
		Succeeded: map[Target][]*Finding{},
		Failed:    map[Target]*ScanError{},
	}
	if len(targets) == 0 {
		return
	}

	o.log.WithField("targets", len(targets)).WithField("workers", o.workerCount).
		Info("scanning targets ...")

	out := make(chan *targetResult, len(targets))
	done := make(chan struct{})

	// Collect results as workers finish
	go func() {
		defer close(done)
		for res := range out {
			if res.err != nil {
				result.Failed[res.target] = res.err
				continue
			}
			result.Succeeded[res.target] = res.findings
		}
	}()

	p := pool.NewPool(len(targets), o.workerCount)
	p.Start()

	for _, target := range targets {
		log := o.log.WithField("target", target.Key())

		var spin *progress.Spinner
		if o.interact != nil {
			spin = o.interact.AddSpinner(target.Key())
		}

		p.Add(newScanWorker(ctx, target, o.scanner, o.attempts, out, spin, log))
	}

	p.Close()
	if o.interact != nil {
		o.interact.Wait()
	}

	close(out)
	<-done

	o.log.WithField("succeeded", len(result.Succeeded)).WithField("failed", len(result.Failed)).
		Info("scan phase complete")

	return
}

func (r *Report) TargetCount() int {
	return len(r.Succeeded) + len(r.Failed)
}

func (r *Report) FindingCount() (result int) {
	for _, findings := range r.Succeeded {
		result += len(findings)
	}
	return
}

func (r *Report) AllFailed() bool {
	return len(r.Failed) > 0 && len(r.Succeeded) == 0
}
