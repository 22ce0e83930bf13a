package scan

import (
	"context"

	"github.com/pantheon-systems/repo-guardian/pkg/errors"
	"github.com/pantheon-systems/repo-guardian/pkg/progress"
	"github.com/sirupsen/logrus"
)

// scanWorker drives a single target through its attempts:
// pending -> running -> succeeded, or running -> retry (transient failure,
// attempts remaining) -> running, or running -> failed (terminal).
type scanWorker struct {
	ctx      context.Context
	target   Target
	scanner  Scanner
	attempts int
	out      chan *targetResult
	spin     *progress.Spinner
	log      logrus.FieldLogger
}

func newScanWorker(ctx context.Context, target Target, scanner Scanner, attempts int,
	out chan *targetResult, spin *progress.Spinner, log logrus.FieldLogger) *scanWorker {

	return &scanWorker{
		ctx:      ctx,
		target:   target,
		scanner:  scanner,
		attempts: attempts,
		out:      out,
		spin:     spin,
		log:      log,
	}
}

func (w *scanWorker) Perform() {
	defer func() {
		if recovered := recover(); recovered != nil {
			w.send(nil, NewScanError(NonZeroExit, errors.Errorf("panic during scan: %v", recovered)))
		}
	}()

	findings, scanErr := w.scan()

	if w.spin != nil {
		w.spin.Incr()
		doneMessage := "scanned"
		if scanErr != nil {
			doneMessage = "scan failed!"
		}
		w.spin.Done(doneMessage)
	}

	w.send(findings, scanErr)
}

func (w *scanWorker) scan() (findings []*Finding, scanErr *ScanError) {
	for attempt := 1; attempt <= w.attempts; attempt++ {

		// An aborted run leaves not-yet-started targets unscanned
		if w.ctx.Err() != nil {
			scanErr = NewScanError(LaunchFailure, errors.Wrap(w.ctx.Err(), "run aborted"))
			return
		}

		w.log.WithField("attempt", attempt).Debug("scanning target")

		var err error
		findings, err = w.scanner.Scan(w.ctx, w.target)
		if err == nil {
			return
		}

		scanErr = asScanError(err)
		if !scanErr.Retryable() {
			errors.ErrLog(w.log, scanErr).Warn("target failed terminally")
			return
		}
		if attempt < w.attempts {
			errors.ErrLog(w.log, scanErr).Warn("target failed, retrying")
		}
	}

	errors.ErrLog(w.log, scanErr).Warn("target failed, attempts exhausted")

	return
}

func (w *scanWorker) send(findings []*Finding, scanErr *ScanError) {
	w.out <- &targetResult{
		target:   w.target,
		findings: findings,
		err:      scanErr,
	}
}
