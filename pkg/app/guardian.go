package app

import (
	"context"
	"path/filepath"
	"time"

	"github.com/hako/durafmt"
	"github.com/pantheon-systems/repo-guardian/pkg/crawl"
	"github.com/pantheon-systems/repo-guardian/pkg/database"
	"github.com/pantheon-systems/repo-guardian/pkg/errors"
	"github.com/pantheon-systems/repo-guardian/pkg/notify"
	"github.com/pantheon-systems/repo-guardian/pkg/progress"
	"github.com/pantheon-systems/repo-guardian/pkg/report"
	"github.com/pantheon-systems/repo-guardian/pkg/scan"
	"github.com/pantheon-systems/repo-guardian/pkg/scan/trufflehog"
	"github.com/pantheon-systems/repo-guardian/pkg/snapshot"
	"github.com/sirupsen/logrus"
)

type (

	// Guardian is the run pipeline: load the previous snapshot, crawl the
	// current one, diff, scan the delta, notify, and only then persist.
	// Persisting last means an aborted or failed run leaves the previous
	// snapshot authoritative and the next run retries the same delta.
	Guardian struct {
		crawler       Crawler
		store         *snapshot.Store
		orchestrator  *scan.Orchestrator
		notifier      Notifier
		organizations []string
		skipScan      bool
		log           logrus.FieldLogger
		Stats         *Stats
	}

	// Crawler produces the current snapshot. It is a collaborator, not part
	// of the engine; the pipeline only consumes its value.
	Crawler interface {
		FetchCurrentState(ctx context.Context, organizations []string) (*snapshot.Snapshot, error)
	}

	// Notifier delivers one payload. A nil Notifier logs payloads instead.
	Notifier interface {
		Send(ctx context.Context, payload *report.Payload) error
	}

	Config struct {
		Organizations []string
		OutputDir     string
		GithubToken   string
		ExcludeForks  bool
		TruffleHogCmd []string
		WorkerCount   int
		ScanTimeout   time.Duration
		Attempts      int
		WebhookURL    string
		SkipScan      bool
		Interactive   bool
		Log           *logrus.Logger
	}

	Stats struct {
		ReposObserved      int
		BranchesObserved   int
		NewRepos           int
		TargetsScanned     int
		TargetsFailed      int
		FindingsCount      int
		ExecutionStartTime time.Time
		ExecutionEndTime   time.Time
	}
)

func New(cfg *Config) (result *Guardian, err error) {
	outputDirAbs, err := filepath.Abs(cfg.OutputDir)
	if err != nil {
		err = errors.Wrapv(err, "unable to get absolute output dir", cfg.OutputDir)
		return
	}
	dbDir := filepath.Join(outputDirAbs, "db")

	var db *database.Database
	if db, err = database.New(dbDir); err != nil {
		err = errors.WithMessagev(err, "unable to create database object for directory", dbDir)
		return
	}

	logEntry := logrus.NewEntry(cfg.Log)

	var interact *progress.Progress
	if cfg.Interactive {
		interact = progress.New()
	}

	driver := trufflehog.New(cfg.TruffleHogCmd, cfg.ScanTimeout, logEntry)
	orchestrator := scan.NewOrchestrator(driver, cfg.WorkerCount, cfg.Attempts, interact, logEntry)

	var notifier Notifier
	if cfg.WebhookURL != "" {
		notifier = notify.NewSlackWebhook(cfg.WebhookURL, logEntry)
	}

	result = &Guardian{
		crawler:       crawl.New(cfg.GithubToken, cfg.ExcludeForks, logEntry),
		store:         snapshot.NewStore(db, logEntry),
		orchestrator:  orchestrator,
		notifier:      notifier,
		organizations: cfg.Organizations,
		skipScan:      cfg.SkipScan,
		log:           logEntry,
		Stats:         &Stats{},
	}

	return
}

func (g *Guardian) Execute(ctx context.Context) (err error) {
	g.Stats = &Stats{ExecutionStartTime: time.Now()}

	previous, err := g.store.LoadPrevious()
	if err != nil {
		return errors.WithMessage(err, "unable to load previous snapshot")
	}

	g.log.Info("crawling organizations ... ")
	current, err := g.crawler.FetchCurrentState(ctx, g.organizations)
	if err != nil {
		return errors.WithMessage(err, "unable to fetch current state")
	}
	g.Stats.ReposObserved = current.RepoCount()
	g.Stats.BranchesObserved = current.BranchCount()

	delta := snapshot.Diff(previous, current)
	g.Stats.NewRepos = len(delta.NewRepos)
	g.log.WithField("events", delta.EventCount()).Info("diff complete")

	scanReport := g.executeScanPhase(ctx, delta, current)
	g.Stats.TargetsScanned = len(scanReport.Succeeded)
	g.Stats.TargetsFailed = len(scanReport.Failed)
	g.Stats.FindingsCount = scanReport.FindingCount()

	g.dispatchPayloads(ctx, report.Aggregate(delta, scanReport))

	// An aborted run must not move the commit point
	if err = ctx.Err(); err != nil {
		return errors.Wrap(err, "run aborted before persistence")
	}

	if err = g.store.Save(current); err != nil {
		return errors.WithMessage(err, "unable to persist current snapshot")
	}

	g.Stats.ExecutionEndTime = time.Now()
	g.printDoneMessage()

	return
}

func (g *Guardian) executeScanPhase(ctx context.Context, delta *snapshot.Delta, current *snapshot.Snapshot) (result *scan.Report) {
	if g.skipScan {
		g.log.Info("skipping scan phase ... ")
		return &scan.Report{}
	}
	if delta.Empty() {
		g.log.Info("no changes since last run, nothing to scan")
		return &scan.Report{}
	}

	return g.orchestrator.Run(ctx, delta, current)
}

// dispatchPayloads is best-effort: a delivery failure is logged and the run
// carries on, because the scan results are already final.
func (g *Guardian) dispatchPayloads(ctx context.Context, payloads []*report.Payload) {
	for _, payload := range payloads {
		if g.notifier == nil {
			g.log.WithField("severity", payload.Severity.String()).Info("payload: ", payload.Title)
			continue
		}
		if err := g.notifier.Send(ctx, payload); err != nil {
			errors.ErrLog(g.log, err).Warn("unable to deliver payload: ", payload.Title)
		}
	}
}

func (g *Guardian) printDoneMessage() {
	duration := g.Stats.ExecutionEndTime.Sub(g.Stats.ExecutionStartTime)
	durationHuman := durafmt.ParseShort(duration)

	g.log.Info("Run completed successfully")
	g.log.Infof("- Repos observed:    %d", g.Stats.ReposObserved)
	g.log.Infof("- Branches observed: %d", g.Stats.BranchesObserved)
	g.log.Infof("- New repos:         %d", g.Stats.NewRepos)
	g.log.Infof("- Targets scanned:   %d (%d failed)", g.Stats.TargetsScanned, g.Stats.TargetsFailed)
	g.log.Infof("- Secrets found:     %d", g.Stats.FindingsCount)
	g.log.Infof("- Total duration:    %.2fs (%s)", duration.Seconds(), durationHuman)
}
