package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/pantheon-systems/repo-guardian/pkg/app"
	"github.com/pantheon-systems/repo-guardian/pkg/app/vars"
	"github.com/pantheon-systems/repo-guardian/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	rootCmd = &cobra.Command{
		Use:   vars.Name,
		Short: vars.Description,
	}
	logger *logrus.Logger
)

func init() {
	rootCmd.Run = run
	logger = initLogging()
	initArgs()
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		errors.Fatal(logger, errors.Wrap(err, "unable to execute application"))
	}
}

func run(*cobra.Command, []string) {
	if err := initConfig(); err != nil {
		errors.Fatal(logger, err)
	}

	log, err := configureLogging(logger, cfg)
	if err != nil {
		errors.Fatal(logger, err)
	}

	guardian, err := app.New(buildAppConfig(log))
	if err != nil {
		errors.Fatal(log, errors.WithMessage(err, "unable to create guardian app"))
	}

	ctx, cancel := signalContext(log)
	defer cancel()

	if err := guardian.Execute(ctx); err != nil {
		errors.Fatal(log, errors.WithMessage(err, "unable to execute guardian app"))
	}
}

// signalContext cancels the run on SIGINT or SIGTERM. Cancellation stops
// targets that have not started; the pipeline skips persistence.
func signalContext(log logrus.FieldLogger) (ctx context.Context, cancel context.CancelFunc) {
	ctx, cancel = context.WithCancel(context.Background())

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-signals:
			log.WithField("signal", sig.String()).Warn("aborting run ... ")
			cancel()
		case <-ctx.Done():
		}
	}()

	return
}
