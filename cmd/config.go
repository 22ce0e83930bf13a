package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	apppkg "github.com/pantheon-systems/repo-guardian/pkg/app"
	"github.com/pantheon-systems/repo-guardian/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var cfg config

type (
	// Root config
	config struct {

		// Output and workflow
		LogLevel    string `mapstructure:"log-level"`
		OutputDir   string `mapstructure:"output-dir"`
		Interactive bool   `mapstructure:"interactive"`
		SkipScan    bool   `mapstructure:"skip-scan"`

		// Crawl config
		Organizations []string     `mapstructure:"organizations"`
		Source        sourceConfig `mapstructure:"source"`

		// Scan config
		Scan scanConfig `mapstructure:"scan"`

		// Notification config
		Notify notifyConfig `mapstructure:"notify"`
	}

	sourceConfig struct {
		APIToken     string `mapstructure:"api-token"`
		ExcludeForks bool   `mapstructure:"exclude-forks"`
	}

	scanConfig struct {
		TruffleHogCmd []string      `mapstructure:"trufflehog-cmd"`
		WorkerCount   int           `mapstructure:"workers"`
		Timeout       time.Duration `mapstructure:"timeout"`
		Attempts      int           `mapstructure:"attempts"`
	}

	notifyConfig struct {
		WebhookURL string `mapstructure:"webhook-url"`
	}
)

func buildAppConfig(log *logrus.Logger) *apppkg.Config {
	return &apppkg.Config{
		Organizations: cfg.Organizations,
		OutputDir:     cfg.OutputDir,
		GithubToken:   cfg.Source.APIToken,
		ExcludeForks:  cfg.Source.ExcludeForks,
		TruffleHogCmd: cfg.Scan.TruffleHogCmd,
		WorkerCount:   cfg.Scan.WorkerCount,
		ScanTimeout:   cfg.Scan.Timeout,
		Attempts:      cfg.Scan.Attempts,
		WebhookURL:    cfg.Notify.WebhookURL,
		SkipScan:      cfg.SkipScan,
		Interactive:   cfg.Interactive,
		Log:           log,
	}
}

// A subset of command parameters that can overwrite configuration values
func initArgs() {
	flags := rootCmd.PersistentFlags()

	// Config file
	flags.String(
		"config",
		"",
		"Config file location")

	// Root config
	flags.String(
		"log-level",
		logrus.InfoLevel.String(),
		fmt.Sprintf("How detailed should the log be? Valid values: %s.", strings.Join(validLogLevels(), ", ")))
	flags.String(
		"output-dir",
		"./output",
		"Output directory.")
	flags.Bool(
		"interactive",
		true,
		"If false, progress spinners will not appear, only log messages.")
	flags.Bool(
		"skip-scan",
		false,
		"Crawl, diff and persist only. Use on the first run so the entire existing corpus is not scanned.")

	// Crawl config
	flags.StringSlice(
		"organizations",
		[]string{},
		"GitHub organizations to track.")
	flags.String(
		"source.api-token",
		"",
		"GitHub API token used to crawl organization membership and repositories.")
	flags.Bool(
		"source.exclude-forks",
		false,
		"If true, forked repositories are not tracked.")

	// Scan config
	flags.StringSlice(
		"scan.trufflehog-cmd",
		[]string{"trufflehog"},
		"TruffleHog command.")
	flags.Int(
		"scan.workers",
		4,
		"How many concurrent scan workers.")
	flags.Duration(
		"scan.timeout",
		10*time.Minute,
		"How long to wait for a single target to be scanned.")
	flags.Int(
		"scan.attempts",
		2,
		"How many times a target is attempted when the scanner fails to launch or times out.")

	// Notification config
	flags.String(
		"notify.webhook-url",
		"",
		"Slack incoming webhook URL. If empty, payloads are logged instead of delivered.")
}

// Build the cfg variable
func initConfig() (err error) {
	vpr := viper.New()

	// Config file
	var cfgFile string
	cfgFile, err = rootCmd.PersistentFlags().GetString("config")
	if err != nil {
		err = errors.Wrap(err, "unable to get \"config\" command parameter value")
		return
	}
	if cfgFile == "" {
		err = errors.New("\"config\" parameter required")
		return
	}
	vpr.SetConfigFile(cfgFile)

	// Bind cobra and viper together
	var flags []*pflag.Flag
	for _, cmd := range append([]*cobra.Command{rootCmd}, rootCmd.Commands()...) {
		cmd.LocalFlags().VisitAll(func(f *pflag.Flag) {
			if f.Name != "config" {
				flags = append(flags, f)
			}
		})
	}
	for _, f := range flags {
		if err = vpr.BindPFlag(f.Name, f); err != nil {
			err = errors.Wrapv(err, "unable to bind flag", f.Name)
			return
		}
	}

	// Read config file
	if err = vpr.ReadInConfig(); err != nil {
		err = errors.Wrap(err, "unable to read config file")
		return
	}

	// Unmarshal config into object
	opts := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToSliceHookFunc(","),
		mapstructure.StringToTimeDurationHookFunc(),
	))
	if err = vpr.Unmarshal(&cfg, opts); err != nil {
		err = errors.Wrap(err, "unable to unmarshal config")
		return
	}

	applyEnvFallbacks()

	// Validate parameters
	validateParameters()

	return
}

// applyEnvFallbacks fills in secrets from the environment (or a .env file)
// so they can stay out of the config file.
func applyEnvFallbacks() {
	_ = godotenv.Load()

	if cfg.Source.APIToken == "" {
		cfg.Source.APIToken = os.Getenv("GITHUB_TOKEN")
	}
	if cfg.Notify.WebhookURL == "" {
		cfg.Notify.WebhookURL = os.Getenv("SLACK_WEBHOOK_URL")
	}
}

// Validate config
func validateParameters() {

	// Output and workflow
	validationAssertTrue(cfg.LogLevel != "", "log-level", "")
	validationAssertTrue(cfg.OutputDir != "", "output-dir", "")

	// Crawl config
	validationAssertTrue(len(cfg.Organizations) > 0, "organizations", "")
	validationAssertTrue(cfg.Source.APIToken != "", "source.api-token", "")

	// Scan config
	validationAssertTrue(len(cfg.Scan.TruffleHogCmd) > 0, "scan.trufflehog-cmd", "")
	validationAssertTrue(cfg.Scan.WorkerCount > 0, "scan.workers", "")
	validationAssertTrue(cfg.Scan.Timeout > 0, "scan.timeout", "")
	validationAssertTrue(cfg.Scan.Attempts > 0, "scan.attempts", "")
}

func validationAssertTrue(valid bool, configName string, messageTemplate string) {
	if !valid {
		if messageTemplate == "" {
			messageTemplate = "parameter `%s` is required"
		}
		message := fmt.Sprintf(messageTemplate, configName)
		errors.Fatal(logger, errors.New(message))
	}
}
