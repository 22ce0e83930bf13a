package cmd

import (
	"io/ioutil"
	"time"

	"github.com/pantheon-systems/repo-guardian/pkg/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"
)

var initCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a sample config file",
	Args:  cobra.ExactArgs(1),
	Run:   runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(_ *cobra.Command, args []string) {
	path := args[0]

	sample := yaml.MapSlice{
		{Key: "log-level", Value: "info"},
		{Key: "output-dir", Value: "./output"},
		{Key: "interactive", Value: true},
		{Key: "skip-scan", Value: false},
		{Key: "organizations", Value: []string{"my-org"}},
		{Key: "source", Value: yaml.MapSlice{
			{Key: "api-token", Value: ""},
			{Key: "exclude-forks", Value: false},
		}},
		{Key: "scan", Value: yaml.MapSlice{
			{Key: "trufflehog-cmd", Value: []string{"trufflehog"}},
			{Key: "workers", Value: 4},
			{Key: "timeout", Value: (10 * time.Minute).String()},
			{Key: "attempts", Value: 2},
		}},
		{Key: "notify", Value: yaml.MapSlice{
			{Key: "webhook-url", Value: ""},
		}},
	}

	content, err := yaml.Marshal(sample)
	if err != nil {
		errors.Fatal(logger, errors.Wrap(err, "unable to marshal sample config"))
	}

	header := []byte("# repo-guardian configuration\n" +
		"# `source.api-token` and `notify.webhook-url` may also come from the\n" +
		"# GITHUB_TOKEN and SLACK_WEBHOOK_URL environment variables.\n")

	if err := ioutil.WriteFile(path, append(header, content...), 0644); err != nil {
		errors.Fatal(logger, errors.Wrapv(err, "unable to write sample config", path))
	}

	logger.Info("sample config written to ", path)
}
