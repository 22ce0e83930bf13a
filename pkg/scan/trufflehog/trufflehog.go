package trufflehog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"

	"github.com/pantheon-systems/repo-guardian/pkg/errors"
	"github.com/pantheon-systems/repo-guardian/pkg/scan"
	"github.com/sirupsen/logrus"
)

const shortShaLen = 10

type (

	// Driver runs the TruffleHog binary against a scan target and decodes
	// its JSON finding stream.
	Driver struct {
		command []string
		timeout time.Duration
		log     logrus.FieldLogger
	}

	incomingFinding struct {
		DetectorName   string `json:"DetectorName"`
		SourceMetadata struct {
			Data struct {
				Git    gitMetadata    `json:"Git"`
				Github githubMetadata `json:"Github"`
			} `json:"Data"`
		} `json:"SourceMetadata"`
	}
	gitMetadata struct {
		Repository string `json:"repository"`
		Commit     string `json:"commit"`
		File       string `json:"file"`
		Line       int64  `json:"line"`
	}
	githubMetadata struct {
		Link       string `json:"link"`
		Repository string `json:"repository"`
		Commit     string `json:"commit"`
		File       string `json:"file"`
		Line       int64  `json:"line"`
	}
)

func New(command []string, timeout time.Duration, log logrus.FieldLogger) *Driver {
	return &Driver{
		command: command,
		timeout: timeout,
		log:     log,
	}
}

func (d *Driver) Scan(ctx context.Context, target scan.Target) (result []*scan.Finding, err error) {
	args := d.buildArgs(target)
	log := d.log.WithField("target", target.Key())

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	var stdout io.ReadCloser
	if stdout, err = cmd.StdoutPipe(); err != nil {
		err = scan.NewScanError(scan.LaunchFailure, errors.Wrap(err, "unable to open stdout pipe"))
		return
	}

	log.Debug("running: ", strings.Join(args, " "))

	if err = cmd.Start(); err != nil {
		err = scan.NewScanError(scan.LaunchFailure, errors.Wrapv(err, "unable to start scanner", args[0]))
		return
	}

	var parseErr error
	result, parseErr = ParseFindings(stdout, target)

	waitErr := cmd.Wait()

	if ctx.Err() == context.DeadlineExceeded {
		result = nil
		err = scan.NewScanError(scan.Timeout, errors.Errorv("scanner timed out", d.timeout))
		return
	}
	if waitErr != nil {
		result = nil
		err = classifyExit(waitErr, stderr.String())
		return
	}
	if parseErr != nil {
		result = nil
		err = scan.NewScanError(scan.MalformedOutput, parseErr)
		return
	}

	log.WithField("findings", len(result)).Debug("scanner finished")

	return
}

// ParseFindings decodes TruffleHog's stream of concatenated JSON objects.
func ParseFindings(reader io.Reader, target scan.Target) (result []*scan.Finding, err error) {
	dec := json.NewDecoder(reader)

	for dec.More() {
		var raw json.RawMessage
		if err = dec.Decode(&raw); err != nil {
			err = errors.Wrap(err, "unable to decode finding")
			return
		}

		var incoming incomingFinding
		if err = json.Unmarshal(raw, &incoming); err != nil {
			err = errors.Wrap(err, "unable to unmarshal finding")
			return
		}

		result = append(result, &scan.Finding{
			Target:   target,
			Detector: incoming.DetectorName,
			Location: location(&incoming),
			Raw:      raw,
		})
	}

	return
}

func (d *Driver) buildArgs(target scan.Target) (result []string) {
	result = append(result, d.command...)

	switch target.Reason {
	case scan.NewRepo:
		// Full history scan for brand new repositories
		result = append(result,
			"--no-update",
			"github",
			"--repo="+target.Repo.URL(),
			"--only-verified",
			"--json",
		)
	case scan.UpdatedCommit:
		result = append(result,
			"--no-update",
			"git",
			target.Repo.URL(),
			"--branch="+target.Ref,
			"--since-commit="+shortSha(target.SinceCommit),
			"--only-verified",
			"--json",
		)
	default:
		result = append(result,
			"--no-update",
			"git",
			target.Repo.URL(),
			"--branch="+target.Ref,
			"--only-verified",
			"--json",
		)
	}

	return
}

func classifyExit(waitErr error, stderr string) (result *scan.ScanError) {
	if _, ok := waitErr.(*exec.ExitError); ok {
		lower := strings.ToLower(stderr)
		if strings.Contains(lower, "not found") || strings.Contains(lower, "repository does not exist") {
			return scan.NewScanError(scan.NotFound, errors.Errorv("scanner could not find target", firstLine(stderr)))
		}
		return scan.NewScanError(scan.NonZeroExit, errors.Errorv("scanner exited with an error", firstLine(stderr)))
	}
	return scan.NewScanError(scan.LaunchFailure, waitErr)
}

func location(incoming *incomingFinding) (result string) {
	github := incoming.SourceMetadata.Data.Github
	if github.Link != "" {
		return github.Link
	}

	git := incoming.SourceMetadata.Data.Git
	result = git.Repository
	if git.Commit != "" {
		result += "@" + shortSha(git.Commit)
	}
	if git.File != "" {
		result += fmt.Sprintf(":%s:%d", git.File, git.Line)
	}
	return
}

func shortSha(sha string) string {
	if len(sha) > shortShaLen {
		return sha[:shortShaLen]
	}
	return sha
}

func firstLine(input string) string {
	if index := strings.Index(input, "\n"); index != -1 {
		return input[:index]
	}
	return input
}
