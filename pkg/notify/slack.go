package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"io/ioutil"
	"net/http"
	"time"

	"github.com/pantheon-systems/repo-guardian/pkg/errors"
	"github.com/pantheon-systems/repo-guardian/pkg/report"
	"github.com/sirupsen/logrus"
)

const requestTimeout = 30 * time.Second

type (

	// SlackWebhook posts payloads to a Slack incoming webhook, one message
	// per payload. Delivery is best-effort; failures are the caller's to
	// log, never to abort on.
	SlackWebhook struct {
		webhookURL string
		client     *http.Client
		log        logrus.FieldLogger
	}

	message struct {
		Text        string       `json:"text"`
		Attachments []attachment `json:"attachments,omitempty"`
	}
	attachment struct {
		Color  string  `json:"color"`
		Fields []field `json:"fields"`
	}
	field struct {
		Value string `json:"value"`
		Short bool   `json:"short"`
	}
)

func NewSlackWebhook(webhookURL string, log logrus.FieldLogger) *SlackWebhook {
	return &SlackWebhook{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: requestTimeout},
		log:        log,
	}
}

func (s *SlackWebhook) Send(ctx context.Context, payload *report.Payload) (err error) {
	body, err := json.Marshal(buildMessage(payload))
	if err != nil {
		err = errors.Wrap(err, "unable to marshal webhook message")
		return
	}

	request, err := http.NewRequest(http.MethodPost, s.webhookURL, bytes.NewReader(body))
	if err != nil {
		err = errors.Wrap(err, "unable to build webhook request")
		return
	}
	request = request.WithContext(ctx)
	request.Header.Set("Content-Type", "application/json")

	s.log.WithField("severity", payload.Severity.String()).Debug("posting payload: ", payload.Title)

	response, err := s.client.Do(request)
	if err != nil {
		err = errors.Wrap(err, "unable to post webhook message")
		return
	}
	defer func() {
		_, _ = io.Copy(ioutil.Discard, response.Body)
		_ = response.Body.Close()
	}()

	if response.StatusCode != http.StatusOK {
		err = errors.Errorv("webhook delivery rejected", response.Status)
		return
	}

	return
}

func buildMessage(payload *report.Payload) (result message) {
	result.Text = payload.Title

	if len(payload.Lines) == 0 {
		return
	}

	fields := make([]field, 0, len(payload.Lines))
	for _, line := range payload.Lines {
		fields = append(fields, field{Value: line})
	}
	result.Attachments = []attachment{{
		Color:  payload.Severity.Color(),
		Fields: fields,
	}}

	return
}
