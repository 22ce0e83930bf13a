package notify

import (
	"context"
	"encoding/json"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pantheon-systems/repo-guardian/pkg/report"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func testLog() logrus.FieldLogger {
	log := logrus.New()
	log.SetOutput(ioutil.Discard)
	return log
}

func captureWebhook(t *testing.T, status int) (*httptest.Server, *[]message) {
	var received []message
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		require.Equal(t, "application/json", request.Header.Get("Content-Type"))
		var msg message
		require.NoError(t, json.NewDecoder(request.Body).Decode(&msg))
		received = append(received, msg)
		writer.WriteHeader(status)
	}))
	return server, &received
}

func TestSend_WireShape(t *testing.T) {
	server, received := captureWebhook(t, http.StatusOK)
	defer server.Close()
	subject := NewSlackWebhook(server.URL, testLog())
	payload := &report.Payload{
		Title:    "Verified secrets found (1-2 of 2)",
		Lines:    []string{"AWS secret in acme/a@main", "Slack secret in acme/b@main"},
		Severity: report.Critical,
	}

	// Fire
	err := subject.Send(context.Background(), payload)

	require.NoError(t, err)
	require.Len(t, *received, 1)
	msg := (*received)[0]
	require.Equal(t, payload.Title, msg.Text)
	require.Len(t, msg.Attachments, 1)
	require.Equal(t, "#FF0000", msg.Attachments[0].Color)
	require.Len(t, msg.Attachments[0].Fields, 2)
	require.Equal(t, "AWS secret in acme/a@main", msg.Attachments[0].Fields[0].Value)
}

func TestSend_TitleOnlyPayloadHasNoAttachment(t *testing.T) {
	server, received := captureWebhook(t, http.StatusOK)
	defer server.Close()
	subject := NewSlackWebhook(server.URL, testLog())

	// Fire
	err := subject.Send(context.Background(), &report.Payload{
		Title:    "No changes detected since the last run",
		Severity: report.Info,
	})

	require.NoError(t, err)
	require.Len(t, *received, 1)
	require.Empty(t, (*received)[0].Attachments)
}

func TestSend_RejectedDelivery(t *testing.T) {
	server, _ := captureWebhook(t, http.StatusForbidden)
	defer server.Close()
	subject := NewSlackWebhook(server.URL, testLog())

	// Fire
	err := subject.Send(context.Background(), &report.Payload{Title: "hello"})

	require.Error(t, err)
	require.Contains(t, err.Error(), "webhook delivery rejected")
}

func TestSend_UnreachableEndpoint(t *testing.T) {
	subject := NewSlackWebhook("http://127.0.0.1:1/hook", testLog())

	// Fire
	err := subject.Send(context.Background(), &report.Payload{Title: "hello"})

	require.Error(t, err)
}
