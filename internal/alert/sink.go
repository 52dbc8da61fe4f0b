package alert

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// Sink accepts a formatted alert message and reports delivery success.
type Sink interface {
	// Deliver sends the message. A nil error means acknowledged delivery;
	// only then may the caller mark the event's fingerprint alerted.
	Deliver(ctx context.Context, message string) error
}

// slackPayload is the webhook body.
type slackPayload struct {
	Text string `json:"text"`
}

// SlackSink posts alert messages to a Slack incoming webhook.
type SlackSink struct {
	webhookURL string
	client     *http.Client
}

var _ Sink = (*SlackSink)(nil)

// NewSlackSink creates a Slack webhook sink.
func NewSlackSink(webhookURL string, timeout time.Duration) *SlackSink {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &SlackSink{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: timeout},
	}
}

// Deliver posts the message to the webhook. Non-2xx responses are delivery
// failures.
func (s *SlackSink) Deliver(ctx context.Context, message string) error {
	body, err := json.Marshal(slackPayload{Text: message})
	if err != nil {
		return fmt.Errorf("failed to marshal Slack payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create Slack request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to post to Slack webhook: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("Slack webhook returned status %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

var (
	previewBorder = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 1)
	previewTitle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
)

// ConsoleSink prints styled alert previews to a writer instead of posting
// them anywhere. Used by --dry-run.
type ConsoleSink struct {
	Out io.Writer
}

var _ Sink = (*ConsoleSink)(nil)

// Deliver renders the message to the console. Always succeeds.
func (c *ConsoleSink) Deliver(ctx context.Context, message string) error {
	rendered := previewBorder.Render(previewTitle.Render("ALERT PREVIEW") + "\n" + message)
	_, err := fmt.Fprintln(c.Out, rendered)
	return err
}
