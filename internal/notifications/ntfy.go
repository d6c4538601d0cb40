package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const userAgent = "KeepMePrivate/0.1.0"

// Ntfy posts alerts to an ntfy topic URL.
type Ntfy struct {
	endpoint string
	client   *http.Client
}

// NewNtfy returns a notifier for endpoint. requestTimeout bounds each POST.
func NewNtfy(endpoint string, requestTimeout time.Duration) *Ntfy {
	if requestTimeout <= 0 {
		requestTimeout = 10 * time.Second
	}
	return &Ntfy{endpoint: endpoint, client: &http.Client{Timeout: requestTimeout}}
}

func (n *Ntfy) Notify(ctx context.Context, title, message string, _ time.Duration) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if title != "" {
		req.Header.Set("Title", title)
	}
	req.Header.Set("Tags", "keepmeprivate,privacy")
	if priority := priorityFor(title); priority != "" {
		req.Header.Set("Priority", priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// priorityFor marks alerts about a device becoming usable as high priority.
func priorityFor(title string) string {
	switch title {
	case titleCameraConnected, titleMicrophoneReady:
		return "high"
	default:
		return ""
	}
}
