package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/server-monitor/internal/config"
	"github.com/server-monitor/internal/domain"
)

// MonitoringPath is the fixed dashboard ingest path the report is POSTed to.
const MonitoringPath = "/app/modules/module_block_main_monitoring_rating/forward/js_controller.php"

// sendTimeout bounds a single POST so a hung connection cannot stall the
// reporting pipeline indefinitely.
const sendTimeout = 10 * time.Second

// Sender delivers reports to the dashboard endpoint. Delivery is
// fire-and-forget: a failed send is logged and dropped, never retried or
// queued.
type Sender struct {
	client   *http.Client
	settings func() config.Settings
	logger   *slog.Logger
}

// NewSender creates a sender. settings supplies the current endpoint and
// credentials on every send, so a reload takes effect immediately.
func NewSender(settings func() config.Settings, logger *slog.Logger) *Sender {
	return &Sender{
		client:   &http.Client{Timeout: sendTimeout},
		settings: settings,
		logger:   logger,
	}
}

// Send serializes the report and POSTs it. With the server id, password or
// base URL unset it returns ErrReportingDisabled, which callers treat as
// "reporting turned off", not as a failure.
func (s *Sender) Send(ctx context.Context, rep domain.Report) error {
	st := s.settings()
	if !st.ReportingEnabled() {
		return domain.ErrReportingDisabled
	}

	body, err := json.Marshal(rep)
	if err != nil {
		return fmt.Errorf("marshaling report: %w", err)
	}

	q := url.Values{}
	q.Set("server", st.ServerID)
	q.Set("password", st.Password)
	endpoint := st.URL + MonitoringPath + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building report request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("sending report: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("dashboard returned status %d", resp.StatusCode)
	}

	s.logger.Debug("report sent", "status", resp.StatusCode, "players", len(rep.Players))
	return nil
}
