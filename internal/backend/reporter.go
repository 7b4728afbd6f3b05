package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const errorsReportPath = "/errors/report"

// reportBudget bounds how long a best-effort error report may take; the
// caller never waits on it either way.
const reportBudget = 3 * time.Second

// reporter ships client-side errors to the backend so admins get notified.
// Reports are fire-and-forget: they run on their own goroutine, swallow
// their own failures, and are never emitted for the reporting endpoint
// itself — otherwise a dead backend would trigger infinite recursion.
type reporter struct {
	base      string
	hc        *http.Client
	userID    func() string
	userAgent string
	log       *slog.Logger
}

type errorReport struct {
	ErrorType string         `json:"error_type"`
	Message   string         `json:"message"`
	UserID    string         `json:"user_id,omitempty"`
	URL       string         `json:"url"`
	UserAgent string         `json:"user_agent"`
	Timestamp string         `json:"timestamp"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

func (r *reporter) report(errorType, message, reqURL string, metadata map[string]any) {
	if strings.Contains(reqURL, errorsReportPath) || strings.Contains(message, errorsReportPath) {
		return
	}

	body := errorReport{
		ErrorType: errorType,
		Message:   message,
		UserID:    r.userID(),
		URL:       reqURL,
		UserAgent: r.userAgent,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Metadata:  metadata,
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), reportBudget)
		defer cancel()

		raw, err := json.Marshal(body)
		if err != nil {
			return
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.base+errorsReportPath, bytes.NewReader(raw))
		if err != nil {
			return
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := r.hc.Do(req)
		if err != nil {
			r.log.Debug("error report not delivered", "error", err)
			return
		}
		_ = resp.Body.Close()
	}()
}
