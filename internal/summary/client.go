// Package summary calls the external text-summary service. The service is a
// black box: it takes a flattened, ISO-normalized list of clock rows for a
// date range and returns prose.
package summary

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"shiftledger/internal/domain"
	"shiftledger/pkg/platform/sentinel"
)

const defaultTimeout = 30 * time.Second

// Row is one flattened clock event as the service expects it. A session
// contributes an "in" row and, when closed, an "out" row.
type Row struct {
	Employee  string `json:"employee"`
	Action    string `json:"action"`
	Timestamp string `json:"timestamp"`
	Site      string `json:"site,omitempty"`
	Note      string `json:"note,omitempty"`
}

type request struct {
	From string `json:"from"`
	To   string `json:"to"`
	Rows []Row  `json:"rows"`
}

type response struct {
	Summary string `json:"summary"`
}

// Client posts flattened rows to the configured endpoint. No retries: the
// caller surfaces failure directly and the user re-requests.
type Client struct {
	endpoint   string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewClient(endpoint string, logger *slog.Logger) *Client {
	return &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     logger,
	}
}

// Summarize flattens every session overlapping [from, to] and returns the
// service's prose. Open sessions contribute only their "in" row.
func (c *Client) Summarize(ctx context.Context, sessions []domain.Session, from, to time.Time) (string, error) {
	rows := Flatten(sessions, from, to)

	payload, err := json.Marshal(request{
		From: from.Format(time.RFC3339),
		To:   to.Format(time.RFC3339),
		Rows: rows,
	})
	if err != nil {
		return "", fmt.Errorf("encode summary request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build summary request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("summary service: %w: %w", sentinel.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read summary response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("summary service rejected request",
			"status", resp.StatusCode, "rows", len(rows))
		return "", fmt.Errorf("summary service returned %d: %w", resp.StatusCode, sentinel.ErrUnavailable)
	}

	var decoded response
	if err := json.Unmarshal(body, &decoded); err != nil {
		return "", fmt.Errorf("decode summary response: %w", err)
	}
	return decoded.Summary, nil
}

// Flatten turns sessions overlapping [from, to] into chronologically ordered
// in/out rows with RFC 3339 timestamps.
func Flatten(sessions []domain.Session, from, to time.Time) []Row {
	fromMillis, toMillis := from.UnixMilli(), to.UnixMilli()

	var rows []Row
	for _, session := range sessions {
		if session.In == nil {
			continue
		}
		end := toMillis
		if session.Closed() {
			end = session.Out.Timestamp
		}
		if end < fromMillis || session.In.Timestamp > toMillis {
			continue
		}

		rows = append(rows, eventRow(session.In))
		if session.Closed() {
			rows = append(rows, eventRow(session.Out))
		}
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Timestamp < rows[j].Timestamp })
	return rows
}

func eventRow(event *domain.TimeEvent) Row {
	return Row{
		Employee:  event.EmployeeName,
		Action:    string(event.Action),
		Timestamp: event.Time().UTC().Format(time.RFC3339),
		Site:      event.SiteName,
		Note:      event.Note,
	}
}
