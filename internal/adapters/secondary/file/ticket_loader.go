package file

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lorrc/service-desk-insights/internal/core/domain"
	apperrors "github.com/lorrc/service-desk-insights/internal/core/errors"
	"github.com/lorrc/service-desk-insights/internal/core/ports"
	"github.com/lorrc/service-desk-insights/internal/infrastructure/logging"
)

// Accepted timestamp layouts, tried in order.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.000-0700", // tracker export
	"2006-01-02T15:04:05-0700",
	"2006-01-02 15:04:05",
	time.DateOnly,
}

// TicketLoader reads the ticket corpus from a JSON issue export.
type TicketLoader struct {
	path   string
	logger *slog.Logger
}

var (
	_ ports.TicketLoader        = (*TicketLoader)(nil)
	_ ports.TicketSourceChecker = (*TicketLoader)(nil)
)

// NewTicketLoader creates a loader for the export at path.
func NewTicketLoader(path string, logger *slog.Logger) *TicketLoader {
	return &TicketLoader{
		path:   path,
		logger: logging.Component(logger, "file_ticket_loader"),
	}
}

type named struct {
	Name string `json:"name"`
}

type person struct {
	DisplayName string `json:"displayName"`
}

type issueFields struct {
	Created   string  `json:"created"`
	Updated   string  `json:"updated"`
	Status    *named  `json:"status"`
	Assignee  *person `json:"assignee"`
	IssueType *named  `json:"issuetype"`
}

// issue accepts both the tracker shape (values under "fields") and a flat
// record with the same values at the top level.
type issue struct {
	Key    string       `json:"key"`
	Fields *issueFields `json:"fields"`

	Created   string `json:"created"`
	Updated   string `json:"updated"`
	Status    string `json:"status"`
	Assignee  string `json:"assignee"`
	IssueType string `json:"issueType"`
}

type export struct {
	Issues []issue `json:"issues"`
}

// Load reads and parses the export file. A missing file is reported as
// ErrTicketSourceUnavailable.
func (l *TicketLoader) Load(ctx context.Context) ([]domain.TicketRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(l.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s not found", apperrors.ErrTicketSourceUnavailable, l.path)
		}
		return nil, fmt.Errorf("read ticket export: %w", err)
	}

	issues, err := decode(data)
	if err != nil {
		return nil, fmt.Errorf("parse ticket export %s: %w", l.path, err)
	}

	tickets := make([]domain.TicketRecord, 0, len(issues))
	var badTimestamps int
	for _, raw := range issues {
		ticket, ok := toRecord(raw)
		if !ok {
			badTimestamps++
		}
		tickets = append(tickets, ticket)
	}

	if badTimestamps > 0 {
		l.logger.Debug("tickets with unparseable timestamps", "count", badTimestamps)
	}
	l.logger.Debug("ticket export loaded", "path", l.path, "tickets", len(tickets))
	return tickets, nil
}

// Ping checks that the export file exists.
func (l *TicketLoader) Ping(ctx context.Context) error {
	if _, err := os.Stat(l.path); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrTicketSourceUnavailable, err)
	}
	return nil
}

func decode(data []byte) ([]issue, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}

	if trimmed[0] == '[' {
		var issues []issue
		if err := json.Unmarshal(trimmed, &issues); err != nil {
			return nil, err
		}
		return issues, nil
	}

	var doc export
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return nil, err
	}
	return doc.Issues, nil
}

// toRecord projects a raw issue onto a ticket record. ok is false when a
// non-empty timestamp could not be parsed.
func toRecord(raw issue) (domain.TicketRecord, bool) {
	created, updated := raw.Created, raw.Updated
	status, assignee, issueType := raw.Status, raw.Assignee, raw.IssueType

	if f := raw.Fields; f != nil {
		created, updated = f.Created, f.Updated
		status, assignee, issueType = "", "", ""
		if f.Status != nil {
			status = f.Status.Name
		}
		if f.Assignee != nil {
			assignee = f.Assignee.DisplayName
		}
		if f.IssueType != nil {
			issueType = f.IssueType.Name
		}
	}

	createdAt, createdOK := parseTimestamp(created)
	updatedAt, updatedOK := parseTimestamp(updated)

	return domain.TicketRecord{
		Key:       raw.Key,
		Created:   createdAt,
		Updated:   updatedAt,
		Status:    strings.TrimSpace(status),
		Assignee:  strings.TrimSpace(assignee),
		IssueType: strings.TrimSpace(issueType),
	}, createdOK && updatedOK
}

// parseTimestamp returns nil for empty or unparseable values. ok is false
// only when a non-empty value failed to parse.
func parseTimestamp(value string) (*time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, true
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			t = t.UTC()
			return &t, true
		}
	}
	return nil, false
}
