package events

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/careertrojan/ops-core/internal/logger"
	"github.com/careertrojan/ops-core/internal/model"
)

// Log is an append-only JSON Lines record of interactions, consumed later
// in batch by the enrichment feed. Appends are serialized within the
// process; across processes each line is written with a single write on a
// file opened O_APPEND, so lines never interleave.
type Log struct {
	path   string
	mu     sync.Mutex
	logger *logger.Logger
}

// NewLog creates an interaction log writing to dir/file. The directory is
// created on first append, not here.
func NewLog(dir, file string, l *logger.Logger) *Log {
	return &Log{path: filepath.Join(dir, file), logger: l}
}

// Path returns the log file location. Consumers read the file directly.
func (lg *Log) Path() string {
	return lg.path
}

// Log appends one interaction event. It is best-effort: the event gets its
// ID and timestamp before the write is attempted, and a failed write is
// logged and swallowed so the interaction being recorded is never aborted.
func (lg *Log) Log(params model.EventParams) model.InteractionEvent {
	event := model.InteractionEvent{
		EventID:         uuid.NewString(),
		Timestamp:       time.Now().UTC().Format(time.RFC3339),
		UserID:          params.UserID,
		ActionType:      params.ActionType,
		InputArtifacts:  emptyIfNil(params.InputArtifacts),
		OutputArtifacts: emptyIfNil(params.OutputArtifacts),
		DeltaSummary:    params.DeltaSummary,
		Branding:        model.Branding,
	}
	if event.DeltaSummary == nil {
		event.DeltaSummary = map[string]any{}
	}

	if err := lg.append(event, false); err != nil {
		lg.logger.Error("failed to append interaction event",
			"event_id", event.EventID,
			"action_type", event.ActionType,
			"error", err.Error())
	}

	return event
}

// RecordMasquerade writes the impersonation audit record and returns only
// once it is durable. Callers must not issue a masquerade grant unless this
// returns nil.
func (lg *Log) RecordMasquerade(ctx context.Context, audit model.MasqueradeAudit) error {
	event := model.InteractionEvent{
		EventID:         uuid.NewString(),
		Timestamp:       time.Now().UTC().Format(time.RFC3339),
		UserID:          &audit.AdminUser,
		ActionType:      "masquerade_access",
		InputArtifacts:  []string{},
		OutputArtifacts: []string{},
		DeltaSummary: map[string]any{
			"admin_user":  audit.AdminUser,
			"target_user": audit.TargetUser,
		},
		Branding: model.Branding,
	}

	if err := lg.append(event, true); err != nil {
		return fmt.Errorf("failed to record masquerade audit: %w", err)
	}

	lg.logger.Info("masquerade audit recorded",
		"admin_user", audit.AdminUser,
		"target_user", audit.TargetUser,
		"event_id", event.EventID)

	return nil
}

func (lg *Log) append(event model.InteractionEvent, sync bool) error {
	lg.mu.Lock()
	defer lg.mu.Unlock()

	line, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	line = append(line, '\n')

	if err := os.MkdirAll(filepath.Dir(lg.path), 0o755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	f, err := os.OpenFile(lg.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer f.Close()

	// One write call per already-serialized line keeps concurrent
	// appenders from interleaving partial records.
	if _, err := f.Write(line); err != nil {
		return fmt.Errorf("failed to write event: %w", err)
	}
	if sync {
		if err := f.Sync(); err != nil {
			return fmt.Errorf("failed to sync log file: %w", err)
		}
	}

	return nil
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
