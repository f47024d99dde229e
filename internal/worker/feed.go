package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/careertrojan/ops-core/internal/events"
	"github.com/careertrojan/ops-core/internal/logger"
	"github.com/careertrojan/ops-core/internal/model"
)

// defaultBatchSize bounds how many events one feed pass drains per read.
const defaultBatchSize = 200

// DeadLetterFile is the default basename for the dead-letter log.
const DeadLetterFile = "interactions.deadletter.jsonl"

// EnrichmentFeed drains interaction events from the log reader and
// dispatches them to registered handlers by action type. The checkpoint is
// committed after each processed batch, giving at-least-once delivery;
// handlers are expected to be idempotent on EventID.
type EnrichmentFeed struct {
	reader         *events.Reader
	handlers       map[string]model.EventHandler
	defaultHandler model.EventHandler
	deadLetterPath string
	batchSize      int
	logger         *logger.Logger
}

// NewEnrichmentFeed creates a feed over the given reader.
func NewEnrichmentFeed(reader *events.Reader, l *logger.Logger) *EnrichmentFeed {
	return &EnrichmentFeed{
		reader:    reader,
		handlers:  map[string]model.EventHandler{},
		batchSize: defaultBatchSize,
		logger:    l,
	}
}

// Handle registers a handler for one action type. Events with no
// registered handler fall through to the default handler, or are skipped
// and still checkpointed past when no default is set.
func (f *EnrichmentFeed) Handle(actionType string, handler model.EventHandler) {
	f.handlers[actionType] = handler
}

// HandleDefault registers the fallback handler for unmatched action types.
func (f *EnrichmentFeed) HandleDefault(handler model.EventHandler) {
	f.defaultHandler = handler
}

// RouteFailures appends events whose handler returned an error to the
// JSON Lines file at path. The checkpoint still advances past them, so
// the dead-letter file is what preserves them for replay.
func (f *EnrichmentFeed) RouteFailures(path string) {
	f.deadLetterPath = path
}

// RunOnce drains the log until it is exhausted, committing after each
// batch. It returns the number of events dispatched to handlers.
func (f *EnrichmentFeed) RunOnce(ctx context.Context) (int, error) {
	dispatched := 0
	for {
		if ctx.Err() != nil {
			return dispatched, ctx.Err()
		}

		batch, err := f.reader.Next(f.batchSize)
		if err != nil {
			return dispatched, fmt.Errorf("failed to read event batch: %w", err)
		}
		if len(batch) == 0 {
			return dispatched, nil
		}

		for _, event := range batch {
			handler, ok := f.handlers[event.ActionType]
			if !ok {
				handler = f.defaultHandler
			}
			if handler == nil {
				continue
			}
			if err := handler(ctx, event); err != nil {
				// Handler failures do not block the feed; the event goes
				// to the dead-letter file and the checkpoint advances.
				f.logger.Error("enrichment handler failed",
					"event_id", event.EventID,
					"action_type", event.ActionType,
					"error", err.Error())
				f.deadLetter(event)
				continue
			}
			dispatched++
		}

		if err := f.reader.Commit(); err != nil {
			return dispatched, fmt.Errorf("failed to commit checkpoint: %w", err)
		}
	}
}

func (f *EnrichmentFeed) deadLetter(event model.InteractionEvent) {
	if f.deadLetterPath == "" {
		return
	}

	line, err := json.Marshal(event)
	if err != nil {
		f.logger.Error("failed to marshal dead-letter event",
			"event_id", event.EventID,
			"error", err.Error())
		return
	}
	line = append(line, '\n')

	if err := os.MkdirAll(filepath.Dir(f.deadLetterPath), 0o755); err != nil {
		f.logger.Error("failed to create dead-letter directory", "error", err.Error())
		return
	}
	fh, err := os.OpenFile(f.deadLetterPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		f.logger.Error("failed to open dead-letter file", "error", err.Error())
		return
	}
	defer fh.Close()

	if _, err := fh.Write(line); err != nil {
		f.logger.Error("failed to write dead-letter event",
			"event_id", event.EventID,
			"error", err.Error())
	}
}
