package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/careertrojan/ops-core/internal/model"
)

// NewAnonymizingHandler returns a handler that forwards events into an AI
// training target directory with the user identity stripped. The output is
// JSON Lines, one anonymized event per line, appended in delivery order.
// Because the feed is at-least-once, downstream training ingestion
// deduplicates on event_id.
func NewAnonymizingHandler(aiDataDir, target string) model.EventHandler {
	outPath := filepath.Join(aiDataDir, target, "interaction_events.jsonl")

	return func(_ context.Context, event model.InteractionEvent) error {
		anonymized := event
		anonymized.UserID = nil

		line, err := json.Marshal(anonymized)
		if err != nil {
			return fmt.Errorf("failed to marshal anonymized event: %w", err)
		}
		line = append(line, '\n')

		if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
			return fmt.Errorf("failed to create AI target directory: %w", err)
		}

		f, err := os.OpenFile(outPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("failed to open AI feed file: %w", err)
		}
		defer f.Close()

		if _, err := f.Write(line); err != nil {
			return fmt.Errorf("failed to append anonymized event: %w", err)
		}
		return nil
	}
}
