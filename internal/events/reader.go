package events

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/careertrojan/ops-core/internal/logger"
	"github.com/careertrojan/ops-core/internal/model"
)

// Reader consumes the interaction log with an explicit byte-offset
// checkpoint persisted next to the log file. Consumption is at-least-once:
// a crash between Next and Commit replays the uncommitted batch, so
// downstream handlers must be idempotent on EventID.
type Reader struct {
	logPath    string
	offsetPath string
	committed  int64
	pending    int64
	logger     *logger.Logger
}

// NewReader opens a reader over the given log, restoring the last
// committed offset. A missing or unreadable checkpoint starts from zero.
func NewReader(logPath string, l *logger.Logger) *Reader {
	r := &Reader{
		logPath:    logPath,
		offsetPath: logPath + ".offset",
		logger:     l,
	}
	r.committed = r.loadOffset()
	r.pending = r.committed
	return r
}

// Offset returns the last committed byte offset.
func (r *Reader) Offset() int64 {
	return r.committed
}

// Next reads up to max complete events past the pending offset. A missing
// log file yields an empty batch. Malformed lines are skipped with a
// warning and do not block later events.
func (r *Reader) Next(max int) ([]model.InteractionEvent, error) {
	f, err := os.Open(r.logPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open interaction log: %w", err)
	}
	defer f.Close()

	if _, err := f.Seek(r.pending, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to seek interaction log: %w", err)
	}

	var batch []model.InteractionEvent
	reader := bufio.NewReader(f)
	for len(batch) < max {
		line, err := reader.ReadString('\n')
		if err != nil {
			// A partial trailing line belongs to an in-flight append;
			// leave the offset before it and pick it up next cycle.
			if errors.Is(err, io.EOF) {
				break
			}
			return batch, fmt.Errorf("failed to read interaction log: %w", err)
		}

		r.pending += int64(len(line))

		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		var event model.InteractionEvent
		if err := json.Unmarshal([]byte(trimmed), &event); err != nil {
			r.logger.Warn("skipping malformed interaction log line",
				"offset", r.pending-int64(len(line)),
				"error", err.Error())
			continue
		}
		batch = append(batch, event)
	}

	return batch, nil
}

// Commit persists the pending offset. Until Commit succeeds, a restarted
// reader re-delivers everything since the previous checkpoint.
func (r *Reader) Commit() error {
	tmp := r.offsetPath + ".tmp"
	data := []byte(strconv.FormatInt(r.pending, 10))
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write offset checkpoint: %w", err)
	}
	if err := os.Rename(tmp, r.offsetPath); err != nil {
		return fmt.Errorf("failed to replace offset checkpoint: %w", err)
	}
	r.committed = r.pending
	return nil
}

func (r *Reader) loadOffset() int64 {
	data, err := os.ReadFile(r.offsetPath)
	if err != nil {
		return 0
	}
	offset, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
	if err != nil || offset < 0 {
		r.logger.Warn("ignoring corrupt offset checkpoint", "path", r.offsetPath)
		return 0
	}
	return offset
}
