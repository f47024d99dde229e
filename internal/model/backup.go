package model

import "time"

// SourceStatus enumerates per-source backup outcomes.
type SourceStatus string

const (
	// SourceOK means the source exported completely.
	SourceOK SourceStatus = "ok"
	// SourceFailed means the source export errored; the error is kept
	// in the manifest entry.
	SourceFailed SourceStatus = "failed"
	// SourceSkipped means the source was not configured for this run.
	SourceSkipped SourceStatus = "skipped"
)

// SourceResult is one manifest entry describing a single exported source.
type SourceResult struct {
	Category string       `json:"category"`
	Path     string       `json:"path"`
	Size     int64        `json:"size"`
	Checksum string       `json:"checksum"`
	Status   SourceStatus `json:"status"`
	Error    string       `json:"error,omitempty"`
}

// BackupManifest describes one backup run. It is written next to the
// archive and is immutable once written.
type BackupManifest struct {
	Timestamp       string         `json:"timestamp"`
	Sources         []SourceResult `json:"sources"`
	ArchivePath     string         `json:"archive_path"`
	RetentionCutoff string         `json:"retention_cutoff"`
	Partial         bool           `json:"partial"`
}

// Succeeded reports how many sources exported cleanly.
func (m *BackupManifest) Succeeded() int {
	n := 0
	for _, s := range m.Sources {
		if s.Status == SourceOK {
			n++
		}
	}
	return n
}

// Failed reports how many sources errored.
func (m *BackupManifest) Failed() int {
	n := 0
	for _, s := range m.Sources {
		if s.Status == SourceFailed {
			n++
		}
	}
	return n
}

// BackupTimestampLayout is the label format embedded in archive names.
const BackupTimestampLayout = "20060102_150405"

// ArchiveName builds the deterministic archive file name for a run label.
func ArchiveName(label string) string {
	return "backup_" + label + ".tar.gz"
}

// ParseArchiveLabel extracts the run time from an archive file name.
// The boolean is false when the name does not follow the backup naming
// scheme, in which case callers fall back to file mtime.
func ParseArchiveLabel(name string) (time.Time, bool) {
	const prefix, suffix = "backup_", ".tar.gz"
	if len(name) <= len(prefix)+len(suffix) {
		return time.Time{}, false
	}
	if name[:len(prefix)] != prefix || name[len(name)-len(suffix):] != suffix {
		return time.Time{}, false
	}
	label := name[len(prefix) : len(name)-len(suffix)]
	ts, err := time.Parse(BackupTimestampLayout, label)
	if err != nil {
		return time.Time{}, false
	}
	return ts.UTC(), true
}
