package backup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/careertrojan/ops-core/internal/logger"
	"github.com/careertrojan/ops-core/internal/model"
)

// Orchestrator produces timestamped snapshots of every stateful subsystem
// and prunes expired archives. Pruning is strictly sequenced after archive
// creation: a failed run never removes the last known-good backup.
type Orchestrator struct {
	backupDir     string
	retentionDays int
	sources       []Source
	offsite       model.ArchiveStore
	logger        *logger.Logger
	now           func() time.Time
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithOffsite enables archive replication to remote storage after a
// successful run. Replication failures are logged, never fatal.
func WithOffsite(store model.ArchiveStore) Option {
	return func(o *Orchestrator) { o.offsite = store }
}

// WithClock overrides the time source. Used by retention tests.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// NewOrchestrator creates an orchestrator writing archives into backupDir.
func NewOrchestrator(backupDir string, retentionDays int, sources []Source, l *logger.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		backupDir:     backupDir,
		retentionDays: retentionDays,
		sources:       sources,
		logger:        l,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run performs one backup: stage every source, compress, write the
// manifest, prune expired archives. The returned error is
// ErrNoSourcesSucceeded when nothing could be exported (no archive, no
// pruning), ErrPartialBackup when the archive exists but at least one
// source failed, and nil on full success. The manifest is returned in all
// cases where staging ran.
func (o *Orchestrator) Run(ctx context.Context) (*model.BackupManifest, error) {
	start := o.now().UTC()
	label := start.Format(model.BackupTimestampLayout)
	cutoff := start.AddDate(0, 0, -o.retentionDays)

	manifest := &model.BackupManifest{
		Timestamp:       start.Format(time.RFC3339),
		ArchivePath:     filepath.Join(o.backupDir, model.ArchiveName(label)),
		RetentionCutoff: cutoff.Format(time.RFC3339),
	}

	stagingDir := filepath.Join(o.backupDir, "staging_"+label)
	if err := os.MkdirAll(stagingDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create staging directory: %w", err)
	}
	defer os.RemoveAll(stagingDir)

	for _, source := range o.sources {
		manifest.Sources = append(manifest.Sources, o.exportSource(ctx, source, stagingDir))
	}

	if manifest.Succeeded() == 0 {
		o.logger.Error("backup run failed, no sources succeeded", "label", label)
		return manifest, model.ErrNoSourcesSucceeded
	}
	manifest.Partial = manifest.Failed() > 0

	// The manifest travels inside the archive and next to it, so a
	// restored archive is self-describing.
	if err := o.writeManifest(manifest, filepath.Join(stagingDir, "manifest.json")); err != nil {
		return manifest, err
	}
	if err := createArchive(stagingDir, manifest.ArchivePath); err != nil {
		return manifest, fmt.Errorf("failed to create archive: %w", err)
	}
	if err := o.writeManifest(manifest, manifestPath(manifest.ArchivePath)); err != nil {
		return manifest, err
	}

	o.logger.Info("backup archive created",
		"archive", manifest.ArchivePath,
		"sources_ok", manifest.Succeeded(),
		"sources_failed", manifest.Failed())

	o.replicate(ctx, manifest)

	if err := o.prune(ctx, cutoff); err != nil {
		o.logger.Error("retention pruning failed", "error", err.Error())
	}

	if manifest.Partial {
		return manifest, model.ErrPartialBackup
	}
	return manifest, nil
}

func (o *Orchestrator) exportSource(ctx context.Context, source Source, stagingDir string) model.SourceResult {
	result := model.SourceResult{
		Category: source.Name(),
		Path:     source.Name(),
	}

	destDir := filepath.Join(stagingDir, source.Name())
	if err := source.Export(ctx, destDir); err != nil {
		if errors.Is(err, ErrSourceNotConfigured) {
			o.logger.Info("backup source skipped",
				"source", source.Name(),
				"reason", err.Error())
			result.Status = model.SourceSkipped
			result.Error = err.Error()
			return result
		}
		o.logger.Error("backup source failed",
			"source", source.Name(),
			"error", err.Error())
		// Drop whatever the failed export left behind so the archive
		// holds complete sources only.
		os.RemoveAll(destDir)
		result.Status = model.SourceFailed
		result.Error = err.Error()
		return result
	}

	size, checksum, err := treeStats(destDir)
	if err != nil {
		result.Status = model.SourceFailed
		result.Error = fmt.Sprintf("failed to measure export: %v", err)
		return result
	}

	result.Status = model.SourceOK
	result.Size = size
	result.Checksum = checksum
	return result
}

func (o *Orchestrator) writeManifest(manifest *model.BackupManifest, path string) error {
	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}

func (o *Orchestrator) replicate(ctx context.Context, manifest *model.BackupManifest) {
	if o.offsite == nil {
		return
	}

	for _, path := range []string{manifest.ArchivePath, manifestPath(manifest.ArchivePath)} {
		if err := o.uploadFile(ctx, path); err != nil {
			o.logger.Error("offsite replication failed",
				"path", path,
				"error", err.Error())
			return
		}
	}
	o.logger.Info("archive replicated offsite", "archive", manifest.ArchivePath)
}

func (o *Orchestrator) uploadFile(ctx context.Context, path string) error {
	key := filepath.Base(path)

	// A retried run may have replicated some of its objects already;
	// skip those instead of re-sending them.
	if exists, err := o.offsite.Exists(ctx, key); err == nil && exists {
		return nil
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}
	return o.offsite.Upload(ctx, key, f, info.Size())
}

// prune removes archives strictly older than cutoff, together with their
// side-by-side manifests and, when offsite replication is enabled, their
// replicated copies. Age comes from the filename label, falling back to
// file mtime for archives that predate the naming scheme.
func (o *Orchestrator) prune(ctx context.Context, cutoff time.Time) error {
	entries, err := os.ReadDir(o.backupDir)
	if err != nil {
		return fmt.Errorf("failed to scan backup directory: %w", err)
	}

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".tar.gz") || !strings.HasPrefix(name, "backup_") {
			continue
		}

		ts, ok := model.ParseArchiveLabel(name)
		if !ok {
			info, err := entry.Info()
			if err != nil {
				continue
			}
			ts = info.ModTime().UTC()
		}
		if !ts.Before(cutoff) {
			continue
		}

		archive := filepath.Join(o.backupDir, name)
		if err := os.Remove(archive); err != nil {
			o.logger.Error("failed to remove expired archive", "archive", archive, "error", err.Error())
			continue
		}
		os.Remove(manifestPath(archive))
		if o.offsite != nil {
			for _, key := range []string{name, filepath.Base(manifestPath(archive))} {
				if err := o.offsite.Remove(ctx, key); err != nil {
					o.logger.Error("failed to remove expired offsite copy",
						"key", key,
						"error", err.Error())
				}
			}
		}
		o.logger.Info("expired archive removed", "archive", archive, "age_cutoff", cutoff.Format(time.RFC3339))
	}
	return nil
}

func manifestPath(archivePath string) string {
	return strings.TrimSuffix(archivePath, ".tar.gz") + ".manifest.json"
}
