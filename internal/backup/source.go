package backup

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

// ErrSourceNotConfigured marks a source with nothing to export in this
// deployment. The orchestrator records it in the manifest as skipped
// rather than failed.
var ErrSourceNotConfigured = errors.New("source not configured")

// Source exports one stateful subsystem into a staging directory. Each
// source fails independently; the orchestrator records the failure and
// carries on with the rest.
type Source interface {
	Name() string
	Export(ctx context.Context, destDir string) error
}

// DirSource snapshots a directory tree (AI training data, uploads, trained
// models, interaction logs).
type DirSource struct {
	name string
	root string
}

// NewDirSource creates a directory source with the given manifest category.
func NewDirSource(name, root string) *DirSource {
	return &DirSource{name: name, root: root}
}

func (s *DirSource) Name() string {
	return s.name
}

// Export copies the tree under root into destDir, preserving structure.
func (s *DirSource) Export(ctx context.Context, destDir string) error {
	info, err := os.Stat(s.root)
	if err != nil {
		return fmt.Errorf("source directory unavailable: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("source path %s is not a directory", s.root)
	}

	return filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}
		target := filepath.Join(destDir, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		if !d.Type().IsRegular() {
			return nil
		}
		return copyFile(path, target)
	})
}

// SkippedSource is a placeholder for a subsystem that is not configured
// in this deployment. It keeps the subsystem visible in the manifest
// instead of silently absent.
type SkippedSource struct {
	name   string
	reason string
}

// NewSkippedSource creates a placeholder source with the given manifest
// category and skip reason.
func NewSkippedSource(name, reason string) *SkippedSource {
	return &SkippedSource{name: name, reason: reason}
}

func (s *SkippedSource) Name() string {
	return s.name
}

func (s *SkippedSource) Export(context.Context, string) error {
	return fmt.Errorf("%w: %s", ErrSourceNotConfigured, s.reason)
}

// SQLiteSource snapshots a SQLite database by file copy.
type SQLiteSource struct {
	path string
}

// NewSQLiteSource creates a source copying the database file at path.
func NewSQLiteSource(path string) *SQLiteSource {
	return &SQLiteSource{path: path}
}

func (s *SQLiteSource) Name() string {
	return "database"
}

// Export copies the database file into destDir.
func (s *SQLiteSource) Export(ctx context.Context, destDir string) error {
	if _, err := os.Stat(s.path); err != nil {
		return fmt.Errorf("sqlite database unavailable: %w", err)
	}
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return err
	}
	return copyFile(s.path, filepath.Join(destDir, filepath.Base(s.path)))
}

func copyFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// treeStats walks an exported tree and returns its total byte size and a
// content checksum: sha256 over each file's relative path and digest, in
// sorted path order, so the value is stable across walk ordering.
func treeStats(root string) (int64, string, error) {
	type fileDigest struct {
		rel string
		sum string
	}
	var files []fileDigest
	var total int64

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		sum, size, err := fileChecksum(path)
		if err != nil {
			return err
		}
		total += size
		files = append(files, fileDigest{rel: filepath.ToSlash(rel), sum: sum})
		return nil
	})
	if err != nil {
		return 0, "", err
	}

	sort.Slice(files, func(i, j int) bool { return files[i].rel < files[j].rel })
	h := sha256.New()
	for _, f := range files {
		fmt.Fprintf(h, "%s:%s\n", f.rel, f.sum)
	}
	return total, hex.EncodeToString(h.Sum(nil)), nil
}

func fileChecksum(path string) (string, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, err
	}
	defer f.Close()

	h := sha256.New()
	size, err := io.Copy(h, f)
	if err != nil {
		return "", 0, err
	}
	return hex.EncodeToString(h.Sum(nil)), size, nil
}
