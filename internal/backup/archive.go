package backup

import (
	"archive/tar"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/gzip"
)

// createArchive compresses the staging tree into a tar.gz at archivePath.
// The archive is written to a temporary file first and renamed into place,
// so a partially written archive never carries the final name.
func createArchive(stagingDir, archivePath string) error {
	tmp := archivePath + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create archive file: %w", err)
	}

	gz := gzip.NewWriter(f)
	tw := tar.NewWriter(gz)

	walkErr := filepath.WalkDir(stagingDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(stagingDir, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		header, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return err
		}
		header.Name = filepath.ToSlash(rel)

		if err := tw.WriteHeader(header); err != nil {
			return err
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}

		src, err := os.Open(path)
		if err != nil {
			return err
		}
		defer src.Close()
		_, err = io.Copy(tw, src)
		return err
	})

	if err := closeAll(walkErr, tw, gz, f); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to write archive: %w", err)
	}

	if err := os.Rename(tmp, archivePath); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to finalize archive: %w", err)
	}
	return nil
}

func closeAll(walkErr error, closers ...io.Closer) error {
	err := walkErr
	for _, c := range closers {
		if cerr := c.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}
