package backup

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	// Registers the pgx stdlib driver used by the pre-flight probe.
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/careertrojan/ops-core/internal/logger"
)

// PostgresSource exports a PostgreSQL database with pg_dump. Before
// shelling out it probes the server over a short-lived connection so that
// an unreachable database fails fast with a usable error instead of a
// pg_dump exit status.
type PostgresSource struct {
	url      string
	password string
	logger   *logger.Logger

	// Injection points for tests.
	openDB  func(driverName, dsn string) (*sql.DB, error)
	runDump func(ctx context.Context, url, password, outFile string) error
}

// NewPostgresSource creates a Postgres source for the given connection URL.
// The password is passed to pg_dump via PGPASSWORD, never on the command line.
func NewPostgresSource(url, password string, l *logger.Logger) *PostgresSource {
	return &PostgresSource{
		url:      url,
		password: password,
		logger:   l,
		openDB:   sql.Open,
		runDump:  runPGDump,
	}
}

func (s *PostgresSource) Name() string {
	return "database"
}

// Export probes the server, records its version, and writes a custom-format
// dump into destDir.
func (s *PostgresSource) Export(ctx context.Context, destDir string) error {
	version, err := s.probe(ctx)
	if err != nil {
		return fmt.Errorf("database probe failed: %w", err)
	}
	s.logger.Info("database reachable", "server_version", version)

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(destDir, "server_version.txt"), []byte(version+"\n"), 0o644); err != nil {
		return err
	}

	outFile := filepath.Join(destDir, "database.dump")
	if err := s.runDump(ctx, s.url, s.password, outFile); err != nil {
		return fmt.Errorf("pg_dump failed: %w", err)
	}
	return nil
}

func (s *PostgresSource) probe(ctx context.Context) (string, error) {
	db, err := s.openDB("pgx", s.url)
	if err != nil {
		return "", fmt.Errorf("failed to open connection: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return "", fmt.Errorf("failed to ping database: %w", err)
	}

	var version string
	if err := db.QueryRowContext(ctx, "SELECT version()").Scan(&version); err != nil {
		return "", fmt.Errorf("failed to query server version: %w", err)
	}
	return version, nil
}

func runPGDump(ctx context.Context, url, password, outFile string) error {
	cmd := exec.CommandContext(ctx, "pg_dump",
		"--no-password",
		"--format=custom",
		"--file", outFile,
		url,
	)
	cmd.Env = os.Environ()
	if password != "" {
		cmd.Env = append(cmd.Env, "PGPASSWORD="+password)
	}
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%w: %s", err, string(out))
	}
	return nil
}
