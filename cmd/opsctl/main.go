package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"
	"text/tabwriter"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/careertrojan/ops-core/internal/backup"
	"github.com/careertrojan/ops-core/internal/config"
	"github.com/careertrojan/ops-core/internal/events"
	"github.com/careertrojan/ops-core/internal/logger"
	"github.com/careertrojan/ops-core/internal/model"
	"github.com/careertrojan/ops-core/internal/policy"
	"github.com/careertrojan/ops-core/internal/registry"
	"github.com/careertrojan/ops-core/internal/security"
	storage "github.com/careertrojan/ops-core/internal/storage/minio"
	"github.com/careertrojan/ops-core/internal/worker"
)

var (
	buildVersion = "N/A" // set by ldflags
	buildDate    = "N/A" // set by ldflags
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	err := newRootCommand().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "opsctl: %v\n", err)
		os.Exit(exitCode(err))
	}
}

// exitError carries a process exit code through cobra's error unwind, so
// deferred cleanup runs before the process terminates.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func exitCode(err error) int {
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return 1
}

// app bundles the pieces every command needs.
type app struct {
	cfg    *config.Config
	logger *logger.Logger
	events *events.Log
}

func newApp() (*app, error) {
	cfg, err := config.NewConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	l := logger.NewWithWriter(cfg.LogLevel, os.Stderr)
	return &app{
		cfg:    cfg,
		logger: l,
		events: events.NewLog(cfg.Events.LogDir, cfg.Events.LogFile, l),
	}, nil
}

// requireDataRoot fails hard on a missing data mount. Feature flags degrade
// gracefully elsewhere; core data availability does not.
func (a *app) requireDataRoot() error {
	if _, err := os.Stat(a.cfg.DataRoot); err != nil {
		return fmt.Errorf("data root %s unavailable: %w", a.cfg.DataRoot, err)
	}
	return nil
}

func (a *app) gate() *security.Gate {
	var verifier model.TokenVerifier
	switch a.cfg.Security.TokenMode {
	case "jwt":
		verifier = security.NewJWTVerifier(a.cfg.Security.JWTSecret)
	default:
		verifier = security.NewStaticVerifier(a.cfg.Security.TwoFactorSecret)
	}
	return security.NewGate(security.Policy{
		RequireAdmin2FA:     a.cfg.Security.RequireAdmin2FA,
		EnforceReadonlyLogs: a.cfg.Security.EnforceReadonlyLogs,
	}, verifier, a.events, a.logger)
}

func (a *app) orchestrator(ctx context.Context) (*backup.Orchestrator, error) {
	var sources []backup.Source
	switch {
	case a.cfg.Backup.DatabaseURL != "":
		sources = append(sources, backup.NewPostgresSource(a.cfg.Backup.DatabaseURL, a.cfg.Backup.DatabasePassword, a.logger))
	case a.cfg.Backup.SQLitePath != "":
		sources = append(sources, backup.NewSQLiteSource(a.cfg.Backup.SQLitePath))
	default:
		sources = append(sources, backup.NewSkippedSource("database", "no database configured"))
	}
	sources = append(sources,
		backup.NewDirSource("ai_training_data", a.cfg.Backup.AIDataDir),
		backup.NewDirSource("user_uploads", a.cfg.Backup.UploadsDir),
		backup.NewDirSource("trained_models", a.cfg.Backup.ModelsDir),
		backup.NewDirSource("interaction_logs", a.cfg.Events.LogDir),
	)

	opts := []backup.Option{}
	if a.cfg.Offsite.Enabled {
		client, err := minio.New(a.cfg.Offsite.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(a.cfg.Offsite.AccessKey, a.cfg.Offsite.SecretKey, ""),
			Secure: a.cfg.Offsite.UseSSL,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create minio client: %w", err)
		}
		store, err := storage.NewArchiveStore(ctx, client, a.cfg.Offsite.Bucket)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize archive store: %w", err)
		}
		opts = append(opts, backup.WithOffsite(store))
	}

	return backup.NewOrchestrator(a.cfg.Backup.Dir, a.cfg.Backup.RetentionDays, sources, a.logger, opts...), nil
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "opsctl",
		Short: "CareerTrojan operational tooling",
		Long: `opsctl runs the operational core of the CareerTrojan platform: timestamped
multi-source backups with retention pruning, data-capture policy inspection,
interaction log maintenance, and the enrichment feed.`,
		SilenceUsage: true,
		Version:      fmt.Sprintf("%s (built %s)", buildVersion, buildDate),
	}
	cmd.AddCommand(
		newBackupCmd(),
		newCategoriesCmd(),
		newCapabilitiesCmd(),
		newLockLogsCmd(),
		newEnrichCmd(),
		newMasqueradeCmd(),
	)
	return cmd
}

func newBackupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Backup operations",
	}
	cmd.AddCommand(newBackupRunCmd(), newBackupScheduleCmd())
	return cmd
}

func newBackupRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run one backup now",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			if err := a.requireDataRoot(); err != nil {
				return err
			}
			o, err := a.orchestrator(cmd.Context())
			if err != nil {
				return err
			}
			return runBackup(cmd.Context(), a, o)
		},
	}
}

func runBackup(ctx context.Context, a *app, o *backup.Orchestrator) error {
	manifest, err := o.Run(ctx)
	switch {
	case err == nil:
		a.logger.Info("backup complete", "archive", manifest.ArchivePath)
		return nil
	case errors.Is(err, model.ErrPartialBackup):
		a.logger.Error("backup partial, some sources failed",
			"archive", manifest.ArchivePath,
			"failed", manifest.Failed())
		return &exitError{code: 1, err: err}
	default:
		a.logger.Error("backup failed", "error", err.Error())
		return &exitError{code: 2, err: err}
	}
}

func newBackupScheduleCmd() *cobra.Command {
	var cronExpr string
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run backups on a cron schedule until interrupted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			if err := a.requireDataRoot(); err != nil {
				return err
			}
			o, err := a.orchestrator(cmd.Context())
			if err != nil {
				return err
			}

			c := cron.New()
			_, err = c.AddFunc(cronExpr, func() {
				manifest, err := o.Run(cmd.Context())
				if err != nil {
					a.logger.Error("scheduled backup failed", "error", err.Error())
					return
				}
				a.logger.Info("scheduled backup complete", "archive", manifest.ArchivePath)
			})
			if err != nil {
				return fmt.Errorf("invalid cron expression %q: %w", cronExpr, err)
			}

			a.logger.Info("backup scheduler started", "cron", cronExpr)
			c.Start()
			<-cmd.Context().Done()
			<-c.Stop().Done()
			a.logger.Info("backup scheduler stopped")
			return nil
		},
	}
	cmd.Flags().StringVar(&cronExpr, "cron", "0 3 * * *", "Cron expression for backup runs")
	return cmd
}

func newCategoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "Print the data capture catalogue",
		RunE: func(cmd *cobra.Command, _ []string) error {
			catalogue := policy.NewDefaultRegistry()
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tLEGAL BASIS\tRETENTION\tFEEDS AI\tSTORAGE")
			for _, c := range catalogue.List() {
				retention := fmt.Sprintf("%dd", c.RetentionDays)
				if c.RetentionDays == 0 {
					retention = "until deletion"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%s\n", c.Name, c.LegalBasis, retention, c.FeedsAI, c.Storage)
			}
			return w.Flush()
		},
	}
}

func newCapabilitiesCmd() *cobra.Command {
	var feature string
	cmd := &cobra.Command{
		Use:   "capabilities <portal>",
		Short: "Inspect portal capabilities from the registry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			caps, err := registry.Load(a.cfg.Registry.Path, a.logger)
			if err != nil {
				return err
			}

			portal := args[0]
			out := cmd.OutOrStdout()
			if feature != "" {
				fmt.Fprintf(out, "%s.%s: %t\n", portal, feature, caps.IsFeatureEnabled(portal, feature))
				return nil
			}

			fmt.Fprintf(out, "enabled: %t\n", caps.Check("capabilities.portals."+portal))
			theme := caps.PortalTheme(portal)
			keys := make([]string, 0, len(theme))
			for k := range theme {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Fprintf(out, "theme.%s: %v\n", k, theme[k])
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&feature, "feature", "", "Check one feature instead of printing the portal summary")
	return cmd
}

func newLockLogsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lock-logs",
		Short: "Set closed interaction logs read-only",
		RunE: func(_ *cobra.Command, _ []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			if err := a.requireDataRoot(); err != nil {
				return err
			}
			gate := a.gate()

			entries, err := os.ReadDir(a.cfg.Events.LogDir)
			if err != nil {
				return fmt.Errorf("failed to scan log directory: %w", err)
			}
			for _, entry := range entries {
				// The active log and the dead-letter file stay writable;
				// everything else is closed.
				if entry.IsDir() || entry.Name() == a.cfg.Events.LogFile || entry.Name() == worker.DeadLetterFile {
					continue
				}
				gate.EnforceLogImmutability(filepath.Join(a.cfg.Events.LogDir, entry.Name()))
			}
			return nil
		},
	}
}

func newEnrichCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "enrich",
		Short: "Run one enrichment feed pass over the interaction log",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			if err := a.requireDataRoot(); err != nil {
				return err
			}

			catalogue := policy.NewDefaultRegistry()
			category, err := catalogue.Get("interaction_events")
			if err != nil {
				return err
			}

			reader := events.NewReader(a.events.Path(), a.logger)
			feed := worker.NewEnrichmentFeed(reader, a.logger)
			feed.HandleDefault(worker.NewAnonymizingHandler(a.cfg.Backup.AIDataDir, category.AITarget))
			feed.RouteFailures(filepath.Join(a.cfg.Events.LogDir, worker.DeadLetterFile))

			n, err := feed.RunOnce(cmd.Context())
			if err != nil {
				return err
			}
			a.logger.Info("enrichment pass complete", "events_dispatched", n, "offset", reader.Offset())
			return nil
		},
	}
}

func newMasqueradeCmd() *cobra.Command {
	var adminUser, targetUser, token string
	cmd := &cobra.Command{
		Use:   "masquerade",
		Short: "Authorize an admin masquerade session",
		Long: `Verifies the admin's second factor and writes the impersonation audit
record. The audit write must succeed before any masquerade grant is issued.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			gate := a.gate()

			if _, err := gate.VerifyAdminAccess(cmd.Context(), "admin", token); err != nil {
				return err
			}
			if err := gate.AuthorizeMasquerade(cmd.Context(), adminUser, targetUser); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "masquerade authorized: %s -> %s\n", adminUser, targetUser)
			return nil
		},
	}
	cmd.Flags().StringVar(&adminUser, "admin", "", "Admin user performing the masquerade")
	cmd.Flags().StringVar(&targetUser, "target", "", "User being impersonated")
	cmd.Flags().StringVar(&token, "token", "", "Second-factor token")
	cmd.MarkFlagRequired("admin")
	cmd.MarkFlagRequired("target")
	return cmd
}
