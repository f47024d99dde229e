package security

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/careertrojan/ops-core/internal/logger"
	"github.com/careertrojan/ops-core/internal/model"
)

// Policy carries the security flags for one Gate instance. Flags are plain
// fields, not process-wide state, so tests toggle policy per gate.
type Policy struct {
	RequireAdmin2FA     bool
	EnforceReadonlyLogs bool
}

// Gate enforces two-factor authentication on admin access and protects
// closed log files from tampering. Every privileged call re-verifies the
// second factor; a passed check is never cached.
type Gate struct {
	policy   Policy
	verifier model.TokenVerifier
	audit    model.AuditRecorder
	logger   *logger.Logger
}

// NewGate constructs a gate with the given policy, verifier and audit sink.
func NewGate(policy Policy, verifier model.TokenVerifier, audit model.AuditRecorder, l *logger.Logger) *Gate {
	return &Gate{policy: policy, verifier: verifier, audit: audit, logger: l}
}

// VerifyAdminAccess checks the second factor for admin roles. Non-admin
// roles pass unconditionally: the gate constrains elevated privilege only.
// A missing or invalid token yields a PolicyViolationError, which is fatal
// to the calling operation.
func (g *Gate) VerifyAdminAccess(ctx context.Context, role, token string) (bool, error) {
	if role != "admin" {
		return true, nil
	}
	if !g.policy.RequireAdmin2FA {
		return true, nil
	}

	if token == "" {
		return false, &model.PolicyViolationError{Role: role, Reason: "two-factor token missing"}
	}
	if err := g.verifier.Verify(ctx, token); err != nil {
		return false, &model.PolicyViolationError{Role: role, Reason: fmt.Sprintf("two-factor verification failed: %v", err)}
	}

	return true, nil
}

// EnforceLogImmutability sets the file at path read-only for all
// principals. A missing file is reported and skipped; a chmod failure is
// logged as critical but never aborts the caller. Calling this on an
// already read-only file is a no-op.
func (g *Gate) EnforceLogImmutability(path string) {
	if !g.policy.EnforceReadonlyLogs {
		return
	}

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			g.logger.Info("log file absent, skipping immutability enforcement", "path", path)
			return
		}
		g.logger.Error("failed to stat log file for immutability enforcement",
			"path", path,
			"error", err.Error())
		return
	}

	if info.Mode().Perm() == 0o444 {
		return
	}

	if err := os.Chmod(path, 0o444); err != nil {
		g.logger.Error("CRITICAL: failed to set log file read-only",
			"path", path,
			"error", err.Error())
		return
	}

	g.logger.Info("log file locked read-only", "path", path)
}

// AuthorizeMasquerade records that adminUser is impersonating targetUser.
// The audit record must be durable before any masquerade token is issued,
// so this returns an error, and no grant may follow, when the write fails.
func (g *Gate) AuthorizeMasquerade(ctx context.Context, adminUser, targetUser string) error {
	err := g.audit.RecordMasquerade(ctx, model.MasqueradeAudit{
		AdminUser:  adminUser,
		TargetUser: targetUser,
	})
	if err != nil {
		return fmt.Errorf("masquerade denied, audit trail unavailable: %w", err)
	}
	return nil
}
