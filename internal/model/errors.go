package model

import (
	"errors"
	"fmt"
)

var (
	// ErrCategoryNotFound is returned for lookups of unknown data categories.
	ErrCategoryNotFound = errors.New("data category not found")
	// ErrNoSourcesSucceeded marks a backup run where every source failed.
	ErrNoSourcesSucceeded = errors.New("no backup sources succeeded")
	// ErrPartialBackup marks a run that produced an archive but lost at
	// least one source. The archive is kept; the run is still a failure.
	ErrPartialBackup = errors.New("backup completed with failed sources")
)

// PolicyViolationError is raised when a privileged operation is attempted
// without satisfying the security policy. It is always fatal to the calling
// operation and never retried.
type PolicyViolationError struct {
	Role   string
	Reason string
}

func (e *PolicyViolationError) Error() string {
	return fmt.Sprintf("security policy violation for role %q: %s", e.Role, e.Reason)
}

// IsPolicyViolation reports whether err is a policy violation.
func IsPolicyViolation(err error) bool {
	var pv *PolicyViolationError
	return errors.As(err, &pv)
}
