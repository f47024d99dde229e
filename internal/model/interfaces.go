package model

import (
	"context"
	"io"
)

// TokenVerifier validates a second-factor token presented by an admin.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) error
}

// AuditRecorder persists security-relevant events. The write must be
// durable before the method returns.
type AuditRecorder interface {
	RecordMasquerade(ctx context.Context, audit MasqueradeAudit) error
}

// ArchiveStore replicates backup archives to remote storage and removes
// expired copies during retention pruning.
type ArchiveStore interface {
	Upload(ctx context.Context, key string, reader io.Reader, size int64) error
	Exists(ctx context.Context, key string) (bool, error)
	Remove(ctx context.Context, key string) error
}

// EventHandler processes one interaction event from the enrichment feed.
// Handlers must be idempotent on EventID: the feed delivers at least once.
type EventHandler func(ctx context.Context, event InteractionEvent) error
