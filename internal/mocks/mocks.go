// Package mocks provides testify mocks for model interfaces.
package mocks

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"github.com/careertrojan/ops-core/internal/model"
)

// TokenVerifier mocks model.TokenVerifier.
type TokenVerifier struct {
	mock.Mock
}

func (m *TokenVerifier) Verify(ctx context.Context, token string) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

// AuditRecorder mocks model.AuditRecorder.
type AuditRecorder struct {
	mock.Mock
}

func (m *AuditRecorder) RecordMasquerade(ctx context.Context, audit model.MasqueradeAudit) error {
	args := m.Called(ctx, audit)
	return args.Error(0)
}

// ArchiveStore mocks model.ArchiveStore.
type ArchiveStore struct {
	mock.Mock
}

func (m *ArchiveStore) Upload(ctx context.Context, key string, reader io.Reader, size int64) error {
	args := m.Called(ctx, key, reader, size)
	return args.Error(0)
}

func (m *ArchiveStore) Exists(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func (m *ArchiveStore) Remove(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}
