package health

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
)

// --- Mocks ---

type mockDBPinger struct {
	err error
}

func (m *mockDBPinger) Ping(_ context.Context) error { return m.err }

type mockEmbeddingChecker struct {
	err error
}

func (m *mockEmbeddingChecker) HealthCheck(_ context.Context) error { return m.err }

// --- Tests ---

func TestCheck(t *testing.T) {
	down := errors.New("down")

	tests := []struct {
		name      string
		db        DBPinger
		embedding EmbeddingChecker
		status    Status
		checks    map[string]CheckResult
	}{
		{
			name:      "all healthy",
			db:        &mockDBPinger{},
			embedding: &mockEmbeddingChecker{},
			status:    Healthy,
			checks:    map[string]CheckResult{"database": CheckOK, "embedding": CheckOK},
		},
		{
			name:      "database down",
			db:        &mockDBPinger{err: down},
			embedding: &mockEmbeddingChecker{},
			status:    Degraded,
			checks:    map[string]CheckResult{"database": CheckError, "embedding": CheckOK},
		},
		{
			name:      "embedding down",
			db:        &mockDBPinger{},
			embedding: &mockEmbeddingChecker{err: down},
			status:    Degraded,
			checks:    map[string]CheckResult{"database": CheckOK, "embedding": CheckError},
		},
		{
			name:      "both down",
			db:        &mockDBPinger{err: down},
			embedding: &mockEmbeddingChecker{err: down},
			status:    Unhealthy,
			checks:    map[string]CheckResult{"database": CheckError, "embedding": CheckError},
		},
		{
			name:      "memory index without database",
			embedding: &mockEmbeddingChecker{},
			status:    Healthy,
			checks:    map[string]CheckResult{"embedding": CheckOK},
		},
		{
			name:      "memory index, embedding down",
			embedding: &mockEmbeddingChecker{err: down},
			status:    Unhealthy,
			checks:    map[string]CheckResult{"embedding": CheckError},
		},
		{
			name:   "nothing to check",
			status: Healthy,
			checks: map[string]CheckResult{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New(tt.db, tt.embedding, zap.NewNop()).Check(context.Background())
			if r.Status != tt.status {
				t.Errorf("status: expected %q, got %q", tt.status, r.Status)
			}
			if len(r.Checks) != len(tt.checks) {
				t.Fatalf("checks: expected %v, got %v", tt.checks, r.Checks)
			}
			for k, v := range tt.checks {
				if r.Checks[k] != v {
					t.Errorf("%s: expected %q, got %q", k, v, r.Checks[k])
				}
			}
		})
	}
}
