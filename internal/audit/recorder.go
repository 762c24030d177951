// Package audit persists per-request audit entries for analytics and
// tenant accountability.
package audit

import (
	"context"

	"github.com/jonesrussell/storerank/internal/domain"
)

// Recorder persists audit entries. Implementations must be safe for
// concurrent use; callers treat persistence as best-effort.
type Recorder interface {
	Record(ctx context.Context, record domain.AuditRecord) error
}

// NopRecorder discards all records. Used when no audit sink is
// configured.
type NopRecorder struct{}

// NewNopRecorder creates a NopRecorder.
func NewNopRecorder() *NopRecorder {
	return &NopRecorder{}
}

// Record discards the record.
func (n *NopRecorder) Record(_ context.Context, _ domain.AuditRecord) error {
	return nil
}
