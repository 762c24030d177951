package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/jonesrussell/storerank/internal/domain"
)

const (
	defaultMaxOpenConns    = 25
	defaultMaxIdleConns    = 5
	defaultConnMaxLifetime = 5 * time.Minute
	defaultPingTimeout     = 5 * time.Second
)

// PostgresRecorder writes audit entries to the audit_log table.
type PostgresRecorder struct {
	db *sqlx.DB

	// now is swappable for tests.
	now func() time.Time
}

// NewPostgresRecorder opens a PostgreSQL connection from dsn, verifies
// it, and returns a recorder backed by it.
func NewPostgresRecorder(dsn string) (*PostgresRecorder, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect audit database: %w", err)
	}

	db.SetMaxOpenConns(defaultMaxOpenConns)
	db.SetMaxIdleConns(defaultMaxIdleConns)
	db.SetConnMaxLifetime(defaultConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), defaultPingTimeout)
	defer cancel()
	if pingErr := db.PingContext(ctx); pingErr != nil {
		return nil, fmt.Errorf("ping audit database: %w", pingErr)
	}

	return NewPostgresRecorderFromDB(db), nil
}

// NewPostgresRecorderFromDB wraps an existing connection. Used by tests.
func NewPostgresRecorderFromDB(db *sqlx.DB) *PostgresRecorder {
	return &PostgresRecorder{db: db, now: time.Now}
}

// Record inserts one audit entry, assigning an id and timestamp when
// the caller left them empty.
func (r *PostgresRecorder) Record(ctx context.Context, record domain.AuditRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = r.now()
	}

	query := `
		INSERT INTO audit_log (id, tenant_id, action, query, result_summary, outcome, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		record.ID,
		record.TenantID,
		record.Action,
		record.Query,
		record.ResultSummary,
		record.Outcome,
		record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit record: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (r *PostgresRecorder) Close() error {
	return r.db.Close()
}
