package domain

import "time"

// AuditRecord is one analytics/audit entry emitted per pipeline
// invocation. Emission is best-effort; failures never abort a request.
type AuditRecord struct {
	ID            string    `db:"id"             json:"id"`
	TenantID      string    `db:"tenant_id"      json:"tenant_id"`
	Action        string    `db:"action"         json:"action"`
	Query         string    `db:"query"          json:"query"`
	ResultSummary string    `db:"result_summary" json:"result_summary"`
	Outcome       Outcome   `db:"outcome"        json:"outcome"`
	CreatedAt     time.Time `db:"created_at"     json:"created_at"`
}
