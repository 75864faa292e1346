package models

import "time"

type AuditAction string

const (
	AuditActionRegister AuditAction = "register"
	AuditActionLogin    AuditAction = "login"
	AuditActionTransfer AuditAction = "transfer"
)

// AuditRecord is append-only. Rows are never mutated; aged rows are
// archived to the object store and pruned by the scheduler.
type AuditRecord struct {
	ID        string
	TenantID  string
	AccountID string
	Action    AuditAction
	Metadata  map[string]string
	CreatedAt time.Time
}
