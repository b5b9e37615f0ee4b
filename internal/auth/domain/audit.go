package domain

import "time"

// AuditEntry records a security-relevant admin action. Writes are
// fire-and-forget; a failed append never blocks the action it describes.
type AuditEntry struct {
	ID        string
	ActorName string
	ActorID   string
	Action    string
	CreatedAt time.Time
}

// Audit action labels.
const (
	AuditActionAdminLogin    = "Admin Login"
	AuditActionSessionRevoke = "Session Revoked"
)
