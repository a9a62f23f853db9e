package model

import "time"

// AuditLogEntry records an administrative action such as a DLQ replay.
type AuditLogEntry struct {
	ID        string
	Actor     string
	Action    string
	Payload   string // JSON blob with action-specific context
	CreatedAt time.Time
}

const AuditActionDLQRequeue = "stt.dlq.requeue"
