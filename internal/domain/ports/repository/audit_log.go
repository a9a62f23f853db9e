package repository

import (
	"context"

	"call-stt-pipeline/internal/domain/model"
)

type AuditLogRepository interface {
	Append(ctx context.Context, tx Tx, entry *model.AuditLogEntry) error
}
