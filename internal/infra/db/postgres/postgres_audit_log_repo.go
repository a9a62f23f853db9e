package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4/pgxpool"

	"call-stt-pipeline/internal/domain/model"
	"call-stt-pipeline/internal/domain/ports/repository"
)

var _ repository.AuditLogRepository = (*auditLogRepo)(nil)

type auditLogRepo struct {
	pool *pgxpool.Pool
}

func NewAuditLogRepo(pool *pgxpool.Pool) *auditLogRepo {
	return &auditLogRepo{pool: pool}
}

func (r *auditLogRepo) Append(ctx context.Context, tx repository.Tx, entry *model.AuditLogEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	const q = `
INSERT INTO audit_log (id, actor, action, payload, created_at)
VALUES ($1, $2, $3, $4, $5);`

	_, err := execSQL(ctx, r.pool, tx, q, entry.ID, entry.Actor, entry.Action, entry.Payload, entry.CreatedAt)
	return err
}
