package postgres

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pirnawaz/agroledger/internal/domain"
	"github.com/pirnawaz/agroledger/internal/usecase"
)

// AuditRepository implements usecase.AuditRepository.
type AuditRepository struct {
	pool *pgxpool.Pool
}

// NewAuditRepository creates a new AuditRepository.
func NewAuditRepository(pool *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{pool: pool}
}

// CreateTx inserts an audit row within the caller's transaction, so the audit
// trail commits or rolls back with the action it describes.
func (r *AuditRepository) CreateTx(ctx context.Context, tx usecase.Transaction, log *domain.AuditLog) error {
	pgxTx := tx.(*Tx).PgxTx()

	detail, err := json.Marshal(log.Detail)
	if err != nil {
		return err
	}

	_, err = pgxTx.Exec(ctx,
		`INSERT INTO audit_logs (id, tenant_id, actor_id, action, resource_type,
		   resource_id, request_id, detail, status, error_message, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		log.ID, log.TenantID, log.ActorID, log.Action, log.ResourceType,
		log.ResourceID, log.RequestID, detail, log.Status, log.ErrorMessage,
		timeToPgTimestamptz(log.CreatedAt))

	return err
}

// List queries audit logs by filter, newest first.
func (r *AuditRepository) List(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditLog, error) {
	query := `SELECT id, tenant_id, actor_id, action, resource_type, resource_id,
	    request_id, detail, status, error_message, created_at
	  FROM audit_logs
	  WHERE tenant_id = $1`
	args := []any{filter.TenantID}

	addFilter := func(clause, value string) {
		if value == "" {
			return
		}
		args = append(args, value)
		query += ` AND ` + clause + ` = $` + strconv.Itoa(len(args))
	}

	addFilter("actor_id", filter.ActorID)
	addFilter("action", filter.Action)
	addFilter("resource_type", filter.ResourceType)
	addFilter("resource_id", filter.ResourceID)

	if filter.StartDate != nil {
		args = append(args, *filter.StartDate)
		query += ` AND created_at >= $` + strconv.Itoa(len(args))
	}
	if filter.EndDate != nil {
		args = append(args, *filter.EndDate)
		query += ` AND created_at <= $` + strconv.Itoa(len(args))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit)
	query += ` ORDER BY created_at DESC LIMIT $` + strconv.Itoa(len(args))
	args = append(args, filter.Offset)
	query += ` OFFSET $` + strconv.Itoa(len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []*domain.AuditLog
	for rows.Next() {
		var l domain.AuditLog
		var detail []byte
		if err := rows.Scan(
			&l.ID, &l.TenantID, &l.ActorID, &l.Action, &l.ResourceType,
			&l.ResourceID, &l.RequestID, &detail, &l.Status, &l.ErrorMessage,
			&l.CreatedAt,
		); err != nil {
			return nil, err
		}

		if len(detail) > 0 {
			if err := json.Unmarshal(detail, &l.Detail); err != nil {
				return nil, err
			}
		}

		logs = append(logs, &l)
	}

	return logs, rows.Err()
}
