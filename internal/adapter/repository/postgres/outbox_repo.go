package postgres

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pirnawaz/agroledger/internal/domain"
	"github.com/pirnawaz/agroledger/internal/usecase"
)

// OutboxRepository implements usecase.OutboxRepository.
type OutboxRepository struct {
	pool *pgxpool.Pool
}

// NewOutboxRepository creates a new OutboxRepository.
func NewOutboxRepository(pool *pgxpool.Pool) *OutboxRepository {
	return &OutboxRepository{pool: pool}
}

// Create inserts an outbox event within the caller's transaction.
func (r *OutboxRepository) Create(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error {
	pgxTx := tx.(*Tx).PgxTx()

	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return err
	}

	_, err = pgxTx.Exec(ctx,
		`INSERT INTO outbox_events (id, tenant_id, aggregate_id, aggregate_type,
		   event_type, payload, created_at, published)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		event.ID, event.TenantID, event.AggregateID, event.AggregateType,
		event.EventType, payload, timeToPgTimestamptz(event.CreatedAt), event.Published)

	return err
}

// GetUnpublished retrieves events awaiting publication, oldest first.
func (r *OutboxRepository) GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, tenant_id, aggregate_id, aggregate_type, event_type, payload,
		   created_at, published_at, published
		 FROM outbox_events
		 WHERE published = FALSE
		 ORDER BY created_at
		 LIMIT $1`,
		limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*domain.OutboxEvent
	for rows.Next() {
		var e domain.OutboxEvent
		var payload []byte
		if err := rows.Scan(
			&e.ID, &e.TenantID, &e.AggregateID, &e.AggregateType, &e.EventType,
			&payload, &e.CreatedAt, &e.PublishedAt, &e.Published,
		); err != nil {
			return nil, err
		}

		if len(payload) > 0 {
			if err := json.Unmarshal(payload, &e.Payload); err != nil {
				return nil, err
			}
		}

		events = append(events, &e)
	}

	return events, rows.Err()
}

// MarkPublished flags an event as delivered.
func (r *OutboxRepository) MarkPublished(ctx context.Context, id string, publishedAt time.Time) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE outbox_events SET published = TRUE, published_at = $1 WHERE id = $2`,
		timeToPgTimestamptz(publishedAt), id)

	return err
}
