package repository

import (
	"context"
	"fmt"

	"github.com/gemcade/platform/internal/domain"
)

type outboxRepo struct{}

// NewOutboxRepository returns a pgx-backed OutboxRepository.
func NewOutboxRepository() OutboxRepository {
	return &outboxRepo{}
}

func (r *outboxRepo) Insert(ctx context.Context, db DBTX, draft domain.OutboxDraft) error {
	_, err := db.Exec(ctx, `
		INSERT INTO event_outbox
		  (event_id, aggregate_type, aggregate_id, event_type, partition_key, headers, payload, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		draft.EventID,
		string(draft.AggregateType),
		draft.AggregateID,
		string(draft.EventType),
		draft.PartitionKey,
		draft.Headers,
		draft.Payload,
		draft.OccurredAt,
	)
	if err != nil {
		return fmt.Errorf("insert outbox event: %w", err)
	}
	return nil
}

func (r *outboxRepo) FetchUnpublished(ctx context.Context, db DBTX, limit int) ([]OutboxRow, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	rows, err := db.Query(ctx, `
		SELECT seq_id, event_id, aggregate_type, aggregate_id, event_type,
		       partition_key, headers, payload, occurred_at
		FROM event_outbox
		WHERE published_at IS NULL
		ORDER BY seq_id
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch unpublished events: %w", err)
	}
	defer rows.Close()

	var out []OutboxRow
	for rows.Next() {
		var row OutboxRow
		var aggType, evtType string
		if err := rows.Scan(&row.SeqID, &row.EventID, &aggType, &row.AggregateID,
			&evtType, &row.PartitionKey, &row.Headers, &row.Payload, &row.OccurredAt); err != nil {
			return nil, fmt.Errorf("scan outbox event: %w", err)
		}
		row.AggregateType = domain.AggregateType(aggType)
		row.EventType = domain.EventType(evtType)
		out = append(out, row)
	}
	return out, rows.Err()
}

func (r *outboxRepo) MarkPublished(ctx context.Context, db DBTX, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := db.Exec(ctx, `
		UPDATE event_outbox SET published_at = now() WHERE seq_id = ANY($1)`, ids)
	if err != nil {
		return fmt.Errorf("mark outbox published: %w", err)
	}
	return nil
}
