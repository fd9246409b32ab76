package store

import (
	"context"
	"log"
	"time"
)

type AuditStore struct {
	db DB
}

type auditRow struct {
	ID        int64     `db:"id"`
	EventType string    `db:"event_type"`
	AccountID *int64    `db:"account_id"`
	SessionID *string   `db:"session_id"`
	Details   string    `db:"details"`
	CreatedAt time.Time `db:"created_at"`
}

func NewAuditStore(db DB) *AuditStore {
	return &AuditStore{db: db}
}

func (s *AuditStore) Log(ctx context.Context, tx Execer, eventType string, accountID *int64, sessionID *string, details string) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO audit_events (event_type, account_id, session_id, details)
		VALUES ($1, $2, $3, $4)
	`, eventType, accountID, sessionID, details)
	return err
}

// Record writes outside any business transaction so a rolled-back operation
// still leaves its decline event behind, and a failed audit write never rolls
// back the operation it describes.
func (s *AuditStore) Record(ctx context.Context, eventType string, accountID *int64, sessionID *string, details string) {
	if err := s.Log(ctx, s.db, eventType, accountID, sessionID, details); err != nil {
		log.Printf("audit write failed: event=%s err=%v", eventType, err)
	}
}

func (s *AuditStore) List(ctx context.Context, limit, offset int) ([]map[string]any, error) {
	var rows []auditRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, event_type, account_id, session_id, details, created_at
		FROM audit_events
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	events := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		events = append(events, map[string]any{
			"id":         row.ID,
			"event_type": row.EventType,
			"account_id": row.AccountID,
			"session_id": row.SessionID,
			"details":    row.Details,
			"created_at": row.CreatedAt,
		})
	}
	return events, nil
}
