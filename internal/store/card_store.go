package store

import (
	"context"
	"time"

	"atmcore/internal/models"
)

type CardStore struct {
	db DB
}

func NewCardStore(db DB) *CardStore {
	return &CardStore{db: db}
}

func (s *CardStore) Create(ctx context.Context, tx Tx, cardNumber string, accountID int64, pinHash string) (int64, error) {
	var id int64
	err := tx.GetContext(ctx, &id, `
		INSERT INTO cards (card_number, account_id, pin_hash, is_active)
		VALUES ($1, $2, $3, TRUE)
		RETURNING id
	`, cardNumber, accountID, pinHash)
	return id, err
}

func (s *CardStore) GetByNumber(ctx context.Context, cardNumber string) (models.AuthCard, error) {
	var row models.AuthCard
	err := s.db.GetContext(ctx, &row, `
		SELECT id, card_number, account_id, pin_hash, failed_attempts, locked_until, is_active, created_at
		FROM cards
		WHERE card_number = $1
	`, cardNumber)
	if err != nil {
		return models.AuthCard{}, err
	}
	return row, nil
}

func (s *CardStore) GetByID(ctx context.Context, cardID int64) (models.AuthCard, error) {
	var row models.AuthCard
	err := s.db.GetContext(ctx, &row, `
		SELECT id, card_number, account_id, pin_hash, failed_attempts, locked_until, is_active, created_at
		FROM cards
		WHERE id = $1
	`, cardID)
	if err != nil {
		return models.AuthCard{}, err
	}
	return row, nil
}

// RecordFailure bumps the consecutive-failure counter and returns the new
// count, so the caller decides in the same round trip whether to lock.
func (s *CardStore) RecordFailure(ctx context.Context, tx Getter, cardID int64) (int, error) {
	var attempts int
	err := tx.GetContext(ctx, &attempts, `
		UPDATE cards
		SET failed_attempts = failed_attempts + 1, updated_at = NOW()
		WHERE id = $1
		RETURNING failed_attempts
	`, cardID)
	return attempts, err
}

func (s *CardStore) Lock(ctx context.Context, tx Execer, cardID int64, until time.Time) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE cards
		SET locked_until = $1, updated_at = NOW()
		WHERE id = $2
	`, until, cardID)
	return err
}

func (s *CardStore) ResetFailures(ctx context.Context, tx Execer, cardID int64) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE cards
		SET failed_attempts = 0, locked_until = NULL, updated_at = NOW()
		WHERE id = $1
	`, cardID)
	return err
}

func (s *CardStore) UpdatePINHash(ctx context.Context, tx Execer, cardID int64, pinHash string) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE cards
		SET pin_hash = $1, updated_at = NOW()
		WHERE id = $2
	`, pinHash, cardID)
	return err
}
