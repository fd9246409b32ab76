package store

import (
	"context"
	"time"

	"atmcore/internal/models"
)

type TransactionStore struct {
	db DB
}

type TransactionInput struct {
	AccountID        int64
	Type             string
	Amount           int64
	BalanceAfter     int64
	Reference        string
	Description      string
	RelatedAccountID *int64
	CheckNumber      *string
	HeldAmount       int64
	HoldUntil        *time.Time
}

func NewTransactionStore(db DB) *TransactionStore {
	return &TransactionStore{db: db}
}

// Create inserts an immutable ledger row. There is deliberately no update or
// delete on this store.
func (s *TransactionStore) Create(ctx context.Context, tx Execer, input TransactionInput) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO transactions
			(account_id, type, amount, balance_after, reference, description,
			 related_account_id, check_number, held_amount, hold_until)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, input.AccountID, input.Type, input.Amount, input.BalanceAfter, input.Reference,
		input.Description, input.RelatedAccountID, input.CheckNumber, input.HeldAmount, input.HoldUntil)
	return err
}

func (s *TransactionStore) ListByAccount(ctx context.Context, accountID int64, limit, offset int) ([]models.Transaction, error) {
	var rows []models.Transaction
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, account_id, type, amount, balance_after, reference, description,
		       related_account_id, check_number, held_amount, hold_until, created_at
		FROM transactions
		WHERE account_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`, accountID, limit, offset)
	if err != nil {
		return nil, err
	}
	return rows, nil
}
