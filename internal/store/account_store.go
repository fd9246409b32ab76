package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"atmcore/internal/models"
)

type AccountStore struct {
	db DB
}

func NewAccountStore(db DB) *AccountStore {
	return &AccountStore{db: db}
}

const accountColumns = `
	id, account_number, owner_name, type, status,
	balance, available, daily_withdrawal_used, daily_transfer_used,
	daily_withdrawal_limit, daily_transfer_limit, created_at
`

func (s *AccountStore) Create(ctx context.Context, tx Tx, number, ownerName, accountType string, balance int64) (int64, error) {
	var id int64
	err := tx.GetContext(ctx, &id, `
		INSERT INTO accounts (account_number, owner_name, type, status, balance, available)
		VALUES ($1, $2, $3, 'ACTIVE', $4, $4)
		RETURNING id
	`, number, ownerName, accountType, balance)
	return id, err
}

func (s *AccountStore) GetByID(ctx context.Context, accountID int64) (models.Account, error) {
	var row models.Account
	err := s.db.GetContext(ctx, &row, `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE id = $1
	`, accountID)
	if err != nil {
		return models.Account{}, err
	}
	return row, nil
}

func (s *AccountStore) GetByNumber(ctx context.Context, number string) (models.Account, error) {
	var row models.Account
	err := s.db.GetContext(ctx, &row, `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE account_number = $1
	`, number)
	if err != nil {
		return models.Account{}, err
	}
	return row, nil
}

func (s *AccountStore) GetForUpdate(ctx context.Context, tx Getter, accountID int64) (models.Account, error) {
	var row models.Account
	err := tx.GetContext(ctx, &row, `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE id = $1
		FOR UPDATE
	`, accountID)
	if err != nil {
		return models.Account{}, err
	}
	return row, nil
}

// UpdateBalances writes both the ledger balance and the available balance in
// one statement so the available <= balance invariant never spans two writes.
func (s *AccountStore) UpdateBalances(ctx context.Context, tx Execer, accountID, balance, available int64) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE accounts
		SET balance = $1, available = $2, updated_at = NOW()
		WHERE id = $3
	`, balance, available, accountID)
	return err
}

func (s *AccountStore) IncrementDailyWithdrawal(ctx context.Context, tx Execer, accountID, amount int64) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE accounts
		SET daily_withdrawal_used = daily_withdrawal_used + $1, updated_at = NOW()
		WHERE id = $2
	`, amount, accountID)
	return err
}

func (s *AccountStore) IncrementDailyTransfer(ctx context.Context, tx Execer, accountID, amount int64) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE accounts
		SET daily_transfer_used = daily_transfer_used + $1, updated_at = NOW()
		WHERE id = $2
	`, amount, accountID)
	return err
}

// ResetDailyUsage is the day-rollover reset applied by the operator's
// scheduler; the engine itself never runs timers.
func (s *AccountStore) ResetDailyUsage(ctx context.Context, tx Execer) (int64, error) {
	res, err := tx.ExecContext(ctx, `
		UPDATE accounts
		SET daily_withdrawal_used = 0, daily_transfer_used = 0, updated_at = NOW()
		WHERE daily_withdrawal_used <> 0 OR daily_transfer_used <> 0
	`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ReleaseMaturedHolds moves funds whose hold_until has passed back into
// available, clamped so available never exceeds balance.
func (s *AccountStore) ReleaseMaturedHolds(ctx context.Context, tx Execer, asOf time.Time) (int64, error) {
	res, err := tx.ExecContext(ctx, `
		WITH matured AS (
			SELECT account_id, SUM(held_amount) AS released
			FROM transactions
			WHERE hold_until IS NOT NULL AND hold_until <= $1 AND hold_released = FALSE
			GROUP BY account_id
		), flagged AS (
			UPDATE transactions
			SET hold_released = TRUE
			WHERE hold_until IS NOT NULL AND hold_until <= $1 AND hold_released = FALSE
		)
		UPDATE accounts a
		SET available = LEAST(a.balance, a.available + m.released), updated_at = NOW()
		FROM matured m
		WHERE a.id = m.account_id
	`, asOf)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *AccountStore) SetStatus(ctx context.Context, tx Execer, accountID int64, status string) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE accounts
		SET status = $1, updated_at = NOW()
		WHERE id = $2
	`, status, accountID)
	return err
}

func IsNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
