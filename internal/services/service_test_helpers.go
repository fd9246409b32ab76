package services

import (
	"context"
	"time"

	"atmcore/internal/models"
	"atmcore/internal/store"
	"atmcore/internal/websocket"

	"github.com/jmoiron/sqlx"
)

type fakeTxRunner struct {
	err error
}

func (f fakeTxRunner) WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	if f.err != nil {
		return f.err
	}
	return fn(nil)
}

type stubAccountStore struct {
	getByIDFn        func(ctx context.Context, accountID int64) (models.Account, error)
	getByNumberFn    func(ctx context.Context, number string) (models.Account, error)
	getForUpdateFn   func(ctx context.Context, tx store.Getter, accountID int64) (models.Account, error)
	updateBalancesFn func(ctx context.Context, tx store.Execer, accountID, balance, available int64) error
	incrWithdrawalFn func(ctx context.Context, tx store.Execer, accountID, amount int64) error
	incrTransferFn   func(ctx context.Context, tx store.Execer, accountID, amount int64) error
	resetDailyFn     func(ctx context.Context, tx store.Execer) (int64, error)
	releaseHoldsFn   func(ctx context.Context, tx store.Execer, asOf time.Time) (int64, error)
}

func (s stubAccountStore) GetByID(ctx context.Context, accountID int64) (models.Account, error) {
	if s.getByIDFn == nil {
		return models.Account{}, nil
	}
	return s.getByIDFn(ctx, accountID)
}

func (s stubAccountStore) GetByNumber(ctx context.Context, number string) (models.Account, error) {
	if s.getByNumberFn == nil {
		return models.Account{}, nil
	}
	return s.getByNumberFn(ctx, number)
}

func (s stubAccountStore) GetForUpdate(ctx context.Context, tx store.Getter, accountID int64) (models.Account, error) {
	if s.getForUpdateFn == nil {
		return models.Account{}, nil
	}
	return s.getForUpdateFn(ctx, tx, accountID)
}

func (s stubAccountStore) UpdateBalances(ctx context.Context, tx store.Execer, accountID, balance, available int64) error {
	if s.updateBalancesFn == nil {
		return nil
	}
	return s.updateBalancesFn(ctx, tx, accountID, balance, available)
}

func (s stubAccountStore) IncrementDailyWithdrawal(ctx context.Context, tx store.Execer, accountID, amount int64) error {
	if s.incrWithdrawalFn == nil {
		return nil
	}
	return s.incrWithdrawalFn(ctx, tx, accountID, amount)
}

func (s stubAccountStore) IncrementDailyTransfer(ctx context.Context, tx store.Execer, accountID, amount int64) error {
	if s.incrTransferFn == nil {
		return nil
	}
	return s.incrTransferFn(ctx, tx, accountID, amount)
}

func (s stubAccountStore) ResetDailyUsage(ctx context.Context, tx store.Execer) (int64, error) {
	if s.resetDailyFn == nil {
		return 0, nil
	}
	return s.resetDailyFn(ctx, tx)
}

func (s stubAccountStore) ReleaseMaturedHolds(ctx context.Context, tx store.Execer, asOf time.Time) (int64, error) {
	if s.releaseHoldsFn == nil {
		return 0, nil
	}
	return s.releaseHoldsFn(ctx, tx, asOf)
}

type stubCardStore struct {
	getByNumberFn   func(ctx context.Context, cardNumber string) (models.AuthCard, error)
	getByIDFn       func(ctx context.Context, cardID int64) (models.AuthCard, error)
	recordFailureFn func(ctx context.Context, tx store.Getter, cardID int64) (int, error)
	lockFn          func(ctx context.Context, tx store.Execer, cardID int64, until time.Time) error
	resetFn         func(ctx context.Context, tx store.Execer, cardID int64) error
	updateHashFn    func(ctx context.Context, tx store.Execer, cardID int64, pinHash string) error
}

func (s stubCardStore) GetByNumber(ctx context.Context, cardNumber string) (models.AuthCard, error) {
	return s.getByNumberFn(ctx, cardNumber)
}

func (s stubCardStore) GetByID(ctx context.Context, cardID int64) (models.AuthCard, error) {
	if s.getByIDFn == nil {
		return models.AuthCard{}, nil
	}
	return s.getByIDFn(ctx, cardID)
}

func (s stubCardStore) RecordFailure(ctx context.Context, tx store.Getter, cardID int64) (int, error) {
	if s.recordFailureFn == nil {
		return 1, nil
	}
	return s.recordFailureFn(ctx, tx, cardID)
}

func (s stubCardStore) Lock(ctx context.Context, tx store.Execer, cardID int64, until time.Time) error {
	if s.lockFn == nil {
		return nil
	}
	return s.lockFn(ctx, tx, cardID, until)
}

func (s stubCardStore) ResetFailures(ctx context.Context, tx store.Execer, cardID int64) error {
	if s.resetFn == nil {
		return nil
	}
	return s.resetFn(ctx, tx, cardID)
}

func (s stubCardStore) UpdatePINHash(ctx context.Context, tx store.Execer, cardID int64, pinHash string) error {
	if s.updateHashFn == nil {
		return nil
	}
	return s.updateHashFn(ctx, tx, cardID, pinHash)
}

type stubTxStore struct {
	createFn func(ctx context.Context, tx store.Execer, input store.TransactionInput) error
	listFn   func(ctx context.Context, accountID int64, limit, offset int) ([]models.Transaction, error)
}

func (s stubTxStore) Create(ctx context.Context, tx store.Execer, input store.TransactionInput) error {
	if s.createFn == nil {
		return nil
	}
	return s.createFn(ctx, tx, input)
}

func (s stubTxStore) ListByAccount(ctx context.Context, accountID int64, limit, offset int) ([]models.Transaction, error) {
	if s.listFn == nil {
		return nil, nil
	}
	return s.listFn(ctx, accountID, limit, offset)
}

type auditEvent struct {
	Type      string
	AccountID *int64
	SessionID *string
	Details   string
}

type recordingAudit struct {
	events []auditEvent
}

func (a *recordingAudit) Record(_ context.Context, eventType string, accountID *int64, sessionID *string, details string) {
	a.events = append(a.events, auditEvent{Type: eventType, AccountID: accountID, SessionID: sessionID, Details: details})
}

func (a *recordingAudit) last() auditEvent {
	if len(a.events) == 0 {
		return auditEvent{}
	}
	return a.events[len(a.events)-1]
}

type stubInventory struct {
	canFn      func(amount int64) bool
	dispenseFn func(amount int64) (map[int64]int, error)
}

func (s stubInventory) CanDispense(amount int64) bool {
	if s.canFn == nil {
		return true
	}
	return s.canFn(amount)
}

func (s stubInventory) Dispense(amount int64) (map[int64]int, error) {
	if s.dispenseFn == nil {
		return map[int64]int{2000: int(amount / 2000)}, nil
	}
	return s.dispenseFn(amount)
}

type stubHub struct {
	updates []websocket.BalanceUpdate
}

func (s *stubHub) BroadcastBalance(_ int64, update websocket.BalanceUpdate) {
	s.updates = append(s.updates, update)
}

func int64Ptr(value int64) *int64 {
	return &value
}
