package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"atmcore/internal/config"
	"atmcore/internal/db"
	"atmcore/internal/models"
	"atmcore/internal/money"
	"atmcore/internal/store"
	"atmcore/internal/websocket"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidAmount          = errors.New("invalid amount")
	ErrInsufficientFunds      = errors.New("insufficient available funds")
	ErrDailyLimitExceeded     = errors.New("daily limit exceeded")
	ErrAccountUnavailable     = errors.New("account unavailable")
	ErrInsufficientInventory  = errors.New("cannot dispense requested amount")
	ErrDestinationNotFound    = errors.New("destination account not found")
	ErrDestinationUnavailable = errors.New("destination account unavailable")
	ErrInvalidRequest         = errors.New("invalid request")
)

const (
	EventWithdrawal         = "WITHDRAWAL"
	EventWithdrawalDeclined = "WITHDRAWAL_DECLINED"
	EventDeposit            = "DEPOSIT"
	EventTransfer           = "TRANSFER"
	EventTransferDeclined   = "TRANSFER_DECLINED"
	EventFeePosted          = "FEE_POSTED"
	EventInterestPosted     = "INTEREST_POSTED"
	EventDayRollover        = "DAY_ROLLOVER"
	EventHoldsReleased      = "HOLDS_RELEASED"
)

const (
	DepositCash  = "cash"
	DepositCheck = "check"
)

type AccountStore interface {
	GetByID(ctx context.Context, accountID int64) (models.Account, error)
	GetByNumber(ctx context.Context, number string) (models.Account, error)
	GetForUpdate(ctx context.Context, tx store.Getter, accountID int64) (models.Account, error)
	UpdateBalances(ctx context.Context, tx store.Execer, accountID, balance, available int64) error
	IncrementDailyWithdrawal(ctx context.Context, tx store.Execer, accountID, amount int64) error
	IncrementDailyTransfer(ctx context.Context, tx store.Execer, accountID, amount int64) error
	ResetDailyUsage(ctx context.Context, tx store.Execer) (int64, error)
	ReleaseMaturedHolds(ctx context.Context, tx store.Execer, asOf time.Time) (int64, error)
}

type TransactionStore interface {
	Create(ctx context.Context, tx store.Execer, input store.TransactionInput) error
	ListByAccount(ctx context.Context, accountID int64, limit, offset int) ([]models.Transaction, error)
}

type CashInventory interface {
	CanDispense(amount int64) bool
	Dispense(amount int64) (map[int64]int, error)
}

type BalanceHub interface {
	BroadcastBalance(accountID int64, update websocket.BalanceUpdate)
}

type TransactionService struct {
	txRunner  db.TxRunner
	accounts  AccountStore
	txStore   TransactionStore
	inventory CashInventory
	audit     AuditSink
	hub       BalanceHub
	cfg       config.Config
	now       func() time.Time
}

func NewTransactionService(txRunner db.TxRunner, accounts AccountStore, txStore TransactionStore, inventory CashInventory, audit AuditSink, hub BalanceHub, cfg config.Config) *TransactionService {
	return &TransactionService{
		txRunner:  txRunner,
		accounts:  accounts,
		txStore:   txStore,
		inventory: inventory,
		audit:     audit,
		hub:       hub,
		cfg:       cfg,
		now:       time.Now,
	}
}

type WithdrawReceipt struct {
	Reference string
	Amount    int64
	Balance   int64
	Available int64
	Breakdown map[int64]int
}

func (s *TransactionService) Withdraw(ctx context.Context, accountID, amount int64) (WithdrawReceipt, error) {
	if amount <= 0 || amount%s.cfg.DispenseUnit != 0 {
		return WithdrawReceipt{}, fmt.Errorf("%w: amount must be a positive multiple of %s", ErrInvalidAmount, money.FormatMinor(s.cfg.DispenseUnit))
	}
	var receipt WithdrawReceipt
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		account, err := s.accounts.GetForUpdate(ctx, tx, accountID)
		if err != nil {
			return err
		}
		if err := checkOperational(account); err != nil {
			return err
		}
		if account.Available < amount {
			return ErrInsufficientFunds
		}
		limit := s.withdrawalLimit(account)
		if account.DailyWithdrawalUsed+amount > limit {
			return ErrDailyLimitExceeded
		}
		if !s.inventory.CanDispense(amount) {
			return ErrInsufficientInventory
		}
		newBalance := account.Balance - amount
		newAvailable := account.Available - amount
		if err := s.accounts.UpdateBalances(ctx, tx, accountID, newBalance, newAvailable); err != nil {
			return err
		}
		if err := s.accounts.IncrementDailyWithdrawal(ctx, tx, accountID, amount); err != nil {
			return err
		}
		reference := money.NewReference(s.now())
		if err := s.txStore.Create(ctx, tx, store.TransactionInput{
			AccountID:    accountID,
			Type:         models.TxWithdrawal,
			Amount:       amount,
			BalanceAfter: newBalance,
			Reference:    reference,
			Description:  "ATM withdrawal",
		}); err != nil {
			return err
		}
		// Bills are staged once; a commit retry must not dispense twice.
		if receipt.Breakdown == nil {
			plan, err := s.inventory.Dispense(amount)
			if err != nil {
				return ErrInsufficientInventory
			}
			receipt.Breakdown = plan
		}
		receipt.Reference = reference
		receipt.Amount = amount
		receipt.Balance = newBalance
		receipt.Available = newAvailable
		return nil
	})
	if err != nil {
		s.auditDecline(ctx, EventWithdrawalDeclined, accountID, amount, err)
		return WithdrawReceipt{}, err
	}
	s.audit.Record(ctx, EventWithdrawal, &accountID, nil, details(map[string]any{
		"amount":    amount,
		"reference": receipt.Reference,
	}))
	s.broadcast(accountID, receipt.Balance, receipt.Available)
	return receipt, nil
}

type DepositReceipt struct {
	Reference            string
	Amount               int64
	Balance              int64
	Available            int64
	AvailableImmediately int64
	Held                 int64
	HoldUntil            *time.Time
}

func (s *TransactionService) Deposit(ctx context.Context, accountID, amount int64, kind, checkNumber string) (DepositReceipt, error) {
	if kind != DepositCash && kind != DepositCheck {
		return DepositReceipt{}, fmt.Errorf("%w: unknown deposit kind %q", ErrInvalidRequest, kind)
	}
	if kind == DepositCheck && checkNumber == "" {
		return DepositReceipt{}, fmt.Errorf("%w: check deposit requires a check number", ErrInvalidRequest)
	}
	if amount <= 0 {
		return DepositReceipt{}, ErrInvalidAmount
	}
	immediate, held, holdUntil := s.holdPolicy(kind, amount)

	var receipt DepositReceipt
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		account, err := s.accounts.GetForUpdate(ctx, tx, accountID)
		if err != nil {
			return err
		}
		if err := checkOperational(account); err != nil {
			return err
		}
		newBalance := account.Balance + amount
		newAvailable := account.Available + immediate
		if err := s.accounts.UpdateBalances(ctx, tx, accountID, newBalance, newAvailable); err != nil {
			return err
		}
		txType := models.TxDepositCash
		description := "ATM cash deposit"
		var checkRef *string
		if kind == DepositCheck {
			txType = models.TxDepositCheck
			description = "ATM check deposit"
			checkRef = &checkNumber
		}
		reference := money.NewReference(s.now())
		if err := s.txStore.Create(ctx, tx, store.TransactionInput{
			AccountID:    accountID,
			Type:         txType,
			Amount:       amount,
			BalanceAfter: newBalance,
			Reference:    reference,
			Description:  description,
			CheckNumber:  checkRef,
			HeldAmount:   held,
			HoldUntil:    holdUntil,
		}); err != nil {
			return err
		}
		receipt = DepositReceipt{
			Reference:            reference,
			Amount:               amount,
			Balance:              newBalance,
			Available:            newAvailable,
			AvailableImmediately: immediate,
			Held:                 held,
			HoldUntil:            holdUntil,
		}
		return nil
	})
	if err != nil {
		return DepositReceipt{}, err
	}
	s.audit.Record(ctx, EventDeposit, &accountID, nil, details(map[string]any{
		"amount":    amount,
		"kind":      kind,
		"held":      held,
		"reference": receipt.Reference,
	}))
	s.broadcast(accountID, receipt.Balance, receipt.Available)
	return receipt, nil
}

// holdPolicy splits a deposit into the immediately available portion and the
// held portion. Cash clears up to the threshold on the spot; checks always
// clear on a business-day delay, two days for large ones.
func (s *TransactionService) holdPolicy(kind string, amount int64) (immediate, held int64, holdUntil *time.Time) {
	now := s.now()
	switch kind {
	case DepositCash:
		if amount <= s.cfg.HoldThreshold {
			return amount, 0, nil
		}
		release := addBusinessDays(now, 1)
		return s.cfg.HoldThreshold, amount - s.cfg.HoldThreshold, &release
	default:
		days := 1
		if amount > s.cfg.HoldThreshold {
			days = 2
		}
		release := addBusinessDays(now, days)
		return 0, amount, &release
	}
}

type TransferReceipt struct {
	Reference         string
	Amount            int64
	Balance           int64
	Available         int64
	DestinationMasked string
}

func (s *TransactionService) Transfer(ctx context.Context, sourceAccountID int64, destinationNumber string, amount int64) (TransferReceipt, error) {
	if amount <= 0 {
		return TransferReceipt{}, ErrInvalidAmount
	}
	var receipt TransferReceipt
	var destID int64
	var destBalance, destAvailable int64
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		destination, err := s.accounts.GetByNumber(ctx, destinationNumber)
		if err != nil {
			if store.IsNotFound(err) {
				return ErrDestinationNotFound
			}
			return err
		}
		if destination.ID == sourceAccountID {
			return fmt.Errorf("%w: cannot transfer to the same account", ErrInvalidRequest)
		}
		source, destination, err := s.lockPair(ctx, tx, sourceAccountID, destination.ID)
		if err != nil {
			return err
		}
		if err := checkOperational(source); err != nil {
			return err
		}
		if destination.Status != models.StatusActive {
			return ErrDestinationUnavailable
		}
		if source.Available < amount {
			return ErrInsufficientFunds
		}
		limit := s.transferLimit(source)
		if source.DailyTransferUsed+amount > limit {
			return ErrDailyLimitExceeded
		}

		newSourceBalance := source.Balance - amount
		newSourceAvailable := source.Available - amount
		newDestBalance := destination.Balance + amount
		newDestAvailable := destination.Available + amount
		if err := s.accounts.UpdateBalances(ctx, tx, source.ID, newSourceBalance, newSourceAvailable); err != nil {
			return err
		}
		if err := s.accounts.UpdateBalances(ctx, tx, destination.ID, newDestBalance, newDestAvailable); err != nil {
			return err
		}
		if err := s.accounts.IncrementDailyTransfer(ctx, tx, source.ID, amount); err != nil {
			return err
		}

		now := s.now()
		outReference := money.NewReference(now)
		inReference := money.NewReference(now)
		if err := s.txStore.Create(ctx, tx, store.TransactionInput{
			AccountID:        source.ID,
			Type:             models.TxTransferOut,
			Amount:           amount,
			BalanceAfter:     newSourceBalance,
			Reference:        outReference,
			Description:      "Transfer to " + money.MaskAccountNumber(destination.AccountNumber),
			RelatedAccountID: &destination.ID,
		}); err != nil {
			return err
		}
		if err := s.txStore.Create(ctx, tx, store.TransactionInput{
			AccountID:        destination.ID,
			Type:             models.TxTransferIn,
			Amount:           amount,
			BalanceAfter:     newDestBalance,
			Reference:        inReference,
			Description:      "Transfer from " + money.MaskAccountNumber(source.AccountNumber),
			RelatedAccountID: &source.ID,
		}); err != nil {
			return err
		}
		destID = destination.ID
		destBalance = newDestBalance
		destAvailable = newDestAvailable
		receipt = TransferReceipt{
			Reference:         outReference,
			Amount:            amount,
			Balance:           newSourceBalance,
			Available:         newSourceAvailable,
			DestinationMasked: money.MaskAccountNumber(destination.AccountNumber),
		}
		return nil
	})
	if err != nil {
		s.auditDecline(ctx, EventTransferDeclined, sourceAccountID, amount, err)
		return TransferReceipt{}, err
	}
	s.audit.Record(ctx, EventTransfer, &sourceAccountID, nil, details(map[string]any{
		"amount":      amount,
		"destination": destID,
		"reference":   receipt.Reference,
	}))
	s.broadcast(sourceAccountID, receipt.Balance, receipt.Available)
	s.broadcast(destID, destBalance, destAvailable)
	return receipt, nil
}

// PostFee debits a service fee against available funds and records a FEE row.
func (s *TransactionService) PostFee(ctx context.Context, accountID, amount int64, description string) (string, error) {
	if amount <= 0 {
		return "", ErrInvalidAmount
	}
	var reference string
	var balance, available int64
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		account, err := s.accounts.GetForUpdate(ctx, tx, accountID)
		if err != nil {
			return err
		}
		if err := checkOperational(account); err != nil {
			return err
		}
		if account.Available < amount {
			return ErrInsufficientFunds
		}
		balance = account.Balance - amount
		available = account.Available - amount
		if err := s.accounts.UpdateBalances(ctx, tx, accountID, balance, available); err != nil {
			return err
		}
		reference = money.NewReference(s.now())
		return s.txStore.Create(ctx, tx, store.TransactionInput{
			AccountID:    accountID,
			Type:         models.TxFee,
			Amount:       amount,
			BalanceAfter: balance,
			Reference:    reference,
			Description:  description,
		})
	})
	if err != nil {
		return "", err
	}
	s.audit.Record(ctx, EventFeePosted, &accountID, nil, details(map[string]any{
		"amount":    amount,
		"reference": reference,
	}))
	s.broadcast(accountID, balance, available)
	return reference, nil
}

// AccrueInterest credits periodic interest at the given basis-point rate for
// the period, computed with banker's rounding on the ledger balance.
func (s *TransactionService) AccrueInterest(ctx context.Context, accountID, rateBps int64) (string, error) {
	if rateBps <= 0 {
		return "", ErrInvalidAmount
	}
	var reference string
	var balance, available int64
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		account, err := s.accounts.GetForUpdate(ctx, tx, accountID)
		if err != nil {
			return err
		}
		if err := checkOperational(account); err != nil {
			return err
		}
		interest := decimal.NewFromInt(account.Balance).
			Mul(decimal.NewFromInt(rateBps)).
			Div(decimal.NewFromInt(10000)).
			RoundBank(0).
			IntPart()
		if interest <= 0 {
			return nil
		}
		balance = account.Balance + interest
		available = account.Available + interest
		if err := s.accounts.UpdateBalances(ctx, tx, accountID, balance, available); err != nil {
			return err
		}
		reference = money.NewReference(s.now())
		return s.txStore.Create(ctx, tx, store.TransactionInput{
			AccountID:    accountID,
			Type:         models.TxInterest,
			Amount:       interest,
			BalanceAfter: balance,
			Reference:    reference,
			Description:  "Interest credit",
		})
	})
	if err != nil {
		return "", err
	}
	if reference != "" {
		s.audit.Record(ctx, EventInterestPosted, &accountID, nil, details(map[string]any{"reference": reference}))
		s.broadcast(accountID, balance, available)
	}
	return reference, nil
}

func (s *TransactionService) History(ctx context.Context, accountID int64, limit, offset int) ([]models.Transaction, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.txStore.ListByAccount(ctx, accountID, limit, offset)
}

// RolloverDay is invoked by the operator's scheduler, not by a timer in the
// engine: it zeroes every account's daily usage counters.
func (s *TransactionService) RolloverDay(ctx context.Context) (int64, error) {
	var reset int64
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		count, err := s.accounts.ResetDailyUsage(ctx, tx)
		if err != nil {
			return err
		}
		reset = count
		return nil
	})
	if err != nil {
		return 0, err
	}
	s.audit.Record(ctx, EventDayRollover, nil, nil, details(map[string]any{"accounts_reset": reset}))
	return reset, nil
}

// ReleaseHolds matures deposit holds whose hold_until has passed.
func (s *TransactionService) ReleaseHolds(ctx context.Context) (int64, error) {
	var released int64
	asOf := s.now()
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		count, err := s.accounts.ReleaseMaturedHolds(ctx, tx, asOf)
		if err != nil {
			return err
		}
		released = count
		return nil
	})
	if err != nil {
		return 0, err
	}
	s.audit.Record(ctx, EventHoldsReleased, nil, nil, details(map[string]any{"accounts_released": released}))
	return released, nil
}

func (s *TransactionService) withdrawalLimit(account models.Account) int64 {
	if account.DailyWithdrawalLimit != nil {
		return *account.DailyWithdrawalLimit
	}
	return s.cfg.DailyWithdrawalLimit
}

func (s *TransactionService) transferLimit(account models.Account) int64 {
	if account.DailyTransferLimit != nil {
		return *account.DailyTransferLimit
	}
	return s.cfg.DailyTransferLimit
}

func (s *TransactionService) auditDecline(ctx context.Context, eventType string, accountID, amount int64, cause error) {
	switch {
	case errors.Is(cause, ErrInsufficientFunds),
		errors.Is(cause, ErrDailyLimitExceeded),
		errors.Is(cause, ErrInsufficientInventory),
		errors.Is(cause, ErrDestinationNotFound),
		errors.Is(cause, ErrDestinationUnavailable):
		s.audit.Record(ctx, eventType, &accountID, nil, details(map[string]any{
			"amount": amount,
			"reason": cause.Error(),
		}))
	}
}

func (s *TransactionService) broadcast(accountID, balance, available int64) {
	s.hub.BroadcastBalance(accountID, websocket.BalanceUpdate{
		AccountID: accountID,
		Balance:   money.FormatMinor(balance),
		Available: money.FormatMinor(available),
	})
}

// lockPair acquires both row locks in ascending id order so concurrent
// transfers over the same pair cannot deadlock.
func (s *TransactionService) lockPair(ctx context.Context, tx store.Getter, firstID, secondID int64) (models.Account, models.Account, error) {
	leftID, rightID := firstID, secondID
	if rightID < leftID {
		leftID, rightID = rightID, leftID
	}
	left, err := s.accounts.GetForUpdate(ctx, tx, leftID)
	if err != nil {
		return models.Account{}, models.Account{}, err
	}
	right, err := s.accounts.GetForUpdate(ctx, tx, rightID)
	if err != nil {
		return models.Account{}, models.Account{}, err
	}
	if firstID == leftID {
		return left, right, nil
	}
	return right, left, nil
}

func checkOperational(account models.Account) error {
	switch account.Status {
	case models.StatusFrozen:
		return fmt.Errorf("%w: account is frozen", ErrAccountUnavailable)
	case models.StatusClosed:
		return fmt.Errorf("%w: account is closed", ErrAccountUnavailable)
	}
	return nil
}

// addBusinessDays steps forward one calendar day at a time, counting only
// weekdays. Holidays are intentionally not modeled.
func addBusinessDays(from time.Time, days int) time.Time {
	t := from
	for remaining := days; remaining > 0; {
		t = t.AddDate(0, 0, 1)
		if t.Weekday() != time.Saturday && t.Weekday() != time.Sunday {
			remaining--
		}
	}
	return t
}
