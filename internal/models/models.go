package models

import "time"

const (
	AccountChecking = "CHECKING"
	AccountSavings  = "SAVINGS"

	StatusActive = "ACTIVE"
	StatusFrozen = "FROZEN"
	StatusClosed = "CLOSED"
)

const (
	TxWithdrawal   = "WITHDRAWAL"
	TxDepositCash  = "DEPOSIT_CASH"
	TxDepositCheck = "DEPOSIT_CHECK"
	TxTransferIn   = "TRANSFER_IN"
	TxTransferOut  = "TRANSFER_OUT"
	TxFee          = "FEE"
	TxInterest     = "INTEREST"
)

type Account struct {
	ID                   int64     `db:"id" json:"id"`
	AccountNumber        string    `db:"account_number" json:"account_number"`
	OwnerName            string    `db:"owner_name" json:"owner_name"`
	Type                 string    `db:"type" json:"type"`
	Status               string    `db:"status" json:"status"`
	Balance              int64     `db:"balance" json:"balance"`
	Available            int64     `db:"available" json:"available"`
	DailyWithdrawalUsed  int64     `db:"daily_withdrawal_used" json:"daily_withdrawal_used"`
	DailyTransferUsed    int64     `db:"daily_transfer_used" json:"daily_transfer_used"`
	DailyWithdrawalLimit *int64    `db:"daily_withdrawal_limit" json:"daily_withdrawal_limit,omitempty"`
	DailyTransferLimit   *int64    `db:"daily_transfer_limit" json:"daily_transfer_limit,omitempty"`
	CreatedAt            time.Time `db:"created_at" json:"created_at"`
}

type Transaction struct {
	ID               int64      `db:"id" json:"id"`
	AccountID        int64      `db:"account_id" json:"account_id"`
	Type             string     `db:"type" json:"type"`
	Amount           int64      `db:"amount" json:"amount"`
	BalanceAfter     int64      `db:"balance_after" json:"balance_after"`
	Reference        string     `db:"reference" json:"reference"`
	Description      string     `db:"description" json:"description"`
	RelatedAccountID *int64     `db:"related_account_id" json:"related_account_id,omitempty"`
	CheckNumber      *string    `db:"check_number" json:"check_number,omitempty"`
	HeldAmount       int64      `db:"held_amount" json:"held_amount"`
	HoldUntil        *time.Time `db:"hold_until" json:"hold_until,omitempty"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
}

type AuthCard struct {
	ID             int64      `db:"id" json:"id"`
	CardNumber     string     `db:"card_number" json:"card_number"`
	AccountID      int64      `db:"account_id" json:"account_id"`
	PINHash        string     `db:"pin_hash" json:"-"`
	FailedAttempts int        `db:"failed_attempts" json:"failed_attempts"`
	LockedUntil    *time.Time `db:"locked_until" json:"locked_until,omitempty"`
	IsActive       bool       `db:"is_active" json:"is_active"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
}

type Session struct {
	Token        string    `json:"token"`
	AccountID    int64     `json:"account_id"`
	OwnerName    string    `json:"owner_name"`
	CardID       int64     `json:"card_id"`
	CreatedAt    time.Time `json:"created_at"`
	LastActivity time.Time `json:"last_activity"`
}

type Cassette struct {
	Denomination int64 `json:"denomination"`
	Count        int   `json:"count"`
	Capacity     int   `json:"capacity"`
}
