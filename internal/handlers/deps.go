package handlers

import (
	"context"

	"atmcore/internal/models"
	"atmcore/internal/services"
)

type AuthService interface {
	Authenticate(ctx context.Context, cardNumber, pin string) (services.AuthResult, error)
	ValidateSession(ctx context.Context, token string) (models.Session, bool, error)
	Logout(ctx context.Context, token string) (bool, error)
	ChangePin(ctx context.Context, token, currentPin, newPin, confirmPin string) error
}

type TransactionService interface {
	Withdraw(ctx context.Context, accountID, amount int64) (services.WithdrawReceipt, error)
	Deposit(ctx context.Context, accountID, amount int64, kind, checkNumber string) (services.DepositReceipt, error)
	Transfer(ctx context.Context, sourceAccountID int64, destinationNumber string, amount int64) (services.TransferReceipt, error)
	History(ctx context.Context, accountID int64, limit, offset int) ([]models.Transaction, error)
	PostFee(ctx context.Context, accountID, amount int64, description string) (string, error)
	AccrueInterest(ctx context.Context, accountID, rateBps int64) (string, error)
	RolloverDay(ctx context.Context) (int64, error)
	ReleaseHolds(ctx context.Context) (int64, error)
}

type AccountReader interface {
	GetByID(ctx context.Context, accountID int64) (models.Account, error)
}

type Inventory interface {
	Restock(denomination int64, count int) error
	Counts() []models.Cassette
}

type AuditReader interface {
	List(ctx context.Context, limit, offset int) ([]map[string]any, error)
}
