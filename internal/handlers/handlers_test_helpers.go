package handlers

import (
	"context"
	"net/http"

	"atmcore/internal/config"
	"atmcore/internal/models"
	"atmcore/internal/services"
	"atmcore/internal/websocket"
)

func testHandlerConfig() config.Config {
	return config.Config{
		AppEnv:         "test",
		AllowedOrigins: "*",
		MaintenanceKey: "branch-key",
	}
}

func newTestHandler(auth AuthService, service TransactionService, accounts AccountReader, inventory Inventory, audit AuditReader) http.Handler {
	if accounts == nil {
		accounts = &stubAccountReader{getByIDFn: func(context.Context, int64) (models.Account, error) {
			return models.Account{}, nil
		}}
	}
	if inventory == nil {
		inventory = &stubInventory{restockFn: func(int64, int) error { return nil }}
	}
	if audit == nil {
		audit = &stubAuditReader{listFn: func(context.Context, int, int) ([]map[string]any, error) {
			return nil, nil
		}}
	}
	h := New(testHandlerConfig(), auth, service, accounts, inventory, audit, websocket.NewHub())
	return h.Routes()
}

// sessionFor returns an auth stub whose only live token is the given one.
func sessionFor(token string, accountID int64) *stubAuthService {
	return &stubAuthService{
		validateSessionFn: func(_ context.Context, got string) (models.Session, bool, error) {
			if got != token {
				return models.Session{}, false, nil
			}
			return models.Session{Token: token, AccountID: accountID, OwnerName: "Dana Whitfield", CardID: 11}, true, nil
		},
	}
}

type stubAuthService struct {
	authenticateFn    func(ctx context.Context, cardNumber, pin string) (services.AuthResult, error)
	validateSessionFn func(ctx context.Context, token string) (models.Session, bool, error)
	logoutFn          func(ctx context.Context, token string) (bool, error)
	changePinFn       func(ctx context.Context, token, currentPin, newPin, confirmPin string) error
}

func (s *stubAuthService) Authenticate(ctx context.Context, cardNumber, pin string) (services.AuthResult, error) {
	return s.authenticateFn(ctx, cardNumber, pin)
}

func (s *stubAuthService) ValidateSession(ctx context.Context, token string) (models.Session, bool, error) {
	if s.validateSessionFn == nil {
		return models.Session{}, false, nil
	}
	return s.validateSessionFn(ctx, token)
}

func (s *stubAuthService) Logout(ctx context.Context, token string) (bool, error) {
	return s.logoutFn(ctx, token)
}

func (s *stubAuthService) ChangePin(ctx context.Context, token, currentPin, newPin, confirmPin string) error {
	return s.changePinFn(ctx, token, currentPin, newPin, confirmPin)
}

type stubTransactionService struct {
	withdrawFn     func(ctx context.Context, accountID, amount int64) (services.WithdrawReceipt, error)
	depositFn      func(ctx context.Context, accountID, amount int64, kind, checkNumber string) (services.DepositReceipt, error)
	transferFn     func(ctx context.Context, sourceAccountID int64, destinationNumber string, amount int64) (services.TransferReceipt, error)
	historyFn      func(ctx context.Context, accountID int64, limit, offset int) ([]models.Transaction, error)
	postFeeFn      func(ctx context.Context, accountID, amount int64, description string) (string, error)
	interestFn     func(ctx context.Context, accountID, rateBps int64) (string, error)
	rolloverFn     func(ctx context.Context) (int64, error)
	releaseHoldsFn func(ctx context.Context) (int64, error)
}

func (s *stubTransactionService) Withdraw(ctx context.Context, accountID, amount int64) (services.WithdrawReceipt, error) {
	return s.withdrawFn(ctx, accountID, amount)
}

func (s *stubTransactionService) Deposit(ctx context.Context, accountID, amount int64, kind, checkNumber string) (services.DepositReceipt, error) {
	return s.depositFn(ctx, accountID, amount, kind, checkNumber)
}

func (s *stubTransactionService) Transfer(ctx context.Context, sourceAccountID int64, destinationNumber string, amount int64) (services.TransferReceipt, error) {
	return s.transferFn(ctx, sourceAccountID, destinationNumber, amount)
}

func (s *stubTransactionService) History(ctx context.Context, accountID int64, limit, offset int) ([]models.Transaction, error) {
	return s.historyFn(ctx, accountID, limit, offset)
}

func (s *stubTransactionService) PostFee(ctx context.Context, accountID, amount int64, description string) (string, error) {
	return s.postFeeFn(ctx, accountID, amount, description)
}

func (s *stubTransactionService) AccrueInterest(ctx context.Context, accountID, rateBps int64) (string, error) {
	return s.interestFn(ctx, accountID, rateBps)
}

func (s *stubTransactionService) RolloverDay(ctx context.Context) (int64, error) {
	return s.rolloverFn(ctx)
}

func (s *stubTransactionService) ReleaseHolds(ctx context.Context) (int64, error) {
	return s.releaseHoldsFn(ctx)
}

type stubAccountReader struct {
	getByIDFn func(ctx context.Context, accountID int64) (models.Account, error)
}

func (s *stubAccountReader) GetByID(ctx context.Context, accountID int64) (models.Account, error) {
	return s.getByIDFn(ctx, accountID)
}

type stubInventory struct {
	restockFn func(denomination int64, count int) error
	countsFn  func() []models.Cassette
}

func (s *stubInventory) Restock(denomination int64, count int) error {
	return s.restockFn(denomination, count)
}

func (s *stubInventory) Counts() []models.Cassette {
	if s.countsFn == nil {
		return nil
	}
	return s.countsFn()
}

type stubAuditReader struct {
	listFn func(ctx context.Context, limit, offset int) ([]map[string]any, error)
}

func (s *stubAuditReader) List(ctx context.Context, limit, offset int) ([]map[string]any, error) {
	return s.listFn(ctx, limit, offset)
}
