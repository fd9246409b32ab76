package handlers

import (
	"context"
	"net/http"
	"testing"
	"time"

	"atmcore/internal/models"
	"atmcore/internal/services"
)

func TestWithdrawThroughRouter(t *testing.T) {
	auth := sessionFor("live-token", 7)
	service := &stubTransactionService{
		withdrawFn: func(_ context.Context, accountID, amount int64) (services.WithdrawReceipt, error) {
			if accountID != 7 {
				t.Fatalf("account id = %d", accountID)
			}
			if amount != 10000 {
				t.Fatalf("amount = %d", amount)
			}
			return services.WithdrawReceipt{
				Reference: "TXN-20260830-AAAA",
				Amount:    10000,
				Balance:   515000,
				Available: 505000,
				Breakdown: map[int64]int{10000: 1},
			}, nil
		},
	}
	router := newTestHandler(auth, service, nil, nil, nil)

	recorder := doJSON(t, router, http.MethodPost, "/transactions/withdraw", "live-token", `{"amount":"100.00"}`)
	if recorder.Code != http.StatusCreated {
		t.Fatalf("status = %d body = %s", recorder.Code, recorder.Body.String())
	}
	payload := decodeBody(t, recorder)
	if payload["reference"] != "TXN-20260830-AAAA" {
		t.Fatalf("reference = %v", payload["reference"])
	}
	if payload["amount"] != "100.00" || payload["balance"] != "5150.00" {
		t.Fatalf("amounts = %v / %v", payload["amount"], payload["balance"])
	}
	bills, ok := payload["bills"].(map[string]any)
	if !ok || bills["10000"] != float64(1) {
		t.Fatalf("bills = %v", payload["bills"])
	}
}

func TestWithdrawRequiresSession(t *testing.T) {
	service := &stubTransactionService{
		withdrawFn: func(context.Context, int64, int64) (services.WithdrawReceipt, error) {
			t.Fatal("withdraw must not run without a session")
			return services.WithdrawReceipt{}, nil
		},
	}
	router := newTestHandler(sessionFor("live-token", 7), service, nil, nil, nil)

	recorder := doJSON(t, router, http.MethodPost, "/transactions/withdraw", "", `{"amount":"100.00"}`)
	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("status without token = %d", recorder.Code)
	}
	recorder = doJSON(t, router, http.MethodPost, "/transactions/withdraw", "expired-token", `{"amount":"100.00"}`)
	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("status with dead token = %d", recorder.Code)
	}
}

func TestWithdrawAmountValidation(t *testing.T) {
	service := &stubTransactionService{
		withdrawFn: func(context.Context, int64, int64) (services.WithdrawReceipt, error) {
			t.Fatal("withdraw must not run for an unparseable amount")
			return services.WithdrawReceipt{}, nil
		},
	}
	router := newTestHandler(sessionFor("live-token", 7), service, nil, nil, nil)

	for _, amount := range []string{"", "abc", "-20.00", "0", "20.001"} {
		recorder := doJSON(t, router, http.MethodPost, "/transactions/withdraw", "live-token", `{"amount":"`+amount+`"}`)
		if recorder.Code != http.StatusBadRequest {
			t.Fatalf("amount %q: status = %d", amount, recorder.Code)
		}
	}
}

func TestServiceErrorStatusMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"invalid amount", services.ErrInvalidAmount, http.StatusBadRequest},
		{"invalid request", services.ErrInvalidRequest, http.StatusBadRequest},
		{"insufficient funds", services.ErrInsufficientFunds, http.StatusUnprocessableEntity},
		{"daily limit", services.ErrDailyLimitExceeded, http.StatusUnprocessableEntity},
		{"cash inventory", services.ErrInsufficientInventory, http.StatusUnprocessableEntity},
		{"frozen account", services.ErrAccountUnavailable, http.StatusForbidden},
		{"frozen destination", services.ErrDestinationUnavailable, http.StatusForbidden},
		{"unknown destination", services.ErrDestinationNotFound, http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			service := &stubTransactionService{
				withdrawFn: func(context.Context, int64, int64) (services.WithdrawReceipt, error) {
					return services.WithdrawReceipt{}, tc.err
				},
			}
			router := newTestHandler(sessionFor("live-token", 7), service, nil, nil, nil)
			recorder := doJSON(t, router, http.MethodPost, "/transactions/withdraw", "live-token", `{"amount":"20.00"}`)
			if recorder.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d", recorder.Code, tc.wantStatus)
			}
		})
	}
}

func TestDepositThroughRouter(t *testing.T) {
	holdUntil := time.Date(2026, time.August, 26, 10, 30, 0, 0, time.UTC)
	service := &stubTransactionService{
		depositFn: func(_ context.Context, accountID, amount int64, kind, checkNumber string) (services.DepositReceipt, error) {
			if accountID != 7 || amount != 50000 || kind != "cash" || checkNumber != "" {
				t.Fatalf("deposit args = %d %d %q %q", accountID, amount, kind, checkNumber)
			}
			return services.DepositReceipt{
				Reference:            "TXN-20260825-BBBB",
				Amount:               50000,
				Balance:              135075,
				Available:            105075,
				AvailableImmediately: 20000,
				Held:                 30000,
				HoldUntil:            &holdUntil,
			}, nil
		},
	}
	router := newTestHandler(sessionFor("live-token", 7), service, nil, nil, nil)

	recorder := doJSON(t, router, http.MethodPost, "/transactions/deposit", "live-token", `{"amount":"500.00","kind":"cash"}`)
	if recorder.Code != http.StatusCreated {
		t.Fatalf("status = %d body = %s", recorder.Code, recorder.Body.String())
	}
	payload := decodeBody(t, recorder)
	if payload["available_immediately"] != "200.00" || payload["held"] != "300.00" {
		t.Fatalf("split = %v / %v", payload["available_immediately"], payload["held"])
	}
	if payload["hold_until"] == nil {
		t.Fatal("expected hold_until in payload")
	}
}

func TestTransferThroughRouter(t *testing.T) {
	service := &stubTransactionService{
		transferFn: func(_ context.Context, sourceAccountID int64, destinationNumber string, amount int64) (services.TransferReceipt, error) {
			if sourceAccountID != 7 || destinationNumber != "2000300040005000" || amount != 100000 {
				t.Fatalf("transfer args = %d %q %d", sourceAccountID, destinationNumber, amount)
			}
			return services.TransferReceipt{
				Reference:         "TXN-20260830-CCCC",
				Amount:            100000,
				Balance:           400000,
				Available:         400000,
				DestinationMasked: "************5000",
			}, nil
		},
	}
	router := newTestHandler(sessionFor("live-token", 7), service, nil, nil, nil)

	body := `{"destination_account_number":"2000300040005000","amount":"1000.00"}`
	recorder := doJSON(t, router, http.MethodPost, "/transactions/transfer", "live-token", body)
	if recorder.Code != http.StatusCreated {
		t.Fatalf("status = %d body = %s", recorder.Code, recorder.Body.String())
	}
	payload := decodeBody(t, recorder)
	if payload["destination"] != "************5000" {
		t.Fatalf("destination = %v", payload["destination"])
	}
}

func TestListTransactions(t *testing.T) {
	service := &stubTransactionService{
		historyFn: func(_ context.Context, accountID int64, limit, offset int) ([]models.Transaction, error) {
			if accountID != 7 || limit != 5 || offset != 10 {
				t.Fatalf("history args = %d %d %d", accountID, limit, offset)
			}
			return []models.Transaction{{ID: 42, Type: models.TxWithdrawal, Amount: 10000}}, nil
		},
	}
	router := newTestHandler(sessionFor("live-token", 7), service, nil, nil, nil)

	recorder := doJSON(t, router, http.MethodGet, "/transactions?limit=5&offset=10", "live-token", "")
	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d", recorder.Code)
	}
	payload := decodeBody(t, recorder)
	transactions, ok := payload["transactions"].([]any)
	if !ok || len(transactions) != 1 {
		t.Fatalf("transactions = %v", payload["transactions"])
	}
}
