package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"atmcore/internal/services"
)

func doJSON(t *testing.T, router http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body == "" {
		reader = bytes.NewReader(nil)
	} else {
		reader = bytes.NewReader([]byte(body))
	}
	request := httptest.NewRequest(method, path, reader)
	request.Header.Set("Content-Type", "application/json")
	if token != "" {
		request.Header.Set("Authorization", "Bearer "+token)
	}
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)
	return recorder
}

func decodeBody(t *testing.T, recorder *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var payload map[string]any
	if err := json.NewDecoder(recorder.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return payload
}

func TestLoginSuccess(t *testing.T) {
	auth := &stubAuthService{
		authenticateFn: func(_ context.Context, cardNumber, pin string) (services.AuthResult, error) {
			if cardNumber != "5500440033002200" || pin != "8305" {
				t.Fatalf("unexpected credentials %s / %s", cardNumber, pin)
			}
			return services.AuthResult{
				Token:               "session-token",
				MaskedAccountNumber: "************4000",
				OwnerName:           "Dana Whitfield",
			}, nil
		},
	}
	router := newTestHandler(auth, &stubTransactionService{}, nil, nil, nil)

	recorder := doJSON(t, router, http.MethodPost, "/auth/login", "", `{"card_number":"5500440033002200","pin":"8305"}`)
	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", recorder.Code, recorder.Body.String())
	}
	payload := decodeBody(t, recorder)
	if payload["token"] != "session-token" {
		t.Fatalf("token = %v", payload["token"])
	}
	if payload["account_number"] != "************4000" {
		t.Fatalf("account_number = %v", payload["account_number"])
	}
	if payload["display_name"] != "Dana Whitfield" {
		t.Fatalf("display_name = %v", payload["display_name"])
	}
}

func TestLoginRejections(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"bad credentials", services.ErrAuthenticationFailed, http.StatusUnauthorized},
		{"locked card", services.ErrAccountLocked, http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			auth := &stubAuthService{
				authenticateFn: func(context.Context, string, string) (services.AuthResult, error) {
					return services.AuthResult{}, tc.err
				},
			}
			router := newTestHandler(auth, &stubTransactionService{}, nil, nil, nil)
			recorder := doJSON(t, router, http.MethodPost, "/auth/login", "", `{"card_number":"1","pin":"2"}`)
			if recorder.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d", recorder.Code, tc.wantStatus)
			}
			payload := decodeBody(t, recorder)
			if payload["error"] == "" {
				t.Fatal("expected error message in body")
			}
		})
	}
}

func TestLoginMalformedPayload(t *testing.T) {
	auth := &stubAuthService{
		authenticateFn: func(context.Context, string, string) (services.AuthResult, error) {
			t.Fatal("authenticate must not be called for a malformed payload")
			return services.AuthResult{}, nil
		},
	}
	router := newTestHandler(auth, &stubTransactionService{}, nil, nil, nil)
	recorder := doJSON(t, router, http.MethodPost, "/auth/login", "", `{"card_number":`)
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", recorder.Code)
	}
}

func TestLogout(t *testing.T) {
	var gotToken string
	auth := &stubAuthService{
		logoutFn: func(_ context.Context, token string) (bool, error) {
			gotToken = token
			return true, nil
		},
	}
	router := newTestHandler(auth, &stubTransactionService{}, nil, nil, nil)

	recorder := doJSON(t, router, http.MethodPost, "/auth/logout", "session-token", "")
	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d", recorder.Code)
	}
	if gotToken != "session-token" {
		t.Fatalf("token = %q", gotToken)
	}
	if payload := decodeBody(t, recorder); payload["ended"] != true {
		t.Fatalf("ended = %v", payload["ended"])
	}

	recorder = doJSON(t, router, http.MethodPost, "/auth/logout", "", "")
	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("status without token = %d", recorder.Code)
	}
}

func TestChangePinErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"stale session", services.ErrSessionExpired, http.StatusUnauthorized},
		{"weak pin", services.ErrPinChangeRejected, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			auth := &stubAuthService{
				changePinFn: func(context.Context, string, string, string, string) error {
					return tc.err
				},
			}
			router := newTestHandler(auth, &stubTransactionService{}, nil, nil, nil)
			body := `{"current_pin":"8305","new_pin":"4417","confirm_pin":"4417"}`
			recorder := doJSON(t, router, http.MethodPost, "/auth/pin", "session-token", body)
			if recorder.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d", recorder.Code, tc.wantStatus)
			}
		})
	}
}

func TestChangePinSuccess(t *testing.T) {
	var got []string
	auth := &stubAuthService{
		changePinFn: func(_ context.Context, token, currentPin, newPin, confirmPin string) error {
			got = []string{token, currentPin, newPin, confirmPin}
			return nil
		},
	}
	router := newTestHandler(auth, &stubTransactionService{}, nil, nil, nil)
	body := `{"current_pin":"8305","new_pin":"4417","confirm_pin":"4417"}`
	recorder := doJSON(t, router, http.MethodPost, "/auth/pin", "session-token", body)
	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", recorder.Code, recorder.Body.String())
	}
	if strings.Join(got, ",") != "session-token,8305,4417,4417" {
		t.Fatalf("change pin args = %v", got)
	}
}
