package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"atmcore/internal/auth"
	"atmcore/internal/config"
	"atmcore/internal/db"
	"atmcore/internal/models"
	"atmcore/internal/money"
	"atmcore/internal/session"
	"atmcore/internal/store"
	"atmcore/internal/validator"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

var (
	// ErrAuthenticationFailed is deliberately identical for a missing card,
	// an inactive card, and a wrong PIN, so callers cannot probe which cards
	// exist.
	ErrAuthenticationFailed = errors.New("invalid card or PIN")
	ErrAccountLocked        = errors.New("card is locked")
	ErrSessionExpired       = errors.New("session expired")
	ErrPinChangeRejected    = errors.New("PIN change rejected")
)

const (
	EventLoginSuccess    = "LOGIN_SUCCESS"
	EventLoginFailed     = "LOGIN_FAILED"
	EventAccountLocked   = "ACCOUNT_LOCKED"
	EventLogout          = "LOGOUT"
	EventPinChanged      = "PIN_CHANGED"
	EventPinChangeFailed = "PIN_CHANGE_FAILED"
)

type CardStore interface {
	GetByNumber(ctx context.Context, cardNumber string) (models.AuthCard, error)
	GetByID(ctx context.Context, cardID int64) (models.AuthCard, error)
	RecordFailure(ctx context.Context, tx store.Getter, cardID int64) (int, error)
	Lock(ctx context.Context, tx store.Execer, cardID int64, until time.Time) error
	ResetFailures(ctx context.Context, tx store.Execer, cardID int64) error
	UpdatePINHash(ctx context.Context, tx store.Execer, cardID int64, pinHash string) error
}

// AuditSink is fire-and-forget: a failed audit write must never roll back the
// operation it describes.
type AuditSink interface {
	Record(ctx context.Context, eventType string, accountID *int64, sessionID *string, details string)
}

type AuthService struct {
	txRunner db.TxRunner
	cards    CardStore
	accounts AccountStore
	sessions session.Store
	audit    AuditSink
	cfg      config.Config
	now      func() time.Time
}

func NewAuthService(txRunner db.TxRunner, cards CardStore, accounts AccountStore, sessions session.Store, audit AuditSink, cfg config.Config) *AuthService {
	return &AuthService{
		txRunner: txRunner,
		cards:    cards,
		accounts: accounts,
		sessions: sessions,
		audit:    audit,
		cfg:      cfg,
		now:      time.Now,
	}
}

type AuthResult struct {
	Token               string
	MaskedAccountNumber string
	OwnerName           string
}

func (s *AuthService) Authenticate(ctx context.Context, cardNumber, pin string) (AuthResult, error) {
	card, err := s.cards.GetByNumber(ctx, cardNumber)
	if err != nil {
		if store.IsNotFound(err) {
			s.audit.Record(ctx, EventLoginFailed, nil, nil, details(map[string]any{"reason": "unknown card"}))
			return AuthResult{}, ErrAuthenticationFailed
		}
		return AuthResult{}, err
	}
	if !card.IsActive {
		s.audit.Record(ctx, EventLoginFailed, &card.AccountID, nil, details(map[string]any{"reason": "inactive card"}))
		return AuthResult{}, ErrAuthenticationFailed
	}
	now := s.now()
	if card.LockedUntil != nil && now.Before(*card.LockedUntil) {
		s.audit.Record(ctx, EventLoginFailed, &card.AccountID, nil, details(map[string]any{"reason": "card locked"}))
		return AuthResult{}, lockedError(card.LockedUntil.Sub(now))
	}
	if !auth.CheckPIN(card.PINHash, pin, s.cfg.PinPepper) {
		return AuthResult{}, s.recordFailedPin(ctx, card)
	}

	if err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		return s.cards.ResetFailures(ctx, tx, card.ID)
	}); err != nil {
		return AuthResult{}, err
	}
	account, err := s.accounts.GetByID(ctx, card.AccountID)
	if err != nil {
		return AuthResult{}, err
	}

	sessionID := uuid.NewString()
	sess := models.Session{
		Token:        sessionID,
		AccountID:    account.ID,
		OwnerName:    account.OwnerName,
		CardID:       card.ID,
		CreatedAt:    now,
		LastActivity: now,
	}
	payload, err := json.Marshal(sess)
	if err != nil {
		return AuthResult{}, err
	}
	if err := s.sessions.SetWithTTL(ctx, sessionKey(sessionID), payload, s.cfg.SessionTTL); err != nil {
		return AuthResult{}, err
	}
	token, err := auth.GenerateToken(s.cfg.JWTSecret, sessionID)
	if err != nil {
		return AuthResult{}, err
	}
	s.audit.Record(ctx, EventLoginSuccess, &account.ID, &sessionID, details(map[string]any{"card_id": card.ID}))
	return AuthResult{
		Token:               token,
		MaskedAccountNumber: money.MaskAccountNumber(account.AccountNumber),
		OwnerName:           account.OwnerName,
	}, nil
}

func (s *AuthService) recordFailedPin(ctx context.Context, card models.AuthCard) error {
	var attempts int
	lockUntil := s.now().Add(s.cfg.LockoutDuration)
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		count, err := s.cards.RecordFailure(ctx, tx, card.ID)
		if err != nil {
			return err
		}
		attempts = count
		if attempts >= s.cfg.MaxPinAttempts {
			return s.cards.Lock(ctx, tx, card.ID, lockUntil)
		}
		return nil
	})
	if err != nil {
		return err
	}
	if attempts >= s.cfg.MaxPinAttempts {
		s.audit.Record(ctx, EventAccountLocked, &card.AccountID, nil, details(map[string]any{
			"failed_attempts": attempts,
			"locked_until":    lockUntil.UTC(),
		}))
		return lockedError(s.cfg.LockoutDuration)
	}
	s.audit.Record(ctx, EventLoginFailed, &card.AccountID, nil, details(map[string]any{
		"reason":          "wrong PIN",
		"failed_attempts": attempts,
	}))
	return ErrAuthenticationFailed
}

// ValidateSession resolves a bearer token to its live session and slides the
// expiry window. A missing or expired session is not an error: ok is false
// and the caller treats the request as unauthenticated.
func (s *AuthService) ValidateSession(ctx context.Context, token string) (models.Session, bool, error) {
	claims, err := auth.ParseToken(s.cfg.JWTSecret, token)
	if err != nil {
		return models.Session{}, false, nil
	}
	payload, ok, err := s.sessions.Get(ctx, sessionKey(claims.SessionID))
	if err != nil {
		return models.Session{}, false, err
	}
	if !ok {
		return models.Session{}, false, nil
	}
	var sess models.Session
	if err := json.Unmarshal(payload, &sess); err != nil {
		return models.Session{}, false, err
	}
	sess.LastActivity = s.now()
	refreshed, err := json.Marshal(sess)
	if err != nil {
		return models.Session{}, false, err
	}
	if err := s.sessions.SetWithTTL(ctx, sessionKey(claims.SessionID), refreshed, s.cfg.SessionTTL); err != nil {
		return models.Session{}, false, err
	}
	return sess, true, nil
}

func (s *AuthService) Logout(ctx context.Context, token string) (bool, error) {
	claims, err := auth.ParseToken(s.cfg.JWTSecret, token)
	if err != nil {
		return false, nil
	}
	payload, ok, err := s.sessions.Get(ctx, sessionKey(claims.SessionID))
	if err != nil {
		return false, err
	}
	deleted, err := s.sessions.Delete(ctx, sessionKey(claims.SessionID))
	if err != nil {
		return false, err
	}
	if deleted && ok {
		var sess models.Session
		if err := json.Unmarshal(payload, &sess); err == nil {
			s.audit.Record(ctx, EventLogout, &sess.AccountID, &claims.SessionID, "{}")
		}
	}
	return deleted, nil
}

func (s *AuthService) ChangePin(ctx context.Context, token, currentPin, newPin, confirmPin string) error {
	sess, ok, err := s.ValidateSession(ctx, token)
	if err != nil {
		return err
	}
	if !ok {
		return ErrSessionExpired
	}
	card, err := s.cards.GetByID(ctx, sess.CardID)
	if err != nil {
		return err
	}
	if !auth.CheckPIN(card.PINHash, currentPin, s.cfg.PinPepper) {
		return s.rejectPinChange(ctx, sess, "current PIN is incorrect")
	}
	if newPin != confirmPin {
		return s.rejectPinChange(ctx, sess, "new PINs do not match")
	}
	if auth.CheckPIN(card.PINHash, newPin, s.cfg.PinPepper) {
		return s.rejectPinChange(ctx, sess, "new PIN must differ from the current PIN")
	}
	if err := validator.ValidatePIN(newPin); err != nil {
		return s.rejectPinChange(ctx, sess, err.Error())
	}
	hash, err := auth.HashPIN(newPin, s.cfg.PinPepper)
	if err != nil {
		return err
	}
	if err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		return s.cards.UpdatePINHash(ctx, tx, card.ID, hash)
	}); err != nil {
		return err
	}
	s.audit.Record(ctx, EventPinChanged, &sess.AccountID, &sess.Token, details(map[string]any{"card_id": card.ID}))
	return nil
}

func (s *AuthService) rejectPinChange(ctx context.Context, sess models.Session, reason string) error {
	s.audit.Record(ctx, EventPinChangeFailed, &sess.AccountID, &sess.Token, details(map[string]any{"reason": reason}))
	return fmt.Errorf("%w: %s", ErrPinChangeRejected, reason)
}

func lockedError(remaining time.Duration) error {
	minutes := int(math.Ceil(remaining.Minutes()))
	if minutes < 1 {
		minutes = 1
	}
	return fmt.Errorf("%w: try again in %d minute(s)", ErrAccountLocked, minutes)
}

func sessionKey(sessionID string) string {
	return "session:" + sessionID
}

func details(fields map[string]any) string {
	data, err := json.Marshal(fields)
	if err != nil {
		return "{}"
	}
	return string(data)
}
