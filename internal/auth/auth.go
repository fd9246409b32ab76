package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidToken = errors.New("invalid token")

// HashPIN runs the PIN through an HMAC with the application pepper before
// bcrypt, so a leaked database alone is not enough to brute-force short PINs.
func HashPIN(pin, pepper string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword(pepperPIN(pin, pepper), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func CheckPIN(hash, pin, pepper string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), pepperPIN(pin, pepper)) == nil
}

func pepperPIN(pin, pepper string) []byte {
	mac := hmac.New(sha256.New, []byte(pepper))
	mac.Write([]byte(pin))
	return []byte(hex.EncodeToString(mac.Sum(nil)))
}

type Claims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// GenerateToken wraps the server-side session id in a signed bearer token.
// No exp claim: the session store's sliding TTL is authoritative, and a valid
// signature with no live session is still unauthenticated.
func GenerateToken(secret, sessionID string) (string, error) {
	claims := Claims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func ParseToken(secret, tokenString string) (Claims, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return Claims{}, ErrInvalidToken
	}
	return claims, nil
}
