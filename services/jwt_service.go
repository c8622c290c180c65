package services

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

var ErrInvalidToken = errors.New("invalid session token")

type JWTService struct {
	secretKey []byte
	ttl       time.Duration
}

// SessionTokenClaims binds a client to one NUP session.
type SessionTokenClaims struct {
	SessionID string `json:"sid"`
	NomorNUP  string `json:"nup"`
	jwt.RegisteredClaims
}

func NewJWTService(secretKey string, ttl time.Duration) *JWTService {
	return &JWTService{
		secretKey: []byte(secretKey),
		ttl:       ttl,
	}
}

func (s *JWTService) GenerateSessionToken(sessionID, nomorNUP string) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(s.ttl)
	claims := SessionTokenClaims{
		SessionID: sessionID,
		NomorNUP:  nomorNUP,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Subject:   "nup_session",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secretKey)
	if err != nil {
		return "", time.Time{}, errors.Wrap(err, "failed to sign session token")
	}
	return signed, expiresAt, nil
}

func (s *JWTService) ValidateToken(tokenString string) (*SessionTokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionTokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secretKey, nil
	})
	if err != nil {
		return nil, errors.Wrap(ErrInvalidToken, err.Error())
	}

	if claims, ok := token.Claims.(*SessionTokenClaims); ok && token.Valid && claims.Subject == "nup_session" {
		return claims, nil
	}

	return nil, ErrInvalidToken
}
