package service

import (
	"checkout-builder/internal/apperr"
	"checkout-builder/internal/config"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenService issues the signed session tokens of the merchant dashboard.
type TokenService interface {
	Issue(merchantID string) (string, error)
	// Parse returns the merchant id carried by a valid token.
	Parse(token string) (string, error)
}

type tokenServiceImpl struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenService(cfg config.Auth) TokenService {
	return &tokenServiceImpl{
		secret: []byte(cfg.JWTSecret),
		ttl:    cfg.TokenTTL,
		now:    time.Now,
	}
}

func (s *tokenServiceImpl) Issue(merchantID string) (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   merchantID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *tokenServiceImpl) Parse(token string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", apperr.UnauthorizedErr("Your session has expired, please log in again.")
		}
		return "", apperr.UnauthorizedErr("Invalid session token.")
	}
	if claims.Subject == "" {
		return "", apperr.UnauthorizedErr("Invalid session token.")
	}
	return claims.Subject, nil
}
