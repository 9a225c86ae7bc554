package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type TokenMaker struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenMaker(secret string, ttl time.Duration) *TokenMaker {
	return &TokenMaker{secret: []byte(secret), ttl: ttl}
}

// TTL is how long issued tokens stay valid.
func (m *TokenMaker) TTL() time.Duration {
	return m.ttl
}

// Issue signs a token for clientID.
func (m *TokenMaker) Issue(clientID uuid.UUID) (string, *ClientClaims, error) {
	claims, err := NewClientClaims(clientID, m.ttl)
	if err != nil {
		return "", nil, err
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", nil, fmt.Errorf("sign client token: %w", err)
	}
	return signed, claims, nil
}

func (m *TokenMaker) Verify(tokenStr string) (*ClientClaims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &ClientClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse client token: %w", err)
	}
	claims, ok := token.Claims.(*ClientClaims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenUnverifiable
	}
	if claims.ClientID == uuid.Nil {
		return nil, errors.New("client token without client id")
	}
	return claims, nil
}
