package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ClientClaims identify one browser. The client id keys that browser's state
// in the session store.
type ClientClaims struct {
	ClientID uuid.UUID `json:"client_id"`
	jwt.RegisteredClaims
}

func NewClientClaims(clientID uuid.UUID, duration time.Duration) (*ClientClaims, error) {
	tokenID, err := uuid.NewRandom()
	if err != nil {
		return nil, fmt.Errorf("error generating token iD: %w", err)
	}

	now := time.Now()
	return &ClientClaims{
		ClientID: clientID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        tokenID.String(),
			Subject:   clientID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(duration)),
		},
	}, nil
}
