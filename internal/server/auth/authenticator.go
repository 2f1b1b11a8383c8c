package auth

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrijs2005/ridekeeper/internal/common"
)

// dummyHash is compared against when the client id is unknown so both paths
// cost one bcrypt comparison.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("ridekeeper"), bcrypt.MinCost)

// Authenticator exchanges API client credentials for access tokens.
type Authenticator struct {
	clients map[string][]byte
	secret  []byte
	ttl     time.Duration
}

// NewAuthenticator takes client ids mapped to bcrypt hashes of their
// secrets.
func NewAuthenticator(clients map[string]string, secretKey string, ttl time.Duration) (*Authenticator, error) {
	a := &Authenticator{
		clients: make(map[string][]byte, len(clients)),
		secret:  []byte(secretKey),
		ttl:     ttl,
	}
	for id, hash := range clients {
		if _, err := bcrypt.Cost([]byte(hash)); err != nil {
			return nil, fmt.Errorf("client %q: %w", id, err)
		}
		a.clients[id] = []byte(hash)
	}
	return a, nil
}

// Login returns a signed access token, or common.ErrorUnauthorized.
func (a *Authenticator) Login(_ context.Context, clientID, secret string) (string, error) {
	hash, ok := a.clients[clientID]
	if !ok {
		hash = dummyHash
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte(secret)); err != nil || !ok {
		return "", common.ErrorUnauthorized
	}

	token, err := GenerateToken(clientID, a.secret, a.ttl)
	if err != nil {
		return "", fmt.Errorf("%w: sign token: %v", common.ErrorInternal, err)
	}
	return token, nil
}

// Verify returns the client id the token was issued to.
func (a *Authenticator) Verify(token string) (string, error) {
	return ClientIDFromToken(token, a.secret)
}

// HashSecret returns the bcrypt hash to put in the server's client list.
func HashSecret(secret string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
