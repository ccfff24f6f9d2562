package core

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// An enricher is a worker process which augments records with external data.
// It authenticates with a name and a bearer token and reports liveness by
// pinging. Only the bcrypt hash of the token is stored.
type DBEnricher interface {
	ID() int
	Name() string
	LastPing() time.Time
}

type EnricherDB interface {
	GetAllEnrichers(limit, offset int) ([]DBEnricher, error)
	InsertEnricher(name, tokenHash string) error
	TokenHash(name string) (string, error) // ErrNotFound if unknown
	Ping(name string) error                // ErrNotFound if unknown
	PruneEnrichers(lastPingBefore time.Time) (int, error)
	Writeable() bool
}

// RegisterEnricher creates an enricher and returns its token. The token is
// shown once and cannot be recovered later.
func (c *CoreDB) RegisterEnricher(name string) (string, error) {
	token := uuid.NewString()
	hash, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	if err := c.EnricherDB.InsertEnricher(name, string(hash)); err != nil {
		return "", fmt.Errorf("insert enricher: %w", err)
	}
	return token, nil
}

// PingEnricher refreshes the liveness timestamp of an enricher. It returns
// ErrNotFound for an unknown name and ErrUnauthorized for a wrong token.
func (c *CoreDB) PingEnricher(name, token string) error {
	hash, err := c.EnricherDB.TokenHash(name)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(token)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrUnauthorized
		}
		return err
	}
	return c.EnricherDB.Ping(name)
}

// PruneEnrichers removes enrichers which have not pinged for maxSilence.
func (c *CoreDB) PruneEnrichers(maxSilence time.Duration) (int, error) {
	return c.EnricherDB.PruneEnrichers(time.Now().Add(-maxSilence))
}
