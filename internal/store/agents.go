package store

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Agent represents a row in the agents table: one registered monitoring
// client authorized to call the hook API.
type Agent struct {
	ID              string
	Name            string
	APIKeyHash      string
	APIKeyPrefix    string
	BlockingEnabled bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// GenerateAPIKey creates a new snt_ API key with its bcrypt hash and prefix.
// Returns (fullKey, hash, prefix, error). The fullKey is shown to the user once.
func GenerateAPIKey() (string, string, string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", "", "", fmt.Errorf("GenerateAPIKey: %w", err)
	}
	fullKey := "snt_" + hex.EncodeToString(raw) // 68 chars total

	hashBytes, err := bcrypt.GenerateFromPassword([]byte(fullKey), bcrypt.DefaultCost)
	if err != nil {
		return "", "", "", fmt.Errorf("GenerateAPIKey: %w", err)
	}

	prefix := fullKey[:8] // "snt_abcd"
	return fullKey, string(hashBytes), prefix, nil
}

// CreateAgent registers a new agent and returns it with the plaintext API key
// (shown once).
func (s *Store) CreateAgent(ctx context.Context, name string) (*Agent, string, error) {
	fullKey, keyHash, keyPrefix, err := GenerateAPIKey()
	if err != nil {
		return nil, "", fmt.Errorf("CreateAgent: %w", err)
	}

	var a Agent
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO agents (name, api_key_hash, api_key_prefix)
		VALUES ($1, $2, $3)
		RETURNING id, name, api_key_hash, api_key_prefix, blocking_enabled, created_at, updated_at`,
		name, keyHash, keyPrefix,
	).Scan(&a.ID, &a.Name, &a.APIKeyHash, &a.APIKeyPrefix, &a.BlockingEnabled,
		&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, "", fmt.Errorf("CreateAgent: %w", err)
	}

	return &a, fullKey, nil
}

// LookupByPrefix returns the agent whose API key starts with the given
// prefix, or nil when none matches.
func (s *Store) LookupByPrefix(ctx context.Context, prefix string) (*Agent, error) {
	var a Agent
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, api_key_hash, api_key_prefix, blocking_enabled, created_at, updated_at
		FROM agents WHERE api_key_prefix = $1`,
		prefix,
	).Scan(&a.ID, &a.Name, &a.APIKeyHash, &a.APIKeyPrefix, &a.BlockingEnabled,
		&a.CreatedAt, &a.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("LookupByPrefix: %w", err)
	}
	return &a, nil
}

// RotateKey replaces an agent's API key, returning the new plaintext key
// (shown once).
func (s *Store) RotateKey(ctx context.Context, agentID string) (string, error) {
	fullKey, keyHash, keyPrefix, err := GenerateAPIKey()
	if err != nil {
		return "", fmt.Errorf("RotateKey: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE agents SET api_key_hash = $1, api_key_prefix = $2, updated_at = now()
		WHERE id = $3`,
		keyHash, keyPrefix, agentID,
	)
	if err != nil {
		return "", fmt.Errorf("RotateKey: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return "", fmt.Errorf("RotateKey: agent not found")
	}
	return fullKey, nil
}
