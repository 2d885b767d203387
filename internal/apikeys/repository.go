// Package apikeys provides API key management functionality.
package apikeys

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/crmsuite/calendard/internal/crypto"
	"github.com/crmsuite/calendard/internal/database"
	"github.com/crmsuite/calendard/internal/util"
)

// Repository handles API key storage and retrieval.
type Repository struct {
	db     *database.DB
	hasher *crypto.APIKeyHasher
}

// NewRepository creates a new API key repository.
func NewRepository(db *database.DB, hasher *crypto.APIKeyHasher) *Repository {
	return &Repository{
		db:     db,
		hasher: hasher,
	}
}

// AuthenticatedKey represents a validated API key with the CRM user it
// acts on behalf of.
type AuthenticatedKey struct {
	ID        string
	KeyPrefix string
	Name      string
	UserID    string
	UserName  string
	Tier      string
}

// CanWrite reports whether the key may mutate data.
func (k *AuthenticatedKey) CanWrite() bool {
	return k.Tier == database.TierWrite || k.Tier == database.TierAdmin
}

// IsAdmin reports whether the key may manage other keys.
func (k *AuthenticatedKey) IsAdmin() bool {
	return k.Tier == database.TierAdmin
}

// Create generates and stores a new API key bound to a CRM user.
// Returns the stored record and the full key, shown once.
func (r *Repository) Create(ctx context.Context, name, userID, userName, tier string) (*database.APIKey, string, error) {
	if userID == "" {
		return nil, "", fmt.Errorf("user ID is required")
	}

	fullKey, err := r.hasher.GenerateAPIKey(tier)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate API key: %w", err)
	}

	keyID, err := crypto.GenerateAPIKeyID()
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate key ID: %w", err)
	}

	keyHash := r.hasher.HashAPIKey(fullKey)
	keyPrefix := crypto.GetKeyPrefix(fullKey)

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO api_keys (id, key_hash, key_prefix, name, user_id, user_name, tier)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, keyID, keyHash, keyPrefix, name, userID, userName, tier)

	if err != nil {
		return nil, "", fmt.Errorf("failed to insert API key: %w", err)
	}

	apiKey := &database.APIKey{
		ID:        keyID,
		KeyHash:   keyHash,
		KeyPrefix: keyPrefix,
		Name:      name,
		UserID:    userID,
		UserName:  userName,
		Tier:      tier,
		CreatedAt: util.NowUTC(),
	}

	return apiKey, fullKey, nil
}

// Authenticate validates an API key and returns its metadata.
func (r *Repository) Authenticate(ctx context.Context, key string) (*AuthenticatedKey, error) {
	// Cheap format check before touching the database
	tier := crypto.ParseAPIKeyTier(key)
	if tier == "" {
		return nil, fmt.Errorf("invalid API key format")
	}

	keyHash := r.hasher.HashAPIKey(key)

	var (
		auth      AuthenticatedKey
		revokedAt sql.NullString
	)

	err := r.db.QueryRowContext(ctx, `
		SELECT id, key_prefix, name, user_id, user_name, tier, revoked_at
		FROM api_keys
		WHERE key_hash = ?
	`, keyHash).Scan(&auth.ID, &auth.KeyPrefix, &auth.Name,
		&auth.UserID, &auth.UserName, &auth.Tier, &revokedAt)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("API key not found")
	}
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}

	if revokedAt.Valid {
		return nil, fmt.Errorf("API key has been revoked")
	}

	// Best effort; authentication already succeeded.
	r.db.ExecContext(ctx, `
		UPDATE api_keys SET last_used_at = datetime('now') WHERE id = ?
	`, auth.ID)

	return &auth, nil
}

// List retrieves all keys, newest first. Hashes stay in the database.
func (r *Repository) List(ctx context.Context) ([]database.APIKey, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, key_prefix, name, user_id, user_name, tier,
		       created_at, last_used_at, revoked_at
		FROM api_keys
		ORDER BY created_at DESC
	`)

	if err != nil {
		return nil, fmt.Errorf("failed to query API keys: %w", err)
	}
	defer rows.Close()

	var keys []database.APIKey
	for rows.Next() {
		var (
			k          database.APIKey
			createdAt  string
			lastUsedAt sql.NullString
			revokedAt  sql.NullString
		)

		err := rows.Scan(&k.ID, &k.KeyPrefix, &k.Name, &k.UserID, &k.UserName,
			&k.Tier, &createdAt, &lastUsedAt, &revokedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan API key: %w", err)
		}

		k.CreatedAt, _ = util.ParseSQLiteTimestamp(createdAt)
		if lastUsedAt.Valid {
			t, _ := util.ParseSQLiteTimestamp(lastUsedAt.String)
			k.LastUsedAt = sql.NullTime{Time: t, Valid: true}
		}
		if revokedAt.Valid {
			t, _ := util.ParseSQLiteTimestamp(revokedAt.String)
			k.RevokedAt = sql.NullTime{Time: t, Valid: true}
		}

		keys = append(keys, k)
	}

	return keys, rows.Err()
}

// Revoke marks a key as revoked. Revocation is permanent.
func (r *Repository) Revoke(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE api_keys
		SET revoked_at = datetime('now')
		WHERE id = ? AND revoked_at IS NULL
	`, id)

	if err != nil {
		return fmt.Errorf("failed to revoke API key: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("API key not found or already revoked")
	}

	return nil
}
