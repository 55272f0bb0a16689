package repository

import (
	"context"
	"database/sql"
	"fmt"

	"curtainbe/internal/domain"
)

var _ domain.APIKeyRepository = (*APIKeyRepo)(nil)

// APIKeyRepo stores hashed API keys in SQLite.
type APIKeyRepo struct {
	db *sql.DB
}

// NewAPIKeyRepo creates a new APIKeyRepo.
func NewAPIKeyRepo(db *sql.DB) *APIKeyRepo {
	return &APIKeyRepo{db: db}
}

// Create inserts a new API key record.
func (r *APIKeyRepo) Create(ctx context.Context, key *domain.APIKey) (*domain.APIKey, error) {
	if key == nil || key.UserID == "" || key.KeyHash == "" {
		return nil, domain.ErrValidation("user id and key hash are required")
	}
	if key.ID == "" {
		key.ID = domain.NewID()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO api_keys (id, user_id, name, key_hash) VALUES (?, ?, ?, ?)
	`, key.ID, key.UserID, key.Name, key.KeyHash)
	if err != nil {
		return nil, mapDBError(err)
	}
	return key, nil
}

// ListByUser returns all API keys belonging to a user.
func (r *APIKeyRepo) ListByUser(ctx context.Context, userID string) ([]domain.APIKey, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, name, key_hash, created_at FROM api_keys WHERE user_id = ? ORDER BY created_at
	`, userID)
	if err != nil {
		return nil, mapDBError(err)
	}
	defer rows.Close()

	var out []domain.APIKey
	for rows.Next() {
		var k domain.APIKey
		if err := rows.Scan(&k.ID, &k.UserID, &k.Name, &k.KeyHash, &k.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, k)
	}
	return out, rows.Err()
}

// DeleteByName removes all of a user's keys with the given name.
func (r *APIKeyRepo) DeleteByName(ctx context.Context, userID, name string) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM api_keys WHERE user_id = ? AND name = ?
	`, userID, name)
	if err != nil {
		return mapDBError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound("api key %q not found", name)
	}
	return nil
}

// LookupUserByKeyHash returns the user owning the API key with the given hash.
func (r *APIKeyRepo) LookupUserByKeyHash(ctx context.Context, keyHash string) (*domain.User, error) {
	var (
		u       domain.User
		orcid   sql.NullString
		isStaff int64
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT u.id, u.username, u.orcid_sub, u.is_staff, u.created_at
		FROM api_keys k JOIN users u ON u.id = k.user_id
		WHERE k.key_hash = ?
	`, keyHash).Scan(&u.ID, &u.Username, &orcid, &isStaff, &u.CreatedAt)
	if err != nil {
		return nil, mapDBError(err)
	}
	if orcid.Valid {
		s := orcid.String
		u.ORCIDSub = &s
	}
	u.IsStaff = isStaff != 0
	return &u, nil
}
