package repository

import (
	"context"
	"database/sql"

	"curtainbe/internal/domain"
)

var _ domain.UserRepository = (*UserRepo)(nil)

// UserRepo stores user accounts in SQLite.
type UserRepo struct {
	db *sql.DB
}

// NewUserRepo creates a new UserRepo.
func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{db: db}
}

// Create inserts a new user.
func (r *UserRepo) Create(ctx context.Context, u *domain.User) (*domain.User, error) {
	if u == nil || u.Username == "" {
		return nil, domain.ErrValidation("username is required")
	}
	if u.ID == "" {
		u.ID = domain.NewID()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, username, orcid_sub, is_staff) VALUES (?, ?, ?, ?)
	`, u.ID, u.Username, u.ORCIDSub, boolToInt(u.IsStaff))
	if err != nil {
		return nil, mapDBError(err)
	}
	return r.GetByID(ctx, u.ID)
}

// GetByID returns a user by ID.
func (r *UserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.getOne(ctx, `
		SELECT id, username, orcid_sub, is_staff, created_at FROM users WHERE id = ?
	`, id)
}

// GetByUsername returns a user by username.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.getOne(ctx, `
		SELECT id, username, orcid_sub, is_staff, created_at FROM users WHERE username = ?
	`, username)
}

// GetBySubject returns a user by OIDC subject claim.
func (r *UserRepo) GetBySubject(ctx context.Context, sub string) (*domain.User, error) {
	return r.getOne(ctx, `
		SELECT id, username, orcid_sub, is_staff, created_at FROM users WHERE orcid_sub = ?
	`, sub)
}

func (r *UserRepo) getOne(ctx context.Context, stmt string, args ...interface{}) (*domain.User, error) {
	var (
		u       domain.User
		orcid   sql.NullString
		isStaff int64
	)
	err := r.db.QueryRowContext(ctx, stmt, args...).Scan(&u.ID, &u.Username, &orcid, &isStaff, &u.CreatedAt)
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
