package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"curtainbe/internal/domain"
)

var _ domain.SessionRepository = (*SessionRepo)(nil)

// SessionRepo stores session metadata and ownership in SQLite.
type SessionRepo struct {
	db *sql.DB
}

// NewSessionRepo creates a new SessionRepo.
func NewSessionRepo(db *sql.DB) *SessionRepo {
	return &SessionRepo{db: db}
}

// Create inserts a new session together with its owner links.
func (r *SessionRepo) Create(ctx context.Context, s *domain.Session) (*domain.Session, error) {
	if s == nil {
		return nil, domain.ErrValidation("session is required")
	}
	if s.ID == "" {
		s.ID = domain.NewID()
	}
	if s.LinkID == "" {
		s.LinkID = domain.NewLinkID()
	}
	if s.CurtainType == "" {
		s.CurtainType = domain.CurtainTypeTotalProteomics
	}
	if !domain.ValidCurtainType(s.CurtainType) {
		return nil, domain.ErrValidation("invalid curtain type %q", s.CurtainType)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.ExecContext(ctx, `
		INSERT INTO sessions (id, link_id, file_key, description, curtain_type, enable, permanent, encrypted)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, s.ID, s.LinkID, s.FileKey, s.Description, string(s.CurtainType),
		boolToInt(s.Enable), boolToInt(s.Permanent), boolToInt(s.Encrypted))
	if err != nil {
		return nil, mapDBError(err)
	}

	for _, ownerID := range s.OwnerIDs {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO session_owners (session_id, user_id) VALUES (?, ?)
		`, s.ID, ownerID); err != nil {
			return nil, mapDBError(err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return r.GetByLinkID(ctx, s.LinkID)
}

// GetByLinkID returns a session and its owner IDs by link ID.
func (r *SessionRepo) GetByLinkID(ctx context.Context, linkID string) (*domain.Session, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, link_id, file_key, description, curtain_type, enable, permanent, encrypted, created_at, updated_at
		FROM sessions WHERE link_id = ?
	`, linkID)

	s, err := scanSession(row)
	if err != nil {
		return nil, mapDBError(err)
	}
	if err := r.loadOwners(ctx, []*domain.Session{s}); err != nil {
		return nil, err
	}
	return s, nil
}

// ListByLinkIDs returns all sessions whose link ID is in linkIDs, with owners
// loaded. Unknown link IDs are silently absent from the result.
func (r *SessionRepo) ListByLinkIDs(ctx context.Context, linkIDs []string) ([]domain.Session, error) {
	if len(linkIDs) == 0 {
		return nil, nil
	}

	args := make([]interface{}, len(linkIDs))
	for i, id := range linkIDs {
		args[i] = id
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, link_id, file_key, description, curtain_type, enable, permanent, encrypted, created_at, updated_at
		FROM sessions WHERE link_id IN (`+placeholders(len(linkIDs))+`)
	`, args...)
	if err != nil {
		return nil, mapDBError(err)
	}
	defer rows.Close()

	var out []domain.Session
	var ptrs []*domain.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		ptrs = append(ptrs, &out[i])
	}
	if err := r.loadOwners(ctx, ptrs); err != nil {
		return nil, err
	}

	// Preserve the requested order.
	byLink := make(map[string]domain.Session, len(out))
	for _, s := range out {
		byLink[s.LinkID] = s
	}
	ordered := make([]domain.Session, 0, len(out))
	for _, id := range linkIDs {
		if s, ok := byLink[id]; ok {
			ordered = append(ordered, s)
		}
	}
	return ordered, nil
}

// Delete removes a session by link ID.
func (r *SessionRepo) Delete(ctx context.Context, linkID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE link_id = ?`, linkID)
	if err != nil {
		return mapDBError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound("session %q not found", linkID)
	}
	return nil
}

// CountByType returns session counts grouped by curtain type.
func (r *SessionRepo) CountByType(ctx context.Context) (map[domain.CurtainType]int64, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT curtain_type, COUNT(*) FROM sessions GROUP BY curtain_type
	`)
	if err != nil {
		return nil, mapDBError(err)
	}
	defer rows.Close()

	counts := make(map[domain.CurtainType]int64)
	for rows.Next() {
		var t string
		var n int64
		if err := rows.Scan(&t, &n); err != nil {
			return nil, err
		}
		counts[domain.CurtainType(t)] = n
	}
	return counts, rows.Err()
}

// DeleteExpired removes non-permanent sessions older than the retention
// window and returns the file keys of the removed sessions so their stored
// blobs can be cleaned up.
func (r *SessionRepo) DeleteExpired(ctx context.Context, olderThanDays int) ([]string, error) {
	cutoff := time.Now().AddDate(0, 0, -olderThanDays)

	rows, err := r.db.QueryContext(ctx, `
		SELECT file_key FROM sessions WHERE permanent = 0 AND updated_at < ?
	`, cutoff)
	if err != nil {
		return nil, mapDBError(err)
	}
	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			rows.Close()
			return nil, err
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	if _, err := r.db.ExecContext(ctx, `
		DELETE FROM sessions WHERE permanent = 0 AND updated_at < ?
	`, cutoff); err != nil {
		return nil, mapDBError(err)
	}
	return keys, nil
}

func (r *SessionRepo) loadOwners(ctx context.Context, sessions []*domain.Session) error {
	if len(sessions) == 0 {
		return nil
	}
	ids := make([]interface{}, len(sessions))
	byID := make(map[string]*domain.Session, len(sessions))
	for i, s := range sessions {
		ids[i] = s.ID
		byID[s.ID] = s
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT session_id, user_id FROM session_owners
		WHERE session_id IN (`+placeholders(len(ids))+`)
		ORDER BY user_id
	`, ids...)
	if err != nil {
		return mapDBError(err)
	}
	defer rows.Close()

	for rows.Next() {
		var sessionID, userID string
		if err := rows.Scan(&sessionID, &userID); err != nil {
			return err
		}
		if s, ok := byID[sessionID]; ok {
			s.OwnerIDs = append(s.OwnerIDs, userID)
		}
	}
	return rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSession(row rowScanner) (*domain.Session, error) {
	var (
		s                            domain.Session
		curtainType                  string
		enable, permanent, encrypted int64
	)
	err := row.Scan(
		&s.ID, &s.LinkID, &s.FileKey, &s.Description, &curtainType,
		&enable, &permanent, &encrypted, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	s.CurtainType = domain.CurtainType(curtainType)
	s.Enable = enable != 0
	s.Permanent = permanent != 0
	s.Encrypted = encrypted != 0
	return &s, nil
}
