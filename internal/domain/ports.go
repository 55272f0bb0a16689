package domain

import "context"

// SessionRepository persists session metadata and ownership.
type SessionRepository interface {
	Create(ctx context.Context, s *Session) (*Session, error)
	GetByLinkID(ctx context.Context, linkID string) (*Session, error)
	ListByLinkIDs(ctx context.Context, linkIDs []string) ([]Session, error)
	Delete(ctx context.Context, linkID string) error
	CountByType(ctx context.Context) (map[CurtainType]int64, error)
	DeleteExpired(ctx context.Context, olderThanDays int) ([]string, error)
}

// CompareJobRepository persists comparison job lifecycle state.
type CompareJobRepository interface {
	Create(ctx context.Context, job *CompareJob) (*CompareJob, error)
	GetByID(ctx context.Context, id string) (*CompareJob, error)
	MarkStarted(ctx context.Context, id string) error
	MarkFinished(ctx context.Context, id string, result CompareResult) error
	MarkFailed(ctx context.Context, id string, message string) error
}

// UserRepository persists user accounts.
type UserRepository interface {
	Create(ctx context.Context, u *User) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	GetBySubject(ctx context.Context, sub string) (*User, error)
}

// APIKeyRepository persists hashed API keys.
type APIKeyRepository interface {
	Create(ctx context.Context, key *APIKey) (*APIKey, error)
	ListByUser(ctx context.Context, userID string) ([]APIKey, error)
	DeleteByName(ctx context.Context, userID, name string) error
	LookupUserByKeyHash(ctx context.Context, keyHash string) (*User, error)
}
