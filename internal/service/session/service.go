package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"curtainbe/internal/domain"
	"curtainbe/internal/objectstore"
)

// Service implements session CRUD on top of the repository and object store.
type Service struct {
	sessions domain.SessionRepository
	store    objectstore.Store
	logger   *slog.Logger
}

// NewService creates a session service.
func NewService(sessions domain.SessionRepository, store objectstore.Store, logger *slog.Logger) *Service {
	return &Service{
		sessions: sessions,
		store:    store,
		logger:   logger.With("component", "session_service"),
	}
}

// Create registers a new session from an already-decoded payload. The payload
// is stored as a JSON blob under a fresh file key and the session metadata is
// persisted with the caller as owner (if authenticated).
func (s *Service) Create(ctx context.Context, userID string, req domain.CreateSessionRequest, content *Content) (*domain.Session, error) {
	if content == nil {
		return nil, domain.ErrValidation("session payload is required")
	}
	if err := content.Validate(); err != nil {
		return nil, domain.ErrValidation("invalid session payload: %v", err)
	}
	if req.CurtainType != "" && !domain.ValidCurtainType(req.CurtainType) {
		return nil, domain.ErrValidation("invalid curtain type %q", req.CurtainType)
	}

	payload, err := json.Marshal(content)
	if err != nil {
		return nil, fmt.Errorf("encode session payload: %w", err)
	}

	sess := &domain.Session{
		ID:          domain.NewID(),
		LinkID:      domain.NewLinkID(),
		Description: req.Description,
		CurtainType: req.CurtainType,
		Enable:      req.Enable,
		Permanent:   req.Permanent,
	}
	if userID != "" {
		sess.OwnerIDs = []string{userID}
	}
	sess.FileKey = sess.LinkID + ".json"

	if err := s.store.Put(ctx, sess.FileKey, bytes.NewReader(payload)); err != nil {
		return nil, fmt.Errorf("store session payload: %w", err)
	}

	created, err := s.sessions.Create(ctx, sess)
	if err != nil {
		// The blob is orphaned at this point; housekeeping will not find it,
		// so remove it eagerly.
		if delErr := s.store.Delete(ctx, sess.FileKey); delErr != nil {
			s.logger.Warn("failed to remove orphaned session payload",
				"file_key", sess.FileKey, "error", delErr)
		}
		return nil, err
	}

	s.logger.Info("session created", "link_id", created.LinkID, "curtain_type", created.CurtainType)
	return created, nil
}

// Get returns session metadata after checking visibility for the caller.
func (s *Service) Get(ctx context.Context, linkID, userID string) (*domain.Session, error) {
	sess, err := s.sessions.GetByLinkID(ctx, linkID)
	if err != nil {
		return nil, err
	}
	if !sess.AccessibleBy(userID) {
		return nil, domain.ErrAccessDenied("session %q is not accessible", linkID)
	}
	return sess, nil
}

// Delete removes a session and its stored payload. Only owners and staff may
// delete a session.
func (s *Service) Delete(ctx context.Context, linkID string, user *domain.User) error {
	sess, err := s.sessions.GetByLinkID(ctx, linkID)
	if err != nil {
		return err
	}

	allowed := user != nil && user.IsStaff
	if !allowed && user != nil {
		for _, owner := range sess.OwnerIDs {
			if owner == user.ID {
				allowed = true
				break
			}
		}
	}
	if !allowed {
		return domain.ErrAccessDenied("only owners may delete session %q", linkID)
	}

	if err := s.sessions.Delete(ctx, linkID); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, sess.FileKey); err != nil {
		s.logger.Warn("failed to remove session payload", "file_key", sess.FileKey, "error", err)
	}
	s.logger.Info("session deleted", "link_id", linkID)
	return nil
}

// Stats returns session counts grouped by curtain type.
func (s *Service) Stats(ctx context.Context) (map[domain.CurtainType]int64, error) {
	return s.sessions.CountByType(ctx)
}

// PurgeExpired deletes non-permanent sessions older than the retention window
// together with their stored payloads. It returns the number of sessions
// removed.
func (s *Service) PurgeExpired(ctx context.Context, olderThanDays int) (int, error) {
	keys, err := s.sessions.DeleteExpired(ctx, olderThanDays)
	if err != nil {
		return 0, fmt.Errorf("purge expired sessions: %w", err)
	}
	for _, key := range keys {
		if err := s.store.Delete(ctx, key); err != nil {
			s.logger.Warn("failed to remove expired session payload", "file_key", key, "error", err)
		}
	}
	if len(keys) > 0 {
		s.logger.Info("purged expired sessions", "count", len(keys))
	}
	return len(keys), nil
}
