package domain

import "time"

// CurtainType classifies the kind of analysis a session holds.
type CurtainType string

// Session analysis types.
const (
	CurtainTypeTotalProteomics CurtainType = "TP"
	CurtainTypePTM             CurtainType = "PTM"
	CurtainTypeFlex            CurtainType = "F"
)

// ValidCurtainType reports whether t is a recognized session type.
func ValidCurtainType(t CurtainType) bool {
	switch t {
	case CurtainTypeTotalProteomics, CurtainTypePTM, CurtainTypeFlex:
		return true
	}
	return false
}

// Session is one stored differential-analysis dataset plus its UI
// configuration, shared under a unique link ID. The dataset itself lives in
// object storage under FileKey; only metadata is kept here.
type Session struct {
	ID          string
	LinkID      string
	FileKey     string
	Description string
	CurtainType CurtainType
	Enable      bool
	Permanent   bool
	Encrypted   bool
	OwnerIDs    []string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// AccessibleBy implements the session visibility rule: ownerless sessions are
// public, enabled sessions are public, and disabled sessions are visible only
// to their owners.
func (s *Session) AccessibleBy(userID string) bool {
	if len(s.OwnerIDs) == 0 {
		return true
	}
	if s.Enable {
		return true
	}
	if userID == "" {
		return false
	}
	for _, owner := range s.OwnerIDs {
		if owner == userID {
			return true
		}
	}
	return false
}

// CreateSessionRequest carries the fields a caller may set when registering a
// new session.
type CreateSessionRequest struct {
	FileKey     string
	Description string
	CurtainType CurtainType
	Enable      bool
	Permanent   bool
}
