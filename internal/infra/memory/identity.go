package memory

import (
	"context"

	"github.com/btuckerc/jeopardy-sub005/internal/domain"
)

// StaticIdentity resolves roles from a fixed admin list; everyone else is a
// plain user. The real deployment swaps this for the session collaborator.
type StaticIdentity struct {
	admins map[string]struct{}
}

func NewStaticIdentity(adminIDs []string) *StaticIdentity {
	admins := make(map[string]struct{}, len(adminIDs))
	for _, id := range adminIDs {
		admins[id] = struct{}{}
	}
	return &StaticIdentity{admins: admins}
}

func (s *StaticIdentity) Resolve(_ context.Context, userID string) (domain.User, error) {
	if userID == "" {
		return domain.User{}, domain.Forbiddenf("unresolved identity")
	}
	role := domain.RoleUser
	if _, ok := s.admins[userID]; ok {
		role = domain.RoleAdmin
	}
	return domain.User{ID: userID, Role: role}, nil
}
