package session

import (
	"strings"

	"github.com/p-blackswan/taskhub/internal/models"
)

// Strategy selects the endpoint variant a resource hook calls. It is resolved
// once when a hook is built.
type Strategy int

const (
	// Standard calls the "mine" endpoints with page and size only.
	Standard Strategy = iota
	// Elevated calls the full-collection endpoints with every filter.
	Elevated
)

func (s Strategy) String() string {
	if s == Elevated {
		return "elevated"
	}
	return "standard"
}

// Scope is the soft-delete listing scope for the strategy.
func (s Strategy) Scope() string {
	if s == Elevated {
		return "all"
	}
	return "my"
}

// Strategy derives the role context. A profile with an ADMIN role is
// elevated. When the profile has no roles the token's scope claim decides.
func (s *Session) Strategy() Strategy {
	user := s.User()
	if user != nil && len(user.Roles) > 0 {
		if user.HasRole(models.RoleAdmin) {
			return Elevated
		}
		return Standard
	}
	if scopeIsAdmin(s.Token()) {
		return Elevated
	}
	return Standard
}

func scopeIsAdmin(token string) bool {
	if token == "" {
		return false
	}
	claims, ok := parseClaims(token)
	if !ok {
		return false
	}
	scope, _ := claims["scope"].(string)
	for _, part := range strings.Fields(scope) {
		if models.NormalizeRole(part) == models.RoleAdmin {
			return true
		}
	}
	return false
}
