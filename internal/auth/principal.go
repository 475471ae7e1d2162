package auth

import (
	"time"

	"resto-system/internal/database/models"
)

// Principal is the authenticated caller of one request.
type Principal struct {
	AccountID string
	Username  string
	Role      models.Role
	SteppedUp bool
	TokenID   string
	ExpiresAt time.Time
}

func (p Principal) HasRole(roles ...models.Role) bool {
	for _, r := range roles {
		if p.Role == r {
			return true
		}
	}
	return false
}
