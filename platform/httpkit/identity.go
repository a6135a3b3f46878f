package httpkit

import (
	"slices"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Identity is the caller extracted from a verified access token.
type Identity struct {
	UserID uuid.UUID
	Roles  []string
}

// HasRole reports whether the caller holds role.
func (i Identity) HasRole(role string) bool {
	return slices.Contains(i.Roles, role)
}

// GetIdentity returns the caller set by AuthRequired. ok is false on routes
// without authentication.
func GetIdentity(c *gin.Context) (Identity, bool) {
	raw, exists := c.Get(ContextUserIDKey)
	if !exists {
		return Identity{}, false
	}
	userID, isUUID := raw.(uuid.UUID)
	if !isUUID {
		return Identity{}, false
	}

	var roles []string
	if rawRoles, ok := c.Get(ContextRolesKey); ok {
		roles, _ = rawRoles.([]string)
	}
	return Identity{UserID: userID, Roles: roles}, true
}
