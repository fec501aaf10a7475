// Package authroles maps SSO identities onto application roles.
package authroles

import (
	domainauth "github.com/narrai/narrai-web/internal/domain/auth"
	"github.com/narrai/narrai-web/internal/ports"
)

var _ ports.RoleMapper = StaticRoleMapper{}

// StaticRoleMapper maps groups by exact membership. A role already present on the identity wins.
type StaticRoleMapper struct {
	AdminGroup string
	UserGroup  string
}

func (m StaticRoleMapper) Map(id domainauth.Identity) domainauth.Role {
	if id.Role != "" {
		return id.Role
	}
	if m.AdminGroup != "" && contains(id.Groups, m.AdminGroup) {
		return domainauth.RoleAdmin
	}
	if m.UserGroup != "" && contains(id.Groups, m.UserGroup) {
		return domainauth.RoleUser
	}
	return domainauth.RoleGuest
}

func contains(groups []string, want string) bool {
	for _, g := range groups {
		if g == want {
			return true
		}
	}
	return false
}
