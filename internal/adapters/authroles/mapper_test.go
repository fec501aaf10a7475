package authroles

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/narrai/narrai-web/internal/domain/auth"
)

func TestStaticRoleMapper(t *testing.T) {
	m := StaticRoleMapper{AdminGroup: "narrai-admins", UserGroup: "narrai-users"}

	assert.Equal(t, domainauth.RoleAdmin, m.Map(domainauth.Identity{Groups: []string{"narrai-users", "narrai-admins"}}))
	assert.Equal(t, domainauth.RoleUser, m.Map(domainauth.Identity{Groups: []string{"narrai-users"}}))
	assert.Equal(t, domainauth.RoleGuest, m.Map(domainauth.Identity{}))
	assert.Equal(t, domainauth.RoleUser, m.Map(domainauth.Identity{Role: domainauth.RoleUser, Groups: []string{"narrai-admins"}}))
}

func TestNewClaimMapper_Validation(t *testing.T) {
	_, err := NewClaimMapper(ClaimMapperConfig{})
	require.Error(t, err)

	_, err = NewClaimMapper(ClaimMapperConfig{AdminExpr: "contains(groups,"})
	require.ErrorContains(t, err, "admin role expression")
}

func TestClaimMapper_Map(t *testing.T) {
	m, err := NewClaimMapper(ClaimMapperConfig{
		AdminExpr: "contains(groups, 'narrai-admins')",
		UserExpr:  "email_verified",
		Fallback:  StaticRoleMapper{UserGroup: "readers"},
	})
	require.NoError(t, err)

	tests := []struct {
		name string
		id   domainauth.Identity
		want domainauth.Role
	}{
		{
			name: "admin via groups claim",
			id:   domainauth.Identity{Claims: map[string]any{"groups": []any{"narrai-admins"}, "email_verified": true}},
			want: domainauth.RoleAdmin,
		},
		{
			name: "user via boolean claim",
			id:   domainauth.Identity{Claims: map[string]any{"groups": []any{}, "email_verified": true}},
			want: domainauth.RoleUser,
		},
		{
			name: "falsy claims are guest",
			id:   domainauth.Identity{Claims: map[string]any{"groups": []any{}, "email_verified": false}},
			want: domainauth.RoleGuest,
		},
		{
			name: "unexpected claim shapes are guest",
			id:   domainauth.Identity{Claims: map[string]any{"groups": "not-a-list"}},
			want: domainauth.RoleGuest,
		},
		{
			name: "no claims uses fallback",
			id:   domainauth.Identity{Groups: []string{"readers"}},
			want: domainauth.RoleUser,
		},
		{
			name: "explicit role wins",
			id:   domainauth.Identity{Role: domainauth.RoleAdmin},
			want: domainauth.RoleAdmin,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, m.Map(tt.id))
		})
	}
}

func TestTruthy(t *testing.T) {
	assert.False(t, truthy(nil))
	assert.False(t, truthy(""))
	assert.False(t, truthy([]any{}))
	assert.False(t, truthy(map[string]any{}))
	assert.True(t, truthy(float64(0)))
	assert.True(t, truthy("x"))
}
