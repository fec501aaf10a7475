package authroles

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	jmespath "github.com/jmespath-community/go-jmespath"

	domainauth "github.com/narrai/narrai-web/internal/domain/auth"
	"github.com/narrai/narrai-web/internal/ports"
)

var _ ports.RoleMapper = (*ClaimMapper)(nil)

// ClaimMapper evaluates JMESPath expressions against the raw IdP claims, e.g.
// `contains(groups, 'narrai-admins')` or `realm_access.roles[?@ == 'admin'] | [0]`.
// A truthy result grants the role. Expressions are checked at construction.
type ClaimMapper struct {
	adminExpr string
	userExpr  string
	fallback  ports.RoleMapper
	logger    *slog.Logger
}

// ClaimMapperConfig configures a ClaimMapper.
type ClaimMapperConfig struct {
	AdminExpr string
	UserExpr  string
	// Fallback handles identities without claims. Optional.
	Fallback ports.RoleMapper
	Logger   *slog.Logger
}

// NewClaimMapper compiles the configured expressions.
func NewClaimMapper(cfg ClaimMapperConfig) (*ClaimMapper, error) {
	if strings.TrimSpace(cfg.AdminExpr) == "" && strings.TrimSpace(cfg.UserExpr) == "" {
		return nil, errors.New("at least one role expression is required")
	}
	for name, expr := range map[string]string{"admin": cfg.AdminExpr, "user": cfg.UserExpr} {
		if strings.TrimSpace(expr) == "" {
			continue
		}
		if _, err := jmespath.Compile(expr); err != nil {
			return nil, fmt.Errorf("compile %s role expression: %w", name, err)
		}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &ClaimMapper{
		adminExpr: cfg.AdminExpr,
		userExpr:  cfg.UserExpr,
		fallback:  cfg.Fallback,
		logger:    logger.With("component", "claim_mapper"),
	}, nil
}

func (m *ClaimMapper) Map(id domainauth.Identity) domainauth.Role {
	if id.Role != "" {
		return id.Role
	}
	if len(id.Claims) == 0 {
		if m.fallback != nil {
			return m.fallback.Map(id)
		}
		return domainauth.RoleGuest
	}
	if m.match(m.adminExpr, id.Claims) {
		return domainauth.RoleAdmin
	}
	if m.match(m.userExpr, id.Claims) {
		return domainauth.RoleUser
	}
	return domainauth.RoleGuest
}

func (m *ClaimMapper) match(expr string, claims map[string]any) bool {
	if strings.TrimSpace(expr) == "" {
		return false
	}
	out, err := jmespath.Search(expr, claims)
	if err != nil {
		m.logger.Warn("role expression failed", "expr", expr, "error", err)
		return false
	}
	return truthy(out)
}

// truthy follows JMESPath truthiness: false, null, "", [] and {} are false.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case []any:
		return len(t) > 0
	case map[string]any:
		return len(t) > 0
	default:
		return true
	}
}
