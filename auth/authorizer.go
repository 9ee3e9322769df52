package auth

import (
	"fmt"

	casbinlib "github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	apperrors "github.com/leeforge/pyracms/errors"
	"go.uber.org/zap"
)

// Anonymous is the casbin subject used for unauthenticated callers, so
// policies can grant permissions to everyone.
const Anonymous = "anonymous"

// Authorizer decides access to a route, navigation item or endpoint.
type Authorizer interface {
	// Authorize returns nil when s may proceed, an unauthorized AppError
	// when authentication is missing, and a forbidden AppError when a
	// permission is missing.
	Authorize(s Subject, requiresAuth bool, permissions []string) error
}

// Allowed reports whether a grants access.
func Allowed(a Authorizer, s Subject, requiresAuth bool, permissions []string) bool {
	return a.Authorize(s, requiresAuth, permissions) == nil
}

const modelText = `
[request_definition]
r = sub, obj

[policy_definition]
p = sub, obj

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && keyMatch(r.obj, p.obj)
`

// CasbinAuthorizer checks permissions against an in-memory casbin RBAC
// model. Policies grant a permission pattern to a subject or role, e.g.
// ("editor", "forum.*"); roles are assigned with ("alice", "editor").
type CasbinAuthorizer struct {
	enforcer *casbinlib.SyncedEnforcer
	logger   *zap.Logger
}

func NewCasbinAuthorizer(policies, roles [][]string, logger *zap.Logger) (*CasbinAuthorizer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, fmt.Errorf("failed to create model: %w", err)
	}
	enforcer, err := casbinlib.NewSyncedEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("failed to create enforcer: %w", err)
	}

	a := &CasbinAuthorizer{enforcer: enforcer, logger: logger.Named("authz")}
	for _, p := range policies {
		if err := a.Grant(p...); err != nil {
			return nil, err
		}
	}
	for _, r := range roles {
		if err := a.AssignRole(r...); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// Grant allows subject (a user id, role or Anonymous) every permission
// matching pattern.
func (a *CasbinAuthorizer) Grant(rule ...string) error {
	if len(rule) != 2 {
		return fmt.Errorf("policy must be [subject, permission], got %v", rule)
	}
	if _, err := a.enforcer.AddPolicy(rule[0], rule[1]); err != nil {
		return fmt.Errorf("failed to add policy %v: %w", rule, err)
	}
	return nil
}

func (a *CasbinAuthorizer) AssignRole(rule ...string) error {
	if len(rule) != 2 {
		return fmt.Errorf("role assignment must be [subject, role], got %v", rule)
	}
	if _, err := a.enforcer.AddGroupingPolicy(rule[0], rule[1]); err != nil {
		return fmt.Errorf("failed to assign role %v: %w", rule, err)
	}
	return nil
}

func (a *CasbinAuthorizer) Authorize(s Subject, requiresAuth bool, permissions []string) error {
	if requiresAuth && !s.Authenticated() {
		return apperrors.NewUnauthorized("authentication required")
	}
	for _, perm := range permissions {
		if !a.has(s, perm) {
			if !s.Authenticated() {
				return apperrors.NewUnauthorized("authentication required")
			}
			return apperrors.NewForbidden(fmt.Sprintf("missing permission %q", perm)).
				WithDetail("permission", perm)
		}
	}
	return nil
}

func (a *CasbinAuthorizer) has(s Subject, perm string) bool {
	subjects := []string{Anonymous}
	if s.Authenticated() {
		subjects = append(subjects, s.Roles...)
		subjects = append(subjects, s.ID)
	}
	for _, sub := range subjects {
		ok, err := a.enforcer.Enforce(sub, perm)
		if err != nil {
			a.logger.Warn("permission check failed",
				zap.String("subject", sub), zap.String("permission", perm), zap.Error(err))
			continue
		}
		if ok {
			return true
		}
	}
	return false
}

// AllowAll authorizes any authenticated subject, ignoring permissions.
type AllowAll struct{}

func (AllowAll) Authorize(s Subject, requiresAuth bool, permissions []string) error {
	if (requiresAuth || len(permissions) > 0) && !s.Authenticated() {
		return apperrors.NewUnauthorized("authentication required")
	}
	return nil
}
