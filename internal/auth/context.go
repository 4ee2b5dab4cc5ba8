package auth

import (
	"context"
	"slices"
	"strings"

	"procura.io/internal/award"
)

// Roles understood by the API. Buyers may mutate awards, purchase orders and
// RFQ status; any authenticated user of the company may read.
const (
	RoleBuyer  = "buyer"
	RoleViewer = "viewer"
)

type ctxKey string

const (
	tenantKey ctxKey = "auth_tenant"
	rolesKey  ctxKey = "auth_roles"
)

// ContextWithTenant stores the authenticated tenant and roles in the context.
func ContextWithTenant(ctx context.Context, t award.Tenant, roles []string) context.Context {
	t.CompanyID = strings.TrimSpace(t.CompanyID)
	t.ActorID = strings.TrimSpace(t.ActorID)
	ctx = context.WithValue(ctx, tenantKey, t)
	if len(roles) > 0 {
		ctx = context.WithValue(ctx, rolesKey, dedupeRoles(roles))
	}
	return ctx
}

// TenantFromContext extracts the authenticated tenant from context.
func TenantFromContext(ctx context.Context) (award.Tenant, bool) {
	if ctx == nil {
		return award.Tenant{}, false
	}
	t, ok := ctx.Value(tenantKey).(award.Tenant)
	if !ok || t.CompanyID == "" || t.ActorID == "" {
		return award.Tenant{}, false
	}
	return t, true
}

func RolesFromContext(ctx context.Context) []string {
	if ctx == nil {
		return nil
	}
	roles, _ := ctx.Value(rolesKey).([]string)
	return roles
}

// HasRole reports whether any of the context roles matches role.
func HasRole(ctx context.Context, role string) bool {
	return slices.Contains(RolesFromContext(ctx), strings.ToLower(strings.TrimSpace(role)))
}
