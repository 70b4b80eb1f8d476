// Package tenant provides tenant identity propagation.
// The ledger is multi-tenant over a shared store: every row carries a
// tenant_id and every repository call scopes by the tenant in context.
package tenant

import (
	"context"

	"stockledger/internal/core/apperror"
)

type tenantKey struct{}

// WithTenantID stores the tenant identifier in context.
// Set once per request by the HTTP tenant middleware.
func WithTenantID(ctx context.Context, tenantID string) context.Context {
	return context.WithValue(ctx, tenantKey{}, tenantID)
}

// GetTenantID returns the tenant identifier from context, or "" if unset.
func GetTenantID(ctx context.Context) string {
	if v, ok := ctx.Value(tenantKey{}).(string); ok {
		return v
	}
	return ""
}

// RequireTenantID returns the tenant identifier or an UNAUTHORIZED error.
// Domain services call this at the top of every operation.
func RequireTenantID(ctx context.Context) (string, error) {
	tid := GetTenantID(ctx)
	if tid == "" {
		return "", apperror.NewUnauthorized("tenant is not resolved")
	}
	return tid, nil
}
