// Package context provides request-scoped values extraction.
package context

import (
	"context"
)

// operatorKey is the context key for the acting operator identity.
type operatorKey struct{}

// WithOperator stores the operator identity in context.
// The identity is an opaque string supplied by the caller; the core does
// not perform authorization on it, it only stamps ledger entries and audit
// rows with it.
func WithOperator(ctx context.Context, operator string) context.Context {
	return context.WithValue(ctx, operatorKey{}, operator)
}

// GetOperator returns the operator identity from context or empty string.
func GetOperator(ctx context.Context) string {
	if v, ok := ctx.Value(operatorKey{}).(string); ok {
		return v
	}
	return ""
}

// OperatorOrSystem returns the operator from context, falling back to
// "system" for background jobs that mutate stock without a request.
func OperatorOrSystem(ctx context.Context) string {
	if op := GetOperator(ctx); op != "" {
		return op
	}
	return "system"
}
