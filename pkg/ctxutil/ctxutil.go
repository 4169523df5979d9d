package ctxutil

import (
	"context"

	"github.com/google/uuid"
)

type ctxKey string

const (
	accountIDKey ctxKey = "account_id"
	requestIDKey ctxKey = "request_id"
	tokenKey     ctxKey = "access_token"
)

// WithAccountID stores the authenticated account ID in the context.
func WithAccountID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, accountIDKey, id)
}

// AccountIDFromCtx extracts the account ID from the context.
// Returns uuid.Nil and false if the value is missing, nil UUID, or wrong type.
func AccountIDFromCtx(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(accountIDKey).(uuid.UUID)
	if !ok || id == uuid.Nil {
		return uuid.Nil, false
	}
	return id, true
}

// WithToken stores the raw bearer token of the current request.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey, token)
}

// TokenFromCtx returns the bearer token, or an empty string if absent.
func TokenFromCtx(ctx context.Context) string {
	t, _ := ctx.Value(tokenKey).(string)
	return t
}

// WithRequestID stores the request ID in the context.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromCtx extracts the request ID from the context.
// Returns an empty string if absent.
func RequestIDFromCtx(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}
