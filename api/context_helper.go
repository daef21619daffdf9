package api

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// QueryTimeout is the default timeout for database queries
const QueryTimeout = 10 * time.Second

// WithQueryTimeout creates a context with query timeout
func WithQueryTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, QueryTimeout)
}

type contextKey string

const userIDKey contextKey = "userID"

// WithUserID stashes the authenticated account id on the context
func WithUserID(parent context.Context, id string) context.Context {
	return context.WithValue(parent, userIDKey, id)
}

// UserIDFromContext returns the authenticated account id set by the auth
// middleware, or false when the route was not guarded
func UserIDFromContext(ctx context.Context) (primitive.ObjectID, bool) {
	hex, ok := ctx.Value(userIDKey).(string)
	if !ok {
		return primitive.NilObjectID, false
	}
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, false
	}
	return id, true
}
