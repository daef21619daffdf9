package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/shaj13/go-guardian/auth"
	"github.com/shaj13/go-guardian/auth/strategies/bearer"
	"github.com/shaj13/go-guardian/store"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/civicfix/complaint-api/databases"
)

// MiddlewareDB is a struct that holds the database and token signing secret
type MiddlewareDB struct {
	DB     databases.UserDatabase
	Secret []byte
}

var authenticator auth.Authenticator
var cache store.Cache

// Middleware guards a route behind the login-issued bearer token. The
// resolved account id is stashed on the request context for handlers that
// need to know who is calling.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		user, err := authenticator.Authenticate(r)
		if err != nil {
			zap.S().Errorw("unauthorized",
				"url", r.URL)
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error": "unauthorized"}`))
			return
		}
		zap.S().Debugf("User %s Authenticated\n", user.UserName())
		next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), user.ID())))
	})
}

// SetupGoGuardian sets up the go-guardian middleware
func (m MiddlewareDB) SetupGoGuardian() {
	authenticator = auth.New()
	cache = store.NewFIFO(context.Background(), time.Hour*24) // matches the token lifetime
	tokenStrategy := bearer.New(m.ValidateToken, cache)

	authenticator.EnableStrategy(bearer.CachedStrategyKey, tokenStrategy)
}

// ValidateToken verifies a login-issued JWT and resolves it to the account it
// was minted for. Verified tokens are cached so repeat requests skip the
// signature check and the user lookup.
func (m MiddlewareDB) ValidateToken(ctx context.Context, r *http.Request, tokenString string) (auth.Info, error) {
	parsed, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.Secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	sub, err := parsed.Claims.GetSubject()
	if err != nil {
		return nil, fmt.Errorf("token has no subject")
	}
	userID, err := primitive.ObjectIDFromHex(sub)
	if err != nil {
		return nil, fmt.Errorf("malformed token subject")
	}

	user, err := m.DB.FindOne(ctx, bson.M{"_id": userID})
	if err != nil {
		return nil, fmt.Errorf("no matching account")
	}

	return auth.NewDefaultUser(user.Email, user.ID.Hex(), nil, nil), nil
}

// RevokeToken drops a cached token so the next request has to present a fresh
// credential. Used by logout.
func RevokeToken(r *http.Request) {
	reqToken := r.Header.Get("Authorization")
	splitToken := strings.Split(reqToken, "Bearer ")
	if len(splitToken) < 2 {
		return
	}
	tokenStrategy := authenticator.Strategy(bearer.CachedStrategyKey)
	auth.Revoke(tokenStrategy, splitToken[1], r)
}
