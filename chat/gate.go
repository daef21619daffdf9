package chat

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/civicfix/complaint-api/databases"
)

// Handshake rejection reasons, surfaced verbatim to the client
var (
	ErrNoToken      = errors.New("No token provided")
	ErrInvalidToken = errors.New("Invalid token")
	ErrUserNotFound = errors.New("User not found")
)

// Gate authenticates every new chat connection before any room operation is
// allowed. The credential is the login-issued JWT, carried out-of-band on the
// handshake because the websocket does not share the HTTP cookie jar.
type Gate struct {
	DB     databases.UserDatabase
	Secret []byte
}

// Authenticate verifies the handshake token and resolves it to a session
// identity. Failures are terminal for the connection attempt.
func (g Gate) Authenticate(ctx context.Context, token string) (Session, error) {
	if token == "" {
		return Session{}, ErrNoToken
	}

	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return g.Secret, nil
	})
	if err != nil || !parsed.Valid {
		return Session{}, ErrInvalidToken
	}

	sub, err := parsed.Claims.GetSubject()
	if err != nil {
		return Session{}, ErrInvalidToken
	}
	userID, err := primitive.ObjectIDFromHex(sub)
	if err != nil {
		return Session{}, ErrInvalidToken
	}

	user, err := g.DB.FindOne(ctx, bson.M{"_id": userID})
	if err != nil {
		return Session{}, ErrUserNotFound
	}

	return Session{
		UserID:   user.ID,
		FullName: user.FullName,
		Email:    user.Email,
		IsAdmin:  user.IsAdmin,
	}, nil
}
