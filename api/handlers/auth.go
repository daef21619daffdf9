package handlers

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/civicfix/complaint-api/api"
	"github.com/civicfix/complaint-api/config"
	"github.com/civicfix/complaint-api/databases"
	"github.com/civicfix/complaint-api/models"
	templates "github.com/civicfix/complaint-api/templates/html"
)

const (
	otpLifetime        = 5 * time.Minute
	resetTokenLifetime = time.Hour
	tokenLifetime      = 24 * time.Hour
)

// Auth handles signup, login and password recovery
type Auth struct {
	UDB     databases.UserDatabase
	ODB     databases.OTPDatabase
	Secret  []byte
	BaseURL string
}

// issueToken mints the bearer JWT handed out at login. The same token
// authenticates both the REST routes and the chat handshake.
func (a Auth) issueToken(userID primitive.ObjectID) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   userID.Hex(),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(tokenLifetime)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.Secret)
}

func generateOTP() string {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		// rand.Reader failing means the platform entropy source is broken
		panic(err)
	}
	return fmt.Sprintf("%06d", n.Int64())
}

// SendOTPHandler emails a 6-digit verification code to a new signup address
func (a Auth) SendOTPHandler(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	email := strings.ToLower(strings.TrimSpace(body.Email))
	if email == "" {
		config.ErrorStatus("email is required", http.StatusBadRequest, w, errors.New("empty email"))
		return
	}

	count, err := a.UDB.CountDocuments(context.Background(), bson.M{"email": email})
	if err != nil {
		config.ErrorStatus("failed to check existing accounts", http.StatusInternalServerError, w, err)
		return
	}
	if count > 0 {
		config.ErrorStatus("email already registered", http.StatusConflict, w, errors.New("duplicate email"))
		return
	}

	// one live code per address
	if _, err := a.ODB.DeleteMany(context.Background(), bson.M{"email": email}); err != nil {
		zap.S().Warnw("failed to clear previous codes", "email", email, "error", err)
	}

	code := generateOTP()
	now := nowDateTime()
	otp := models.OTP{
		ID:        primitive.NewObjectID(),
		Email:     email,
		OTP:       code,
		ExpiresAt: primitive.NewDateTimeFromTime(time.Now().Add(otpLifetime)),
		CreatedAt: now,
	}
	if _, err := a.ODB.InsertOne(context.Background(), otp); err != nil {
		config.ErrorStatus("failed to store verification code", http.StatusInternalServerError, w, err)
		return
	}

	go func() {
		subject := "Your CivicFix verification code"
		html := templates.RenderOTPEmail(code)
		plain := "Your CivicFix verification code is " + code + ". It expires in 5 minutes."
		if err := sendEmail(email, "", subject, html, plain); err != nil {
			zap.S().Errorw("failed to send otp email", "email", email, "error", err)
		}
	}()

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "OTP sent",
	})
}

// VerifyOTPHandler checks a signup verification code. Codes are single use.
func (a Auth) VerifyOTPHandler(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email string `json:"email"`
		OTP   string `json:"otp"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	email := strings.ToLower(strings.TrimSpace(body.Email))

	otp, err := a.ODB.FindOne(context.Background(), bson.M{"email": email, "otp": body.OTP})
	if err != nil {
		config.ErrorStatus("invalid verification code", http.StatusBadRequest, w, err)
		return
	}
	if time.Now().After(otp.ExpiresAt.Time()) {
		_, _ = a.ODB.DeleteMany(context.Background(), bson.M{"email": email})
		config.ErrorStatus("verification code expired", http.StatusBadRequest, w, errors.New("expired otp"))
		return
	}
	if _, err := a.ODB.DeleteMany(context.Background(), bson.M{"email": email}); err != nil {
		zap.S().Warnw("failed to consume verification code", "email", email, "error", err)
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "email verified",
	})
}

// CreateAccountHandler registers a verified signup and logs it straight in
func (a Auth) CreateAccountHandler(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		FullName string `json:"fullName"`
		Password string `json:"password"`
		Address  string `json:"address"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	email := strings.ToLower(strings.TrimSpace(body.Email))
	if email == "" || body.FullName == "" || len(body.Password) < 8 {
		config.ErrorStatus("email, fullName and a password of at least 8 characters are required", http.StatusBadRequest, w, errors.New("invalid signup payload"))
		return
	}

	count, err := a.UDB.CountDocuments(context.Background(), bson.M{"email": email})
	if err != nil {
		config.ErrorStatus("failed to check existing accounts", http.StatusInternalServerError, w, err)
		return
	}
	if count > 0 {
		config.ErrorStatus("email already registered", http.StatusConflict, w, errors.New("duplicate email"))
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
	if err != nil {
		config.ErrorStatus("failed to hash password", http.StatusInternalServerError, w, err)
		return
	}

	now := nowDateTime()
	user := models.User{
		ID:         primitive.NewObjectID(),
		Email:      email,
		FullName:   body.FullName,
		Password:   string(hashed),
		Address:    body.Address,
		IsAdmin:    false,
		IsVerified: true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if _, err := a.UDB.InsertOne(context.Background(), user); err != nil {
		config.ErrorStatus("failed to create account", http.StatusInternalServerError, w, err)
		return
	}

	token, err := a.issueToken(user.ID)
	if err != nil {
		config.ErrorStatus("failed to issue token", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "account created",
		"token":   token,
		"user":    user,
	})
}

// LoginHandler exchanges credentials for a bearer token
func (a Auth) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	email := strings.ToLower(strings.TrimSpace(body.Email))

	user, err := a.UDB.FindOne(context.Background(), bson.M{"email": email})
	if err != nil {
		config.ErrorStatus("invalid email or password", http.StatusUnauthorized, w, err)
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(body.Password)); err != nil {
		config.ErrorStatus("invalid email or password", http.StatusUnauthorized, w, errors.New("password mismatch"))
		return
	}

	token, err := a.issueToken(user.ID)
	if err != nil {
		config.ErrorStatus("failed to issue token", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "logged in",
		"token":   token,
		"user":    user,
	})
}

// LogoutHandler drops the caller's cached token
func (a Auth) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	api.RevokeToken(r)
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "logged out",
	})
}

// CheckAuthHandler echoes the account behind the presented token, used by the
// frontend on boot to restore a session
func (a Auth) CheckAuthHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := api.UserIDFromContext(r.Context())
	if !ok {
		config.ErrorStatus("missing auth context", http.StatusUnauthorized, w, errors.New("no authenticated user"))
		return
	}

	user, err := a.UDB.FindOne(context.Background(), bson.M{"_id": userID})
	if err != nil {
		config.ErrorStatus("failed to get user", http.StatusUnauthorized, w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"user": user,
	})
}

// ForgotPasswordHandler issues a reset token and emails the reset link. The
// response is identical whether the address exists or not.
func (a Auth) ForgotPasswordHandler(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	email := strings.ToLower(strings.TrimSpace(body.Email))

	user, err := a.UDB.FindOne(context.Background(), bson.M{"email": email})
	if err == nil {
		token := uuid.New().String()
		expires := primitive.NewDateTimeFromTime(time.Now().Add(resetTokenLifetime))
		update := bson.M{"$set": bson.M{
			"resetPasswordToken":   token,
			"resetPasswordExpires": expires,
			"updatedAt":            nowDateTime(),
		}}
		if _, err := a.UDB.UpdateOne(context.Background(), bson.M{"_id": user.ID}, update); err != nil {
			config.ErrorStatus("failed to store reset token", http.StatusInternalServerError, w, err)
			return
		}

		resetURL := strings.TrimRight(a.BaseURL, "/") + "/reset-password?token=" + token
		go func() {
			subject := "Reset your CivicFix password"
			html := templates.RenderResetPasswordEmail(resetURL)
			plain := "Reset your CivicFix password: " + resetURL
			if err := sendEmail(user.Email, user.FullName, subject, html, plain); err != nil {
				zap.S().Errorw("failed to send reset email", "userId", user.ID.Hex(), "error", err)
			}
		}()
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "if that email exists, a reset link has been sent",
	})
}

// ResetPasswordHandler redeems a reset token for a new password
func (a Auth) ResetPasswordHandler(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Token    string `json:"token"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	if body.Token == "" || len(body.Password) < 8 {
		config.ErrorStatus("token and a password of at least 8 characters are required", http.StatusBadRequest, w, errors.New("invalid reset payload"))
		return
	}

	user, err := a.UDB.FindOne(context.Background(), bson.M{"resetPasswordToken": body.Token})
	if err != nil {
		config.ErrorStatus("invalid or expired reset token", http.StatusBadRequest, w, err)
		return
	}
	if user.ResetPasswordExpires == nil || time.Now().After(user.ResetPasswordExpires.Time()) {
		config.ErrorStatus("invalid or expired reset token", http.StatusBadRequest, w, errors.New("expired reset token"))
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
	if err != nil {
		config.ErrorStatus("failed to hash password", http.StatusInternalServerError, w, err)
		return
	}

	update := bson.M{
		"$set":   bson.M{"password": string(hashed), "updatedAt": nowDateTime()},
		"$unset": bson.M{"resetPasswordToken": "", "resetPasswordExpires": ""},
	}
	if _, err := a.UDB.UpdateOne(context.Background(), bson.M{"_id": user.ID}, update); err != nil {
		config.ErrorStatus("failed to update password", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "password updated",
	})
}
