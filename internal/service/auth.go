// Package service holds the application logic between the HTTP handlers and
// the store: authentication, the query pipeline, and agent relay management.
package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/askdb/askdb/internal/model"
	"github.com/askdb/askdb/internal/store"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountInactive    = errors.New("account is not verified")
)

// Principal is the authenticated identity attached to a request.
type Principal struct {
	UserID int64
	Email  string
}

// SessionTTL is how long an issued session token stays valid.
const SessionTTL = 7 * 24 * time.Hour

// AuthService issues and validates session tokens and checks passwords.
type AuthService struct {
	store     *store.Store
	jwtSecret []byte
}

// NewAuthService creates an auth service signing tokens with jwtSecret.
func NewAuthService(st *store.Store, jwtSecret string) *AuthService {
	return &AuthService{
		store:     st,
		jwtSecret: []byte(jwtSecret),
	}
}

// HashPassword bcrypt-hashes a plaintext password for storage.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword compares a plaintext password against a stored bcrypt hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// NewVerificationToken returns a random token for the signup email link.
func NewVerificationToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// Login checks the email/password pair, records the session, and returns a
// signed token. Unverified accounts cannot sign in.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, *model.User, error) {
	u, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return "", nil, ErrInvalidCredentials
	}
	if u.PasswordHash == "" || !CheckPassword(u.PasswordHash, password) {
		return "", nil, ErrInvalidCredentials
	}
	if !u.IsActive {
		return "", nil, ErrAccountInactive
	}

	token, err := s.establishSession(ctx, u)
	if err != nil {
		return "", nil, err
	}
	return token, u, nil
}

// LoginOAuth records a session for a user already authenticated by an
// external identity provider.
func (s *AuthService) LoginOAuth(ctx context.Context, u *model.User) (string, error) {
	return s.establishSession(ctx, u)
}

func (s *AuthService) establishSession(ctx context.Context, u *model.User) (string, error) {
	token, err := s.IssueJWT(u.ID, u.Email, SessionTTL)
	if err != nil {
		return "", err
	}

	sess := &model.Session{
		UserID:    u.ID,
		TokenHash: store.HashSessionToken(token),
		ExpiresAt: time.Now().Add(SessionTTL).UTC(),
	}
	if err := s.store.UpsertSession(ctx, sess); err != nil {
		return "", err
	}
	return token, nil
}

// Logout drops the user's session record.
func (s *AuthService) Logout(ctx context.Context, userID int64) error {
	return s.store.DeleteSession(ctx, userID)
}

// IssueJWT creates a signed HS256 token for the given user.
func (s *AuthService) IssueJWT(userID int64, email string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwtClaims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Issuer:    "askdb",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

// ValidateToken verifies a session token and returns its principal. The
// token must both carry a valid signature and match the session recorded at
// login, so logout revokes it immediately.
func (s *AuthService) ValidateToken(ctx context.Context, tokenStr string) (*Principal, error) {
	claims := &jwtClaims{}

	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidCredentials
	}

	sess, err := s.store.GetSessionByUser(ctx, claims.UserID)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if sess.TokenHash != store.HashSessionToken(tokenStr) || sess.ExpiresAt.Before(time.Now()) {
		return nil, ErrInvalidCredentials
	}

	return &Principal{UserID: claims.UserID, Email: claims.Email}, nil
}

type jwtClaims struct {
	UserID int64  `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}
