// Package services – AuthService
//
// This file implements account registration, password login and the HS256
// bearer tokens that identify a user to the API. Passwords are stored as
// bcrypt hashes only.
package services

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/AtharvaManchalkar/DriveOps/internal/domain"
	"github.com/AtharvaManchalkar/DriveOps/internal/repo"
)

// MinPasswordLen is the shortest password Register accepts.
const MinPasswordLen = 8

// UserRepo defines the repository contract required by AuthService.
type UserRepo interface {
	CreateUser(ctx context.Context, db *gorm.DB, email, name, passwordHash string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, db *gorm.DB, email string) (*domain.User, error)
}

// Claims are the JWT claims of an access token.
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// AuthService registers users and issues and verifies access tokens.
type AuthService struct {
	DB     *gorm.DB
	Repo   UserRepo
	Secret []byte
	Issuer string
	TTL    time.Duration

	// Cost is the bcrypt cost; bcrypt.DefaultCost when zero.
	Cost int

	now func() time.Time
}

// NewAuthService returns an AuthService signing with secret.
func NewAuthService(db *gorm.DB, r UserRepo, secret, issuer string, ttl time.Duration) *AuthService {
	return &AuthService{
		DB:     db,
		Repo:   r,
		Secret: []byte(secret),
		Issuer: issuer,
		TTL:    ttl,
		now:    time.Now,
	}
}

// Token is an issued access token.
type Token struct {
	AccessToken string       `json:"accessToken"`
	TokenType   string       `json:"tokenType"`
	ExpiresAt   time.Time    `json:"expiresAt"`
	User        *domain.User `json:"user"`
}

// Register creates an account.
func (s *AuthService) Register(ctx context.Context, email, name, password string) (*domain.User, error) {
	tr := otel.Tracer("services/AuthService")
	ctx, span := tr.Start(ctx, "Register")
	defer span.End()

	email = strings.TrimSpace(email)
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return nil, &domain.ValidationError{Field: "email", Reason: "must be a valid email address"}
	}
	if utf8.RuneCountInString(password) < MinPasswordLen {
		return nil, &domain.ValidationError{Field: "password", Reason: "must be at least 8 characters"}
	}

	cost := s.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, &domain.ValidationError{Field: "password", Reason: "must be at most 72 bytes"}
		}
		return nil, err
	}

	u, err := s.Repo.CreateUser(ctx, s.DB, email, strings.TrimSpace(name), string(hash))
	if errors.Is(err, repo.ErrDuplicate) {
		return nil, ErrEmailTaken
	}
	if err != nil {
		return nil, storeErr(err)
	}
	span.SetAttributes(attribute.String("user.id", u.ID))
	return u, nil
}

// Login checks the password and issues a token. Unknown emails and wrong
// passwords both yield ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Token, error) {
	tr := otel.Tracer("services/AuthService")
	ctx, span := tr.Start(ctx, "Login")
	defer span.End()

	u, err := s.Repo.GetUserByEmail(ctx, s.DB, email)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, storeErr(err)
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}

	now := s.now()
	exp := now.Add(s.TTL)
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID: u.ID,
		Email:  u.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			Issuer:    s.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
			ID:        uuid.NewString(),
		},
	})
	signed, err := tok.SignedString(s.Secret)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("user.id", u.ID))
	return &Token{AccessToken: signed, TokenType: "Bearer", ExpiresAt: exp.UTC(), User: u}, nil
}

// ParseToken verifies signature, issuer and expiry and returns the claims.
func (s *AuthService) ParseToken(raw string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.Secret, nil
	},
		jwt.WithIssuer(s.Issuer),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || claims.UserID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// RequestPasswordReset accepts a reset request. No mail is sent; the request
// is only logged, and the outcome never reveals whether the email exists.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	tr := otel.Tracer("services/AuthService")
	ctx, span := tr.Start(ctx, "RequestPasswordReset")
	defer span.End()

	u, err := s.Repo.GetUserByEmail(ctx, s.DB, email)
	if err != nil {
		if !errors.Is(err, repo.ErrNotFound) {
			return storeErr(err)
		}
		return nil
	}
	zerolog.Ctx(ctx).Info().Str("user_id", u.ID).Msg("password reset requested")
	return nil
}
