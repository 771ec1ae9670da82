package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"storefront-service/models"
	"storefront-service/repository"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrUserExists               = errors.New("user already exists")
	ErrUserNotFound             = errors.New("user does not exist")
	ErrInvalidCredentials       = errors.New("invalid credentials")
	ErrInvalidVerificationToken = errors.New("invalid or expired verification token")
)

const (
	passwordCost            = 10
	verificationTokenBytes  = 32
	defaultVerificationTTL  = time.Hour
	verificationPathAndArgs = "/verify-email?token="
)

type TokenGenerator interface {
	GenerateToken(userID, role string) (string, error)
}

type AuthService struct {
	users           repository.UserRepo
	tokens          TokenGenerator
	mailer          Mailer
	baseURL         string
	verificationTTL time.Duration
	now             func() time.Time
}

func NewAuthService(users repository.UserRepo, tokens TokenGenerator, mailer Mailer, baseURL string) *AuthService {
	return &AuthService{
		users:           users,
		tokens:          tokens,
		mailer:          mailer,
		baseURL:         strings.TrimRight(baseURL, "/"),
		verificationTTL: defaultVerificationTTL,
		now:             time.Now,
	}
}

// Register stores a new unverified user and mails a verification link. Only
// a hash of the link's token is stored.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) error {
	email := strings.TrimSpace(req.Email)

	_, err := s.users.FindByEmail(ctx, email)
	if err == nil {
		return ErrUserExists
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("failed to look up user: %w", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), passwordCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	raw, err := randomHex(verificationTokenBytes)
	if err != nil {
		return fmt.Errorf("failed to generate verification token: %w", err)
	}
	expires := s.now().Add(s.verificationTTL).UTC()

	user := &models.User{
		Name:              strings.TrimSpace(req.Name),
		Email:             email,
		Phone:             strings.TrimSpace(req.Phone),
		Username:          strings.TrimSpace(req.Username),
		Password:          string(hashed),
		Role:              models.RoleUser,
		VerificationToken: hashToken(raw),
		TokenExpires:      &expires,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return ErrUserExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	err = s.mailer.SendVerificationEmail(ctx, VerificationEmail{
		To:   user.Email,
		Name: user.Name,
		Link: s.baseURL + verificationPathAndArgs + raw,
	})
	if err != nil {
		return fmt.Errorf("user saved but verification email failed: %w", err)
	}
	return nil
}

func (s *AuthService) VerifyEmail(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrInvalidVerificationToken
	}

	user, err := s.users.FindByVerificationToken(ctx, hashToken(token))
	if errors.Is(err, repository.ErrNotFound) {
		return ErrInvalidVerificationToken
	}
	if err != nil {
		return fmt.Errorf("failed to look up verification token: %w", err)
	}
	if user.TokenExpires == nil || s.now().After(*user.TokenExpires) {
		return ErrInvalidVerificationToken
	}

	if err := s.users.MarkVerified(ctx, user.ID); err != nil {
		return fmt.Errorf("failed to verify user: %w", err)
	}
	return nil
}

// Login checks the password and issues a token. Unverified users may log in.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.users.FindByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	role := user.Role
	if role == "" {
		role = models.RoleUser
	}
	token, err := s.tokens.GenerateToken(user.ID.Hex(), role)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Token: token, Role: role}, nil
}

func randomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func hashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
