package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/Goodnews119/Marketplacesite/internal/auth"
	"github.com/Goodnews119/Marketplacesite/internal/domain"
	"github.com/Goodnews119/Marketplacesite/internal/repository"
)

const invalidCredentialsMessage = "invalid email or password"

type AuthService struct {
	users  repository.UserRepository
	tokens *auth.TokenIssuer
}

func NewAuthService(users repository.UserRepository, tokens *auth.TokenIssuer) *AuthService {
	return &AuthService{
		users:  users,
		tokens: tokens,
	}
}

type AuthResult struct {
	Token string
	User  *domain.User
}

// Signup registers a user with the fixed role "user".
func (s *AuthService) Signup(ctx context.Context, name, email, password string) (*AuthResult, error) {
	return s.createUser(ctx, name, email, password, domain.RoleUser)
}

// CreateUser registers a user with an explicit role. It is the operator path
// for creating admins and is not reachable over HTTP.
func (s *AuthService) CreateUser(ctx context.Context, name, email, password, role string) (*AuthResult, error) {
	if role != domain.RoleUser && role != domain.RoleAdmin {
		return nil, badRequest("unknown role %q", role)
	}
	return s.createUser(ctx, name, email, password, role)
}

func (s *AuthService) createUser(ctx context.Context, name, email, password, role string) (*AuthResult, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, badRequest("email and password are required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, badRequest("invalid email address")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = strings.SplitN(email, "@", 2)[0]
	}

	hash, err := auth.HashPassword(password)
	if errors.Is(err, auth.ErrPasswordTooLong) {
		return nil, badRequest("password must be at most %d bytes", auth.MaxPasswordBytes)
	}
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, newError(ErrConflict, "email already registered")
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	slog.InfoContext(ctx, "user registered", "user_id", user.ID, "role", user.Role)
	return s.issue(user)
}

// Login fails with one generic message whether the email is unknown or the
// password is wrong.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, newError(ErrUnauthorized, invalidCredentialsMessage)
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, newError(ErrUnauthorized, invalidCredentialsMessage)
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	if !auth.CheckPassword(user.PasswordHash, password) {
		return nil, newError(ErrUnauthorized, invalidCredentialsMessage)
	}
	return s.issue(user)
}

func (s *AuthService) Verify(token string) (*auth.Claims, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return nil, wrapError(ErrUnauthorized, "invalid or expired token", err)
	}
	return claims, nil
}

func RequireRole(claims *auth.Claims, role string) error {
	if claims == nil {
		return newError(ErrUnauthorized, "authentication required")
	}
	if claims.Role != role {
		return newError(ErrForbidden, "insufficient permissions")
	}
	return nil
}

func (s *AuthService) issue(user *domain.User) (*AuthResult, error) {
	token, err := s.tokens.Issue(user.ID, user.Role)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, User: user}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
