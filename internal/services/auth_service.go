package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	stderrors "errors"

	"github.com/honeynil/RecipeService/internal/infrastructure/auth"
	"github.com/honeynil/RecipeService/internal/models"
	"github.com/honeynil/RecipeService/internal/repository"
	pkgerrors "github.com/honeynil/RecipeService/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/crypto/bcrypt"
)

//go:generate mockgen -source=auth_service.go -destination=mocks/auth_service_mock.go -package=mocks

const bcryptCost = 12

// Session is an issued token together with the identity it names.
type Session struct {
	Token    string
	Identity models.Identity
}

type AuthService interface {
	Register(ctx context.Context, name, email, password string) (*Session, error)
	Login(ctx context.Context, email, password string) (*Session, error)
	ResolveSession(ctx context.Context, rawToken string) *models.Identity
}

type authService struct {
	userRepo repository.UserRepository
	codec    *auth.TokenCodec
	resolver auth.SessionResolver
}

func NewAuthService(userRepo repository.UserRepository, codec *auth.TokenCodec, resolver auth.SessionResolver) *authService {
	return &authService{
		userRepo: userRepo,
		codec:    codec,
		resolver: resolver,
	}
}

func (s *authService) Register(ctx context.Context, name, email, password string) (*Session, error) {
	tracer := otel.Tracer("auth-service")
	ctx, span := tracer.Start(ctx, "Register")
	defer span.End()

	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if err := validateRegistration(name, email, password); err != nil {
		span.SetStatus(codes.Error, "validation failed")
		return nil, err
	}

	existing, err := s.userRepo.GetByEmail(ctx, email)
	if existing != nil {
		span.SetStatus(codes.Error, "email already registered")
		slog.Warn("email already registered", "email", email, "existing_id", existing.ID)
		return nil, pkgerrors.ErrDuplicateEmail
	}
	if err != nil && !stderrors.Is(err, pkgerrors.ErrUserNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, "user check failed")
		slog.Error("failed to check user existence", "email", email, "error", err)
		return nil, fmt.Errorf("%w: failed to check user existence", pkgerrors.ErrInternal)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "password hashing failed")
		slog.Error("failed to hash password", "email", email, "error", err)
		return nil, fmt.Errorf("%w: failed to hash password", pkgerrors.ErrInternal)
	}

	user := &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if stderrors.Is(err, pkgerrors.ErrDuplicateEmail) {
			span.SetStatus(codes.Error, "email already registered")
			return nil, pkgerrors.ErrDuplicateEmail
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "user creation failed")
		slog.Error("failed to create user in DB", "email", email, "error", err)
		return nil, fmt.Errorf("%w: failed to create user", pkgerrors.ErrInternal)
	}
	span.SetAttributes(attribute.String("user_id", user.ID))

	session, err := s.issue(user.Identity())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "token issue failed")
		return nil, err
	}

	slog.Info("user registered", "user_id", user.ID)
	return session, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (*Session, error) {
	tracer := otel.Tracer("auth-service")
	ctx, span := tracer.Start(ctx, "Login")
	defer span.End()

	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		span.SetStatus(codes.Error, "empty email or password")
		return nil, pkgerrors.ErrInvalidCredentials
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if stderrors.Is(err, pkgerrors.ErrUserNotFound) {
			span.SetStatus(codes.Error, "unknown email")
			slog.Warn("login with unknown email", "email", email)
			return nil, pkgerrors.ErrInvalidCredentials
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "user lookup failed")
		slog.Error("failed to get user", "email", email, "error", err)
		return nil, fmt.Errorf("%w: failed to get user", pkgerrors.ErrInternal)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		span.SetStatus(codes.Error, "invalid password")
		slog.Warn("invalid password", "user_id", user.ID)
		return nil, pkgerrors.ErrInvalidCredentials
	}

	session, err := s.issue(user.Identity())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "token issue failed")
		return nil, err
	}

	slog.Info("user logged in", "user_id", user.ID)
	return session, nil
}

func (s *authService) ResolveSession(ctx context.Context, rawToken string) *models.Identity {
	return s.resolver.ResolveSession(ctx, rawToken)
}

func (s *authService) issue(identity models.Identity) (*Session, error) {
	token, err := s.codec.Issue(identity)
	if err != nil {
		slog.Error("failed to issue token", "user_id", identity.ID, "error", err)
		return nil, fmt.Errorf("%w: failed to issue token", pkgerrors.ErrInternal)
	}
	return &Session{Token: token, Identity: identity}, nil
}

func validateRegistration(name, email, password string) error {
	if name == "" {
		return pkgerrors.NewValidationError("Name is required")
	}
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return pkgerrors.NewValidationError("Invalid email address")
	}
	if len(password) < 6 {
		return pkgerrors.NewValidationError("Password must be at least 6 characters")
	}
	return nil
}
