package service

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/jende/inventory-service/internal/auth"
	"github.com/jende/inventory-service/internal/config"
	"github.com/jende/inventory-service/internal/domain"
	"github.com/jende/inventory-service/internal/mail"
	"github.com/jende/inventory-service/internal/repository"
	apperrors "github.com/jende/inventory-service/pkg/util"
)

// AuthService coordinates registration, login and password recovery flows.
type AuthService struct {
	users        repository.UserRepository
	tokenMgr     *auth.TokenManager
	mailer       mail.Mailer
	logger       *zap.Logger
	bcryptCost   int
	resetBaseURL string
}

// AuthDependencies encapsulates collaborator requirements for auth service.
type AuthDependencies struct {
	UserRepo repository.UserRepository
	Mailer   mail.Mailer
	Logger   *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	return &AuthService{
		users:        deps.UserRepo,
		tokenMgr:     auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL(), cfg.Auth.ResetTokenTTL()),
		mailer:       deps.Mailer,
		logger:       deps.Logger,
		bcryptCost:   cfg.Auth.BcryptCost,
		resetBaseURL: cfg.Mail.ResetBaseURL,
	}
}

// Register creates a new account. No token is issued; the caller logs in
// separately.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (*domain.User, error) {
	if name == "" || email == "" || password == "" {
		return nil, apperrors.NewValidationError("name, email and password are required", nil)
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.NewConflict("email already registered", map[string]any{"email": email})
	} else if err != pgx.ErrNoRows {
		return nil, apperrors.MapError(err)
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	user := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// Login authenticates by email and password and issues a session token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, string, time.Time, error) {
	if email == "" || password == "" {
		return nil, "", time.Time{}, apperrors.NewValidationError("email and password are required", nil)
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, "", time.Time{}, apperrors.NewNotFound("user", map[string]any{"email": email})
		}
		return nil, "", time.Time{}, apperrors.MapError(err)
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("incorrect password")
	}

	token, exp, err := s.tokenMgr.GenerateAccessToken(user.ID, user.Email)
	if err != nil {
		return nil, "", time.Time{}, apperrors.MapError(err)
	}
	return user, token, exp, nil
}

// RequestPasswordReset emails a signed, time-limited reset link. The token is
// self-contained; nothing is persisted, so a lost email simply expires.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	if email == "" {
		return apperrors.NewValidationError("email is required", nil)
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if err == pgx.ErrNoRows {
			return apperrors.NewNotFound("user", map[string]any{"email": email})
		}
		return apperrors.MapError(err)
	}

	token, exp, err := s.tokenMgr.GenerateResetToken(user.ID)
	if err != nil {
		return apperrors.MapError(err)
	}

	link := fmt.Sprintf("%s?token=%s", s.resetBaseURL, token)
	msg := mail.Message{
		To:      user.Email,
		Subject: "Recuperación de contraseña - Café Jende",
		HTML: fmt.Sprintf(`<h2>Restablecer tu contraseña</h2>
<p>Haz clic en el siguiente enlace para cambiar tu contraseña:</p>
<a href=%q target="_blank">%s</a>
<p><b>Este enlace expirará en %d minutos.</b></p>`,
			link, link, int(time.Until(exp).Minutes())),
	}

	if err := s.mailer.Send(ctx, msg); err != nil {
		s.logger.Error("reset email delivery failed", zap.String("email", email), zap.Error(err))
		return apperrors.NewDeliveryError(err)
	}

	s.logger.Info("reset email sent", zap.String("email", email))
	return nil
}

// ResetPassword verifies the reset token and stores the new password hash.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if token == "" || newPassword == "" {
		return apperrors.NewValidationError("token and new password are required", nil)
	}

	userID, err := s.tokenMgr.ParseResetToken(token)
	if err != nil {
		return apperrors.NewInvalidToken("invalid or expired token")
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return apperrors.NewNotFound("user", nil)
		}
		return apperrors.MapError(err)
	}

	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return apperrors.MapError(err)
	}

	user.PasswordHash = hash
	if err := s.users.Update(ctx, user); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}
