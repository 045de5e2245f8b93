// Package auth handles accounts, login sessions and password resets.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"inventory-service/internal/domain"
	"inventory-service/internal/store"
)

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 6

var (
	ErrMissingCredentials = errors.New("auth: email and password are required")
	ErrMissingEmail       = errors.New("auth: email is required")
	ErrPasswordTooShort   = fmt.Errorf("auth: password must be at least %d characters", MinPasswordLength)
	ErrInvalidCredentials = errors.New("auth: invalid login credentials")
	ErrEmailTaken         = errors.New("auth: email already registered")
	ErrMissingPassword    = errors.New("auth: password and confirm password are required")
	ErrPasswordMismatch   = errors.New("auth: passwords do not match")
	ErrInvalidResetToken  = errors.New("auth: invalid or expired reset token")
	ErrUserNotFound       = errors.New("auth: user not found")
)

// Service implements sign-up, sign-in, profile and password reset flows.
type Service struct {
	users        store.UserStorer
	mailer       Mailer
	resetSecret  []byte
	resetTTL     time.Duration
	publicOrigin string
	logger       *zap.Logger
	now          func() time.Time
}

// Options configures the reset flow.
type Options struct {
	ResetSecret  string
	ResetTTL     time.Duration
	PublicOrigin string
}

func NewService(users store.UserStorer, mailer Mailer, opts Options, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.ResetTTL <= 0 {
		opts.ResetTTL = time.Hour
	}
	return &Service{
		users:        users,
		mailer:       mailer,
		resetSecret:  []byte(opts.ResetSecret),
		resetTTL:     opts.ResetTTL,
		publicOrigin: strings.TrimRight(opts.PublicOrigin, "/"),
		logger:       logger.Named("auth"),
		now:          time.Now,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SignUp registers a new account.
func (s *Service) SignUp(ctx context.Context, email, password, displayName string) (*domain.User, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, ErrMissingCredentials
	}
	if len(password) < MinPasswordLength {
		return nil, ErrPasswordTooShort
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("auth: failed to hash password: %w", err)
	}
	user, err := s.users.CreateUser(ctx, &domain.User{
		Email:        email,
		PasswordHash: string(hash),
		DisplayName:  strings.TrimSpace(displayName),
	})
	if err != nil {
		if errors.Is(err, store.ErrUserEmailExists) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	s.logger.Info("user signed up", zap.Int64("user_id", user.ID))
	return user, nil
}

// SignIn checks credentials. Unknown emails and wrong passwords give the
// same error.
func (s *Service) SignIn(ctx context.Context, email, password string) (*domain.User, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, ErrMissingCredentials
	}
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// CurrentUser returns the account behind a session.
func (s *Service) CurrentUser(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// UpdateProfile changes the display name and email. An empty email keeps the
// current one.
func (s *Service) UpdateProfile(ctx context.Context, id int64, displayName, email string) (*domain.User, error) {
	current, err := s.CurrentUser(ctx, id)
	if err != nil {
		return nil, err
	}
	email = normalizeEmail(email)
	if email == "" {
		email = current.Email
	}
	user, err := s.users.UpdateUserProfile(ctx, id, strings.TrimSpace(displayName), email)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrUserEmailExists):
			return nil, ErrEmailTaken
		case errors.Is(err, store.ErrUserNotFound):
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// ForgotPassword mails a reset link. Unknown addresses are ignored so that
// the response does not reveal which emails are registered.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if email == "" {
		return ErrMissingEmail
	}
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			s.logger.Info("password reset requested for unknown email")
			return nil
		}
		return err
	}

	token, err := s.issueResetToken(user)
	if err != nil {
		return err
	}
	link := s.publicOrigin + "/reset-password?token=" + url.QueryEscape(token)
	body := "Bonjour,\n\nPour choisir un nouveau mot de passe, ouvrez ce lien :\n" + link +
		"\n\nCe lien expire dans " + s.resetTTL.String() + "."
	if err := s.mailer.Send(ctx, user.Email, "Réinitialisation du mot de passe", body); err != nil {
		s.logger.Error("failed to send reset mail", zap.Int64("user_id", user.ID), zap.Error(err))
		return fmt.Errorf("auth: could not send reset mail: %w", err)
	}
	return nil
}

// ResetPassword sets a new password for the user named by token.
func (s *Service) ResetPassword(ctx context.Context, token, password, confirm string) error {
	if password == "" || confirm == "" {
		return ErrMissingPassword
	}
	if password != confirm {
		return ErrPasswordMismatch
	}
	if len(password) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	user, err := s.verifyResetToken(ctx, token)
	if err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("auth: failed to hash password: %w", err)
	}
	if err := s.users.UpdateUserPassword(ctx, user.ID, string(hash)); err != nil {
		return err
	}
	s.logger.Info("password reset", zap.Int64("user_id", user.ID))
	return nil
}

// signingKey binds tokens to the current password hash, so a token stops
// working once it has been used.
func (s *Service) signingKey(user *domain.User) []byte {
	key := make([]byte, 0, len(s.resetSecret)+len(user.PasswordHash))
	key = append(key, s.resetSecret...)
	return append(key, user.PasswordHash...)
}

func (s *Service) issueResetToken(user *domain.User) (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(user.ID, 10),
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.resetTTL)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signingKey(user))
	if err != nil {
		return "", fmt.Errorf("auth: failed to sign reset token: %w", err)
	}
	return token, nil
}

func (s *Service) verifyResetToken(ctx context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, ErrInvalidResetToken
	}
	var unverified jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &unverified); err != nil {
		return nil, ErrInvalidResetToken
	}
	id, err := strconv.ParseInt(unverified.Subject, 10, 64)
	if err != nil {
		return nil, ErrInvalidResetToken
	}
	user, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, ErrInvalidResetToken
		}
		return nil, err
	}

	var claims jwt.RegisteredClaims
	_, err = jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (interface{}, error) {
		return s.signingKey(user), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, ErrInvalidResetToken
	}
	return user, nil
}
