package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/wholesalehub/sessiongate/internal/core/domain"
	"github.com/wholesalehub/sessiongate/internal/core/ports"
)

var _ ports.AuthService = (*AuthService)(nil)

// Option customises the profile services.
type Option func(*options)

type options struct {
	now       func() time.Time
	trialDays int
}

func defaultOptions() options {
	return options{now: time.Now, trialDays: domain.DefaultTrialPolicy.LengthDays}
}

// WithServiceClock sets the time source (primarily for testing).
func WithServiceClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithTrialDays overrides the seller trial length.
func WithTrialDays(days int) Option {
	return func(o *options) {
		if days > 0 {
			o.trialDays = days
		}
	}
}

// AuthService implements registration, login and profile reads.
type AuthService struct {
	repo      ports.AccountRepository
	jwtSecret string
	tokenTTL  time.Duration
	log       zerolog.Logger
	opts      options
}

func NewAuthService(repo ports.AccountRepository, jwtSecret string, tokenTTL time.Duration, log zerolog.Logger, opts ...Option) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &AuthService{repo: repo, jwtSecret: jwtSecret, tokenTTL: tokenTTL, log: log, opts: o}
}

// Register creates an account. Sellers start in not_required with the trial
// clock running from now.
func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (*domain.Account, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" || in.Password == "" {
		return nil, domain.ErrInvalidCredentials
	}
	if _, err := domain.ParseRole(in.Role.String()); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.opts.now().UTC()
	account := &domain.Account{
		ID:           uuid.NewString(),
		Role:         in.Role,
		Email:        email,
		DisplayName:  in.DisplayName,
		PasswordHash: string(hash),
		RegisteredAt: now,
		UpdatedAt:    now,
	}
	if in.Role == domain.RoleSeller {
		account.Verification = domain.VerificationNotRequired
	}

	created, err := s.repo.Create(ctx, account)
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("account_id", created.ID).Str("role", created.Role.String()).Msg("account registered")
	return created, nil
}

// Login checks the password and issues a bearer token bound to the role.
// Unknown accounts and wrong passwords are indistinguishable.
func (s *AuthService) Login(ctx context.Context, role domain.Role, email, password string) (string, *domain.Account, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return "", nil, domain.ErrInvalidCredentials
	}

	account, err := s.repo.FindByEmail(ctx, role, email)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return "", nil, domain.ErrInvalidCredentials
		}
		return "", nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)) != nil {
		return "", nil, domain.ErrInvalidCredentials
	}

	account, err = expireTrial(ctx, s.repo, account, s.opts, s.log)
	if err != nil {
		return "", nil, err
	}

	token, err := s.generateToken(account)
	if err != nil {
		return "", nil, err
	}
	return token, account, nil
}

// Profile returns the account behind a token. A seller whose trial has run
// out is moved to required before the profile is returned.
func (s *AuthService) Profile(ctx context.Context, role domain.Role, accountID string) (*domain.Account, error) {
	account, err := s.repo.FindByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if account.Role != role {
		return nil, domain.ErrForbidden
	}
	return expireTrial(ctx, s.repo, account, s.opts, s.log)
}

func (s *AuthService) generateToken(account *domain.Account) (string, error) {
	now := s.opts.now()
	claims := jwt.MapClaims{
		"sub":  account.ID,
		"role": account.Role.String(),
		"iat":  now.Unix(),
		"exp":  now.Add(s.tokenTTL).Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(s.jwtSecret))
}
