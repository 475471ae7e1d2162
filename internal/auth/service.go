// Package auth handles staff accounts, session tokens and the optional
// second factor for administrators.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"resto-system/internal/database/models"
	"resto-system/internal/repository"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 6

// Session is a freshly issued token and who it belongs to.
type Session struct {
	Token          string
	Principal      Principal
	StepUpRequired bool
}

type NewAccount struct {
	Username string
	Password string
	Role     models.Role
	FullName string
}

type Service struct {
	accounts repository.AccountStore
	issuer   *TokenIssuer
	stepUp   *StepUpPolicy
	revoker  Revoker
}

func NewService(accounts repository.AccountStore, issuer *TokenIssuer, stepUp *StepUpPolicy, revoker Revoker) *Service {
	return &Service{
		accounts: accounts,
		issuer:   issuer,
		stepUp:   stepUp,
		revoker:  revoker,
	}
}

func (s *Service) StepUp() *StepUpPolicy {
	return s.stepUp
}

func (s *Service) Login(ctx context.Context, username, password string) (Session, error) {
	account, err := s.accounts.FindAccountByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, repository.ErrNotFound) {
		return Session{}, ErrInvalidCredentials
	}
	if err != nil {
		return Session{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.Password), []byte(password)); err != nil {
		log.Warn().Str("username", account.Username).Msg("failed login")
		return Session{}, ErrInvalidCredentials
	}

	session, err := s.issue(Principal{
		AccountID: account.ID,
		Username:  account.Username,
		Role:      account.Role,
	})
	if err != nil {
		return Session{}, err
	}
	log.Info().Str("username", account.Username).Str("role", string(account.Role)).Msg("login")
	return session, nil
}

// CompleteStepUp verifies the second factor and reissues the session with
// the step-up flag set. The old token is revoked.
func (s *Service) CompleteStepUp(ctx context.Context, p Principal, code string) (Session, error) {
	if !s.stepUp.Required(p.Role) {
		return Session{}, ErrStepUpDisabled
	}
	if err := s.stepUp.Verify(code); err != nil {
		log.Warn().Str("username", p.Username).Msg("rejected second factor")
		return Session{}, err
	}

	if err := s.revoker.Revoke(ctx, p.TokenID, p.ExpiresAt); err != nil {
		return Session{}, err
	}
	p.SteppedUp = true
	return s.issue(p)
}

func (s *Service) Logout(ctx context.Context, p Principal) error {
	return s.revoker.Revoke(ctx, p.TokenID, p.ExpiresAt)
}

// Authenticate turns a presented token into a principal.
func (s *Service) Authenticate(ctx context.Context, token string) (Principal, error) {
	p, err := s.issuer.Parse(token)
	if err != nil {
		return Principal{}, err
	}
	revoked, err := s.revoker.IsRevoked(ctx, p.TokenID)
	if err != nil {
		return Principal{}, err
	}
	if revoked {
		return Principal{}, fmt.Errorf("%w: revoked", ErrInvalidToken)
	}
	return p, nil
}

func (s *Service) CreateAccount(ctx context.Context, req NewAccount) (*models.Account, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" {
		return nil, fmt.Errorf("%w: username is required", ErrInvalidAccount)
	}
	if len(req.Password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidAccount, minPasswordLength)
	}
	if !req.Role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidAccount, req.Role)
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	account, err := s.accounts.CreateAccount(ctx, models.Account{
		Username: username,
		Password: hash,
		Role:     req.Role,
		FullName: strings.TrimSpace(req.FullName),
	})
	if err != nil {
		return nil, err
	}
	log.Info().Str("username", account.Username).Str("role", string(account.Role)).Msg("account created")
	return account, nil
}

func (s *Service) ListAccounts(ctx context.Context) ([]models.Account, error) {
	return s.accounts.ListAccounts(ctx)
}

// EnsureAdmin creates the bootstrap administrator when no admin exists yet.
func (s *Service) EnsureAdmin(ctx context.Context, username, password string) error {
	n, err := s.accounts.CountAccountsByRole(ctx, models.RoleAdmin)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	if password == "" {
		return errors.New("no admin account exists and ADMIN_PASS is not set")
	}

	_, err = s.CreateAccount(ctx, NewAccount{
		Username: username,
		Password: password,
		Role:     models.RoleAdmin,
		FullName: "Administrator",
	})
	if err != nil {
		return fmt.Errorf("failed to seed admin account: %w", err)
	}
	return nil
}

func (s *Service) issue(p Principal) (Session, error) {
	token, p, err := s.issuer.Issue(p)
	if err != nil {
		return Session{}, err
	}
	return Session{
		Token:          token,
		Principal:      p,
		StepUpRequired: !s.stepUp.Satisfied(p),
	}, nil
}

var ErrInvalidAccount = errors.New("invalid account")

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}
