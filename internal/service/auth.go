package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"alumni-registry-backend/internal/domain"
	"alumni-registry-backend/internal/logger"
	"alumni-registry-backend/internal/repository"
	"alumni-registry-backend/internal/security"
)

type sessionKey struct{}

// WithSession attaches an authenticated session to ctx.
func WithSession(ctx context.Context, s *domain.AuthSession) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// SessionFromContext returns the session attached by WithSession, if any.
func SessionFromContext(ctx context.Context) (*domain.AuthSession, bool) {
	s, ok := ctx.Value(sessionKey{}).(*domain.AuthSession)
	return s, ok && s != nil
}

type authService struct {
	accounts repository.AccountRepository
	tokens   security.TokenManager
	cost     int
}

func NewAuthService(accounts repository.AccountRepository, tokens security.TokenManager) AccountAuthority {
	return &authService{
		accounts: accounts,
		tokens:   tokens,
		cost:     bcrypt.DefaultCost,
	}
}

func (s *authService) CreateAccount(ctx context.Context, email, password string) (int32, error) {
	logger.EnterMethod("AuthService.CreateAccount", "email", email)

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return 0, fmt.Errorf("failed to hash password: %w", err)
	}

	acct := &domain.Account{
		Email:        strings.ToLower(strings.TrimSpace(email)),
		PasswordHash: string(hash),
		Role:         domain.AccountRoleAlumni,
	}
	if err := s.accounts.Create(ctx, acct); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return 0, ErrEmailTaken
		}
		logger.ExitMethodWithError("AuthService.CreateAccount", err)
		return 0, fmt.Errorf("failed to create account: %w", err)
	}

	logger.ExitMethod("AuthService.CreateAccount", "accountID", acct.ID)
	return acct.ID, nil
}

func (s *authService) DeleteAccount(ctx context.Context, accountID int32) error {
	if err := s.accounts.DeleteUnlinked(ctx, accountID); err != nil {
		return fmt.Errorf("failed to delete account %d: %w", accountID, err)
	}
	return nil
}

func (s *authService) Authenticate(ctx context.Context, email, password string) (*Session, error) {
	acct, err := s.accounts.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up account: %w", err)
	}
	// Accounts provisioned on approval have no password until one is set.
	if acct.PasswordHash == "" {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	auth := sessionFor(acct)
	access, err := s.tokens.GenerateAccessToken(acct.ID, acct.Email, auth.AlumniID, string(acct.Role))
	if err != nil {
		return nil, fmt.Errorf("failed to issue access token: %w", err)
	}
	refresh, err := s.tokens.GenerateRefreshToken(acct.ID, acct.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to issue refresh token: %w", err)
	}
	return &Session{AccessToken: access, RefreshToken: refresh, Auth: auth}, nil
}

// SessionFromToken validates an access token and rebuilds the caller's session.
func (s *authService) SessionFromToken(ctx context.Context, token string) (*domain.AuthSession, error) {
	claims, err := s.tokens.ValidateToken(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	if claims.Type != security.TokenTypeAccess {
		return nil, fmt.Errorf("%w: %v", ErrUnauthenticated, security.ErrWrongTokenType)
	}
	return &domain.AuthSession{
		AccountID: claims.AccountID,
		Email:     claims.Email,
		AlumniID:  claims.AlumniID,
		Role:      domain.AccountRole(claims.Role),
	}, nil
}

func (s *authService) GetCurrentUser(ctx context.Context) (*domain.AuthSession, bool) {
	return SessionFromContext(ctx)
}

func sessionFor(acct *domain.Account) domain.AuthSession {
	auth := domain.AuthSession{
		AccountID: acct.ID,
		Email:     acct.Email,
		Role:      acct.Role,
	}
	if acct.AlumniID != nil {
		auth.AlumniID = *acct.AlumniID
	}
	return auth
}
