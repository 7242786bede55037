package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"alumni-registry-backend/internal/domain"
	"alumni-registry-backend/internal/logger"
	"alumni-registry-backend/internal/repository"
)

type provisioner struct {
	accounts repository.AccountRepository
}

// NewAccountProvisioner returns a provisioner that links or creates the account
// for an approved alumni record. Calling Ensure repeatedly is safe.
func NewAccountProvisioner(accounts repository.AccountRepository) AccountProvisioner {
	return &provisioner{accounts: accounts}
}

func (p *provisioner) Ensure(ctx context.Context, alumniID, email string) (*domain.Account, error) {
	logger.EnterMethod("Provisioner.Ensure", "alumniID", alumniID, "email", email)
	email = strings.ToLower(strings.TrimSpace(email))

	for attempt := 0; attempt < 2; attempt++ {
		acct, err := p.accounts.GetByAlumniID(ctx, alumniID)
		if err == nil {
			logger.ExitMethod("Provisioner.Ensure", "accountID", acct.ID, "existing", true)
			return acct, nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("failed to look up account by alumni id: %w", err)
		}

		acct, err = p.accounts.GetByEmail(ctx, email)
		switch {
		case err == nil && acct.AlumniID == nil:
			// Self-service intake created the account before the record existed.
			lerr := p.accounts.LinkAlumni(ctx, acct.ID, alumniID)
			if lerr == nil {
				acct.AlumniID = &alumniID
				logger.ExitMethod("Provisioner.Ensure", "accountID", acct.ID, "linked", true)
				return acct, nil
			}
			if !errors.Is(lerr, repository.ErrNotFound) && !errors.Is(lerr, repository.ErrDuplicate) {
				return nil, fmt.Errorf("failed to link account: %w", lerr)
			}
			// Lost a race with another linker; re-read.
			continue
		case err == nil:
			// The email belongs to an account linked to a different record.
			return nil, fmt.Errorf("%w: linked to alumni %s", ErrEmailTaken, *acct.AlumniID)
		case !errors.Is(err, repository.ErrNotFound):
			return nil, fmt.Errorf("failed to look up account by email: %w", err)
		}

		acct = &domain.Account{
			Email:    email,
			AlumniID: &alumniID,
			Role:     domain.AccountRoleAlumni,
		}
		err = p.accounts.Create(ctx, acct)
		if err == nil {
			logger.ExitMethod("Provisioner.Ensure", "accountID", acct.ID, "created", true)
			return acct, nil
		}
		if !errors.Is(err, repository.ErrDuplicate) {
			return nil, fmt.Errorf("failed to create account: %w", err)
		}
		logger.Debug("Account already provisioned, re-reading", "alumniID", alumniID)
	}

	acct, err := p.accounts.GetByAlumniID(ctx, alumniID)
	if err != nil {
		return nil, fmt.Errorf("failed to re-read provisioned account: %w", err)
	}
	return acct, nil
}
