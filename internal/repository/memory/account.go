package memory

import (
	"context"
	"strings"

	"alumni-registry-backend/internal/domain"
	"alumni-registry-backend/internal/repository"
)

type accountRepo struct{ s *Store }

func (r *accountRepo) Create(ctx context.Context, acct *domain.Account) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.accounts {
		if strings.EqualFold(existing.Email, acct.Email) {
			return duplicate("accounts_email_key")
		}
		if acct.AlumniID != nil && existing.AlumniID != nil && *existing.AlumniID == *acct.AlumniID {
			return duplicate("accounts_alumni_id_key")
		}
	}
	if acct.Role == "" {
		acct.Role = domain.AccountRoleAlumni
	}
	r.s.nextAccountID++
	acct.ID = r.s.nextAccountID
	_, acct.CreatedOn = r.s.stamp()
	stored := *acct
	if acct.AlumniID != nil {
		id := *acct.AlumniID
		stored.AlumniID = &id
	}
	r.s.accounts[acct.ID] = stored
	return nil
}

func (r *accountRepo) find(match func(domain.Account) bool) (*domain.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, acct := range r.s.accounts {
		if match(acct) {
			return &acct, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *accountRepo) GetByID(ctx context.Context, id int32) (*domain.Account, error) {
	return r.find(func(a domain.Account) bool { return a.ID == id })
}

func (r *accountRepo) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return r.find(func(a domain.Account) bool { return strings.EqualFold(a.Email, email) })
}

func (r *accountRepo) GetByAlumniID(ctx context.Context, alumniID string) (*domain.Account, error) {
	return r.find(func(a domain.Account) bool { return a.AlumniID != nil && *a.AlumniID == alumniID })
}

func (r *accountRepo) LinkAlumni(ctx context.Context, id int32, alumniID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	acct, ok := r.s.accounts[id]
	if !ok || acct.AlumniID != nil {
		return repository.ErrNotFound
	}
	for _, other := range r.s.accounts {
		if other.AlumniID != nil && *other.AlumniID == alumniID {
			return duplicate("accounts_alumni_id_key")
		}
	}
	acct.AlumniID = &alumniID
	r.s.accounts[id] = acct
	return nil
}

func (r *accountRepo) DeleteUnlinked(ctx context.Context, id int32) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	acct, ok := r.s.accounts[id]
	if !ok || acct.AlumniID != nil {
		return repository.ErrNotFound
	}
	delete(r.s.accounts, id)
	return nil
}
