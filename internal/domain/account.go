package domain

type AccountRole string

const (
	AccountRoleAlumni AccountRole = "alumni"
	AccountRoleAdmin  AccountRole = "admin"
)

// Account is a login-capable record. AlumniID is nil until the account is linked
// to an approved alumni record.
type Account struct {
	ID           int32       `json:"id"`
	Email        string      `json:"email"`
	AlumniID     *string     `json:"alumni_id,omitempty"`
	PasswordHash string      `json:"-"`
	Role         AccountRole `json:"role"`
	CreatedOn    string      `json:"created_on"`
}

// AuthSession is the caller identity handed explicitly to components that need it.
type AuthSession struct {
	AccountID int32       `json:"account_id"`
	Email     string      `json:"email"`
	AlumniID  string      `json:"alumni_id,omitempty"`
	Role      AccountRole `json:"role"`
}

func (s *AuthSession) IsAdmin() bool {
	return s != nil && s.Role == AccountRoleAdmin
}

// CurrentIdentity returns the alumni identity key of the caller, if linked.
func (s *AuthSession) CurrentIdentity() (string, bool) {
	if s == nil || s.AlumniID == "" {
		return "", false
	}
	return s.AlumniID, true
}
