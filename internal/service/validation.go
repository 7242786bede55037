package service

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/asaskevich/govalidator"

	"alumni-registry-backend/internal/domain"
)

var (
	ErrValidation         = errors.New("validation failed")
	ErrForbidden          = errors.New("admin role required")
	ErrIntakeFailed       = errors.New("registration intake failed")
	ErrEmailTaken         = errors.New("an account already exists for this email")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUnauthenticated    = errors.New("not signed in")
	ErrIdentityExhausted  = errors.New("could not allocate a unique alumni identity")
	ErrQueueItemNotFound  = errors.New("review queue item not found")
	ErrAlumniNotFound     = errors.New("alumni record not found")
)

// ValidationError reports the first offending field of a submission.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

const (
	minPasswordLength = 8
	// bcrypt rejects longer input.
	maxPasswordLength = 72
)

var (
	yearPattern  = regexp.MustCompile(`^[0-9]{4}$`)
	phoneAllowed = regexp.MustCompile(`^\+?[0-9 \-()]+$`)
)

func validatePhone(phone string) error {
	if !phoneAllowed.MatchString(phone) {
		return invalid("phone", "must contain only digits, spaces, dashes and an optional leading +")
	}
	digits := 0
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	if digits < 7 || digits > 15 {
		return invalid("phone", "must have between 7 and 15 digits")
	}
	return nil
}

func validateYear(field, year string, required bool) (int, error) {
	if year == "" {
		if required {
			return 0, invalid(field, "is required")
		}
		return 0, nil
	}
	if !yearPattern.MatchString(year) {
		return 0, invalid(field, "must be a 4-digit year")
	}
	n, _ := strconv.Atoi(year)
	return n, nil
}

// ValidateProfile checks the submitted profile fields shared by both intake paths.
func ValidateProfile(p domain.Profile) error {
	if strings.TrimSpace(p.FullName) == "" {
		return invalid("full_name", "is required")
	}
	if !govalidator.StringLength(p.FullName, "2", "200") {
		return invalid("full_name", "must be between 2 and 200 characters")
	}
	if strings.TrimSpace(p.Email) == "" {
		return invalid("email", "is required")
	}
	if !govalidator.IsEmail(p.Email) {
		return invalid("email", "is not a valid email address")
	}
	if strings.TrimSpace(p.Phone) == "" {
		return invalid("phone", "is required")
	}
	if err := validatePhone(p.Phone); err != nil {
		return err
	}
	if p.SchoolID <= 0 {
		return invalid("school_id", "a school must be selected")
	}
	grad, err := validateYear("graduation_year", p.GraduationYear, true)
	if err != nil {
		return err
	}
	admission, err := validateYear("admission_year", p.AdmissionYear, false)
	if err != nil {
		return err
	}
	if admission != 0 && admission > grad {
		return invalid("admission_year", "must not be after graduation year")
	}
	links := []struct{ field, url string }{
		{"linkedin_url", p.LinkedInURL},
		{"twitter_url", p.TwitterURL},
		{"website_url", p.WebsiteURL},
	}
	for _, l := range links {
		if l.url != "" && !govalidator.IsURL(l.url) {
			return invalid(l.field, "is not a valid URL")
		}
	}
	return nil
}

// ValidateNewIntake additionally requires the login credential.
func ValidateNewIntake(in NewApplicantIntake) error {
	if err := ValidateProfile(in.Profile); err != nil {
		return err
	}
	if in.Password == "" {
		return invalid("password", "is required")
	}
	if len(in.Password) < minPasswordLength {
		return invalid("password", fmt.Sprintf("must be at least %d characters", minPasswordLength))
	}
	if len(in.Password) > maxPasswordLength {
		return invalid("password", fmt.Sprintf("must be at most %d bytes", maxPasswordLength))
	}
	return nil
}

func ValidateExistingIntake(in ExistingApplicantIntake) error {
	if strings.TrimSpace(in.AlumniID) == "" {
		return invalid("alumni_id", "is required")
	}
	return ValidateProfile(in.Profile)
}

func normalizeProfile(p domain.Profile) domain.Profile {
	p.FullName = strings.TrimSpace(p.FullName)
	p.Email = strings.ToLower(strings.TrimSpace(p.Email))
	p.Phone = strings.TrimSpace(p.Phone)
	return p
}
