package account

import (
	"strings"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/luminastudy/lumina/core"
)

// Role is a closed set; anything outside of it is rejected at the edges.
type Role string

const (
	RoleUser      Role = "user"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
	RolePremium   Role = "premium"
)

var AllRoles = []Role{RoleUser, RoleModerator, RoleAdmin, RolePremium}

func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleModerator, RoleAdmin, RolePremium:
		return true
	}
	return false
}

// IsAdmin reports whether the role grants admin capabilities.
func (r Role) IsAdmin() bool { return r == RoleAdmin }

// IsModerator reports whether the role grants moderator capabilities.
// Admins moderate too.
func (r Role) IsModerator() bool { return r == RoleModerator || r == RoleAdmin }

type Status string

const (
	StatusActive   Status = "active"
	StatusDisabled Status = "disabled"
)

// Toggle flips active <-> disabled.
func (s Status) Toggle() Status {
	if s == StatusActive {
		return StatusDisabled
	}
	return StatusActive
}

type Account struct {
	ID               string    `json:"id"`
	Email            string    `json:"email"`
	Name             string    `json:"name"`
	Role             Role      `json:"role"`
	CreatedAt        time.Time `json:"created_at"`
	Status           Status    `json:"status"`
	IsFlagged        bool      `json:"is_flagged"`
	StudyHoursPerDay float64   `json:"study_hours_per_day"`
}

func (a Account) Disabled() bool { return a.Status == StatusDisabled }

// Privileged addresses. Role assignment on creation is derived from the
// email alone; everything else becomes a plain user.
const (
	adminEmail     = "ahmedokovic@gmail.com"
	moderatorEmail = "imacow47@gmail.com"
)

// RoleForEmail resolves the role a new account gets for the given email.
func RoleForEmail(email string) Role {
	switch core.CleanString(email, true) {
	case adminEmail:
		return RoleAdmin
	case moderatorEmail:
		return RoleModerator
	}
	return RoleUser
}

// BootstrapAccounts returns the fixed roster the directory is seeded with
// when the persistent store holds no roster record.
func BootstrapAccounts() []Account {
	return []Account{
		{
			ID:               "admin-1",
			Email:            adminEmail,
			Name:             "Ahmed Admin",
			Role:             RoleAdmin,
			CreatedAt:        time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC),
			Status:           StatusActive,
			StudyHoursPerDay: 6,
		},
		{
			ID:               "mod-1",
			Email:            moderatorEmail,
			Name:             "Ima Moderator",
			Role:             RoleModerator,
			CreatedAt:        time.Date(2023, time.February, 15, 0, 0, 0, 0, time.UTC),
			Status:           StatusActive,
			StudyHoursPerDay: 4,
		},
		{
			ID:               "user-1",
			Email:            "student@example.com",
			Name:             "Standard Student",
			Role:             RoleUser,
			CreatedAt:        time.Date(2023, time.October, 1, 0, 0, 0, 0, time.UTC),
			Status:           StatusActive,
			StudyHoursPerDay: 3,
		},
	}
}

// NewAccount contains information needed to register a new Account.
// The password is accepted for interface compatibility but is never verified
// nor stored; there is no credential layer in this trust model.
type NewAccount struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (na *NewAccount) Validate(validate *validator.Validate) error {
	na.Email = core.CleanString(na.Email, true)
	na.Name = core.CleanString(na.Name)
	return validate.Struct(na)
}

// UpdateProfile defines the self-service mutable fields of an Account.
type UpdateProfile struct {
	Name             string  `json:"name" validate:"required"`
	StudyHoursPerDay float64 `json:"study_hours_per_day" validate:"required,gt=0"`
}

func (up *UpdateProfile) Validate(validate *validator.Validate) error {
	up.Name = core.CleanString(up.Name)
	return validate.Struct(up)
}

// LocalPart returns everything before the "@"; used to name auto-provisioned accounts.
func LocalPart(email string) string {
	if i := strings.Index(email, "@"); i >= 0 {
		return email[:i]
	}
	return email
}

const roleTag = "role"

// InitValidators registers account-specific validation tags.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(roleTag, func(fl validator.FieldLevel) bool {
		return Role(fl.Field().String()).Valid()
	})
	core.RegisterCustomTranslation(validate, translator, roleTag, "invalid role")
}
