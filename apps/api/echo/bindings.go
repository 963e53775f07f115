package echoapi

import (
	"github.com/go-playground/validator/v10"

	"github.com/luminastudy/lumina/core"
	"github.com/luminastudy/lumina/core/account"
)

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (r *LoginRequest) Validate(validate *validator.Validate) error {
	r.Email = core.CleanString(r.Email, true)
	return validate.Struct(r)
}

type TokenResponse struct {
	Token   string          `json:"token"`
	Account account.Account `json:"account"`
}

type SetRoleRequest struct {
	Role account.Role `json:"role" validate:"required,role"`
}

func (r *SetRoleRequest) Validate(validate *validator.Validate) error {
	return validate.Struct(r)
}

type GeneratePlanRequest struct {
	Subjects []string `json:"subjects"`
	Notes    string   `json:"notes"`
}

type StatsResponse struct {
	TotalTasks     int  `json:"total_tasks"`
	CompletedTasks int  `json:"completed_tasks"`
	ActivePlan     bool `json:"active_plan"`
	PremiumStatus  bool `json:"premium_status"`
}
