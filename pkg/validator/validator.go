package validator

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/johnquangdev/complexchaos/internal/domain/entities"
)

// CustomValidator implements echo.Validator using go-playground/validator
type CustomValidator struct {
	v *validator.Validate
}

// New creates a new CustomValidator with the domain tags registered:
//
//	stakeholder_role  value is a known entities.StakeholderRole
//	session_type      value is a known entities.SessionType
//	session_status    value is a known entities.SessionStatus
func New() *CustomValidator {
	v := validator.New()
	mustRegister(v, "stakeholder_role", func(fl validator.FieldLevel) bool {
		return entities.StakeholderRole(fl.Field().String()).Valid()
	})
	mustRegister(v, "session_type", func(fl validator.FieldLevel) bool {
		return entities.SessionType(fl.Field().String()).Valid()
	})
	mustRegister(v, "session_status", func(fl validator.FieldLevel) bool {
		return entities.SessionStatus(fl.Field().String()).Valid()
	})
	return &CustomValidator{v: v}
}

// mustRegister panics when a tag cannot be registered
func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("validator: register %q: %v", tag, err))
	}
}

// Validate performs struct validation
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.v.Struct(i)
}
