package user

import (
	"github.com/go-playground/validator/v10"

	"github.com/hansei/chulseok/core"
)

var (
	knownRoleTag  = "knownrole"
	knownRoleText = "invalid role"
)

func init() {
	_ = core.Validate.RegisterValidation(knownRoleTag, knownRoleValidation)
	core.RegisterCustomTranslation(core.Validate, core.Translator, knownRoleTag, knownRoleText)
}

func knownRoleValidation(fl validator.FieldLevel) bool {
	return KnownRole(fl.Field().String())
}
