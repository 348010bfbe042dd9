package shared

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/swimschool/core"
	"github.com/trezcool/swimschool/core/schedule"
	"github.com/trezcool/swimschool/core/user"
)

// NewValidator returns a validator carrying the custom validations of every package, with english messages.
func NewValidator() (*validator.Validate, ut.Translator) {
	validate := validator.New()
	translator := core.NewTranslator()

	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	schedule.InitValidators(validate, translator)
	return validate, translator
}
