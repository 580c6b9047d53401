package middleware

import (
	"errors"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	pkgvalidator "github.com/jwalitptl/barber-api/pkg/validator"
)

// RegisterBindingValidators installs the domain tags (clocktime, percent, nonnegative) and
// json field naming on gin's binding engine. Call once before serving.
func RegisterBindingValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("gin binding engine is not go-playground/validator")
	}
	return pkgvalidator.RegisterCustom(v)
}
