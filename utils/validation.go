package utils

import (
	"errors"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// RegisterValidators adds the custom tags used by request bindings.
func RegisterValidators(v *validator.Validate) error {
	return v.RegisterValidation("timelabel", func(fl validator.FieldLevel) bool {
		_, err := CanonicalizeLabel(fl.Field().String())
		return err == nil
	})
}

// RegisterGinValidators installs the custom tags on gin's default validator.
func RegisterGinValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("gin validator engine is not validator/v10")
	}
	return RegisterValidators(v)
}
