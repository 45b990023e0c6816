package web

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/JonMunkholm/tabclean/internal/table"
)

// newValidator returns a validator that reports fields by their JSON name
// and knows the tabformat tag.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation("tabformat", func(fl validator.FieldLevel) bool {
		_, err := table.ParseFormat(fl.Field().String())
		return err == nil
	})
	return v
}
