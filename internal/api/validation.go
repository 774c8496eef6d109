package api

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/FACorreiaa/wanderplan/internal/types"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		// Report JSON field names instead of Go field names.
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// ValidateStruct runs the `validate` tags of s and converts the first failure
// into a *types.InputError with a Spanish message.
func ValidateStruct(s interface{}) error {
	err := validatorInstance().Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return types.NewInputError("solicitud inválida")
	}
	return types.NewInputError(translate(verrs[0]))
}

func translate(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("el campo %s es obligatorio", field)
	case "gte":
		return fmt.Sprintf("el campo %s debe ser mayor o igual a %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("el campo %s debe ser menor o igual a %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("el campo %s no puede superar %s caracteres", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("el campo %s debe ser uno de: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "datetime":
		if fe.Param() == "15:04" {
			return fmt.Sprintf("el campo %s debe tener el formato HH:MM", field)
		}
		return fmt.Sprintf("el campo %s debe ser una fecha con formato AAAA-MM-DD", field)
	default:
		return fmt.Sprintf("el campo %s no es válido", field)
	}
}
