package handlers

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"fizibilite/internal/util"
)

// Validate checks request DTOs. Besides the built-in tags it knows
// academic_year: "2025-2026", "2025/26" or a bare start year.
var Validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("academic_year", validateAcademicYear)
	return v
}

func validateAcademicYear(fl validator.FieldLevel) bool {
	_, ok := util.AcademicStartYear(fl.Field().String())
	return ok
}

// validationMessage renders the first few field errors for a client.
func validationMessage(errs validator.ValidationErrors) string {
	msgs := make([]string, 0, len(errs))
	for _, fe := range errs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", fe.Field()))
		case "academic_year":
			msgs = append(msgs, fmt.Sprintf("%s must be an academic year like 2025-2026", fe.Field()))
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
		}
	}
	return strings.Join(msgs, "; ")
}
