package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strings"

	"venue-admin-service/pkg/response"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report issues under the wire field name, not the Go field name.
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decodeValid decodes a JSON body into dst and validates it. On failure it
// writes the 400 response itself and returns false.
func decodeValid(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		response.ValidationFailed(w, []response.FieldError{{Field: "body", Message: "invalid JSON body"}})
		return false
	}
	if issues := validateStruct(dst); len(issues) > 0 {
		response.ValidationFailed(w, issues)
		return false
	}
	return true
}

func validateStruct(value any) []response.FieldError {
	err := validate.Struct(value)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []response.FieldError{{Field: "body", Message: err.Error()}}
	}

	issues := make([]response.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		issues = append(issues, response.FieldError{
			Field:   fe.Field(),
			Message: validationMessage(fe),
		})
	}
	return issues
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		if fe.Kind() == reflect.String {
			return "must be at least " + fe.Param() + " characters"
		}
		return "must be at least " + fe.Param()
	case "max":
		if fe.Kind() == reflect.String {
			return "must be at most " + fe.Param() + " characters"
		}
		return "must be at most " + fe.Param()
	case "gte":
		return "must be at least " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "oneof":
		return "must be one of: " + fe.Param()
	case "dive":
		return "contains an invalid element"
	default:
		return "is invalid (" + fe.Tag() + ")"
	}
}
