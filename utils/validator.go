package utils

import (
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ValidatorErrorResponse struct {
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors"`
}

// CustomValidator validates request bodies bound by echo handlers.
type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i interface{}) error {
	if err := cv.validator.Struct(i); err != nil {
		validationErrors, ok := err.(validator.ValidationErrors)
		if !ok {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}

		var errors []ValidationError
		for _, fe := range validationErrors {
			errors = append(errors, ValidationError{
				Field:   fe.Field(),
				Message: getErrorMessages(fe),
			})
		}

		return echo.NewHTTPError(http.StatusBadRequest, ValidatorErrorResponse{
			Message: "validate failed",
			Errors:  errors,
		})
	}
	return nil
}

func getErrorMessages(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "min":
		return "Too short"
	case "max":
		return "Too long"
	case "dive", "keys":
		return "Invalid entry"
	default:
		return "Invalid value"
	}
}

// JSONTagName reports struct fields by their json name so errors match request keys.
func JSONTagName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		return fld.Name
	}
	return name
}

func NewValidator() *CustomValidator {
	v := validator.New()
	v.RegisterTagNameFunc(JSONTagName)
	return &CustomValidator{validator: v}
}
