package services

import (
	"regexp"
	"strings"

	"nup_registration/models"
	"nup_registration/utils"

	"github.com/go-playground/validator/v10"
	log "github.com/sirupsen/logrus"
)

// ConfirmationPhrase must be typed by the registrant to confirm the submission.
const ConfirmationPhrase = "SETUJU"

const msgRequired = "Wajib diisi"

var (
	phonePattern  = regexp.MustCompile(`^((\+62)|0)[0-9]{8,14}$`)
	phoneNoise    = regexp.MustCompile(`\s|-`)
	emailPattern  = regexp.MustCompile(`^\S+@\S+\.\S+$`)
	rupiahPattern = regexp.MustCompile(`^\d{1,3}(\.\d{3})*$`)
)

var fieldMessages = map[string]string{
	"idphone":    "Nomor HP tidak valid",
	"looseemail": "Email tidak valid",
	"rupiah":     "Gunakan angka (contoh: 5.000.000)",
	"agreed":     "Anda harus menyetujui ketentuan",
	"phrase":     "Ketik persis: " + ConfirmationPhrase,
}

// FormValidator checks a form record. Every field is checked on its own,
// so the result lists all failing fields at once.
type FormValidator struct {
	validate *validator.Validate
}

func NewFormValidator() *FormValidator {
	v := validator.New()
	v.RegisterTagNameFunc(utils.JSONTagName)

	rules := map[string]validator.Func{
		"filled": func(fl validator.FieldLevel) bool {
			return strings.TrimSpace(fl.Field().String()) != ""
		},
		"idphone": func(fl validator.FieldLevel) bool {
			return phonePattern.MatchString(phoneNoise.ReplaceAllString(fl.Field().String(), ""))
		},
		"looseemail": func(fl validator.FieldLevel) bool {
			return emailPattern.MatchString(fl.Field().String())
		},
		"rupiah": func(fl validator.FieldLevel) bool {
			return rupiahPattern.MatchString(fl.Field().String())
		},
		"agreed": func(fl validator.FieldLevel) bool {
			return fl.Field().Bool()
		},
		"phrase": func(fl validator.FieldLevel) bool {
			return strings.TrimSpace(fl.Field().String()) == ConfirmationPhrase
		},
	}
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			panic(err)
		}
	}

	return &FormValidator{validate: v}
}

// Validate returns field name → message; an empty map means the record may be submitted.
func (fv *FormValidator) Validate(record models.FormRecord) map[string]string {
	result := map[string]string{}

	err := fv.validate.Struct(record)
	if err == nil {
		return result
	}

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		log.WithError(err).Error("Form validation could not run")
		result["form"] = "Terjadi kesalahan saat memeriksa data."
		return result
	}

	for _, fe := range validationErrors {
		result[fe.Field()] = messageFor(fe)
	}
	return result
}

func messageFor(fe validator.FieldError) string {
	if msg, ok := fieldMessages[fe.Tag()]; ok {
		return msg
	}
	return msgRequired
}

// ValidationError is returned by the submission pipeline when the record is rejected.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return "form validation failed"
}
