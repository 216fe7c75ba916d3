// Package validation turns struct-tag constraints into domain validation errors.
package validation

import (
	"reflect"
	"regexp"
	"strings"
	"unicode"

	domainerrors "userhub/internal/domain/errors"
	"userhub/internal/errors"

	"github.com/go-playground/validator/v10"
)

const (
	// TagUserEmail checks the local@domain.tld shape accepted for user emails.
	TagUserEmail = "useremail"
	// TagBcryptMax caps a password at the 72 bytes bcrypt can process.
	TagBcryptMax = "bcryptmax"

	bcryptMaxBytes = 72
)

var emailPattern = regexp.MustCompile(`^\w+([.-]?\w+)*@\w+([.-]?\w+)*(\.\w{2,3})+$`)

// Validator validates input DTOs and reports every violated constraint at once.
type Validator struct {
	validate *validator.Validate
}

// New builds a Validator with the user-specific rules registered.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return field.Name
		}

		return name
	})

	// Registration only fails for empty tags or nil funcs.
	_ = v.RegisterValidation(TagUserEmail, func(fl validator.FieldLevel) bool {
		return IsEmail(fl.Field().String())
	})
	_ = v.RegisterValidation(TagBcryptMax, func(fl validator.FieldLevel) bool {
		return len(fl.Field().String()) <= bcryptMaxBytes
	})

	return &Validator{validate: v}
}

// IsEmail reports whether s has the accepted email shape.
func IsEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// Struct validates s. Constraint violations come back as *domainerrors.ValidationError.
func (v *Validator) Struct(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return errors.Wrap(err, "validator.Struct")
	}

	fields := make([]domainerrors.FieldError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		fields = append(fields, domainerrors.FieldError{
			Field:   fe.Field(),
			Message: message(fe),
		})
	}

	return domainerrors.NewValidationError(fields...)
}

// Validate lets the validator serve as echo's Validator.
func (v *Validator) Validate(i any) error {
	return v.Struct(i)
}

func message(fe validator.FieldError) string {
	label := capitalize(fe.Field())

	switch fe.Tag() {
	case "required":
		return label + " is required"
	case "min":
		return label + " must be at least " + fe.Param() + " characters"
	case "max":
		return label + " must be at most " + fe.Param() + " characters"
	case "gte":
		return "Minimum " + fe.Field() + " is " + fe.Param()
	case TagUserEmail:
		return "Invalid email format"
	case TagBcryptMax:
		return label + " must be at most 72 bytes"
	default:
		return label + " is invalid"
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])

	return string(runes)
}
