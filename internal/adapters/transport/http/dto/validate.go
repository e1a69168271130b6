package dto

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Two words of Latin or Cyrillic letters separated by a single whitespace.
var fullNameRe = regexp.MustCompile(`^[A-Za-zА-Яа-яёЁ]+\s[A-Za-zА-Яа-яёЁ]+$`)

func IsFullName(s string) bool {
	return fullNameRe.MatchString(strings.TrimSpace(s))
}

// NewValidator returns a validator with the "fullname" rule registered.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("fullname", func(fl validator.FieldLevel) bool {
		return IsFullName(fl.Field().String())
	})
	return v
}

// Describe turns validator errors into a short client-facing message.
func Describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "invalid request"
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := lowerFirst(fe.Field())
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, field+" is required")
		case "fullname":
			msgs = append(msgs, `full name must consist of exactly two words (e.g., "John Doe")`)
		case "alphanum":
			msgs = append(msgs, field+" must contain only letters and digits")
		case "min", "max":
			msgs = append(msgs, fmt.Sprintf("%s must satisfy %s=%s", field, fe.Tag(), fe.Param()))
		default:
			msgs = append(msgs, field+" is invalid")
		}
	}
	return strings.Join(msgs, "; ")
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
