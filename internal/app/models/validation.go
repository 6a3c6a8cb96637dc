package models

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ShortenInput is the payload of the shorten form.
type ShortenInput struct {
	URL string `json:"url" validate:"required,max=2048,weburl"`
}

// LoginInput is the payload of the login form.
type LoginInput struct {
	Login    string `json:"login" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// RegisterInput is the payload of the registration form.
type RegisterInput struct {
	Login    string `json:"login" validate:"required,min=4,max=16"`
	Password string `json:"password" validate:"required,min=8"`
	Confirm  string `json:"confirm" validate:"required,eqfield=Password"`
}

// PasswordInput is the payload of the admin change-password form.
type PasswordInput struct {
	Password string `json:"password" validate:"required,min=8"`
	Confirm  string `json:"confirm" validate:"required,eqfield=Password"`
}

var webURLPattern = regexp.MustCompile(`^((http|ftp|https|sftp)://)?[a-zA-Z0-9]+\.[a-zA-Z0-9]+.+$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	// "..host" style input slips through the pattern, reject it explicitly
	if err := v.RegisterValidation("weburl", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return !strings.HasPrefix(s, "..") && webURLPattern.MatchString(s)
	}); err != nil {
		panic(err)
	}
	return v
}

// Validate checks an input struct and returns ValidationErrors listing every failed field.
func Validate(in any) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	out := make(ValidationErrors, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, FieldError{Field: fe.Field(), Message: fieldMessage(fe)})
	}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This value should not be blank."
	case "min":
		return fmt.Sprintf("This value is too short. It should have %s characters or more.", fe.Param())
	case "max":
		return fmt.Sprintf("This value is too long. It should have %s characters or less.", fe.Param())
	case "eqfield":
		return "Fields do not match!"
	case "weburl":
		return "This is not a URL address!"
	default:
		return "This value is not valid."
	}
}
