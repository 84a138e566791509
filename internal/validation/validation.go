// Package validation holds the shared input contract checks. Custom rules are
// registered on gin's binding engine so `binding:"..."` tags behave the same
// for HTTP bodies and realtime payloads.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"unicode"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"gittogether/api/internal/apperr"
	"gittogether/api/internal/ids"
)

const tagName = "binding"

var (
	registerOnce sync.Once
	registerErr  error
)

// Engine returns gin's validator with the custom rules registered.
func Engine() *validator.Validate {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		panic("validation: gin binding engine is not go-playground/validator")
	}
	registerOnce.Do(func() { registerErr = Register(v) })
	if registerErr != nil {
		panic(fmt.Sprintf("validation: register rules: %v", registerErr))
	}
	return v
}

// Register installs json field naming and the custom rules on v.
func Register(v *validator.Validate) error {
	v.SetTagName(tagName)
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})

	rules := map[string]validator.Func{
		"ksuid":          func(fl validator.FieldLevel) bool { return ids.Valid(fl.Field().String()) },
		"notblank":       func(fl validator.FieldLevel) bool { return strings.TrimSpace(fl.Field().String()) != "" },
		"strongpassword": func(fl validator.FieldLevel) bool { return StrongPassword(fl.Field().String()) },
	}
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return err
		}
	}
	return nil
}

// Struct validates s against its binding tags and returns a validation
// *apperr.Error carrying one field error per failed rule.
func Struct(s any) error {
	if err := Engine().Struct(s); err != nil {
		return ToAppError(err)
	}
	return nil
}

// ToAppError converts binding/validation failures into the shared error type.
// Errors that are not field failures (bad JSON, wrong types) become a single
// "body" field error.
func ToAppError(err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperr.Validation(apperr.CodeValidation, "Validation Error",
			apperr.FieldError{Field: "body", Message: "malformed request payload"})
	}
	fields := make([]apperr.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, apperr.FieldError{Field: fe.Field(), Message: message(fe)})
	}
	return apperr.Validation(apperr.CodeValidation, "Validation Error", fields...)
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "notblank":
		return "must not be blank"
	case "email":
		return "must be a valid email address"
	case "ksuid":
		return "must be a valid id"
	case "strongpassword":
		return "must be at least 8 characters with upper and lower case letters, a digit and a special character"
	case "oneof":
		return "must be one of: " + strings.Join(strings.Fields(fe.Param()), ", ")
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("must contain at least %s items", fe.Param())
		}
		return "must be at least " + fe.Param()
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must not exceed %s characters", fe.Param())
		}
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("must contain at most %s items", fe.Param())
		}
		return "must not exceed " + fe.Param()
	default:
		return "is invalid"
	}
}

// StrongPassword requires at least 8 characters, with upper and lower case
// letters, a digit and a symbol.
func StrongPassword(s string) bool {
	if len(s) < 8 {
		return false
	}
	var upper, lower, digit, special bool
	for _, r := range s {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			special = true
		}
	}
	return upper && lower && digit && special
}
