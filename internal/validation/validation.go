package validation

import (
	"checkout-builder/internal/apperr"
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

type FieldErrors map[string]string

// Validator plugs go-playground/validator into echo (e.Validator) and
// reports failures as apperr invalid errors keyed by json field name.
type Validator struct {
	v *validator.Validate
}

func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(jsonFieldName)
	return &Validator{v: v}
}

func (cv *Validator) Validate(i interface{}) error {
	if err := cv.v.Struct(i); err != nil {
		return apperr.InvalidErr("Some fields are invalid.", FromError(err))
	}
	return nil
}

// Var validates a single value against a tag, e.g. Var(email, "required,email").
func (cv *Validator) Var(field interface{}, tag string) error {
	return cv.v.Var(field, tag)
}

func FromError(err error) FieldErrors {
	out := FieldErrors{}

	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			out[fieldKey(fe)] = MessageForTag(fe.Tag(), fe.Param())
		}
		return out
	}

	out["_"] = "The submitted data is invalid."
	return out
}

// fieldKey drops the top-level struct name from the namespace so nested
// fields read like "chronopost.account_number".
func fieldKey(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func jsonFieldName(f reflect.StructField) string {
	name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		return strings.ToLower(f.Name)
	}
	return name
}

func MessageForTag(tag, param string) string {
	switch tag {
	case "required":
		return "This field is required."
	case "email":
		return "Enter a valid email address."
	case "min":
		return "Must be at least " + param + "."
	case "max":
		return "Must be at most " + param + "."
	case "gte":
		return "Must be greater than or equal to " + param + "."
	case "len":
		return "Must be exactly " + param + " characters."
	case "oneof":
		return "Must be one of: " + param + "."
	case "numeric":
		return "Must contain digits only."
	case "hexcolor":
		return "Must be a hex color such as #4f46e5."
	case "url":
		return "Enter a valid URL."
	default:
		return "Invalid value."
	}
}
