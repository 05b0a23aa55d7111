// Package validator checks request and domain structs against their tags.
package validator

import (
	"encoding/json"
	"errors"
	"regexp"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
	"github.com/shandysiswandi/folio/internal/pkg/strcase"
)

var reNumericCode = regexp.MustCompile(`^[0-9]{6,8}$`)

// ErrTranslatorNotFound indicates the requested translator is unavailable.
var ErrTranslatorNotFound = errors.New("translator not found")

// Validator validates structs.
type Validator interface {
	Validate(data any) error
	// Var validates a single value, returning the first failed tag.
	Var(value any, tag string) (failedTag string, ok bool)
}

// V10ValidationError maps snake_case field names to translated messages.
type V10ValidationError map[string]string

func (vs V10ValidationError) Error() string {
	if len(vs) == 0 {
		return "validation error"
	}

	b, _ := json.Marshal(map[string]string(vs))
	return string(b)
}

func (vs V10ValidationError) Values() map[string]string {
	return vs
}

// V10Validator implements Validator using go-playground/validator v10.
type V10Validator struct {
	validate   *validator.Validate
	translator ut.Translator
}

// NewV10Validator constructs a V10Validator with English translations and custom rules.
func NewV10Validator() (*V10Validator, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())

	enLang := en.New()
	enTrans, ok := ut.New(enLang, enLang).GetTranslator("en")
	if !ok {
		return nil, ErrTranslatorNotFound
	}

	if err := enTranslations.RegisterDefaultTranslations(validate, enTrans); err != nil {
		return nil, err
	}

	if err := registerOTPCode(validate, enTrans); err != nil {
		return nil, err
	}

	return &V10Validator{validate: validate, translator: enTrans}, nil
}

// Validate returns a V10ValidationError when data breaks one of its rules.
func (v *V10Validator) Validate(data any) error {
	err := v.validate.Struct(data)
	if err == nil {
		return nil
	}

	var validateErrs validator.ValidationErrors
	if !errors.As(err, &validateErrs) {
		return err
	}

	out := make(V10ValidationError, len(validateErrs))
	for _, fe := range validateErrs {
		out[strcase.ToLowerSnake(fe.Field())] = fe.Translate(v.translator)
	}

	return out
}

// Var validates a single value against tag, returning the failing rule name.
func (v *V10Validator) Var(value any, tag string) (string, bool) {
	err := v.validate.Var(value, tag)
	if err == nil {
		return "", true
	}

	var validateErrs validator.ValidationErrors
	if errors.As(err, &validateErrs) && len(validateErrs) > 0 {
		return validateErrs[0].Tag(), false
	}

	return "", false
}

func registerOTPCode(validate *validator.Validate, enTrans ut.Translator) error {
	err := validate.RegisterValidation("otpcode", func(fl validator.FieldLevel) bool {
		code, ok := fl.Field().Interface().(string)
		return ok && reNumericCode.MatchString(code)
	})
	if err != nil {
		return err
	}

	return validate.RegisterTranslation("otpcode", enTrans,
		func(t ut.Translator) error {
			return t.Add("otpcode", "{0} must be a 6 to 8 digit code", false)
		},
		func(t ut.Translator, fe validator.FieldError) string {
			msg, err := t.T(fe.Tag(), fe.Field())
			if err != nil {
				return fe.Error()
			}
			return msg
		},
	)
}
