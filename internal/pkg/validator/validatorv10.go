package validator

import (
	"errors"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
	"github.com/shandysiswandi/gofocus/internal/pkg/strcase"
)

const (
	passwordMinRunes = 8
	passwordMaxRunes = 72
)

var goalPeriods = []string{"daily", "weekly", "monthly", "annual"}

// ErrTranslatorNotFound indicates the requested translator is unavailable.
var ErrTranslatorNotFound = errors.New("validator: english translator not found")

// V10ValidationError maps snake_case field keys to English messages.
type V10ValidationError map[string]string

func (vs V10ValidationError) Error() string {
	if len(vs) == 0 {
		return "validation error"
	}
	keys := slices.Sorted(maps.Keys(vs))
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+vs[k])
	}
	return "validation error: " + strings.Join(parts, "; ")
}

func (vs V10ValidationError) Values() map[string]string { return vs }

// rule is a custom tag with its English message. {0} is the field name.
type rule struct {
	tag     string
	check   validator.Func
	message string
}

var customRules = []rule{
	{
		tag: "password",
		check: func(fl validator.FieldLevel) bool {
			n := utf8.RuneCountInString(fl.Field().String())
			return n >= passwordMinRunes && n <= passwordMaxRunes
		},
		message: "{0} must be 8-72 characters",
	},
	{
		tag: "period",
		check: func(fl validator.FieldLevel) bool {
			return slices.Contains(goalPeriods, fl.Field().String())
		},
		message: "{0} must be one of daily, weekly, monthly or annual",
	},
	// built in check, English message missing upstream
	{tag: "alphaspace", message: "{0} can contain only letters and spaces"},
}

type V10Validator struct {
	validate   *validator.Validate
	translator ut.Translator
}

func NewV10Validator() (*V10Validator, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())

	english := en.New()
	trans, ok := ut.New(english, english).GetTranslator("en")
	if !ok {
		return nil, ErrTranslatorNotFound
	}
	if err := enTranslations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}

	for _, r := range customRules {
		if r.check != nil {
			if err := validate.RegisterValidation(r.tag, r.check); err != nil {
				return nil, err
			}
		}
		if err := validate.RegisterTranslation(r.tag, trans, registerMessage(r), translateMessage); err != nil {
			return nil, err
		}
	}

	return &V10Validator{validate: validate, translator: trans}, nil
}

func registerMessage(r rule) validator.RegisterTranslationsFunc {
	return func(t ut.Translator) error {
		return t.Add(r.tag, r.message, true)
	}
}

func translateMessage(t ut.Translator, fe validator.FieldError) string {
	msg, err := t.T(fe.Tag(), fe.Field())
	if err != nil {
		slog.Warn("validator: missing translation", "tag", fe.Tag(), "error", err)
		return fe.Error()
	}
	return msg
}

// Validate returns V10ValidationError when data breaks any rule.
func (v *V10Validator) Validate(data any) error {
	err := v.validate.Struct(data)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	out := make(V10ValidationError, len(fieldErrs))
	for _, fe := range fieldErrs {
		key := strcase.ToLowerSnake(fe.Field())
		if _, seen := out[key]; !seen {
			out[key] = fe.Translate(v.translator)
		}
	}
	return out
}
