package validation

import (
	"errors"
	"reflect"
	"strings"

	"todoapi/internal/core/model/request"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

const (
	TitleMinLength       = 3
	TitleMaxLength       = 100
	DescriptionMaxLength = 500
	MaxTags              = 20
	TagMaxLength         = 30
)

type Mode int

const (
	OnCreate Mode = iota
	OnUpdate
)

var (
	Validator  *validator.Validate
	Translator ut.Translator
)

// Rule sets are evaluated over a normalized TodoRequest. Field order here is
// the order errors are reported in.
type createRules struct {
	Title       string   `validate:"required,min=3,max=100"`
	Description *string  `validate:"omitempty,max=500"`
	Priority    *string  `validate:"omitempty,oneof=low medium high"`
	Tags        []string `validate:"max=20,dive,max=30"`
}

type updateRules struct {
	Title       *string  `validate:"omitempty,min=3,max=100"`
	Description *string  `validate:"omitempty,max=500"`
	Priority    *string  `validate:"omitempty,oneof=low medium high"`
	Tags        []string `validate:"max=20,dive,max=30"`
}

func init() {
	Validator = validator.New(validator.WithRequiredStructEnabled())

	english := en.New()
	uni := ut.New(english, english)

	var found bool
	Translator, found = uni.GetTranslator("en")

	if !found {
		panic("translator en not found")
	}

	if err := en_translations.RegisterDefaultTranslations(Validator, Translator); err != nil {
		panic(err)
	}

	addCustomTranslations()
}

func addCustomTranslations() {
	Validator.RegisterTranslation("required", Translator, func(ut ut.Translator) error {
		return ut.Add("required", "{0} is required", true)
	}, func(ut ut.Translator, fe validator.FieldError) string {
		t, _ := ut.T("required", fe.Field())
		return t
	})

	Validator.RegisterTranslation("min", Translator, func(ut ut.Translator) error {
		return ut.Add("min", "{0} must be at least {1} characters", true)
	}, func(ut ut.Translator, fe validator.FieldError) string {
		t, _ := ut.T("min", fe.Field(), fe.Param())
		return t
	})

	Validator.RegisterTranslation("max", Translator, func(ut ut.Translator) error {
		if err := ut.Add("max", "{0} cannot exceed {1} characters", true); err != nil {
			return err
		}

		if err := ut.Add("max-items", "{0} cannot contain more than {1} items", true); err != nil {
			return err
		}

		return ut.Add("max-element", "Each {0} cannot exceed {1} characters", true)
	}, func(ut ut.Translator, fe validator.FieldError) string {
		var t string

		switch {
		case fe.Kind() == reflect.Slice:
			t, _ = ut.T("max-items", fe.Field(), fe.Param())
		case strings.Contains(fe.Field(), "["):
			t, _ = ut.T("max-element", elementName(fe.StructField()), fe.Param())
		default:
			t, _ = ut.T("max", fe.Field(), fe.Param())
		}

		return t
	})

	Validator.RegisterTranslation("oneof", Translator, func(ut ut.Translator) error {
		return ut.Add("oneof", "{0} must be one of: {1}", true)
	}, func(ut ut.Translator, fe validator.FieldError) string {
		t, _ := ut.T("oneof", fe.Field(), strings.ReplaceAll(fe.Param(), " ", ", "))
		return t
	})
}

// elementName turns "Tags[3]" into "tag".
func elementName(field string) string {
	if i := strings.Index(field, "["); i >= 0 {
		field = field[:i]
	}

	return strings.TrimSuffix(strings.ToLower(field), "s")
}

// ValidateTodo checks a payload and returns every violation, in field order.
// An empty result means the payload is valid. The request is normalized in place.
func ValidateTodo(req *request.TodoRequest, mode Mode) []string {
	req.Normalize()

	var tags []string
	if req.Tags != nil {
		tags = *req.Tags
	}

	var rules any

	switch mode {
	case OnCreate:
		title := ""
		if req.Title != nil {
			title = *req.Title
		}

		rules = createRules{
			Title:       title,
			Description: req.Description,
			Priority:    req.Priority,
			Tags:        tags,
		}
	case OnUpdate:
		rules = updateRules{
			Title:       req.Title,
			Description: req.Description,
			Priority:    req.Priority,
			Tags:        tags,
		}
	default:
		return []string{"Unsupported validation mode"}
	}

	return FormatValidationErrors(Validator.Struct(rules))
}

// FormatValidationErrors translates validator errors. Errors that are not
// validation errors are still reported so nothing passes silently.
func FormatValidationErrors(err error) []string {
	if err == nil {
		return []string{}
	}

	var validationErrors validator.ValidationErrors

	if !errors.As(err, &validationErrors) {
		return []string{"Invalid todo payload"}
	}

	messages := make([]string, 0, len(validationErrors))

	for _, fieldError := range validationErrors {
		messages = append(messages, fieldError.Translate(Translator))
	}

	return messages
}
