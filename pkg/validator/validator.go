package validator

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	apperrors "github.com/jwalitptl/barber-api/pkg/errors"
)

var clockTimeRegex = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

// Validator provides validation functionality
type Validator interface {
	Validate(interface{}) error
}

type structValidator struct {
	v *validator.Validate
}

func New() Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := RegisterCustom(v); err != nil {
		panic(err)
	}
	return &structValidator{v: v}
}

// RegisterCustom installs the domain tags on v. The gin binding engine gets the same set.
func RegisterCustom(v *validator.Validate) error {
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})

	if err := v.RegisterValidation("clocktime", func(fl validator.FieldLevel) bool {
		return clockTimeRegex.MatchString(fl.Field().String())
	}); err != nil {
		return fmt.Errorf("register clocktime: %w", err)
	}

	if err := v.RegisterValidation("percent", func(fl validator.FieldLevel) bool {
		d, ok := fl.Field().Interface().(decimal.Decimal)
		if !ok {
			return false
		}
		return !d.IsNegative() && d.LessThanOrEqual(decimal.NewFromInt(100))
	}); err != nil {
		return fmt.Errorf("register percent: %w", err)
	}

	if err := v.RegisterValidation("nonnegative", func(fl validator.FieldLevel) bool {
		switch d := fl.Field().Interface().(type) {
		case decimal.Decimal:
			return !d.IsNegative()
		case *decimal.Decimal:
			return d == nil || !d.IsNegative()
		}
		return false
	}); err != nil {
		return fmt.Errorf("register nonnegative: %w", err)
	}

	return nil
}

func (s *structValidator) Validate(obj interface{}) error {
	return Translate(s.v.Struct(obj))
}

// Translate turns validator.ValidationErrors into a validation AppError listing every field.
// Other errors, such as malformed JSON from gin binding, become bad requests.
func Translate(err error) error {
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperrors.NewBadRequest("invalid input", err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}
	return apperrors.NewValidation("invalid-input", strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "gt", "gte", "min":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "lt", "lte", "max":
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", fe.Field(), fe.Param())
	case "clocktime":
		return fmt.Sprintf("%s must be HH:MM", fe.Field())
	case "percent":
		return fmt.Sprintf("%s must be between 0 and 100", fe.Field())
	case "nonnegative":
		return fmt.Sprintf("%s must not be negative", fe.Field())
	default:
		return fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag())
	}
}
