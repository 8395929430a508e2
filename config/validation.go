package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	qyhttp "github.com/qyquant/qyquant-client/http"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func structValidator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())

		// Report fields by their koanf key so errors name what users set
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("koanf"), ",")
			if name == "-" {
				return ""
			}
			return name
		})

		_ = v.RegisterValidation("dialect", func(fl validator.FieldLevel) bool {
			return qyhttp.Dialect(fl.Field().String()).Valid()
		})
		_ = v.RegisterValidation("locale", func(fl validator.FieldLevel) bool {
			return qyhttp.Locale(fl.Field().String()).Valid()
		})

		validate = v
	})
	return validate
}

// Validate checks cfg and returns a *ConfigError for the first invalid field.
func Validate(cfg *Config) error {
	if cfg == nil {
		return NewValidationError("config", "is nil")
	}

	if err := structValidator().Struct(cfg); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			return toConfigError(fieldErrs[0])
		}
		return err
	}

	// Observability validates itself once its defaults are in place
	obs := cfg.Observability
	obs.ApplyDefaults()
	if err := obs.Validate(); err != nil {
		return NewValidationError("observability", err.Error())
	}
	return nil
}

func toConfigError(fe validator.FieldError) *ConfigError {
	field := fieldKey(fe.Namespace())

	switch fe.Tag() {
	case "required":
		return NewMissingFieldError(field)
	case "url":
		return NewValidationError(field, fmt.Sprintf("must be an absolute url, got %q", fe.Value()))
	case "startswith":
		return NewValidationError(field, fmt.Sprintf("must start with %q", fe.Param()))
	case "oneof":
		return NewInvalidFieldError(field, fmt.Sprintf("unsupported value %q", fe.Value()), strings.Fields(fe.Param()))
	case "dialect":
		return NewInvalidFieldError(field, fmt.Sprintf("unsupported dialect %q", fe.Value()),
			[]string{string(qyhttp.DialectCode), string(qyhttp.DialectSuccess)})
	case "locale":
		return NewInvalidFieldError(field, fmt.Sprintf("unsupported locale %q", fe.Value()),
			[]string{string(qyhttp.LocaleEN), string(qyhttp.LocaleZH)})
	case "gt", "gte", "lte":
		return NewValidationError(field, fmt.Sprintf("must be %s %s, got %v", comparison(fe.Tag()), fe.Param(), fe.Value()))
	default:
		return NewValidationError(field, fmt.Sprintf("failed %q validation", fe.Tag()))
	}
}

// fieldKey turns "Config.retry.delays[1]" into "retry.delays[1]".
func fieldKey(namespace string) string {
	if _, rest, ok := strings.Cut(namespace, "."); ok {
		return rest
	}
	return namespace
}

func comparison(tag string) string {
	switch tag {
	case "gt":
		return "greater than"
	case "gte":
		return "at least"
	default:
		return "at most"
	}
}
