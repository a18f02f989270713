package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// validate reports fields by their koanf key so messages match the YAML and
// APP_ variable names an operator actually edits.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("koanf"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})

	return v
}

// Validate checks field constraints and then the timeout chain between the
// model call, the API handler and the page. The service refuses to start on
// any failure.
func (c *Config) Validate() error {
	var msgs []string

	if err := validate.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return err
		}
		for _, e := range fieldErrs {
			msgs = append(msgs, formatFieldError(e))
		}
	}

	msgs = append(msgs, c.timeoutChainErrors()...)

	if len(msgs) == 0 {
		return nil
	}

	return fmt.Errorf("config validation failed:\n  %s", strings.Join(msgs, "\n  "))
}

// timeoutChainErrors enforces client.timeout < server.request_timeout <
// web.timeout. Otherwise the handler deadline cuts off a model call that
// could still succeed, or the page gives up before the endpoint answers.
// Zero values are left to the field rules.
func (c *Config) timeoutChainErrors() []string {
	var msgs []string

	client, handler, page := c.Client.Timeout, c.Server.RequestTimeout, c.Web.Timeout

	if client > 0 && handler > 0 && client >= handler {
		msgs = append(msgs, fmt.Sprintf(
			"client.timeout (%s) must be shorter than server.request_timeout (%s)", client, handler))
	}

	if c.Web.Enabled && page > 0 && handler > 0 && page <= handler {
		msgs = append(msgs, fmt.Sprintf(
			"web.timeout (%s) must be longer than server.request_timeout (%s)", page, handler))
	}

	return msgs
}

func formatFieldError(e validator.FieldError) string {
	field := formatFieldPath(e.Namespace())

	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "required_if":
		return fmt.Sprintf("%s is required when %s", field, e.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, e.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, e.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, e.Param())
	case "url":
		return fmt.Sprintf("%s must be a valid URL", field)
	default:
		return fmt.Sprintf("%s failed validation: %s", field, e.Tag())
	}
}

// formatFieldPath drops the root struct name: "Config.model.base_url" becomes
// "model.base_url".
func formatFieldPath(namespace string) string {
	_, path, found := strings.Cut(namespace, ".")
	if !found {
		return namespace
	}

	return path
}
