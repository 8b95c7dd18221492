package gateway

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/kscst/training-portal/internal/core/domain"
)

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// checkRequest validates an outgoing payload and reports the first failing
// field as a domain error.
func (c *Client) checkRequest(in any) error {
	err := c.validate.Struct(in)
	if err == nil {
		return nil
	}
	var fields validator.ValidationErrors
	if !errors.As(err, &fields) || len(fields) == 0 {
		return fmt.Errorf("%w: %v", domain.ErrInvalidField, err)
	}
	fe := fields[0]
	field := strings.TrimPrefix(fe.Namespace(), reflect.TypeOf(in).Name()+".")
	switch fe.Tag() {
	case "required":
		return fmt.Errorf("%w: %s", domain.ErrMissingField, field)
	case "http_url", "url":
		return fmt.Errorf("%w: %s", domain.ErrInvalidURL, field)
	default:
		return fmt.Errorf("%w: %s", domain.ErrInvalidField, field)
	}
}
