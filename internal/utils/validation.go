package contextutils

import (
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// IsValidURL checks if a string is an absolute http(s) URL using go-playground/validator
func IsValidURL(raw string) bool {
	return validate.Var(raw, "required,http_url") == nil
}
