package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/mail"
	"regexp"
	"strings"
)

// ErrInvalid marks input rejected by application-level validation.
var ErrInvalid = errors.New("invalid input")

// ValidationError names the offending field. errors.Is(err, ErrInvalid) holds.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Is(target error) bool { return target == ErrInvalid }

func invalid(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

var semverPattern = regexp.MustCompile(`^(0|[1-9]\d*)\.(0|[1-9]\d*)\.(0|[1-9]\d*)(?:-[0-9A-Za-z.-]+)?$`)

func requireText(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return invalid(field, "is required")
	}
	return nil
}

func requireOneOf(field, value string, allowed ...string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return invalid(field, "must be one of %s", strings.Join(allowed, ", "))
}

// ValidateEmail checks addr is a bare address (no display name).
func ValidateEmail(addr string) error {
	a, err := mail.ParseAddress(addr)
	if err != nil || a.Address != addr {
		return invalid("email", "invalid email format")
	}
	return nil
}

// ValidateSemver checks MAJOR.MINOR.PATCH with an optional pre-release suffix.
func ValidateSemver(v string) error {
	if !semverPattern.MatchString(v) {
		return invalid("semver", "must look like 1.0.0")
	}
	return nil
}

// requireJSONObject accepts empty input or a JSON object.
func requireJSONObject(field string, raw json.RawMessage) error {
	if len(raw) == 0 {
		return nil
	}
	var v map[string]interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return invalid(field, "must be a JSON object")
	}
	return nil
}

// requireJSON accepts empty input or any valid JSON value.
func requireJSON(field string, raw json.RawMessage) error {
	if len(raw) == 0 {
		return nil
	}
	if !json.Valid(raw) {
		return invalid(field, "must be valid JSON")
	}
	return nil
}

// ValidateSchemaText checks an intent input/output schema. Plain text is
// accepted as-is. Text that parses as JSON must have an object root or be an
// array whose elements are all objects.
func ValidateSchemaText(field, schema string) error {
	s := strings.TrimSpace(schema)
	if s == "" || !json.Valid([]byte(s)) {
		return nil
	}
	var v interface{}
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil
	}
	switch root := v.(type) {
	case map[string]interface{}:
		return nil
	case []interface{}:
		for i, el := range root {
			if _, ok := el.(map[string]interface{}); !ok {
				return invalid(field, "array element %d must be a JSON object", i)
			}
		}
		return nil
	default:
		return invalid(field, "JSON schema root must be an object or an array of objects")
	}
}
