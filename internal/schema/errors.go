package schema

import (
	"errors"
	"fmt"
)

var ErrSchemaViolation = errors.New("schema violation")

// Rule names the check a field failed.
type Rule string

const (
	RuleUnknownKey Rule = "unknown_key"
	RuleRequired   Rule = "required"
	RuleType       Rule = "type"
	RuleEmpty      Rule = "empty"
	RuleEnum       Rule = "enum"
	RuleIP         Rule = "ip"
	RuleDateTime   Rule = "date_time"
	RuleInteger    Rule = "integer"
	RuleRange      Rule = "range"
	RuleMinItems   Rule = "min_items"
	RuleMaxKeys    Rule = "max_keys"
)

// ValidationError reports the first violated field. It is meant for logs;
// callers outside the process only ever see a generic message.
type ValidationError struct {
	Field   string `json:"field"`
	Rule    Rule   `json:"rule"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (%s)", e.Field, e.Message, e.Rule)
}

func (e *ValidationError) Unwrap() error {
	return ErrSchemaViolation
}

func violation(path string, rule Rule, format string, args ...any) *ValidationError {
	if path == "" {
		path = "(root)"
	}
	return &ValidationError{Field: path, Rule: rule, Message: fmt.Sprintf(format, args...)}
}
