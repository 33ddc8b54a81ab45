// Package schema holds the declarative rule set for inbound log events and
// the validator that applies it. Validation is a pure function of its input:
// it either returns a normalized copy of the document or the first violation.
package schema

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

// dateTimeLayouts are the ISO 8601 forms accepted for the time field.
var dateTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999Z0700",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04",
	"2006-01-02",
}

// Validator applies a profile's rule set to decoded JSON documents.
// It is safe for concurrent use.
type Validator struct {
	validate *validator.Validate
}

func New() *Validator {
	return &Validator{validate: validator.New()}
}

// Validate checks doc against the profile. doc is expected to come from
// encoding/json, ideally decoded with UseNumber. On success the returned map
// is a copy of doc with over-long strings truncated; doc itself is untouched.
func (v *Validator) Validate(p Profile, doc any) (map[string]any, error) {
	root, err := SchemaFor(p)
	if err != nil {
		return nil, err
	}
	return v.object("", root, doc)
}

func (v *Validator) object(path string, o *Object, raw any) (map[string]any, error) {
	in, ok := raw.(map[string]any)
	if !ok {
		return nil, violation(path, RuleType, "must be an object")
	}

	var unknown []string
	for k := range in {
		if _, ok := o.field(k); !ok {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, violation(join(path, unknown[0]), RuleUnknownKey, "is not allowed")
	}

	for _, f := range o.Fields {
		if _, ok := in[f.Name]; !ok && f.Required {
			return nil, violation(join(path, f.Name), RuleRequired, "is required")
		}
	}

	out := make(map[string]any, len(in))
	for _, f := range o.Fields {
		val, ok := in[f.Name]
		if !ok {
			continue
		}
		norm, err := v.value(join(path, f.Name), f, val)
		if err != nil {
			return nil, err
		}
		out[f.Name] = norm
	}
	return out, nil
}

func (v *Validator) value(path string, f Field, val any) (any, error) {
	if val == nil {
		if f.Nullable {
			return nil, nil
		}
		return nil, violation(path, RuleType, "must not be null")
	}

	switch f.Kind {
	case KindString:
		s, err := nonEmptyString(path, val)
		if err != nil {
			return nil, err
		}
		return Truncate(s, f.MaxLen), nil

	case KindDateTime:
		s, err := nonEmptyString(path, val)
		if err != nil {
			return nil, err
		}
		if !isDateTime(s) {
			return nil, violation(path, RuleDateTime, "must be a valid ISO 8601 date")
		}
		return s, nil

	case KindEnum:
		s, err := nonEmptyString(path, val)
		if err != nil {
			return nil, err
		}
		if v.validate.Var(s, "oneof="+strings.Join(f.Enum, " ")) != nil {
			return nil, violation(path, RuleEnum, "must be one of [%s]", strings.Join(f.Enum, ", "))
		}
		return s, nil

	case KindIP:
		s, err := nonEmptyString(path, val)
		if err != nil {
			return nil, err
		}
		// The ip tag parses a bare address; CIDR suffixes and zones fail.
		if v.validate.Var(s, "ip") != nil {
			return nil, violation(path, RuleIP, "must be a valid IPv4 or IPv6 address without CIDR")
		}
		return s, nil

	case KindInteger:
		n, err := v.integer(path, f, val)
		if err != nil {
			return nil, err
		}
		return n, nil

	case KindObject:
		return v.object(path, f.Object, val)

	case KindArray:
		items, ok := val.([]any)
		if !ok {
			return nil, violation(path, RuleType, "must be an array")
		}
		if len(items) < f.MinItems {
			return nil, violation(path, RuleMinItems, "must contain at least %d items", f.MinItems)
		}
		out := make([]any, len(items))
		for i, item := range items {
			norm, err := v.object(fmt.Sprintf("%s[%d]", path, i), f.Elem, item)
			if err != nil {
				return nil, err
			}
			out[i] = norm
		}
		return out, nil

	case KindOpenObject:
		m, ok := val.(map[string]any)
		if !ok {
			return nil, violation(path, RuleType, "must be an object")
		}
		if f.MaxKeys > 0 && len(m) > f.MaxKeys {
			return nil, violation(path, RuleMaxKeys, "must have at most %d keys", f.MaxKeys)
		}
		out := make(map[string]any, len(m))
		for k, item := range m {
			out[k] = item
		}
		return out, nil
	}

	return nil, fmt.Errorf("schema: field %s has unsupported kind %d", path, f.Kind)
}

func (v *Validator) integer(path string, f Field, val any) (any, error) {
	var fv float64
	switch n := val.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			fv = float64(i)
			break
		}
		parsed, err := n.Float64()
		if err != nil {
			return nil, violation(path, RuleType, "must be a number")
		}
		fv = parsed
	case float64:
		fv = n
	default:
		return nil, violation(path, RuleType, "must be a number")
	}

	if math.IsInf(fv, 0) || math.IsNaN(fv) || fv != math.Trunc(fv) {
		return nil, violation(path, RuleInteger, "must be an integer")
	}
	if math.Abs(fv) > float64(math.MaxInt32)*float64(math.MaxInt32) {
		return nil, violation(path, RuleRange, "must be between %d and %d", f.Min, f.Max)
	}
	i := int64(fv)
	if v.validate.Var(i, fmt.Sprintf("min=%d,max=%d", f.Min, f.Max)) != nil {
		return nil, violation(path, RuleRange, "must be between %d and %d", f.Min, f.Max)
	}
	return val, nil
}

func nonEmptyString(path string, val any) (string, error) {
	s, ok := val.(string)
	if !ok {
		return "", violation(path, RuleType, "must be a string")
	}
	if s == "" {
		return "", violation(path, RuleEmpty, "must not be empty")
	}
	return s, nil
}

func isDateTime(s string) bool {
	for _, layout := range dateTimeLayouts {
		if _, err := time.Parse(layout, s); err == nil {
			return true
		}
	}
	return false
}

// Truncate clamps s to at most max code points. A non-positive max leaves s
// unchanged. Truncating an already truncated value is a no-op.
func Truncate(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	n := 0
	for i := range s {
		if n == max {
			return s[:i]
		}
		n++
	}
	return s
}

func join(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}
