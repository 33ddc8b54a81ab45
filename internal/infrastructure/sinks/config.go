package sinks

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Config is a key-value map for sink-type-specific configuration.
// Values come from the environment and are therefore usually strings; the
// accessors below accept both the typed and the string form.
type Config map[string]any

// String returns the value at key, or def when unset or empty.
func (c Config) String(key, def string) string {
	switch v := c[key].(type) {
	case string:
		if v != "" {
			return v
		}
	case fmt.Stringer:
		return v.String()
	case nil:
	default:
		return fmt.Sprint(v)
	}
	return def
}

// Bool returns the value at key, or def when unset or unparsable.
func (c Config) Bool(key string, def bool) bool {
	switch v := c[key].(type) {
	case bool:
		return v
	case string:
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

// Strings returns a list value. Strings are split on commas.
func (c Config) Strings(key string) []string {
	switch v := c[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	case string:
		var out []string
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out
	}
	return nil
}

// Duration returns the value at key, or def when unset or unparsable.
func (c Config) Duration(key string, def time.Duration) time.Duration {
	switch v := c[key].(type) {
	case time.Duration:
		return v
	case string:
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

// Require returns an error naming every key in keys that has no value.
func (c Config) Require(sinkType string, keys ...string) error {
	var missing []string
	for _, k := range keys {
		if c.String(k, "") == "" {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%s sink: missing %s", sinkType, strings.Join(missing, ", "))
	}
	return nil
}
