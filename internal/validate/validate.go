// Package validate checks dynamic request fields against declarative rules
// before a handler runs. Rules are pipe-separated, in the form the mobile
// clients were originally built against: "required|numeric", "in:asc,dsc",
// "integer|min:1".
package validate

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// Fields holds the values under validation. Body fields arrive as JSON
// types (float64, string, bool), query fields as raw strings.
type Fields map[string]any

// Rules maps a field name to its rule string.
type Rules map[string]string

// FromQuery collects all query parameters of the request.
func FromQuery(c *fiber.Ctx) Fields {
	fields := Fields{}
	for k, v := range c.Queries() {
		fields[k] = v
	}
	return fields
}

// FromBody decodes the JSON request body into a field map. An empty body
// yields an empty map rather than an error.
func FromBody(c *fiber.Ctx) Fields {
	fields := Fields{}
	body := c.Body()
	if len(body) == 0 {
		return fields
	}
	if err := json.Unmarshal(body, &fields); err != nil {
		return Fields{}
	}
	return fields
}

// Check validates fields against rules and returns per-field messages,
// or nil when everything passes.
func Check(fields Fields, rules Rules) map[string]string {
	errs := map[string]string{}
	for field, rule := range rules {
		value, present := fields[field]
		for _, token := range strings.Split(rule, "|") {
			name, arg := token, ""
			if i := strings.IndexByte(token, ':'); i >= 0 {
				name, arg = token[:i], token[i+1:]
			}

			if name == "required" {
				if !present || value == nil || value == "" {
					errs[field] = fmt.Sprintf("The %s field is required.", field)
				}
				continue
			}

			// Non-required rules only apply when the field is present.
			if !present || value == nil {
				continue
			}

			switch name {
			case "string":
				if _, ok := value.(string); !ok {
					errs[field] = fmt.Sprintf("The %s field must be a string.", field)
				}
			case "numeric":
				if _, ok := asFloat(value); !ok {
					errs[field] = fmt.Sprintf("The %s field must be a number.", field)
				}
			case "integer":
				if f, ok := asFloat(value); !ok || f != float64(int64(f)) {
					errs[field] = fmt.Sprintf("The %s field must be an integer.", field)
				}
			case "boolean":
				if !isBool(value) {
					errs[field] = fmt.Sprintf("The %s field must be a boolean.", field)
				}
			case "min":
				bound, _ := strconv.ParseFloat(arg, 64)
				if f, ok := asFloat(value); ok {
					if f < bound {
						errs[field] = fmt.Sprintf("The %s field must be at least %s.", field, arg)
					}
				} else if s, ok := value.(string); ok && float64(len(s)) < bound {
					errs[field] = fmt.Sprintf("The %s field must be at least %s characters.", field, arg)
				}
			case "in":
				if !contains(strings.Split(arg, ","), asString(value)) {
					errs[field] = fmt.Sprintf("The selected %s is invalid.", field)
				}
			}
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// Str returns a field as a string, or "" when absent.
func (f Fields) Str(key string) string {
	if v, ok := f[key]; ok {
		return asString(v)
	}
	return ""
}

// Int returns a field as an int, or the fallback when absent or unparsable.
func (f Fields) Int(key string, fallback int) int {
	if v, ok := f[key]; ok {
		if fl, ok := asFloat(v); ok {
			return int(fl)
		}
	}
	return fallback
}

// Int64 returns a field as an int64, or the fallback.
func (f Fields) Int64(key string, fallback int64) int64 {
	if v, ok := f[key]; ok {
		if fl, ok := asFloat(v); ok {
			return int64(fl)
		}
	}
	return fallback
}

// Float returns a field as a float64, or the fallback.
func (f Fields) Float(key string, fallback float64) float64 {
	if v, ok := f[key]; ok {
		if fl, ok := asFloat(v); ok {
			return fl
		}
	}
	return fallback
}

// Bool returns a field as a bool, or the fallback.
func (f Fields) Bool(key string, fallback bool) bool {
	v, ok := f[key]
	if !ok {
		return fallback
	}
	switch t := v.(type) {
	case bool:
		return t
	case string:
		if b, err := strconv.ParseBool(t); err == nil {
			return b
		}
	}
	return fallback
}

// Has reports whether the field was supplied at all.
func (f Fields) Has(key string) bool {
	_, ok := f[key]
	return ok
}

func asFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(t, 64)
		return f, err == nil
	}
	return 0, false
}

func asString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	}
	return fmt.Sprintf("%v", v)
}

func isBool(v any) bool {
	switch t := v.(type) {
	case bool:
		return true
	case string:
		_, err := strconv.ParseBool(t)
		return err == nil
	}
	return false
}

func contains(list []string, val string) bool {
	for _, item := range list {
		if item == val {
			return true
		}
	}
	return false
}
