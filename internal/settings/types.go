package settings

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Type is the declared type of a setting key.
type Type string

const (
	TypeBool   Type = "bool"
	TypeInt    Type = "int"
	TypeFloat  Type = "float"
	TypeString Type = "string"
	TypeEnum   Type = "enum"
)

// Valid reports whether t is one of the supported types.
func (t Type) Valid() bool {
	switch t {
	case TypeBool, TypeInt, TypeFloat, TypeString, TypeEnum:
		return true
	}
	return false
}

// Key declares a single option of a domain.
//
// Values held for a key are always in canonical form: bool, int, float64 or
// string (enums are strings).
type Key struct {
	Name        string
	Type        Type
	Default     any
	Description string

	// Enum lists the allowed values of an enum key.
	Enum []string

	// Min and Max bound numeric keys; nil means unbounded.
	Min *float64
	Max *float64

	// Pattern is a regular expression string values must match.
	Pattern string

	// Validate is an optional extra predicate run after the built-in checks.
	Validate func(value any) error
}

// Bool declares a boolean key.
func Bool(name string, def bool, description string) Key {
	return Key{Name: name, Type: TypeBool, Default: def, Description: description}
}

// Int declares an integer key bounded to [min, max].
func Int(name string, def, min, max int, description string) Key {
	lo, hi := float64(min), float64(max)
	return Key{Name: name, Type: TypeInt, Default: def, Min: &lo, Max: &hi, Description: description}
}

// Float declares a float key bounded to [min, max].
func Float(name string, def, min, max float64, description string) Key {
	return Key{Name: name, Type: TypeFloat, Default: def, Min: &min, Max: &max, Description: description}
}

// String declares a free-form string key.
func String(name, def, description string) Key {
	return Key{Name: name, Type: TypeString, Default: def, Description: description}
}

// Enum declares a key restricted to a fixed set of strings.
func Enum(name, def string, values []string, description string) Key {
	return Key{Name: name, Type: TypeEnum, Default: def, Enum: values, Description: description}
}

// Normalize coerces raw into the key's canonical type and checks it.
func (k Key) Normalize(raw any) (any, error) {
	v, err := k.Coerce(raw)
	if err != nil {
		return nil, err
	}
	if err := k.Check(v); err != nil {
		return nil, err
	}
	return v, nil
}

// Coerce converts raw into the key's canonical Go type. Strings are parsed,
// so values read from text formats and typed in on a command line go through
// the same conversion as native JSON or YAML values.
func (k Key) Coerce(raw any) (any, error) {
	switch k.Type {
	case TypeBool:
		return coerceBool(raw)
	case TypeInt:
		return coerceInt(raw)
	case TypeFloat:
		return coerceFloat(raw)
	case TypeString, TypeEnum:
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("expected string, got %T", raw)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unsupported type %q", k.Type)
	}
}

// Check validates a canonical value against the key's constraints.
func (k Key) Check(value any) error {
	switch k.Type {
	case TypeBool:
		if _, ok := value.(bool); !ok {
			return fmt.Errorf("expected bool, got %T", value)
		}
	case TypeInt:
		n, ok := value.(int)
		if !ok {
			return fmt.Errorf("expected int, got %T", value)
		}
		if err := k.checkRange(float64(n)); err != nil {
			return err
		}
	case TypeFloat:
		f, ok := value.(float64)
		if !ok {
			return fmt.Errorf("expected float, got %T", value)
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("must be a finite number")
		}
		if err := k.checkRange(f); err != nil {
			return err
		}
	case TypeString:
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("expected string, got %T", value)
		}
		if k.Pattern != "" {
			matched, err := regexp.MatchString(k.Pattern, s)
			if err != nil {
				return fmt.Errorf("invalid pattern %q: %w", k.Pattern, err)
			}
			if !matched {
				return fmt.Errorf("must match pattern %s", k.Pattern)
			}
		}
	case TypeEnum:
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("expected string, got %T", value)
		}
		if !contains(k.Enum, s) {
			return fmt.Errorf("must be one of: %s", strings.Join(k.Enum, ", "))
		}
	default:
		return fmt.Errorf("unsupported type %q", k.Type)
	}

	if k.Validate != nil {
		return k.Validate(value)
	}
	return nil
}

func (k Key) checkRange(f float64) error {
	if k.Min != nil && f < *k.Min {
		return fmt.Errorf("must be >= %s", formatBound(*k.Min))
	}
	if k.Max != nil && f > *k.Max {
		return fmt.Errorf("must be <= %s", formatBound(*k.Max))
	}
	return nil
}

func formatBound(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func coerceBool(raw any) (any, error) {
	switch v := raw.(type) {
	case bool:
		return v, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "yes", "on", "1":
			return true, nil
		case "false", "no", "off", "0":
			return false, nil
		}
		return nil, fmt.Errorf("cannot parse %q as bool", v)
	default:
		return nil, fmt.Errorf("expected bool, got %T", raw)
	}
}

func coerceInt(raw any) (any, error) {
	switch v := raw.(type) {
	case int:
		return v, nil
	case int8:
		return int(v), nil
	case int16:
		return int(v), nil
	case int32:
		return int(v), nil
	case int64:
		return int(v), nil
	case uint:
		return int(v), nil
	case uint8:
		return int(v), nil
	case uint16:
		return int(v), nil
	case uint32:
		return int(v), nil
	case uint64:
		if v > math.MaxInt64 {
			return nil, fmt.Errorf("%d overflows int", v)
		}
		return int(v), nil
	case float32:
		return floatToInt(float64(v))
	case float64:
		return floatToInt(v)
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("cannot parse %q as int", v)
		}
		return int(n), nil
	default:
		return nil, fmt.Errorf("expected int, got %T", raw)
	}
}

func floatToInt(f float64) (any, error) {
	if f != math.Trunc(f) || math.IsInf(f, 0) || math.IsNaN(f) {
		return nil, fmt.Errorf("%v is not an integer", f)
	}
	return int(f), nil
}

func coerceFloat(raw any) (any, error) {
	switch v := raw.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case uint64:
		return float64(v), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil, fmt.Errorf("cannot parse %q as float", v)
		}
		return f, nil
	default:
		return nil, fmt.Errorf("expected float, got %T", raw)
	}
}

func contains(values []string, s string) bool {
	for _, v := range values {
		if v == s {
			return true
		}
	}
	return false
}
