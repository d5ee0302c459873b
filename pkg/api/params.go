package api

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// ErrInvalidInt64Type is returned when a value cannot be converted to int64.
type ErrInvalidInt64Type struct {
	Value any
}

func (e *ErrInvalidInt64Type) Error() string {
	return fmt.Sprintf("expected integer, got %T", e.Value)
}

// ParseInt64 converts a decoded tool argument to int64.
// Arguments are decoded with json.Number, integral floats, Go integers and
// numeric strings are accepted as well.
func ParseInt64(value any) (int64, error) {
	var (
		i   int64
		err error
	)
	switch v := value.(type) {
	case json.Number:
		i, err = v.Int64()
	case string:
		i, err = strconv.ParseInt(v, 10, 64)
	case float64:
		if v != math.Trunc(v) || math.IsInf(v, 0) || math.IsNaN(v) {
			return 0, &ErrInvalidInt64Type{Value: value}
		}
		i = int64(v)
	case int:
		i = int64(v)
	case int64:
		i = v
	default:
		return 0, &ErrInvalidInt64Type{Value: value}
	}
	if err != nil {
		return 0, &ErrInvalidInt64Type{Value: value}
	}
	return i, nil
}

// argument returns the named argument, a JSON null counts as absent.
func argument(params ToolHandlerParams, key string) (any, bool) {
	val, ok := params.GetArguments()[key]
	return val, ok && val != nil
}

func required(params ToolHandlerParams, key string) (any, error) {
	val, ok := argument(params, key)
	if !ok {
		return nil, fmt.Errorf("%s parameter required", key)
	}
	return val, nil
}

// list converts every item of an array argument, kind names the expected item type in errors.
func list[T any](key string, val any, kind string, convert func(any) (T, error)) ([]T, error) {
	items, ok := val.([]any)
	if !ok {
		return nil, fmt.Errorf("%s parameter must be an array of %ss", key, kind)
	}
	ret := make([]T, 0, len(items))
	for i, item := range items {
		converted, err := convert(item)
		if err != nil {
			return nil, fmt.Errorf("%s item at index %d must be %s %s: %w", key, i, article(kind), kind, err)
		}
		ret = append(ret, converted)
	}
	return ret, nil
}

func article(kind string) string {
	switch kind[0] {
	case 'a', 'e', 'i', 'o', 'u':
		return "an"
	}
	return "a"
}

func asObject(v any) (map[string]any, error) {
	if obj, ok := v.(map[string]any); ok {
		return obj, nil
	}
	return nil, fmt.Errorf("got %T", v)
}

func asString(v any) (string, error) {
	if str, ok := v.(string); ok {
		return str, nil
	}
	return "", fmt.Errorf("got %T", v)
}

// RequiredString extracts a required, non-empty string parameter from tool arguments.
func RequiredString(params ToolHandlerParams, key string) (string, error) {
	val, err := required(params, key)
	if err != nil {
		return "", err
	}
	str, ok := val.(string)
	if !ok {
		return "", fmt.Errorf("%s parameter must be a string", key)
	}
	if str == "" {
		return "", fmt.Errorf("%s parameter cannot be empty", key)
	}
	return str, nil
}

// OptionalString returns defaultVal when the parameter is missing or not a string.
func OptionalString(params ToolHandlerParams, key, defaultVal string) string {
	if str, ok := params.GetArguments()[key].(string); ok {
		return str
	}
	return defaultVal
}

// OptionalBool returns defaultVal when the parameter is missing or not a boolean.
func OptionalBool(params ToolHandlerParams, key string, defaultVal bool) bool {
	if b, ok := params.GetArguments()[key].(bool); ok {
		return b
	}
	return defaultVal
}

func RequiredInt64(params ToolHandlerParams, key string) (int64, error) {
	val, err := required(params, key)
	if err != nil {
		return 0, err
	}
	i, err := ParseInt64(val)
	if err != nil {
		return 0, fmt.Errorf("%s parameter must be an integer: %w", key, err)
	}
	return i, nil
}

// OptionalInt64 returns defaultVal when the parameter is missing and an error when it is not an integer.
func OptionalInt64(params ToolHandlerParams, key string, defaultVal int64) (int64, error) {
	if _, ok := argument(params, key); !ok {
		return defaultVal, nil
	}
	return RequiredInt64(params, key)
}

func RequiredObject(params ToolHandlerParams, key string) (map[string]any, error) {
	val, err := required(params, key)
	if err != nil {
		return nil, err
	}
	obj, err := asObject(val)
	if err != nil {
		return nil, fmt.Errorf("%s parameter must be an object", key)
	}
	return obj, nil
}

// OptionalObject returns nil without error when the parameter is missing.
func OptionalObject(params ToolHandlerParams, key string) (map[string]any, error) {
	if _, ok := argument(params, key); !ok {
		return nil, nil
	}
	return RequiredObject(params, key)
}

// RequiredObjectList extracts an array of JSON objects.
// An empty array is returned as-is, emptiness is validated by the NetBox client.
func RequiredObjectList(params ToolHandlerParams, key string) ([]map[string]any, error) {
	val, err := required(params, key)
	if err != nil {
		return nil, err
	}
	return list(key, val, "object", asObject)
}

func RequiredInt64List(params ToolHandlerParams, key string) ([]int64, error) {
	val, err := required(params, key)
	if err != nil {
		return nil, err
	}
	return list(key, val, "integer", ParseInt64)
}

// OptionalStringList returns nil without error when the parameter is missing.
func OptionalStringList(params ToolHandlerParams, key string) ([]string, error) {
	val, ok := argument(params, key)
	if !ok {
		return nil, nil
	}
	return list(key, val, "string", asString)
}
