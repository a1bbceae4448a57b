package otter

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Record is a JSON-like input mapping as decoded by encoding/json.
type Record = map[string]any

// lookup returns the value for key, treating a JSON null as an absent key.
func lookup(record Record, key string) (any, bool) {
	v, ok := record[key]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

func requireField(record Record, key string) (any, error) {
	v, ok := lookup(record, key)
	if !ok {
		return nil, NewMissingFieldError(key)
	}
	return v, nil
}

func requireString(record Record, key string) (string, error) {
	v, err := requireField(record, key)
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", NewTypeConversionError(key, v, "string")
	}
	return s, nil
}

// toFloat parses numbers, numeric strings and booleans the way a float() cast would.
func toFloat(field string, value any) (float64, error) {
	switch v := value.(type) {
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
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, NewTypeConversionError(field, value, "float").WithCause(err)
		}
		return f, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, NewTypeConversionError(field, value, "float").WithCause(err)
		}
		return f, nil
	case bool:
		if v {
			return 1, nil
		}
		return 0, nil
	default:
		return 0, NewTypeConversionError(field, value, "float")
	}
}

// aliasString renders an alias value as a string, matching str() for scalars.
func aliasString(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

// toRecords converts a decoded JSON array into a slice of records.
func toRecords(field string, value any) ([]Record, error) {
	switch v := value.(type) {
	case []Record:
		return v, nil
	case []any:
		out := make([]Record, 0, len(v))
		for _, item := range v {
			rec, ok := item.(Record)
			if !ok {
				return nil, NewTypeConversionError(field, item, "object")
			}
			out = append(out, rec)
		}
		return out, nil
	default:
		return nil, NewTypeConversionError(field, value, "array of objects")
	}
}

func toStrings(field string, value any) ([]string, error) {
	switch v := value.(type) {
	case []string:
		return v, nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, NewTypeConversionError(field, item, "string")
			}
			out = append(out, s)
		}
		return out, nil
	case string:
		return []string{v}, nil
	default:
		return nil, NewTypeConversionError(field, value, "array of strings")
	}
}
