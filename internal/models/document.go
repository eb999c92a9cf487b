package models

import "time"

// Documents arriving from trigger snapshots are free-form maps; the
// helpers below read typed fields defensively, tolerating missing or
// oddly-typed values written by older client versions.

func docString(data map[string]interface{}, key string) string {
	if v, ok := data[key].(string); ok {
		return v
	}
	return ""
}

func docInt64(data map[string]interface{}, key string) int64 {
	switch v := data[key].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	default:
		return 0
	}
}

func docBool(data map[string]interface{}, key string, fallback bool) bool {
	if v, ok := data[key].(bool); ok {
		return v
	}
	return fallback
}

func docTime(data map[string]interface{}, key string) time.Time {
	if v, ok := data[key].(time.Time); ok {
		return v
	}
	return time.Time{}
}

func docSlice(data map[string]interface{}, key string) []interface{} {
	if v, ok := data[key].([]interface{}); ok {
		return v
	}
	return nil
}
