package instrument

import "strings"

// Masked replaces values of sensitive keys.
const Masked = "***"

// MaskKeys normalizes field names into a lookup set.
func MaskKeys(fields []string) map[string]struct{} {
	keys := make(map[string]struct{}, len(fields))
	for _, field := range fields {
		field = strings.ToLower(strings.TrimSpace(field))
		if field != "" {
			keys[field] = struct{}{}
		}
	}

	return keys
}

// Mask walks decoded JSON and replaces the values of keys in the set.
func Mask(v any, keys map[string]struct{}) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, inner := range val {
			if _, found := keys[strings.ToLower(k)]; found {
				out[k] = Masked
				continue
			}
			out[k] = Mask(inner, keys)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, inner := range val {
			out[i] = Mask(inner, keys)
		}
		return out
	default:
		return v
	}
}
