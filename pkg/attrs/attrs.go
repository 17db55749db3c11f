package attrs

import "fmt"

// ExtractString extracts a value from a key-value attribute slice formatted
// as [key1, value1, key2, value2, ...], the shape slog attributes are passed
// around in. Strings and fmt.Stringers are returned as text; anything else,
// or a missing key, yields "".
func ExtractString(attrs []any, key string) string {
	for i := 0; i+1 < len(attrs); i += 2 {
		k, ok := attrs[i].(string)
		if !ok || k != key {
			continue
		}
		switch v := attrs[i+1].(type) {
		case string:
			return v
		case fmt.Stringer:
			return v.String()
		}
		return ""
	}
	return ""
}
