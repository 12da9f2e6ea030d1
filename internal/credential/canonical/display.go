package canonical

import "strings"

// Display coerces a value to the text a browser would render for it with String(value).
// Arrays join their elements with commas (null elements become empty),
// objects render as "[object Object]".
func Display(v Value) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case bool:
		if t {
			return "true"
		}
		return "false"
	case string:
		return t
	case float64:
		return FormatNumber(t)
	case []Value:
		parts := make([]string, len(t))
		for i, e := range t {
			if e == nil {
				continue
			}
			parts[i] = Display(e)
		}
		return strings.Join(parts, ",")
	case *Object:
		return "[object Object]"
	}
	b, err := Stringify(v)
	if err != nil {
		return ""
	}
	return strings.Trim(string(b), `"`)
}
