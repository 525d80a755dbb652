package normalize

import (
	"math"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// textField returns the text value of key. ok is false when the key is
// absent or null.
func (in Input) textField(key string) (s string, ok bool, err error) {
	raw, present := in[key]
	if !present || raw == nil {
		return "", false, nil
	}
	switch v := raw.(type) {
	case string:
		return v, true, nil
	case json.Number:
		return v.String(), true, nil
	case []string:
		if len(v) == 0 {
			return "", false, nil
		}
		return v[len(v)-1], true, nil
	default:
		return "", false, invalid(key, "must be text")
	}
}

// intField parses an optional whole number. Empty text counts as absent.
func (in Input) intField(key string) (*int, error) {
	raw, present := in[key]
	if !present || raw == nil {
		return nil, nil
	}
	n, ok, err := toFloat(raw)
	if err != nil || (ok && (n != math.Trunc(n) || math.Abs(n) > math.MaxInt32)) {
		return nil, invalid(key, "must be a whole number")
	}
	if !ok {
		return nil, nil
	}
	i := int(n)
	return &i, nil
}

// floatField parses an optional finite number. Empty text counts as absent.
func (in Input) floatField(key string) (*float64, error) {
	raw, present := in[key]
	if !present || raw == nil {
		return nil, nil
	}
	f, ok, err := toFloat(raw)
	if err != nil {
		return nil, invalid(key, "must be a number")
	}
	if !ok {
		return nil, nil
	}
	return &f, nil
}

// toFloat coerces a raw scalar into a finite float64. ok is false for empty
// text.
func toFloat(raw any) (f float64, ok bool, err error) {
	switch v := raw.(type) {
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int64:
		f = float64(v)
	case json.Number:
		f, err = strconv.ParseFloat(v.String(), 64)
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return 0, false, nil
		}
		f, err = strconv.ParseFloat(s, 64)
	case []string:
		if len(v) == 0 {
			return 0, false, nil
		}
		return toFloat(v[len(v)-1])
	default:
		return 0, false, strconv.ErrSyntax
	}
	if err != nil {
		return 0, false, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false, strconv.ErrRange
	}
	return f, true, nil
}

// stringList reads a list-valued field. A single string is split on commas
// when split is true, or decoded as a JSON array otherwise.
func (in Input) stringList(key string, split bool) ([]string, bool, error) {
	raw, present := in[key]
	if !present || raw == nil {
		return nil, false, nil
	}
	switch v := raw.(type) {
	case string:
		if split {
			return SplitTags(v), true, nil
		}
		if strings.TrimSpace(v) == "" {
			return nil, false, nil
		}
		arr, err := decodeArray([]byte(v))
		if err != nil {
			return nil, false, invalid(key, "must be a JSON array of strings")
		}
		out, err := stringsOf(key, arr)
		return out, err == nil, err
	case []string:
		// Repeated form keys may still carry a JSON-encoded array in one slot.
		if !split && len(v) == 1 && strings.HasPrefix(strings.TrimSpace(v[0]), "[") {
			return Input{key: v[0]}.stringList(key, false)
		}
		return append([]string{}, v...), true, nil
	case []any:
		out, err := stringsOf(key, v)
		return out, err == nil, err
	default:
		return nil, false, invalid(key, "must be a list of strings")
	}
}

func stringsOf(key string, arr []any) ([]string, error) {
	out := make([]string, 0, len(arr))
	for _, e := range arr {
		s, ok := e.(string)
		if !ok {
			return nil, invalid(key, "must contain only strings")
		}
		out = append(out, s)
	}
	return out, nil
}

// SplitTags splits a comma-joined tag string, trimming whitespace and
// dropping empty tokens. Order is preserved.
func SplitTags(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// object reads a field holding either a JSON-encoded object or a decoded one.
func (in Input) object(key string) (map[string]any, bool, error) {
	raw, present := in[key]
	if !present || raw == nil {
		return nil, false, nil
	}
	switch v := raw.(type) {
	case map[string]any:
		return v, true, nil
	case []string:
		if len(v) == 0 {
			return nil, false, nil
		}
		return Input{key: v[len(v)-1]}.object(key)
	case string:
		if strings.TrimSpace(v) == "" {
			return nil, false, nil
		}
		obj, err := decodeObject([]byte(v))
		if err != nil {
			return nil, false, invalid(key, "must be a JSON object")
		}
		return obj, true, nil
	default:
		return nil, false, invalid(key, "must be an object")
	}
}
