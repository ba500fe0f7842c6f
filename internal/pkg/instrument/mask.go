package instrument

import (
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/samber/lo"
)

// MaskedValue replaces the value of every masked key.
const MaskedValue = "***"

// MaskKeys normalizes field names into a lookup set (lower-cased, blanks dropped).
func MaskKeys(fields []string) map[string]struct{} {
	keys := lo.FilterMap(fields, func(field string, _ int) (string, bool) {
		field = strings.TrimSpace(strings.ToLower(field))
		return field, field != ""
	})
	return lo.SliceToMap(keys, func(k string) (string, struct{}) { return k, struct{}{} })
}

// MaskData walks decoded JSON (maps and slices) and hides values of masked keys.
func MaskData(v any, maskKeys map[string]struct{}) any {
	switch val := v.(type) {
	case map[string]any:
		masked := make(map[string]any, len(val))
		for k, v2 := range val {
			if _, found := maskKeys[strings.ToLower(k)]; found {
				masked[k] = MaskedValue
				continue
			}
			masked[k] = MaskData(v2, maskKeys)
		}
		return masked
	case map[string]string:
		return MaskData(lo.MapValues(val, func(s string, _ string) any { return s }), maskKeys)
	case []any:
		return lo.Map(val, func(v2 any, _ int) any { return MaskData(v2, maskKeys) })
	default:
		return v
	}
}

func maskAttr(attr slog.Attr, maskKeys map[string]struct{}) slog.Attr {
	if _, found := maskKeys[strings.ToLower(attr.Key)]; found {
		return slog.String(attr.Key, MaskedValue)
	}

	switch attr.Value.Kind() {
	case slog.KindGroup:
		group := attr.Value.Group()
		masked := make([]slog.Attr, 0, len(group))
		for _, ga := range group {
			masked = append(masked, maskAttr(ga, maskKeys))
		}
		attr.Value = slog.GroupValue(masked...)
	case slog.KindString:
		if masked, ok := maskJSON([]byte(attr.Value.String()), maskKeys); ok {
			attr.Value = slog.StringValue(masked)
		}
	case slog.KindAny:
		switch val := attr.Value.Any().(type) {
		case map[string]any, map[string]string, []any:
			attr.Value = slog.AnyValue(MaskData(val, maskKeys))
		case []byte:
			if masked, ok := maskJSON(val, maskKeys); ok {
				attr.Value = slog.StringValue(masked)
			}
		}
	}

	return attr
}

func maskJSON(payload []byte, maskKeys map[string]struct{}) (string, bool) {
	if len(payload) == 0 || (payload[0] != '{' && payload[0] != '[') {
		return "", false
	}
	var body any
	if err := json.Unmarshal(payload, &body); err != nil {
		return "", false
	}
	out, err := json.Marshal(MaskData(body, maskKeys))
	if err != nil {
		return "", false
	}
	return string(out), true
}
