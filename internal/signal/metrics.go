package signal

// Metrics is the loose per-source mapping every adapter returns. External
// sources have heterogeneous shapes, so values stay untyped here; readers
// go through the accessors below, which decode optional fields explicitly
// and map every missing or mistyped key to a documented default rather
// than coercing silently.
type Metrics map[string]any

// Int returns the value at key as an int. JSON decoding produces float64
// for all numbers, so both int and float64 are accepted.
func (m Metrics) Int(key string) (int, bool) {
	switch v := m[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

// IntOr returns the int at key, or def when absent or not numeric.
func (m Metrics) IntOr(key string, def int) int {
	if v, ok := m.Int(key); ok {
		return v
	}
	return def
}

// IntPtr returns a pointer to the int at key, or nil when absent. Record
// assembly uses this so failed sources leave their fields absent instead
// of zero-valued.
func (m Metrics) IntPtr(key string) *int {
	if v, ok := m.Int(key); ok {
		return &v
	}
	return nil
}

// Float returns the value at key as a float64.
func (m Metrics) Float(key string) (float64, bool) {
	switch v := m[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

// FloatPtr returns a pointer to the float64 at key, or nil when absent.
func (m Metrics) FloatPtr(key string) *float64 {
	if v, ok := m.Float(key); ok {
		return &v
	}
	return nil
}

// String returns the string at key, or "" when absent or not a string.
func (m Metrics) String(key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

// Bool returns the bool at key, or false when absent or not a bool.
func (m Metrics) Bool(key string) bool {
	v, _ := m[key].(bool)
	return v
}

// StatusBreakdown returns the status-code histogram at key, accepting the
// shapes produced both in-process (map[string]int) and after a JSON
// round-trip (map[string]any with float64 counts). Missing key yields nil.
func (m Metrics) StatusBreakdown(key string) map[string]int {
	switch v := m[key].(type) {
	case map[string]int:
		return v
	case map[string]any:
		out := make(map[string]int, len(v))
		for code := range v {
			if n, ok := Metrics(v).Int(code); ok {
				out[code] = n
			}
		}
		return out
	default:
		return nil
	}
}

// TrendPoints returns the trend series at key, or nil when absent.
func (m Metrics) TrendPoints(key string) []TrendPoint {
	if v, ok := m[key].([]TrendPoint); ok {
		return v
	}
	return nil
}
