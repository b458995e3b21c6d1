// Package parse holds the per-value parsers shared by the classifier and the
// converter. Every parser reports failure through its boolean result; a value
// that does not parse is evidence, never an error.
package parse

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// IsBlank reports whether v is null: nil, a whitespace-only string or NaN.
func IsBlank(v interface{}) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(x) == ""
	case float64:
		return math.IsNaN(x)
	case float32:
		return math.IsNaN(float64(x))
	}
	return false
}

// Text renders v as the string the checks compare against.
func Text(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	}
	if f, ok := asFloat(v); ok {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	return ""
}

var (
	truthy = map[string]bool{"1": true, "t": true, "true": true, "yes": true}
	falsy  = map[string]bool{"0": true, "f": true, "false": true, "no": true}
)

// Bool matches the boolean literals {1,t,true,yes} and {0,f,false,no}
// case-insensitively, native bools and numeric 0/1.
func Bool(v interface{}) (bool, bool) {
	switch x := v.(type) {
	case bool:
		return x, true
	case string:
		s := strings.ToLower(strings.TrimSpace(x))
		if truthy[s] {
			return true, true
		}
		if falsy[s] {
			return false, true
		}
		return false, false
	}
	if f, ok := asFloat(v); ok {
		switch f {
		case 1:
			return true, true
		case 0:
			return false, true
		}
	}
	return false, false
}

// Float parses v as a finite or infinite number. NaN, hexadecimal and
// underscore-separated forms are rejected.
func Float(v interface{}) (float64, bool) {
	switch x := v.(type) {
	case string:
		s := strings.TrimSpace(x)
		if s == "" || strings.ContainsRune(s, '_') || hasHexPrefix(s) {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			// strconv reports out-of-range values as ±Inf with ErrRange
			if ne, ok := err.(*strconv.NumError); !ok || ne.Err != strconv.ErrRange {
				return 0, false
			}
		}
		if math.IsNaN(f) {
			return 0, false
		}
		return f, true
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	}
	f, ok := asFloat(v)
	if !ok || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

// Int parses v as an exact integer. ok is false when v is not numeric;
// exact is false when v is numeric but not an integer representable in int64.
func Int(v interface{}) (n int64, ok, exact bool) {
	switch x := v.(type) {
	case int8:
		return int64(x), true, true
	case int16:
		return int64(x), true, true
	case int32:
		return int64(x), true, true
	case int64:
		return x, true, true
	case int:
		return int64(x), true, true
	case string:
		s := strings.TrimSpace(x)
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return i, true, true
		}
	}
	f, ok := Float(v)
	if !ok {
		return 0, false, false
	}
	if !IsIntegral(f) || !InInt64Range(f) {
		return 0, true, false
	}
	return int64(f), true, true
}

// IsIntegral reports whether f is finite with no fractional part.
func IsIntegral(f float64) bool {
	return !math.IsInf(f, 0) && !math.IsNaN(f) && f == math.Trunc(f)
}

// InInt64Range reports whether f can be cast to int64 without overflow.
func InInt64Range(f float64) bool {
	return f >= -9223372036854775808.0 && f < 9223372036854775808.0
}

// Round-trip tolerance: |a-b| <= AbsTolerance + RelTolerance*|b|.
const (
	RelTolerance = 1e-5
	AbsTolerance = 1e-8
)

// IsClose reports whether a reproduces b within tolerance.
// NaN is close only to NaN and an infinity only to itself.
func IsClose(a, b float64) bool {
	if math.IsNaN(a) || math.IsNaN(b) {
		return math.IsNaN(a) && math.IsNaN(b)
	}
	if math.IsInf(a, 0) || math.IsInf(b, 0) {
		return a == b
	}
	return math.Abs(a-b) <= AbsTolerance+RelTolerance*math.Abs(b)
}

// NearInt truncates f to int64 and reports whether the result reproduces f
// within tolerance. Stored float columns are integral under this test.
func NearInt(f float64) (int64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || !InInt64Range(f) {
		return 0, false
	}
	n := int64(f)
	return n, IsClose(float64(n), f)
}

// Complex parses "a+bj", "a+bi", "(a+bj)", "bj" and plain reals.
func Complex(v interface{}) (complex128, bool) {
	switch x := v.(type) {
	case complex128:
		return x, true
	case complex64:
		return complex128(x), true
	case string:
		s := strings.TrimSpace(x)
		if s == "" || strings.ContainsRune(s, '_') || hasHexPrefix(s) {
			return 0, false
		}
		s = strings.NewReplacer("j", "i", "J", "i").Replace(s)
		c, err := strconv.ParseComplex(s, 128)
		if err != nil {
			return 0, false
		}
		if math.IsNaN(real(c)) || math.IsNaN(imag(c)) {
			return 0, false
		}
		return c, true
	}
	f, ok := Float(v)
	if !ok {
		return 0, false
	}
	return complex(f, 0), true
}

// Datetime parses v with a permissive multi-layout parser. Strings without a
// single digit never parse, so month names and short words stay text.
func Datetime(v interface{}) (t time.Time, ok bool) {
	switch x := v.(type) {
	case time.Time:
		return x, true
	case string:
		s := strings.TrimSpace(x)
		if s == "" || !strings.ContainsAny(s, "0123456789") {
			return time.Time{}, false
		}
		defer func() {
			if recover() != nil {
				t, ok = time.Time{}, false
			}
		}()
		parsed, err := dateparse.ParseIn(s, time.UTC)
		if err != nil {
			return time.Time{}, false
		}
		return parsed, true
	}
	return time.Time{}, false
}

func hasHexPrefix(s string) bool {
	s = strings.TrimLeft(s, "+-")
	return len(s) > 1 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X' || s[1] == 'b' || s[1] == 'B' || s[1] == 'o' || s[1] == 'O')
}

func asFloat(v interface{}) (float64, bool) {
	switch x := v.(type) {
	case int8:
		return float64(x), true
	case int16:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case int:
		return float64(x), true
	case float32:
		return float64(x), true
	case float64:
		return x, true
	}
	return 0, false
}
