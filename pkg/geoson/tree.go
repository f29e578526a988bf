package geoson

import (
	"math"
	"strconv"
	"unicode/utf8"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
)

var indentOptions = &pretty.Options{Width: 80, Prefix: "", Indent: "  ", SortKeys: false}

// parseTree validates raw text and returns its root value. Text that is not
// valid UTF-8 is rejected so string values survive a write unchanged.
func parseTree(data []byte) (gjson.Result, error) {
	if !utf8.Valid(data) || !gjson.ValidBytes(data) {
		return gjson.Result{}, formatErrorf("cannot parse JSON text")
	}
	return gjson.ParseBytes(data), nil
}

// canonical returns the string form of a property value. Strings are kept
// as-is, everything else becomes compact JSON text: integers keep their
// digits, other numbers use the shortest float form, so "1.50" and "1.5" both
// read as "1.5".
func canonical(v gjson.Result) string {
	switch v.Type {
	case gjson.String:
		return v.Str
	case gjson.Number:
		if i, err := strconv.ParseInt(v.Raw, 10, 64); err == nil {
			return strconv.FormatInt(i, 10)
		}
		if b, ok := appendNumber(nil, v.Num); ok {
			return string(b)
		}
		return v.Raw
	case gjson.True:
		return "true"
	case gjson.False:
		return "false"
	case gjson.Null:
		return "null"
	}
	return string(pretty.Ugly([]byte(v.Raw)))
}

// appendNumber appends f the way encoding/json formats float64 values.
// ok is false for NaN and infinities, which JSON cannot carry.
func appendNumber(dst []byte, f float64) (b []byte, ok bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return dst, false
	}

	abs := math.Abs(f)
	format := byte('f')
	if abs != 0 && (abs < 1e-6 || abs >= 1e21) {
		format = 'e'
	}
	dst = strconv.AppendFloat(dst, f, format, -1, 64)
	if format == 'e' {
		// e-09 -> e-9
		n := len(dst)
		if n >= 4 && dst[n-4] == 'e' && dst[n-3] == '-' && dst[n-2] == '0' {
			dst[n-2] = dst[n-1]
			dst = dst[:n-1]
		}
	}
	return dst, true
}

// member is one key of an object being written, with its encoded value.
type member struct {
	key string
	raw []byte
}

// appendObject writes members in order as a JSON object.
func appendObject(dst []byte, members []member) []byte {
	dst = append(dst, '{')
	for i, m := range members {
		if i > 0 {
			dst = append(dst, ',')
		}
		dst = gjson.AppendJSONString(dst, m.key)
		dst = append(dst, ':')
		dst = append(dst, m.raw...)
	}
	return append(dst, '}')
}

func jsonString(s string) []byte {
	return gjson.AppendJSONString(nil, s)
}
