package upstream

import (
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// Priority is the ordered list of gjson paths a field may be found under.
// The first path holding a non-empty value wins.
type Priority []string

// String resolves the field as text. Numbers keep their raw form.
func (p Priority) String(r gjson.Result) string {
	for _, path := range p {
		if s := scalar(r.Get(path)); s != "" {
			return s
		}
	}
	return ""
}

// Strings resolves the field as a list. Arrays of scalars or of {"name": ...}
// objects are accepted, as are comma separated strings.
func (p Priority) Strings(r gjson.Result) []string {
	for _, path := range p {
		v := r.Get(path)
		var out []string

		switch {
		case v.IsArray():
			for _, item := range v.Array() {
				if item.IsObject() {
					item = item.Get("name")
				}
				if s := scalar(item); s != "" {
					out = append(out, s)
				}
			}
		case v.Type == gjson.String:
			for _, part := range strings.Split(v.Str, ",") {
				if s := strings.TrimSpace(part); s != "" {
					out = append(out, s)
				}
			}
		}

		if len(out) > 0 {
			return out
		}
	}
	return []string{}
}

// Int resolves the field as an integer. Numeric strings are parsed.
func (p Priority) Int(r gjson.Result) int {
	for _, path := range p {
		v := r.Get(path)
		switch v.Type {
		case gjson.Number:
			if n := int(v.Int()); n != 0 {
				return n
			}
		case gjson.String:
			if n, err := strconv.Atoi(strings.TrimSpace(v.Str)); err == nil && n != 0 {
				return n
			}
		}
	}
	return 0
}

// Array resolves the field as a list of raw records.
func (p Priority) Array(r gjson.Result) []gjson.Result {
	for _, path := range p {
		if v := r.Get(path); v.IsArray() && len(v.Array()) > 0 {
			return v.Array()
		}
	}
	return nil
}

// Value returns the first present value, whatever its type.
func (p Priority) Value(r gjson.Result) gjson.Result {
	for _, path := range p {
		if v := r.Get(path); v.Exists() && v.Type != gjson.Null {
			return v
		}
	}
	return gjson.Result{}
}

func scalar(v gjson.Result) string {
	switch v.Type {
	case gjson.String:
		return strings.TrimSpace(v.Str)
	case gjson.Number:
		return v.Raw
	default:
		return ""
	}
}

// records returns r itself when it is an array, otherwise its "data" array.
// The content API wraps some lists and returns others bare.
func records(r gjson.Result) []gjson.Result {
	if r.IsArray() {
		return r.Array()
	}
	if d := r.Get("data"); d.IsArray() {
		return d.Array()
	}
	return nil
}
