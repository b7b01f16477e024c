package fmf

import (
	"strconv"
	"strings"
	"unicode"
)

// record gives lenient access to fields of a record-like node.
type record struct {
	node *Node
}

// lookup returns first present value among accepted spellings. For every
// spelling attribute form is tried before child element form, camelCase form
// follows snake_case one.
func (r record) lookup(names ...string) (*Node, bool) {
	if !r.node.IsMapping() {
		return nil, false
	}
	for _, name := range names {
		for _, key := range spellings(name) {
			if v, ok := r.value(AttrPrefix + key); ok {
				return v, true
			}
			if v, ok := r.value(key); ok {
				return v, true
			}
		}
	}
	return nil, false
}

func (r record) value(key string) (*Node, bool) {
	nodes, ok := r.node.Get(key)
	if !ok {
		return nil, false
	}
	// repeated field - first occurrence wins
	v := nodes[0]
	if v.Kind() == KindNumber || len(strings.TrimSpace(v.Text())) > 0 {
		return v, true
	}
	return nil, false
}

// text returns trimmed text of the first present value or def.
func (r record) text(def string, names ...string) string {
	if v, ok := r.lookup(names...); ok {
		return strings.TrimSpace(v.Text())
	}
	return def
}

// optional returns nil when none of the spellings is present.
func (r record) optional(names ...string) *string {
	if v, ok := r.lookup(names...); ok {
		s := strings.TrimSpace(v.Text())
		return &s
	}
	return nil
}

// integer converts first present value, def is used when nothing is present
// or the value is not a number.
func (r record) integer(def int64, names ...string) int64 {
	v, ok := r.lookup(names...)
	if !ok {
		return def
	}
	if n, ok := v.Int(); ok {
		return n
	}
	if n, ok := leadingInt(v.Text()); ok {
		return n
	}
	return def
}

// leadingInt parses optional sign and leading decimal digits, ignoring
// whatever follows them ("120", " -5 ", "12.5", "80k").
func leadingInt(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0, false
	}
	n, err := strconv.ParseInt(s[:end], 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// spellings returns snake_case name followed by its camelCase form when
// they differ.
func spellings(name string) []string {
	camel := camelCase(name)
	if camel == name {
		return []string{name}
	}
	return []string{name, camel}
}

func camelCase(name string) string {
	if !strings.Contains(name, "_") {
		return name
	}
	var b strings.Builder
	upper := false
	for _, r := range name {
		switch {
		case r == '_':
			upper = b.Len() > 0
		case upper:
			b.WriteRune(unicode.ToUpper(r))
			upper = false
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
