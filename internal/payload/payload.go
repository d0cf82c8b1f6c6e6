// Package payload wraps decoded JSON in a loosely validated tree. Site
// payloads drift without notice, so fields are looked up by path and every
// lookup yields an optional value instead of failing the whole decode.
package payload

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/samber/mo"
)

// Node is one value of a decoded payload: a map, a list, a string,
// a json.Number, a bool, nil, or missing.
type Node struct {
	v       any
	present bool
}

// Parse decodes data into a Node. Numbers keep their textual form.
func Parse(data []byte) (Node, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return Node{}, fmt.Errorf("decoding payload: %w", err)
	}
	return Node{v: v, present: true}, nil
}

// Wrap returns a Node for an already decoded value.
func Wrap(v any) Node {
	return Node{v: v, present: true}
}

// Get walks path from n. String elements index maps, int elements index lists.
// A missing step yields a missing Node rather than an error.
func (n Node) Get(path ...any) Node {
	cur := n
	for _, step := range path {
		if !cur.present {
			return Node{}
		}
		switch key := step.(type) {
		case string:
			m, ok := cur.v.(map[string]any)
			if !ok {
				return Node{}
			}
			v, ok := m[key]
			if !ok {
				return Node{}
			}
			cur = Node{v: v, present: true}
		case int:
			l, ok := cur.v.([]any)
			if !ok || key < 0 || key >= len(l) {
				return Node{}
			}
			cur = Node{v: l[key], present: true}
		default:
			return Node{}
		}
	}
	return cur
}

// Exists reports whether the node was found and is not JSON null.
func (n Node) Exists() bool {
	return n.present && n.v != nil
}

// Raw returns the underlying decoded value.
func (n Node) Raw() any { return n.v }

// IsMap reports whether the node is a JSON object.
func (n Node) IsMap() bool {
	_, ok := n.v.(map[string]any)
	return n.present && ok
}

// List returns the elements of a JSON array, or nothing.
func (n Node) List() mo.Option[[]Node] {
	l, ok := n.v.([]any)
	if !n.present || !ok {
		return mo.None[[]Node]()
	}
	out := make([]Node, len(l))
	for i, v := range l {
		out[i] = Node{v: v, present: true}
	}
	return mo.Some(out)
}

// Str returns a non-empty string value. Numbers are rendered in their
// JSON form.
func (n Node) Str() mo.Option[string] {
	if !n.present {
		return mo.None[string]()
	}
	switch v := n.v.(type) {
	case string:
		if v == "" {
			return mo.None[string]()
		}
		return mo.Some(v)
	case json.Number:
		return mo.Some(v.String())
	}
	return mo.None[string]()
}

// Float returns the node as a float when it is a number or a numeric string.
func (n Node) Float() mo.Option[float64] {
	s, ok := n.numberText()
	if !ok {
		return mo.None[float64]()
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return mo.None[float64]()
	}
	return mo.Some(f)
}

// Int returns the node as an integer when it is an integral number or a
// string holding one. Fractional numbers are truncated.
func (n Node) Int() mo.Option[int64] {
	s, ok := n.numberText()
	if !ok {
		return mo.None[int64]()
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return mo.Some(i)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(f) > math.MaxInt64 {
		return mo.None[int64]()
	}
	return mo.Some(int64(f))
}

func (n Node) numberText() (string, bool) {
	if !n.present {
		return "", false
	}
	switch v := n.v.(type) {
	case json.Number:
		return v.String(), true
	case string:
		s := strings.TrimSpace(v)
		return s, s != ""
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	}
	return "", false
}
