// Package selector implements the searchable single-item picker used by the
// console: an in-memory filter over caller-chosen fields, a debounced query,
// and open/selected state.
package selector

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
)

// Identifiable is implemented by anything a Selector can pick.
type Identifiable interface {
	Identifier() string
}

// Field extracts one searchable value from a candidate.
type Field[T any] struct {
	Name  string
	value func(T) string
}

// Value returns the field's searchable text for item.
func (f Field[T]) Value(item T) string {
	if f.value == nil {
		return ""
	}
	return f.value(item)
}

// Text matches a string field.
func Text[T any](name string, get func(T) string) Field[T] {
	return Field[T]{Name: name, value: get}
}

// number covers the numeric kinds a Number field accepts.
type number interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

// Number matches a numeric field by its decimal string.
func Number[T any, N number](name string, get func(T) N) Field[T] {
	return Field[T]{Name: name, value: func(item T) string {
		return formatNumber(get(item))
	}}
}

// Stringer matches any value that renders itself, e.g. decimal amounts.
func Stringer[T any, S fmt.Stringer](name string, get func(T) S) Field[T] {
	return Field[T]{Name: name, value: func(item T) string {
		return get(item).String()
	}}
}

func formatNumber[N number](n N) string {
	switch v := any(n).(type) {
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

// Filter returns the candidates whose fields contain query, ignoring case,
// in their original order. A blank query returns every candidate. With no
// fields configured a non-blank query matches nothing.
// candidates is never modified.
func Filter[T any](candidates []T, query string, fields []Field[T]) []T {
	query = strings.TrimSpace(query)
	if query == "" {
		return append([]T(nil), candidates...)
	}
	if len(fields) == 0 {
		return nil
	}

	fold := cases.Fold()
	needle := fold.String(query)

	var out []T
	for _, c := range candidates {
		if matches(fold, c, needle, fields) {
			out = append(out, c)
		}
	}
	return out
}

func matches[T any](fold cases.Caser, item T, needle string, fields []Field[T]) bool {
	for _, f := range fields {
		if strings.Contains(fold.String(f.Value(item)), needle) {
			return true
		}
	}
	return false
}
