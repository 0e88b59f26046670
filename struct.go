package peg

import (
	"fmt"
	"reflect"
	"sync"
)

// Route selects the destination slot of a sub-expression relative to its parent's slot.
//
// Non-negative values are field indexes into a struct destination.
type Route int

const (
	// Discard matches for effect only.
	Discard Route = -1 - iota
	// Self routes the sub-expression into the parent's own slot.
	Self
	// None marks a slot the parent's type has no room for.
	None
)

// Field routes into field i of a struct destination.
func Field(i int) Route {
	if i < 0 {
		panic(fmt.Sprintf("peg: negative field index %d", i))
	}
	return Route(i)
}

func (r Route) String() string {
	switch r {
	case Discard:
		return "discard"
	case Self:
		return "self"
	case None:
		return "none"
	default:
		return fmt.Sprintf("field(%d)", int(r))
	}
}

// resolve the slot of this route within parent.
func (r Route) resolve(parent reflect.Value) reflect.Value {
	switch {
	case r == Self:
		return parent
	case r >= 0:
		return fieldOf(parent, int(r))
	default:
		return reflect.Value{}
	}
}

// fieldOf returns field i of a struct destination, or an invalid Value when the
// destination has no such slot.
func fieldOf(parent reflect.Value, i int) reflect.Value {
	if !parent.IsValid() || parent.Kind() != reflect.Struct || parent.Type() == spanType {
		return reflect.Value{}
	}
	indexes := fieldIndexes(parent.Type())
	if i >= len(indexes) {
		return reflect.Value{}
	}
	return parent.FieldByIndex(indexes[i])
}

// elemOf returns a fresh element slot for a list destination.
func elemOf(list reflect.Value) reflect.Value {
	if !list.IsValid() || list.Kind() != reflect.Slice {
		return reflect.Value{}
	}
	return reflect.New(list.Type().Elem()).Elem()
}

func setSpan(dest reflect.Value, span Span) {
	if dest.IsValid() && dest.Type() == spanType {
		dest.Set(reflect.ValueOf(span))
	}
}

var fieldIndexCache sync.Map // map[reflect.Type][][]int

// fieldIndexes returns the capture fields of a struct type: its exported fields in
// declaration order, with embedded structs flattened in place.
func fieldIndexes(t reflect.Type) [][]int {
	if cached, ok := fieldIndexCache.Load(t); ok {
		return cached.([][]int)
	}
	indexes := collectFieldIndexes(t)
	fieldIndexCache.Store(t, indexes)
	return indexes
}

// Recursively collect flattened indices for top-level fields and embedded fields.
func collectFieldIndexes(s reflect.Type) (out [][]int) {
	for i := 0; i < s.NumField(); i++ {
		f := s.Field(i)
		if f.Anonymous && f.Type.Kind() == reflect.Struct && f.Type != spanType {
			for _, idx := range collectFieldIndexes(f.Type) {
				out = append(out, append(append([]int{}, f.Index...), idx...))
			}
		} else if f.IsExported() {
			out = append(out, f.Index)
		}
	}
	return
}
