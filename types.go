package peg

import (
	"fmt"
	"reflect"
)

// ResultType derives the type of the value e produces.
//
//	leaf                       Span
//	Seq                        Span if every expression is dropped; the kept
//	                           expression's type if there is exactly one;
//	                           struct{ F0 ...; Fn ... } with one field per kept
//	                           expression otherwise
//	Alt                        the type shared by every branch
//	IndexedSeq, IndexedAlt     struct with one field per routed index, or the shared
//	                           type if every route is Self
//	Repeat                     a slice of the expression's type
//	Optional, First            the type of the expression
//	rule                       the type given to Returns, else the type of its body
//
// A rule that refers to itself must declare its type with Returns.
func ResultType(e Expr) (reflect.Type, error) {
	d := &deriver{active: map[*ruleDef]bool{}, cache: map[*ruleDef]reflect.Type{}}
	return d.typeOf(e)
}

// New allocates a zero value of e's result type and returns a pointer to it, ready to be
// passed as a destination.
func New(e Expr) (any, error) {
	t, err := ResultType(e)
	if err != nil {
		return nil, err
	}
	return reflect.New(t).Interface(), nil
}

type deriver struct {
	active map[*ruleDef]bool
	cache  map[*ruleDef]reflect.Type
}

func (d *deriver) typeOf(e Expr) (reflect.Type, error) {
	switch e := e.(type) {
	case *char, *class, *literal, *dropped:
		return spanType, nil

	case *Ref:
		def := e.def()
		if def.typ != nil {
			return def.typ, nil
		}
		if t, ok := d.cache[def]; ok {
			return t, nil
		}
		if def.body == nil {
			return nil, fmt.Errorf("rule %q is not defined", def.name)
		}
		if d.active[def] {
			return nil, fmt.Errorf("rule %q is recursive, declare its result type with Returns", def.name)
		}
		d.active[def] = true
		t, err := d.typeOf(def.body)
		delete(d.active, def)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", def.name, err)
		}
		d.cache[def] = t
		return t, nil

	case *sequence:
		if e.indexed {
			return d.indexedType(e)
		}
		if e.choice {
			return d.choiceType(e)
		}
		return d.sequenceType(e)

	case *repeat:
		t, err := d.typeOf(e.expr)
		if err != nil {
			return nil, err
		}
		return reflect.SliceOf(t), nil

	case *optional:
		return d.typeOf(e.expr)

	case *first:
		return d.typeOf(e.expr)

	default:
		panic("unsupported")
	}
}

func (d *deriver) sequenceType(e *sequence) (reflect.Type, error) {
	fields := []reflect.Type{}
	for i, route := range e.routes {
		if route == Discard {
			continue
		}
		t, err := d.typeOf(e.exprs[i])
		if err != nil {
			return nil, err
		}
		if route == Self {
			return t, nil
		}
		fields = append(fields, t)
	}
	if len(fields) == 0 {
		return spanType, nil
	}
	return structOf(fields), nil
}

func (d *deriver) choiceType(e *sequence) (reflect.Type, error) {
	var common reflect.Type
	for i, route := range e.routes {
		if route == Discard {
			continue
		}
		t, err := d.typeOf(e.exprs[i])
		if err != nil {
			return nil, err
		}
		if common == nil {
			common = t
		} else if common != t {
			return nil, fmt.Errorf("branches of %s derive both %s and %s", e, common, t)
		}
	}
	if common == nil {
		return spanType, nil
	}
	return common, nil
}

func (d *deriver) indexedType(e *sequence) (reflect.Type, error) {
	var self reflect.Type
	fields := map[int]reflect.Type{}
	size := 0
	for i, route := range e.routes {
		if route == Discard || route == None {
			continue
		}
		t, err := d.typeOf(e.exprs[i])
		if err != nil {
			return nil, err
		}
		if route == Self {
			if self != nil && self != t {
				return nil, fmt.Errorf("expressions routed to self in %s derive both %s and %s", e, self, t)
			}
			self = t
			continue
		}
		index := int(route)
		if index >= size {
			size = index + 1
		}
		prev, ok := fields[index]
		if !ok {
			fields[index] = t
			continue
		}
		merged, ok := mergeField(prev, t)
		if !ok {
			return nil, fmt.Errorf("field %d of %s receives both %s and %s", index, e, prev, t)
		}
		fields[index] = merged
	}
	if self != nil {
		if size > 0 {
			return nil, fmt.Errorf("%s routes to both self and fields, declare its result type with Returns", e)
		}
		return self, nil
	}
	if size == 0 {
		return spanType, nil
	}
	out := make([]reflect.Type, size)
	for i := range out {
		t, ok := fields[i]
		if !ok {
			return nil, fmt.Errorf("no expression of %s is routed to field %d", e, i)
		}
		out[i] = t
	}
	return structOf(out), nil
}

// mergeField reconciles two expressions routed to the same field: First and Repeat of the
// same element agree on a list.
func mergeField(a, b reflect.Type) (reflect.Type, bool) {
	switch {
	case a == b:
		return a, true
	case a.Kind() == reflect.Slice && a.Elem() == b:
		return a, true
	case b.Kind() == reflect.Slice && b.Elem() == a:
		return b, true
	}
	return nil, false
}

func structOf(types []reflect.Type) reflect.Type {
	fields := make([]reflect.StructField, len(types))
	for i, t := range types {
		fields[i] = reflect.StructField{Name: fmt.Sprintf("F%d", i), Type: t}
	}
	return reflect.StructOf(fields)
}

// IsEmpty reports whether a captured value holds nothing.
//
// A Span is empty when it covers nothing, a pointer when it is nil, a list when all its
// elements are empty and a struct when all its fields are. This is how the branch that
// matched is found when the branches of a choice share storage.
func IsEmpty(v any) bool {
	return isEmpty(reflect.ValueOf(v))
}

func isEmpty(v reflect.Value) bool {
	if !v.IsValid() {
		return true
	}
	if v.Type() == spanType {
		return v.Interface().(Span).Empty()
	}
	switch v.Kind() {
	case reflect.Ptr, reflect.Interface:
		return v.IsNil()
	case reflect.Slice:
		for i := 0; i < v.Len(); i++ {
			if !isEmpty(v.Index(i)) {
				return false
			}
		}
		return true
	case reflect.Struct:
		for _, index := range fieldIndexes(v.Type()) {
			if !isEmpty(v.FieldByIndex(index)) {
				return false
			}
		}
		return true
	default:
		return v.IsZero()
	}
}
