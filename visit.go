package peg

type visitorFunc func(e Expr, next func() error) error

// visit e and every expression reachable from it, entering each rule body once.
func visit(e Expr, visitor visitorFunc) error {
	return _visit(map[*ruleDef]bool{}, e, visitor)
}

func _visit(seen map[*ruleDef]bool, e Expr, visitor visitorFunc) error {
	return visitor(e, func() error {
		switch e := e.(type) {
		case *Ref:
			def := e.def()
			if seen[def] || def.body == nil {
				return nil
			}
			seen[def] = true
			return _visit(seen, def.body, visitor)

		case *sequence:
			for _, c := range e.exprs {
				if err := _visit(seen, c, visitor); err != nil {
					return err
				}
			}

		case *repeat:
			return _visit(seen, e.expr, visitor)

		case *optional:
			return _visit(seen, e.expr, visitor)

		case *first:
			return _visit(seen, e.expr, visitor)

		case *dropped:
			return _visit(seen, e.expr, visitor)

		case *char, *class, *literal:

		default:
			panic("unsupported")
		}
		return nil
	})
}

// reachable returns the rules referenced from e, in order of discovery.
func reachable(e Expr) []*Ref {
	out := []*Ref{}
	seen := map[*ruleDef]bool{}
	_ = visit(e, func(e Expr, next func() error) error {
		if ref, ok := e.(*Ref); ok && !seen[ref.def()] {
			seen[ref.def()] = true
			out = append(out, ref)
		}
		return next()
	})
	return out
}
