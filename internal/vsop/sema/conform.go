package sema

import "github.com/dekarrin/vsopc/internal/vsop/ast"

// conforms reports whether s conforms to t: identical primitive kind, or s a
// class whose ancestor chain (up to and including Object) contains t's
// class. Primitive/class pairs never conform.
func conforms(classes ClassTable, s, t ast.StaticType) bool {
	if s.Kind != ast.CLASS && t.Kind != ast.CLASS {
		return s.Kind == t.Kind
	}
	if s.Kind == ast.CLASS && t.Kind == ast.CLASS {
		return classes.IsAncestor(s.Name, t.Name)
	}
	return false
}
