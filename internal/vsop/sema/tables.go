// Package sema implements the four-pass semantic analyzer: Declaration (P1),
// Signatures (P2), Overrides & Formals (P3), and Typing (P4). Each pass reads
// only the tables produced by earlier passes and builds its own; P4 alone
// mutates the tree, writing a StaticType onto every ast.Expr it visits.
//
// The analyzer is synchronous and aborts on the first semantic error, per
// the single-compilation-unit, no-recovery design of the language it
// type-checks.
package sema

import "github.com/dekarrin/vsopc/internal/vsop/ast"

// ObjectClassName is the name of the implicit root class synthesized by P1.
const ObjectClassName = "Object"

// ClassEntry is one entry of the ClassTable: a borrowed pointer to the
// class's declaration plus its resolved parent name (never empty after P1
// has run, except for Object itself).
type ClassEntry struct {
	Decl   *ast.Class
	Parent string
}

// ClassTable maps a class name to its declaration and parent.
type ClassTable map[string]ClassEntry

// MethodTable maps class name -> method name -> declared return type
// spelling, as written in source (not yet resolved to a StaticType; that
// happens in P3).
type MethodTable map[string]map[string]string

// FieldTable maps class name -> field name -> declared type spelling.
type FieldTable map[string]map[string]string

// FormalEntry is one formal parameter recorded in the FormalTable.
type FormalEntry struct {
	Name string
	Type string
}

// FormalTable maps class name -> method name -> ordered formal parameters.
type FormalTable map[string]map[string][]FormalEntry

// Result carries the accumulated tables and the (for a successful P4 run)
// fully type-annotated program. It is the output of Analyze.
type Result struct {
	Program     *ast.Program
	Classes     ClassTable
	Methods     MethodTable
	Fields      FieldTable
	Formals     FormalTable
	ResolvedRet map[string]map[string]ast.StaticType // class -> method -> resolved return type
}

// Ancestors returns the chain of proper ancestors of class name, starting
// with its immediate parent and ending with Object (inclusive). It assumes
// the ClassTable has already passed cycle detection.
func (ct ClassTable) Ancestors(name string) []string {
	var chain []string
	cur := name
	for {
		entry, ok := ct[cur]
		if !ok || entry.Parent == "" {
			break
		}
		chain = append(chain, entry.Parent)
		cur = entry.Parent
	}
	return chain
}

// ChainFromSelf returns name followed by all of its proper ancestors, ending
// at Object.
func (ct ClassTable) ChainFromSelf(name string) []string {
	return append([]string{name}, ct.Ancestors(name)...)
}

// IsAncestor reports whether ancestor is Object, name itself, or appears
// among name's proper ancestors -- i.e. whether ancestor occurs on name's
// chain up to and including Object (the conformance relation for class
// types).
func (ct ClassTable) IsAncestor(name, ancestor string) bool {
	if name == ancestor {
		return true
	}
	for _, a := range ct.Ancestors(name) {
		if a == ancestor {
			return true
		}
	}
	return false
}

// LCA computes the least common ancestor of two classes: walk a's chain
// (self + ancestors) into a set, then walk b's chain returning the first
// name present in that set. Falls back to Object, which is always present
// on every chain once P1 has succeeded.
func (ct ClassTable) LCA(a, b string) string {
	aChain := ct.ChainFromSelf(a)
	seen := make(map[string]bool, len(aChain))
	for _, name := range aChain {
		seen[name] = true
	}
	for _, name := range ct.ChainFromSelf(b) {
		if seen[name] {
			return name
		}
	}
	return ObjectClassName
}

// LookupMethod walks start and its ancestors (in that order) looking for a
// method with the given name, returning the class that defines it.
func (ct ClassTable) LookupMethod(methods MethodTable, start, name string) (definingClass string, ok bool) {
	for _, cls := range ct.ChainFromSelf(start) {
		if m, has := methods[cls]; has {
			if _, has2 := m[name]; has2 {
				return cls, true
			}
		}
	}
	return "", false
}

// LookupField walks start and its ancestors looking for a field with the
// given name, returning the class that defines it.
func (ct ClassTable) LookupField(fields FieldTable, start, name string) (definingClass string, ok bool) {
	for _, cls := range ct.ChainFromSelf(start) {
		if f, has := fields[cls]; has {
			if _, has2 := f[name]; has2 {
				return cls, true
			}
		}
	}
	return "", false
}
