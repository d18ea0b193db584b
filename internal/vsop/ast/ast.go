// Package ast holds the data model that semantic analysis consumes and
// annotates: a program is an ordered list of classes, each with an ordered
// list of fields and methods, whose bodies are expression trees built from a
// small closed set of node kinds.
//
// Nodes in this package are assumed to have already been produced by a
// parser; ast itself does no lexing or parsing. The zero value of Program is
// not meaningful for analysis; build one by populating Classes directly.
package ast

import "strconv"

// Pos is the source position of a node, populated by the (out-of-scope)
// parser and carried through for diagnostics.
type Pos struct {
	Filename string
	Line     int
	Column   int
}

func (p Pos) String() string {
	return p.Filename + ":" + strconv.Itoa(p.Line) + ":" + strconv.Itoa(p.Column)
}

// Program is a parsed compilation unit: an ordered list of classes in
// source order. The Declaration pass prepends the implicit Object class.
type Program struct {
	Classes []*Class
}

// Class is a single class declaration.
type Class struct {
	Pos    Pos
	Name   string
	Parent string // empty if left unspecified by the source; P1 fills it to "Object"
	Fields  []*Field
	Methods []*Method
}

// Field is a field declaration, optionally with an initializer.
type Field struct {
	Pos  Pos
	Name string
	Type string // declared type spelling, as written in source
	Init *Expr  // nil if no initializer
}

// Formal is a single formal parameter of a method.
type Formal struct {
	Pos  Pos
	Name string
	Type string
}

// Method is a method declaration: a name, ordered formals, a declared return
// type, and a body (represented as an ordered list of expressions, the way
// a block's statement list is represented -- the method body is itself
// implicitly a block).
type Method struct {
	Pos        Pos
	Name       string
	Formals    []*Formal
	ReturnType string
	Body       []Expr
}
