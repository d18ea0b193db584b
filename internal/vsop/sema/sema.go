package sema

import "github.com/dekarrin/vsopc/internal/vsop/ast"

// Analyze runs the four passes over prog in order, aborting at the first
// semantic error. On success it returns a Result carrying every table
// produced along the way and the now fully type-annotated program (the same
// *ast.Program passed in -- P1 prepends the implicit Object class to it in
// place, and P4 annotates its expressions in place).
func Analyze(prog *ast.Program) (*Result, error) {
	classes, err := declare(prog)
	if err != nil {
		return nil, err
	}

	methods, fields, err := signatures(classes, prog.Classes)
	if err != nil {
		return nil, err
	}

	formalsTbl, resolvedRet, err := overridesAndFormals(classes, methods, prog.Classes)
	if err != nil {
		return nil, err
	}

	if err := typecheck(classes, methods, fields, formalsTbl, resolvedRet, prog); err != nil {
		return nil, err
	}

	return &Result{
		Program:     prog,
		Classes:     classes,
		Methods:     methods,
		Fields:      fields,
		Formals:     formalsTbl,
		ResolvedRet: resolvedRet,
	}, nil
}
