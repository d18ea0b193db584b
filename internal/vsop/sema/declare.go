package sema

import "github.com/dekarrin/vsopc/internal/vsop/ast"

// objectMethods is the fixed set of built-in methods contributed by the
// implicit Object root class, synthesized with empty bodies: they are never
// type-checked by P4 (there is nothing to check), only recorded into the
// signature tables so that calls to them resolve like any other method.
func objectMethods() []*ast.Method {
	mk := func(name, retType string, formals ...*ast.Formal) *ast.Method {
		return &ast.Method{Name: name, Formals: formals, ReturnType: retType}
	}
	frm := func(name, typ string) *ast.Formal {
		return &ast.Formal{Name: name, Type: typ}
	}
	return []*ast.Method{
		mk("print", ObjectClassName, frm("s", "string")),
		mk("printBool", ObjectClassName, frm("b", "bool")),
		mk("printInt32", ObjectClassName, frm("i", "int32")),
		mk("inputLine", "string"),
		mk("inputBool", "bool"),
		mk("inputInt32", "int32"),
	}
}

// declare runs P1 over prog, synthesizing the Object root class, building
// ClassTable, and rejecting duplicate classes, a parent declared on Object,
// and inheritance cycles. It returns the ClassTable with Object already
// inserted at the head of prog.Classes (prog is mutated to keep the pass's
// prepend visible to later passes and to the pretty printer).
func declare(prog *ast.Program) (ClassTable, error) {
	// A tree that has already been through this pass (re-analysis of a
	// stored program) leads with the synthesized root; prepending a second
	// one would turn idempotent re-analysis into a duplicate-class error.
	if len(prog.Classes) == 0 || prog.Classes[0].Name != ObjectClassName || prog.Classes[0].Parent != "" {
		root := &ast.Class{
			Name:    ObjectClassName,
			Parent:  "",
			Methods: objectMethods(),
		}
		prog.Classes = append([]*ast.Class{root}, prog.Classes...)
	}

	classes := make(ClassTable, len(prog.Classes))

	for _, cls := range prog.Classes {
		if cls.Name == ObjectClassName && cls.Parent != "" {
			return nil, newErr(cls.Pos, RootWithParent, "class Object may not declare a parent")
		}

		if _, exists := classes[cls.Name]; exists {
			return nil, newErr(cls.Pos, DuplicateClass, "class %s is already defined", cls.Name)
		}

		parent := cls.Parent
		if cls.Name != ObjectClassName && parent == "" {
			parent = ObjectClassName
		}

		classes[cls.Name] = ClassEntry{Decl: cls, Parent: parent}
	}

	if err := detectInheritanceCycles(prog, classes); err != nil {
		return nil, err
	}

	return classes, nil
}

// detectInheritanceCycles performs a depth-first walk of each class's parent
// chain, maintaining the set of names on the current path. Reaching a name
// already on the path signals a cycle. Because P1 has already guaranteed
// every class's parent is present in the ClassTable, the parent-of relation
// forms a forest of chains rooted at Object once this check passes, so a
// single linear walk per class (rather than a general SCC algorithm) is
// enough.
func detectInheritanceCycles(prog *ast.Program, classes ClassTable) error {
	for _, cls := range prog.Classes {
		onPath := map[string]bool{cls.Name: true}
		cur := cls.Name
		for {
			entry, ok := classes[cur]
			if !ok {
				// Parent names an undefined class; P2 reports that as
				// UnknownParent. There is no cycle to report here.
				break
			}
			if entry.Parent == "" {
				break // reached Object
			}
			if onPath[entry.Parent] {
				return newErr(cls.Pos, InheritanceCycle, "Cycle detected in class inheritance: class %s", cls.Name)
			}
			onPath[entry.Parent] = true
			cur = entry.Parent
		}
	}
	return nil
}
