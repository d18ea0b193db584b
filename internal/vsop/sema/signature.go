package sema

import "github.com/dekarrin/vsopc/internal/vsop/ast"

// MainClassName is the name of the class that must declare a no-formal,
// int32-returning main method.
const MainClassName = "Main"

// MainMethodName is the name of the required entry-point method.
const MainMethodName = "main"

// signatures runs P2 over the classes recorded by P1, visited in the order
// the parser produced them (decls is prog.Classes, with Object already
// prepended by P1): each class's own methods and fields are recorded into
// MethodTable/FieldTable (rejecting duplicates within the class), each
// non-root class's parent name is checked for existence, and finally the
// presence of a Main class is required. Method bodies and field
// initializers are not inspected here.
func signatures(classes ClassTable, decls []*ast.Class) (MethodTable, FieldTable, error) {
	methods := make(MethodTable, len(classes))
	fields := make(FieldTable, len(classes))

	for _, cls := range decls {
		name := cls.Name
		entry := classes[name]
		if name != ObjectClassName {
			if _, ok := classes[entry.Parent]; !ok {
				return nil, nil, newErr(entry.Decl.Pos, UnknownParent, "class %s extends undefined class %s", name, entry.Parent)
			}
		}

		classMethods := make(map[string]string, len(entry.Decl.Methods))
		for _, m := range entry.Decl.Methods {
			if _, dup := classMethods[m.Name]; dup {
				return nil, nil, newErr(m.Pos, DuplicateMember, "method %s is already defined in class %s", m.Name, name)
			}
			classMethods[m.Name] = m.ReturnType
		}
		methods[name] = classMethods

		classFields := make(map[string]string, len(entry.Decl.Fields))
		for _, f := range entry.Decl.Fields {
			if _, dup := classFields[f.Name]; dup {
				return nil, nil, newErr(f.Pos, DuplicateMember, "field %s is already defined in class %s", f.Name, name)
			}
			classFields[f.Name] = f.Type
		}
		fields[name] = classFields
	}

	if _, ok := classes[MainClassName]; !ok {
		return nil, nil, newErr(ast.Pos{}, MainMissing, "Undefined Main class")
	}

	return methods, fields, nil
}
