package sema

import "github.com/dekarrin/vsopc/internal/vsop/ast"

// primitiveTypes maps the four primitive spellings to their StaticType, the
// small immutable table shared by P3 (type reference resolution) and P4
// (literal typing).
var primitiveTypes = map[string]ast.StaticType{
	"int32":  ast.TypeInt32,
	"bool":   ast.TypeBool,
	"string": ast.TypeString,
	"unit":   ast.TypeUnit,
}

// resolveTypeRef maps a declared-type spelling to a StaticType: a primitive
// name, the enclosing class (when spelling is empty, as produced by the
// parser for elided self-typing), or a defined class name. Any other
// spelling is an undefined-type error.
func resolveTypeRef(classes ClassTable, pos ast.Pos, spelling, enclosingClass string) (ast.StaticType, error) {
	if spelling == "" {
		spelling = enclosingClass
	}
	if t, ok := primitiveTypes[spelling]; ok {
		return t, nil
	}
	if _, ok := classes[spelling]; ok {
		return ast.ClassType(spelling), nil
	}
	return ast.StaticType{}, newErr(pos, UndefinedType, "undefined type %s", spelling)
}

// overridesAndFormals runs P3, visiting classes in the order the parser
// produced them (decls is prog.Classes, with Object already prepended by
// P1): for every method, it validates overriding against the nearest
// ancestor definition (if any), resolves its return type and formal types,
// and records its formals in order. For every field, it rejects ancestor
// shadowing. Finally it validates the Main.main contract.
func overridesAndFormals(classes ClassTable, methodsSrc MethodTable, decls []*ast.Class) (FormalTable, map[string]map[string]ast.StaticType, error) {
	formals := make(FormalTable, len(classes))
	resolvedRet := make(map[string]map[string]ast.StaticType, len(classes))

	for _, cls := range decls {
		name := cls.Name
		entry := classes[name]
		classFormals := make(map[string][]FormalEntry, len(entry.Decl.Methods))
		classRet := make(map[string]ast.StaticType, len(entry.Decl.Methods))

		for _, m := range entry.Decl.Methods {
			if err := checkOverride(classes, methodsSrc, name, m); err != nil {
				return nil, nil, err
			}

			retType, err := resolveTypeRef(classes, m.Pos, m.ReturnType, name)
			if err != nil {
				return nil, nil, err
			}
			classRet[m.Name] = retType

			seenFormals := make(map[string]bool, len(m.Formals))
			ordered := make([]FormalEntry, 0, len(m.Formals))
			for _, f := range m.Formals {
				if seenFormals[f.Name] {
					return nil, nil, newErr(f.Pos, DuplicateFormal, "formal %s is already defined in method %s", f.Name, m.Name)
				}
				seenFormals[f.Name] = true

				if _, err := resolveTypeRef(classes, f.Pos, f.Type, name); err != nil {
					return nil, nil, err
				}
				ordered = append(ordered, FormalEntry{Name: f.Name, Type: f.Type})
			}
			classFormals[m.Name] = ordered
		}
		formals[name] = classFormals
		resolvedRet[name] = classRet

		for _, f := range entry.Decl.Fields {
			if _, shadowed := findAncestorField(classes, name, f.Name); shadowed {
				return nil, nil, newErr(f.Pos, FieldShadow, "Field %s is already defined in an ancestor of class %s", f.Name, name)
			}
			if _, err := resolveTypeRef(classes, f.Pos, f.Type, name); err != nil {
				return nil, nil, err
			}
		}
	}

	if err := checkMainContract(classes, formals, resolvedRet); err != nil {
		return nil, nil, err
	}

	return formals, resolvedRet, nil
}

// findAncestorField reports whether any proper ancestor of cls declares a
// field named fieldName.
func findAncestorField(classes ClassTable, cls, fieldName string) (string, bool) {
	for _, ancestor := range classes.Ancestors(cls) {
		for _, f := range classes[ancestor].Decl.Fields {
			if f.Name == fieldName {
				return ancestor, true
			}
		}
	}
	return "", false
}

// checkOverride walks the strictly-proper ancestors of the class declaring
// m, and at the first ancestor defining a method of the same name, enforces
// (in priority order) identical return type, arity, per-index formal type,
// and per-index formal name.
func checkOverride(classes ClassTable, methods MethodTable, className string, m *ast.Method) error {
	for _, ancestor := range classes.Ancestors(className) {
		ancestorDecl := classes[ancestor].Decl
		for _, am := range ancestorDecl.Methods {
			if am.Name != m.Name {
				continue
			}

			if am.ReturnType != m.ReturnType {
				return newErr(m.Pos, OverrideReturnMismatch,
					"Overridden method %s in class %s has a different return type (expected %s, found %s)",
					m.Name, className, am.ReturnType, m.ReturnType)
			}
			if len(am.Formals) != len(m.Formals) {
				return newErr(m.Pos, OverrideArityMismatch,
					"Overridden method %s in class %s has a different number of formals (expected %d, found %d)",
					m.Name, className, len(am.Formals), len(m.Formals))
			}
			for i := range am.Formals {
				if am.Formals[i].Type != m.Formals[i].Type {
					return newErr(m.Pos, OverrideFormalTypeMismatch,
						"Overridden method %s in class %s has a different type for formal %d (expected %s, found %s)",
						m.Name, className, i+1, am.Formals[i].Type, m.Formals[i].Type)
				}
			}
			for i := range am.Formals {
				if am.Formals[i].Name != m.Formals[i].Name {
					return newErr(m.Pos, OverrideFormalNameMismatch,
						"Overridden method %s in class %s has a different name for formal %d (expected %s, found %s)",
						m.Name, className, i+1, am.Formals[i].Name, m.Formals[i].Name)
				}
			}

			// only the nearest overriding ancestor is checked against.
			return nil
		}
	}
	return nil
}

// checkMainContract requires that Main declares main() with no formals
// returning int32.
func checkMainContract(classes ClassTable, formals FormalTable, resolvedRet map[string]map[string]ast.StaticType) error {
	mainEntry, ok := classes[MainClassName]
	if !ok {
		return newErr(ast.Pos{}, MainMissing, "Undefined Main class")
	}

	mainFormals, hasMethod := formals[MainClassName][MainMethodName]
	if !hasMethod {
		return newErr(mainEntry.Decl.Pos, MainMissing, "Main class does not declare a main() method")
	}
	if len(mainFormals) != 0 {
		return newErr(mainEntry.Decl.Pos, MainIllTyped, "main() method of class Main must have no formals")
	}
	ret := resolvedRet[MainClassName][MainMethodName]
	if !ret.Equal(ast.TypeInt32) {
		return newErr(mainEntry.Decl.Pos, MainIllTyped, "main() method of class Main must return int32, found %s", ret.Name)
	}
	return nil
}
