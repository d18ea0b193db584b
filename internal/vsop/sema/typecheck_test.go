package sema

import (
	"testing"

	"github.com/dekarrin/vsopc/internal/vsop/ast"
	"github.com/stretchr/testify/assert"
)

// runTypecheck runs P1-P3 then P4 over the given classes and returns the
// P4 error (if any) along with the mutated program so callers can inspect
// the annotations written onto it.
func runTypecheck(t *testing.T, classes ...*ast.Class) (*ast.Program, error) {
	t.Helper()

	p := prog(classes...)
	classTbl, err := declare(p)
	if !assert.NoError(t, err, "P1 should not fail in a P4 test") {
		t.FailNow()
	}
	methods, fields, err := signatures(classTbl, p.Classes)
	if !assert.NoError(t, err, "P2 should not fail in a P4 test") {
		t.FailNow()
	}
	formalsTbl, resolvedRet, err := overridesAndFormals(classTbl, methods, p.Classes)
	if !assert.NoError(t, err, "P3 should not fail in a P4 test") {
		t.FailNow()
	}

	return p, typecheck(classTbl, methods, fields, formalsTbl, resolvedRet, p)
}

// mainWith wraps body expressions in a Main.main():int32 whose last
// statement is 0, so the body conforms regardless of what came before it.
func mainWith(body ...ast.Expr) *ast.Class {
	body = append(body, intLit(0))
	return cls("Main", "", nil, []*ast.Method{
		meth("main", nil, "int32", body...),
	})
}

func Test_Typecheck_Expressions(t *testing.T) {
	testCases := []struct {
		name      string
		classes   []*ast.Class
		expectErr bool
		errKind   Kind
	}{
		{
			name:    "literals",
			classes: []*ast.Class{mainWith(intLit(5), strLit("hi"), boolLit(true), unitLit())},
		},
		{
			name:    "arithmetic on int32",
			classes: []*ast.Class{mainWith(binop(ast.OpAdd, intLit(1), binop(ast.OpMul, intLit(2), intLit(3))))},
		},
		{
			name:      "arithmetic on bool rejected",
			classes:   []*ast.Class{mainWith(binop(ast.OpAdd, boolLit(true), intLit(1)))},
			expectErr: true,
			errKind:   TypeMismatch,
		},
		{
			name:    "comparison yields bool",
			classes: []*ast.Class{mainWith(binop(ast.OpLt, intLit(1), intLit(2)))},
		},
		{
			name:      "and on int32 rejected",
			classes:   []*ast.Class{mainWith(binop(ast.OpAnd, intLit(1), intLit(2)))},
			expectErr: true,
			errKind:   TypeMismatch,
		},
		{
			name:    "equality on same primitive kind",
			classes: []*ast.Class{mainWith(binop(ast.OpEq, strLit("a"), strLit("b")))},
		},
		{
			name: "equality on two unrelated class types is permitted",
			classes: []*ast.Class{
				cls("A", "", nil, nil),
				cls("B", "", nil, nil),
				mainWith(binop(ast.OpEq, newC("A"), newC("B"))),
			},
		},
		{
			name:      "equality between primitive and class rejected",
			classes:   []*ast.Class{mainWith(binop(ast.OpEq, intLit(1), newC("Object")))},
			expectErr: true,
			errKind:   TypeMismatch,
		},
		{
			name:      "equality between distinct primitive kinds rejected",
			classes:   []*ast.Class{mainWith(binop(ast.OpEq, intLit(1), boolLit(true)))},
			expectErr: true,
			errKind:   TypeMismatch,
		},
		{
			name:    "unary negation on int32",
			classes: []*ast.Class{mainWith(unop(ast.OpNeg, intLit(5)))},
		},
		{
			name:      "unary negation on string rejected",
			classes:   []*ast.Class{mainWith(unop(ast.OpNeg, strLit("x")))},
			expectErr: true,
			errKind:   TypeMismatch,
		},
		{
			name:    "not on bool",
			classes: []*ast.Class{mainWith(unop(ast.OpNot, boolLit(false)))},
		},
		{
			name:    "isnull on class type",
			classes: []*ast.Class{mainWith(unop(ast.OpIsnull, newC("Object")))},
		},
		{
			name:      "isnull on primitive rejected",
			classes:   []*ast.Class{mainWith(unop(ast.OpIsnull, intLit(0)))},
			expectErr: true,
			errKind:   TypeMismatch,
		},
		{
			name:    "new of defined class",
			classes: []*ast.Class{cls("A", "", nil, nil), mainWith(newC("A"))},
		},
		{
			name:      "new of undefined class rejected",
			classes:   []*ast.Class{mainWith(newC("Nope"))},
			expectErr: true,
			errKind:   UndefinedType,
		},
		{
			name:    "while with bool condition is unit",
			classes: []*ast.Class{mainWith(whileExpr(boolLit(true), intLit(1)))},
		},
		{
			name:      "while with int32 condition rejected",
			classes:   []*ast.Class{mainWith(whileExpr(intLit(1), unitLit()))},
			expectErr: true,
			errKind:   TypeMismatch,
		},
		{
			name:      "if with non-bool condition rejected",
			classes:   []*ast.Class{mainWith(ifExpr(intLit(1), intLit(2), nil))},
			expectErr: true,
			errKind:   TypeMismatch,
		},
		{
			name:    "if without else is unit",
			classes: []*ast.Class{mainWith(ifExpr(boolLit(true), intLit(1), nil))},
		},
		{
			name:      "if branches int32 vs string rejected",
			classes:   []*ast.Class{mainWith(ifExpr(boolLit(true), intLit(1), ptr(strLit("x"))))},
			expectErr: true,
			errKind:   TypeMismatch,
		},
		{
			name:      "if branch primitive vs class rejected",
			classes:   []*ast.Class{mainWith(ifExpr(boolLit(true), intLit(1), ptr(newC("Object"))))},
			expectErr: true,
			errKind:   TypeMismatch,
		},
		{
			name:    "let without initializer",
			classes: []*ast.Class{mainWith(letExpr("x", "int32", nil, varRef("x")))},
		},
		{
			name:    "let initializer conforms",
			classes: []*ast.Class{mainWith(letExpr("x", "int32", ptr(intLit(5)), varRef("x")))},
		},
		{
			name:      "let initializer non-conformance rejected",
			classes:   []*ast.Class{mainWith(letExpr("x", "int32", ptr(boolLit(true)), varRef("x")))},
			expectErr: true,
			errKind:   TypeMismatch,
		},
		{
			name: "let initializer of subclass conforms to superclass declaration",
			classes: []*ast.Class{
				cls("A", "", nil, nil),
				cls("B", "A", nil, nil),
				mainWith(letExpr("x", "A", ptr(newC("B")), unitLit())),
			},
		},
		{
			name: "nested lets shadow correctly",
			classes: []*ast.Class{
				mainWith(letExpr("x", "int32", ptr(intLit(1)),
					letExpr("x", "bool", ptr(boolLit(true)),
						unop(ast.OpNot, varRef("x"))))),
			},
		},
		{
			name: "assignment conforms",
			classes: []*ast.Class{
				mainWith(letExpr("x", "int32", nil, assign("x", intLit(9)))),
			},
		},
		{
			name: "assignment non-conformance rejected",
			classes: []*ast.Class{
				mainWith(letExpr("x", "int32", nil, assign("x", boolLit(true)))),
			},
			expectErr: true,
			errKind:   TypeMismatch,
		},
		{
			name:      "unbound variable rejected",
			classes:   []*ast.Class{mainWith(varRef("nope"))},
			expectErr: true,
			errKind:   UnboundVariable,
		},
		{
			name: "formal is visible in its method body",
			classes: []*ast.Class{
				cls("A", "", nil, []*ast.Method{
					meth("f", []*ast.Formal{frm("n", "int32")}, "int32", varRef("n")),
				}),
				minimalMain(),
			},
		},
		{
			name: "field is visible in method bodies including inherited ones",
			classes: []*ast.Class{
				cls("P", "", []*ast.Field{fld("count", "int32")}, nil),
				cls("C", "P", nil, []*ast.Method{
					meth("get", nil, "int32", varRef("count")),
				}),
				minimalMain(),
			},
		},
		{
			name: "self in method body has the enclosing class type",
			classes: []*ast.Class{
				cls("A", "", nil, []*ast.Method{
					meth("me", nil, "A", varRef("self")),
				}),
				minimalMain(),
			},
		},
		{
			name: "self forbidden in field initializer",
			classes: []*ast.Class{
				cls("A", "", []*ast.Field{
					fldInit("other", "A", varRef("self")),
				}, nil),
				minimalMain(),
			},
			expectErr: true,
			errKind:   SelfInFieldInit,
		},
		{
			name: "field forbidden in another field initializer",
			classes: []*ast.Class{
				cls("A", "", []*ast.Field{
					fld("x", "int32"),
					fldInit("y", "int32", varRef("x")),
				}, nil),
				minimalMain(),
			},
			expectErr: true,
			errKind:   FieldInFieldInit,
		},
		{
			name: "field initializer non-conformance rejected",
			classes: []*ast.Class{
				cls("A", "", []*ast.Field{
					fldInit("x", "int32", boolLit(true)),
				}, nil),
				minimalMain(),
			},
			expectErr: true,
			errKind:   TypeMismatch,
		},
		{
			name: "method body must conform to declared return type",
			classes: []*ast.Class{
				cls("A", "", nil, []*ast.Method{
					meth("f", nil, "int32", boolLit(true)),
				}),
				minimalMain(),
			},
			expectErr: true,
			errKind:   TypeMismatch,
		},
		{
			name: "method body of subclass type conforms to superclass return",
			classes: []*ast.Class{
				cls("A", "", nil, nil),
				cls("B", "A", nil, nil),
				cls("F", "", nil, []*ast.Method{
					meth("mk", nil, "A", newC("B")),
				}),
				minimalMain(),
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			_, err := runTypecheck(t, tc.classes...)
			if tc.expectErr {
				if assert.Error(err) {
					semErr, ok := err.(*Error)
					if assert.True(ok) {
						assert.Equal(tc.errKind, semErr.Kind)
					}
				}
				return
			}
			assert.NoError(err)
		})
	}
}

func Test_Typecheck_Dispatch(t *testing.T) {
	testCases := []struct {
		name      string
		classes   []*ast.Class
		expectErr bool
		errKind   Kind
	}{
		{
			name: "self dispatch",
			classes: []*ast.Class{
				cls("A", "", nil, []*ast.Method{
					meth("f", nil, "int32", intLit(1)),
					meth("g", nil, "int32", call(varRef("self"), "f")),
				}),
				minimalMain(),
			},
		},
		{
			name: "dispatch to inherited method",
			classes: []*ast.Class{
				cls("P", "", nil, []*ast.Method{
					meth("f", nil, "int32", intLit(1)),
				}),
				cls("C", "P", nil, nil),
				mainWith(call(newC("C"), "f")),
			},
		},
		{
			name:    "builtin Object method on any class",
			classes: []*ast.Class{mainWith(call(varRef("self"), "print", strLit("hi")))},
		},
		{
			name:      "unknown method rejected",
			classes:   []*ast.Class{mainWith(call(newC("Object"), "nope"))},
			expectErr: true,
			errKind:   CallResolution,
		},
		{
			name: "argument count mismatch rejected",
			classes: []*ast.Class{
				cls("A", "", nil, []*ast.Method{
					meth("f", []*ast.Formal{frm("n", "int32")}, "int32", varRef("n")),
				}),
				mainWith(call(newC("A"), "f")),
			},
			expectErr: true,
			errKind:   CallResolution,
		},
		{
			name: "argument type mismatch rejected",
			classes: []*ast.Class{
				cls("A", "", nil, []*ast.Method{
					meth("f", []*ast.Formal{frm("n", "int32")}, "int32", varRef("n")),
				}),
				mainWith(call(newC("A"), "f", boolLit(true))),
			},
			expectErr: true,
			errKind:   CallResolution,
		},
		{
			name: "argument of subclass type conforms",
			classes: []*ast.Class{
				cls("A", "", nil, nil),
				cls("B", "A", nil, nil),
				cls("F", "", nil, []*ast.Method{
					meth("take", []*ast.Formal{frm("a", "A")}, "unit", unitLit()),
				}),
				mainWith(call(newC("F"), "take", newC("B"))),
			},
		},
		{
			name:      "call on primitive receiver rejected",
			classes:   []*ast.Class{mainWith(call(intLit(1), "f"))},
			expectErr: true,
			errKind:   CallResolution,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			_, err := runTypecheck(t, tc.classes...)
			if tc.expectErr {
				if assert.Error(err) {
					semErr, ok := err.(*Error)
					if assert.True(ok) {
						assert.Equal(tc.errKind, semErr.Kind)
					}
				}
				return
			}
			assert.NoError(err)
		})
	}
}

func Test_Typecheck_IfJoin(t *testing.T) {
	testCases := []struct {
		name    string
		classes []*ast.Class
		// expected StaticType of the if expression, which the test arranges
		// to be the first statement of Main.main.
		expect ast.StaticType
	}{
		{
			name: "sibling classes join at their common ancestor",
			classes: []*ast.Class{
				cls("A", "", nil, nil),
				cls("B", "A", nil, nil),
				cls("C", "A", nil, nil),
				mainWith(ifExpr(boolLit(true), newC("B"), ptr(newC("C")))),
			},
			expect: ast.ClassType("A"),
		},
		{
			name: "unrelated classes join at Object",
			classes: []*ast.Class{
				cls("A", "", nil, nil),
				cls("B", "", nil, nil),
				mainWith(ifExpr(boolLit(true), newC("A"), ptr(newC("B")))),
			},
			expect: ast.ClassType("Object"),
		},
		{
			name: "identical class branches keep their type",
			classes: []*ast.Class{
				cls("A", "", nil, nil),
				mainWith(ifExpr(boolLit(true), newC("A"), ptr(newC("A")))),
			},
			expect: ast.ClassType("A"),
		},
		{
			name: "ancestor and descendant join at the ancestor",
			classes: []*ast.Class{
				cls("A", "", nil, nil),
				cls("B", "A", nil, nil),
				mainWith(ifExpr(boolLit(true), newC("A"), ptr(newC("B")))),
			},
			expect: ast.ClassType("A"),
		},
		{
			name: "unit branch makes the whole if unit",
			classes: []*ast.Class{
				mainWith(ifExpr(boolLit(true), intLit(1), ptr(unitLit()))),
			},
			expect: ast.TypeUnit,
		},
		{
			name: "same primitive branches keep their type",
			classes: []*ast.Class{
				mainWith(ifExpr(boolLit(true), intLit(1), ptr(intLit(2)))),
			},
			expect: ast.TypeInt32,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			p, err := runTypecheck(t, tc.classes...)
			if !assert.NoError(err) {
				return
			}

			// Main is the last class (Object was prepended); the if is the
			// first statement of its main method.
			mainCls := p.Classes[len(p.Classes)-1]
			got := mainCls.Methods[0].Body[0].StaticType
			assert.Equal(tc.expect, got)
		})
	}
}

func Test_Typecheck_AnnotatesEveryNode(t *testing.T) {
	assert := assert.New(t)

	p, err := runTypecheck(t,
		cls("A", "", []*ast.Field{fldInit("n", "int32", intLit(3))}, []*ast.Method{
			meth("f", []*ast.Formal{frm("x", "int32")}, "int32",
				letExpr("y", "int32", ptr(binop(ast.OpAdd, varRef("x"), intLit(1))),
					ifExpr(binop(ast.OpLt, varRef("y"), intLit(10)), varRef("y"), ptr(intLit(0))))),
		}),
		minimalMain(),
	)
	if !assert.NoError(err) {
		return
	}

	var walk func(e *ast.Expr)
	walk = func(e *ast.Expr) {
		assert.False(e.StaticType.IsZero(), "expression kind %v left unannotated", e.Kind)
		for i := range e.Block {
			walk(&e.Block[i])
		}
		for _, sub := range []*ast.Expr{e.Cond, e.Then, e.Else, e.LetInit, e.LetBody, e.AssignExpr, e.Left, e.Right, e.Operand, e.Receiver, e.Inner} {
			if sub != nil {
				walk(sub)
			}
		}
		for i := range e.Args {
			walk(&e.Args[i])
		}
	}

	for _, c := range p.Classes {
		if c.Name == ObjectClassName {
			continue
		}
		for _, f := range c.Fields {
			if f.Init != nil {
				walk(f.Init)
			}
		}
		for _, m := range c.Methods {
			for i := range m.Body {
				walk(&m.Body[i])
			}
		}
	}
}

func Test_Typecheck_Idempotent(t *testing.T) {
	assert := assert.New(t)

	p := prog(
		cls("A", "", nil, nil),
		cls("B", "A", nil, nil),
		mainWith(ifExpr(boolLit(true), newC("A"), ptr(newC("B")))),
	)
	classTbl, err := declare(p)
	if !assert.NoError(err) {
		return
	}
	methods, fields, err := signatures(classTbl, p.Classes)
	if !assert.NoError(err) {
		return
	}
	formalsTbl, resolvedRet, err := overridesAndFormals(classTbl, methods, p.Classes)
	if !assert.NoError(err) {
		return
	}

	if !assert.NoError(typecheck(classTbl, methods, fields, formalsTbl, resolvedRet, p)) {
		return
	}
	mainCls := p.Classes[len(p.Classes)-1]
	first := mainCls.Methods[0].Body[0].StaticType

	if !assert.NoError(typecheck(classTbl, methods, fields, formalsTbl, resolvedRet, p)) {
		return
	}
	assert.Equal(first, mainCls.Methods[0].Body[0].StaticType)
}

func ptr(e ast.Expr) *ast.Expr {
	return &e
}
