package printer

import (
	"testing"

	"github.com/dekarrin/vsopc/internal/vsop/ast"
	"github.com/stretchr/testify/assert"
)

func TestPrint_MinimalProgram(t *testing.T) {
	// class Main { main() : int32 { 0 } }
	zero := ast.Expr{Kind: ast.ExprInt, IntValue: 0, StaticType: ast.TypeInt32}

	prog := &ast.Program{
		Classes: []*ast.Class{
			{
				Name:   "Main",
				Parent: "Object",
				Methods: []*ast.Method{
					{Name: "main", ReturnType: "int32", Body: []ast.Expr{zero}},
				},
			},
		},
	}

	assert.Equal(t,
		"[Class(Main, Object, [], [Method(main, [], int32, [0 : int32] : int32)])]",
		Print(prog, true),
	)
}

func TestPrint_Untyped(t *testing.T) {
	zero := ast.Expr{Kind: ast.ExprInt, IntValue: 0}

	prog := &ast.Program{
		Classes: []*ast.Class{
			{
				Name:   "Main",
				Parent: "Object",
				Methods: []*ast.Method{
					{Name: "main", ReturnType: "int32", Body: []ast.Expr{zero}},
				},
			},
		},
	}

	assert.Equal(t,
		"[Class(Main, Object, [], [Method(main, [], int32, [0])])]",
		Print(prog, false),
	)
}

func TestPrint_IfLCA(t *testing.T) {
	// if true then new B else new C ; 0, annotated with LCA type A on the if
	ifExpr := ast.Expr{
		Kind:       ast.ExprIf,
		StaticType: ast.ClassType("A"),
		Cond:       &ast.Expr{Kind: ast.ExprBool, BoolValue: true, StaticType: ast.TypeBool},
		Then:       &ast.Expr{Kind: ast.ExprNew, NewClass: "B", StaticType: ast.ClassType("B")},
		Else:       &ast.Expr{Kind: ast.ExprNew, NewClass: "C", StaticType: ast.ClassType("C")},
	}
	zero := ast.Expr{Kind: ast.ExprInt, IntValue: 0, StaticType: ast.TypeInt32}

	prog := &ast.Program{
		Classes: []*ast.Class{
			{Name: "A", Parent: "Object"},
			{Name: "B", Parent: "A"},
			{Name: "C", Parent: "A"},
			{
				Name:   "Main",
				Parent: "Object",
				Methods: []*ast.Method{
					{Name: "main", ReturnType: "int32", Body: []ast.Expr{ifExpr, zero}},
				},
			},
		},
	}

	out := Print(prog, true)
	assert.Contains(t, out, "If(true : bool, New(B) : B, New(C) : C) : A")
}

func TestPrint_FieldWithInit(t *testing.T) {
	prog := &ast.Program{
		Classes: []*ast.Class{
			{
				Name:   "Foo",
				Parent: "Object",
				Fields: []*ast.Field{
					{Name: "x", Type: "int32", Init: &ast.Expr{Kind: ast.ExprInt, IntValue: 5, StaticType: ast.TypeInt32}},
				},
			},
		},
	}

	assert.Equal(t,
		"[Class(Foo, Object, [Field(x, int32, 5 : int32)], [])]",
		Print(prog, true),
	)
}

func TestPrint_EmptyBlockIsUnit(t *testing.T) {
	prog := &ast.Program{
		Classes: []*ast.Class{
			{
				Name: "Main", Parent: "Object",
				Methods: []*ast.Method{
					{Name: "main", ReturnType: "unit", Body: nil},
				},
			},
		},
	}

	assert.Equal(t,
		"[Class(Main, Object, [], [Method(main, [], unit, [] : unit)])]",
		Print(prog, true),
	)
}

func TestPrint_ParenForwardsInnerRendering(t *testing.T) {
	inner := &ast.Expr{Kind: ast.ExprInt, IntValue: 1, StaticType: ast.TypeInt32}
	paren := ast.Expr{Kind: ast.ExprParen, Inner: inner}

	prog := &ast.Program{
		Classes: []*ast.Class{
			{
				Name: "Main", Parent: "Object",
				Methods: []*ast.Method{
					{Name: "main", ReturnType: "int32", Body: []ast.Expr{paren}},
				},
			},
		},
	}

	assert.Equal(t,
		"[Class(Main, Object, [], [Method(main, [], int32, [1 : int32] : int32)])]",
		Print(prog, true),
	)
}
