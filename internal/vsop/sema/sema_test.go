package sema

import (
	"github.com/dekarrin/vsopc/internal/vsop/ast"
)

// Test fixtures are built by hand since parsing is out of scope for this
// package; these helpers keep the table-driven test cases below readable.

func cls(name, parent string, fields []*ast.Field, methods []*ast.Method) *ast.Class {
	return &ast.Class{Name: name, Parent: parent, Fields: fields, Methods: methods}
}

func fld(name, typ string) *ast.Field {
	return &ast.Field{Name: name, Type: typ}
}

func fldInit(name, typ string, init ast.Expr) *ast.Field {
	return &ast.Field{Name: name, Type: typ, Init: &init}
}

func frm(name, typ string) *ast.Formal {
	return &ast.Formal{Name: name, Type: typ}
}

func meth(name string, formals []*ast.Formal, ret string, body ...ast.Expr) *ast.Method {
	return &ast.Method{Name: name, Formals: formals, ReturnType: ret, Body: body}
}

func intLit(v int32) ast.Expr     { return ast.Expr{Kind: ast.ExprInt, IntValue: v} }
func strLit(v string) ast.Expr    { return ast.Expr{Kind: ast.ExprString, StringValue: v} }
func boolLit(v bool) ast.Expr     { return ast.Expr{Kind: ast.ExprBool, BoolValue: v} }
func unitLit() ast.Expr           { return ast.Expr{Kind: ast.ExprUnit} }
func varRef(name string) ast.Expr { return ast.Expr{Kind: ast.ExprVar, VarName: name} }
func newC(name string) ast.Expr   { return ast.Expr{Kind: ast.ExprNew, NewClass: name} }

func binop(op ast.BinOp, l, r ast.Expr) ast.Expr {
	return ast.Expr{Kind: ast.ExprBinary, BinOp: op, Left: &l, Right: &r}
}

func unop(op ast.UnOp, v ast.Expr) ast.Expr {
	return ast.Expr{Kind: ast.ExprUnary, UnOp: op, Operand: &v}
}

func ifExpr(cond, then ast.Expr, els *ast.Expr) ast.Expr {
	return ast.Expr{Kind: ast.ExprIf, Cond: &cond, Then: &then, Else: els}
}

func whileExpr(cond, body ast.Expr) ast.Expr {
	return ast.Expr{Kind: ast.ExprWhile, Cond: &cond, Then: &body}
}

func letExpr(name, typ string, init *ast.Expr, body ast.Expr) ast.Expr {
	return ast.Expr{Kind: ast.ExprLet, LetName: name, LetType: typ, LetInit: init, LetBody: &body}
}

func assign(name string, v ast.Expr) ast.Expr {
	return ast.Expr{Kind: ast.ExprAssign, AssignName: name, AssignExpr: &v}
}

func block(es ...ast.Expr) ast.Expr {
	return ast.Expr{Kind: ast.ExprBlock, Block: es}
}

func call(recv ast.Expr, method string, args ...ast.Expr) ast.Expr {
	return ast.Expr{Kind: ast.ExprCall, Receiver: &recv, MethodName: method, Args: args}
}

func paren(v ast.Expr) ast.Expr {
	return ast.Expr{Kind: ast.ExprParen, Inner: &v}
}

// prog builds an *ast.Program from the given classes, in source order
// (Analyze will prepend Object).
func prog(classes ...*ast.Class) *ast.Program {
	return &ast.Program{Classes: classes}
}

// minimalMain returns a Main class whose main() just returns 0.
func minimalMain() *ast.Class {
	return cls("Main", "", nil, []*ast.Method{
		meth("main", nil, "int32", intLit(0)),
	})
}
