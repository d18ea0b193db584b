// Package printer renders a vsop.ast.Program back to the bit-exact textual
// form specified for the -p (untyped) and -c (typed) driver modes: every
// method, field, and expression is followed by ": <typename>" once typing
// has run, and every list is emitted in source order regardless of mode.
package printer

import (
	"strconv"
	"strings"

	"github.com/dekarrin/rosed"
	"github.com/dekarrin/vsopc/internal/vsop/ast"
)

// Print renders prog in the bit-exact format of the driver's -p/-c modes.
// When typed is true, every expression and method body is followed by its
// inferred ": typename" annotation; when false (the -p, pre-analysis mode)
// no annotations are emitted, whether or not the tree happens to carry them.
func Print(prog *ast.Program, typed bool) string {
	var sb strings.Builder
	sb.WriteByte('[')
	first := true
	for _, c := range prog.Classes {
		// The implicit Object root prepended by the declaration pass is not
		// part of the source program and is never rendered.
		if c.Name == "Object" {
			continue
		}
		if !first {
			sb.WriteByte(',')
		}
		first = false
		writeClass(&sb, c, typed)
	}
	sb.WriteByte(']')
	return sb.String()
}

// PrintWide is like Print but reflows any single rendered line that exceeds
// width columns using github.com/dekarrin/rosed. It never changes the
// bit-exact contract of Print; it is strictly a convenience view for
// `vsopc --pretty-wide`; Print's output re-parsed from PrintWide's output
// (after undoing the inserted line breaks) is unchanged.
func PrintWide(prog *ast.Program, typed bool, width int) string {
	flat := Print(prog, typed)
	return rosed.Edit(flat).Wrap(width).String()
}

// PrintExpr renders a single expression the same way Print renders one
// inside a method body, for callers (the run REPL) that only ever have one
// expression in hand rather than a whole program.
func PrintExpr(e *ast.Expr, typed bool) string {
	var sb strings.Builder
	writeExpr(&sb, e, typed)
	return sb.String()
}

func writeClass(sb *strings.Builder, c *ast.Class, typed bool) {
	parent := c.Parent
	if parent == "" {
		parent = "Object"
	}

	sb.WriteString("Class(")
	sb.WriteString(c.Name)
	sb.WriteString(", ")
	sb.WriteString(parent)
	sb.WriteString(", [")
	for i, f := range c.Fields {
		if i > 0 {
			sb.WriteString(",")
		}
		writeField(sb, f, typed)
	}
	sb.WriteString("], [")
	for i, m := range c.Methods {
		if i > 0 {
			sb.WriteString(",")
		}
		writeMethod(sb, m, typed)
	}
	sb.WriteString("])")
}

func writeField(sb *strings.Builder, f *ast.Field, typed bool) {
	sb.WriteString("Field(")
	sb.WriteString(f.Name)
	sb.WriteString(", ")
	sb.WriteString(f.Type)
	if f.Init != nil {
		sb.WriteString(", ")
		writeExpr(sb, f.Init, typed)
	}
	sb.WriteByte(')')
}

func writeMethod(sb *strings.Builder, m *ast.Method, typed bool) {
	sb.WriteString("Method(")
	sb.WriteString(m.Name)
	sb.WriteString(", [")
	for i, f := range m.Formals {
		if i > 0 {
			sb.WriteString(",")
		}
		sb.WriteString(f.Name)
		sb.WriteString(" : ")
		sb.WriteString(f.Type)
	}
	sb.WriteString("], ")
	sb.WriteString(m.ReturnType)
	sb.WriteString(", [")
	for i := range m.Body {
		if i > 0 {
			sb.WriteString(",")
		}
		writeExpr(sb, &m.Body[i], typed)
	}
	sb.WriteByte(']')
	if typed {
		writeBlockAnnotation(sb, m.Body)
	}
	sb.WriteByte(')')
}

// writeBlockAnnotation writes the ": T" suffix for a block (a method body or
// an ExprBlock), which is typed as the last statement's type, or unit if
// empty.
func writeBlockAnnotation(sb *strings.Builder, block []ast.Expr) {
	sb.WriteString(" : ")
	if len(block) == 0 {
		sb.WriteString(ast.TypeUnit.String())
		return
	}
	sb.WriteString(block[len(block)-1].StaticType.String())
}

func writeExpr(sb *strings.Builder, e *ast.Expr, typed bool) {
	switch e.Kind {
	case ast.ExprBlock:
		sb.WriteByte('[')
		for i := range e.Block {
			if i > 0 {
				sb.WriteString(",")
			}
			writeExpr(sb, &e.Block[i], typed)
		}
		sb.WriteByte(']')
		if typed {
			writeBlockAnnotation(sb, e.Block)
		}
		return

	case ast.ExprIf:
		sb.WriteString("If(")
		writeExpr(sb, e.Cond, typed)
		sb.WriteString(", ")
		writeExpr(sb, e.Then, typed)
		if e.Else != nil {
			sb.WriteString(", ")
			writeExpr(sb, e.Else, typed)
		}
		sb.WriteByte(')')

	case ast.ExprWhile:
		sb.WriteString("While(")
		writeExpr(sb, e.Cond, typed)
		sb.WriteString(", ")
		writeExpr(sb, e.Then, typed)
		sb.WriteByte(')')

	case ast.ExprLet:
		sb.WriteString("Let(")
		sb.WriteString(e.LetName)
		sb.WriteString(", ")
		sb.WriteString(e.LetType)
		if e.LetInit != nil {
			sb.WriteString(", ")
			writeExpr(sb, e.LetInit, typed)
		}
		sb.WriteString(", ")
		writeExpr(sb, e.LetBody, typed)
		sb.WriteByte(')')

	case ast.ExprAssign:
		sb.WriteString("Assign(")
		sb.WriteString(e.AssignName)
		sb.WriteString(", ")
		writeExpr(sb, e.AssignExpr, typed)
		sb.WriteByte(')')

	case ast.ExprBinary:
		sb.WriteString("BinOp(")
		sb.WriteString(e.BinOp.String())
		sb.WriteString(", ")
		writeExpr(sb, e.Left, typed)
		sb.WriteString(", ")
		writeExpr(sb, e.Right, typed)
		sb.WriteByte(')')

	case ast.ExprUnary:
		sb.WriteString("UnOp(")
		sb.WriteString(e.UnOp.String())
		sb.WriteString(", ")
		writeExpr(sb, e.Operand, typed)
		sb.WriteByte(')')

	case ast.ExprNew:
		sb.WriteString("New(")
		sb.WriteString(e.NewClass)
		sb.WriteByte(')')

	case ast.ExprVar:
		sb.WriteString(e.VarName)

	case ast.ExprCall:
		sb.WriteString("Call(")
		writeExpr(sb, e.Receiver, typed)
		sb.WriteString(", ")
		sb.WriteString(e.MethodName)
		sb.WriteString(", [")
		for i := range e.Args {
			if i > 0 {
				sb.WriteString(",")
			}
			writeExpr(sb, &e.Args[i], typed)
		}
		sb.WriteString("])")

	case ast.ExprUnit:
		sb.WriteString("()")

	case ast.ExprInt:
		sb.WriteString(strconv.Itoa(int(e.IntValue)))

	case ast.ExprString:
		sb.WriteByte('"')
		sb.WriteString(e.StringValue)
		sb.WriteByte('"')

	case ast.ExprBool:
		if e.BoolValue {
			sb.WriteString("true")
		} else {
			sb.WriteString("false")
		}

	case ast.ExprParen:
		// Parenthesized expressions forward their inner rendering.
		writeExpr(sb, e.Inner, typed)
		return

	default:
		panic("unreachable: unknown ExprKind")
	}

	if typed {
		sb.WriteString(" : ")
		sb.WriteString(e.StaticType.String())
	}
}
