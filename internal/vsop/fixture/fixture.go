// Package fixture stands in for a full lexer/parser front end: it reads the
// bit-exact untyped pretty-printed form that internal/vsop/printer produces
// back into an *ast.Program, so the driver and the analyses API have
// something to hand
// sema.Analyze without a real VSOP grammar in front of them. It is
// deliberately small -- a hand-rolled scanner and recursive-descent reader,
// not the grammar-construction machinery a real front end would use -- and
// never attempts to recover from malformed input.
package fixture

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dekarrin/vsopc/internal/vsop/ast"
)

// Parse reads src (the output of printer.Print(prog, false)) into a fresh
// *ast.Program. filename is recorded on every node's Pos for diagnostics.
// Parse never reads a typed (": T") tree; the annotations are P4's job, not
// this reader's.
func Parse(filename, src string) (*ast.Program, error) {
	p := &parser{filename: filename, toks: lex(src)}
	prog, err := p.program()
	if err != nil {
		return nil, err
	}
	if !p.atEnd() {
		return nil, p.errorf("unexpected trailing input %q", p.peek().text)
	}
	return prog, nil
}

// ParseExpr reads a single expression (one of the forms the method-body
// exprList elements take) rather than a whole program, for the vsopc run
// subcommand's REPL: each typed snippet is one expression, evaluated in the
// context of a persistent scratch method body.
func ParseExpr(filename, src string) (ast.Expr, error) {
	p := &parser{filename: filename, toks: lex(src)}
	e, err := p.expr()
	if err != nil {
		return ast.Expr{}, err
	}
	if !p.atEnd() {
		return ast.Expr{}, p.errorf("unexpected trailing input %q", p.peek().text)
	}
	return e, nil
}

type tokKind int

const (
	tokIdent tokKind = iota
	tokInt
	tokString
	tokPunct
	tokEOF
)

type token struct {
	kind tokKind
	text string
	line int
	col  int
}

// lex tokenizes src. Identifiers are runs of letters/digits/underscore;
// punctuation is any of ( ) [ ] , :; int literals are runs of digits; string
// literals are double-quoted with no escape processing (field/var names and
// string contents in the fixture format never need one).
func lex(src string) []token {
	var toks []token
	line, col := 1, 1
	advance := func(from, to int) {
		for k := from; k < to && k < len(src); k++ {
			if src[k] == '\n' {
				line++
				col = 1
			} else {
				col++
			}
		}
	}

	i := 0
	for i < len(src) {
		c := src[i]
		switch {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			advance(i, i+1)
			i++
		case c == '(' || c == ')' || c == '[' || c == ']' || c == ',' || c == ':':
			toks = append(toks, token{kind: tokPunct, text: string(c), line: line, col: col})
			advance(i, i+1)
			i++
		case c == '"':
			j := i + 1
			for j < len(src) && src[j] != '"' {
				j++
			}
			toks = append(toks, token{kind: tokString, text: src[i+1 : j], line: line, col: col})
			advance(i, j+1)
			i = j + 1
		case c >= '0' && c <= '9':
			j := i
			for j < len(src) && src[j] >= '0' && src[j] <= '9' {
				j++
			}
			toks = append(toks, token{kind: tokInt, text: src[i:j], line: line, col: col})
			advance(i, j)
			i = j
		case isIdentStart(c):
			j := i
			for j < len(src) && isIdentPart(src[j]) {
				j++
			}
			toks = append(toks, token{kind: tokIdent, text: src[i:j], line: line, col: col})
			advance(i, j)
			i = j
		default:
			// unrecognized operator character (e.g. one of +-*/^<=) -- these
			// only ever occur as BinOp/UnOp operator spellings, which are
			// always written immediately after a '(' and read as idents by
			// operatorToken below, so collect the whole run.
			j := i
			for j < len(src) && isOperatorChar(src[j]) {
				j++
			}
			if j == i {
				j = i + 1
			}
			toks = append(toks, token{kind: tokIdent, text: src[i:j], line: line, col: col})
			advance(i, j)
			i = j
		}
	}
	toks = append(toks, token{kind: tokEOF, line: line, col: col})
	return toks
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

func isOperatorChar(c byte) bool {
	return strings.IndexByte("+-*/^<=", c) >= 0
}

type parser struct {
	filename string
	toks     []token
	pos      int
}

func (p *parser) errorf(format string, args ...interface{}) error {
	t := p.peek()
	return fmt.Errorf("%s:%d:%d: %s", p.filename, t.line, t.col, fmt.Sprintf(format, args...))
}

func (p *parser) pos2() ast.Pos {
	t := p.peek()
	return ast.Pos{Filename: p.filename, Line: t.line, Column: t.col}
}

func (p *parser) peek() token {
	return p.toks[p.pos]
}

func (p *parser) atEnd() bool {
	return p.peek().kind == tokEOF
}

func (p *parser) advance() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) expectPunct(s string) error {
	t := p.peek()
	if t.kind != tokPunct || t.text != s {
		return p.errorf("expected %q, found %q", s, t.text)
	}
	p.advance()
	return nil
}

func (p *parser) expectIdent() (string, error) {
	t := p.peek()
	if t.kind != tokIdent {
		return "", p.errorf("expected identifier, found %q", t.text)
	}
	p.advance()
	return t.text, nil
}

func (p *parser) program() (*ast.Program, error) {
	if err := p.expectPunct("["); err != nil {
		return nil, err
	}
	prog := &ast.Program{}
	for {
		if p.peek().kind == tokPunct && p.peek().text == "]" {
			p.advance()
			break
		}
		if len(prog.Classes) > 0 {
			if err := p.expectPunct(","); err != nil {
				return nil, err
			}
		}
		cls, err := p.class()
		if err != nil {
			return nil, err
		}
		prog.Classes = append(prog.Classes, cls)
	}
	return prog, nil
}

func (p *parser) class() (*ast.Class, error) {
	pos := p.pos2()
	if _, err := p.keyword("Class"); err != nil {
		return nil, err
	}
	if err := p.expectPunct("("); err != nil {
		return nil, err
	}
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	if err := p.expectPunct(","); err != nil {
		return nil, err
	}
	parent, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	if err := p.expectPunct(","); err != nil {
		return nil, err
	}
	fields, err := p.fieldList()
	if err != nil {
		return nil, err
	}
	if err := p.expectPunct(","); err != nil {
		return nil, err
	}
	methods, err := p.methodList()
	if err != nil {
		return nil, err
	}
	if err := p.expectPunct(")"); err != nil {
		return nil, err
	}

	if parent == "Object" && name != "Object" {
		parent = "" // let P1 re-fill the default, matching what the parser would hand it for an unspecified parent
	}
	return &ast.Class{Pos: pos, Name: name, Parent: parent, Fields: fields, Methods: methods}, nil
}

// keyword consumes an identifier token that must equal want.
func (p *parser) keyword(want string) (string, error) {
	t := p.peek()
	if t.kind != tokIdent || t.text != want {
		return "", p.errorf("expected %q, found %q", want, t.text)
	}
	p.advance()
	return t.text, nil
}

func (p *parser) fieldList() ([]*ast.Field, error) {
	if err := p.expectPunct("["); err != nil {
		return nil, err
	}
	var fields []*ast.Field
	for {
		if p.peek().kind == tokPunct && p.peek().text == "]" {
			p.advance()
			break
		}
		if len(fields) > 0 {
			if err := p.expectPunct(","); err != nil {
				return nil, err
			}
		}
		f, err := p.field()
		if err != nil {
			return nil, err
		}
		fields = append(fields, f)
	}
	return fields, nil
}

func (p *parser) field() (*ast.Field, error) {
	pos := p.pos2()
	if _, err := p.keyword("Field"); err != nil {
		return nil, err
	}
	if err := p.expectPunct("("); err != nil {
		return nil, err
	}
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	if err := p.expectPunct(","); err != nil {
		return nil, err
	}
	typ, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	var init ast.Expr
	var hasInit bool
	if p.peek().kind == tokPunct && p.peek().text == "," {
		p.advance()
		init, err = p.expr()
		if err != nil {
			return nil, err
		}
		hasInit = true
	}
	if err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	f := &ast.Field{Pos: pos, Name: name, Type: typ}
	if hasInit {
		f.Init = &init
	}
	return f, nil
}

func (p *parser) methodList() ([]*ast.Method, error) {
	if err := p.expectPunct("["); err != nil {
		return nil, err
	}
	var methods []*ast.Method
	for {
		if p.peek().kind == tokPunct && p.peek().text == "]" {
			p.advance()
			break
		}
		if len(methods) > 0 {
			if err := p.expectPunct(","); err != nil {
				return nil, err
			}
		}
		m, err := p.method()
		if err != nil {
			return nil, err
		}
		methods = append(methods, m)
	}
	return methods, nil
}

func (p *parser) method() (*ast.Method, error) {
	pos := p.pos2()
	if _, err := p.keyword("Method"); err != nil {
		return nil, err
	}
	if err := p.expectPunct("("); err != nil {
		return nil, err
	}
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	if err := p.expectPunct(","); err != nil {
		return nil, err
	}
	formals, err := p.formalList()
	if err != nil {
		return nil, err
	}
	if err := p.expectPunct(","); err != nil {
		return nil, err
	}
	retType, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	if err := p.expectPunct(","); err != nil {
		return nil, err
	}
	body, err := p.exprList()
	if err != nil {
		return nil, err
	}
	if err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	return &ast.Method{Pos: pos, Name: name, Formals: formals, ReturnType: retType, Body: body}, nil
}

func (p *parser) formalList() ([]*ast.Formal, error) {
	if err := p.expectPunct("["); err != nil {
		return nil, err
	}
	var formals []*ast.Formal
	for {
		if p.peek().kind == tokPunct && p.peek().text == "]" {
			p.advance()
			break
		}
		if len(formals) > 0 {
			if err := p.expectPunct(","); err != nil {
				return nil, err
			}
		}
		pos := p.pos2()
		name, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		if err := p.expectPunct(":"); err != nil {
			return nil, err
		}
		typ, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		formals = append(formals, &ast.Formal{Pos: pos, Name: name, Type: typ})
	}
	return formals, nil
}

func (p *parser) exprList() ([]ast.Expr, error) {
	if err := p.expectPunct("["); err != nil {
		return nil, err
	}
	var exprs []ast.Expr
	for {
		if p.peek().kind == tokPunct && p.peek().text == "]" {
			p.advance()
			break
		}
		if len(exprs) > 0 {
			if err := p.expectPunct(","); err != nil {
				return nil, err
			}
		}
		e, err := p.expr()
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, e)
	}
	return exprs, nil
}

var binOps = map[string]ast.BinOp{
	"and": ast.OpAnd, "=": ast.OpEq, "<": ast.OpLt, "<=": ast.OpLe,
	"+": ast.OpAdd, "-": ast.OpSub, "*": ast.OpMul, "/": ast.OpDiv, "^": ast.OpPow,
}

var unOps = map[string]ast.UnOp{
	"-": ast.OpNeg, "not": ast.OpNot, "isnull": ast.OpIsnull,
}

// expr reads one expression node. Dispatch is by the leading token: a
// recognized constructor keyword followed by '(', or else a literal/var ref.
func (p *parser) expr() (ast.Expr, error) {
	pos := p.pos2()
	t := p.peek()

	if t.kind == tokPunct && t.text == "[" {
		block, err := p.exprList()
		if err != nil {
			return ast.Expr{}, err
		}
		return ast.Expr{Pos: pos, Kind: ast.ExprBlock, Block: block}, nil
	}

	if t.kind == tokPunct && t.text == "(" {
		p.advance()
		if p.peek().kind == tokPunct && p.peek().text == ")" {
			p.advance()
			return ast.Expr{Pos: pos, Kind: ast.ExprUnit}, nil
		}
		inner, err := p.expr()
		if err != nil {
			return ast.Expr{}, err
		}
		if err := p.expectPunct(")"); err != nil {
			return ast.Expr{}, err
		}
		return ast.Expr{Pos: pos, Kind: ast.ExprParen, Inner: &inner}, nil
	}

	if t.kind == tokInt {
		p.advance()
		n, err := strconv.Atoi(t.text)
		if err != nil {
			return ast.Expr{}, p.errorf("invalid integer literal %q", t.text)
		}
		return ast.Expr{Pos: pos, Kind: ast.ExprInt, IntValue: int32(n)}, nil
	}
	if t.kind == tokString {
		p.advance()
		return ast.Expr{Pos: pos, Kind: ast.ExprString, StringValue: t.text}, nil
	}

	if t.kind != tokIdent {
		return ast.Expr{}, p.errorf("unexpected token %q in expression", t.text)
	}

	switch t.text {
	case "true", "false":
		p.advance()
		return ast.Expr{Pos: pos, Kind: ast.ExprBool, BoolValue: t.text == "true"}, nil

	case "If":
		p.advance()
		if err := p.expectPunct("("); err != nil {
			return ast.Expr{}, err
		}
		cond, err := p.expr()
		if err != nil {
			return ast.Expr{}, err
		}
		if err := p.expectPunct(","); err != nil {
			return ast.Expr{}, err
		}
		then, err := p.expr()
		if err != nil {
			return ast.Expr{}, err
		}
		e := ast.Expr{Pos: pos, Kind: ast.ExprIf, Cond: &cond, Then: &then}
		if p.peek().kind == tokPunct && p.peek().text == "," {
			p.advance()
			els, err := p.expr()
			if err != nil {
				return ast.Expr{}, err
			}
			e.Else = &els
		}
		if err := p.expectPunct(")"); err != nil {
			return ast.Expr{}, err
		}
		return e, nil

	case "While":
		p.advance()
		if err := p.expectPunct("("); err != nil {
			return ast.Expr{}, err
		}
		cond, err := p.expr()
		if err != nil {
			return ast.Expr{}, err
		}
		if err := p.expectPunct(","); err != nil {
			return ast.Expr{}, err
		}
		body, err := p.expr()
		if err != nil {
			return ast.Expr{}, err
		}
		if err := p.expectPunct(")"); err != nil {
			return ast.Expr{}, err
		}
		return ast.Expr{Pos: pos, Kind: ast.ExprWhile, Cond: &cond, Then: &body}, nil

	case "Let":
		p.advance()
		if err := p.expectPunct("("); err != nil {
			return ast.Expr{}, err
		}
		name, err := p.expectIdent()
		if err != nil {
			return ast.Expr{}, err
		}
		if err := p.expectPunct(","); err != nil {
			return ast.Expr{}, err
		}
		typ, err := p.expectIdent()
		if err != nil {
			return ast.Expr{}, err
		}
		if err := p.expectPunct(","); err != nil {
			return ast.Expr{}, err
		}
		// either init, scope OR scope alone; disambiguate by trying init
		// then checking for the mandatory scope comma.
		first, err := p.expr()
		if err != nil {
			return ast.Expr{}, err
		}
		e := ast.Expr{Pos: pos, Kind: ast.ExprLet, LetName: name, LetType: typ}
		if p.peek().kind == tokPunct && p.peek().text == "," {
			p.advance()
			scope, err := p.expr()
			if err != nil {
				return ast.Expr{}, err
			}
			e.LetInit = &first
			e.LetBody = &scope
		} else {
			e.LetBody = &first
		}
		if err := p.expectPunct(")"); err != nil {
			return ast.Expr{}, err
		}
		return e, nil

	case "Assign":
		p.advance()
		if err := p.expectPunct("("); err != nil {
			return ast.Expr{}, err
		}
		name, err := p.expectIdent()
		if err != nil {
			return ast.Expr{}, err
		}
		if err := p.expectPunct(","); err != nil {
			return ast.Expr{}, err
		}
		rhs, err := p.expr()
		if err != nil {
			return ast.Expr{}, err
		}
		if err := p.expectPunct(")"); err != nil {
			return ast.Expr{}, err
		}
		return ast.Expr{Pos: pos, Kind: ast.ExprAssign, AssignName: name, AssignExpr: &rhs}, nil

	case "BinOp":
		p.advance()
		if err := p.expectPunct("("); err != nil {
			return ast.Expr{}, err
		}
		opTok, err := p.operatorToken()
		if err != nil {
			return ast.Expr{}, err
		}
		op, ok := binOps[opTok]
		if !ok {
			return ast.Expr{}, p.errorf("unknown binary operator %q", opTok)
		}
		if err := p.expectPunct(","); err != nil {
			return ast.Expr{}, err
		}
		left, err := p.expr()
		if err != nil {
			return ast.Expr{}, err
		}
		if err := p.expectPunct(","); err != nil {
			return ast.Expr{}, err
		}
		right, err := p.expr()
		if err != nil {
			return ast.Expr{}, err
		}
		if err := p.expectPunct(")"); err != nil {
			return ast.Expr{}, err
		}
		return ast.Expr{Pos: pos, Kind: ast.ExprBinary, BinOp: op, Left: &left, Right: &right}, nil

	case "UnOp":
		p.advance()
		if err := p.expectPunct("("); err != nil {
			return ast.Expr{}, err
		}
		opTok, err := p.operatorToken()
		if err != nil {
			return ast.Expr{}, err
		}
		op, ok := unOps[opTok]
		if !ok {
			return ast.Expr{}, p.errorf("unknown unary operator %q", opTok)
		}
		if err := p.expectPunct(","); err != nil {
			return ast.Expr{}, err
		}
		operand, err := p.expr()
		if err != nil {
			return ast.Expr{}, err
		}
		if err := p.expectPunct(")"); err != nil {
			return ast.Expr{}, err
		}
		return ast.Expr{Pos: pos, Kind: ast.ExprUnary, UnOp: op, Operand: &operand}, nil

	case "New":
		p.advance()
		if err := p.expectPunct("("); err != nil {
			return ast.Expr{}, err
		}
		name, err := p.expectIdent()
		if err != nil {
			return ast.Expr{}, err
		}
		if err := p.expectPunct(")"); err != nil {
			return ast.Expr{}, err
		}
		return ast.Expr{Pos: pos, Kind: ast.ExprNew, NewClass: name}, nil

	case "Call":
		p.advance()
		if err := p.expectPunct("("); err != nil {
			return ast.Expr{}, err
		}
		recv, err := p.expr()
		if err != nil {
			return ast.Expr{}, err
		}
		if err := p.expectPunct(","); err != nil {
			return ast.Expr{}, err
		}
		name, err := p.expectIdent()
		if err != nil {
			return ast.Expr{}, err
		}
		if err := p.expectPunct(","); err != nil {
			return ast.Expr{}, err
		}
		args, err := p.exprList()
		if err != nil {
			return ast.Expr{}, err
		}
		if err := p.expectPunct(")"); err != nil {
			return ast.Expr{}, err
		}
		return ast.Expr{Pos: pos, Kind: ast.ExprCall, Receiver: &recv, MethodName: name, Args: args}, nil

	default:
		// bare identifier: a variable reference (includes "self").
		p.advance()
		return ast.Expr{Pos: pos, Kind: ast.ExprVar, VarName: t.text}, nil
	}
}

// operatorToken consumes the next token as an operator spelling. Operators
// made only of symbol characters come through the lexer as a single ident
// token (see isOperatorChar); "and", "not", "isnull" come through as
// ordinary keyword-shaped idents.
func (p *parser) operatorToken() (string, error) {
	t := p.peek()
	if t.kind != tokIdent {
		return "", p.errorf("expected operator, found %q", t.text)
	}
	p.advance()
	return t.text, nil
}
