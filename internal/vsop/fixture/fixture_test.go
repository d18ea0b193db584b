package fixture

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dekarrin/vsopc/internal/vsop/ast"
	"github.com/dekarrin/vsopc/internal/vsop/printer"
)

func Test_Parse(t *testing.T) {
	testCases := []struct {
		name      string
		input     string
		expectErr bool
	}{
		{
			name:  "minimal program",
			input: "[Class(Main, Object, [], [Method(main, [], int32, [0])])]",
		},
		{
			name:  "empty program",
			input: "[]",
		},
		{
			name:  "class with fields and formals",
			input: "[Class(A, Object, [Field(x, int32),Field(y, string, \"hi\")], [Method(f, [a : int32,b : bool], unit, [()])])]",
		},
		{
			name:  "every expression form",
			input: `[Class(Main, Object, [], [Method(main, [], int32, [If(true, 1, 2),While(false, ()),Let(x, int32, 5, x),Assign(y, 3),BinOp(+, 1, 2),BinOp(<=, 1, 2),UnOp(-, 1),UnOp(isnull, New(Main)),Call(self, print, ["s"]),(1),[1,2],0])])]`,
		},
		{
			name:      "unbalanced brackets",
			input:     "[Class(Main, Object, [], [Method(main, [], int32, [0])]",
			expectErr: true,
		},
		{
			name:      "trailing garbage",
			input:     "[] extra",
			expectErr: true,
		},
		{
			name:      "unknown constructor arity",
			input:     "[Class(Main)]",
			expectErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			prog, err := Parse("test.vsop", tc.input)
			if tc.expectErr {
				assert.Error(err)
				return
			}
			if !assert.NoError(err) {
				return
			}
			assert.NotNil(prog)
		})
	}
}

// Parsing the printer's untyped rendering must reproduce it exactly.
func Test_Parse_RoundTripsPrinterOutput(t *testing.T) {
	testCases := []string{
		"[Class(Main, Object, [], [Method(main, [], int32, [0])])]",
		"[Class(A, Object, [Field(n, int32, 3)], [Method(get, [], int32, [n])]),Class(Main, Object, [], [Method(main, [], int32, [Call(New(A), get, []),0])])]",
		"[Class(Main, Object, [], [Method(main, [], int32, [Let(x, int32, Let(y, int32, 1, y), x)])])]",
		"[Class(Main, Object, [], [Method(main, [], unit, [])])]",
	}

	for _, src := range testCases {
		t.Run(src, func(t *testing.T) {
			assert := assert.New(t)

			prog, err := Parse("test.vsop", src)
			if !assert.NoError(err) {
				return
			}
			assert.Equal(src, printer.Print(prog, false))
		})
	}
}

func Test_Parse_ExplicitObjectParentIsUnset(t *testing.T) {
	assert := assert.New(t)

	prog, err := Parse("test.vsop", "[Class(Foo, Object, [], [])]")
	if !assert.NoError(err) {
		return
	}
	// "Object" in the rendered form is the default; the analyzer re-fills it
	// the same way it would for a source file that named no parent at all.
	assert.Equal("", prog.Classes[0].Parent)
}

func Test_Parse_PositionsRecorded(t *testing.T) {
	assert := assert.New(t)

	prog, err := Parse("test.vsop", "[Class(Main, Object, [], [\n  Method(main, [], int32, [0])])]")
	if !assert.NoError(err) {
		return
	}

	m := prog.Classes[0].Methods[0]
	assert.Equal("test.vsop", m.Pos.Filename)
	assert.Equal(2, m.Pos.Line)
	assert.Equal(3, m.Pos.Column)
}

func Test_ParseExpr(t *testing.T) {
	assert := assert.New(t)

	e, err := ParseExpr("repl", "BinOp(+, 1, 2)")
	if !assert.NoError(err) {
		return
	}
	assert.Equal(ast.ExprBinary, e.Kind)
	assert.Equal(ast.OpAdd, e.BinOp)

	_, err = ParseExpr("repl", "1 2")
	assert.Error(err)
}
