package sema

import (
	"testing"

	"github.com/dekarrin/vsopc/internal/vsop/ast"
	"github.com/stretchr/testify/assert"
)

func analyzeClasses(classes ...*ast.Class) (*Result, error) {
	return Analyze(prog(classes...))
}

func Test_OverridesAndFormals(t *testing.T) {
	testCases := []struct {
		name      string
		classes   []*ast.Class
		expectErr bool
		errKind   Kind
	}{
		{
			name: "valid override same signature",
			classes: []*ast.Class{
				cls("P", "", nil, []*ast.Method{
					meth("f", []*ast.Formal{frm("x", "int32")}, "int32", varRef("x")),
				}),
				cls("C", "P", nil, []*ast.Method{
					meth("f", []*ast.Formal{frm("x", "int32")}, "int32", varRef("x")),
				}),
				minimalMain(),
			},
		},
		{
			name: "override return type mismatch",
			classes: []*ast.Class{
				cls("P", "", nil, []*ast.Method{
					meth("f", nil, "int32", intLit(0)),
				}),
				cls("C", "P", nil, []*ast.Method{
					meth("f", nil, "bool", boolLit(true)),
				}),
				minimalMain(),
			},
			expectErr: true,
			errKind:   OverrideReturnMismatch,
		},
		{
			name: "override arity mismatch",
			classes: []*ast.Class{
				cls("P", "", nil, []*ast.Method{
					meth("f", []*ast.Formal{frm("x", "int32")}, "int32", varRef("x")),
				}),
				cls("C", "P", nil, []*ast.Method{
					meth("f", nil, "int32", intLit(0)),
				}),
				minimalMain(),
			},
			expectErr: true,
			errKind:   OverrideArityMismatch,
		},
		{
			name: "override formal type mismatch",
			classes: []*ast.Class{
				cls("P", "", nil, []*ast.Method{
					meth("f", []*ast.Formal{frm("x", "int32")}, "int32", intLit(0)),
				}),
				cls("C", "P", nil, []*ast.Method{
					meth("f", []*ast.Formal{frm("x", "bool")}, "int32", intLit(0)),
				}),
				minimalMain(),
			},
			expectErr: true,
			errKind:   OverrideFormalTypeMismatch,
		},
		{
			name: "override formal name mismatch",
			classes: []*ast.Class{
				cls("P", "", nil, []*ast.Method{
					meth("f", []*ast.Formal{frm("x", "int32")}, "int32", intLit(0)),
				}),
				cls("C", "P", nil, []*ast.Method{
					meth("f", []*ast.Formal{frm("y", "int32")}, "int32", intLit(0)),
				}),
				minimalMain(),
			},
			expectErr: true,
			errKind:   OverrideFormalNameMismatch,
		},
		{
			name: "duplicate formal name",
			classes: []*ast.Class{
				cls("Foo", "", nil, []*ast.Method{
					meth("f", []*ast.Formal{frm("x", "int32"), frm("x", "int32")}, "unit", unitLit()),
				}),
				minimalMain(),
			},
			expectErr: true,
			errKind:   DuplicateFormal,
		},
		{
			name: "field shadowing an ancestor",
			classes: []*ast.Class{
				cls("P", "", []*ast.Field{fld("x", "int32")}, nil),
				cls("C", "P", []*ast.Field{fld("x", "int32")}, nil),
				minimalMain(),
			},
			expectErr: true,
			errKind:   FieldShadow,
		},
		{
			name: "undefined type in field declaration",
			classes: []*ast.Class{
				cls("Foo", "", []*ast.Field{fld("x", "Nope")}, nil),
				minimalMain(),
			},
			expectErr: true,
			errKind:   UndefinedType,
		},
		{
			name: "chain of inheritance depth 3 with override",
			classes: []*ast.Class{
				cls("A", "", nil, []*ast.Method{
					meth("f", nil, "int32", intLit(1)),
				}),
				cls("B", "A", nil, nil),
				cls("C", "B", nil, []*ast.Method{
					meth("f", nil, "int32", intLit(2)),
				}),
				minimalMain(),
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			p := prog(tc.classes...)
			classTbl, err := declare(p)
			if !assert.NoError(err) {
				return
			}
			methods, _, err := signatures(classTbl, p.Classes)
			if !assert.NoError(err) {
				return
			}

			_, _, err = overridesAndFormals(classTbl, methods, p.Classes)
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

func Test_MainContract(t *testing.T) {
	testCases := []struct {
		name      string
		mainClass *ast.Class
		expectErr bool
	}{
		{
			name:      "valid main",
			mainClass: minimalMain(),
		},
		{
			name:      "main missing method",
			mainClass: cls("Main", "", nil, nil),
			expectErr: true,
		},
		{
			name: "main with formals",
			mainClass: cls("Main", "", nil, []*ast.Method{
				meth("main", []*ast.Formal{frm("x", "int32")}, "int32", intLit(0)),
			}),
			expectErr: true,
		},
		{
			name: "main wrong return type",
			mainClass: cls("Main", "", nil, []*ast.Method{
				meth("main", nil, "bool", boolLit(true)),
			}),
			expectErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			_, err := analyzeClasses(tc.mainClass)
			if tc.expectErr {
				assert.Error(err)
				return
			}
			assert.NoError(err)
		})
	}
}
