package sema

import (
	"testing"

	"github.com/dekarrin/vsopc/internal/vsop/ast"
	"github.com/stretchr/testify/assert"
)

func Test_Signatures(t *testing.T) {
	testCases := []struct {
		name      string
		classes   []*ast.Class
		expectErr bool
		errKind   Kind
	}{
		{
			name:    "minimal program",
			classes: []*ast.Class{minimalMain()},
		},
		{
			name: "missing Main is an error",
			classes: []*ast.Class{
				cls("Foo", "", nil, nil),
			},
			expectErr: true,
			errKind:   MainMissing,
		},
		{
			name: "duplicate method in a class",
			classes: []*ast.Class{
				cls("Foo", "", nil, []*ast.Method{
					meth("bar", nil, "unit", unitLit()),
					meth("bar", nil, "unit", unitLit()),
				}),
				minimalMain(),
			},
			expectErr: true,
			errKind:   DuplicateMember,
		},
		{
			name: "duplicate field in a class",
			classes: []*ast.Class{
				cls("Foo", "", []*ast.Field{
					fld("x", "int32"),
					fld("x", "int32"),
				}, nil),
				minimalMain(),
			},
			expectErr: true,
			errKind:   DuplicateMember,
		},
		{
			name: "unknown parent",
			classes: []*ast.Class{
				cls("Foo", "Bar", nil, nil),
				minimalMain(),
			},
			expectErr: true,
			errKind:   UnknownParent,
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

			methods, fields, err := signatures(classTbl, p.Classes)
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
			assert.NotNil(methods)
			assert.NotNil(fields)

			// Object's built-ins are always present.
			assert.Contains(methods[ObjectClassName], "print")
			assert.Contains(methods[ObjectClassName], "inputInt32")
		})
	}
}
