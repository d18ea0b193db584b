package sema

import (
	"testing"

	"github.com/dekarrin/vsopc/internal/vsop/ast"
	"github.com/stretchr/testify/assert"
)

func Test_Declare(t *testing.T) {
	testCases := []struct {
		name      string
		classes   []*ast.Class
		expectErr bool
	}{
		{
			name:    "minimal program gets Object injected",
			classes: []*ast.Class{minimalMain()},
		},
		{
			name: "unspecified parent defaults to Object",
			classes: []*ast.Class{
				cls("Foo", "", nil, nil),
				minimalMain(),
			},
		},
		{
			name: "duplicate class is an error",
			classes: []*ast.Class{
				cls("Foo", "", nil, nil),
				cls("Foo", "", nil, nil),
				minimalMain(),
			},
			expectErr: true,
		},
		{
			name: "explicit parent named Object is fine",
			classes: []*ast.Class{
				cls("Foo", "Object", nil, nil),
				minimalMain(),
			},
		},
		{
			name: "two-class inheritance cycle",
			classes: []*ast.Class{
				cls("A", "B", nil, nil),
				cls("B", "A", nil, nil),
				minimalMain(),
			},
			expectErr: true,
		},
		{
			name: "self-inheritance cycle",
			classes: []*ast.Class{
				cls("A", "A", nil, nil),
				minimalMain(),
			},
			expectErr: true,
		},
		{
			name: "long chain is not a cycle",
			classes: []*ast.Class{
				cls("A", "", nil, nil),
				cls("B", "A", nil, nil),
				cls("C", "B", nil, nil),
				minimalMain(),
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			p := prog(tc.classes...)
			classes, err := declare(p)

			if tc.expectErr {
				assert.Error(err)
				return
			}
			if !assert.NoError(err) {
				return
			}

			assert.Contains(classes, ObjectClassName)
			assert.Equal(p.Classes[0].Name, ObjectClassName)
			for _, c := range tc.classes {
				entry, ok := classes[c.Name]
				if !assert.True(ok, "class %s missing from table", c.Name) {
					continue
				}
				if c.Name != ObjectClassName && c.Parent == "" {
					assert.Equal(ObjectClassName, entry.Parent)
				}
			}
		})
	}
}

func Test_Declare_Idempotent(t *testing.T) {
	assert := assert.New(t)

	p := prog(cls("Foo", "", nil, nil), minimalMain())

	first, err := declare(p)
	if !assert.NoError(err) {
		return
	}

	// running the pass again over its own output (same tree, fresh tables)
	// must produce the same ClassTable, not a duplicate Object.
	second, err := declare(p)
	if !assert.NoError(err) {
		return
	}
	assert.Equal(first, second)
	assert.Equal(ObjectClassName, p.Classes[0].Name)
	assert.NotEqual(ObjectClassName, p.Classes[1].Name)
}

func Test_Declare_CycleMessage(t *testing.T) {
	assert := assert.New(t)

	p := prog(
		cls("A", "B", nil, nil),
		cls("B", "A", nil, nil),
		minimalMain(),
	)
	_, err := declare(p)
	if assert.Error(err) {
		semErr, ok := err.(*Error)
		if assert.True(ok) {
			assert.Equal(InheritanceCycle, semErr.Kind)
			assert.Contains(semErr.Error(), "Cycle detected in class inheritance")
		}
	}
}
