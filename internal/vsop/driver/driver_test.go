package driver

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dekarrin/vsopc/internal/vsop/sema"
)

func writeSource(t *testing.T, contents string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "input.vsop")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func Test_RenderTyped_MinimalProgram(t *testing.T) {
	assert := assert.New(t)

	path := writeSource(t, "[Class(Main, Object, [], [Method(main, [], int32, [0])])]")

	out, semaErr, err := RenderTyped(path)
	if !assert.NoError(err) || !assert.Nil(semaErr) {
		return
	}

	assert.Equal("[Class(Main, Object, [], [Method(main, [], int32, [0 : int32] : int32)])]", out)
}

func Test_RenderTyped_MissingMain(t *testing.T) {
	assert := assert.New(t)

	path := writeSource(t, "[Class(Foo, Object, [], [])]")

	_, semaErr, err := RenderTyped(path)
	if !assert.NoError(err) || !assert.NotNil(semaErr) {
		return
	}

	assert.Equal(sema.MainMissing, semaErr.Kind)
	assert.Contains(semaErr.Error(), "Undefined Main class")
}

func Test_RenderTyped_InheritanceCycle(t *testing.T) {
	assert := assert.New(t)

	path := writeSource(t, "[Class(A, B, [], []),Class(B, A, [], []),Class(Main, Object, [], [Method(main, [], int32, [0])])]")

	_, semaErr, err := RenderTyped(path)
	if !assert.NoError(err) || !assert.NotNil(semaErr) {
		return
	}

	assert.Contains(semaErr.Error(), "Cycle detected in class inheritance")
}

func Test_RenderTyped_BranchLCA(t *testing.T) {
	assert := assert.New(t)

	path := writeSource(t, "[Class(A, Object, [], []),Class(B, A, [], []),Class(C, A, [], []),Class(Main, Object, [], [Method(main, [], int32, [If(true, New(B), New(C)),0])])]")

	out, semaErr, err := RenderTyped(path)
	if !assert.NoError(err) || !assert.Nil(semaErr) {
		return
	}

	assert.Contains(out, "If(true : bool, New(B) : B, New(C) : C) : A")
}

func Test_RenderTyped_OverrideReturnMismatch(t *testing.T) {
	assert := assert.New(t)

	path := writeSource(t, "[Class(P, Object, [], [Method(f, [], int32, [0])]),Class(C, P, [], [Method(f, [], bool, [true])]),Class(Main, Object, [], [Method(main, [], int32, [0])])]")

	_, semaErr, err := RenderTyped(path)
	if !assert.NoError(err) || !assert.NotNil(semaErr) {
		return
	}

	assert.Equal(sema.OverrideReturnMismatch, semaErr.Kind)
	assert.Contains(semaErr.Error(), "Overridden method f in class C has a different return type")
}

func Test_RenderTyped_FieldShadowing(t *testing.T) {
	assert := assert.New(t)

	path := writeSource(t, "[Class(P, Object, [Field(x, int32)], []),Class(C, P, [Field(x, int32)], []),Class(Main, Object, [], [Method(main, [], int32, [0])])]")

	_, semaErr, err := RenderTyped(path)
	if !assert.NoError(err) || !assert.NotNil(semaErr) {
		return
	}

	assert.Equal(sema.FieldShadow, semaErr.Kind)
	assert.Contains(semaErr.Error(), "Field x is already defined in an ancestor of class C")
}

func Test_RenderUntyped(t *testing.T) {
	assert := assert.New(t)

	src := "[Class(Main, Object, [], [Method(main, [], int32, [0])])]"
	path := writeSource(t, src)

	out, err := RenderUntyped(path)
	if !assert.NoError(err) {
		return
	}
	assert.Equal(src, out)
}

// Pretty-printing an annotated tree, re-parsing the untyped rendering of the
// same source, and re-typing must come back to the identical annotated text.
func Test_RenderTyped_RoundTrip(t *testing.T) {
	assert := assert.New(t)

	src := "[Class(A, Object, [Field(n, int32, 3)], [Method(get, [], int32, [n])]),Class(Main, Object, [], [Method(main, [], int32, [Call(New(A), get, []),0])])]"
	path := writeSource(t, src)

	first, semaErr, err := RenderTyped(path)
	if !assert.NoError(err) || !assert.Nil(semaErr) {
		return
	}

	untyped, err := RenderUntyped(path)
	if !assert.NoError(err) {
		return
	}

	path2 := writeSource(t, untyped)
	second, semaErr, err := RenderTyped(path2)
	if !assert.NoError(err) || !assert.Nil(semaErr) {
		return
	}

	assert.Equal(first, second)
}

func Test_ReadSource_StripsBOM(t *testing.T) {
	assert := assert.New(t)

	path := writeSource(t, "\uFEFF[Class(Main, Object, [], [Method(main, [], int32, [0])])]")

	src, err := ReadSource(path)
	if !assert.NoError(err) {
		return
	}
	assert.Equal("[Class(Main, Object, [], [Method(main, [], int32, [0])])]", src)
}
