package cache

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dekarrin/vsopc/internal/vsop/ast"
	"github.com/dekarrin/vsopc/internal/vsop/fixture"
	"github.com/dekarrin/vsopc/internal/vsop/printer"
	"github.com/dekarrin/vsopc/internal/vsop/sema"
)

func analyzed(t *testing.T, src string) *sema.Result {
	t.Helper()

	prog, err := fixture.Parse("test.vsop", src)
	require.NoError(t, err)
	res, err := sema.Analyze(prog)
	require.NoError(t, err)
	return res
}

func Test_WriteRead_Success(t *testing.T) {
	assert := assert.New(t)

	res := analyzed(t, "[Class(A, Object, [Field(n, int32, 3)], [Method(get, [], int32, [n])]),Class(Main, Object, [], [Method(main, [], int32, [Call(New(A), get, []),0])])]")

	var buf bytes.Buffer
	if !assert.NoError(Write(&buf, FromResult(res))) {
		return
	}

	snap, err := Read(&buf)
	if !assert.NoError(err) {
		return
	}

	assert.True(snap.OK)
	if !assert.NotNil(snap.Program) {
		return
	}

	// the stored tree carries the annotations, so the typed rendering of the
	// reloaded program matches the original's exactly.
	assert.Equal(printer.Print(res.Program, true), printer.Print(snap.Program, true))
}

func Test_WriteRead_Failure(t *testing.T) {
	assert := assert.New(t)

	prog, err := fixture.Parse("bad.vsop", "[Class(Foo, Object, [], [])]")
	require.NoError(t, err)
	_, semaErr := sema.Analyze(prog)
	require.Error(t, semaErr)
	se, ok := semaErr.(*sema.Error)
	require.True(t, ok)

	var buf bytes.Buffer
	if !assert.NoError(Write(&buf, FromError(se))) {
		return
	}

	snap, err := Read(&buf)
	if !assert.NoError(err) {
		return
	}

	assert.False(snap.OK)
	assert.Nil(snap.Program)
	assert.Equal(se.Kind, snap.ErrKind)
	assert.Equal(se.Msg, snap.ErrMsg)
	assert.Equal(se.Pos, snap.ErrPos)
}

func Test_Read_RejectsNonSidecar(t *testing.T) {
	assert := assert.New(t)

	_, err := Read(strings.NewReader("not a sidecar at all"))
	assert.Error(err)
}

func Test_Read_RejectsTruncated(t *testing.T) {
	assert := assert.New(t)

	res := analyzed(t, "[Class(Main, Object, [], [Method(main, [], int32, [0])])]")

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FromResult(res)))

	data := buf.Bytes()
	_, err := Read(bytes.NewReader(data[:len(data)-4]))
	assert.Error(err)
}

func Test_Snapshot_BinaryRoundTrip(t *testing.T) {
	assert := assert.New(t)

	orig := Snapshot{
		OK:      false,
		ErrPos:  ast.Pos{Filename: "x.vsop", Line: 3, Column: 14},
		ErrKind: sema.TypeMismatch,
		ErrMsg:  "if branches have incompatible types int32 and string",
	}

	data, err := orig.MarshalBinary()
	if !assert.NoError(err) {
		return
	}

	var got Snapshot
	if !assert.NoError(got.UnmarshalBinary(data)) {
		return
	}
	assert.Equal(orig, got)
}
