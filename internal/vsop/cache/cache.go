// Package cache writes and reads the .vsopc sidecar file: a write-once
// snapshot of a completed analysis run, for debugging and inspection only.
// There is no incremental re-analysis here and no staleness tracking against
// the source file's mtime or contents -- a sidecar is a dump of one Analyze
// call's outcome, read back whole or not at all.
package cache

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/dekarrin/rezi"

	"github.com/dekarrin/vsopc/internal/vsop/ast"
	"github.com/dekarrin/vsopc/internal/vsop/sema"
)

// formatMagic tags the start of every sidecar so Read can refuse to load a
// file that is not one, rather than handing rezi garbage.
const formatMagic = "VSOPC001"

// Snapshot is everything persisted about one analysis run: either a
// type-annotated program, or the single semantic error that stopped
// analysis short of producing one. It implements
// encoding.BinaryMarshaler/BinaryUnmarshaler so rezi can frame it the same
// way the sqlite store frames a whole Program.
type Snapshot struct {
	OK      bool
	Program *ast.Program // non-nil iff OK
	ErrPos  ast.Pos      // valid iff !OK
	ErrKind sema.Kind    // valid iff !OK
	ErrMsg  string       // valid iff !OK
}

// FromResult builds a successful Snapshot from an Analyze result.
func FromResult(res *sema.Result) Snapshot {
	return Snapshot{OK: true, Program: res.Program}
}

// FromError builds a failed Snapshot from the error Analyze returned.
func FromError(err *sema.Error) Snapshot {
	return Snapshot{OK: false, ErrPos: err.Pos, ErrKind: err.Kind, ErrMsg: err.Msg}
}

func encInt(i int) []byte {
	enc := make([]byte, 0, 8)
	return binary.AppendVarint(enc, int64(i))[:8]
}

func decInt(data []byte) (int, int, error) {
	if len(data) < 8 {
		return 0, 0, fmt.Errorf("unexpected end of data")
	}
	val, read := binary.Varint(data[:8])
	if read <= 0 {
		return 0, 0, fmt.Errorf("malformed varint")
	}
	return int(val), 8, nil
}

func encString(s string) []byte {
	return append(encInt(len(s)), []byte(s)...)
}

func decString(data []byte) (string, int, error) {
	byteLen, n, err := decInt(data)
	if err != nil {
		return "", 0, err
	}
	data = data[n:]
	if byteLen < 0 || len(data) < byteLen {
		return "", 0, fmt.Errorf("unexpected end of data in string")
	}
	return string(data[:byteLen]), n + byteLen, nil
}

// MarshalBinary encodes the snapshot: an ok flag, then either the whole
// annotated program or the (position, kind, message) of the stopping error.
func (s Snapshot) MarshalBinary() ([]byte, error) {
	var data []byte
	if s.OK {
		data = append(data, 1)
		progData, err := s.Program.MarshalBinary()
		if err != nil {
			return nil, err
		}
		data = append(data, encInt(len(progData))...)
		data = append(data, progData...)
		return data, nil
	}

	data = append(data, 0)
	data = append(data, encString(s.ErrPos.Filename)...)
	data = append(data, encInt(s.ErrPos.Line)...)
	data = append(data, encInt(s.ErrPos.Column)...)
	data = append(data, encInt(int(s.ErrKind))...)
	data = append(data, encString(s.ErrMsg)...)
	return data, nil
}

// UnmarshalBinary decodes a snapshot produced by MarshalBinary.
func (s *Snapshot) UnmarshalBinary(data []byte) error {
	if len(data) < 1 {
		return fmt.Errorf("unexpected end of data")
	}
	s.OK = data[0] == 1
	data = data[1:]

	if s.OK {
		byteLen, n, err := decInt(data)
		if err != nil {
			return err
		}
		data = data[n:]
		if byteLen < 0 || len(data) < byteLen {
			return fmt.Errorf("unexpected end of data in program")
		}
		s.Program = &ast.Program{}
		return s.Program.UnmarshalBinary(data[:byteLen])
	}

	var n int
	var err error
	s.ErrPos.Filename, n, err = decString(data)
	if err != nil {
		return err
	}
	data = data[n:]

	s.ErrPos.Line, n, err = decInt(data)
	if err != nil {
		return err
	}
	data = data[n:]

	s.ErrPos.Column, n, err = decInt(data)
	if err != nil {
		return err
	}
	data = data[n:]

	kind, n, err := decInt(data)
	if err != nil {
		return err
	}
	data = data[n:]
	s.ErrKind = sema.Kind(kind)

	s.ErrMsg, _, err = decString(data)
	return err
}

// Write serializes snap to w as a .vsopc sidecar.
func Write(w io.Writer, snap Snapshot) error {
	var buf bytes.Buffer
	buf.WriteString(formatMagic)
	buf.Write(rezi.EncBinary(snap))

	_, err := w.Write(buf.Bytes())
	return err
}

// Read deserializes a .vsopc sidecar previously produced by Write.
func Read(r io.Reader) (Snapshot, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Snapshot{}, fmt.Errorf("read sidecar: %w", err)
	}
	if len(data) < len(formatMagic) || string(data[:len(formatMagic)]) != formatMagic {
		return Snapshot{}, fmt.Errorf("not a vsopc sidecar file")
	}
	data = data[len(formatMagic):]

	var snap Snapshot
	n, err := rezi.DecBinary(data, &snap)
	if err != nil {
		return Snapshot{}, fmt.Errorf("decode sidecar: %w", err)
	}
	if n != len(data) {
		return Snapshot{}, fmt.Errorf("sidecar has %d trailing byte(s)", len(data)-n)
	}

	return snap, nil
}
