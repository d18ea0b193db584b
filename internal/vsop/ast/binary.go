package ast

// This file contains the binary encoding used to serialize a Program (and
// its attached StaticType annotations) to a byte stream, for use by the
// vsop/cache package and by the sqlite-backed analysis store. The format
// follows the same length-prefixed, self-describing scheme used elsewhere in
// the codebase for binary persistence: every value is preceded by enough
// information to know how many bytes to consume, so decoding never needs to
// know a record's shape in advance.

import (
	"encoding"
	"encoding/binary"
	"fmt"
	"strings"
	"unicode/utf8"
)

func encBinaryBool(b bool) []byte {
	if b {
		return []byte{1}
	}
	return []byte{0}
}

func encBinaryString(s string) []byte {
	enc := make([]byte, 0, len(s))
	chCount := 0
	for _, ch := range s {
		chBuf := make([]byte, utf8.UTFMax)
		byteLen := utf8.EncodeRune(chBuf, ch)
		enc = append(enc, chBuf[:byteLen]...)
		chCount++
	}
	return append(encBinaryInt(chCount), enc...)
}

func encBinaryInt(i int) []byte {
	enc := make([]byte, 0, 8)
	return binary.AppendVarint(enc, int64(i))[:8]
}

func encBinary(b encoding.BinaryMarshaler) []byte {
	enc, _ := b.MarshalBinary()
	return append(encBinaryInt(len(enc)), enc...)
}

func encBinaryOptExpr(e *Expr) []byte {
	if e == nil {
		return encBinaryBool(false)
	}
	return append(encBinaryBool(true), encBinary(e)...)
}

func decBinaryBool(data []byte) (bool, int, error) {
	if len(data) < 1 {
		return false, 0, fmt.Errorf("unexpected end of data")
	}
	switch data[0] {
	case 0:
		return false, 1, nil
	case 1:
		return true, 1, nil
	default:
		return false, 0, fmt.Errorf("unknown non-bool value")
	}
}

func decBinaryString(data []byte) (string, int, error) {
	if len(data) < 8 {
		return "", 0, fmt.Errorf("unexpected end of data")
	}
	runeCount, _, err := decBinaryInt(data)
	if err != nil {
		return "", 0, fmt.Errorf("decoding string rune count: %w", err)
	}
	data = data[8:]
	if runeCount < 0 {
		return "", 0, fmt.Errorf("string rune count < 0")
	}

	readBytes := 8
	var sb strings.Builder
	for i := 0; i < runeCount; i++ {
		ch, bytesRead := utf8.DecodeRune(data)
		if ch == utf8.RuneError {
			if bytesRead == 0 {
				return "", 0, fmt.Errorf("unexpected end of data in string")
			} else if bytesRead == 1 {
				return "", 0, fmt.Errorf("invalid UTF-8 encoding in string")
			}
			return "", 0, fmt.Errorf("invalid unicode replacement character in rune")
		}
		sb.WriteRune(ch)
		readBytes += bytesRead
		data = data[bytesRead:]
	}
	return sb.String(), readBytes, nil
}

func decBinaryInt(data []byte) (int, int, error) {
	if len(data) < 8 {
		return 0, 0, fmt.Errorf("data does not contain 8 bytes")
	}
	val, read := binary.Varint(data[:8])
	if read == 0 {
		return 0, 0, fmt.Errorf("input buffer too small, should never happen")
	} else if read < 0 {
		return 0, 0, fmt.Errorf("input buffer contains value larger than 64 bits, should never happen")
	}
	return int(val), 8, nil
}

func decBinary(data []byte, b encoding.BinaryUnmarshaler) (int, error) {
	byteLen, readBytes, err := decBinaryInt(data)
	if err != nil {
		return 0, err
	}
	data = data[readBytes:]
	if len(data) < byteLen {
		return 0, fmt.Errorf("unexpected end of data")
	}
	if err := b.UnmarshalBinary(data[:byteLen]); err != nil {
		return 0, err
	}
	return byteLen + readBytes, nil
}

func decBinaryOptExpr(data []byte) (*Expr, int, error) {
	present, readBytes, err := decBinaryBool(data)
	if err != nil {
		return nil, 0, err
	}
	data = data[readBytes:]
	if !present {
		return nil, readBytes, nil
	}
	e := &Expr{}
	n, err := decBinary(data, e)
	if err != nil {
		return nil, 0, err
	}
	return e, readBytes + n, nil
}

// MarshalBinary encodes the static type as (kind, name).
func (t StaticType) MarshalBinary() ([]byte, error) {
	var data []byte
	data = append(data, encBinaryInt(int(t.Kind))...)
	data = append(data, encBinaryString(t.Name)...)
	return data, nil
}

// UnmarshalBinary decodes a StaticType produced by MarshalBinary.
func (t *StaticType) UnmarshalBinary(data []byte) error {
	kind, n, err := decBinaryInt(data)
	if err != nil {
		return err
	}
	data = data[n:]
	t.Kind = TypeKind(kind)
	t.Name, _, err = decBinaryString(data)
	return err
}

// MarshalBinary encodes the full expression subtree rooted at e, including
// its StaticType annotation.
func (e *Expr) MarshalBinary() ([]byte, error) {
	var data []byte
	data = append(data, encBinaryInt(int(e.Kind))...)
	data = append(data, encBinary(e.StaticType)...)

	switch e.Kind {
	case ExprBlock:
		data = append(data, encBinaryInt(len(e.Block))...)
		for i := range e.Block {
			data = append(data, encBinary(&e.Block[i])...)
		}
	case ExprIf:
		data = append(data, encBinary(e.Cond)...)
		data = append(data, encBinary(e.Then)...)
		data = append(data, encBinaryOptExpr(e.Else)...)
	case ExprWhile:
		data = append(data, encBinary(e.Cond)...)
		data = append(data, encBinary(e.Then)...)
	case ExprLet:
		data = append(data, encBinaryString(e.LetName)...)
		data = append(data, encBinaryString(e.LetType)...)
		data = append(data, encBinaryOptExpr(e.LetInit)...)
		data = append(data, encBinary(e.LetBody)...)
	case ExprAssign:
		data = append(data, encBinaryString(e.AssignName)...)
		data = append(data, encBinary(e.AssignExpr)...)
	case ExprBinary:
		data = append(data, encBinaryInt(int(e.BinOp))...)
		data = append(data, encBinary(e.Left)...)
		data = append(data, encBinary(e.Right)...)
	case ExprUnary:
		data = append(data, encBinaryInt(int(e.UnOp))...)
		data = append(data, encBinary(e.Operand)...)
	case ExprNew:
		data = append(data, encBinaryString(e.NewClass)...)
	case ExprVar:
		data = append(data, encBinaryString(e.VarName)...)
	case ExprCall:
		data = append(data, encBinary(e.Receiver)...)
		data = append(data, encBinaryString(e.MethodName)...)
		data = append(data, encBinaryInt(len(e.Args))...)
		for i := range e.Args {
			data = append(data, encBinary(&e.Args[i])...)
		}
	case ExprInt:
		data = append(data, encBinaryInt(int(e.IntValue))...)
	case ExprString:
		data = append(data, encBinaryString(e.StringValue)...)
	case ExprBool:
		data = append(data, encBinaryBool(e.BoolValue)...)
	case ExprParen:
		data = append(data, encBinary(e.Inner)...)
	case ExprUnit:
		// no payload
	}

	return data, nil
}

// UnmarshalBinary decodes an expression subtree produced by MarshalBinary.
func (e *Expr) UnmarshalBinary(data []byte) error {
	kind, n, err := decBinaryInt(data)
	if err != nil {
		return err
	}
	data = data[n:]
	e.Kind = ExprKind(kind)

	n, err = decBinary(data, &e.StaticType)
	if err != nil {
		return err
	}
	data = data[n:]

	switch e.Kind {
	case ExprBlock:
		count, nn, err := decBinaryInt(data)
		if err != nil {
			return err
		}
		data = data[nn:]
		e.Block = make([]Expr, count)
		for i := 0; i < count; i++ {
			consumed, err := decBinary(data, &e.Block[i])
			if err != nil {
				return err
			}
			data = data[consumed:]
		}
	case ExprIf:
		e.Cond = &Expr{}
		consumed, err := decBinary(data, e.Cond)
		if err != nil {
			return err
		}
		data = data[consumed:]

		e.Then = &Expr{}
		consumed, err = decBinary(data, e.Then)
		if err != nil {
			return err
		}
		data = data[consumed:]

		e.Else, consumed, err = decBinaryOptExpr(data)
		if err != nil {
			return err
		}
		data = data[consumed:]
	case ExprWhile:
		e.Cond = &Expr{}
		consumed, err := decBinary(data, e.Cond)
		if err != nil {
			return err
		}
		data = data[consumed:]

		e.Then = &Expr{}
		consumed, err = decBinary(data, e.Then)
		if err != nil {
			return err
		}
		data = data[consumed:]
	case ExprLet:
		var consumed int
		e.LetName, consumed, err = decBinaryString(data)
		if err != nil {
			return err
		}
		data = data[consumed:]

		e.LetType, consumed, err = decBinaryString(data)
		if err != nil {
			return err
		}
		data = data[consumed:]

		e.LetInit, consumed, err = decBinaryOptExpr(data)
		if err != nil {
			return err
		}
		data = data[consumed:]

		e.LetBody = &Expr{}
		consumed, err = decBinary(data, e.LetBody)
		if err != nil {
			return err
		}
		data = data[consumed:]
	case ExprAssign:
		var consumed int
		e.AssignName, consumed, err = decBinaryString(data)
		if err != nil {
			return err
		}
		data = data[consumed:]

		e.AssignExpr = &Expr{}
		consumed, err = decBinary(data, e.AssignExpr)
		if err != nil {
			return err
		}
		data = data[consumed:]
	case ExprBinary:
		op, consumed, err := decBinaryInt(data)
		if err != nil {
			return err
		}
		data = data[consumed:]
		e.BinOp = BinOp(op)

		e.Left = &Expr{}
		consumed, err = decBinary(data, e.Left)
		if err != nil {
			return err
		}
		data = data[consumed:]

		e.Right = &Expr{}
		consumed, err = decBinary(data, e.Right)
		if err != nil {
			return err
		}
		data = data[consumed:]
	case ExprUnary:
		op, consumed, err := decBinaryInt(data)
		if err != nil {
			return err
		}
		data = data[consumed:]
		e.UnOp = UnOp(op)

		e.Operand = &Expr{}
		consumed, err = decBinary(data, e.Operand)
		if err != nil {
			return err
		}
		data = data[consumed:]
	case ExprNew:
		e.NewClass, _, err = decBinaryString(data)
		if err != nil {
			return err
		}
	case ExprVar:
		e.VarName, _, err = decBinaryString(data)
		if err != nil {
			return err
		}
	case ExprCall:
		var consumed int
		e.Receiver = &Expr{}
		consumed, err = decBinary(data, e.Receiver)
		if err != nil {
			return err
		}
		data = data[consumed:]

		e.MethodName, consumed, err = decBinaryString(data)
		if err != nil {
			return err
		}
		data = data[consumed:]

		count, consumed2, err := decBinaryInt(data)
		if err != nil {
			return err
		}
		data = data[consumed2:]
		e.Args = make([]Expr, count)
		for i := 0; i < count; i++ {
			n, err := decBinary(data, &e.Args[i])
			if err != nil {
				return err
			}
			data = data[n:]
		}
	case ExprInt:
		v, _, err := decBinaryInt(data)
		if err != nil {
			return err
		}
		e.IntValue = int32(v)
	case ExprString:
		e.StringValue, _, err = decBinaryString(data)
		if err != nil {
			return err
		}
	case ExprBool:
		e.BoolValue, _, err = decBinaryBool(data)
		if err != nil {
			return err
		}
	case ExprParen:
		e.Inner = &Expr{}
		if _, err := decBinary(data, e.Inner); err != nil {
			return err
		}
	case ExprUnit:
		// no payload
	}

	return nil
}

// MarshalBinary encodes a Formal.
func (f *Formal) MarshalBinary() ([]byte, error) {
	var data []byte
	data = append(data, encBinaryString(f.Name)...)
	data = append(data, encBinaryString(f.Type)...)
	return data, nil
}

// UnmarshalBinary decodes a Formal.
func (f *Formal) UnmarshalBinary(data []byte) error {
	var n int
	var err error
	f.Name, n, err = decBinaryString(data)
	if err != nil {
		return err
	}
	data = data[n:]
	f.Type, _, err = decBinaryString(data)
	return err
}

// MarshalBinary encodes a Field, including its optional initializer.
func (f *Field) MarshalBinary() ([]byte, error) {
	var data []byte
	data = append(data, encBinaryString(f.Name)...)
	data = append(data, encBinaryString(f.Type)...)
	data = append(data, encBinaryOptExpr(f.Init)...)
	return data, nil
}

// UnmarshalBinary decodes a Field.
func (f *Field) UnmarshalBinary(data []byte) error {
	var n int
	var err error
	f.Name, n, err = decBinaryString(data)
	if err != nil {
		return err
	}
	data = data[n:]

	f.Type, n, err = decBinaryString(data)
	if err != nil {
		return err
	}
	data = data[n:]

	f.Init, _, err = decBinaryOptExpr(data)
	return err
}

// MarshalBinary encodes a Method.
func (m *Method) MarshalBinary() ([]byte, error) {
	var data []byte
	data = append(data, encBinaryString(m.Name)...)
	data = append(data, encBinaryInt(len(m.Formals))...)
	for _, f := range m.Formals {
		data = append(data, encBinary(f)...)
	}
	data = append(data, encBinaryString(m.ReturnType)...)
	data = append(data, encBinaryInt(len(m.Body))...)
	for i := range m.Body {
		data = append(data, encBinary(&m.Body[i])...)
	}
	return data, nil
}

// UnmarshalBinary decodes a Method.
func (m *Method) UnmarshalBinary(data []byte) error {
	var n int
	var err error
	m.Name, n, err = decBinaryString(data)
	if err != nil {
		return err
	}
	data = data[n:]

	count, n, err := decBinaryInt(data)
	if err != nil {
		return err
	}
	data = data[n:]
	m.Formals = make([]*Formal, count)
	for i := 0; i < count; i++ {
		m.Formals[i] = &Formal{}
		consumed, err := decBinary(data, m.Formals[i])
		if err != nil {
			return err
		}
		data = data[consumed:]
	}

	m.ReturnType, n, err = decBinaryString(data)
	if err != nil {
		return err
	}
	data = data[n:]

	count, n, err = decBinaryInt(data)
	if err != nil {
		return err
	}
	data = data[n:]
	m.Body = make([]Expr, count)
	for i := 0; i < count; i++ {
		consumed, err := decBinary(data, &m.Body[i])
		if err != nil {
			return err
		}
		data = data[consumed:]
	}

	return nil
}

// MarshalBinary encodes a Class.
func (c *Class) MarshalBinary() ([]byte, error) {
	var data []byte
	data = append(data, encBinaryString(c.Name)...)
	data = append(data, encBinaryString(c.Parent)...)
	data = append(data, encBinaryInt(len(c.Fields))...)
	for _, f := range c.Fields {
		data = append(data, encBinary(f)...)
	}
	data = append(data, encBinaryInt(len(c.Methods))...)
	for _, m := range c.Methods {
		data = append(data, encBinary(m)...)
	}
	return data, nil
}

// UnmarshalBinary decodes a Class.
func (c *Class) UnmarshalBinary(data []byte) error {
	var n int
	var err error
	c.Name, n, err = decBinaryString(data)
	if err != nil {
		return err
	}
	data = data[n:]

	c.Parent, n, err = decBinaryString(data)
	if err != nil {
		return err
	}
	data = data[n:]

	count, n, err := decBinaryInt(data)
	if err != nil {
		return err
	}
	data = data[n:]
	c.Fields = make([]*Field, count)
	for i := 0; i < count; i++ {
		c.Fields[i] = &Field{}
		consumed, err := decBinary(data, c.Fields[i])
		if err != nil {
			return err
		}
		data = data[consumed:]
	}

	count, n, err = decBinaryInt(data)
	if err != nil {
		return err
	}
	data = data[n:]
	c.Methods = make([]*Method, count)
	for i := 0; i < count; i++ {
		c.Methods[i] = &Method{}
		consumed, err := decBinary(data, c.Methods[i])
		if err != nil {
			return err
		}
		data = data[consumed:]
	}

	return nil
}

// MarshalBinary encodes the whole Program, suitable for use with
// github.com/dekarrin/rezi's EncBinary/DecBinary wrapper (see
// internal/vsop/cache and server/dao/sqlite).
func (p *Program) MarshalBinary() ([]byte, error) {
	var data []byte
	data = append(data, encBinaryInt(len(p.Classes))...)
	for _, c := range p.Classes {
		data = append(data, encBinary(c)...)
	}
	return data, nil
}

// UnmarshalBinary decodes a Program produced by MarshalBinary.
func (p *Program) UnmarshalBinary(data []byte) error {
	count, n, err := decBinaryInt(data)
	if err != nil {
		return err
	}
	data = data[n:]
	p.Classes = make([]*Class, count)
	for i := 0; i < count; i++ {
		p.Classes[i] = &Class{}
		consumed, err := decBinary(data, p.Classes[i])
		if err != nil {
			return err
		}
		data = data[consumed:]
	}
	return nil
}
