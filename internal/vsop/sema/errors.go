package sema

import (
	"fmt"

	"github.com/dekarrin/vsopc/internal/vsop/ast"
)

// Kind enumerates the semantic error families of the analyzer, one per
// distinct diagnostic it can produce. Callers that need to
// branch on the failure reason (rather than just display it) can switch on
// Kind rather than string-matching Error().
type Kind int

const (
	DuplicateClass Kind = iota
	RootWithParent
	InheritanceCycle
	UnknownParent
	MainMissing
	DuplicateMember
	DuplicateFormal
	OverrideReturnMismatch
	OverrideArityMismatch
	OverrideFormalTypeMismatch
	OverrideFormalNameMismatch
	FieldShadow
	UndefinedType
	MainIllTyped
	TypeMismatch
	CallResolution
	UnboundVariable
	SelfInFieldInit
	FieldInFieldInit
)

// Error is a single fatal semantic error: a source position plus a message,
// rendered as "filename:line:column: semantic error: message" by Error().
// The analyzer stops at the first Error it produces -- there is no
// recovery, per the language's error-handling design.
type Error struct {
	Pos  ast.Pos
	Kind Kind
	Msg  string
	wrap error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: semantic error: %s", e.Pos.String(), e.Msg)
}

// Unwrap gives the error that Error wraps, if any.
func (e *Error) Unwrap() error {
	return e.wrap
}

// newErr builds an *Error with a formatted message at the given position.
func newErr(pos ast.Pos, kind Kind, format string, args ...interface{}) *Error {
	return &Error{Pos: pos, Kind: kind, Msg: fmt.Sprintf(format, args...)}
}
