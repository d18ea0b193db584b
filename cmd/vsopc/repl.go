package main

import (
	"fmt"
	"io"
	"os"

	"github.com/dekarrin/vsopc/internal/input"
	"github.com/dekarrin/vsopc/internal/vsop/ast"
	"github.com/dekarrin/vsopc/internal/vsop/fixture"
	"github.com/dekarrin/vsopc/internal/vsop/printer"
	"github.com/dekarrin/vsopc/internal/vsop/sema"
)

// scratchMethodName is the name of the Main method the REPL grows one
// expression at a time. It is never user-visible; snippets are expressions,
// not method definitions, so nothing the user types can collide with it.
const scratchMethodName = "__run"

// runREPL implements the "run" subcommand: read one expression snippet at a
// time, type-check it against a persistent Main-wrapping scratch program,
// and print the annotated form of just that snippet. A snippet that fails
// to parse or type-check is reported and discarded without affecting the
// scratch program's accumulated state.
func runREPL() {
	var reader snippetReader
	if isTerminal(os.Stdin) {
		isr, err := input.NewInteractiveReader()
		if err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
			returnCode = ExitInitError
			return
		}
		defer isr.Close()
		reader = isr
	} else {
		dsr := input.NewDirectReader(os.Stdin)
		defer dsr.Close()
		reader = dsr
	}

	body := []ast.Expr{}

	for {
		snippet, err := reader.ReadSnippet()
		if err != nil {
			if err == io.EOF {
				return
			}
			fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
			returnCode = ExitInitError
			return
		}
		if snippet == "" {
			continue
		}

		expr, err := fixture.ParseExpr("<run>", snippet)
		if err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			continue
		}

		candidate := append(append([]ast.Expr{}, body...), expr)
		prog := scratchProgram(candidate)

		_, semaErr := sema.Analyze(prog)
		if semaErr != nil {
			se, ok := semaErr.(*sema.Error)
			if !ok || !isScratchReturnMismatch(se) {
				fmt.Fprintln(os.Stderr, semaErr.Error())
				continue
			}
		}

		// The scratch method's body is mutated in place by Analyze
		// regardless of whether the outer return-type conformance check
		// itself passed, so the last expression carries its real type
		// even when semaErr above was the synthesized one.
		last := prog.Classes[len(prog.Classes)-1].Methods[1].Body[len(candidate)-1]
		fmt.Println(printer.PrintExpr(&last, true))

		body = candidate
	}
}

// snippetReader is satisfied by both input.DirectSnippetReader and
// input.InteractiveSnippetReader.
type snippetReader interface {
	ReadSnippet() (string, error)
}

// scratchProgram builds a single Main class whose sole method holds body as
// its statements, so every prior snippet remains declared (and is
// re-type-checked) alongside the newest one.
func scratchProgram(body []ast.Expr) *ast.Program {
	return &ast.Program{
		Classes: []*ast.Class{
			{
				Name:   "Main",
				Parent: "Object",
				Methods: []*ast.Method{
					{
						Name:       "main",
						ReturnType: "int32",
						Body:       []ast.Expr{{Kind: ast.ExprInt, IntValue: 0}},
					},
					{
						Name:       scratchMethodName,
						ReturnType: "Object",
						Body:       body,
					},
				},
			},
		},
	}
}

// isScratchReturnMismatch reports whether se is exactly the TypeMismatch
// produced by the scratch method's own declared return type (Object),
// which the REPL expects to fire routinely whenever a snippet evaluates to
// a primitive -- that's not a real error in the snippet, just an artifact
// of having to declare some return type for the wrapper method.
func isScratchReturnMismatch(se *sema.Error) bool {
	if se.Kind != sema.TypeMismatch {
		return false
	}
	want := fmt.Sprintf("body of method %s in class Main", scratchMethodName)
	return len(se.Msg) >= len(want) && se.Msg[:len(want)] == want
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
