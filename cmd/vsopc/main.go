/*
Vsopc is the semantic-analysis driver of the VSOP toolchain.

It reads a single source file and runs one stage of the pipeline against it,
selected by the -l/-p/-c/-i flags:

Usage:

	vsopc [flags] FILE
	vsopc run

The flags are:

	-v, --version
		Give the current version of vsopc and then exit.

	-l
		Run the lexer only. Lexing itself is an external collaborator of this
		module (see the package doc of internal/vsop/driver); this flag only
		confirms the file is readable.

	-p
		Parse the file and pretty-print the untyped tree.

	-c
		Parse the file, run the four semantic passes, and pretty-print the
		type-annotated tree.

	-i
		Run the four semantic passes and hand off to code generation.
		Code generation is out of scope for this module; this flag runs
		analysis and reports success or the semantic error that would have
		stopped codegen.

	--wide N
		Used with -p/-c: reflow the single-line pretty-print output to N
		columns via internal/vsop/printer.PrintWide instead of emitting one
		unbroken line.

	--cache-out FILE
		Used with -c: write the completed analysis (tables and annotated
		tree, or the semantic error) to FILE as a .vsopc sidecar via
		internal/vsop/cache, for later inspection.

The "run" subcommand instead starts a REPL that reads one expression
snippet at a time (multiline input is supported; a snippet ends once its
parentheses/brackets balance), type-checks it against a persistent
Main-wrapping scratch program, and prints the annotated pretty-print of
just that snippet.
*/
package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/dekarrin/vsopc/internal/version"
	"github.com/dekarrin/vsopc/internal/vsop/ast"
	"github.com/dekarrin/vsopc/internal/vsop/cache"
	"github.com/dekarrin/vsopc/internal/vsop/driver"
	"github.com/dekarrin/vsopc/internal/vsop/printer"
)

const (
	// ExitSuccess indicates a successful program execution.
	ExitSuccess = iota

	// ExitSemanticError indicates analysis completed but found a semantic
	// error in the source.
	ExitSemanticError

	// ExitInitError indicates an unsuccessful program execution due to an
	// issue outside of semantic analysis itself (a bad flag combination, an
	// unreadable file, a cache-out write failure).
	ExitInitError
)

var (
	returnCode   = ExitSuccess
	flagVersion  = pflag.BoolP("version", "v", false, "Gives the version info")
	flagLex      = pflag.BoolP("lex", "l", false, "Run the lexer only")
	flagParse    = pflag.BoolP("parse", "p", false, "Parse and pretty-print the untyped tree")
	flagCheck    = pflag.BoolP("check", "c", false, "Run semantic analysis and pretty-print the annotated tree")
	flagCodegen  = pflag.BoolP("codegen", "i", false, "Run semantic analysis and hand off to code generation")
	flagWide     = pflag.Int("wide", 0, "Reflow pretty-print output to the given column width")
	flagCacheOut = pflag.String("cache-out", "", "Write the completed analysis to FILE as a .vsopc sidecar")
)

func main() {
	defer func() {
		if panicErr := recover(); panicErr != nil {
			panic(fmt.Sprintf("unrecoverable panic occurred: %v", panicErr))
		} else {
			os.Exit(returnCode)
		}
	}()

	if len(os.Args) > 1 && os.Args[1] == "run" {
		runREPL()
		return
	}

	pflag.Parse()

	if *flagVersion {
		fmt.Printf("%s\n", version.Current)
		return
	}

	args := pflag.Args()
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "ERROR: expected exactly one source file")
		returnCode = ExitInitError
		return
	}
	file := args[0]

	switch {
	case *flagLex:
		if err := driver.Lex(file); err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
			returnCode = ExitInitError
		}

	case *flagParse:
		src, err := driver.ReadSource(file)
		if err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
			returnCode = ExitInitError
			return
		}
		prog, err := driver.Parse(file, src)
		if err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
			returnCode = ExitInitError
			return
		}
		fmt.Println(render(prog, false))

	case *flagCheck:
		runCheck(file)

	case *flagCodegen:
		_, semaErr, err := driver.Codegen(file)
		if err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
			returnCode = ExitInitError
			return
		}
		if semaErr != nil {
			fmt.Fprintln(os.Stderr, semaErr.Error())
			returnCode = ExitSemanticError
			return
		}
		fmt.Println("codegen: not implemented (out of scope); analysis succeeded")

	default:
		fmt.Fprintln(os.Stderr, "ERROR: one of -l, -p, -c, -i is required")
		returnCode = ExitInitError
	}
}

func runCheck(file string) {
	res, semaErr, err := driver.Check(file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
		returnCode = ExitInitError
		return
	}

	var snap cache.Snapshot
	if semaErr != nil {
		fmt.Fprintln(os.Stderr, semaErr.Error())
		snap = cache.FromError(semaErr)
		returnCode = ExitSemanticError
	} else {
		fmt.Println(render(res.Program, true))
		snap = cache.FromResult(res)
	}

	if *flagCacheOut != "" {
		f, cerr := os.Create(*flagCacheOut)
		if cerr != nil {
			fmt.Fprintf(os.Stderr, "ERROR: %s\n", cerr.Error())
			returnCode = ExitInitError
			return
		}
		defer f.Close()
		if cerr := cache.Write(f, snap); cerr != nil {
			fmt.Fprintf(os.Stderr, "ERROR: %s\n", cerr.Error())
			returnCode = ExitInitError
		}
	}
}

func render(prog *ast.Program, typed bool) string {
	if *flagWide > 0 {
		return printer.PrintWide(prog, typed, *flagWide)
	}
	return printer.Print(prog, typed)
}
