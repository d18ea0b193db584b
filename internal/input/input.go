// Package input contains identifiers used in getting snippet input for the
// vsopc run subcommand's REPL, from either stdin directly or an interactive
// terminal.
package input

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
)

// DirectSnippetReader implements SnippetReader and reads snippets from any
// generic input stream directly. It can be used generically with any
// io.Reader but does not sanitize the input of control and escape
// sequences.
//
// DirectSnippetReader should not be used directly; instead, create one with
// [NewDirectReader].
type DirectSnippetReader struct {
	r *bufio.Reader
}

// InteractiveSnippetReader implements SnippetReader and reads snippets from
// stdin using a go implementation of the GNU Readline library. This keeps
// input clear of all typing and editing escape sequences and enables the
// use of input history. This should in general probably only be used when
// directly connecting to a TTY for input.
//
// InteractiveSnippetReader should not be used directly; instead, create one
// with [NewInteractiveReader].
type InteractiveSnippetReader struct {
	rl     *readline.Instance
	prompt string
}

// NewDirectReader creates a new DirectSnippetReader and initializes a
// buffered reader on the provided reader. The returned reader must have
// Close() called on it before disposal.
func NewDirectReader(r io.Reader) *DirectSnippetReader {
	return &DirectSnippetReader{
		r: bufio.NewReader(r),
	}
}

// NewInteractiveReader creates a new InteractiveSnippetReader and
// initializes readline. The returned reader must have Close() called on it
// before disposal to properly teardown readline resources.
func NewInteractiveReader() (*InteractiveSnippetReader, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt: "vsop> ",
	})
	if err != nil {
		return nil, fmt.Errorf("create readline config: %w", err)
	}

	return &InteractiveSnippetReader{
		rl:     rl,
		prompt: "vsop> ",
	}, nil
}

// Close cleans up resources associated with the DirectSnippetReader.
func (dsr *DirectSnippetReader) Close() error {
	return nil
}

// Close cleans up readline resources associated with the
// InteractiveSnippetReader.
func (isr *InteractiveSnippetReader) Close() error {
	return isr.rl.Close()
}

// ReadSnippet reads one complete expression snippet from the underlying
// stream: lines are accumulated until parenthesis/bracket depth returns to
// zero, since every expression form in the fixture grammar (see
// internal/vsop/fixture) is either a bare token or fully bracketed, so depth
// reaching zero after at least one non-space character is exactly "one
// complete expression was typed".
//
// If at end of input with nothing accumulated, the returned string will be
// empty and error will be io.EOF. If any other error occurs, the returned
// string will be empty and error will be that error.
func (dsr *DirectSnippetReader) ReadSnippet() (string, error) {
	return readSnippet(dsr.r.ReadString)
}

// ReadSnippet reads one complete expression snippet the same way
// DirectSnippetReader.ReadSnippet does, but from the readline-backed
// terminal.
func (isr *InteractiveSnippetReader) ReadSnippet() (string, error) {
	first := true
	return readSnippet(func(delim byte) (string, error) {
		prompt := isr.prompt
		if !first {
			prompt = strings.Repeat(" ", len(isr.prompt))
		}
		first = false
		isr.rl.SetPrompt(prompt)
		line, err := isr.rl.Readline()
		return line + "\n", err
	})
}

// readSnippet drives the shared balanced-delimiter accumulation loop over a
// line source. lineFn mirrors bufio.Reader.ReadString's signature so both
// reader types can share this logic despite having unrelated underlying
// line sources.
func readSnippet(lineFn func(delim byte) (string, error)) (string, error) {
	var sb strings.Builder
	depth := 0
	sawContent := false

	for {
		line, err := lineFn('\n')
		sb.WriteString(line)
		for _, r := range line {
			switch r {
			case '(', '[':
				depth++
				sawContent = true
			case ')', ']':
				depth--
			default:
				if !isSpace(r) {
					sawContent = true
				}
			}
		}

		if err != nil {
			if err == io.EOF {
				if sawContent {
					break
				}
				return "", io.EOF
			}
			return "", err
		}

		if sawContent && depth <= 0 {
			break
		}
	}

	return strings.TrimSpace(sb.String()), nil
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\r' || r == '\n'
}
