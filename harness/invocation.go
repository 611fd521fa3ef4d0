// Package harness builds invocations of the program under test, runs them,
// and turns their output into verdicts.
package harness

import (
	"encoding/json"
	"errors"
	"fmt"

	"al.essio.dev/pkg/shellescape"
	"github.com/mattn/go-shellwords"
)

// ErrEmptyCommand is returned when the invocation spec splits into no tokens.
var ErrEmptyCommand = errors.New("invocation spec contains no command")

// Invocation is the user-supplied command line, split once into argv tokens.
// The same Invocation is reused for every test case; only the trailing
// payload token varies.
type Invocation struct {
	tokens []string
}

// ParseInvocation splits spec by POSIX shell-word rules (quoting and
// escaping honored, no expansion, no shell). The first token is the program
// to execute.
func ParseInvocation(spec string) (*Invocation, error) {
	tokens, err := shellwords.Parse(spec)
	if err != nil {
		return nil, fmt.Errorf("split invocation spec: %w", err)
	}
	if len(tokens) == 0 {
		return nil, ErrEmptyCommand
	}
	return &Invocation{tokens: tokens}, nil
}

// Program returns the executable path, the first token of the spec.
func (i *Invocation) Program() string {
	return i.tokens[0]
}

// Argv returns the full argument vector for one test case: the spec's
// tokens followed by the payload as a single token. The payload bytes pass
// through untouched; the program under test sees exactly the corpus's
// serialized form.
func (i *Invocation) Argv(payload json.RawMessage) []string {
	argv := make([]string, 0, len(i.tokens)+1)
	argv = append(argv, i.tokens...)
	return append(argv, string(payload))
}

// String renders the tokens shell-quoted, for logs.
func (i *Invocation) String() string {
	return shellescape.QuoteCommand(i.tokens)
}
