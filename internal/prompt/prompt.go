package prompt

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Confirmer answers yes/no questions and item selections for the
// orchestrators. Business logic never reads stdin directly; the cmd layer
// injects either the terminal implementation or the fail-closed one.
type Confirmer interface {
	Confirm(question string, defaultYes bool) bool
	Select(question string, options []string) (int, error)
}

// Terminal prompts on stdin/stdout.
type Terminal struct {
	in  *bufio.Reader
	out io.Writer
}

func NewTerminal() *Terminal {
	return &Terminal{
		in:  bufio.NewReader(os.Stdin),
		out: os.Stdout,
	}
}

func NewTerminalWith(in io.Reader, out io.Writer) *Terminal {
	return &Terminal{in: bufio.NewReader(in), out: out}
}

func (t *Terminal) Confirm(question string, defaultYes bool) bool {
	hint := "[y/N]"
	if defaultYes {
		hint = "[Y/n]"
	}
	fmt.Fprintf(t.out, "%s %s: ", question, hint)

	response, err := t.in.ReadString('\n')
	if err != nil {
		return false
	}

	response = strings.ToLower(strings.TrimSpace(response))
	if response == "" {
		return defaultYes
	}
	return response == "y" || response == "yes"
}

func (t *Terminal) Select(question string, options []string) (int, error) {
	fmt.Fprintln(t.out, question)
	for i, opt := range options {
		fmt.Fprintf(t.out, "  %d) %s\n", i+1, opt)
	}
	fmt.Fprint(t.out, "choice: ")

	response, err := t.in.ReadString('\n')
	if err != nil {
		return 0, fmt.Errorf("failed to read selection: %w", err)
	}

	choice, err := strconv.Atoi(strings.TrimSpace(response))
	if err != nil || choice < 1 || choice > len(options) {
		return 0, fmt.Errorf("invalid selection %q (expected 1-%d)", strings.TrimSpace(response), len(options))
	}

	return choice - 1, nil
}

// Input reads one line of free-form text, returning def when the answer
// is empty.
func (t *Terminal) Input(question, def string) (string, error) {
	if def != "" {
		fmt.Fprintf(t.out, "%s [%s]: ", question, def)
	} else {
		fmt.Fprintf(t.out, "%s: ", question)
	}

	response, err := t.in.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}

	response = strings.TrimSpace(response)
	if response == "" {
		return def, nil
	}
	return response, nil
}

// NonInteractive declines every confirmation and selection. Destructive
// operations fail closed when no operator is present.
type NonInteractive struct{}

func (NonInteractive) Confirm(string, bool) bool {
	return false
}

func (NonInteractive) Select(string, []string) (int, error) {
	return 0, fmt.Errorf("selection required but running non-interactive")
}
