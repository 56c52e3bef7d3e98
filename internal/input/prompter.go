// Package input asks the operator for confirmations and key passphrases.
//
// Answers are read line by line; a final line without a newline is still
// accepted, and trailing "\r\n" from Windows terminals is removed. When stdin
// is a terminal, passphrases are read without echo.
package input

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/ksyq12/heroku-auto-ssl/internal/output"
)

// Prompter asks the user questions on in and writes prompts to out
type Prompter struct {
	in  *bufio.Reader
	out io.Writer

	// readSecret reads a line without echo; nil means read from in
	readSecret func() (string, error)
}

// NewPrompter creates a Prompter reading answers from in
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: bufio.NewReader(in), out: out}
}

// NewTerminalPrompter creates a Prompter on stdin with colored prompts on
// stderr
func NewTerminalPrompter() *Prompter {
	p := NewPrompter(os.Stdin, output.PromptWriter(os.Stderr))
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		p.readSecret = func() (string, error) {
			b, err := term.ReadPassword(fd)
			fmt.Fprintln(p.out)
			return string(b), err
		}
	}
	return p
}

// Ask prints question and returns the trimmed answer
func (p *Prompter) Ask(question string) (string, error) {
	fmt.Fprintf(p.out, "%s ", question)
	line, err := p.line()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// Choose asks question with the given choices and returns the index of the
// selected one. The default choice is shown upper-cased and selected on empty
// input. Unknown answers repeat the question.
func (p *Prompter) Choose(question string, choices []string, defaultIdx int) (int, error) {
	labels := make([]string, len(choices))
	for i, c := range choices {
		if i == defaultIdx {
			labels[i] = strings.ToUpper(c)
		} else {
			labels[i] = strings.ToLower(c)
		}
	}
	prompt := fmt.Sprintf("%s [%s]", question, strings.Join(labels, "/"))

	for {
		answer, err := p.Ask(prompt)
		if err != nil {
			return -1, err
		}
		if answer == "" && defaultIdx >= 0 && defaultIdx < len(choices) {
			return defaultIdx, nil
		}
		for i, c := range choices {
			if strings.EqualFold(answer, c) {
				return i, nil
			}
		}
	}
}

// Confirm asks a yes/no question where an empty answer means yes
func (p *Prompter) Confirm(question string) (bool, error) {
	idx, err := p.Choose(question, []string{"y", "n"}, 0)
	if err != nil {
		return false, err
	}
	return idx == 0, nil
}

// Passphrase asks for the passphrase of keyID. Surrounding spaces are part
// of the passphrase; only the line ending is removed.
func (p *Prompter) Passphrase(keyID string) (string, error) {
	fmt.Fprintf(p.out, "Please enter the password for key %s (Not stored): ", keyID)
	if p.readSecret != nil {
		return p.readSecret()
	}
	return p.line()
}

// line reads one line without its line ending. io.EOF is only returned
// when nothing was read.
func (p *Prompter) line() (string, error) {
	s, err := p.in.ReadString('\n')
	if err != nil && (err != io.EOF || s == "") {
		return "", err
	}
	return strings.TrimRight(s, "\r\n"), nil
}
