// Package prompt asks the operator questions on the terminal.
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/peterh/liner"

	"github.com/starford/readlog/internal/apperr"
)

// maxAttempts bounds how often a yes/no or choice question is repeated
// after an unrecognised answer.
const maxAttempts = 3

// Prompter is the operator conversation used by interactive commands.
type Prompter interface {
	// Line asks for free text. An empty answer returns def.
	Line(question, def string) (string, error)
	// Confirm asks a yes/no question. An empty answer returns def.
	Confirm(question string, def bool) (bool, error)
	// Choose asks the operator to pick one option and returns its index.
	Choose(question string, options []string) (int, error)
	// Say prints a message to the operator.
	Say(format string, args ...any)
}

// Session implements Prompter on top of a line reader.
type Session struct {
	read  func(prompt string) (string, error)
	out   io.Writer
	close func() error
}

var _ Prompter = (*Session)(nil)

// New returns a liner-backed session when in is a terminal and a plain
// line-reading session otherwise (piped answers, scripts).
func New(in *os.File, out io.Writer) *Session {
	if isatty.IsTerminal(in.Fd()) || isatty.IsCygwinTerminal(in.Fd()) {
		return NewTerminal(out)
	}
	return NewScript(in, out)
}

// NewTerminal returns a session with readline-style editing.
func NewTerminal(out io.Writer) *Session {
	l := liner.NewLiner()
	l.SetCtrlCAborts(true)
	return &Session{
		read: func(p string) (string, error) {
			line, err := l.Prompt(p)
			if err != nil {
				if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
					return "", apperr.ErrCancelled
				}
				return "", fmt.Errorf("prompt: read input: %w", err)
			}
			return line, nil
		},
		out:   out,
		close: l.Close,
	}
}

// NewScript returns a session reading one answer per line from in.
func NewScript(in io.Reader, out io.Writer) *Session {
	sc := bufio.NewScanner(in)
	return &Session{
		read: func(p string) (string, error) {
			fmt.Fprint(out, p)
			if !sc.Scan() {
				if err := sc.Err(); err != nil {
					return "", fmt.Errorf("prompt: read input: %w", err)
				}
				return "", apperr.ErrCancelled
			}
			fmt.Fprintln(out)
			return sc.Text(), nil
		},
		out:   out,
		close: func() error { return nil },
	}
}

// Close restores the terminal.
func (s *Session) Close() error {
	return s.close()
}

// Say prints a line to the operator.
func (s *Session) Say(format string, args ...any) {
	fmt.Fprintf(s.out, format+"\n", args...)
}

// Line implements Prompter.
func (s *Session) Line(question, def string) (string, error) {
	p := question + ": "
	if def != "" {
		p = fmt.Sprintf("%s [%s]: ", question, def)
	}
	answer, err := s.read(p)
	if err != nil {
		return "", err
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return def, nil
	}
	return answer, nil
}

// Confirm implements Prompter.
func (s *Session) Confirm(question string, def bool) (bool, error) {
	hint := "y/N"
	if def {
		hint = "Y/n"
	}
	for range maxAttempts {
		answer, err := s.read(fmt.Sprintf("%s (%s): ", question, hint))
		if err != nil {
			return false, err
		}
		switch strings.ToLower(strings.TrimSpace(answer)) {
		case "":
			return def, nil
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}
		s.Say("Please answer yes or no.")
	}
	return false, fmt.Errorf("prompt: %w: no valid answer to %q", apperr.ErrValidation, question)
}

// Choose implements Prompter. The operator may answer with the option
// number or its full label.
func (s *Session) Choose(question string, options []string) (int, error) {
	if len(options) == 0 {
		return 0, fmt.Errorf("prompt: no options for %q", question)
	}
	s.Say("%s", question)
	for i, o := range options {
		s.Say("  %d) %s", i+1, o)
	}
	for range maxAttempts {
		answer, err := s.read(fmt.Sprintf("Choose 1-%d: ", len(options)))
		if err != nil {
			return 0, err
		}
		answer = strings.TrimSpace(answer)
		if n, err := strconv.Atoi(answer); err == nil && n >= 1 && n <= len(options) {
			return n - 1, nil
		}
		for i, o := range options {
			if strings.EqualFold(answer, o) {
				return i, nil
			}
		}
		s.Say("Unrecognised choice %q.", answer)
	}
	return 0, fmt.Errorf("prompt: %w: no valid choice for %q", apperr.ErrValidation, question)
}
