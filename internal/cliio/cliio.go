package cliio

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/e-mit/gitscan/internal/tableutil"
)

// Prompter asks interactive questions on one buffered input stream.
// Consecutive prompts must share the reader: a fresh bufio.Reader per
// question would swallow input buffered past the first newline.
type Prompter struct {
	out io.Writer
	in  *bufio.Reader
}

// NewPrompter builds a Prompter writing prompts to out and reading
// answers from in.
func NewPrompter(out io.Writer, in io.Reader) *Prompter {
	return &Prompter{out: out, in: bufio.NewReader(in)}
}

// Line writes prompt and reads one trimmed line. It backs the
// first-run question for the directory to scan.
func (p *Prompter) Line(prompt string) (string, error) {
	if _, err := fmt.Fprint(p.out, prompt); err != nil {
		return "", err
	}
	line, err := p.in.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// YesNo writes prompt and reads a yes/no answer. Anything other than
// y/yes, EOF included, reads as no.
func (p *Prompter) YesNo(prompt string) (bool, error) {
	line, err := p.Line(prompt)
	if err != nil {
		return false, err
	}
	choice := strings.ToLower(line)
	return choice == "y" || choice == "yes", nil
}

// WriteTable renders a simple tab-separated table with optional headers.
func WriteTable(out io.Writer, stripEscape bool, noHeaders bool, headers []string, rows [][]string) error {
	w := tableutil.New(out, stripEscape)
	if !noHeaders {
		if _, err := fmt.Fprintln(w, strings.Join(headers, "\t")); err != nil {
			return err
		}
	}
	for _, row := range rows {
		if _, err := fmt.Fprintln(w, strings.Join(row, "\t")); err != nil {
			return err
		}
	}
	return w.Flush()
}
