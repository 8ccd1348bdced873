// Package cmdutil holds helpers shared by the bouncer commands.
package cmdutil

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"

	"golang.org/x/term"
)

// Prompter reads passwords from In, hiding input if In is a terminal.
type Prompter struct {
	In  *os.File
	Out io.Writer

	lines *bufio.Reader
}

// NewPrompter returns a Prompter that reads os.Stdin and writes prompts to os.Stderr.
func NewPrompter() *Prompter {
	return &Prompter{In: os.Stdin, Out: os.Stderr}
}

// ReadPassword writes prompt to Out and reads a password line.
// The trailing newline is not part of the returned password.
func (self *Prompter) ReadPassword(prompt string) ([]byte, error) {
	fmt.Fprint(self.Out, prompt)

	fd := int(self.In.Fd())
	if term.IsTerminal(fd) {
		password, err := term.ReadPassword(fd)
		fmt.Fprintln(self.Out)
		if nil != err {
			return nil, wrapError(err, "failed term.ReadPassword")
		}
		return password, nil
	}

	if nil == self.lines {
		self.lines = bufio.NewReader(self.In)
	}
	line, err := self.lines.ReadBytes('\n')
	if nil != err && (!errors.Is(err, io.EOF) || 0 == len(line)) {
		return nil, wrapError(err, "failed reading password")
	}

	return bytes.TrimRight(line, "\r\n"), nil
}

// Dedent removes leading spaces of each line of multilines.
func Dedent(multilines string) string {
	var sb strings.Builder
	for line := range strings.Lines(strings.TrimRightFunc(multilines, unicode.IsSpace)) {
		sb.WriteString(strings.TrimLeftFunc(line, unicode.IsSpace))
	}
	return sb.String()
}
