package auth

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// CredentialReader supplies login names and passwords to the
// authenticator
type CredentialReader interface {
	// ReadLogin prompts for and returns a login name
	ReadLogin() (string, error)
	// ReadPassword prompts for and returns a password
	ReadPassword(prompt string) (string, error)
}

// TerminalReader reads credentials interactively. When the input is a
// terminal, password echo is suppressed.
type TerminalReader struct {
	in  *bufio.Reader
	out io.Writer
	fd  int // -1 when input is not a terminal
}

// NewTerminalReader creates a TerminalReader on the given input file and
// output writer
func NewTerminalReader(in *os.File, out io.Writer) *TerminalReader {
	fd := -1
	if in != nil && term.IsTerminal(int(in.Fd())) {
		fd = int(in.Fd())
	}
	return &TerminalReader{
		in:  bufio.NewReader(in),
		out: out,
		fd:  fd,
	}
}

// ReadLogin implements CredentialReader
func (r *TerminalReader) ReadLogin() (string, error) {
	fmt.Fprint(r.out, "\nLogin: ")
	return r.readLine()
}

// ReadPassword implements CredentialReader
func (r *TerminalReader) ReadPassword(prompt string) (string, error) {
	fmt.Fprint(r.out, prompt)
	if r.fd >= 0 {
		password, err := term.ReadPassword(r.fd)
		fmt.Fprintln(r.out)
		if err != nil {
			return "", fmt.Errorf("reading password: %w", err)
		}
		return string(password), nil
	}
	return r.readLine()
}

func (r *TerminalReader) readLine() (string, error) {
	line, err := r.in.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
