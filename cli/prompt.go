package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fahmaliyi/credvault/vault"
	"golang.org/x/term"
)

// ErrAborted is returned when the user enters an empty master password.
var ErrAborted = errors.New("empty password, aborting")

// Prompter supplies the interactive input the commands need.
type Prompter interface {
	Password(prompt string) ([]byte, error)
	Text(prompt string) (string, error)
}

type termPrompter struct {
	in  *bufio.Reader
	out io.Writer
	fd  int
	tty bool
}

// NewTermPrompter reads from in, masking password input when in is a terminal.
func NewTermPrompter(in *os.File, out io.Writer) Prompter {
	fd := int(in.Fd())
	return &termPrompter{
		in:  bufio.NewReader(in),
		out: out,
		fd:  fd,
		tty: term.IsTerminal(fd),
	}
}

func (p *termPrompter) Password(prompt string) ([]byte, error) {
	fmt.Fprint(p.out, prompt)
	if !p.tty {
		line, err := p.readLine()
		return []byte(line), err
	}
	pw, err := term.ReadPassword(p.fd)
	fmt.Fprintln(p.out)
	return pw, err
}

func (p *termPrompter) Text(prompt string) (string, error) {
	fmt.Fprint(p.out, prompt)
	line, err := p.readLine()
	return strings.TrimSpace(line), err
}

// readLine strips only the line terminator, so piped passwords keep the same
// bytes term.ReadPassword would return.
func (p *termPrompter) readLine() (string, error) {
	line, err := p.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// askIfEmpty returns val, or prompts for it when the argument was not given.
func askIfEmpty(p Prompter, val, prompt string) (string, error) {
	if val != "" {
		return val, nil
	}
	return p.Text(prompt)
}

// askPassword prompts once and treats empty input as an abort.
func askPassword(p Prompter, prompt string) ([]byte, error) {
	pw, err := p.Password(prompt)
	if err != nil {
		return nil, fmt.Errorf("read password: %w", err)
	}
	if len(pw) == 0 {
		return nil, ErrAborted
	}
	return pw, nil
}

// askNewPassword prompts twice and requires both answers to match.
func askNewPassword(p Prompter, prompt string) ([]byte, error) {
	pw, err := askPassword(p, prompt)
	if err != nil {
		return nil, err
	}
	confirm, err := askPassword(p, "Repeat password: ")
	if err != nil {
		vault.Zero(pw)
		return nil, err
	}
	defer vault.Zero(confirm)
	if string(pw) != string(confirm) {
		vault.Zero(pw)
		return nil, errors.New("passwords do not match")
	}
	return pw, nil
}

// DefaultVaultPath is used when no file is configured.
func DefaultVaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	dir := filepath.Join(home, ".credvault")
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", err
	}

	return filepath.Join(dir, "store.vault"), nil
}
