package main

import (
	"fmt"
	"os"

	"golang.org/x/term"
)

// termPrompter implements aes256filter.Prompter against the controlling
// terminal, echo disabled, mirroring askPassphrase.
type termPrompter struct{}

func (termPrompter) Prompt(label string) ([]byte, error) {
	defer func() { _, _ = fmt.Fprintln(os.Stderr) }()

	_, _ = fmt.Fprint(os.Stderr, label)

	return term.ReadPassword(int(os.Stdin.Fd()))
}
