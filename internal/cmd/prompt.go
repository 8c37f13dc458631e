package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"
)

// ErrPasswordMismatch indicates the password and its confirmation differ.
// Local-only: nothing is sent to the server.
var ErrPasswordMismatch = errors.New("passwords do not match")

// ErrNothingToUpdate indicates an update command was invoked without any
// field to change. Local-only.
var ErrNothingToUpdate = errors.New("nothing to update, provide at least one field")

// stdin is shared across all prompts in one invocation. A per-prompt reader
// would buffer ahead of the line it returns and drop the surplus, breaking
// piped input that answers several prompts at once.
var stdin = bufio.NewReader(os.Stdin)

// promptPassword reads a password from the terminal without echo.
func promptPassword(label string) (string, error) {
	fmt.Fprintf(os.Stderr, "%s: ", label)
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(raw), nil
}

// promptConfirmedPassword reads a password twice and fails with
// ErrPasswordMismatch when the two entries differ.
func promptConfirmedPassword(label string) (string, error) {
	first, err := promptPassword(label)
	if err != nil {
		return "", err
	}
	second, err := promptPassword("Confirm " + strings.ToLower(label))
	if err != nil {
		return "", err
	}
	if first != second {
		return "", ErrPasswordMismatch
	}
	return first, nil
}

// promptLine reads one line of input, trimmed. An empty entry yields def.
func promptLine(label, def string) (string, error) {
	if def != "" {
		fmt.Fprintf(os.Stderr, "%s [%s]: ", label, def)
	} else {
		fmt.Fprintf(os.Stderr, "%s: ", label)
	}
	line, err := stdin.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return def, nil
	}
	return line, nil
}

// confirm asks a yes/no question and reports whether the user agreed.
func confirm(question string) bool {
	answer, err := promptLine(question+" [y/N]", "n")
	if err != nil {
		return false
	}
	answer = strings.ToLower(answer)
	return answer == "y" || answer == "yes"
}
