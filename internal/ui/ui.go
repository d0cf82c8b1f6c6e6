// Package ui provides a secure fzf launcher abstraction.
// All items are piped to fzf via stdin as plain text. No preview strings or
// shell-evaluated commands ever carry remote data.
package ui

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

// ErrCancelled is returned when the user leaves fzf without choosing.
var ErrCancelled = errors.New("selection cancelled")

// fzf exits 130 on ctrl-c/esc and 1 when nothing matched.
const (
	exitNoMatch   = 1
	exitCancelled = 130
)

// Select presents items via fzf and returns the chosen index. Each line is
// prefixed with its index in a hidden column so duplicates stay distinct.
func Select(ctx context.Context, prompt string, items []string) (int, error) {
	if len(items) == 0 {
		return -1, fmt.Errorf("no items to select from")
	}

	var input strings.Builder
	for i, item := range items {
		fmt.Fprintf(&input, "%d\t%s\n", i, Line(item))
	}

	out, err := fzf(ctx, input.String(),
		"--prompt", prompt+" > ",
		"--height", "40%",
		"--reverse",
		"--with-nth", "2..",
		"--delimiter", "\t",
		"--no-multi",
		"--cycle",
	)
	if err != nil {
		return -1, err
	}
	return parseSelection(out, len(items))
}

// Input prompts for free text using fzf's --print-query.
func Input(ctx context.Context, prompt string) (string, error) {
	out, err := fzf(ctx, "",
		"--prompt", prompt+" > ",
		"--height", "10%",
		"--reverse",
		"--print-query",
		"--no-info",
	)
	// With --print-query and an empty list fzf reports "no match" even
	// though the query was printed.
	var exitErr *exec.ExitError
	if err != nil && !(errors.As(err, &exitErr) && exitErr.ExitCode() == exitNoMatch) {
		return "", err
	}

	query := strings.TrimSpace(strings.SplitN(out, "\n", 2)[0])
	if query == "" {
		return "", fmt.Errorf("no input provided")
	}
	return query, nil
}

// Line flattens s to a single fzf line. Titles scraped from pages may carry
// tabs and newlines that would break the index column.
func Line(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func fzf(ctx context.Context, input string, args ...string) (string, error) {
	path, err := exec.LookPath("fzf")
	if err != nil {
		return "", fmt.Errorf("fzf not found in PATH: %w", err)
	}

	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Stdin = strings.NewReader(input)
	cmd.Stderr = os.Stderr
	var stdout bytes.Buffer
	cmd.Stdout = &stdout

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			if exitErr.ExitCode() == exitCancelled {
				return "", ErrCancelled
			}
			return stdout.String(), err
		}
		return "", fmt.Errorf("fzf failed: %w", err)
	}
	return stdout.String(), nil
}

func parseSelection(out string, n int) (int, error) {
	selected := strings.TrimSpace(out)
	if selected == "" {
		return -1, ErrCancelled
	}
	field, _, _ := strings.Cut(selected, "\t")
	idx, err := strconv.Atoi(field)
	if err != nil {
		return -1, fmt.Errorf("parsing selection index: %w", err)
	}
	if idx < 0 || idx >= n {
		return -1, fmt.Errorf("selection index %d out of range", idx)
	}
	return idx, nil
}
