// Package ui holds the terminal front-ends: an fzf picker, the download
// monitor and the console banner used for dry runs.
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

// ErrCancelled means the user dismissed the picker.
var ErrCancelled = errors.New("selection cancelled")

// Select presents items via fzf and returns the selected item's index.
// Items are piped as plain text on stdin; nothing is shell-evaluated.
func Select(ctx context.Context, prompt string, items []string) (int, error) {
	if len(items) == 0 {
		return -1, fmt.Errorf("no items to select from")
	}

	fzfPath, err := exec.LookPath("fzf")
	if err != nil {
		return -1, fmt.Errorf("fzf not found in PATH: %w", err)
	}

	cmd := exec.CommandContext(ctx, fzfPath,
		"--prompt", prompt+" > ",
		"--height", "40%",
		"--reverse",
		"--with-nth", "2..", // hide the index column
		"--delimiter", "\t",
		"--no-multi",
		"--cycle",
	)
	cmd.Stdin = strings.NewReader(numbered(items))
	cmd.Stderr = os.Stderr

	var stdout bytes.Buffer
	cmd.Stdout = &stdout

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() == 130 {
			return -1, ErrCancelled
		}
		return -1, fmt.Errorf("fzf failed: %w", err)
	}
	return parseSelection(stdout.String(), len(items))
}

// Confirm asks a yes/no question via fzf.
func Confirm(ctx context.Context, prompt string) (bool, error) {
	idx, err := Select(ctx, prompt, []string{"Yes", "No"})
	if err != nil {
		return false, err
	}
	return idx == 0, nil
}

func numbered(items []string) string {
	var b strings.Builder
	for i, item := range items {
		// a tab or newline in an item would break the column layout
		item = strings.NewReplacer("\t", " ", "\n", " ").Replace(item)
		fmt.Fprintf(&b, "%d\t%s\n", i, item)
	}
	return b.String()
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
