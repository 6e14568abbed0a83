// Package fix writes refactored code back into source files. The Applier
// replaces a line range (or the whole file) while keeping the file confined
// to a root directory, and the Confirmer asks before anything is written.
package fix

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Edit replaces lines StartLine..EndLine (1-based, inclusive) of FilePath with
// Code. A zero range addresses the whole file.
type Edit struct {
	FilePath  string
	StartLine int
	EndLine   int
	Code      string
}

// WholeFile reports whether the edit addresses the entire file.
func (e *Edit) WholeFile() bool {
	return e.StartLine == 0 && e.EndLine == 0
}

// Location formats the edit target as path or path:start-end.
func (e *Edit) Location() string {
	if e.WholeFile() {
		return e.FilePath
	}
	if e.StartLine == e.EndLine {
		return fmt.Sprintf("%s:%d", e.FilePath, e.StartLine)
	}
	return fmt.Sprintf("%s:%d-%d", e.FilePath, e.StartLine, e.EndLine)
}

// ParseLines parses a line range given as "start:end" or a single "line".
// An empty string selects the whole file.
func ParseLines(s string) (start, end int, err error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, 0, nil
	}
	first, last, found := strings.Cut(s, ":")
	start, err = strconv.Atoi(strings.TrimSpace(first))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid line range %q: %w", s, err)
	}
	end = start
	if found {
		end, err = strconv.Atoi(strings.TrimSpace(last))
		if err != nil {
			return 0, 0, fmt.Errorf("invalid line range %q: %w", s, err)
		}
	}
	if start < 1 {
		return 0, 0, fmt.Errorf("start line must be >= 1, got %d", start)
	}
	if end < start {
		return 0, 0, fmt.Errorf("end line (%d) must be >= start line (%d)", end, start)
	}
	return start, end, nil
}

// Applier handles applying edits to files within a root directory.
type Applier struct {
	root string
}

// NewApplier creates a new Applier that only modifies files within root.
func NewApplier(root string) *Applier {
	return &Applier{root: root}
}

// Read returns the current content addressed by the edit.
func (a *Applier) Read(e *Edit) (string, error) {
	content, err := a.load(e.FilePath)
	if err != nil {
		return "", err
	}
	if e.WholeFile() {
		return content, nil
	}
	lines, err := splitRange(content, e)
	if err != nil {
		return "", err
	}
	return strings.Join(lines[e.StartLine-1:e.EndLine], "\n"), nil
}

// Apply writes the edit, preserving the file's permissions.
func (a *Applier) Apply(e *Edit) error {
	content, err := a.load(e.FilePath)
	if err != nil {
		return err
	}

	info, err := os.Stat(e.FilePath)
	if err != nil {
		return fmt.Errorf("failed to stat file: %w", err)
	}
	perm := info.Mode().Perm()

	var newContent string
	if e.WholeFile() {
		newContent = e.Code
		if strings.HasSuffix(content, "\n") && !strings.HasSuffix(newContent, "\n") {
			newContent += "\n"
		}
	} else {
		lines, err := splitRange(content, e)
		if err != nil {
			return err
		}
		var newLines []string
		newLines = append(newLines, lines[:e.StartLine-1]...)
		newLines = append(newLines, strings.TrimSuffix(e.Code, "\n"))
		newLines = append(newLines, lines[e.EndLine:]...)
		newContent = strings.Join(newLines, "\n")
	}

	if err := os.WriteFile(e.FilePath, []byte(newContent), perm); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

// load validates the path against root and reads the file.
func (a *Applier) load(path string) (string, error) {
	if path == "" {
		return "", errors.New("no file given")
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("invalid file path: %w", err)
	}
	absRoot, err := filepath.Abs(a.root)
	if err != nil {
		return "", fmt.Errorf("invalid root path: %w", err)
	}
	if !strings.HasPrefix(absPath, absRoot+string(filepath.Separator)) && absPath != absRoot {
		return "", fmt.Errorf("file %s is outside root directory %s", path, a.root)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}
	return string(content), nil
}

// splitRange splits content into lines and validates the edit's range.
func splitRange(content string, e *Edit) ([]string, error) {
	lines := strings.Split(content, "\n")

	if e.StartLine < 1 {
		return nil, fmt.Errorf("start line must be >= 1, got %d", e.StartLine)
	}
	if e.EndLine < e.StartLine {
		return nil, fmt.Errorf("end line (%d) must be >= start line (%d)", e.EndLine, e.StartLine)
	}
	// A trailing newline leaves an empty final element that is not a line.
	maxLine := len(lines)
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		maxLine = len(lines) - 1
	}
	if e.EndLine > maxLine {
		return nil, fmt.Errorf("end line (%d) exceeds file length (%d)", e.EndLine, maxLine)
	}
	return lines, nil
}
