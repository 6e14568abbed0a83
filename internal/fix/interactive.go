package fix

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Outcome is the result of a confirmation.
type Outcome int

const (
	Declined Outcome = iota
	Applied
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Applied:
		return "applied"
	case Failed:
		return "failed"
	default:
		return "declined"
	}
}

// ApplyFunc writes an edit to disk.
type ApplyFunc func(*Edit) error

// Confirmer shows a pending edit and asks the user before applying it.
type Confirmer struct {
	reader  *bufio.Reader
	writer  io.Writer
	applyFn ApplyFunc
}

// NewConfirmer creates a new Confirmer.
func NewConfirmer(reader io.Reader, writer io.Writer, applyFn ApplyFunc) *Confirmer {
	return &Confirmer{
		reader:  bufio.NewReader(reader),
		writer:  writer,
		applyFn: applyFn,
	}
}

// Run shows diff (or the replacement code when diff is empty) and applies the
// edit on approval. An empty answer approves.
func (c *Confirmer) Run(e *Edit, diff string) (Outcome, error) {
	// Write errors are intentionally ignored - if output fails, continue processing
	_, _ = fmt.Fprintln(c.writer, strings.Repeat("-", 40))
	_, _ = fmt.Fprintf(c.writer, "REFACTOR %s\n", e.Location())
	_, _ = fmt.Fprintln(c.writer, strings.Repeat("-", 40))

	if diff != "" {
		_, _ = fmt.Fprintln(c.writer, strings.TrimRight(diff, "\n"))
	} else {
		_, _ = fmt.Fprintln(c.writer, "  No changes.")
		return Declined, nil
	}

	switch c.prompt(e) {
	case "y", "yes", "":
		if err := c.applyFn(e); err != nil {
			_, _ = fmt.Fprintf(c.writer, "  ✗ Failed: %v\n", err)
			return Failed, err
		}
		_, _ = fmt.Fprintln(c.writer, "  ✓ Applied")
		return Applied, nil
	case "n", "no":
		_, _ = fmt.Fprintln(c.writer, "  - Skipped")
	default:
		_, _ = fmt.Fprintln(c.writer, "  - Skipped (invalid input)")
	}
	return Declined, nil
}

func (c *Confirmer) prompt(e *Edit) string {
	_, _ = fmt.Fprintf(c.writer, "\nWrite changes to %s? [y]es / [n]o: ", e.FilePath)
	input, err := c.reader.ReadString('\n')
	if err != nil && input == "" {
		return "n" // Treat read errors as a refusal to avoid unintended writes
	}
	return strings.ToLower(strings.TrimSpace(input))
}
