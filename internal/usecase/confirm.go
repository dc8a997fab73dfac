package usecase

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Confirmer asks a yes/no question on an interactive surface.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) (bool, error)
}

// LineConfirmer writes the prompt to Out and reads one line from In. Only a
// case-insensitive "y" is affirmative; empty input and end of input are not.
type LineConfirmer struct {
	In  io.Reader
	Out io.Writer

	reader *bufio.Reader
}

func NewLineConfirmer(in io.Reader, out io.Writer) *LineConfirmer {
	return &LineConfirmer{In: in, Out: out}
}

func (c *LineConfirmer) Confirm(ctx context.Context, prompt string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if c.reader == nil {
		c.reader = bufio.NewReader(c.In)
	}
	if _, err := fmt.Fprintf(c.Out, "%s [y/N] ", prompt); err != nil {
		return false, fmt.Errorf("failed to write prompt: %w", err)
	}
	line, err := c.reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("failed to read confirmation: %w", err)
	}
	return IsAffirmative(line), nil
}

// IsAffirmative reports whether answer means yes.
func IsAffirmative(answer string) bool {
	return strings.EqualFold(strings.TrimSpace(answer), "y")
}

// AlwaysConfirm answers every prompt affirmatively, for --yes style flags.
type AlwaysConfirm struct{}

func (AlwaysConfirm) Confirm(context.Context, string) (bool, error) { return true, nil }
