// Package ux renders the live session to the operator and hosts the optional
// human approval gate for outbound directives.
package ux

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Console writes labeled text panels to out and reads approval answers from
// in. It satisfies both the coordinator's Renderer and Approver interfaces.
type Console struct {
	out io.Writer
	in  *bufio.Reader

	width      int
	panelStyle lipgloss.Style
	titleStyle lipgloss.Style
	askStyle   lipgloss.Style
}

// NewConsole builds a console for the given streams.
func NewConsole(out io.Writer, in io.Reader) *Console {
	return &Console{
		out:   out,
		in:    bufio.NewReader(in),
		width: 80,
		panelStyle: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(0, 1),
		titleStyle: lipgloss.NewStyle().Bold(true),
		askStyle:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11")),
	}
}

// Panel renders one labeled block of text.
func (c *Console) Panel(title, body string) {
	header := c.titleStyle.Render(strings.ToUpper(title))
	block := c.panelStyle.Width(c.width).Render(strings.TrimRight(body, "\n"))
	fmt.Fprintf(c.out, "%s\n%s\n", header, block)
}

// Approve asks the operator whether a directive may be sent. Answering "y" or
// "yes" (case-insensitive) approves; anything else denies.
func (c *Console) Approve(ctx context.Context, directive string) (bool, error) {
	fmt.Fprintf(c.out, "%s ", c.askStyle.Render(fmt.Sprintf("send %q? [y/N]", directive)))

	type answer struct {
		text string
		err  error
	}
	ch := make(chan answer, 1)
	go func() {
		line, err := c.in.ReadString('\n')
		ch <- answer{text: line, err: err}
	}()

	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case a := <-ch:
		if a.err != nil {
			return false, fmt.Errorf("read approval: %w", a.err)
		}
		switch strings.ToLower(strings.TrimSpace(a.text)) {
		case "y", "yes":
			return true, nil
		}
		return false, nil
	}
}
