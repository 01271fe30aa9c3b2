package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/knapsack/pkg/knapsack"
)

// confirmModel is a single-key y/N prompt. Anything but y declines.
type confirmModel struct {
	question string
	answered bool
	yes      bool
}

func (m confirmModel) Init() tea.Cmd {
	return nil
}

func (m confirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch strings.ToLower(msg.String()) {
		case "y":
			m.answered, m.yes = true, true
		default:
			m.answered = true
		}
		return m, tea.Quit
	}
	return m, nil
}

func (m confirmModel) View() string {
	if m.answered {
		answer := "no"
		if m.yes {
			answer = "yes"
		}
		return fmt.Sprintf("%s %s\n", m.question, StyleDim.Render(answer))
	}
	return fmt.Sprintf("%s %s ", m.question, StyleDim.Render("(y/N)"))
}

// teaConfirmer asks before building a large DP table.
type teaConfirmer struct {
	in  io.Reader
	out io.Writer
}

// newConfirmer returns a bubbletea-backed knapsack.Confirmer reading keys
// from in.
func newConfirmer(in io.Reader, out io.Writer) knapsack.Confirmer {
	return &teaConfirmer{in: in, out: out}
}

// ConfirmMemory implements knapsack.Confirmer.
func (c *teaConfirmer) ConfirmMemory(ctx context.Context, estimate, threshold uint64) (bool, error) {
	printWarningTo(c.out, "Expected memory usage: %s (threshold %s)",
		knapsack.FormatBytes(estimate), knapsack.FormatBytes(threshold))

	m := confirmModel{question: "Do you want to continue?"}
	p := tea.NewProgram(m,
		tea.WithContext(ctx),
		tea.WithInput(c.in),
		tea.WithOutput(c.out),
	)
	final, err := p.Run()
	if err != nil {
		return false, fmt.Errorf("prompt: %w", err)
	}
	return final.(confirmModel).yes, nil
}
