// Package prompt asks the user for a single yes or no answer before a batch
// runs. Anything other than an explicit yes declines.
package prompt

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/unkn0wn-root/nethop/internal/errdef"
	"github.com/unkn0wn-root/nethop/internal/theme"
)

const Question = "Queries prepared, start execution?"

// Confirm uses an interactive prompt when in is a terminal and falls back to
// reading one line otherwise.
func Confirm(in io.Reader, out io.Writer, question string, th theme.Theme) (bool, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return confirmInteractive(in, out, question, th)
	}
	return ConfirmLine(in, out, question)
}

func ConfirmLine(in io.Reader, out io.Writer, question string) (bool, error) {
	fmt.Fprintf(out, "%s [y/N]: ", question)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, errdef.Wrap(errdef.CodeUnknown, err, "read confirmation")
	}
	return isYes(line), nil
}

func isYes(answer string) bool {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

func confirmInteractive(in io.Reader, out io.Writer, question string, th theme.Theme) (bool, error) {
	prog := tea.NewProgram(newModel(question, th), tea.WithInput(in), tea.WithOutput(out))
	final, err := prog.Run()
	if err != nil {
		return false, errdef.Wrap(errdef.CodeUnknown, err, "confirmation prompt")
	}
	m, ok := final.(model)
	return ok && m.accepted, nil
}

var (
	yesKeys = key.NewBinding(key.WithKeys("y", "Y"))
	noKeys  = key.NewBinding(key.WithKeys("n", "N", "enter", "esc", "q", "ctrl+c"))
)

type model struct {
	question string
	th       theme.Theme
	accepted bool
	done     bool
}

func newModel(question string, th theme.Theme) model {
	return model{question: question, th: th}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok || m.done {
		return m, nil
	}
	switch {
	case key.Matches(keyMsg, yesKeys):
		m.accepted = true
		m.done = true
		return m, tea.Quit
	case key.Matches(keyMsg, noKeys):
		m.done = true
		return m, tea.Quit
	}
	return m, nil
}

func (m model) View() string {
	if m.done {
		answer := m.th.Error.Render("no")
		if m.accepted {
			answer = m.th.Success.Render("yes")
		}
		return fmt.Sprintf("%s %s\n", m.question, answer)
	}
	return fmt.Sprintf("%s %s ", m.question, m.th.Muted.Render("[y/N]"))
}
