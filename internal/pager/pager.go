// Package pager shows long responses in a scrollable full screen view.
package pager

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/unkn0wn-root/nethop/internal/errdef"
	"github.com/unkn0wn-root/nethop/internal/theme"
)

type Pager struct {
	in  io.Reader
	out io.Writer
	th  theme.Theme
}

func New(in io.Reader, out io.Writer, th theme.Theme) *Pager {
	return &Pager{in: in, out: out, th: th}
}

func (p *Pager) Show(title, content string) error {
	prog := tea.NewProgram(
		newModel(title, content, p.th),
		tea.WithInput(p.in),
		tea.WithOutput(p.out),
		tea.WithAltScreen(),
	)
	if _, err := prog.Run(); err != nil {
		return errdef.Wrap(errdef.CodeUnknown, err, "pager")
	}
	return nil
}

var quitKeys = key.NewBinding(
	key.WithKeys("q", "esc", "ctrl+c"),
	key.WithHelp("q", "quit"),
)

type model struct {
	title   string
	content string
	th      theme.Theme
	vp      viewport.Model
	ready   bool
}

func newModel(title, content string, th theme.Theme) model {
	return model{title: title, content: content, th: th}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if key.Matches(msg, quitKeys) {
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		height := msg.Height - lipgloss.Height(m.header()) - lipgloss.Height(m.footer())
		if height < 1 {
			height = 1
		}
		if !m.ready {
			m.vp = viewport.New(msg.Width, height)
			m.vp.SetContent(m.content)
			m.ready = true
		} else {
			m.vp.Width = msg.Width
			m.vp.Height = height
		}
	}

	var cmd tea.Cmd
	m.vp, cmd = m.vp.Update(msg)
	return m, cmd
}

func (m model) View() string {
	if !m.ready {
		return "loading..."
	}
	return strings.Join([]string{m.header(), m.vp.View(), m.footer()}, "\n")
}

func (m model) header() string {
	return m.th.Brand.Render(m.title)
}

func (m model) footer() string {
	percent := 100.0
	if m.ready {
		percent = m.vp.ScrollPercent() * 100
	}
	help := quitKeys.Help()
	return m.th.Muted.Render(fmt.Sprintf("%s %s | %3.f%%", help.Key, help.Desc, percent))
}
