package initcmd

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// Command runs the init command with an injectable filesystem.
type Command struct {
	fs  FS
	out io.Writer
}

func New() *Command {
	return &Command{fs: OSFS{}, out: os.Stdout}
}

func Run(o Opt) error {
	return New().Run(o)
}

func (c *Command) Run(o Opt) error {
	o = withDefaults(o)
	if o.Out == nil {
		o.Out = c.out
	}

	if o.List {
		return listTemplates(o.Out)
	}

	tpl, ok := findTemplate(o.Template)
	if !ok {
		return fmt.Errorf("init: unknown template %q (available: %s)", o.Template, strings.Join(templateNames(), ", "))
	}

	r := runner{fs: c.fs, o: o, t: tpl}
	return r.run()
}

func listTemplates(w io.Writer) error {
	width := 0
	for _, t := range templates {
		width = max(width, len(t.Name))
	}
	for _, t := range templates {
		if _, err := fmt.Fprintf(w, "%-*s  %s\n", width, t.Name, t.Description); err != nil {
			return fmt.Errorf("init: list templates: %w", err)
		}
	}
	return nil
}
