package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/unkn0wn-root/nethop/internal/initcmd"
)

func handleInitSubcommand(args []string, stdout, stderr io.Writer) (bool, error) {
	if len(args) == 0 || args[0] != "init" {
		return false, nil
	}
	if len(args) == 1 && initTargetExists() {
		return true, fmt.Errorf(
			"init: found file named \"init\" in the current directory; use `nethop ./init` to run it, or pass a flag like `nethop init -dir .` to run init",
		)
	}
	return true, runInit(args[1:], stdout, stderr)
}

func initTargetExists() bool {
	info, err := os.Stat("init")
	if err != nil {
		return false
	}
	return !info.IsDir()
}

func runInit(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.Usage = func() {
		fmt.Fprintln(stderr, "Usage: nethop init [flags] [dir]")
		fmt.Fprintln(stderr, "")
		fmt.Fprintln(stderr, "Flags:")
		fs.SetOutput(stderr)
		fs.PrintDefaults()
		fmt.Fprintln(stderr, "")
		fmt.Fprintln(stderr, "Templates:")
		_ = initcmd.Run(initcmd.Opt{List: true, Out: stderr})
	}

	var (
		dir   string
		tpl   string
		force bool
		dry   bool
		list  bool
	)
	fs.StringVar(&dir, "dir", initcmd.DefaultDir, "Target directory")
	fs.StringVar(&tpl, "template", initcmd.DefaultTemplate, "Template to use")
	fs.BoolVar(&force, "force", false, "Overwrite existing files")
	fs.BoolVar(&dry, "dry-run", false, "Print actions without writing files")
	fs.BoolVar(&list, "list", false, "List available templates")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	if list {
		return initcmd.Run(initcmd.Opt{List: true, Out: stdout})
	}

	extra := fs.Args()
	if len(extra) > 0 {
		if dir == initcmd.DefaultDir && len(extra) == 1 {
			dir = extra[0]
		} else {
			return fmt.Errorf("init: unexpected args: %s", strings.Join(extra, " "))
		}
	}

	return initcmd.Run(initcmd.Opt{
		Dir:      dir,
		Template: tpl,
		Force:    force,
		DryRun:   dry,
		Out:      stdout,
	})
}
