package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"

	"github.com/unkn0wn-root/nethop/internal/config"
	"github.com/unkn0wn-root/nethop/internal/filesvc"
	"github.com/unkn0wn-root/nethop/internal/history"
	"github.com/unkn0wn-root/nethop/internal/pager"
	"github.com/unkn0wn-root/nethop/internal/parser"
	"github.com/unkn0wn-root/nethop/internal/prompt"
	"github.com/unkn0wn-root/nethop/internal/render"
	"github.com/unkn0wn-root/nethop/internal/runner"
	"github.com/unkn0wn-root/nethop/internal/telemetry"
	"github.com/unkn0wn-root/nethop/internal/theme"
	"github.com/unkn0wn-root/nethop/internal/tlsconfig"
	"github.com/unkn0wn-root/nethop/internal/wire"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("nethop: ")
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

type cli struct {
	filePath    string
	workspace   string
	yes         bool
	noColor     bool
	pagerMode   string
	historyN    int
	showVersion bool
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if handled, err := handleInitSubcommand(args, stdout, stderr); handled {
		return exitCode(stderr, err)
	}

	var opts cli
	fs := flag.NewFlagSet("nethop", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.filePath, "file", "", "Path to a .hop script")
	fs.StringVar(&opts.workspace, "workspace", "", "Directory containing the .nethop workspace (default: current directory)")
	fs.BoolVar(&opts.yes, "yes", false, "Run without asking for confirmation")
	fs.BoolVar(&opts.noColor, "no-color", false, "Disable coloured output")
	fs.StringVar(&opts.pagerMode, "pager", "", "Show responses in a pager: auto, always or never")
	fs.IntVar(&opts.historyN, "history", 0, "Print the latest N recorded runs and exit")
	fs.BoolVar(&opts.showVersion, "version", false, "Show nethop version")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	if opts.showVersion {
		fmt.Fprintf(stdout, "nethop %s\n", version)
		fmt.Fprintf(stdout, "  commit: %s\n", commit)
		fmt.Fprintf(stdout, "  built:  %s\n", date)
		return 0
	}
	if opts.filePath == "" && fs.NArg() > 0 {
		opts.filePath = fs.Arg(0)
	}

	settings, _, err := config.LoadSettings(config.Dir())
	if err != nil {
		log.Printf("settings load error: %v", err)
	}
	if opts.pagerMode != "" {
		mode, err := config.ParsePager(opts.pagerMode)
		if err != nil {
			return exitCode(stderr, err)
		}
		settings.Output.Pager = mode
	}
	if opts.noColor || !settings.Output.ColorEnabled() || !isTerminal(stdout) {
		lipgloss.SetColorProfile(termenv.Ascii)
	}

	if opts.historyN > 0 {
		return exitCode(stderr, printHistory(stdout, settings, opts.historyN))
	}
	return exitCode(stderr, execute(context.Background(), opts, settings, stdin, stdout))
}

func execute(ctx context.Context, opts cli, settings config.Settings, stdin io.Reader, stdout io.Writer) error {
	th := theme.ApplyColors(theme.DefaultTheme(), settings.Colors)
	console := render.New(render.Options{
		Out:       stdout,
		Theme:     th,
		Highlight: settings.Output.HighlightEnabled() && !opts.noColor,
		Pager:     choosePager(settings.Output.Pager, stdin, stdout, th),
	})
	console.Banner(version)

	script, source, err := loadScript(opts, console)
	if err != nil {
		return err
	}
	target, reqs, err := parser.Parse(script)
	if err != nil {
		return err
	}
	console.Prepared(target, len(reqs))

	if !opts.yes {
		ok, err := prompt.Confirm(stdin, stdout, prompt.Question, th)
		if err != nil {
			return err
		}
		if !ok {
			console.Cancelled()
			return nil
		}
	}

	tlsCfg, err := tlsconfig.Build(settings.TLS, config.Dir())
	if err != nil {
		return err
	}

	tracer, shutdown, err := telemetry.Setup(ctx, telemetry.ConfigFromEnv(os.Getenv), version)
	if err != nil {
		log.Printf("telemetry disabled: %v", err)
	} else {
		defer func() {
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(flushCtx); err != nil {
				log.Printf("telemetry shutdown error: %v", err)
			}
		}()
	}

	console.Connecting(target)
	conn, err := wire.Dial(ctx, target, wire.Options{TLS: tlsCfg})
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()
	console.Connected(conn.Target(), conn.Secure())

	started := time.Now()
	report, runErr := runner.New(
		runner.WithReporter(console),
		runner.WithTracer(tracer),
	).Run(ctx, conn, reqs)
	console.BatchReport(report)

	if settings.History.IsEnabled() {
		store := history.NewStore(config.HistoryPath(), settings.History.MaxEntries)
		if err := store.Append(history.NewEntry(source, target, report, runErr, started)); err != nil {
			log.Printf("history append error: %v", err)
		}
	}
	return runErr
}

// loadScript returns the script text and a label naming where it came from.
func loadScript(opts cli, console *render.Console) (string, string, error) {
	if opts.filePath != "" {
		script, err := filesvc.ReadScriptFile(opts.filePath)
		if err != nil {
			return "", "", err
		}
		return script, filepath.Clean(opts.filePath), nil
	}

	root := opts.workspace
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", "", fmt.Errorf("resolve working directory: %w", err)
		}
		root = wd
	}
	ws, err := filesvc.LoadWorkspace(root)
	if err != nil {
		return "", "", err
	}
	console.WorkspaceLoaded(ws.Files)
	return ws.Script, ws.Dir, nil
}

func choosePager(mode string, stdin io.Reader, stdout io.Writer, th theme.Theme) render.Pager {
	switch mode {
	case config.PagerAlways:
		return pager.New(stdin, stdout, th)
	case config.PagerAuto:
		if isTerminal(stdin) && isTerminal(stdout) {
			return pager.New(stdin, stdout, th)
		}
	}
	return nil
}

func isTerminal(v any) bool {
	f, ok := v.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func exitCode(stderr io.Writer, err error) int {
	if err == nil {
		return 0
	}
	fmt.Fprintf(stderr, "error: %v\n", err)
	return 1
}
