package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/go-drift/fiber/cmd/fiber/internal/demo"
	"github.com/go-drift/fiber/pkg/config"
	"github.com/go-drift/fiber/pkg/core"
	"github.com/go-drift/fiber/pkg/errors"
	"github.com/go-drift/fiber/pkg/host/memdom"
	"github.com/go-drift/fiber/pkg/scheduler"
	"github.com/go-drift/fiber/pkg/storage"
)

// settleTimeout bounds how long the loop may take to go idle after an
// action.
const settleTimeout = 10 * time.Second

func init() {
	RegisterCommand(&Command{
		Name:  "render",
		Short: "Render the demo app and print HTML",
		Long: `Render the bundled demo app into an in-memory document and print the
resulting HTML.

The project directory (default: the nearest directory holding fiber.yaml
or go.mod) supplies the scheduler mode, debug flag and storage path.

Flags:
  --click LABEL    Click the button labeled LABEL (repeatable). Replaces
                   the demo's default script.
  --no-script      Do not replay the default script.
  --theme NAME     Theme passed to the demo app (default: light).
  --stats          Print root statistics after the output.`,
		Usage: "fiber render [dir] [--click LABEL]... [--no-script] [--theme NAME] [--stats]",
		Run: func(args []string, out io.Writer) error {
			return runRender(args, out, printHTML)
		},
	})
	RegisterCommand(&Command{
		Name:  "tree",
		Short: "Render the demo app and print the fiber tree",
		Long: `Render the bundled demo app like "fiber render", then print the
committed fiber tree instead of the HTML.

Accepts the same flags as "fiber render".`,
		Usage: "fiber tree [dir] [--click LABEL]... [--no-script] [--theme NAME] [--stats]",
		Run: func(args []string, out io.Writer) error {
			return runRender(args, out, printTree)
		},
	})
}

type renderOptions struct {
	dir      string
	clicks   []string
	noScript bool
	theme    string
	stats    bool
}

func parseRenderArgs(args []string) (renderOptions, error) {
	var opts renderOptions
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "--click" || arg == "--theme":
			if i+1 >= len(args) {
				return opts, fmt.Errorf("%s requires a value", arg)
			}
			i++
			if arg == "--click" {
				opts.clicks = append(opts.clicks, args[i])
			} else {
				opts.theme = args[i]
			}
		case strings.HasPrefix(arg, "--click="):
			opts.clicks = append(opts.clicks, strings.TrimPrefix(arg, "--click="))
		case strings.HasPrefix(arg, "--theme="):
			opts.theme = strings.TrimPrefix(arg, "--theme=")
		case arg == "--no-script":
			opts.noScript = true
		case arg == "--stats":
			opts.stats = true
		case strings.HasPrefix(arg, "-"):
			return opts, fmt.Errorf("unknown flag %q", arg)
		default:
			if opts.dir != "" {
				return opts, fmt.Errorf("unexpected argument %q", arg)
			}
			opts.dir = arg
		}
	}
	return opts, nil
}

// script returns the clicks to replay.
func (o renderOptions) script() []string {
	if len(o.clicks) > 0 {
		return o.clicks
	}
	if o.noScript {
		return nil
	}
	return demo.Script
}

func projectDir(dir string) (string, error) {
	if dir != "" {
		return dir, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	root, err := config.FindProjectRoot(wd)
	if err != nil {
		return wd, nil
	}
	return root, nil
}

type printer func(out io.Writer, s *session) error

func printHTML(out io.Writer, s *session) error {
	var html string
	if err := s.do(func() { html = memdom.HTML(s.container) }); err != nil {
		return err
	}
	_, err := fmt.Fprintln(out, html)
	return err
}

func printTree(out io.Writer, s *session) error {
	var tree string
	if err := s.do(func() { tree = s.root.DumpTree() }); err != nil {
		return err
	}
	_, err := io.WriteString(out, tree)
	return err
}

func runRender(args []string, out io.Writer, emit printer) error {
	opts, err := parseRenderArgs(args)
	if err != nil {
		return err
	}
	dir, err := projectDir(opts.dir)
	if err != nil {
		return err
	}
	cfg, err := config.Resolve(dir)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	handler := errors.NewLogHandler(os.Stderr)
	handler.Verbose = cfg.Verbose
	errors.SetHandler(handler)
	defer errors.SetHandler(nil)
	core.SetDebugMode(cfg.Debug)

	var rootOpts []core.Option
	if cfg.StoragePath != "" {
		store, err := storage.OpenBolt(cfg.StoragePath)
		if err != nil {
			return fmt.Errorf("failed to open storage: %w", err)
		}
		defer store.Close()
		rootOpts = append(rootOpts, core.WithStore(store))
	}

	s := newSession(cfg)
	defer s.close()

	if err := s.do(func() {
		s.root = core.NewRoot(s.doc, s.container, append(rootOpts, core.WithProvider(s.provider))...)
		s.root.Render(core.C(demo.App, core.Props{"theme": opts.theme}))
	}); err != nil {
		return err
	}
	for _, label := range opts.script() {
		if err := s.click(label); err != nil {
			return err
		}
	}

	if err := emit(out, s); err != nil {
		return err
	}
	if opts.stats {
		return writeStats(out, s, cfg.Mode)
	}
	return nil
}

func writeStats(out io.Writer, s *session, mode string) error {
	var stats core.Stats
	if err := s.do(func() { stats = s.root.Stats() }); err != nil {
		return err
	}
	fmt.Fprintf(out, "mode=%s passes=%d commits=%d slices=%d units=%d\n",
		mode, stats.Passes, stats.Commits, stats.Slices, stats.Units)
	return nil
}

// session owns a document and the provider driving its root. Every
// access to the root goes through do, which runs on the provider's
// goroutine and waits until the provider is idle.
type session struct {
	doc       *memdom.Document
	container *memdom.Node
	root      *core.Root
	provider  scheduler.Provider

	run   func(fn func()) error
	close func()
}

func newSession(cfg *config.Resolved) *session {
	doc := memdom.NewDocument()
	s := &session{doc: doc, container: doc.CreateContainer("main")}

	if cfg.Mode == config.ModeSync {
		p := scheduler.NewSync()
		s.provider = p
		s.run = func(fn func()) error {
			fn()
			p.RunPosted()
			return p.Err()
		}
		s.close = func() {}
		return s
	}

	loop := scheduler.NewLoop(cfg.LoopConfig())
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	var runErr error
	go func() {
		runErr = loop.Run(ctx)
		close(stopped)
	}()

	s.provider = loop
	s.run = func(fn func()) error {
		loop.Post(fn)
		waitCtx, waitCancel := context.WithTimeout(ctx, settleTimeout)
		defer waitCancel()
		if err := loop.WaitIdle(waitCtx); err != nil {
			if errors.Is(err, scheduler.ErrLoopStopped) {
				<-stopped
				return runErr
			}
			return err
		}
		return nil
	}
	s.close = func() {
		cancel()
		<-stopped
	}
	return s
}

// do runs fn, waits for the work it schedules, and reports a failure of
// the provider or the root.
func (s *session) do(fn func()) error {
	if err := s.run(fn); err != nil {
		return err
	}
	var err error
	if runErr := s.run(func() {
		if s.root != nil {
			err = s.root.Err()
		}
	}); runErr != nil {
		return runErr
	}
	return err
}

func (s *session) click(label string) error {
	var found bool
	err := s.do(func() {
		buttons := memdom.FindAll(s.container, func(n *memdom.Node) bool {
			return n.Type == memdom.ElementNode && n.Tag == "button" && n.TextContent() == label
		})
		if len(buttons) > 0 {
			found = true
			s.doc.Dispatch(buttons[0], "click", nil)
		}
	})
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("no button labeled %q", label)
	}
	return nil
}
