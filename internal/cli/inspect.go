package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/muesli/termenv"
	"golang.org/x/term"

	"github.com/aretw0/vizkit/internal/presentation/treeview"
)

// InspectOptions controls the inspect command.
type InspectOptions struct {
	// Once prints a single snapshot and returns.
	Once bool
	// Markdown renders snapshots through glamour instead of the plain tree.
	Markdown bool
	// All expands every composite node.
	All bool
	// Trees limits output to these names. Empty means all.
	Trees []string
}

// Inspect prints the watched trees, refreshing every configured interval until ctx is done.
func Inspect(ctx context.Context, app *App, w io.Writer, opts InspectOptions) error {
	if opts.Once {
		if err := app.Snapshot(time.Now()); err != nil {
			app.Logger.Warn("snapshot incomplete", "err", err)
		}
		return render(app, w, opts, false)
	}

	interactive := false
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		interactive = true
		treeview.PrintBanner(w)
	}
	if app.demo != nil {
		go app.demo.Run(ctx, app.Config.Interval)
	}

	ticker := time.NewTicker(app.Config.Interval)
	defer ticker.Stop()
	for {
		if _, err := app.Inspector.Tick(time.Now()); err != nil {
			app.Logger.Warn("tick failed", "err", err)
		}
		if err := render(app, w, opts, interactive); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func render(app *App, w io.Writer, opts InspectOptions, clear bool) error {
	var frame strings.Builder
	var md strings.Builder
	r := treeview.New(w)
	r.ExpandAll = opts.All

	for _, s := range app.Inspector.Trees() {
		if !selected(opts.Trees, s.Name) {
			continue
		}
		view, err := app.Inspector.Tree(s.Name)
		if err != nil {
			fmt.Fprintf(&frame, "%s: %v\n\n", s.Name, err)
			fmt.Fprintf(&md, "## %s\n\n_%v_\n\n", s.Name, err)
			continue
		}
		frame.WriteString(r.Tree(s.Name, view) + "\n")
		md.WriteString(treeview.Markdown(s.Name, view) + "\n")
	}
	if app.Inspector.PendingEdits() {
		printSystemMessage(&frame, "edits pending")
	}

	out := frame.String()
	if opts.Markdown {
		out = md.String()
		if renderMarkdown, err := treeview.NewMarkdownRenderer(); err == nil {
			if styled, err := renderMarkdown(out); err == nil {
				out = styled
			}
		}
	}
	if clear {
		termenv.NewOutput(w).ClearScreen()
	}
	_, err := io.WriteString(w, out)
	return err
}

func selected(names []string, name string) bool {
	if len(names) == 0 {
		return true
	}
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}
