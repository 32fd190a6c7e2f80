package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/browser"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	"github.com/roach88/opzoom/internal/correlate"
	"github.com/roach88/opzoom/internal/graph"
	"github.com/roach88/opzoom/internal/metrics"
	"github.com/roach88/opzoom/internal/schema"
	"github.com/roach88/opzoom/internal/store"
	"github.com/roach88/opzoom/internal/timeline"
)

// ZoominOptions holds flags for the zoomin command.
type ZoominOptions struct {
	*RootOptions
	Ops         []string
	PID         int64
	Database    string
	Attr        bool
	Maximize    bool
	TimeUnit    string
	Index       bool
	OutputDir   string
	GraphFormat string
	HTML        string
	Open        bool
	MetricsFile string
	Schema      string

	// RunIDs overrides the run id generator (for testing).
	RunIDs correlate.RunIDGenerator
	// Opener shows an artifact to the user; defaults to browser.OpenFile.
	Opener func(path string) error
}

// ZoominResult is the JSON payload of the zoomin command.
type ZoominResult struct {
	*correlate.Report
	Events []timeline.Event `json:"events"`
	HTML   string           `json:"html,omitempty"`
}

// NewZoominCommand creates the zoomin command.
func NewZoominCommand(rootOpts *RootOptions) *cobra.Command {
	return newZoominCommand(&ZoominOptions{RootOptions: rootOpts})
}

func newZoominCommand(opts *ZoominOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "zoomin [op-id...]",
		Short: "Draw the cross-layer timeline of MIO operations",
		Long: `Rebuild the timeline of one or more MIO operations.

Every MIO operation is mapped to the Motr client requests it issued. Each
client request is then expanded layer by layer (DIX, IOO or COB, then CAS,
RPC and server FOMs) into partial timelines.

The output includes:
- Timeline: one block per partial timeline, times relative to the first event
- Failures: client requests no layer could build a timeline for
- Graphs: attribute graphs, one per operation (with --attr)

Examples:
  opzoom zoomin --db m0play.db --ops 42
  opzoom zoomin --db m0play.db --ops 42,43 -p 7 --attr --out graphs
  opzoom zoomin --db m0play.db 42 --html timeline.html --open -m`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runZoomin(opts, args, cmd)
		},
	}

	cmd.Flags().StringSliceVar(&opts.Ops, "ops", nil, "MIO operation ids to draw")
	cmd.Flags().Int64VarP(&opts.PID, "pid", "p", 0, "client pid to get requests for")
	cmd.Flags().StringVar(&opts.Database, "db", "", "input database file (default from config, m0play.db)")
	cmd.Flags().BoolVarP(&opts.Attr, "attr", "a", false, "create attribute graphs")
	cmd.Flags().BoolVarP(&opts.Maximize, "maximize", "m", false, "display the timeline page full width")
	cmd.Flags().StringVarP(&opts.TimeUnit, "time-unit", "u", "", "time unit (us|ms)")
	cmd.Flags().BoolVarP(&opts.Index, "index", "i", false, "create indexes before processing")
	cmd.Flags().StringVar(&opts.OutputDir, "out", "", "directory for rendered graphs")
	cmd.Flags().StringVar(&opts.GraphFormat, "graph-format", "", "graphviz output format (png|svg|...)")
	cmd.Flags().StringVar(&opts.HTML, "html", "", "write the timeline as an HTML page")
	cmd.Flags().BoolVar(&opts.Open, "open", false, "open the timeline page and graphs in the browser")
	cmd.Flags().StringVar(&opts.MetricsFile, "metrics-file", "", "write run metrics in Prometheus text format on exit")
	cmd.Flags().StringVar(&opts.Schema, "schema", "", "CUE relation schema replacing the built-in one")

	return cmd
}

// applyConfig fills unset flags from the config file.
func (o *ZoominOptions) applyConfig() {
	cfg := o.Config
	if o.Database == "" {
		o.Database = cfg.Database
	}
	if o.TimeUnit == "" {
		o.TimeUnit = cfg.TimeUnit
	}
	if o.OutputDir == "" {
		o.OutputDir = cfg.OutputDir
	}
	if o.GraphFormat == "" {
		o.GraphFormat = cfg.GraphFormat
	}
	if o.Schema == "" {
		o.Schema = cfg.Schema
	}
	if o.MetricsFile == "" {
		o.MetricsFile = cfg.MetricsFile
	}
}

func runZoomin(opts *ZoominOptions, args []string, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	opts.applyConfig()

	ops := append(append([]string{}, opts.Ops...), args...)
	if len(ops) == 0 {
		return NewExitError(ExitCommandError, "at least one operation id is required (--ops or arguments)")
	}

	unit, err := timeline.ParseUnit(opts.TimeUnit)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid --time-unit", err)
	}

	sch := schema.Default()
	if opts.Schema != "" {
		src, err := os.ReadFile(opts.Schema)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read schema", err)
		}
		if sch, err = schema.Load(string(src)); err != nil {
			return WrapExitError(ExitCommandError, "failed to load schema", err)
		}
	}

	var pid *int64
	if cmd.Flags().Changed("pid") {
		pid = &opts.PID
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()

	if opts.Index {
		n := st.CreateIndexes(ctx)
		slog.Info("indexes created", "count", n)
	}

	m := metrics.New()
	if opts.MetricsFile != "" {
		path := opts.MetricsFile
		atexit.Register(func() {
			if err := m.WriteFile(path); err != nil {
				slog.Error("error writing metrics", "path", path, "error", err)
			}
		})
	}

	corrOpts := []correlate.Option{
		correlate.WithSchema(sch),
		correlate.WithMetrics(m),
		correlate.WithRenderer(&graph.DOTRenderer{Dir: opts.OutputDir, Format: opts.GraphFormat}),
	}
	if opts.RunIDs != nil {
		corrOpts = append(corrOpts, correlate.WithRunIDs(opts.RunIDs))
	}

	rep, err := correlate.New(st, corrOpts...).Correlate(ctx, ops, pid, correlate.Options{
		BuildGraph: opts.Attr,
		Verbose:    opts.Verbose,
	})
	if err != nil {
		return WrapExitError(ExitCommandError, "correlation failed", err)
	}

	result := ZoominResult{Report: rep, Events: rep.Events()}

	htmlPath := opts.HTML
	if htmlPath == "" && opts.Open {
		htmlPath = filepath.Join(opts.OutputDir, "timeline_"+rep.RunID+".html")
	}
	if htmlPath != "" {
		if err := writePage(htmlPath, rep, ops, unit, opts.Maximize); err != nil {
			return WrapExitError(ExitCommandError, "failed to write timeline page", err)
		}
		result.HTML = htmlPath
	}

	if opts.Format == "json" {
		if err := writeJSON(cmd.OutOrStdout(), result); err != nil {
			return err
		}
	} else if err := outputZoominText(cmd, result, unit); err != nil {
		return err
	}

	if opts.Open {
		opener := opts.Opener
		if opener == nil {
			opener = browser.OpenFile
		}
		paths := []string{htmlPath}
		for _, g := range rep.Graphs {
			paths = append(paths, g.Path)
		}
		for _, p := range paths {
			if err := opener(p); err != nil {
				slog.Warn("cannot open artifact", "path", p, "error", err)
			}
		}
	}

	return nil
}

func writePage(path string, rep *correlate.Report, ops []string, unit timeline.Unit, maximize bool) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := timeline.WriteHTML(f, rep.Partials, timeline.PageOptions{
		Title:    "MIO operations " + strings.Join(ops, ", "),
		RunID:    rep.RunID,
		Unit:     unit,
		Maximize: maximize,
	}); err != nil {
		return err
	}
	return f.Close()
}

// outputZoominText writes the timeline table followed by failures and
// artifacts.
func outputZoominText(cmd *cobra.Command, result ZoominResult, unit timeline.Unit) error {
	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "Run: %s\n", result.RunID)
	fmt.Fprintf(w, "Client requests: %d resolved, %d failed\n", result.Resolved, len(result.Failures))
	fmt.Fprintln(w)

	if err := timeline.WriteTable(w, result.Partials, unit); err != nil {
		return err
	}

	if len(result.Failures) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "=== Failures ===")
		for _, f := range result.Failures {
			fmt.Fprintf(w, "  Could not build timelines for client request %s (pid: %d) of op %s\n", f.MotrOp, f.PID, f.Op)
		}
	}

	if len(result.Graphs) > 0 || result.HTML != "" {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "=== Artifacts ===")
		for _, g := range result.Graphs {
			fmt.Fprintf(w, "  graph %s: %s (%d nodes, %d edges)\n", g.Op, g.Path, g.Nodes, g.Edges)
		}
		if result.HTML != "" {
			fmt.Fprintf(w, "  timeline: %s\n", result.HTML)
		}
	}

	return nil
}
