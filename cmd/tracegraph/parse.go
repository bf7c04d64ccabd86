package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/randalmurphal/tracegraph/pkg/tracegraph"
	"github.com/randalmurphal/tracegraph/pkg/tracegraph/handlers"
	"github.com/randalmurphal/tracegraph/pkg/tracegraph/snapshot"
	"github.com/randalmurphal/tracegraph/pkg/tracegraph/traceevent"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
)

// fileReport is the outcome of parsing one trace file.
type fileReport struct {
	Path     string           `json:"path"`
	RunID    string           `json:"run_id"`
	Size     int64            `json:"size_bytes"`
	Events   int              `json:"events"`
	Elapsed  time.Duration    `json:"elapsed_ns"`
	Handlers []string         `json:"handlers"`
	Data     *tracegraph.Data `json:"data,omitempty"`
}

func newParseCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse FILE...",
		Short: "Parse trace files and print handler results",
		Long: `Parse one or more Chrome trace event files (JSON, optionally gzipped)
through the built-in handlers. Files are parsed concurrently, each with its
own processor and run ID.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(cmd, v, args)
		},
	}

	fs := cmd.Flags()
	addTuningFlags(fs)
	fs.Bool(flagSnapshotFatal, false, "fail the parse when a snapshot cannot be saved")
	fs.Bool(flagJSON, false, "print results as JSON")
	fs.Bool(flagOtelStdout, false, "export spans and metrics to stderr")
	fs.Int(flagConcurrency, runtime.GOMAXPROCS(0), "files parsed at once")
	return cmd
}

func runParse(cmd *cobra.Command, v *viper.Viper, paths []string) error {
	ctx := cmd.Context()
	s, err := loadSettings(v)
	if err != nil {
		return err
	}
	logger, err := newLogger(s, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	var tel *telemetry
	if v.GetBool(flagOtelStdout) {
		if tel, err = newStdoutTelemetry(cmd.ErrOrStderr()); err != nil {
			return err
		}
		defer func() {
			if err := tel.shutdown(context.WithoutCancel(ctx)); err != nil {
				logger.Warn("telemetry shutdown failed", "error", err)
			}
		}()
	}

	var store snapshot.Store
	if s.SnapshotDB != "" {
		sqlite, err := snapshot.NewSQLiteStore(s.SnapshotDB)
		if err != nil {
			return err
		}
		defer sqlite.Close()
		store = sqlite
	}

	opts := append(processorOptions(s, logger), tel.options()...)
	if store != nil {
		opts = append(opts, tracegraph.WithSnapshotStore(store))
	}

	reports := make([]*fileReport, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, v.GetInt(flagConcurrency)))
	for i, path := range paths {
		g.Go(func() error {
			r, err := parseFile(gctx, path, opts, logger)
			if err != nil {
				return err
			}
			reports[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if v.GetBool(flagJSON) {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(reports)
	}
	for _, r := range reports {
		printReport(out, r)
	}
	return nil
}

func parseFile(ctx context.Context, path string, opts []tracegraph.Option, logger *slog.Logger) (*fileReport, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	events, err := traceevent.Load(path)
	if err != nil {
		return nil, err
	}

	p, err := handlers.NewProcessor(opts...)
	if err != nil {
		return nil, err
	}
	defer p.Close()

	runID := uuid.NewString()
	var lastPct int
	var mu sync.Mutex
	sub, err := p.OnProgress(func(pe tracegraph.ProgressEvent) {
		pct := int(pe.Fraction() * 100)
		mu.Lock()
		defer mu.Unlock()
		if pct-lastPct >= 10 || pct == 100 {
			lastPct = pct
			logger.Debug("parse progress", "file", path, "run_id", pe.RunID, "percent", pct)
		}
	})
	if err != nil {
		return nil, err
	}
	defer p.RemoveEventListener(sub)

	start := time.Now()
	if err := p.Parse(ctx, events, tracegraph.WithRunID(runID)); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return &fileReport{
		Path:     path,
		RunID:    runID,
		Size:     info.Size(),
		Events:   len(events),
		Elapsed:  time.Since(start),
		Handlers: p.ExecutionOrder(),
		Data:     p.Data(),
	}, nil
}

func printReport(w io.Writer, r *fileReport) {
	fmt.Fprintf(w, "%s (%s, %s events) run %s in %s\n",
		r.Path, humanize.Bytes(uint64(r.Size)), humanize.Comma(int64(r.Events)),
		r.RunID, r.Elapsed.Round(time.Microsecond))

	if meta, ok := tracegraph.ResultOf[*handlers.MetaData](r.Data, handlers.Meta); ok {
		fmt.Fprintf(w, "  window     %d..%d us (%s us)\n",
			meta.Bounds.Min, meta.Bounds.Max, humanize.Comma(int64(meta.Bounds.Range)))
		fmt.Fprintf(w, "  processes  %d\n", len(meta.Processes))
	}
	if samples, ok := tracegraph.ResultOf[*handlers.SamplesData](r.Data, handlers.Samples); ok {
		fmt.Fprintf(w, "  profiles   %d (%s samples)\n", len(samples.Profiles), humanize.Comma(int64(samples.TotalSamples)))
	}
	if renderer, ok := tracegraph.ResultOf[*handlers.RendererData](r.Data, handlers.Renderer); ok {
		for _, t := range renderer.Threads {
			name := t.Name
			if name == "" {
				name = fmt.Sprintf("%d:%d", t.PID, t.TID)
			}
			fmt.Fprintf(w, "  thread     %s: %s events, %s us busy\n",
				name, humanize.Comma(int64(t.Events)), humanize.Comma(int64(t.TotalDur)))
		}
	}
	if shots, ok := tracegraph.ResultOf[*handlers.ScreenshotsData](r.Data, handlers.Screenshots); ok {
		fmt.Fprintf(w, "  frames     %d\n", len(shots.Frames))
	}
	if anim, ok := tracegraph.ResultOf[*handlers.AnimationData](r.Data, handlers.Animation); ok {
		fmt.Fprintf(w, "  animations %d (%d unfinished)\n", len(anim.Animations), anim.Unfinished)
	}
}
