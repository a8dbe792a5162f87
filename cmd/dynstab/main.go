package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/san-kum/dynstab/internal/aero"
	"github.com/san-kum/dynstab/internal/config"
	"github.com/san-kum/dynstab/internal/ingest"
	"github.com/san-kum/dynstab/internal/logging"
	"github.com/san-kum/dynstab/internal/observability"
	"github.com/san-kum/dynstab/internal/pipeline"
	"github.com/san-kum/dynstab/internal/report"
	"github.com/san-kum/dynstab/internal/stability"
	"github.com/san-kum/dynstab/internal/storage"
	"github.com/san-kum/dynstab/internal/units"
)

var (
	dataDir     string
	configFile  string
	preset      string
	logLevel    string
	logFormat   string
	metricsFile string
	traceSpans  bool
	runName     string
	launchRod   float64
	apogee      float64
	concurrency int
	// Output units
	preferred     bool
	unitOverrides []string
	// Plotting
	plotFields []string
	width      int
	height     int
	outPath    string
	dpi        int
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "dynstab",
		Short:        "rocket dynamic stability reduction",
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", config.DefaultDataDir, "data directory")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&preset, "preset", "", "use preset configuration")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format (text, json)")
	rootCmd.PersistentFlags().BoolVar(&traceSpans, "trace", false, "print reduction trace spans to stderr")
	rootCmd.PersistentFlags().BoolVar(&preferred, "preferred", false, "show fields in their family's preferred unit")
	rootCmd.PersistentFlags().StringArrayVar(&unitOverrides, "unit", nil, "output unit for a field, as field=unit (repeatable)")

	reduceCmd := &cobra.Command{
		Use:   "reduce [series.csv] [aero.csv]",
		Short: "reduce a recorded flight to stability metrics",
		Args:  cobra.ExactArgs(2),
		RunE:  reduceRun,
	}
	reduceCmd.Flags().StringVar(&runName, "name", "", "run name (default: series file name)")
	reduceCmd.Flags().Float64Var(&launchRod, "launch-rod", 0, "launch rod clearance time in seconds")
	reduceCmd.Flags().Float64Var(&apogee, "apogee", 0, "apogee time in seconds")
	reduceCmd.Flags().StringVar(&metricsFile, "metrics-file", "", "write prometheus metrics to this textfile")

	sweepCmd := &cobra.Command{
		Use:   "sweep [aero.csv] [series.csv...]",
		Short: "reduce several flights of one rocket in parallel",
		Args:  cobra.MinimumNArgs(2),
		RunE:  sweepRuns,
	}
	sweepCmd.Flags().IntVar(&concurrency, "concurrency", config.DefaultConcurrency, "runs reduced at once")
	sweepCmd.Flags().Float64Var(&launchRod, "launch-rod", 0, "launch rod clearance time in seconds")
	sweepCmd.Flags().Float64Var(&apogee, "apogee", 0, "apogee time in seconds")
	sweepCmd.Flags().StringVar(&metricsFile, "metrics-file", "", "write prometheus metrics to this textfile")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	showCmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "show a run's summary",
		Args:  cobra.ExactArgs(1),
		RunE:  showRun,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot run metrics in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringSliceVar(&plotFields, "field", []string{"dr", "nf", "sm"}, "fields to plot")
	plotCmd.Flags().IntVar(&width, "width", 80, "graph width")
	plotCmd.Flags().IntVar(&height, "height", 10, "graph height")

	renderCmd := &cobra.Command{
		Use:   "render [run_id]",
		Short: "render run metrics to PNG",
		Args:  cobra.ExactArgs(1),
		RunE:  renderRun,
	}
	renderCmd.Flags().StringSliceVar(&plotFields, "field", []string{"dr", "nf", "sm", "q"}, "fields to render")
	renderCmd.Flags().StringVar(&outPath, "out", "plots", "output directory")
	renderCmd.Flags().IntVar(&dpi, "dpi", 150, "image resolution")

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run metrics to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}
	exportCSVCmd.Flags().StringVar(&outPath, "out", "", "output file (default: stdout)")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().StringVar(&outPath, "out", "", "output file (default: stdout)")

	convertCmd := &cobra.Command{
		Use:   "convert [value] [from] [to]",
		Short: "convert a value between units",
		Args:  cobra.ExactArgs(3),
		RunE:  convertValue,
	}

	unitsCmd := &cobra.Command{
		Use:   "units [unit]",
		Short: "list units, or the units compatible with one",
		Args:  cobra.MaximumNArgs(1),
		RunE:  listUnits,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tFREQUENCY\tDAMPING\tCP")
			for _, name := range config.ListPresets() {
				p := config.GetPreset(name)
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", name, p.Convention.NaturalFrequency, p.Convention.AeroDamping, p.Convention.CPCombine)
			}
			return w.Flush()
		},
	}

	initCmd := &cobra.Command{
		Use:   "init [config.yaml]",
		Short: "write a starting config file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := config.Save(args[0], cfg); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", args[0])
			return nil
		},
	}

	rootCmd.AddCommand(reduceCmd, sweepCmd, listCmd, showCmd, plotCmd, renderCmd, exportCSVCmd, exportJSONCmd, convertCmd, unitsCmd, presetsCmd, initCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger() *slog.Logger {
	return logging.New(os.Stderr, logging.Config{Level: logLevel, Format: logFormat})
}

// loadConfig layers defaults, preset, config file and changed flags, in
// that order.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if preset != "" {
		p := config.GetPreset(preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
		cfg = p
	}

	// Config file overrides preset
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("data") || cfg.DataDir == "" {
		cfg.DataDir = dataDir
	}
	if flags.Changed("concurrency") {
		cfg.Concurrency = concurrency
	}
	if flags.Changed("launch-rod") {
		t := launchRod
		cfg.Events.LaunchRod = &t
	}
	if flags.Changed("apogee") {
		t := apogee
		cfg.Events.Apogee = &t
	}
	if flags.Changed("preferred") {
		cfg.Display.Preferred = preferred
	}
	for _, kv := range unitOverrides {
		field, unit, ok := strings.Cut(kv, "=")
		if !ok || field == "" || unit == "" {
			return nil, fmt.Errorf("invalid --unit %q, want field=unit", kv)
		}
		if cfg.Display.Units == nil {
			cfg.Display.Units = make(map[string]string)
		}
		cfg.Display.Units[field] = unit
	}
	return cfg, nil
}

func seriesName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func newCollector() (*prometheus.Registry, *observability.ReductionCollector, error) {
	reg := prometheus.NewRegistry()
	c, err := observability.NewReductionCollector(reg)
	return reg, c, err
}

func initTracing(ctx context.Context, logger *slog.Logger) (func(), error) {
	cfg := observability.DefaultTracingConfig()
	cfg.Enabled = traceSpans
	shutdown, err := observability.InitTracing(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	return func() { observability.ShutdownWithTimeout(context.Background(), shutdown, logger) }, nil
}

func writeMetrics(c *observability.ReductionCollector) error {
	if metricsFile == "" {
		return nil
	}
	return c.WriteTextfile(metricsFile)
}

func readAero(cfg *config.Config, path string, logger *slog.Logger) (*aero.Table, error) {
	tbl, err := ingest.ReadAeroFile(path, cfg.Input.Aero, logger)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	lo, hi := tbl.MachRange()
	logger.Info("aero table", "path", path, "mach_min", lo, "mach_max", hi)
	return tbl, nil
}

// prepareRun reads one recorded series and builds its calculator config.
func prepareRun(cfg *config.Config, seriesPath string, tbl *aero.Table, logger *slog.Logger) (pipeline.Run, error) {
	series, err := ingest.ReadSeriesFile(seriesPath, ingest.SeriesOptions{Columns: cfg.Input.Columns, Units: cfg.Input.Units}, logger)
	if err != nil {
		return pipeline.Run{}, fmt.Errorf("%s: %w", seriesPath, err)
	}
	ev := cfg.PhaseEvents(series.LaunchTime(), series.ApogeeTime())
	scfg, err := cfg.Stability(tbl, ev)
	if err != nil {
		return pipeline.Run{}, err
	}
	logger.Debug("series read", "path", seriesPath, "rows", len(series.Samples), "skipped", series.Skipped,
		"launch_rod", ev.LaunchRod, "apogee", ev.Apogee)
	return pipeline.Run{Name: seriesName(seriesPath), Config: scfg, Samples: series.Samples}, nil
}

func reduceRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := newLogger()

	tbl, err := readAero(cfg, args[1], logger)
	if err != nil {
		return err
	}
	run, err := prepareRun(cfg, args[0], tbl, logger)
	if err != nil {
		return err
	}
	if runName != "" {
		run.Name = runName
	}

	_, collector, err := newCollector()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	flush, err := initTracing(ctx, logger)
	if err != nil {
		return err
	}
	defer flush()

	runner := pipeline.New(run.Config, logger)
	runner.AddObserver(collector)

	fmt.Printf("reducing %s...\n", run.Name)
	res, err := runner.Run(ctx, run.Name, run.Samples)
	if err != nil {
		return err
	}

	st := storage.New(cfg.DataDir)
	runID, err := st.Save(res, storage.SaveOptions{
		Inputs:     storage.Inputs{Series: args[0], Aero: args[1], Config: configFile},
		Convention: run.Config.Convention,
	})
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", res.Elapsed)
	fmt.Printf("run id: %s\n\n", runID)
	printResult(res.Name, res.Fields, res.Summary, len(res.Metrics), res.Ascent(), res.FlutterErr)
	return writeMetrics(collector)
}

func sweepRuns(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := newLogger()

	tbl, err := readAero(cfg, args[0], logger)
	if err != nil {
		return err
	}

	runs := make([]pipeline.Run, 0, len(args)-1)
	for _, path := range args[1:] {
		run, err := prepareRun(cfg, path, tbl, logger)
		if err != nil {
			return err
		}
		runs = append(runs, run)
	}

	_, collector, err := newCollector()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	flush, err := initTracing(ctx, logger)
	if err != nil {
		return err
	}
	defer flush()

	ens := pipeline.NewEnsemble(cfg.Concurrency, logger)
	ens.AddObserver(collector)

	fmt.Printf("reducing %d runs...\n", len(runs))
	start := time.Now()
	results, err := ens.Run(ctx, runs)
	if err != nil {
		return err
	}

	sweepID := fmt.Sprintf("sweep_%d", time.Now().Unix())
	st := storage.New(cfg.DataDir)
	rows := make([]report.RunRow, 0, len(results))
	for i, res := range results {
		runID, err := st.Save(res, storage.SaveOptions{
			Sweep:      sweepID,
			Inputs:     storage.Inputs{Series: args[i+1], Aero: args[0], Config: configFile},
			Convention: runs[i].Config.Convention,
		})
		if err != nil {
			return err
		}
		note := ""
		if res.FlutterErr != nil {
			note = "no flutter"
		}
		rows = append(rows, report.RunRow{ID: runID, Name: res.Name, Samples: len(res.Metrics), Ascent: res.Ascent(), Note: note})
	}

	fmt.Printf("completed in %v\n", time.Since(start))
	fmt.Printf("sweep id: %s\n\n", sweepID)
	fmt.Println(report.RunsTable(rows))
	fmt.Println()
	fmt.Println(report.StatsTable(pipeline.Stats(results)))
	return writeMetrics(collector)
}

func printResult(name string, fields []stability.Field, summary map[string]float64, samples, ascent int, flutterErr error) {
	fmt.Print(report.Header(name, []report.KV{
		{Label: "samples", Value: strconv.Itoa(samples)},
		{Label: "ascent", Value: strconv.Itoa(ascent)},
	}))
	if flutterErr != nil {
		fmt.Println(report.Warning("flutter velocities unavailable: " + flutterErr.Error()))
	}
	fmt.Println(report.SummaryTable(summary, summaryUnits(fields)))
}

// summaryUnits maps summary metric names back to the unit of the field they
// summarize.
func summaryUnits(fields []stability.Field) func(string) string {
	byName := make(map[string]string, len(fields))
	for _, f := range fields {
		byName[f.Name] = f.Unit
	}
	return func(metric string) string {
		switch metric {
		case "burnout_time":
			return "s"
		case "stable_fraction":
			return "unitless"
		}
		for _, p := range []string{"max_", "min_", "avg_"} {
			if field, ok := strings.CutPrefix(metric, p); ok {
				return byName[field]
			}
		}
		if field, _, ok := strings.Cut(metric, "_at_"); ok {
			return byName[field]
		}
		return ""
	}
}

func listRuns(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	st := storage.New(cfg.DataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	rows := make([]report.RunRow, 0, len(runs))
	for _, run := range runs {
		rows = append(rows, report.RunRow{
			ID:      run.ID,
			Name:    run.Name,
			Time:    run.Timestamp.Format("2006-01-02 15:04:05"),
			Samples: run.Samples,
			Ascent:  run.Ascent,
			Note:    run.Sweep,
		})
	}
	fmt.Println(report.RunsTable(rows))
	return nil
}

func showRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	meta, err := storage.New(cfg.DataDir).Load(args[0])
	if err != nil {
		return err
	}

	fmt.Print(report.Header(meta.ID, []report.KV{
		{Label: "name", Value: meta.Name},
		{Label: "time", Value: meta.Timestamp.Format("2006-01-02 15:04:05")},
		{Label: "series", Value: meta.Inputs.Series},
		{Label: "aero", Value: meta.Inputs.Aero},
		{Label: "convention", Value: fmt.Sprintf("%s/%s/%s", meta.Convention.NaturalFrequency, meta.Convention.AeroDamping, meta.Convention.CPCombine)},
		{Label: "launch rod", Value: report.FormatValue(float64(meta.Events.LaunchRod))},
		{Label: "apogee", Value: report.FormatValue(float64(meta.Events.Apogee))},
		{Label: "samples", Value: strconv.Itoa(meta.Samples)},
		{Label: "ascent", Value: strconv.Itoa(meta.Ascent)},
	}))
	if meta.FlutterErr != "" {
		fmt.Println(report.Warning("flutter velocities unavailable: " + meta.FlutterErr))
	}
	fmt.Println(report.SummaryTable(storage.Float64s(meta.Summary), summaryUnits(meta.Fields)))
	return nil
}

// loadDisplay loads a stored run with every column in its display unit.
func loadDisplay(cmd *cobra.Command, runID string) (*storage.RunMetadata, *storage.Series, map[string]string, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, nil, err
	}
	st := storage.New(cfg.DataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return nil, nil, nil, err
	}
	series, err := st.LoadSeries(runID)
	if err != nil {
		return nil, nil, nil, err
	}
	if series.Len() == 0 {
		return nil, nil, nil, fmt.Errorf("no data in run %s", runID)
	}
	converted, used, err := storage.Convert(meta, series, cfg.DisplayUnit)
	if err != nil {
		return nil, nil, nil, err
	}
	return meta, converted, used, nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	meta, series, used, err := loadDisplay(cmd, args[0])
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("samples: %d\n\n", series.Len())

	opts := report.GraphOptions{Width: width, Height: height}
	for _, field := range plotFields {
		values, ok := series.Column(field)
		if !ok {
			return fmt.Errorf("unknown field: %s (available: %v)", field, series.Fields)
		}
		graph, err := report.Graph(field, used[field], series.Times, values, opts)
		if err != nil {
			fmt.Printf("%s: nothing to plot\n\n", field)
			continue
		}
		fmt.Println(graph)
		fmt.Println()
	}
	return nil
}

func renderRun(cmd *cobra.Command, args []string) error {
	meta, series, used, err := loadDisplay(cmd, args[0])
	if err != nil {
		return err
	}

	marks := map[string]float64{
		"launch rod": float64(meta.Events.LaunchRod),
		"apogee":     float64(meta.Events.Apogee),
	}
	for _, field := range plotFields {
		values, ok := series.Column(field)
		if !ok {
			return fmt.Errorf("unknown field: %s (available: %v)", field, series.Fields)
		}
		chart := report.Chart{
			Title:  fmt.Sprintf("%s: %s", meta.Name, field),
			XLabel: "time (s)",
			YLabel: fmt.Sprintf("%s (%s)", field, used[field]),
			Lines:  []report.Line{{Label: field, X: series.Times, Y: values}},
			Marks:  marks,
			DPI:    dpi,
		}
		path := filepath.Join(outPath, fmt.Sprintf("%s_%s.png", meta.ID, field))
		if err := chart.SavePNG(path); err != nil {
			fmt.Printf("%s: %v\n", field, err)
			continue
		}
		fmt.Printf("wrote %s\n", path)
	}
	return nil
}

func output() (*os.File, func() error, error) {
	if outPath == "" {
		return os.Stdout, func() error { return nil }, nil
	}
	f, err := os.Create(outPath)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}

func exportCSV(cmd *cobra.Command, args []string) error {
	_, series, used, err := loadDisplay(cmd, args[0])
	if err != nil {
		return err
	}
	w, closeFn, err := output()
	if err != nil {
		return err
	}
	if err := storage.ExportCSV(w, series, used); err != nil {
		closeFn()
		return err
	}
	return closeFn()
}

func exportJSON(cmd *cobra.Command, args []string) error {
	meta, series, used, err := loadDisplay(cmd, args[0])
	if err != nil {
		return err
	}
	w, closeFn, err := output()
	if err != nil {
		return err
	}
	if err := storage.ExportJSON(w, meta, series, used); err != nil {
		closeFn()
		return err
	}
	return closeFn()
}

func convertValue(cmd *cobra.Command, args []string) error {
	v, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return fmt.Errorf("invalid value %q: %w", args[0], err)
	}
	out, err := units.Convert(v, args[1], args[2])
	if err != nil {
		return err
	}
	fmt.Printf("%g %s = %g %s\n", v, args[1], out, args[2])
	return nil
}

func listUnits(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	if len(args) == 0 {
		fmt.Fprintln(w, "FAMILY\tBASE\tPREFERRED\tUNITS")
		for _, f := range units.Families() {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", f.Name, f.Base, f.Preferred, strings.Join(f.Symbols(), " "))
		}
		return w.Flush()
	}

	compatible, err := units.CompatibleUnits(args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "unit:\t%s\n", args[0])
	fmt.Fprintf(w, "preferred:\t%s\n", units.PreferredUnit(args[0]))
	fmt.Fprintf(w, "compatible:\t%s\n", strings.Join(compatible, " "))
	return w.Flush()
}
