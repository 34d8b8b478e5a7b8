package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/san-kum/fordyn/internal/analysis"
	"github.com/san-kum/fordyn/internal/config"
	"github.com/san-kum/fordyn/internal/dataset"
	"github.com/san-kum/fordyn/internal/graph"
	"github.com/san-kum/fordyn/internal/simgen"
	"github.com/san-kum/fordyn/internal/store"
	"github.com/san-kum/fordyn/internal/train"
	"github.com/san-kum/fordyn/internal/tui"
	"github.com/san-kum/fordyn/internal/vehicle"
	"github.com/san-kum/fordyn/internal/viz"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	dataDir    string
	configFile string
	preset     string
	runID      string
	// Training hyperparameters
	epochs    int
	batchSize int
	lr        float64
	optimizer string
	valSplit  float64
	seed      int64
	lrDecay   bool
	warmStart bool
	ridge     float64
	live      bool
	// Log generation
	genRuns     int
	genDuration float64
	genTs       float64
	genScenario string
	genSeed     int64
	// Plot targets
	pngPath string
	svgPath string
	// Phase portrait axes
	phaseX string
	phaseY string
	// Rollout length
	simSteps int
	// Tuner search space
	lrList    string
	batchList string
	// Export options
	withWeights bool
	outPath     string
)

// main registers the fordyn commands and flags and executes the root
// command, exiting with status 1 on error.
func main() {
	rootCmd := &cobra.Command{
		Use:   "fordyn",
		Short: "forward-dynamics models from logged driving data",
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".fordyn", "data directory for the run store")

	genCmd := &cobra.Command{
		Use:   "gen [outdir]",
		Short: "generate synthetic driving logs",
		Args:  cobra.MaximumNArgs(1),
		RunE:  generateLogs,
	}
	genCmd.Flags().IntVar(&genRuns, "runs", 4, "number of log files")
	genCmd.Flags().Float64Var(&genDuration, "duration", 60.0, "seconds per log")
	genCmd.Flags().Float64Var(&genTs, "ts", 0.01, "sample period in seconds")
	genCmd.Flags().StringVar(&genScenario, "scenario", "mixed", "driving schedule: "+strings.Join(simgen.ScheduleNames(), ", "))
	genCmd.Flags().Int64Var(&genSeed, "seed", 1, "base seed; log i uses seed+i")

	trainCmd := &cobra.Command{
		Use:   "train [logdir]",
		Short: "fit the model to logged data",
		Args:  cobra.MaximumNArgs(1),
		RunE:  trainModel,
	}
	trainCmd.Flags().StringVar(&configFile, "config", "", "run file path (yaml)")
	trainCmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	trainCmd.Flags().IntVar(&epochs, "epochs", train.DefaultEpochs, "training epochs")
	trainCmd.Flags().IntVar(&batchSize, "batch", train.DefaultBatchSize, "minibatch size")
	trainCmd.Flags().Float64Var(&lr, "lr", train.DefaultLR, "learning rate")
	trainCmd.Flags().StringVar(&optimizer, "optimizer", "adam", "optimizer: adam or sgd")
	trainCmd.Flags().Float64Var(&valSplit, "val-split", train.DefaultValSplit, "validation fraction")
	trainCmd.Flags().Int64Var(&seed, "seed", 0, "init and shuffle seed")
	trainCmd.Flags().BoolVar(&lrDecay, "lr-decay", false, "decay the learning rate linearly to a tenth")
	trainCmd.Flags().BoolVar(&warmStart, "warm-start", false, "initialize taps by ridge least squares")
	trainCmd.Flags().Float64Var(&ridge, "ridge", train.DefaultRidge, "warm-start ridge weight")
	trainCmd.Flags().BoolVar(&live, "live", false, "live training view")

	evalCmd := &cobra.Command{
		Use:   "eval [logdir]",
		Short: "score one-step predictions on a log folder",
		Args:  cobra.MaximumNArgs(1),
		RunE:  evalModel,
	}
	evalCmd.Flags().StringVar(&runID, "run", "", "run id (default: latest)")
	evalCmd.Flags().StringVar(&configFile, "config", "", "run file path (yaml)")
	evalCmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")

	predictCmd := &cobra.Command{
		Use:   "predict [logfile]",
		Short: "write per-sample model outputs as csv",
		Args:  cobra.ExactArgs(1),
		RunE:  predictOutputs,
	}
	predictCmd.Flags().StringVar(&runID, "run", "", "run id (default: latest)")
	predictCmd.Flags().StringVar(&configFile, "config", "", "run file path (yaml)")
	predictCmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")

	simulateCmd := &cobra.Command{
		Use:   "simulate [logfile]",
		Short: "closed-loop rollout against a logged run",
		Args:  cobra.ExactArgs(1),
		RunE:  simulateRollout,
	}
	simulateCmd.Flags().StringVar(&runID, "run", "", "run id (default: latest)")
	simulateCmd.Flags().IntVar(&simSteps, "steps", 0, "rollout length in samples (default: rest of the log)")
	simulateCmd.Flags().StringVar(&configFile, "config", "", "run file path (yaml)")
	simulateCmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")

	runsCmd := &cobra.Command{
		Use:   "runs",
		Short: "list stored training runs",
		RunE:  listTrainedRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [logfile]",
		Short: "plot loss curves, or predictions over a log",
		Args:  cobra.MaximumNArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&runID, "run", "", "run id (default: latest)")
	plotCmd.Flags().StringVar(&pngPath, "png", "", "also write a png image")
	plotCmd.Flags().StringVar(&svgPath, "svg", "", "also write an svg image")
	plotCmd.Flags().StringVar(&configFile, "config", "", "run file path (yaml)")
	plotCmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")

	phaseCmd := &cobra.Command{
		Use:   "phase [logfile]",
		Short: "phase portrait of two logged signals",
		Args:  cobra.ExactArgs(1),
		RunE:  phasePortrait,
	}
	phaseCmd.Flags().StringVar(&phaseX, "x", "vy", "signal for the x axis")
	phaseCmd.Flags().StringVar(&phaseY, "y", "r", "signal for the y axis")
	phaseCmd.Flags().StringVar(&configFile, "config", "", "run file path (yaml)")
	phaseCmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a run as json",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().BoolVar(&withWeights, "weights", false, "include the checkpoint weights")
	exportCmd.Flags().StringVar(&outPath, "out", "", "write to a file instead of stdout")

	presetsCmd := &cobra.Command{
		Use:   "presets [name]",
		Short: "list presets, or dump one as yaml",
		Args:  cobra.MaximumNArgs(1),
		RunE:  showPresets,
	}
	presetsCmd.Flags().StringVar(&outPath, "out", "", "write the preset to a run file")

	tuneCmd := &cobra.Command{
		Use:   "tune [logdir]",
		Short: "grid-search learning rate and batch size",
		Args:  cobra.MaximumNArgs(1),
		RunE:  tuneModel,
	}
	tuneCmd.Flags().StringVar(&lrList, "lrs", "0.0003,0.001,0.003", "learning rates to try, comma separated")
	tuneCmd.Flags().StringVar(&batchList, "batches", "64,128,256", "batch sizes to try, comma separated")
	tuneCmd.Flags().StringVar(&outPath, "out", "", "write the winning run file")
	tuneCmd.Flags().StringVar(&configFile, "config", "", "run file path (yaml)")
	tuneCmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	tuneCmd.Flags().IntVar(&epochs, "epochs", 0, "epochs per candidate (default: from config)")

	inspectCmd := &cobra.Command{
		Use:   "inspect [logdir]",
		Short: "show model structure, or browse a dataset",
		Args:  cobra.MaximumNArgs(1),
		RunE:  inspectModel,
	}
	inspectCmd.Flags().StringVar(&runID, "run", "", "load weights from a run")
	inspectCmd.Flags().BoolVar(&live, "live", false, "interactive segment explorer")
	inspectCmd.Flags().StringVar(&configFile, "config", "", "run file path (yaml)")
	inspectCmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")

	rootCmd.AddCommand(genCmd, trainCmd, evalCmd, predictCmd, simulateCmd, runsCmd, plotCmd, phaseCmd, exportCmd, presetsCmd, tuneCmd, inspectCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig resolves the run configuration: defaults, then preset, then
// config file, then explicit flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if preset != "" {
		p := config.GetPreset(preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
		cfg = p
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	// CLI flags override both preset and file.
	if cmd.Flags().Changed("epochs") {
		cfg.Train.Epochs = epochs
	}
	if cmd.Flags().Changed("batch") {
		cfg.Train.BatchSize = batchSize
	}
	if cmd.Flags().Changed("lr") {
		cfg.Train.LR = lr
	}
	if cmd.Flags().Changed("optimizer") {
		cfg.Train.Optimizer = optimizer
	}
	if cmd.Flags().Changed("val-split") {
		cfg.Train.ValSplit = valSplit
	}
	if cmd.Flags().Changed("seed") {
		cfg.Train.Seed = seed
	}
	if cmd.Flags().Changed("lr-decay") {
		cfg.Train.LRDecay = lrDecay
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func openStore(ctx context.Context) (*store.Store, error) {
	st := store.New(filepath.Join(dataDir, "runs.db"))
	if err := st.Init(ctx); err != nil {
		return nil, err
	}
	return st, nil
}

// resolveRunID returns the --run flag when set, otherwise the newest run.
func resolveRunID(ctx context.Context, st *store.Store) (string, error) {
	if runID != "" {
		return runID, nil
	}
	runs, err := st.ListRuns(ctx)
	if err != nil {
		return "", err
	}
	if len(runs) == 0 {
		return "", fmt.Errorf("no runs in the store; train a model first")
	}
	return runs[0].ID, nil
}

// loadTrained rebuilds the model a run trained, with its stored weights.
func loadTrained(ctx context.Context, st *store.Store, id string) (*vehicle.Model, error) {
	cp, ok, err := st.GetCheckpoint(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("no checkpoint for run %s", id)
	}
	m, err := vehicle.Build(cp.Config)
	if err != nil {
		return nil, err
	}
	if err := m.LoadWeights(cp.Weights); err != nil {
		return nil, err
	}
	return m, nil
}

func generateLogs(cmd *cobra.Command, args []string) error {
	opts := simgen.DefaultOptions()
	opts.Runs = genRuns
	opts.Duration = genDuration
	opts.Ts = genTs
	opts.Scenario = genScenario
	opts.Seed = genSeed
	if len(args) > 0 {
		opts.OutDir = args[0]
	}

	fmt.Printf("generating %d %s logs (%.0fs at %.0f Hz)...\n",
		opts.Runs, opts.Scenario, opts.Duration, 1/opts.Ts)
	start := time.Now()

	paths, err := simgen.Generate(context.Background(), opts)
	if err != nil {
		return err
	}

	for _, p := range paths {
		fmt.Printf("  %s\n", p)
	}
	fmt.Printf("completed in %v\n", time.Since(start).Truncate(time.Millisecond))
	return nil
}

func trainModel(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	dir := cfg.Data.Dir
	if len(args) > 0 {
		dir = args[0]
	}

	ds, err := dataset.LoadFolder(dir, cfg.Data.Columns, cfg.Data.Delimiter())
	if err != nil {
		return err
	}

	m, err := vehicle.Build(cfg.Model)
	if err != nil {
		return err
	}
	m.InitWeights(cfg.Train.Seed)

	if warmStart {
		if err := train.WarmStart(m, ds, ridge); err != nil {
			return err
		}
		fmt.Printf("warm start: %d taps fitted by ridge regression\n", m.ParamCount())
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var res *train.Result
	if live {
		res, err = runLiveTraining(ctx, cancel, m, ds, cfg.Train, dir)
	} else {
		res, err = runPlainTraining(ctx, m, ds, cfg.Train, dir)
	}
	stopped := errors.Is(err, context.Canceled)
	if err != nil && !stopped {
		return err
	}
	if res == nil {
		return fmt.Errorf("training produced no result")
	}

	final := res.Final()
	fmt.Printf("trained %d epochs on %d samples (%d validation) in %v\n",
		len(res.History), res.TrainSamples, res.ValSamples, res.Duration.Truncate(time.Millisecond))
	if stopped {
		fmt.Println("stopped early; keeping the current weights")
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TERM\tTRAIN\tVAL")
	for _, name := range m.LossNames() {
		fmt.Fprintf(w, "%s\t%.6f\t%.6f\n", name, final.Train[name], final.Val[name])
	}
	fmt.Fprintf(w, "total\t%.6f\t%.6f\n", final.TrainTotal, final.ValTotal)
	if err := w.Flush(); err != nil {
		return err
	}

	// The training context may be canceled; persist with a fresh one.
	st, err := openStore(context.Background())
	if err != nil {
		return err
	}
	defer st.Close()

	run := &store.Run{
		Dataset:      dir,
		TrainSamples: res.TrainSamples,
		ValSamples:   res.ValSamples,
		Optimizer:    cfg.Train.Optimizer,
		Epochs:       len(res.History),
		BatchSize:    cfg.Train.BatchSize,
		LR:           cfg.Train.LR,
		Seed:         cfg.Train.Seed,
		Config:       cfg.Model,
		FinalTrain:   final.TrainTotal,
		FinalVal:     final.ValTotal,
		Seconds:      res.Duration.Seconds(),
	}
	run.History = make([]store.EpochLosses, len(res.History))
	for i, ev := range res.History {
		run.History[i] = store.EpochLosses{
			Epoch:      ev.Epoch,
			Train:      ev.Train,
			Val:        ev.Val,
			TrainTotal: ev.TrainTotal,
			ValTotal:   ev.ValTotal,
		}
	}
	if err := st.SaveRun(context.Background(), run); err != nil {
		return err
	}
	cp := &store.Checkpoint{RunID: run.ID, Config: cfg.Model, Weights: m.Weights()}
	if err := st.SaveCheckpoint(context.Background(), cp); err != nil {
		return err
	}

	fmt.Printf("run id: %s\n", run.ID)
	return nil
}

// runPlainTraining runs the trainer with a line of progress roughly every
// tenth epoch.
func runPlainTraining(ctx context.Context, m *vehicle.Model, ds *dataset.Dataset, opts train.Options, dir string) (*train.Result, error) {
	events := make(chan train.Event, 8)
	opts.Events = events

	tr, err := train.New(m.Model, ds, opts)
	if err != nil {
		return nil, err
	}
	fmt.Printf("training on %s: %d samples, %d validation\n", dir, tr.TrainSamples(), tr.ValSamples())

	done := make(chan struct{})
	go func() {
		defer close(done)
		for ev := range events {
			every := ev.Epochs / 10
			if every < 1 {
				every = 1
			}
			if ev.Epoch%every == 0 || ev.Epoch == ev.Epochs {
				fmt.Printf("epoch %3d/%d  train %.6f  val %.6f\n",
					ev.Epoch, ev.Epochs, ev.TrainTotal, ev.ValTotal)
			}
		}
	}()

	res, err := tr.Run(ctx)
	close(events)
	<-done
	return res, err
}

// runLiveTraining runs the trainer behind the live view. The trainer
// goroutine owns the events channel and closes it when Run returns, which
// is what releases the view.
func runLiveTraining(ctx context.Context, cancel context.CancelFunc, m *vehicle.Model, ds *dataset.Dataset, opts train.Options, dir string) (*train.Result, error) {
	events := make(chan train.Event, 1)
	opts.Events = events

	tr, err := train.New(m.Model, ds, opts)
	if err != nil {
		return nil, err
	}

	var res *train.Result
	var trainErr error
	go func() {
		res, trainErr = tr.Run(ctx)
		close(events)
	}()

	p := tea.NewProgram(tui.NewTraining(events, cancel, dir))
	if _, err := p.Run(); err != nil {
		cancel()
		for range events {
		}
		return nil, err
	}
	return res, trainErr
}

func evalModel(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	ctx := context.Background()

	st, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	id, err := resolveRunID(ctx, st)
	if err != nil {
		return err
	}
	m, err := loadTrained(ctx, st, id)
	if err != nil {
		return err
	}

	dir := cfg.Data.Dir
	if len(args) > 0 {
		dir = args[0]
	}
	ds, err := dataset.LoadFolder(dir, cfg.Data.Columns, cfg.Data.Delimiter())
	if err != nil {
		return err
	}

	sums, err := analysis.Evaluate(m, ds)
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\n", id)
	fmt.Printf("dataset: %s (%d segments, %d samples)\n\n", dir, len(ds.Segments), ds.Len())

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STATE\tRMSE\tMAE\tMAX\tSAMPLES")
	for _, state := range vehicle.StateNames {
		s := sums[state]
		fmt.Fprintf(w, "%s\t%.6f\t%.6f\t%.6f\t%d\n", state, s.RMSE, s.MAE, s.Max, s.Samples)
	}
	return w.Flush()
}

func predictOutputs(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	ctx := context.Background()

	st, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	id, err := resolveRunID(ctx, st)
	if err != nil {
		return err
	}
	m, err := loadTrained(ctx, st, id)
	if err != nil {
		return err
	}

	seg, err := dataset.LoadFile(args[0], cfg.Data.Columns, cfg.Data.Delimiter())
	if err != nil {
		return err
	}

	out, err := m.Predict(seg.Series)
	if err != nil {
		return err
	}

	names := m.OutputNames()
	w := csv.NewWriter(os.Stdout)
	defer w.Flush()

	if err := w.Write(names); err != nil {
		return err
	}
	steps := len(out[names[0]])
	row := make([]string, len(names))
	for i := 0; i < steps; i++ {
		for j, name := range names {
			row[j] = strconv.FormatFloat(out[name][i], 'f', 6, 64)
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

func simulateRollout(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	ctx := context.Background()

	st, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	id, err := resolveRunID(ctx, st)
	if err != nil {
		return err
	}
	m, err := loadTrained(ctx, st, id)
	if err != nil {
		return err
	}

	seg, err := dataset.LoadFile(args[0], cfg.Data.Columns, cfg.Data.Delimiter())
	if err != nil {
		return err
	}

	past := m.RequiredHistory()
	n := seg.Len()
	if n <= past {
		return fmt.Errorf("log %s has %d samples; the model needs more than %d", seg.Name, n, past)
	}
	steps := simSteps
	if steps <= 0 || steps > n-past {
		steps = n - past
	}

	// Seed the rollout with the logged history; replay the logged driver
	// inputs from there.
	history := make(map[string][]float64, len(vehicle.SignalNames))
	for _, name := range vehicle.SignalNames {
		history[name] = seg.Series[name][:past]
	}
	controls := make(map[string][]float64, len(vehicle.ControlNames))
	for _, name := range vehicle.ControlNames {
		controls[name] = seg.Series[name][past:]
	}

	out, err := m.Rollout(history, controls, steps)
	if err != nil {
		return err
	}
	rates, err := analysis.Divergence(m, &seg, steps, analysis.DefaultPerturbation)
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\n", id)
	fmt.Printf("closed-loop rollout: %s, %d steps (%.1fs)\n\n",
		seg.Name, steps, float64(steps)*m.SampleTime())

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STATE\tRMSE\tMAX DRIFT\tDIVERGENCE")
	for _, state := range vehicle.StateNames {
		sim := out[state+"_hat_next"]
		meas := seg.Series[state][past : past+steps]
		rmse := analysis.NewRMSE()
		maxErr := analysis.NewMaxError()
		for i := range sim {
			rmse.Observe(sim[i], meas[i])
			maxErr.Observe(sim[i], meas[i])
		}
		fmt.Fprintf(w, "%s\t%.6f\t%.6f\t%+.3f/s\n", state, rmse.Value(), maxErr.Value(), rates[state])
	}
	if err := w.Flush(); err != nil {
		return err
	}

	for _, state := range vehicle.StateNames {
		chart := viz.Compare(seg.Series[state][past:past+steps], out[state+"_hat_next"], state)
		if chart == "" {
			continue
		}
		fmt.Println()
		fmt.Println(chart)
	}
	return nil
}

func listTrainedRuns(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	st, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	runs, err := st.ListRuns(ctx)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCREATED\tDATASET\tOPT\tEPOCHS\tTRAIN\tVAL")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%.6f\t%.6f\n",
			run.ID,
			run.Created.Format("2006-01-02 15:04:05"),
			run.Dataset,
			run.Optimizer,
			run.Epochs,
			run.FinalTrain,
			run.FinalVal,
		)
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	st, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	id, err := resolveRunID(ctx, st)
	if err != nil {
		return err
	}

	if len(args) == 0 {
		return plotLossCurves(ctx, st, id)
	}
	return plotPredictions(ctx, cmd, st, id, args[0])
}

func plotLossCurves(ctx context.Context, st *store.Store, id string) error {
	run, ok, err := st.GetRun(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("no run %s", id)
	}
	if len(run.History) == 0 {
		return fmt.Errorf("run %s has no epoch history", id)
	}

	trainLoss := make([]float64, len(run.History))
	valLoss := make([]float64, len(run.History))
	for i, ep := range run.History {
		trainLoss[i] = ep.TrainTotal
		valLoss[i] = ep.ValTotal
	}

	fmt.Printf("run: %s\n", id)
	fmt.Printf("dataset: %s\n", run.Dataset)
	fmt.Printf("epochs: %d\n\n", len(run.History))
	fmt.Println(viz.LossCurve(trainLoss, valLoss))

	for _, path := range []string{pngPath, svgPath} {
		if path == "" {
			continue
		}
		err := viz.SavePlot(path, "training loss", "epoch", "mse",
			viz.Series{Label: "train", Y: trainLoss},
			viz.Series{Label: "validation", Y: valLoss},
		)
		if err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", path)
	}
	return nil
}

func plotPredictions(ctx context.Context, cmd *cobra.Command, st *store.Store, id, logfile string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	m, err := loadTrained(ctx, st, id)
	if err != nil {
		return err
	}

	seg, err := dataset.LoadFile(logfile, cfg.Data.Columns, cfg.Data.Delimiter())
	if err != nil {
		return err
	}
	out, err := m.Predict(seg.Series)
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\n", id)
	fmt.Printf("log: %s (%d samples)\n", seg.Name, seg.Len())

	for _, state := range vehicle.StateNames {
		pred := out[state+"_hat_next"]
		if len(pred) < 2 {
			continue
		}
		col := seg.Series[state]
		first := len(col) - len(pred)
		// Prediction i targets the sample after it; drop the final one,
		// which has no logged successor.
		measured := col[first+1:]
		aligned := pred[:len(pred)-1]

		fmt.Println()
		fmt.Println(viz.Compare(measured, aligned, state))

		for _, path := range []string{pngPath, svgPath} {
			if path == "" {
				continue
			}
			target := suffixPath(path, "_"+state)
			err := viz.SavePlot(target, state+" one-step prediction", "sample", state,
				viz.Series{Label: "measured", Y: measured},
				viz.Series{Label: "predicted", Y: aligned},
			)
			if err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", target)
		}
	}
	return nil
}

func phasePortrait(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	seg, err := dataset.LoadFile(args[0], cfg.Data.Columns, cfg.Data.Delimiter())
	if err != nil {
		return err
	}

	p, err := analysis.Phase(&seg, phaseX, phaseY)
	if err != nil {
		return err
	}

	fmt.Printf("phase portrait: %s\n\n", seg.Name)
	fmt.Println(p.ToASCII(70, 20))
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	st, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	id := args[0]
	run, ok, err := st.GetRun(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("no run %s", id)
	}

	var cp *store.Checkpoint
	if withWeights {
		c, ok, err := st.GetCheckpoint(ctx, id)
		if err != nil {
			return err
		}
		if ok {
			cp = &c
		}
	}

	if outPath != "" {
		if err := store.ExportJSON(outPath, run, cp); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", outPath)
		return nil
	}
	return store.ExportJSONStdout(run, cp)
}

func showPresets(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tEPOCHS\tLR\tOPTIMIZER\tMU RANGE")
		for _, name := range config.ListPresets() {
			p := config.GetPreset(name)
			fmt.Fprintf(w, "%s\t%d\t%g\t%s\t%.2f-%.2f\n",
				name, p.Train.Epochs, p.Train.LR, p.Train.Optimizer, p.Model.MuMin, p.Model.MuMax)
		}
		return w.Flush()
	}

	p := config.GetPreset(args[0])
	if p == nil {
		return fmt.Errorf("unknown preset: %s (available: %v)", args[0], config.ListPresets())
	}

	if outPath != "" {
		if err := config.Save(outPath, p); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", outPath)
		return nil
	}
	data, err := yaml.Marshal(p)
	if err != nil {
		return err
	}
	fmt.Print(string(data))
	return nil
}

func tuneModel(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	dir := cfg.Data.Dir
	if len(args) > 0 {
		dir = args[0]
	}

	ds, err := dataset.LoadFolder(dir, cfg.Data.Columns, cfg.Data.Delimiter())
	if err != nil {
		return err
	}

	lrs, err := parseFloats(lrList)
	if err != nil {
		return fmt.Errorf("--lrs: %w", err)
	}
	batches, err := parseInts(batchList)
	if err != nil {
		return fmt.Errorf("--batches: %w", err)
	}

	build := func() (*graph.Model, error) {
		m, err := vehicle.Build(cfg.Model)
		if err != nil {
			return nil, err
		}
		m.InitWeights(cfg.Train.Seed)
		return m.Model, nil
	}

	fmt.Printf("grid search over %d candidates (%d epochs each) on %s...\n",
		len(lrs)*len(batches), cfg.Train.Epochs, dir)
	start := time.Now()

	best, tried, err := train.Tune(context.Background(), build, ds, cfg.Train, lrs, batches)
	if err != nil {
		return err
	}
	if len(tried) == 0 {
		return fmt.Errorf("no candidate trained successfully")
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "LR\tBATCH\tVAL LOSS")
	for _, c := range tried {
		marker := ""
		if c.LR == best.LR && c.BatchSize == best.BatchSize {
			marker = "  *"
		}
		fmt.Fprintf(w, "%g\t%d\t%.6f%s\n", c.LR, c.BatchSize, c.Score, marker)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("\nbest: lr=%g batch=%d (%v)\n",
		best.LR, best.BatchSize, time.Since(start).Truncate(time.Millisecond))

	if outPath != "" {
		cfg.Train = best
		if err := config.Save(outPath, cfg); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", outPath)
	}
	return nil
}

func inspectModel(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	ctx := context.Background()

	var m *vehicle.Model
	if runID != "" {
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()
		m, err = loadTrained(ctx, st, runID)
		if err != nil {
			return err
		}
	} else {
		m, err = vehicle.Build(cfg.Model)
		if err != nil {
			return err
		}
	}

	if live {
		if len(args) == 0 {
			return fmt.Errorf("--live needs a log folder to browse")
		}
		ds, err := dataset.LoadFolder(args[0], cfg.Data.Columns, cfg.Data.Delimiter())
		if err != nil {
			return err
		}
		p := tea.NewProgram(tui.NewExplorer(m, ds))
		_, err = p.Run()
		return err
	}

	fmt.Printf("sample time: %.3fs\n", m.SampleTime())
	fmt.Printf("required history: %d samples\n", m.RequiredHistory())
	fmt.Printf("parameters: %d\n", m.ParamCount())
	fmt.Printf("outputs: %s\n", strings.Join(m.OutputNames(), ", "))
	fmt.Printf("loss terms: %s\n\n", strings.Join(m.LossNames(), ", "))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "BLOCK\tSIGNAL\tSIGN\tTAPS\tWINDOW\tNORM")
	for _, ch := range vehicle.Channels(m.Config()) {
		for _, term := range ch.Terms {
			f := m.Fir(ch.Name + "_" + term.Signal)
			norm := 0.0
			for _, v := range f.W {
				norm += v * v
			}
			fmt.Fprintf(w, "%s\t%s\t%+.0f\t%d\t%.2fs\t%.4f\n",
				ch.Name, term.Signal, term.Sign, f.Taps(), term.Window, math.Sqrt(norm))
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if len(args) > 0 {
		ds, err := dataset.LoadFolder(args[0], cfg.Data.Columns, cfg.Data.Delimiter())
		if err != nil {
			return err
		}
		fmt.Println()
		dw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(dw, "COLUMN\tSAMPLES\tMEAN\tSTD\tMIN\tMAX")
		for _, cs := range ds.Summary() {
			fmt.Fprintf(dw, "%s\t%d\t%.4f\t%.4f\t%.4f\t%.4f\n",
				cs.Name, cs.Samples, cs.Mean, cs.Std, cs.Min, cs.Max)
		}
		return dw.Flush()
	}
	return nil
}

func parseFloats(s string) ([]float64, error) {
	parts := strings.Split(s, ",")
	out := make([]float64, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return nil, fmt.Errorf("bad number %q", part)
		}
		out = append(out, v)
	}
	return out, nil
}

func parseInts(s string) ([]int, error) {
	parts := strings.Split(s, ",")
	out := make([]int, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("bad number %q", part)
		}
		out = append(out, v)
	}
	return out, nil
}

// suffixPath inserts a suffix before the file extension: plot.png with
// suffix _vx becomes plot_vx.png.
func suffixPath(path, suffix string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + suffix + ext
}
