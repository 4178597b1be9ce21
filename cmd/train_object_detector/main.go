package main

import "context"
import "fmt"
import "io"
import "log/slog"
import "os"
import "os/signal"
import "time"

import "github.com/pkg/errors"
import "github.com/spf13/cobra"

import "github.com/neurlang/detector/conf"
import "github.com/neurlang/detector/datasets/annotations"
import "github.com/neurlang/detector/detector"
import "github.com/neurlang/detector/learning"
import "github.com/neurlang/detector/logging"

const usage = "Incorect number of arguments. Please call with exactly one argument which should be the .csv file specifying the image annotations."

// ErrUsage is returned when the program isn't given exactly one argument.
var ErrUsage = errors.New("usage")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes the program and returns its exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if args == nil {
		args = []string{}
	}
	cmd := command(stdout, stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return 0
	}
	if !errors.Is(err, ErrUsage) {
		logging.New(stderr, slog.LevelError).Error("training failed", "error", err)
	}
	return 1
}

func command(stdout, stderr io.Writer) *cobra.Command {
	var configFile string
	cmd := &cobra.Command{
		Use:   "train_object_detector [annotations.csv]",
		Short: "Train an object detector from annotated images",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				fmt.Fprintln(stdout, usage)
				return ErrUsage
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			v := conf.New()
			if err := conf.BindFlags(v, cmd); err != nil {
				return err
			}
			settings, err := conf.Load(v, configFile)
			if err != nil {
				return err
			}
			log := logging.Init(stderr, settings.Level())
			return train(cmd.Context(), args[0], settings, stdout, log)
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	// flags are parsed before Args runs, a stray one is a usage error too
	cmd.SetFlagErrorFunc(func(*cobra.Command, error) error {
		fmt.Fprintln(stdout, usage)
		return ErrUsage
	})

	f := cmd.Flags()
	f.StringVar(&configFile, "config", "", "optional config file (yaml, json or toml)")
	f.Int("grid-size", detector.DefaultGridSize, "grid cells per image side")
	f.Int("cell-size", detector.DefaultCellSize, "raster pixels per cell side, even 4 to 10")
	f.Int("epochs", detector.DefaultEpochs, "training passes over every hashtron")
	f.Int64("seed", 0, "random seed, 0 picks one")
	f.Int("threads", 0, "worker threads, 0 means one per logical core")
	f.Float64("split", 0.8, "fraction of images in the train subset")
	f.String("log-level", "info", "log level: trace, debug, info, warn or error")
	f.String("solver-log", "", "rotated log file of the hashtron solver")
	f.Bool("train-on-split", false, "train on the train subset instead of every image")
	f.String("output", "", "model file, defaults to the csv path with .mlmodel appended")
	return cmd
}

// options configures the detector with the seed the split used, so a logged seed
// reproduces the run.
func options(s *conf.Settings, threads int, seed int64, log *slog.Logger) detector.Options {
	return detector.Options{
		GridSize:  s.GridSize,
		CellSize:  s.CellSize,
		Epochs:    s.Epochs,
		Threads:   threads,
		Seed:      seed,
		SolverLog: s.SolverLog,
		Logger:    log,
	}
}

// train runs the whole pipeline on the annotations at csvPath.
func train(ctx context.Context, csvPath string, s *conf.Settings, stdout io.Writer, log *slog.Logger) error {
	table, err := annotations.ReadCSV(csvPath)
	if err != nil {
		return err
	}
	threads := s.Threads
	if threads == 0 {
		threads = learning.DefaultThreads()
	}
	log.Info("loading images", "rows", table.Len(), "threads", threads)
	if err := table.MaterializeImages(ctx, threads); err != nil {
		return errors.Wrap(err, "load images")
	}

	seed := s.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	trainSet, testSet := table.RandomSplit(s.Split, seed)
	log.Info("split", "train", trainSet.Len(), "test", testSet.Len(), "seed", seed)

	data := table
	if s.TrainOnSplit {
		data = trainSet
	}
	det, err := detector.Create(ctx, data, options(s, threads, seed, log))
	if err != nil {
		return err
	}

	output := s.Output
	if output == "" {
		output = csvPath + ".mlmodel"
	}
	if err := det.ExportCoreML(output); err != nil {
		return err
	}
	log.Info("model exported", "path", output, "run_id", det.RunID())

	for _, subset := range []struct {
		name  string
		table *annotations.Table
	}{{"train", trainSet}, {"test", testSet}} {
		m, err := det.Evaluate(subset.table)
		if errors.Is(err, detector.ErrNoData) {
			fmt.Fprintf(stdout, "%s: no images\n", subset.name)
			continue
		}
		if err != nil {
			return errors.Wrapf(err, "evaluate %s", subset.name)
		}
		fmt.Fprintf(stdout, "%s: perplexity %.4f accuracy %.4f f1 %.4f (%d images, %d cells)\n",
			subset.name, m.Perplexity, m.Accuracy, m.F1, m.Images, m.Cells)
	}
	return nil
}
