package main

import "context"
import "fmt"
import "io"
import "log/slog"
import "os"
import "os/signal"

import "github.com/spf13/cobra"

import "github.com/neurlang/detector/datasets/annotations"
import "github.com/neurlang/detector/detector"
import "github.com/neurlang/detector/learning"
import "github.com/neurlang/detector/logging"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if args == nil {
		args = []string{}
	}
	cmd := command(stdout)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	if err := cmd.ExecuteContext(ctx); err != nil {
		logging.New(stderr, slog.LevelError).Error("inference failed", "error", err)
		return 1
	}
	return 0
}

func command(stdout io.Writer) *cobra.Command {
	var threads int
	cmd := &cobra.Command{
		Use:           "infer_object_detector model.mlmodel image...",
		Short:         "Detect objects in images with an exported detector",
		Args:          cobra.MinimumNArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			det, err := detector.Load(args[0])
			if err != nil {
				return err
			}
			var table annotations.Table
			for _, path := range args[1:] {
				table.Rows = append(table.Rows, annotations.Row{ImagePath: path})
			}
			if threads <= 0 {
				threads = learning.DefaultThreads()
			}
			if err := table.MaterializeImages(cmd.Context(), threads); err != nil {
				return err
			}
			for _, row := range table.Rows {
				for _, d := range det.Predict(row.Image) {
					fmt.Fprintf(stdout, "%s %s %.4f %.1f %.1f %.1f %.1f\n",
						row.ImagePath, d.Label, d.Confidence, d.X, d.Y, d.Width, d.Height)
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&threads, "threads", 0, "image decoding threads, 0 means one per logical core")
	return cmd
}
