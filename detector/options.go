package detector

import "log/slog"

import "github.com/pkg/errors"

// Default detector geometry and training length.
const (
	DefaultGridSize = 4
	DefaultCellSize = 8
	DefaultEpochs   = 3
)

// ErrOptions is returned for detector options out of range.
var ErrOptions = errors.New("invalid detector options")

// Options configure detector creation. Zero values are replaced by defaults.
type Options struct {
	GridSize int // cells per image side
	CellSize int // raster pixels per cell side, even
	Epochs   int // training passes over every hashtron

	Threads int   // 0 means one per logical core
	Seed    int64 // 0 seeds from true rng

	SolverLog string // optional rotated log of the hashtron solver

	Logger *slog.Logger
}

func (o *Options) defaults() {
	if o.GridSize == 0 {
		o.GridSize = DefaultGridSize
	}
	if o.CellSize == 0 {
		o.CellSize = DefaultCellSize
	}
	if o.Epochs == 0 {
		o.Epochs = DefaultEpochs
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
}

// Validate reports options out of range.
func (o Options) Validate() error {
	if o.GridSize < 1 || o.GridSize > 16 {
		return errors.Wrapf(ErrOptions, "grid size %d, want 1 to 16", o.GridSize)
	}
	if o.CellSize < 4 || o.CellSize > 10 || o.CellSize%2 != 0 {
		return errors.Wrapf(ErrOptions, "cell size %d, want even 4 to 10", o.CellSize)
	}
	if o.Epochs < 0 {
		return errors.Wrapf(ErrOptions, "epochs %d", o.Epochs)
	}
	return nil
}
