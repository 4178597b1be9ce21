// Package detector implements a grid object detector built from hashtron networks.
//
// Every image is rasterized to a gray square split into GridSize x GridSize cells.
// A feedforward hashtron network classifies each cell as background or as the label
// of the object centered in it, and a detected cell reports a box of the mean size
// of its label, centered on the cell.
package detector

import "context"
import "image"
import "math/rand"
import "time"

import "github.com/google/uuid"
import "github.com/pkg/errors"
import "gonum.org/v1/gonum/stat"

import "github.com/neurlang/detector/datasets/annotations"
import "github.com/neurlang/detector/hashtron"
import "github.com/neurlang/detector/layer/conv2d"
import "github.com/neurlang/detector/layer/full"
import "github.com/neurlang/detector/learning"
import "github.com/neurlang/detector/net/feedforward"
import "github.com/neurlang/detector/trainer"

// ErrNoData is returned when a table can't train or evaluate a detector.
var ErrNoData = errors.New("no usable annotated images")

// Detector is a trained grid object detector.
type Detector struct {
	grid   int
	size   int
	labels []string

	// anchors holds the mean box width and height of each label, relative to the image
	anchors [][2]float64

	// calibration[p][t] is the probability of true class t when class p is predicted
	calibration [][]float64

	net     feedforward.FeedforwardNetwork
	threads int
	runID   string
}

// classBits is the number of output bits telling apart background and the labels.
func classBits(classes int) byte {
	var bits byte = 1
	for 1<<bits < classes+1 {
		bits++
	}
	return bits
}

func newNetwork(cellSize int, bits byte) feedforward.FeedforwardNetwork {
	w := cellSize / 2
	var net feedforward.FeedforwardNetwork
	net.NewLayer(w*w, 0)
	net.NewCombiner(conv2d.MustNew(w, w, 2, 2))
	net.NewLayer((w-1)*(w-1), 0)
	net.NewCombiner(full.MustNew((w-1)*(w-1), 1, byte((w-1)*(w-1))))
	net.NewLayer(1, bits)
	return net
}

func newDetector(grid, size int, labels []string) (*Detector, error) {
	bits := classBits(len(labels))
	if bits > hashtron.MaxBits {
		return nil, errors.Errorf("%d labels are too many", len(labels))
	}
	return &Detector{
		grid:    grid,
		size:    size,
		labels:  labels,
		net:     newNetwork(size, bits),
		threads: learning.DefaultThreads(),
	}, nil
}

// Labels are the object labels the detector knows, class i+1 being Labels()[i].
func (d *Detector) Labels() []string {
	return append([]string(nil), d.labels...)
}

// GridSize is the number of cells per image side.
func (d *Detector) GridSize() int {
	return d.grid
}

// CellSize is the number of raster pixels per cell side.
func (d *Detector) CellSize() int {
	return d.size
}

// RunID identifies the training run which produced the detector.
func (d *Detector) RunID() string {
	return d.runID
}

func (d *Detector) side() int {
	return d.grid * d.size
}

// Create trains a detector on every row of table. Images must be materialized.
func Create(ctx context.Context, table *annotations.Table, opts Options) (*Detector, error) {
	opts.defaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if table == nil || table.Len() == 0 {
		return nil, errors.Wrap(ErrNoData, "empty table")
	}
	labels := table.Labels()
	if len(labels) == 0 {
		return nil, errors.Wrap(ErrNoData, "no annotated objects")
	}
	d, err := newDetector(opts.GridSize, opts.CellSize, labels)
	if err != nil {
		return nil, err
	}

	samples, err := d.samples(table)
	if err != nil {
		return nil, err
	}
	d.anchors = anchors(table, labels)

	h := &learning.HyperParameters{
		Threads: opts.Threads,
		Seed:    opts.Seed,
		Name:    "detector",
	}
	if opts.SolverLog != "" {
		if err := h.SetLogger(opts.SolverLog); err != nil {
			return nil, err
		}
		defer h.Close()
	}
	h.Defaults()
	d.threads = h.Threads

	var seed = opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	log := opts.Logger.With("component", "trainer")
	log.Info("training detector",
		"images", table.Len(),
		"cells", len(samples),
		"labels", len(labels),
		"hashtrons", d.net.Len(),
		"threads", h.Threads)

	var inouts = make([]feedforward.FeedforwardNetworkInOutput, len(samples))
	for i := range samples {
		inouts[i] = samples[i]
	}
	evaluate := trainer.NewEvaluateFunc(d.net, inouts, h.Threads)
	train := trainer.NewTrainWorstFunc(d.net, h, inouts, log)
	score, err := trainer.NewLoopFunc(d.net, opts.Epochs, rand.New(rand.NewSource(seed)), log, evaluate, train)(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "train detector")
	}

	d.calibrate(samples)
	d.runID = uuid.NewString()
	log.Info("detector trained", "balanced_accuracy", score, "run_id", d.runID)
	return d, nil
}

// targets labels every cell of row: background, or the class of the object centered
// in it, the larger object winning. Objects centered outside the image are ignored,
// unknown labels count as background.
func (d *Detector) targets(row *annotations.Row, classOf map[string]uint16) []uint16 {
	var out = make([]uint16, d.grid*d.grid)
	var area = make([]float64, d.grid*d.grid)
	for i := range area {
		area[i] = -1
	}
	b := row.Image.Bounds()
	w, h := float64(b.Dx()), float64(b.Dy())
	for _, a := range row.Annotations {
		c := a.Coordinates
		fx, fy := (c.X-float64(b.Min.X))/w, (c.Y-float64(b.Min.Y))/h
		if !(fx >= 0 && fx < 1 && fy >= 0 && fy < 1) {
			continue
		}
		i := int(fy*float64(d.grid))*d.grid + int(fx*float64(d.grid))
		if c.Width*c.Height > area[i] {
			out[i] = classOf[a.Label]
			area[i] = c.Width * c.Height
		}
	}
	return out
}

// samples turns every cell of every image into a labeled sample.
func (d *Detector) samples(table *annotations.Table) ([]cell, error) {
	var classOf = make(map[string]uint16, len(d.labels))
	for i, l := range d.labels {
		classOf[l] = uint16(i + 1)
	}
	var out = make([]cell, 0, table.Len()*d.grid*d.grid)
	for i := range table.Rows {
		row := &table.Rows[i]
		if row.Image == nil {
			return nil, errors.Wrapf(ErrNoData, "image %s not materialized", row.ImagePath)
		}
		if row.Image.Bounds().Empty() {
			return nil, errors.Wrapf(ErrNoData, "image %s is empty", row.ImagePath)
		}
		cells := rasterize(row.Image, d.side()).cells(d.grid, d.size)
		for j, class := range d.targets(row, classOf) {
			cells[j].expected = class
		}
		out = append(out, cells...)
	}
	return out, nil
}

// anchors computes the mean relative box size of every label.
func anchors(table *annotations.Table, labels []string) [][2]float64 {
	var widths = make(map[string][]float64)
	var heights = make(map[string][]float64)
	for _, row := range table.Rows {
		b := row.Image.Bounds()
		for _, a := range row.Annotations {
			widths[a.Label] = append(widths[a.Label], a.Coordinates.Width/float64(b.Dx()))
			heights[a.Label] = append(heights[a.Label], a.Coordinates.Height/float64(b.Dy()))
		}
	}
	var out = make([][2]float64, len(labels))
	for i, l := range labels {
		if len(widths[l]) == 0 {
			continue
		}
		out[i] = [2]float64{stat.Mean(widths[l], nil), stat.Mean(heights[l], nil)}
	}
	return out
}

// classify is the predicted class of a cell, unknown classes being background.
func (d *Detector) classify(c cell) uint16 {
	class := d.net.Infer(c)
	if int(class) > len(d.labels) {
		return 0
	}
	return class
}

// calibrate estimates the probability of each true class given the predicted one,
// with add one smoothing.
func (d *Detector) calibrate(samples []cell) {
	k := len(d.labels) + 1
	var counts = make([][]float64, k)
	for i := range counts {
		counts[i] = make([]float64, k)
	}
	for _, c := range samples {
		p, t := int(d.classify(c)), int(c.Output())
		counts[p][t]++
	}
	d.calibration = make([][]float64, k)
	for p := range counts {
		var total float64
		for _, n := range counts[p] {
			total += n
		}
		d.calibration[p] = make([]float64, k)
		for t, n := range counts[p] {
			d.calibration[p][t] = (n + 1) / (total + float64(k))
		}
	}
}

// Predict detects objects in img. An empty image has none.
func (d *Detector) Predict(img image.Image) []Detection {
	if img.Bounds().Empty() {
		return nil
	}
	return d.predict(img, rasterize(img, d.side()).cells(d.grid, d.size))
}

func (d *Detector) predict(img image.Image, cells []cell) []Detection {
	b := img.Bounds()
	w, h := float64(b.Dx()), float64(b.Dy())
	var dets []Detection
	for i, c := range cells {
		class := d.classify(c)
		if class == 0 {
			continue
		}
		gx, gy := i%d.grid, i/d.grid
		anchor := d.anchors[class-1]
		dets = append(dets, Detection{
			Label:      d.labels[class-1],
			Confidence: d.calibration[class][class],
			X:          float64(b.Min.X) + (float64(gx)+0.5)*w/float64(d.grid),
			Y:          float64(b.Min.Y) + (float64(gy)+0.5)*h/float64(d.grid),
			Width:      anchor[0] * w,
			Height:     anchor[1] * h,
		})
	}
	return suppress(dets)
}
