package detector

import "math"
import "sync"

import "github.com/pkg/errors"
import "gonum.org/v1/gonum/stat"

import "github.com/neurlang/detector/datasets/annotations"
import "github.com/neurlang/detector/parallel"

// Metrics of a detector on a table.
type Metrics struct {
	// Perplexity is exp of the mean negative log probability the calibrated
	// prediction assigns to the true class of a cell. 1 is perfect.
	Perplexity float64

	Accuracy float64 // share of cells classified correctly
	F1       float64 // mean per image detection F1 score

	Cells  int
	Images int
}

// Evaluate measures the detector on every row of table. Images must be materialized.
func (d *Detector) Evaluate(table *annotations.Table) (Metrics, error) {
	if table == nil || table.Len() == 0 {
		return Metrics{}, errors.Wrap(ErrNoData, "empty table")
	}
	var classOf = make(map[string]uint16, len(d.labels))
	for i, l := range d.labels {
		classOf[l] = uint16(i + 1)
	}
	for _, row := range table.Rows {
		if row.Image == nil {
			return Metrics{}, errors.Wrapf(ErrNoData, "image %s not materialized", row.ImagePath)
		}
		if row.Image.Bounds().Empty() {
			return Metrics{}, errors.Wrapf(ErrNoData, "image %s is empty", row.ImagePath)
		}
	}

	var (
		mut     sync.Mutex
		logs    []float64
		scores  = make([]float64, table.Len())
		correct int
	)
	parallel.ForEach(table.Len(), d.threads, func(i int) {
		row := &table.Rows[i]
		cells := rasterize(row.Image, d.side()).cells(d.grid, d.size)
		var rowLogs = make([]float64, 0, len(cells))
		var rowCorrect int
		for j, truth := range d.targets(row, classOf) {
			p := d.classify(cells[j])
			if p == truth {
				rowCorrect++
			}
			rowLogs = append(rowLogs, math.Log(d.calibration[p][truth]))
		}
		scores[i] = f1(d.predict(row.Image, cells), row.Annotations)

		mut.Lock()
		logs = append(logs, rowLogs...)
		correct += rowCorrect
		mut.Unlock()
	})

	return Metrics{
		Perplexity: math.Exp(-stat.Mean(logs, nil)),
		Accuracy:   float64(correct) / float64(len(logs)),
		F1:         stat.Mean(scores, nil),
		Cells:      len(logs),
		Images:     table.Len(),
	}, nil
}
