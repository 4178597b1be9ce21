// Package annotations loads the image annotation table used to train object detectors.
package annotations

import "context"
import "image"
import "math/rand"
import "os"
import "path/filepath"
import "sort"

import _ "image/gif"
import _ "image/jpeg"
import _ "image/png"

import "github.com/pkg/errors"
import _ "golang.org/x/image/bmp"
import _ "golang.org/x/image/tiff"
import _ "golang.org/x/image/webp"
import "golang.org/x/sync/errgroup"

// Coordinates of a box: center and size in source image pixels.
type Coordinates struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Annotation is one labeled object in an image.
type Annotation struct {
	Label       string      `json:"label"`
	Type        string      `json:"type"`
	Coordinates Coordinates `json:"coordinates"`
}

// Row is one annotated image. Image is nil until the table is materialized.
type Row struct {
	ImagePath   string
	Annotations []Annotation
	Image       image.Image
}

// Table is an ordered set of annotated images.
type Table struct {
	Source string // path of the csv file, if read from one
	Rows   []Row
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// ReadCSV reads the annotation table from the csv file at path.
func ReadCSV(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open annotations")
	}
	defer f.Close()

	rows, err := Parse(f)
	if err != nil {
		return nil, errors.Wrapf(err, "parse %s", path)
	}
	return &Table{Source: path, Rows: rows}, nil
}

// MaterializeImages decodes the image of every row, using at most threads concurrent
// decoders. The first failure is returned and names the image path.
func (t *Table) MaterializeImages(ctx context.Context, threads int) error {
	if threads <= 0 {
		threads = 1
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(threads)
	for i := range t.Rows {
		row := &t.Rows[i]
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			img, err := decodeImage(t.resolve(row.ImagePath))
			if err != nil {
				return errors.Wrapf(err, "image %s", row.ImagePath)
			}
			row.Image = img
			return nil
		})
	}
	return g.Wait()
}

// resolve finds a relative path in the working directory first, then next to the csv.
func (t *Table) resolve(path string) string {
	if filepath.IsAbs(path) || t.Source == "" {
		return path
	}
	if _, err := os.Stat(path); err == nil {
		return path
	}
	beside := filepath.Join(filepath.Dir(t.Source), path)
	if _, err := os.Stat(beside); err == nil {
		return beside
	}
	return path
}

func decodeImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, errors.Wrap(err, "decode")
	}
	return img, nil
}

// RandomSplit sends each row to the first table with probability fraction, otherwise
// to the second. Both tables share rows with t.
func (t *Table) RandomSplit(fraction float64, seed int64) (*Table, *Table) {
	var rng = rand.New(rand.NewSource(seed))
	var a = &Table{Source: t.Source}
	var b = &Table{Source: t.Source}
	for _, row := range t.Rows {
		if rng.Float64() < fraction {
			a.Rows = append(a.Rows, row)
		} else {
			b.Rows = append(b.Rows, row)
		}
	}
	return a, b
}

// Labels returns the sorted distinct labels of all annotations.
func (t *Table) Labels() []string {
	var seen = make(map[string]struct{})
	for _, row := range t.Rows {
		for _, a := range row.Annotations {
			seen[a.Label] = struct{}{}
		}
	}
	var labels = make([]string, 0, len(seen))
	for l := range seen {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	return labels
}
