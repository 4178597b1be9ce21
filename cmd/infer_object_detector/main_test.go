package main

import "bytes"
import "context"
import "fmt"
import "image"
import "image/color"
import "image/png"
import "os"
import "path/filepath"
import "testing"

import "github.com/stretchr/testify/assert"
import "github.com/stretchr/testify/require"

import "github.com/neurlang/detector/datasets/annotations"
import "github.com/neurlang/detector/detector"

func TestInferPrintsDetections(t *testing.T) {
	dir := t.TempDir()
	var table annotations.Table
	var paths []string
	for i := 0; i < 4; i++ {
		img := image.NewGray(image.Rect(0, 0, 32, 32))
		for p := range img.Pix {
			img.Pix[p] = 200
		}
		for y := 0; y < 8; y++ {
			for x := i * 8; x < i*8+8; x++ {
				img.SetGray(x, y, color.Gray{Y: 0})
			}
		}
		path := filepath.Join(dir, "img"+string(rune('0'+i))+".png")
		f, err := os.Create(path)
		require.NoError(t, err)
		require.NoError(t, png.Encode(f, img))
		require.NoError(t, f.Close())
		paths = append(paths, path)
		table.Rows = append(table.Rows, annotations.Row{
			ImagePath: path,
			Image:     img,
			Annotations: []annotations.Annotation{{
				Label:       "block",
				Coordinates: annotations.Coordinates{X: float64(i*8 + 4), Y: 4, Width: 8, Height: 8},
			}},
		})
	}
	det, err := detector.Create(context.Background(), &table, detector.Options{Epochs: 1, Threads: 1, Seed: 4})
	require.NoError(t, err)
	model := filepath.Join(dir, "blocks.mlmodel")
	require.NoError(t, det.ExportCoreML(model))

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), append([]string{model}, paths...), &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())

	var lines []string
	for _, row := range table.Rows {
		for _, d := range det.Predict(row.Image) {
			lines = append(lines, fmt.Sprintf("%s %s %.4f %.1f %.1f %.1f %.1f",
				row.ImagePath, d.Label, d.Confidence, d.X, d.Y, d.Width, d.Height))
		}
	}
	var want string
	for _, l := range lines {
		want += l + "\n"
	}
	assert.Equal(t, want, stdout.String())
}

func TestInferNeedsModelAndImage(t *testing.T) {
	var stdout, stderr bytes.Buffer
	assert.Equal(t, 1, run(context.Background(), []string{"only.mlmodel"}, &stdout, &stderr))
	assert.Equal(t, 1, run(context.Background(), []string{filepath.Join(t.TempDir(), "none.mlmodel"), "a.png"}, &stdout, &stderr))
}
