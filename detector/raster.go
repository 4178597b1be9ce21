package detector

import "image"

import "golang.org/x/image/draw"

// levels per raster pixel, 2 bits
const levels = 4

// raster is a square image quantized to levels gray levels.
type raster struct {
	side int
	pix  []byte
}

// rasterize scales img to a side x side gray square, stretches its contrast to the
// full range and quantizes it. A uniform image keeps its absolute level.
func rasterize(img image.Image, side int) raster {
	gray := image.NewGray(image.Rect(0, 0, side, side))
	draw.BiLinear.Scale(gray, gray.Bounds(), img, img.Bounds(), draw.Src, nil)

	var lo, hi byte = 255, 0
	for _, p := range gray.Pix {
		if p < lo {
			lo = p
		}
		if p > hi {
			hi = p
		}
	}
	var r = raster{side: side, pix: make([]byte, side*side)}
	if hi == lo {
		for i := range r.pix {
			r.pix[i] = byte(int(lo) * levels / 256)
		}
		return r
	}
	span := int(hi-lo) + 1
	for y := 0; y < side; y++ {
		row := gray.Pix[y*gray.Stride : y*gray.Stride+side]
		for x, p := range row {
			r.pix[y*side+x] = byte(int(p-lo) * levels / span)
		}
	}
	return r
}

func (r raster) at(x, y int) uint32 {
	return uint32(r.pix[y*r.side+x])
}

// cell is one grid cell of a raster, a network sample.
type cell struct {
	r        raster
	x, y     int // top left raster pixel
	size     int
	expected uint16
}

// Feature packs the n-th 2x2 window of the cell, stride 2, 2 bits per pixel.
func (c cell) Feature(n int) uint32 {
	w := c.size / 2
	px := c.x + 2*(n%w)
	py := c.y + 2*(n/w)
	return c.r.at(px, py)<<6 | c.r.at(px+1, py)<<4 | c.r.at(px, py+1)<<2 | c.r.at(px+1, py+1)
}

// Output is the expected class of the cell.
func (c cell) Output() uint16 {
	return c.expected
}

// cells splits the raster into grid x grid cells, row major.
func (r raster) cells(grid, size int) []cell {
	var o = make([]cell, 0, grid*grid)
	for gy := 0; gy < grid; gy++ {
		for gx := 0; gx < grid; gx++ {
			o = append(o, cell{r: r, x: gx * size, y: gy * size, size: size})
		}
	}
	return o
}
