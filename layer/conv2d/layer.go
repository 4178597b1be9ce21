// Package conv2d implements a 2D bit-convolution layer and combiner
package conv2d

import "fmt"
import "github.com/neurlang/detector/layer"

type Conv2DLayer struct {
	width, height, subwidth, subheight int
}

type Conv2D struct {
	vec                                []bool
	width, height, subwidth, subheight int
}

// MustNew creates a new Conv2D layer with size and window size
func MustNew(width, height, subwidth, subheight int) *Conv2DLayer {
	o, err := New(width, height, subwidth, subheight)
	if err != nil {
		panic(err.Error())
	}
	return o
}

// New creates a new Conv2D layer with size and window size
func New(width, height, subwidth, subheight int) (o *Conv2DLayer, err error) {
	if subwidth < 1 || subheight < 1 {
		return nil, fmt.Errorf("New Conv2D: window %dx%d is empty", subwidth, subheight)
	}
	if width < subwidth {
		return nil, fmt.Errorf("New Conv2D: Width %d is lower than Subwidth %d", width, subwidth)
	}
	if height < subheight {
		return nil, fmt.Errorf("New Conv2D: Height %d is lower than Subheight %d", height, subheight)
	}
	if subwidth*subheight > 16 {
		return nil, fmt.Errorf("New Conv2D: window %dx%d has more than 16 bits", subwidth, subheight)
	}
	o = new(Conv2DLayer)
	o.width = width
	o.height = height
	o.subwidth = subwidth
	o.subheight = subheight
	return
}

// Outputs is the number of features the combiner provides to the next layer
func (i *Conv2DLayer) Outputs() int {
	return (i.width - i.subwidth + 1) * (i.height - i.subheight + 1)
}

// Lay turns Conv2D layer into a combiner
func (i *Conv2DLayer) Lay() layer.Combiner {
	var o Conv2D
	o.vec = make([]bool, i.width*i.height)
	o.width = i.width
	o.height = i.height
	o.subwidth = i.subwidth
	o.subheight = i.subheight
	return &o
}
