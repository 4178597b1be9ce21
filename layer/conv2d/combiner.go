package conv2d

// Put inserts a boolean at position n.
func (f *Conv2D) Put(n int, v bool) {
	f.vec[n] = v
}

// Feature packs the window at output position n, the top left bit being the most significant.
func (f *Conv2D) Feature(n int) (o uint32) {
	outw := f.width - f.subwidth + 1
	ny := n / outw
	nx := n % outw
	if ny > f.height-f.subheight {
		return 0
	}
	for i := 0; i < f.subheight; i++ {
		for j := 0; j < f.subwidth; j++ {
			o <<= 1
			if f.vec[f.width*(ny+i)+(nx+j)] {
				o |= 1
			}
		}
	}
	return
}

// Disregard tells whether putting value false at position n would not affect
// any feature output. Every input bit of a convolution is seen by some window.
func (f *Conv2D) Disregard(n int) bool {
	return false
}
