package full

// Put inserts a boolean at position n.
func (f *Full) Put(n int, v bool) {
	f.vec[n] = v
}

// Feature returns the n-th feature from the combiner. Bits past the end read as false.
func (f *Full) Feature(n int) (o uint32) {
	n *= int(f.bits)
	for pos := n; pos < n+int(f.maxbits); pos++ {
		o <<= 1
		if pos < len(f.vec) && f.vec[pos] {
			o |= 1
		}
	}
	return
}

// Disregard tells whether putting value false at position n would not affect
// any feature output (as opposed to putting value true at position n).
func (f *Full) Disregard(n int) bool {
	return false
}
