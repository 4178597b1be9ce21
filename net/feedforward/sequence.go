package feedforward

import "math/rand"

// Sequence lists every hashtron, final layer first, then each hidden layer from the
// output towards the input, shuffled within a layer when rng is not nil.
func (f FeedforwardNetwork) Sequence(rng *rand.Rand) (o []int) {
	o = make([]int, 0, f.Len())
	var bases = make([]int, len(f.layers))
	var base int
	for i := range f.layers {
		bases[i] = base
		base += len(f.layers[i])
	}
	for i := len(f.layers) - 1; i >= 0; i-- {
		var start = len(o)
		for j := range f.layers[i] {
			o = append(o, bases[i]+j)
		}
		if rng != nil {
			part := o[start:]
			rng.Shuffle(len(part), func(a, b int) { part[a], part[b] = part[b], part[a] })
		}
	}
	return o
}
