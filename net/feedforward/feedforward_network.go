// Package feedforward implements a feedforward network type
package feedforward

import "github.com/neurlang/detector/datasets"
import "github.com/neurlang/detector/hashtron"
import "github.com/neurlang/detector/layer"

// Intermediate is an intermediate value used as both layer input and layer output in optimization
type Intermediate interface {

	// Feature extracts n-th feature from Intermediate
	Feature(n int) uint32

	// Disregard reports whether Intermediate doesn't regard n-th bit as affecting the output
	Disregard(n int) bool
}

// SingleValue is a single value returned by the final layer
type SingleValue uint32

// Feature extracts the feature from SingleValue
func (v SingleValue) Feature(n int) uint32 {
	return uint32(v)
}

// Disregard reports whether SingleValue doesn't regard n-th bit as affecting the output
func (v SingleValue) Disregard(n int) bool {
	return false
}

// FeedforwardNetworkInput is one individual input to the feedforward network
type FeedforwardNetworkInput interface {
	Feature(n int) uint32
}

// FeedforwardNetworkInOutput is one individual sample with the expected network output
type FeedforwardNetworkInOutput interface {
	Feature(n int) uint32
	Output() uint16
}

// FeedforwardNetwork is the feedforward network. Hashtron layers sit at even
// positions, each followed by a combiner, except the final single hashtron layer.
type FeedforwardNetwork struct {
	layers    [][]hashtron.Hashtron
	combiners []layer.Layer
}

// Len returns the number of hashtrons which need to be trained inside the network.
func (f FeedforwardNetwork) Len() (o int) {
	for _, v := range f.layers {
		o += len(v)
	}
	return
}

// LenLayers returns the number of layers. Each Layer and Combiner counts as a layer here.
func (f FeedforwardNetwork) LenLayers() int {
	return len(f.layers)
}

// GetLayer gets the layer number of hashtron based on hashtron number. Returns -1 on failure.
func (f FeedforwardNetwork) GetLayer(n int) int {
	for i, v := range f.layers {
		if n < len(v) {
			return i
		}
		n -= len(v)
	}
	return -1
}

// GetPosition gets the position of hashtron within layer based on the overall
// hashtron number. Returns -1 on failure.
func (f FeedforwardNetwork) GetPosition(n int) int {
	for _, v := range f.layers {
		if n < len(v) {
			return n
		}
		n -= len(v)
	}
	return -1
}

// GetHashtron gets n-th hashtron pointer in the network.
func (f FeedforwardNetwork) GetHashtron(n int) *hashtron.Hashtron {
	for _, v := range f.layers {
		if n < len(v) {
			return &v[n]
		}
		n -= len(v)
	}
	return nil
}

// NewLayer adds a hashtron layer to the end of network with n hashtrons, each recognizing bits bits.
func (f *FeedforwardNetwork) NewLayer(n int, bits byte) {
	var layer = make([]hashtron.Hashtron, n)
	for i := range layer {
		h, _ := hashtron.New(nil, bits)
		layer[i] = *h
	}
	f.layers = append(f.layers, layer)
	f.combiners = append(f.combiners, nil)
}

// NewCombiner adds a combiner layer to the end of network
func (f *FeedforwardNetwork) NewCombiner(layer layer.Layer) {
	f.layers = append(f.layers, nil)
	f.combiners = append(f.combiners, layer)
}

func (f FeedforwardNetwork) hasCombiner(l int) bool {
	return len(f.combiners) > l+1 && f.combiners[l+1] != nil
}

// Forward solves the intermediate value (net output after layer l based on that layer's input in) and the bit
// returned by worst hashtron is optionally negated (using neg == 1) and returned as computed.
func (f FeedforwardNetwork) Forward(in FeedforwardNetworkInput, l, worst, neg int) (inter Intermediate, computed bool) {
	if f.hasCombiner(l) {
		var combiner = f.combiners[l+1].Lay()
		for i := range f.layers[l] {
			var bit = f.layers[l][i].Forward(in.Feature(i), (i == worst) && (neg == 1))
			combiner.Put(i, bit&1 != 0)
			if i == worst {
				computed = bit&1 != 0
			}
		}
		return combiner, computed
	}
	var val = f.layers[l][0].Forward(in.Feature(0), (0 == worst) && (neg == 1))
	return SingleValue(val), val&1 != 0
}

// Infer infers the network output based on input
func (f FeedforwardNetwork) Infer(in FeedforwardNetworkInput) uint16 {
	var out = FeedforwardNetworkInput(in)
	for l := 0; l < f.LenLayers(); l += 2 {
		out, _ = f.Forward(out, l, -1, 0)
	}
	return uint16(out.Feature(0))
}

// Tally tallies the network on input/output pair with respect to to-be-trained worst hashtron.
// Loss can be nil for classification (0 means correct, 1 wrong), otherwise it ranks how
// wrong the predicted output is.
func (f FeedforwardNetwork) Tally(io FeedforwardNetworkInOutput, worst int, tally *datasets.Tally,
	loss func(predicted, expected uint16) uint32) {
	if loss == nil {
		loss = func(predicted, expected uint16) uint32 {
			if predicted == expected {
				return 0
			}
			return 1
		}
	}
	l := f.GetLayer(worst)
	if l == -1 {
		return
	}
	var output = io.Output()
	var in = FeedforwardNetworkInput(io)
	for l_prev := 0; l_prev < l; l_prev += 2 {
		in, _ = f.Forward(in, l_prev, -1, 0)
	}
	pos := f.GetPosition(worst)

	if !f.hasCombiner(l) {
		// final layer, vote for the expected output of the feature it sees
		tally.AddToMapping(uint16(in.Feature(0)&hashtron.FeatureMask), uint64(output))
		return
	}

	ifw := in.Feature(pos) & hashtron.FeatureMask
	var predicted [2]uint16
	var compute [2]int8
	for neg := 0; neg < 2; neg++ {
		inter, computed := f.Forward(in, l, pos, neg)
		if computed {
			compute[neg] = 1
		} else {
			compute[neg] = -1
		}
		if neg == 0 && inter.Disregard(pos) {
			return
		}
		var out = FeedforwardNetworkInput(inter)
		for l_post := l + 2; l_post < f.LenLayers(); l_post += 2 {
			out, _ = f.Forward(out, l_post, -1, 0)
		}
		predicted[neg] = uint16(out.Feature(0))
	}
	var lossOf = [2]uint32{loss(predicted[0], output), loss(predicted[1], output)}
	if lossOf[0] == 0 && lossOf[1] == 0 {
		// we are correct anyway
		return
	}
	for neg := 0; neg < 2; neg++ {
		if lossOf[neg] == 0 {
			// shift to correct output
			tally.AddToCorrect(ifw, compute[neg], neg == 1)
			return
		}
	}
	if lossOf[0] != lossOf[1] {
		// shift towards better
		if lossOf[0] < lossOf[1] {
			tally.AddToImprove(ifw, compute[0])
		} else {
			tally.AddToImprove(ifw, compute[1])
		}
	}
}
