package feedforward

import "bytes"
import "math/rand"
import "testing"

import "github.com/neurlang/quaternary"
import "github.com/stretchr/testify/assert"
import "github.com/stretchr/testify/require"

import "github.com/neurlang/detector/datasets"
import "github.com/neurlang/detector/hashtron"
import "github.com/neurlang/detector/layer/full"
import "github.com/neurlang/detector/learning"

type sample struct {
	features [2]uint32
	output   uint16
}

func (s sample) Feature(n int) uint32 { return s.features[n%2] }
func (s sample) Output() uint16       { return s.output }

func newTestNetwork() FeedforwardNetwork {
	var net FeedforwardNetwork
	net.NewLayer(2, 0)
	net.NewCombiner(full.MustNew(2, 1, 2))
	net.NewLayer(1, 2)
	return net
}

// constant sets hashtron n to always answer value
func constant(t *testing.T, net FeedforwardNetwork, n int, value bool) {
	h := net.GetHashtron(n)
	c, err := hashtron.NewFilter([][2]uint32{{0, 1}}, h.Bits(), quaternary.Make(map[uint32]bool{0: value}))
	require.NoError(t, err)
	*h = *c
}

func TestShape(t *testing.T) {
	net := newTestNetwork()
	assert.Equal(t, 3, net.Len())
	assert.Equal(t, 3, net.LenLayers())
	assert.Equal(t, 0, net.GetLayer(1))
	assert.Equal(t, 2, net.GetLayer(2))
	assert.Equal(t, -1, net.GetLayer(3))
	assert.Equal(t, 0, net.GetPosition(2))
	assert.Equal(t, byte(2), net.GetHashtron(2).Bits())
	assert.Equal(t, []int{2, 0, 1}, net.Sequence(nil))
	assert.Len(t, net.Sequence(rand.New(rand.NewSource(1))), 3)
}

func TestTallyVotesForCorrectingBit(t *testing.T) {
	net := newTestNetwork()
	constant(t, net, 0, false)
	constant(t, net, 1, false)

	// final layer answers its 2 bit input unchanged, the input being b0<<1|b1
	var d datasets.Dataset
	d.Init()
	for f := uint32(0); f < 4; f++ {
		d[f] = f&1 != 0
		d[f|1<<16] = f&2 != 0
	}
	h := learning.HyperParameters{Threads: 1, Seed: 1}
	identity, err := h.Training(d, 2)
	require.NoError(t, err)
	*net.GetHashtron(2) = *identity
	assert.Equal(t, uint16(0), net.Infer(sample{}))

	// expected output 2 (binary 10) needs hashtron 0 to say true
	var tally datasets.Tally
	tally.Init()
	net.Tally(sample{features: [2]uint32{5, 6}, output: 2}, 0, &tally, nil)
	assert.True(t, tally.GetImprovementPossible())
	assert.Equal(t, datasets.Dataset{5: true}, tally.Dataset(1))

	// hashtron 1 can't fix output 2 alone
	tally.Init()
	net.Tally(sample{features: [2]uint32{5, 6}, output: 2}, 1, &tally, nil)
	assert.Zero(t, tally.Len())

	// output 0 is already correct, hashtron 1 is asked to keep saying false
	tally.Init()
	net.Tally(sample{features: [2]uint32{5, 6}, output: 0}, 1, &tally, nil)
	assert.False(t, tally.GetImprovementPossible())
	assert.Equal(t, datasets.Dataset{6: false}, tally.Dataset(1))

	// final layer tallies the mapping of the feature it sees
	tally.Init()
	net.Tally(sample{features: [2]uint32{5, 6}, output: 3}, 2, &tally, nil)
	assert.Equal(t, datasets.Dataset{0: true, 1 << 16: true}, tally.Dataset(2))
}

func TestWeightsRoundTrip(t *testing.T) {
	net := newTestNetwork()
	var buf bytes.Buffer
	require.NoError(t, net.WriteCompressedWeights(&buf))

	other := newTestNetwork()
	require.NoError(t, other.ReadCompressedWeights(bytes.NewReader(buf.Bytes())))
	for f := uint32(0); f < 50; f++ {
		s := sample{features: [2]uint32{f, f * 3}}
		assert.Equal(t, net.Infer(s), other.Infer(s))
	}

	var wrong FeedforwardNetwork
	wrong.NewLayer(1, 2)
	assert.Error(t, wrong.ReadCompressedWeights(bytes.NewReader(buf.Bytes())))
}
