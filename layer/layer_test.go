package layer_test

import "testing"

import "github.com/stretchr/testify/assert"
import "github.com/stretchr/testify/require"

import "github.com/neurlang/detector/layer/conv2d"
import "github.com/neurlang/detector/layer/full"

func TestConv2DWindows(t *testing.T) {
	l, err := conv2d.New(3, 3, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, 4, l.Outputs())

	c := l.Lay()
	// 1 0 0
	// 0 1 0
	// 0 0 1
	for _, n := range []int{0, 4, 8} {
		c.Put(n, true)
	}
	assert.Equal(t, uint32(0b1001), c.Feature(0))
	assert.Equal(t, uint32(0b0010), c.Feature(1))
	assert.Equal(t, uint32(0b0100), c.Feature(2))
	assert.Equal(t, uint32(0b1001), c.Feature(3))
	assert.False(t, c.Disregard(0))

	_, err = conv2d.New(2, 2, 3, 1)
	assert.Error(t, err)
	_, err = conv2d.New(8, 8, 5, 5)
	assert.Error(t, err)
}

func TestFullPacksBits(t *testing.T) {
	l, err := full.New(5, 1, 5)
	require.NoError(t, err)
	c := l.Lay()
	c.Put(0, true)
	c.Put(3, true)
	assert.Equal(t, uint32(0b10010), c.Feature(0))
	// reading past the end pads with zeros
	assert.Equal(t, uint32(0b10000), c.Feature(3))

	_, err = full.New(5, 1, 17)
	assert.Error(t, err)
}
