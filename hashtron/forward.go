package hashtron

import "github.com/neurlang/quaternary"

import "github.com/neurlang/detector/hash"

// FeatureMask is the part of the command a hashtron looks at, the rest selects the output bit.
const FeatureMask = 0xffff

// Forward computes the hashtron output bits for command. With negate, every bit is flipped.
func (h Hashtron) Forward(command uint32, negate bool) (out uint16) {
	if h.Len() == 0 {
		return
	}
	for j := byte(0); j < h.Bits(); j++ {
		var input = (command & FeatureMask) | (uint32(j) << 16)
		for i := 0; i < h.Len(); i++ {
			var s, max = h.Get(i)
			input = hash.Hash(input, s, max)
		}
		var bit = quaternary.Filter(h.quaternary).GetUint32(input)
		if negate {
			bit = !bit
		}
		if bit {
			out |= 1 << j
		}
	}
	return
}
