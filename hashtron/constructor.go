package hashtron

import "fmt"
import "math/rand"

// MaxBits is the most output bits a hashtron can produce
const MaxBits = 16

// New creates a hashtron from program. A nil program creates a random single bit
// function, which is how untrained hashtrons start.
func New(program [][2]uint32, bits byte) (h *Hashtron, err error) {
	return NewFilter(program, bits, nil)
}

// NewFilter creates a hashtron from program whose final hash is answered by the
// quaternary filter q.
func NewFilter(program [][2]uint32, bits byte, q []byte) (h *Hashtron, err error) {
	if bits == 0 {
		bits = 1
	}
	if bits > MaxBits {
		return nil, fmt.Errorf("new hashtron: %d bits is more than %d", bits, MaxBits)
	}
	h = new(Hashtron)
	if program == nil {
		h.program = [][2]uint32{{rand.Uint32() >> 1, 2}}
	} else {
		for i, v := range program {
			if v[1] == 0 {
				return nil, fmt.Errorf("new hashtron: modulo 0 at command %d", i)
			}
		}
		h.program = program
	}
	h.quaternary = q
	h.bits = bits
	return
}
