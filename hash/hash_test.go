package hash

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// performance benchmark
func BenchmarkHash(b *testing.B) {
	n := uint32(0)
	s := uint32(0)
	for i := 0; i < b.N; i++ {
		n = Hash(n, s, 1<<20)
		s++
	}
}

func TestHashRange(t *testing.T) {
	for _, max := range []uint32{2, 3, 7, 1000, 1 << 16, 1<<31 + 11} {
		for n := uint32(0); n < 2000; n++ {
			out := Hash(n*2654435761, n, max)
			require.Less(t, out, max, "Hash(%d, %d, %d)", n, n, max)
		}
	}
}

func TestHashDegenerateModulo(t *testing.T) {
	for n := uint32(0); n < 100; n++ {
		assert.Zero(t, Hash(n, 12345, 0))
		assert.Zero(t, Hash(n, 12345, 1))
	}
}

// sanity check fuzz
func FuzzHash(f *testing.F) {
	f.Add(uint32(0), uint32(0), uint32(0))
	f.Fuzz(func(t *testing.T, n, s, max uint32) {
		out := Hash(n, s, max)
		if max <= 1 && out != 0 {
			t.Errorf("Hash(%d, %d, %d) == %d (max<=1 should be 0)", n, s, max, out)
		}
		if max > 1 && out >= max {
			t.Errorf("Hash(%d, %d, %d) == %d (output bigger or equal than max)", n, s, max, out)
		}
	})
}
