package hashtron

import "bytes"
import "testing"

import "github.com/neurlang/quaternary"
import "github.com/stretchr/testify/assert"
import "github.com/stretchr/testify/require"

import "github.com/neurlang/detector/hash"

func TestNewRejectsBadPrograms(t *testing.T) {
	_, err := New([][2]uint32{{1, 0}}, 1)
	assert.Error(t, err)

	_, err = New(nil, MaxBits+1)
	assert.Error(t, err)
}

func TestForwardParityAndFilter(t *testing.T) {
	h, err := New([][2]uint32{{7, 1 << 20}}, 1)
	require.NoError(t, err)
	for cmd := uint32(0); cmd < 64; cmd++ {
		want := uint16(hash.Hash(cmd, 7, 1<<20) & 1)
		assert.Equal(t, want, h.Forward(cmd, false))
		assert.Equal(t, want^1, h.Forward(cmd, true))
	}

	// modulo 1 always asks the filter about 0
	one, err := NewFilter([][2]uint32{{0, 1}}, 3, quaternary.Make(map[uint32]bool{0: true}))
	require.NoError(t, err)
	assert.Equal(t, uint16(7), one.Forward(12345, false))
	assert.Equal(t, uint16(0), one.Forward(12345, true))
	assert.Positive(t, one.LenQ())
}

func TestForwardAnswersFilter(t *testing.T) {
	var answers = map[uint32]bool{}
	for v := uint32(0); v < 97; v++ {
		answers[v] = v%3 == 0
	}
	h, err := NewFilter([][2]uint32{{3, 97}}, 1, quaternary.Make(answers))
	require.NoError(t, err)
	for cmd := uint32(0); cmd < 500; cmd++ {
		want := answers[hash.Hash(cmd, 3, 97)]
		assert.Equal(t, want, h.Forward(cmd, false) == 1, "command %d", cmd)
	}
}

func TestJsonRoundTrip(t *testing.T) {
	h, err := NewFilter([][2]uint32{{11, 1000}, {5, 17}}, 2, quaternary.Make(map[uint32]bool{1: true, 4: false, 9: true}))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, h.WriteJson(&buf))

	var back Hashtron
	require.NoError(t, back.ReadJson(&buf))
	assert.Equal(t, h.program, back.program)
	assert.Equal(t, h.quaternary, back.quaternary)
	assert.Equal(t, h.Bits(), back.Bits())
	for cmd := uint32(0); cmd < 100; cmd++ {
		assert.Equal(t, h.Forward(cmd, false), back.Forward(cmd, false))
	}
}

func FuzzHashtronSerialize(f *testing.F) {
	f.Add([]byte{1, 2, 3, 4, 5, 6, 7, 8})
	f.Fuzz(func(t *testing.T, buffer []byte) {
		var program [][2]uint32
		for i := 0; i+8 <= len(buffer); i += 8 {
			s := uint32(buffer[i]) | uint32(buffer[i+1])<<8 | uint32(buffer[i+2])<<16 | uint32(buffer[i+3])<<24
			m := uint32(buffer[i+4]) | uint32(buffer[i+5])<<8 | uint32(buffer[i+6])<<16 | uint32(buffer[i+7])<<24
			program = append(program, [2]uint32{s, m | 1})
		}
		if len(program) == 0 {
			return
		}
		tron, err := New(program, 0)
		if err != nil {
			t.Fatal(err)
		}
		var buf bytes.Buffer
		if err := tron.WriteJson(&buf); err != nil {
			t.Fatal(err)
		}
		var back Hashtron
		if err := back.ReadJson(&buf); err != nil {
			t.Fatal(err)
		}
		if len(back.program) != len(program) {
			t.Fatalf("len mismatch: %d != %d", len(back.program), len(program))
		}
		for i, v := range back.program {
			if program[i] != v {
				t.Fatalf("command %d: %v != %v", i, v, program[i])
			}
		}
	})
}
