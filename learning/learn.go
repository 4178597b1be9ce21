// Package learning implements the learning stage of the hashtron classifier
package learning

import crypto_rand "crypto/rand"
import "encoding/binary"
import "math/rand"
import "sync"

import "github.com/jbarham/primegen"
import "github.com/neurlang/quaternary"
import "github.com/pkg/errors"

import "github.com/neurlang/detector/datasets"
import "github.com/neurlang/detector/hash"
import "github.com/neurlang/detector/hashtron"
import "github.com/neurlang/detector/parallel"

// ErrNoSolution is returned when no salt separates the dataset below MaxModulo.
var ErrNoSolution = errors.New("no hashtron solution")

// Training solves the dataset into a hashtron producing bits output bits.
// Every feature of d is answered correctly by the returned hashtron.
func (h *HyperParameters) Training(d datasets.Dataset, bits byte) (*hashtron.Hashtron, error) {
	h.Defaults()

	if constant, value := d.Constant(); constant {
		// modulo 1 sends everything to 0
		var q = quaternary.Make(map[uint32]bool{0: value})
		return hashtron.NewFilter([][2]uint32{{0, 1}}, bits, q)
	}

	var rng = rand.New(rand.NewSource(h.seed()))

	var sd = datasets.SplitDataset(d)
	if h.Balance {
		sd = datasets.BalanceDataset(sd, rng)
	}

	var alphabet = [2][]uint32{
		make([]uint32, 0, len(sd[0])),
		make([]uint32, 0, len(sd[1])),
	}
	for v := range sd[0] {
		alphabet[0] = append(alphabet[0], v)
	}
	for v := range sd[1] {
		alphabet[1] = append(alphabet[1], v)
	}

	// climb prime moduli until some salt separates the two sets
	var pg = primegen.New()
	var p uint64
	var target = uint64(len(alphabet[0]) + len(alphabet[1]))
	var sol [2]uint32
	for {
		for p < target {
			p = pg.Next()
		}
		if p > uint64(h.MaxModulo) {
			h.log("unsolved", "size", len(d), "modulo", p)
			return nil, errors.Wrapf(ErrNoSolution, "%d features, modulo above %d", len(d), h.MaxModulo)
		}
		var ok bool
		if sol, ok = h.Reduce(uint32(p), &alphabet, rng.Uint32()); ok {
			break
		}
		target = p + p/2 + 1
	}
	var program = [][2]uint32{sol}
	alphabet = images(alphabet, sol)

	// then shrink the modulo while the sets stay separated
	var max = sol[1]
	for {
		var next = uint64(max) * uint64(h.Numerator) / uint64(h.Denominator)
		if next <= uint64(h.Subtractor)+1 {
			break
		}
		next -= uint64(h.Subtractor)
		if next >= uint64(max) {
			break
		}
		var ok bool
		if sol, ok = h.Reduce(uint32(next), &alphabet, rng.Uint32()); !ok {
			break
		}
		program = append(program, sol)
		alphabet = images(alphabet, sol)
		max = sol[1]
	}

	// the separated images are what the filter has to answer
	var answers = make(map[uint32]bool, len(alphabet[0])+len(alphabet[1]))
	for c := range alphabet {
		for _, v := range alphabet[c] {
			answers[v] = c == 1
		}
	}
	var q = quaternary.Make(answers)
	h.log("solution", "size", len(d), "program", len(program), "modulo", max, "filter", len(q))
	return hashtron.NewFilter(program, bits, q)
}

// Reduce searches for a salt under which no feature of alphabet[0] hashes to the
// same value as a feature of alphabet[1] modulo max.
func (h *HyperParameters) Reduce(max uint32, alphabet *[2][]uint32, base uint32) (off [2]uint32, ok bool) {
	var mut sync.Mutex
	var found bool
	parallel.Loop(h.Threads).LoopN(h.Attempts, func(i uint32, ender parallel.LoopStopper) bool {
		var s = base + i*0x9e3779b9
		if !separates(alphabet, s, max) {
			return false
		}
		mut.Lock()
		if !found {
			found = true
			off = [2]uint32{s, max}
		}
		mut.Unlock()
		return true
	})
	return off, found
}

func separates(alphabet *[2][]uint32, s, max uint32) bool {
	var set0 = make(map[uint32]struct{}, len(alphabet[0]))
	for _, v := range alphabet[0] {
		set0[hash.Hash(v, s, max)] = struct{}{}
	}
	for _, v := range alphabet[1] {
		if _, clash := set0[hash.Hash(v, s, max)]; clash {
			return false
		}
	}
	return true
}

// images replaces both sets with their distinct hashes under sol
func images(alphabet [2][]uint32, sol [2]uint32) (o [2][]uint32) {
	for c := range alphabet {
		var seen = make(map[uint32]struct{}, len(alphabet[c]))
		o[c] = make([]uint32, 0, len(alphabet[c]))
		for _, v := range alphabet[c] {
			var w = hash.Hash(v, sol[0], sol[1])
			if _, dup := seen[w]; !dup {
				seen[w] = struct{}{}
				o[c] = append(o[c], w)
			}
		}
	}
	return
}

func (h *HyperParameters) seed() int64 {
	if h.Seed != 0 {
		return h.Seed
	}
	var b [8]byte
	if _, err := crypto_rand.Read(b[:]); err != nil {
		return 1
	}
	return int64(binary.LittleEndian.Uint64(b[:]))
}

func (h *HyperParameters) log(msg string, args ...any) {
	if h.l == nil {
		return
	}
	if h.Name != "" {
		args = append(args, "name", h.Name)
	}
	h.l.Info(msg, args...)
}
