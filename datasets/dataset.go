// Package datasets implements the dataset type hashtrons are trained on
package datasets

import "math/rand"

// Dataset maps a feature to the bit the hashtron should output for it
type Dataset map[uint32]bool

// Init erases the dataset
func (d *Dataset) Init() {
	*d = make(map[uint32]bool)
}

// Constant reports whether every feature maps to the same bit, and which one.
// An empty dataset is constant false.
func (d Dataset) Constant() (constant bool, value bool) {
	var seen [2]bool
	for _, v := range d {
		if v {
			seen[1] = true
		} else {
			seen[0] = true
		}
		if seen[0] && seen[1] {
			return false, false
		}
	}
	return true, seen[1]
}

type SplittedDataset [2]map[uint32]struct{}

// SplitDataset splits dataset into a false set (index 0) and a true set (index 1)
func SplitDataset(d Dataset) (o SplittedDataset) {
	o[0] = make(map[uint32]struct{})
	o[1] = make(map[uint32]struct{})
	for k, v := range d {
		if v {
			o[1][k] = struct{}{}
		} else {
			o[0][k] = struct{}{}
		}
	}
	return
}

// BalanceDataset fills the smaller set with random features until it matches the bigger set
func BalanceDataset(d SplittedDataset, rng *rand.Rand) SplittedDataset {
	for len(d[0]) < len(d[1]) {
		var w = rng.Uint32() & 0xffff
		if _, ok := d[1][w]; !ok {
			d[0][w] = struct{}{}
		}
	}
	for len(d[1]) < len(d[0]) {
		var w = rng.Uint32() & 0xffff
		if _, ok := d[0][w]; !ok {
			d[1][w] = struct{}{}
		}
	}
	return d
}
