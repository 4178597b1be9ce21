// Package hash implements the fast modular hash used by hashtrons
package hash

// Hash mixes n with the salt s and reduces the result to the range [0, max).
// Hash(n, s, 0) and Hash(n, s, 1) are always 0.
func Hash(n uint32, s uint32, max uint32) uint32 {
	// mix input with salt using subtraction
	var m = n - s

	// xor shift with prime coefficients
	m ^= m << 2
	m ^= m << 3
	m ^= m >> 5
	m ^= m >> 7
	m ^= m << 11
	m ^= m << 13
	m ^= m >> 17
	m ^= m << 19

	// mix again with salt using addition
	m += s

	// multiply shift reduction by Daniel Lemire instead of modulo
	// https://lemire.me/blog/2016/06/27/a-fast-alternative-to-the-modulo-reduction/
	return uint32((uint64(m) * uint64(max)) >> 32)
}
