// SPDX-License-Identifier: MIT

package qrng

// HaltonMaxDim is the largest dimension served by the Halton generator under KindAuto.
// Above it, the radical-inverse bases grow large enough that leading points
// correlate across coordinates and Sobol is used instead.
const HaltonMaxDim = 300

// halton is a generalized (linearly scrambled) Halton sequence.
//
// Coordinate j uses the j-th prime b_j and a multiplier f_j ∈ [1, b_j-1]:
// digit a of the index in base b_j is replaced by (f_j·a) mod b_j. The map
// keeps digit 0 fixed, so radical inverses stay finite. Multipliers come from
// the engine seed; seed 0 and seed s ≠ 0 both give fixed, reproducible tables.
type halton struct {
	bases []int // primes, len == dim
	mult  []int // scrambling multipliers, len == dim
}

// newHalton builds the prime table and multipliers for dim coordinates.
// Complexity: O(p log log p) for the sieve, p ≈ dim·log(dim).
func newHalton(dim int, seed int64) *halton {
	h := &halton{bases: firstPrimes(dim), mult: make([]int, dim)}
	r := RNGFromSeed(DeriveSeed(seed, 0x48616c74))
	for j, b := range h.bases {
		if b == 2 {
			h.mult[j] = 1 // the only non-zero digit map in base 2
			continue
		}
		h.mult[j] = 1 + r.Intn(b-1)
	}

	return h
}

// point writes coordinate values of the index-th point into dst.
// Complexity: O(dim · log_b(index)).
func (h *halton) point(index uint64, dst []float64) {
	var j, a int
	var k uint64
	var inv, scale float64
	for j = range dst {
		b := uint64(h.bases[j])
		f := uint64(h.mult[j])
		inv = 0
		scale = 1.0 / float64(b)
		for k = index; k > 0; k /= b {
			a = int((uint64(k%b) * f) % b) // scrambled digit
			inv += float64(a) * scale
			scale /= float64(b)
		}
		dst[j] = inv
	}
}

// firstPrimes returns the first n primes using a growing sieve of Eratosthenes.
func firstPrimes(n int) []int {
	if n <= 0 {
		return nil
	}
	limit := 16
	for {
		sieve := make([]bool, limit+1) // true == composite
		primes := make([]int, 0, n)
		for i := 2; i <= limit && len(primes) < n; i++ {
			if sieve[i] {
				continue
			}
			primes = append(primes, i)
			for m := i * i; m <= limit; m += i {
				sieve[m] = true
			}
		}
		if len(primes) == n {
			return primes
		}
		limit *= 2
	}
}
