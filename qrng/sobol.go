// SPDX-License-Identifier: MIT

package qrng

// sobolBits is the resolution of every Sobol coordinate (values are k/2^32).
const sobolBits = 32

// directionSeed fixes the initial direction numbers of coordinates ≥ 1.
// It is independent of the engine seed: the seed only drives the digital shift,
// so every seed sees the same underlying net.
const directionSeed int64 = 0x536f626f6c

// sobol is a digitally shifted Sobol sequence.
//
// Coordinate 0 is the van der Corput sequence in base 2. Coordinate j ≥ 1 uses the
// j-th primitive polynomial over GF(2) (enumerated by degree, then by coefficient
// bits) with odd initial direction numbers m_k < 2^k drawn from a fixed stream.
// Points are generated in Gray-code order, so any index is reachable in O(dim·32).
type sobol struct {
	v     [][sobolBits]uint32 // direction numbers per coordinate
	shift []uint32            // digital shift per coordinate
}

// newSobol builds direction numbers for dim coordinates.
// Complexity: O(dim·32) plus the polynomial search (degree ≤ 18 for dim ≤ 21000).
func newSobol(dim int, seed int64) *sobol {
	s := &sobol{v: make([][sobolBits]uint32, dim), shift: make([]uint32, dim)}
	polys := primitivePolynomials(dim - 1)
	r := RNGFromSeed(directionSeed)
	var k int
	for k = 0; k < sobolBits; k++ {
		s.v[0][k] = 1 << (sobolBits - 1 - k)
	}
	for j := 1; j < dim; j++ {
		p := polys[j-1]
		deg := polyDegree(p)
		m := make([]uint32, sobolBits)
		for k = 0; k < deg && k < sobolBits; k++ {
			// m_{k+1} odd and < 2^{k+1}
			m[k] = uint32(2*r.Intn(1<<k) + 1)
		}
		for k = deg; k < sobolBits; k++ {
			next := m[k-deg] ^ (m[k-deg] << deg)
			for i := 1; i < deg; i++ {
				if (p>>(deg-i))&1 == 1 {
					next ^= m[k-i] << i
				}
			}
			m[k] = next
		}
		for k = 0; k < sobolBits; k++ {
			s.v[j][k] = m[k] << (sobolBits - 1 - k)
		}
	}
	sr := RNGFromSeed(DeriveSeed(seed, 0x536f62))
	for j := range s.shift {
		s.shift[j] = uint32(sr.Int63())
	}

	return s
}

// point writes the index-th shifted point into dst.
// Complexity: O(dim·32).
func (s *sobol) point(index uint64, dst []float64) {
	gray := index ^ (index >> 1)
	var j, k int
	var x uint32
	for j = range dst {
		x = 0
		for k = 0; k < sobolBits && (gray>>k) != 0; k++ {
			if (gray>>k)&1 == 1 {
				x ^= s.v[j][k]
			}
		}
		dst[j] = float64(x^s.shift[j]) / (1 << sobolBits)
	}
}

// primitivePolynomials returns the first n primitive polynomials over GF(2),
// ordered by degree and then by their coefficient bits. Bit i holds the
// coefficient of x^i; the leading and constant terms are always set.
func primitivePolynomials(n int) []uint64 {
	out := make([]uint64, 0, n)
	for deg := 1; len(out) < n; deg++ {
		if deg == 1 {
			out = append(out, 0b11) // x + 1
			continue
		}
		factors := primeFactors((uint64(1) << deg) - 1)
		for mid := uint64(0); mid < uint64(1)<<(deg-1) && len(out) < n; mid++ {
			p := uint64(1)<<deg | mid<<1 | 1
			if isPrimitive(p, deg, factors) {
				out = append(out, p)
			}
		}
	}

	return out
}

// isPrimitive reports whether x has multiplicative order 2^deg - 1 modulo p.
func isPrimitive(p uint64, deg int, factors []uint64) bool {
	order := (uint64(1) << deg) - 1
	if polyPowX(order, p, deg) != 1 {
		return false
	}
	for _, q := range factors {
		if polyPowX(order/q, p, deg) == 1 {
			return false
		}
	}

	return true
}

// polyPowX computes x^e mod p over GF(2).
func polyPowX(e, p uint64, deg int) uint64 {
	result := uint64(1)
	base := uint64(2) // the polynomial x
	for e > 0 {
		if e&1 == 1 {
			result = polyMulMod(result, base, p, deg)
		}
		base = polyMulMod(base, base, p, deg)
		e >>= 1
	}

	return result
}

// polyMulMod multiplies a and b (both of degree < deg) modulo p over GF(2).
func polyMulMod(a, b, p uint64, deg int) uint64 {
	var r uint64
	for b != 0 {
		if b&1 == 1 {
			r ^= a
		}
		b >>= 1
		a <<= 1
		if (a>>deg)&1 == 1 {
			a ^= p
		}
	}

	return r
}

// polyDegree returns the index of the highest set bit of p.
func polyDegree(p uint64) int {
	deg := -1
	for p != 0 {
		p >>= 1
		deg++
	}

	return deg
}

// primeFactors returns the distinct prime factors of n by trial division.
func primeFactors(n uint64) []uint64 {
	var out []uint64
	for q := uint64(2); q*q <= n; q++ {
		if n%q == 0 {
			out = append(out, q)
			for n%q == 0 {
				n /= q
			}
		}
	}
	if n > 1 {
		out = append(out, n)
	}

	return out
}
