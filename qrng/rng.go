// SPDX-License-Identifier: MIT

package qrng

import "math/rand"

// defaultRNGSeed replaces a zero seed so the zero Engine still has a fixed stream.
const defaultRNGSeed int64 = 1

// RNGFromSeed returns the math/rand stream behind pseudo-random chunks, Halton
// scrambling, Sobol shifts and random vine structures. seed==0 means defaultRNGSeed.
// The returned *rand.Rand is not safe for concurrent use.
func RNGFromSeed(seed int64) *rand.Rand {
	if seed == 0 {
		seed = defaultRNGSeed
	}

	return rand.New(rand.NewSource(seed))
}

// DeriveSeed mixes a parent seed and a stream id (a chunk index, or a tag for the
// scrambling streams) with the SplitMix64 finalizer, so consecutive ids give
// unrelated seeds.
func DeriveSeed(parent int64, stream uint64) int64 {
	x := uint64(parent) ^ (stream + 0x9e3779b97f4a7c15)
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	x ^= x >> 31

	return int64(x)
}
