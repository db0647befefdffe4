// Package scoring implements the deterministic scorer: pure functions that map
// an identifier to a stable pseudo-random value or a stable permutation. It is
// intentionally dependency-free: it imports nothing from internal/ and never
// reads the clock or an entropy source, so identical keys give identical
// results in every process.
package scoring

import (
	"hash/fnv"
	"strconv"
)

// ─── CONSTANTS ────────────────────────────────────────────────────────────────

// defaultSeed is used for the empty key and for keys that hash to zero.
const defaultSeed uint32 = 0x9E3779B9

// ─── SEEDED GENERATOR ─────────────────────────────────────────────────────────

// Seed hashes key (FNV-1a, 32 bit) into a generator seed.
func Seed(key string) uint32 {
	if key == "" {
		return defaultSeed
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	if s := h.Sum32(); s != 0 {
		return s
	}
	return defaultSeed
}

// Rand is a mulberry32 generator. The sequence it yields is fully determined
// by its seed. It is not safe for concurrent use; create one per call.
type Rand struct {
	state uint32
}

// NewRand returns a generator positioned at the start of seed's sequence.
func NewRand(seed uint32) *Rand {
	return &Rand{state: seed}
}

// Uint32 advances the generator and returns the next value.
func (r *Rand) Uint32() uint32 {
	r.state += 0x6D2B79F5
	z := r.state
	z = (z ^ (z >> 15)) * (z | 1)
	z ^= z + (z^(z>>7))*(z|61)
	return z ^ (z >> 14)
}

// Float64 returns the next value scaled into [0, 1).
func (r *Rand) Float64() float64 {
	return float64(r.Uint32()) / (1 << 32)
}

// Intn returns the next value scaled into [0, n). n must be positive.
func (r *Rand) Intn(n int) int {
	return int(r.Float64() * float64(n))
}

// ─── CORE FUNCTIONS ───────────────────────────────────────────────────────────

// ScoreOf returns a stable value in [0, 1) for key.
func ScoreOf(key string) float64 {
	return NewRand(Seed(key)).Float64()
}

// ScoreOfSalted returns a stable value in [0, 1) for the (key, salt) pair.
// Different salts give independent-looking values for the same key.
func ScoreOfSalted(key string, salt int64) float64 {
	return ScoreOf(key + "#" + strconv.FormatInt(salt, 10))
}

// IndexOf returns a stable index in [0, n) for key. Returns 0 when n <= 0.
func IndexOf(key string, n int) int {
	if n <= 0 {
		return 0
	}
	return NewRand(Seed(key)).Intn(n)
}

// StableShuffle returns a permutation of items decided entirely by key, using
// a Fisher–Yates shuffle over the seeded generator. The input is not
// modified.
func StableShuffle[T any](items []T, key string) []T {
	out := make([]T, len(items))
	copy(out, items)

	r := NewRand(Seed(key))
	for i := len(out) - 1; i > 0; i-- {
		j := r.Intn(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}
