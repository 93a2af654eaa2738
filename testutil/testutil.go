package testutil

import (
	"fmt"
	"math/rand"
	"strings"
	"sync"
)

const letters = "abcdefghijklmnopqrstuvwxyz"

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Float64 returns a pseudo-random number in [0.0,1.0).
func (r *RNG) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float64()
}

// Word returns a pseudo-random lowercase word of the given length.
func (r *RNG) Word(length int) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	b := make([]byte, length)
	for i := range b {
		b[i] = letters[r.rand.Intn(len(letters))]
	}
	return string(b)
}

// GenerateCSV renders a deterministic CSV document with a header line
// and the given shape. Column 0 is the 1-based row number, odd columns
// hold integers, even columns hold words, so type sniffing in parsers
// gets exercised.
func GenerateCSV(rng *RNG, rows, cols int) string {
	var sb strings.Builder

	for c := 0; c < cols; c++ {
		if c > 0 {
			sb.WriteByte(',')
		}
		fmt.Fprintf(&sb, "col%d", c)
	}
	sb.WriteByte('\n')

	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			if c > 0 {
				sb.WriteByte(',')
			}
			switch {
			case c == 0:
				fmt.Fprintf(&sb, "%d", r+1)
			case c%2 == 1:
				fmt.Fprintf(&sb, "%d", rng.Intn(100000))
			default:
				sb.WriteString(rng.Word(5 + rng.Intn(10)))
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
