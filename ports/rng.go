package ports

import (
	"context"
	"math/rand"
)

// RandomSource is the only thing the synthesizer needs from a generator.
// *rand.Rand satisfies it. Implementations need not be goroutine-safe;
// hand each goroutine its own source.
type RandomSource interface {
	Float64() float64
}

// RNGPort provides random number streams for synthesis
type RNGPort interface {
	// SeededStream creates a generator for a named operation that is not tied
	// to one test. A non-zero seed makes it deterministic; zero means entropy.
	SeededStream(ctx context.Context, name string, seed int64) (*rand.Rand, error)

	// Stream derives a generator for one test within one run. With a non-zero
	// baseSeed the same (runKey, testKey, baseSeed) always yields the same
	// stream; with a zero baseSeed the stream is entropy-seeded.
	Stream(ctx context.Context, runKey, testKey string, baseSeed int64) (*rand.Rand, error)
}
