// Package rng implements ports.RNGPort.
package rng

import (
	"context"
	crand "crypto/rand"
	"encoding/binary"
	"math/rand"
)

// Adapter hands out independent *rand.Rand streams. It holds no state, so a
// single Adapter can be shared across goroutines; the streams cannot.
type Adapter struct{}

// New returns an RNG adapter
func New() *Adapter {
	return &Adapter{}
}

// SeededStream creates a generator for a named operation. Zero seed means entropy.
func (a *Adapter) SeededStream(ctx context.Context, name string, seed int64) (*rand.Rand, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if seed == 0 {
		return rand.New(rand.NewSource(entropySeed())), nil
	}
	return rand.New(rand.NewSource(seed + int64(hashString(name)))), nil
}

// Stream derives a per-test generator. Zero baseSeed means entropy.
func (a *Adapter) Stream(ctx context.Context, runKey, testKey string, baseSeed int64) (*rand.Rand, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if baseSeed == 0 {
		return rand.New(rand.NewSource(entropySeed())), nil
	}
	seed := baseSeed
	if runKey != "" {
		seed = int64(hashString(runKey)) + seed
	}
	if testKey != "" {
		seed = int64(hashString(testKey))*31 + seed
	}
	return rand.New(rand.NewSource(seed)), nil
}

func entropySeed() int64 {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return rand.Int63()
	}
	return int64(binary.LittleEndian.Uint64(b[:]))
}

// hashString is djb2
func hashString(s string) uint32 {
	var hash uint32 = 5381
	for _, c := range s {
		hash = ((hash << 5) + hash) + uint32(c)
	}
	return hash
}
