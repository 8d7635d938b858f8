package rng

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func draw(t *testing.T, a *Adapter, run, test string, seed int64) []float64 {
	t.Helper()
	r, err := a.Stream(context.Background(), run, test, seed)
	require.NoError(t, err)
	out := make([]float64, 5)
	for i := range out {
		out[i] = r.Float64()
	}
	return out
}

func TestStream_SeededIsReproducible(t *testing.T) {
	a := New()

	assert.Equal(t, draw(t, a, "run", "BT-001", 42), draw(t, a, "run", "BT-001", 42))
	assert.NotEqual(t, draw(t, a, "run", "BT-001", 42), draw(t, a, "run", "BT-002", 42))
	assert.NotEqual(t, draw(t, a, "run", "BT-001", 42), draw(t, a, "run", "BT-001", 43))
}

func TestStream_ZeroSeedUsesEntropy(t *testing.T) {
	a := New()
	assert.NotEqual(t, draw(t, a, "run", "BT-001", 0), draw(t, a, "run", "BT-001", 0))
}

func TestStream_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New().Stream(ctx, "run", "BT-001", 1)
	assert.ErrorIs(t, err, context.Canceled)

	_, err = New().SeededStream(ctx, "box", 1)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSeededStream_NameSeparatesStreams(t *testing.T) {
	a := New()
	r1, err := a.SeededStream(context.Background(), "box", 7)
	require.NoError(t, err)
	r2, err := a.SeededStream(context.Background(), "violin", 7)
	require.NoError(t, err)
	assert.NotEqual(t, r1.Float64(), r2.Float64())
}

func TestSeededStream_Reproducible(t *testing.T) {
	a := New()
	r1, err := a.SeededStream(context.Background(), "distribution/NMC/efficiency", 11)
	require.NoError(t, err)
	r2, err := a.SeededStream(context.Background(), "distribution/NMC/efficiency", 11)
	require.NoError(t, err)
	assert.Equal(t, r1.Int63(), r2.Int63())
}
