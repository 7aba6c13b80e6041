package testutil

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lorenzorota/zkpytoolkit/internal/modulus"
)

func TestFixedGenerator_ReturnsInOrder(t *testing.T) {
	gen := NewFixedGenerator("a", "b")

	assert.Equal(t, "a", gen.Generate())
	assert.Equal(t, "b", gen.Generate())
	assert.Panics(t, func() { gen.Generate() })
}

func TestFixedGenerator_ThreadSafe(t *testing.T) {
	ids := make([]string, 100)
	for i := range ids {
		ids[i] = "id"
	}
	gen := NewFixedGenerator(ids...)

	done := make(chan struct{})
	for i := 0; i < 10; i++ {
		go func() {
			for j := 0; j < 10; j++ {
				gen.Generate()
			}
			done <- struct{}{}
		}()
	}
	for i := 0; i < 10; i++ {
		<-done
	}
	assert.Panics(t, func() { gen.Generate() })
}

func TestFakeBackend_Records(t *testing.T) {
	f := NewFakeBackend()
	ctx := context.Background()

	require.NoError(t, f.Init(ctx, modulus.MustNew(big.NewInt(97))))
	art, err := f.Compile(ctx, "f", "src")
	require.NoError(t, err)
	assert.Equal(t, 1, art.Constraints)

	ok, err := f.SetupVerification(ctx, "f", "terms")
	require.NoError(t, err)
	assert.True(t, ok)

	assert.Equal(t, []string{"init", "compile", "verify"}, f.Ops())
	assert.Equal(t, BackendCall{Op: "init", Input: "97"}, f.Calls()[0])
}

func TestFakeBackend_Errors(t *testing.T) {
	boom := errors.New("boom")
	f := NewFakeBackend()
	f.ProveErr = boom

	_, err := f.SetupProof(context.Background(), "f", "terms")
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"prove"}, f.Ops())
}
