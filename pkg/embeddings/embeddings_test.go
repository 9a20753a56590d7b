// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package embeddings

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gomlx/simalign/pkg/vocab"
)

func writeEmbeddings(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "emb.vec")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestSynthesize(t *testing.T) {
	v := vocab.FromTokens([]string{"a", "b", "c"})
	e, err := Build(v).Dim(8).Seed(1234).Done()
	require.NoError(t, err)
	assert.Equal(t, 8, e.Dim())
	assert.Equal(t, v.Size(), e.Size())
	assert.Equal(t, 0, e.NumFromFile())
	limit := InitScale * 1.0001 // Slack for float32 rounding.
	for id := range e.Size() {
		for _, value := range e.Vector(id) {
			assert.LessOrEqual(t, float64(value), limit)
			assert.GreaterOrEqual(t, float64(value), -limit)
		}
	}

	// Same seed, same values.
	e2, err := Build(v).Dim(8).Seed(1234).Done()
	require.NoError(t, err)
	assert.Equal(t, e.Vector(1), e2.Vector(1))

	// No dimension and no file.
	_, err = Build(v).Done()
	require.Error(t, err)
}

func TestLoad(t *testing.T) {
	v := vocab.FromTokens([]string{"the", "cat", "dog"})
	path := writeEmbeddings(t, "4 3\nthe 1 2 3\nzebra 9 9 9\ncat 4 5 6\nbad 1 2\ncat 7 7 7\n")
	e, err := Build(v).FromFile(path).Seed(1).WithProgressBar(true).Done()
	require.NoError(t, err)
	assert.Equal(t, 3, e.Dim())
	assert.Equal(t, 2, e.NumFromFile())
	assert.Equal(t, []float32{1, 2, 3}, e.Vector(v.ID("the")))
	assert.Equal(t, []float32{4, 5, 6}, e.Vector(v.ID("cat")))

	// Matching dimension is accepted.
	_, err = Build(v).FromFile(path).Dim(3).Done()
	require.NoError(t, err)

	// Conflicting dimension is not.
	_, err = Build(v).FromFile(path).Dim(5).Done()
	require.ErrorContains(t, err, "dimension")

	tensor := e.Tensor()
	assert.Equal(t, []int{v.Size(), 3}, tensor.Shape().Dimensions)
}

func TestLoadWithoutHeader(t *testing.T) {
	v := vocab.FromTokens([]string{"the", "cat"})
	path := writeEmbeddings(t, "the 0.5 0.25\ncat -1 1\n")
	e, err := Build(v).FromFile(path).Done()
	require.NoError(t, err)
	assert.Equal(t, 2, e.Dim())
	assert.Equal(t, []float32{-1, 1}, e.Vector(v.ID("cat")))
}

func TestLoadOneDimension(t *testing.T) {
	// "123 5" is a vector, not a header.
	v := vocab.FromTokens([]string{"123", "7"})
	path := writeEmbeddings(t, "123 5\n7 0.5\n")
	e, err := Build(v).FromFile(path).Done()
	require.NoError(t, err)
	assert.Equal(t, 1, e.Dim())
	assert.Equal(t, 2, e.NumFromFile())
	assert.Equal(t, []float32{5}, e.Vector(v.ID("123")))
	assert.Equal(t, []float32{0.5}, e.Vector(v.ID("7")))
}

func TestLoadErrors(t *testing.T) {
	v := vocab.FromTokens([]string{"the"})
	_, err := Build(v).FromFile(filepath.Join(t.TempDir(), "missing.vec")).Done()
	require.ErrorContains(t, err, "cannot open embeddings")

	_, err = Build(v).FromFile(writeEmbeddings(t, "\n\n")).Done()
	require.ErrorContains(t, err, "no vectors")

	_, err = Build(v).FromFile(writeEmbeddings(t, "the 1 x\n")).Done()
	require.ErrorContains(t, err, "invalid value")

	// Header disagrees with the vectors.
	_, err = Build(v).FromFile(writeEmbeddings(t, "1 3\nthe 1 2\n")).Done()
	require.ErrorContains(t, err, "header declares dimension 3")

	_, err = Build(nil).Dim(2).Done()
	require.Error(t, err)
}
