package rowgen

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeneratorNames(t *testing.T) {
	g := New(5, false)
	recs := g.All()
	require.Len(t, recs, 5)
	for i, r := range recs {
		assert.Equal(t, fmt.Sprintf("NAME %d", i), r.Name)
		assert.Zero(t, r.ID)
	}
}

func TestGeneratorWithIDs(t *testing.T) {
	g := New(3, true)
	recs := g.All()
	require.Len(t, recs, 3)
	assert.Equal(t, int64(1), recs[0].ID)
	assert.Equal(t, int64(3), recs[2].ID)
}

func TestGeneratorOffset(t *testing.T) {
	g := Generator{Count: 2, Offset: 10, WithIDs: true}
	recs := g.All()
	require.Len(t, recs, 2)
	assert.Equal(t, "NAME 10", recs[0].Name)
	assert.Equal(t, int64(11), recs[0].ID)
	assert.Equal(t, "NAME 11", recs[1].Name)
}

func TestGeneratorIdempotent(t *testing.T) {
	g := New(1000, false)
	first := g.All()
	second := g.All()
	assert.Equal(t, first, second)
}

func TestGeneratorEmpty(t *testing.T) {
	g := New(0, false)
	assert.Empty(t, g.All())
	assert.Nil(t, g.Chunks(10))

	called := false
	require.NoError(t, g.Each(func(Record) error {
		called = true
		return nil
	}))
	assert.False(t, called)
}

func TestGeneratorEachStopsOnError(t *testing.T) {
	g := New(10, false)
	seen := 0
	err := g.Each(func(Record) error {
		seen++
		if seen == 3 {
			return assert.AnError
		}
		return nil
	})
	assert.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, 3, seen)
}

func TestChunks(t *testing.T) {
	g := New(25000, false)
	chunks := g.Chunks(10000)
	require.Len(t, chunks, 3)
	assert.Equal(t, Chunk{0, 10000}, chunks[0])
	assert.Equal(t, Chunk{10000, 20000}, chunks[1])
	assert.Equal(t, Chunk{20000, 25000}, chunks[2])
}

func TestChunksNoSize(t *testing.T) {
	g := New(7, false)
	chunks := g.Chunks(0)
	require.Len(t, chunks, 1)
	assert.Equal(t, Chunk{0, 7}, chunks[0])
}

func TestSliceClamped(t *testing.T) {
	g := New(3, false)
	recs := g.Slice(2, 10)
	require.Len(t, recs, 1)
	assert.Equal(t, "NAME 2", recs[0].Name)
}
