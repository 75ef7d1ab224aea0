// Package rowgen produces the deterministic synthetic dataset shared by
// every insertion strategy, so that each trial persists byte-identical
// row content.
package rowgen

import "strconv"

// Record is one row to be persisted. ID is zero unless the generator was
// configured to pre-assign identifiers.
type Record struct {
	ID   int64
	Name string
}

// Generator describes a lazy sequence of Count records starting at Offset.
// It holds no state between calls, so the same Generator value can be
// replayed once per strategy.
type Generator struct {
	Count   int
	Offset  int
	WithIDs bool
}

// New returns a generator for n records starting at offset 0.
func New(n int, withIDs bool) Generator {
	return Generator{Count: n, WithIDs: withIDs}
}

func (g Generator) record(i int) Record {
	r := Record{Name: "NAME " + strconv.Itoa(i)}
	if g.WithIDs {
		r.ID = int64(i) + 1
	}
	return r
}

// Each invokes fn once per record in order. It stops at the first error
// and returns it.
func (g Generator) Each(fn func(Record) error) error {
	for i := g.Offset; i < g.Offset+g.Count; i++ {
		if err := fn(g.record(i)); err != nil {
			return err
		}
	}
	return nil
}

// Slice materializes records with indexes in [lo, hi), both relative to
// the generator's own range.
func (g Generator) Slice(lo, hi int) []Record {
	if hi > g.Count {
		hi = g.Count
	}
	if lo >= hi {
		return nil
	}
	out := make([]Record, 0, hi-lo)
	for i := lo; i < hi; i++ {
		out = append(out, g.record(g.Offset+i))
	}
	return out
}

// All materializes the full sequence.
func (g Generator) All() []Record {
	return g.Slice(0, g.Count)
}

// Chunk is a half-open [Lo, Hi) range of record indexes.
type Chunk struct {
	Lo, Hi int
}

// Chunks splits the generator's range into fixed-size batches. The last
// batch may be short. size <= 0 yields a single batch covering everything.
func (g Generator) Chunks(size int) []Chunk {
	if g.Count == 0 {
		return nil
	}
	if size <= 0 {
		return []Chunk{{0, g.Count}}
	}
	chunks := make([]Chunk, 0, (g.Count+size-1)/size)
	for lo := 0; lo < g.Count; lo += size {
		hi := lo + size
		if hi > g.Count {
			hi = g.Count
		}
		chunks = append(chunks, Chunk{lo, hi})
	}
	return chunks
}
