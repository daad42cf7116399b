package sat

import (
	"math/bits"
	"sync"
)

// Number of size-classed slice pools.
const nPools = 4

// Every capacity of at least lastCapa is mapped to the last pool.
const lastCapa = 1 << nPools

// pools holds size-classed sync.Pools of Literal slices. pid maps a capacity
// c below lastCapa to pool floor(log2(c)), so the last pool collects every
// capacity of at least 2^(nPools-1). Pool i creates new slices with a
// capacity of 2^(i+1).
// Learnt-clause churn under ReduceDB (spec.md §4.6) makes reusing these
// backing arrays worthwhile; the teacher explored this behind a build tag,
// this repository always pools.
var pools [nPools]sync.Pool

func init() {
	for i := 0; i < nPools; i++ {
		capa := 1 << (i + 1)
		pools[i].New = func() any {
			s := make([]Literal, 0, capa)
			return &s
		}
	}
}

// pid returns the ID of the pool responsible for slices of the given
// capacity.
func pid(capa int) int {
	if capa >= lastCapa {
		return nPools - 1
	}
	id := bits.Len(uint(capa)) - 1
	if capa < (1 << id) {
		id--
	}
	return id
}

// allocSlice returns an empty slice with at least the requested capacity.
func allocSlice(capa int) *[]Literal {
	ref := pools[pid(capa)].Get().(*[]Literal)

	// A slice returned to a pool may be smaller than capa; if this clause
	// needs more, replace the slice outright.
	if cap(*ref) < capa {
		s := make([]Literal, 0, capa)
		ref = &s
	}

	return ref
}

// freeSlice returns a clause's backing slice to its pool so a future
// NewClause call can reuse the allocation.
func freeSlice(s *[]Literal) {
	if *s == nil {
		return
	}
	*s = (*s)[:0]
	pools[pid(cap(*s))].Put(s)
}
