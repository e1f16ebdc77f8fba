package interval

import (
	"github.com/holiman/uint256"
)

// Pool is the set of interval pairs that have not been claimed yet. It is
// never mutated: claiming pairs produces a new, smaller pool.
type Pool struct {
	pairs []*Pair
}

// NewPool returns a pool holding the given pairs.
func NewPool(pairs []*Pair) *Pool {
	return &Pool{pairs: append([]*Pair(nil), pairs...)}
}

// Len returns the number of unclaimed pairs.
func (p *Pool) Len() int {
	return len(p.pairs)
}

// Pairs returns the unclaimed pairs in keyset order.
func (p *Pool) Pairs() []*Pair {
	return append([]*Pair(nil), p.pairs...)
}

// Match returns the first unclaimed pair containing z, or nil.
func (p *Pool) Match(z *uint256.Int) *Pair {
	for _, pair := range p.pairs {
		if pair.Contains(z) {
			return pair
		}
	}
	return nil
}

// Without returns a pool holding the pairs of p that are not in claimed.
func (p *Pool) Without(claimed []*Pair) *Pool {
	remaining := make([]*Pair, 0, len(p.pairs))
	for _, pair := range p.pairs {
		if !ContainsPair(claimed, pair) {
			remaining = append(remaining, pair)
		}
	}
	return &Pool{pairs: remaining}
}

// ContainsPair returns whether pair is one of pairs.
func ContainsPair(pairs []*Pair, pair *Pair) bool {
	for _, candidate := range pairs {
		if candidate == pair {
			return true
		}
	}
	return false
}
