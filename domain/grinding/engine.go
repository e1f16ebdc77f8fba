package grinding

import (
	"github.com/btcsuite/btcd/wire"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/powlock/powlock/domain/interval"
	"github.com/powlock/powlock/domain/sighash"
)

// lockedInputIndex is the index of the PoW-locked input in the claim
// transaction.
const lockedInputIndex = 0

// Engine grinds a claim transaction spending a PoW-locked output until every
// sighash type has a digest inside its own interval pair.
type Engine struct {
	lockedScript []byte
	lockedValue  int64

	searcher    Searcher
	bounds      Bounds
	progress    *Progress
	generateKey func() (*secp256k1.PrivateKey, error)
}

// Option configures an Engine.
type Option func(*Engine)

// WithSearcher sets the searcher used by every stage.
func WithSearcher(searcher Searcher) Option {
	return func(e *Engine) {
		e.searcher = searcher
	}
}

// WithBounds overrides DefaultBounds.
func WithBounds(bounds Bounds) Option {
	return func(e *Engine) {
		e.bounds = bounds
	}
}

// WithProgress makes every stage report the candidates it tries to progress.
func WithProgress(progress *Progress) Option {
	return func(e *Engine) {
		e.progress = progress
	}
}

// WithKeyGenerator overrides the generator of the ephemeral intermediate and
// claim keys.
func WithKeyGenerator(generateKey func() (*secp256k1.PrivateKey, error)) Option {
	return func(e *Engine) {
		e.generateKey = generateKey
	}
}

// NewEngine returns an engine grinding signatures for the output of the given
// value locked by the given witness script.
func NewEngine(lockedScript []byte, lockedValue int64, options ...Option) (*Engine, error) {
	e := &Engine{
		lockedScript: lockedScript,
		lockedValue:  lockedValue,
		searcher:     SequentialSearcher{},
		bounds:       DefaultBounds,
		generateKey:  secp256k1.GeneratePrivateKey,
	}
	for _, option := range options {
		option(e)
	}
	if err := e.bounds.validate(); err != nil {
		return nil, err
	}
	return e, nil
}

// checker computes the digests of the locked input for a fixed list of
// sighash types, each with its own midstate, and matches them against a pool.
type checker struct {
	engine    *Engine
	pool      *interval.Pool
	hashTypes []sighash.SigHashType
	midstates []*sighash.Midstate

	digest uint256.Int
}

func (e *Engine) newChecker(pool *interval.Pool, cached bool, hashTypes ...sighash.SigHashType) *checker {
	c := &checker{
		engine:    e,
		pool:      pool,
		hashTypes: hashTypes,
		midstates: make([]*sighash.Midstate, len(hashTypes)),
	}
	if cached {
		for i := range c.midstates {
			c.midstates[i] = &sighash.Midstate{}
		}
	}
	return c
}

// invalidateOutputs drops the cached hashOutputs of every sighash type.
func (c *checker) invalidateOutputs() {
	for _, midstate := range c.midstates {
		if midstate != nil {
			midstate.InvalidateOutputs()
		}
	}
}

// check accepts tx if every sighash type lands in a distinct unclaimed pair.
// It stops computing digests at the first one that misses.
func (c *checker) check(tx *wire.MsgTx) ([]*interval.Pair, bool, error) {
	var claimed []*interval.Pair
	for i, hashType := range c.hashTypes {
		hash, err := sighash.CalculateWitnessV0(tx, lockedInputIndex, c.engine.lockedScript,
			c.engine.lockedValue, hashType, c.midstates[i])
		if err != nil {
			return nil, false, err
		}
		c.digest.SetBytes32(hash[:])

		pair := c.pool.Match(&c.digest)
		if pair == nil || interval.ContainsPair(claimed, pair) {
			return nil, false, nil
		}
		claimed = append(claimed, pair)
	}
	return claimed, true, nil
}

func requirePoolSize(pool *interval.Pool, needed int) error {
	if pool.Len() < needed {
		return errors.Errorf("%d unclaimed interval pairs left, %d needed", pool.Len(), needed)
	}
	return nil
}
