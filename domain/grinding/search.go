package grinding

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/powlock/powlock/domain/interval"
)

// ErrGrindingExhausted is returned when a search space is exhausted without
// any candidate being accepted.
var ErrGrindingExhausted = errors.New("grinding search space exhausted")

// cancellationCheckInterval is how many candidates are evaluated between two
// checks of the context.
const cancellationCheckInterval = 1 << 10

// Candidate mutates private state to the search index i, computes the
// digests it cares about and reports the interval pairs they claim when
// they are accepted.
type Candidate func(i uint64) (claimed []*interval.Pair, accepted bool, err error)

// CandidateFactory builds a Candidate operating on state private to the
// caller: one factory call per worker.
type CandidateFactory func() (Candidate, error)

// Match is an accepted search index.
type Match struct {
	Index   uint64
	Claimed []*interval.Pair
	// Tried is the number of candidates evaluated, across all workers.
	Tried uint64
}

// Searcher runs candidates over the index space [0, space) until one is
// accepted.
type Searcher interface {
	Search(ctx context.Context, space uint64, newCandidate CandidateFactory, progress *Progress) (*Match, error)
}

// SequentialSearcher evaluates indexes in increasing order on the calling
// goroutine. It always returns the lowest accepted index.
type SequentialSearcher struct{}

// Search implements Searcher.
func (SequentialSearcher) Search(ctx context.Context, space uint64, newCandidate CandidateFactory,
	progress *Progress) (*Match, error) {

	candidate, err := newCandidate()
	if err != nil {
		return nil, err
	}
	for i := uint64(0); i < space; i++ {
		if i%cancellationCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		claimed, accepted, err := candidate(i)
		if err != nil {
			return nil, err
		}
		progress.add(1)
		if accepted {
			return &Match{Index: i, Claimed: claimed, Tried: i + 1}, nil
		}
	}
	return nil, errors.Wrapf(ErrGrindingExhausted, "%d candidates tried", space)
}

// ParallelSearcher splits the index space between Workers goroutines, each
// owning the state built by its own CandidateFactory call. Worker w
// evaluates w, w+Workers, w+2*Workers... The first accepted index wins and
// stops the other workers.
type ParallelSearcher struct {
	Workers int
}

// Search implements Searcher.
func (s ParallelSearcher) Search(ctx context.Context, space uint64, newCandidate CandidateFactory,
	progress *Progress) (*Match, error) {

	workers := s.Workers
	if workers <= 1 {
		return SequentialSearcher{}.Search(ctx, space, newCandidate, progress)
	}

	searchCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	group, groupCtx := errgroup.WithContext(searchCtx)

	var (
		tried     uint64
		matchOnce sync.Once
		match     *Match
	)
	stride := uint64(workers)
	for worker := 0; worker < workers; worker++ {
		start := uint64(worker)
		group.Go(func() error {
			candidate, err := newCandidate()
			if err != nil {
				return err
			}
			for i := start; i < space; i += stride {
				if (i/stride)%cancellationCheckInterval == 0 && groupCtx.Err() != nil {
					return nil
				}
				claimed, accepted, err := candidate(i)
				if err != nil {
					return err
				}
				atomic.AddUint64(&tried, 1)
				progress.add(1)
				if accepted {
					matchOnce.Do(func() {
						match = &Match{Index: i, Claimed: claimed}
						cancel()
					})
					return nil
				}
			}
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}
	if match == nil {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return nil, errors.Wrapf(ErrGrindingExhausted, "%d candidates tried", tried)
	}
	match.Tried = atomic.LoadUint64(&tried)
	return match, nil
}
