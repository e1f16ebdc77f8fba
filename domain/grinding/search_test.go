package grinding_test

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/pkg/errors"

	"github.com/powlock/powlock/domain/grinding"
	"github.com/powlock/powlock/domain/interval"
)

// acceptFrom builds candidates accepting every index in accepted, counting
// the factory calls.
func acceptFrom(accepted map[uint64]bool, factoryCalls *int32) grinding.CandidateFactory {
	return func() (grinding.Candidate, error) {
		atomic.AddInt32(factoryCalls, 1)
		return func(i uint64) ([]*interval.Pair, bool, error) {
			if accepted[i] {
				return []*interval.Pair{{Index: int(i % 6)}}, true, nil
			}
			return nil, false, nil
		}, nil
	}
}

func TestSequentialSearcher(t *testing.T) {
	var factoryCalls int32
	progress := &grinding.Progress{}
	match, err := grinding.SequentialSearcher{}.Search(context.Background(), 10000,
		acceptFrom(map[uint64]bool{4321: true, 777: true, 9000: true}, &factoryCalls), progress)
	if err != nil {
		t.Fatalf("Search: %+v", err)
	}
	if match.Index != 777 {
		t.Fatalf("Expected the lowest accepted index 777, instead found %d", match.Index)
	}
	if match.Tried != 778 {
		t.Fatalf("Expected 778 candidates tried, instead found %d", match.Tried)
	}
	if progress.HashesTried() != 778 {
		t.Fatalf("Expected progress to count 778 candidates, instead found %d", progress.HashesTried())
	}
	if factoryCalls != 1 {
		t.Fatalf("Expected a single factory call, instead found %d", factoryCalls)
	}
	if len(match.Claimed) != 1 || match.Claimed[0].Index != 777%6 {
		t.Fatalf("Unexpected claimed pairs %v", match.Claimed)
	}
}

func TestSearchExhausted(t *testing.T) {
	searchers := []grinding.Searcher{grinding.SequentialSearcher{}, grinding.ParallelSearcher{Workers: 4}}
	for _, searcher := range searchers {
		var factoryCalls int32
		progress := &grinding.Progress{}
		_, err := searcher.Search(context.Background(), 5000, acceptFrom(nil, &factoryCalls), progress)
		if !errors.Is(err, grinding.ErrGrindingExhausted) {
			t.Fatalf("%T: Expected ErrGrindingExhausted, instead found %+v", searcher, err)
		}
		if progress.HashesTried() != 5000 {
			t.Fatalf("%T: Expected 5000 candidates tried, instead found %d", searcher, progress.HashesTried())
		}
	}
}

func TestSearchCancelled(t *testing.T) {
	searchers := []grinding.Searcher{grinding.SequentialSearcher{}, grinding.ParallelSearcher{Workers: 3}}
	for _, searcher := range searchers {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		var factoryCalls int32
		_, err := searcher.Search(ctx, 1<<40, acceptFrom(nil, &factoryCalls), nil)
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("%T: Expected context.Canceled, instead found %+v", searcher, err)
		}
	}
}

func TestParallelSearcher(t *testing.T) {
	var factoryCalls int32
	progress := &grinding.Progress{}
	match, err := grinding.ParallelSearcher{Workers: 4}.Search(context.Background(), 100000,
		acceptFrom(map[uint64]bool{777: true}, &factoryCalls), progress)
	if err != nil {
		t.Fatalf("Search: %+v", err)
	}
	if match.Index != 777 {
		t.Fatalf("Expected index 777, instead found %d", match.Index)
	}
	if factoryCalls != 4 {
		t.Fatalf("Expected a factory call per worker, instead found %d", factoryCalls)
	}
	if match.Tried == 0 || match.Tried != progress.HashesTried() {
		t.Fatalf("Expected Tried to match progress, instead found %d and %d", match.Tried, progress.HashesTried())
	}
}

func TestParallelSearcherSingleWorker(t *testing.T) {
	for _, workers := range []int{-1, 0, 1} {
		var factoryCalls int32
		match, err := grinding.ParallelSearcher{Workers: workers}.Search(context.Background(), 1000,
			acceptFrom(map[uint64]bool{10: true, 20: true}, &factoryCalls), nil)
		if err != nil {
			t.Fatalf("%d workers: Search: %+v", workers, err)
		}
		if match.Index != 10 || match.Tried != 11 {
			t.Fatalf("%d workers: Expected index 10 after 11 candidates, instead found %d after %d",
				workers, match.Index, match.Tried)
		}
	}
}

func TestSearchCandidateError(t *testing.T) {
	candidateErr := errors.New("candidate failure")
	factory := func() (grinding.Candidate, error) {
		return func(i uint64) ([]*interval.Pair, bool, error) {
			if i == 50 {
				return nil, false, candidateErr
			}
			return nil, false, nil
		}, nil
	}
	searchers := []grinding.Searcher{grinding.SequentialSearcher{}, grinding.ParallelSearcher{Workers: 2}}
	for _, searcher := range searchers {
		_, err := searcher.Search(context.Background(), 1000, factory, nil)
		if !errors.Is(err, candidateErr) {
			t.Fatalf("%T: Expected the candidate error, instead found %+v", searcher, err)
		}
	}
}
