package grinding

import (
	"github.com/pkg/errors"
)

// Bounds limits the search space of every stage.
type Bounds struct {
	// LockTimeMin and LockTimeMax delimit [LockTimeMin, LockTimeMax), the
	// locktimes tried by the locktime/sequence stages.
	LockTimeMin uint32
	LockTimeMax uint32
	// SequenceMax is the exclusive upper bound of the sequences tried.
	SequenceMax uint32
	// CounterMax is the exclusive upper bound of the output counters tried.
	CounterMax uint64
}

// DefaultBounds are the bounds used unless overridden. Locktimes stay in the
// timestamp range and sequences stay below the final value.
var DefaultBounds = Bounds{
	LockTimeMin: 500000000,
	LockTimeMax: 1700000000,
	SequenceMax: 0xEFFFFFFF,
	CounterMax:  1 << 48,
}

func (b *Bounds) validate() error {
	if b.LockTimeMax <= b.LockTimeMin {
		return errors.Errorf("empty locktime range [%d, %d)", b.LockTimeMin, b.LockTimeMax)
	}
	if b.SequenceMax == 0 {
		return errors.New("empty sequence range")
	}
	if b.CounterMax == 0 {
		return errors.New("empty counter range")
	}
	return nil
}

// lockTimeSequenceSpace is the number of (locktime, sequence) combinations.
func (b *Bounds) lockTimeSequenceSpace() uint64 {
	return uint64(b.LockTimeMax-b.LockTimeMin) * uint64(b.SequenceMax)
}

// lockTimeAndSequence maps a search index to the locktime and sequence it
// stands for. Sequences vary fastest.
func (b *Bounds) lockTimeAndSequence(i uint64) (lockTime uint32, sequence uint32) {
	sequenceMax := uint64(b.SequenceMax)
	return b.LockTimeMin + uint32(i/sequenceMax), uint32(i % sequenceMax)
}
