package interval

import (
	"fmt"
	"math/big"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/powlock/powlock/domain/keyset"
	"github.com/powlock/powlock/domain/nonce"
)

// Interval is a half-open range [Down, Up) over the 256-bit digest space.
type Interval struct {
	Down uint256.Int
	Up   uint256.Int
}

// Contains returns whether Down <= z < Up.
func (i *Interval) Contains(z *uint256.Int) bool {
	return !z.Lt(&i.Down) && z.Lt(&i.Up)
}

// Width returns Up - Down.
func (i *Interval) Width() *uint256.Int {
	return new(uint256.Int).Sub(&i.Up, &i.Down)
}

// Overlaps returns whether the two intervals share at least one value.
func (i *Interval) Overlaps(other *Interval) bool {
	return i.Down.Lt(&other.Up) && other.Down.Lt(&i.Up)
}

func (i *Interval) String() string {
	return fmt.Sprintf("[%s, %s)", i.Down.Hex(), i.Up.Hex())
}

// Pair is the two intervals owned by the key pair at Index. A digest in
// either of them makes both keys of the pair produce short signatures.
type Pair struct {
	Index int
	I1    Interval
	I2    Interval
}

// Contains returns whether z lies in I1 or I2.
func (p *Pair) Contains(z *uint256.Int) bool {
	return p.I1.Contains(z) || p.I2.Contains(z)
}

// Calculate returns the interval pairs of every key pair of the keyset, in
// keyset order.
func Calculate(ctx *nonce.Context, ks *keyset.Keyset) ([]*Pair, error) {
	pairs := make([]*Pair, len(ks.Pairs))
	for index, keyPair := range ks.Pairs {
		x1 := keyset.XFromPrivateKey(ctx, keyPair.D1)
		x2 := keyset.XFromPrivateKey(ctx, keyPair.D2)

		down := x2
		up := new(big.Int).Add(x1, keyset.IntervalSpan)
		if down.Cmp(up) >= 0 {
			return nil, errors.Wrapf(keyset.ErrInsufficientWork, "empty interval for pair %d", index)
		}

		pair := &Pair{Index: index}
		if err := setInterval(&pair.I1, down, up); err != nil {
			return nil, errors.Wrapf(err, "I1 of pair %d", index)
		}
		if err := setInterval(&pair.I2,
			new(big.Int).Add(down, ctx.NHalf), new(big.Int).Add(up, ctx.NHalf)); err != nil {
			return nil, errors.Wrapf(err, "I2 of pair %d", index)
		}
		pairs[index] = pair
	}
	return pairs, nil
}

func setInterval(interval *Interval, down, up *big.Int) error {
	if overflow := interval.Down.SetFromBig(down); overflow {
		return errors.Errorf("lower bound %x overflows 256 bits", down)
	}
	if overflow := interval.Up.SetFromBig(up); overflow {
		return errors.Errorf("upper bound %x overflows 256 bits", up)
	}
	return nil
}
