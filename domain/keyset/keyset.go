package keyset

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/powlock/powlock/domain/nonce"
	"github.com/powlock/powlock/domain/scalarfield"
)

// NumPairs is the number of key pairs in a keyset, one per sighash type.
const NumPairs = 6

// ErrInsufficientWork is returned when the requested work yields a
// non-positive interval offset.
var ErrInsufficientWork = errors.New("work is less than the minimal representable work")

var (
	// IntervalSpan is 2^246, the upper width of a digest interval.
	IntervalSpan = new(big.Int).Lsh(big.NewInt(1), 246)

	// pairSpacing is 2^248, the distance between the base offsets of two
	// consecutive pairs.
	pairSpacing = new(big.Int).Lsh(big.NewInt(1), 248)
)

// KeyPair holds the two private keys whose public keys share a script clause.
type KeyPair struct {
	D1 *big.Int
	D2 *big.Int
}

// Keyset is the ordered set of key pairs locking an output for a given work.
type Keyset struct {
	Work   uint64
	DeltaX *big.Int
	Pairs  [NumPairs]KeyPair
}

// DeltaX returns 2^246 - 105n / (6*sqrt(289 + 2100*work) - 102), the offset
// between x1 and x2 that makes a uniformly random digest satisfy the script
// after about work attempts.
func DeltaX(field *scalarfield.Field, work uint64) (*big.Int, error) {
	radicand := new(big.Int).SetUint64(work)
	radicand.Mul(radicand, big.NewInt(2100))
	radicand.Add(radicand, big.NewInt(289))

	denominator := scalarfield.Sqrt(radicand)
	denominator.Mul(denominator, big.NewInt(6))
	denominator.Sub(denominator, big.NewInt(102))
	if denominator.Sign() <= 0 {
		return nil, errors.Wrapf(ErrInsufficientWork, "work %d", work)
	}

	numerator := field.N()
	numerator.Mul(numerator, big.NewInt(105))

	deltaX := new(big.Int).Quo(numerator, denominator)
	deltaX.Sub(IntervalSpan, deltaX)
	if deltaX.Sign() < 0 {
		return nil, errors.Wrapf(ErrInsufficientWork, "work %d", work)
	}
	return deltaX, nil
}

// Generate derives the keyset for the given work.
func Generate(ctx *nonce.Context, work uint64) (*Keyset, error) {
	deltaX, err := DeltaX(ctx.Field, work)
	if err != nil {
		return nil, err
	}

	keyset := &Keyset{
		Work:   work,
		DeltaX: deltaX,
	}
	for i := 0; i < NumPairs; i++ {
		x1 := new(big.Int).Mul(pairSpacing, big.NewInt(int64(i)))
		x1.Add(x1, big.NewInt(1))
		x2 := new(big.Int).Add(x1, deltaX)

		d1, err := PrivateKeyFromX(ctx, x1)
		if err != nil {
			return nil, err
		}
		d2, err := PrivateKeyFromX(ctx, x2)
		if err != nil {
			return nil, err
		}
		keyset.Pairs[i] = KeyPair{D1: d1, D2: d2}
	}
	return keyset, nil
}

// PrivateKeyFromX returns d = -x/r.
func PrivateKeyFromX(ctx *nonce.Context, x *big.Int) (*big.Int, error) {
	quotient, err := ctx.Field.Div(x, ctx.R)
	if err != nil {
		return nil, err
	}
	return ctx.Field.Negate(quotient), nil
}

// XFromPrivateKey returns x = -d*r, the offset a digest is compared against
// when d signs with the fixed nonce.
func XFromPrivateKey(ctx *nonce.Context, d *big.Int) *big.Int {
	return ctx.Field.Negate(ctx.Field.Mul(d, ctx.R))
}

// PublicKeys returns the compressed public keys of the keyset in script
// order: d1 then d2 of every pair.
func (ks *Keyset) PublicKeys(ctx *nonce.Context) ([][]byte, error) {
	publicKeys := make([][]byte, 0, 2*NumPairs)
	for i, pair := range ks.Pairs {
		for _, d := range []*big.Int{pair.D1, pair.D2} {
			publicKey, err := ctx.PublicKey(d)
			if err != nil {
				return nil, errors.Wrapf(err, "public key of pair %d", i)
			}
			publicKeys = append(publicKeys, publicKey)
		}
	}
	return publicKeys, nil
}

// Script returns the witness script locking an output to the keyset.
func (ks *Keyset) Script(ctx *nonce.Context) ([]byte, error) {
	publicKeys, err := ks.PublicKeys(ctx)
	if err != nil {
		return nil, err
	}
	return Script(publicKeys)
}
