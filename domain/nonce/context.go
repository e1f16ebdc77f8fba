// Package nonce holds the fixed-nonce constants shared by every component
// that derives keys, intervals or signatures.
package nonce

import (
	"math/big"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/pkg/errors"

	"github.com/powlock/powlock/domain/scalarfield"
)

// PointMultiplier maps a scalar d to the compressed encoding of d·G.
type PointMultiplier func(d *big.Int) ([]byte, error)

// Context is the immutable set of constants derived from the well known
// nonce k = 1/2. Build it once with NewContext or NewSecp256k1Context and
// pass it down explicitly.
type Context struct {
	Field *scalarfield.Field

	// K is the nonce scalar 1/2 mod n.
	K *big.Int
	// KInverse is 1/K, i.e. 2.
	KInverse *big.Int
	// KPoint is the compressed encoding of K·G.
	KPoint []byte
	// R is the x coordinate of K·G.
	R *big.Int
	// NHalf is n/2 + 1.
	NHalf *big.Int

	pointMultiplier PointMultiplier
}

// NewContext derives the nonce constants over the given field.
func NewContext(field *scalarfield.Field, pointMultiplier PointMultiplier) (*Context, error) {
	k, err := field.Invert(big.NewInt(2))
	if err != nil {
		return nil, err
	}
	kInverse, err := field.Invert(k)
	if err != nil {
		return nil, err
	}
	kPoint, err := pointMultiplier(k)
	if err != nil {
		return nil, err
	}
	if len(kPoint) < 2 {
		return nil, errors.Errorf("malformed nonce point of length %d", len(kPoint))
	}
	r := new(big.Int).SetBytes(kPoint[1:])
	if field.Reduce(r).Sign() == 0 {
		return nil, errors.New("nonce point has a zero x coordinate")
	}

	nHalf := new(big.Int).Rsh(field.N(), 1)
	nHalf.Add(nHalf, big.NewInt(1))

	return &Context{
		Field:           field,
		K:               k,
		KInverse:        kInverse,
		KPoint:          kPoint,
		R:               r,
		NHalf:           nHalf,
		pointMultiplier: pointMultiplier,
	}, nil
}

// NewSecp256k1Context returns the context over the secp256k1 curve.
func NewSecp256k1Context() (*Context, error) {
	return NewContext(scalarfield.Secp256k1(), Secp256k1PublicKey)
}

// PublicKey returns the compressed public key of the private key d.
func (c *Context) PublicKey(d *big.Int) ([]byte, error) {
	return c.pointMultiplier(d)
}

// Secp256k1PublicKey is the secp256k1 PointMultiplier.
func Secp256k1PublicKey(d *big.Int) ([]byte, error) {
	serialized, err := ScalarBytes(d)
	if err != nil {
		return nil, err
	}
	var scalar secp256k1.ModNScalar
	if overflow := scalar.SetByteSlice(serialized); overflow || scalar.IsZero() {
		return nil, errors.Errorf("%x is not a valid secp256k1 private key", serialized)
	}
	return secp256k1.NewPrivateKey(&scalar).PubKey().SerializeCompressed(), nil
}

// ScalarBytes returns the 32-byte big-endian encoding of d.
func ScalarBytes(d *big.Int) ([]byte, error) {
	if d.Sign() < 0 || d.BitLen() > 256 {
		return nil, errors.Errorf("scalar %x does not fit in 32 bytes", d)
	}
	serialized := make([]byte, 32)
	d.FillBytes(serialized)
	return serialized, nil
}
