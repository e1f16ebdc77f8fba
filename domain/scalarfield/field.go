package scalarfield

import (
	"math/big"

	"github.com/pkg/errors"
)

// ErrNoInverse is returned when a value has no multiplicative inverse in the field.
var ErrNoInverse = errors.New("value has no inverse")

// secp256k1N is the order of the secp256k1 group.
var secp256k1N, _ = new(big.Int).SetString("FFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFEBAAEDCE6AF48A03BBFD25E8CD0364141", 16)

var one = big.NewInt(1)

// Field implements arithmetic modulo a prime group order. All operations
// return freshly allocated values reduced into [0, n) and never mutate
// their arguments.
type Field struct {
	n *big.Int
}

// New returns a field over the given modulus.
func New(n *big.Int) *Field {
	return &Field{n: new(big.Int).Set(n)}
}

// Secp256k1 returns the field over the secp256k1 group order.
func Secp256k1() *Field {
	return New(secp256k1N)
}

// N returns a copy of the field modulus.
func (f *Field) N() *big.Int {
	return new(big.Int).Set(f.n)
}

// Reduce returns a mod n.
func (f *Field) Reduce(a *big.Int) *big.Int {
	return new(big.Int).Mod(a, f.n)
}

// Invert returns v such that a*v = 1 (mod n), computed with the extended
// Euclidean algorithm.
func (f *Field) Invert(a *big.Int) (*big.Int, error) {
	t := new(big.Int)
	r := new(big.Int).Set(f.n)
	newT := big.NewInt(1)
	newR := f.Reduce(a)

	quotient := new(big.Int)
	tmp := new(big.Int)
	for newR.Sign() != 0 {
		quotient.Quo(r, newR)

		tmp.Mul(quotient, newT)
		tmp.Sub(t, tmp)
		t, newT = newT, new(big.Int).Set(tmp)

		tmp.Mul(quotient, newR)
		tmp.Sub(r, tmp)
		r, newR = newR, new(big.Int).Set(tmp)
	}

	if r.Cmp(one) != 0 {
		return nil, errors.Wrapf(ErrNoInverse, "%x", a)
	}
	if t.Sign() < 0 {
		t.Add(t, f.n)
	}
	return t, nil
}

// Mul returns a*b mod n.
func (f *Field) Mul(a, b *big.Int) *big.Int {
	product := new(big.Int).Mul(a, b)
	return product.Mod(product, f.n)
}

// Add returns a+b mod n.
func (f *Field) Add(a, b *big.Int) *big.Int {
	sum := new(big.Int).Add(a, b)
	return sum.Mod(sum, f.n)
}

// Negate returns -a mod n.
func (f *Field) Negate(a *big.Int) *big.Int {
	negated := new(big.Int).Sub(f.n, f.Reduce(a))
	return negated.Mod(negated, f.n)
}

// Div returns a/b mod n.
func (f *Field) Div(a, b *big.Int) (*big.Int, error) {
	inverse, err := f.Invert(b)
	if err != nil {
		return nil, err
	}
	return f.Mul(a, inverse), nil
}

// Sqrt returns the integer floor square root of a non-negative a. It is not
// a modular square root.
func Sqrt(a *big.Int) *big.Int {
	return new(big.Int).Sqrt(a)
}
