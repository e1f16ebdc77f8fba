package assembler

import (
	"math/big"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"github.com/pkg/errors"

	"github.com/powlock/powlock/domain/keyset"
	"github.com/powlock/powlock/domain/nonce"
	"github.com/powlock/powlock/domain/sighash"
)

// SignWithFixedNonce signs digest with the private key d and the nonce of
// ctx, and returns the DER signature followed by the sighash type byte.
//
// It fails when the result does not fit under keyset.MaxSignatureSize, which
// means the digest is outside the intervals of d.
func SignWithFixedNonce(ctx *nonce.Context, digest chainhash.Hash, d *big.Int,
	hashType sighash.SigHashType) ([]byte, error) {

	z := new(big.Int).SetBytes(digest[:])
	s := ctx.Field.Mul(ctx.KInverse, ctx.Field.Add(z, ctx.Field.Mul(ctx.R, d)))

	r, err := modNScalar(ctx.R)
	if err != nil {
		return nil, err
	}
	sScalar, err := modNScalar(s)
	if err != nil {
		return nil, err
	}
	if r.IsZero() || sScalar.IsZero() {
		return nil, errors.Errorf("degenerate signature of digest %s", digest)
	}

	signature := ecdsa.NewSignature(r, sScalar).Serialize()
	signature = append(signature, byte(hashType))
	if len(signature) >= keyset.MaxSignatureSize {
		return nil, errors.Errorf("%s signature of digest %s is %d bytes long",
			hashType, digest, len(signature))
	}
	return signature, nil
}

// SignWithPrivateKey signs digest with a deterministic RFC6979 nonce and
// appends the sighash type byte.
func SignWithPrivateKey(key *secp256k1.PrivateKey, digest chainhash.Hash, hashType sighash.SigHashType) []byte {
	signature := ecdsa.Sign(key, digest[:]).Serialize()
	return append(signature, byte(hashType))
}

func modNScalar(value *big.Int) (*secp256k1.ModNScalar, error) {
	serialized, err := nonce.ScalarBytes(value)
	if err != nil {
		return nil, err
	}
	scalar := new(secp256k1.ModNScalar)
	if overflow := scalar.SetByteSlice(serialized); overflow {
		return nil, errors.Errorf("%x is not reduced modulo the group order", serialized)
	}
	return scalar, nil
}
