package keyset

import (
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcutil"
	"github.com/minio/sha256-simd"
	"github.com/pkg/errors"

	"github.com/powlock/powlock/domain/nonce"
)

// MaxSignatureSize is the exclusive upper bound the script puts on the size
// of every signature, sighash type byte included.
const MaxSignatureSize = 60

// Script builds, for every public key, the clause
//
//	OP_SIZE <60> OP_LESSTHAN OP_VERIFY <pubkey> OP_CHECKSIGVERIFY
//
// and returns their concatenation.
func Script(publicKeys [][]byte) ([]byte, error) {
	builder := txscript.NewScriptBuilder()
	for _, publicKey := range publicKeys {
		if len(publicKey) != 33 {
			return nil, errors.Errorf("expected a compressed public key, got %d bytes", len(publicKey))
		}
		builder.AddOp(txscript.OP_SIZE).
			AddInt64(MaxSignatureSize).
			AddOp(txscript.OP_LESSTHAN).
			AddOp(txscript.OP_VERIFY).
			AddData(publicKey).
			AddOp(txscript.OP_CHECKSIGVERIFY)
	}
	return builder.Script()
}

// PayToWitnessScriptHash returns the P2WSH output script committing to script.
func PayToWitnessScriptHash(script []byte) ([]byte, error) {
	scriptHash := sha256.Sum256(script)
	return txscript.NewScriptBuilder().
		AddOp(txscript.OP_0).
		AddData(scriptHash[:]).
		Script()
}

// Address returns the P2WSH address committing to script on the given network.
func Address(script []byte, net *chaincfg.Params) (*btcutil.AddressWitnessScriptHash, error) {
	scriptHash := sha256.Sum256(script)
	return btcutil.NewAddressWitnessScriptHash(scriptHash[:], net)
}

// AddressForWork derives the keyset for work and returns its P2WSH address.
func AddressForWork(ctx *nonce.Context, work uint64, net *chaincfg.Params) (*btcutil.AddressWitnessScriptHash, error) {
	keyset, err := Generate(ctx, work)
	if err != nil {
		return nil, err
	}
	script, err := keyset.Script(ctx)
	if err != nil {
		return nil, err
	}
	return Address(script, net)
}
