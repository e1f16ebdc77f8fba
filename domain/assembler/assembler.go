// Package assembler turns a ground claim transaction into fully signed
// transactions: the claim transaction spending the PoW-locked output, the
// transaction forwarding the claimed funds to a recipient, and the PSBT of
// the intermediate transaction the wallet has to sign.
package assembler

import (
	"bytes"
	"math/big"

	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/btcsuite/btcutil"
	"github.com/btcsuite/btcutil/psbt"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/pkg/errors"

	"github.com/powlock/powlock/domain/grinding"
	"github.com/powlock/powlock/domain/keyset"
	"github.com/powlock/powlock/domain/nonce"
	"github.com/powlock/powlock/domain/sighash"
	"github.com/powlock/powlock/domain/utxo"
)

// ErrScriptMismatch is returned when the locked output is not the P2WSH of
// the keyset script for the requested work.
var ErrScriptMismatch = errors.New("witness UTXO output script mismatch")

// SpendTxVirtualSize is the virtual size used to compute the fee of the
// transaction spending the claim output.
const SpendTxVirtualSize = 140

const (
	lockedInputIndex       = 0
	intermediateInputIndex = 1
	claimOutputIndex       = 0
)

// VerifyLockedScript checks that locked pays to the P2WSH of script.
func VerifyLockedScript(script []byte, locked *utxo.UTXO) error {
	expected, err := keyset.PayToWitnessScriptHash(script)
	if err != nil {
		return err
	}
	if !bytes.Equal(expected, locked.Script) {
		return errors.Wrapf(ErrScriptMismatch, "%s pays to %x, expected %x", locked, locked.Script, expected)
	}
	return nil
}

// AssignSighashTypes maps every key pair index to the sighash type whose
// digest landed in its intervals. It fails unless the six sighash types
// claimed six distinct pairs.
func AssignSighashTypes(outcome *grinding.Outcome) ([keyset.NumPairs]sighash.SigHashType, error) {
	var assignment [keyset.NumPairs]sighash.SigHashType
	for _, stage := range outcome.Stages() {
		if len(stage.Claimed) != len(stage.HashTypes) {
			return assignment, errors.Errorf("%d pairs claimed for %d sighash types",
				len(stage.Claimed), len(stage.HashTypes))
		}
		for i, pair := range stage.Claimed {
			if pair.Index < 0 || pair.Index >= keyset.NumPairs {
				return assignment, errors.Errorf("pair index %d out of range", pair.Index)
			}
			if assignment[pair.Index] != 0 {
				return assignment, errors.Errorf("pair %d claimed by both %s and %s",
					pair.Index, assignment[pair.Index], stage.HashTypes[i])
			}
			assignment[pair.Index] = stage.HashTypes[i]
		}
	}
	for index, hashType := range assignment {
		if hashType == 0 {
			return assignment, errors.Errorf("pair %d is not claimed by any sighash type", index)
		}
	}
	return assignment, nil
}

// ClaimWitness signs the locked input of tx with both keys of every pair,
// using the sighash type assigned to the pair, and returns the witness
// stack satisfying script.
func ClaimWitness(ctx *nonce.Context, tx *wire.MsgTx, ks *keyset.Keyset, script []byte, lockedValue int64,
	assignment [keyset.NumPairs]sighash.SigHashType) (wire.TxWitness, error) {

	// The script checks the signatures from the top of the stack down, so
	// the stack is built in clause order and then reversed. The leading 0x01
	// is what remains once every clause succeeded.
	signatures := make([][]byte, 0, 2*keyset.NumPairs+1)
	for index, pair := range ks.Pairs {
		hashType := assignment[index]
		digest, err := sighash.CalculateWitnessV0(tx, lockedInputIndex, script, lockedValue, hashType, nil)
		if err != nil {
			return nil, err
		}
		for _, d := range []*big.Int{pair.D1, pair.D2} {
			signature, err := SignWithFixedNonce(ctx, digest, d, hashType)
			if err != nil {
				return nil, errors.Wrapf(err, "signing with pair %d", index)
			}
			signatures = append(signatures, signature)
		}
	}
	signatures = append(signatures, []byte{0x01})

	witness := make(wire.TxWitness, 0, len(signatures)+1)
	for i := len(signatures) - 1; i >= 0; i-- {
		witness = append(witness, signatures[i])
	}
	return append(witness, script), nil
}

// PayToWitnessPubKeyHashWitness signs input idx of tx, spending a P2WPKH
// output of the given value owned by key, with SIGHASH_ALL.
func PayToWitnessPubKeyHashWitness(tx *wire.MsgTx, idx int, value int64,
	key *secp256k1.PrivateKey) (wire.TxWitness, error) {

	publicKey := key.PubKey().SerializeCompressed()
	scriptCode, err := txscript.NewScriptBuilder().
		AddOp(txscript.OP_DUP).
		AddOp(txscript.OP_HASH160).
		AddData(btcutil.Hash160(publicKey)).
		AddOp(txscript.OP_EQUALVERIFY).
		AddOp(txscript.OP_CHECKSIG).
		Script()
	if err != nil {
		return nil, err
	}
	digest, err := sighash.CalculateWitnessV0(tx, idx, scriptCode, value, sighash.SigHashAll, nil)
	if err != nil {
		return nil, err
	}
	return wire.TxWitness{SignWithPrivateKey(key, digest, sighash.SigHashAll), publicKey}, nil
}

// SpendTransaction returns a signed transaction moving the claim output of
// claimTx to recipientScript.
func SpendTransaction(claimTx *wire.MsgTx, claim *grinding.SingleResult, recipientScript []byte,
	feeRate int64) (*wire.MsgTx, error) {

	if len(claimTx.TxOut) <= claimOutputIndex {
		return nil, errors.New("the claim transaction has no claim output")
	}
	claimValue := claimTx.TxOut[claimOutputIndex].Value
	value, err := utxo.DeductFee(claimValue, SpendTxVirtualSize, feeRate)
	if err != nil {
		return nil, errors.Wrap(err, "spend output")
	}

	claimTxID := claimTx.TxHash()
	spendTx := wire.NewMsgTx(wire.TxVersion)
	spendTx.AddTxIn(wire.NewTxIn(wire.NewOutPoint(&claimTxID, claimOutputIndex), nil, nil))
	spendTx.AddTxOut(wire.NewTxOut(value, recipientScript))

	digest, err := sighash.CalculateWitnessV0(spendTx, 0, claim.ClaimScript, claimValue, sighash.SigHashAll, nil)
	if err != nil {
		return nil, err
	}
	spendTx.TxIn[0].Witness = wire.TxWitness{
		SignWithPrivateKey(claim.ClaimKey, digest, sighash.SigHashAll),
		claim.ClaimScript,
	}
	return spendTx, nil
}

// IntermediatePSBT returns the base64 PSBT of the unsigned intermediate
// transaction, carrying the UTXO it spends.
func IntermediatePSBT(intermediateTx *wire.MsgTx, intermediate *utxo.UTXO) (string, error) {
	packet, err := psbt.NewFromUnsignedTx(intermediateTx.Copy())
	if err != nil {
		return "", errors.Wrap(err, "creating the intermediate PSBT")
	}
	packet.Inputs[0].WitnessUtxo = intermediate.TxOut()
	return packet.B64Encode()
}

// Signed is the set of transactions produced from a grinding outcome.
type Signed struct {
	IntermediatePSBT string
	IntermediateTx   *wire.MsgTx
	ClaimTx          *wire.MsgTx
	SpendTx          *wire.MsgTx
}

// Assemble signs both inputs of claimTx in place and builds the spend
// transaction and the intermediate PSBT.
func Assemble(ctx *nonce.Context, claimTx *wire.MsgTx, ks *keyset.Keyset, script []byte, lockedValue int64,
	outcome *grinding.Outcome, intermediate *utxo.UTXO, recipientScript []byte, feeRate int64) (*Signed, error) {

	if len(claimTx.TxIn) != 2 {
		return nil, errors.Errorf("expected the claim transaction to have 2 inputs, got %d", len(claimTx.TxIn))
	}
	assignment, err := AssignSighashTypes(outcome)
	if err != nil {
		return nil, err
	}

	claimWitness, err := ClaimWitness(ctx, claimTx, ks, script, lockedValue, assignment)
	if err != nil {
		return nil, err
	}
	intermediateTx := outcome.None.IntermediateTx
	intermediateWitness, err := PayToWitnessPubKeyHashWitness(claimTx, intermediateInputIndex,
		intermediateTx.TxOut[0].Value, outcome.None.IntermediateKey)
	if err != nil {
		return nil, err
	}
	claimTx.TxIn[lockedInputIndex].Witness = claimWitness
	claimTx.TxIn[intermediateInputIndex].Witness = intermediateWitness

	spendTx, err := SpendTransaction(claimTx, outcome.Single, recipientScript, feeRate)
	if err != nil {
		return nil, err
	}
	intermediatePSBT, err := IntermediatePSBT(intermediateTx, intermediate)
	if err != nil {
		return nil, err
	}
	return &Signed{
		IntermediatePSBT: intermediatePSBT,
		IntermediateTx:   intermediateTx,
		ClaimTx:          claimTx,
		SpendTx:          spendTx,
	}, nil
}
