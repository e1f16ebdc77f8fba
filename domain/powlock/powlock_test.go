package powlock_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/btcsuite/btcutil"
	"github.com/btcsuite/btcutil/psbt"
	"github.com/pkg/errors"

	"github.com/powlock/powlock/domain/assembler"
	"github.com/powlock/powlock/domain/grinding"
	"github.com/powlock/powlock/domain/keyset"
	"github.com/powlock/powlock/domain/nonce"
	"github.com/powlock/powlock/domain/powlock"
	"github.com/powlock/powlock/domain/utxo"
)

const testWork = 160000

func newContext(t *testing.T) *nonce.Context {
	ctx, err := nonce.NewSecp256k1Context()
	if err != nil {
		t.Fatalf("NewSecp256k1Context: %+v", err)
	}
	return ctx
}

func testParams(t *testing.T, ctx *nonce.Context) *powlock.Params {
	address, err := powlock.Address(ctx, testWork, &chaincfg.RegressionNetParams)
	if err != nil {
		t.Fatalf("Address: %+v", err)
	}
	lockedScript, err := txscript.PayToAddrScript(address)
	if err != nil {
		t.Fatalf("PayToAddrScript: %+v", err)
	}
	recipient, err := btcutil.NewAddressWitnessPubKeyHash(bytes.Repeat([]byte{0x42}, 20), &chaincfg.RegressionNetParams)
	if err != nil {
		t.Fatalf("NewAddressWitnessPubKeyHash: %+v", err)
	}
	return &powlock.Params{
		Work: testWork,
		Locked: &utxo.UTXO{
			TxID:   chainhash.DoubleHashH([]byte("funding")),
			Vout:   0,
			Script: lockedScript,
			Value:  100000,
		},
		Intermediate: &utxo.UTXO{
			TxID:   chainhash.DoubleHashH([]byte("wallet")),
			Vout:   2,
			Script: append([]byte{txscript.OP_0, txscript.OP_DATA_20}, bytes.Repeat([]byte{0x07}, 20)...),
			Value:  50000,
		},
		FeeRate:   2,
		Recipient: recipient.EncodeAddress(),
		Net:       &chaincfg.RegressionNetParams,
		Searcher:  grinding.ParallelSearcher{Workers: 2},
	}
}

func executeScript(t *testing.T, tx *wire.MsgTx, idx int, pkScript []byte, amount int64) {
	engine, err := txscript.NewEngine(pkScript, tx, idx, txscript.StandardVerifyFlags, nil,
		txscript.NewTxSigHashes(tx), amount)
	if err != nil {
		t.Fatalf("input %d of %s: NewEngine: %+v", idx, tx.TxHash(), err)
	}
	if err := engine.Execute(); err != nil {
		t.Fatalf("input %d of %s: Execute: %+v", idx, tx.TxHash(), err)
	}
}

func TestGrindTransaction(t *testing.T) {
	if testing.Short() {
		t.Skip("grinding a claim transaction takes a while")
	}
	ctx := newContext(t)
	params := testParams(t, ctx)

	result, err := powlock.GrindTransaction(context.Background(), ctx, params)
	if err != nil {
		t.Fatalf("GrindTransaction: %+v", err)
	}

	claimTx := result.ClaimTx
	if claimTx.TxIn[0].PreviousOutPoint != *params.Locked.Outpoint() {
		t.Fatalf("Expected the claim transaction to spend %s, instead found %s",
			params.Locked, claimTx.TxIn[0].PreviousOutPoint)
	}
	witness := claimTx.TxIn[0].Witness
	if len(witness) != 2*keyset.NumPairs+2 || !bytes.Equal(witness[0], []byte{0x01}) {
		t.Fatalf("Unexpected claim witness layout with %d items", len(witness))
	}
	for i, signature := range witness[1 : len(witness)-1] {
		if len(signature) >= keyset.MaxSignatureSize {
			t.Fatalf("signature %d is %d bytes long", i, len(signature))
		}
	}

	executeScript(t, claimTx, 0, params.Locked.Script, params.Locked.Value)
	intermediateOutput := result.IntermediateTx.TxOut[0]
	executeScript(t, claimTx, 1, intermediateOutput.PkScript, intermediateOutput.Value)
	executeScript(t, result.SpendTx, 0, claimTx.TxOut[0].PkScript, claimTx.TxOut[0].Value)

	recipientScript, err := powlock.RecipientScript(params.Recipient, params.Net)
	if err != nil {
		t.Fatalf("RecipientScript: %+v", err)
	}
	expectedSpendValue := claimTx.TxOut[0].Value - 140*params.FeeRate
	if !bytes.Equal(result.SpendTx.TxOut[0].PkScript, recipientScript) ||
		result.SpendTx.TxOut[0].Value != expectedSpendValue {
		t.Fatalf("Expected the spend transaction to pay %d to %s", expectedSpendValue, params.Recipient)
	}

	packet, err := psbt.NewFromRawBytes(strings.NewReader(result.IntermediatePSBT), true)
	if err != nil {
		t.Fatalf("NewFromRawBytes: %+v", err)
	}
	if packet.UnsignedTx.TxHash() != result.IntermediateTx.TxHash() {
		t.Fatalf("Expected the PSBT to carry %s, instead found %s",
			result.IntermediateTx.TxHash(), packet.UnsignedTx.TxHash())
	}
	if packet.Inputs[0].WitnessUtxo.Value != params.Intermediate.Value {
		t.Fatalf("Expected the PSBT witness UTXO value %d, instead found %d",
			params.Intermediate.Value, packet.Inputs[0].WitnessUtxo.Value)
	}

	if len(result.Stages) != 4 || result.TotalWork == 0 || result.ExpectedWork != testWork {
		t.Fatalf("Unexpected result summary: %d stages, total work %d, expected work %d",
			len(result.Stages), result.TotalWork, result.ExpectedWork)
	}
}

func TestGrindTransactionErrors(t *testing.T) {
	ctx := newContext(t)

	params := testParams(t, ctx)
	params.Work = 0
	_, err := powlock.GrindTransaction(context.Background(), ctx, params)
	if !errors.Is(err, keyset.ErrInsufficientWork) {
		t.Fatalf("Expected ErrInsufficientWork, instead found %+v", err)
	}

	params = testParams(t, ctx)
	params.Work = testWork + 100000
	_, err = powlock.GrindTransaction(context.Background(), ctx, params)
	if !errors.Is(err, assembler.ErrScriptMismatch) {
		t.Fatalf("Expected ErrScriptMismatch, instead found %+v", err)
	}

	params = testParams(t, ctx)
	params.Recipient = "not an address"
	_, err = powlock.GrindTransaction(context.Background(), ctx, params)
	if err == nil {
		t.Fatalf("Expected an invalid recipient to fail")
	}

	params = testParams(t, ctx)
	mainnetRecipient, err := btcutil.NewAddressWitnessPubKeyHash(bytes.Repeat([]byte{0x42}, 20), &chaincfg.MainNetParams)
	if err != nil {
		t.Fatalf("NewAddressWitnessPubKeyHash: %+v", err)
	}
	params.Recipient = mainnetRecipient.EncodeAddress()
	_, err = powlock.GrindTransaction(context.Background(), ctx, params)
	if err == nil {
		t.Fatalf("Expected a recipient of another network to fail")
	}

	params = testParams(t, ctx)
	params.Intermediate = nil
	_, err = powlock.GrindTransaction(context.Background(), ctx, params)
	if err == nil {
		t.Fatalf("Expected a missing intermediate output to fail")
	}
}
