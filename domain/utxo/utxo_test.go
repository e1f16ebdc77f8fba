package utxo

import (
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/pkg/errors"
)

func TestDeductFee(t *testing.T) {
	tests := []struct {
		value         int64
		virtualSize   int64
		feeRate       int64
		expected      int64
		expectedError error
	}{
		{value: 50000, virtualSize: 110, feeRate: 2, expected: 49780},
		{value: 50000, virtualSize: 110, feeRate: 0, expected: 50000},
		{value: 1000, virtualSize: 500, feeRate: 2, expectedError: ErrInsufficientFunds},
		{value: 1001, virtualSize: 500, feeRate: 2, expected: 1},
		{value: 0, virtualSize: 140, feeRate: 1, expectedError: ErrInsufficientFunds},
	}
	for i, test := range tests {
		result, err := DeductFee(test.value, test.virtualSize, test.feeRate)
		if test.expectedError != nil {
			if !errors.Is(err, test.expectedError) {
				t.Fatalf("%d: Expected %v, instead found %+v", i, test.expectedError, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%d: DeductFee: %+v", i, err)
		}
		if result != test.expected {
			t.Fatalf("%d: Expected %d, instead found %d", i, test.expected, result)
		}
	}

	if _, err := DeductFee(50000, 110, -1); err == nil {
		t.Fatalf("Expected a negative fee rate to fail")
	}
}

func TestUTXO(t *testing.T) {
	txID, err := chainhash.NewHashFromStr("4a5e1e4baab89f3a32518a88c31bc87f618f76673e2cc77ab2127b7afdeda33b")
	if err != nil {
		t.Fatalf("NewHashFromStr: %+v", err)
	}
	u := &UTXO{TxID: *txID, Vout: 7, Script: []byte{0x51}, Value: 1234}

	if u.String() != "4a5e1e4baab89f3a32518a88c31bc87f618f76673e2cc77ab2127b7afdeda33b:7" {
		t.Fatalf("Unexpected string %s", u)
	}
	if outpoint := u.Outpoint(); outpoint.Hash != *txID || outpoint.Index != 7 {
		t.Fatalf("Unexpected outpoint %s", outpoint)
	}
	if txOut := u.TxOut(); txOut.Value != 1234 || len(txOut.PkScript) != 1 {
		t.Fatalf("Unexpected output %v", txOut)
	}
}
