package utxo

import (
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/pkg/errors"
)

// ErrInsufficientFunds is returned when a fee deduction leaves an output with
// a non-positive value.
var ErrInsufficientFunds = errors.New("insufficient funds to cover the fee")

// UTXO is an unspent transaction output as seen by the grinder: the
// outpoint it lives at, its locking script and its value in satoshis.
type UTXO struct {
	TxID   chainhash.Hash
	Vout   uint32
	Script []byte
	Value  int64
}

// Outpoint returns the wire outpoint referencing this output.
func (u *UTXO) Outpoint() *wire.OutPoint {
	return wire.NewOutPoint(&u.TxID, u.Vout)
}

// TxOut returns the output as a wire.TxOut.
func (u *UTXO) TxOut() *wire.TxOut {
	return wire.NewTxOut(u.Value, u.Script)
}

func (u *UTXO) String() string {
	return fmt.Sprintf("%s:%d", u.TxID, u.Vout)
}

// DeductFee returns value - virtualSize*feeRate, failing if the result is not
// positive.
func DeductFee(value int64, virtualSize int64, feeRate int64) (int64, error) {
	if feeRate < 0 {
		return 0, errors.Errorf("negative fee rate %d", feeRate)
	}
	remaining := value - virtualSize*feeRate
	if remaining <= 0 {
		return 0, errors.Wrapf(ErrInsufficientFunds, "value %d cannot pay %d vbytes at %d sat/vB",
			value, virtualSize, feeRate)
	}
	return remaining, nil
}
