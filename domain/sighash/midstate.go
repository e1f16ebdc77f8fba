package sighash

import (
	"bytes"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

// Midstate caches the three BIP143 intermediate hashes of one transaction
// state for one sighash type. hashOutputs covers a single output under
// SIGHASH_SINGLE, so a Midstate must not be reused across sighash types. It
// is only valid for the exact transaction it was filled from: invalidate the
// affected entry whenever the transaction changes, and never share a
// Midstate between transactions.
type Midstate struct {
	hashPrevouts chainhash.Hash
	hashSequence chainhash.Hash
	hashOutputs  chainhash.Hash

	hasPrevouts bool
	hasSequence bool
	hasOutputs  bool
}

// InvalidatePrevouts drops hashPrevouts. Call it after changing any input
// outpoint.
func (m *Midstate) InvalidatePrevouts() {
	m.hasPrevouts = false
}

// InvalidateSequence drops hashSequence. Call it after changing any input
// sequence.
func (m *Midstate) InvalidateSequence() {
	m.hasSequence = false
}

// InvalidateOutputs drops hashOutputs. Call it after changing any output.
func (m *Midstate) InvalidateOutputs() {
	m.hasOutputs = false
}

// Reset drops every cached hash.
func (m *Midstate) Reset() {
	*m = Midstate{}
}

func (m *Midstate) prevouts(tx *wire.MsgTx) *chainhash.Hash {
	if !m.hasPrevouts {
		m.hashPrevouts = calcHashPrevouts(tx)
		m.hasPrevouts = true
	}
	return &m.hashPrevouts
}

func (m *Midstate) sequence(tx *wire.MsgTx) *chainhash.Hash {
	if !m.hasSequence {
		m.hashSequence = calcHashSequence(tx)
		m.hasSequence = true
	}
	return &m.hashSequence
}

func (m *Midstate) allOutputs(tx *wire.MsgTx) *chainhash.Hash {
	if !m.hasOutputs {
		m.hashOutputs = calcHashOutputs(tx.TxOut)
		m.hasOutputs = true
	}
	return &m.hashOutputs
}

func (m *Midstate) singleOutput(tx *wire.MsgTx, idx int) *chainhash.Hash {
	if !m.hasOutputs {
		m.hashOutputs = calcHashOutputs(tx.TxOut[idx : idx+1])
		m.hasOutputs = true
	}
	return &m.hashOutputs
}

func calcHashPrevouts(tx *wire.MsgTx) chainhash.Hash {
	var b bytes.Buffer
	b.Grow(len(tx.TxIn) * (chainhash.HashSize + 4))
	for _, in := range tx.TxIn {
		b.Write(in.PreviousOutPoint.Hash[:])
		writeUint32(&b, in.PreviousOutPoint.Index)
	}
	return doubleHash(b.Bytes())
}

func calcHashSequence(tx *wire.MsgTx) chainhash.Hash {
	var b bytes.Buffer
	b.Grow(len(tx.TxIn) * 4)
	for _, in := range tx.TxIn {
		writeUint32(&b, in.Sequence)
	}
	return doubleHash(b.Bytes())
}

func calcHashOutputs(outputs []*wire.TxOut) chainhash.Hash {
	var b bytes.Buffer
	for _, out := range outputs {
		// Writing to a bytes.Buffer never fails.
		_ = wire.WriteTxOut(&b, 0, 0, out)
	}
	return doubleHash(b.Bytes())
}
