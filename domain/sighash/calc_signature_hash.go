package sighash

import (
	"bytes"
	"encoding/binary"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/minio/sha256-simd"
	"github.com/pkg/errors"
)

var (
	// ErrInvalidHashType is returned for a sighash type outside of the six
	// defined ones.
	ErrInvalidHashType = errors.New("invalid sighash type")

	// ErrInputIndexOutOfRange is returned when the signed input does not exist.
	ErrInputIndexOutOfRange = errors.New("input index out of range")
)

// fixedPreimageSize is the size of the BIP143 preimage without the script code:
// version, hashPrevouts, hashSequence, outpoint, value, sequence, hashOutputs,
// locktime and sighash type.
const fixedPreimageSize = 4 + 32 + 32 + 36 + 8 + 4 + 32 + 4 + 4

// CalculateWitnessV0 returns the BIP143 signature hash of input idx of tx,
// spending an output of the given value locked by scriptCode.
//
// Intermediate hashes are taken from midstate when present and stored in it
// otherwise. A nil midstate computes everything from scratch.
func CalculateWitnessV0(tx *wire.MsgTx, idx int, scriptCode []byte, value int64,
	hashType SigHashType, midstate *Midstate) (chainhash.Hash, error) {

	if !hashType.IsStandard() {
		return chainhash.Hash{}, errors.Wrapf(ErrInvalidHashType, "0x%02x", uint32(hashType))
	}
	if idx < 0 || idx >= len(tx.TxIn) {
		return chainhash.Hash{}, errors.Wrapf(ErrInputIndexOutOfRange, "input %d of %d", idx, len(tx.TxIn))
	}
	if midstate == nil {
		midstate = &Midstate{}
	}

	var zeroHash chainhash.Hash
	hashPrevouts := &zeroHash
	hashSequence := &zeroHash
	hashOutputs := &zeroHash

	if !hashType.isAnyOneCanPay() {
		hashPrevouts = midstate.prevouts(tx)
	}
	if !hashType.isAnyOneCanPay() && !hashType.isSingle() && !hashType.isNone() {
		hashSequence = midstate.sequence(tx)
	}
	switch {
	case !hashType.isSingle() && !hashType.isNone():
		hashOutputs = midstate.allOutputs(tx)
	case hashType.isSingle() && idx < len(tx.TxOut):
		hashOutputs = midstate.singleOutput(tx, idx)
	}

	in := tx.TxIn[idx]

	var b bytes.Buffer
	b.Grow(fixedPreimageSize + wire.VarIntSerializeSize(uint64(len(scriptCode))) + len(scriptCode))

	writeUint32(&b, uint32(tx.Version))
	b.Write(hashPrevouts[:])
	b.Write(hashSequence[:])
	b.Write(in.PreviousOutPoint.Hash[:])
	writeUint32(&b, in.PreviousOutPoint.Index)
	// Writing to a bytes.Buffer never fails.
	_ = wire.WriteVarBytes(&b, 0, scriptCode)
	writeUint64(&b, uint64(value))
	writeUint32(&b, in.Sequence)
	b.Write(hashOutputs[:])
	writeUint32(&b, tx.LockTime)
	writeUint32(&b, uint32(hashType))

	return doubleHash(b.Bytes()), nil
}

func doubleHash(b []byte) chainhash.Hash {
	first := sha256.Sum256(b)
	return sha256.Sum256(first[:])
}

func writeUint32(b *bytes.Buffer, value uint32) {
	var scratch [4]byte
	binary.LittleEndian.PutUint32(scratch[:], value)
	b.Write(scratch[:])
}

func writeUint64(b *bytes.Buffer, value uint64) {
	var scratch [8]byte
	binary.LittleEndian.PutUint64(scratch[:], value)
	b.Write(scratch[:])
}
