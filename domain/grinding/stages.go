package grinding

import (
	"context"

	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/btcsuite/btcutil"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/pkg/errors"

	"github.com/powlock/powlock/domain/interval"
	"github.com/powlock/powlock/domain/keyset"
	"github.com/powlock/powlock/domain/sighash"
	"github.com/powlock/powlock/domain/utxo"
)

// Virtual sizes used to deduct fees from the outputs created while grinding.
const (
	IntermediateTxVirtualSize = 110
	ClaimTxVirtualSize        = 500
)

// StageResult is the outcome of one grinding stage: the work it took and
// the interval pairs it claimed, in HashTypes order.
type StageResult struct {
	HashTypes []sighash.SigHashType
	Work      uint64
	Claimed   []*interval.Pair
}

// NoneResult is the outcome of the SIGHASH_NONE stage.
type NoneResult struct {
	StageResult
	// IntermediateTx is the unsigned transaction whose only output is the
	// second input of the claim transaction.
	IntermediateTx  *wire.MsgTx
	IntermediateKey *secp256k1.PrivateKey
}

// SingleResult is the outcome of the SIGHASH_SINGLE stage.
type SingleResult struct {
	StageResult
	// ClaimScript is the witness script of the claim output, spendable with
	// ClaimKey.
	ClaimScript []byte
	ClaimKey    *secp256k1.PrivateKey
	Counter     uint64
}

// AllResult is the outcome of the SIGHASH_ALL stage.
type AllResult struct {
	StageResult
	Counter uint64
}

// GrindNoneAnyoneCanPay varies the locktime of tx and the sequence of its
// locked input until the SIGHASH_NONE|ANYONECANPAY digest claims a pair.
func (e *Engine) GrindNoneAnyoneCanPay(ctx context.Context, tx *wire.MsgTx, pool *interval.Pool) (*StageResult, error) {
	hashTypes := []sighash.SigHashType{sighash.SigHashNone | sighash.SigHashAnyOneCanPay}
	if err := requirePoolSize(pool, len(hashTypes)); err != nil {
		return nil, err
	}
	if len(tx.TxIn) == 0 {
		return nil, errors.New("the claim transaction has no locked input")
	}

	apply := func(tx *wire.MsgTx, i uint64) {
		tx.LockTime, tx.TxIn[lockedInputIndex].Sequence = e.bounds.lockTimeAndSequence(i)
	}
	match, err := e.searcher.Search(ctx, e.bounds.lockTimeSequenceSpace(), func() (Candidate, error) {
		workerTx := tx.Copy()
		checker := e.newChecker(pool, false, hashTypes...)
		return func(i uint64) ([]*interval.Pair, bool, error) {
			apply(workerTx, i)
			return checker.check(workerTx)
		}, nil
	}, e.progress)
	if err != nil {
		return nil, errors.Wrapf(err, "grinding %s", hashTypes[0])
	}

	apply(tx, match.Index)
	return &StageResult{HashTypes: hashTypes, Work: match.Tried, Claimed: match.Claimed}, nil
}

// GrindNone creates an intermediate transaction spending intermediate to a
// fresh key, adds its output as the second input of tx, and varies the
// intermediate locktime and sequence until the SIGHASH_NONE digest of tx
// claims a pair. Every candidate costs two hashes: the intermediate txid and
// the digest.
func (e *Engine) GrindNone(ctx context.Context, tx *wire.MsgTx, pool *interval.Pool,
	intermediate *utxo.UTXO, feeRate int64) (*NoneResult, error) {

	hashTypes := []sighash.SigHashType{sighash.SigHashNone}
	if err := requirePoolSize(pool, len(hashTypes)); err != nil {
		return nil, err
	}
	if len(tx.TxIn) != 1 {
		return nil, errors.Errorf("expected the claim transaction to have 1 input, got %d", len(tx.TxIn))
	}

	key, err := e.generateKey()
	if err != nil {
		return nil, errors.Wrap(err, "generating the intermediate key")
	}
	outputScript, err := PayToWitnessPubKeyHash(key.PubKey().SerializeCompressed())
	if err != nil {
		return nil, err
	}
	outputValue, err := utxo.DeductFee(intermediate.Value, IntermediateTxVirtualSize, feeRate)
	if err != nil {
		return nil, errors.Wrap(err, "intermediate output")
	}

	intermediateTx := wire.NewMsgTx(wire.TxVersion)
	intermediateTx.AddTxIn(wire.NewTxIn(intermediate.Outpoint(), nil, nil))
	intermediateTx.AddTxOut(wire.NewTxOut(outputValue, outputScript))

	intermediateTxID := intermediateTx.TxHash()
	tx.AddTxIn(wire.NewTxIn(wire.NewOutPoint(&intermediateTxID, 0), nil, nil))

	apply := func(intermediateTx, tx *wire.MsgTx, i uint64) {
		intermediateTx.LockTime, intermediateTx.TxIn[0].Sequence = e.bounds.lockTimeAndSequence(i)
		tx.TxIn[1].PreviousOutPoint.Hash = intermediateTx.TxHash()
	}
	match, err := e.searcher.Search(ctx, e.bounds.lockTimeSequenceSpace(), func() (Candidate, error) {
		workerIntermediateTx := intermediateTx.Copy()
		workerTx := tx.Copy()
		checker := e.newChecker(pool, false, hashTypes...)
		return func(i uint64) ([]*interval.Pair, bool, error) {
			apply(workerIntermediateTx, workerTx, i)
			return checker.check(workerTx)
		}, nil
	}, e.progress)
	if err != nil {
		return nil, errors.Wrapf(err, "grinding %s", hashTypes[0])
	}

	apply(intermediateTx, tx, match.Index)
	return &NoneResult{
		StageResult:     StageResult{HashTypes: hashTypes, Work: 2 * match.Tried, Claimed: match.Claimed},
		IntermediateTx:  intermediateTx,
		IntermediateKey: key,
	}, nil
}

// GrindSingle adds the claim output to tx and varies the counter embedded in
// its witness script until the SIGHASH_SINGLE and
// SIGHASH_SINGLE|ANYONECANPAY digests claim two distinct pairs.
func (e *Engine) GrindSingle(ctx context.Context, tx *wire.MsgTx, pool *interval.Pool,
	outputValue int64) (*SingleResult, error) {

	hashTypes := []sighash.SigHashType{sighash.SigHashSingle, sighash.SigHashSingle | sighash.SigHashAnyOneCanPay}
	if err := requirePoolSize(pool, len(hashTypes)); err != nil {
		return nil, err
	}
	if len(tx.TxOut) != 0 {
		return nil, errors.Errorf("expected the claim transaction to have no outputs, got %d", len(tx.TxOut))
	}

	key, err := e.generateKey()
	if err != nil {
		return nil, errors.Wrap(err, "generating the claim key")
	}
	publicKey := key.PubKey().SerializeCompressed()

	tx.AddTxOut(wire.NewTxOut(outputValue, nil))

	apply := func(tx *wire.MsgTx, i uint64) ([]byte, error) {
		claimScript, err := ClaimScript(publicKey, i)
		if err != nil {
			return nil, err
		}
		tx.TxOut[0].PkScript, err = keyset.PayToWitnessScriptHash(claimScript)
		return claimScript, err
	}
	match, err := e.searcher.Search(ctx, e.bounds.CounterMax, func() (Candidate, error) {
		workerTx := tx.Copy()
		checker := e.newChecker(pool, true, hashTypes...)
		return func(i uint64) ([]*interval.Pair, bool, error) {
			if _, err := apply(workerTx, i); err != nil {
				return nil, false, err
			}
			checker.invalidateOutputs()
			return checker.check(workerTx)
		}, nil
	}, e.progress)
	if err != nil {
		return nil, errors.Wrapf(err, "grinding %s and %s", hashTypes[0], hashTypes[1])
	}

	claimScript, err := apply(tx, match.Index)
	if err != nil {
		return nil, err
	}
	return &SingleResult{
		StageResult: StageResult{HashTypes: hashTypes, Work: match.Tried, Claimed: match.Claimed},
		ClaimScript: claimScript,
		ClaimKey:    key,
		Counter:     match.Index,
	}, nil
}

// GrindAll adds a null data output to tx and varies the counter it carries
// until the SIGHASH_ALL and SIGHASH_ALL|ANYONECANPAY digests claim two
// distinct pairs.
func (e *Engine) GrindAll(ctx context.Context, tx *wire.MsgTx, pool *interval.Pool) (*AllResult, error) {
	hashTypes := []sighash.SigHashType{sighash.SigHashAll, sighash.SigHashAll | sighash.SigHashAnyOneCanPay}
	if err := requirePoolSize(pool, len(hashTypes)); err != nil {
		return nil, err
	}
	if len(tx.TxOut) != 1 {
		return nil, errors.Errorf("expected the claim transaction to have 1 output, got %d", len(tx.TxOut))
	}

	tx.AddTxOut(wire.NewTxOut(0, nil))

	apply := func(tx *wire.MsgTx, i uint64) error {
		var err error
		tx.TxOut[1].PkScript, err = NullDataScript(i)
		return err
	}
	match, err := e.searcher.Search(ctx, e.bounds.CounterMax, func() (Candidate, error) {
		workerTx := tx.Copy()
		checker := e.newChecker(pool, true, hashTypes...)
		return func(i uint64) ([]*interval.Pair, bool, error) {
			if err := apply(workerTx, i); err != nil {
				return nil, false, err
			}
			checker.invalidateOutputs()
			return checker.check(workerTx)
		}, nil
	}, e.progress)
	if err != nil {
		return nil, errors.Wrapf(err, "grinding %s and %s", hashTypes[0], hashTypes[1])
	}

	if err := apply(tx, match.Index); err != nil {
		return nil, err
	}
	return &AllResult{
		StageResult: StageResult{HashTypes: hashTypes, Work: match.Tried, Claimed: match.Claimed},
		Counter:     match.Index,
	}, nil
}

// ClaimScript returns <counter> OP_DROP <publicKey> OP_CHECKSIGVERIFY OP_1.
// Every counter gives a distinct script spendable by the same key.
func ClaimScript(publicKey []byte, counter uint64) ([]byte, error) {
	return txscript.NewScriptBuilder().
		AddInt64(int64(counter)).
		AddOp(txscript.OP_DROP).
		AddData(publicKey).
		AddOp(txscript.OP_CHECKSIGVERIFY).
		AddOp(txscript.OP_1).
		Script()
}

// NullDataScript returns OP_RETURN <counter>.
func NullDataScript(counter uint64) ([]byte, error) {
	return txscript.NewScriptBuilder().
		AddOp(txscript.OP_RETURN).
		AddInt64(int64(counter)).
		Script()
}

// PayToWitnessPubKeyHash returns the P2WPKH output script of publicKey.
func PayToWitnessPubKeyHash(publicKey []byte) ([]byte, error) {
	return txscript.NewScriptBuilder().
		AddOp(txscript.OP_0).
		AddData(btcutil.Hash160(publicKey)).
		Script()
}

// Outcome gathers the results of the four stages.
type Outcome struct {
	NoneAnyoneCanPay *StageResult
	None             *NoneResult
	Single           *SingleResult
	All              *AllResult
}

// Stages returns the stage results in grinding order.
func (o *Outcome) Stages() []*StageResult {
	return []*StageResult{o.NoneAnyoneCanPay, &o.None.StageResult, &o.Single.StageResult, &o.All.StageResult}
}

// TotalWork returns the work of all stages.
func (o *Outcome) TotalWork() uint64 {
	var total uint64
	for _, stage := range o.Stages() {
		total += stage.Work
	}
	return total
}

// Run grinds the four stages in order on tx, whose only input must be the
// locked one. Pairs claimed by a stage are unavailable to the next ones.
func (e *Engine) Run(ctx context.Context, tx *wire.MsgTx, pool *interval.Pool,
	intermediate *utxo.UTXO, feeRate int64) (*Outcome, error) {

	outcome := &Outcome{}
	var err error

	log.Infof("Grinding SIGHASH_NONE|ANYONECANPAY...")
	outcome.NoneAnyoneCanPay, err = e.GrindNoneAnyoneCanPay(ctx, tx, pool)
	if err != nil {
		return nil, err
	}
	pool = pool.Without(outcome.NoneAnyoneCanPay.Claimed)
	log.Infof("Using locktime: %d input0nSequence: %d", tx.LockTime, tx.TxIn[lockedInputIndex].Sequence)
	logStage(outcome.NoneAnyoneCanPay)

	log.Infof("Grinding SIGHASH_NONE...")
	outcome.None, err = e.GrindNone(ctx, tx, pool, intermediate, feeRate)
	if err != nil {
		return nil, err
	}
	pool = pool.Without(outcome.None.Claimed)
	intermediateTx := outcome.None.IntermediateTx
	log.Infof("Using intermediateTxLocktime: %d intermediateTxInput0nSequence: %d intermediateTxId: %s",
		intermediateTx.LockTime, intermediateTx.TxIn[0].Sequence, intermediateTx.TxHash())
	logStage(&outcome.None.StageResult)

	claimValue, err := utxo.DeductFee(e.lockedValue+intermediateTx.TxOut[0].Value, ClaimTxVirtualSize, feeRate)
	if err != nil {
		return nil, errors.Wrap(err, "claim output")
	}

	log.Infof("Grinding SIGHASH_SINGLE and SIGHASH_SINGLE|ANYONECANPAY...")
	outcome.Single, err = e.GrindSingle(ctx, tx, pool, claimValue)
	if err != nil {
		return nil, err
	}
	pool = pool.Without(outcome.Single.Claimed)
	log.Infof("Using counter: %d output0Script: %x output0Value: %d",
		outcome.Single.Counter, tx.TxOut[0].PkScript, tx.TxOut[0].Value)
	logStage(&outcome.Single.StageResult)

	log.Infof("Grinding SIGHASH_ALL and SIGHASH_ALL|ANYONECANPAY...")
	outcome.All, err = e.GrindAll(ctx, tx, pool)
	if err != nil {
		return nil, err
	}
	log.Infof("Using counter: %d output1Script: %x", outcome.All.Counter, tx.TxOut[1].PkScript)
	logStage(&outcome.All.StageResult)

	return outcome, nil
}

func logStage(stage *StageResult) {
	indexes := make([]int, len(stage.Claimed))
	for i, pair := range stage.Claimed {
		indexes[i] = pair.Index
	}
	log.Infof("Work: %d intervals found: %v", stage.Work, indexes)
}
