// Package powlock derives PoW-locked addresses and grinds the transactions
// claiming them.
package powlock

import (
	"context"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/btcsuite/btcutil"
	"github.com/pkg/errors"

	"github.com/powlock/powlock/domain/assembler"
	"github.com/powlock/powlock/domain/grinding"
	"github.com/powlock/powlock/domain/interval"
	"github.com/powlock/powlock/domain/keyset"
	"github.com/powlock/powlock/domain/nonce"
	"github.com/powlock/powlock/domain/utxo"
	"github.com/powlock/powlock/infrastructure/logger"
)

// Address returns the P2WSH address locking funds behind work.
func Address(ctx *nonce.Context, work uint64, net *chaincfg.Params) (*btcutil.AddressWitnessScriptHash, error) {
	return keyset.AddressForWork(ctx, work, net)
}

// Params are the inputs of GrindTransaction.
type Params struct {
	Work uint64
	// Locked is the PoW-locked output to claim.
	Locked *utxo.UTXO
	// Intermediate is an output of the caller's wallet, spent by the
	// intermediate transaction.
	Intermediate *utxo.UTXO
	// FeeRate is in sat/vB.
	FeeRate int64
	// Recipient is the address the claimed funds are finally sent to.
	Recipient string
	Net       *chaincfg.Params

	// Searcher defaults to grinding.SequentialSearcher.
	Searcher grinding.Searcher
	// Bounds defaults to grinding.DefaultBounds.
	Bounds *grinding.Bounds
	// Progress, when not nil, counts every candidate tried.
	Progress *grinding.Progress
}

// Result holds the transactions produced by GrindTransaction. The
// intermediate transaction has to be signed and broadcast by the wallet
// before ClaimTx and SpendTx.
type Result struct {
	IntermediatePSBT string
	IntermediateTx   *wire.MsgTx
	ClaimTx          *wire.MsgTx
	SpendTx          *wire.MsgTx
	ExpectedWork     uint64
	TotalWork        uint64
	Stages           []*grinding.StageResult
}

// GrindTransaction grinds and signs a claim transaction for params.Locked,
// plus the transaction moving its funds to params.Recipient.
func GrindTransaction(ctx context.Context, nonceContext *nonce.Context, params *Params) (*Result, error) {
	defer log.Timed(logger.LevelInfo, "GrindTransaction")()

	if params.Locked == nil || params.Intermediate == nil {
		return nil, errors.New("both the locked and the intermediate outputs are required")
	}
	net := params.Net
	if net == nil {
		net = &chaincfg.MainNetParams
	}
	recipientScript, err := RecipientScript(params.Recipient, net)
	if err != nil {
		return nil, err
	}

	ks, err := keyset.Generate(nonceContext, params.Work)
	if err != nil {
		return nil, err
	}
	script, err := ks.Script(nonceContext)
	if err != nil {
		return nil, err
	}
	if err := assembler.VerifyLockedScript(script, params.Locked); err != nil {
		return nil, err
	}
	pairs, err := interval.Calculate(nonceContext, ks)
	if err != nil {
		return nil, err
	}
	for _, pair := range pairs {
		log.Debugf("Pair %d: I1 %s I2 %s", pair.Index, &pair.I1, &pair.I2)
	}

	options := []grinding.Option{grinding.WithProgress(params.Progress)}
	if params.Searcher != nil {
		options = append(options, grinding.WithSearcher(params.Searcher))
	}
	if params.Bounds != nil {
		options = append(options, grinding.WithBounds(*params.Bounds))
	}
	engine, err := grinding.NewEngine(script, params.Locked.Value, options...)
	if err != nil {
		return nil, err
	}

	claimTx := wire.NewMsgTx(wire.TxVersion)
	claimTx.AddTxIn(wire.NewTxIn(params.Locked.Outpoint(), nil, nil))

	log.Infof("Grinding claim transaction for %s with expected work %d", params.Locked, params.Work)
	outcome, err := engine.Run(ctx, claimTx, interval.NewPool(pairs), params.Intermediate, params.FeeRate)
	if err != nil {
		return nil, err
	}

	signed, err := assembler.Assemble(nonceContext, claimTx, ks, script, params.Locked.Value,
		outcome, params.Intermediate, recipientScript, params.FeeRate)
	if err != nil {
		return nil, err
	}
	totalWork := outcome.TotalWork()
	log.Infof("Claim transaction %s ground with total work %d (expected %d)",
		signed.ClaimTx.TxHash(), totalWork, params.Work)

	return &Result{
		IntermediatePSBT: signed.IntermediatePSBT,
		IntermediateTx:   signed.IntermediateTx,
		ClaimTx:          signed.ClaimTx,
		SpendTx:          signed.SpendTx,
		ExpectedWork:     params.Work,
		TotalWork:        totalWork,
		Stages:           outcome.Stages(),
	}, nil
}

// RecipientScript returns the output script paying to address on net.
func RecipientScript(address string, net *chaincfg.Params) ([]byte, error) {
	decoded, err := btcutil.DecodeAddress(address, net)
	if err != nil {
		return nil, errors.Wrapf(err, "decoding recipient address %s", address)
	}
	if !decoded.IsForNet(net) {
		return nil, errors.Errorf("recipient address %s is not a %s address", address, net.Name)
	}
	return txscript.PayToAddrScript(decoded)
}
