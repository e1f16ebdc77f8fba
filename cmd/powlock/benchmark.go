package main

import (
	"math/rand"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcutil"

	"github.com/powlock/powlock/domain/grinding"
	"github.com/powlock/powlock/domain/keyset"
	"github.com/powlock/powlock/domain/nonce"
	"github.com/powlock/powlock/domain/powlock"
	"github.com/powlock/powlock/domain/utxo"
)

const (
	benchmarkMinValue   = 100000
	benchmarkValueRange = 100000000
	benchmarkVoutRange  = 16
)

func benchmark(conf *benchmarkConfig) error {
	closeLog, err := initLog(&conf.LogFlags)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, cancel := interruptibleContext()
	defer cancel()

	nonceContext, err := nonce.NewSecp256k1Context()
	if err != nil {
		return err
	}
	ks, err := keyset.Generate(nonceContext, conf.Work)
	if err != nil {
		return err
	}
	script, err := ks.Script(nonceContext)
	if err != nil {
		return err
	}
	lockedScript, err := keyset.PayToWitnessScriptHash(script)
	if err != nil {
		return err
	}

	random := rand.New(rand.NewSource(time.Now().UnixNano()))
	progress := &grinding.Progress{}
	progress.LogHashRate(ctx, logHashRateInterval)
	searcher := newSearcher(conf.Workers)

	startTime := time.Now()
	var totalWork uint64
	for i := 0; i < conf.Runs; i++ {
		recipient, err := randomRecipient(random, conf)
		if err != nil {
			return err
		}
		result, err := powlock.GrindTransaction(ctx, nonceContext, &powlock.Params{
			Work:         conf.Work,
			Locked:       randomUTXO(random, lockedScript),
			Intermediate: randomUTXO(random, nil),
			FeeRate:      conf.FeeRate,
			Recipient:    recipient,
			Net:          conf.NetParams(),
			Searcher:     searcher,
			Progress:     progress,
		})
		if err != nil {
			return err
		}

		totalWork += result.TotalWork
		elapsed := time.Since(startTime)
		log.Infof("Work (%d): %d", i, result.TotalWork)
		log.Infof("Total work: %d average work: %.2f hashrate: %.2f hash/s",
			totalWork, float64(totalWork)/float64(i+1), float64(totalWork)/elapsed.Seconds())
	}
	log.Infof("Average work over %d runs: %.2f (expected %d)",
		conf.Runs, float64(totalWork)/float64(conf.Runs), conf.Work)
	return nil
}

// randomUTXO returns a synthetic output with a random outpoint and value. A
// nil script is replaced by a random P2WPKH script.
func randomUTXO(random *rand.Rand, script []byte) *utxo.UTXO {
	var txID chainhash.Hash
	random.Read(txID[:])
	if script == nil {
		script = make([]byte, 22)
		script[0], script[1] = txscript.OP_0, 20
		random.Read(script[2:])
	}
	return &utxo.UTXO{
		TxID:   txID,
		Vout:   uint32(random.Intn(benchmarkVoutRange)),
		Script: script,
		Value:  benchmarkMinValue + random.Int63n(benchmarkValueRange),
	}
}

func randomRecipient(random *rand.Rand, conf *benchmarkConfig) (string, error) {
	hash := make([]byte, 20)
	random.Read(hash)
	recipient, err := btcutil.NewAddressWitnessPubKeyHash(hash, conf.NetParams())
	if err != nil {
		return "", err
	}
	return recipient.EncodeAddress(), nil
}
