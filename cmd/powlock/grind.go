package main

import (
	"context"
	"fmt"
	"os"

	"github.com/pkg/errors"

	"github.com/powlock/powlock/domain/grinding"
	"github.com/powlock/powlock/domain/nonce"
	"github.com/powlock/powlock/domain/powlock"
	"github.com/powlock/powlock/domain/utxo"
	"github.com/powlock/powlock/infrastructure/utxoapi"
)

const (
	psbtFilename    = "psbt.txt"
	claimTxFilename = "claimTx.txt"
	spendTxFilename = "spendTx.txt"
)

func grind(conf *grindConfig) error {
	closeLog, err := initLog(&conf.LogFlags)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, cancel := interruptibleContext()
	defer cancel()

	apiNetwork, err := conf.MempoolNetwork()
	if err != nil {
		if conf.APIURL == "" {
			return err
		}
		apiNetwork = ""
	}
	client, err := utxoapi.NewClient(&utxoapi.Config{
		BaseURL:   conf.APIURL,
		Network:   apiNetwork,
		Proxy:     conf.Proxy,
		ProxyUser: conf.ProxyUser,
		ProxyPass: conf.ProxyPass,
	})
	if err != nil {
		return err
	}

	log.Infof("Fetching witness UTXO for pow-locked output...")
	locked, err := fetchUTXO(ctx, client, conf.Locked)
	if err != nil {
		return err
	}
	log.Infof("Fetching witness UTXO for intermediate output...")
	intermediate, err := fetchUTXO(ctx, client, conf.Intermediate)
	if err != nil {
		return err
	}

	nonceContext, err := nonce.NewSecp256k1Context()
	if err != nil {
		return err
	}
	progress := &grinding.Progress{}
	progress.LogHashRate(ctx, logHashRateInterval)

	log.Infof("Starting grinding with work: %d feeRate: %d recipient: %s", conf.Work, conf.FeeRate, conf.Recipient)
	result, err := powlock.GrindTransaction(ctx, nonceContext, &powlock.Params{
		Work:         conf.Work,
		Locked:       locked,
		Intermediate: intermediate,
		FeeRate:      conf.FeeRate,
		Recipient:    conf.Recipient,
		Net:          conf.NetParams(),
		Searcher:     newSearcher(conf.Workers),
		Progress:     progress,
	})
	if err != nil {
		return err
	}

	err = writeResult(conf.OutDir, result)
	if err != nil {
		return err
	}
	log.Infof("Successfully mined a PoW output, files created (in %s directory): %s, %s, %s",
		conf.OutDir, psbtFilename, claimTxFilename, spendTxFilename)
	log.Infof("Total work: %d", result.TotalWork)
	fmt.Printf("Claim transaction %s written to %s, total work %d\n", result.ClaimTx.TxHash(), conf.OutDir, result.TotalWork)
	return nil
}

func fetchUTXO(ctx context.Context, client *utxoapi.Client, outpoint string) (*utxo.UTXO, error) {
	txID, vout, err := utxoapi.ParseOutpoint(outpoint)
	if err != nil {
		return nil, err
	}
	return client.WitnessUTXO(ctx, txID, vout)
}

func writeResult(outDir string, result *powlock.Result) error {
	err := os.MkdirAll(outDir, 0700)
	if err != nil {
		return errors.Wrapf(err, "creating %s", outDir)
	}
	claimTx, err := serializeTransaction(result.ClaimTx)
	if err != nil {
		return err
	}
	spendTx, err := serializeTransaction(result.SpendTx)
	if err != nil {
		return err
	}

	files := []struct {
		name    string
		content string
	}{
		{psbtFilename, result.IntermediatePSBT},
		{claimTxFilename, claimTx},
		{spendTxFilename, spendTx},
	}
	for _, file := range files {
		err := writeFile(outDir, file.name, file.content)
		if err != nil {
			return err
		}
	}
	return nil
}
