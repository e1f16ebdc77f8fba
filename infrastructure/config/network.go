package config

import (
	"fmt"
	"os"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/jessevdk/go-flags"
	"github.com/pkg/errors"
)

// Testnet4Params are the parameters of the bitcoin testnet4 network. Only the
// address encoding matters here, and testnet4 shares it with testnet3.
var Testnet4Params = func() chaincfg.Params {
	params := chaincfg.TestNet3Params
	params.Name = "testnet4"
	params.DefaultPort = "48333"
	return params
}()

// NetworkFlags holds the network configuration, that is which network is selected.
type NetworkFlags struct {
	Testnet  bool `long:"testnet" description:"Use the test network (testnet3)"`
	Testnet4 bool `long:"testnet4" description:"Use the testnet4 network"`
	Regtest  bool `long:"regtest" description:"Use the regression test network"`
	Simnet   bool `long:"simnet" description:"Use the simulation test network"`

	ActiveNetParams *chaincfg.Params
}

// ResolveNetwork parses the network command line argument and sets NetParams accordingly.
// It returns error if more than one network was selected, nil otherwise.
func (networkFlags *NetworkFlags) ResolveNetwork(parser *flags.Parser) error {
	//NetParams holds the selected network parameters. Default value is main-net.
	networkFlags.ActiveNetParams = &chaincfg.MainNetParams
	// Multiple networks can't be selected simultaneously.
	numNets := 0
	if networkFlags.Testnet {
		numNets++
		networkFlags.ActiveNetParams = &chaincfg.TestNet3Params
	}
	if networkFlags.Testnet4 {
		numNets++
		networkFlags.ActiveNetParams = &Testnet4Params
	}
	if networkFlags.Regtest {
		numNets++
		networkFlags.ActiveNetParams = &chaincfg.RegressionNetParams
	}
	if networkFlags.Simnet {
		numNets++
		networkFlags.ActiveNetParams = &chaincfg.SimNetParams
	}
	if numNets > 1 {
		message := "Multiple networks parameters (testnet, testnet4, regtest, simnet) cannot be used " +
			"together. Please choose only one network"
		err := errors.New(message)
		if parser != nil {
			fmt.Fprintln(os.Stderr, err)
			parser.WriteHelp(os.Stderr)
		}
		return err
	}
	return nil
}

// NetParams returns the ActiveNetParams
func (networkFlags *NetworkFlags) NetParams() *chaincfg.Params {
	return networkFlags.ActiveNetParams
}

// MempoolNetwork returns the path segment the mempool.space API serves the
// active network under: empty for mainnet.
func (networkFlags *NetworkFlags) MempoolNetwork() (string, error) {
	switch networkFlags.ActiveNetParams {
	case &chaincfg.MainNetParams:
		return "", nil
	case &chaincfg.TestNet3Params:
		return "testnet", nil
	case &Testnet4Params:
		return "testnet4", nil
	default:
		return "", errors.Errorf("no public UTXO API for network %s, use --api-url",
			networkFlags.ActiveNetParams.Name)
	}
}
