package config

import (
	"testing"

	"github.com/btcsuite/btcd/chaincfg"
)

func TestResolveNetwork(t *testing.T) {
	tests := []struct {
		flags          NetworkFlags
		expectedParams *chaincfg.Params
		expectedPath   string
		expectsPathErr bool
	}{
		{flags: NetworkFlags{}, expectedParams: &chaincfg.MainNetParams, expectedPath: ""},
		{flags: NetworkFlags{Testnet: true}, expectedParams: &chaincfg.TestNet3Params, expectedPath: "testnet"},
		{flags: NetworkFlags{Testnet4: true}, expectedParams: &Testnet4Params, expectedPath: "testnet4"},
		{flags: NetworkFlags{Regtest: true}, expectedParams: &chaincfg.RegressionNetParams, expectsPathErr: true},
		{flags: NetworkFlags{Simnet: true}, expectedParams: &chaincfg.SimNetParams, expectsPathErr: true},
	}

	for i, test := range tests {
		err := test.flags.ResolveNetwork(nil)
		if err != nil {
			t.Fatalf("%d: ResolveNetwork: %s", i, err)
		}
		if test.flags.NetParams() != test.expectedParams {
			t.Fatalf("%d: Expected network %s, instead found %s",
				i, test.expectedParams.Name, test.flags.NetParams().Name)
		}
		path, err := test.flags.MempoolNetwork()
		if test.expectsPathErr {
			if err == nil {
				t.Fatalf("%d: Expected an error for network %s", i, test.expectedParams.Name)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%d: MempoolNetwork: %s", i, err)
		}
		if path != test.expectedPath {
			t.Fatalf("%d: Expected path %q, instead found %q", i, test.expectedPath, path)
		}
	}
}

func TestResolveNetworkMultipleNetworks(t *testing.T) {
	networkFlags := NetworkFlags{Testnet: true, Regtest: true}
	if err := networkFlags.ResolveNetwork(nil); err == nil {
		t.Fatalf("Expected an error when selecting two networks")
	}
}
