package main

import (
	"os"
	"path/filepath"

	"github.com/btcsuite/btcutil"
	"github.com/jessevdk/go-flags"
	"github.com/pkg/errors"

	"github.com/powlock/powlock/infrastructure/config"
)

const (
	addressSubCmd   = "address"
	grindSubCmd     = "grind"
	benchmarkSubCmd = "benchmark"
)

const (
	defaultLogFilename    = "powlock.log"
	defaultErrLogFilename = "powlock_err.log"
)

var defaultLogDir = filepath.Join(btcutil.AppDataDir("powlock", false), "logs")

type configFlags struct {
	config.NetworkFlags
}

// LogFlags configure the log outputs of the long running sub-commands.
type LogFlags struct {
	LogDir   string `long:"logdir" description:"Directory to log output"`
	LogLevel string `long:"loglevel" short:"d" description:"Logging level for all subsystems {trace, debug, info, warn, error, critical} -- You may also specify <subsystem>=<level>,<subsystem2>=<level>,... to set the log level for individual subsystems"`
	Profile  string `long:"profile" description:"Enable HTTP profiling on given port -- NOTE port must be between 1024 and 65536"`
}

type addressConfig struct {
	Work uint64 `long:"work" short:"w" description:"Expected number of digests to try before the output can be claimed" required:"true"`
	config.NetworkFlags
}

type grindConfig struct {
	Work         uint64 `long:"work" short:"w" description:"The work the locked output was created with" required:"true"`
	Locked       string `long:"locked" short:"l" description:"The PoW-locked output to claim, as txid:vout" required:"true"`
	Intermediate string `long:"intermediate" short:"i" description:"An output of your wallet funding the intermediate transaction, as txid:vout" required:"true"`
	FeeRate      int64  `long:"fee-rate" short:"f" description:"Fee rate in sat/vB" default:"1"`
	Recipient    string `long:"recipient" short:"r" description:"The address the claimed funds are sent to" required:"true"`
	OutDir       string `long:"out-dir" short:"o" description:"Directory the transactions are written to" default:"transactions"`
	Workers      int    `long:"workers" description:"Number of grinding goroutines" default:"1"`
	APIURL       string `long:"api-url" description:"Base URL of the mempool.space compatible API"`
	Proxy        string `long:"proxy" description:"Connect to the API via SOCKS5 proxy (eg. 127.0.0.1:9050)"`
	ProxyUser    string `long:"proxyuser" description:"Username for proxy server"`
	ProxyPass    string `long:"proxypass" default-mask:"-" description:"Password for proxy server"`
	LogFlags
	config.NetworkFlags
}

type benchmarkConfig struct {
	Work    uint64 `long:"work" short:"w" description:"The work to benchmark" required:"true"`
	Runs    int    `long:"runs" short:"n" description:"Number of claim transactions to grind" default:"10"`
	FeeRate int64  `long:"fee-rate" short:"f" description:"Fee rate in sat/vB" default:"1"`
	Workers int    `long:"workers" description:"Number of grinding goroutines" default:"1"`
	LogFlags
	config.NetworkFlags
}

func parseCommandLine() (subCommand string, config interface{}) {
	cfg := &configFlags{}
	parser := flags.NewParser(cfg, flags.PrintErrors|flags.HelpFlag)

	addressConf := &addressConfig{}
	parser.AddCommand(addressSubCmd, "Prints the PoW-locked address for a work",
		"Derives the keyset for the given work and prints the P2WSH address locking funds behind it", addressConf)

	grindConf := &grindConfig{}
	parser.AddCommand(grindSubCmd, "Grinds the transactions claiming a PoW-locked output",
		"Grinds and signs the claim transaction of a PoW-locked output and writes the intermediate PSBT, "+
			"the claim transaction and the spend transaction to the output directory", grindConf)

	benchmarkConf := &benchmarkConfig{}
	parser.AddCommand(benchmarkSubCmd, "Measures the work and hash rate of grinding",
		"Grinds claim transactions of synthetic outputs and reports the average work and hash rate", benchmarkConf)

	_, err := parser.Parse()

	if err != nil {
		var flagsErr *flags.Error
		if ok := errors.As(err, &flagsErr); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		} else {
			os.Exit(1)
		}
		return "", nil
	}

	switch parser.Command.Active.Name {
	case addressSubCmd:
		combineNetworkFlags(&addressConf.NetworkFlags, &cfg.NetworkFlags)
		err := addressConf.ResolveNetwork(parser)
		if err != nil {
			printErrorAndExit(err)
		}
		config = addressConf
	case grindSubCmd:
		combineNetworkFlags(&grindConf.NetworkFlags, &cfg.NetworkFlags)
		err := grindConf.ResolveNetwork(parser)
		if err != nil {
			printErrorAndExit(err)
		}
		if grindConf.FeeRate < 0 {
			printErrorAndExit(errors.Errorf("--fee-rate cannot be negative, got %d", grindConf.FeeRate))
		}
		config = grindConf
	case benchmarkSubCmd:
		combineNetworkFlags(&benchmarkConf.NetworkFlags, &cfg.NetworkFlags)
		err := benchmarkConf.ResolveNetwork(parser)
		if err != nil {
			printErrorAndExit(err)
		}
		if benchmarkConf.Runs <= 0 {
			printErrorAndExit(errors.Errorf("--runs must be positive, got %d", benchmarkConf.Runs))
		}
		config = benchmarkConf
	}

	return parser.Command.Active.Name, config
}

func combineNetworkFlags(dst, src *config.NetworkFlags) {
	dst.Testnet = dst.Testnet || src.Testnet
	dst.Testnet4 = dst.Testnet4 || src.Testnet4
	dst.Regtest = dst.Regtest || src.Regtest
	dst.Simnet = dst.Simnet || src.Simnet
}
