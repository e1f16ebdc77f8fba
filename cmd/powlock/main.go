package main

import "github.com/pkg/errors"

func main() {
	subCmd, config := parseCommandLine()

	var err error
	switch subCmd {
	case addressSubCmd:
		err = address(config.(*addressConfig))
	case grindSubCmd:
		err = grind(config.(*grindConfig))
	case benchmarkSubCmd:
		err = benchmark(config.(*benchmarkConfig))
	default:
		err = errors.Errorf("Unknown sub-command '%s'\n", subCmd)
	}

	if err != nil {
		printErrorAndExit(err)
	}
}
