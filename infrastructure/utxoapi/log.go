package utxoapi

import (
	"github.com/powlock/powlock/infrastructure/logger"
)

var log = logger.RegisterSubSystem("UTXO")
