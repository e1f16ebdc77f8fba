package signal

import (
	"github.com/powlock/powlock/infrastructure/logger"
)

var log = logger.RegisterSubSystem("SGNL")
