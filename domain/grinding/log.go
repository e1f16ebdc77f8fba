package grinding

import (
	"github.com/powlock/powlock/infrastructure/logger"
	"github.com/powlock/powlock/util/panics"
)

var log = logger.RegisterSubSystem("GRND")
var spawn = panics.GoroutineWrapperFunc(log)
