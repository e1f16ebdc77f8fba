package main

import (
	"github.com/powlock/powlock/infrastructure/logger"
	"github.com/powlock/powlock/util/panics"
)

var log = logger.RegisterSubSystem("CMDL")
var spawn = panics.GoroutineWrapperFunc(log)
