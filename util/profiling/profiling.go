package profiling

import (
	"net"
	"net/http"

	// Required for profiling
	_ "net/http/pprof"

	"github.com/powlock/powlock/infrastructure/logger"
	"github.com/powlock/powlock/util/panics"
)

// Start serves the pprof endpoints on port until the process exits.
func Start(port string, log *logger.Logger) {
	spawn := panics.GoroutineWrapperFunc(log)
	spawn("profiling.Start", func() {
		listenAddr := net.JoinHostPort("", port)
		log.Infof("Profile server listening on %s", listenAddr)
		profileRedirect := http.RedirectHandler("/debug/pprof", http.StatusSeeOther)
		http.Handle("/", profileRedirect)
		log.Errorf("Profile server stopped: %s", http.ListenAndServe(listenAddr, nil))
	})
}
