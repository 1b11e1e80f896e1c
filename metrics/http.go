package metrics

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/pprof"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/relex/gotils/logger"

	"github.com/relex/logcore/defs"
)

func init() {
	_ = pprof.Handler // trigger registration of /debug/pprof/* handlers on http.DefaultServeMux
	http.Handle("/metrics", promhttp.Handler())
	http.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `
<html>
	<head>
		<title>logcore metrics listener</title>
	</head>
	<body>
		<h1>Metrics listener for logcore</h1>
		<ul>
			<li><a href='/debug/pprof'>/debug/pprof</a></li>
			<li><a href='/metrics'>/metrics</a></li>
		</ul>
	</body>
</html>`)
	})
}

// LaunchListener starts a background HTTP server for Prometheus metrics and pprof profiles.
func LaunchListener(address string) *http.Server {
	mlogger := logger.WithField(defs.LabelComponent, "MetricsListener")
	server := &http.Server{Addr: address}
	go func() {
		mlogger.Infof("listening on %s for metrics...", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			mlogger.Errorf("metrics listener error: %s", err.Error())
		}
	}()
	return server
}
