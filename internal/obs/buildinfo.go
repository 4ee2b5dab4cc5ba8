package obs

import (
	"runtime"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	buildInfoOnce sync.Once

	// buildInfo is a constant 1 labelled with the running build.
	buildInfo = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "procura_build_info",
			Help: "Procura API build information.",
		},
		[]string{"version", "commit", "goversion"},
	)
)

func InitBuildInfo(version, commit string) {
	buildInfoOnce.Do(func() {
		prometheus.MustRegister(buildInfo)
	})
	buildInfo.Reset()
	buildInfo.WithLabelValues(version, commit, runtime.Version()).Set(1)
}
