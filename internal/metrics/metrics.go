package metrics

import (
	"runtime"
	"runtime/debug"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registry = prometheus.NewRegistry()

	processesStarted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "leash",
		Name:      "processes_started_total",
		Help:      "Total number of child processes launched.",
	})

	kills = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "leash",
		Name:      "kills_total",
		Help:      "Total number of termination sequences, by final outcome.",
	}, []string{"outcome"})

	killEscalations = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "leash",
		Name:      "kill_escalations_total",
		Help:      "Total number of forceful signals sent after the grace period expired.",
	})

	processRuntime = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "leash",
		Name:      "process_runtime_seconds",
		Help:      "Wall time of supervised processes from launch to reap.",
		Buckets:   prometheus.ExponentialBuckets(0.01, 4, 10),
	})

	buildInfo = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "leash",
		Name:      "build_info",
		Help:      "Build metadata for the running leash binary.",
	}, []string{"go_version", "vcs", "vcs_revision", "vcs_time", "vcs_modified"})

	buildInfoOnce sync.Once
)

func init() {
	registry.MustRegister(processesStarted, kills, killEscalations, processRuntime, buildInfo)
}

// Registry returns the Prometheus registry containing all leash metrics.
func Registry() *prometheus.Registry {
	return registry
}

// AddProcessStarted records a successful launch.
func AddProcessStarted() {
	processesStarted.Inc()
}

// AddKill records a completed termination sequence and its outcome.
func AddKill(outcome string) {
	if outcome == "" {
		outcome = "unknown"
	}
	kills.WithLabelValues(outcome).Inc()
}

// AddKillEscalation records a forceful signal sent after the grace period.
func AddKillEscalation() {
	killEscalations.Inc()
}

// ObserveProcessRuntime records the wall time of a supervised process.
func ObserveProcessRuntime(d time.Duration) {
	processRuntime.Observe(d.Seconds())
}

// EmitBuildInfo publishes build metadata about the running binary.
func EmitBuildInfo() {
	buildInfoOnce.Do(func() {
		labels := prometheus.Labels{
			"go_version":   runtime.Version(),
			"vcs":          "",
			"vcs_revision": "",
			"vcs_time":     "",
			"vcs_modified": "",
		}
		if info, ok := debug.ReadBuildInfo(); ok {
			if info.GoVersion != "" {
				labels["go_version"] = info.GoVersion
			}
			for _, setting := range info.Settings {
				switch setting.Key {
				case "vcs":
					labels["vcs"] = setting.Value
				case "vcs.revision":
					labels["vcs_revision"] = setting.Value
				case "vcs.time":
					labels["vcs_time"] = setting.Value
				case "vcs.modified":
					labels["vcs_modified"] = setting.Value
				}
			}
		}
		buildInfo.With(labels).Set(1)
	})
}
