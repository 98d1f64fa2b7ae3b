package metrics

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	MetricsNamespace = "mastermind"
)

var (
	Debug                bool = true
	nonAlphanumericRegex      = regexp.MustCompile(`[^a-zA-Z ]+`)

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "errors_total",
		Help:      "Count of errors",
	}, []string{
		"error",
	})

	runsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "runs_total",
		Help:      "Count of test runs by outcome",
	}, []string{
		"project",
		"branch",
		"configuration",
		"outcome",
	})

	runDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: MetricsNamespace,
		Name:      "run_duration_seconds",
		Help:      "Duration of test runs",
		Buckets:   prometheus.ExponentialBuckets(10, 2, 12),
	}, []string{
		"project",
		"branch",
		"configuration",
	})

	lastExitCode = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "last_exit_code",
		Help:      "Exit code of the most recent run",
	}, []string{
		"project",
		"branch",
		"configuration",
	})
)

// errToLabel tries to make the error string a more valid Prometheus label
func errToLabel(err error) string {
	if err == nil {
		return "nil"
	}
	errClean := nonAlphanumericRegex.ReplaceAllString(err.Error(), "")
	errClean = strings.ReplaceAll(errClean, " ", "_")
	errClean = strings.ReplaceAll(errClean, "__", "_")
	return errClean
}

func RecordError(error string) {
	if Debug {
		log.Debug("metric inc",
			"m", "errors_total",
			"error", error,
		)
	}
	errorsTotal.WithLabelValues(error).Inc()
}

// RecordErrorDetails concats the error message to the label
// and also tries to clean the label to be a valid Prometheus label
func RecordErrorDetails(label string, err error) {
	if err == nil {
		return
	}
	label = fmt.Sprintf("%s.%s", label, errToLabel(err))
	RecordError(label)
}

// RecordRun records the outcome of one branch/configuration run. outcome is
// the status code the exit code maps to, e.g. MASTERMIND_OK.
func RecordRun(project, branch, configuration, outcome string, exitCode int, duration time.Duration) {
	if Debug {
		log.Debug("metric inc",
			"m", "runs_total",
			"project", project,
			"branch", branch,
			"configuration", configuration,
			"outcome", outcome)
	}
	runsTotal.WithLabelValues(project, branch, configuration, outcome).Inc()
	runDuration.WithLabelValues(project, branch, configuration).Observe(duration.Seconds())
	lastExitCode.WithLabelValues(project, branch, configuration).Set(float64(exitCode))
}
