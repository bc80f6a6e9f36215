// Package metrics records prometheus metrics about synchronization runs and
// remote API calls.
//
// mrspy is a short running command, metrics are not scraped but pushed to a
// Prometheus Pushgateway at the end of a run when an URL is configured.
package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
	"go.uber.org/zap"

	"github.com/simplesurance/mrspy/internal/logfields"
)

const loggerName = "metrics"

const metricNamespace = "mrspy"

// JobName is the job label metrics are pushed with.
const JobName = "mrspy"

const (
	remoteRequestsMetricName = "remote_requests_total"
	operationsMetricName     = "channel_operations_total"
	syncRunsMetricName       = "sync_runs_total"
	mergeRequestsMetricName  = "synchronized_merge_requests"
)

const (
	serviceLabel   = "service"
	endpointLabel  = "endpoint"
	resultLabel    = "result"
	operationLabel = "operation"
	stateLabel     = "state"
	channelLabel   = "channel"
)

// ResultLabelVal is the outcome of a remote call or channel operation.
type ResultLabelVal string

const (
	ResultSuccess         ResultLabelVal = "success"
	ResultTransportError  ResultLabelVal = "transport_error"
	ResultInvalidResponse ResultLabelVal = "invalid_response"
	ResultAPIError        ResultLabelVal = "api_error"
	ResultFailure         ResultLabelVal = "failure"
)

type collector struct {
	logger         *zap.Logger
	registry       *prometheus.Registry
	remoteRequests *prometheus.CounterVec
	operations     *prometheus.CounterVec
	syncRuns       *prometheus.CounterVec
	mergeRequests  *prometheus.GaugeVec
}

var metrics = newCollector()

func newCollector() *collector {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &collector{
		logger:   zap.L().Named(loggerName),
		registry: reg,
		remoteRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricNamespace,
				Name:      remoteRequestsMetricName,
				Help:      "count of requests sent to the gitlab and slack APIs",
			},
			[]string{serviceLabel, endpointLabel, resultLabel},
		),
		operations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricNamespace,
				Name:      operationsMetricName,
				Help:      "count of add, update and remove operations run against slack channels",
			},
			[]string{operationLabel, resultLabel},
		),
		syncRuns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricNamespace,
				Name:      syncRunsMetricName,
				Help:      "count of synchronization runs by their final state",
			},
			[]string{stateLabel},
		),
		mergeRequests: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: metricNamespace,
				Name:      mergeRequestsMetricName,
				Help:      "number of merge requests that were synchronized into a channel in the last run",
			},
			[]string{channelLabel},
		),
	}
}

func (m *collector) logGetMetricFailed(metricName string, err error) {
	m.logger.Warn(
		"could not record metric",
		zap.String("metric", metricName),
		logfields.Event("recording_metric_failed"),
		zap.Error(err),
	)
}

// Registry returns the registry all mrspy metrics are registered with.
func Registry() *prometheus.Registry {
	return metrics.registry
}

// RemoteRequestInc increments the counter of remote API requests.
func RemoteRequestInc(service, endpoint string, result ResultLabelVal) {
	cnt, err := metrics.remoteRequests.GetMetricWith(prometheus.Labels{
		serviceLabel:  service,
		endpointLabel: endpoint,
		resultLabel:   string(result),
	})
	if err != nil {
		metrics.logGetMetricFailed(remoteRequestsMetricName, err)
		return
	}

	cnt.Inc()
}

// OperationInc increments the counter of channel operations.
func OperationInc(operation string, result ResultLabelVal) {
	cnt, err := metrics.operations.GetMetricWith(prometheus.Labels{
		operationLabel: operation,
		resultLabel:    string(result),
	})
	if err != nil {
		metrics.logGetMetricFailed(operationsMetricName, err)
		return
	}

	cnt.Inc()
}

// SyncRunInc increments the counter of finished synchronization runs.
func SyncRunInc(state string) {
	cnt, err := metrics.syncRuns.GetMetricWith(prometheus.Labels{stateLabel: state})
	if err != nil {
		metrics.logGetMetricFailed(syncRunsMetricName, err)
		return
	}

	cnt.Inc()
}

// MergeRequestsSet records the number of merge requests that were
// synchronized into a channel.
func MergeRequestsSet(channel string, cnt int) {
	g, err := metrics.mergeRequests.GetMetricWith(prometheus.Labels{channelLabel: channel})
	if err != nil {
		metrics.logGetMetricFailed(mergeRequestsMetricName, err)
		return
	}

	g.Set(float64(cnt))
}

// Push sends all metrics to the Pushgateway at url.
// Existing metrics of JobName on the gateway are replaced.
func Push(ctx context.Context, url string) error {
	return push.New(url, JobName).
		Gatherer(metrics.registry).
		PushContext(ctx)
}
