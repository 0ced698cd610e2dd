package observability

import (
	"sync"
	"time"
)

// ConnectionType labels an external dependency in health reports.
type ConnectionType string

const (
	ConnectionTypeDatabase ConnectionType = "database"
	ConnectionTypeQueue    ConnectionType = "queue"
	ConnectionTypeAI       ConnectionType = "ai"
	ConnectionTypeLinter   ConnectionType = "linter"
	ConnectionTypeCache    ConnectionType = "cache"
)

// OperationType labels the dominant operation performed on a connection.
type OperationType string

const (
	OperationTypeQuery OperationType = "query"
	OperationTypeChat  OperationType = "chat"
	OperationTypeLint  OperationType = "lint"
)

// unhealthyWindow bounds how long a burst of failures keeps a connection
// reported as unhealthy after traffic stops.
const unhealthyWindow = 5 * time.Minute

// ConnectionMetrics tracks request outcomes for one external dependency so
// adapters can answer "is this backend usable right now" without a probe call.
type ConnectionMetrics struct {
	ConnType ConnectionType
	OpType   OperationType
	Endpoint string

	mu         sync.Mutex
	total      int64
	failures   int64
	latencySum time.Duration
	latencyMax time.Duration
	lastOK     time.Time
	lastFail   time.Time
}

// NewConnectionMetrics builds a tracker for one endpoint.
func NewConnectionMetrics(ct ConnectionType, ot OperationType, endpoint string) *ConnectionMetrics {
	return &ConnectionMetrics{ConnType: ct, OpType: ot, Endpoint: endpoint}
}

// RecordRequest counts an attempt before its outcome is known.
func (cm *ConnectionMetrics) RecordRequest() {
	cm.mu.Lock()
	cm.total++
	cm.mu.Unlock()
}

// RecordSuccess folds a completed call into the latency aggregates.
func (cm *ConnectionMetrics) RecordSuccess(d time.Duration) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.lastOK = time.Now()
	cm.latencySum += d
	if d > cm.latencyMax {
		cm.latencyMax = d
	}
}

// RecordFailure counts a failed call. The error itself is logged at the call
// site; only the outcome feeds the health judgment here.
func (cm *ConnectionMetrics) RecordFailure(_ error, _ time.Duration) {
	cm.mu.Lock()
	cm.failures++
	cm.lastFail = time.Now()
	cm.mu.Unlock()
}

// IsHealthy reports false while failures dominate recent traffic. A quiet
// connection is healthy; one bad call among many is not a signal.
func (cm *ConnectionMetrics) IsHealthy() bool {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	if cm.lastFail.IsZero() || time.Since(cm.lastFail) > unhealthyWindow {
		return true
	}
	if cm.total == 0 {
		return true
	}
	return float64(cm.failures)/float64(cm.total) <= 0.5
}

// Snapshot returns the counters for health endpoints.
func (cm *ConnectionMetrics) Snapshot() (total, failures int64, lastOK, lastFail time.Time) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	return cm.total, cm.failures, cm.lastOK, cm.lastFail
}
