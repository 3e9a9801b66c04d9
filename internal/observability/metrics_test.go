package observability

import (
	"testing"
	"time"
)

func TestRegisterMetricsAndRecordersAreSafe(t *testing.T) {
	RegisterMetrics()
	RegisterMetrics()

	RecordHTTPRequest("futctl", "GET", "/health", 200, 12*time.Millisecond)
	RecordConnectAttempt("ok")
	RecordConnectAttempt("refused")
	RecordClassification(80*time.Microsecond, true)
	RecordClassification(95*time.Microsecond, false)
	RecordRound("completed", 42)
	RecordRound("aborted", 0)
}
