package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestRecordSignupIncrementsPerActivity(t *testing.T) {
	before := testutil.ToFloat64(signupCounter.WithLabelValues("Chess Club"))
	RecordSignup("Chess Club")
	RecordSignup("Chess Club")
	require.Equal(t, before+2, testutil.ToFloat64(signupCounter.WithLabelValues("Chess Club")))
}

func TestRecordRejectedUsesOperationAndReason(t *testing.T) {
	before := testutil.ToFloat64(rejectedCounter.WithLabelValues("unregister", "not_registered"))
	RecordRejected("unregister", "not_registered")
	require.Equal(t, before+1, testutil.ToFloat64(rejectedCounter.WithLabelValues("unregister", "not_registered")))
}

func TestRecordRosterSizeSetsGauge(t *testing.T) {
	RecordRosterSize("Gym Class", 7)
	require.Equal(t, float64(7), testutil.ToFloat64(rosterGauge.WithLabelValues("Gym Class")))
	RecordRosterSize("Gym Class", 3)
	require.Equal(t, float64(3), testutil.ToFloat64(rosterGauge.WithLabelValues("Gym Class")))
}

func TestObserveRequestRecordsSample(t *testing.T) {
	before := testutil.CollectAndCount(requestDuration)
	ObserveRequest("GET", 200, 15*time.Millisecond)
	require.GreaterOrEqual(t, testutil.CollectAndCount(requestDuration), before)
	require.GreaterOrEqual(t, testutil.CollectAndCount(requestDuration), 1)
}
