package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordPersist(t *testing.T) {
	before := testutil.ToFloat64(RealtimePersistFailures.WithLabelValues("test_kind"))

	RecordPersist("test_kind", time.Millisecond, nil)
	assert.Equal(t, before, testutil.ToFloat64(RealtimePersistFailures.WithLabelValues("test_kind")))

	RecordPersist("test_kind", time.Millisecond, errors.New("boom"))
	assert.Equal(t, before+1, testutil.ToFloat64(RealtimePersistFailures.WithLabelValues("test_kind")))
}

func TestRecordAPIRequest(t *testing.T) {
	c := APIRequestsTotal.WithLabelValues("GET", "/test", "200")
	before := testutil.ToFloat64(c)

	RecordAPIRequest("GET", "/test", "200", 5*time.Millisecond)

	assert.Equal(t, before+1, testutil.ToFloat64(c))
}

func TestRecordAIRequest(t *testing.T) {
	ok := AIRequests.WithLabelValues("test_op", "success")
	failed := AIRequests.WithLabelValues("test_op", "error")
	okBefore, failedBefore := testutil.ToFloat64(ok), testutil.ToFloat64(failed)

	RecordAIRequest("test_op", nil)
	RecordAIRequest("test_op", errors.New("down"))

	assert.Equal(t, okBefore+1, testutil.ToFloat64(ok))
	assert.Equal(t, failedBefore+1, testutil.ToFloat64(failed))
}
