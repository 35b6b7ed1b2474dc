package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMetrics(t *testing.T) {
	Init(nil, zap.NewNop())

	before := testutil.ToFloat64(ingestMessages.WithLabelValues(IngestDecodeError))
	ObserveIngest(IngestDecodeError, time.Millisecond)
	assert.Equal(t, before+1, testutil.ToFloat64(ingestMessages.WithLabelValues(IngestDecodeError)))

	SetBrokerConnected(true)
	assert.Equal(t, 1.0, testutil.ToFloat64(brokerConnected))
	SetBrokerConnected(false)
	assert.Equal(t, 0.0, testutil.ToFloat64(brokerConnected))

	IncStoreAttempt(errors.New("down"))
	assert.GreaterOrEqual(t, testutil.ToFloat64(storeAttempts.WithLabelValues(resultError)), 1.0)

	IncAPIRequest("GET /temperatures", 200)
	assert.GreaterOrEqual(t, testutil.ToFloat64(apiRequests.WithLabelValues("GET /temperatures", "200")), 1.0)
}

func TestQueryCount(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM reading`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(12)))
	assert.Equal(t, 12.0, queryCount(db, zap.NewNop(), "SELECT COUNT(*) FROM reading"))

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM reading`).WillReturnError(errors.New("boom"))
	assert.Equal(t, 0.0, queryCount(db, zap.NewNop(), "SELECT COUNT(*) FROM reading"))

	assert.Equal(t, 0.0, queryCount(nil, nil, "SELECT 1"))
}
