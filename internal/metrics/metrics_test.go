package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"finance-tracker/internal/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.UserRegistered()
	c.LoginAttempted(true)
	c.LoginAttempted(false)
	c.LoginAttempted(false)
	c.TransactionAdded(models.Transaction{Type: models.Expense, Amount: 20})
	c.TransactionAdded(models.Transaction{Type: models.Income, Amount: 100})
	c.TransactionDeleted(models.Transaction{Type: models.Expense, Amount: 20})
	c.UndoApplied(models.Transaction{})
	c.RecordHTTPStatus(http.StatusCreated)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.registrations))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.logins.WithLabelValues("success")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.logins.WithLabelValues("failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.added.WithLabelValues("expense")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.added.WithLabelValues("income")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.deleted.WithLabelValues("expense")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.undone))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.httpStatus.WithLabelValues("201")))
}

func TestHandlerServesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.UserRegistered()

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "finance_users_registered_total 1")
}
