// Package metrics exposes ledger activity as Prometheus metrics.
package metrics

import (
	"net/http"
	"strconv"

	"finance-tracker/internal/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector records account and ledger events. It satisfies
// tracker.Observer.
type Collector struct {
	registrations prometheus.Counter
	logins        *prometheus.CounterVec
	added         *prometheus.CounterVec
	deleted       *prometheus.CounterVec
	undone        prometheus.Counter
	amounts       *prometheus.HistogramVec
	httpStatus    *prometheus.CounterVec
}

// NewCollector creates a Collector and registers it with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		registrations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "finance_users_registered_total",
			Help: "Number of accounts registered.",
		}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "finance_login_attempts_total",
			Help: "Login attempts by outcome.",
		}, []string{"result"}),
		added: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "finance_transactions_added_total",
			Help: "Transactions added by type.",
		}, []string{"type"}),
		deleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "finance_transactions_deleted_total",
			Help: "Transactions deleted by type.",
		}, []string{"type"}),
		undone: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "finance_undo_applied_total",
			Help: "Deletions reverted through undo.",
		}),
		amounts: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "finance_transaction_amount",
			Help:    "Amounts of added transactions.",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		}, []string{"type"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "finance_http_responses_total",
			Help: "HTTP responses by status code.",
		}, []string{"status_code"}),
	}

	reg.MustRegister(
		c.registrations,
		c.logins,
		c.added,
		c.deleted,
		c.undone,
		c.amounts,
		c.httpStatus,
	)
	return c
}

func (c *Collector) UserRegistered() {
	c.registrations.Inc()
}

func (c *Collector) LoginAttempted(success bool) {
	result := "failure"
	if success {
		result = "success"
	}
	c.logins.WithLabelValues(result).Inc()
}

func (c *Collector) TransactionAdded(tx models.Transaction) {
	c.added.WithLabelValues(string(tx.Type)).Inc()
	c.amounts.WithLabelValues(string(tx.Type)).Observe(tx.Amount)
}

func (c *Collector) TransactionDeleted(tx models.Transaction) {
	c.deleted.WithLabelValues(string(tx.Type)).Inc()
}

func (c *Collector) UndoApplied(models.Transaction) {
	c.undone.Inc()
}

// RecordHTTPStatus counts a response status code.
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// Handler returns the scrape handler for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
