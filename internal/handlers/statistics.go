package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"finance-tracker/internal/models"
	"finance-tracker/internal/tracker"
)

// StatsResponse is one month of category statistics plus navigation to
// the neighbouring months.
type StatsResponse struct {
	tracker.MonthStatistics
	MonthName      string `json:"monthName"`
	PrevYear       int    `json:"prevYear"`
	PrevMonth      int    `json:"prevMonth"`
	NextYear       int    `json:"nextYear"`
	NextMonth      int    `json:"nextMonth"`
	IsCurrentMonth bool   `json:"isCurrentMonth"`
}

// Dashboard returns totals, savings rate, stats and recent transactions.
func (h *Handlers) Dashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.app.Dashboard(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// Statistics returns the category breakdown of one month.
func (h *Handlers) Statistics(w http.ResponseWriter, r *http.Request) {
	// Get year, month and type from query params, default to current month expenses
	q := r.URL.Query()

	now := time.Now()
	year := now.Year()
	month := int(now.Month())

	if y, err := strconv.Atoi(q.Get("year")); err == nil {
		year = y
	}
	if m, err := strconv.Atoi(q.Get("month")); err == nil && m >= 1 && m <= 12 {
		month = m
	}

	t := models.Expense
	if s := strings.ToLower(q.Get("type")); s != "" {
		t = models.TransactionType(s)
	}

	stats, err := h.app.Statistics(r.Context(), t, year, time.Month(month))
	if err != nil {
		writeError(w, r, err)
		return
	}

	// Calculate previous and next month
	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	prevDate := first.AddDate(0, -1, 0)
	nextDate := first.AddDate(0, 1, 0)

	writeJSON(w, http.StatusOK, StatsResponse{
		MonthStatistics: stats,
		MonthName:       time.Month(month).String(),
		PrevYear:        prevDate.Year(),
		PrevMonth:       int(prevDate.Month()),
		NextYear:        nextDate.Year(),
		NextMonth:       int(nextDate.Month()),
		IsCurrentMonth:  year == now.Year() && month == int(now.Month()),
	})
}
