package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"finance-tracker/internal/auth"
	"finance-tracker/internal/metrics"
	"finance-tracker/internal/models"
	"finance-tracker/internal/storage"
	"finance-tracker/internal/tracker"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/xuri/excelize/v2"
	"golang.org/x/crypto/bcrypt"
)

type HandlersTestSuite struct {
	suite.Suite
	db     *storage.DB
	router http.Handler
}

func (suite *HandlersTestSuite) SetupTest() {
	db, err := storage.NewDB(":memory:")
	require.NoError(suite.T(), err, "failed to create test database")
	suite.db = db

	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector(reg)
	app := tracker.New(db, tracker.Options{
		Verifier:   auth.NewBcrypt(bcrypt.MinCost),
		UndoWindow: time.Minute,
		Observer:   collector,
	})
	suite.router = NewRouter(NewHandlers(app), RouterConfig{
		Logger:            slog.New(slog.NewJSONHandler(io.Discard, nil)),
		Gatherer:          reg,
		StatusRecorder:    collector,
		Pinger:            db,
		AuthRatePerMinute: 100,
	})
}

func (suite *HandlersTestSuite) TearDownTest() {
	if suite.db != nil {
		suite.db.Close()
	}
}

func (suite *HandlersTestSuite) do(method, path string, body any) *httptest.ResponseRecorder {
	var reader io.Reader = http.NoBody
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(suite.T(), err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *HandlersTestSuite) decode(w *httptest.ResponseRecorder, v any) {
	require.NoError(suite.T(), json.Unmarshal(w.Body.Bytes(), v), "body: %s", w.Body.String())
}

func (suite *HandlersTestSuite) login() {
	w := suite.do(http.MethodPost, "/api/register", registerRequest{Name: "Ana", Email: "ana@x.com", Password: "secret1"})
	require.Equal(suite.T(), http.StatusCreated, w.Code, w.Body.String())
	w = suite.do(http.MethodPost, "/api/login", loginRequest{Email: "ANA@X.COM", Password: "secret1"})
	require.Equal(suite.T(), http.StatusOK, w.Code, w.Body.String())
}

func (suite *HandlersTestSuite) create(d models.Draft) models.Transaction {
	w := suite.do(http.MethodPost, "/api/transactions", d)
	require.Equal(suite.T(), http.StatusCreated, w.Code, w.Body.String())
	var tx models.Transaction
	suite.decode(w, &tx)
	return tx
}

func (suite *HandlersTestSuite) TestHealth() {
	w := suite.do(http.MethodGet, "/healthz", nil)
	assert.Equal(suite.T(), http.StatusOK, w.Code)
	assert.Contains(suite.T(), w.Body.String(), `"ok"`)
}

func (suite *HandlersTestSuite) TestRegisterErrors() {
	suite.login()

	w := suite.do(http.MethodPost, "/api/register", registerRequest{Name: "Ana", Email: "ana@x.com", Password: "secret1"})
	assert.Equal(suite.T(), http.StatusConflict, w.Code)

	w = suite.do(http.MethodPost, "/api/register", registerRequest{Name: "Bo", Email: "bo@x.com", Password: "123"})
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
	var body ErrorBody
	suite.decode(w, &body)
	assert.Equal(suite.T(), "password", body.Field)
	assert.Equal(suite.T(), "VALIDATION_ERROR", body.Code)

	w = suite.do(http.MethodPost, "/api/register", registerRequest{Name: "Bo", Email: "bo@x.com", Password: strings.Repeat("a", 73)})
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
	body = ErrorBody{}
	suite.decode(w, &body)
	assert.Equal(suite.T(), "password", body.Field)
	assert.Equal(suite.T(), "VALIDATION_ERROR", body.Code)
}

func (suite *HandlersTestSuite) TestRegisterDoesNotExposePassword() {
	w := suite.do(http.MethodPost, "/api/register", registerRequest{Name: "Ana", Email: "ana@x.com", Password: "secret1"})
	require.Equal(suite.T(), http.StatusCreated, w.Code)
	assert.NotContains(suite.T(), w.Body.String(), "password")
	assert.NotContains(suite.T(), w.Body.String(), "secret1")
}

func (suite *HandlersTestSuite) TestBadJSON() {
	req := httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader("{"))
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
}

func (suite *HandlersTestSuite) TestLoginWrongPassword() {
	suite.login()
	w := suite.do(http.MethodPost, "/api/login", loginRequest{Email: "ana@x.com", Password: "wrong"})
	assert.Equal(suite.T(), http.StatusUnauthorized, w.Code)

	var body ErrorBody
	suite.decode(w, &body)
	assert.Equal(suite.T(), "INVALID_CREDENTIALS", body.Code)
}

func (suite *HandlersTestSuite) TestRoutesRequireSession() {
	for _, path := range []string{"/api/session", "/api/transactions", "/api/dashboard", "/api/statistics", "/api/transactions/export"} {
		w := suite.do(http.MethodGet, path, nil)
		assert.Equal(suite.T(), http.StatusUnauthorized, w.Code, path)
	}
}

func (suite *HandlersTestSuite) TestSessionAndLogout() {
	suite.login()

	w := suite.do(http.MethodGet, "/api/session", nil)
	require.Equal(suite.T(), http.StatusOK, w.Code)
	var sess models.Session
	suite.decode(w, &sess)
	assert.Equal(suite.T(), "Ana", sess.Name)

	w = suite.do(http.MethodPost, "/api/logout", nil)
	assert.Equal(suite.T(), http.StatusNoContent, w.Code)

	w = suite.do(http.MethodGet, "/api/session", nil)
	assert.Equal(suite.T(), http.StatusUnauthorized, w.Code)
}

func (suite *HandlersTestSuite) TestTransactionFlow() {
	suite.login()
	pay := suite.create(models.Draft{Title: "Pay", Amount: 100, Type: models.Income, Category: "Salary", Date: "2024-06-01"})
	lunch := suite.create(models.Draft{Title: "Lunch", Amount: 40, Type: models.Expense, Category: "Food", Date: "2024-06-02"})

	w := suite.do(http.MethodGet, "/api/transactions", nil)
	require.Equal(suite.T(), http.StatusOK, w.Code)
	var list ListResponse
	suite.decode(w, &list)
	require.Len(suite.T(), list.Transactions, 2)
	assert.Equal(suite.T(), lunch.ID, list.Transactions[0].ID)

	w = suite.do(http.MethodGet, "/api/transactions?type=income", nil)
	suite.decode(w, &list)
	require.Len(suite.T(), list.Transactions, 1)
	assert.Equal(suite.T(), pay.ID, list.Transactions[0].ID)

	// filter is remembered
	w = suite.do(http.MethodGet, "/api/transactions", nil)
	list = ListResponse{}
	suite.decode(w, &list)
	assert.Len(suite.T(), list.Transactions, 1)
	assert.Equal(suite.T(), "income", string(list.Filter.Type))

	w = suite.do(http.MethodDelete, "/api/transactions/"+pay.ID, nil)
	require.Equal(suite.T(), http.StatusOK, w.Code, w.Body.String())
	var del DeleteResponse
	suite.decode(w, &del)
	assert.Equal(suite.T(), 1, del.Index)
	assert.NotNil(suite.T(), del.UndoExpiresAt)

	w = suite.do(http.MethodGet, "/api/transactions?type=all&q=", nil)
	list = ListResponse{}
	suite.decode(w, &list)
	assert.Len(suite.T(), list.Transactions, 1)
	require.NotNil(suite.T(), list.PendingUndo)
	assert.Equal(suite.T(), pay.ID, list.PendingUndo.Transaction.ID)

	w = suite.do(http.MethodPost, "/api/transactions/undo", nil)
	require.Equal(suite.T(), http.StatusOK, w.Code)
	var undone UndoResponse
	suite.decode(w, &undone)
	require.NotNil(suite.T(), undone.Restored)
	assert.Equal(suite.T(), pay.ID, undone.Restored.ID)

	w = suite.do(http.MethodPost, "/api/transactions/undo", nil)
	require.Equal(suite.T(), http.StatusOK, w.Code)
	assert.JSONEq(suite.T(), `{"restored":null}`, w.Body.String())

	w = suite.do(http.MethodGet, "/api/transactions", nil)
	list = ListResponse{}
	suite.decode(w, &list)
	require.Len(suite.T(), list.Transactions, 2)
	assert.Equal(suite.T(), pay.ID, list.Transactions[1].ID)
}

func (suite *HandlersTestSuite) TestCreateValidation() {
	suite.login()
	w := suite.do(http.MethodPost, "/api/transactions", models.Draft{Title: "X", Amount: 5, Type: models.Expense, Category: "Food", Date: "2024-02-30"})
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
	var body ErrorBody
	suite.decode(w, &body)
	assert.Equal(suite.T(), "date", body.Field)
}

func (suite *HandlersTestSuite) TestDeleteUnknown() {
	suite.login()
	w := suite.do(http.MethodDelete, "/api/transactions/missing", nil)
	assert.Equal(suite.T(), http.StatusNotFound, w.Code)
}

func (suite *HandlersTestSuite) TestDashboard() {
	suite.login()
	suite.create(models.Draft{Title: "Pay", Amount: 100, Type: models.Income, Category: "Salary", Date: "2024-06-01"})
	suite.create(models.Draft{Title: "Lunch", Amount: 40, Type: models.Expense, Category: "Food", Date: "2024-06-02"})

	w := suite.do(http.MethodGet, "/api/dashboard", nil)
	require.Equal(suite.T(), http.StatusOK, w.Code)

	var d struct {
		Totals struct {
			Income, Expense, Balance float64
		} `json:"totals"`
		SavingsRate int `json:"savingsRate"`
		Recent      []models.Transaction
	}
	suite.decode(w, &d)
	assert.Equal(suite.T(), 100.0, d.Totals.Income)
	assert.Equal(suite.T(), 40.0, d.Totals.Expense)
	assert.Equal(suite.T(), 60.0, d.Totals.Balance)
	assert.Equal(suite.T(), 60, d.SavingsRate)
	assert.Len(suite.T(), d.Recent, 2)
}

func (suite *HandlersTestSuite) TestStatistics() {
	suite.login()
	suite.create(models.Draft{Title: "Rent", Amount: 300, Type: models.Expense, Category: "Housing", Date: "2024-01-05"})
	suite.create(models.Draft{Title: "Lunch", Amount: 100, Type: models.Expense, Category: "Food", Date: "2024-01-06"})

	w := suite.do(http.MethodGet, "/api/statistics?year=2024&month=1", nil)
	require.Equal(suite.T(), http.StatusOK, w.Code, w.Body.String())
	var stats StatsResponse
	suite.decode(w, &stats)
	assert.Equal(suite.T(), 400.0, stats.Total)
	assert.Equal(suite.T(), "January", stats.MonthName)
	assert.Equal(suite.T(), 2023, stats.PrevYear)
	assert.Equal(suite.T(), 12, stats.PrevMonth)
	assert.Equal(suite.T(), 2, stats.NextMonth)
	require.Len(suite.T(), stats.Categories, 2)
	assert.Equal(suite.T(), 75.0, stats.Categories[0].Percentage)

	w = suite.do(http.MethodGet, "/api/statistics?type=transfer", nil)
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
}

func (suite *HandlersTestSuite) TestExport() {
	suite.login()
	suite.create(models.Draft{Title: "Lunch", Amount: 12.5, Type: models.Expense, Category: "Food", Date: "2024-06-02"})

	w := suite.do(http.MethodGet, "/api/transactions/export", nil)
	require.Equal(suite.T(), http.StatusOK, w.Code)
	assert.Contains(suite.T(), w.Header().Get("Content-Disposition"), ".xlsx")
	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(suite.T(), err)
	defer f.Close()
	rows, err := f.GetRows("Transactions")
	require.NoError(suite.T(), err)
	assert.Len(suite.T(), rows, 2)

	w = suite.do(http.MethodGet, "/api/transactions/export?format=csv", nil)
	require.Equal(suite.T(), http.StatusOK, w.Code)
	assert.Contains(suite.T(), w.Body.String(), "2024-06-02,Lunch,Expense,Food,-12.50")

	w = suite.do(http.MethodGet, "/api/transactions/export?format=pdf", nil)
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
}

func (suite *HandlersTestSuite) TestCategories() {
	w := suite.do(http.MethodGet, "/api/categories?type=income", nil)
	require.Equal(suite.T(), http.StatusOK, w.Code)
	var cats []models.CategoryDef
	suite.decode(w, &cats)
	assert.Len(suite.T(), cats, len(models.IncomeCategories))

	w = suite.do(http.MethodGet, "/api/categories?type=other", nil)
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
}

func (suite *HandlersTestSuite) TestTheme() {
	w := suite.do(http.MethodGet, "/api/theme", nil)
	require.Equal(suite.T(), http.StatusOK, w.Code)
	assert.JSONEq(suite.T(), `{"theme":"dark"}`, w.Body.String())

	w = suite.do(http.MethodPut, "/api/theme", themeBody{Theme: models.ThemeLight})
	require.Equal(suite.T(), http.StatusOK, w.Code)

	w = suite.do(http.MethodGet, "/api/theme", nil)
	assert.JSONEq(suite.T(), `{"theme":"light"}`, w.Body.String())

	w = suite.do(http.MethodPut, "/api/theme", themeBody{Theme: "neon"})
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
}

func (suite *HandlersTestSuite) TestMetricsEndpoint() {
	suite.login()
	w := suite.do(http.MethodGet, "/metrics", nil)
	require.Equal(suite.T(), http.StatusOK, w.Code)
	assert.Contains(suite.T(), w.Body.String(), "finance_users_registered_total 1")
	assert.Contains(suite.T(), w.Body.String(), `finance_login_attempts_total{result="success"} 1`)
}

func TestHandlersSuite(t *testing.T) {
	suite.Run(t, new(HandlersTestSuite))
}

func TestLoginRateLimit(t *testing.T) {
	app := tracker.New(storage.NewMemory(), tracker.Options{Verifier: auth.NewBcrypt(bcrypt.MinCost)})
	router := NewRouter(NewHandlers(app), RouterConfig{
		Logger:            slog.New(slog.NewJSONHandler(io.Discard, nil)),
		AuthRatePerMinute: 2,
	})

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader(`{"email":"a@b.co","password":"nope"}`))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusUnauthorized, http.StatusUnauthorized, http.StatusTooManyRequests}, codes)
}

func TestRecoveryMiddleware(t *testing.T) {
	h := RecoveryMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

type countingRecorder struct{ codes []int }

func (c *countingRecorder) RecordHTTPStatus(code int) { c.codes = append(c.codes, code) }

func TestLoggingMiddleware(t *testing.T) {
	var buf bytes.Buffer
	rec := &countingRecorder{}
	h := LoggingMiddleware(slog.New(slog.NewJSONHandler(&buf, nil)), rec)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/brew", nil))

	assert.Equal(t, []int{http.StatusTeapot}, rec.codes)
	assert.Contains(t, buf.String(), `"status":418`)
	assert.Contains(t, buf.String(), `"level":"WARN"`)
	assert.Contains(t, buf.String(), `"path":"/brew"`)
}

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.New("db down") }

func TestHealthUnavailable(t *testing.T) {
	w := httptest.NewRecorder()
	Health(failingPinger{}).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
