// Package tracker wires the directory, session, ledger and undo buffer into
// one application object. Callers go through App instead of touching the
// individual stores.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"finance-tracker/internal/aggregate"
	"finance-tracker/internal/auth"
	"finance-tracker/internal/directory"
	"finance-tracker/internal/ledger"
	"finance-tracker/internal/models"
	"finance-tracker/internal/session"
	"finance-tracker/internal/storage"
	"finance-tracker/internal/undo"
)

// Observer is told about ledger and account activity.
type Observer interface {
	UserRegistered()
	LoginAttempted(success bool)
	TransactionAdded(tx models.Transaction)
	TransactionDeleted(tx models.Transaction)
	UndoApplied(tx models.Transaction)
}

type nopObserver struct{}

func (nopObserver) UserRegistered() {}
func (nopObserver) LoginAttempted(bool) {}
func (nopObserver) TransactionAdded(models.Transaction) {}
func (nopObserver) TransactionDeleted(models.Transaction) {}
func (nopObserver) UndoApplied(models.Transaction) {}

// Options configures an App. Zero values pick defaults.
type Options struct {
	Verifier   auth.CredentialVerifier
	UndoWindow time.Duration
	Observer   Observer
	LedgerOpts []ledger.Option
}

// Workspace is the state that lives for one login: the user, the list
// filter and the undo buffer.
type Workspace struct {
	Session models.Session
	Filter  ledger.Filter
	Undo    *undo.Buffer
}

// App is the application state.
type App struct {
	mu       sync.Mutex
	store    storage.Store
	users    *directory.Directory
	sessions *session.Holder
	ledger   *ledger.Ledger
	observer Observer
	window   time.Duration
	ws       *Workspace
}

func New(store storage.Store, opts Options) *App {
	obs := opts.Observer
	if obs == nil {
		obs = nopObserver{}
	}
	return &App{
		store:    store,
		users:    directory.New(directory.NewBlobUserStore(store), opts.Verifier),
		sessions: session.NewHolder(store),
		ledger:   ledger.New(ledger.NewBlobRepository(store), opts.LedgerOpts...),
		observer: obs,
		window:   opts.UndoWindow,
	}
}

// Directory exposes the user directory for bootstrap tasks.
func (a *App) Directory() *directory.Directory {
	return a.users
}

// Register creates an account. It does not log the user in.
func (a *App) Register(ctx context.Context, name, email, password string) (*models.User, error) {
	user, err := a.users.Register(ctx, name, email, password)
	if err != nil {
		return nil, err
	}
	a.observer.UserRegistered()
	return user, nil
}

// Login authenticates and opens a fresh workspace, replacing any previous
// session.
func (a *App) Login(ctx context.Context, email, password string) (models.Session, error) {
	user, err := a.users.Authenticate(ctx, email, password)
	if err != nil {
		if errors.Is(err, models.ErrInvalidCredentials) {
			a.observer.LoginAttempted(false)
			slog.WarnContext(ctx, "login failed")
		}
		return models.Session{}, err
	}

	sess, err := a.sessions.Login(ctx, user)
	if err != nil {
		return models.Session{}, err
	}
	a.observer.LoginAttempted(true)

	a.mu.Lock()
	a.openLocked(sess)
	a.mu.Unlock()

	slog.InfoContext(ctx, "user logged in", slog.String("user_id", sess.ID))
	return sess, nil
}

// Logout clears the session and drops any pending undo.
func (a *App) Logout(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.sessions.Logout(ctx); err != nil {
		return err
	}
	if a.ws != nil {
		a.ws.Undo.Discard()
		slog.InfoContext(ctx, "user logged out", slog.String("user_id", a.ws.Session.ID))
		a.ws = nil
	}
	return nil
}

// Current returns the active session or nil.
func (a *App) Current(ctx context.Context) (*models.Session, error) {
	ws, err := a.workspace(ctx)
	if errors.Is(err, models.ErrNoSession) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	sess := ws.Session
	return &sess, nil
}

// AddTransaction validates and stores a transaction for the current user.
func (a *App) AddTransaction(ctx context.Context, d models.Draft) (*models.Transaction, error) {
	ws, err := a.workspace(ctx)
	if err != nil {
		return nil, err
	}
	tx, err := a.ledger.Add(ctx, ws.Session.ID, d)
	if err != nil {
		return nil, err
	}
	a.observer.TransactionAdded(*tx)
	return tx, nil
}

// DeleteTransaction removes a transaction and makes it undoable.
func (a *App) DeleteTransaction(ctx context.Context, id string) (ledger.Removal, error) {
	ws, err := a.workspace(ctx)
	if err != nil {
		return ledger.Removal{}, err
	}
	rm, err := a.ledger.RemoveByID(ctx, ws.Session.ID, id)
	if err != nil {
		return ledger.Removal{}, err
	}
	ws.Undo.Push(ws.Session.ID, rm)
	a.observer.TransactionDeleted(rm.Transaction)
	return rm, nil
}

// Undo restores the most recent deletion. It returns nil when there is
// nothing to undo.
func (a *App) Undo(ctx context.Context) (*models.Transaction, error) {
	ws, err := a.workspace(ctx)
	if err != nil {
		return nil, err
	}
	tx, err := ws.Undo.Undo(ctx)
	if err != nil {
		return nil, fmt.Errorf("undo: %w", err)
	}
	if tx != nil {
		a.observer.UndoApplied(*tx)
	}
	return tx, nil
}

// PendingUndo reports the deletion that can still be undone.
func (a *App) PendingUndo(ctx context.Context) (undo.Pending, bool, error) {
	ws, err := a.workspace(ctx)
	if err != nil {
		return undo.Pending{}, false, err
	}
	p, ok := ws.Undo.Pending()
	return p, ok, nil
}

// SetFilter remembers the list filter for the current workspace.
func (a *App) SetFilter(ctx context.Context, f ledger.Filter) error {
	if _, err := a.workspace(ctx); err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.ws == nil {
		return models.ErrNoSession
	}
	a.ws.Filter = f
	return nil
}

// Transactions returns the current user's transactions under the
// remembered filter, along with that filter.
func (a *App) Transactions(ctx context.Context) ([]models.Transaction, ledger.Filter, error) {
	ws, err := a.workspace(ctx)
	if err != nil {
		return nil, ledger.Filter{}, err
	}
	txs, err := a.ledger.Filter(ctx, ws.Session.ID, ws.Filter)
	if err != nil {
		return nil, ledger.Filter{}, err
	}
	return txs, ws.Filter, nil
}

// AllTransactions returns the unfiltered ledger of the current user.
func (a *App) AllTransactions(ctx context.Context) ([]models.Transaction, error) {
	ws, err := a.workspace(ctx)
	if err != nil {
		return nil, err
	}
	return a.ledger.List(ctx, ws.Session.ID)
}

// Dashboard summarizes the whole ledger of the current user.
func (a *App) Dashboard(ctx context.Context) (aggregate.Dashboard, error) {
	txs, err := a.AllTransactions(ctx)
	if err != nil {
		return aggregate.Dashboard{}, err
	}
	return aggregate.Summarize(txs), nil
}

// Breakdown groups the current user's transactions of one type by category.
func (a *App) Breakdown(ctx context.Context, t models.TransactionType) ([]aggregate.CategoryShare, error) {
	if !t.Valid() {
		return nil, models.NewValidationError("type", "type must be income or expense")
	}
	txs, err := a.AllTransactions(ctx)
	if err != nil {
		return nil, err
	}
	return aggregate.Breakdown(txs, t), nil
}

// MonthStatistics is the category breakdown of one type in one month.
type MonthStatistics struct {
	Year         int                       `json:"year"`
	Month        time.Month                `json:"month"`
	Type         models.TransactionType    `json:"type"`
	Total        float64                   `json:"total"`
	Categories   []aggregate.CategoryShare `json:"categories"`
	Transactions []models.Transaction      `json:"transactions"`
}

// Statistics breaks down one month of the current user's transactions of
// type t.
func (a *App) Statistics(ctx context.Context, t models.TransactionType, year int, month time.Month) (MonthStatistics, error) {
	if !t.Valid() {
		return MonthStatistics{}, models.NewValidationError("type", "type must be income or expense")
	}
	if month < time.January || month > time.December {
		return MonthStatistics{}, models.NewValidationError("month", "month must be between 1 and 12")
	}
	txs, err := a.AllTransactions(ctx)
	if err != nil {
		return MonthStatistics{}, err
	}

	monthTxs := ledger.Apply(aggregate.InMonth(txs, year, month), ledger.Filter{Type: ledger.TypeFilter(t)})
	totals := aggregate.ComputeTotals(monthTxs)
	total := totals.Income
	if t == models.Expense {
		total = totals.Expense
	}
	return MonthStatistics{
		Year:         year,
		Month:        month,
		Type:         t,
		Total:        total,
		Categories:   aggregate.Breakdown(monthTxs, t),
		Transactions: monthTxs,
	}, nil
}

// Theme returns the stored theme, or the default.
func (a *App) Theme(ctx context.Context) (models.Theme, error) {
	var theme models.Theme
	found, err := storage.GetJSON(ctx, a.store, storage.KeyTheme, &theme)
	if err != nil {
		return "", fmt.Errorf("load theme: %w", err)
	}
	if !found || !theme.Valid() {
		return models.DefaultTheme, nil
	}
	return theme, nil
}

// SetTheme stores the theme preference.
func (a *App) SetTheme(ctx context.Context, theme models.Theme) error {
	if !theme.Valid() {
		return models.NewValidationError("theme", "theme must be dark or light")
	}
	if err := storage.SetJSON(ctx, a.store, storage.KeyTheme, theme); err != nil {
		return fmt.Errorf("save theme: %w", err)
	}
	return nil
}

// workspace returns a snapshot of the open workspace, reopening it from the persisted
// session after a restart.
func (a *App) workspace(ctx context.Context) (Workspace, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.ws != nil {
		return *a.ws, nil
	}
	sess, err := a.sessions.Current(ctx)
	if err != nil {
		return Workspace{}, err
	}
	if sess == nil {
		return Workspace{}, models.ErrNoSession
	}
	a.openLocked(*sess)
	return *a.ws, nil
}

func (a *App) openLocked(sess models.Session) {
	if a.ws != nil {
		a.ws.Undo.Discard()
	}
	a.ws = &Workspace{
		Session: sess,
		Filter:  ledger.Filter{Type: ledger.All},
		Undo:    undo.NewBuffer(a.ledger, a.window),
	}
}
