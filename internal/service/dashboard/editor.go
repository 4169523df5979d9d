package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/presence-dashboard/internal/domain"
	"github.com/heartmarshall/presence-dashboard/internal/page"
)

// State of a section editor.
type State string

const (
	StateViewing State = "viewing"
	StateEditing State = "editing"
)

// App is the per-dashboard context handed to every editor.
type App struct {
	Session *Session
	Cache   *Cache
	Modes   *EditModes
	Notes   notifier
}

type documentSource interface {
	Documents() []*page.Document
}

// Editor runs the Viewing/Editing cycle of one singleton domain: collect
// the domain's fields, persist them with one upsert, reconcile on success.
type Editor struct {
	log   *slog.Logger
	dom   domain.Domain
	codec Codec
	app   *App
	rows  rowStore
	docs  documentSource

	// afterSave runs after the cache has been updated by a successful save.
	afterSave func(ctx context.Context, d domain.Domain)
	now       func() time.Time

	mu     sync.Mutex
	state  State
	saving atomic.Bool
}

func NewEditor(logger *slog.Logger, d domain.Domain, codec Codec, app *App, rows rowStore, docs documentSource) *Editor {
	return &Editor{
		log:   logger.With("component", "editor", "domain", d.String()),
		dom:   d,
		codec: codec,
		app:   app,
		rows:  rows,
		docs:  docs,
		now:   time.Now,
		state: StateViewing,
	}
}

// Domain returns the edited domain.
func (e *Editor) Domain() domain.Domain { return e.dom }

// State returns the current state.
func (e *Editor) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Toggle is the Edit button: it enters Editing, or leaves it and saves.
func (e *Editor) Toggle(ctx context.Context) (State, error) {
	if e.State() == StateViewing {
		e.Begin()
		return StateEditing, nil
	}
	err := e.End(ctx)
	return e.State(), err
}

// Begin enters Editing: fields of the domain accept edits and native
// controls are enabled.
func (e *Editor) Begin() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == StateEditing {
		return
	}
	e.enter()
	e.app.Notes.Show(msgEditHint, domain.NotificationInfo)
}

// End leaves Editing and saves. A failed save returns to Editing, except
// when the backend table is missing: that is a warning and the domain
// stays in Viewing.
func (e *Editor) End(ctx context.Context) error {
	e.mu.Lock()
	if e.state != StateEditing {
		e.mu.Unlock()
		return nil
	}
	if e.saving.Load() {
		e.mu.Unlock()
		return fmt.Errorf("dashboard.End %s: %w", e.dom, domain.ErrSaveInProgress)
	}
	e.leave()
	e.mu.Unlock()

	err := e.Save(ctx)
	if err == nil || errors.Is(err, domain.ErrRelationMissing) {
		return err
	}

	e.mu.Lock()
	if e.state == StateViewing {
		e.enter()
	}
	e.mu.Unlock()
	return err
}

// Save persists the domain's collected fields with one upsert keyed by
// the account. Overlapping saves are rejected. On failure the cache is
// left untouched and exactly one notification is shown.
func (e *Editor) Save(ctx context.Context) error {
	if !e.saving.CompareAndSwap(false, true) {
		err := fmt.Errorf("dashboard.Save %s: %w", e.dom, domain.ErrSaveInProgress)
		e.report(ctx, uuid.Nil, err)
		return err
	}
	defer e.saving.Store(false)

	acc, err := e.app.Session.Current()
	if err != nil {
		err = fmt.Errorf("dashboard.Save %s: %w", e.dom, err)
		e.report(ctx, uuid.Nil, err)
		return err
	}

	prev := e.app.Cache.Get(e.dom)
	payload, err := e.codec.encode(e.collect(prev), prev)
	if err != nil {
		err = fmt.Errorf("dashboard.Save %s: %w", e.dom, err)
		e.report(ctx, acc.AccountID, err)
		return err
	}
	payload = payload.Stamp(acc.AccountID, e.now()).WithoutEmpty()

	saved, err := e.rows.Upsert(ctx, e.dom, acc.AccountID, payload)
	if err != nil {
		err = fmt.Errorf("dashboard.Save %s: %w", e.dom, err)
		e.report(ctx, acc.AccountID, err)
		return err
	}
	if saved == nil {
		saved = payload
	}

	e.app.Cache.Set(e.dom, saved)
	e.reconcile()
	if e.afterSave != nil {
		e.afterSave(ctx, e.dom)
	}

	e.log.InfoContext(ctx, "domain saved",
		slog.String("account_id", acc.AccountID.String()),
		slog.Int("fields", len(payload)),
	)
	e.app.Notes.Show(e.dom.Label()+" saved successfully!", domain.NotificationSuccess)
	return nil
}

// Populate writes the cached record into doc. Fields being edited keep
// their text. It is safe to call any number of times.
func (e *Editor) Populate(doc *page.Document) {
	fields := doc.FieldsOf(e.dom)
	if len(fields) == 0 {
		return
	}

	texts := e.codec.display(e.app.Cache.Get(e.dom))
	for _, f := range fields {
		if doc.IsEditable(e.dom, f.Name) {
			continue
		}
		doc.SetText(e.dom, f.Name, texts[f.Name])
	}

	on := e.app.Modes.Enabled(e.dom)
	doc.SetDisabled(e.dom, !on)
	doc.SetControlsVisible(e.dom, on)
}

// collect overlays the current text of every rendered field on the
// cached record. Managed fields always come from the cache.
func (e *Editor) collect(prev domain.Record) domain.Record {
	payload := prev.WithoutReserved()
	for _, doc := range e.docs.Documents() {
		for _, f := range doc.FieldsOf(e.dom) {
			if isManaged(e.dom, f.Name) {
				continue
			}
			if text, ok := doc.Text(e.dom, f.Name); ok {
				payload[f.Name] = strings.TrimSpace(text)
			}
		}
	}
	return payload
}

// reconcile repopulates every loaded document that binds the domain.
// Documents that have been replaced or hidden in the meantime are simply
// the current ones; nothing requires the editing section to be visible.
func (e *Editor) reconcile() {
	for _, doc := range e.docs.Documents() {
		e.Populate(doc)
	}
}

// enter and leave must be called with mu held.
func (e *Editor) enter() {
	e.state = StateEditing
	e.app.Modes.Set(e.dom, true)
	for _, doc := range e.docs.Documents() {
		doc.SetDisabled(e.dom, false)
		doc.SetControlsVisible(e.dom, true)
	}
}

func (e *Editor) leave() {
	e.state = StateViewing
	e.app.Modes.Set(e.dom, false)
	for _, doc := range e.docs.Documents() {
		doc.SetDisabled(e.dom, true)
		doc.SetControlsVisible(e.dom, false)
		for _, f := range doc.FieldsOf(e.dom) {
			doc.SetEditable(e.dom, f.Name, false)
		}
	}
}

func (e *Editor) report(ctx context.Context, accountID uuid.UUID, err error) {
	reportError(ctx, e.log, e.app.Notes, accountID, e.dom, err)
}

// reportError logs a failed operation and shows its single notification.
func reportError(ctx context.Context, log *slog.Logger, notes notifier, accountID uuid.UUID, d domain.Domain, err error) {
	msg, kind := notificationFor(err)
	notes.Show(msg, kind)

	attrs := []any{
		slog.String("domain", d.String()),
		slog.String("class", domain.Classify(err).String()),
		slog.String("error", err.Error()),
	}
	if accountID != uuid.Nil {
		attrs = append(attrs, slog.String("account_id", accountID.String()))
	}
	var gwErr *domain.GatewayError
	if errors.As(err, &gwErr) {
		attrs = append(attrs, slog.String("code", gwErr.Code))
	}

	switch domain.Classify(err) {
	case domain.ClassRelationMissing, domain.ClassValidation, domain.ClassSaveInProgress:
		log.WarnContext(ctx, "operation rejected", attrs...)
	default:
		log.ErrorContext(ctx, "operation failed", attrs...)
	}
}
