package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/presence-dashboard/internal/domain"
)

// collection manages the rows of a collection domain. Every change is an
// insert, update or delete followed by a full re-fetch into the cache.
type collection struct {
	log   *slog.Logger
	app   *App
	rows  rowStore
	dom   domain.Domain
	order domain.ListOptions

	// changed runs after the cache holds the re-fetched rows.
	changed func(ctx context.Context)
	now     func() time.Time
}

func newCollection(logger *slog.Logger, app *App, rows rowStore, d domain.Domain, order domain.ListOptions) *collection {
	return &collection{
		log:   logger.With("component", "collection", "domain", d.String()),
		app:   app,
		rows:  rows,
		dom:   d,
		order: order,
		now:   time.Now,
	}
}

// Refresh re-reads every row of the domain. A missing result is an empty list.
func (c *collection) Refresh(ctx context.Context) ([]domain.Record, error) {
	acc, err := c.app.Session.Current()
	if err != nil {
		return nil, fmt.Errorf("dashboard.Refresh %s: %w", c.dom, err)
	}

	list, err := c.rows.SelectMany(ctx, c.dom, acc.AccountID, c.order)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("dashboard.Refresh %s: %w", c.dom, err)
	}

	c.app.Cache.SetList(c.dom, list)
	if c.changed != nil {
		c.changed(ctx)
	}
	return c.app.Cache.List(c.dom), nil
}

// List returns the cached rows.
func (c *collection) List() []domain.Record {
	return c.app.Cache.List(c.dom)
}

func (c *collection) add(ctx context.Context, rec domain.Record, success string) (domain.Record, error) {
	acc, err := c.app.Session.Current()
	if err != nil {
		err = fmt.Errorf("dashboard.Add %s: %w", c.dom, err)
		reportError(ctx, c.log, c.app.Notes, uuid.Nil, c.dom, err)
		return nil, err
	}

	created, err := c.rows.Insert(ctx, c.dom, acc.AccountID, rec.Stamp(acc.AccountID, c.now()))
	if err != nil {
		err = fmt.Errorf("dashboard.Add %s: %w", c.dom, err)
		reportError(ctx, c.log, c.app.Notes, acc.AccountID, c.dom, err)
		return nil, err
	}

	if _, err := c.Refresh(ctx); err != nil {
		c.log.WarnContext(ctx, "refresh after insert", slog.String("error", err.Error()))
	}
	c.app.Notes.Show(success, domain.NotificationSuccess)
	return created, nil
}

func (c *collection) update(ctx context.Context, id uuid.UUID, rec domain.Record, success string) (domain.Record, error) {
	acc, err := c.app.Session.Current()
	if err != nil {
		err = fmt.Errorf("dashboard.Update %s: %w", c.dom, err)
		reportError(ctx, c.log, c.app.Notes, uuid.Nil, c.dom, err)
		return nil, err
	}

	saved, err := c.rows.Update(ctx, c.dom, acc.AccountID, id, rec.Stamp(acc.AccountID, c.now()))
	if err != nil {
		err = fmt.Errorf("dashboard.Update %s %s: %w", c.dom, id, err)
		if !errors.Is(err, domain.ErrNotFound) {
			reportError(ctx, c.log, c.app.Notes, acc.AccountID, c.dom, err)
		}
		return nil, err
	}

	if _, err := c.Refresh(ctx); err != nil {
		c.log.WarnContext(ctx, "refresh after update", slog.String("error", err.Error()))
	}
	c.app.Notes.Show(success, domain.NotificationSuccess)
	return saved, nil
}

func (c *collection) remove(ctx context.Context, id uuid.UUID, success string) error {
	acc, err := c.app.Session.Current()
	if err != nil {
		err = fmt.Errorf("dashboard.Remove %s: %w", c.dom, err)
		reportError(ctx, c.log, c.app.Notes, uuid.Nil, c.dom, err)
		return err
	}

	if err := c.rows.Delete(ctx, c.dom, acc.AccountID, id); err != nil {
		err = fmt.Errorf("dashboard.Remove %s %s: %w", c.dom, id, err)
		if !errors.Is(err, domain.ErrNotFound) {
			reportError(ctx, c.log, c.app.Notes, acc.AccountID, c.dom, err)
		}
		return err
	}

	if _, err := c.Refresh(ctx); err != nil {
		c.log.WarnContext(ctx, "refresh after delete", slog.String("error", err.Error()))
	}
	c.app.Notes.Show(success, domain.NotificationSuccess)
	return nil
}
