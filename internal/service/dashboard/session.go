package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/heartmarshall/presence-dashboard/internal/domain"
)

// Session holds the authenticated identity of one dashboard.
type Session struct {
	log   *slog.Logger
	auth  authProvider
	rows  rowStore
	tx    txManager
	notes notifier

	mu      sync.RWMutex
	account *domain.Account
}

func NewSession(logger *slog.Logger, auth authProvider, rows rowStore, tx txManager, notes notifier) *Session {
	return &Session{
		log:   logger.With("component", "session"),
		auth:  auth,
		rows:  rows,
		tx:    tx,
		notes: notes,
	}
}

// Initialize resolves the current session and makes sure the account row
// exists upstream. It fails with domain.ErrNoSession when nobody is signed
// in. A failure to create the account row is reported and tolerated.
func (s *Session) Initialize(ctx context.Context) (domain.Account, error) {
	acc, err := s.auth.GetSession(ctx)
	if err != nil {
		return domain.Account{}, fmt.Errorf("dashboard.Initialize: %w", err)
	}

	created, err := s.ensureAccountRecord(ctx, &acc)
	switch {
	case err != nil:
		s.log.ErrorContext(ctx, "ensure account record",
			slog.String("account_id", acc.AccountID.String()),
			slog.String("error", err.Error()),
		)
		if errors.Is(err, domain.ErrRelationMissing) {
			s.notes.Show(msgLoadFailed, domain.NotificationInfo)
		} else {
			s.notes.Show(msgAccountFailed, domain.NotificationError)
		}
	case created:
		s.notes.Show(msgWelcome, domain.NotificationSuccess)
	}

	s.mu.Lock()
	s.account = &acc
	s.mu.Unlock()

	return acc, nil
}

// Current returns the identity stored by Initialize.
func (s *Session) Current() (domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.account == nil {
		return domain.Account{}, domain.ErrNotInitialized
	}
	return *s.account, nil
}

// Clear forgets the identity; Current fails afterwards.
func (s *Session) Clear() {
	s.mu.Lock()
	s.account = nil
	s.mu.Unlock()
}

// ensureAccountRecord creates the accounts row on first login. It always
// re-reads before inserting so repeated calls perform no writes, and a
// unique violation from a concurrent first login counts as success.
func (s *Session) ensureAccountRecord(ctx context.Context, acc *domain.Account) (created bool, err error) {
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		row, err := s.rows.SelectOne(ctx, domain.DomainAccounts, acc.AccountID)
		if err == nil {
			if id, ok := row.ID(); ok {
				acc.ClientID = id
			}
			return nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("select account: %w", err)
		}

		row, err = s.rows.Insert(ctx, domain.DomainAccounts, acc.AccountID, domain.Record{"email": acc.Email})
		if err != nil {
			return fmt.Errorf("insert account: %w", err)
		}
		if id, ok := row.ID(); ok {
			acc.ClientID = id
		}
		created = true
		return nil
	})
	if errors.Is(err, domain.ErrAlreadyExists) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if created {
		s.log.InfoContext(ctx, "account created", slog.String("account_id", acc.AccountID.String()))
	}
	return created, nil
}
