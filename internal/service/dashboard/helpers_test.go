package dashboard

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/presence-dashboard/internal/config"
	"github.com/heartmarshall/presence-dashboard/internal/domain"
	"github.com/heartmarshall/presence-dashboard/internal/page"
)

var testAccount = domain.Account{
	AccountID: uuid.MustParse("0f8fad5b-d9cb-469f-a165-70867728950e"),
	Email:     "owner@acme.test",
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// recordingNotes collects shown notifications.
type recordingNotes struct {
	mu    sync.Mutex
	shown []domain.Notification
}

func (n *recordingNotes) Show(message string, kind domain.NotificationKind) domain.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	note := domain.Notification{ID: uuid.New(), Message: message, Kind: kind, CreatedAt: time.Now()}
	n.shown = append(n.shown, note)
	return note
}

func (n *recordingNotes) All() []domain.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]domain.Notification(nil), n.shown...)
}

func (n *recordingNotes) Kinds() []domain.NotificationKind {
	var out []domain.NotificationKind
	for _, note := range n.All() {
		out = append(out, note.Kind)
	}
	return out
}

// memStore backs a rowStoreMock with account-scoped tables. Singleton
// upserts merge into the existing row like the postgres store does.
type memStore struct {
	mu         sync.Mutex
	singletons map[domain.Domain]map[uuid.UUID]domain.Record
	lists      map[domain.Domain][]domain.Record
}

func newMemRows() (*rowStoreMock, *memStore) {
	s := &memStore{
		singletons: make(map[domain.Domain]map[uuid.UUID]domain.Record),
		lists:      make(map[domain.Domain][]domain.Record),
	}
	mock := &rowStoreMock{
		SelectOneFunc: func(_ context.Context, d domain.Domain, accountID uuid.UUID) (domain.Record, error) {
			s.mu.Lock()
			defer s.mu.Unlock()
			rec, ok := s.singletons[d][accountID]
			if !ok {
				return nil, domain.ErrNotFound
			}
			return rec.Clone(), nil
		},
		SelectManyFunc: func(_ context.Context, d domain.Domain, accountID uuid.UUID, _ domain.ListOptions) ([]domain.Record, error) {
			s.mu.Lock()
			defer s.mu.Unlock()
			var out []domain.Record
			for _, r := range s.lists[d] {
				if r.String(domain.FieldAccountID) == accountID.String() {
					out = append(out, r.Clone())
				}
			}
			return out, nil
		},
		UpsertFunc: func(_ context.Context, d domain.Domain, accountID uuid.UUID, rec domain.Record) (domain.Record, error) {
			s.mu.Lock()
			defer s.mu.Unlock()
			if s.singletons[d] == nil {
				s.singletons[d] = make(map[uuid.UUID]domain.Record)
			}
			prev, ok := s.singletons[d][accountID]
			if !ok {
				prev = domain.Record{domain.FieldID: uuid.NewString()}
			}
			merged := prev.Merge(rec)
			s.singletons[d][accountID] = merged
			return merged.Clone(), nil
		},
		InsertFunc: func(_ context.Context, d domain.Domain, accountID uuid.UUID, rec domain.Record) (domain.Record, error) {
			s.mu.Lock()
			defer s.mu.Unlock()
			row := rec.Clone()
			row[domain.FieldID] = uuid.NewString()
			row[domain.FieldAccountID] = accountID.String()
			if d.IsCollection() {
				s.lists[d] = append(s.lists[d], row)
				return row.Clone(), nil
			}
			if s.singletons[d] == nil {
				s.singletons[d] = make(map[uuid.UUID]domain.Record)
			}
			if _, exists := s.singletons[d][accountID]; exists {
				return nil, domain.ErrAlreadyExists
			}
			s.singletons[d][accountID] = row
			return row.Clone(), nil
		},
		UpdateFunc: func(_ context.Context, d domain.Domain, accountID, id uuid.UUID, rec domain.Record) (domain.Record, error) {
			s.mu.Lock()
			defer s.mu.Unlock()
			for i, r := range s.lists[d] {
				if r.String(domain.FieldID) == id.String() && r.String(domain.FieldAccountID) == accountID.String() {
					s.lists[d][i] = r.Merge(rec)
					return s.lists[d][i].Clone(), nil
				}
			}
			return nil, domain.ErrNotFound
		},
		DeleteFunc: func(_ context.Context, d domain.Domain, accountID, id uuid.UUID) error {
			s.mu.Lock()
			defer s.mu.Unlock()
			list := s.lists[d]
			for i, r := range list {
				if r.String(domain.FieldID) == id.String() && r.String(domain.FieldAccountID) == accountID.String() {
					s.lists[d] = append(list[:i:i], list[i+1:]...)
					return nil
				}
			}
			return domain.ErrNotFound
		},
	}
	return mock, s
}

func (s *memStore) get(d domain.Domain) domain.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.singletons[d][testAccount.AccountID].Clone()
}

func (s *memStore) put(d domain.Domain, rec domain.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.singletons[d] == nil {
		s.singletons[d] = make(map[uuid.UUID]domain.Record)
	}
	s.singletons[d][testAccount.AccountID] = rec.Clone()
}

func passthroughTx() *txManagerMock {
	return &txManagerMock{
		RunInTxFunc: func(ctx context.Context, fn func(ctx context.Context) error) error {
			return fn(ctx)
		},
	}
}

func signedIn() *authProviderMock {
	return &authProviderMock{
		GetSessionFunc: func(context.Context) (domain.Account, error) { return testAccount, nil },
		SignOutFunc:    func(context.Context) error { return nil },
	}
}

// newTestApp returns an app whose session is initialized for testAccount.
func newTestApp(t *testing.T, rows rowStore) (*App, *recordingNotes) {
	t.Helper()

	notes := &recordingNotes{}
	app := &App{
		Cache: NewCache(),
		Modes: NewEditModes(),
		Notes: notes,
	}
	app.Session = NewSession(testLogger(), signedIn(), rows, passthroughTx(), notes)
	_, err := app.Session.Initialize(context.Background())
	require.NoError(t, err)

	notes.mu.Lock()
	notes.shown = nil
	notes.mu.Unlock()
	return app, notes
}

// docList is a fixed documentSource.
type docList []*page.Document

func (l docList) Documents() []*page.Document { return l }

func mustParse(t *testing.T, name, markup string) *page.Document {
	t.Helper()
	doc, err := page.Parse(name, markup)
	require.NoError(t, err)
	return doc
}

func notFoundTemplates() *templateSourceMock {
	return &templateSourceMock{
		FetchFunc: func(context.Context, string) (string, error) { return "", domain.ErrNotFound },
	}
}

func testDeps(rows rowStore, blobs blobStore) Deps {
	return Deps{
		Auth:      signedIn(),
		Rows:      rows,
		Tx:        passthroughTx(),
		Blobs:     blobs,
		Templates: notFoundTemplates(),
		Storage: config.StorageConfig{
			PublicBaseURL:     "http://files.test/storage",
			LogoBucket:        "brand-logos",
			CertificateBucket: "certificates",
			MaxLogoBytes:      5 << 20,
			MaxCertBytes:      10 << 20,
			CacheControl:      3600,
		},
		Dashboard: config.DashboardConfig{
			ReviewsWindow:  10,
			DefaultSection: SectionOverview,
			IdleTimeout:    time.Minute,
		},
		Notify: config.NotifyConfig{ShortTTL: time.Hour, LongTTL: time.Hour},
	}
}
