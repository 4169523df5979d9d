package dashboard

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/presence-dashboard/internal/domain"
)

func newTestDashboard(t *testing.T) (*Dashboard, *rowStoreMock, *memStore) {
	t.Helper()
	rows, store := newMemRows()
	d, err := New(context.Background(), testLogger(), testDeps(rows, memBlobs()))
	require.NoError(t, err)
	t.Cleanup(d.Close)
	return d, rows, store
}

func TestNew_EntrySequence(t *testing.T) {
	t.Parallel()

	rows, store := newMemRows()
	store.put(domain.DomainBusinessInfo, domain.Record{"business_name": "Acme"})

	d, err := New(context.Background(), testLogger(), testDeps(rows, memBlobs()))
	require.NoError(t, err)
	defer d.Close()

	sum, err := d.Summary()
	require.NoError(t, err)
	assert.Equal(t, testAccount.AccountID, sum.AccountID)
	assert.Equal(t, "owner", sum.DisplayName)
	assert.Equal(t, SectionOverview, sum.Section)
	assert.Equal(t, 5, sum.Completeness)
	assert.Empty(t, sum.Editing)

	notes := d.Notifications()
	require.Len(t, notes, 1)
	assert.Equal(t, msgWelcome, notes[0].Message)

	doc, ok := d.loader.Document(SectionOverview)
	require.True(t, ok)
	text, _ := doc.Text("", "completeness")
	assert.Equal(t, "5%", text)
	text, _ = doc.Text("", "business_name")
	assert.Equal(t, "Acme", text)
	text, _ = doc.Text("", "average_rating")
	assert.Equal(t, domain.RatingPlaceholder, text)
}

func TestNew_NoSession(t *testing.T) {
	t.Parallel()

	rows, _ := newMemRows()
	deps := testDeps(rows, memBlobs())
	deps.Auth = &authProviderMock{
		GetSessionFunc: func(context.Context) (domain.Account, error) { return domain.Account{}, domain.ErrNoSession },
	}

	_, err := New(context.Background(), testLogger(), deps)

	require.ErrorIs(t, err, domain.ErrNoSession)
	assert.Empty(t, rows.SelectManyCalls())
}

func TestNew_BulkLoadFailuresAreNotFatal(t *testing.T) {
	t.Parallel()

	rows, _ := newMemRows()
	rows.SelectManyFunc = func(context.Context, domain.Domain, uuid.UUID, domain.ListOptions) ([]domain.Record, error) {
		return nil, &domain.GatewayError{Code: domain.CodeRelationMissing, Message: "relation does not exist"}
	}

	d, err := New(context.Background(), testLogger(), testDeps(rows, memBlobs()))
	require.NoError(t, err)
	defer d.Close()

	var infos int
	for _, n := range d.Notifications() {
		if n.Kind == domain.NotificationInfo {
			infos++
			assert.Equal(t, msgLoadFailed, n.Message)
		}
	}
	assert.Equal(t, 1, infos)
}

func TestDashboard_SaveAfterSectionHidden(t *testing.T) {
	t.Parallel()

	d, _, store := newTestDashboard(t)
	ctx := context.Background()

	view, err := d.ShowSection(ctx, SectionBrandInfo)
	require.NoError(t, err)
	assert.Equal(t, SourcePlaceholder, view.Source)
	assert.True(t, view.Active)

	state, err := d.ToggleEdit(ctx, domain.DomainBusinessInfo)
	require.NoError(t, err)
	require.Equal(t, StateEditing, state)

	ok, err := d.ActivateField(domain.DomainBusinessInfo, "business_name")
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = d.CommitField(domain.DomainBusinessInfo, "business_name", "Acme Bakery")
	require.NoError(t, err)
	require.True(t, ok)

	_, err = d.ShowSection(ctx, SectionOverview)
	require.NoError(t, err)

	state, err = d.ToggleEdit(ctx, domain.DomainBusinessInfo)
	require.NoError(t, err)
	assert.Equal(t, StateViewing, state)

	assert.Equal(t, "Acme Bakery", store.get(domain.DomainBusinessInfo)["business_name"])
	overview, ok := d.loader.Document(SectionOverview)
	require.True(t, ok)
	text, _ := overview.Text("", "business_name")
	assert.Equal(t, "Acme Bakery", text)
	assert.Equal(t, 5, d.Completeness().Percent)
}

func TestDashboard_ActivateWithoutEditMode(t *testing.T) {
	t.Parallel()

	d, _, _ := newTestDashboard(t)
	_, err := d.ShowSection(context.Background(), SectionWebsite)
	require.NoError(t, err)

	ok, err := d.ActivateField(domain.DomainWebsiteInfo, "primary_domain")

	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDashboard_Editor_Lookup(t *testing.T) {
	t.Parallel()

	d, _, _ := newTestDashboard(t)

	_, err := d.ToggleEdit(context.Background(), domain.DomainSocialMedia)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = d.ToggleEdit(context.Background(), domain.Domain("payroll"))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDashboard_SocialChangeRefreshesOverview(t *testing.T) {
	t.Parallel()

	d, _, _ := newTestDashboard(t)

	_, err := d.Social().Add(context.Background(), SocialAccountInput{Platform: "facebook", Username: "acme"})
	require.NoError(t, err)

	doc, ok := d.loader.Document(SectionOverview)
	require.True(t, ok)
	text, _ := doc.Text("", "social_accounts")
	assert.Equal(t, "1", text)
	text, _ = doc.Text("", "completeness")
	assert.Equal(t, "5%", text)
}

func TestDashboard_Completeness_Missing(t *testing.T) {
	t.Parallel()

	d, _, _ := newTestDashboard(t)

	view := d.Completeness()

	assert.Equal(t, 0, view.Percent)
	assert.Equal(t, []string{"primary_domain", "platform", "analytics_id"}, view.Missing[domain.DomainWebsiteInfo])
	assert.Contains(t, view.Missing, domain.DomainSocialMedia)
}

func TestDashboard_Notifications_Dismiss(t *testing.T) {
	t.Parallel()

	d, _, _ := newTestDashboard(t)
	notes := d.Notifications()
	require.NotEmpty(t, notes)

	assert.True(t, d.Dismiss(notes[0].ID))
	assert.False(t, d.Dismiss(notes[0].ID))
}

func TestDashboard_SignOut(t *testing.T) {
	t.Parallel()

	rows, _ := newMemRows()
	deps := testDeps(rows, memBlobs())
	auth := deps.Auth.(*authProviderMock)
	d, err := New(context.Background(), testLogger(), deps)
	require.NoError(t, err)

	require.NoError(t, d.SignOut(context.Background()))

	assert.Len(t, auth.SignOutCalls(), 1)
	_, err = d.Account()
	assert.ErrorIs(t, err, domain.ErrNotInitialized)
}

func TestDashboard_LoadTab(t *testing.T) {
	t.Parallel()

	d, _, _ := newTestDashboard(t)

	view, err := d.LoadTab(context.Background(), SectionReputation, "citations")

	require.NoError(t, err)
	assert.Equal(t, "reputation/citations", view.Section)
	assert.Equal(t, SourceGeneric, view.Source)
	assert.Contains(t, view.HTML, "Citations")
}

func TestRegistry_OneDashboardPerToken(t *testing.T) {
	t.Parallel()

	rows, _ := newMemRows()
	deps := testDeps(rows, memBlobs())
	auth := deps.Auth.(*authProviderMock)
	r := NewRegistry(testLogger(), deps)
	defer r.Close()

	var wg sync.WaitGroup
	got := make([]*Dashboard, 8)
	for i := range got {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d, err := r.Get(context.Background(), "token-a")
			assert.NoError(t, err)
			got[i] = d
		}()
	}
	wg.Wait()

	for _, d := range got {
		assert.Same(t, got[0], d)
	}
	assert.Len(t, auth.GetSessionCalls(), 1)
	assert.Equal(t, 1, r.Len())

	_, err := r.Get(context.Background(), "token-b")
	require.NoError(t, err)
	assert.Equal(t, 2, r.Len())

	r.Drop("token-a")
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_FailedBuildIsRetried(t *testing.T) {
	t.Parallel()

	r := &Registry{log: testLogger(), slots: make(map[string]*slot)}
	var builds int
	r.build = func(context.Context) (*Dashboard, error) {
		builds++
		return nil, errors.New("no session")
	}

	_, err := r.Get(context.Background(), "t")
	require.Error(t, err)
	_, err = r.Get(context.Background(), "t")
	require.Error(t, err)

	assert.Equal(t, 2, builds)
	assert.Equal(t, 0, r.Len())
}

func TestRegistry_EvictIdle(t *testing.T) {
	t.Parallel()

	rows, _ := newMemRows()
	r := NewRegistry(testLogger(), testDeps(rows, memBlobs()))
	defer r.Close()

	d, err := r.Get(context.Background(), "token")
	require.NoError(t, err)

	assert.Equal(t, 0, r.EvictIdle(time.Now()))
	assert.Equal(t, 1, r.EvictIdle(time.Now().Add(2*time.Minute)))
	assert.Equal(t, 0, r.Len())

	_, err = d.Account()
	assert.ErrorIs(t, err, domain.ErrNotInitialized)
}
