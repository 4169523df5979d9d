package dashboard

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/presence-dashboard/internal/domain"
	"github.com/heartmarshall/presence-dashboard/internal/notify"
	"github.com/heartmarshall/presence-dashboard/internal/page"
)

// editedDomains are the singleton domains with a field editor, and their codecs.
var editedDomains = []struct {
	dom   domain.Domain
	codec Codec
}{
	{domain.DomainBusinessInfo, Codec{}},
	{domain.DomainContactInfo, contactCodec},
	{domain.DomainBrandAssets, brandCodec},
	{domain.DomainWebsiteInfo, Codec{}},
	{domain.DomainGoogleBusiness, googleBusinessCodec},
	{domain.DomainReputation, reputationCodec},
}

// View is a rendered section or tab.
type View struct {
	Section string       `json:"section"`
	Source  Source       `json:"source"`
	Active  bool         `json:"active"`
	HTML    string       `json:"html"`
	Fields  []page.Field `json:"fields"`
}

// Overview summarizes the dashboard for the page header.
type Overview struct {
	AccountID    uuid.UUID       `json:"accountId"`
	Email        string          `json:"email"`
	DisplayName  string          `json:"displayName"`
	Completeness int             `json:"completeness"`
	Section      string          `json:"section"`
	Sections     []string        `json:"sections"`
	Editing      []domain.Domain `json:"editing"`
}

// CompletenessView is the profile completeness with the fields still missing.
type CompletenessView struct {
	Percent int                        `json:"percent"`
	Missing map[domain.Domain][]string `json:"missing"`
}

// Dashboard is the root controller of one signed-in page lifetime. It
// owns the session, the cache, the loaded sections and every editor.
type Dashboard struct {
	log  *slog.Logger
	deps Deps

	notes      *notify.Sink
	app        *App
	loader     *Loader
	binder     *Binder
	editors    map[domain.Domain]*Editor
	brand      *Brand
	reputation *Reputation
	social     *Social

	lastSeen  atomic.Int64
	closeOnce sync.Once
}

// New builds a dashboard and runs the entry sequence: session
// initialization, account bootstrap, bulk load and the default section.
// Only a missing session is fatal.
func New(ctx context.Context, logger *slog.Logger, deps Deps) (*Dashboard, error) {
	logger = logger.With("service", "dashboard")

	notes := notify.NewSink(logger, deps.Notify)
	app := &App{
		Cache: NewCache(),
		Modes: NewEditModes(),
		Notes: notes,
	}
	app.Session = NewSession(logger, deps.Auth, deps.Rows, deps.Tx, notes)

	d := &Dashboard{
		log:     logger,
		deps:    deps,
		notes:   notes,
		app:     app,
		binder:  NewBinder(app.Modes, app.Cache),
		editors: make(map[domain.Domain]*Editor, len(editedDomains)),
	}
	d.loader = NewLoader(logger, deps.Templates, d.modules())
	d.loader.OnReady(func(r Ready) { d.binder.Bind(r.Doc) })

	for _, e := range editedDomains {
		ed := NewEditor(logger, e.dom, e.codec, app, deps.Rows, d.loader)
		ed.afterSave = d.afterSave
		d.editors[e.dom] = ed
	}
	d.brand = NewBrand(logger, app, deps.Rows, deps.Blobs, deps.Storage, d.editors[domain.DomainBrandAssets])
	d.brand.afterSave = d.afterSave
	d.reputation = NewReputation(logger, app, deps.Rows, d.editors[domain.DomainReputation])
	d.reputation.afterSave = d.afterSave
	d.social = NewSocial(logger, app, deps.Rows)
	d.social.accounts.changed = func(ctx context.Context) { d.afterSave(ctx, domain.DomainSocialMedia) }
	d.reputation.citations.changed = func(ctx context.Context) { d.afterSave(ctx, domain.DomainCitations) }

	acc, err := app.Session.Initialize(ctx)
	if err != nil {
		notes.Close()
		return nil, fmt.Errorf("dashboard.New: %w", err)
	}

	failures := app.Cache.BulkLoad(ctx, deps.Rows, acc.AccountID, deps.Dashboard.ReviewsWindow)
	for _, f := range failures {
		logger.WarnContext(ctx, "initial load failed",
			slog.String("account_id", acc.AccountID.String()),
			slog.String("domain", f.Domain.String()),
			slog.String("class", domain.Classify(f.Err).String()),
			slog.String("error", f.Err.Error()),
		)
	}
	if len(failures) > 0 {
		notes.Show(msgLoadFailed, domain.NotificationInfo)
	}

	section := deps.Dashboard.DefaultSection
	if section == "" {
		section = SectionOverview
	}
	if _, err := d.loader.Show(ctx, section); err != nil {
		logger.WarnContext(ctx, "show default section",
			slog.String("section", section),
			slog.String("error", err.Error()),
		)
	}

	d.Touch(time.Now())
	logger.InfoContext(ctx, "dashboard ready",
		slog.String("account_id", acc.AccountID.String()),
		slog.Int("completeness", app.Cache.Completeness()),
	)
	return d, nil
}

// modules is the section registry. Every section repopulates the editors
// whose fields it renders; some add their own summary bindings.
func (d *Dashboard) modules() map[string]Module {
	return map[string]Module{
		SectionOverview: {
			Populate: d.populateOverview,
		},
		SectionBrandInfo: {
			Populate: d.populateEditors,
		},
		SectionSocialMedia: {
			Init: func(ctx context.Context, doc *page.Document) error { return d.social.Init(ctx, doc) },
			Populate: func(doc *page.Document) {
				d.populateEditors(doc)
				d.social.Populate(doc)
			},
		},
		SectionWebsite: {
			Populate: d.populateEditors,
		},
		SectionGoogleBusiness: {
			Populate: d.populateEditors,
		},
		SectionReputation: {
			Init: func(ctx context.Context, doc *page.Document) error { return d.reputation.Init(ctx, doc) },
			Populate: func(doc *page.Document) {
				d.populateEditors(doc)
				d.reputation.PopulateSummary(doc)
			},
		},
	}
}

func (d *Dashboard) populateEditors(doc *page.Document) {
	for _, e := range editedDomains {
		d.editors[e.dom].Populate(doc)
	}
}

func (d *Dashboard) populateOverview(doc *page.Document) {
	s := d.reputation.Summary()
	doc.SetText("", "completeness", strconv.Itoa(d.app.Cache.Completeness())+"%")
	doc.SetText("", "business_name", d.app.Cache.Get(domain.DomainBusinessInfo).String("business_name"))
	doc.SetText("", "average_rating", domain.FormatRating(s.AverageRating))
	doc.SetText("", "total_reviews", strconv.Itoa(s.TotalReviews))
	doc.SetText("", "social_accounts", strconv.Itoa(len(d.social.Accounts())))
}

// afterSave refreshes the summaries that depend on cached data: the
// overview when it is the visible section, and the reputation figures.
func (d *Dashboard) afterSave(ctx context.Context, changed domain.Domain) {
	if d.loader.Current() == SectionOverview {
		if doc, ok := d.loader.Document(SectionOverview); ok {
			d.populateOverview(doc)
		}
	}
	if doc, ok := d.loader.Document(SectionReputation); ok {
		d.reputation.PopulateSummary(doc)
	}
	if doc, ok := d.loader.Document(SectionSocialMedia); ok {
		d.social.Populate(doc)
	}
	d.log.DebugContext(ctx, "summaries refreshed",
		slog.String("domain", changed.String()),
		slog.Int("completeness", d.app.Cache.Completeness()),
	)
}

// Account returns the signed-in identity.
func (d *Dashboard) Account() (domain.Account, error) {
	return d.app.Session.Current()
}

// Summary describes the dashboard state for the page header.
func (d *Dashboard) Summary() (Overview, error) {
	acc, err := d.app.Session.Current()
	if err != nil {
		return Overview{}, fmt.Errorf("dashboard.Summary: %w", err)
	}

	var editing []domain.Domain
	for _, e := range editedDomains {
		if d.app.Modes.Enabled(e.dom) {
			editing = append(editing, e.dom)
		}
	}
	return Overview{
		AccountID:    acc.AccountID,
		Email:        acc.Email,
		DisplayName:  acc.DisplayName(),
		Completeness: d.app.Cache.Completeness(),
		Section:      d.loader.Current(),
		Sections:     Sections(),
		Editing:      editing,
	}, nil
}

// ShowSection makes section visible and returns its rendered view.
func (d *Dashboard) ShowSection(ctx context.Context, section string) (View, error) {
	doc, err := d.loader.Show(ctx, section)
	if err != nil {
		return View{}, fmt.Errorf("dashboard.ShowSection: %w", err)
	}
	return d.view(section, doc)
}

// LoadTab loads a nested tab of section and returns its rendered view.
func (d *Dashboard) LoadTab(ctx context.Context, section, tab string) (View, error) {
	doc, err := d.loader.LoadTab(ctx, section, tab)
	if err != nil {
		return View{}, fmt.Errorf("dashboard.LoadTab: %w", err)
	}
	return d.view(doc.Name(), doc)
}

func (d *Dashboard) view(name string, doc *page.Document) (View, error) {
	markup, err := doc.Render()
	if err != nil {
		return View{}, fmt.Errorf("render %s: %w", name, err)
	}
	return View{
		Section: name,
		Source:  d.loader.Source(name),
		Active:  doc.Active(),
		HTML:    markup,
		Fields:  doc.Fields(),
	}, nil
}

// Editor returns the field editor of a singleton domain.
func (d *Dashboard) Editor(dom domain.Domain) (*Editor, error) {
	if !dom.IsValid() {
		return nil, fmt.Errorf("domain %q: %w", dom, domain.ErrNotFound)
	}
	e, ok := d.editors[dom]
	if !ok {
		return nil, domain.NewValidationError(dom.String(), "is not edited field by field")
	}
	return e, nil
}

// ToggleEdit is the Edit button of a domain.
func (d *Dashboard) ToggleEdit(ctx context.Context, dom domain.Domain) (State, error) {
	e, err := d.Editor(dom)
	if err != nil {
		return "", fmt.Errorf("dashboard.ToggleEdit: %w", err)
	}
	return e.Toggle(ctx)
}

// Save persists a domain without leaving edit mode.
func (d *Dashboard) Save(ctx context.Context, dom domain.Domain) error {
	e, err := d.Editor(dom)
	if err != nil {
		return fmt.Errorf("dashboard.Save: %w", err)
	}
	return e.Save(ctx)
}

// ActivateField handles a click on a display field.
func (d *Dashboard) ActivateField(dom domain.Domain, field string) (bool, error) {
	return d.binder.Activate(dom, field)
}

// CommitField handles blur on a display field.
func (d *Dashboard) CommitField(dom domain.Domain, field, text string) (bool, error) {
	return d.binder.Commit(dom, field, text)
}

// KeyField handles a key press in a display field.
func (d *Dashboard) KeyField(dom domain.Domain, field, key string, shift bool, text string) (bool, error) {
	return d.binder.Key(dom, field, key, shift, text)
}

// SetFieldValue handles a change on a native form control.
func (d *Dashboard) SetFieldValue(dom domain.Domain, field, value string) (bool, error) {
	return d.binder.SetValue(dom, field, value)
}

// Notifications lists the visible notifications.
func (d *Dashboard) Notifications() []domain.Notification {
	return d.notes.List()
}

// Dismiss removes a notification before it expires.
func (d *Dashboard) Dismiss(id uuid.UUID) bool {
	return d.notes.Dismiss(id)
}

// Completeness reports the profile completeness and what is missing.
func (d *Dashboard) Completeness() CompletenessView {
	missing := make(map[domain.Domain][]string)
	for _, req := range completenessRegistry {
		if req.domain.IsCollection() {
			if len(d.app.Cache.List(req.domain)) == 0 {
				missing[req.domain] = []string{}
			}
			continue
		}
		if m := d.app.Cache.Missing(req.domain); len(m) > 0 {
			missing[req.domain] = m
		}
	}
	return CompletenessView{
		Percent: d.app.Cache.Completeness(),
		Missing: missing,
	}
}

// Brand returns the brand assets service.
func (d *Dashboard) Brand() *Brand { return d.brand }

// Reputation returns the reputation service.
func (d *Dashboard) Reputation() *Reputation { return d.reputation }

// Social returns the social media service.
func (d *Dashboard) Social() *Social { return d.social }

// SignOut revokes the session and closes the dashboard.
func (d *Dashboard) SignOut(ctx context.Context) error {
	if err := d.deps.Auth.SignOut(ctx); err != nil {
		return fmt.Errorf("dashboard.SignOut: %w", err)
	}
	d.Close()
	return nil
}

// Touch records activity at now.
func (d *Dashboard) Touch(now time.Time) {
	d.lastSeen.Store(now.UnixNano())
}

// LastSeen returns the time of the last recorded activity.
func (d *Dashboard) LastSeen() time.Time {
	return time.Unix(0, d.lastSeen.Load())
}

// Close stops pending notification timers and forgets the session.
func (d *Dashboard) Close() {
	d.closeOnce.Do(func() {
		d.notes.Close()
		d.app.Session.Clear()
	})
}
