package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/presence-dashboard/internal/domain"
	"github.com/heartmarshall/presence-dashboard/internal/page"
)

const (
	fieldAverageRating = "average_rating"
	fieldTotalReviews  = "total_reviews"
)

var reputationCodec = Codec{
	Display: displayReputation,
	Encode:  encodeReputation,
}

func displayReputation(rec domain.Record) map[string]string {
	out := displayRecord(rec)
	avg, _ := rec.Float(fieldAverageRating)
	out[fieldAverageRating] = domain.FormatRating(avg)
	return out
}

// encodeReputation parses per-platform ratings and counts and derives
// average_rating and total_reviews from them.
func encodeReputation(payload, prev domain.Record) (domain.Record, error) {
	out, err := encodeDefault(payload, prev)
	if err != nil {
		return nil, err
	}

	for _, p := range domain.ReputationPlatforms {
		if err := parseNumbers(out, 0, 5, p+"_rating"); err != nil {
			return nil, err
		}
		if err := parseNumbers(out, 0, 1e9, p+"_review_count"); err != nil {
			return nil, err
		}
		name := p + "_profile_url"
		if s, ok := out[name].(string); ok && strings.TrimSpace(s) != "" && !isWebURL(strings.TrimSpace(s)) {
			return nil, domain.NewValidationError(name, "must be a full http(s) link")
		}
	}

	ratings := domain.PlatformRatings(out)
	out[fieldAverageRating] = domain.WeightedAverage(ratings)
	out[fieldTotalReviews] = float64(domain.TotalReviews(ratings))
	return out, nil
}

// CitationInput is a new directory listing.
type CitationInput struct {
	SiteName      string `json:"site_name"`
	DirectoryType string `json:"directory_type"`
	Username      string `json:"username"`
	LiveURL       string `json:"live_url"`
}

// Reputation owns the reputation section: platform profile links,
// directory citations and the summary figures.
type Reputation struct {
	log       *slog.Logger
	app       *App
	rows      rowStore
	editor    *Editor
	citations *collection

	afterSave func(ctx context.Context, d domain.Domain)
	now       func() time.Time
}

func NewReputation(logger *slog.Logger, app *App, rows rowStore, editor *Editor) *Reputation {
	logger = logger.With("component", "reputation")
	return &Reputation{
		log:       logger,
		app:       app,
		rows:      rows,
		editor:    editor,
		citations: newCollection(logger, app, rows, domain.DomainCitations, domain.ListOptions{OrderBy: "site_name"}),
		now:       time.Now,
	}
}

// Init reads the reputation record and the citations.
func (r *Reputation) Init(ctx context.Context, _ *page.Document) error {
	return r.Refresh(ctx)
}

// Refresh re-reads the reputation record and the citation list.
func (r *Reputation) Refresh(ctx context.Context) error {
	acc, err := r.app.Session.Current()
	if err != nil {
		return fmt.Errorf("dashboard.Reputation.Refresh: %w", err)
	}

	rec, err := r.rows.SelectOne(ctx, domain.DomainReputation, acc.AccountID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		rec = domain.Record{}
	case err != nil:
		return fmt.Errorf("dashboard.Reputation.Refresh: %w", err)
	}
	r.app.Cache.Set(domain.DomainReputation, rec)

	if _, err := r.citations.Refresh(ctx); err != nil {
		return fmt.Errorf("dashboard.Reputation.Refresh: %w", err)
	}
	r.editor.reconcile()
	return nil
}

// Citations returns the cached directory citations ordered by site name.
func (r *Reputation) Citations() []domain.Record {
	return r.citations.List()
}

// AddCitation inserts a pending, unclaimed listing.
func (r *Reputation) AddCitation(ctx context.Context, in CitationInput) (domain.Record, error) {
	in.SiteName = strings.TrimSpace(in.SiteName)
	in.LiveURL = strings.TrimSpace(in.LiveURL)
	if in.SiteName == "" {
		err := fmt.Errorf("dashboard.AddCitation: %w", domain.NewValidationError("site_name", "is required"))
		reportError(ctx, r.log, r.app.Notes, uuid.Nil, domain.DomainCitations, err)
		return nil, err
	}
	if in.LiveURL != "" && !isWebURL(in.LiveURL) {
		err := fmt.Errorf("dashboard.AddCitation: %w", domain.NewValidationError("live_url", "must be a full http(s) link"))
		reportError(ctx, r.log, r.app.Notes, uuid.Nil, domain.DomainCitations, err)
		return nil, err
	}

	rec := domain.Record{
		"site_name":       in.SiteName,
		"directory_type":  strings.TrimSpace(in.DirectoryType),
		"username":        strings.TrimSpace(in.Username),
		"live_url":        in.LiveURL,
		"status":          "pending",
		"profile_claimed": false,
		"has_reviews":     false,
	}
	return r.citations.add(ctx, rec, "Citation added successfully!")
}

// RemoveCitation deletes the listing with id.
func (r *Reputation) RemoveCitation(ctx context.Context, id uuid.UUID) error {
	return r.citations.remove(ctx, id, "Citation removed")
}

// AddPlatform records the profile link of a review platform.
func (r *Reputation) AddPlatform(ctx context.Context, platform, profileURL string) error {
	platform = strings.ToLower(strings.TrimSpace(platform))
	profileURL = strings.TrimSpace(profileURL)

	var verr error
	switch {
	case !slices.Contains(domain.ReputationPlatforms, platform):
		verr = domain.NewValidationError("platform", "must be one of "+strings.Join(domain.ReputationPlatforms, ", "))
	case !isWebURL(profileURL):
		verr = domain.NewValidationError("profile_url", "must be a full http(s) link")
	}
	if verr != nil {
		err := fmt.Errorf("dashboard.AddPlatform: %w", verr)
		reportError(ctx, r.log, r.app.Notes, uuid.Nil, domain.DomainReputation, err)
		return err
	}

	acc, err := r.app.Session.Current()
	if err != nil {
		err = fmt.Errorf("dashboard.AddPlatform: %w", err)
		reportError(ctx, r.log, r.app.Notes, uuid.Nil, domain.DomainReputation, err)
		return err
	}

	field := platform + "_profile_url"
	fields := domain.Record{field: profileURL}
	if _, err := r.rows.Upsert(ctx, domain.DomainReputation, acc.AccountID, fields.Stamp(acc.AccountID, r.now())); err != nil {
		err = fmt.Errorf("dashboard.AddPlatform: %w", err)
		reportError(ctx, r.log, r.app.Notes, acc.AccountID, domain.DomainReputation, err)
		return err
	}

	r.app.Cache.SetField(domain.DomainReputation, field, profileURL)
	r.editor.reconcile()
	if r.afterSave != nil {
		r.afterSave(ctx, domain.DomainReputation)
	}
	r.app.Notes.Show("Platform URL added successfully!", domain.NotificationSuccess)
	return nil
}

// Summary is the reputation overview shown above the platform card.
type Summary struct {
	AverageRating    float64 `json:"averageRating"`
	TotalReviews     int     `json:"totalReviews"`
	PlatformsTracked int     `json:"platformsTracked"`
	Citations        int     `json:"citations"`
	RecentReviews    int     `json:"recentReviews"`
}

// Summary computes the overview figures from the cache.
func (r *Reputation) Summary() Summary {
	ratings := domain.PlatformRatings(r.app.Cache.Get(domain.DomainReputation))
	return Summary{
		AverageRating:    domain.WeightedAverage(ratings),
		TotalReviews:     domain.TotalReviews(ratings),
		PlatformsTracked: domain.PlatformsTracked(ratings),
		Citations:        len(r.citations.List()),
		RecentReviews:    len(r.app.Cache.List(domain.DomainReviews)),
	}
}

// PopulateSummary writes the summary figures into doc.
func (r *Reputation) PopulateSummary(doc *page.Document) {
	s := r.Summary()
	doc.SetText("", fieldAverageRating, domain.FormatRating(s.AverageRating))
	doc.SetText("", fieldTotalReviews, strconv.Itoa(s.TotalReviews))
	doc.SetText("", "platforms_tracked", strconv.Itoa(s.PlatformsTracked))
	doc.SetText("", "citations_count", strconv.Itoa(s.Citations))
	doc.SetText("", "recent_reviews", strconv.Itoa(s.RecentReviews))
}
