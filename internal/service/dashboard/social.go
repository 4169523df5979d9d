package dashboard

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/heartmarshall/presence-dashboard/internal/domain"
	"github.com/heartmarshall/presence-dashboard/internal/page"
)

// SocialPlatforms are the networks an account can be connected on.
var SocialPlatforms = []string{"facebook", "instagram", "twitter", "linkedin", "youtube", "tiktok", "pinterest"}

// SocialAccountInput is a new social media account.
type SocialAccountInput struct {
	Platform   string `json:"platform"`
	Username   string `json:"username"`
	ProfileURL string `json:"profile_url"`
}

// Validate normalizes the input in place and checks it before any I/O.
func (in *SocialAccountInput) Validate() error {
	in.Platform = strings.ToLower(strings.TrimSpace(in.Platform))
	in.Username = strings.TrimPrefix(strings.TrimSpace(in.Username), "@")
	in.ProfileURL = strings.TrimSpace(in.ProfileURL)

	var errs []domain.FieldError
	if !slices.Contains(SocialPlatforms, in.Platform) {
		errs = append(errs, domain.FieldError{Field: "platform", Message: "must be one of " + strings.Join(SocialPlatforms, ", ")})
	}
	if in.Username == "" {
		errs = append(errs, domain.FieldError{Field: "username", Message: "is required"})
	}
	if in.ProfileURL != "" && !isWebURL(in.ProfileURL) {
		errs = append(errs, domain.FieldError{Field: "profile_url", Message: "must be a full http(s) link"})
	}
	if len(errs) > 0 {
		return domain.NewValidationErrors(errs)
	}
	return nil
}

// SocialAccountPatch changes fields of a connected account. Nil fields are
// left as stored.
type SocialAccountPatch struct {
	Platform      *string  `json:"platform,omitempty"`
	Username      *string  `json:"username,omitempty"`
	ProfileURL    *string  `json:"profile_url,omitempty"`
	Connected     *bool    `json:"connected,omitempty"`
	FollowerCount *float64 `json:"follower_count,omitempty"`
	PostCount     *float64 `json:"post_count,omitempty"`
}

// Record validates the patch and returns the fields to merge.
func (p SocialAccountPatch) Record() (domain.Record, error) {
	rec := domain.Record{}
	var errs []domain.FieldError

	if p.Platform != nil {
		platform := strings.ToLower(strings.TrimSpace(*p.Platform))
		if !slices.Contains(SocialPlatforms, platform) {
			errs = append(errs, domain.FieldError{Field: "platform", Message: "must be one of " + strings.Join(SocialPlatforms, ", ")})
		}
		rec["platform"] = platform
	}
	if p.Username != nil {
		username := strings.TrimPrefix(strings.TrimSpace(*p.Username), "@")
		if username == "" {
			errs = append(errs, domain.FieldError{Field: "username", Message: "is required"})
		}
		rec["username"] = username
	}
	if p.ProfileURL != nil {
		profileURL := strings.TrimSpace(*p.ProfileURL)
		if profileURL != "" && !isWebURL(profileURL) {
			errs = append(errs, domain.FieldError{Field: "profile_url", Message: "must be a full http(s) link"})
		}
		rec["profile_url"] = profileURL
	}
	if p.Connected != nil {
		rec["connected"] = *p.Connected
	}
	counts := []struct {
		field string
		value *float64
	}{{"follower_count", p.FollowerCount}, {"post_count", p.PostCount}}
	for _, c := range counts {
		if c.value == nil {
			continue
		}
		if *c.value < 0 {
			errs = append(errs, domain.FieldError{Field: c.field, Message: "must not be negative"})
		}
		rec[c.field] = *c.value
	}

	if len(errs) > 0 {
		return nil, domain.NewValidationErrors(errs)
	}
	if len(rec) == 0 {
		return nil, domain.NewValidationError("account", "nothing to update")
	}
	return rec, nil
}

// Social manages the connected social media accounts. It has no section
// editor: rows are added, changed and removed one at a time.
type Social struct {
	log      *slog.Logger
	app      *App
	accounts *collection
}

func NewSocial(logger *slog.Logger, app *App, rows rowStore) *Social {
	logger = logger.With("component", "social")
	return &Social{
		log:      logger,
		app:      app,
		accounts: newCollection(logger, app, rows, domain.DomainSocialMedia, domain.ListOptions{OrderBy: domain.FieldCreatedAt}),
	}
}

// Init re-reads the accounts when the section is first shown.
func (s *Social) Init(ctx context.Context, _ *page.Document) error {
	_, err := s.accounts.Refresh(ctx)
	return err
}

// Accounts returns the cached accounts.
func (s *Social) Accounts() []domain.Record {
	return s.accounts.List()
}

// Add connects a new account and re-reads the list.
func (s *Social) Add(ctx context.Context, in SocialAccountInput) (domain.Record, error) {
	if err := in.Validate(); err != nil {
		err = fmt.Errorf("dashboard.Social.Add: %w", err)
		reportError(ctx, s.log, s.app.Notes, uuid.Nil, domain.DomainSocialMedia, err)
		return nil, err
	}

	rec := domain.Record{
		"platform":       in.Platform,
		"username":       in.Username,
		"profile_url":    in.ProfileURL,
		"connected":      true,
		"follower_count": float64(0),
		"post_count":     float64(0),
	}
	return s.accounts.add(ctx, rec, "Social media account added successfully!")
}

// Update changes the account with id and re-reads the list.
func (s *Social) Update(ctx context.Context, id uuid.UUID, patch SocialAccountPatch) (domain.Record, error) {
	rec, err := patch.Record()
	if err != nil {
		err = fmt.Errorf("dashboard.Social.Update: %w", err)
		reportError(ctx, s.log, s.app.Notes, uuid.Nil, domain.DomainSocialMedia, err)
		return nil, err
	}
	return s.accounts.update(ctx, id, rec, "Social media account updated successfully!")
}

// Remove deletes the account with id and re-reads the list.
func (s *Social) Remove(ctx context.Context, id uuid.UUID) error {
	return s.accounts.remove(ctx, id, "Social media account removed")
}

// Populate writes the account count and platform list into doc.
func (s *Social) Populate(doc *page.Document) {
	list := s.accounts.List()
	platforms := make([]string, 0, len(list))
	for _, rec := range list {
		if p := rec.String("platform"); p != "" && !slices.Contains(platforms, p) {
			platforms = append(platforms, p)
		}
	}
	doc.SetText("", "social_accounts", strconv.Itoa(len(list)))
	doc.SetText("", "social_platforms", strings.Join(platforms, ", "))
}
