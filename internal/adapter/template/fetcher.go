// Package template fetches section templates over HTTP. Templates may be
// served from several base paths; candidates are tried in order.
package template

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/go-resty/resty/v2"

	"github.com/heartmarshall/presence-dashboard/internal/config"
	"github.com/heartmarshall/presence-dashboard/internal/domain"
)

var nameRe = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*(/[a-z0-9][a-z0-9_-]*)?$`)

type templateCache interface {
	Get(ctx context.Context, name string) (string, bool, error)
	Set(ctx context.Context, name, markup string) error
}

// Fetcher loads raw section markup by name.
type Fetcher struct {
	log    *slog.Logger
	client *resty.Client
	bases  []string
	cache  templateCache
}

// NewFetcher creates a fetcher over cfg.BaseURLs. cache may be nil.
func NewFetcher(logger *slog.Logger, cfg config.TemplatesConfig, cache templateCache) *Fetcher {
	client := resty.New().
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "text/html")

	return &Fetcher{
		log:    logger.With("adapter", "template"),
		client: client,
		bases:  cfg.BaseURLs,
		cache:  cache,
	}
}

// Candidates lists the URLs tried for name, in order.
func (f *Fetcher) Candidates(name string) []string {
	out := make([]string, 0, len(f.bases))
	for _, base := range f.bases {
		out = append(out, base+"/sections/"+name+".html")
	}
	return out
}

// Fetch returns the markup of the first candidate that responds with a
// 2xx status. name is a section ("website") or a nested tab
// ("brand-info/colors"). When every candidate fails the error wraps
// domain.ErrNotFound; callers fall back to a placeholder.
func (f *Fetcher) Fetch(ctx context.Context, name string) (string, error) {
	if !nameRe.MatchString(name) {
		return "", domain.NewValidationError("section", fmt.Sprintf("invalid template name %q", name))
	}

	if f.cache != nil {
		markup, ok, err := f.cache.Get(ctx, name)
		if err != nil {
			f.log.WarnContext(ctx, "template cache get failed", slog.String("name", name), slog.String("error", err.Error()))
		}
		if ok {
			return markup, nil
		}
	}

	var attempts []string
	for _, u := range f.Candidates(name) {
		resp, err := f.client.R().SetContext(ctx).Get(u)
		if err != nil {
			if ctx.Err() != nil {
				return "", fmt.Errorf("fetch template %s: %w", name, ctx.Err())
			}
			attempts = append(attempts, fmt.Sprintf("%s: %v", u, err))
			continue
		}
		if !resp.IsSuccess() {
			attempts = append(attempts, fmt.Sprintf("%s: %d", u, resp.StatusCode()))
			continue
		}

		markup := resp.String()
		if f.cache != nil {
			if err := f.cache.Set(ctx, name, markup); err != nil {
				f.log.WarnContext(ctx, "template cache set failed", slog.String("name", name), slog.String("error", err.Error()))
			}
		}
		return markup, nil
	}

	f.log.DebugContext(ctx, "template not found", slog.String("name", name), slog.String("attempts", strings.Join(attempts, "; ")))
	return "", fmt.Errorf("template %s: %w", name, domain.ErrNotFound)
}
