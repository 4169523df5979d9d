package dashboard

import (
	"context"
	"errors"
	"math"
	"slices"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/heartmarshall/presence-dashboard/internal/domain"
)

// requirement lists the fields of one domain that count towards profile
// completeness. A collection domain with no fields counts as one field,
// filled when it has at least one row.
type requirement struct {
	domain domain.Domain
	fields []string
}

var completenessRegistry = []requirement{
	{domain.DomainBusinessInfo, []string{"business_name", "primary_industry", "services_offered", "business_description"}},
	{domain.DomainContactInfo, []string{"primary_phone", "primary_email", "headquarters_address", "business_hours"}},
	{domain.DomainBrandAssets, []string{"logo_primary_url", "brand_colors", "tagline", "mission_statement"}},
	{domain.DomainWebsiteInfo, []string{"primary_domain", "platform", "analytics_id"}},
	{domain.DomainSocialMedia, nil},
	{domain.DomainGoogleBusiness, []string{"profile_name", "primary_category", "total_reviews"}},
}

// bulkLoaded are the domains read on dashboard entry.
var bulkLoaded = []domain.Domain{
	domain.DomainBusinessInfo,
	domain.DomainContactInfo,
	domain.DomainBrandAssets,
	domain.DomainWebsiteInfo,
	domain.DomainGoogleBusiness,
	domain.DomainReputation,
	domain.DomainReviews,
	domain.DomainSocialMedia,
}

// LoadFailure is a domain whose initial read failed.
type LoadFailure struct {
	Domain domain.Domain
	Err    error
}

// Cache is the last-known state of every domain for the current account.
// Writes are serialized; readers get copies.
type Cache struct {
	mu      sync.RWMutex
	records map[domain.Domain]domain.Record
	lists   map[domain.Domain][]domain.Record
}

func NewCache() *Cache {
	return &Cache{
		records: make(map[domain.Domain]domain.Record),
		lists:   make(map[domain.Domain][]domain.Record),
	}
}

// BulkLoad reads every domain concurrently, one read each. Reviews are
// limited to the reviewsWindow most recent rows. Missing rows are empty
// results; other failures are returned and leave the domain empty.
func (c *Cache) BulkLoad(ctx context.Context, rows rowStore, accountID uuid.UUID, reviewsWindow int) []LoadFailure {
	var (
		g        errgroup.Group
		mu       sync.Mutex
		failures []LoadFailure
	)

	fail := func(d domain.Domain, err error) {
		mu.Lock()
		failures = append(failures, LoadFailure{Domain: d, Err: err})
		mu.Unlock()
	}

	for _, d := range bulkLoaded {
		g.Go(func() error {
			if d.IsCollection() {
				opts := domain.ListOptions{}
				if d == domain.DomainReviews {
					opts = domain.RecentFirst(reviewsWindow)
				}
				list, err := rows.SelectMany(ctx, d, accountID, opts)
				switch {
				case errors.Is(err, domain.ErrNotFound):
					c.SetList(d, nil)
				case err != nil:
					fail(d, err)
				default:
					c.SetList(d, list)
				}
				return nil
			}

			rec, err := rows.SelectOne(ctx, d, accountID)
			switch {
			case errors.Is(err, domain.ErrNotFound):
				c.Set(d, domain.Record{})
			case err != nil:
				fail(d, err)
			default:
				c.Set(d, rec)
			}
			return nil
		})
	}
	_ = g.Wait()

	slices.SortFunc(failures, func(a, b LoadFailure) int {
		return slices.Index(bulkLoaded, a.Domain) - slices.Index(bulkLoaded, b.Domain)
	})
	return failures
}

// Get returns a copy of the cached record, or an empty record.
func (c *Cache) Get(d domain.Domain) domain.Record {
	c.mu.RLock()
	defer c.mu.RUnlock()

	rec := c.records[d].Clone()
	if rec == nil {
		rec = domain.Record{}
	}
	return rec
}

// Set replaces the cached record.
func (c *Cache) Set(d domain.Domain, rec domain.Record) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records[d] = rec.Clone()
}

// SetField stages one field value locally.
func (c *Cache) SetField(d domain.Domain, field string, v any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rec := c.records[d]
	if rec == nil {
		rec = domain.Record{}
		c.records[d] = rec
	}
	rec[field] = v
}

// StageText stores edited field text, parsed back into the type of the
// value it replaces so arrays, numbers and objects keep their shape.
func (c *Cache) StageText(d domain.Domain, field, text string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rec := c.records[d]
	if rec == nil {
		rec = domain.Record{}
		c.records[d] = rec
	}
	rec[field] = restoreShape(text, rec[field])
}

// List returns a copy of a collection domain's rows.
func (c *Cache) List(d domain.Domain) []domain.Record {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]domain.Record, 0, len(c.lists[d]))
	for _, r := range c.lists[d] {
		out = append(out, r.Clone())
	}
	return out
}

// SetList replaces a collection domain's rows.
func (c *Cache) SetList(d domain.Domain, rows []domain.Record) {
	list := make([]domain.Record, 0, len(rows))
	for _, r := range rows {
		list = append(list, r.Clone())
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.lists[d] = list
}

// Snapshot returns copies of every cached singleton record.
func (c *Cache) Snapshot() map[domain.Domain]domain.Record {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[domain.Domain]domain.Record, len(c.records))
	for d, rec := range c.records {
		out[d] = rec.Clone()
	}
	return out
}

// Completeness is the integer percent of required fields that are filled.
func (c *Cache) Completeness() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var total, filled int
	for _, req := range completenessRegistry {
		if req.domain.IsCollection() {
			total++
			if len(c.lists[req.domain]) > 0 {
				filled++
			}
			continue
		}
		rec := c.records[req.domain]
		for _, f := range req.fields {
			total++
			if domain.IsFilled(rec[f]) {
				filled++
			}
		}
	}
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(filled) * 100 / float64(total)))
}

// Missing lists the required fields of d that are not filled.
func (c *Cache) Missing(d domain.Domain) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	rec := c.records[d]
	var out []string
	for _, req := range completenessRegistry {
		if req.domain != d {
			continue
		}
		for _, f := range req.fields {
			if !domain.IsFilled(rec[f]) {
				out = append(out, f)
			}
		}
	}
	return out
}
