package dashboard

import (
	"bytes"
	"fmt"
	"html/template"
	"regexp"
	"strings"

	"github.com/heartmarshall/presence-dashboard/internal/domain"
)

// Section names.
const (
	SectionOverview       = "overview"
	SectionBrandInfo      = "brand-info"
	SectionSocialMedia    = "social-media"
	SectionWebsite        = "website"
	SectionGoogleBusiness = "google-business"
	SectionReputation     = "reputation"
	SectionReports        = "reports"
	SectionBilling        = "billing"
	SectionSupport        = "support"
)

var sectionNameRe = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)

type placeholderField struct {
	Name  string
	Label string
}

type placeholderCard struct {
	Title string
	// Domain is empty for summary bindings that are not edited directly.
	Domain domain.Domain
	Fields []placeholderField
}

func (c placeholderCard) Editable() bool {
	return c.Domain != "" && !c.Domain.IsCollection()
}

// Route maps a section to its built-in placeholder layout.
type Route struct {
	Section  string
	Title    string
	Subtitle string
	Cards    []placeholderCard
	Empty    string
}

// Domains lists the editable domains whose fields the section binds.
func (r Route) Domains() []domain.Domain {
	var out []domain.Domain
	for _, c := range r.Cards {
		if c.Domain != "" {
			out = append(out, c.Domain)
		}
	}
	return out
}

func fields(pairs ...string) []placeholderField {
	out := make([]placeholderField, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, placeholderField{Name: pairs[i], Label: pairs[i+1]})
	}
	return out
}

var routes = []Route{
	{
		Section:  SectionOverview,
		Title:    "Dashboard Overview",
		Subtitle: "Welcome back! Here's a snapshot of your business data.",
		Cards: []placeholderCard{{
			Title: "Profile Summary",
			Fields: fields(
				"completeness", "Profile Completion",
				"business_name", "Business",
				"average_rating", "Average Rating",
				"total_reviews", "Total Reviews",
				"social_accounts", "Social Accounts",
			),
		}},
	},
	{
		Section:  SectionBrandInfo,
		Title:    "Brand Information",
		Subtitle: "Manage your business details, brand assets, and company information.",
		Cards: []placeholderCard{
			{
				Title:  "Business Information",
				Domain: domain.DomainBusinessInfo,
				Fields: fields(
					"business_name", "Business Name",
					"primary_industry", "Primary Industry",
					"business_type", "Business Type",
					"founded_date", "Founded Date",
					"business_description", "Business Description",
					"services_offered", "Services Offered",
				),
			},
			{
				Title:  "Contact Information",
				Domain: domain.DomainContactInfo,
				Fields: fields(
					"primary_phone", "Primary Phone",
					"primary_email", "Primary Email",
					"headquarters_address", "Business Address",
					"business_hours", "Business Hours",
					"linkedin", "LinkedIn",
					"facebook", "Facebook",
					"twitter", "Twitter",
					"instagram", "Instagram",
					"youtube", "YouTube",
				),
			},
			{
				Title:  "Brand Assets",
				Domain: domain.DomainBrandAssets,
				Fields: fields(
					"tagline", "Tagline",
					"mission_statement", "Mission Statement",
					"vision_statement", "Vision Statement",
					"brand_story", "Brand Story",
					"brand_colors", "Brand Colors",
					"logo_primary_url", "Primary Logo",
					"logo_secondary_url", "Secondary Logo",
					"logo_icon_url", "Icon",
					"certificates", "Certificates",
				),
			},
		},
	},
	{
		Section:  SectionSocialMedia,
		Title:    "Social Media",
		Subtitle: "Manage your social media accounts and presence.",
		Cards: []placeholderCard{{
			Title: "Connected Accounts",
			Fields: fields(
				"social_accounts", "Connected Accounts",
				"social_platforms", "Platforms",
			),
		}},
		Empty: "No social media accounts connected yet.",
	},
	{
		Section:  SectionWebsite,
		Title:    "Website",
		Subtitle: "Manage your website and domain information.",
		Cards: []placeholderCard{{
			Title:  "Website Details",
			Domain: domain.DomainWebsiteInfo,
			Fields: fields(
				"primary_domain", "Primary Domain",
				"platform", "Website Platform",
				"hosting_provider", "Hosting Provider",
				"ssl_status", "SSL Status",
				"analytics_id", "Analytics ID",
			),
		}},
	},
	{
		Section:  SectionGoogleBusiness,
		Title:    "Google Business",
		Subtitle: "Manage your Google Business Profile.",
		Cards: []placeholderCard{{
			Title:  "Profile Information",
			Domain: domain.DomainGoogleBusiness,
			Fields: fields(
				"profile_name", "Profile Name",
				"primary_category", "Primary Category",
				"total_reviews", "Total Reviews",
				"average_rating", "Average Rating",
			),
		}},
	},
	{
		Section:  SectionReputation,
		Title:    "Reputation",
		Subtitle: "Monitor and manage your online reputation.",
		Cards: []placeholderCard{
			{
				Title: "Overview",
				Fields: fields(
					"average_rating", "Average Rating",
					"total_reviews", "Total Reviews",
					"platforms_tracked", "Platforms Tracked",
					"citations_count", "Directory Listings",
					"recent_reviews", "Recent Reviews",
				),
			},
			{
				Title:  "Review Platforms",
				Domain: domain.DomainReputation,
				Fields: fields(
					"google_rating", "Google Rating",
					"google_review_count", "Google Reviews",
					"google_profile_url", "Google Profile",
					"facebook_rating", "Facebook Rating",
					"facebook_review_count", "Facebook Reviews",
					"facebook_profile_url", "Facebook Profile",
					"yelp_rating", "Yelp Rating",
					"yelp_review_count", "Yelp Reviews",
					"yelp_profile_url", "Yelp Profile",
				),
			},
		},
	},
	{
		Section:  SectionReports,
		Title:    "Reports",
		Subtitle: "View and download your reports.",
		Empty:    "No reports available yet.",
	},
	{
		Section:  SectionBilling,
		Title:    "Billing",
		Subtitle: "Manage your subscription and billing.",
		Empty:    "Billing features coming soon!",
	},
	{
		Section:  SectionSupport,
		Title:    "Support",
		Subtitle: "Get help and support for your dashboard.",
		Empty:    "Email us at support@echoaisystem.com",
	},
}

// LookupRoute finds the route of a known section.
func LookupRoute(section string) (Route, bool) {
	for _, r := range routes {
		if r.Section == section {
			return r, true
		}
	}
	return Route{}, false
}

// SectionOf returns the section that edits d.
func SectionOf(d domain.Domain) (string, bool) {
	for _, r := range routes {
		for _, c := range r.Cards {
			if c.Domain == d {
				return r.Section, true
			}
		}
	}
	return "", false
}

// Sections lists the known section names in navigation order.
func Sections() []string {
	out := make([]string, 0, len(routes))
	for _, r := range routes {
		out = append(out, r.Section)
	}
	return out
}

var placeholderTmpl = template.Must(template.New("placeholder").Parse(`<div class="section-header">
  <h1>{{.Title}}</h1>
  <p>{{.Subtitle}}</p>
</div>
{{range .Cards}}<div class="section-card"{{with .Domain}} data-table="{{.}}"{{end}}>
  <div class="card-header">
    <h2>{{.Title}}</h2>
    {{if .Editable}}<button class="btn-secondary edit-button" data-edit="{{.Domain}}">Edit</button>{{end}}
  </div>
  <div class="form-grid">
    {{range .Fields}}<div class="form-group">
      <label>{{.Label}}</label>
      <div class="field-value" data-field="{{.Name}}" data-placeholder="Click Edit to add"></div>
    </div>
    {{end}}
  </div>
  {{if .Editable}}<div class="edit-controls" data-edit-controls="{{.Domain}}" hidden>
    <button class="btn-primary" data-save="{{.Domain}}">Save</button>
  </div>{{end}}
</div>
{{end}}{{with .Empty}}<div class="empty-state"><p>{{.}}</p></div>
{{end}}`))

var genericTmpl = template.Must(template.New("generic").Parse(`<div class="section-header">
  <h1>{{.}}</h1>
  <p>This section is being developed. Check back soon!</p>
</div>
`))

// placeholder renders the built-in markup of a known section. Anything
// else gets the generic "under development" page titled after name.
func placeholder(section, name string) (string, error) {
	var buf bytes.Buffer
	if r, ok := LookupRoute(section); ok {
		if err := placeholderTmpl.Execute(&buf, r); err != nil {
			return "", fmt.Errorf("render placeholder %s: %w", section, err)
		}
		return buf.String(), nil
	}
	if err := genericTmpl.Execute(&buf, formatSectionName(name)); err != nil {
		return "", fmt.Errorf("render placeholder %s: %w", name, err)
	}
	return buf.String(), nil
}

// formatSectionName turns "google-business" into "Google Business".
func formatSectionName(name string) string {
	return domain.TitleCase(strings.ReplaceAll(name, "-", " "))
}
