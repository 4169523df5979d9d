package domain

import (
	"encoding/json"
	"fmt"
	"maps"
	"reflect"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Domain names a category of business data. The value doubles as the
// backend table name.
type Domain string

const (
	DomainAccounts       Domain = "accounts"
	DomainBusinessInfo   Domain = "business_info"
	DomainContactInfo    Domain = "contact_info"
	DomainBrandAssets    Domain = "brand_assets"
	DomainWebsiteInfo    Domain = "website_info"
	DomainGoogleBusiness Domain = "google_business_profile"
	DomainReputation     Domain = "online_reputation"
	DomainSocialMedia    Domain = "social_media_accounts"
	DomainReviews        Domain = "reviews"
	DomainCitations      Domain = "directory_citations"
)

func (d Domain) String() string { return string(d) }

// IsCollection reports whether the domain holds many rows per account.
func (d Domain) IsCollection() bool {
	switch d {
	case DomainSocialMedia, DomainReviews, DomainCitations:
		return true
	}
	return false
}

// IsValid reports whether d is a known table.
func (d Domain) IsValid() bool {
	switch d {
	case DomainAccounts, DomainBusinessInfo, DomainContactInfo, DomainBrandAssets,
		DomainWebsiteInfo, DomainGoogleBusiness, DomainReputation,
		DomainSocialMedia, DomainReviews, DomainCitations:
		return true
	}
	return false
}

// Label returns a human readable name, e.g. "Business Info".
func (d Domain) Label() string {
	return TitleCase(strings.ReplaceAll(string(d), "_", " "))
}

// AllDomains lists every table the dashboard knows about.
func AllDomains() []Domain {
	return []Domain{
		DomainAccounts, DomainBusinessInfo, DomainContactInfo, DomainBrandAssets,
		DomainWebsiteInfo, DomainGoogleBusiness, DomainReputation,
		DomainSocialMedia, DomainReviews, DomainCitations,
	}
}

// Reserved record keys managed by the backend.
const (
	FieldID        = "id"
	FieldAccountID = "account_id"
	FieldCreatedAt = "created_at"
	FieldUpdatedAt = "updated_at"
)

// Record is an open-ended mapping from field name to scalar, array or
// nested-object value. Values follow encoding/json decoding rules.
type Record map[string]any

// Clone returns a deep copy so that callers can mutate freely.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, vv := range t {
			m[k] = cloneValue(vv)
		}
		return m
	case Record:
		return t.Clone()
	case []any:
		s := make([]any, len(t))
		for i, vv := range t {
			s[i] = cloneValue(vv)
		}
		return s
	}
	return v
}

// ID returns the row id if present and parseable.
func (r Record) ID() (uuid.UUID, bool) {
	switch v := r[FieldID].(type) {
	case uuid.UUID:
		return v, v != uuid.Nil
	case string:
		id, err := uuid.Parse(v)
		return id, err == nil
	}
	return uuid.Nil, false
}

// String returns the field as a string, formatting scalars when needed.
func (r Record) String(field string) string {
	v, ok := r[field]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return formatNumber(t)
	case int:
		return fmt.Sprintf("%d", t)
	case bool:
		if t {
			return "true"
		}
		return "false"
	}
	return fmt.Sprint(v)
}

// Float returns a numeric field. ok is false when the field is absent or null.
func (r Record) Float(field string) (float64, bool) {
	switch t := r[field].(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	}
	return 0, false
}

// Merge overlays other on a copy of r.
func (r Record) Merge(other Record) Record {
	out := r.Clone()
	if out == nil {
		out = Record{}
	}
	maps.Copy(out, other.Clone())
	return out
}

// WithoutEmpty returns a copy with empty values removed, so that a partial
// save never overwrites stored values with blanks.
func (r Record) WithoutEmpty() Record {
	out := make(Record, len(r))
	for k, v := range r {
		if IsEmptyValue(v) {
			continue
		}
		out[k] = cloneValue(v)
	}
	return out
}

// WithoutReserved drops backend-managed keys (id, account_id, created_at, updated_at).
func (r Record) WithoutReserved() Record {
	out := r.Clone()
	delete(out, FieldID)
	delete(out, FieldAccountID)
	delete(out, FieldCreatedAt)
	delete(out, FieldUpdatedAt)
	return out
}

// Stamp attaches the account key and a fresh timestamp.
func (r Record) Stamp(accountID uuid.UUID, now time.Time) Record {
	out := r.Clone()
	if out == nil {
		out = Record{}
	}
	out[FieldAccountID] = accountID.String()
	out[FieldUpdatedAt] = now.UTC().Format(time.RFC3339Nano)
	return out
}

// IsEmptyValue reports whether v carries no information: nil, blank
// strings, and empty arrays or objects.
func IsEmptyValue(v any) bool {
	if v == nil {
		return true
	}
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t) == ""
	case []any:
		return len(t) == 0
	case map[string]any:
		return len(t) == 0
	case Record:
		return len(t) == 0
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map:
		return rv.Len() == 0
	case reflect.Pointer:
		return rv.IsNil()
	}
	return false
}

// IsFilled reports whether v counts towards profile completeness. On top
// of IsEmptyValue it treats the literals "[]" and "{}", zero numbers and
// false as not filled.
func IsFilled(v any) bool {
	if IsEmptyValue(v) {
		return false
	}
	switch t := v.(type) {
	case string:
		s := strings.TrimSpace(t)
		return s != "[]" && s != "{}"
	case bool:
		return t
	case float64:
		return t != 0
	case int:
		return t != 0
	}
	return true
}

// DecodeInto converts a record value (typically map[string]any or []any
// from JSON) into a typed Go value.
func DecodeInto(v any, dst any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode value: %w", err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode value: %w", err)
	}
	return nil
}

// ToValue converts a typed Go value into its generic JSON form so that
// records stay comparable after a round trip through storage.
func ToValue(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode value: %w", err)
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode value: %w", err)
	}
	return out, nil
}

// TitleCase upper-cases the first letter of every space separated word.
func TitleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func formatNumber(f float64) string {
	if f == float64(int64(f)) {
		return fmt.Sprintf("%d", int64(f))
	}
	return fmt.Sprintf("%g", f)
}
