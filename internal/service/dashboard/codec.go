package dashboard

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/heartmarshall/presence-dashboard/internal/domain"
)

// Codec converts a domain's stored record to field text and back.
type Codec struct {
	// Display renders each field of rec as text.
	Display func(rec domain.Record) map[string]string
	// Encode turns collected values into the stored shape. prev is the
	// cached record the values were collected over.
	Encode func(payload, prev domain.Record) (domain.Record, error)
}

func (c Codec) display(rec domain.Record) map[string]string {
	if c.Display == nil {
		return displayRecord(rec)
	}
	return c.Display(rec)
}

func (c Codec) encode(payload, prev domain.Record) (domain.Record, error) {
	if c.Encode == nil {
		return encodeDefault(payload, prev)
	}
	return c.Encode(payload, prev)
}

// Fields written by dedicated flows (uploads, color editing) rather than
// by typing into them.
var managedFields = map[fieldKey]bool{
	{domain.DomainBrandAssets, "brand_colors"}:       true,
	{domain.DomainBrandAssets, "certificates"}:       true,
	{domain.DomainBrandAssets, "logo_primary_url"}:   true,
	{domain.DomainBrandAssets, "logo_secondary_url"}: true,
	{domain.DomainBrandAssets, "logo_icon_url"}:      true,
	{domain.DomainReputation, "average_rating"}:      true,
	{domain.DomainReputation, "total_reviews"}:       true,
}

func isManaged(d domain.Domain, field string) bool {
	return managedFields[fieldKey{d, field}]
}

func displayRecord(rec domain.Record) map[string]string {
	out := make(map[string]string, len(rec))
	for k, v := range rec.WithoutReserved() {
		out[k] = displayValue(v)
	}
	return out
}

// displayValue renders arrays as comma separated lists and objects as JSON.
func displayValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []any:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			if s := displayValue(item); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	case map[string]any:
		raw, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(raw)
	}
	return domain.Record{"v": v}.String("v")
}

func encodeDefault(payload, prev domain.Record) (domain.Record, error) {
	out := payload.Clone()
	for k, v := range payload {
		if s, ok := v.(string); ok {
			out[k] = restoreShape(s, prev[k])
		}
	}
	return out, nil
}

// restoreShape parses display text back into the type it was rendered
// from. Text that does not parse stays text.
func restoreShape(text string, prev any) any {
	text = strings.TrimSpace(text)
	switch prev.(type) {
	case []any:
		var items []any
		for _, part := range strings.Split(text, ",") {
			if part = strings.TrimSpace(part); part != "" {
				items = append(items, part)
			}
		}
		return items
	case float64:
		if f, err := strconv.ParseFloat(text, 64); err == nil {
			return f
		}
	case bool:
		if b, err := strconv.ParseBool(text); err == nil {
			return b
		}
	case map[string]any:
		var m map[string]any
		if err := json.Unmarshal([]byte(text), &m); err == nil {
			return m
		}
	}
	return text
}

// parseNumbers converts the named text fields of rec to numbers in
// [min, max]. Blank values are dropped.
func parseNumbers(rec domain.Record, min, max float64, names ...string) error {
	for _, name := range names {
		invalid := domain.NewValidationError(name, "must be a number between "+
			strconv.FormatFloat(min, 'f', -1, 64)+" and "+strconv.FormatFloat(max, 'f', -1, 64))

		if f, ok := rec.Float(name); ok {
			if f < min || f > max {
				return invalid
			}
			continue
		}
		s, ok := rec[name].(string)
		if !ok {
			continue
		}
		s = strings.TrimSpace(s)
		if s == "" {
			delete(rec, name)
			continue
		}
		f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
		if err != nil || f < min || f > max {
			return invalid
		}
		rec[name] = f
	}
	return nil
}

var googleBusinessCodec = Codec{
	Encode: func(payload, prev domain.Record) (domain.Record, error) {
		out, err := encodeDefault(payload, prev)
		if err != nil {
			return nil, err
		}
		if err := parseNumbers(out, 0, 1e9, "total_reviews"); err != nil {
			return nil, err
		}
		if err := parseNumbers(out, 0, 5, "average_rating"); err != nil {
			return nil, err
		}
		return out, nil
	},
}
