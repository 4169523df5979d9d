package dashboard

import (
	"net/url"
	"strings"

	"github.com/heartmarshall/presence-dashboard/internal/domain"
)

const (
	fieldAddress     = "headquarters_address"
	fieldHours       = "business_hours"
	fieldSocialLinks = "social_media_links"
)

// contactLinks are shown as separate fields and stored folded into
// social_media_links.
var contactLinks = []string{"linkedin", "facebook", "twitter", "instagram", "youtube"}

var contactCodec = Codec{
	Display: displayContact,
	Encode:  encodeContact,
}

func displayContact(rec domain.Record) map[string]string {
	out := displayRecord(rec)

	if addr, err := domain.AddressFromValue(rec[fieldAddress]); err == nil {
		out[fieldAddress] = addr.Format()
	}
	if hours, err := domain.BusinessHoursFromValue(rec[fieldHours]); err == nil {
		out[fieldHours] = hours.Format()
	}

	delete(out, fieldSocialLinks)
	links, _ := rec[fieldSocialLinks].(map[string]any)
	for _, name := range contactLinks {
		if s, ok := links[name].(string); ok {
			out[name] = s
		}
	}
	return out
}

func encodeContact(payload, prev domain.Record) (domain.Record, error) {
	out, err := encodeDefault(payload, prev)
	if err != nil {
		return nil, err
	}

	if v, ok := out[fieldAddress]; ok {
		addr, err := domain.AddressFromValue(v)
		if err != nil {
			return nil, domain.NewValidationError(fieldAddress, "could not be read")
		}
		if addr.IsZero() {
			delete(out, fieldAddress)
		} else {
			value, err := domain.ToValue(addr)
			if err != nil {
				return nil, err
			}
			out[fieldAddress] = value
		}
	}

	if v, ok := out[fieldHours]; ok {
		hours, err := domain.BusinessHoursFromValue(v)
		if err != nil {
			return nil, domain.NewValidationError(fieldHours, "could not be read")
		}
		if len(hours) == 0 {
			if s, isText := v.(string); isText && strings.TrimSpace(s) != "" {
				return nil, domain.NewValidationError(fieldHours,
					`use one line per day, like "Monday: 9:00 AM - 5:00 PM" or "Tuesday: Closed"`)
			}
			delete(out, fieldHours)
		} else {
			value, err := domain.ToValue(hours)
			if err != nil {
				return nil, err
			}
			out[fieldHours] = value
		}
	}

	links := map[string]any{}
	if stored, ok := prev[fieldSocialLinks].(map[string]any); ok {
		for k, v := range stored {
			links[k] = v
		}
	}
	for _, name := range contactLinks {
		v, ok := out[name]
		if !ok {
			continue
		}
		delete(out, name)

		s, _ := v.(string)
		s = strings.TrimSpace(s)
		if s == "" {
			delete(links, name)
			continue
		}
		if !isWebURL(s) {
			return nil, domain.NewValidationError(name, "must be a full http(s) link")
		}
		links[name] = s
	}
	if len(links) > 0 {
		out[fieldSocialLinks] = links
	} else {
		delete(out, fieldSocialLinks)
	}

	return out, nil
}

func isWebURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
