package domain

import "strings"

// Address is the structured headquarters address of a business.
type Address struct {
	Street     string `json:"street,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
	Country    string `json:"country,omitempty"`
}

// IsZero reports whether no part of the address is set.
func (a Address) IsZero() bool {
	return a == Address{}
}

// Format renders the address as display lines:
//
//	street
//	city, state postal
//	country
func (a Address) Format() string {
	var lines []string
	if a.Street != "" {
		lines = append(lines, a.Street)
	}
	locality := strings.Join(nonEmpty(a.City, strings.TrimSpace(a.State+" "+a.PostalCode)), ", ")
	if locality != "" {
		lines = append(lines, locality)
	}
	if a.Country != "" {
		lines = append(lines, a.Country)
	}
	return strings.Join(lines, "\n")
}

// ParseAddress reads the format produced by Format. It tolerates missing
// lines: one line is a street, two lines are street and locality.
func ParseAddress(text string) Address {
	var lines []string
	for _, l := range strings.Split(text, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}

	var a Address
	if len(lines) == 0 {
		return a
	}
	a.Street = lines[0]
	if len(lines) > 1 {
		a.City, a.State, a.PostalCode = parseLocality(lines[1])
	}
	if len(lines) > 2 {
		a.Country = strings.Join(lines[2:], " ")
	}
	return a
}

// AddressFromValue decodes a stored headquarters_address value. Legacy rows
// store street plus a combined "city_state_zip" line.
func AddressFromValue(v any) (Address, error) {
	if s, ok := v.(string); ok {
		return ParseAddress(s), nil
	}
	var raw struct {
		Address
		AddressLine1 string `json:"address_line1"`
		Zip          string `json:"zip"`
		CityStateZip string `json:"city_state_zip"`
	}
	if err := DecodeInto(v, &raw); err != nil {
		return Address{}, err
	}
	a := raw.Address
	if a.Street == "" {
		a.Street = raw.AddressLine1
	}
	if a.PostalCode == "" {
		a.PostalCode = raw.Zip
	}
	if raw.CityStateZip != "" && a.City == "" {
		a.City, a.State, a.PostalCode = parseLocality(raw.CityStateZip)
	}
	return a, nil
}

// parseLocality splits "Springfield, IL 62704" into its parts.
func parseLocality(line string) (city, state, postal string) {
	city, rest, found := strings.Cut(line, ",")
	city = strings.TrimSpace(city)
	if !found {
		return city, "", ""
	}
	parts := strings.Fields(rest)
	switch len(parts) {
	case 0:
	case 1:
		state = parts[0]
	default:
		state = parts[0]
		postal = strings.Join(parts[1:], " ")
	}
	return city, state, postal
}

func nonEmpty(ss ...string) []string {
	out := ss[:0:0]
	for _, s := range ss {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
