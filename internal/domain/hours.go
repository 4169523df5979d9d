package domain

import (
	"regexp"
	"strings"
)

// Weekdays in display order. Keys of BusinessHours use these lower-case names.
var Weekdays = []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

// DayHours is the opening window of one day, or Closed.
type DayHours struct {
	Open   string `json:"open,omitempty"`
	Close  string `json:"close,omitempty"`
	Closed bool   `json:"closed,omitempty"`
}

// BusinessHours maps a lower-case weekday to its hours.
type BusinessHours map[string]DayHours

var (
	hoursLineRe = regexp.MustCompile(`^\s*([A-Za-z]+)(?:\s*-\s*([A-Za-z]+))?\s*:\s*(.+?)\s*$`)
	hoursSpanRe = regexp.MustCompile(`(?i)(\d{1,2}:\d{2}\s*[AP]M)\s*-\s*(\d{1,2}:\d{2}\s*[AP]M)`)
)

// ParseBusinessHours reads the multi-line display format. Lines look like
// "Monday: 9:00 AM - 5:00 PM", "Monday - Friday: 9:00 AM - 5:00 PM" or
// "Tuesday: Closed". Text after the time span is ignored. Unknown days and
// malformed lines are skipped.
func ParseBusinessHours(text string) BusinessHours {
	hours := BusinessHours{}
	for _, line := range strings.Split(text, "\n") {
		m := hoursLineRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		days := dayRange(strings.ToLower(m[1]), strings.ToLower(m[2]))
		if len(days) == 0 {
			continue
		}

		var dh DayHours
		value := strings.TrimSpace(m[3])
		if strings.EqualFold(value, "closed") {
			dh = DayHours{Closed: true}
		} else {
			span := hoursSpanRe.FindStringSubmatch(value)
			if span == nil {
				continue
			}
			dh = DayHours{Open: normalizeClock(span[1]), Close: normalizeClock(span[2])}
		}
		for _, day := range days {
			hours[day] = dh
		}
	}
	return hours
}

// dayRange expands "monday".."friday" in week order. An empty last day
// means a single day. Ranges that run backwards yield only the first day.
func dayRange(first, last string) []string {
	from := weekdayIndex(first)
	if from < 0 {
		return nil
	}
	to := weekdayIndex(last)
	if to < from {
		return []string{first}
	}
	return Weekdays[from : to+1]
}

// Format renders the hours one day per line, Monday first. Days without
// data are omitted.
func (h BusinessHours) Format() string {
	var lines []string
	for _, day := range Weekdays {
		d, ok := h[day]
		if !ok {
			continue
		}
		label := TitleCase(day)
		switch {
		case d.Closed:
			lines = append(lines, label+": Closed")
		case d.Open != "" && d.Close != "":
			lines = append(lines, label+": "+d.Open+" - "+d.Close)
		}
	}
	return strings.Join(lines, "\n")
}

// BusinessHoursFromValue decodes a stored business_hours value. Strings are
// parsed with the display format for rows written by older clients.
func BusinessHoursFromValue(v any) (BusinessHours, error) {
	if s, ok := v.(string); ok {
		return ParseBusinessHours(s), nil
	}
	var h BusinessHours
	if err := DecodeInto(v, &h); err != nil {
		return nil, err
	}
	return h, nil
}

func weekdayIndex(day string) int {
	for i, d := range Weekdays {
		if d == day {
			return i
		}
	}
	return -1
}

// normalizeClock collapses "9:00AM" and "9:00  am" into "9:00 AM".
func normalizeClock(s string) string {
	s = strings.ToUpper(strings.Join(strings.Fields(s), ""))
	if n := len(s); n > 2 {
		return s[:n-2] + " " + s[n-2:]
	}
	return s
}
