package conversation

import (
	"regexp"
	"strings"
)

// Meetup extraction is a best-effort annotation over informal chat text, not a parser.
// Every field keeps the last match seen while scanning messages in order.
var (
	clockRe    = regexp.MustCompile(`(?i)\b(\d{1,2}(?::[0-5]\d)?\s*[ap]\.?m\b\.?|\d{1,2}:[0-5]\d)`)
	dayRe      = regexp.MustCompile(`(?i)\b(today|tomorrow|tonight)\b`)
	locationRe = regexp.MustCompile(`(?i)\b(?:at|in|near)\s+the\s+([a-z][a-z0-9'&-]*(?:\s+[a-z][a-z0-9'&-]*){0,3}?)(?:\s+(?:at|on|in|near|around|by|after|before|today|tomorrow|tonight|yesterday|if|to|so|and|with|for|when|this|from)\b|[.,!?;:)]|$)`)
)

// ExtractMeetup scans message text for clock times, today/tomorrow keywords
// and "at/in/near the X" phrases.
func ExtractMeetup(msgs []Message) Meetup {
	var m Meetup
	for _, msg := range msgs {
		mergeMeetup(&m, ExtractMeetupFromText(msg.Text))
	}
	return m
}

// ExtractMeetupFromText applies the extraction heuristics to a single text.
func ExtractMeetupFromText(text string) Meetup {
	var m Meetup
	if all := clockRe.FindAllString(text, -1); len(all) > 0 {
		m.Time = normalizeClock(all[len(all)-1])
	}
	if all := dayRe.FindAllString(text, -1); len(all) > 0 {
		m.Date = strings.ToLower(all[len(all)-1])
	}
	if all := locationRe.FindAllStringSubmatch(text, -1); len(all) > 0 {
		m.Location = strings.TrimSpace(all[len(all)-1][1])
	}
	return m
}

func mergeMeetup(dst *Meetup, src Meetup) {
	if src.Time != "" {
		dst.Time = src.Time
	}
	if src.Date != "" {
		dst.Date = src.Date
	}
	if src.Location != "" {
		dst.Location = src.Location
	}
}

// normalizeClock upper-cases the meridiem and separates it with one space: "3:30pm" -> "3:30 PM".
func normalizeClock(s string) string {
	s = strings.TrimSpace(s)
	lower := strings.ToLower(s)
	idx := strings.IndexAny(lower, "ap")
	if idx < 0 {
		return s
	}
	num := strings.TrimSpace(s[:idx])
	meridiem := strings.ToUpper(strings.NewReplacer(".", "", " ", "").Replace(s[idx:]))
	return num + " " + meridiem
}
