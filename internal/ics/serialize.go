package ics

import (
	"strconv"
	"strings"
)

// Document structural markers. The writer refuses documents that do not
// carry exactly one of each.
const (
	CalendarBegin = "BEGIN:VCALENDAR"
	CalendarEnd   = "END:VCALENDAR"
)

// Serialize assembles the full calendar document from the given events,
// in order. Line terminator is CRLF throughout, as RFC 5545 requires,
// with no terminator after the final line; the writer appends the
// trailing newline.
func Serialize(events []Event, prodID string) string {
	lines := make([]string, 0, 3+len(events)*7+1)
	lines = append(lines,
		CalendarBegin,
		"VERSION:2.0",
		"PRODID:"+prodID,
	)

	for _, ev := range events {
		lines = append(lines,
			"BEGIN:VEVENT",
			"UID:"+strconv.FormatInt(ev.UID, 10),
			"DTSTAMP:"+FormatUTC(ev.Stamp),
			"DTSTART:"+FormatUTC(ev.Start),
		)
		if !ev.End.IsZero() {
			lines = append(lines, "DTEND:"+FormatUTC(ev.End))
		}
		lines = append(lines,
			"SUMMARY:"+escapeText(ev.Summary),
			"END:VEVENT",
		)
	}

	lines = append(lines, CalendarEnd)
	return strings.Join(lines, "\r\n")
}

var textEscaper = strings.NewReplacer(
	`\`, `\\`,
	";", `\;`,
	",", `\,`,
	"\r\n", `\n`,
	"\n", `\n`,
)

// escapeText escapes the characters RFC 5545 3.3.11 reserves in TEXT
// values. Without this a comma in a title would split the SUMMARY value
// in consuming clients.
func escapeText(s string) string {
	return textEscaper.Replace(s)
}
