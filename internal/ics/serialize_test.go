package ics

import (
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

const testProdID = "-//DnB Events//Subscribed Calendar//EN"

func utc(y int, mo time.Month, d, h, mi int) time.Time {
	return time.Date(y, mo, d, h, mi, 0, 0, time.UTC)
}

func TestSerializeEmpty(t *testing.T) {
	doc := Serialize(nil, testProdID)

	want := []string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//DnB Events//Subscribed Calendar//EN",
		"END:VCALENDAR",
	}
	if diff := cmp.Diff(want, strings.Split(doc, "\r\n")); diff != "" {
		t.Errorf("document mismatch (-want +got):\n%s", diff)
	}
}

func TestSerializeEventBlockOrder(t *testing.T) {
	events := []Event{{
		UID:     42,
		Summary: "Jungle Night",
		Start:   utc(2025, 11, 1, 22, 0),
		End:     utc(2025, 11, 2, 2, 0),
		Stamp:   utc(2025, 10, 20, 12, 0),
	}}

	doc := Serialize(events, testProdID)

	want := []string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//DnB Events//Subscribed Calendar//EN",
		"BEGIN:VEVENT",
		"UID:42",
		"DTSTAMP:20251020T120000Z",
		"DTSTART:20251101T220000Z",
		"DTEND:20251102T020000Z",
		"SUMMARY:Jungle Night",
		"END:VEVENT",
		"END:VCALENDAR",
	}
	if diff := cmp.Diff(want, strings.Split(doc, "\r\n")); diff != "" {
		t.Errorf("document mismatch (-want +got):\n%s", diff)
	}
}

func TestSerializeOmitsEndLineWhenAbsent(t *testing.T) {
	events := []Event{{
		UID:     43,
		Summary: "Open Decks",
		Start:   utc(2025, 11, 8, 20, 0),
		Stamp:   utc(2025, 10, 20, 12, 0),
	}}

	doc := Serialize(events, testProdID)

	if strings.Contains(doc, "DTEND") {
		t.Errorf("document contains a DTEND line for an event without end:\n%s", doc)
	}
	if !strings.Contains(doc, "DTSTART:20251108T200000Z\r\nSUMMARY:Open Decks") {
		t.Errorf("DTSTART is not immediately followed by SUMMARY:\n%s", doc)
	}
}

func TestSerializeUsesCRLFOnly(t *testing.T) {
	doc := Serialize([]Event{{
		UID:     1,
		Summary: "x",
		Start:   utc(2025, 1, 1, 0, 0),
		Stamp:   utc(2025, 1, 1, 0, 0),
	}}, testProdID)

	if strings.Contains(strings.ReplaceAll(doc, "\r\n", ""), "\n") {
		t.Error("document contains a bare LF")
	}
	if strings.HasSuffix(doc, "\r\n") {
		t.Error("serializer should not terminate the final line; the writer appends it")
	}
}

func TestSerializePreservesEventOrder(t *testing.T) {
	events := []Event{
		{UID: 2, Summary: "second", Start: utc(2025, 1, 2, 0, 0), Stamp: utc(2025, 1, 1, 0, 0)},
		{UID: 1, Summary: "first", Start: utc(2025, 1, 1, 0, 0), Stamp: utc(2025, 1, 1, 0, 0)},
	}

	doc := Serialize(events, testProdID)
	if strings.Index(doc, "UID:2") > strings.Index(doc, "UID:1") {
		t.Error("events were reordered; serializer must preserve input order")
	}
}

func TestEscapeText(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{`plain title`, `plain title`},
		{`a,b`, `a\,b`},
		{`a;b`, `a\;b`},
		{`a\b`, `a\\b`},
		{"line1\nline2", `line1\nline2`},
		{"line1\r\nline2", `line1\nline2`},
		{`Drum & Bass, Jungle; 170\min`, `Drum & Bass\, Jungle\; 170\\min`},
	}

	for _, tc := range cases {
		if got := escapeText(tc.in); got != tc.want {
			t.Errorf("escapeText(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSerializeEscapesSummary(t *testing.T) {
	doc := Serialize([]Event{{
		UID:     5,
		Summary: "Liquid, Rollers; B2B",
		Start:   utc(2025, 1, 1, 0, 0),
		Stamp:   utc(2025, 1, 1, 0, 0),
	}}, testProdID)

	if !strings.Contains(doc, `SUMMARY:Liquid\, Rollers\; B2B`) {
		t.Errorf("summary not escaped:\n%s", doc)
	}
}
