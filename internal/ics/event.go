package ics

import (
	"fmt"
	"time"

	"notioncal/internal/config"
	"notioncal/internal/notion"
)

// Event is one validated calendar event ready for serialization.
// Start and Stamp are always UTC; End is the zero time when the source
// record has no end value.
type Event struct {
	UID     int64
	Summary string
	Start   time.Time
	End     time.Time
	Stamp   time.Time
}

// MalformedRecordError reports a source record the transform cannot map,
// naming the record and the offending field.
type MalformedRecordError struct {
	RecordID string
	Field    string
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("malformed record %s: missing or invalid %s", e.RecordID, e.Field)
}

// Transformer maps data source records to calendar events using the
// configured property names.
type Transformer struct {
	props config.PropertyConfig
	now   func() time.Time
}

// NewTransformer creates a Transformer. The clock defaults to time.Now.
func NewTransformer(props config.PropertyConfig) *Transformer {
	return &Transformer{
		props: props,
		now:   time.Now,
	}
}

// WithClock replaces the stamp clock (used by tests).
func (t *Transformer) WithClock(now func() time.Time) *Transformer {
	t.now = now
	return t
}

// Transform maps one record to one event. Each event is stamped at the
// moment of its own transform call.
func (t *Transformer) Transform(rec notion.Record) (Event, error) {
	idProp, ok := rec.Properties[t.props.ID]
	if !ok || idProp.UniqueID == nil || idProp.UniqueID.Number <= 0 {
		return Event{}, &MalformedRecordError{RecordID: rec.ID, Field: t.props.ID}
	}

	titleProp, ok := rec.Properties[t.props.Title]
	if !ok || len(titleProp.Title) == 0 || titleProp.Title[0].PlainText == "" {
		return Event{}, &MalformedRecordError{RecordID: rec.ID, Field: t.props.Title}
	}

	dateProp, ok := rec.Properties[t.props.Date]
	if !ok || dateProp.Date == nil || dateProp.Date.Start == "" {
		return Event{}, &MalformedRecordError{RecordID: rec.ID, Field: t.props.Date}
	}

	start, err := parseTimestamp(dateProp.Date.Start)
	if err != nil {
		return Event{}, &MalformedRecordError{RecordID: rec.ID, Field: t.props.Date}
	}

	var end time.Time
	if dateProp.Date.End != "" {
		end, err = parseTimestamp(dateProp.Date.End)
		if err != nil {
			return Event{}, &MalformedRecordError{RecordID: rec.ID, Field: t.props.Date}
		}
	}

	return Event{
		UID:     idProp.UniqueID.Number,
		Summary: titleProp.Title[0].PlainText,
		Start:   start.UTC(),
		End:     end.UTC(),
		Stamp:   t.now().UTC(),
	}, nil
}

// parseTimestamp parses an ISO-8601 value as the API emits it: RFC 3339
// with or without fractional seconds, a literal Z or a numeric offset, or
// a bare date for all-day values (taken as midnight UTC).
func parseTimestamp(v string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if ts, err := time.Parse(layout, v); err == nil {
			return ts, nil
		}
	}
	const layoutDate = "2006-01-02"
	if ts, err := time.ParseInLocation(layoutDate, v, time.UTC); err == nil {
		return ts, nil
	}
	return time.Time{}, fmt.Errorf("unparseable timestamp %q", v)
}

// FormatUTC renders a time in the basic ICS UTC form, second precision.
func FormatUTC(ts time.Time) string {
	return ts.UTC().Format("20060102T150405Z")
}
