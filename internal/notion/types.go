package notion

// Record is one row-like object returned by a data source query. Only the
// property shapes the calendar transform reads are decoded; everything
// else in the payload is ignored.
type Record struct {
	ID         string              `json:"id"`
	Properties map[string]Property `json:"properties"`
}

// Property is a single typed database property value.
type Property struct {
	Type     string     `json:"type"`
	Title    []RichText `json:"title,omitempty"`
	UniqueID *UniqueID  `json:"unique_id,omitempty"`
	Date     *DateRange `json:"date,omitempty"`
}

// RichText is one run of a rich-text value.
type RichText struct {
	PlainText string `json:"plain_text"`
}

// UniqueID is the value of a unique_id property.
type UniqueID struct {
	Prefix string `json:"prefix"`
	Number int64  `json:"number"`
}

// DateRange is the value of a date property. End is empty for
// single-instant dates.
type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// User is one authenticated principal from the users endpoint.
type User struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Name string `json:"name"`
}

// Database is the metadata of a database, as much of it as the -check
// mode reports.
type Database struct {
	ID    string     `json:"id"`
	Title []RichText `json:"title"`
}

// TitleText joins the database title runs into one plain string.
func (d Database) TitleText() string {
	out := ""
	for _, r := range d.Title {
		out += r.PlainText
	}
	return out
}
