package output

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	ical "github.com/arran4/golang-ical"

	"notioncal/internal/ics"
	appLog "notioncal/internal/log"
)

// ValidationError is returned when the serialized document fails its
// structural checks. No filesystem mutation happens after one.
type ValidationError struct {
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid calendar document: %s: %v", e.Reason, e.Err)
	}
	return "invalid calendar document: " + e.Reason
}

func (e *ValidationError) Unwrap() error { return e.Err }

// PersistError wraps a filesystem failure while writing or replacing the
// target file. The target's prior contents are untouched when one is
// returned.
type PersistError struct {
	Path string
	Err  error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("persist %s: %v", e.Path, e.Err)
}

func (e *PersistError) Unwrap() error { return e.Err }

// Write validates doc and persists it at path such that a concurrent
// reader of path sees either the previous complete file or the new one,
// never a partial write.
//
// A trailing newline is appended if missing. Validation happens before
// any filesystem mutation: the document must be non-empty, carry exactly
// one opening and one closing calendar marker, and parse as a calendar.
// The content is then written to a sibling temp file and renamed onto the
// target in one step.
func Write(path, doc string) error {
	if doc != "" && !strings.HasSuffix(doc, "\n") {
		doc += "\r\n"
	}

	if err := validate(doc); err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &PersistError{Path: path, Err: err}
	}

	// Temp file in the same directory so the rename stays on one volume.
	tmp, err := os.CreateTemp(dir, ".notioncal-*.tmp")
	if err != nil {
		return &PersistError{Path: path, Err: err}
	}
	tmpName := tmp.Name()

	defer os.Remove(tmpName)

	if _, err := tmp.WriteString(doc); err != nil {
		tmp.Close()
		return &PersistError{Path: path, Err: err}
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return &PersistError{Path: path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &PersistError{Path: path, Err: err}
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return &PersistError{Path: path, Err: err}
	}

	if err := os.Rename(tmpName, path); err != nil {
		return &PersistError{Path: path, Err: err}
	}

	appLog.Info("calendar written", "path", path, "bytes", len(doc))
	return nil
}

func validate(doc string) error {
	if doc == "" {
		return &ValidationError{Reason: "document is empty"}
	}
	if n := strings.Count(doc, ics.CalendarBegin); n != 1 {
		return &ValidationError{Reason: fmt.Sprintf("expected exactly one %s marker, found %d", ics.CalendarBegin, n)}
	}
	if n := strings.Count(doc, ics.CalendarEnd); n != 1 {
		return &ValidationError{Reason: fmt.Sprintf("expected exactly one %s marker, found %d", ics.CalendarEnd, n)}
	}
	// Independent structural check with a real parser; catches anything
	// the marker counts cannot, e.g. a truncated event block.
	if _, err := ical.ParseCalendar(strings.NewReader(doc)); err != nil {
		return &ValidationError{Reason: "document does not parse", Err: err}
	}
	return nil
}
