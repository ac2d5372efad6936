package edits

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/datatypes"
)

const maxFieldLength = 255

var (
	// ErrInvalidTitle indicates that an article title is empty or exceeds storage bounds.
	ErrInvalidTitle = errors.New("edits: invalid title")
	// ErrInvalidCount indicates a negative rewritten or skipped count.
	ErrInvalidCount = errors.New("edits: invalid count")
)

// Entry describes one successful save before it is persisted.
type Entry struct {
	Title      string
	Editor     string
	Rewritten  int
	Skipped    int
	Selections []byte
}

func (e Entry) validate() (Entry, error) {
	title := strings.TrimSpace(e.Title)
	if title == "" {
		return Entry{}, fmt.Errorf("%w: empty", ErrInvalidTitle)
	}
	if len(title) > maxFieldLength {
		return Entry{}, fmt.Errorf("%w: exceeds %d characters", ErrInvalidTitle, maxFieldLength)
	}
	if e.Rewritten < 0 || e.Skipped < 0 {
		return Entry{}, fmt.Errorf("%w: rewritten=%d skipped=%d", ErrInvalidCount, e.Rewritten, e.Skipped)
	}
	e.Title = title
	e.Editor = strings.TrimSpace(e.Editor)
	if len(e.Editor) > maxFieldLength {
		e.Editor = e.Editor[:maxFieldLength]
	}
	return e, nil
}

// EditRecord is the append-only audit row written for every applied batch.
type EditRecord struct {
	ID               string         `gorm:"column:edit_id;primaryKey;size:64;not null"`
	Title            string         `gorm:"column:title;size:255;not null;index:idx_edits_title_time,priority:1"`
	Editor           string         `gorm:"column:editor;size:255;not null;default:''"`
	Rewritten        int            `gorm:"column:rewritten;not null;default:0"`
	Skipped          int            `gorm:"column:skipped;not null;default:0"`
	Selections       datatypes.JSON `gorm:"column:selections_json"`
	AppliedAtSeconds int64          `gorm:"column:applied_at_s;not null;index:idx_edits_title_time,priority:2"`
}

// TableName provides the explicit table binding for GORM.
func (EditRecord) TableName() string {
	return "citation_edits"
}
