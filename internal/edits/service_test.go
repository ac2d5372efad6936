package edits

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type staticIDGenerator struct {
	ids   []string
	index int
}

func (g *staticIDGenerator) NewID() (string, error) {
	if g.index >= len(g.ids) {
		return "", errors.New("exhausted ids")
	}
	id := g.ids[g.index]
	g.index++
	return id, nil
}

type steppingClock struct {
	current time.Time
}

func (c *steppingClock) Now() time.Time {
	value := c.current
	c.current = c.current.Add(time.Minute)
	return value
}

func newTestService(t *testing.T, ids []string) (*Service, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "edits.db")), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&EditRecord{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	clock := &steppingClock{current: time.Unix(1700000000, 0).UTC()}
	service, err := NewService(ServiceConfig{
		Database:   db,
		Clock:      clock.Now,
		IDProvider: &staticIDGenerator{ids: ids},
	})
	if err != nil {
		t.Fatalf("failed to construct edits service: %v", err)
	}
	return service, db
}

func TestNewServiceRequiresCollaborators(t *testing.T) {
	if _, err := NewService(ServiceConfig{IDProvider: NewUUIDProvider()}); err == nil {
		t.Fatalf("expected missing database error")
	}

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "edits.db")), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	_, err = NewService(ServiceConfig{Database: db})
	var serviceErr *ServiceError
	if !errors.As(err, &serviceErr) || serviceErr.Code() != "edits.service.new.missing_id_provider" {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestRecordPersistsEntry(t *testing.T) {
	service, db := newTestService(t, []string{"edit-1"})

	record, err := service.Record(context.Background(), Entry{
		Title:      "  Example article ",
		Editor:     "alice",
		Rewritten:  2,
		Skipped:    1,
		Selections: []byte(`[{"ordinal":1,"doi":"10.1/a","choice":1}]`),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if record.ID != "edit-1" || record.Title != "Example article" {
		t.Fatalf("unexpected record %+v", record)
	}
	if record.AppliedAtSeconds != 1700000000 {
		t.Fatalf("unexpected applied at %d", record.AppliedAtSeconds)
	}

	var stored EditRecord
	if err := db.First(&stored, "edit_id = ?", "edit-1").Error; err != nil {
		t.Fatalf("failed to load stored edit: %v", err)
	}
	if stored.Editor != "alice" || stored.Rewritten != 2 || stored.Skipped != 1 {
		t.Fatalf("unexpected stored row %+v", stored)
	}
	if string(stored.Selections) != `[{"ordinal":1,"doi":"10.1/a","choice":1}]` {
		t.Fatalf("unexpected selections %s", stored.Selections)
	}
}

func TestRecordRejectsInvalidEntries(t *testing.T) {
	service, _ := newTestService(t, []string{"edit-1"})

	testCases := []struct {
		name    string
		entry   Entry
		wantErr error
	}{
		{name: "blank-title", entry: Entry{Title: "  "}, wantErr: ErrInvalidTitle},
		{name: "negative-count", entry: Entry{Title: "A", Rewritten: -1}, wantErr: ErrInvalidCount},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			_, err := service.Record(context.Background(), testCase.entry)
			if !errors.Is(err, testCase.wantErr) {
				t.Fatalf("expected %v, got %v", testCase.wantErr, err)
			}
			var serviceErr *ServiceError
			if !errors.As(err, &serviceErr) || serviceErr.Code() != "edits.record.invalid_entry" {
				t.Fatalf("unexpected error code %v", err)
			}
		})
	}
}

func TestRecordSurfacesIDFailure(t *testing.T) {
	service, _ := newTestService(t, nil)
	_, err := service.Record(context.Background(), Entry{Title: "A"})
	var serviceErr *ServiceError
	if !errors.As(err, &serviceErr) || serviceErr.Code() != "edits.record.id_generation_failed" {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestListForTitleReturnsNewestFirst(t *testing.T) {
	service, _ := newTestService(t, []string{"edit-1", "edit-2", "edit-3"})
	ctx := context.Background()

	for _, title := range []string{"A", "B", "A"} {
		if _, err := service.Record(ctx, Entry{Title: title, Rewritten: 1}); err != nil {
			t.Fatalf("record failed: %v", err)
		}
	}

	records, err := service.ListForTitle(ctx, "A", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 edits, got %d", len(records))
	}
	if records[0].ID != "edit-3" || records[1].ID != "edit-1" {
		t.Fatalf("unexpected order: %s, %s", records[0].ID, records[1].ID)
	}

	limited, err := service.ListForTitle(ctx, "A", 1)
	if err != nil || len(limited) != 1 {
		t.Fatalf("expected a single edit, got %d (%v)", len(limited), err)
	}

	if _, err := service.ListForTitle(ctx, " ", 0); !errors.Is(err, ErrInvalidTitle) {
		t.Fatalf("expected invalid title, got %v", err)
	}
}

func TestUUIDProviderIssuesVersion7(t *testing.T) {
	id, err := NewUUIDProvider().NewID()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		t.Fatalf("invalid uuid %q: %v", id, err)
	}
	if parsed.Version() != 7 {
		t.Fatalf("expected version 7, got %d", parsed.Version())
	}
}
