package attendance

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	// ErrMissingMetadata rejects a save without a valid date and a title.
	ErrMissingMetadata = errors.New("date and event title are required")
	// ErrEmptyRoster rejects a save with no students loaded.
	ErrEmptyRoster = errors.New("at least one student is required")
	// ErrIncompleteMarking rejects a save while any student is unmarked.
	ErrIncompleteMarking = errors.New("every student must be marked present or absent")
	// ErrNotFound reports a missing record on delete.
	ErrNotFound = errors.New("attendance record not found")
)

// Store persists the attendance collection.
type Store interface {
	Insert(ctx context.Context, r Record) (Record, error)
	List(ctx context.Context) ([]Record, error)
	Delete(ctx context.Context, id string) error
}

// Service validates and coordinates attendance records.
type Service struct {
	store Store
	now   func() time.Time
}

// NewService creates a service backed by a store.
func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// Save validates a completed sheet and appends exactly one record. CreatedAt
// is assigned here, in server time, so the descending display order is not at
// the mercy of client clocks.
func (s *Service) Save(ctx context.Context, date, title string, entries []Entry) (Record, error) {
	title = strings.TrimSpace(title)
	if date == "" || title == "" {
		return Record{}, ErrMissingMetadata
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return Record{}, ErrMissingMetadata
	}
	if len(entries) == 0 {
		return Record{}, ErrEmptyRoster
	}
	for _, e := range entries {
		if !e.Status.Valid() {
			return Record{}, ErrIncompleteMarking
		}
	}

	return s.store.Insert(ctx, Record{
		Date:      date,
		Title:     title,
		Students:  entries,
		CreatedAt: s.now().UTC(),
	})
}

// List returns all records, newest first.
func (s *Service) List(ctx context.Context) ([]Record, error) {
	return s.store.List(ctx)
}

// Delete removes a record by id.
func (s *Service) Delete(ctx context.Context, id string) error {
	if id == "" {
		return ErrNotFound
	}
	return s.store.Delete(ctx, id)
}

// FilterByDate keeps the records for one exact date. An empty date means no
// filter.
func FilterByDate(records []Record, date string) []Record {
	if date == "" {
		return records
	}
	var out []Record
	for _, r := range records {
		if r.Date == date {
			out = append(out, r)
		}
	}
	return out
}
