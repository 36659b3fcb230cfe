package attendance

import "time"

// Status of a student on a saved record.
type Status string

const (
	StatusPresent Status = "present"
	StatusAbsent  Status = "absent"
)

// Valid reports whether s is one of the persistable statuses.
func (s Status) Valid() bool {
	return s == StatusPresent || s == StatusAbsent
}

// Entry is one student's line on a record. Students are referenced by name,
// not by roster id; renaming or deleting a student leaves old records as they
// were written.
type Entry struct {
	Name   string `bson:"name" json:"name"`
	Status Status `bson:"status" json:"status"`
}

// Record is one saved attendance sheet for a dated event. Records are
// append-only: created once, optionally deleted, never edited.
type Record struct {
	ID        string    `json:"id"`
	Date      string    `json:"date"` // YYYY-MM-DD
	Title     string    `json:"title"`
	Students  []Entry   `json:"students"`
	CreatedAt time.Time `json:"createdAt"`
}
