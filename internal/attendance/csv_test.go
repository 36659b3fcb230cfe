package attendance

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"
)

func TestWriteCSV(t *testing.T) {
	rec := Record{
		Date:  "2024-01-01",
		Title: "Sync",
		Students: []Entry{
			{Name: "Alice", Status: StatusPresent},
			{Name: "Bob", Status: StatusAbsent},
		},
		CreatedAt: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
	}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, []Record{rec}); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("parse output: %v", err)
	}
	// header + two entries + summary
	if len(rows) != 4 {
		t.Fatalf("rows = %d, want 4", len(rows))
	}
	if rows[0][0] != "date" || rows[0][3] != "status" {
		t.Errorf("unexpected header: %v", rows[0])
	}
	if rows[1][2] != "Alice" || rows[1][3] != "present" {
		t.Errorf("unexpected first row: %v", rows[1])
	}
	if rows[3][2] != "TOTAL" {
		t.Errorf("unexpected summary row: %v", rows[3])
	}
}
