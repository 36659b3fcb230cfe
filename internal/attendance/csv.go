package attendance

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"
)

// WriteCSV streams records as CSV, one row per student entry plus a trailing
// per-record summary row.
func WriteCSV(w io.Writer, records []Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"date", "title", "student", "status", "created_at"}); err != nil {
		return err
	}
	for _, r := range records {
		created := r.CreatedAt.UTC().Format(time.RFC3339)
		for _, e := range r.Students {
			if err := cw.Write([]string{r.Date, r.Title, e.Name, string(e.Status), created}); err != nil {
				return err
			}
		}
		present, absent := r.Counts()
		summary := "present " + strconv.Itoa(present) + " / absent " + strconv.Itoa(absent)
		if err := cw.Write([]string{r.Date, r.Title, "TOTAL", summary, created}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
