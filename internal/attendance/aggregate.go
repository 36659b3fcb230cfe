package attendance

import (
	"math"
	"strings"
)

// Stats summarizes a set of records.
type Stats struct {
	TotalEvents    int `json:"totalEvents"`
	TotalPresent   int `json:"totalPresent"`
	TotalAbsent    int `json:"totalAbsent"`
	OverallPercent int `json:"overallPercent"`
}

// StudentStat is one student's lifetime tally across all records, keyed by
// case-folded name in PerStudent's result.
type StudentStat struct {
	DisplayName string `json:"name"`
	Present     int    `json:"present"`
	Total       int    `json:"total"`
}

// Percent returns the student's round attendance percentage, 0 when the
// student has no records.
func (s StudentStat) Percent() int {
	return percent(s.Present, s.Total)
}

// Counts returns one record's own present/absent tally.
func (r Record) Counts() (present, absent int) {
	for _, e := range r.Students {
		switch e.Status {
		case StatusPresent:
			present++
		case StatusAbsent:
			absent++
		}
	}
	return present, absent
}

// Aggregate computes overall totals across records. Pure and deterministic:
// callers re-run it on every snapshot instead of caching incrementally.
func Aggregate(records []Record) Stats {
	st := Stats{TotalEvents: len(records)}
	for _, r := range records {
		for _, e := range r.Students {
			switch e.Status {
			case StatusPresent:
				st.TotalPresent++
			case StatusAbsent:
				st.TotalAbsent++
			}
		}
	}
	st.OverallPercent = percent(st.TotalPresent, st.TotalPresent+st.TotalAbsent)
	return st
}

// PerStudent tallies present/total per student in a single pass over all
// records, keyed by case-folded name. Entries with empty names are skipped.
func PerStudent(records []Record) map[string]StudentStat {
	stats := make(map[string]StudentStat)
	for _, r := range records {
		for _, e := range r.Students {
			key := strings.ToLower(e.Name)
			if key == "" {
				continue
			}
			s, ok := stats[key]
			if !ok {
				s = StudentStat{DisplayName: e.Name}
			}
			s.Total++
			if e.Status == StatusPresent {
				s.Present++
			}
			stats[key] = s
		}
	}
	return stats
}

func percent(present, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(100 * float64(present) / float64(total)))
}
