package roster

import "strings"

// FilterByName returns the students whose case-folded name contains the
// query substring. The second result reports whether a filter was applied:
// an empty (or all-space) query returns the roster unchanged with false, so
// callers can tell "no filter" apart from "matched nothing".
func FilterByName(roster []Student, substring string) ([]Student, bool) {
	q := strings.ToLower(strings.TrimSpace(substring))
	if q == "" {
		return roster, false
	}
	var out []Student
	for _, s := range roster {
		lower := s.NameLower
		if lower == "" {
			lower = strings.ToLower(s.Name)
		}
		if strings.Contains(lower, q) {
			out = append(out, s)
		}
	}
	return out, true
}

// FilterByTeam keeps students carrying the given team tag. TeamAll (or an
// empty team) disables filtering.
func FilterByTeam(roster []Student, team string) []Student {
	if team == "" || team == TeamAll {
		return roster
	}
	var out []Student
	for _, s := range roster {
		for _, tag := range s.Groups {
			if tag == team {
				out = append(out, s)
				break
			}
		}
	}
	return out
}
