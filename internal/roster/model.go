package roster

import "strings"

// Team tags a student can belong to. The set is fixed; anything else is
// bucketed under DefaultTeam when grouping.
const (
	TeamDiscipline   = "DISCIPLINE COMMITTEE"
	TeamTech         = "TECH TEAM"
	TeamPR           = "PR TEAM"
	TeamDesign       = "DESIGN TEAM"
	TeamContent      = "CONTENT TEAM"
	TeamCultural     = "CULTURAL TEAM"
	TeamOfficeBearer = "OFFICE BEARERS"
	TeamGeneral      = "GENERAL MEMBER"
)

// DefaultTeam is the catch-all bucket for unknown or missing tags.
const DefaultTeam = TeamGeneral

// TeamAll is the filter sentinel meaning "all teams, no filtering".
const TeamAll = "ALL"

// Teams returns the fixed team set in display order.
func Teams() []string {
	return []string{
		TeamDiscipline,
		TeamTech,
		TeamPR,
		TeamDesign,
		TeamContent,
		TeamCultural,
		TeamOfficeBearer,
		TeamGeneral,
	}
}

// KnownTeam reports whether tag is one of the fixed teams.
func KnownTeam(tag string) bool {
	for _, t := range Teams() {
		if t == tag {
			return true
		}
	}
	return false
}

// Student is a roster member. NameLower is the case-folded twin of Name and
// is recomputed on every create.
type Student struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	NameLower string   `json:"nameLower"`
	Groups    []string `json:"groups"`
}

// Normalize fills derived and defaulted fields. Legacy documents carried a
// single `group` tag instead of `groups`; the repository folds that into
// Groups before calling here, so internal code never sees the old shape.
func (s *Student) Normalize() {
	if s.NameLower == "" {
		s.NameLower = strings.ToLower(s.Name)
	}
	if len(s.Groups) == 0 {
		s.Groups = []string{DefaultTeam}
	}
}

// identityKey is the reconciliation key: database ID when assigned, otherwise
// the case-folded name.
func identityKey(s Student) string {
	if s.ID != "" {
		return s.ID
	}
	return strings.ToLower(strings.TrimSpace(s.Name))
}
