package roster

// Marking statuses for a working set entry. An empty status means unmarked.
const (
	StatusPresent  = "present"
	StatusAbsent   = "absent"
	StatusUnmarked = ""
)

// Marked is a roster entry with an in-progress attendance mark.
type Marked struct {
	Student
	Status string `json:"status,omitempty"`
}

// Reconcile merges a freshly fetched server roster with a previously staged
// working set. Marks are carried over for students whose identity key is still
// present; students gone from the server roster drop out; new students appear
// unmarked. Two students sharing a name but holding distinct IDs stay
// independent. Reconciling twice against the same roster is a no-op.
func Reconcile(server []Student, working []Marked) []Marked {
	prior := make(map[string]string, len(working))
	for _, w := range working {
		prior[identityKey(w.Student)] = w.Status
	}

	out := make([]Marked, 0, len(server))
	for _, s := range server {
		out = append(out, Marked{Student: s, Status: prior[identityKey(s)]})
	}
	return out
}

// GroupByTeam partitions a working set by team tag. A student lands in the
// first of its tags that names a known team, or under DefaultTeam when none
// do. Every known team has an entry in the result, possibly empty.
func GroupByTeam(marked []Marked) map[string][]Marked {
	grouped := make(map[string][]Marked, len(Teams()))
	for _, t := range Teams() {
		grouped[t] = nil
	}
	for _, m := range marked {
		team := DefaultTeam
		for _, tag := range m.Groups {
			if KnownTeam(tag) {
				team = tag
				break
			}
		}
		grouped[team] = append(grouped[team], m)
	}
	return grouped
}
