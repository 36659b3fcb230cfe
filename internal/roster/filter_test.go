package roster

import "testing"

func TestFilterByNameEmptyQueryMeansNoFilter(t *testing.T) {
	roster := []Student{student("a1", "Alice", TeamTech)}

	got, applied := FilterByName(roster, "")
	if applied {
		t.Error("empty query reported as applied filter")
	}
	if len(got) != 1 {
		t.Errorf("unfiltered result length = %d, want full roster", len(got))
	}

	_, applied = FilterByName(roster, "   ")
	if applied {
		t.Error("whitespace query reported as applied filter")
	}
}

func TestFilterByNameCaseInsensitiveSubstring(t *testing.T) {
	roster := []Student{
		student("a1", "Alice Johnson", TeamTech),
		student("b1", "Bob", TeamPR),
		student("c1", "Malice", TeamDesign),
	}

	got, applied := FilterByName(roster, "ALiCe")
	if !applied {
		t.Fatal("filter not reported as applied")
	}
	if len(got) != 2 {
		t.Fatalf("matches = %d, want 2 (substring match)", len(got))
	}

	got, applied = FilterByName(roster, "zzz")
	if !applied {
		t.Fatal("filter not reported as applied")
	}
	if len(got) != 0 {
		t.Errorf("matches = %d, want 0", len(got))
	}
}

func TestFilterByTeam(t *testing.T) {
	roster := []Student{
		student("a1", "Alice", TeamTech),
		student("b1", "Bob", TeamPR),
		student("c1", "Cara", TeamPR, TeamCultural),
	}

	if got := FilterByTeam(roster, TeamAll); len(got) != 3 {
		t.Errorf("TeamAll result = %d, want all 3", len(got))
	}
	if got := FilterByTeam(roster, TeamPR); len(got) != 2 {
		t.Errorf("PR team result = %d, want 2", len(got))
	}
	if got := FilterByTeam(roster, TeamCultural); len(got) != 1 {
		t.Errorf("cultural team result = %d, want 1", len(got))
	}
	if got := FilterByTeam(roster, TeamOfficeBearer); len(got) != 0 {
		t.Errorf("office bearers result = %d, want 0", len(got))
	}
}
