package draft

import (
	"context"
	"errors"
	"testing"

	"rollcall/internal/roster"
)

type memStore struct {
	drafts map[string]Marks
}

func (m *memStore) Put(_ context.Context, id string, marks Marks) error {
	if m.drafts == nil {
		m.drafts = make(map[string]Marks)
	}
	m.drafts[id] = marks
	return nil
}

func (m *memStore) Get(_ context.Context, id string) (Marks, error) {
	return m.drafts[id], nil
}

func (m *memStore) Clear(_ context.Context, id string) error {
	delete(m.drafts, id)
	return nil
}

type fakeRoster struct {
	students []roster.Student
}

func (f *fakeRoster) List(_ context.Context) ([]roster.Student, error) {
	return f.students, nil
}

func newStudent(id, name string) roster.Student {
	s := roster.Student{ID: id, Name: name, Groups: []string{roster.TeamTech}}
	s.Normalize()
	return s
}

func TestStageRejectsBadStatus(t *testing.T) {
	sheets := NewSheets(&memStore{}, &fakeRoster{})

	err := sheets.Stage(context.Background(), "d1", Marks{"a1": "late"})
	if !errors.Is(err, ErrBadStatus) {
		t.Fatalf("err = %v, want ErrBadStatus", err)
	}
}

func TestStageDropsUnmarkedEntries(t *testing.T) {
	store := &memStore{}
	sheets := NewSheets(store, &fakeRoster{})

	if err := sheets.Stage(context.Background(), "d1", Marks{
		"a1": roster.StatusPresent,
		"b1": roster.StatusUnmarked,
	}); err != nil {
		t.Fatalf("Stage: %v", err)
	}
	if len(store.drafts["d1"]) != 1 {
		t.Errorf("stored marks = %d, want 1", len(store.drafts["d1"]))
	}
}

func TestLoadReconcilesAgainstFreshRoster(t *testing.T) {
	lister := &fakeRoster{students: []roster.Student{
		newStudent("a1", "Alice"),
		newStudent("b1", "Bob"),
	}}
	sheets := NewSheets(&memStore{}, lister)
	ctx := context.Background()

	if err := sheets.Stage(ctx, "d1", Marks{
		"a1": roster.StatusPresent,
		"x9": roster.StatusAbsent, // no longer on the roster
	}); err != nil {
		t.Fatalf("Stage: %v", err)
	}

	sheet, err := sheets.Load(ctx, "d1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(sheet) != 2 {
		t.Fatalf("sheet size = %d, want roster size 2", len(sheet))
	}
	byID := make(map[string]string)
	for _, m := range sheet {
		byID[m.ID] = m.Status
	}
	if byID["a1"] != roster.StatusPresent {
		t.Errorf("Alice status = %q, want present carried over", byID["a1"])
	}
	if byID["b1"] != roster.StatusUnmarked {
		t.Errorf("Bob status = %q, want unmarked", byID["b1"])
	}

	// Roster grows: new student appears unmarked, marks survive.
	lister.students = append(lister.students, newStudent("c1", "Cara"))
	sheet, err = sheets.Load(ctx, "d1")
	if err != nil {
		t.Fatalf("Load after roster change: %v", err)
	}
	if len(sheet) != 3 {
		t.Fatalf("sheet size = %d, want 3", len(sheet))
	}
}

func TestClearDropsDraft(t *testing.T) {
	store := &memStore{}
	lister := &fakeRoster{students: []roster.Student{newStudent("a1", "Alice")}}
	sheets := NewSheets(store, lister)
	ctx := context.Background()

	if err := sheets.Stage(ctx, "d1", Marks{"a1": roster.StatusPresent}); err != nil {
		t.Fatalf("Stage: %v", err)
	}
	if err := sheets.Clear(ctx, "d1"); err != nil {
		t.Fatalf("Clear: %v", err)
	}

	sheet, err := sheets.Load(ctx, "d1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if sheet[0].Status != roster.StatusUnmarked {
		t.Errorf("status = %q after clear, want unmarked", sheet[0].Status)
	}
}
