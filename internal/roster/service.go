package roster

import (
	"context"
	"errors"
	"strings"
)

var (
	// ErrNameRequired rejects an empty student name.
	ErrNameRequired = errors.New("student name required")
	// ErrDuplicateName rejects a name already on the roster (case-insensitive).
	// The check is advisory: there is no unique index behind it.
	ErrDuplicateName = errors.New("student with the same name already exists")
	// ErrNoGroupSelected rejects an add with zero team tags.
	ErrNoGroupSelected = errors.New("select at least one group for the student")
	// ErrNotFound reports a missing student on delete.
	ErrNotFound = errors.New("student not found")
)

// Store persists the student collection.
type Store interface {
	Insert(ctx context.Context, s Student) (Student, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]Student, error)
	FindByNameLower(ctx context.Context, nameLower string) (*Student, error)
}

// Service validates and coordinates roster changes.
type Service struct {
	store Store
}

// NewService creates a service backed by a store.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// Add validates and inserts a new student. The name is trimmed, NameLower is
// recomputed, and a case-insensitive duplicate check runs against the store.
func (s *Service) Add(ctx context.Context, name string, groups []string) (Student, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Student{}, ErrNameRequired
	}
	if len(groups) == 0 {
		return Student{}, ErrNoGroupSelected
	}

	nameLower := strings.ToLower(name)
	existing, err := s.store.FindByNameLower(ctx, nameLower)
	if err != nil {
		return Student{}, err
	}
	if existing != nil {
		return Student{}, ErrDuplicateName
	}

	return s.store.Insert(ctx, Student{
		Name:      name,
		NameLower: nameLower,
		Groups:    groups,
	})
}

// Remove deletes a student by id. Historical attendance records keep the
// student's name and are not touched.
func (s *Service) Remove(ctx context.Context, id string) error {
	if id == "" {
		return ErrNotFound
	}
	return s.store.Delete(ctx, id)
}

// List returns the full roster.
func (s *Service) List(ctx context.Context) ([]Student, error) {
	return s.store.List(ctx)
}
