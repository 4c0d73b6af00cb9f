// Package store provides in-memory storage for compiled units.
package store

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"
)

// UnitState records whether a unit's latest source transpiled.
type UnitState string

const (
	UnitCompiled UnitState = "COMPILED"
	UnitFailed   UnitState = "FAILED"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
)

// Unit is a named Lumin source together with its latest compilation.
type Unit struct {
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	State       UnitState  `json:"state"`
	RevisionID  string     `json:"revisionId"`
	CreateTime  time.Time  `json:"createTime"`
	UpdateTime  time.Time  `json:"updateTime"`
	Source      string     `json:"source"`
	Output      string     `json:"output,omitempty"`
	Error       *UnitError `json:"error,omitempty"`
}

// UnitError is the diagnostic of a failed compilation. Line and Col are
// zero when the failure has no source position.
type UnitError struct {
	Message string `json:"message"`
	Line    int    `json:"line,omitempty"`
	Col     int    `json:"col,omitempty"`
}

// Compilation is the outcome of transpiling a unit's source. Exactly one of
// Output and Err is meaningful.
type Compilation struct {
	Output string
	Err    *UnitError
}

// Store is a thread-safe in-memory storage for units. Returned units are
// copies; mutate them only through the Store.
type Store struct {
	mu    sync.RWMutex
	units map[string]*Unit

	revCounter int64
}

// New creates a new empty store.
func New() *Store {
	return &Store{units: make(map[string]*Unit)}
}

// UnitName returns the resource name for a unit ID.
func UnitName(id string) string {
	return "units/" + id
}

// CreateUnit stores a new unit.
func (s *Store) CreateUnit(id, source, description string, comp Compilation) (*Unit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.units[id]; exists {
		return nil, fmt.Errorf("unit '%s' %w", id, ErrAlreadyExists)
	}

	now := time.Now()
	u := &Unit{
		Name:        UnitName(id),
		Description: description,
		CreateTime:  now,
	}
	s.apply(u, source, comp, now)
	s.units[id] = u
	return u.clone(), nil
}

// GetUnit retrieves a unit by ID.
func (s *Store) GetUnit(id string) (*Unit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.units[id]
	if !ok {
		return nil, fmt.Errorf("unit '%s' %w", id, ErrNotFound)
	}
	return u.clone(), nil
}

// ListUnits returns all units ordered by name.
func (s *Store) ListUnits() []*Unit {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*Unit, 0, len(s.units))
	for _, u := range s.units {
		result = append(result, u.clone())
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}

// UpdateUnit replaces a unit's source and compilation. An empty description
// keeps the current one.
func (s *Store) UpdateUnit(id, source, description string, comp Compilation) (*Unit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.units[id]
	if !ok {
		return nil, fmt.Errorf("unit '%s' %w", id, ErrNotFound)
	}
	if description != "" {
		u.Description = description
	}
	s.apply(u, source, comp, time.Now())
	return u.clone(), nil
}

// PutUnit creates the unit or replaces an existing one.
func (s *Store) PutUnit(id, source string, comp Compilation) *Unit {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	u, ok := s.units[id]
	if !ok {
		u = &Unit{Name: UnitName(id), CreateTime: now}
		s.units[id] = u
	}
	s.apply(u, source, comp, now)
	return u.clone()
}

// DeleteUnit removes a unit.
func (s *Store) DeleteUnit(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.units[id]; !ok {
		return fmt.Errorf("unit '%s' %w", id, ErrNotFound)
	}
	delete(s.units, id)
	return nil
}

// apply records a new revision. The caller holds s.mu.
func (s *Store) apply(u *Unit, source string, comp Compilation, now time.Time) {
	s.revCounter++
	u.RevisionID = fmt.Sprintf("%06d-000", s.revCounter)
	u.UpdateTime = now
	u.Source = source
	if comp.Err != nil {
		u.State = UnitFailed
		u.Output = ""
		e := *comp.Err
		u.Error = &e
	} else {
		u.State = UnitCompiled
		u.Output = comp.Output
		u.Error = nil
	}
}

func (u *Unit) clone() *Unit {
	c := *u
	if u.Error != nil {
		e := *u.Error
		c.Error = &e
	}
	return &c
}
