package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"brigade/internal/models"
)

// Memory is an in-process Store with the same semantics as the Mongo
// implementation. Handler and logic tests run against it.
type Memory struct {
	mu      sync.RWMutex
	recipes map[string]models.Recipe
	sheets  map[string]models.InventorySheet
	shifts  map[string]models.Shift
	wastage map[string]models.WastageEntry
	users   map[int64]models.User
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		recipes: make(map[string]models.Recipe),
		sheets:  make(map[string]models.InventorySheet),
		shifts:  make(map[string]models.Shift),
		wastage: make(map[string]models.WastageEntry),
		users:   make(map[int64]models.User),
	}
}

func (m *Memory) Recipes() RecipeStore  { return &memRecipes{m} }
func (m *Memory) Sheets() SheetStore    { return &memSheets{m} }
func (m *Memory) Shifts() ShiftStore    { return &memShifts{m} }
func (m *Memory) Wastage() WastageStore { return &memWastage{m} }
func (m *Memory) Users() UserStore      { return &memUsers{m} }

// ---- recipes ----

type memRecipes struct{ m *Memory }

func (s *memRecipes) List(_ context.Context, f RecipeFilter) ([]models.Recipe, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	var out []models.Recipe
	for _, r := range s.m.recipes {
		if !f.IncludeArchived && r.Archived {
			continue
		}
		if f.Category != "" && r.Category != f.Category {
			continue
		}
		if f.Tag != "" && !r.HasTag(f.Tag) {
			continue
		}
		if f.Query != "" && !strings.Contains(strings.ToLower(r.Name), strings.ToLower(f.Query)) {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *memRecipes) Get(_ context.Context, id string) (*models.Recipe, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	r, ok := s.m.recipes[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &r, nil
}

func (s *memRecipes) Create(_ context.Context, r *models.Recipe) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if _, ok := s.m.recipes[r.ID]; ok {
		return ErrDuplicate
	}
	s.m.recipes[r.ID] = *r
	return nil
}

func (s *memRecipes) Update(_ context.Context, r *models.Recipe) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if _, ok := s.m.recipes[r.ID]; !ok {
		return ErrNotFound
	}
	s.m.recipes[r.ID] = *r
	return nil
}

func (s *memRecipes) Archive(_ context.Context, id string) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	r, ok := s.m.recipes[id]
	if !ok {
		return ErrNotFound
	}
	r.Archived = true
	s.m.recipes[id] = r
	return nil
}

func (s *memRecipes) Delete(_ context.Context, id string) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if _, ok := s.m.recipes[id]; !ok {
		return ErrNotFound
	}
	delete(s.m.recipes, id)
	return nil
}

// ---- inventory sheets ----

type memSheets struct{ m *Memory }

func (s *memSheets) List(_ context.Context) ([]models.InventorySheet, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	out := make([]models.InventorySheet, 0, len(s.m.sheets))
	for _, sheet := range s.m.sheets {
		out = append(out, sheet)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *memSheets) Get(_ context.Context, id string) (*models.InventorySheet, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	sheet, ok := s.m.sheets[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &sheet, nil
}

func (s *memSheets) Create(_ context.Context, sheet *models.InventorySheet) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if _, ok := s.m.sheets[sheet.ID]; ok {
		return ErrDuplicate
	}
	s.m.sheets[sheet.ID] = *sheet
	return nil
}

func (s *memSheets) ReplaceItems(_ context.Context, id string, items []models.SheetItem, by models.Actor, now time.Time) (*models.InventorySheet, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	sheet, ok := s.m.sheets[id]
	if !ok {
		return nil, ErrNotFound
	}
	if sheet.LockedByOther(by.ID, now) {
		return &sheet, ErrLocked
	}
	sheet.Items = items
	sheet.UpdatedAt = now
	s.m.sheets[id] = sheet
	return &sheet, nil
}

func (s *memSheets) Lock(_ context.Context, id string, by models.Actor, now time.Time) (*models.InventorySheet, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	sheet, ok := s.m.sheets[id]
	if !ok {
		return nil, ErrNotFound
	}
	if sheet.LockedByOther(by.ID, now) {
		return &sheet, ErrLocked
	}
	holder := by
	sheet.LockedBy = &holder
	lockedAt := now
	sheet.LockedAt = &lockedAt
	sheet.UpdatedAt = now
	s.m.sheets[id] = sheet
	return &sheet, nil
}

func (s *memSheets) Unlock(_ context.Context, id string, by models.Actor, force bool, now time.Time) (*models.InventorySheet, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	sheet, ok := s.m.sheets[id]
	if !ok {
		return nil, ErrNotFound
	}
	if !force && sheet.LockedBy != nil && sheet.LockedBy.ID != by.ID {
		return &sheet, ErrLocked
	}
	sheet.LockedBy = nil
	sheet.LockedAt = nil
	sheet.UpdatedAt = now
	s.m.sheets[id] = sheet
	return &sheet, nil
}

func (s *memSheets) SaveDraft(_ context.Context, id string, by models.Actor, values map[string]float64, now time.Time) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	sheet, ok := s.m.sheets[id]
	if !ok {
		return ErrNotFound
	}
	if sheet.Drafts == nil {
		sheet.Drafts = make(map[string]models.SheetDraft)
	}
	sheet.Drafts[by.DraftKey()] = models.SheetDraft{Values: values, UpdatedAt: now}
	s.m.sheets[id] = sheet
	return nil
}

func (s *memSheets) Submit(_ context.Context, id string, by models.Actor, now time.Time) (*models.InventorySheet, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	sheet, ok := s.m.sheets[id]
	if !ok {
		return nil, ErrNotFound
	}
	if sheet.LockedByOther(by.ID, now) {
		return &sheet, ErrLocked
	}
	sheet.Status = models.SheetSubmitted
	submitter := by
	sheet.SubmittedBy = &submitter
	submittedAt := now
	sheet.SubmittedAt = &submittedAt
	sheet.LockedBy = nil
	sheet.LockedAt = nil
	delete(sheet.Drafts, by.DraftKey())
	sheet.UpdatedAt = now
	s.m.sheets[id] = sheet
	return &sheet, nil
}

// ---- shifts ----

type memShifts struct{ m *Memory }

func matchShift(sh models.Shift, f ShiftFilter) bool {
	if f.From != "" && sh.Day < f.From {
		return false
	}
	if f.To != "" && sh.Day > f.To {
		return false
	}
	if f.StaffID != 0 && sh.StaffID != f.StaffID {
		return false
	}
	if f.PublishedOnly && !sh.Published {
		return false
	}
	return true
}

func (s *memShifts) List(_ context.Context, f ShiftFilter) ([]models.Shift, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	var out []models.Shift
	for _, sh := range s.m.shifts {
		if matchShift(sh, f) {
			out = append(out, sh)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Day != out[j].Day {
			return out[i].Day < out[j].Day
		}
		return out[i].Start < out[j].Start
	})
	return out, nil
}

func (s *memShifts) Get(_ context.Context, id string) (*models.Shift, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	sh, ok := s.m.shifts[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &sh, nil
}

func (s *memShifts) Create(_ context.Context, sh *models.Shift) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if _, ok := s.m.shifts[sh.ID]; ok {
		return ErrDuplicate
	}
	s.m.shifts[sh.ID] = *sh
	return nil
}

func (s *memShifts) Update(_ context.Context, sh *models.Shift) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if _, ok := s.m.shifts[sh.ID]; !ok {
		return ErrNotFound
	}
	s.m.shifts[sh.ID] = *sh
	return nil
}

func (s *memShifts) Delete(_ context.Context, id string) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if _, ok := s.m.shifts[id]; !ok {
		return ErrNotFound
	}
	delete(s.m.shifts, id)
	return nil
}

func (s *memShifts) Publish(_ context.Context, from, to string, now time.Time) ([]models.Shift, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	var out []models.Shift
	for id, sh := range s.m.shifts {
		if !matchShift(sh, ShiftFilter{From: from, To: to}) {
			continue
		}
		sh.Published = true
		sh.UpdatedAt = now
		s.m.shifts[id] = sh
		out = append(out, sh)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Day != out[j].Day {
			return out[i].Day < out[j].Day
		}
		return out[i].Start < out[j].Start
	})
	return out, nil
}

// ---- wastage ----

type memWastage struct{ m *Memory }

func (s *memWastage) Create(_ context.Context, e *models.WastageEntry) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if _, ok := s.m.wastage[e.ID]; ok {
		return ErrDuplicate
	}
	s.m.wastage[e.ID] = *e
	return nil
}

func (s *memWastage) List(_ context.Context, f WastageFilter) ([]models.WastageEntry, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	var out []models.WastageEntry
	for _, e := range s.m.wastage {
		if !f.From.IsZero() && e.RecordedAt.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && e.RecordedAt.After(f.To) {
			continue
		}
		if f.Reason != "" && e.Reason != f.Reason {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RecordedAt.After(out[j].RecordedAt) })
	return out, nil
}

func (s *memWastage) Summary(ctx context.Context, from, to time.Time) ([]models.WastageSummary, error) {
	entries, err := s.List(ctx, WastageFilter{From: from, To: to})
	if err != nil {
		return nil, err
	}
	byReason := make(map[models.WastageReason]*models.WastageSummary)
	for _, e := range entries {
		row, ok := byReason[e.Reason]
		if !ok {
			row = &models.WastageSummary{Reason: e.Reason}
			byReason[e.Reason] = row
		}
		row.Count++
		row.Quantity += e.Quantity
		row.Cost += e.CostEstimate
	}
	out := make([]models.WastageSummary, 0, len(byReason))
	for _, row := range byReason {
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Reason < out[j].Reason })
	return out, nil
}

func (s *memWastage) Delete(_ context.Context, id string) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if _, ok := s.m.wastage[id]; !ok {
		return ErrNotFound
	}
	delete(s.m.wastage, id)
	return nil
}

// ---- users ----

type memUsers struct{ m *Memory }

func (s *memUsers) Get(_ context.Context, id int64) (*models.User, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	u, ok := s.m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (s *memUsers) Upsert(_ context.Context, u *models.User) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	existing, ok := s.m.users[u.ID]
	next := *u
	if ok {
		next.CreatedAt = existing.CreatedAt
		if next.Role == "" {
			next.Role = existing.Role
		}
	} else if next.Role == "" {
		next.Role = models.RoleStaff
	}
	s.m.users[u.ID] = next
	return nil
}

func (s *memUsers) List(_ context.Context) ([]models.User, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	out := make([]models.User, 0, len(s.m.users))
	for _, u := range s.m.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FirstName < out[j].FirstName })
	return out, nil
}
