package dummydb

import (
	"context"
	"sort"
	"strings"

	"github.com/edumanage/backend/core"
	"github.com/edumanage/backend/core/staff"
)

type staffRepository struct {
	db *DB
}

var _ staff.Repository = (*staffRepository)(nil) // interface compliance check

func NewStaffRepository(db *DB) staff.Repository {
	return &staffRepository{db: db}
}

func (repo *staffRepository) query() []staff.Staff {
	members := make([]staff.Staff, 0, len(repo.db.staff))
	for _, st := range repo.db.staff {
		members = append(members, *st)
	}
	sort.Slice(members, func(i, j int) bool { return members[i].ID < members[j].ID })
	return members
}

func (repo *staffRepository) CreateStaff(_ context.Context, st staff.Staff) (staff.Staff, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.staff[st.ID] = &st
	repo.db.save()
	return st, nil
}

func (repo *staffRepository) QueryStaff(_ context.Context, filter *staff.QueryFilter, ordering []core.DBOrdering) ([]staff.Staff, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	members := repo.query()
	if filter == nil || filter.IsEmpty() {
		return members, nil
	}
	filter.Clean()

	if filter.Search != "" {
		var filtered []staff.Staff
		search := strings.ToLower(filter.Search)
		for _, st := range members {
			if strings.Contains(strings.ToLower(st.Name), search) ||
				strings.Contains(strings.ToLower(st.Subject), search) {
				filtered = append(filtered, st)
			}
		}
		members = filtered
	}
	if members != nil && filter.Position != "" {
		var filtered []staff.Staff
		for _, st := range members {
			if st.Position == filter.Position {
				filtered = append(filtered, st)
			}
		}
		members = filtered
	}
	if members != nil && filter.Department != "" {
		var filtered []staff.Staff
		for _, st := range members {
			if st.Department == filter.Department {
				filtered = append(filtered, st)
			}
		}
		members = filtered
	}

	return members, nil
}

func (repo *staffRepository) GetStaff(_ context.Context, id int) (staff.Staff, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if st, ok := repo.db.staff[id]; ok {
		return *st, nil
	}
	return staff.Staff{}, staff.ErrNotFound
}

func (repo *staffRepository) UpdateStaff(_ context.Context, st staff.Staff) (staff.Staff, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.staff[st.ID]; !ok {
		return staff.Staff{}, staff.ErrNotFound
	}
	repo.db.staff[st.ID] = &st
	repo.db.save()
	return st, nil
}

func (repo *staffRepository) DeleteStaffByID(_ context.Context, ids ...int) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	for _, id := range ids {
		delete(repo.db.staff, id)
	}
	repo.db.save()
	return nil
}

func (repo *staffRepository) QueryPositions(_ context.Context) ([]string, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return repo.distinct(func(st staff.Staff) string { return st.Position }), nil
}

func (repo *staffRepository) QueryDepartments(_ context.Context) ([]string, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return repo.distinct(func(st staff.Staff) string { return st.Department }), nil
}

func (repo *staffRepository) distinct(field func(staff.Staff) string) []string {
	seen := make(map[string]bool)
	var values []string
	for _, st := range repo.query() {
		if v := field(st); v != "" && !seen[v] {
			seen[v] = true
			values = append(values, v)
		}
	}
	sort.Strings(values)
	return values
}
