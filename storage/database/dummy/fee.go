package dummydb

import (
	"context"
	"sort"

	"github.com/edumanage/backend/core/fee"
)

type feeRepository struct {
	db *DB
}

var _ fee.Repository = (*feeRepository)(nil) // interface compliance check

func NewFeeRepository(db *DB) fee.Repository {
	return &feeRepository{db: db}
}

func (repo *feeRepository) UpsertStructure(_ context.Context, s fee.Structure) (fee.Structure, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	maxID := 0
	for id, existing := range repo.db.feeStructures {
		if existing.ClassName == s.ClassName {
			s.ID = existing.ID
			s.CreatedAt = existing.CreatedAt
			repo.db.feeStructures[id] = &s
			repo.db.save()
			return s, nil
		}
		if id > maxID {
			maxID = id
		}
	}

	s.ID = maxID + 1
	repo.db.feeStructures[s.ID] = &s
	repo.db.save()
	return s, nil
}

func (repo *feeRepository) QueryStructures(_ context.Context) ([]fee.Structure, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	structures := make([]fee.Structure, 0, len(repo.db.feeStructures))
	for _, s := range repo.db.feeStructures {
		structures = append(structures, *s)
	}
	sort.Slice(structures, func(i, j int) bool { return structures[i].ClassName < structures[j].ClassName })
	return structures, nil
}

func (repo *feeRepository) GetStructure(_ context.Context, id int) (fee.Structure, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if s, ok := repo.db.feeStructures[id]; ok {
		return *s, nil
	}
	return fee.Structure{}, fee.ErrNotFound
}

func (repo *feeRepository) GetStructureForClass(_ context.Context, class string) (fee.Structure, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, s := range repo.db.feeStructures {
		if s.ClassName == class {
			return *s, nil
		}
	}
	return fee.Structure{}, fee.ErrNotFound
}

func (repo *feeRepository) DeleteStructuresByID(_ context.Context, ids ...int) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	for _, id := range ids {
		delete(repo.db.feeStructures, id)
	}
	repo.db.save()
	return nil
}
